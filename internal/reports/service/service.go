package service

import (
	"context"
	"time"

	"funilzap_backend/internal/leads/domain"
)

// LeadSource provides the merged lead view the overview is computed from.
type LeadSource interface {
	CurrentLeads(ctx context.Context) ([]domain.Lead, error)
}

// StageCount is one funnel column of the overview.
type StageCount struct {
	Stage Stage  `json:"stage"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Overview is the funnel dashboard summary.
type Overview struct {
	Total         int          `json:"total"`
	Hot           int          `json:"hot"`
	AttendedToday int          `json:"attendedToday"`
	Unassigned    int          `json:"unassigned"`
	Stages        []StageCount `json:"stages"`
	GeneratedAt   time.Time    `json:"generatedAt"`
}

// Stage aliases the funnel stage for JSON encoding.
type Stage = domain.Stage

type Service struct {
	leads LeadSource
	now   func() time.Time
}

func New(leads LeadSource) *Service {
	return &Service{leads: leads, now: time.Now}
}

// FunnelOverview aggregates the merged lead list into per-stage counts plus
// the hot, attended-today and unassigned totals. Hot uses the canonical
// stage predicate shared with the lead view.
func (s *Service) FunnelOverview(ctx context.Context) (Overview, error) {
	leads, err := s.leads.CurrentLeads(ctx)
	if err != nil {
		return Overview{}, err
	}

	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	counts := make(map[domain.Stage]int, len(domain.Stages))
	overview := Overview{
		Total:       len(leads),
		GeneratedAt: now,
	}

	for _, lead := range leads {
		counts[lead.Stage]++
		if domain.IsHotStage(lead.Stage) {
			overview.Hot++
		}
		if lead.AssignedTo == nil {
			overview.Unassigned++
		}
		if !lead.LastMessageAt.Before(startOfDay) {
			overview.AttendedToday++
		}
	}

	overview.Stages = make([]StageCount, 0, len(domain.Stages))
	for _, stage := range domain.Stages {
		overview.Stages = append(overview.Stages, StageCount{
			Stage: stage,
			Label: stage.ExternalLabel(),
			Count: counts[stage],
		})
	}

	return overview, nil
}

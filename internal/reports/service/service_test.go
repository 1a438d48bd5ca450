package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"funilzap_backend/internal/leads/domain"

	"github.com/google/uuid"
)

type staticLeads struct {
	leads []domain.Lead
	err   error
}

func (s *staticLeads) CurrentLeads(ctx context.Context) ([]domain.Lead, error) {
	return s.leads, s.err
}

func TestFunnelOverview(t *testing.T) {
	now := time.Date(2025, 3, 15, 14, 0, 0, 0, time.UTC)
	assignee := uuid.New()
	source := &staticLeads{leads: []domain.Lead{
		{Stage: domain.StageNegotiation, AssignedTo: &assignee, LastMessageAt: now.Add(-time.Hour)},
		{Stage: domain.StageObjection, LastMessageAt: now.AddDate(0, 0, -2)},
		{Stage: domain.StageInitial, LastMessageAt: now.Add(-10 * time.Minute)},
		{Stage: domain.StageInitial, LastMessageAt: now.AddDate(0, 0, -30)},
	}}

	svc := New(source)
	svc.now = func() time.Time { return now }

	overview, err := svc.FunnelOverview(context.Background())
	if err != nil {
		t.Fatalf("FunnelOverview failed: %v", err)
	}

	if overview.Total != 4 {
		t.Fatalf("expected total 4, got %d", overview.Total)
	}
	if overview.Hot != 2 {
		t.Fatalf("expected 2 hot leads, got %d", overview.Hot)
	}
	if overview.Unassigned != 3 {
		t.Fatalf("expected 3 unassigned, got %d", overview.Unassigned)
	}
	if overview.AttendedToday != 2 {
		t.Fatalf("expected 2 attended today, got %d", overview.AttendedToday)
	}

	if len(overview.Stages) != len(domain.Stages) {
		t.Fatalf("overview must list every stage, got %d", len(overview.Stages))
	}
	for i, stage := range domain.Stages {
		if overview.Stages[i].Stage != stage {
			t.Fatalf("stage order broken at %d: %q", i, overview.Stages[i].Stage)
		}
		if overview.Stages[i].Label != stage.ExternalLabel() {
			t.Fatalf("stage %q carries label %q", stage, overview.Stages[i].Label)
		}
	}
	if overview.Stages[0].Count != 2 {
		t.Fatalf("expected 2 initial leads, got %d", overview.Stages[0].Count)
	}
}

func TestFunnelOverview_EmptyFunnel(t *testing.T) {
	svc := New(&staticLeads{})

	overview, err := svc.FunnelOverview(context.Background())
	if err != nil {
		t.Fatalf("FunnelOverview failed: %v", err)
	}
	if overview.Total != 0 || overview.Hot != 0 {
		t.Fatalf("expected empty overview, got %+v", overview)
	}
	if len(overview.Stages) != len(domain.Stages) {
		t.Fatalf("empty funnel must still list every stage")
	}
}

func TestFunnelOverview_SourceError(t *testing.T) {
	svc := New(&staticLeads{err: errors.New("no snapshot")})
	if _, err := svc.FunnelOverview(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

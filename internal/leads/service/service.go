// Package service orchestrates the lead funnel: merging the three source
// record sets into the cached Lead view, filtering it, and coordinating
// mutations against the backing store.
package service

import (
	"context"
	"errors"
	"time"

	"funilzap_backend/internal/events"
	"funilzap_backend/internal/leads/domain"
	"funilzap_backend/internal/leads/refresh"
	"funilzap_backend/internal/leads/repository"
	"funilzap_backend/platform/apperr"
	"funilzap_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// listTarget is the single target of the lead-list refresher.
const listTarget = "leads"

// Repository is the data access surface the service needs.
type Repository interface {
	ListFunnel(ctx context.Context) ([]domain.FunnelRecord, error)
	GetFunnel(ctx context.Context, id uuid.UUID) (domain.FunnelRecord, error)
	ListRegistrationsByPhone(ctx context.Context) (map[string]domain.RegistrationRecord, error)
	ListLatestMessages(ctx context.Context) (map[uuid.UUID]domain.MessageRecord, error)
	GetRegistrationByPhone(ctx context.Context, phone string) (*domain.RegistrationRecord, error)
	GetLatestMessage(ctx context.Context, leadID uuid.UUID) (*domain.MessageRecord, error)
	UpdateStage(ctx context.Context, id uuid.UUID, stageLabel string, changedAt time.Time) error
	UpdateAssignment(ctx context.Context, id uuid.UUID, assignedTo *uuid.UUID) error
	UpdateTimeActive(ctx context.Context, id uuid.UUID, active bool) error
}

type Service struct {
	repo Repository
	bus  events.Bus
	log  *logger.Logger
	list *refresh.Controller[[]domain.Lead]

	// now is swapped in tests.
	now func() time.Time
}

func New(repo Repository, bus events.Bus, log *logger.Logger, pollInterval time.Duration) *Service {
	s := &Service{
		repo: repo,
		bus:  bus,
		log:  log,
		now:  time.Now,
	}
	s.list = refresh.New(pollInterval, func(ctx context.Context, _ string) ([]domain.Lead, error) {
		return s.loadMerged(ctx)
	}, log)
	return s
}

// StartPolling arms the lead-list refresher. Called once at startup.
func (s *Service) StartPolling() {
	s.list.Start(listTarget)
}

// StopPolling disarms the refresher on shutdown.
func (s *Service) StopPolling() {
	s.list.Stop()
}

// loadMerged fetches the three record sets concurrently and joins them.
func (s *Service) loadMerged(ctx context.Context) ([]domain.Lead, error) {
	var (
		funnel        []domain.FunnelRecord
		registrations map[string]domain.RegistrationRecord
		latest        map[uuid.UUID]domain.MessageRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		funnel, err = s.repo.ListFunnel(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		registrations, err = s.repo.ListRegistrationsByPhone(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		latest, err = s.repo.ListLatestMessages(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	leads := make([]domain.Lead, 0, len(funnel))
	for _, rec := range funnel {
		var reg *domain.RegistrationRecord
		if found, ok := registrations[rec.Phone]; ok {
			regCopy := found
			reg = &regCopy
		}
		var last *domain.MessageRecord
		if found, ok := latest[rec.ID]; ok {
			lastCopy := found
			last = &lastCopy
		}
		leads = append(leads, domain.MergeLead(rec, reg, last))
	}

	return leads, nil
}

// List returns the filtered lead view. With forceRefresh the snapshot is
// refetched out-of-band first; otherwise the cached snapshot serves the
// request and the poll loop keeps it fresh.
func (s *Service) List(ctx context.Context, criteria domain.FilterCriteria, currentUserID *uuid.UUID, forceRefresh bool) ([]domain.Lead, error) {
	leads, err := s.currentLeads(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}
	return domain.ApplyFilters(leads, criteria, currentUserID, s.now()), nil
}

// CurrentLeads returns the unfiltered merged lead view.
func (s *Service) CurrentLeads(ctx context.Context) ([]domain.Lead, error) {
	return s.currentLeads(ctx, false)
}

func (s *Service) currentLeads(ctx context.Context, forceRefresh bool) ([]domain.Lead, error) {
	if !forceRefresh {
		if cached, _, ok := s.list.Snapshot(); ok {
			return cached, nil
		}
	}

	leads, err := s.list.RefreshNow(ctx)
	if err != nil {
		// A manual refresh that fails keeps the previous snapshot; the
		// caller gets a transient error instead of an empty list.
		if cached, _, ok := s.list.Snapshot(); ok && !forceRefresh {
			return cached, nil
		}
		return nil, apperr.Wrap(apperr.KindUnavailable, "could not load leads", err)
	}
	return leads, nil
}

// GetMerged loads one lead's merged view directly from the source records.
func (s *Service) GetMerged(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	funnel, err := s.repo.GetFunnel(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Lead{}, apperr.NotFound("lead not found")
		}
		return domain.Lead{}, apperr.Wrap(apperr.KindUnavailable, "could not load lead", err)
	}

	reg, err := s.repo.GetRegistrationByPhone(ctx, funnel.Phone)
	if err != nil {
		return domain.Lead{}, apperr.Wrap(apperr.KindUnavailable, "could not load lead", err)
	}

	last, err := s.repo.GetLatestMessage(ctx, id)
	if err != nil {
		return domain.Lead{}, apperr.Wrap(apperr.KindUnavailable, "could not load lead", err)
	}

	return domain.MergeLead(funnel, reg, last), nil
}

// Assign writes the assignment and patches the cached lead. A failed write
// leaves local state untouched and is surfaced; there is no retry.
func (s *Service) Assign(ctx context.Context, leadID uuid.UUID, assignedTo *uuid.UUID, actor uuid.UUID) (domain.Lead, error) {
	if err := s.repo.UpdateAssignment(ctx, leadID, assignedTo); err != nil {
		return domain.Lead{}, s.writeError("assign lead", err)
	}

	lead, err := s.patchLead(ctx, leadID, func(l domain.Lead) domain.Lead {
		l.AssignedTo = assignedTo
		return l
	})
	if err != nil {
		return domain.Lead{}, err
	}

	s.publish(ctx, events.LeadAssigned{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     leadID,
		LeadName:   lead.Name,
		AssignedTo: assignedTo,
		AssignedBy: actor,
	})
	return lead, nil
}

// ChangeStage writes the external label for the requested stage and stamps
// the stage-change timestamp with this process's clock. The local timestamp
// can therefore disagree with concurrent server-side updates; accepted.
func (s *Service) ChangeStage(ctx context.Context, leadID uuid.UUID, stage domain.Stage, actor uuid.UUID) (domain.Lead, error) {
	if !stage.IsValid() {
		return domain.Lead{}, apperr.Validation("unknown funnel stage")
	}

	changedAt := s.now()
	if err := s.repo.UpdateStage(ctx, leadID, stage.ExternalLabel(), changedAt); err != nil {
		return domain.Lead{}, s.writeError("change stage", err)
	}

	var fromStage domain.Stage
	lead, err := s.patchLead(ctx, leadID, func(l domain.Lead) domain.Lead {
		fromStage = l.Stage
		l.Stage = stage
		l.StageUpdatedAt = changedAt
		l.IsHot = domain.IsHotStage(stage)
		return l
	})
	if err != nil {
		return domain.Lead{}, err
	}

	s.publish(ctx, events.LeadStageChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		FromStage: string(fromStage),
		ToStage:   string(stage),
		ChangedBy: actor,
	})
	return lead, nil
}

// ToggleAutomation negates the current paused flag and writes the inverted
// value to the remote "time active" field. Returns the new paused value.
func (s *Service) ToggleAutomation(ctx context.Context, leadID uuid.UUID) (bool, error) {
	current, err := s.currentLead(ctx, leadID)
	if err != nil {
		return false, err
	}

	newPaused := !current.AutomationPaused
	// The remote field tracks "time active", the complement of paused.
	if err := s.repo.UpdateTimeActive(ctx, leadID, !newPaused); err != nil {
		return false, s.writeError("toggle automation", err)
	}

	if _, err := s.patchLead(ctx, leadID, func(l domain.Lead) domain.Lead {
		l.AutomationPaused = newPaused
		return l
	}); err != nil {
		return false, err
	}

	return newPaused, nil
}

// currentLead prefers the cached snapshot, falling back to a direct load.
func (s *Service) currentLead(ctx context.Context, leadID uuid.UUID) (domain.Lead, error) {
	if cached, _, ok := s.list.Snapshot(); ok {
		for _, l := range cached {
			if l.ID == leadID {
				return l, nil
			}
		}
	}
	return s.GetMerged(ctx, leadID)
}

// patchLead replaces one lead in the cached snapshot by building a new list
// with that single element swapped; the list is never refetched wholesale to
// reflect a field change. Without a snapshot the lead is loaded directly.
func (s *Service) patchLead(ctx context.Context, leadID uuid.UUID, fn func(domain.Lead) domain.Lead) (domain.Lead, error) {
	var patched *domain.Lead
	s.list.Mutate(func(leads []domain.Lead) []domain.Lead {
		next := make([]domain.Lead, len(leads))
		copy(next, leads)
		for i, l := range next {
			if l.ID == leadID {
				updated := fn(l)
				next[i] = updated
				patched = &updated
				break
			}
		}
		return next
	})

	if patched != nil {
		return *patched, nil
	}

	lead, err := s.GetMerged(ctx, leadID)
	if err != nil {
		return domain.Lead{}, err
	}
	return fn(lead), nil
}

func (s *Service) writeError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("lead not found").WithOp(op)
	}
	return apperr.Wrap(apperr.KindUnavailable, "update failed", err).WithOp(op)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, event)
	}
}

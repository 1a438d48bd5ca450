package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"funilzap_backend/internal/events"
	"funilzap_backend/internal/leads/domain"
	"funilzap_backend/internal/leads/repository"
	"funilzap_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	mu            sync.Mutex
	funnel        []domain.FunnelRecord
	registrations map[string]domain.RegistrationRecord
	latest        map[uuid.UUID]domain.MessageRecord

	listErr  error
	writeErr error

	stageWrites      []string
	assignmentWrites []*uuid.UUID
	timeActiveWrites []bool
}

func (f *fakeRepo) ListFunnel(ctx context.Context) ([]domain.FunnelRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.FunnelRecord(nil), f.funnel...), nil
}

func (f *fakeRepo) GetFunnel(ctx context.Context, id uuid.UUID) (domain.FunnelRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.funnel {
		if rec.ID == id {
			return rec, nil
		}
	}
	return domain.FunnelRecord{}, repository.ErrNotFound
}

func (f *fakeRepo) ListRegistrationsByPhone(ctx context.Context) (map[string]domain.RegistrationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registrations, nil
}

func (f *fakeRepo) ListLatestMessages(ctx context.Context) (map[uuid.UUID]domain.MessageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, nil
}

func (f *fakeRepo) GetRegistrationByPhone(ctx context.Context, phone string) (*domain.RegistrationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if reg, ok := f.registrations[phone]; ok {
		regCopy := reg
		return &regCopy, nil
	}
	return nil, nil
}

func (f *fakeRepo) GetLatestMessage(ctx context.Context, leadID uuid.UUID) (*domain.MessageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if last, ok := f.latest[leadID]; ok {
		lastCopy := last
		return &lastCopy, nil
	}
	return nil, nil
}

func (f *fakeRepo) UpdateStage(ctx context.Context, id uuid.UUID, stageLabel string, changedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.stageWrites = append(f.stageWrites, stageLabel)
	return nil
}

func (f *fakeRepo) UpdateAssignment(ctx context.Context, id uuid.UUID, assignedTo *uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.assignmentWrites = append(f.assignmentWrites, assignedTo)
	return nil
}

func (f *fakeRepo) UpdateTimeActive(ctx context.Context, id uuid.UUID, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.timeActiveWrites = append(f.timeActiveWrites, active)
	return nil
}

type captureBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *captureBus) Publish(ctx context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *captureBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *captureBus) Subscribe(eventName string, handler events.Handler) {}

func (b *captureBus) published() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Event(nil), b.events...)
}

func newTestService(repo *fakeRepo, bus events.Bus) *Service {
	return New(repo, bus, logger.New("test"), time.Hour)
}

func TestList_MergesAllThreeSources(t *testing.T) {
	leadID := uuid.New()
	repo := &fakeRepo{
		funnel: []domain.FunnelRecord{{
			ID:         leadID,
			Phone:      "5511999990001",
			StageLabel: "negociacao",
			TimeActive: true,
		}},
		registrations: map[string]domain.RegistrationRecord{
			"5511999990001": {Phone: "5511999990001", Name: "Maria"},
		},
		latest: map[uuid.UUID]domain.MessageRecord{
			leadID: {Content: "oi", SentAt: time.Now()},
		},
	}
	svc := newTestService(repo, &captureBus{})

	got, err := svc.List(context.Background(), domain.FilterCriteria{}, nil, false)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 lead, got %d", len(got))
	}
	lead := got[0]
	if lead.Name != "Maria" || lead.Stage != domain.StageNegotiation || lead.LastMessage != "oi" {
		t.Fatalf("merge incomplete: %+v", lead)
	}
}

func TestList_ForceRefreshBypassesCache(t *testing.T) {
	leadID := uuid.New()
	repo := &fakeRepo{funnel: []domain.FunnelRecord{{ID: leadID, StageLabel: "compra"}}}
	svc := newTestService(repo, &captureBus{})

	if _, err := svc.List(context.Background(), domain.FilterCriteria{}, nil, false); err != nil {
		t.Fatalf("warmup failed: %v", err)
	}

	repo.mu.Lock()
	repo.funnel = append(repo.funnel, domain.FunnelRecord{ID: uuid.New(), StageLabel: "compra"})
	repo.mu.Unlock()

	cached, err := svc.List(context.Background(), domain.FilterCriteria{}, nil, false)
	if err != nil {
		t.Fatalf("cached list failed: %v", err)
	}
	if len(cached) != 1 {
		t.Fatalf("expected the stale cached view, got %d leads", len(cached))
	}

	fresh, err := svc.List(context.Background(), domain.FilterCriteria{}, nil, true)
	if err != nil {
		t.Fatalf("forced list failed: %v", err)
	}
	if len(fresh) != 2 {
		t.Fatalf("forced refresh should see the new lead, got %d", len(fresh))
	}
}

func TestList_FailedRefreshServesPreviousSnapshot(t *testing.T) {
	repo := &fakeRepo{funnel: []domain.FunnelRecord{{ID: uuid.New(), StageLabel: "compra"}}}
	svc := newTestService(repo, &captureBus{})

	if _, err := svc.List(context.Background(), domain.FilterCriteria{}, nil, false); err != nil {
		t.Fatalf("warmup failed: %v", err)
	}

	repo.mu.Lock()
	repo.listErr = errors.New("db down")
	repo.mu.Unlock()

	// The cached snapshot still serves regular reads.
	got, err := svc.List(context.Background(), domain.FilterCriteria{}, nil, false)
	if err != nil || len(got) != 1 {
		t.Fatalf("expected cached view, got %d leads err=%v", len(got), err)
	}

	// A forced refresh surfaces the failure instead.
	if _, err := svc.List(context.Background(), domain.FilterCriteria{}, nil, true); err == nil {
		t.Fatalf("expected forced refresh to fail")
	}
}

func TestChangeStage_WritesLabelAndPatchesCache(t *testing.T) {
	leadID := uuid.New()
	actor := uuid.New()
	repo := &fakeRepo{funnel: []domain.FunnelRecord{{ID: leadID, StageLabel: "contato_inicial"}}}
	bus := &captureBus{}
	svc := newTestService(repo, bus)

	if _, err := svc.List(context.Background(), domain.FilterCriteria{}, nil, false); err != nil {
		t.Fatalf("warmup failed: %v", err)
	}

	lead, err := svc.ChangeStage(context.Background(), leadID, domain.StageNegotiation, actor)
	if err != nil {
		t.Fatalf("ChangeStage failed: %v", err)
	}
	if lead.Stage != domain.StageNegotiation || !lead.IsHot {
		t.Fatalf("patched lead wrong: %+v", lead)
	}

	if len(repo.stageWrites) != 1 || repo.stageWrites[0] != "negociacao" {
		t.Fatalf("expected external label write, got %v", repo.stageWrites)
	}

	published := bus.published()
	if len(published) != 1 {
		t.Fatalf("expected one event, got %d", len(published))
	}
	change, ok := published[0].(events.LeadStageChanged)
	if !ok {
		t.Fatalf("unexpected event %T", published[0])
	}
	if change.FromStage != "initial" || change.ToStage != "negotiation" {
		t.Fatalf("unexpected transition %s -> %s", change.FromStage, change.ToStage)
	}

	// The cached list reflects the patch without a refetch.
	got, err := svc.List(context.Background(), domain.FilterCriteria{}, nil, false)
	if err != nil || len(got) != 1 || got[0].Stage != domain.StageNegotiation {
		t.Fatalf("cache not patched: %+v err=%v", got, err)
	}
}

func TestChangeStage_RejectsUnknownStage(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &captureBus{})

	if _, err := svc.ChangeStage(context.Background(), uuid.New(), domain.Stage("bogus"), uuid.New()); err == nil {
		t.Fatalf("expected validation error")
	}
	if len(repo.stageWrites) != 0 {
		t.Fatalf("invalid stage must not hit the store")
	}
}

func TestChangeStage_FailedWriteLeavesCacheUntouched(t *testing.T) {
	leadID := uuid.New()
	repo := &fakeRepo{funnel: []domain.FunnelRecord{{ID: leadID, StageLabel: "contato_inicial"}}}
	bus := &captureBus{}
	svc := newTestService(repo, bus)

	if _, err := svc.List(context.Background(), domain.FilterCriteria{}, nil, false); err != nil {
		t.Fatalf("warmup failed: %v", err)
	}

	repo.mu.Lock()
	repo.writeErr = errors.New("write refused")
	repo.mu.Unlock()

	if _, err := svc.ChangeStage(context.Background(), leadID, domain.StagePurchase, uuid.New()); err == nil {
		t.Fatalf("expected write error")
	}

	got, err := svc.List(context.Background(), domain.FilterCriteria{}, nil, false)
	if err != nil || got[0].Stage != domain.StageInitial {
		t.Fatalf("failed write must leave the cache untouched, got %+v", got)
	}
	if len(bus.published()) != 0 {
		t.Fatalf("failed write must not publish events")
	}
}

func TestAssign_PublishesEvent(t *testing.T) {
	leadID := uuid.New()
	assignee := uuid.New()
	actor := uuid.New()
	repo := &fakeRepo{funnel: []domain.FunnelRecord{{ID: leadID, Name: "Maria", StageLabel: "compra"}}}
	bus := &captureBus{}
	svc := newTestService(repo, bus)

	lead, err := svc.Assign(context.Background(), leadID, &assignee, actor)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if lead.AssignedTo == nil || *lead.AssignedTo != assignee {
		t.Fatalf("assignment not applied: %+v", lead)
	}

	published := bus.published()
	if len(published) != 1 {
		t.Fatalf("expected one event, got %d", len(published))
	}
	assigned, ok := published[0].(events.LeadAssigned)
	if !ok {
		t.Fatalf("unexpected event %T", published[0])
	}
	if assigned.AssignedTo == nil || *assigned.AssignedTo != assignee || assigned.AssignedBy != actor {
		t.Fatalf("unexpected event payload: %+v", assigned)
	}
}

func TestAssign_UnknownLead(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &captureBus{})
	assignee := uuid.New()
	if _, err := svc.Assign(context.Background(), uuid.New(), &assignee, uuid.New()); err == nil {
		t.Fatalf("expected not found error")
	}
}

func TestToggleAutomation_TwiceRestoresOriginal(t *testing.T) {
	leadID := uuid.New()
	repo := &fakeRepo{funnel: []domain.FunnelRecord{{ID: leadID, StageLabel: "compra", TimeActive: true}}}
	svc := newTestService(repo, &captureBus{})

	if _, err := svc.List(context.Background(), domain.FilterCriteria{}, nil, false); err != nil {
		t.Fatalf("warmup failed: %v", err)
	}

	paused, err := svc.ToggleAutomation(context.Background(), leadID)
	if err != nil {
		t.Fatalf("first toggle failed: %v", err)
	}
	if !paused {
		t.Fatalf("active lead should toggle to paused")
	}

	paused, err = svc.ToggleAutomation(context.Background(), leadID)
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if paused {
		t.Fatalf("second toggle should restore the active state")
	}

	// The store receives "time active" values, the complement of paused.
	if len(repo.timeActiveWrites) != 2 || repo.timeActiveWrites[0] != false || repo.timeActiveWrites[1] != true {
		t.Fatalf("unexpected time_active writes %v", repo.timeActiveWrites)
	}
}

package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"funilzap_backend/internal/auth/domain"
	"funilzap_backend/internal/events"
	"funilzap_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T, idleTTL time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, idleTTL), mr
}

func sessionFixture() domain.SessionUser {
	return domain.SessionUser{
		ID:    uuid.New(),
		Email: "maria@example.com",
		Name:  "Maria",
		Role:  domain.RoleVendedor,
	}
}

func TestPut_WritesBothKeysWithTTL(t *testing.T) {
	store, mr := newTestStore(t, 30*time.Minute)
	user := sessionFixture()

	if err := store.Put(context.Background(), user); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	token := "session:" + user.ID.String() + ":token"
	record := "session:" + user.ID.String() + ":user"
	if !mr.Exists(token) || !mr.Exists(record) {
		t.Fatalf("expected both session keys")
	}
	if mr.TTL(token) != 30*time.Minute || mr.TTL(record) != 30*time.Minute {
		t.Fatalf("expected idle TTL on both keys, got %v and %v", mr.TTL(token), mr.TTL(record))
	}

	got, err := store.Get(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.Email != user.Email || got.Role != user.Role {
		t.Fatalf("unexpected session user: %+v", got)
	}
}

func TestTouch_ResetsTTL(t *testing.T) {
	store, mr := newTestStore(t, 30*time.Minute)
	user := sessionFixture()

	if err := store.Put(context.Background(), user); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	mr.FastForward(20 * time.Minute)

	alive, err := store.Touch(context.Background(), user.ID)
	if err != nil || !alive {
		t.Fatalf("expected live touch, alive=%v err=%v", alive, err)
	}

	token := "session:" + user.ID.String() + ":token"
	if mr.TTL(token) != 30*time.Minute {
		t.Fatalf("touch must reset the countdown, got %v", mr.TTL(token))
	}
}

func TestTouch_ExpiredSession(t *testing.T) {
	store, mr := newTestStore(t, 10*time.Minute)
	user := sessionFixture()

	if err := store.Put(context.Background(), user); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	mr.FastForward(11 * time.Minute)

	alive, err := store.Touch(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Touch failed: %v", err)
	}
	if alive {
		t.Fatalf("expired session must not touch")
	}
}

func TestGet_MissingSessionIsNil(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)

	got, err := store.Get(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing session, got %+v", got)
	}
}

func TestClear_RemovesScope(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	user := sessionFixture()

	if err := store.Put(context.Background(), user); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Clear(context.Background(), user.ID); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if mr.Exists("session:" + user.ID.String() + ":token") {
		t.Fatalf("token key must be gone")
	}
	ids, err := store.Active(context.Background())
	if err != nil {
		t.Fatalf("Active failed: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("cleared session must leave the active set, got %v", ids)
	}
}

func TestDisplayName_FallsBackWhenGone(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	user := sessionFixture()

	if err := store.Put(context.Background(), user); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if got := store.DisplayName(context.Background(), user.ID); got != "Maria" {
		t.Fatalf("expected session name, got %q", got)
	}
	if got := store.DisplayName(context.Background(), uuid.New()); got != "equipe" {
		t.Fatalf("expected fallback name, got %q", got)
	}
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(ctx context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(eventName string, handler events.Handler) {}

func (b *recordingBus) published() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Event(nil), b.events...)
}

func TestWatchdog_ForceClosesExpiredSessions(t *testing.T) {
	store, mr := newTestStore(t, 10*time.Minute)
	expired := sessionFixture()
	alive := sessionFixture()

	if err := store.Put(context.Background(), expired); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	mr.FastForward(11 * time.Minute)

	if err := store.Put(context.Background(), alive); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	bus := &recordingBus{}
	w := NewWatchdog(store, bus, time.Hour, logger.New("test"))
	w.sweep(context.Background())

	ids, err := store.Active(context.Background())
	if err != nil {
		t.Fatalf("Active failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != alive.ID {
		t.Fatalf("expected only the live session to remain, got %v", ids)
	}

	published := bus.published()
	if len(published) != 1 {
		t.Fatalf("expected one expiry event, got %d", len(published))
	}
	event, ok := published[0].(events.SessionExpired)
	if !ok || event.UserID != expired.ID {
		t.Fatalf("unexpected event %+v", published[0])
	}
}

func TestWatchdog_NoopWhenAllAlive(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	user := sessionFixture()
	if err := store.Put(context.Background(), user); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	bus := &recordingBus{}
	w := NewWatchdog(store, bus, time.Hour, logger.New("test"))
	w.sweep(context.Background())

	if len(bus.published()) != 0 {
		t.Fatalf("live sessions must not expire")
	}
}

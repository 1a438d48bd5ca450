package session

import (
	"context"
	"time"

	"funilzap_backend/internal/events"
	"funilzap_backend/platform/logger"

	"github.com/google/uuid"
)

// Watchdog periodically sweeps the active session set and force-closes
// sessions whose inactivity TTL ran out. Each forced close clears the
// remaining session keys and publishes a SessionExpired event so open
// pollers tied to that user can shut down.
type Watchdog struct {
	store    *Store
	bus      events.Bus
	interval time.Duration
	log      *logger.Logger
}

func NewWatchdog(store *Store, bus events.Bus, interval time.Duration, log *logger.Logger) *Watchdog {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Watchdog{store: store, bus: bus, interval: interval, log: log}
}

// Run blocks until ctx is done.
func (w *Watchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Watchdog) sweep(ctx context.Context) {
	ids, err := w.store.Active(ctx)
	if err != nil {
		w.log.Error("session sweep failed", "error", err)
		return
	}

	for _, id := range ids {
		w.check(ctx, id)
	}
}

func (w *Watchdog) check(ctx context.Context, userID uuid.UUID) {
	alive, err := w.store.Alive(ctx, userID)
	if err != nil {
		w.log.Error("session check failed", "user_id", userID, "error", err)
		return
	}
	if alive {
		return
	}

	if err := w.store.Clear(ctx, userID); err != nil {
		w.log.Error("session clear failed", "user_id", userID, "error", err)
		return
	}

	w.log.Info("session expired", "user_id", userID)
	w.bus.Publish(ctx, events.SessionExpired{
		BaseEvent: events.NewBaseEvent(),
		UserID:    userID,
	})
}

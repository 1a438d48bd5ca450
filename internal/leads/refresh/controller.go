// Package refresh implements the snapshot refresher: a small state machine
// that keeps a cached view fresh through timer-driven polling and manual
// out-of-band refreshes.
//
// A controller is either Idle (no target, no timer) or Polling (target set,
// ticker armed). Starting a target performs one immediate fetch and then
// polls on the configured interval; switching targets or stopping always
// cancels the previous ticker before a new one is armed, so two loops never
// poll the same controller concurrently. Cancellation is coarse: it stops
// future ticks but never aborts an in-flight fetch — stale results are
// instead discarded by generation and sequence guards.
package refresh

import (
	"context"
	"sync"
	"time"

	"funilzap_backend/platform/logger"
)

const fetchTimeout = 15 * time.Second

// FetchFunc loads the current value for a target.
type FetchFunc[T any] func(ctx context.Context, target string) (T, error)

// Controller keeps one cached value of type T fresh for one target at a time.
type Controller[T any] struct {
	interval time.Duration
	fetch    FetchFunc[T]
	log      *logger.Logger

	mu        sync.Mutex
	target    string
	gen       uint64
	seq       uint64
	applied   uint64
	cancel    context.CancelFunc
	value     T
	hasValue  bool
	updatedAt time.Time
}

// New creates an idle controller.
func New[T any](interval time.Duration, fetch FetchFunc[T], log *logger.Logger) *Controller[T] {
	return &Controller[T]{
		interval: interval,
		fetch:    fetch,
		log:      log,
	}
}

// Start transitions the controller to Polling for the given target. Any
// previous polling loop is cancelled first. The first fetch happens
// immediately, then every interval. Starting the already-active target is a
// no-op.
func (c *Controller[T]) Start(target string) {
	if target == "" {
		c.Stop()
		return
	}

	c.mu.Lock()
	if c.target == target && c.cancel != nil {
		c.mu.Unlock()
		return
	}

	if c.cancel != nil {
		c.cancel()
	}

	c.gen++
	c.seq = 0
	c.applied = 0
	c.target = target

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	gen := c.gen
	c.mu.Unlock()

	go c.loop(ctx, gen)
}

// Stop transitions the controller back to Idle. The cached value survives;
// only future ticks are cancelled.
func (c *Controller[T]) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	c.target = ""
}

// Polling reports whether a polling loop is armed.
func (c *Controller[T]) Polling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// Target returns the active target, or "" when idle.
func (c *Controller[T]) Target() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// Snapshot returns the cached value and when it was stored.
func (c *Controller[T]) Snapshot() (T, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.updatedAt, c.hasValue
}

// RefreshNow performs a manual out-of-band fetch without resetting the
// ticker phase and returns the fetched value. The result also updates the
// cache unless a later-started fetch has already stored its result.
func (c *Controller[T]) RefreshNow(ctx context.Context) (T, error) {
	c.mu.Lock()
	gen := c.gen
	target := c.target
	c.mu.Unlock()

	return c.runFetch(ctx, gen, target)
}

// Mutate patches the cached value in place (immutable-replace semantics are
// the caller's responsibility: fn must return a new value, not modify shared
// state). No-op when nothing is cached yet.
func (c *Controller[T]) Mutate(fn func(T) T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasValue {
		return
	}
	c.value = fn(c.value)
}

func (c *Controller[T]) loop(ctx context.Context, gen uint64) {
	c.tick(gen)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(gen)
		}
	}
}

// tick runs one polling fetch. A failed tick logs and keeps the previous
// snapshot; subsequent ticks continue unaffected.
func (c *Controller[T]) tick(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	_, _ = c.runFetch(ctx, gen, "")
}

func (c *Controller[T]) runFetch(ctx context.Context, gen uint64, target string) (T, error) {
	c.mu.Lock()
	if gen != c.gen {
		var zero T
		c.mu.Unlock()
		return zero, context.Canceled
	}
	if target == "" {
		target = c.target
	}
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	if target == "" {
		var zero T
		return zero, context.Canceled
	}

	value, err := c.fetch(ctx, target)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || seq <= c.applied {
		// The controller moved on to another target, or a later-started
		// fetch already stored its result. Drop this one.
		return value, err
	}

	if err != nil {
		if c.log != nil {
			c.log.PollError(target, err)
		}
		return value, err
	}

	c.applied = seq
	c.value = value
	c.hasValue = true
	c.updatedAt = time.Now()
	return value, nil
}

package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"funilzap_backend/platform/logger"
)

type countingFetch struct {
	mu      sync.Mutex
	calls   []string
	results map[string]int
	err     error
}

func (f *countingFetch) fetch(ctx context.Context, target string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, target)
	if f.err != nil {
		return 0, f.err
	}
	return f.results[target], nil
}

func (f *countingFetch) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached in time")
}

func TestController_StartFetchesImmediately(t *testing.T) {
	f := &countingFetch{results: map[string]int{"a": 7}}
	c := New(time.Hour, f.fetch, logger.New("test"))
	defer c.Stop()

	c.Start("a")

	waitFor(t, func() bool {
		_, _, ok := c.Snapshot()
		return ok
	})

	value, _, ok := c.Snapshot()
	if !ok || value != 7 {
		t.Fatalf("expected cached 7, got %d ok=%v", value, ok)
	}
	if !c.Polling() || c.Target() != "a" {
		t.Fatalf("expected polling target a")
	}
}

func TestController_StartSameTargetIsNoop(t *testing.T) {
	f := &countingFetch{results: map[string]int{"a": 1}}
	c := New(time.Hour, f.fetch, logger.New("test"))
	defer c.Stop()

	c.Start("a")
	waitFor(t, func() bool { return f.callCount() >= 1 })
	c.Start("a")

	time.Sleep(50 * time.Millisecond)
	if got := f.callCount(); got != 1 {
		t.Fatalf("restarting the active target should not refetch, got %d calls", got)
	}
}

func TestController_SwitchTargetReplacesLoop(t *testing.T) {
	f := &countingFetch{results: map[string]int{"a": 1, "b": 2}}
	c := New(time.Hour, f.fetch, logger.New("test"))
	defer c.Stop()

	c.Start("a")
	waitFor(t, func() bool {
		value, _, ok := c.Snapshot()
		return ok && value == 1
	})

	c.Start("b")
	waitFor(t, func() bool {
		value, _, ok := c.Snapshot()
		return ok && value == 2
	})

	if c.Target() != "b" {
		t.Fatalf("expected target b, got %q", c.Target())
	}
}

func TestController_StopKeepsSnapshot(t *testing.T) {
	f := &countingFetch{results: map[string]int{"a": 5}}
	c := New(time.Hour, f.fetch, logger.New("test"))

	c.Start("a")
	waitFor(t, func() bool {
		_, _, ok := c.Snapshot()
		return ok
	})

	c.Stop()

	if c.Polling() || c.Target() != "" {
		t.Fatalf("expected idle controller")
	}
	if value, _, ok := c.Snapshot(); !ok || value != 5 {
		t.Fatalf("snapshot must survive stop, got %d ok=%v", value, ok)
	}
}

func TestController_FailedFetchKeepsPreviousSnapshot(t *testing.T) {
	f := &countingFetch{results: map[string]int{"a": 9}}
	c := New(time.Hour, f.fetch, logger.New("test"))
	defer c.Stop()

	c.Start("a")
	waitFor(t, func() bool {
		_, _, ok := c.Snapshot()
		return ok
	})

	f.mu.Lock()
	f.err = errors.New("backend down")
	f.mu.Unlock()

	if _, err := c.RefreshNow(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}

	if value, _, ok := c.Snapshot(); !ok || value != 9 {
		t.Fatalf("failed fetch must keep previous snapshot, got %d ok=%v", value, ok)
	}
}

func TestController_RefreshNowWithoutTargetFails(t *testing.T) {
	f := &countingFetch{results: map[string]int{}}
	c := New(time.Hour, f.fetch, logger.New("test"))

	if _, err := c.RefreshNow(context.Background()); err == nil {
		t.Fatalf("expected error on idle refresh")
	}
}

func TestController_MutatePatchesCache(t *testing.T) {
	f := &countingFetch{results: map[string]int{"a": 10}}
	c := New(time.Hour, f.fetch, logger.New("test"))
	defer c.Stop()

	// Mutate before any fetch is a no-op.
	c.Mutate(func(v int) int { return v + 100 })
	if _, _, ok := c.Snapshot(); ok {
		t.Fatalf("mutate must not fabricate a snapshot")
	}

	c.Start("a")
	waitFor(t, func() bool {
		_, _, ok := c.Snapshot()
		return ok
	})

	c.Mutate(func(v int) int { return v + 1 })

	if value, _, _ := c.Snapshot(); value != 11 {
		t.Fatalf("expected patched value 11, got %d", value)
	}
}

func TestController_StaleGenerationDiscarded(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	started := false

	fetch := func(ctx context.Context, target string) (int, error) {
		mu.Lock()
		first := !started
		started = true
		mu.Unlock()
		if first {
			<-release
			return 1, nil
		}
		return 2, nil
	}

	c := New(time.Hour, fetch, logger.New("test"))
	defer c.Stop()

	c.Start("a")
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return started
	})

	// Retarget while the first fetch is still in flight, then let it finish.
	c.Start("b")
	waitFor(t, func() bool {
		value, _, ok := c.Snapshot()
		return ok && value == 2
	})
	close(release)

	time.Sleep(50 * time.Millisecond)
	if value, _, _ := c.Snapshot(); value != 2 {
		t.Fatalf("stale fetch overwrote the cache: got %d", value)
	}
}

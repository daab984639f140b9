package filelock

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/enverbisevac/filelock/errors"
)

type stubStrategy struct {
	refreshes atomic.Int64
	err       error
}

func (s *stubStrategy) Acquire(context.Context, string) (Lock, error) {
	return nil, errors.New("not implemented")
}

func (s *stubStrategy) RefreshAll(context.Context) error {
	s.refreshes.Add(1)
	return s.err
}

func TestManagerDefaults(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	config := m.Config()
	if config.Type != TypeAdvisory {
		t.Fatalf("type = %v, want %v", config.Type, TypeAdvisory)
	}
	if config.Timeout != 30*time.Second || config.RefreshRate != 20*time.Second {
		t.Fatalf("timeout/refresh = %v/%v, want 30s/20s", config.Timeout, config.RefreshRate)
	}
}

func TestManagerRejectsInvalidConfig(t *testing.T) {
	_, err := New(WithRefreshRate(40 * time.Second))
	if !errors.IsConfiguration(err) {
		t.Fatalf("New() error = %v, want ConfigurationError", err)
	}

	_, err = New(WithType("spinlock"))
	if !errors.IsConfiguration(err) {
		t.Fatalf("New() error = %v, want ConfigurationError", err)
	}
}

func TestManagerUnknownTypeAtAcquire(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// a hand-mutated config must surface an explicit error,
	// not undefined behavior
	m.config.Type = "spinlock"
	if _, err := m.Acquire(context.Background(), "ignored"); !errors.IsConfiguration(err) {
		t.Fatalf("Acquire() error = %v, want ConfigurationError", err)
	}
}

func TestManagerAcquireAdvisory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.lock")
	ctx := context.Background()

	m, err := New(WithType(TypeAdvisory))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	lock, err := m.Acquire(ctx, path)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if lock.State() != StateHeld {
		t.Fatalf("State() = %v, want %v", lock.State(), StateHeld)
	}

	if _, err := m.Acquire(ctx, path); !errors.IsAlreadyLocked(err) {
		t.Fatalf("Acquire() second call error = %v, want AlreadyLocked", err)
	}

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
}

func TestManagerAcquireLinkBased(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.lock")
	ctx := context.Background()

	m, err := New(WithType(TypeLinkBased))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	lock, err := m.Acquire(ctx, path)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if _, err := readEvidence(path); err != nil {
		t.Fatalf("readEvidence() error = %v", err)
	}

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
}

func TestManagerRefreshAllCoversBothStrategies(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	advisory := &stubStrategy{}
	link := &stubStrategy{}
	m.advisory = advisory
	m.link = link

	if err := m.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll() error = %v", err)
	}

	// one tick must cover every lock regardless of strategy
	if advisory.refreshes.Load() != 1 || link.refreshes.Load() != 1 {
		t.Fatalf("refreshes = %d/%d, want 1/1",
			advisory.refreshes.Load(), link.refreshes.Load())
	}
}

func TestManagerStartIdempotent(t *testing.T) {
	m, err := New(WithTimeout(50*time.Millisecond), WithRefreshRate(10*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	link := &stubStrategy{}
	m.advisory = &stubStrategy{}
	m.link = link

	ctx := context.Background()
	m.Start(ctx)
	m.Start(ctx) // only the first call installs the recurring task
	time.Sleep(105 * time.Millisecond)
	m.Stop()

	if got := link.refreshes.Load(); got > 14 {
		t.Fatalf("refreshed %d times in ~100ms at 10ms rate, want a single cycle", got)
	}
	if link.refreshes.Load() < 2 {
		t.Fatalf("refreshed %d times, want the cycle to run", link.refreshes.Load())
	}
}

func TestManagerStopWithoutStart(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Stop without Start should not panic
	m.Stop()
}

func TestManagerRefreshCycleSwallowsErrors(t *testing.T) {
	m, err := New(WithTimeout(50*time.Millisecond), WithRefreshRate(10*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	link := &stubStrategy{err: errors.New("filesystem unavailable")}
	m.advisory = &stubStrategy{}
	m.link = link

	m.Start(context.Background())
	time.Sleep(55 * time.Millisecond)
	m.Stop()

	if got := link.refreshes.Load(); got < 2 {
		t.Fatalf("refreshed %d times, want the cycle to survive tick errors", got)
	}
}

// TestManagerKeepsLockAlive exercises the full cycle with real time:
// while the owner refreshes, a competitor keeps failing; once the
// owner stops refreshing, the lock goes stale and is reclaimed.
func TestManagerKeepsLockAlive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.lock")
	ctx := context.Background()

	owner, err := New(
		WithType(TypeLinkBased),
		WithTimeout(300*time.Millisecond),
		WithRefreshRate(100*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	competitor, err := New(
		WithType(TypeLinkBased),
		WithTimeout(300*time.Millisecond),
		WithRefreshRate(100*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	lock, err := owner.Acquire(ctx, path)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	owner.Start(ctx)

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if _, err := competitor.Acquire(ctx, path); !errors.IsAlreadyLocked(err) {
			t.Fatalf("competitor Acquire() error = %v, want AlreadyLocked", err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	owner.Stop()
	time.Sleep(400 * time.Millisecond)

	reclaimed, err := competitor.Acquire(ctx, path)
	if err != nil {
		t.Fatalf("competitor Acquire() after staleness error = %v", err)
	}
	if reclaimed.State() != StateHeld {
		t.Fatalf("State() = %v, want %v", reclaimed.State(), StateHeld)
	}

	if err := lock.Refresh(ctx); !errors.IsLockLost(err) {
		t.Fatalf("owner Refresh() after reclaim error = %v, want LockLost", err)
	}
}

package filelock

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/enverbisevac/filelock/errors"
	"github.com/enverbisevac/filelock/timeutil"
)

// linkStrategy provides mutual exclusion across hosts sharing a
// filesystem where kernel advisory locks are not dependable. Hard-link
// creation is the arbiter: link(2) is atomic and fails when the target
// name already exists, even across NFS clients, unlike plain file
// creation which can race. Held locks stay alive only while their
// evidence timestamp is refreshed within the timeout window.
type linkStrategy struct {
	timeout time.Duration
	clock   timeutil.Clock

	mu   sync.Mutex
	held map[string]*linkLock
}

func newLinkStrategy(timeout time.Duration, clock timeutil.Clock) *linkStrategy {
	return &linkStrategy{
		timeout: timeout,
		clock:   clock,
		held:    make(map[string]*linkLock),
	}
}

// ownerToken identifies a single hold: the pid lets a process recognize
// its own abandoned lock after a restart, the nonce distinguishes
// successive holds by the same pid.
func ownerToken() string {
	return fmt.Sprintf("%d:%s", os.Getpid(), uuid.NewString())
}

func stagingPath(path string) string {
	return fmt.Sprintf("%s.%s", path, uuid.NewString())
}

// Acquire writes a uniquely-named staging file and attempts to hard
// link it to the canonical lock file at path. When the canonical name
// exists, the holder's evidence is read: only a stale or unreadable
// hold is reclaimed, with exactly one retry of the atomic link. Two
// processes racing to reclaim the same stale lock are resolved by that
// retry: one wins the link, the other gets AlreadyLocked.
func (s *linkStrategy) Acquire(ctx context.Context, path string) (Lock, error) {
	log := logr.FromContextOrDiscard(ctx)

	s.mu.Lock()
	_, dup := s.held[path]
	s.mu.Unlock()
	if dup {
		return nil, errors.AlreadyLocked("resource ${%s} is already held by this process", path)
	}

	token := ownerToken()
	staging := stagingPath(path)

	if err := writeEvidence(staging, evidence{Token: token, Timestamp: s.clock.Now()}); err != nil {
		return nil, err
	}
	defer func() {
		// best-effort cleanup; a leftover staging file is harmless
		if err := os.Remove(staging); err != nil && !os.IsNotExist(err) {
			log.Error(err, "filelock: remove staging file", "path", staging)
		}
	}()

	err := os.Link(staging, path)
	if err == nil {
		return s.register(path, token), nil
	}
	if !os.IsExist(err) {
		return nil, errors.IO(err, "link lock file %s", path)
	}

	ev, rerr := readEvidence(path)
	switch {
	case rerr == nil:
		if s.clock.Now().Sub(ev.Timestamp) <= s.timeout {
			return nil, errors.AlreadyLocked("resource ${%s} is locked by another process", path).
				SetHolder(ev.Token)
		}
		// stale: the holder stopped refreshing, reclaim below
	case errors.Is(rerr, errCorruptEvidence):
		// reclaim below
	case os.IsNotExist(rerr):
		// holder released between our link attempt and the read;
		// skip the removal and go straight to the retry
	default:
		return nil, errors.IO(rerr, "read lock file %s", path)
	}

	if rerr == nil || errors.Is(rerr, errCorruptEvidence) {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, errors.IO(err, "reclaim stale lock file %s", path)
		}
	}

	if err := os.Link(staging, path); err != nil {
		if os.IsExist(err) {
			return nil, errors.AlreadyLocked("resource ${%s} is locked by another process", path)
		}
		return nil, errors.IO(err, "link lock file %s", path)
	}
	return s.register(path, token), nil
}

// RefreshAll rewrites the evidence timestamp of every held lock. Lost
// locks are dropped from the registry; their errors are joined so the
// refresh cycle can log them without stopping.
func (s *linkStrategy) RefreshAll(ctx context.Context) error {
	s.mu.Lock()
	locks := make([]*linkLock, 0, len(s.held))
	for _, l := range s.held {
		locks = append(locks, l)
	}
	s.mu.Unlock()

	var errs []error
	for _, l := range locks {
		if err := l.Refresh(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *linkStrategy) register(path, token string) *linkLock {
	lock := &linkLock{
		strategy: s,
		path:     path,
		token:    token,
		state:    StateHeld,
	}
	s.mu.Lock()
	s.held[path] = lock
	s.mu.Unlock()
	return lock
}

func (s *linkStrategy) forget(path string) {
	s.mu.Lock()
	delete(s.held, path)
	s.mu.Unlock()
}

type linkLock struct {
	strategy *linkStrategy
	path     string
	token    string

	mu    sync.Mutex
	state State
}

func (l *linkLock) Path() string {
	return l.path
}

func (l *linkLock) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Refresh rewrites the lock file's timestamp, provided the owner token
// still matches. A mismatch means another process reclaimed the lock as
// stale between refresh cycles: the hold is over and LockLost is
// returned. The new evidence lands via an atomic rename so a competing
// reader never observes a half-written file.
func (l *linkLock) Refresh(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateHeld {
		return errors.LockLost("lock on ${%s} is no longer held", l.path)
	}

	ev, err := readEvidence(l.path)
	if err != nil || ev.Token != l.token {
		l.state = StateReleased
		l.strategy.forget(l.path)
		return errors.LockLost("lock on ${%s} was reclaimed", l.path)
	}

	staging := stagingPath(l.path)
	if err := writeEvidence(staging, evidence{Token: l.token, Timestamp: l.strategy.clock.Now()}); err != nil {
		return err
	}
	if err := os.Rename(staging, l.path); err != nil {
		_ = os.Remove(staging)
		return errors.IO(err, "refresh lock file %s", l.path)
	}
	return nil
}

// Release removes the canonical lock file only when the owner token
// still matches: a lock reclaimed by someone else is never removed, and
// the caller learns about it through LockLost. Idempotent; filesystem
// failures are logged, not returned.
func (l *linkLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateHeld {
		return nil
	}
	l.state = StateReleased
	l.strategy.forget(l.path)

	log := logr.FromContextOrDiscard(ctx)

	ev, err := readEvidence(l.path)
	if err != nil {
		if os.IsNotExist(err) || errors.Is(err, errCorruptEvidence) {
			return errors.LockLost("lock on ${%s} was reclaimed", l.path)
		}
		log.Error(err, "filelock: read lock file on release", "path", l.path)
		return nil
	}
	if ev.Token != l.token {
		return errors.LockLost("lock on ${%s} was reclaimed", l.path)
	}

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		log.Error(err, "filelock: remove lock file", "path", l.path)
	}
	return nil
}

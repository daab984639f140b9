package filelock

import (
	"context"
	"os"
	"sync"

	"github.com/go-logr/logr"

	"github.com/enverbisevac/filelock/errors"
)

// errWouldBlock is returned by the platform flock wrapper when another
// process already holds the lock.
var errWouldBlock = errors.New("lock would block")

// advisoryStrategy provides mutual exclusion through the operating
// system's advisory lock on a sentinel file. The open descriptor is the
// liveness evidence: the OS drops the lock when the holder dies, so no
// periodic refresh is needed. Not dependable across hosts on network
// filesystems; use the link-based strategy there.
type advisoryStrategy struct {
	mu   sync.Mutex
	held map[string]*advisoryLock
}

func newAdvisoryStrategy() *advisoryStrategy {
	return &advisoryStrategy{
		held: make(map[string]*advisoryLock),
	}
}

// Acquire opens (creating if absent) the sentinel file at path and
// requests a non-blocking exclusive lock on it. The parent directory
// must exist and be writable.
func (s *advisoryStrategy) Acquire(ctx context.Context, path string) (Lock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// at most one held lock per path per process
	if _, ok := s.held[path]; ok {
		return nil, errors.AlreadyLocked("resource ${%s} is already held by this process", path)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.IO(err, "open sentinel file %s", path)
	}

	if err := flockExclusive(f); err != nil {
		f.Close()
		if errors.Is(err, errWouldBlock) {
			return nil, errors.AlreadyLocked("resource ${%s} is locked by another process", path)
		}
		return nil, errors.IO(err, "lock sentinel file %s", path)
	}

	lock := &advisoryLock{
		strategy: s,
		path:     path,
		file:     f,
		state:    StateHeld,
	}
	s.held[path] = lock
	return lock, nil
}

// RefreshAll is a no-op: OS-held locks need no renewal. Present so a
// single refresh tick can cover every strategy uniformly.
func (s *advisoryStrategy) RefreshAll(context.Context) error {
	return nil
}

func (s *advisoryStrategy) forget(path string) {
	s.mu.Lock()
	delete(s.held, path)
	s.mu.Unlock()
}

// advisoryLock holds the locked descriptor. The sentinel file may
// remain on disk after release; its presence alone does not imply a
// hold, only an active OS-level lock does.
type advisoryLock struct {
	strategy *advisoryStrategy
	path     string

	mu    sync.Mutex
	file  *os.File
	state State
}

func (l *advisoryLock) Path() string {
	return l.path
}

func (l *advisoryLock) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Refresh is a no-op while the lock is held; the descriptor itself is
// the evidence. A released lock reports LockLost so callers learn the
// hold is over on their next operation.
func (l *advisoryLock) Refresh(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateHeld {
		return errors.LockLost("lock on ${%s} is no longer held", l.path)
	}
	return nil
}

// Release closes the descriptor, unlocking implicitly. Idempotent.
func (l *advisoryLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateHeld {
		return nil
	}

	log := logr.FromContextOrDiscard(ctx)
	if err := flockUnlock(l.file); err != nil {
		log.Error(err, "filelock: unlock sentinel file", "path", l.path)
	}
	if err := l.file.Close(); err != nil {
		log.Error(err, "filelock: close sentinel file", "path", l.path)
	}

	l.file = nil
	l.state = StateReleased
	l.strategy.forget(l.path)
	return nil
}

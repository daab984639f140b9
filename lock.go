// Package filelock coordinates exclusive access to a shared resource
// among independent processes, potentially on different hosts sharing a
// filesystem. Two strategies are provided: advisory locking through the
// operating system's flock primitive (single host) and link-based
// locking through atomic hard-link creation (safe on network
// filesystems where kernel locks are unreliable). Held link-based locks
// are kept alive by a periodic refresh cycle owned by the Manager.
package filelock

import "context"

// State is the lifecycle state of a single lock instance.
type State int

const (
	// StateUnlocked is the initial state before a successful acquire.
	StateUnlocked State = iota
	// StateHeld means the lock's on-disk evidence exists and belongs
	// to this instance.
	StateHeld
	// StateReleased is terminal: the lock was released explicitly or
	// observed as lost.
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateUnlocked:
		return "unlocked"
	case StateHeld:
		return "held"
	case StateReleased:
		return "released"
	}
	return "unknown"
}

// Lock is a handle on a single acquired lock. A Lock is exclusively
// owned by the caller that acquired it; release must occur exactly once
// per holder, though calling Release again is a harmless no-op.
type Lock interface {
	// Path returns the lock file path the lock protects.
	Path() string

	// State reports the current lifecycle state.
	State() State

	// Refresh renews the on-disk liveness evidence. Returns LockLost
	// when the evidence was reclaimed by another process.
	Refresh(ctx context.Context) error

	// Release removes the on-disk evidence. Idempotent. Filesystem
	// failures during release are logged, not returned; LockLost is
	// returned when the evidence now belongs to someone else.
	Release(ctx context.Context) error
}

// Strategy provides mutual exclusion through one filesystem mechanism.
type Strategy interface {
	// Acquire attempts non-blocking acquisition of the lock at path.
	// Returns AlreadyLocked when a live owner holds it, IOError for
	// filesystem failures.
	Acquire(ctx context.Context, path string) (Lock, error)

	// RefreshAll renews evidence for every lock this strategy holds.
	// Strategies whose evidence needs no renewal no-op.
	RefreshAll(ctx context.Context) error
}

//go:build unix

package filelock

import (
	"os"

	"golang.org/x/sys/unix"
)

// flockExclusive requests a non-blocking exclusive flock on f. Returns
// errWouldBlock when another process holds the lock.
func flockExclusive(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == unix.EWOULDBLOCK || err == unix.EAGAIN {
		return errWouldBlock
	}
	return err
}

func flockUnlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}

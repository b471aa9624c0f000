//go:build unix

package queue

import (
	"os"
	"syscall"
)

// flockFile acquires a non-blocking exclusive lock via flock(2). The lock is
// advisory, process-scoped, and released on close or process exit, which
// makes it safe against crashed holders.
func flockFile(f *os.File) error {
	err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		if err == syscall.EWOULDBLOCK {
			return ErrLedgerLocked
		}
		return err
	}
	return nil
}

// funlockFile releases the lock. Safe to call on an unlocked file.
func funlockFile(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}

//go:build !windows

package errorlog

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockFile takes an exclusive, advisory flock on file, released either
// by unlockFile or when the file descriptor is closed.
func lockFile(file *os.File) error {
	return unix.Flock(int(file.Fd()), unix.LOCK_EX)
}

// unlockFile releases the lock taken by lockFile.
func unlockFile(file *os.File) error {
	return unix.Flock(int(file.Fd()), unix.LOCK_UN)
}

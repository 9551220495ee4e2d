//go:build unix

package core

import (
	"errors"
	"syscall"
)

// isProcessAlive reports whether the pid written into a lock file still
// runs. Signal 0 only checks for existence; EPERM means the process runs as
// another user and still holds its lock.
func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	switch err := syscall.Kill(pid, 0); {
	case err == nil, errors.Is(err, syscall.EPERM):
		return true
	default:
		return false
	}
}

//go:build !unix && !windows

package core

// isProcessAlive has no way to probe processes here, so any positive pid
// counts as alive.
func isProcessAlive(pid int) bool { return pid > 0 }

//go:build unix

package core

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsProcessAliveExited(t *testing.T) {
	cmd := exec.Command("sh", "-c", "exit 0")
	require.NoError(t, cmd.Run())

	// The child has been reaped by Run.
	assert.False(t, isProcessAlive(cmd.Process.Pid))
}

func TestIsProcessAliveOtherUser(t *testing.T) {
	// pid 1 exists on every unix system; unprivileged callers get EPERM.
	assert.True(t, isProcessAlive(1))
}

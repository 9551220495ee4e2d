//go:build windows

package core

import (
	"syscall"
	"unsafe"

	"fortio.org/safecast"
)

var (
	kernel32               = syscall.NewLazyDLL("kernel32.dll")
	procOpenProcess        = kernel32.NewProc("OpenProcess")
	procCloseHandle        = kernel32.NewProc("CloseHandle")
	procGetExitCodeProcess = kernel32.NewProc("GetExitCodeProcess")
)

const (
	processQueryLimitedInformation = 0x1000
	stillActive                    = 259
)

// isProcessAlive opens pid and checks that it has not exited yet.
func isProcessAlive(pid int) bool {
	id, err := safecast.Conv[uint32](pid)
	if err != nil || id == 0 {
		return false
	}

	handle, _, _ := procOpenProcess.Call(uintptr(processQueryLimitedInformation), 0, uintptr(id))
	if handle == 0 {
		return false
	}
	defer procCloseHandle.Call(handle)

	var exitCode uint32
	if ret, _, _ := procGetExitCodeProcess.Call(handle, uintptr(unsafe.Pointer(&exitCode))); ret == 0 {
		return false
	}
	return exitCode == stillActive
}

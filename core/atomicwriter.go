package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrLockTimeout is returned when another writer holds a file's lock for
// longer than AtomicWriteConfig.LockTimeout.
var ErrLockTimeout = errors.New("timed out waiting for file lock")

// AtomicWriteConfig controls atomic writing behavior
type AtomicWriteConfig struct {
	UseFsync       bool          // Force fsync before the rename
	LockTimeout    time.Duration // Max time to wait for a file lock
	RetryInterval  time.Duration // Pause between lock attempts
	TempSuffix     string        // Suffix for temporary files
	BackupOriginal bool          // Keep a timestamped .bak copy of the replaced file
}

// DefaultAtomicConfig provides the settings used by the CLI.
func DefaultAtomicConfig() AtomicWriteConfig {
	return AtomicWriteConfig{
		LockTimeout:   5 * time.Second,
		RetryInterval: 50 * time.Millisecond,
		TempSuffix:    ".rubric.tmp",
	}
}

// AtomicWriter replaces files through a temporary sibling and a rename,
// guarded by a "<path>.lock" file holding the owner's pid.
type AtomicWriter struct {
	config AtomicWriteConfig

	mu    sync.Mutex
	locks map[string]*os.File
}

// NewAtomicWriter creates a new atomic writer
func NewAtomicWriter(config AtomicWriteConfig) *AtomicWriter {
	if config.TempSuffix == "" {
		config.TempSuffix = DefaultAtomicConfig().TempSuffix
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = DefaultAtomicConfig().RetryInterval
	}
	return &AtomicWriter{config: config, locks: make(map[string]*os.File)}
}

// WriteFile atomically replaces path with content.
func (aw *AtomicWriter) WriteFile(path string, content []byte) error {
	return aw.Replace(path, content, nil)
}

// Replace atomically replaces path with content. While the lock is held,
// check is called with the file's current content (nil when the file does
// not exist); a non-nil error from check aborts the write and is returned
// as is.
func (aw *AtomicWriter) Replace(path string, content []byte, check func(current []byte) error) error {
	if err := aw.acquireLock(path); err != nil {
		return fmt.Errorf("locking %s: %w", path, err)
	}
	defer aw.releaseLock(path)

	mode := fs.FileMode(0o644)
	current, err := os.ReadFile(path)
	exists := err == nil
	switch {
	case exists:
		if info, err := os.Stat(path); err == nil {
			mode = info.Mode().Perm()
		}
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}

	if check != nil {
		if err := check(current); err != nil {
			return err
		}
	}

	if aw.config.BackupOriginal && exists {
		if err := aw.createBackup(path, current); err != nil {
			return fmt.Errorf("backing up %s: %w", path, err)
		}
	}
	return aw.swap(path, content, mode)
}

// swap writes content to the temporary sibling and renames it over path.
func (aw *AtomicWriter) swap(path string, content []byte, mode fs.FileMode) error {
	tempPath := path + aw.config.TempSuffix
	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	_, err = f.Write(content)
	if err == nil && aw.config.UseFsync {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}

// acquireLock creates path's lock file, waiting while a live process holds it.
func (aw *AtomicWriter) acquireLock(path string) error {
	lockPath := path + ".lock"
	deadline := time.Now().Add(aw.config.LockTimeout)
	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			aw.mu.Lock()
			aw.locks[path] = f
			aw.mu.Unlock()
			return nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return err
		}
		if aw.isLockStale(lockPath) {
			os.Remove(lockPath)
			continue
		}
		if !time.Now().Before(deadline) {
			return ErrLockTimeout
		}
		time.Sleep(aw.config.RetryInterval)
	}
}

func (aw *AtomicWriter) releaseLock(path string) {
	aw.mu.Lock()
	f, ok := aw.locks[path]
	delete(aw.locks, path)
	aw.mu.Unlock()
	if !ok {
		return
	}
	f.Close()
	os.Remove(f.Name())
}

// isLockStale reports whether a lock file is unreadable or names a dead process.
func (aw *AtomicWriter) isLockStale(lockPath string) bool {
	content, err := os.ReadFile(lockPath)
	if err != nil {
		return true
	}
	text := strings.TrimSpace(string(content))
	if text == "" {
		// The owner may not have written its pid yet.
		return false
	}
	pid, err := strconv.Atoi(text)
	return err != nil || !isProcessAlive(pid)
}

func (aw *AtomicWriter) createBackup(path string, content []byte) error {
	stamp := time.Now().Format("20060102-150405")
	return os.WriteFile(fmt.Sprintf("%s.bak.%s", path, stamp), content, 0o644)
}

// Cleanup releases every lock still held (call on shutdown)
func (aw *AtomicWriter) Cleanup() {
	aw.mu.Lock()
	paths := make([]string, 0, len(aw.locks))
	for path := range aw.locks {
		paths = append(paths, path)
	}
	aw.mu.Unlock()

	for _, path := range paths {
		aw.releaseLock(path)
	}
}

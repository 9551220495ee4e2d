// Package writer holds the sinks autocorrected text is committed to.
package writer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/oxhq/rubric/core"
	"github.com/oxhq/rubric/internal/model"
)

// Writer receives the text of every corrective pass. The runner calls Commit
// concurrently for different paths.
type Writer interface {
	Commit(path string, text []byte) error
	Summary() string
}

// FileChange is the net change to one file.
type FileChange struct {
	Path     string
	Original string
	Final    string
	Commits  int
}

// BytesDiff is the size change of the file.
func (c FileChange) BytesDiff() int { return len(c.Final) - len(c.Original) }

// changeLog accumulates FileChanges keyed by path.
type changeLog struct {
	mu      sync.Mutex
	changes map[string]*FileChange
}

func (l *changeLog) record(path string, original func() string, text []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.changes == nil {
		l.changes = make(map[string]*FileChange)
	}
	c, ok := l.changes[path]
	if !ok {
		c = &FileChange{Path: path, Original: original()}
		l.changes[path] = c
	}
	c.Final = string(text)
	c.Commits++
}

// Changes returns the recorded changes sorted by path.
func (l *changeLog) Changes() []FileChange {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]FileChange, 0, len(l.changes))
	for _, c := range l.changes {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// DryRun records what would be written without touching the disk.
type DryRun struct {
	changeLog
}

func NewDryRun() *DryRun { return &DryRun{} }

func (w *DryRun) Commit(path string, text []byte) error {
	w.record(path, func() string {
		original, _ := os.ReadFile(path)
		return string(original)
	}, text)
	return nil
}

// Summary lists the files that would change.
func (w *DryRun) Summary() string {
	changes := w.Changes()
	if len(changes) == 0 {
		return "No changes would be made.\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Would modify %d file(s):\n", len(changes))
	total := 0
	for _, c := range changes {
		total += c.BytesDiff()
		fmt.Fprintf(&sb, "  %s (%+d bytes)\n", c.Path, c.BytesDiff())
	}
	fmt.Fprintf(&sb, "Total: %+d bytes\n", total)
	return sb.String()
}

// Memory keeps committed text in memory, keyed by path.
type Memory struct {
	mu    sync.Mutex
	files map[string]string
}

// NewMemory returns a sink whose files start with the given contents.
func NewMemory(files map[string]string) *Memory {
	m := &Memory{files: make(map[string]string, len(files))}
	for k, v := range files {
		m.files[k] = v
	}
	return m
}

// ReadFile serves a file from memory, matching os.ReadFile.
func (m *Memory) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text, ok := m.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return []byte(text), nil
}

func (m *Memory) Commit(path string, text []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = string(text)
	return nil
}

// File returns the current content of path.
func (m *Memory) File(path string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text, ok := m.files[path]
	return text, ok
}

func (m *Memory) Summary() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("%d file(s) in memory\n", len(m.files))
}

// Disk commits through an atomic writer. Files must be read through
// ReadFile first: Commit refuses to replace a file whose content changed
// since it was last read or committed, and fails with model.ErrWriteRace.
type Disk struct {
	changeLog
	aw *core.AtomicWriter

	mu        sync.Mutex
	baselines map[string]string
}

func NewDisk(aw *core.AtomicWriter) *Disk {
	if aw == nil {
		aw = core.NewAtomicWriter(core.DefaultAtomicConfig())
	}
	return &Disk{aw: aw, baselines: make(map[string]string)}
}

// ReadFile reads path and remembers its content as the commit baseline.
func (w *Disk) ReadFile(path string) ([]byte, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	w.setBaseline(path, text)
	return text, nil
}

func (w *Disk) Commit(path string, text []byte) error {
	w.mu.Lock()
	baseline, ok := w.baselines[path]
	w.mu.Unlock()
	if !ok {
		return &model.WriteError{Path: path, Err: errors.New("file was not read through this writer")}
	}

	var original string
	err := w.aw.Replace(path, text, func(current []byte) error {
		if current == nil || sha256Hex(current) != baseline {
			return fmt.Errorf("%s: %w", path, model.ErrWriteRace)
		}
		original = string(current)
		return nil
	})
	if errors.Is(err, model.ErrWriteRace) {
		return err
	}
	if err != nil {
		return &model.WriteError{Path: path, Err: err}
	}

	w.setBaseline(path, text)
	w.record(path, func() string { return original }, text)
	return nil
}

func (w *Disk) setBaseline(path string, text []byte) {
	w.mu.Lock()
	w.baselines[path] = sha256Hex(text)
	w.mu.Unlock()
}

// Summary lists the written files.
func (w *Disk) Summary() string {
	changes := w.Changes()
	if len(changes) == 0 {
		return "No files were written.\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Wrote %d file(s):\n", len(changes))
	for _, c := range changes {
		fmt.Fprintf(&sb, "  %s\n", c.Path)
	}
	return sb.String()
}

func sha256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

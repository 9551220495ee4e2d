package writer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/rubric/internal/config"
	"github.com/oxhq/rubric/internal/cop"
	"github.com/oxhq/rubric/internal/cop/style"
	"github.com/oxhq/rubric/internal/model"
	"github.com/oxhq/rubric/internal/runner"
	"github.com/oxhq/rubric/providers/ruby"
)

var (
	_ runner.Sink = (*DryRun)(nil)
	_ runner.Sink = (*Disk)(nil)
	_ runner.Sink = (*Memory)(nil)
)

func TestDryRunDoesNotWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.rb")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))

	w := NewDryRun()
	require.NoError(t, w.Commit(path, []byte("x = 22\n")))
	require.NoError(t, w.Commit(path, []byte("x = 333\n")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", string(got))

	changes := w.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, FileChange{Path: path, Original: "x = 1\n", Final: "x = 333\n", Commits: 2}, changes[0])
	assert.Equal(t, 2, changes[0].BytesDiff())
	assert.Contains(t, w.Summary(), "Would modify 1 file(s)")
	assert.Contains(t, w.Summary(), "(+2 bytes)")
}

func TestDryRunEmptySummary(t *testing.T) {
	assert.Equal(t, "No changes would be made.\n", NewDryRun().Summary())
}

func TestDiskCommit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.rb")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))

	w := NewDisk(nil)
	_, err := w.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, w.Commit(path, []byte("x = 2\n")))
	require.NoError(t, w.Commit(path, []byte("x = 3\n")), "a committed text becomes the new baseline")

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x = 3\n", string(got))

	changes := w.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, "x = 1\n", changes[0].Original)
	assert.Equal(t, 2, changes[0].Commits)
	assert.Contains(t, w.Summary(), "Wrote 1 file(s)")
}

func TestDiskDetectsWriteRace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.rb")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))

	w := NewDisk(nil)
	_, err := w.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("x = 9\n"), 0o644))
	err = w.Commit(path, []byte("x = 2\n"))
	assert.ErrorIs(t, err, model.ErrWriteRace)
	assert.Equal(t, model.ECWriteRace, model.CodeOf(err))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x = 9\n", string(got))
	assert.Empty(t, w.Changes())
}

func TestDiskRequiresRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.rb")
	err := NewDisk(nil).Commit(path, []byte("x"))

	var werr *model.WriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, path, werr.Path)
	assert.NoFileExists(t, path)
}

func TestDiskDeletedFileIsARace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.rb")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))

	w := NewDisk(nil)
	_, err := w.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	assert.ErrorIs(t, w.Commit(path, []byte("x = 2\n")), model.ErrWriteRace)
}

func TestMemory(t *testing.T) {
	m := NewMemory(map[string]string{"a.rb": "x = 1\n"})

	text, err := m.ReadFile("a.rb")
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", string(text))

	_, err = m.ReadFile("missing.rb")
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, m.Commit("a.rb", []byte("x = 2\n")))
	got, ok := m.File("a.rb")
	assert.True(t, ok)
	assert.Equal(t, "x = 2\n", got)
	assert.Equal(t, "1 file(s) in memory\n", m.Summary())
}

func TestDiskWithRunner(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sum.rb")
	require.NoError(t, os.WriteFile(path, []byte("xs.reduce { |s, x| s + x }\n"), 0o644))

	c, err := style.NewSingleLineBlockParams(config.CopConfig{Options: map[string]any{
		"Methods": []any{map[string]any{"reduce": []any{"acc", "elem"}}},
	}})
	require.NoError(t, err)

	disk := NewDisk(nil)
	r, err := runner.New(ruby.New(), []cop.Instance{{Cop: c, AutoCorrect: true}},
		runner.WithAutocorrect(true), runner.WithReader(disk.ReadFile), runner.WithSink(disk))
	require.NoError(t, err)

	results, err := r.RunFiles(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, runner.StatusCorrected, results[0].Status)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "xs.reduce { |acc, elem| acc + elem }\n", string(got))
}

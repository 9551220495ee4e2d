package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/rubric/providers/catalog"
)

func init() {
	catalog.Register(catalog.LanguageInfo{ID: "ruby", Extensions: []string{".rb"}, Filenames: []string{"Rakefile"}})
}

func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))
	}
	return root
}

func rels(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, len(paths))
	for i, p := range paths {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func TestCollectIncludeExclude(t *testing.T) {
	root := writeTree(t,
		"app/models/user.rb",
		"app/models/user.py",
		"lib/tasks/build.rake",
		"Rakefile",
		"vendor/bundle/gem.rb",
		"tmp/cache.rb",
	)
	scope := FileScope{
		Path:    root,
		Include: []string{"**/*.rb", "**/*.rake", "**/Rakefile"},
		Exclude: []string{"vendor/**", "tmp/**"},
	}

	files, err := NewFileWalker().Collect(context.Background(), scope)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rakefile", "app/models/user.rb", "lib/tasks/build.rake"}, rels(t, root, files))
}

func TestCollectDefaultsToCatalog(t *testing.T) {
	root := writeTree(t, "a.rb", "b.txt", "Rakefile")

	files, err := NewFileWalker().Collect(context.Background(), FileScope{Path: root})
	require.NoError(t, err)
	assert.Equal(t, []string{"Rakefile", "a.rb"}, rels(t, root, files))
}

func TestCollectBaseNamePattern(t *testing.T) {
	root := writeTree(t, "a/skip_me.rb", "a/keep.rb")

	files, err := NewFileWalker().Collect(context.Background(), FileScope{
		Path:    root,
		Include: []string{"*.rb"},
		Exclude: []string{"skip_*.rb"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a/keep.rb"}, rels(t, root, files))
}

func TestCollectLimits(t *testing.T) {
	root := writeTree(t, "a.rb", "one/b.rb", "one/two/c.rb")
	fw := NewFileWalker()

	files, err := fw.Collect(context.Background(), FileScope{Path: root, Include: []string{"**/*.rb"}, MaxDepth: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.rb", "one/b.rb"}, rels(t, root, files))

	files, err = fw.Collect(context.Background(), FileScope{Path: root, Include: []string{"**/*.rb"}, MaxFiles: 1})
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestCollectSymlinks(t *testing.T) {
	root := writeTree(t, "real/a.rb")
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	fw := NewFileWalker()

	files, err := fw.Collect(context.Background(), FileScope{Path: root, Include: []string{"**/*.rb"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"real/a.rb"}, rels(t, root, files))

	files, err = fw.Collect(context.Background(), FileScope{Path: root, Include: []string{"**/*.rb"}, FollowSymlinks: true})
	require.NoError(t, err)
	assert.Len(t, files, 1, "a directory reached twice is scanned once")
}

func TestWalkValidation(t *testing.T) {
	fw := NewFileWalker()
	root := writeTree(t, "a.rb")

	_, err := fw.Walk(context.Background(), FileScope{})
	assert.Error(t, err)

	_, err = fw.Walk(context.Background(), FileScope{Path: filepath.Join(root, "missing")})
	assert.Error(t, err)

	_, err = fw.Walk(context.Background(), FileScope{Path: filepath.Join(root, "a.rb")})
	assert.Error(t, err)

	_, err = fw.Walk(context.Background(), FileScope{Path: root, Include: []string{"[oops"}})
	assert.Error(t, err)
}

func TestCollectCanceled(t *testing.T) {
	root := writeTree(t, "a.rb")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileWalker().Collect(ctx, FileScope{Path: root})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLanguageStats(t *testing.T) {
	root := writeTree(t, "a.rb", "b.rb", "Rakefile")

	stats, err := NewFileWalker().LanguageStats(context.Background(), FileScope{Path: root})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"ruby": 3}, stats)
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("vendor/x/y.rb", []string{"vendor/**"}))
	assert.True(t, Matches("app/x.rb", []string{"*.rb"}))
	assert.False(t, Matches("app/x.py", []string{"**/*.rb"}))
}

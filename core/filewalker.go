package core

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/oxhq/rubric/providers/catalog"
)

// FileWalker discovers files in parallel: one goroutine scans directories
// and a pool of workers stats and classifies what it finds.
type FileWalker struct {
	workers    int
	bufferSize int
}

// NewFileWalker creates a walker sized for I/O-bound work.
func NewFileWalker() *FileWalker {
	return &FileWalker{
		workers:    runtime.NumCPU() * 2,
		bufferSize: 256,
	}
}

// Walk streams the files of scope. The channel is closed once the scan is
// done or ctx is canceled.
func (fw *FileWalker) Walk(ctx context.Context, scope FileScope) (<-chan WalkResult, error) {
	if err := fw.validateScope(scope); err != nil {
		return nil, err
	}

	results := make(chan WalkResult, fw.bufferSize)
	paths := make(chan string, fw.bufferSize)

	var wg sync.WaitGroup
	for range fw.workers {
		wg.Add(1)
		go fw.worker(ctx, paths, results, &wg)
	}

	go func() {
		defer close(paths)
		s := &scan{scope: scope, paths: paths}
		if scope.FollowSymlinks {
			s.visited = make(map[string]bool)
			s.visited[realPath(scope.Path)] = true
		}
		s.dir(ctx, scope.Path, 0)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results, nil
}

// Collect returns the paths of scope in lexical order, skipping files that
// could not be stat'ed.
func (fw *FileWalker) Collect(ctx context.Context, scope FileScope) ([]string, error) {
	results, err := fw.Walk(ctx, scope)
	if err != nil {
		return nil, err
	}

	var files []string
	for result := range results {
		if result.Error != nil {
			continue
		}
		files = append(files, result.Path)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// LanguageStats counts the files of scope by language.
func (fw *FileWalker) LanguageStats(ctx context.Context, scope FileScope) (map[string]int, error) {
	results, err := fw.Walk(ctx, scope)
	if err != nil {
		return nil, err
	}
	stats := make(map[string]int)
	for result := range results {
		if result.Error == nil {
			stats[result.Language]++
		}
	}
	return stats, ctx.Err()
}

func (fw *FileWalker) worker(ctx context.Context, paths <-chan string, results chan<- WalkResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-paths:
			if !ok {
				return
			}
			select {
			case <-ctx.Done():
				return
			case results <- classify(path):
			}
		}
	}
}

func classify(path string) WalkResult {
	info, err := os.Stat(path)
	if err != nil {
		return WalkResult{Path: path, Error: err}
	}
	lang := "unknown"
	if li, ok := catalog.LookupByPath(path); ok {
		lang = li.ID
	}
	return WalkResult{Path: path, Info: info, Language: lang}
}

// scan holds the state of one directory traversal.
type scan struct {
	scope     FileScope
	paths     chan<- string
	processed int
	// visited holds resolved directories when symlinks are followed.
	visited map[string]bool
}

func (s *scan) full() bool {
	return s.scope.MaxFiles > 0 && s.processed >= s.scope.MaxFiles
}

func (s *scan) dir(ctx context.Context, dirPath string, depth int) {
	if s.full() || ctx.Err() != nil {
		return
	}
	if s.scope.MaxDepth > 0 && depth > s.scope.MaxDepth {
		return
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return // unreadable directories are skipped
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		fullPath := filepath.Join(dirPath, entry.Name())
		rel := s.rel(fullPath)
		if matchAny(rel, s.scope.Exclude) {
			continue
		}

		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			if !s.scope.FollowSymlinks {
				continue
			}
			info, err := os.Stat(fullPath)
			if err != nil {
				continue
			}
			isDir = info.IsDir()
		}

		if isDir {
			if s.visited != nil {
				resolved := realPath(fullPath)
				if s.visited[resolved] {
					continue
				}
				s.visited[resolved] = true
			}
			s.dir(ctx, fullPath, depth+1)
			continue
		}

		if !s.included(fullPath, rel) {
			continue
		}
		if s.full() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case s.paths <- fullPath:
			s.processed++
		}
	}
}

func (s *scan) included(fullPath, rel string) bool {
	if len(s.scope.Include) == 0 {
		_, ok := catalog.LookupByPath(fullPath)
		return ok
	}
	return matchAny(rel, s.scope.Include)
}

func (s *scan) rel(path string) string {
	rel, err := filepath.Rel(s.scope.Path, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Matches reports whether the slash-separated relative path matches any
// of patterns.
func Matches(rel string, patterns []string) bool {
	return matchAny(filepath.ToSlash(rel), patterns)
}

func matchAny(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchPattern(rel, pattern) {
			return true
		}
	}
	return false
}

func matchPattern(rel, pattern string) bool {
	if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
		return true
	}
	if !strings.Contains(pattern, "/") {
		if ok, err := doublestar.Match(pattern, path.Base(rel)); err == nil && ok {
			return true
		}
	}
	return false
}

func realPath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil && resolved != "" {
		return resolved
	}
	return path
}

func (fw *FileWalker) validateScope(scope FileScope) error {
	if scope.Path == "" {
		return fmt.Errorf("path is required")
	}
	info, err := os.Stat(scope.Path)
	if err != nil {
		return fmt.Errorf("cannot access path %s: %w", scope.Path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path %s is not a directory", scope.Path)
	}
	for _, p := range append(append([]string(nil), scope.Include...), scope.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid pattern %q", p)
		}
	}
	return nil
}

// Package core holds the filesystem plumbing: discovering the files of a run
// and replacing them atomically.
package core

import "io/fs"

// FileScope defines which files to inspect under a root directory. Patterns
// are doublestar globs matched against slash-separated paths relative to
// Path; patterns without a slash also match the base name.
type FileScope struct {
	Path           string   `json:"path"`
	Include        []string `json:"include,omitempty"`   // empty means every file the catalog knows
	Exclude        []string `json:"exclude,omitempty"`   // files and directories to skip
	MaxDepth       int      `json:"max_depth,omitempty"` // 0 = unlimited
	MaxFiles       int      `json:"max_files,omitempty"` // 0 = unlimited
	FollowSymlinks bool     `json:"follow_symlinks"`
}

// WalkResult represents a discovered file
type WalkResult struct {
	Path     string
	Info     fs.FileInfo
	Language string
	Error    error
}

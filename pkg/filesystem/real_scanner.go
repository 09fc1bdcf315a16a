package filesystem

import (
	"fmt"
	"path/filepath"

	"github.com/kr/fs"
)

// realFileScanner implements FileScanner on top of a kr/fs walker, yielding entries as the
// walk discovers them rather than buffering the whole tree.
type realFileScanner struct {
	root   string
	walker *fs.Walker
	err    error
	done   bool
}

func newRealFileScanner(root string) *realFileScanner {
	return &realFileScanner{
		root:   root,
		walker: fs.Walk(root),
	}
}

// Err returns any error that occurred during scanning.
func (s *realFileScanner) Err() error {
	return s.err
}

// Next advances to the next entry and returns its info.
func (s *realFileScanner) Next() (FileInfo, bool) {
	if s.done {
		return FileInfo{}, false
	}

	for s.walker.Step() {
		if err := s.walker.Err(); err != nil { //nolint:noinlineerr // Inline error check is idiomatic for walker error handling
			s.err = fmt.Errorf("error scanning %s: %w", s.root, err)
			s.done = true

			return FileInfo{}, false
		}

		fullPath := s.walker.Path()
		if fullPath == s.root {
			continue
		}

		relPath, err := filepath.Rel(s.root, fullPath)
		if err != nil {
			s.err = fmt.Errorf("failed to get relative path for %s: %w", fullPath, err)
			s.done = true

			return FileInfo{}, false
		}

		stat := s.walker.Stat()

		return FileInfo{
			RelativePath: relPath,
			Size:         stat.Size(),
			ModTime:      stat.ModTime(),
			Mode:         stat.Mode(),
			IsDir:        stat.IsDir(),
		}, true
	}

	s.done = true

	return FileInfo{}, false
}

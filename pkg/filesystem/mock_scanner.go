package filesystem

import (
	"path/filepath"
	"sort"
)

// mockFileScanner walks a MockFileSystem snapshot in path order.
type mockFileScanner struct {
	fs      *MockFileSystem
	root    string
	files   []FileInfo
	index   int
	err     error
	scanned bool
}

func newMockFileScanner(fs *MockFileSystem, root string) *mockFileScanner {
	return &mockFileScanner{fs: fs, root: root, index: -1}
}

// Next advances to the next entry and returns its info.
func (s *mockFileScanner) Next() (FileInfo, bool) {
	if !s.scanned {
		s.scan()
		s.scanned = true
	}

	s.index++
	if s.err != nil || s.index >= len(s.files) {
		return FileInfo{}, false
	}

	return s.files[s.index], true
}

// Err returns the error that stopped the scan.
func (s *mockFileScanner) Err() error {
	return s.err
}

func (s *mockFileScanner) scan() {
	s.fs.mu.RLock()
	defer s.fs.mu.RUnlock()

	if _, err := s.fs.lookup("scan", s.root); err != nil {
		s.err = err

		return
	}

	for _, path := range s.fs.childrenLocked(s.root) {
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			continue
		}

		file := s.fs.files[path]
		info := &mockFileInfo{name: filepath.Base(path), file: file}

		s.files = append(s.files, FileInfo{
			RelativePath: rel,
			Size:         info.Size(),
			ModTime:      info.ModTime(),
			Mode:         info.Mode(),
			IsDir:        info.IsDir(),
		})
	}

	sort.Slice(s.files, func(i, j int) bool {
		return s.files[i].RelativePath < s.files[j].RelativePath
	})
}

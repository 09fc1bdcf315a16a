package filesystem

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockFileSystem is an in-memory FileSystem for tests. FailOn injects errors per path.
type MockFileSystem struct {
	mu       sync.RWMutex
	files    map[string]*mockFile
	failures map[string]error
	now      func() time.Time
}

type mockFile struct {
	data    []byte
	modTime time.Time
	isDir   bool
	perm    os.FileMode
}

type mockFileInfo struct {
	name string
	file *mockFile
}

func (fi *mockFileInfo) Name() string       { return fi.name }
func (fi *mockFileInfo) Size() int64        { return int64(len(fi.file.data)) }
func (fi *mockFileInfo) ModTime() time.Time { return fi.file.modTime }
func (fi *mockFileInfo) IsDir() bool        { return fi.file.isDir }
func (fi *mockFileInfo) Sys() any           { return nil }

func (fi *mockFileInfo) Mode() os.FileMode {
	if fi.file.isDir {
		return fi.file.perm | os.ModeDir
	}

	return fi.file.perm
}

// mockFileHandle reads a snapshot or buffers writes until Close.
type mockFileHandle struct {
	fs     *MockFileSystem
	path   string
	reader *bytes.Reader
	writer *bytes.Buffer
	closed bool
}

func (f *mockFileHandle) Read(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}

	if f.reader == nil {
		return 0, fmt.Errorf("read %s: %w", f.path, fs.ErrInvalid)
	}

	return f.reader.Read(p) //nolint:wrapcheck // io.EOF must pass through
}

func (f *mockFileHandle) Write(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}

	if f.writer == nil {
		return 0, fmt.Errorf("write %s: %w", f.path, fs.ErrInvalid)
	}

	return f.writer.Write(p) //nolint:wrapcheck // bytes.Buffer never fails
}

func (f *mockFileHandle) Close() error {
	if f.closed {
		return os.ErrClosed
	}

	f.closed = true

	if f.writer != nil {
		return f.fs.WriteFile(f.path, f.writer.Bytes(), 0o644) //nolint:mnd // default file mode
	}

	return nil
}

func (f *mockFileHandle) Stat() (os.FileInfo, error) {
	if f.closed {
		return nil, os.ErrClosed
	}

	return f.fs.Stat(f.path)
}

// NewMockFileSystem creates an empty in-memory filesystem rooted at "/".
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		files:    map[string]*mockFile{"/": {isDir: true, perm: 0o755}}, //nolint:mnd // default dir mode
		failures: make(map[string]error),
		now:      time.Now,
	}
}

// FailOn makes every operation touching path fail with err; a nil err clears it.
func (m *MockFileSystem) FailOn(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err == nil {
		delete(m.failures, filepath.Clean(path))

		return
	}

	m.failures[filepath.Clean(path)] = err
}

func (m *MockFileSystem) check(op, path string) error {
	if err, ok := m.failures[path]; ok {
		return &fs.PathError{Op: op, Path: path, Err: err}
	}

	return nil
}

func (m *MockFileSystem) lookup(op, path string) (*mockFile, error) {
	if err := m.check(op, path); err != nil {
		return nil, err
	}

	file, ok := m.files[path]
	if !ok {
		return nil, &fs.PathError{Op: op, Path: path, Err: fs.ErrNotExist}
	}

	return file, nil
}

// Chtimes changes the modification time of a path.
func (m *MockFileSystem) Chtimes(path string, _, mtime time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, err := m.lookup("chtimes", filepath.Clean(path))
	if err != nil {
		return err
	}

	file.modTime = mtime

	return nil
}

// Create creates or truncates a file; its content is stored on Close.
func (m *MockFileSystem) Create(path string) (File, error) {
	path = filepath.Clean(path)

	err := m.WriteFile(path, nil, 0o644) //nolint:mnd // default file mode
	if err != nil {
		return nil, err
	}

	return &mockFileHandle{fs: m, path: path, writer: &bytes.Buffer{}}, nil
}

// MkdirAll creates a directory and all necessary parents.
func (m *MockFileSystem) MkdirAll(path string, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.mkdirAllLocked(filepath.Clean(path), perm)
}

func (m *MockFileSystem) mkdirAllLocked(path string, perm os.FileMode) error {
	if err := m.check("mkdir", path); err != nil {
		return err
	}

	if file, ok := m.files[path]; ok {
		if !file.isDir {
			return &fs.PathError{Op: "mkdir", Path: path, Err: fs.ErrExist}
		}

		return nil
	}

	if parent := filepath.Dir(path); parent != path {
		if err := m.mkdirAllLocked(parent, perm); err != nil {
			return err
		}
	}

	m.files[path] = &mockFile{isDir: true, perm: perm, modTime: m.now()}

	return nil
}

// Open opens a file for reading.
func (m *MockFileSystem) Open(path string) (File, error) {
	path = filepath.Clean(path)

	data, err := m.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return &mockFileHandle{fs: m, path: path, reader: bytes.NewReader(data)}, nil
}

// ReadDir lists the direct children of a directory, sorted by name.
func (m *MockFileSystem) ReadDir(path string) ([]os.DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	path = filepath.Clean(path)

	dir, err := m.lookup("readdir", path)
	if err != nil {
		return nil, err
	}

	if !dir.isDir {
		return nil, &fs.PathError{Op: "readdir", Path: path, Err: fs.ErrInvalid}
	}

	var entries []os.DirEntry

	for child, file := range m.files {
		if child != path && filepath.Dir(child) == path {
			entries = append(entries, fs.FileInfoToDirEntry(&mockFileInfo{name: filepath.Base(child), file: file}))
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	return entries, nil
}

// ReadFile returns a copy of a file's content.
func (m *MockFileSystem) ReadFile(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	path = filepath.Clean(path)

	file, err := m.lookup("open", path)
	if err != nil {
		return nil, err
	}

	if file.isDir {
		return nil, &fs.PathError{Op: "read", Path: path, Err: fs.ErrInvalid}
	}

	return bytes.Clone(file.data), nil
}

// Remove removes a file or empty directory.
func (m *MockFileSystem) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)

	file, err := m.lookup("remove", path)
	if err != nil {
		return err
	}

	if file.isDir && len(m.childrenLocked(path)) > 0 {
		return &fs.PathError{Op: "remove", Path: path, Err: fs.ErrExist}
	}

	delete(m.files, path)

	return nil
}

// RemoveAll removes a path and its children. A missing path is not an error.
func (m *MockFileSystem) RemoveAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)

	if err := m.check("removeall", path); err != nil {
		return err
	}

	for _, child := range m.childrenLocked(path) {
		delete(m.files, child)
	}

	delete(m.files, path)

	return nil
}

// Rename moves a path and its children.
func (m *MockFileSystem) Rename(oldPath, newPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldPath, newPath = filepath.Clean(oldPath), filepath.Clean(newPath)

	file, err := m.lookup("rename", oldPath)
	if err != nil {
		return err
	}

	if err := m.check("rename", newPath); err != nil {
		return err
	}

	if parent, ok := m.files[filepath.Dir(newPath)]; !ok || !parent.isDir {
		return &fs.PathError{Op: "rename", Path: newPath, Err: fs.ErrNotExist}
	}

	for _, child := range m.childrenLocked(oldPath) {
		m.files[newPath+strings.TrimPrefix(child, oldPath)] = m.files[child]
		delete(m.files, child)
	}

	delete(m.files, oldPath)
	m.files[newPath] = file

	return nil
}

// Scan returns an iterator over all entries below path.
func (m *MockFileSystem) Scan(path string) FileScanner {
	return newMockFileScanner(m, filepath.Clean(path))
}

// Stat returns file information.
func (m *MockFileSystem) Stat(path string) (os.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	path = filepath.Clean(path)

	file, err := m.lookup("stat", path)
	if err != nil {
		return nil, err
	}

	return &mockFileInfo{name: filepath.Base(path), file: file}, nil
}

// WriteFile stores data at path. The parent directory must exist.
func (m *MockFileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)

	if err := m.check("open", path); err != nil {
		return err
	}

	if parent, ok := m.files[filepath.Dir(path)]; !ok || !parent.isDir {
		return &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}

	if existing, ok := m.files[path]; ok && existing.isDir {
		return &fs.PathError{Op: "open", Path: path, Err: fs.ErrInvalid}
	}

	m.files[path] = &mockFile{data: bytes.Clone(data), perm: perm, modTime: m.now()}

	return nil
}

// childrenLocked returns every path strictly below dir.
func (m *MockFileSystem) childrenLocked(dir string) []string {
	prefix := strings.TrimSuffix(dir, string(filepath.Separator)) + string(filepath.Separator)

	var children []string

	for path := range m.files {
		if path != dir && strings.HasPrefix(path, prefix) {
			children = append(children, path)
		}
	}

	return children
}

// AddFile adds a file, creating parents, with the given content and modtime.
func (m *MockFileSystem) AddFile(path string, content []byte, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	_ = m.mkdirAllLocked(filepath.Dir(path), 0o755) //nolint:mnd // default dir mode

	m.files[path] = &mockFile{data: bytes.Clone(content), modTime: modTime, perm: 0o644} //nolint:mnd // default file mode
}

// Exists reports whether path exists.
func (m *MockFileSystem) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.files[filepath.Clean(path)]

	return ok
}

// ListFiles returns every path, sorted.
func (m *MockFileSystem) ListFiles() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0, len(m.files))
	for path := range m.files {
		paths = append(paths, path)
	}

	sort.Strings(paths)

	return paths
}

// Package fileops provides buffered local copy operations with progress reporting.
package fileops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joe/pane-mirror/pkg/filesystem"
)

// Exported constants.
const (
	// BufferSize is the size of the buffer used for file copy operations (32KB)
	BufferSize = 32 * 1024
	// DefaultDirPermissions is the default permission mode for created directories
	DefaultDirPermissions = 0o750
)

// Exported variables.
var (
	ErrSameFile = errors.New("source and destination are the same path")
)

// ProgressCallback is called during file operations to report progress.
// For tree copies bytesTransferred and totalBytes cover the whole tree.
type ProgressCallback func(bytesTransferred int64, totalBytes int64, currentFile string)

// FileOps provides file operations on top of an injectable filesystem.
type FileOps struct {
	FS filesystem.FileSystem
}

// NewFileOps creates a new FileOps instance with the given filesystem.
func NewFileOps(fs filesystem.FileSystem) *FileOps {
	return &FileOps{FS: fs}
}

// NewRealFileOps creates a new FileOps instance using the real filesystem.
func NewRealFileOps() *FileOps {
	return &FileOps{FS: filesystem.NewRealFileSystem()}
}

// CopyFile copies a file from src to dst with progress reporting, preserving the source
// modification time.
func (fo *FileOps) CopyFile(src, dst string, progress ProgressCallback) (int64, error) {
	if filepath.Clean(src) == filepath.Clean(dst) {
		return 0, fmt.Errorf("copy %s: %w", src, ErrSameFile)
	}

	return fo.copyFile(src, dst, 0, 0, progress)
}

// CopyTree recursively copies the directory src to dst. Progress is reported against the
// tree's total file bytes.
func (fo *FileOps) CopyTree(src, dst string, progress ProgressCallback) (int64, error) {
	if filepath.Clean(src) == filepath.Clean(dst) {
		return 0, fmt.Errorf("copy %s: %w", src, ErrSameFile)
	}

	if isInside(src, dst) {
		return 0, fmt.Errorf("copy %s into itself: %w", src, ErrSameFile)
	}

	total, err := fo.DirSize(src)
	if err != nil {
		return 0, err
	}

	err = fo.FS.MkdirAll(dst, DefaultDirPermissions)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination directory %s: %w", dst, err)
	}

	var copied int64

	scanner := fo.FS.Scan(src)

	for {
		info, ok := scanner.Next()
		if !ok {
			break
		}

		target := filepath.Join(dst, info.RelativePath)

		if info.IsDir {
			err = fo.FS.MkdirAll(target, DefaultDirPermissions)
			if err != nil {
				return copied, fmt.Errorf("failed to create directory %s: %w", target, err)
			}

			continue
		}

		written, err := fo.copyFile(filepath.Join(src, info.RelativePath), target, copied, total, progress)
		copied += written

		if err != nil {
			return copied, err
		}
	}

	if err := scanner.Err(); err != nil { //nolint:noinlineerr // scanner error check
		return copied, fmt.Errorf("failed to walk %s: %w", src, err)
	}

	return copied, nil
}

// DirSize sums the sizes of all regular files below root.
func (fo *FileOps) DirSize(root string) (int64, error) {
	var total int64

	scanner := fo.FS.Scan(root)

	for {
		info, ok := scanner.Next()
		if !ok {
			break
		}

		if !info.IsDir {
			total += info.Size
		}
	}

	if err := scanner.Err(); err != nil { //nolint:noinlineerr // scanner error check
		return total, fmt.Errorf("failed to size %s: %w", root, err)
	}

	return total, nil
}

// Remove deletes a file or a whole directory tree.
func (fo *FileOps) Remove(path string, isDir bool) error {
	if isDir {
		return fo.FS.RemoveAll(path) //nolint:wrapcheck // FileSystem already wraps with the path
	}

	return fo.FS.Remove(path) //nolint:wrapcheck // FileSystem already wraps with the path
}

// Size returns the byte size of a file, or the summed file bytes of a directory.
func (fo *FileOps) Size(path string) (int64, bool, error) {
	info, err := fo.FS.Stat(path)
	if err != nil {
		return 0, false, err //nolint:wrapcheck // FileSystem already wraps with the path
	}

	if !info.IsDir() {
		return info.Size(), false, nil
	}

	size, err := fo.DirSize(path)

	return size, true, err
}

// copyFile copies one file, reporting progress offset by base against total. A zero total
// reports against the file's own size.
//
//nolint:lll // Long function signature with progress offsets
func (fo *FileOps) copyFile(src, dst string, base, total int64, progress ProgressCallback) (int64, error) {
	sourceFile, err := fo.FS.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open source file %s: %w", src, err)
	}

	defer func() {
		_ = sourceFile.Close()
	}()

	sourceInfo, err := sourceFile.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat source file %s: %w", src, err)
	}

	if total == 0 {
		total = sourceInfo.Size()
	}

	dstDir := filepath.Dir(dst)

	err = fo.FS.MkdirAll(dstDir, DefaultDirPermissions)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination directory %s: %w", dstDir, err)
	}

	destFile, err := fo.FS.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}

	written, err := copyLoop(sourceFile, destFile, base, total, src, progress)

	closeErr := destFile.Close()

	if err != nil {
		return written, fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	if closeErr != nil {
		return written, fmt.Errorf("failed to close %s: %w", dst, closeErr)
	}

	err = fo.FS.Chtimes(dst, sourceInfo.ModTime(), sourceInfo.ModTime())
	if err != nil {
		return written, fmt.Errorf("failed to preserve modification time for %s: %w", dst, err)
	}

	return written, nil
}

// copyLoop performs a buffered copy with progress tracking.
//
//nolint:lll // Long function signature with many parameters
func copyLoop(sourceFile io.Reader, destFile io.Writer, base, total int64, srcPath string, progress ProgressCallback) (int64, error) {
	var written int64

	buf := make([]byte, BufferSize)

	if progress != nil {
		progress(base, total, srcPath)
	}

	for {
		nr, err := sourceFile.Read(buf) //nolint:varnamelen // nr is idiomatic for bytes read
		if nr > 0 {
			nw, err := destFile.Write(buf[0:nr]) //nolint:varnamelen // nw is idiomatic for bytes written
			if err != nil {
				return written, fmt.Errorf("failed to write to destination: %w", err)
			}

			if nr != nw {
				return written, fmt.Errorf("short write: %w", io.ErrShortWrite)
			}

			written += int64(nw)

			if progress != nil {
				progress(base+written, total, srcPath)
			}
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return written, fmt.Errorf("failed to read from source: %w", err)
		}
	}

	return written, nil
}

// isInside reports whether path lies below root.
func isInside(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

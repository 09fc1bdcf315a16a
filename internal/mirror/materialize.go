package mirror

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	pmerrors "github.com/joe/pane-mirror/pkg/errors"
	"github.com/joe/pane-mirror/pkg/filesystem"
)

// Materializer rewrites mirror directories to match remote listings. Calls must be serialized
// by the caller; the Worker in the transfer package does this for the CLI.
type Materializer struct {
	fs  filesystem.FileSystem
	log zerolog.Logger
}

// NewMaterializer creates a Materializer over fs.
func NewMaterializer(fs filesystem.FileSystem, logger zerolog.Logger) *Materializer {
	return &Materializer{fs: fs, log: logger}
}

// SyncDirectory replaces every child of localDir except the sidecar with one placeholder per
// entry (empty directory or zero-length file) and rewrites the size side-table wholesale.
// A later entry with the same name replaces an earlier one.
func (m *Materializer) SyncDirectory(localDir string, entries []Entry) error {
	if !IsMirrorPath(localDir) {
		return &pmerrors.PathResolutionError{Path: localDir, Err: pmerrors.ErrNoMirrorRoot}
	}

	err := m.fs.MkdirAll(localDir, dirPerm)
	if err != nil {
		return err //nolint:wrapcheck // FileSystem already names the path
	}

	children, err := m.fs.ReadDir(localDir)
	if err != nil {
		return err //nolint:wrapcheck // FileSystem already names the path
	}

	var errs []error

	for _, child := range children {
		if child.Name() == SidecarName {
			continue
		}

		if removeErr := m.fs.RemoveAll(filepath.Join(localDir, child.Name())); removeErr != nil { //nolint:noinlineerr // collect and continue
			errs = append(errs, removeErr)
		}
	}

	sizes := SizeTable{}

	for _, entry := range entries {
		if !acceptableName(entry.Name) {
			continue
		}

		target := filepath.Join(localDir, entry.Name)

		// Last one wins.
		if removeErr := m.fs.RemoveAll(target); removeErr != nil { //nolint:noinlineerr // collect and continue
			errs = append(errs, removeErr)
			continue
		}

		if entry.IsDir {
			delete(sizes, entry.Name)

			if mkErr := m.fs.MkdirAll(target, dirPerm); mkErr != nil { //nolint:noinlineerr // collect and continue
				errs = append(errs, mkErr)
			}

			continue
		}

		if writeErr := m.fs.WriteFile(target, nil, filePerm); writeErr != nil { //nolint:noinlineerr // collect and continue
			errs = append(errs, writeErr)
			continue
		}

		sizes[entry.Name] = entry.Size
	}

	if writeErr := WriteSizeTable(m.fs, localDir, sizes); writeErr != nil { //nolint:noinlineerr // reported with the rest
		errs = append(errs, writeErr)
	}

	m.log.Debug().Str("dir", localDir).Int("entries", len(entries)).Int("errors", len(errs)).Msg("mirror directory synced")

	if len(errs) > 0 {
		return fmt.Errorf("sync %s: %w", localDir, errors.Join(errs...))
	}

	return nil
}

// SizeOf returns the byte size of path: the side-table entry for mirror paths (0 when
// absent) and the filesystem size otherwise.
func (m *Materializer) SizeOf(path string) (int64, error) {
	if IsMirrorPath(path) {
		table, err := ReadSizeTable(m.fs, filepath.Dir(path))
		if err != nil {
			return 0, err
		}

		return table[filepath.Base(path)], nil
	}

	info, err := m.fs.Stat(path)
	if err != nil {
		return 0, err //nolint:wrapcheck // FileSystem already names the path
	}

	return info.Size(), nil
}

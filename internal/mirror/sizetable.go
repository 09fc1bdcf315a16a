package mirror

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/joe/pane-mirror/pkg/filesystem"
)

// SizeTable maps file entry names of one mirror directory to their remote byte sizes.
type SizeTable map[string]int64

// ReadSizeTable loads the side-table of dir. A missing table is empty.
func ReadSizeTable(fsys filesystem.FileSystem, dir string) (SizeTable, error) {
	data, err := fsys.ReadFile(filepath.Join(dir, SizeTableName))
	if errors.Is(err, fs.ErrNotExist) {
		return SizeTable{}, nil
	}

	if err != nil {
		return nil, err //nolint:wrapcheck // FileSystem already names the path
	}

	table := SizeTable{}

	err = json.Unmarshal(data, &table)
	if err != nil {
		return nil, fmt.Errorf("parse size table in %s: %w", dir, err)
	}

	return table, nil
}

// WriteSizeTable replaces the side-table of dir wholesale.
func WriteSizeTable(fsys filesystem.FileSystem, dir string, table SizeTable) error {
	if table == nil {
		table = SizeTable{}
	}

	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("encode size table: %w", err)
	}

	return writeAtomic(fsys, filepath.Join(dir, SizeTableName), data)
}

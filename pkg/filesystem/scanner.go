package filesystem

import (
	"os"
	"time"
)

// FileScanner is an iterator over files in a directory tree.
type FileScanner interface {
	// Next advances to the next entry and returns its info.
	// Returns (FileInfo{}, false) when done or on error; check Err afterwards.
	Next() (FileInfo, bool)

	// Err returns any error that occurred during scanning.
	Err() error
}

// FileInfo contains metadata about one scanned entry.
type FileInfo struct {
	// RelativePath is the path relative to the scan root
	RelativePath string
	Size         int64
	ModTime      time.Time
	Mode         os.FileMode
	IsDir        bool
}

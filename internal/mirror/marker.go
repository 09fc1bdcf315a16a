// Package mirror represents a remote SFTP-reachable directory tree as a virtual local mirror:
// placeholder files and directories under a reserved cache directory, a sidecar that ties each
// mirror root to its remote account, and per-directory size side-tables.
package mirror

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joe/pane-mirror/internal/remote"
)

// Exported constants.
const (
	// CacheDirName is the reserved path segment that marks a local path as remote-backed.
	CacheDirName = "PaneMirror_SFTP_Cache"
	// SidecarName is the connection record stored in every mirror root.
	SidecarName = ".sftp_info.txt"
	// SizeTableName is the per-directory name-to-size record of file entries.
	SizeTableName = ".sftp_sizes.json"
	// MaxSidecarDepth bounds the upward walk from a mirror path to its root.
	MaxSidecarDepth = 10

	dirPerm  = 0o755
	filePerm = 0o644
)

// IsMirrorPath reports whether any segment of path is the reserved cache directory.
func IsMirrorPath(path string) bool {
	for _, segment := range strings.Split(filepath.ToSlash(filepath.Clean(path)), "/") {
		if segment == CacheDirName {
			return true
		}
	}

	return false
}

// IsReservedName reports names the mirror keeps for itself and never shows as entries.
func IsReservedName(name string) bool {
	return name == SidecarName || name == SizeTableName
}

// RootDirName is the directory name of the mirror root for an endpoint:
// <user>_<host with dots as underscores>_<port>.
func RootDirName(endpoint remote.Endpoint) string {
	host := strings.NewReplacer(".", "_", ":", "_", "/", "_").Replace(endpoint.Host)

	return fmt.Sprintf("%s_%s_%d", sanitizeSegment(endpoint.Username), host, endpoint.PortOrDefault())
}

// RootFor returns the mirror root directory for an endpoint below cacheDir.
func RootFor(cacheDir string, endpoint remote.Endpoint) string {
	return filepath.Join(cacheDir, CacheDirName, RootDirName(endpoint))
}

func sanitizeSegment(s string) string {
	return strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(s)
}

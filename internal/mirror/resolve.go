package mirror

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/joe/pane-mirror/internal/remote"
	pmerrors "github.com/joe/pane-mirror/pkg/errors"
	"github.com/joe/pane-mirror/pkg/filesystem"
)

// SecretLookup recovers a password for an account. Implementations may store secrets in
// plain text; production use needs encrypted-at-rest storage.
type SecretLookup interface {
	LookupPassword(host, username string, port int) (string, bool)
}

// Connection is a resolved mirror root and the remote account behind it.
type Connection struct {
	Endpoint  remote.Endpoint
	BasePath  string
	Root      string
	Connected time.Time
}

// Resolver finds the connection that owns a mirror path.
type Resolver struct {
	fs      filesystem.FileSystem
	secrets SecretLookup
	log     zerolog.Logger
}

// NewResolver creates a Resolver. secrets may be nil.
func NewResolver(fs filesystem.FileSystem, secrets SecretLookup, logger zerolog.Logger) *Resolver {
	return &Resolver{fs: fs, secrets: secrets, log: logger}
}

// FindRoot walks upward from localPath, at most MaxSidecarDepth levels, to the directory
// holding a sidecar.
func (r *Resolver) FindRoot(localPath string) (string, error) {
	dir := filepath.Clean(localPath)

	for range MaxSidecarDepth {
		_, err := r.fs.Stat(filepath.Join(dir, SidecarName))
		if err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	return "", &pmerrors.PathResolutionError{Path: localPath, Err: pmerrors.ErrNoMirrorRoot}
}

// Resolve returns the connection owning localPath. A blank password is recovered through the
// secret lookup by (host, username, port).
func (r *Resolver) Resolve(localPath string) (*Connection, error) {
	root, err := r.FindRoot(localPath)
	if err != nil {
		return nil, err
	}

	sidecar, err := ReadSidecar(r.fs, root)
	if err != nil {
		return nil, &pmerrors.PathResolutionError{Path: localPath, Err: err}
	}

	endpoint := sidecar.Endpoint()
	endpoint.Password = sidecar.legacyPassword

	if endpoint.Password == "" && r.secrets != nil {
		if password, ok := r.secrets.LookupPassword(endpoint.Host, endpoint.Username, endpoint.PortOrDefault()); ok {
			endpoint.Password = password
		}
	}

	return &Connection{
		Endpoint:  endpoint,
		BasePath:  sidecar.Path,
		Root:      root,
		Connected: sidecar.Connected,
	}, nil
}

// RemotePath translates a local mirror path under conn's root, logging the ambiguous
// fallback to "/" when the path lies outside it.
func (r *Resolver) RemotePath(conn *Connection, localPath string) string {
	if !Within(localPath, conn.Root) {
		r.log.Warn().Str("path", localPath).Str("root", conn.Root).Msg("path outside mirror root, using /")
	}

	return ToRemotePath(localPath, conn.Root)
}

// ToRemotePath translates a local mirror path to the remote absolute path. The mirror root is
// the remote "/". A path outside root falls back to "/".
func ToRemotePath(localPath, root string) string {
	localPath = filepath.Clean(localPath)
	root = filepath.Clean(root)

	if localPath == root || !Within(localPath, root) {
		return "/"
	}

	suffix := strings.TrimPrefix(localPath, root)
	suffix = strings.Trim(filepath.ToSlash(suffix), "/")

	return "/" + suffix
}

// ToLocalPath translates a remote absolute path to its local mirror path under root.
func ToLocalPath(root, remotePath string) string {
	cleaned := strings.TrimPrefix(path.Clean("/"+remotePath), "/")
	if cleaned == "" {
		return filepath.Clean(root)
	}

	return filepath.Join(root, filepath.FromSlash(cleaned))
}

// Within reports whether localPath is root or lies below it.
func Within(localPath, root string) bool {
	localPath = filepath.Clean(localPath)
	root = filepath.Clean(root)

	if localPath == root {
		return true
	}

	prefix := root
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}

	return strings.HasPrefix(localPath, prefix)
}

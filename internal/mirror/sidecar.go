package mirror

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/joe/pane-mirror/internal/remote"
	"github.com/joe/pane-mirror/pkg/filesystem"
)

// legacyHeader is the first line older sidecars carry.
const legacyHeader = "SFTP Connection"

// Sidecar is the connection record stored as Key: value lines in a mirror root.
// The password is never written.
type Sidecar struct {
	Host      string
	Port      int
	Username  string
	Path      string
	Connected time.Time

	// legacyPassword is read from older sidecars that stored one.
	legacyPassword string
}

// Endpoint returns the sidecar's account without a password.
func (s *Sidecar) Endpoint() remote.Endpoint {
	return remote.Endpoint{Host: s.Host, Port: s.Port, Username: s.Username}
}

// ReadSidecar parses the sidecar in dir.
func ReadSidecar(fs filesystem.FileSystem, dir string) (*Sidecar, error) {
	data, err := fs.ReadFile(filepath.Join(dir, SidecarName))
	if err != nil {
		return nil, err //nolint:wrapcheck // FileSystem already names the path
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{
		KeyValueDelimiters:      ":",
		AllowBooleanKeys:        true,
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
	}, data)
	if err != nil {
		return nil, fmt.Errorf("parse sidecar in %s: %w", dir, err)
	}

	section := cfg.Section(ini.DefaultSection)

	sidecar := &Sidecar{
		Host:           strings.TrimSpace(section.Key("Host").String()),
		Port:           section.Key("Port").MustInt(remote.DefaultPort),
		Username:       strings.TrimSpace(section.Key("Username").String()),
		Path:           strings.TrimSpace(section.Key("Path").MustString("/")),
		legacyPassword: section.Key("Password").String(),
	}

	if connected := section.Key("Connected").String(); connected != "" {
		if t, parseErr := time.Parse(time.RFC3339, connected); parseErr == nil { //nolint:noinlineerr // optional field
			sidecar.Connected = t
		}
	}

	if sidecar.Host == "" {
		return nil, fmt.Errorf("parse sidecar in %s: missing Host", dir) //nolint:err113 // malformed record
	}

	return sidecar, nil
}

// WriteSidecar atomically writes the sidecar into dir.
func WriteSidecar(fs filesystem.FileSystem, dir string, sidecar Sidecar) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Host: %s\n", sidecar.Host)
	fmt.Fprintf(&b, "Port: %d\n", sidecar.Port)
	fmt.Fprintf(&b, "Username: %s\n", sidecar.Username)
	fmt.Fprintf(&b, "Path: %s\n", sidecar.Path)
	fmt.Fprintf(&b, "Connected: %s\n", sidecar.Connected.UTC().Format(time.RFC3339))

	return writeAtomic(fs, filepath.Join(dir, SidecarName), []byte(b.String()))
}

// writeAtomic writes data to a sibling temp file and renames it into place.
func writeAtomic(fs filesystem.FileSystem, path string, data []byte) error {
	tmp := path + ".tmp"

	err := fs.WriteFile(tmp, data, filePerm)
	if err != nil {
		return err //nolint:wrapcheck // FileSystem already names the path
	}

	err = fs.Rename(tmp, path)
	if err != nil {
		_ = fs.Remove(tmp)
		return err //nolint:wrapcheck // FileSystem already names the path
	}

	return nil
}

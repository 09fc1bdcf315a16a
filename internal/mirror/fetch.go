package mirror

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/joe/pane-mirror/internal/remote"
	pmerrors "github.com/joe/pane-mirror/pkg/errors"
	"github.com/joe/pane-mirror/pkg/filesystem"
)

// CommandRunner is the subset of the remote runner the mirror needs.
type CommandRunner interface {
	RunRemote(ctx context.Context, endpoint remote.Endpoint, command string) (string, int, error)
	ListDirectory(ctx context.Context, endpoint remote.Endpoint, remotePath string) (string, int, error)
}

// NativeLister lists and probes over a native SSH/SFTP session.
type NativeLister interface {
	ReadDir(ctx context.Context, endpoint remote.Endpoint, remotePath string) ([]Entry, error)
	Probe(ctx context.Context, endpoint remote.Endpoint) error
}

// Fetcher retrieves remote listings, trying the command runner first and the native SFTP
// session second.
type Fetcher struct {
	commands CommandRunner
	native   NativeLister
	log      zerolog.Logger
}

// NewFetcher creates a Fetcher. native may be nil to disable the secondary transport.
func NewFetcher(commands CommandRunner, native NativeLister, logger zerolog.Logger) *Fetcher {
	return &Fetcher{commands: commands, native: native, log: logger}
}

// Fetch lists remotePath. It fails with a ListingError only when both transports fail.
func (f *Fetcher) Fetch(ctx context.Context, endpoint remote.Endpoint, remotePath string) ([]Entry, error) {
	output, status, err := f.commands.ListDirectory(ctx, endpoint, remotePath)
	if err == nil && status == 0 {
		entries, unparsed := parseListing(output)
		if len(entries) > 0 || unparsed == 0 {
			f.log.Debug().Str("path", remotePath).Int("entries", len(entries)).Int("unparsed", unparsed).Msg("listing fetched")

			return entries, nil
		}

		err = fmt.Errorf("%w: %d row(s)", pmerrors.ErrUnparsableListing, unparsed)
	}

	f.log.Warn().Err(err).Int("status", status).Str("path", remotePath).Msg("listing command failed")

	listingErr := &pmerrors.ListingError{
		Host:       endpoint.Host,
		RemotePath: remotePath,
		Status:     status,
		Output:     output,
		Err:        err,
	}

	if f.native == nil {
		return nil, listingErr
	}

	entries, nativeErr := f.native.ReadDir(ctx, endpoint, remotePath)
	if nativeErr != nil {
		f.log.Warn().Err(nativeErr).Str("path", remotePath).Msg("native listing failed")
		listingErr.Err = errors.Join(err, nativeErr)

		return nil, listingErr
	}

	f.log.Debug().Str("path", remotePath).Int("entries", len(entries)).Msg("listing fetched over sftp")

	return entries, nil
}

// SFTPLister implements NativeLister with pkg/sftp over golang.org/x/crypto/ssh.
type SFTPLister struct {
	Timeout time.Duration
}

// Probe opens and closes one session.
func (l *SFTPLister) Probe(ctx context.Context, endpoint remote.Endpoint) error {
	conn, err := filesystem.Dial(ctx, target(endpoint), l.Timeout)
	if err != nil {
		return err //nolint:wrapcheck // Dial describes the failed phase
	}

	return conn.Close() //nolint:wrapcheck // close error passed through
}

// ReadDir lists remotePath over SFTP.
func (l *SFTPLister) ReadDir(ctx context.Context, endpoint remote.Endpoint, remotePath string) ([]Entry, error) {
	conn, err := filesystem.Dial(ctx, target(endpoint), l.Timeout)
	if err != nil {
		return nil, err //nolint:wrapcheck // Dial describes the failed phase
	}

	defer func() {
		_ = conn.Close()
	}()

	infos, err := conn.ReadDir(remotePath)
	if err != nil {
		return nil, err //nolint:wrapcheck // already names the path
	}

	entries := make([]Entry, 0, len(infos))

	for _, info := range infos {
		if !acceptableName(info.Name()) {
			continue
		}

		entry := Entry{Name: info.Name(), IsDir: info.IsDir(), Mode: info.Mode().String()}
		if !entry.IsDir {
			entry.Size = info.Size()
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func target(endpoint remote.Endpoint) filesystem.SFTPTarget {
	return filesystem.SFTPTarget{
		Host:     endpoint.Host,
		Port:     endpoint.PortOrDefault(),
		User:     endpoint.Username,
		Password: endpoint.Password,
	}
}

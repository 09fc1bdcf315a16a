package mirror

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/rs/zerolog"

	"github.com/joe/pane-mirror/internal/clock"
	"github.com/joe/pane-mirror/internal/remote"
	pmerrors "github.com/joe/pane-mirror/pkg/errors"
	"github.com/joe/pane-mirror/pkg/filesystem"
)

// ConnectionRecorder remembers successful connections, including their password.
type ConnectionRecorder interface {
	Record(endpoint remote.Endpoint, basePath string) error
}

// Options configures a Service.
type Options struct {
	FS       filesystem.FileSystem
	Commands CommandRunner
	// Native is the secondary listing transport and connect probe; nil disables it.
	Native NativeLister
	// Secrets and Recorder are usually the same history store; either may be nil.
	Secrets  SecretLookup
	Recorder ConnectionRecorder
	// CacheDir holds the reserved cache directory.
	CacheDir       string
	ConnectTimeout time.Duration
	Clock          clock.TimeProvider
	Logger         zerolog.Logger
}

// Service ties resolution, fetching and materialization together.
type Service struct {
	resolver     *Resolver
	fetcher      *Fetcher
	materializer *Materializer
	opts         Options
	log          zerolog.Logger
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	if opts.FS == nil {
		opts.FS = filesystem.NewRealFileSystem()
	}

	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}

	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = remote.DefaultConnectTimeout
	}

	logger := opts.Logger.With().Str("component", "mirror").Logger()

	return &Service{
		resolver:     NewResolver(opts.FS, opts.Secrets, logger),
		fetcher:      NewFetcher(opts.Commands, opts.Native, logger),
		materializer: NewMaterializer(opts.FS, logger),
		opts:         opts,
		log:          logger,
	}
}

// Resolver returns the service's resolver.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// Materializer returns the service's materializer.
func (s *Service) Materializer() *Materializer {
	return s.materializer
}

// Refresh re-lists the remote directory behind localDir and rewrites localDir to match.
// On a listing failure localDir is left untouched.
func (s *Service) Refresh(ctx context.Context, localDir string) error {
	conn, err := s.resolver.Resolve(localDir)
	if err != nil {
		return err
	}

	remotePath := s.resolver.RemotePath(conn, localDir)

	entries, err := s.fetcher.Fetch(ctx, conn.Endpoint, remotePath)
	if err != nil {
		return err
	}

	return s.materializer.SyncDirectory(localDir, entries)
}

// Connect probes the endpoint, creates or reuses its mirror root, writes the sidecar without
// the password, records the connection and lists basePath. It returns the connection and the
// local directory standing for basePath. A listing failure is returned alongside a usable
// connection.
func (s *Service) Connect(ctx context.Context, endpoint remote.Endpoint, basePath string) (*Connection, string, error) {
	endpoint.Port = endpoint.PortOrDefault()
	basePath = path.Clean("/" + basePath)

	err := s.probe(ctx, endpoint)
	if err != nil {
		return nil, "", &pmerrors.ConnectionError{
			Host: endpoint.Host, Port: endpoint.Port, Username: endpoint.Username, Err: err,
		}
	}

	root := RootFor(s.opts.CacheDir, endpoint)

	err = s.opts.FS.MkdirAll(root, dirPerm)
	if err != nil {
		return nil, "", fmt.Errorf("create mirror root: %w", err)
	}

	connected := s.opts.Clock.Now()

	err = WriteSidecar(s.opts.FS, root, Sidecar{
		Host:      endpoint.Host,
		Port:      endpoint.Port,
		Username:  endpoint.Username,
		Path:      basePath,
		Connected: connected,
	})
	if err != nil {
		return nil, "", fmt.Errorf("write sidecar: %w", err)
	}

	if s.opts.Recorder != nil {
		if recordErr := s.opts.Recorder.Record(endpoint, basePath); recordErr != nil { //nolint:noinlineerr // history is best effort
			s.log.Warn().Err(recordErr).Str("endpoint", endpoint.String()).Msg("connection history not saved")
		}
	}

	conn := &Connection{Endpoint: endpoint, BasePath: basePath, Root: root, Connected: connected}
	paneDir := ToLocalPath(root, basePath)

	err = s.opts.FS.MkdirAll(paneDir, dirPerm)
	if err != nil {
		return conn, paneDir, fmt.Errorf("create mirror directory: %w", err)
	}

	s.log.Info().Str("endpoint", endpoint.String()).Str("root", root).Str("path", basePath).Msg("connected")

	entries, err := s.fetcher.Fetch(ctx, endpoint, basePath)
	if err != nil {
		return conn, paneDir, err
	}

	return conn, paneDir, s.materializer.SyncDirectory(paneDir, entries)
}

// probe checks reachability and credentials within the connect timeout, natively first and
// through the command runner second.
func (s *Service) probe(ctx context.Context, endpoint remote.Endpoint) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ConnectTimeout)
	defer cancel()

	var nativeErr error

	if s.opts.Native != nil {
		nativeErr = s.opts.Native.Probe(ctx, endpoint)
		if nativeErr == nil {
			return nil
		}

		s.log.Debug().Err(nativeErr).Msg("native probe failed, trying ssh")
	}

	output, status, err := s.opts.Commands.RunRemote(ctx, endpoint, "true")
	if err == nil && status == 0 {
		return nil
	}

	if err == nil {
		err = fmt.Errorf("ssh exited with status %d: %s", status, firstLineOf(output)) //nolint:err113 // carries subprocess output
	}

	return errors.Join(nativeErr, err)
}

func firstLineOf(s string) string {
	for i := range len(s) {
		if s[i] == '\n' {
			return s[:i]
		}
	}

	return s
}

package remote

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/rs/zerolog"

	"github.com/joe/pane-mirror/internal/clock"
	pmerrors "github.com/joe/pane-mirror/pkg/errors"
)

// Exported constants.
const (
	// DefaultConnectTimeout bounds the ssh connect phase.
	DefaultConnectTimeout = 10 * time.Second
	// FallbackInterval is how often the last progress values are re-emitted while the
	// transfer tool is silent.
	FallbackInterval = time.Second
	// outputTailLines is how much subprocess output is kept for error reports.
	outputTailLines = 20
)

// Config configures a Runner.
type Config struct {
	SSHPath        string
	RsyncPath      string
	ConnectTimeout time.Duration
	// TempDir holds askpass scripts and remote-to-remote staging; os.TempDir when empty.
	TempDir string
}

// Runner executes remote commands and transfers for one process. It holds no per-connection
// state; every call carries its Endpoint.
type Runner struct {
	exec   Executor
	clock  clock.TimeProvider
	log    zerolog.Logger
	config Config
}

// NewRunner creates a Runner. Zero config fields take their defaults.
func NewRunner(executor Executor, timeProvider clock.TimeProvider, logger zerolog.Logger, config Config) *Runner {
	if config.SSHPath == "" {
		config.SSHPath = "ssh"
	}

	if config.RsyncPath == "" {
		config.RsyncPath = "rsync"
	}

	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = DefaultConnectTimeout
	}

	if config.TempDir == "" {
		config.TempDir = os.TempDir()
	}

	return &Runner{
		exec:   executor,
		clock:  timeProvider,
		log:    logger.With().Str("component", "remote").Logger(),
		config: config,
	}
}

// RunRemote executes command on the endpoint and returns its merged output and exit status.
// The error is non-nil only when the subprocess could not be run at all.
func (r *Runner) RunRemote(ctx context.Context, endpoint Endpoint, command string) (string, int, error) {
	askpass, err := r.prepareAuth(endpoint)
	if err != nil {
		return "", -1, err
	}

	defer askpass.remove()

	args := append(r.sshOptions(endpoint, askpass != nil), endpoint.Target(), command)

	r.log.Debug().Str("endpoint", endpoint.String()).Str("command", command).Msg("run remote")

	proc, err := r.exec.Start(ctx, Command{Path: r.config.SSHPath, Args: args, Env: askpass.envOrNil()})
	if err != nil {
		return "", -1, fmt.Errorf("run remote command on %s: %w", endpoint.Host, err)
	}

	output, readErr := io.ReadAll(proc.Output())

	status, waitErr := proc.Wait()
	if waitErr != nil {
		return string(output), status, fmt.Errorf("run remote command on %s: %w", endpoint.Host, waitErr)
	}

	if readErr != nil {
		return string(output), status, fmt.Errorf("read remote output from %s: %w", endpoint.Host, readErr)
	}

	return string(output), status, nil
}

// ListDirectory returns the long-format listing of a remote directory in the C locale, so
// dates carry English month abbreviations.
func (r *Runner) ListDirectory(ctx context.Context, endpoint Endpoint, remotePath string) (string, int, error) {
	return r.RunRemote(ctx, endpoint, "LC_ALL=C ls -la -- "+shellescape.Quote(remotePath))
}

// RemoteSize returns a remote file's byte count, or 0 when it cannot be determined.
func (r *Runner) RemoteSize(ctx context.Context, endpoint Endpoint, remotePath string) int64 {
	quoted := shellescape.Quote(remotePath)

	output, status, err := r.RunRemote(ctx, endpoint,
		fmt.Sprintf("stat -c %%s -- %s 2>/dev/null || wc -c < %s", quoted, quoted))
	if err != nil || status != 0 {
		r.log.Debug().Str("path", remotePath).Int("status", status).Msg("remote size unavailable")
		return 0
	}

	return firstInt(output)
}

// RemoteDirectorySize returns the recursive byte count of a remote directory, or 0 when it
// cannot be determined. du reports kibibytes, so the result is rounded up to 1 KiB blocks.
func (r *Runner) RemoteDirectorySize(ctx context.Context, endpoint Endpoint, remotePath string) int64 {
	output, status, err := r.RunRemote(ctx, endpoint, "du -sk -- "+shellescape.Quote(remotePath))
	if err != nil || status != 0 {
		r.log.Debug().Str("path", remotePath).Int("status", status).Msg("remote directory size unavailable")
		return 0
	}

	return firstInt(output) * 1024 //nolint:mnd // du -k block size
}

// DeleteRemote removes a remote file, or a directory recursively, and reports success.
// The remote root and empty paths are refused.
func (r *Runner) DeleteRemote(ctx context.Context, endpoint Endpoint, remotePath string, isDir bool) bool {
	if cleaned := path.Clean("/" + remotePath); remotePath == "" || cleaned == "/" {
		r.log.Warn().Str("path", remotePath).Msg("refusing to delete remote root")

		return false
	}

	command := "rm -f -- " + shellescape.Quote(remotePath)
	if isDir {
		command = "rm -rf -- " + shellescape.Quote(remotePath)
	}

	output, status, err := r.RunRemote(ctx, endpoint, command)
	if err != nil || status != 0 {
		r.log.Warn().Err(err).Str("path", remotePath).Int("status", status).
			Str("output", strings.TrimSpace(output)).Msg("remote delete failed")

		return false
	}

	return true
}

// TransferFile copies one file between the local filesystem and the endpoint. localPath and
// remotePath are full file paths; which one is the source depends on direction.
//
//nolint:lll // Long function signature with direction and paths
func (r *Runner) TransferFile(ctx context.Context, endpoint Endpoint, direction Direction, localPath, remotePath string, onProgress ProgressFunc) error {
	return r.transfer(ctx, endpoint, direction, localPath, remotePath, false, onProgress)
}

// TransferDirectory copies a directory tree. Both paths name the directory itself; the
// destination is created if missing. Progress accumulates across the files of the tree.
//
//nolint:lll // Long function signature with direction and paths
func (r *Runner) TransferDirectory(ctx context.Context, endpoint Endpoint, direction Direction, localPath, remotePath string, onProgress ProgressFunc) error {
	return r.transfer(ctx, endpoint, direction, localPath, remotePath, true, onProgress)
}

// RemoteToRemote copies between two endpoints by downloading to a temporary directory and
// uploading from it. The download reports on [0, sizeA) and the upload on
// [sizeA, sizeA+sizeB) of one combined scale, where sizeA is the byte estimate of the item.
//
//nolint:lll,funlen // Long function signature with both endpoints
func (r *Runner) RemoteToRemote(ctx context.Context, from Endpoint, fromPath string, to Endpoint, toPath string, isDir bool, sizeA int64, onProgress ProgressFunc) error {
	staging, err := os.MkdirTemp(r.config.TempDir, "pm-r2r-*")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}

	defer func() {
		if removeErr := os.RemoveAll(staging); removeErr != nil { //nolint:noinlineerr // cleanup
			r.log.Warn().Err(removeErr).Str("path", staging).Msg("staging cleanup failed")
		}
	}()

	local := filepath.Join(staging, baseName(fromPath))

	var downloaded int64

	first := func(bytes int64, speed float64) {
		downloaded = bytes
		if onProgress != nil {
			onProgress(bytes, speed)
		}
	}

	err = r.transfer(ctx, from, Download, local, fromPath, isDir, first)
	if err != nil {
		return err
	}

	// The upload scale starts where the download estimate ends, or where the download
	// actually ended when the estimate was too small.
	offset := max(sizeA, downloaded)

	second := func(bytes int64, speed float64) {
		if onProgress != nil {
			onProgress(offset+bytes, speed)
		}
	}

	return r.transfer(ctx, to, Upload, local, toPath, isDir, second)
}

//nolint:lll,funlen // Long function signature; subprocess lifecycle kept in one place
func (r *Runner) transfer(ctx context.Context, endpoint Endpoint, direction Direction, localPath, remotePath string, isDir bool, onProgress ProgressFunc) error {
	askpass, err := r.prepareAuth(endpoint)
	if err != nil {
		return err
	}

	defer askpass.remove()

	remoteSpec := endpoint.Target() + ":" + remotePath
	src, dst := localPath, remoteSpec

	if direction == Download {
		src, dst = remoteSpec, localPath
	}

	args := []string{"--progress", "--protect-args", "-e", r.rsyncShell(endpoint, askpass != nil)}
	if isDir {
		args = append(args, "-r", "--times")
		src = strings.TrimSuffix(src, "/") + "/"
		dst = strings.TrimSuffix(dst, "/") + "/"
	} else {
		args = append(args, "--times")
	}

	args = append(args, "--", src, dst)

	r.log.Debug().Str("endpoint", endpoint.String()).Stringer("direction", direction).
		Str("src", src).Str("dst", dst).Bool("dir", isDir).Msg("transfer start")

	proc, err := r.exec.Start(ctx, Command{Path: r.config.RsyncPath, Args: args, Env: askpass.envOrNil()})
	if err != nil {
		return &pmerrors.TransferError{Leg: direction.String(), Source: src, Dest: dst, Status: -1, Err: err}
	}

	tail, status, waitErr := r.stream(proc, isDir, onProgress)

	if waitErr != nil || status != 0 {
		r.log.Warn().Err(waitErr).Int("status", status).Str("src", src).Str("dst", dst).Msg("transfer failed")

		return &pmerrors.TransferError{
			Leg:    direction.String(),
			Source: src,
			Dest:   dst,
			Status: status,
			Output: strings.Join(tail, "\n"),
			Err:    waitErr,
		}
	}

	r.log.Debug().Str("src", src).Str("dst", dst).Msg("transfer done")

	return nil
}

// stream consumes the process output on a reader goroutine while a fallback ticker re-emits
// the last values once a second. Both are released before stream returns.
//
//nolint:funlen // Reader, ticker and teardown belong together
func (r *Runner) stream(proc Process, accumulate bool, onProgress ProgressFunc) ([]string, int, error) {
	var (
		mu        sync.Mutex
		lastBytes int64
		lastSpeed float64
		haveData  bool
		acc       dirAccumulator
		tail      []string
	)

	emit := func(bytes int64, speed float64) {
		if onProgress != nil {
			onProgress(bytes, speed)
		}
	}

	var wg sync.WaitGroup

	readerDone := make(chan struct{})

	wg.Add(1)

	go func() {
		defer wg.Done()
		defer close(readerDone)

		scanner := bufio.NewScanner(proc.Output())
		scanner.Split(ScanProgressLines)

		for scanner.Scan() {
			line := scanner.Text()

			mu.Lock()

			parsed, ok := ParseProgressLine(line)
			if !ok {
				tail = appendTail(tail, line)
				mu.Unlock()

				continue
			}

			bytes := parsed.Bytes
			if accumulate {
				bytes = acc.add(parsed)
			}

			lastBytes, lastSpeed, haveData = bytes, parsed.Speed, true
			emit(lastBytes, lastSpeed)
			mu.Unlock()
		}

		// Drain so the child never blocks on a full pipe after a scan error.
		_, _ = io.Copy(io.Discard, proc.Output())
	}()

	ticker := r.clock.NewTicker(FallbackInterval)
	stopTicker := make(chan struct{})

	wg.Add(1)

	go func() {
		defer wg.Done()

		for {
			select {
			case <-stopTicker:
				return
			case _, ok := <-ticker.C():
				if !ok {
					return
				}

				mu.Lock()
				if haveData {
					emit(lastBytes, lastSpeed)
				}
				mu.Unlock()
			}
		}
	}()

	<-readerDone

	status, err := proc.Wait()

	close(stopTicker)
	ticker.Stop()
	wg.Wait()

	return tail, status, err
}

// prepareAuth writes an askpass script when the endpoint carries a password.
func (r *Runner) prepareAuth(endpoint Endpoint) (*askpassScript, error) {
	if endpoint.Password == "" {
		return nil, nil //nolint:nilnil // no script needed for key or agent auth
	}

	script, err := writeAskpass(r.config.TempDir, endpoint.Password)
	if err != nil {
		return nil, &pmerrors.ConnectionError{
			Host: endpoint.Host, Port: endpoint.PortOrDefault(), Username: endpoint.Username, Err: err,
		}
	}

	return script, nil
}

// sshOptions returns the ssh flags shared by remote commands and rsync's remote shell.
// Host keys are neither verified nor persisted.
func (r *Runner) sshOptions(endpoint Endpoint, withPassword bool) []string {
	timeout := int(r.config.ConnectTimeout.Round(time.Second) / time.Second)
	if timeout < 1 {
		timeout = 1
	}

	opts := []string{
		"-o", "ConnectTimeout=" + strconv.Itoa(timeout),
		"-o", "StrictHostKeyChecking=no",
		"-o", "UserKnownHostsFile=/dev/null",
		"-o", "LogLevel=ERROR",
	}

	if withPassword {
		opts = append(opts, "-o", "NumberOfPasswordPrompts=1")
	} else {
		opts = append(opts, "-o", "BatchMode=yes")
	}

	return append(opts, "-p", strconv.Itoa(endpoint.PortOrDefault()))
}

func (r *Runner) rsyncShell(endpoint Endpoint, withPassword bool) string {
	parts := append([]string{r.config.SSHPath}, r.sshOptions(endpoint, withPassword)...)

	return shellescape.QuoteCommand(parts)
}

func (a *askpassScript) envOrNil() []string {
	if a == nil {
		return nil
	}

	return a.env()
}

func appendTail(tail []string, line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return tail
	}

	tail = append(tail, line)
	if len(tail) > outputTailLines {
		tail = tail[len(tail)-outputTailLines:]
	}

	return tail
}

func firstInt(output string) int64 {
	fields := strings.Fields(output)
	if len(fields) == 0 {
		return 0
	}

	value, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || value < 0 {
		return 0
	}

	return value
}

func baseName(remotePath string) string {
	trimmed := strings.TrimRight(remotePath, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}

	if trimmed == "" {
		return "root"
	}

	return trimmed
}

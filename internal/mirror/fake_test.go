package mirror_test

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/joe/pane-mirror/internal/mirror"
	"github.com/joe/pane-mirror/internal/remote"
)

var errNative = errors.New("sftp: handshake failed")

type listing struct {
	output string
	status int
	err    error
}

// fakeCommands scripts ListDirectory by remote path and RunRemote by a fixed result.
type fakeCommands struct {
	mu       sync.Mutex
	listings map[string]listing
	probe    listing
	listed   []string
	commands []string
}

func (f *fakeCommands) RunRemote(_ context.Context, _ remote.Endpoint, command string) (string, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.commands = append(f.commands, command)

	return f.probe.output, f.probe.status, f.probe.err
}

func (f *fakeCommands) ListDirectory(_ context.Context, _ remote.Endpoint, remotePath string) (string, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listed = append(f.listed, remotePath)

	result, ok := f.listings[remotePath]
	if !ok {
		return "ls: cannot access: No such file or directory", 2, nil
	}

	return result.output, result.status, result.err
}

func (f *fakeCommands) Listed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.listed...)
}

type fakeNative struct {
	entries  map[string][]mirror.Entry
	probeErr error
	probed   int
}

func (f *fakeNative) ReadDir(_ context.Context, _ remote.Endpoint, remotePath string) ([]mirror.Entry, error) {
	entries, ok := f.entries[remotePath]
	if !ok {
		return nil, errNative
	}

	return entries, nil
}

func (f *fakeNative) Probe(context.Context, remote.Endpoint) error {
	f.probed++

	return f.probeErr
}

type fakeSecrets map[string]string

func (f fakeSecrets) LookupPassword(host, username string, port int) (string, bool) {
	pw, ok := f[username+"@"+host+":"+strconv.Itoa(port)]

	return pw, ok
}

type recorded struct {
	endpoint remote.Endpoint
	basePath string
}

type fakeRecorder struct {
	records []recorded
	err     error
}

func (f *fakeRecorder) Record(endpoint remote.Endpoint, basePath string) error {
	f.records = append(f.records, recorded{endpoint: endpoint, basePath: basePath})

	return f.err
}

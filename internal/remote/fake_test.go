package remote_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/joe/pane-mirror/internal/remote"
)

var errSpawn = errors.New("spawn failed")

// fakeResponse scripts one subprocess.
type fakeResponse struct {
	output  io.Reader
	status  int
	waitErr error
	// onStart runs inside Start, while any askpass script still exists.
	onStart func(cmd remote.Command)
}

func respond(output string, status int) fakeResponse {
	return fakeResponse{output: strings.NewReader(output), status: status}
}

type fakeExecutor struct {
	mu        sync.Mutex
	calls     []remote.Command
	responses []fakeResponse
	startErr  error
}

func (f *fakeExecutor) Start(_ context.Context, cmd remote.Command) (remote.Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, cmd)

	if f.startErr != nil {
		return nil, f.startErr
	}

	resp := respond("", 0)
	if len(f.responses) > 0 {
		resp = f.responses[0]
		f.responses = f.responses[1:]
	}

	if resp.onStart != nil {
		resp.onStart(cmd)
	}

	return &fakeProcess{output: resp.output, status: resp.status, waitErr: resp.waitErr}, nil
}

func (f *fakeExecutor) Calls() []remote.Command {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]remote.Command(nil), f.calls...)
}

type fakeProcess struct {
	output  io.Reader
	status  int
	waitErr error
}

func (p *fakeProcess) Output() io.Reader {
	return p.output
}

func (p *fakeProcess) Wait() (int, error) {
	return p.status, p.waitErr
}

func envValue(env []string, key string) string {
	for _, kv := range env {
		if strings.HasPrefix(kv, key+"=") {
			return strings.TrimPrefix(kv, key+"=")
		}
	}

	return ""
}

// progressRecorder collects progress callbacks safely.
type progressRecorder struct {
	mu     sync.Mutex
	bytes  []int64
	speeds []float64
}

func (p *progressRecorder) record(bytes int64, speed float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.bytes = append(p.bytes, bytes)
	p.speeds = append(p.speeds, speed)
}

func (p *progressRecorder) Bytes() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]int64(nil), p.bytes...)
}

func (p *progressRecorder) Speeds() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]float64(nil), p.speeds...)
}

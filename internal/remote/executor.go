package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Command is one subprocess invocation.
type Command struct {
	Path string
	Args []string
	// Env entries are appended to the parent environment.
	Env []string
}

// Process is a started subprocess whose stdout and stderr are merged into Output.
type Process interface {
	// Output streams merged stdout/stderr until the process and its children exit.
	Output() io.Reader
	// Wait blocks until exit and returns the exit status. The error is non-nil only when the
	// process could not be waited on or was killed by a signal.
	Wait() (int, error)
}

// Executor starts subprocesses.
type Executor interface {
	Start(ctx context.Context, cmd Command) (Process, error)
}

// ExecExecutor starts real subprocesses through os/exec.
type ExecExecutor struct{}

// Start launches cmd with stdout and stderr sharing one pipe.
func (ExecExecutor) Start(ctx context.Context, cmd Command) (Process, error) {
	reader, writer, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create output pipe: %w", err)
	}

	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...) // #nosec G204 - binaries come from configuration
	c.Env = append(os.Environ(), cmd.Env...)
	c.Stdout = writer
	c.Stderr = writer

	err = c.Start()

	// The child holds its own copy of the write end.
	_ = writer.Close()

	if err != nil {
		_ = reader.Close()
		return nil, fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}

	return &execProcess{cmd: c, output: reader}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	output *os.File
}

func (p *execProcess) Output() io.Reader {
	return p.output
}

func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()

	_ = p.output.Close()

	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return exitErr.ExitCode(), nil
	}

	return -1, fmt.Errorf("wait for %s: %w", p.cmd.Path, err)
}

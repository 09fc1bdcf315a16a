package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Exported variables.
var (
	// ErrDeleteFailed marks a move whose copy succeeded but whose original could not be removed.
	ErrDeleteFailed = errors.New("delete failed after successful copy")
	// ErrNoMirrorRoot is returned when no sidecar is found within the upward walk bound.
	ErrNoMirrorRoot = errors.New("no mirror root found")
	// ErrMirrorRoot is returned when a mirror root itself, the remote "/", is named as a
	// transfer source or target.
	ErrMirrorRoot = errors.New("mirror root cannot be transferred")
	// ErrUnparsableListing is returned when a listing has rows but none could be read.
	ErrUnparsableListing = errors.New("listing rows could not be parsed")
)

// ConnectionError reports an unreachable host, an authentication failure or a timeout.
type ConnectionError struct {
	Host     string
	Port     int
	Username string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s@%s:%d: %v", e.Username, e.Host, e.Port, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ListingError reports a failed or unparsable remote directory listing. It is never fatal and
// the mirror directory it targeted is left untouched.
type ListingError struct {
	Host       string
	RemotePath string
	Status     int
	Output     string
	Err        error
}

func (e *ListingError) Error() string {
	msg := fmt.Sprintf("list %s:%s", e.Host, e.RemotePath)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (exit %d)", e.Status)
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + firstLine(out)
	}

	return msg
}

// FailedPath returns the remote path that could not be listed.
func (e *ListingError) FailedPath() string {
	return e.RemotePath
}

func (e *ListingError) Unwrap() error {
	return e.Err
}

// TransferError reports a non-zero exit on any transfer leg.
type TransferError struct {
	Leg    string
	Source string
	Dest   string
	Status int
	Output string
	Err    error
}

func (e *TransferError) Error() string {
	msg := fmt.Sprintf("%s %s -> %s", e.Leg, e.Source, e.Dest)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (exit %d)", e.Status)
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + firstLine(out)
	}

	return msg
}

// FailedPath returns the source of the failed leg.
func (e *TransferError) FailedPath() string {
	return e.Source
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// PathResolutionError reports a mirror path whose owning connection could not be determined.
type PathResolutionError struct {
	Path string
	Err  error
}

func (e *PathResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.Path, e.Err)
}

// FailedPath returns the local path that could not be resolved.
func (e *PathResolutionError) FailedPath() string {
	return e.Path
}

func (e *PathResolutionError) Unwrap() error {
	return e.Err
}

// ItemFailure is one failed item of a batch.
type ItemFailure struct {
	Name string
	Err  error
}

// PartialBatchError aggregates the per-item failures of one batch.
type PartialBatchError struct {
	Total    int
	Failures []ItemFailure
}

func (e *PartialBatchError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, failure := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", failure.Name, failure.Err))
	}

	return fmt.Sprintf("%d of %d items failed: %s", len(e.Failures), e.Total, strings.Join(parts, "; "))
}

// Unwrap exposes every item error to errors.Is and errors.As.
func (e *PartialBatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, failure := range e.Failures {
		errs = append(errs, failure.Err)
	}

	return errs
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}

	return s
}

// Package logging configures the zerolog loggers used by the CLI and the mirror/transfer core.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// TimeFormat is the console timestamp layout.
const TimeFormat = "15:04:05"

// Options controls logger construction.
type Options struct {
	// Verbose enables debug level output.
	Verbose bool
	// LogFile, when set, receives JSON log lines in addition to the console.
	LogFile string
	// Console is the human-readable destination (stderr when nil).
	Console io.Writer
}

// Logger owns the configured zerolog logger and any log file it writes to.
type Logger struct {
	zerolog.Logger

	file *os.File
}

// New builds a logger writing human-readable lines to the console and, optionally, JSON
// lines to a log file.
func New(opts Options) (*Logger, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	writers := []io.Writer{zerolog.ConsoleWriter{Out: console, TimeFormat: TimeFormat}}

	var file *os.File

	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) // #nosec G304 - user-chosen log path
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}

		file = f
		writers = append(writers, f)
	}

	zlog := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()

	if file != nil {
		zlog.Debug().Str("started", time.Now().Format(time.RFC3339)).Msg("log file opened")
	}

	return &Logger{Logger: zlog, file: file}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// Component returns a child logger tagged with a component name.
func (l *Logger) Component(name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}

	err := l.file.Close()
	l.file = nil

	if err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}

	return nil
}

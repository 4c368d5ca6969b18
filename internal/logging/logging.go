// Package logging builds the zerolog logger shared by every command.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Options selects the logger's output.
type Options struct {
	Verbose    bool   // debug level and caller info
	Structured bool   // JSON instead of console output
	File       string // also append to this file when set
}

// New creates a zerolog logger writing to stderr and, optionally, a file.
// The returned closer releases the file and is never nil.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	return newLogger(os.Stderr, opts)
}

func newLogger(out io.Writer, opts Options) (zerolog.Logger, io.Closer, error) {
	var console io.Writer = out
	if !opts.Structured {
		console = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	writers := []io.Writer{console}
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("create log directory: %w", err)
		}
		logFile, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, logFile)
		closer = logFile
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp()
	if opts.Verbose {
		ctx = ctx.Caller()
	}
	return ctx.Logger(), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

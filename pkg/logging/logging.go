// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

// Package logging sets up the rollout logger: human-readable output on the
// console, duplicated into an append-only log file under the invoking
// user's home directory so every run leaves a reviewable trail.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	logDirName  = "orchestrate"
	logFileName = "orchestrate.log"
)

// Options configures Open.
type Options struct {
	// Verbose lowers the level threshold to debug.
	Verbose bool

	// Dir overrides the log directory. Empty means $HOME/orchestrate.
	Dir string

	// ConsoleOut overrides the console stream. Empty means stderr.
	ConsoleOut io.Writer
}

// Open creates the logger. Everything written to the console is duplicated
// into the log file, which is appended across runs with a separator line per
// run. The returned closer owns the file handle.
func Open(opts Options) (zerolog.Logger, io.Closer, error) {
	console := opts.ConsoleOut
	if console == nil {
		console = os.Stderr
	}

	dir := opts.Dir
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return zerolog.Nop(), nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create log directory: %w", err)
	}

	path := filepath.Join(dir, logFileName)
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}

	if err := writeRunSeparator(file); err != nil {
		file.Close()
		return zerolog.Nop(), nil, err
	}

	writer := zerolog.ConsoleWriter{
		Out:        io.MultiWriter(console, file),
		NoColor:    true,
		TimeFormat: time.RFC3339,
		FormatLevel: func(i any) string {
			// Fixed LEVEL: prefixes; errors read "ERROR: ...".
			return strings.ToUpper(fmt.Sprintf("%s:", i))
		},
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return logger, file, nil
}

// DefaultDir returns the per-user log directory, $HOME/orchestrate.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, logDirName), nil
}

func writeRunSeparator(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "----- run %s -----\n", time.Now().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("write run separator: %w", err)
	}
	return nil
}

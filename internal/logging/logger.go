// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options configures the diagnostics logger.
type Options struct {
	// Verbose adds a human-readable console writer on stderr at debug level.
	Verbose bool
	// File receives JSON log lines. Empty disables the file sink.
	File string
}

// Init replaces the global zerolog logger. The returned closer releases the
// log file and is safe to call when no file was opened.
func Init(opts Options) (io.Closer, error) {
	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return closer, err
		}
		writers = append(writers, f)
		closer = f
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	if len(writers) == 0 {
		log.Logger = zerolog.Nop()
		return closer, nil
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Logger()
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

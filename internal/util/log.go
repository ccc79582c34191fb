package util

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// NewLogger builds a zerolog logger at the requested level writing to stdout.
func NewLogger(level string) zerolog.Logger {
	return newLogger(level, os.Stdout)
}

// NewFileLogger tees log output to stdout and an append-only log file. A file
// open failure falls back to stdout only.
func NewFileLogger(level, path string) (zerolog.Logger, func() error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return newLogger(level, os.Stdout), func() error { return nil }
	}
	return newLogger(level, io.MultiWriter(os.Stdout, file)), file.Close
}

func newLogger(level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}

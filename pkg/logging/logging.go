// Package logging configures the shared slog logger
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// New builds a text logger writing to w. Debug lowers the level and adds
// file:line to every record.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	return slog.New(h)
}

// Setup installs the default logger. An empty path logs to stderr; otherwise
// records are appended to the file, which the returned func closes.
func Setup(path string, debug bool) (*slog.Logger, func() error, error) {
	var w io.Writer = os.Stderr
	closer := func() error { return nil }

	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		closer = f.Close
	}

	logger := New(w, debug)
	slog.SetDefault(logger)
	return logger, closer, nil
}

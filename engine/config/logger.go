package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// ConfigureLogger applies c to the standard logrus logger. With a file set the output goes to stderr and the file.
//
// Parameters:
//   - c: the logger configuration
//
// Returns:
//   - func() error: closes the log file, a no-op without one
//   - error: error if the level is invalid or the file could not be opened
func ConfigureLogger(c Logger) (func() error, error) {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var formatter log.Formatter
	switch c.Format {
	case "", "text":
		formatter = &log.TextFormatter{FullTimestamp: true}
	case "json":
		formatter = &log.JSONFormatter{}
	default:
		return nil, fmt.Errorf("unknown log format %q", c.Format)
	}

	closer := func() error { return nil }
	out := io.Writer(os.Stderr)
	if c.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, f)
		closer = f.Close
	}

	log.SetLevel(level)
	log.SetFormatter(formatter)
	log.SetOutput(out)
	return closer, nil
}

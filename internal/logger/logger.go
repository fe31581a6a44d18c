package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

func levelFromString(s string) (l slog.Level, ok bool) {
	switch strings.ToLower(s) {
	case "debug", "dbg":
		return slog.LevelDebug, true
	case "info", "inf", "":
		return slog.LevelInfo, true
	case "warn", "wrn":
		return slog.LevelWarn, true
	case "error", "err":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// InitLogger installs a text slog handler as the default logger. An empty
// path logs to stderr. The returned closer releases the log file.
func InitLogger(path, level string) (io.Closer, error) {
	loglevel, ok := levelFromString(level)
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	var out io.WriteCloser = nopCloser{os.Stderr}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
	}

	// slog orders records as time, level, msg, then attributes.
	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: loglevel})
	slog.SetDefault(slog.New(handler))
	return out, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

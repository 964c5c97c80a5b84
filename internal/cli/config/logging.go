package config

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	intconfig "github.com/leapstack-labs/leapmacro/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger builds the CLI logger. It writes text records to a rotated
// log.file when one is configured and to stderr otherwise. Verbose forces
// debug level. The returned closer releases the log file.
func NewLogger(cfg *Config, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := intconfig.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	w := stderr
	var closer io.Closer = nopCloser{}
	source := false
	if cfg.Log.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		}
		w, closer, source = lj, lj, true
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		AddSource: source,
		Level:     level,
	})
	return slog.New(handler), closer, nil
}

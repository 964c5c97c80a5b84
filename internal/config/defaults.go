// Package config holds the configuration defaults shared by the CLI and
// other hosts of the transform pipeline.
package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapmacro/pkg/diagnostic"
)

// Config file names, in lookup order.
const (
	ConfigFileName    = "leapmacro.yaml"
	ConfigFileNameAlt = "leapmacro.yml"
)

// Default configuration values.
const (
	DefaultDialect      = "js"
	DefaultMacrosDir    = "macros"
	DefaultOutDir       = "dist"
	DefaultCachePath    = ".leapmacro/cache.db"
	DefaultColor        = ColorAuto
	DefaultContextLines = diagnostic.DefaultContextLines
	DefaultWorkers      = 0 // one per CPU
	DefaultLogLevel     = "warn"
	DefaultLogMaxSizeMB = 10
	DefaultLogBackups   = 3
	DefaultLogMaxAge    = 28
)

// Colour modes for diagnostics.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// LogConfig configures the log file. Logs go to stderr when File is empty.
type LogConfig struct {
	File       string `koanf:"file" yaml:"file,omitempty" json:"file,omitempty"`
	Level      string `koanf:"level" yaml:"level" json:"level"`
	MaxSizeMB  int    `koanf:"max_size_mb" yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups" yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days" yaml:"max_age_days" json:"max_age_days"`
	Compress   bool   `koanf:"compress" yaml:"compress" json:"compress"`
}

// ApplyDefaults fills unset fields.
func (c *LogConfig) ApplyDefaults() {
	if c.Level == "" {
		c.Level = DefaultLogLevel
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = DefaultLogBackups
	}
	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = DefaultLogMaxAge
	}
}

// ParseLevel parses a level name or a numeric slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n), nil
	}
	return 0, fmt.Errorf("unknown log level %q", level)
}

// ValidColor reports whether mode is a known colour mode.
func ValidColor(mode string) bool {
	switch mode {
	case ColorAuto, ColorAlways, ColorNever:
		return true
	}
	return false
}

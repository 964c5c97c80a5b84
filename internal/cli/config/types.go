// Package config loads the leapmacro CLI configuration.
//
// Values are layered with koanf: defaults, then leapmacro.yaml, then
// LEAPMACRO_* environment variables, then explicitly set flags.
package config

import (
	intconfig "github.com/leapstack-labs/leapmacro/internal/config"
)

// LogConfig is an alias for the shared log configuration.
type LogConfig = intconfig.LogConfig

// Config holds all CLI configuration options.
type Config struct {
	Dialect        string    `koanf:"dialect" yaml:"dialect" json:"dialect"`
	MacrosDir      string    `koanf:"macros_dir" yaml:"macros_dir" json:"macros_dir"`
	OutDir         string    `koanf:"out_dir" yaml:"out_dir" json:"out_dir"`
	Cache          string    `koanf:"cache" yaml:"cache" json:"cache"` // build cache database, "" disables
	SourceMaps     bool      `koanf:"source_maps" yaml:"source_maps" json:"source_maps"`
	SourcesContent bool      `koanf:"sources_content" yaml:"sources_content" json:"sources_content"`
	ContextLines   int       `koanf:"context_lines" yaml:"context_lines" json:"context_lines"`
	Color          string    `koanf:"color" yaml:"color" json:"color"`
	Workers        int       `koanf:"workers" yaml:"workers" json:"workers"`
	Verify         bool      `koanf:"verify" yaml:"verify" json:"verify"`
	Verbose        bool      `koanf:"verbose" yaml:"verbose" json:"verbose"`
	OutputFormat   string    `koanf:"output" yaml:"output" json:"output"`
	Log            LogConfig `koanf:"log" yaml:"log" json:"log"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-" yaml:"-" json:"-"`
}

// Default configuration values.
const (
	DefaultOutput = "auto" // TTY=text, otherwise markdown
)

// Default returns the configuration used when nothing is loaded.
func Default() *Config {
	cfg := &Config{
		Dialect:      intconfig.DefaultDialect,
		MacrosDir:    intconfig.DefaultMacrosDir,
		OutDir:       intconfig.DefaultOutDir,
		Cache:        intconfig.DefaultCachePath,
		SourceMaps:   true,
		ContextLines: intconfig.DefaultContextLines,
		Color:        intconfig.DefaultColor,
		Workers:      intconfig.DefaultWorkers,
		OutputFormat: DefaultOutput,
	}
	cfg.Log.ApplyDefaults()
	return cfg
}

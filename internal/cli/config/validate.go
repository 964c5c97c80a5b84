package config

import (
	"fmt"

	intconfig "github.com/leapstack-labs/leapmacro/internal/config"
	"github.com/leapstack-labs/leapmacro/pkg/dialect"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	// Dialect must be registered
	if _, err := dialect.MustGet(c.Dialect); err != nil {
		return err
	}
	if c.ContextLines < 0 {
		return fmt.Errorf("context_lines must not be negative, got %d", c.ContextLines)
	}
	// Zero workers means GOMAXPROCS
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if !intconfig.ValidColor(c.Color) {
		return fmt.Errorf("color must be auto, always or never, got %q", c.Color)
	}
	switch c.OutputFormat {
	case "auto", "text", "markdown", "json":
	default:
		return fmt.Errorf("output must be auto, text, markdown or json, got %q", c.OutputFormat)
	}
	if _, err := intconfig.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

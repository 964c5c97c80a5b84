package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapmacro/internal/cli/config"
	"github.com/leapstack-labs/leapmacro/internal/cli/output"
)

// NewConfigCommand creates the config command.
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Print the configuration after defaults, leapmacro.yaml, LEAPMACRO_*
environment variables, and flags have been applied, in that order.

The output is valid leapmacro.yaml.`,
		Example: `  leapmacro config
  LEAPMACRO_WORKERS=2 leapmacro config -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			r := cmdCtx.Renderer

			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(cmdCtx.Cfg)
			}

			// Text and markdown both print YAML
			data, err := yaml.Marshal(cmdCtx.Cfg)
			if err != nil {
				return fmt.Errorf("failed to encode configuration: %w", err)
			}

			// Comment lines keep the output loadable as leapmacro.yaml
			if used := config.GetConfigFileUsed(); used != "" {
				r.Printf("# config file: %s\n", used)
			} else {
				r.Printf("# no config file found, using defaults\n")
			}
			if cmdCtx.Cfg.ProjectRoot != "" {
				r.Printf("# project root: %s\n", cmdCtx.Cfg.ProjectRoot)
			}
			r.Printf("%s", data)
			return nil
		},
	}
}

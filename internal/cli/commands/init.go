package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmacro/internal/cli/output"
	intconfig "github.com/leapstack-labs/leapmacro/internal/config"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new leapmacro project",
		Long: `Initialize a new leapmacro project with a configuration file, a macros
directory and a sample source file.

This creates:
  - leapmacro.yaml configuration file
  - macros/ directory for Starlark macros
  - src/ directory with a file that calls a macro

Use --example to create a TSX project whose macros load shared modules,
emit CSS assets, and return regular expressions and raw code.`,
		Example: `  # Initialize in current directory
  leapmacro init

  # Initialize a new directory with the full example
  leapmacro init my-app --example

  # Force overwrite existing config
  leapmacro init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			template := "minimal"
			if example {
				template = "example"
			}
			return runInit(NewCommandContext(cmd).Renderer, dir, template, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	cmd.Flags().BoolVar(&example, "example", false, "Create the full example project")

	return cmd
}

func runInit(r *output.Renderer, dir, template string, force bool) error {
	// Create directory if specified and doesn't exist
	if dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// Check if config already exists
	configPath := filepath.Join(dir, intconfig.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", intconfig.ConfigFileName)
	}

	// Copy template, keeping existing sources unless forced
	if err := copyTemplate(template, dir, force); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	files, err := listTemplateFiles(template)
	if err != nil {
		return err
	}
	// List created files by category
	groups := groupTemplateFiles(files)
	for _, group := range []struct{ key, title string }{
		{"config", "Configuration"},
		{"macros", "Macros"},
		{"src", "Sources"},
	} {
		if len(groups[group.key]) == 0 {
			continue
		}
		r.Header(2, group.title)
		for _, f := range groups[group.key] {
			r.StatusLine(f, "success", "")
		}
		r.Println("")
	}

	r.Success("leapmacro project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Write macros in macros/*.star")
	r.Println("  2. Import them with: import { name } from \"./module\" with { type: \"macro\" };")
	r.Println("  3. Run 'leapmacro macros' to list what is available")
	r.Println("  4. Run 'leapmacro transform src/*' to build into dist/")

	return nil
}

// Package cli provides the command-line interface for leapmacro.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmacro/internal/cli/commands"
	"github.com/leapstack-labs/leapmacro/internal/cli/config"
	intconfig "github.com/leapstack-labs/leapmacro/internal/config"
	"github.com/leapstack-labs/leapmacro/pkg/dialect"
)

var (
	cfgFile   string
	logCloser io.Closer
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "leapmacro",
		Short: "leapmacro - compile-time macros for JavaScript and TypeScript",
		Long: `leapmacro expands compile-time macros in JavaScript, JSX, TypeScript and TSX.

A macro is a function in a Starlark module under the macros directory,
imported with the "macro" import attribute:

  import { css } from "./styles" with { type: "macro" };

Each call's arguments are evaluated statically, the macro runs at build
time, and its result replaces the call in the generated code. A source
map relates the output to the original file.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			// Logger is shared with every subcommand through the context
			logger, closer, err := config.NewLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			logCloser = closer

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, config.LoggerKey(), logger))

			if used := config.GetConfigFileUsed(); used != "" {
				logger.Debug("using config file", "path", used)
			}
			logger.Debug("configuration loaded",
				"project_root", cfg.ProjectRoot,
				"dialect", cfg.Dialect,
				"macros_dir", cfg.MacrosDir,
				"workers", cfg.Workers)

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Compile-time macros for JavaScript and TypeScript
`)

	// Global persistent flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./leapmacro.yaml)")
	pf.String("project-dir", "", "Project root that relative paths resolve against")
	pf.String("dialect", "", "Dialect for files whose extension selects none (js|jsx|ts|tsx)")
	pf.String("macros-dir", "", "Path to macros directory")
	pf.String("out-dir", "", "Directory transformed files are written to")
	pf.String("cache", "", "Build cache database (empty string disables)")
	pf.Bool("source-maps", true, "Write a source map next to each output file")
	pf.Bool("sources-content", false, "Embed original sources in source maps")
	pf.Int("context-lines", intconfig.DefaultContextLines, "Source lines shown around a diagnostic")
	pf.String("color", "", "Colour diagnostics (auto|always|never)")
	pf.IntP("workers", "j", 0, "Files transformed in parallel (0 = number of CPUs)")
	pf.Bool("verify", false, "Validate generated code with esbuild")
	pf.BoolP("verbose", "v", false, "Verbose output")
	pf.StringP("output", "o", "", "Output format (auto|text|markdown|json)")
	pf.String("log-file", "", "Write logs to a rotated file instead of stderr")
	pf.String("log-level", "", "Log level (debug|info|warn|error)")

	// Register completion for enumerated flags
	_ = rootCmd.RegisterFlagCompletionFunc("output", fixedCompletion("auto", "text", "markdown", "json"))
	_ = rootCmd.RegisterFlagCompletionFunc("color", fixedCompletion(intconfig.ColorAuto, intconfig.ColorAlways, intconfig.ColorNever))
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", fixedCompletion("debug", "info", "warn", "error"))
	_ = rootCmd.RegisterFlagCompletionFunc("dialect", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return dialect.List(), cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewTransformCommand())
	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(commands.NewMacrosCommand())
	rootCmd.AddCommand(commands.NewDialectsCommand())
	rootCmd.AddCommand(commands.NewReplCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewCacheCommand())
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(commands.NewLSPCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

func fixedCompletion(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	err := rootCmd.Execute()
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for leapmacro.

To load completions:

Bash:
  $ source <(leapmacro completion bash)
  
  # To load completions for each session, execute once:
  # Linux:
  $ leapmacro completion bash > /etc/bash_completion.d/leapmacro
  # macOS:
  $ leapmacro completion bash > $(brew --prefix)/etc/bash_completion.d/leapmacro

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc
  
  # To load completions for each session, execute once:
  $ leapmacro completion zsh > "${fpath[1]}/_leapmacro"
  
  # You will need to start a new shell for this setup to take effect.

Fish:
  $ leapmacro completion fish | source
  
  # To load completions for each session, execute once:
  $ leapmacro completion fish > ~/.config/fish/completions/leapmacro.fish

PowerShell:
  PS> leapmacro completion powershell | Out-String | Invoke-Expression
  
  # To load completions for every new session, run:
  PS> leapmacro completion powershell > leapmacro.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}
	return cmd
}

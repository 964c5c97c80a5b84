package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmacro/internal/lsp"
	"github.com/leapstack-labs/leapmacro/pkg/dialect"
)

// NewLSPCommand creates the lsp command.
func NewLSPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the LSP server for editor integration.

The server communicates over stdin/stdout using JSON-RPC. It reports
macro errors as diagnostics and offers completion, hover and go to
definition for macro imports. Saving a file under the macros directory
reloads every macro module.

Logs go to stderr or the configured log file, never to stdout.`,
		Example: `  # Start the server (usually launched by an editor)
  leapmacro lsp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLSP(cmd)
		},
	}

	return cmd
}

func runLSP(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	opts := []lsp.Option{
		lsp.WithLogger(cmdCtx.Logger),
		lsp.WithMacrosDir(cmdCtx.Cfg.MacrosDir),
		lsp.WithVersion(cmd.Root().Version),
	}
	// Files with an unknown extension fall back to the configured dialect
	if d, ok := dialect.Get(cmdCtx.Cfg.Dialect); ok {
		opts = append(opts, lsp.WithDialect(d))
	}

	// stdout carries the protocol, so nothing else may write to it
	server := lsp.NewServer(cmd.InOrStdin(), cmd.OutOrStdout(), opts...)
	return server.Run(cmd.Context())
}

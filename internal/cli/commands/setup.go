package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmacro/internal/cli/config"
	"github.com/leapstack-labs/leapmacro/internal/cli/output"
	"github.com/leapstack-labs/leapmacro/internal/macro"
	"github.com/leapstack-labs/leapmacro/internal/state"
	"github.com/leapstack-labs/leapmacro/pkg/dialect"
	"github.com/leapstack-labs/leapmacro/pkg/transform"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext for cmd.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// getConfig returns the loaded configuration, or defaults when commands run
// without the root command.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// StartHost runs a macro host for the configured macros directory. The
// returned stop function closes it and waits for it to finish.
func (c *CommandContext) StartHost(ctx context.Context) (*macro.Host, func()) {
	h := macro.NewHost(c.Cfg.MacrosDir, macro.WithLogger(c.Logger))
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := h.Run(context.WithoutCancel(ctx)); err != nil {
			c.Logger.Warn("macro host stopped", "error", err)
		}
	}()
	return h, func() {
		h.Close()
		<-done
	}
}

// OpenCache opens the configured build cache. It returns a nil store when
// caching is disabled.
func (c *CommandContext) OpenCache(ctx context.Context) (*state.Store, error) {
	if c.Cfg.Cache == "" {
		return nil, nil
	}
	store := state.NewStore(c.Logger)
	if err := store.Open(ctx, c.Cfg.Cache); err != nil {
		return nil, fmt.Errorf("failed to open build cache: %w", err)
	}
	return store, nil
}

// TransformOptions returns the pipeline options derived from configuration.
// Diagnostics are coloured for diagOut.
func (c *CommandContext) TransformOptions(diagOut io.Writer) []transform.Option {
	return []transform.Option{
		transform.WithLogger(c.Logger),
		transform.WithContextLines(c.Cfg.ContextLines),
		transform.WithSourcesContent(c.Cfg.SourcesContent),
		transform.WithColor(output.UseColor(c.Cfg.Color, diagOut)),
	}
}

// DialectFor picks the dialect for a file from its extension, falling back
// to the configured dialect.
func (c *CommandContext) DialectFor(path string) *dialect.Dialect {
	if d, ok := dialect.FromFilename(path); ok {
		return d
	}
	if d, ok := dialect.Get(c.Cfg.Dialect); ok {
		return d
	}
	return dialect.Default()
}

// displayName returns path relative to the working directory when it lies
// below it, and the cleaned path otherwise.
func displayName(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return filepath.ToSlash(filepath.Clean(path))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(filepath.Clean(path))
	}
	rel, err := filepath.Rel(cwd, abs)
	if err != nil || !filepath.IsLocal(rel) {
		return filepath.ToSlash(filepath.Clean(path))
	}
	return filepath.ToSlash(rel)
}

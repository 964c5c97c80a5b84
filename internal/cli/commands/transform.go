package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmacro/internal/cli/output"
)

// transformFlags holds flags for the transform command.
type transformFlags struct {
	Watch        bool
	SkipUnmarked bool
	NoCache      bool
}

// NewTransformCommand creates the transform command.
func NewTransformCommand() *cobra.Command {
	opts := &transformFlags{}
	cmd := &cobra.Command{
		Use:   "transform <files...>",
		Short: "Expand macros and write transformed files",
		Long: `Transform parses each file, expands its macro calls with the Starlark
macros in the macros directory, and writes the result under the output
directory together with a source map and any emitted assets.

Files are transformed concurrently. A file that fails is reported with a
diagnostic and does not stop the others. Output for files whose source,
dialect and macros are unchanged is served from the build cache.`,
		Example: `  # Transform two files into ./dist
  leapmacro transform src/app.js src/theme.ts

  # Check the output with esbuild and rebuild on change
  leapmacro transform --verify --watch src/*.tsx

  # Copy files without macro imports through untouched
  leapmacro transform --skip-unmarked src/*.js

  # Rebuild everything, ignoring cached output
  leapmacro transform --no-cache src/app.js`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)
			if opts.Watch {
				return cmdCtx.Watch(cmd.Context(), args, opts)
			}
			_, err := cmdCtx.runTransform(cmd.Context(), args, opts)
			return err
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Rebuild when inputs or macros change")
	cmd.Flags().BoolVar(&opts.SkipUnmarked, "skip-unmarked", false, "Pass through files without a macro import")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Do not read or write the build cache")

	return cmd
}

// buildOptions maps the configuration and flags onto one build.
func (c *CommandContext) buildOptions(opts *transformFlags) BuildOptions {
	return BuildOptions{
		Write:        true,
		OutDir:       c.Cfg.OutDir,
		SourceMaps:   c.Cfg.SourceMaps,
		Verify:       c.Cfg.Verify,
		SkipUnmarked: opts.SkipUnmarked,
	}
}

func (c *CommandContext) runTransform(ctx context.Context, files []string, opts *transformFlags) ([]*FileResult, error) {
	host, stop := c.StartHost(ctx)
	defer stop()

	// A disabled cache leaves store nil and every file is rebuilt
	bopts := c.buildOptions(opts)
	if !opts.NoCache {
		store, err := c.OpenCache(ctx)
		if err != nil {
			return nil, err
		}
		if store != nil {
			defer func() { _ = store.Close() }()
			bopts.Cache = store
		}
	}

	results, err := c.Build(ctx, host, files, bopts)
	if err != nil {
		return results, err
	}
	if err := c.renderTransform(results); err != nil {
		return results, err
	}
	// Any failed file makes the command fail after everything is reported
	_, _, _, err = summarize(results)
	return results, err
}

func (c *CommandContext) renderTransform(results []*FileResult) error {
	r := c.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(results)
	}

	for _, res := range results {
		switch res.Status {
		case StatusFailed:
			_, _ = fmt.Fprint(r.ErrOut(), diagnosticText(res.Err()))
			r.StatusLine(res.Path, "failed", "")
		case StatusSkipped:
			r.StatusLine(res.Path, "skipped", "no macro import")
		default:
			detail := "→ " + displayName(res.Output)
			if res.Assets > 0 {
				detail += fmt.Sprintf(" (+%d assets)", res.Assets)
			}
			if res.Cached {
				detail += " (cached)"
			}
			r.StatusLine(res.Path, "success", detail)
		}
	}

	// Summary line
	ok, skipped, failed, _ := summarize(results)
	counts := countResults(results)
	r.Muted(fmt.Sprintf("%d transformed (%d cached), %d skipped, %d failed", ok, counts.Cached, skipped, failed))
	return nil
}

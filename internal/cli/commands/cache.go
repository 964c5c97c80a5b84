package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmacro/internal/cli/output"
	"github.com/leapstack-labs/leapmacro/internal/state"
)

var errCacheDisabled = errors.New("build cache is disabled (cache is empty in the configuration)")

// CacheReport is the JSON form of the cache command.
type CacheReport struct {
	Path   string         `json:"path"`
	Stats  state.Stats    `json:"stats"`
	Builds []*state.Build `json:"builds"`
}

// NewCacheCommand creates the cache command.
func NewCacheCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Show the build cache and recent builds",
		Long: `Show what the build cache holds and the most recent transform builds.

Transform stores the output of every successful file keyed by its source,
dialect and the contents of the macros directory. Changing any macro module
invalidates every entry.`,
		Example: `  leapmacro cache
  leapmacro cache --limit 20 -o json
  leapmacro cache clear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			store, err := cmdCtx.OpenCache(cmd.Context())
			if err != nil {
				return err
			}
			if store == nil {
				return errCacheDisabled
			}
			defer func() { _ = store.Close() }()

			st, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			builds, err := store.RecentBuilds(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return renderCache(cmdCtx.Renderer, &CacheReport{Path: displayName(store.Path()), Stats: st, Builds: builds})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of recent builds to show")
	cmd.AddCommand(newCacheClearCommand())
	return cmd
}

func newCacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "clear",
		Short:   "Remove all cached output and build records",
		Long:    `Remove every cached file and build record. The next transform rebuilds every file.`,
		Example: `  leapmacro cache clear`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			store, err := cmdCtx.OpenCache(cmd.Context())
			if err != nil {
				return err
			}
			if store == nil {
				return errCacheDisabled
			}
			defer func() { _ = store.Close() }()

			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			cmdCtx.Logger.Info("cache cleared", "path", store.Path())
			cmdCtx.Renderer.Success("Cleared " + displayName(store.Path()))
			return nil
		},
	}
}

func renderCache(r *output.Renderer, report *CacheReport) error {
	if r.EffectiveMode() == output.ModeJSON {
		// Always emit an array so consumers need no null check
		if report.Builds == nil {
			report.Builds = []*state.Build{}
		}
		return r.JSON(report)
	}

	// Store summary
	r.Header(1, "Build cache")
	r.Println(output.FormatKeyValue("Path", report.Path))
	r.Println(output.FormatKeyValue("Entries", fmt.Sprint(report.Stats.Entries)))
	r.Println(output.FormatKeyValue("Assets", fmt.Sprint(report.Stats.Assets)))
	r.Println(output.FormatKeyValue("Size", formatBytes(report.Stats.Bytes)))
	r.Println()

	if len(report.Builds) == 0 {
		r.Muted("no builds recorded")
		return nil
	}

	// Newest build first
	r.Header(2, fmt.Sprintf("Recent builds (%d of %d)", len(report.Builds), report.Stats.Builds))
	rows := make([][]string, 0, len(report.Builds))
	for _, b := range report.Builds {
		rows = append(rows, []string{
			b.StartedAt.Local().Format(time.DateTime),
			b.Status,
			fmt.Sprint(b.Files),
			fmt.Sprint(b.OK),
			fmt.Sprint(b.Cached),
			fmt.Sprint(b.Skipped),
			fmt.Sprint(b.Failed),
			formatDuration(b),
		})
	}
	r.Table([]string{"Started", "Status", "Files", "OK", "Cached", "Skipped", "Failed", "Duration"}, rows)
	return nil
}

// formatBytes renders n with a binary unit, e.g. "1.5 KiB".
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatDuration(b *state.Build) string {
	if b.FinishedAt == nil {
		return "-" // still running or interrupted
	}
	return b.Duration().Round(time.Millisecond).String()
}

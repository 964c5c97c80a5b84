package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmacro/internal/cli/output"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	var skipUnmarked bool
	cmd := &cobra.Command{
		Use:   "check <files...>",
		Short: "Transform files without writing them and validate the output",
		Long: `Check runs the full pipeline on each file, including macro expansion, and
validates every result with esbuild. Nothing is written to disk.

Output adapts to environment:
  - Terminal: Styled table
  - Piped/Scripted: Markdown table

Use --output to override: auto, text, markdown, json`,
		Example: `  # Check every source file
  leapmacro check src/*.ts src/*.tsx

  # Machine readable report
  leapmacro check -o json src/app.js`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)
			host, stop := cmdCtx.StartHost(cmd.Context())
			defer stop()

			results, err := cmdCtx.Build(cmd.Context(), host, args, BuildOptions{
				Verify:       true,
				SkipUnmarked: skipUnmarked,
			})
			if err != nil {
				return err
			}
			if err := renderCheck(cmdCtx.Renderer, results); err != nil {
				return err
			}
			_, _, _, err = summarize(results)
			return err
		},
	}

	cmd.Flags().BoolVar(&skipUnmarked, "skip-unmarked", false, "Only validate files without a macro import")

	return cmd
}

func renderCheck(r *output.Renderer, results []*FileResult) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(results)
	}

	// Full diagnostics go to stderr; the table keeps the first line
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		detail := ""
		switch res.Status {
		case StatusFailed:
			detail = firstLine(res.Error)
			_, _ = fmt.Fprint(r.ErrOut(), diagnosticText(res.Err()))
		case StatusOK:
			if res.Assets > 0 {
				detail = fmt.Sprintf("%d assets", res.Assets)
			}
		}
		rows = append(rows, []string{res.Path, res.Dialect, res.Status, detail})
	}

	r.Header(1, fmt.Sprintf("Checked %d files", len(results)))
	r.Table([]string{"File", "Dialect", "Status", "Detail"}, rows)

	// Failures are reported through the returned error
	ok, skipped, failed, _ := summarize(results)
	if failed == 0 {
		r.Success(fmt.Sprintf("%d ok, %d skipped", ok, skipped))
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

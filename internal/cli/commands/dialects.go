package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmacro/internal/cli/output"
	"github.com/leapstack-labs/leapmacro/pkg/dialect"
)

// DialectInfo describes a registered dialect.
type DialectInfo struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
	TypeScript bool     `json:"typescript"`
	JSX        bool     `json:"jsx"`
	Loader     string   `json:"loader"`
	Default    bool     `json:"default"`
}

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List the supported source dialects",
		Long: `List the registered source dialects with the file extensions that select
them. Files with other extensions use the configured dialect.`,
		Example: `  leapmacro dialects
  leapmacro dialects -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := NewCommandContext(cmd).Renderer
			infos := listDialects()

			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(infos)
			}

			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				name := info.Name
				if info.Default {
					name += " (default)"
				}
				rows = append(rows, []string{
					name,
					strings.Join(info.Extensions, " "),
					yesNo(info.TypeScript),
					yesNo(info.JSX),
					info.Loader,
				})
			}
			r.Table([]string{"Name", "Extensions", "TypeScript", "JSX", "Loader"}, rows)
			return nil
		},
	}
}

// listDialects returns the registered dialects in registration order.
func listDialects() []DialectInfo {
	def := dialect.Default()
	names := dialect.List()
	infos := make([]DialectInfo, 0, len(names))
	for _, name := range names {
		d, ok := dialect.Get(name)
		if !ok {
			continue
		}
		infos = append(infos, DialectInfo{
			Name:       d.Name,
			Extensions: d.Extensions(),
			TypeScript: d.TypeScript(),
			JSX:        d.JSX(),
			Loader:     d.Loader(),
			Default:    d == def,
		})
	}
	return infos
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmacro/internal/cli/output"
	"github.com/leapstack-labs/leapmacro/internal/macro"
)

// MacroInfo describes one exported macro function.
type MacroInfo struct {
	Module    string `json:"module"`
	Function  string `json:"function"`
	Signature string `json:"signature"`
	Doc       string `json:"doc,omitempty"`
	File      string `json:"file"`
	Line      int    `json:"line"`
}

// NewMacrosCommand creates the macros command.
func NewMacrosCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "macros",
		Short: "List the macros available to source files",
		Long: `List the public functions of every Starlark module in the macros directory.
A source file imports them by module path, for example:

  import { css } from "./styles" with { type: "macro" };

The modules are parsed, not executed. A cycle between load() statements
is reported as a warning, since every module in it fails to load.`,
		Example: `  leapmacro macros
  leapmacro macros --macros-dir tools/macros -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			infos, err := listMacros(cmdCtx.Cfg.MacrosDir)
			if err != nil {
				return err
			}
			if err := renderMacros(cmdCtx.Renderer, cmdCtx.Cfg.MacrosDir, infos); err != nil {
				return err
			}
			return warnLoadCycle(cmdCtx, cmdCtx.Cfg.MacrosDir)
		},
	}
}

// listMacros parses every module below dir and collects its public
// functions. Nothing is executed.
func listMacros(dir string) ([]MacroInfo, error) {
	loader := macro.NewLoader(dir)
	names, err := loader.Scan()
	if err != nil {
		return nil, err
	}

	var infos []MacroInfo
	for _, name := range names {
		path := loader.Path(name)
		content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from scanning the macros directory
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		// A syntax error in one module fails the listing
		mod, err := macro.ParseStarlarkFile(path, content)
		if err != nil {
			return nil, err
		}
		for _, fn := range mod.Functions {
			infos = append(infos, MacroInfo{
				Module:    name,
				Function:  fn.Name,
				Signature: fn.Signature(),
				Doc:       fn.Summary(),
				File:      displayName(path),
				Line:      fn.Line,
			})
		}
	}
	return infos, nil
}

// warnLoadCycle reports a load() cycle between macro modules on stderr.
func warnLoadCycle(cmdCtx *CommandContext, dir string) error {
	g, err := macro.NewLoader(dir).Graph()
	if err != nil {
		return err
	}
	cycle := g.FindCycle()
	if cycle == nil {
		return nil
	}

	// A cycle is a warning: the listing above is still accurate
	cmdCtx.Logger.Warn("macro load cycle", "modules", cycle)
	_, _ = fmt.Fprintf(cmdCtx.Renderer.ErrOut(), "warning: load cycle between macro modules: %s\n", strings.Join(cycle, " -> "))
	return nil
}

func renderMacros(r *output.Renderer, dir string, infos []MacroInfo) error {
	if r.EffectiveMode() == output.ModeJSON {
		if infos == nil {
			infos = []MacroInfo{}
		}
		return r.JSON(infos)
	}

	if len(infos) == 0 {
		r.Muted(fmt.Sprintf("no macros found in %s", dir))
		return nil
	}

	r.Header(1, fmt.Sprintf("Macros (%d)", len(infos)))
	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{info.Module, info.Function, info.Signature, info.Doc})
	}
	r.Table([]string{"Module", "Function", "Signature", "Summary"}, rows)
	return nil
}

package macro

import (
	"fmt"
	"os"
	"strings"

	"github.com/leapstack-labs/leapmacro/internal/dag"
)

// Graph parses every module under the directory and returns the graph of
// their load() statements. Modules that fail to parse are included without
// edges, and loads naming no module in the directory are ignored; both
// fail again, with a proper error, when the module is executed.
func (l *Loader) Graph() (*dag.Graph, error) {
	names, err := l.Scan()
	if err != nil {
		return nil, err
	}

	g := dag.NewGraph()
	for _, name := range names {
		g.AddModule(name)
	}
	for _, name := range names {
		content, err := os.ReadFile(l.Path(name)) //nolint:gosec // G304: path comes from scanning the macros directory
		if err != nil {
			return nil, fmt.Errorf("failed to read macro module %s: %w", name, err)
		}
		mod, err := ParseStarlarkFile(l.Path(name), content)
		if err != nil {
			continue
		}
		for _, load := range mod.Loads {
			dep, err := l.Resolve(strings.TrimPrefix(load, "//"))
			if err != nil || !g.Has(dep) {
				continue
			}
			_ = g.AddLoad(name, dep)
		}
	}
	return g, nil
}

package lsp

import (
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapmacro/internal/macro"
)

// macroImportPattern matches an import declaration carrying the macro
// attribute. Group 1 is the import clause, group 2 the source.
var macroImportPattern = regexp.MustCompile(
	`import\s+([^;'"]*?)\s*from\s*["']([^"']+)["']\s*(?:with|assert)\s*\{\s*["']?type["']?\s*:\s*["']macro["']\s*,?\s*\}`)

// macroAttrPattern matches the macro import attribute on its own.
var macroAttrPattern = regexp.MustCompile(`(?:with|assert)\s*\{\s*["']?type["']?\s*:\s*["']macro["']`)

// MacroBinding is a local name introduced by a macro import.
type MacroBinding struct {
	Local  string
	Source string
	Export string // "*" for a namespace import
}

// ScanMacroImports lists the bindings of every macro import in content.
// Type-only imports and specifiers are skipped.
func ScanMacroImports(content string) []MacroBinding {
	var out []MacroBinding
	for _, m := range macroImportPattern.FindAllStringSubmatch(content, -1) {
		clause, src := strings.TrimSpace(m[1]), m[2]
		if strings.HasPrefix(clause, "type ") {
			continue
		}
		out = append(out, parseImportClause(clause, src)...)
	}
	return out
}

func parseImportClause(clause, src string) []MacroBinding {
	var out []MacroBinding

	// default binding
	if clause != "" && clause[0] != '{' && clause[0] != '*' {
		name, rest, _ := strings.Cut(clause, ",")
		if name = strings.TrimSpace(name); isIdentifier(name) {
			out = append(out, MacroBinding{Local: name, Source: src, Export: "default"})
		}
		clause = strings.TrimSpace(rest)
	}

	switch {
	case strings.HasPrefix(clause, "*"):
		_, local, ok := strings.Cut(clause, " as ")
		if local = strings.TrimSpace(local); ok && isIdentifier(local) {
			out = append(out, MacroBinding{Local: local, Source: src, Export: "*"})
		}
	case strings.HasPrefix(clause, "{"):
		body := strings.TrimSuffix(strings.TrimPrefix(clause, "{"), "}")
		for _, spec := range strings.Split(body, ",") {
			spec = strings.TrimSpace(spec)
			if spec == "" || strings.HasPrefix(spec, "type ") {
				continue
			}
			imported, local, ok := strings.Cut(spec, " as ")
			imported = strings.Trim(strings.TrimSpace(imported), `"'`)
			local = strings.TrimSpace(local)
			if !ok {
				local = imported
			}
			if isIdentifier(local) {
				out = append(out, MacroBinding{Local: local, Source: src, Export: imported})
			}
		}
	}
	return out
}

func isIdentifier(s string) bool {
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isWordChar(s[i]) {
			return false
		}
	}
	return true
}

// macroIndex caches the static outline of macro modules. Entries are
// dropped when a module or one it loads changes.
type macroIndex struct {
	loader *macro.Loader

	mu      sync.Mutex
	modules map[string]*macro.ParsedModule
}

func newMacroIndex(dir string) *macroIndex {
	return &macroIndex{
		loader:  macro.NewLoader(dir),
		modules: make(map[string]*macro.ParsedModule),
	}
}

// forget drops the cached outlines of the named modules.
func (x *macroIndex) forget(names ...string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, name := range names {
		delete(x.modules, name)
	}
}

// affected returns the module saved at path and every module that loads
// it, directly or not.
func (x *macroIndex) affected(path string) []string {
	rel, err := filepath.Rel(x.loader.Dir(), path)
	if err != nil {
		return nil
	}
	name := strings.TrimSuffix(filepath.ToSlash(rel), ".star")

	g, err := x.loader.Graph()
	if err != nil || !g.Has(name) {
		return []string{name}
	}
	return g.Affected(name)
}

// imports reports whether content has a macro import of one of modules.
func (x *macroIndex) imports(content string, modules []string) bool {
	for _, b := range ScanMacroImports(content) {
		name, err := x.loader.Resolve(b.Source)
		if err == nil && slices.Contains(modules, name) {
			return true
		}
	}
	return false
}

// names lists the modules in the macros directory.
func (x *macroIndex) names() []string {
	names, err := x.loader.Scan()
	if err != nil {
		return nil
	}
	return names
}

// module returns the outline of the module an import source names.
func (x *macroIndex) module(src string) (*macro.ParsedModule, bool) {
	name, err := x.loader.Resolve(src)
	if err != nil {
		return nil, false
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if mod, ok := x.modules[name]; ok {
		return mod, mod != nil
	}

	path := x.loader.Path(name)
	content, err := os.ReadFile(path) //nolint:gosec // G304: path is below the macros directory
	var mod *macro.ParsedModule
	if err == nil {
		mod, _ = macro.ParseStarlarkFile(path, content)
	}
	x.modules[name] = mod
	return mod, mod != nil
}

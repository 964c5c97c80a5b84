package lsp

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/leapstack-labs/leapmacro/internal/macro"
)

// CompletionContextType describes what kind of completion context we're in.
type CompletionContextType int

// Completion context type constants.
const (
	ContextUnknown     CompletionContextType = iota
	ContextModulePath                        // inside the source string of a macro import
	ContextImportNames                       // inside the braces of a macro import
	ContextNamespace                         // after "ns." for a namespace macro import
)

var (
	modulePathPattern   = regexp.MustCompile(`from\s*["']([^"'\n]*)$`)
	importNamesPattern  = regexp.MustCompile(`^import\s+(?:[\w$]+\s*,\s*)?\{([^}]*)$`)
	importSourcePattern = regexp.MustCompile(`from\s*["']([^"']+)["']`)
	memberPattern       = regexp.MustCompile(`([\w$]+)\s*\.\s*([\w$]*)$`)
)

// completionContext is the analysis of the text around the cursor.
type completionContext struct {
	Type   CompletionContextType
	Source string   // import source whose functions are offered
	Prefix string   // typed module path, for ContextModulePath
	Skip   []string // names already imported
}

// analyzeContext classifies the cursor position. before is the document
// text up to the cursor, after the text following it.
func analyzeContext(before, after string) completionContext {
	if stmt, head, ok := currentImport(before, after); ok && macroAttrPattern.MatchString(stmt) {
		if m := modulePathPattern.FindStringSubmatch(head); m != nil {
			return completionContext{Type: ContextModulePath, Prefix: m[1]}
		}
		if m := importNamesPattern.FindStringSubmatch(head); m != nil {
			if src := importSourcePattern.FindStringSubmatch(stmt); src != nil {
				return completionContext{Type: ContextImportNames, Source: src[1], Skip: importedNames(m[1])}
			}
		}
	}

	if m := memberPattern.FindStringSubmatch(before); m != nil {
		for _, b := range ScanMacroImports(before + after) {
			if b.Local == m[1] && b.Export == "*" {
				return completionContext{Type: ContextNamespace, Source: b.Source}
			}
		}
	}
	return completionContext{}
}

// currentImport returns the import statement the cursor is in, and its part
// before the cursor.
func currentImport(before, after string) (stmt, head string, ok bool) {
	i := strings.LastIndex(before, "import")
	if i < 0 || (i > 0 && isWordChar(before[i-1])) {
		return "", "", false
	}
	head = before[i:]
	if strings.Contains(head, ";") {
		return "", "", false
	}
	tail, _, _ := strings.Cut(after, ";")
	if j := strings.Index(tail, "import"); j >= 0 {
		tail = tail[:j]
	}
	return head + tail, head, true
}

// importedNames lists the names already written inside import braces.
func importedNames(specs string) []string {
	var names []string
	for _, spec := range strings.Split(specs, ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(spec), " ")
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// getCompletions returns completion items for the given position.
func (s *Server) getCompletions(params CompletionParams) []CompletionItem {
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil || s.index == nil {
		return nil
	}

	offset := doc.Offset(params.Position)
	ctx := analyzeContext(doc.Content[:offset], doc.Content[offset:])
	s.logger.Debug("completion", "context", ctx.Type, "source", ctx.Source)

	switch ctx.Type {
	case ContextModulePath:
		start := doc.Position(offset - len(ctx.Prefix))
		return s.moduleCompletions(ctx.Prefix, Range{Start: start, End: params.Position})
	case ContextImportNames, ContextNamespace:
		return s.functionCompletions(ctx.Source, ctx.Skip)
	default:
		return nil
	}
}

// moduleCompletions offers the modules of the macros directory as import
// sources replacing rng.
func (s *Server) moduleCompletions(prefix string, rng Range) []CompletionItem {
	var items []CompletionItem
	for _, name := range s.index.names() {
		src := "./" + name
		if !strings.HasPrefix(src, prefix) && !strings.HasPrefix(name, prefix) {
			continue
		}
		items = append(items, CompletionItem{
			Label:    src,
			Kind:     CompletionItemKindModule,
			Detail:   s.index.loader.Path(name),
			TextEdit: &TextEdit{Range: rng, NewText: src},
		})
	}
	return items
}

// functionCompletions offers the public functions of the module src names.
func (s *Server) functionCompletions(src string, skip []string) []CompletionItem {
	mod, ok := s.index.module(src)
	if !ok {
		return nil
	}

	skipped := make(map[string]bool, len(skip))
	for _, name := range skip {
		skipped[name] = true
	}

	items := make([]CompletionItem, 0, len(mod.Functions))
	for i, fn := range mod.Functions {
		if skipped[fn.Name] {
			continue
		}
		items = append(items, CompletionItem{
			Label:         fn.Name,
			Kind:          CompletionItemKindFunction,
			Detail:        fn.Signature(),
			Documentation: fn.Docstring,
			SortText:      fmt.Sprintf("%04d", i),
		})
	}
	return items
}

// symbol is a macro function, or a whole module for a namespace import,
// found under the cursor.
type symbol struct {
	mod *macro.ParsedModule
	fn  *macro.ParsedFunction // nil for a namespace
	rng Range
}

// symbolAt resolves the identifier at pos through the document's macro
// imports.
func (s *Server) symbolAt(doc *Document, pos Position) (symbol, bool) {
	if s.index == nil {
		return symbol{}, false
	}
	word, rng := doc.WordAt(pos)
	if word == "" {
		return symbol{}, false
	}
	bindings := ScanMacroImports(doc.Content)

	// ns.fn
	start := doc.Offset(rng.Start)
	if m := memberPattern.FindStringSubmatch(doc.Content[:start]); m != nil && m[2] == "" {
		for _, b := range bindings {
			if b.Local == m[1] && b.Export == "*" {
				return s.lookup(b.Source, word, rng)
			}
		}
	}

	for _, b := range bindings {
		if b.Local != word {
			continue
		}
		if b.Export == "*" {
			mod, ok := s.index.module(b.Source)
			return symbol{mod: mod, rng: rng}, ok
		}
		return s.lookup(b.Source, b.Export, rng)
	}
	return symbol{}, false
}

func (s *Server) lookup(src, name string, rng Range) (symbol, bool) {
	mod, ok := s.index.module(src)
	if !ok {
		return symbol{}, false
	}
	for _, fn := range mod.Functions {
		if fn.Name == name {
			return symbol{mod: mod, fn: fn, rng: rng}, true
		}
	}
	return symbol{}, false
}

// getHover describes the macro under the cursor.
func (s *Server) getHover(params HoverParams) *Hover {
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return nil
	}
	sym, ok := s.symbolAt(doc, params.Position)
	if !ok {
		return nil
	}

	var b strings.Builder
	if sym.fn == nil {
		fmt.Fprintf(&b, "**macro module** `%s`\n\n", sym.mod.Name)
		for _, fn := range sym.mod.Functions {
			fmt.Fprintf(&b, "- `%s`", fn.Signature())
			if summary := fn.Summary(); summary != "" {
				b.WriteString(" ")
				b.WriteString(summary)
			}
			b.WriteString("\n")
		}
	} else {
		fmt.Fprintf(&b, "```python\ndef %s\n```\n", sym.fn.Signature())
		if sym.fn.Docstring != "" {
			b.WriteString("\n")
			b.WriteString(sym.fn.Docstring)
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "\n*%s:%d*", sym.mod.FilePath, sym.fn.Line)
	}

	return &Hover{
		Contents: MarkupContent{Kind: MarkupKindMarkdown, Value: b.String()},
		Range:    &sym.rng,
	}
}

// getDefinition returns the definition of the macro under the cursor.
func (s *Server) getDefinition(params DefinitionParams) *Location {
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return nil
	}
	sym, ok := s.symbolAt(doc, params.Position)
	if !ok {
		return nil
	}

	var line uint32
	if sym.fn != nil && sym.fn.Line > 0 {
		line = uint32(sym.fn.Line - 1) //nolint:gosec // G115: line is positive
	}
	return &Location{
		URI:   PathToURI(sym.mod.FilePath),
		Range: Range{Start: Position{Line: line}, End: Position{Line: line}},
	}
}

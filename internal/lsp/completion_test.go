package lsp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stylesStar = `def css(text):
    """Returns a class name for text."""
    return "c-" + str(len(text))

def upper(s):
    return s.upper()

def broken():
    fail("broken macro")
`

// setupMacros writes a macros directory and returns its path.
func setupMacros(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "macros")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ui"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "styles.star"), []byte(stylesStar), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ui", "icons.star"),
		[]byte("def icon(name, size = 16):\n    \"\"\"Inline SVG.\"\"\"\n    return name\n"), 0o600))
	return dir
}

// newTestServer returns an initialized server for a macros directory,
// writing protocol output to a discarded buffer.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := setupMacros(t)
	s := NewServer(nil, &lockedBuffer{}, WithMacrosDir(dir))
	s.index = newMacroIndex(dir)
	return s
}

func TestAnalyzeContext(t *testing.T) {
	tests := []struct {
		name   string
		before string
		after  string
		want   completionContext
	}{
		{
			name:   "import names",
			before: `import { css, `,
			after:  ` } from "./styles" with { type: "macro" };`,
			want:   completionContext{Type: ContextImportNames, Source: "./styles", Skip: []string{"css"}},
		},
		{
			name:   "import names after default",
			before: "import css, {",
			after:  `} from './styles' with { type: 'macro' }`,
			want:   completionContext{Type: ContextImportNames, Source: "./styles"},
		},
		{
			name:   "module path",
			before: `import { css } from "./st`,
			after:  `" with { type: "macro" };`,
			want:   completionContext{Type: ContextModulePath, Prefix: "./st"},
		},
		{
			name:   "plain import",
			before: `import { a } from "./st`,
			after:  `";`,
		},
		{
			name:   "namespace member",
			before: "import * as s from \"./styles\" with { type: \"macro\" };\nconst x = s.",
			want:   completionContext{Type: ContextNamespace, Source: "./styles"},
		},
		{
			name:   "namespace without semicolon",
			before: "import * as s from \"./styles\" with { type: \"macro\" }\nconst x = s.c",
			want:   completionContext{Type: ContextNamespace, Source: "./styles"},
		},
		{
			name:   "other member",
			before: "import * as s from \"./styles\" with { type: \"macro\" };\nconsole.",
		},
		{
			name:   "identifier containing import",
			before: "const reimport = {",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, analyzeContext(tt.before, tt.after))
		})
	}
}

func TestGetCompletions(t *testing.T) {
	s := newTestServer(t)
	uri := "file:///project/src/app.js"

	labels := func(items []CompletionItem) []string {
		var out []string
		for _, item := range items {
			out = append(out, item.Label)
		}
		return out
	}

	t.Run("import names", func(t *testing.T) {
		s.documents.Open(uri, `import { css,  } from "./styles" with { type: "macro" };`, 1)
		items := s.getCompletions(CompletionParams{TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: uri},
			Position:     Position{Line: 0, Character: 14},
		}})
		assert.Equal(t, []string{"upper", "broken"}, labels(items))
		assert.Equal(t, "upper(s)", items[0].Detail)
		assert.Equal(t, CompletionItemKindFunction, items[0].Kind)
	})

	t.Run("module path", func(t *testing.T) {
		s.documents.Open(uri, `import { icon } from "./u" with { type: "macro" };`, 1)
		items := s.getCompletions(CompletionParams{TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: uri},
			Position:     Position{Line: 0, Character: 25},
		}})
		require.Equal(t, []string{"./ui/icons"}, labels(items))
		require.NotNil(t, items[0].TextEdit)
		assert.Equal(t, Range{Start: Position{0, 22}, End: Position{0, 25}}, items[0].TextEdit.Range)
		assert.Equal(t, "./ui/icons", items[0].TextEdit.NewText)
	})

	t.Run("namespace", func(t *testing.T) {
		s.documents.Open(uri, "import * as ui from \"./ui/icons\" with { type: \"macro\" };\nui.", 1)
		items := s.getCompletions(CompletionParams{TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: uri},
			Position:     Position{Line: 1, Character: 3},
		}})
		require.Equal(t, []string{"icon"}, labels(items))
		assert.Equal(t, "icon(name, size=16)", items[0].Detail)
		assert.Equal(t, "Inline SVG.", items[0].Documentation)
	})

	t.Run("nothing", func(t *testing.T) {
		s.documents.Open(uri, "const x = 1;", 1)
		assert.Empty(t, s.getCompletions(CompletionParams{TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: uri},
			Position:     Position{Line: 0, Character: 5},
		}}))
	})
}

func TestHoverAndDefinition(t *testing.T) {
	s := newTestServer(t)
	uri := "file:///project/src/app.js"
	s.documents.Open(uri, "import { css as cls } from \"./styles\" with { type: \"macro\" };\n"+
		"import * as ui from \"./ui/icons\" with { type: \"macro\" };\n"+
		"cls(\"a\"); ui.icon(\"x\"); other();", 1)

	at := func(line, char uint32) TextDocumentPositionParams {
		return TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: uri},
			Position:     Position{Line: line, Character: char},
		}
	}

	hover := s.getHover(HoverParams{at(2, 1)})
	require.NotNil(t, hover)
	assert.Equal(t, MarkupKindMarkdown, hover.Contents.Kind)
	assert.Contains(t, hover.Contents.Value, "def css(text)")
	assert.Contains(t, hover.Contents.Value, "Returns a class name for text.")
	assert.Equal(t, Range{Start: Position{2, 0}, End: Position{2, 3}}, *hover.Range)

	hover = s.getHover(HoverParams{at(2, 15)})
	require.NotNil(t, hover)
	assert.Contains(t, hover.Contents.Value, "def icon(name, size=16)")

	hover = s.getHover(HoverParams{at(2, 11)})
	require.NotNil(t, hover)
	assert.Contains(t, hover.Contents.Value, "**macro module** `icons`")
	assert.Contains(t, hover.Contents.Value, "- `icon(name, size=16)` Inline SVG.")

	assert.Nil(t, s.getHover(HoverParams{at(2, 26)}))

	def := s.getDefinition(DefinitionParams{at(2, 1)})
	require.NotNil(t, def)
	assert.Equal(t, PathToURI(filepath.Join(s.macrosDir, "styles.star")), def.URI)
	assert.Equal(t, uint32(0), def.Range.Start.Line)

	def = s.getDefinition(DefinitionParams{at(2, 15)})
	require.NotNil(t, def)
	assert.Equal(t, PathToURI(filepath.Join(s.macrosDir, "ui", "icons.star")), def.URI)

	assert.Nil(t, s.getDefinition(DefinitionParams{at(2, 26)}))
}

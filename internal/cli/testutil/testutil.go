// Package testutil holds fixtures and assertions shared by the CLI tests.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapmacro/internal/cli/output"
)

// StylesMacro is a macro module used by test projects.
const StylesMacro = `"""Style helpers."""

def css(text):
    """Returns a class name for text."""
    return "c-" + str(len(text))

def upper(s):
    return s.upper()

def broken():
    fail("broken macro")
`

// AppSource is a source file that calls the StylesMacro macros.
const AppSource = `import { css, upper } from "./styles" with { type: "macro" };
export const cls = css("color: red");
export const name = upper("app");
`

// SetupTestProject creates a temporary project with a macros directory and
// a src directory holding app.js, plain.js and broken.js.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	files := map[string]string{
		filepath.Join("macros", "styles.star"): StylesMacro,
		filepath.Join("src", "app.js"):         AppSource,
		filepath.Join("src", "plain.js"):       "export const x = 1;\n",
		filepath.Join("src", "broken.js"): `import { broken } from "./styles" with { type: "macro" };
export const y = broken();
`,
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// TestRenderer is a non-TTY-aware Renderer writing into buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer captures output rendered in mode, as if the terminal
// were (or were not) interactive.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	var out, errOut bytes.Buffer
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(&out, &errOut, isTTY, mode),
		Out:      &out,
		ErrOut:   &errOut,
	}
}

func NewTestRendererMarkdown() *TestRenderer { return NewTestRenderer(output.ModeMarkdown, false) }

func NewTestRendererJSON() *TestRenderer { return NewTestRenderer(output.ModeJSON, false) }

// Output returns everything written to stdout.
func (tr *TestRenderer) Output() string { return tr.Out.String() }

// ErrorOutput returns everything written to stderr.
func (tr *TestRenderer) ErrorOutput() string { return tr.ErrOut.String() }

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI fails t if s holds a terminal escape sequence.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if loc := ansiEscape.FindStringIndex(s); loc != nil {
		t.Errorf("unexpected escape sequence %q at byte %d in %q", s[loc[0]:loc[1]], loc[0], s)
	}
}

// AssertValidMarkdown fails t on markdown the CLI should never print: an
// odd number of code fences, a heading without text, or a table whose rows
// disagree on the number of cells.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if n := strings.Count(md, "```"); n%2 != 0 {
		t.Errorf("markdown has %d code fences", n)
	}

	cells := -1
	for i, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") && strings.TrimLeft(line, "# ") == "" {
			t.Errorf("line %d: heading without text", i+1)
		}
		if !strings.HasPrefix(line, "|") {
			cells = -1
			continue
		}
		n := strings.Count(line, "|") - strings.Count(line, "\\|")
		if cells >= 0 && n != cells {
			t.Errorf("line %d: table row has %d separators, previous rows %d", i+1, n, cells)
		}
		cells = n
	}
}

// AssertOutputMode checks what every non-text mode promises: no escape
// sequences on either stream.
func AssertOutputMode(t *testing.T, tr *TestRenderer, mode output.Mode) {
	t.Helper()
	if mode != output.ModeText {
		AssertNoANSI(t, tr.Output()+tr.ErrorOutput())
	}
}

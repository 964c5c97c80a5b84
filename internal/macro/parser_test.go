package macro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStarlarkFile(t *testing.T) {
	src := `
def css(rules, scope = None, *extra, **opts):
    """Scopes a stylesheet.

    Returns the generated class name.
    """
    return scope

def keyword_only(a, *, b = -1):
    return a

shout = lambda s: s.upper()

def _helper():
    pass

VERSION = "1.0"
_hidden = 1
VERSION = "2.0"
`
	mod, err := ParseStarlarkFile("/work/macros/styles.star", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, "styles", mod.Name)
	assert.Equal(t, "/work/macros/styles.star", mod.FilePath)
	assert.Equal(t, []string{"VERSION"}, mod.Values)

	require.Len(t, mod.Functions, 3)

	css := mod.Functions[0]
	assert.Equal(t, "css", css.Name)
	assert.Equal(t, 2, css.Line)
	assert.Equal(t, "css(rules, scope=None, *extra, **opts)", css.Signature())
	assert.Equal(t, "Scopes a stylesheet.", css.Summary())
	assert.Contains(t, css.Docstring, "Returns the generated class name.")

	kw := mod.Functions[1]
	assert.Equal(t, []string{"a", "*", "b=-1"}, kw.Args)
	assert.Empty(t, kw.Summary())

	shout := mod.Functions[2]
	assert.Equal(t, "shout(s)", shout.Signature())
	assert.Equal(t, 12, shout.Line)
}

func TestParseStarlarkFile_Error(t *testing.T) {
	_, err := ParseStarlarkFile("/work/macros/bad.star", []byte("def (:\n"))
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, err.Error(), "parse bad.star: ")
}

func TestParseStarlarkFile_Loads(t *testing.T) {
	src := `load("//colors", "red")
load("ui/icons.star", icon = "svg")

def page():
    return red + icon()
`
	mod, err := ParseStarlarkFile("/work/macros/page.star", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"//colors", "ui/icons.star"}, mod.Loads)
	require.Len(t, mod.Functions, 1)
	assert.Equal(t, 4, mod.Functions[0].Line)
}

package lsp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanMacroImports(t *testing.T) {
	content := `import css, { upper as up, type T, lower } from "./styles" with { type: "macro" };
import * as ui from "./ui/icons" assert { type: "macro" };
import { notMacro } from "./x";
import type { Only } from "./types" with { type: "macro" };
import {
  multi,
} from './lines' with { "type": 'macro' };
`

	got := ScanMacroImports(content)
	assert.Equal(t, []MacroBinding{
		{Local: "css", Source: "./styles", Export: "default"},
		{Local: "up", Source: "./styles", Export: "upper"},
		{Local: "lower", Source: "./styles", Export: "lower"},
		{Local: "ui", Source: "./ui/icons", Export: "*"},
		{Local: "multi", Source: "./lines", Export: "multi"},
	}, got)
}

func TestScanMacroImports_None(t *testing.T) {
	assert.Empty(t, ScanMacroImports(`import { a } from "./a";\nconst x = 1;`))
	assert.Empty(t, ScanMacroImports(""))
}

func TestIsIdentifier(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"css", true},
		{"$el", true},
		{"_x1", true},
		{"1x", false},
		{"", false},
		{"a-b", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isIdentifier(tt.s), tt.s)
	}
}

func TestMacroIndex(t *testing.T) {
	dir := setupMacros(t)
	x := newMacroIndex(dir)

	assert.Equal(t, []string{"styles", "ui/icons"}, x.names())

	mod, ok := x.module("./styles")
	assert.True(t, ok)
	assert.Len(t, mod.Functions, 3)

	mod, ok = x.module("ui/icons.js")
	assert.True(t, ok)
	assert.Equal(t, "icon", mod.Functions[0].Name)

	_, ok = x.module("./missing")
	assert.False(t, ok)
	_, ok = x.module("../escape")
	assert.False(t, ok)
}

func TestMacroIndex_Affected(t *testing.T) {
	dir := setupMacros(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "theme.star"),
		[]byte("load(\"styles\", \"css\")\ndef themed(t):\n    return css(t)\n"), 0o600))
	x := newMacroIndex(dir)

	assert.Equal(t, []string{"styles", "theme"}, x.affected(filepath.Join(dir, "styles.star")))
	assert.Equal(t, []string{"theme"}, x.affected(filepath.Join(dir, "theme.star")))
	assert.Equal(t, []string{"new"}, x.affected(filepath.Join(dir, "new.star")))

	_, ok := x.module("./theme")
	require.True(t, ok)
	x.forget("theme")
	assert.NotContains(t, x.modules, "theme")

	content := `import { themed } from "./theme.js" with { type: "macro" };`
	assert.True(t, x.imports(content, []string{"styles", "theme"}))
	assert.False(t, x.imports(content, []string{"styles"}))
	assert.False(t, x.imports(`import { themed } from "./theme";`, []string{"theme"}))
}

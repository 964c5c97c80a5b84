package source_test

import (
	"testing"

	"github.com/leapstack-labs/leapmacro/pkg/source"
	"github.com/leapstack-labs/leapmacro/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileNameString(t *testing.T) {
	tests := []struct {
		name      string
		file      source.FileName
		want      string
		synthetic bool
	}{
		{"real", source.RealFile("app.tsx"), "app.tsx", false},
		{"anon", source.FileName{Kind: source.Anon}, "<anon>", false},
		{"macro expansion", source.FileName{Kind: source.MacroExpansion}, "<macro-expansion>", true},
		{"internal", source.FileName{Kind: source.Internal, Name: "prelude"}, "<prelude>", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.file.String())
			assert.Equal(t, tt.synthetic, tt.file.IsSynthetic())
		})
	}
}

func TestFilePosition(t *testing.T) {
	m := source.NewMap()
	f := m.AddFile(source.RealFile("a.js"), "let a;\r\nlet bb;\nc")

	tests := []struct {
		offset int
		line   int
		column int
	}{
		{0, 1, 1},
		{4, 1, 5},
		{8, 2, 1},
		{12, 2, 5},
		{16, 3, 1},
		{17, 3, 2}, // EOF
	}

	for _, tt := range tests {
		pos := f.Position(f.Pos(tt.offset))
		assert.Equal(t, tt.line, pos.Line, "offset %d", tt.offset)
		assert.Equal(t, tt.column, pos.Column, "offset %d", tt.offset)
	}

	assert.Equal(t, 3, f.LineCount())
	assert.Equal(t, "let a;", f.Line(1))
	assert.Equal(t, "let bb;", f.Line(2))
	assert.Equal(t, "c", f.Line(3))
	assert.Empty(t, f.Line(4))
}

func TestMapDisjointRanges(t *testing.T) {
	m := source.NewMap()
	a := m.AddFile(source.RealFile("a.js"), "abc")
	b := m.AddFile(source.FileName{Kind: source.MacroExpansion}, "xyz")

	assert.Equal(t, token.Pos(1), a.Base())
	assert.Greater(t, b.Base(), a.End())

	assert.Same(t, a, m.FileOf(a.Pos(2)))
	assert.Same(t, a, m.FileOf(a.End()))
	assert.Same(t, b, m.FileOf(b.Pos(0)))
	assert.Nil(t, m.FileOf(token.NoPos))

	assert.False(t, m.IsSynthetic(a.Pos(1)))
	assert.True(t, m.IsSynthetic(b.Pos(1)))
	assert.True(t, m.IsSynthetic(token.NoPos))

	f, pos, ok := m.Lookup(b.Pos(2))
	require.True(t, ok)
	assert.Same(t, b, f)
	assert.Equal(t, 3, pos.Column)
}

func TestUTF16Column(t *testing.T) {
	m := source.NewMap()
	f := m.AddFile(source.RealFile("a.js"), "'é😀' + x")

	// é is one UTF-16 unit, the emoji is two
	assert.Equal(t, 4, source.UTF16Len("'é😀"))
	x := f.Pos(len("'é😀' + "))
	assert.Equal(t, 8, f.UTF16Column(x))
	assert.Equal(t, "x", f.Slice(token.NewSpan(x, x+1)))
}

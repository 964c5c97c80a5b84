package sourcemap_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapmacro/pkg/codegen"
	"github.com/leapstack-labs/leapmacro/pkg/source"
	"github.com/leapstack-labs/leapmacro/pkg/sourcemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------- Build ----------

func TestBuildEncodesSegments(t *testing.T) {
	sm := source.NewMap()
	a := sm.AddFile(source.RealFile("a.js"), "ab\ncd")

	m, err := sourcemap.Build(sm, []codegen.Mapping{
		{Src: a.Pos(0), GenLine: 0, GenCol: 0},
		{Src: a.Pos(3), GenLine: 0, GenCol: 5},
		{Src: a.Pos(4), GenLine: 1, GenCol: 0},
	}, sourcemap.Config{})
	require.NoError(t, err)

	assert.Equal(t, 3, m.Version)
	assert.Equal(t, []string{"a.js"}, m.Sources)
	assert.Equal(t, "AAAA,KACA;AAAC", m.Mappings)
	assert.Nil(t, m.SourcesContent)
}

func TestBuildSkipsSyntheticSources(t *testing.T) {
	sm := source.NewMap()
	a := sm.AddFile(source.RealFile("a.js"), "x(1)")
	exp := sm.AddFile(source.FileName{Kind: source.MacroExpansion}, "\"X\"")
	internal := sm.AddFile(source.FileName{Kind: source.Internal, Name: "helpers"}, "h")

	m, err := sourcemap.Build(sm, []codegen.Mapping{
		{Src: a.Pos(0), GenLine: 0, GenCol: 0},
		{Src: exp.Pos(0), GenLine: 0, GenCol: 4},
		{Src: internal.Pos(0), GenLine: 0, GenCol: 8},
		{Src: 0, GenLine: 0, GenCol: 9},
	}, sourcemap.Config{SourcesContent: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.js"}, m.Sources)
	assert.Equal(t, "AAAA", m.Mappings)
	require.Len(t, m.SourcesContent, 1)
	assert.Equal(t, "x(1)", *m.SourcesContent[0])
}

func TestBuildAssignsSourcesByFirstUse(t *testing.T) {
	sm := source.NewMap()
	a := sm.AddFile(source.RealFile("a.js"), "a")
	b := sm.AddFile(source.RealFile("b.js"), "b")

	m, err := sourcemap.Build(sm, []codegen.Mapping{
		{Src: b.Pos(0), GenLine: 0, GenCol: 0},
		{Src: a.Pos(0), GenLine: 0, GenCol: 2},
		{Src: b.Pos(0), GenLine: 0, GenCol: 4},
	}, sourcemap.Config{})
	require.NoError(t, err)

	assert.Equal(t, []string{"b.js", "a.js"}, m.Sources)
	segs, err := m.Segments()
	require.NoError(t, err)
	assert.Equal(t, []sourcemap.Segment{
		{GenLine: 0, GenCol: 0, Source: 0},
		{GenLine: 0, GenCol: 2, Source: 1},
		{GenLine: 0, GenCol: 4, Source: 0},
	}, segs)
}

func TestBuildCountsUTF16Columns(t *testing.T) {
	sm := source.NewMap()
	code := "'😀é' + y"
	a := sm.AddFile(source.RealFile("a.js"), code)

	m, err := sourcemap.Build(sm, []codegen.Mapping{
		{Src: a.Pos(len("'😀é' + ")), GenLine: 2, GenCol: 3},
	}, sourcemap.Config{})
	require.NoError(t, err)

	segs, err := m.Segments()
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, sourcemap.Segment{GenLine: 2, GenCol: 3, SrcLine: 0, SrcCol: 8}, segs[0])
	assert.Equal(t, ";;GAAQ", m.Mappings)
}

func TestBuildErrors(t *testing.T) {
	sm := source.NewMap()
	a := sm.AddFile(source.RealFile("a.js"), "abc")

	t.Run("out of order", func(t *testing.T) {
		_, err := sourcemap.Build(sm, []codegen.Mapping{
			{Src: a.Pos(0), GenLine: 1, GenCol: 0},
			{Src: a.Pos(1), GenLine: 0, GenCol: 0},
		}, sourcemap.Config{})
		assert.ErrorContains(t, err, "out of order")
	})

	t.Run("unknown position", func(t *testing.T) {
		_, err := sourcemap.Build(sm, []codegen.Mapping{
			{Src: a.End() + 100, GenLine: 0, GenCol: 0},
		}, sourcemap.Config{})
		assert.ErrorContains(t, err, "outside every source")
	})
}

// ---------- JSON ----------

func TestJSONRoundTrip(t *testing.T) {
	sm := source.NewMap()
	a := sm.AddFile(source.RealFile("src/a.js"), "line one\nline two\n")

	mappings := []codegen.Mapping{
		{Src: a.Pos(0), GenLine: 0, GenCol: 0},
		{Src: a.Pos(5), GenLine: 0, GenCol: 1000},
		{Src: a.Pos(9), GenLine: 3, GenCol: 4},
	}
	m, err := sourcemap.Build(sm, mappings, sourcemap.Config{File: "out.js", SourcesContent: true})
	require.NoError(t, err)

	data, err := m.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version":3`)
	assert.Contains(t, string(data), `"file":"out.js"`)
	assert.Contains(t, string(data), `"sources":["src/a.js"]`)
	assert.Contains(t, string(data), `"names":[]`)
	assert.NotContains(t, string(data), "sourceRoot")

	parsed, err := sourcemap.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, m, parsed)

	segs, err := parsed.Segments()
	require.NoError(t, err)
	assert.Equal(t, []sourcemap.Segment{
		{GenLine: 0, GenCol: 0, SrcLine: 0, SrcCol: 0},
		{GenLine: 0, GenCol: 1000, SrcLine: 0, SrcCol: 5},
		{GenLine: 3, GenCol: 4, SrcLine: 1, SrcCol: 0},
	}, segs)
}

func TestEncodeMatchesSegments(t *testing.T) {
	segs := []sourcemap.Segment{
		{GenLine: 0, GenCol: 0, SrcLine: 4, SrcCol: 10},
		{GenLine: 1, GenCol: 0, SrcLine: 4, SrcCol: 10},
		{GenLine: 1, GenCol: 7, Source: 1, SrcLine: 0, SrcCol: 2},
		{GenLine: 4, GenCol: 3, SrcLine: 2, SrcCol: 0},
	}
	mappings, err := sourcemap.Encode(segs)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(mappings, ";"))

	m := &sourcemap.Map{Version: sourcemap.Version, Sources: []string{"a.js", "b.js"}, Mappings: mappings}
	got, err := m.Segments()
	require.NoError(t, err)
	assert.Equal(t, segs, got)

	_, err = sourcemap.Encode([]sourcemap.Segment{{GenLine: 1}, {GenLine: 0}})
	assert.ErrorContains(t, err, "out of order")
}

func TestDataURL(t *testing.T) {
	m := &sourcemap.Map{Version: sourcemap.Version, Sources: []string{"a.js"}, Names: []string{}, Mappings: "AAAA"}
	url, err := m.DataURL()
	require.NoError(t, err)

	const prefix = "data:application/json;charset=utf-8;base64,"
	require.True(t, strings.HasPrefix(url, prefix), url)
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, prefix))
	require.NoError(t, err)

	parsed, err := sourcemap.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, m, parsed)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"not json", `{`, "decode"},
		{"wrong version", `{"version":2,"sources":[],"names":[],"mappings":""}`, "unsupported version 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sourcemap.Parse([]byte(tt.data))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestSegmentsErrors(t *testing.T) {
	tests := []struct {
		name     string
		mappings string
		want     string
	}{
		{"bad character", "A!AA", "invalid base64 VLQ"},
		{"truncated", "g", "invalid base64 VLQ"},
		{"two fields", "AA", "has 2 fields"},
		{"unknown source", "ACAA", "refers to source 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &sourcemap.Map{Version: 3, Sources: []string{"a.js"}, Mappings: tt.mappings}
			_, err := m.Segments()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestSegmentsSkipsGeneratedOnly(t *testing.T) {
	m := &sourcemap.Map{Version: 3, Sources: []string{"a.js"}, Mappings: "E,AAAA;;C"}
	segs, err := m.Segments()
	require.NoError(t, err)
	assert.Equal(t, []sourcemap.Segment{{GenLine: 0, GenCol: 2}}, segs)
}

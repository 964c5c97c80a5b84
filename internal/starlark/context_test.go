package starlark

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"

	"github.com/leapstack-labs/leapmacro/pkg/macro"
	"github.com/leapstack-labs/leapmacro/pkg/sourcemap"
)

func TestAssetSink(t *testing.T) {
	sink := NewAssetSink()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			content := fmt.Sprint(i % 5)
			sink.Add(Asset{ID: AssetID("txt", content), Type: "txt", Content: content})
		}()
	}
	wg.Wait()

	assets := sink.Assets()
	assert.Len(t, assets, 5)

	assets[0].ID = "changed"
	assert.NotEqual(t, "changed", sink.Assets()[0].ID, "Assets returns a copy")
}

func TestAssetSinkFrom(t *testing.T) {
	assert.Nil(t, AssetSinkFrom(context.Background()))

	sink := NewAssetSink()
	assert.Same(t, sink, AssetSinkFrom(WithAssetSink(context.Background(), sink)))
}

// inlineMap splits content into the asset text and its decoded inline map.
func inlineMap(t *testing.T, content string) (string, *sourcemap.Map) {
	t.Helper()
	const prefix = "\n/*# sourceMappingURL=data:application/json;charset=utf-8;base64,"
	i := strings.LastIndex(content, prefix)
	require.GreaterOrEqual(t, i, 0, "no inline map in %q", content)
	encoded := strings.TrimSuffix(content[i+len(prefix):], " */")
	data, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	m, err := sourcemap.Parse(data)
	require.NoError(t, err)
	return content[:i], m
}

func TestAssetWithSourceMap(t *testing.T) {
	code := "import { css } from \"./s.star\" with { type: \"macro\" };\n  css();\n"

	tests := []struct {
		name    string
		content string
		loc     macro.Location
		want    []sourcemap.Segment
	}{
		{
			name:    "single line",
			content: "a { color: red }",
			loc:     macro.Location{Line: 2, Col: 2},
			want:    []sourcemap.Segment{{GenLine: 0, SrcLine: 1, SrcCol: 2}},
		},
		{
			name:    "every line maps to the call",
			content: "a {\n  color: red;\n}",
			loc:     macro.Location{Line: 2, Col: 2},
			want: []sourcemap.Segment{
				{GenLine: 0, SrcLine: 1, SrcCol: 2},
				{GenLine: 1, SrcLine: 1, SrcCol: 2},
				{GenLine: 2, SrcLine: 1, SrcCol: 2},
			},
		},
		{
			name:    "unknown location",
			content: "x",
			want:    []sourcemap.Segment{{GenLine: 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Asset{ID: AssetID("css", tt.content), Type: "css", Content: tt.content, Loc: tt.loc}
			got, err := a.WithSourceMap("src/app.ts", code)
			require.NoError(t, err)

			text, m := inlineMap(t, got)
			assert.Equal(t, tt.content, text)
			assert.Equal(t, []string{"src/app.ts"}, m.Sources)
			require.Len(t, m.SourcesContent, 1)
			require.NotNil(t, m.SourcesContent[0])
			assert.Equal(t, code, *m.SourcesContent[0])

			segs, err := m.Segments()
			require.NoError(t, err)
			assert.Equal(t, tt.want, segs)
		})
	}
}

func TestCall_RecordsCallLocation(t *testing.T) {
	fn := define(t, `
def emit():
    return add_asset("css", "body {}")
`, "emit")

	sink := NewAssetSink()
	loc := macro.Location{File: "app.ts", Line: 3, Col: 14}
	ctx := WithCallLocation(WithAssetSink(context.Background(), sink), loc)

	_, err := Call(ctx, &starlark.Thread{}, fn, nil)
	require.NoError(t, err)
	require.Len(t, sink.Assets(), 1)
	assert.Equal(t, loc, sink.Assets()[0].Loc)
}

// define executes src and returns the callable bound to name.
func define(t *testing.T, src, name string) starlark.Callable {
	t.Helper()
	g, err := starlark.ExecFile(&starlark.Thread{}, "defs.star", src, Predeclared()) //nolint:staticcheck // SA1019: will migrate to ExecFileOptions later
	require.NoError(t, err)
	fn, ok := g[name].(starlark.Callable)
	require.True(t, ok, "%s is not callable", name)
	return fn
}

func TestCall(t *testing.T) {
	fn := define(t, `
def double(x):
    return x * 2
`, "double")

	thread := &starlark.Thread{Name: "test"}
	v, err := Call(context.Background(), thread, fn, starlark.Tuple{starlark.MakeInt(21)})
	require.NoError(t, err)
	assert.Equal(t, starlark.MakeInt(42), v)
	assert.Nil(t, thread.Local(contextLocal), "context is cleared after the call")
}

func TestCall_Error(t *testing.T) {
	fn := define(t, `
def boom(x):
    fail("bad input: " + x)
`, "boom")

	_, err := Call(context.Background(), &starlark.Thread{}, fn, starlark.Tuple{starlark.String("q")})
	require.Error(t, err)

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "boom", callErr.Function)
	assert.Contains(t, callErr.Message, "bad input: q")
	assert.Contains(t, callErr.Backtrace, "defs.star")
	assert.Equal(t, "boom: "+callErr.Message, err.Error())
}

func TestCall_SeesContext(t *testing.T) {
	fn := define(t, `
def emit():
    return add_asset("css", "body {}")
`, "emit")

	sink := NewAssetSink()
	ctx := WithAssetSink(context.Background(), sink)

	v, err := Call(ctx, &starlark.Thread{}, fn, nil)
	require.NoError(t, err)
	assert.Equal(t, starlark.String(AssetID("css", "body {}")), v)
	assert.Len(t, sink.Assets(), 1)
}

func TestCall_Cancelled(t *testing.T) {
	spin := define(t, `
def spin():
    n = 0
    for i in range(1 << 40):
        n += i
    return n
`, "spin")
	quick := define(t, `
def quick():
    return "ok"
`, "quick")

	thread := &starlark.Thread{}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Call(ctx, thread, spin, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	v, err := Call(context.Background(), thread, quick, nil)
	require.NoError(t, err, "thread is reusable after cancellation")
	assert.Equal(t, starlark.String("ok"), v)
}

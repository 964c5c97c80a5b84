package commands

import (
	"errors"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmacro/internal/cli/output"
	clitestutil "github.com/leapstack-labs/leapmacro/internal/cli/testutil"
	"github.com/leapstack-labs/leapmacro/pkg/transform"
)

func sampleResults() []*FileResult {
	failed := &FileResult{Path: "src/bad.js", Dialect: "js"}
	failed.fail(&transform.Error{Text: "  × Error evaluating macro: boom\n"})
	return []*FileResult{
		{Path: "src/a.js", Dialect: "js", Status: StatusOK, Output: "dist/src/a.js", Assets: 2},
		{Path: "src/b.ts", Dialect: "ts", Status: StatusSkipped, Output: "dist/src/b.ts"},
		failed,
	}
}

func TestRenderTransform(t *testing.T) {
	cmdCtx, tr := newTestContext(t, t.TempDir())

	require.NoError(t, cmdCtx.renderTransform(sampleResults()))
	clitestutil.AssertOutputMode(t, tr, output.ModeMarkdown)

	out := tr.Output()
	assert.Contains(t, out, "- ✓ src/a.js  → dist/src/a.js (+2 assets)")
	assert.Contains(t, out, "- - src/b.ts  no macro import")
	assert.Contains(t, out, "- ✗ src/bad.js")
	assert.Contains(t, out, "1 transformed (0 cached), 1 skipped, 1 failed")
	assert.Equal(t, "  × Error evaluating macro: boom\n", tr.ErrorOutput())
}

func TestRenderTransform_JSON(t *testing.T) {
	cmdCtx, _ := newTestContext(t, t.TempDir())
	tr := clitestutil.NewTestRendererJSON()
	cmdCtx.Renderer = tr.Renderer

	require.NoError(t, cmdCtx.renderTransform(sampleResults()))
	clitestutil.AssertOutputMode(t, tr, output.ModeJSON)

	var got []map[string]any
	require.NoError(t, gojson.Unmarshal(tr.Out.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "ok", got[0]["status"])
	assert.InDelta(t, 2, got[0]["assets"], 0)
	assert.Equal(t, "failed", got[2]["status"])
	assert.Equal(t, "  × Error evaluating macro: boom\n", got[2]["error"])
	assert.NotContains(t, got[1], "error")
}

func TestRenderCheck(t *testing.T) {
	tr := clitestutil.NewTestRendererMarkdown()

	require.NoError(t, renderCheck(tr.Renderer, sampleResults()))
	clitestutil.AssertValidMarkdown(t, tr.Output())

	out := tr.Output()
	assert.Contains(t, out, "# Checked 3 files")
	assert.Contains(t, out, "| src/a.js | js | ok | 2 assets |")
	assert.Contains(t, out, "| src/b.ts | ts | skipped |")
	assert.Contains(t, out, "| src/bad.js | js | failed |")
	assert.NotContains(t, out, "0 skipped")
	assert.Contains(t, tr.ErrorOutput(), "boom")
}

func TestFileResultFail(t *testing.T) {
	res := &FileResult{Path: "a.js", Status: StatusOK}
	err := errors.New("nope")
	res.fail(err)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, "nope", res.Error)
	assert.Same(t, err, res.Err())
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "one", firstLine("one\ntwo"))
	assert.Equal(t, "only", firstLine("only"))
	assert.Empty(t, firstLine(""))
}

package output_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmacro/internal/cli/output"
)

func newRenderer(mode output.Mode, tty bool) (*output.Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return output.NewRendererWithTTY(out, errOut, tty, mode), out, errOut
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		mode output.Mode
		tty  bool
		want output.Mode
	}{
		{output.ModeAuto, true, output.ModeText},
		{output.ModeAuto, false, output.ModeMarkdown},
		{"", false, output.ModeMarkdown},
		{output.ModeJSON, true, output.ModeJSON},
		{output.ModeText, false, output.ModeText},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			r, _, _ := newRenderer(tt.mode, tt.tty)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestRenderer_Messages(t *testing.T) {
	r, out, errOut := newRenderer(output.ModeText, false)

	r.Header(1, "Title")
	r.Success("done")
	r.Muted("quiet")
	r.Warning("careful")
	r.Error("broken")

	assert.Equal(t, "Title\n✓ done\nquiet\n", out.String())
	assert.Equal(t, "! careful\n✗ broken\n", errOut.String())
}

func TestRenderer_StatusLine(t *testing.T) {
	tests := []struct {
		mode   output.Mode
		status string
		detail string
		want   string
	}{
		{output.ModeText, "success", "", "✓ a.js\n"},
		{output.ModeText, "skipped", "no macros", "- a.js  no macros\n"},
		{output.ModeText, "failed", "", "✗ a.js\n"},
		{output.ModeMarkdown, "warning", "", "- ! a.js\n"},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode)+"/"+tt.status, func(t *testing.T) {
			r, out, _ := newRenderer(tt.mode, false)
			r.StatusLine("a.js", tt.status, tt.detail)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestRenderer_MarkdownHeader(t *testing.T) {
	r, out, _ := newRenderer(output.ModeAuto, false)
	r.Header(2, "Files")
	assert.Equal(t, "## Files\n", out.String())
}

func TestRenderer_Table(t *testing.T) {
	t.Run("markdown", func(t *testing.T) {
		r, out, _ := newRenderer(output.ModeMarkdown, false)
		r.Table([]string{"File", "Status"}, [][]string{{"a.js", "ok"}})
		assert.Contains(t, out.String(), "| File | Status |")
		assert.Contains(t, out.String(), "| a.js | ok |")
	})

	t.Run("text", func(t *testing.T) {
		r, out, _ := newRenderer(output.ModeText, true)
		r.Table([]string{"File"}, [][]string{{"a.js"}})
		assert.Contains(t, out.String(), "┌")
		assert.Contains(t, out.String(), "a.js")
	})
}

func TestRenderer_JSON(t *testing.T) {
	r, out, _ := newRenderer(output.ModeJSON, false)
	require.NoError(t, r.JSON(map[string]int{"files": 2}))
	assert.Equal(t, "{\n  \"files\": 2\n}\n", out.String())
}

func TestUseColor(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, output.UseColor("always", &buf))
	assert.False(t, output.UseColor("never", &buf))
	assert.False(t, output.UseColor("auto", &buf), "a buffer is not a terminal")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "# A", output.FormatHeader(1, "A"))
	assert.Equal(t, "# A", output.FormatHeader(0, "A"))
	assert.Equal(t, "- **Files:** 3", output.FormatKeyValue("Files", "3"))
}

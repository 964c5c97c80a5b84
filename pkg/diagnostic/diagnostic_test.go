package diagnostic_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/leapstack-labs/leapmacro/pkg/diagnostic"
	"github.com/leapstack-labs/leapmacro/pkg/dialect"
	"github.com/leapstack-labs/leapmacro/pkg/macro"
	"github.com/leapstack-labs/leapmacro/pkg/parser"
	"github.com/leapstack-labs/leapmacro/pkg/source"
	"github.com/leapstack-labs/leapmacro/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(ls ...string) string {
	return strings.Join(ls, "\n") + "\n"
}

// spanOf returns the span of the first occurrence of sub in file.
func spanOf(t *testing.T, file *source.File, sub string) token.Span {
	t.Helper()
	i := strings.Index(file.Source(), sub)
	require.GreaterOrEqual(t, i, 0, "%q not found", sub)
	return token.NewSpan(file.Pos(i), file.Pos(i+len(sub)))
}

// ---------- Rendering ----------

func TestRenderParseError(t *testing.T) {
	sm := source.NewMap()
	file := sm.AddFile(source.RealFile("input.js"), "const x = ;")
	_, err := parser.ParseProgram(file, dialect.JS, nil)
	var perr *parser.Error
	require.ErrorAs(t, err, &perr)

	got := diagnostic.NewRenderer(sm).Render(diagnostic.FromParseError(perr))
	assert.Equal(t, lines(
		"  × Expression expected",
		"   ╭─[input.js:1:11]",
		" 1 │ const x = ;",
		"   ·           ─",
		"   ╰────",
	), got)
}

func TestRenderContextWindow(t *testing.T) {
	sm := source.NewMap()
	code := "a;\nb;\nc;\nd;\nbad;\nf;\ng;"
	file := sm.AddFile(source.RealFile("ctx.js"), code)

	tests := []struct {
		name    string
		context int
		want    string
	}{
		{
			name:    "one line",
			context: 1,
			want: lines(
				"  × nope",
				"   ╭─[ctx.js:5:1]",
				" 4 │ d;",
				" 5 │ bad;",
				"   · ───",
				" 6 │ f;",
				"   ╰────",
			),
		},
		{
			name:    "none",
			context: 0,
			want: lines(
				"  × nope",
				"   ╭─[ctx.js:5:1]",
				" 5 │ bad;",
				"   · ───",
				"   ╰────",
			),
		},
		{
			name:    "clamped",
			context: 10,
			want: lines(
				"  × nope",
				"   ╭─[ctx.js:5:1]",
				" 1 │ a;",
				" 2 │ b;",
				" 3 │ c;",
				" 4 │ d;",
				" 5 │ bad;",
				"   · ───",
				" 6 │ f;",
				" 7 │ g;",
				"   ╰────",
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := diagnostic.NewRenderer(sm)
			r.ContextLines = tt.context
			got := r.Render(diagnostic.Errorf(spanOf(t, file, "bad"), "nope"))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderDefaultContextIsThree(t *testing.T) {
	sm := source.NewMap()
	code := "1;\n2;\n3;\n4;\n5;\nx;\n7;\n8;\n9;\n10;\n11;"
	file := sm.AddFile(source.RealFile("n.js"), code)

	got := diagnostic.NewRenderer(sm).Render(diagnostic.Errorf(spanOf(t, file, "x"), "bad"))
	assert.Equal(t, lines(
		"  × bad",
		"   ╭─[n.js:6:1]",
		" 3 │ 3;",
		" 4 │ 4;",
		" 5 │ 5;",
		" 6 │ x;",
		"   · ─",
		" 7 │ 7;",
		" 8 │ 8;",
		" 9 │ 9;",
		"   ╰────",
	), got)
}

func TestRenderGutterWidth(t *testing.T) {
	sm := source.NewMap()
	code := strings.Repeat("a;\n", 9) + "bad;\nz;"
	file := sm.AddFile(source.RealFile("w.js"), code)

	r := diagnostic.NewRenderer(sm)
	r.ContextLines = 1
	got := r.Render(diagnostic.Errorf(spanOf(t, file, "bad"), "oops"))
	assert.Equal(t, lines(
		"  × oops",
		"    ╭─[w.js:10:1]",
		"  9 │ a;",
		" 10 │ bad;",
		"    · ───",
		" 11 │ z;",
		"    ╰────",
	), got)
}

func TestRenderTabsAndWideCharacters(t *testing.T) {
	sm := source.NewMap()
	file := sm.AddFile(source.RealFile("t.js"), "\tfoo(名前, bar);")

	r := diagnostic.NewRenderer(sm)
	got := r.Render(diagnostic.Errorf(spanOf(t, file, "bar"), "here"))
	assert.Equal(t, lines(
		"  × here",
		"   ╭─[t.js:1:10]",
		" 1 │     foo(名前, bar);",
		"   ·               ───",
		"   ╰────",
	), got)
}

func TestRenderLabelText(t *testing.T) {
	sm := source.NewMap()
	file := sm.AddFile(source.RealFile("l.js"), "call(value);")

	d := diagnostic.Diagnostic{
		Message: "bad argument",
		Labels:  []diagnostic.Label{{Span: spanOf(t, file, "value"), Text: "not static"}},
	}
	got := diagnostic.NewRenderer(sm).Render(d)
	assert.Equal(t, lines(
		"  × bad argument",
		"   ╭─[l.js:1:6]",
		" 1 │ call(value);",
		"   ·      ──┬──",
		"   ·        ╰── not static",
		"   ╰────",
	), got)
}

func TestRenderMultiLineSpan(t *testing.T) {
	sm := source.NewMap()
	file := sm.AddFile(source.RealFile("m.js"), "f(1,\n  2);")

	r := diagnostic.NewRenderer(sm)
	got := r.Render(diagnostic.Errorf(spanOf(t, file, "f(1,\n  2)"), "call"))
	assert.Equal(t, lines(
		"  × call",
		"   ╭─[m.js:1:1]",
		" 1 │ f(1,",
		"   · ────",
		" 2 │   2);",
		"   · ────",
		"   ╰────",
	), got)
}

func TestRenderEmptySpanAtEOF(t *testing.T) {
	sm := source.NewMap()
	file := sm.AddFile(source.RealFile("e.js"), "foo(1, 2")
	_, err := parser.ParseProgram(file, dialect.JS, nil)
	var perr *parser.Error
	require.ErrorAs(t, err, &perr)

	got := diagnostic.NewRenderer(sm).Render(diagnostic.FromParseError(perr))
	assert.Equal(t, lines(
		"  × Expected ',', got '<eof>'",
		"   ╭─[e.js:1:9]",
		" 1 │ foo(1, 2",
		"   ·         ─",
		"   ╰────",
	), got)
}

func TestRenderSkipsSyntheticUnits(t *testing.T) {
	sm := source.NewMap()
	file := sm.AddFile(source.RealFile("input.js"), "const v = m();")
	expansion := sm.AddFile(source.FileName{Kind: source.MacroExpansion}, "1 +")
	inExpansion := token.NewSpan(expansion.End(), expansion.End())

	r := diagnostic.NewRenderer(sm)

	t.Run("falls back to call site", func(t *testing.T) {
		d := diagnostic.Diagnostic{
			Message:  "Expression expected",
			Labels:   []diagnostic.Label{{Span: inExpansion}},
			Fallback: spanOf(t, file, "m()"),
		}
		got := r.Render(d)
		assert.Equal(t, lines(
			"  × Expression expected",
			"   ╭─[input.js:1:11]",
			" 1 │ const v = m();",
			"   ·           ───",
			"   ╰────",
		), got)
		assert.NotContains(t, got, "1 +")
		assert.NotContains(t, got, "macro-expansion")
	})

	t.Run("message only", func(t *testing.T) {
		got := r.Render(diagnostic.Diagnostic{
			Message: "Expression expected",
			Labels:  []diagnostic.Label{{Span: inExpansion}},
		})
		assert.Equal(t, "  × Expression expected\n", got)
	})

	t.Run("internal units", func(t *testing.T) {
		internal := sm.AddFile(source.FileName{Kind: source.Internal, Name: "runtime"}, "x")
		got := r.Render(diagnostic.Errorf(token.NewSpan(internal.Base(), internal.End()), "boom"))
		assert.Equal(t, "  × boom\n", got)
	})
}

func TestLocate(t *testing.T) {
	sm := source.NewMap()
	file := sm.AddFile(source.RealFile("input.js"), "const a = 1;\nconst 😀 = m(\n  2);")
	expansion := sm.AddFile(source.FileName{Kind: source.MacroExpansion}, "1 +")
	r := diagnostic.NewRenderer(sm)

	tests := []struct {
		name string
		d    diagnostic.Diagnostic
		want diagnostic.Location
		ok   bool
	}{
		{
			name: "first line",
			d:    diagnostic.Errorf(spanOf(t, file, "a = 1"), "boom"),
			want: diagnostic.Location{File: "input.js", Start: diagnostic.Point{Line: 0, Column: 6}, End: diagnostic.Point{Line: 0, Column: 11}},
			ok:   true,
		},
		{
			name: "utf16 columns across lines",
			d:    diagnostic.Errorf(spanOf(t, file, "m(\n  2)"), "boom"),
			want: diagnostic.Location{File: "input.js", Start: diagnostic.Point{Line: 1, Column: 11}, End: diagnostic.Point{Line: 2, Column: 4}},
			ok:   true,
		},
		{
			name: "fallback",
			d: diagnostic.Diagnostic{
				Labels:   []diagnostic.Label{{Span: token.NewSpan(expansion.Base(), expansion.End())}},
				Fallback: spanOf(t, file, "m("),
			},
			want: diagnostic.Location{File: "input.js", Start: diagnostic.Point{Line: 1, Column: 11}, End: diagnostic.Point{Line: 1, Column: 13}},
			ok:   true,
		},
		{
			name: "synthetic only",
			d:    diagnostic.Diagnostic{Labels: []diagnostic.Label{{Span: token.NewSpan(expansion.Base(), expansion.End())}}},
		},
		{
			name: "no labels",
			d:    diagnostic.Diagnostic{Message: "boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Locate(tt.d)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderMultiLineMessage(t *testing.T) {
	got := diagnostic.NewRenderer(nil).Render(diagnostic.Diagnostic{Message: "first\nsecond"})
	assert.Equal(t, "  × first\n    second\n", got)
}

func TestRenderSeverityGlyphs(t *testing.T) {
	r := diagnostic.NewRenderer(nil)
	assert.Equal(t, "  ⚠ careful\n", r.Render(diagnostic.Diagnostic{Severity: diagnostic.SeverityWarning, Message: "careful"}))
	assert.Equal(t, "  ☞ try this\n", r.Render(diagnostic.Diagnostic{Severity: diagnostic.SeverityAdvice, Message: "try this"}))
	assert.Equal(t, "warning", diagnostic.SeverityWarning.String())
}

func TestRenderColor(t *testing.T) {
	sm := source.NewMap()
	file := sm.AddFile(source.RealFile("c.js"), "bad;")

	r := diagnostic.NewRenderer(sm)
	plain := r.Render(diagnostic.Errorf(spanOf(t, file, "bad"), "oops"))
	assert.NotContains(t, plain, "\x1b[")

	r.Color = true
	colored := r.Render(diagnostic.Errorf(spanOf(t, file, "bad"), "oops"))
	assert.Contains(t, colored, "\x1b[")
	assert.Contains(t, colored, "oops")
}

// ---------- Conversions ----------

func TestFromMacroError(t *testing.T) {
	sm := source.NewMap()
	file := sm.AddFile(source.RealFile("input.js"), "m(a); n(); o(); p();")
	expansion := sm.AddFile(source.FileName{Kind: source.MacroExpansion}, "1 +")
	nested := &parser.Error{Span: token.NewSpan(expansion.End(), expansion.End()), Message: "Expression expected"}

	tests := []struct {
		name     string
		err      macro.Error
		message  string
		span     token.Span
		fallback token.Span
	}{
		{
			name:    "evaluation",
			err:     &macro.EvaluationError{At: spanOf(t, file, "a")},
			message: "Could not statically evaluate macro argument",
			span:    spanOf(t, file, "a"),
		},
		{
			name:    "load",
			err:     &macro.LoadError{Message: "missing", At: spanOf(t, file, "n()")},
			message: "Error loading macro: missing",
			span:    spanOf(t, file, "n()"),
		},
		{
			name:    "execution",
			err:     &macro.ExecutionError{Message: "boom", At: spanOf(t, file, "o()")},
			message: "Error evaluating macro: boom",
			span:    spanOf(t, file, "o()"),
		},
		{
			name:    "reference",
			err:     &macro.ReferenceError{Name: "m", At: spanOf(t, file, "m")},
			message: "Macro m can only be called",
			span:    spanOf(t, file, "m"),
		},
		{
			name:     "nested parse",
			err:      &macro.ParseError{Err: nested, CallSpan: spanOf(t, file, "p()")},
			message:  "Expression expected",
			span:     nested.Span,
			fallback: spanOf(t, file, "p()"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := diagnostic.FromMacroError(tt.err)
			assert.Equal(t, diagnostic.SeverityError, d.Severity)
			assert.Equal(t, tt.message, d.Message)
			require.Len(t, d.Labels, 1)
			assert.Equal(t, tt.span, d.Labels[0].Span)
			assert.Equal(t, tt.fallback, d.Fallback)
		})
	}
}

// ---------- Handler ----------

func TestHandlerAccumulatesReport(t *testing.T) {
	sm := source.NewMap()
	file := sm.AddFile(source.RealFile("h.js"), "a; b;")

	h := diagnostic.NewHandler(diagnostic.NewRenderer(sm))
	assert.False(t, h.HasErrors())
	h.Emit(diagnostic.Errorf(spanOf(t, file, "a"), "first"))
	h.Emit(diagnostic.Errorf(spanOf(t, file, "b"), "second"))
	h.Emit(diagnostic.Diagnostic{Severity: diagnostic.SeverityWarning, Message: "third"})

	assert.True(t, h.HasErrors())
	assert.Equal(t, 2, h.Count(diagnostic.SeverityError))
	assert.Equal(t, 1, h.Count(diagnostic.SeverityWarning))
	assert.Equal(t, lines(
		"  × first",
		"   ╭─[h.js:1:1]",
		" 1 │ a; b;",
		"   · ─",
		"   ╰────",
		"",
		"  × second",
		"   ╭─[h.js:1:4]",
		" 1 │ a; b;",
		"   ·    ─",
		"   ╰────",
		"",
		"  ⚠ third",
	), h.Report())
}

func TestHandlerConcurrentEmit(t *testing.T) {
	h := diagnostic.NewHandler(diagnostic.NewRenderer(nil))
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Emit(diagnostic.Diagnostic{Message: "x"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, h.Count(diagnostic.SeverityError))
	assert.Equal(t, 20, strings.Count(h.Report(), "× x"))
}

func TestLockedWriter(t *testing.T) {
	var w diagnostic.LockedWriter
	_, err := w.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, "abc", w.String())
}

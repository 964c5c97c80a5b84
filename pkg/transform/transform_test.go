package transform_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leapstack-labs/leapmacro/internal/testutil"
	"github.com/leapstack-labs/leapmacro/pkg/diagnostic"
	"github.com/leapstack-labs/leapmacro/pkg/dialect"
	"github.com/leapstack-labs/leapmacro/pkg/macro"
	"github.com/leapstack-labs/leapmacro/pkg/sourcemap"
	"github.com/leapstack-labs/leapmacro/pkg/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upper answers every macro call with its first argument upper-cased.
var upper = macro.CallbackFunc(func(_ context.Context, req *macro.Request) (string, error) {
	s, ok := req.Args[0].(macro.String)
	if !ok {
		return "", macro.ExecutionFailure("expected a string, got %s", req.Args[0].TypeOf())
	}
	return macro.Source(macro.String(strings.ToUpper(string(s)))), nil
})

const importUpper = `import { upper } from "./text" with { type: "macro" };` + "\n"

func transformErr(t *testing.T, err error) *transform.Error {
	t.Helper()
	var terr *transform.Error
	require.ErrorAs(t, err, &terr)
	return terr
}

// ---------- Transform ----------

func TestTransformWithoutMacros(t *testing.T) {
	res, err := transform.Transform(context.Background(), dialect.JS, "const x = 1 + 2;", nil,
		transform.WithFilename("input.js"),
		transform.WithLogger(testutil.NewTestLogger(t)))
	require.NoError(t, err)
	assert.Equal(t, "const x = 1 + 2;\n", res.Code)

	m, err := sourcemap.Parse([]byte(res.Map))
	require.NoError(t, err)
	assert.Equal(t, []string{"input.js"}, m.Sources)
	segs, err := m.Segments()
	require.NoError(t, err)
	assert.NotEmpty(t, segs)
}

func TestTransformParseFailure(t *testing.T) {
	_, err := transform.Transform(context.Background(), dialect.JS, "const x = ;", nil,
		transform.WithFilename("input.js"))

	terr := transformErr(t, err)
	assert.Equal(t, strings.Join([]string{
		"  × Expression expected",
		"   ╭─[input.js:1:11]",
		" 1 │ const x = ;",
		"   ·           ─",
		"   ╰────",
		"",
	}, "\n"), terr.Text)

	require.Len(t, terr.Problems, 1)
	p := terr.Problems[0]
	assert.Equal(t, "Expression expected", p.Message)
	require.NotNil(t, p.Location)
	assert.Equal(t, "input.js", p.Location.File)
	assert.Equal(t, diagnostic.Point{Line: 0, Column: 10}, p.Location.Start)
}

func TestTransformAnonymousInput(t *testing.T) {
	_, err := transform.Transform(context.Background(), dialect.JS, "const x = ;", nil)
	assert.Contains(t, transformErr(t, err).Text, "╭─[<anon>:1:11]")
}

func TestTransformExpandsMacros(t *testing.T) {
	code := importUpper + "const greeting = upper(\"hi\");\nconsole.log(greeting);"

	res, err := transform.Transform(context.Background(), dialect.JS, code, upper,
		transform.WithFilename("input.js"),
		transform.WithSourcesContent(true))
	require.NoError(t, err)
	assert.Equal(t, "const greeting = \"HI\";\nconsole.log(greeting);\n", res.Code)

	m, err := sourcemap.Parse([]byte(res.Map))
	require.NoError(t, err)
	assert.Equal(t, []string{"input.js"}, m.Sources, "macro expansions never appear as sources")
	require.Len(t, m.SourcesContent, 1)
	assert.Equal(t, code, *m.SourcesContent[0])

	segs, err := m.Segments()
	require.NoError(t, err)
	for _, s := range segs {
		assert.False(t, s.GenLine == 0 && s.GenCol == len(`const greeting = `),
			"the expansion must not map back to the input")
	}
}

func TestTransformMultiLineExpansionKeepsLaterMappings(t *testing.T) {
	build := macro.CallbackFunc(func(context.Context, *macro.Request) (string, error) {
		return "function () {\n  const n = 1;\n  return n;\n}", nil
	})
	code := `import { build } from "./make" with { type: "macro" };` + "\n" +
		"const make = build();\nconst a = 1;\nconst b = 2;"

	res, err := transform.Transform(context.Background(), dialect.JS, code, build,
		transform.WithFilename("input.js"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(res.Code, "\n"), "\n")
	require.Len(t, lines, 6, res.Code)
	assert.Equal(t, "const a = 1;", lines[4])
	assert.Equal(t, "const b = 2;", lines[5])

	m, err := sourcemap.Parse([]byte(res.Map))
	require.NoError(t, err)
	assert.Equal(t, []string{"input.js"}, m.Sources)

	segs, err := m.Segments()
	require.NoError(t, err)
	byLine := make(map[int][]sourcemap.Segment)
	for _, s := range segs {
		byLine[s.GenLine] = append(byLine[s.GenLine], s)
	}

	for line := 1; line <= 3; line++ {
		assert.Empty(t, byLine[line], "expansion line %d must not map to the input", line)
	}
	require.NotEmpty(t, byLine[0])
	assert.Equal(t, 1, byLine[0][0].SrcLine)
	for genLine, srcLine := range map[int]int{4: 2, 5: 3} {
		require.NotEmpty(t, byLine[genLine], "line %d", genLine)
		for _, s := range byLine[genLine] {
			assert.Equal(t, srcLine, s.SrcLine, "generated line %d", genLine)
		}
	}
}

func TestTransformBatchesMacroErrors(t *testing.T) {
	code := importUpper + strings.Join([]string{
		"const a = upper(unknown);",
		"const b = upper(\"ok\");",
		"const c = upper(1);",
	}, "\n")

	_, err := transform.Transform(context.Background(), dialect.JS, code, upper,
		transform.WithFilename("input.js"))

	terr := transformErr(t, err)
	text := terr.Text
	first := strings.Index(text, "Could not statically evaluate macro argument")
	second := strings.Index(text, "Error evaluating macro: expected a string, got number")
	require.NotEqual(t, -1, first, text)
	require.NotEqual(t, -1, second, text)
	assert.Less(t, first, second, "errors are reported in source order")
	assert.Equal(t, 2, strings.Count(text, "╭─[input.js:"))
	assert.Contains(t, text, " 2 │ const a = upper(unknown);")

	require.Len(t, terr.Problems, 2)
	for i, line := range []int{1, 3} {
		require.NotNil(t, terr.Problems[i].Location)
		assert.Equal(t, line, terr.Problems[i].Location.Start.Line)
	}
}

func TestTransformDialectGating(t *testing.T) {
	tests := []struct {
		name    string
		dialect *dialect.Dialect
		code    string
		ok      bool
	}{
		{"types in JS", dialect.JS, "let x: number = 1;", false},
		{"types in TS", dialect.TS, "let x: number = 1;", true},
		{"JSX in TS", dialect.TS, "const a = <div></div>;", false},
		{"JSX in TSX", dialect.TSX, "const a = <div></div>;", true},
		{"JSX in JSX", dialect.JSX, "const a = <div></div>;", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := transform.Transform(context.Background(), tt.dialect, tt.code, nil)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			transformErr(t, err)
		})
	}
}

func TestTransformKeepsTypeScript(t *testing.T) {
	res, err := transform.Transform(context.Background(), dialect.TS, "let x: number = 1;", nil)
	require.NoError(t, err)
	assert.Equal(t, "let x: number = 1;\n", res.Code)
}

func TestTransformDiagnosticOptions(t *testing.T) {
	code := "a;\nb;\nc = ;\nd;"

	_, err := transform.Transform(context.Background(), dialect.JS, code, nil,
		transform.WithContextLines(0))
	text := transformErr(t, err).Text
	assert.Contains(t, text, " 3 │ c = ;")
	assert.NotContains(t, text, " 2 │ b;")

	_, err = transform.Transform(context.Background(), dialect.JS, code, nil,
		transform.WithColor(true))
	assert.Contains(t, transformErr(t, err).Text, "\x1b[")
}

func TestTransformOutputIsStable(t *testing.T) {
	code := "function f(a) {\n    // note\n    return a ?? (b || c);\n}\n"
	res, err := transform.Transform(context.Background(), dialect.JS, code, nil)
	require.NoError(t, err)
	assert.Equal(t, code, res.Code)
}

// ---------- HasMacroImport ----------

func TestHasMacroImport(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{`import { a } from "./a" with { type: "macro" };`, true},
		{"import a from './a' with {type:'macro'}", true},
		{"import a from './a' with {\n  type: \"macro\"\n}", true},
		{`import a from "./a" with { "type": "macro" };`, true},
		{`import a from "./a" assert { type: "macro" };`, true},
		{`import a from "./a" with { type: "json" };`, false},
		{`import a from "./a";`, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, transform.HasMacroImport(tt.code))
		})
	}
}

// ---------- Pool ----------

func TestPoolRunsSubmissions(t *testing.T) {
	var active, peak atomic.Int32
	cb := macro.CallbackFunc(func(ctx context.Context, req *macro.Request) (string, error) {
		n := active.Add(1)
		defer active.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return upper.Call(ctx, req)
	})

	pool := transform.NewPool(3)
	assert.Equal(t, 3, pool.Workers())

	var futures []*transform.Future
	for range 12 {
		futures = append(futures, pool.Submit(context.Background(), dialect.JS,
			importUpper+"x = upper('a');", cb))
	}
	for _, f := range futures {
		res, err := f.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "x = \"A\";\n", res.Code)
	}
	pool.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestPoolDefaults(t *testing.T) {
	pool := transform.NewPool(1, transform.WithFilename("default.js"))

	res, err := pool.Submit(context.Background(), dialect.JS, "x;", nil).Wait(context.Background())
	require.NoError(t, err)
	assert.Contains(t, res.Map, `"sources":["default.js"]`)

	res, err = pool.Submit(context.Background(), dialect.JS, "x;", nil,
		transform.WithFilename("override.js")).Wait(context.Background())
	require.NoError(t, err)
	assert.Contains(t, res.Map, `"sources":["override.js"]`)
}

func TestPoolRejectsCancelledSubmission(t *testing.T) {
	pool := transform.NewPool(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := pool.Submit(ctx, dialect.JS, "x;", nil)
	<-f.Done()
	_, err := f.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPoolCancelWhileQueued(t *testing.T) {
	pool := transform.NewPool(1)
	release := make(chan struct{})
	started := make(chan struct{})
	blocking := macro.CallbackFunc(func(ctx context.Context, req *macro.Request) (string, error) {
		close(started)
		<-release
		return upper.Call(ctx, req)
	})

	running := pool.Submit(context.Background(), dialect.JS, importUpper+"x = upper('a');", blocking)
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	queued := pool.Submit(ctx, dialect.JS, "y;", nil)
	cancel()
	_, err := queued.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	res, err := running.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x = \"A\";\n", res.Code)
	pool.Wait()
}

func TestPoolRunningInvocationIgnoresCancel(t *testing.T) {
	pool := transform.NewPool(1)
	release := make(chan struct{})
	started := make(chan struct{})
	var sawCancel atomic.Bool
	blocking := macro.CallbackFunc(func(ctx context.Context, req *macro.Request) (string, error) {
		close(started)
		<-release
		sawCancel.Store(ctx.Err() != nil)
		return upper.Call(ctx, req)
	})

	ctx, cancel := context.WithCancel(context.Background())
	f := pool.Submit(ctx, dialect.JS, importUpper+"x = upper('a');", blocking)
	<-started
	cancel()

	waitCtx, waitCancel := context.WithCancel(context.Background())
	waitCancel()
	_, err := f.Wait(waitCtx)
	assert.ErrorIs(t, err, context.Canceled, "giving up on a future does not resolve it")

	close(release)
	res, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x = \"A\";\n", res.Code)
	assert.False(t, sawCancel.Load())
	pool.Wait()
}

func TestPoolResolvesWhenHandleStopped(t *testing.T) {
	h := macro.NewHandle()
	serveCtx, stop := context.WithCancel(context.Background())
	stop()
	require.ErrorIs(t, h.Serve(serveCtx, upper), context.Canceled)

	pool := transform.NewPool(1)
	f := pool.Submit(context.Background(), dialect.JS, importUpper+"upper('a');", h)

	waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := f.Wait(waitCtx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, res)
	assert.Contains(t, transformErr(t, err).Text, macro.ErrHandleClosed.Error())
	pool.Wait()
}

func TestPoolConcurrentFailuresStayIsolated(t *testing.T) {
	pool := transform.NewPool(4)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code := "const x = ;"
			if i%2 == 0 {
				code = "const x = 1;"
			}
			res, err := pool.Submit(context.Background(), dialect.JS, code, nil).Wait(context.Background())
			if i%2 == 0 {
				assert.NoError(t, err)
				assert.Equal(t, "const x = 1;\n", res.Code)
				return
			}
			var terr *transform.Error
			assert.True(t, errors.As(err, &terr))
			assert.Equal(t, 1, strings.Count(terr.Text, "Expression expected"))
		}()
	}
	wg.Wait()
	pool.Wait()
}

package macro_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/leapstack-labs/leapmacro/pkg/ast"
	"github.com/leapstack-labs/leapmacro/pkg/dialect"
	"github.com/leapstack-labs/leapmacro/pkg/macro"
	"github.com/leapstack-labs/leapmacro/pkg/parser"
	"github.com/leapstack-labs/leapmacro/pkg/resolver"
	"github.com/leapstack-labs/leapmacro/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a callback that upper-cases its first argument and records
// every request.
type recorder struct {
	mu       sync.Mutex
	requests []*macro.Request
	respond  func(req *macro.Request) (string, error)
}

func (r *recorder) Call(_ context.Context, req *macro.Request) (string, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	if r.respond != nil {
		return r.respond(req)
	}
	s, _ := macro.ToString(req.Args[0])
	return macro.Source(macro.String(strings.ToUpper(s))), nil
}

type expansion struct {
	prog ast.Program
	file *source.File
	sm   *source.Map
	errs []macro.Error
}

func expand(t *testing.T, d *dialect.Dialect, code string, cb macro.Callback) *expansion {
	t.Helper()
	sm := source.NewMap()
	file := sm.AddFile(source.RealFile("input"+d.DefaultExtension()), code)
	prog, err := parser.ParseProgram(file, d, nil)
	require.NoError(t, err)
	marks := resolver.NewMarks(nil)
	resolver.Resolve(prog, marks)

	var errs []macro.Error
	macro.Expand(context.Background(), prog, macro.Config{
		Callback:   cb,
		Dialect:    d,
		Sources:    sm,
		Unresolved: marks.Unresolved,
	}, &errs)
	return &expansion{prog: prog, file: file, sm: sm, errs: errs}
}

func (x *expansion) body() []ast.ModuleItem {
	return ast.NormalizeModule(x.prog).Body
}

// ---------- Expansion ----------

func TestExpandReplacesCall(t *testing.T) {
	cb := &recorder{}
	code := "import { upper as up } from './text' with { type: 'macro' };\nconst x = up('hello', 1);"
	x := expand(t, dialect.JS, code, cb)
	require.Empty(t, x.errs)

	body := x.body()
	require.Len(t, body, 1, "macro import is removed")
	decl := body[0].(*ast.VarDecl)
	str, ok := decl.Decls[0].Init.(*ast.Str)
	require.True(t, ok)
	assert.Equal(t, "HELLO", str.Value)
	assert.True(t, x.sm.IsSynthetic(str.Span.Lo))

	require.Len(t, cb.requests, 1)
	req := cb.requests[0]
	assert.Equal(t, macro.Identity{Source: "./text", Export: "upper"}, req.Macro)
	assert.Equal(t, []macro.Value{macro.String("hello"), macro.Number(1)}, req.Args)
	assert.Equal(t, "up('hello', 1)", x.file.Slice(req.Span))
	assert.Equal(t, macro.Location{File: "input.js", Line: 2, Col: 10}, req.Loc)
}

func TestExpandImportForms(t *testing.T) {
	cb := &recorder{respond: func(*macro.Request) (string, error) { return "0", nil }}
	code := `import def from "./a" with { type: "macro" };
import * as ns from "./b" assert { type: "macro" };
import { keep } from "./c";
def(); ns.named(); ns["computed"](); keep();`
	x := expand(t, dialect.JS, code, cb)
	require.Empty(t, x.errs)

	var got []macro.Identity
	for _, req := range cb.requests {
		got = append(got, req.Macro)
	}
	assert.Equal(t, []macro.Identity{
		{Source: "./a", Export: "default"},
		{Source: "./b", Export: "named"},
		{Source: "./b", Export: "computed"},
	}, got)

	body := x.body()
	require.Len(t, body, 5)
	imp, ok := body[0].(*ast.ImportDecl)
	require.True(t, ok)
	assert.Equal(t, "./c", imp.Src.Value)
}

func TestExpandRespectsShadowing(t *testing.T) {
	cb := &recorder{}
	code := "import { upper } from './m' with { type: 'macro' };\nfunction f(upper) { return upper('x'); }\nupper('y');"
	x := expand(t, dialect.JS, code, cb)
	require.Empty(t, x.errs)

	require.Len(t, cb.requests, 1)
	assert.Equal(t, []macro.Value{macro.String("y")}, cb.requests[0].Args)
}

func TestExpandNestedCallsInnerFirst(t *testing.T) {
	cb := &recorder{respond: func(req *macro.Request) (string, error) {
		s, _ := macro.ToString(req.Args[0])
		return macro.Source(macro.String(s + "!")), nil
	}}
	code := "import { bang } from './m' with { type: 'macro' };\nconst v = bang(bang('a') + 'b');"
	x := expand(t, dialect.JS, code, cb)
	require.Empty(t, x.errs)

	require.Len(t, cb.requests, 2)
	assert.Equal(t, macro.String("a"), cb.requests[0].Args[0])
	assert.Equal(t, macro.String("a!b"), cb.requests[1].Args[0])
	init := x.body()[0].(*ast.VarDecl).Decls[0].Init.(*ast.Str)
	assert.Equal(t, "a!b!", init.Value)
}

func TestExpandEvaluatesConstsThroughExpansions(t *testing.T) {
	cb := &recorder{}
	code := "import { upper } from './m' with { type: 'macro' };\nconst c = upper('a');\nconst d = upper(c + 'b');"
	x := expand(t, dialect.JS, code, cb)
	require.Empty(t, x.errs)

	require.Len(t, cb.requests, 2)
	assert.Equal(t, macro.String("Ab"), cb.requests[1].Args[0])
}

func TestExpandTypeScriptConstAssertion(t *testing.T) {
	cb := &recorder{}
	code := "import { css } from '../macro' with {type: 'macro'};\nconst color = 'blue' as const;\nexport const cls = css('color: ' + color);"
	x := expand(t, dialect.TSX, code, cb)
	require.Empty(t, x.errs)
	require.Len(t, cb.requests, 1)
	assert.Equal(t, macro.String("color: blue"), cb.requests[0].Args[0])
}

// ---------- Failures ----------

func TestExpandBatchesErrorsInOrder(t *testing.T) {
	cb := &recorder{respond: func(req *macro.Request) (string, error) {
		switch req.Macro.Export {
		case "missing":
			return "", macro.LoadFailure(`"./m" does not export "missing".`)
		case "boom":
			return "", macro.ExecutionFailure("kaboom")
		case "plain":
			return "", errors.New("plain error")
		case "bad":
			return "1 +", nil
		}
		return "42", nil
	}}
	code := `import { ok, missing, boom, plain, bad } from "./m" with { type: "macro" };
ok(unknown);
missing();
ok();
boom();
plain();
bad();`
	x := expand(t, dialect.JS, code, cb)
	require.Len(t, x.errs, 5)

	evalErr, ok := x.errs[0].(*macro.EvaluationError)
	require.True(t, ok)
	assert.Equal(t, "unknown", x.file.Slice(evalErr.Span()))

	loadErr, ok := x.errs[1].(*macro.LoadError)
	require.True(t, ok)
	assert.Equal(t, `Error loading macro: "./m" does not export "missing".`, loadErr.Error())
	assert.Equal(t, "missing()", x.file.Slice(loadErr.Span()))

	execErr, ok := x.errs[2].(*macro.ExecutionError)
	require.True(t, ok)
	assert.Equal(t, "Error evaluating macro: kaboom", execErr.Error())

	plainErr, ok := x.errs[3].(*macro.ExecutionError)
	require.True(t, ok)
	assert.Equal(t, "plain error", plainErr.Message)

	parseErr, ok := x.errs[4].(*macro.ParseError)
	require.True(t, ok)
	assert.Equal(t, "Expression expected", parseErr.Err.Message)
	assert.Equal(t, "bad()", x.file.Slice(parseErr.CallSpan))
	assert.True(t, x.sm.IsSynthetic(parseErr.Span().Lo))

	// only the successful site was replaced; failures stay as written
	body := x.body()
	require.Len(t, body, 6)
	_, replaced := body[2].(*ast.ExprStmt).Expr.(*ast.Num)
	assert.True(t, replaced)
	for _, i := range []int{0, 1, 3, 4, 5} {
		_, isCall := body[i].(*ast.ExprStmt).Expr.(*ast.CallExpr)
		assert.True(t, isCall, "statement %d", i)
	}
}

func TestExpandWithoutMacroImportsIsNoop(t *testing.T) {
	cb := &recorder{}
	x := expand(t, dialect.JS, "import { upper } from './m';\nupper('a');", cb)
	assert.Empty(t, x.errs)
	assert.Empty(t, cb.requests)
	assert.Len(t, x.body(), 2)

	x = expand(t, dialect.JS, "upper('a');", cb)
	assert.Empty(t, x.errs)
	assert.Empty(t, cb.requests)
}

func TestExpandRejectsNonCallReferences(t *testing.T) {
	cb := &recorder{}
	code := "import { upper } from './m' with { type: 'macro' };\n" +
		"const f = upper;\n" +
		"const o = { upper };\n" +
		"upper?.('a');\n" +
		"upper('b');"
	x := expand(t, dialect.JS, code, cb)

	require.Len(t, cb.requests, 1)
	assert.Equal(t, []macro.Value{macro.String("b")}, cb.requests[0].Args)

	require.Len(t, x.errs, 3)
	for i, line := range []int{2, 3, 4} {
		refErr, ok := x.errs[i].(*macro.ReferenceError)
		require.True(t, ok, "error %d is %T", i, x.errs[i])
		assert.Equal(t, "Macro upper can only be called", refErr.Error())
		assert.Equal(t, "upper", x.file.Slice(refErr.Span()))
		_, pos, ok := x.sm.Lookup(refErr.Span().Lo)
		require.True(t, ok)
		assert.Equal(t, line, pos.Line)
	}
}

func TestExpandAllowsShadowedNonCallReferences(t *testing.T) {
	cb := &recorder{}
	code := "import { upper } from './m' with { type: 'macro' };\nfunction g(upper) { return upper; }\nupper('x');"
	x := expand(t, dialect.JS, code, cb)
	assert.Empty(t, x.errs)
	assert.Len(t, cb.requests, 1)
}

func TestIsMacroImport(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{`import a from "a" with { type: "macro" };`, true},
		{`import a from "a" with { "type": "macro" };`, true},
		{`import a from "a" assert { type: "macro" };`, true},
		{`import a from "a" with { type: "json" };`, false},
		{`import a from "a";`, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			sm := source.NewMap()
			file := sm.AddFile(source.RealFile("input.js"), tt.code)
			prog, err := parser.ParseProgram(file, dialect.JS, nil)
			require.NoError(t, err)
			decl := prog.(*ast.Module).Body[0].(*ast.ImportDecl)
			assert.Equal(t, tt.want, macro.IsMacroImport(decl))
		})
	}
}

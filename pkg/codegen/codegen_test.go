package codegen_test

import (
	"testing"

	"github.com/leapstack-labs/leapmacro/pkg/ast"
	"github.com/leapstack-labs/leapmacro/pkg/codegen"
	"github.com/leapstack-labs/leapmacro/pkg/dialect"
	"github.com/leapstack-labs/leapmacro/pkg/parser"
	"github.com/leapstack-labs/leapmacro/pkg/source"
	"github.com/leapstack-labs/leapmacro/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emit(t *testing.T, d *dialect.Dialect, code string) (string, []codegen.Mapping, *source.File) {
	t.Helper()
	sm := source.NewMap()
	file := sm.AddFile(source.RealFile("input"+d.DefaultExtension()), code)
	comments := ast.NewComments()
	prog, err := parser.ParseProgram(file, d, comments)
	require.NoError(t, err, "parsing %q", code)
	out, mappings, err := codegen.Emit(ast.NormalizeModule(prog), codegen.Config{Comments: comments})
	require.NoError(t, err)
	return out, mappings, file
}

// ---------- Statements ----------

func TestEmitStatements(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"binary", "const x = 1 + 2;", "const x = 1 + 2;\n"},
		{"reformats spacing", "let  a=b*(c+d)", "let a = b * (c + d);\n"},
		{"multiple declarators", "var a=1,b", "var a = 1, b;\n"},
		{"function", "function f(a,b){return a+b}", "function f(a, b) {\n    return a + b;\n}\n"},
		{"empty function", "function f(){}", "function f() {}\n"},
		{"if else", "if(a){b()}else{c()}", "if (a) {\n    b();\n} else {\n    c();\n}\n"},
		{"else if", "if(a)b();else if(c)d()", "if (a)\n    b();\nelse if (c)\n    d();\n"},
		{"for", "for(let i=0;i<n;i++){}", "for (let i = 0; i < n; i++) {}\n"},
		{"for of", "for(const x of xs)f(x)", "for (const x of xs)\n    f(x);\n"},
		{"while", "while(x)x--", "while (x)\n    x--;\n"},
		{"return nothing", "function f(){return}", "function f() {\n    return;\n}\n"},
		{"object", "x={a:1,b}", "x = { a: 1, b };\n"},
		{"empty object", "x={}", "x = {};\n"},
		{"array holes", "x=[1,,2,]", "x = [1, , 2];\n"},
		{"arrow", "const f=(a)=>a*2", "const f = (a) => a * 2;\n"},
		{"arrow returning object", "const f=()=>({a:1})", "const f = () => ({ a: 1 });\n"},
		{"arrow argument", "p.then((m)=>m)", "p.then((m) => m);\n"},
		{"arrow callee", "((a)=>a)(1)", "((a) => a)(1);\n"},
		{"arrow in logical", "x=a||((b)=>b)", "x = a || ((b) => b);\n"},
		{"yield assignment", "function* g(){x=yield y}", "function* g() {\n    x = yield y;\n}\n"},
		{"template", "x=`a${b}c`", "x = `a${b}c`;\n"},
		{"string raw kept", "x='single'", "x = 'single';\n"},
		{"optional chain", "a?.b?.(c)", "a?.b?.(c);\n"},
		{"new", "new Foo(1)", "new Foo(1);\n"},
		{"conditional", "x=a?b:c", "x = a ? b : c;\n"},
		{"switch", "switch(x){case 1:a();break;default:b()}", "switch (x) {\n    case 1:\n        a();\n        break;\n    default:\n        b();\n}\n"},
		{"try", "try{a()}catch(e){b()}finally{c()}", "try {\n    a();\n} catch (e) {\n    b();\n} finally {\n    c();\n}\n"},
		{"class", "class A extends B{constructor(){super()}get x(){return 1}}", "class A extends B {\n    constructor() {\n        super();\n    }\n    get x() {\n        return 1;\n    }\n}\n"},
		{"import", "import a,{b as c} from 'm'", "import a, { b as c } from 'm';\n"},
		{"import namespace", "import * as ns from \"m\"", "import * as ns from \"m\";\n"},
		{"export const", "export const x=1", "export const x = 1;\n"},
		{"export default expr", "export default a+b", "export default a + b;\n"},
		{"shebang", "#!/usr/bin/env node\nx", "#!/usr/bin/env node\nx;\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, _ := emit(t, dialect.JS, tt.code)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ---------- TypeScript ----------

func TestEmitTypeScript(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"annotations", "let x:number=1", "let x: number = 1;\n"},
		{"type alias union", "type T=A|B[]", "type T = A | B[];\n"},
		{"parenthesized union in array", "type T=(A|B)[]", "type T = (A | B)[];\n"},
		{"generic function", "function f<T>(x:T):T{return x}", "function f<T>(x: T): T {\n    return x;\n}\n"},
		{"interface", "interface I{a:string;b?:number}", "interface I {\n    a: string;\n    b?: number;\n}\n"},
		{"enum", "enum E{A,B=2}", "enum E {\n    A,\n    B = 2,\n}\n"},
		{"as const", "const x=[1] as const", "const x = [1] as const;\n"},
		{"non null", "a!.b", "a!.b;\n"},
		{"type literal", "let o:{a:1}", "let o: { a: 1; };\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, _ := emit(t, dialect.TS, tt.code)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ---------- JSX ----------

func TestEmitJSX(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"self closing", "x=<a/>", "x = <a />;\n"},
		{"attributes", "x=<a b=\"c\" d={e} f/>", "x = <a b=\"c\" d={e} f />;\n"},
		{"children", "x=<A.B>hi {name}</A.B>", "x = <A.B>hi {name}</A.B>;\n"},
		{"fragment", "x=<><b/></>", "x = <><b /></>;\n"},
		{"spread", "x=<a {...p}/>", "x = <a {...p} />;\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, _ := emit(t, dialect.JSX, tt.code)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ---------- Round Trip ----------

func TestEmitIsStable(t *testing.T) {
	tests := []struct {
		dialect *dialect.Dialect
		code    string
	}{
		{dialect.JS, "async function* g(a = 1, ...rest) { for await (const x of y) yield* x; }"},
		{dialect.JS, "label: for (;;) { if (a) continue label; else break; }"},
		{dialect.JS, "const { a, b: [c = 1], ...d } = obj;"},
		{dialect.JS, "x = (a, b) => { return typeof a === 'string' ? -(-a) : void 0; };"},
		{dialect.JS, "class C { #p = 1; static { init(); } static async *m() {} }"},
		{dialect.JS, "a = b ?? (c || d); e = (f && g) ?? h; i = (-1) ** 2;"},
		{dialect.JS, "new (foo())(); new (a.b().c)(); (function () {})(); ({}).x;"},
		{dialect.JS, "for (const k in (a in b ? o : p)) {} do x++; while (x < 3);"},
		{dialect.TS, "abstract class A<T extends object = {}> implements I { private readonly x?: T; abstract m(): void; }"},
		{dialect.TS, "type M<T> = { readonly [K in keyof T]?: T[K] extends infer U ? U : never };"},
		{dialect.TS, "declare module \"m\" { export function f(): void; } namespace A.B { const x = 1; }"},
		{dialect.TS, "const f = <T,>(x: T): x is T => true; let t: [a: string, b?: number, ...c: boolean[]];"},
		{dialect.TSX, "const el = <Foo<string> bar={1}>{/* note */}</Foo>;"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			first, _, _ := emit(t, tt.dialect, tt.code)
			second, _, _ := emit(t, tt.dialect, first)
			assert.Equal(t, first, second)
		})
	}
}

// ---------- Synthesized Trees ----------

func id(name string) *ast.Ident { return &ast.Ident{Name: name} }

func TestEmitExprParenthesizesByPrecedence(t *testing.T) {
	tests := []struct {
		name string
		expr ast.Expr
		want string
	}{
		{
			name: "lower precedence left operand",
			expr: &ast.BinExpr{Op: token.STAR, Left: &ast.BinExpr{Op: token.PLUS, Left: id("a"), Right: id("b")}, Right: id("c")},
			want: "(a + b) * c",
		},
		{
			name: "left associative right operand",
			expr: &ast.BinExpr{Op: token.MINUS, Left: id("a"), Right: &ast.BinExpr{Op: token.MINUS, Left: id("b"), Right: id("c")}},
			want: "a - (b - c)",
		},
		{
			name: "nullish mixed with logical",
			expr: &ast.BinExpr{Op: token.QUESTION_QUESTION, Left: &ast.BinExpr{Op: token.PIPE_PIPE, Left: id("a"), Right: id("b")}, Right: id("c")},
			want: "(a || b) ?? c",
		},
		{
			name: "unary base of exponent",
			expr: &ast.BinExpr{Op: token.STAR_STAR, Left: &ast.UnaryExpr{Op: token.MINUS, Arg: id("a")}, Right: id("b")},
			want: "(-a) ** b",
		},
		{
			name: "double negation",
			expr: &ast.UnaryExpr{Op: token.MINUS, Arg: &ast.UnaryExpr{Op: token.MINUS, Arg: id("a")}},
			want: "- -a",
		},
		{
			name: "sequence as argument",
			expr: &ast.CallExpr{Callee: id("f"), Args: []ast.Expr{&ast.SeqExpr{Exprs: []ast.Expr{id("a"), id("b")}}}},
			want: "f((a, b))",
		},
		{
			name: "conditional as member object",
			expr: &ast.MemberExpr{Object: &ast.CondExpr{Test: id("a"), Cons: id("b"), Alt: id("c")}, Property: id("d")},
			want: "(a ? b : c).d",
		},
		{
			name: "integer member access",
			expr: &ast.MemberExpr{Object: &ast.Num{Value: 1}, Property: id("toString")},
			want: "(1).toString",
		},
		{
			name: "synthesized string is quoted",
			expr: &ast.Str{Value: "it's \"q\"\n"},
			want: `"it's \"q\"\n"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := codegen.EmitExpr(tt.expr, codegen.Config{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmitReplacedStatementExpression(t *testing.T) {
	m := &ast.Module{Body: []ast.ModuleItem{
		&ast.ExprStmt{Expr: &ast.ObjectLit{}},
		&ast.ExprStmt{Expr: &ast.FnExpr{Function: &ast.Function{Body: &ast.BlockStmt{}}}},
	}}

	got, mappings, err := codegen.Emit(m, codegen.Config{})
	require.NoError(t, err)
	assert.Equal(t, "({});\n(function() {});\n", got)
	assert.Empty(t, mappings)
}

func TestEmitRejectsUnknownNodes(t *testing.T) {
	_, err := codegen.EmitExpr(&ast.JSXText{Raw: "x"}, codegen.Config{})
	var cerr *codegen.Error
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, err.Error(), "*ast.JSXText")

	_, _, err = codegen.Emit(nil, codegen.Config{})
	assert.Error(t, err)
}

func TestEmitIndent(t *testing.T) {
	sm := source.NewMap()
	file := sm.AddFile(source.RealFile("a.js"), "if (a) { b(); }")
	prog, err := parser.ParseProgram(file, dialect.JS, nil)
	require.NoError(t, err)

	got, _, err := codegen.Emit(ast.NormalizeModule(prog), codegen.Config{Indent: "\t"})
	require.NoError(t, err)
	assert.Equal(t, "if (a) {\n\tb();\n}\n", got)
}

// ---------- Comments ----------

func TestEmitComments(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"leading and trailing", "// lead\nconst x = 1; // trail", "// lead\nconst x = 1; // trail\n"},
		{"block leading", "/* a */ f();", "/* a */\nf();\n"},
		{"end of file", "x;\n/* end */", "x;\n/* end */\n"},
		{"end of block", "function f() {\n  a();\n  // done\n}", "function f() {\n    a();\n    // done\n}\n"},
		{"inline block comment", "f(/* arg */ a);", "f(/* arg */ a);\n"},
		{"pure annotation", "x = /*#__PURE__*/ f();", "x = /*#__PURE__*/ f();\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, _ := emit(t, dialect.JS, tt.code)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ---------- Mappings ----------

func TestEmitMappings(t *testing.T) {
	_, mappings, file := emit(t, dialect.JS, "let  a=b\nfoo(a)")

	assert.Contains(t, mappings, codegen.Mapping{Src: file.Pos(0), GenLine: 0, GenCol: 0})
	assert.Contains(t, mappings, codegen.Mapping{Src: file.Pos(5), GenLine: 0, GenCol: 4})
	assert.Contains(t, mappings, codegen.Mapping{Src: file.Pos(7), GenLine: 0, GenCol: 8})
	assert.Contains(t, mappings, codegen.Mapping{Src: file.Pos(9), GenLine: 1, GenCol: 0})
	assert.Contains(t, mappings, codegen.Mapping{Src: file.Pos(13), GenLine: 1, GenCol: 4})

	for i := 1; i < len(mappings); i++ {
		prev, cur := mappings[i-1], mappings[i]
		ordered := cur.GenLine > prev.GenLine || cur.GenLine == prev.GenLine && cur.GenCol > prev.GenCol
		assert.True(t, ordered, "mapping %d out of order: %+v after %+v", i, cur, prev)
	}
}

func TestEmitMappingsCountUTF16(t *testing.T) {
	_, mappings, file := emit(t, dialect.JS, "x = '😀' + y")

	// y follows a surrogate pair, which counts as two columns.
	assert.Contains(t, mappings, codegen.Mapping{Src: file.Pos(len("x = '😀' + ")), GenLine: 0, GenCol: 11})
}

// ---------- Writer ----------

func TestWriter(t *testing.T) {
	w := codegen.NewWriter("  ")
	w.Write("a {")
	w.Writeln()
	w.Indent()
	w.Mark(token.Pos(10))
	w.Mark(token.Pos(11))
	w.Write("b\r\nc")
	w.Dedent()
	w.Dedent()
	w.Writeln()
	w.Write("}")

	assert.Equal(t, "a {\n  b\r\nc\n}", w.String())
	assert.Equal(t, 3, w.Line())
	assert.Equal(t, []codegen.Mapping{{Src: 10, GenLine: 1, GenCol: 2}}, w.Mappings())
	assert.False(t, w.AtLineStart())

	w.Mark(token.NoPos)
	assert.Len(t, w.Mappings(), 1)
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", `"plain"`},
		{`a"b`, `"a\"b"`},
		{"a\\b", `"a\\b"`},
		{"line\nbreak\ttab", `"line\nbreak\ttab"`},
		{"\x00", `"\x00"`},
		{"\u2028", `"\u2028"`},
		{"a\u2029b", `"a\u2029b"`},
		{"\x7f", `"\x7f"`},
		{"é😀", `"é😀"`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, codegen.Quote(tt.in))
		})
	}
}

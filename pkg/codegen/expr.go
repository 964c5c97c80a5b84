package codegen

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapmacro/pkg/ast"
	"github.com/leapstack-labs/leapmacro/pkg/token"
)

// expr prints x, parenthesized when it binds looser than prec.
func (e *emitter) expr(x ast.Expr, prec int) {
	if x == nil {
		e.fail(x)
	}
	if ast.Precedence(x) < prec {
		e.parenthesized(x)
		return
	}
	span := x.GetSpan()
	e.leadingComments(span.Lo, true)
	e.w.Mark(span.Lo)
	e.exprInner(x)
	e.trailingComments(span.Hi, true)
}

// exprForce prints x in parentheses when force is set, else as expr does.
func (e *emitter) exprForce(x ast.Expr, prec int, force bool) {
	if force {
		e.parenthesized(x)
		return
	}
	e.expr(x, prec)
}

func (e *emitter) parenthesized(x ast.Expr) {
	e.w.Write("(")
	e.expr(x, ast.PrecLowest)
	e.w.Write(")")
}

func (e *emitter) exprInner(x ast.Expr) {
	switch x := x.(type) {
	case *ast.Ident:
		e.w.Write(x.Name)
	case *ast.PrivateName:
		e.w.Write("#" + x.Name)
	case *ast.ThisExpr:
		e.w.Write("this")
	case *ast.SuperExpr:
		e.w.Write("super")
	case *ast.ImportExpr:
		e.w.Write("import")
	case *ast.MetaProp:
		e.w.Write(x.Meta + "." + x.Property)
	case *ast.Str:
		e.str(x)
	case *ast.Num:
		e.w.Write(numberText(x))
	case *ast.BigInt:
		e.w.Write(x.Raw)
	case *ast.Bool:
		e.w.Write(strconv.FormatBool(x.Value))
	case *ast.Null:
		e.w.Write("null")
	case *ast.Regex:
		e.w.Write("/" + x.Pattern + "/" + x.Flags)
	case *ast.Tpl:
		e.tpl(x)
	case *ast.TaggedTpl:
		e.callee(x.Tag)
		e.typeArgs(x.TypeArgs)
		e.w.Mark(x.Tpl.Span.Lo)
		e.tpl(x.Tpl)
	case *ast.ArrayLit:
		e.w.Write("[")
		for i, el := range x.Elems {
			if i > 0 {
				e.w.Write(", ")
			}
			if el != nil {
				e.arg(el)
			}
		}
		// A trailing hole needs its own comma: [a, ,] has length 2
		if n := len(x.Elems); n > 0 && x.Elems[n-1] == nil {
			e.w.Write(",")
		}
		e.w.Write("]")
	case *ast.SpreadElement:
		e.w.Write("...")
		e.expr(x.Arg, ast.PrecAssign)
	case *ast.ObjectLit:
		e.objectLit(x)
	case *ast.ComputedPropName:
		e.w.Write("[")
		e.expr(x.Expr, ast.PrecAssign)
		e.w.Write("]")
	case *ast.FnExpr:
		e.function(x.Function, x.Ident)
	case *ast.ArrowExpr:
		e.arrow(x)
	case *ast.ClassExpr:
		e.class(x.Class, x.Ident, true)
	case *ast.UnaryExpr:
		e.unary(x)
	case *ast.UpdateExpr:
		if x.Prefix {
			e.w.Write(x.Op.String())
			e.expr(x.Arg, ast.PrecCall)
		} else {
			e.expr(x.Arg, ast.PrecCall)
			e.w.Write(x.Op.String())
		}
	case *ast.BinExpr:
		e.binary(x)
	case *ast.AssignExpr:
		e.pat(x.Left)
		e.w.Write(" " + x.Op.String() + " ")
		e.expr(x.Right, ast.PrecAssign)
	case *ast.MemberExpr:
		e.member(x)
	case *ast.CallExpr:
		e.callee(x.Callee)
		if x.Optional {
			e.w.Write("?.")
		}
		e.typeArgs(x.TypeArgs)
		e.args(x.Args)
	case *ast.ChainExpr:
		e.expr(x.Expr, ast.PrecLowest)
	case *ast.NewExpr:
		e.w.Write("new ")
		e.exprForce(x.Callee, ast.PrecNew, hasCallInChain(x.Callee))
		e.typeArgs(x.TypeArgs)
		if x.Args != nil {
			e.args(x.Args)
		}
	case *ast.SeqExpr:
		// Operands above the comma so nested sequences keep their parens
		for i, el := range x.Exprs {
			if i > 0 {
				e.w.Write(", ")
			}
			e.expr(el, ast.PrecYield)
		}
	case *ast.CondExpr:
		// Branches take any assignment expression, the test does not
		e.expr(x.Test, ast.PrecNullish)
		e.w.Write(" ? ")
		e.expr(x.Cons, ast.PrecYield)
		e.w.Write(" : ")
		e.expr(x.Alt, ast.PrecYield)
	case *ast.YieldExpr:
		e.w.Write("yield")
		if x.Delegate {
			e.w.Write("*")
		}
		if x.Arg != nil {
			e.w.Space()
			e.expr(x.Arg, ast.PrecYield)
		}
	case *ast.AwaitExpr:
		// await binds like a prefix operator
		e.w.Write("await ")
		e.expr(x.Arg, ast.PrecPrefix)
	case *ast.ParenExpr:
		e.w.Write("(")
		e.expr(x.Expr, ast.PrecLowest)
		e.w.Write(")")
	case *ast.TsAsExpr:
		e.expr(x.Expr, ast.PrecRelational)
		e.w.Write(" as ")
		e.typ(x.Type, typePrecLowest)
	case *ast.TsConstAssertion:
		e.expr(x.Expr, ast.PrecRelational)
		e.w.Write(" as const")
	case *ast.TsSatisfiesExpr:
		e.expr(x.Expr, ast.PrecRelational)
		e.w.Write(" satisfies ")
		e.typ(x.Type, typePrecLowest)
	case *ast.TsNonNullExpr:
		e.expr(x.Expr, ast.PrecCall)
		e.w.Write("!")
	case *ast.TsTypeAssertion:
		e.w.Write("<")
		e.typ(x.Type, typePrecLowest)
		e.w.Write(">")
		e.expr(x.Expr, ast.PrecPrefix)
	case *ast.TsInstantiation:
		e.expr(x.Expr, ast.PrecCall)
		e.typeArgs(x.TypeArgs)
	case *ast.TsQualifiedName:
		e.entityName(x)
	case *ast.JSXElement, *ast.JSXFragment:
		e.jsx(x)
	default:
		e.fail(x)
	}
}

func (e *emitter) ident(id *ast.Ident) {
	e.w.Mark(id.Span.Lo)
	e.w.Write(id.Name)
}

func (e *emitter) str(s *ast.Str) {
	e.w.Mark(s.Span.Lo)
	// Source strings keep their quotes and escapes; generated ones are quoted
	if s.Raw != "" {
		e.w.Write(s.Raw)
		return
	}
	e.w.Write(Quote(s.Value))
}

func numberText(n *ast.Num) string {
	if n.Raw != "" {
		return n.Raw
	}
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

func (e *emitter) tpl(t *ast.Tpl) {
	e.w.Write("`")
	for i, q := range t.Quasis {
		e.w.Write(q.Raw)
		if i < len(t.Exprs) {
			e.w.Write("${")
			e.expr(t.Exprs[i], ast.PrecLowest)
			e.w.Write("}")
		}
	}
	e.w.Write("`")
}

// arg prints an element of an argument or array list.
func (e *emitter) arg(x ast.Expr) {
	if s, ok := x.(*ast.SpreadElement); ok {
		e.w.Mark(s.Span.Lo)
		e.w.Write("...")
		e.expr(s.Arg, ast.PrecAssign)
		return
	}
	e.expr(x, ast.PrecAssign)
}

func (e *emitter) args(list []ast.Expr) {
	e.w.Write("(")
	for i, a := range list {
		if i > 0 {
			e.w.Write(", ")
		}
		e.arg(a)
	}
	e.w.Write(")")
}

// callee prints the object of a member access, call or tagged template.
func (e *emitter) callee(x ast.Expr) {
	_, chain := x.(*ast.ChainExpr)
	e.exprForce(x, ast.PrecCall, chain)
}

func (e *emitter) member(m *ast.MemberExpr) {
	// 1.toString() would read the dot as a decimal point
	if n, ok := m.Object.(*ast.Num); ok && !m.Computed && !strings.ContainsAny(numberText(n), ".eExXoObB") {
		e.parenthesized(n)
	} else {
		e.callee(m.Object)
	}
	switch {
	case m.Computed:
		if m.Optional {
			e.w.Write("?.")
		}
		e.w.Write("[")
		e.expr(m.Property, ast.PrecLowest)
		e.w.Write("]")
	default:
		if m.Optional {
			e.w.Write("?.")
		} else {
			e.w.Write(".")
		}
		e.expr(m.Property, ast.PrecLowest)
	}
}

func (e *emitter) unary(u *ast.UnaryExpr) {
	op := u.Op.String()
	switch u.Op {
	case token.TYPEOF, token.VOID, token.DELETE:
		e.w.Write(op + " ")
	default:
		e.w.Write(op)
		if (u.Op == token.MINUS || u.Op == token.PLUS) && startsWithSign(u.Arg, op[0]) {
			e.w.Space()
		}
	}
	e.expr(u.Arg, ast.PrecPrefix)
}

// startsWithSign reports whether x prints with a leading + or - that would
// merge with a preceding sign into ++ or --.
func startsWithSign(x ast.Expr, sign byte) bool {
	switch x := x.(type) {
	case *ast.UnaryExpr:
		s := x.Op.String()
		return s[0] == sign
	case *ast.UpdateExpr:
		return x.Prefix && x.Op.String()[0] == sign
	}
	return false
}

func (e *emitter) binary(b *ast.BinExpr) {
	prec := ast.BinaryPrecedence(b.Op)
	leftPrec, rightPrec := prec, prec+1
	forceLeft, forceRight := false, false
	switch {
	case b.Op == token.STAR_STAR:
		// Right associative, and a unary base is a syntax error: (-a) ** b
		leftPrec, rightPrec = prec+1, prec
		switch b.Left.(type) {
		case *ast.UnaryExpr, *ast.AwaitExpr, *ast.TsTypeAssertion:
			forceLeft = true
		}
	case b.Op == token.QUESTION_QUESTION:
		// ?? may not mix with && or || without parentheses
		forceLeft = isLogicalAndOr(b.Left)
		forceRight = isLogicalAndOr(b.Right)
	case ast.IsLogical(b.Op):
		forceLeft = isNullish(b.Left)
		forceRight = isNullish(b.Right)
	}
	e.exprForce(b.Left, leftPrec, forceLeft)
	e.w.Write(" " + b.Op.String() + " ")
	e.exprForce(b.Right, rightPrec, forceRight)
}

func isLogicalAndOr(x ast.Expr) bool {
	b, ok := x.(*ast.BinExpr)
	return ok && (b.Op == token.AMP_AMP || b.Op == token.PIPE_PIPE)
}

func isNullish(x ast.Expr) bool {
	b, ok := x.(*ast.BinExpr)
	return ok && b.Op == token.QUESTION_QUESTION
}

// hasCallInChain reports whether a new callee contains a call that would
// otherwise be taken as the constructor arguments.
func hasCallInChain(x ast.Expr) bool {
	for {
		switch c := x.(type) {
		case *ast.CallExpr, *ast.ChainExpr:
			return true
		case *ast.MemberExpr:
			x = c.Object
		case *ast.TaggedTpl:
			x = c.Tag
		case *ast.TsNonNullExpr:
			x = c.Expr
		default:
			return false
		}
	}
}

// startsAmbiguously reports whether x would print with a leading `{`,
// `function` or `class` (and, for statements, `let [`), which must be
// parenthesized at the start of a statement or export default.
func startsAmbiguously(x ast.Expr, stmt bool) bool {
	for {
		switch c := x.(type) {
		case *ast.ObjectLit:
			return stmt
		case *ast.FnExpr, *ast.ClassExpr:
			return true
		case *ast.BinExpr:
			x = c.Left
		case *ast.CallExpr:
			x = c.Callee
		case *ast.MemberExpr:
			if id, ok := c.Object.(*ast.Ident); ok && stmt && c.Computed && id.Name == "let" {
				return true
			}
			x = c.Object
		case *ast.CondExpr:
			x = c.Test
		case *ast.SeqExpr:
			if len(c.Exprs) == 0 {
				return false
			}
			x = c.Exprs[0]
		case *ast.AssignExpr:
			switch l := c.Left.(type) {
			case *ast.ObjectPat:
				return stmt
			case *ast.ExprPat:
				x = l.Expr
			default:
				return false
			}
		case *ast.UpdateExpr:
			if c.Prefix {
				return false
			}
			x = c.Arg
		case *ast.TaggedTpl:
			x = c.Tag
		case *ast.ChainExpr:
			x = c.Expr
		case *ast.TsAsExpr:
			x = c.Expr
		case *ast.TsSatisfiesExpr:
			x = c.Expr
		case *ast.TsConstAssertion:
			x = c.Expr
		case *ast.TsNonNullExpr:
			x = c.Expr
		case *ast.TsInstantiation:
			x = c.Expr
		default:
			return false
		}
	}
}

func (e *emitter) objectLit(o *ast.ObjectLit) {
	if len(o.Props) == 0 {
		e.w.Write("{}")
		return
	}
	e.w.Write("{ ")
	for i, p := range o.Props {
		if i > 0 {
			e.w.Write(", ")
		}
		e.leadingComments(p.GetSpan().Lo, true)
		e.w.Mark(p.GetSpan().Lo)
		switch p := p.(type) {
		case *ast.KeyValueProp:
			e.propKey(p.Key)
			e.w.Write(": ")
			e.expr(p.Value, ast.PrecAssign)
		case *ast.ShorthandProp:
			e.ident(p.Ident)
		case *ast.AssignProp:
			e.ident(p.Key)
			e.w.Write(" = ")
			e.expr(p.Value, ast.PrecAssign)
		case *ast.MethodProp:
			e.method(p.Kind, p.Key, false, p.Function)
		case *ast.SpreadElement:
			e.w.Write("...")
			e.expr(p.Arg, ast.PrecAssign)
		default:
			e.fail(p)
		}
	}
	e.w.Write(" }")
}

func (e *emitter) propKey(k ast.Expr) {
	switch k := k.(type) {
	case *ast.Ident:
		e.ident(k)
	case *ast.Str:
		e.str(k)
	case *ast.ComputedPropName:
		e.w.Mark(k.Span.Lo)
		e.w.Write("[")
		e.expr(k.Expr, ast.PrecAssign)
		e.w.Write("]")
	default:
		// Numeric and bigint keys
		e.expr(k, ast.PrecPrimary)
	}
}

// ---------- Patterns ----------

func (e *emitter) pat(p ast.Pat) {
	span := p.GetSpan()
	e.leadingComments(span.Lo, true)
	e.w.Mark(span.Lo)
	switch p := p.(type) {
	case *ast.Ident:
		e.w.Write(p.Name)
		if p.Optional {
			e.w.Write("?")
		}
		e.typeAnn(p.TypeAnn)
	case *ast.ArrayPat:
		e.w.Write("[")
		for i, el := range p.Elems {
			if i > 0 {
				e.w.Write(", ")
			}
			if el != nil {
				e.pat(el)
			}
		}
		if n := len(p.Elems); n > 0 && p.Elems[n-1] == nil {
			e.w.Write(",")
		}
		e.w.Write("]")
		if p.Optional {
			e.w.Write("?")
		}
		e.typeAnn(p.TypeAnn)
	case *ast.ObjectPat:
		if len(p.Props) == 0 {
			e.w.Write("{}")
		} else {
			e.w.Write("{ ")
			for i, prop := range p.Props {
				if i > 0 {
					e.w.Write(", ")
				}
				e.objectPatProp(prop)
			}
			e.w.Write(" }")
		}
		if p.Optional {
			e.w.Write("?")
		}
		e.typeAnn(p.TypeAnn)
	case *ast.AssignPat:
		e.pat(p.Left)
		e.w.Write(" = ")
		e.expr(p.Right, ast.PrecAssign)
	case *ast.RestPat:
		e.w.Write("...")
		e.pat(p.Arg)
		e.typeAnn(p.TypeAnn)
	case *ast.ExprPat:
		// Assignment target such as a.b or a[0]
		e.expr(p.Expr, ast.PrecCall)
	default:
		e.fail(p)
	}
}

func (e *emitter) objectPatProp(prop ast.ObjectPatProp) {
	e.w.Mark(prop.GetSpan().Lo)
	switch prop := prop.(type) {
	case *ast.KeyValuePatProp:
		e.propKey(prop.Key)
		e.w.Write(": ")
		e.pat(prop.Value)
	case *ast.AssignPatProp:
		e.ident(prop.Key)
		if prop.Value != nil {
			e.w.Write(" = ")
			e.expr(prop.Value, ast.PrecAssign)
		}
	case *ast.RestPat:
		e.pat(prop)
	default:
		e.fail(prop)
	}
}

func (e *emitter) typeAnn(t ast.Type) {
	if t == nil {
		return
	}
	e.w.Write(": ")
	e.typ(t, typePrecLowest)
}

// ---------- Functions ----------

// function prints `function name(params) { body }`.
func (e *emitter) function(fn *ast.Function, name *ast.Ident) {
	if fn.Async {
		e.w.Write("async ")
	}
	e.w.Write("function")
	if fn.Generator {
		e.w.Write("*")
	}
	if name != nil {
		e.w.Space()
		e.ident(name)
	}
	e.signature(fn)
	e.functionBody(fn)
}

func (e *emitter) signature(fn *ast.Function) {
	e.typeParams(fn.TypeParams)
	e.params(fn.Params)
	if fn.ReturnType != nil {
		e.w.Write(": ")
		e.typ(fn.ReturnType, typePrecLowest)
	}
}

func (e *emitter) functionBody(fn *ast.Function) {
	// Overload signature or declare function
	if fn.Body == nil {
		e.w.Write(";")
		return
	}
	e.w.Space()
	e.block(fn.Body)
}

func (e *emitter) params(params []*ast.Param) {
	e.w.Write("(")
	for i, p := range params {
		if i > 0 {
			e.w.Write(", ")
		}
		e.w.Mark(p.Span.Lo)
		for _, d := range p.Decorators {
			e.decorator(d)
			e.w.Space()
		}
		// Constructor parameter properties
		if p.Accessibility != "" {
			e.w.Write(p.Accessibility + " ")
		}
		if p.Override {
			e.w.Write("override ")
		}
		if p.Readonly {
			e.w.Write("readonly ")
		}
		e.pat(p.Pat)
	}
	e.w.Write(")")
}

func (e *emitter) arrow(a *ast.ArrowExpr) {
	if a.Async {
		e.w.Write("async ")
	}
	if tp := a.TypeParams; tp != nil {
		// `<T,>` keeps a lone unconstrained parameter from reading as a JSX tag
		e.typeParamList(tp, len(tp.Params) == 1 && tp.Params[0].Constraint == nil)
	}
	e.w.Write("(")
	for i, p := range a.Params {
		if i > 0 {
			e.w.Write(", ")
		}
		e.pat(p)
	}
	e.w.Write(")")
	if a.ReturnType != nil {
		e.w.Write(": ")
		e.typ(a.ReturnType, typePrecLowest)
	}
	e.w.Write(" => ")
	switch body := a.Body.(type) {
	case *ast.BlockStmt:
		e.block(body)
	case ast.Expr:
		// () => ({}) returns an object, () => {} is an empty body
		e.exprForce(body, ast.PrecAssign, isObjectStart(body))
	default:
		e.fail(a)
	}
}

// isObjectStart reports whether x prints with a leading `{`.
func isObjectStart(x ast.Expr) bool {
	for {
		switch c := x.(type) {
		case *ast.ObjectLit:
			return true
		case *ast.BinExpr:
			x = c.Left
		case *ast.CallExpr:
			x = c.Callee
		case *ast.MemberExpr:
			x = c.Object
		case *ast.CondExpr:
			x = c.Test
		case *ast.SeqExpr:
			return false
		case *ast.AssignExpr:
			if _, ok := c.Left.(*ast.ObjectPat); ok {
				return true
			}
			l, ok := c.Left.(*ast.ExprPat)
			if !ok {
				return false
			}
			x = l.Expr
		case *ast.UpdateExpr:
			if c.Prefix {
				return false
			}
			x = c.Arg
		case *ast.TaggedTpl:
			x = c.Tag
		case *ast.TsAsExpr:
			x = c.Expr
		case *ast.TsSatisfiesExpr:
			x = c.Expr
		case *ast.TsConstAssertion:
			x = c.Expr
		case *ast.TsNonNullExpr:
			x = c.Expr
		default:
			return false
		}
	}
}

package codegen

import (
	"github.com/leapstack-labs/leapmacro/pkg/ast"
	"github.com/leapstack-labs/leapmacro/pkg/token"
)

// jsx prints an element or fragment. Text children are written as they
// appeared in the source.
func (e *emitter) jsx(x ast.Expr) {
	switch x := x.(type) {
	case *ast.JSXElement:
		e.jsxElement(x)
	case *ast.JSXFragment:
		e.w.Write("<>")
		e.jsxChildren(x.Children)
		e.w.Write("</>")
	default:
		e.fail(x)
	}
}

func (e *emitter) jsxElement(el *ast.JSXElement) {
	open := el.Opening
	e.w.Write("<")
	e.jsxName(open.Name)
	e.typeArgs(open.TypeArgs)
	for _, attr := range open.Attrs {
		e.w.Space()
		e.jsxAttr(attr)
	}
	if open.SelfClosing || (el.Closing == nil && len(el.Children) == 0) {
		e.w.Write(" />")
		return
	}
	e.w.Write(">")
	e.jsxChildren(el.Children)
	e.w.Write("</")
	e.jsxName(open.Name)
	e.w.Write(">")
}

func (e *emitter) jsxName(n ast.Expr) {
	e.w.Mark(n.GetSpan().Lo)
	switch n := n.(type) {
	case *ast.Ident:
		e.w.Write(n.Name)
	case *ast.JSXMemberExpr:
		e.jsxName(n.Object)
		e.w.Write(".")
		e.w.Write(n.Property.Name)
	case *ast.JSXNamespacedName:
		e.w.Write(n.NS.Name + ":" + n.Name.Name)
	case *ast.ThisExpr:
		e.w.Write("this")
	default:
		e.fail(n)
	}
}

func (e *emitter) jsxAttr(attr ast.Node) {
	e.w.Mark(attr.GetSpan().Lo)
	switch a := attr.(type) {
	case *ast.JSXAttr:
		e.jsxName(a.Name)
		if a.Value == nil {
			return
		}
		e.w.Write("=")
		switch v := a.Value.(type) {
		case *ast.Str:
			e.jsxAttrString(v)
		case *ast.JSXExprContainer:
			e.jsxContainer(v)
		case *ast.JSXElement, *ast.JSXFragment:
			e.jsx(v)
		default:
			e.w.Write("{")
			e.expr(v, ast.PrecAssign)
			e.w.Write("}")
		}
	case *ast.JSXSpreadAttr:
		e.w.Write("{...")
		e.expr(a.Arg, ast.PrecAssign)
		e.w.Write("}")
	default:
		e.fail(attr)
	}
}

// jsxAttrString prints a quoted attribute. JSX strings have no escapes, so
// a synthesized value that cannot be quoted verbatim goes in a container.
func (e *emitter) jsxAttrString(s *ast.Str) {
	if s.Raw != "" {
		e.w.Write(s.Raw)
		return
	}
	for _, c := range s.Value {
		if c == '"' || c == '\n' || c == '\r' || c == '{' || c == '<' || c == '&' {
			e.w.Write("{")
			e.str(s)
			e.w.Write("}")
			return
		}
	}
	e.w.Write(`"` + s.Value + `"`)
}

func (e *emitter) jsxChildren(children []ast.Expr) {
	for _, c := range children {
		e.w.Mark(c.GetSpan().Lo)
		switch c := c.(type) {
		case *ast.JSXText:
			e.w.Write(c.Raw)
		case *ast.JSXExprContainer:
			e.jsxContainer(c)
		case *ast.JSXSpreadChild:
			e.w.Write("{...")
			e.expr(c.Expr, ast.PrecAssign)
			e.w.Write("}")
		case *ast.JSXElement, *ast.JSXFragment:
			e.jsx(c)
		default:
			// A rewritten child that is not JSX itself.
			e.w.Write("{")
			e.expr(c, ast.PrecAssign)
			e.w.Write("}")
		}
	}
}

func (e *emitter) jsxContainer(c *ast.JSXExprContainer) {
	e.w.Write("{")
	if _, ok := c.Expr.(*ast.JSXEmptyExpr); ok {
		e.jsxEmptyComments(c.Span.Hi - 1)
	} else {
		e.expr(c.Expr, ast.PrecAssign)
		e.trailingComments(c.Expr.GetSpan().Hi, true)
	}
	e.w.Write("}")
}

// jsxEmptyComments prints the comments of {/* ... */}, which attach to the
// closing brace.
func (e *emitter) jsxEmptyComments(pos token.Pos) {
	if !pos.IsValid() || e.leading[pos] || !e.comments.HasLeading(pos) {
		return
	}
	e.leading[pos] = true
	for i, c := range e.comments.Leading(pos) {
		if i > 0 {
			e.w.Space()
		}
		if c.Kind == token.LineComment {
			e.w.Write(lineAsBlock(c.Text))
			continue
		}
		e.w.Write(c.Text)
	}
}

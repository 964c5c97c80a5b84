package codegen

import (
	"github.com/leapstack-labs/leapmacro/pkg/ast"
)

// class prints a class body and heading. Decorators are printed inline for
// class expressions; declarations print them on their own lines beforehand.
func (e *emitter) class(c *ast.Class, name *ast.Ident, inline bool) {
	if inline {
		for _, d := range c.Decorators {
			e.decorator(d)
			e.w.Space()
		}
	}
	if c.Abstract {
		e.w.Write("abstract ")
	}
	e.w.Write("class")
	if name != nil {
		e.w.Space()
		e.ident(name)
	}
	e.typeParams(c.TypeParams)
	if c.SuperClass != nil {
		e.w.Write(" extends ")
		// extends takes a left-hand-side expression
		e.callee(c.SuperClass)
		e.typeArgs(c.SuperTypeArgs)
	}
	if len(c.Implements) > 0 {
		e.w.Write(" implements ")
		e.heritage(c.Implements)
	}
	e.w.Write(" {")

	// Keep {} on one line unless a comment sits inside
	closing := c.Span.Hi - 1
	if len(c.Body) == 0 && (!c.Span.Lo.IsValid() || !e.comments.HasLeading(closing)) {
		e.w.Write("}")
		return
	}
	e.w.Writeln()
	e.w.Indent()
	for _, m := range c.Body {
		e.classMember(m)
		e.w.Writeln()
	}
	if c.Span.Lo.IsValid() {
		e.danglingComments(closing)
	}
	e.w.Dedent()
	e.w.Write("}")
}

func (e *emitter) heritage(list []*ast.TsExprWithTypeArgs) {
	for i, h := range list {
		if i > 0 {
			e.w.Write(", ")
		}
		e.w.Mark(h.Span.Lo)
		e.expr(h.Expr, ast.PrecCall)
		e.typeArgs(h.TypeArgs)
	}
}

func (e *emitter) decorator(d *ast.Decorator) {
	e.w.Mark(d.Span.Lo)
	e.w.Write("@")
	// Only @a.b.c and @a.b() may appear without parentheses
	switch d.Expr.(type) {
	case *ast.Ident, *ast.MemberExpr, *ast.CallExpr, *ast.ParenExpr:
		e.expr(d.Expr, ast.PrecCall)
	default:
		e.parenthesized(d.Expr)
	}
}

// modifiers prints member modifiers in the order TypeScript requires.
func (e *emitter) modifiers(m ast.MemberModifiers) {
	if m.Accessibility != "" {
		e.w.Write(m.Accessibility + " ")
	}
	if m.Static {
		e.w.Write("static ")
	}
	if m.Abstract {
		e.w.Write("abstract ")
	}
	if m.Override {
		e.w.Write("override ")
	}
}

func (e *emitter) classMember(m ast.ClassMember) {
	span := m.GetSpan()
	e.leadingComments(span.Lo, false)

	switch m := m.(type) {
	case *ast.Constructor:
		e.w.Mark(span.Lo)
		if m.Accessibility != "" {
			e.w.Write(m.Accessibility + " ")
		}
		e.propKey(m.Key)
		e.signature(m.Function)
		e.functionBody(m.Function)
	case *ast.ClassMethod:
		e.decoratorLines(m.Decorators)
		e.w.Mark(span.Lo)
		e.modifiers(m.MemberModifiers)
		e.method(m.Kind, m.Key, m.Optional, m.Function)
	case *ast.ClassProp:
		e.decoratorLines(m.Decorators)
		e.w.Mark(span.Lo)
		if m.Declare {
			e.w.Write("declare ")
		}
		e.modifiers(m.MemberModifiers)
		if m.Readonly {
			e.w.Write("readonly ")
		}
		if m.Accessor {
			e.w.Write("accessor ")
		}
		e.propKey(m.Key)
		// x?: T or x!: T
		switch {
		case m.Optional:
			e.w.Write("?")
		case m.Definite:
			e.w.Write("!")
		}
		e.typeAnn(m.TypeAnn)
		if m.Value != nil {
			e.w.Write(" = ")
			e.expr(m.Value, ast.PrecAssign)
		}
		e.w.Write(";")
	case *ast.StaticBlock:
		e.w.Mark(span.Lo)
		e.w.Write("static ")
		e.block(m.Body)
	case *ast.EmptyMember:
		e.w.Write(";")
	case *ast.TsIndexSignature:
		e.w.Mark(span.Lo)
		e.indexSignature(m)
		e.w.Write(";")
	default:
		e.fail(m)
	}
	e.trailingComments(span.Hi, false)
}

// method prints an object or class method after its modifiers.
func (e *emitter) method(kind ast.MethodKind, key ast.Expr, optional bool, fn *ast.Function) {
	switch kind {
	case ast.MethodGetter:
		e.w.Write("get ")
	case ast.MethodSetter:
		e.w.Write("set ")
	}
	if fn.Async {
		e.w.Write("async ")
	}
	if fn.Generator {
		e.w.Write("*")
	}
	e.propKey(key)
	if optional {
		e.w.Write("?")
	}
	e.signature(fn)
	e.functionBody(fn)
}

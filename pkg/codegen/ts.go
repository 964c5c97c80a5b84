package codegen

import (
	"github.com/leapstack-labs/leapmacro/pkg/ast"
)

// Type precedence levels, lowest first.
const (
	typePrecLowest       = iota // function and conditional types
	typePrecUnion               // A | B
	typePrecIntersection        // A & B
	typePrecOperator            // keyof T, infer T
	typePrecPostfix             // T[], T[K]
	typePrecPrimary
)

// typePrecedence mirrors ast.Precedence for types.
func typePrecedence(t ast.Type) int {
	switch t.(type) {
	case *ast.TsFnType, *ast.TsConditionalType:
		return typePrecLowest
	case *ast.TsUnionType:
		return typePrecUnion
	case *ast.TsIntersectionType:
		return typePrecIntersection
	case *ast.TsTypeOperator, *ast.TsInferType:
		return typePrecOperator
	case *ast.TsArrayType, *ast.TsIndexedAccessType:
		return typePrecPostfix
	}
	return typePrecPrimary
}

// typ prints t, parenthesized when it binds looser than prec.
func (e *emitter) typ(t ast.Type, prec int) {
	if t == nil {
		e.fail(t)
	}
	if typePrecedence(t) < prec {
		e.w.Write("(")
		e.typ(t, typePrecLowest)
		e.w.Write(")")
		return
	}
	e.w.Mark(t.GetSpan().Lo)
	switch t := t.(type) {
	case *ast.TsKeywordType:
		e.w.Write(t.Keyword)
	case *ast.TsThisType:
		e.w.Write("this")
	case *ast.TsTypeRef:
		e.entityName(t.Name)
		e.typeArgs(t.TypeArgs)
	case *ast.TsArrayType:
		e.typ(t.Elem, typePrecPostfix)
		e.w.Write("[]")
	case *ast.TsTupleType:
		e.w.Write("[")
		for i, el := range t.Elems {
			if i > 0 {
				e.w.Write(", ")
			}
			e.tupleElement(el)
		}
		e.w.Write("]")
	case *ast.TsOptionalType:
		e.typ(t.Type, typePrecPostfix)
		e.w.Write("?")
	case *ast.TsRestType:
		e.w.Write("...")
		e.typ(t.Type, typePrecPostfix)
	case *ast.TsUnionType:
		e.typeList(t.Types, " | ", typePrecIntersection)
	case *ast.TsIntersectionType:
		e.typeList(t.Types, " & ", typePrecOperator)
	case *ast.TsFnType:
		if t.Abstract {
			e.w.Write("abstract ")
		}
		if t.Constructor {
			e.w.Write("new ")
		}
		e.typeParams(t.TypeParams)
		e.patList(t.Params)
		e.w.Write(" => ")
		e.typ(t.Return, typePrecLowest)
	case *ast.TsTypeLit:
		e.typeMembersInline(t.Members)
	case *ast.TsParenType:
		e.w.Write("(")
		e.typ(t.Type, typePrecLowest)
		e.w.Write(")")
	case *ast.TsTypeQuery:
		// typeof x or typeof import("m")
		e.w.Write("typeof ")
		if it, ok := t.ExprName.(*ast.TsImportType); ok {
			e.typ(it, typePrecLowest)
		} else {
			e.entityName(t.ExprName)
		}
		e.typeArgs(t.TypeArgs)
	case *ast.TsTypeOperator:
		e.w.Write(t.Op + " ")
		e.typ(t.Type, typePrecOperator)
	case *ast.TsIndexedAccessType:
		e.typ(t.Object, typePrecPostfix)
		e.w.Write("[")
		e.typ(t.Index, typePrecLowest)
		e.w.Write("]")
	case *ast.TsConditionalType:
		// A function or conditional type in check position needs parens
		e.typ(t.Check, typePrecUnion)
		e.w.Write(" extends ")
		e.typ(t.Extends, typePrecUnion)
		e.w.Write(" ? ")
		e.typ(t.True, typePrecLowest)
		e.w.Write(" : ")
		e.typ(t.False, typePrecLowest)
	case *ast.TsInferType:
		e.w.Write("infer ")
		e.typeParam(t.Param)
	case *ast.TsMappedType:
		e.mappedType(t)
	case *ast.TsLitType:
		// -1 is a literal type, so the unary minus is kept
		switch lit := t.Lit.(type) {
		case *ast.TsTplLitType:
			e.tplType(lit)
		case ast.Expr:
			e.expr(lit, ast.PrecPrefix)
		default:
			e.fail(t)
		}
	case *ast.TsTplLitType:
		e.tplType(t)
	case *ast.TsTypePredicate:
		if t.Asserts {
			e.w.Write("asserts ")
		}
		switch p := t.Param.(type) {
		case *ast.Ident:
			e.ident(p)
		case *ast.TsThisType:
			e.w.Write("this")
		default:
			e.fail(t)
		}
		if t.Type != nil {
			e.w.Write(" is ")
			e.typ(t.Type, typePrecLowest)
		}
	case *ast.TsImportType:
		e.w.Write("import(")
		e.str(t.Arg)
		e.w.Write(")")
		if t.Qualifier != nil {
			e.w.Write(".")
			e.entityName(t.Qualifier)
		}
		e.typeArgs(t.TypeArgs)
	default:
		e.fail(t)
	}
}

func (e *emitter) typeList(types []ast.Type, sep string, prec int) {
	for i, t := range types {
		if i > 0 {
			e.w.Write(sep)
		}
		e.typ(t, prec)
	}
}

func (e *emitter) tupleElement(el *ast.TsTupleElement) {
	e.w.Mark(el.Span.Lo)
	if el.Rest {
		e.w.Write("...")
	}
	if el.Label != nil {
		e.ident(el.Label)
		if el.Optional {
			e.w.Write("?")
		}
		e.w.Write(": ")
		e.typ(el.Type, typePrecLowest)
		return
	}
	// Unlabeled optional: the ? attaches to the type, [A?]
	if el.Optional {
		e.typ(el.Type, typePrecPostfix)
		e.w.Write("?")
		return
	}
	e.typ(el.Type, typePrecLowest)
}

func (e *emitter) tplType(t *ast.TsTplLitType) {
	e.w.Write("`")
	for i, q := range t.Quasis {
		e.w.Write(q.Raw)
		if i < len(t.Types) {
			e.w.Write("${")
			e.typ(t.Types[i], typePrecLowest)
			e.w.Write("}")
		}
	}
	e.w.Write("`")
}

func (e *emitter) mappedType(t *ast.TsMappedType) {
	e.w.Write("{ ")
	// Modifiers are "", the bare keyword, or a +/- prefix
	switch t.Readonly {
	case "readonly":
		e.w.Write("readonly ")
	case "+", "-":
		e.w.Write(t.Readonly + "readonly ")
	}
	e.w.Write("[")
	e.ident(t.Param.Name)
	e.w.Write(" in ")
	e.typ(t.Param.Constraint, typePrecLowest)
	if t.NameType != nil {
		e.w.Write(" as ")
		e.typ(t.NameType, typePrecLowest)
	}
	e.w.Write("]")
	switch t.Optional {
	case "?":
		e.w.Write("?")
	case "+", "-":
		e.w.Write(t.Optional + "?")
	}
	if t.Type != nil {
		e.w.Write(": ")
		e.typ(t.Type, typePrecLowest)
	}
	e.w.Write(" }")
}

// entityName prints A or A.B.C. Heritage clauses hold member expressions.
func (e *emitter) entityName(n ast.Node) {
	switch n := n.(type) {
	case *ast.Ident:
		e.ident(n)
	case *ast.TsQualifiedName:
		e.entityName(n.Left)
		e.w.Write(".")
		e.ident(n.Right)
	case *ast.MemberExpr:
		e.expr(n, ast.PrecCall)
	case *ast.ThisExpr:
		e.w.Write("this")
	default:
		e.fail(n)
	}
}

func (e *emitter) typeArgs(args *ast.TsTypeArgs) {
	if args == nil {
		return
	}
	e.w.Write("<")
	e.typeList(args.Params, ", ", typePrecLowest)
	e.w.Write(">")
}

func (e *emitter) typeParams(tp *ast.TsTypeParamDecl) {
	e.typeParamList(tp, false)
}

func (e *emitter) typeParamList(tp *ast.TsTypeParamDecl, trailingComma bool) {
	if tp == nil {
		return
	}
	e.w.Write("<")
	for i, p := range tp.Params {
		if i > 0 {
			e.w.Write(", ")
		}
		e.typeParam(p)
	}
	if trailingComma {
		e.w.Write(",")
	}
	e.w.Write(">")
}

func (e *emitter) typeParam(p *ast.TsTypeParam) {
	e.w.Mark(p.Span.Lo)
	// Modifier order is fixed: const, in, out
	if p.Const {
		e.w.Write("const ")
	}
	if p.In {
		e.w.Write("in ")
	}
	if p.Out {
		e.w.Write("out ")
	}
	e.ident(p.Name)
	if p.Constraint != nil {
		e.w.Write(" extends ")
		e.typ(p.Constraint, typePrecLowest)
	}
	if p.Default != nil {
		e.w.Write(" = ")
		e.typ(p.Default, typePrecLowest)
	}
}

func (e *emitter) patList(params []ast.Pat) {
	e.w.Write("(")
	for i, p := range params {
		if i > 0 {
			e.w.Write(", ")
		}
		e.pat(p)
	}
	e.w.Write(")")
}

// ---------- Type members ----------

// typeMembersInline prints a type literal on one line; interfaces use
// typeMembersBlock.
func (e *emitter) typeMembersInline(members []ast.TsTypeMember) {
	if len(members) == 0 {
		e.w.Write("{}")
		return
	}
	e.w.Write("{ ")
	for i, m := range members {
		if i > 0 {
			e.w.Write(" ")
		}
		e.typeMember(m)
		e.w.Write(";")
	}
	e.w.Write(" }")
}

func (e *emitter) typeMembersBlock(members []ast.TsTypeMember, closing ast.Node) {
	if len(members) == 0 {
		e.w.Write("{}")
		return
	}
	e.w.Write("{")
	e.w.Writeln()
	e.w.Indent()
	for _, m := range members {
		e.leadingComments(m.GetSpan().Lo, false)
		e.typeMember(m)
		e.w.Write(";")
		e.trailingComments(m.GetSpan().Hi, false)
		e.w.Writeln()
	}
	if span := closing.GetSpan(); span.Lo.IsValid() {
		e.danglingComments(span.Hi - 1)
	}
	e.w.Dedent()
	e.w.Write("}")
}

func (e *emitter) memberKey(key ast.Expr, computed bool) {
	if computed {
		e.w.Write("[")
		e.expr(key, ast.PrecAssign)
		e.w.Write("]")
		return
	}
	e.propKey(key)
}

func (e *emitter) typeMember(m ast.TsTypeMember) {
	e.w.Mark(m.GetSpan().Lo)
	switch m := m.(type) {
	case *ast.TsPropertySignature:
		if m.Readonly {
			e.w.Write("readonly ")
		}
		e.memberKey(m.Key, m.Computed)
		if m.Optional {
			e.w.Write("?")
		}
		e.typeAnn(m.TypeAnn)
	case *ast.TsMethodSignature:
		switch m.Kind {
		case ast.MethodGetter:
			e.w.Write("get ")
		case ast.MethodSetter:
			e.w.Write("set ")
		}
		e.memberKey(m.Key, m.Computed)
		if m.Optional {
			e.w.Write("?")
		}
		e.typeParams(m.TypeParams)
		e.patList(m.Params)
		e.typeAnn(m.Return)
	case *ast.TsCallSignature:
		if m.Construct {
			e.w.Write("new ")
		}
		e.typeParams(m.TypeParams)
		e.patList(m.Params)
		e.typeAnn(m.Return)
	case *ast.TsIndexSignature:
		e.indexSignature(m)
	default:
		e.fail(m)
	}
}

func (e *emitter) indexSignature(s *ast.TsIndexSignature) {
	if s.Static {
		e.w.Write("static ")
	}
	if s.Readonly {
		e.w.Write("readonly ")
	}
	e.w.Write("[")
	for i, p := range s.Params {
		if i > 0 {
			e.w.Write(", ")
		}
		e.pat(p)
	}
	e.w.Write("]")
	e.typeAnn(s.TypeAnn)
}

// ---------- Declarations ----------

func (e *emitter) interfaceDecl(d *ast.TsInterfaceDecl) {
	if d.Declare {
		e.w.Write("declare ")
	}
	e.w.Write("interface ")
	e.ident(d.ID)
	e.typeParams(d.TypeParams)
	if len(d.Extends) > 0 {
		e.w.Write(" extends ")
		e.heritage(d.Extends)
	}
	e.w.Space()
	e.typeMembersBlock(d.Body, d)
}

func (e *emitter) enumDecl(d *ast.TsEnumDecl) {
	if d.Declare {
		e.w.Write("declare ")
	}
	if d.Const {
		e.w.Write("const ")
	}
	e.w.Write("enum ")
	e.ident(d.ID)
	if len(d.Members) == 0 {
		e.w.Write(" {}")
		return
	}
	e.w.Write(" {")
	e.w.Writeln()
	e.w.Indent()
	for _, m := range d.Members {
		e.leadingComments(m.Span.Lo, false)
		e.w.Mark(m.Span.Lo)
		e.propKey(m.ID)
		if m.Init != nil {
			e.w.Write(" = ")
			e.expr(m.Init, ast.PrecAssign)
		}
		e.w.Write(",")
		e.trailingComments(m.Span.Hi, false)
		e.w.Writeln()
	}
	e.w.Dedent()
	e.w.Write("}")
}

func (e *emitter) moduleDecl(d *ast.TsModuleDecl) {
	if d.Declare {
		e.w.Write("declare ")
	}
	switch {
	case d.Global:
		e.w.Write("global")
	case d.Namespace:
		e.w.Write("namespace ")
		e.propKey(d.ID)
	default:
		e.w.Write("module ")
		e.propKey(d.ID)
	}
	// namespace A.B.C is nested declarations in the tree
	body := d.Body
	for {
		inner, ok := body.(*ast.TsModuleDecl)
		if !ok {
			break
		}
		e.w.Write(".")
		e.propKey(inner.ID)
		body = inner.Body
	}
	// declare module "m"; has no body
	block, ok := body.(*ast.TsModuleBlock)
	if !ok {
		e.w.Write(";")
		return
	}
	if len(block.Body) == 0 {
		e.w.Write(" {}")
		return
	}
	e.w.Write(" {")
	e.w.Writeln()
	e.w.Indent()
	for _, item := range block.Body {
		e.moduleItem(item)
	}
	if block.Span.Lo.IsValid() {
		e.danglingComments(block.Span.Hi - 1)
	}
	e.w.Dedent()
	e.w.Write("}")
}

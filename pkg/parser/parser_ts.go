package parser

import (
	"github.com/leapstack-labs/leapmacro/pkg/ast"
	"github.com/leapstack-labs/leapmacro/pkg/token"
)

// Type grammar:
//
//	type         → fn_type | ctor_type | conditional
//	conditional  → union ['extends' union '?' type ':' type]
//	union        → ['|'] intersection ('|' intersection)*
//	intersection → ['&'] operator ('&' operator)*
//	operator     → ('keyof' | 'unique' | 'readonly') operator | 'infer' ident | postfix
//	postfix      → primary ('[' ']' | '[' type ']')*

// keywordTypes are the predefined type names.
var keywordTypes = map[string]bool{
	"any": true, "unknown": true, "number": true, "string": true, "boolean": true,
	"bigint": true, "symbol": true, "object": true, "never": true, "undefined": true,
	"intrinsic": true,
}

// parseType parses a type. While it runs, > always closes a type argument list.
func (p *Parser) parseType() ast.Type {
	var typ ast.Type
	f := p.flags
	f.inType = true
	f.noIn = false
	f.inCover = false
	p.withFlags(f, func() { typ = p.parseTypeWithConditional(true) })
	return typ
}

func (p *Parser) parseTypeWithConditional(allowConditional bool) ast.Type {
	lo := p.tok.Span.Lo
	switch {
	case p.check(token.NEW):
		return p.parseFnType(lo, true, false)
	case p.checkIdent("abstract") && p.peek().Type == token.NEW:
		p.next()
		return p.parseFnType(lo, true, true)
	case p.check(token.LT):
		return p.parseFnType(lo, false, false)
	case p.check(token.LPAREN):
		if fn, ok := speculate(p, func() (ast.Type, bool) {
			return p.parseFnType(lo, false, false), true
		}); ok {
			return fn
		}
	}

	check := p.parseUnionType()
	if !allowConditional || !p.check(token.EXTENDS) || p.tok.NewlineBefore {
		return check
	}
	p.next()
	extends := p.parseTypeWithConditional(false)
	p.expect(token.QUESTION)
	trueType := p.parseTypeWithConditional(true)
	p.expect(token.COLON)
	falseType := p.parseTypeWithConditional(true)
	return &ast.TsConditionalType{NodeInfo: p.at(lo), Check: check, Extends: extends, True: trueType, False: falseType}
}

// parseFnType parses [new] [<T>] (params) => R.
func (p *Parser) parseFnType(lo token.Pos, constructor, abstract bool) ast.Type {
	if constructor {
		p.expect(token.NEW)
	}
	fn := &ast.TsFnType{Constructor: constructor, Abstract: abstract}
	if p.check(token.LT) {
		fn.TypeParams = p.parseTypeParams()
	}
	for _, param := range p.parseFormalParams() {
		fn.Params = append(fn.Params, param.Pat)
	}
	p.expect(token.ARROW)
	fn.Return = p.parseTypeOrPredicate()
	fn.NodeInfo = p.at(lo)
	return fn
}

func (p *Parser) parseUnionType() ast.Type {
	lo := p.tok.Span.Lo
	leading := p.match(token.PIPE)
	first := p.parseIntersectionType()
	if !p.check(token.PIPE) && !leading {
		return first
	}
	types := []ast.Type{first}
	for p.match(token.PIPE) {
		types = append(types, p.parseIntersectionType())
	}
	return &ast.TsUnionType{NodeInfo: p.at(lo), Types: types}
}

func (p *Parser) parseIntersectionType() ast.Type {
	lo := p.tok.Span.Lo
	leading := p.match(token.AMP)
	first := p.parseTypeOperator()
	if !p.check(token.AMP) && !leading {
		return first
	}
	types := []ast.Type{first}
	for p.match(token.AMP) {
		types = append(types, p.parseTypeOperator())
	}
	return &ast.TsIntersectionType{NodeInfo: p.at(lo), Types: types}
}

func (p *Parser) parseTypeOperator() ast.Type {
	lo := p.tok.Span.Lo
	if p.check(token.IDENT) {
		switch p.tok.Literal {
		case "keyof", "unique", "readonly":
			if next := p.peek(); startsType(next) {
				op := p.tok.Literal
				p.next()
				typ := p.parseTypeOperator()
				return &ast.TsTypeOperator{NodeInfo: p.at(lo), Op: op, Type: typ}
			}
		case "infer":
			if p.peek().Type == token.IDENT {
				p.next()
				return p.parseInferType(lo)
			}
		}
	}
	return p.parsePostfixType()
}

// parseInferType parses the type parameter of `infer T [extends C]`. The
// constraint is only taken when it cannot be the extends of a conditional.
func (p *Parser) parseInferType(lo token.Pos) ast.Type {
	name := p.parseBindingIdent()
	param := &ast.TsTypeParam{Name: name}
	if p.check(token.EXTENDS) {
		if c, ok := speculate(p, func() (ast.Type, bool) {
			p.next()
			c := p.parseTypeWithConditional(false)
			return c, !p.check(token.QUESTION)
		}); ok {
			param.Constraint = c
		}
	}
	param.NodeInfo = p.at(name.Span.Lo)
	return &ast.TsInferType{NodeInfo: p.at(lo), Param: param}
}

// startsType reports whether tok can begin a type.
func startsType(tok token.Token) bool {
	switch tok.Type {
	case token.IDENT, token.STRING, token.NUMBER, token.BIGINT, token.TRUE, token.FALSE,
		token.NULL, token.VOID, token.THIS, token.TYPEOF, token.IMPORT, token.NEW,
		token.LBRACE, token.LBRACKET, token.LPAREN, token.LT, token.MINUS,
		token.TEMPLATE, token.TEMPLATE_HEAD, token.PIPE, token.AMP:
		return true
	}
	return false
}

func (p *Parser) parsePostfixType() ast.Type {
	lo := p.tok.Span.Lo
	typ := p.parsePrimaryType()
	for p.check(token.LBRACKET) && !p.tok.NewlineBefore {
		p.next()
		if p.match(token.RBRACKET) {
			typ = &ast.TsArrayType{NodeInfo: p.at(lo), Elem: typ}
			continue
		}
		index := p.parseType()
		p.expect(token.RBRACKET)
		typ = &ast.TsIndexedAccessType{NodeInfo: p.at(lo), Object: typ, Index: index}
	}
	return typ
}

func (p *Parser) parsePrimaryType() ast.Type {
	lo := p.tok.Span.Lo
	tok := p.tok
	switch tok.Type {
	case token.IDENT:
		if keywordTypes[tok.Literal] && p.peek().Type != token.DOT {
			p.next()
			return &ast.TsKeywordType{NodeInfo: ast.At(tok.Span), Keyword: tok.Literal}
		}
		return p.parseTypeRef()
	case token.VOID, token.NULL:
		p.next()
		return &ast.TsKeywordType{NodeInfo: ast.At(tok.Span), Keyword: tok.Literal}
	case token.THIS:
		p.next()
		return &ast.TsThisType{NodeInfo: ast.At(tok.Span)}
	case token.TYPEOF:
		p.next()
		query := &ast.TsTypeQuery{}
		if p.check(token.IMPORT) {
			query.ExprName = p.parseImportType()
		} else {
			query.ExprName = p.parseEntityName()
		}
		if p.check(token.LT) && !p.tok.NewlineBefore {
			query.TypeArgs = p.parseTypeArgs()
		}
		query.NodeInfo = p.at(lo)
		return query
	case token.IMPORT:
		return p.parseImportType()
	case token.STRING:
		str := p.parseStr()
		return &ast.TsLitType{NodeInfo: str.NodeInfo, Lit: str}
	case token.NUMBER:
		p.next()
		num := &ast.Num{NodeInfo: ast.At(tok.Span), Value: NumberValue(tok.Literal), Raw: tok.Literal}
		return &ast.TsLitType{NodeInfo: num.NodeInfo, Lit: num}
	case token.BIGINT:
		p.next()
		big := &ast.BigInt{NodeInfo: ast.At(tok.Span), Raw: tok.Literal}
		return &ast.TsLitType{NodeInfo: big.NodeInfo, Lit: big}
	case token.TRUE, token.FALSE:
		p.next()
		b := &ast.Bool{NodeInfo: ast.At(tok.Span), Value: tok.Type == token.TRUE}
		return &ast.TsLitType{NodeInfo: b.NodeInfo, Lit: b}
	case token.MINUS:
		p.next()
		num := p.tok
		var arg ast.Expr
		switch num.Type {
		case token.NUMBER:
			arg = &ast.Num{NodeInfo: ast.At(num.Span), Value: NumberValue(num.Literal), Raw: num.Literal}
		case token.BIGINT:
			arg = &ast.BigInt{NodeInfo: ast.At(num.Span), Raw: num.Literal}
		default:
			p.fail(expectedMsg("number", num))
		}
		p.next()
		neg := &ast.UnaryExpr{NodeInfo: p.at(lo), Op: token.MINUS, Arg: arg}
		return &ast.TsLitType{NodeInfo: neg.NodeInfo, Lit: neg}
	case token.TEMPLATE, token.TEMPLATE_HEAD:
		return p.parseTplLitType()
	case token.LBRACE:
		if p.looksLikeMappedType() {
			return p.parseMappedType()
		}
		members := p.parseTypeMembers()
		return &ast.TsTypeLit{NodeInfo: p.at(lo), Members: members}
	case token.LBRACKET:
		return p.parseTupleType()
	case token.LPAREN:
		p.next()
		typ := p.parseType()
		p.expect(token.RPAREN)
		return &ast.TsParenType{NodeInfo: p.at(lo), Type: typ}
	}
	if tok.Type.IsKeyword() {
		return p.parseTypeRef()
	}
	p.fail(errTypeExpected)
	return nil
}

// parseTypeRef parses A.B<C>.
func (p *Parser) parseTypeRef() ast.Type {
	lo := p.tok.Span.Lo
	ref := &ast.TsTypeRef{Name: p.parseEntityName()}
	if p.check(token.LT) && !p.tok.NewlineBefore {
		ref.TypeArgs = p.parseTypeArgs()
	}
	ref.NodeInfo = p.at(lo)
	return ref
}

// parseEntityName parses a dotted name: A, A.B, A.B.C.
func (p *Parser) parseEntityName() ast.Expr {
	lo := p.tok.Span.Lo
	var name ast.Expr = p.parseIdentName()
	for p.check(token.DOT) {
		p.next()
		right := p.parseIdentName()
		name = &ast.TsQualifiedName{NodeInfo: p.at(lo), Left: name, Right: right}
	}
	return name
}

// parseImportType parses import("mod").Name<T>.
func (p *Parser) parseImportType() *ast.TsImportType {
	lo := p.tok.Span.Lo
	p.expect(token.IMPORT)
	p.expect(token.LPAREN)
	if !p.check(token.STRING) {
		p.fail(expectedMsg("string", p.tok))
	}
	typ := &ast.TsImportType{Arg: p.parseStr()}
	p.expect(token.RPAREN)
	if p.match(token.DOT) {
		typ.Qualifier = p.parseEntityName()
	}
	if p.check(token.LT) && !p.tok.NewlineBefore {
		typ.TypeArgs = p.parseTypeArgs()
	}
	typ.NodeInfo = p.at(lo)
	return typ
}

func (p *Parser) parseTplLitType() ast.Type {
	lo := p.tok.Span.Lo
	typ := &ast.TsTplLitType{}
	tok := p.tok
	for {
		var quasi *ast.TplElement
		switch tok.Type {
		case token.TEMPLATE, token.TEMPLATE_TAIL:
			quasi = p.templateElement(tok, 1, false)
			quasi.Tail = true
		default:
			quasi = p.templateElement(tok, 2, false)
		}
		typ.Quasis = append(typ.Quasis, quasi)
		p.next()
		if quasi.Tail {
			break
		}
		typ.Types = append(typ.Types, p.parseType())
		if !p.check(token.RBRACE) {
			p.fail(expectedMsg("}", p.tok))
		}
		p.tok = p.lexer.RescanTemplateContinuation(p.tok)
		tok = p.tok
	}
	typ.NodeInfo = p.at(lo)
	return typ
}

func (p *Parser) parseTupleType() ast.Type {
	lo := p.tok.Span.Lo
	p.expect(token.LBRACKET)
	tuple := &ast.TsTupleType{Elems: []*ast.TsTupleElement{}}
	for !p.match(token.RBRACKET) {
		elo := p.tok.Span.Lo
		el := &ast.TsTupleElement{}
		el.Rest = p.match(token.ELLIPSIS)
		if isIdentName(p.tok) {
			next := p.peek()
			if next.Type == token.COLON || next.Type == token.QUESTION && p.labelFollowsOptional() {
				el.Label = p.parseIdentName()
				el.Optional = p.match(token.QUESTION)
				p.expect(token.COLON)
			}
		}
		el.Type = p.parseType()
		if el.Label == nil && p.check(token.QUESTION) {
			p.next()
			el.Optional = true
		}
		el.NodeInfo = p.at(elo)
		tuple.Elems = append(tuple.Elems, el)
		if !p.check(token.RBRACKET) {
			p.expect(token.COMMA)
		}
	}
	tuple.NodeInfo = p.at(lo)
	return tuple
}

// labelFollowsOptional reports whether `name ?` is followed by a colon,
// making it a labelled optional tuple member.
func (p *Parser) labelFollowsOptional() bool {
	s := p.save()
	defer p.restore(s)
	p.next()
	p.next()
	return p.check(token.COLON)
}

// looksLikeMappedType reports whether { starts { [K in T]: V }.
func (p *Parser) looksLikeMappedType() bool {
	s := p.save()
	defer p.restore(s)
	p.next()
	if p.check(token.PLUS) || p.check(token.MINUS) {
		p.next()
		if !p.checkIdent("readonly") {
			return false
		}
		p.next()
	} else if p.checkIdent("readonly") {
		p.next()
	}
	if !p.match(token.LBRACKET) || !isIdentName(p.tok) {
		return false
	}
	p.next()
	return p.check(token.IN)
}

func (p *Parser) parseMappedType() ast.Type {
	lo := p.tok.Span.Lo
	p.expect(token.LBRACE)
	mapped := &ast.TsMappedType{}
	switch {
	case p.check(token.PLUS) || p.check(token.MINUS):
		mapped.Readonly = p.tok.Literal
		p.next()
		if !p.matchIdent("readonly") {
			p.fail(expectedMsg("readonly", p.tok))
		}
	case p.matchIdent("readonly"):
		mapped.Readonly = "readonly"
	}
	p.expect(token.LBRACKET)
	plo := p.tok.Span.Lo
	name := p.parseIdentName()
	p.expect(token.IN)
	constraint := p.parseType()
	mapped.Param = &ast.TsTypeParam{NodeInfo: p.at(plo), Name: name, Constraint: constraint}
	if p.matchIdent("as") {
		mapped.NameType = p.parseType()
	}
	p.expect(token.RBRACKET)
	switch {
	case p.check(token.PLUS) || p.check(token.MINUS):
		mapped.Optional = p.tok.Literal
		p.next()
		p.expect(token.QUESTION)
	case p.match(token.QUESTION):
		mapped.Optional = "?"
	}
	if p.match(token.COLON) {
		mapped.Type = p.parseType()
	}
	if !p.match(token.SEMICOLON) {
		p.match(token.COMMA)
	}
	p.expect(token.RBRACE)
	mapped.NodeInfo = p.at(lo)
	return mapped
}

// ---------- Type Members ----------

// parseTypeMembers parses the body of an interface or type literal.
func (p *Parser) parseTypeMembers() []ast.TsTypeMember {
	p.expect(token.LBRACE)
	members := []ast.TsTypeMember{}
	for !p.match(token.RBRACE) {
		members = append(members, p.parseTypeMember())
		if p.match(token.SEMICOLON) || p.match(token.COMMA) {
			continue
		}
		if !p.check(token.RBRACE) && !p.tok.NewlineBefore {
			p.fail(expectedMsg(";", p.tok))
		}
	}
	return members
}

func (p *Parser) parseTypeMember() ast.TsTypeMember {
	lo := p.tok.Span.Lo
	if p.check(token.LPAREN) || p.check(token.LT) {
		sig := &ast.TsCallSignature{}
		sig.TypeParams, sig.Params, sig.Return = p.parseSignature()
		sig.NodeInfo = p.at(lo)
		return sig
	}
	if p.check(token.NEW) {
		if next := p.peek(); next.Type == token.LPAREN || next.Type == token.LT {
			p.next()
			sig := &ast.TsCallSignature{Construct: true}
			sig.TypeParams, sig.Params, sig.Return = p.parseSignature()
			sig.NodeInfo = p.at(lo)
			return sig
		}
	}

	readonly := false
	if p.checkIdent("readonly") && p.peekStartsMemberKey() {
		p.next()
		readonly = true
	}
	if p.check(token.LBRACKET) && p.looksLikeIndexSignature() {
		sig := p.parseIndexSignature(lo, readonly)
		sig.NodeInfo = p.at(lo)
		return sig
	}

	kind := ast.MethodNormal
	if (p.checkIdent("get") || p.checkIdent("set")) && p.peekStartsMemberKey() {
		if p.tok.Literal == "get" {
			kind = ast.MethodGetter
		} else {
			kind = ast.MethodSetter
		}
		p.next()
	}

	computed := p.check(token.LBRACKET)
	key := p.parsePropertyKey()
	optional := p.match(token.QUESTION)

	if kind != ast.MethodNormal || p.check(token.LPAREN) || p.check(token.LT) {
		sig := &ast.TsMethodSignature{Kind: kind, Key: key, Computed: computed, Optional: optional}
		sig.TypeParams, sig.Params, sig.Return = p.parseSignature()
		sig.NodeInfo = p.at(lo)
		return sig
	}
	prop := &ast.TsPropertySignature{Readonly: readonly, Key: key, Computed: computed, Optional: optional}
	if p.match(token.COLON) {
		prop.TypeAnn = p.parseType()
	}
	prop.NodeInfo = p.at(lo)
	return prop
}

// peekStartsMemberKey reports whether the token after a modifier begins a key.
func (p *Parser) peekStartsMemberKey() bool {
	next := p.peek()
	switch next.Type {
	case token.STRING, token.NUMBER, token.BIGINT, token.LBRACKET:
		return true
	}
	return isIdentName(next)
}

// parseSignature parses [<T>](params)[: R] of a call or method signature.
func (p *Parser) parseSignature() (*ast.TsTypeParamDecl, []ast.Pat, ast.Type) {
	var typeParams *ast.TsTypeParamDecl
	if p.check(token.LT) {
		typeParams = p.parseTypeParams()
	}
	params := []ast.Pat{}
	for _, param := range p.parseFormalParams() {
		params = append(params, param.Pat)
	}
	var ret ast.Type
	if p.check(token.COLON) {
		ret = p.parseReturnType()
	}
	return typeParams, params, ret
}

// looksLikeIndexSignature reports whether [ starts [key: K].
func (p *Parser) looksLikeIndexSignature() bool {
	s := p.save()
	defer p.restore(s)
	p.next()
	if !isIdentName(p.tok) {
		return false
	}
	p.next()
	return p.check(token.COLON)
}

// parseIndexSignature parses [key: K]: V.
func (p *Parser) parseIndexSignature(lo token.Pos, readonly bool) *ast.TsIndexSignature {
	sig := &ast.TsIndexSignature{Readonly: readonly}
	p.expect(token.LBRACKET)
	for !p.match(token.RBRACKET) {
		id := p.parseIdentName()
		p.parseTypeAnnotationInto(id)
		sig.Params = append(sig.Params, id)
		if !p.check(token.RBRACKET) {
			p.expect(token.COMMA)
		}
	}
	if p.match(token.COLON) {
		sig.TypeAnn = p.parseType()
	}
	sig.NodeInfo = p.at(lo)
	return sig
}

// ---------- Annotations and Parameters ----------

// parseTypeAnnotationInto parses `: T` and stores it on the binding.
func (p *Parser) parseTypeAnnotationInto(pat ast.Pat) {
	if !p.check(token.COLON) {
		return
	}
	p.next()
	typ := p.parseType()
	switch pt := pat.(type) {
	case *ast.Ident:
		pt.TypeAnn = typ
	case *ast.ArrayPat:
		pt.TypeAnn = typ
	case *ast.ObjectPat:
		pt.TypeAnn = typ
	case *ast.RestPat:
		pt.TypeAnn = typ
	}
}

// parseReturnType parses `: T` after a parameter list, where a type
// predicate is also allowed.
func (p *Parser) parseReturnType() ast.Type {
	p.expect(token.COLON)
	var typ ast.Type
	f := p.flags
	f.inType = true
	f.noIn = false
	p.withFlags(f, func() { typ = p.parseTypeOrPredicate() })
	return typ
}

// parseTypeOrPredicate parses a type, `x is T`, `asserts x` or `asserts x is T`.
func (p *Parser) parseTypeOrPredicate() ast.Type {
	lo := p.tok.Span.Lo
	if p.checkIdent("asserts") {
		if next := p.peek(); (next.Type == token.IDENT || next.Type == token.THIS) && !next.NewlineBefore {
			p.next()
			pred := &ast.TsTypePredicate{Asserts: true, Param: p.parsePredicateParam()}
			if p.matchIdent("is") {
				pred.Type = p.parseType()
			}
			pred.NodeInfo = p.at(lo)
			return pred
		}
	}
	if p.check(token.IDENT) || p.check(token.THIS) {
		if next := p.peek(); next.Type == token.IDENT && next.Literal == "is" && !next.NewlineBefore {
			param := p.parsePredicateParam()
			p.next()
			typ := p.parseType()
			return &ast.TsTypePredicate{NodeInfo: p.at(lo), Param: param, Type: typ}
		}
	}
	return p.parseType()
}

func (p *Parser) parsePredicateParam() ast.Node {
	if p.check(token.THIS) {
		this := &ast.TsThisType{NodeInfo: ast.At(p.tok.Span)}
		p.next()
		return this
	}
	return p.parseIdentName()
}

// parseTypeParams parses <T extends C = D, ...> on a declaration.
func (p *Parser) parseTypeParams() *ast.TsTypeParamDecl {
	lo := p.tok.Span.Lo
	p.expect(token.LT)
	decl := &ast.TsTypeParamDecl{}
	f := p.flags
	f.inType = true
	p.withFlags(f, func() {
		for !p.check(token.GT) {
			plo := p.tok.Span.Lo
			param := &ast.TsTypeParam{}
			p.parseTypeParamModifiers(param)
			param.Name = p.parseBindingIdent()
			if p.match(token.EXTENDS) {
				param.Constraint = p.parseType()
			}
			if p.match(token.EQ) {
				param.Default = p.parseType()
			}
			param.NodeInfo = p.at(plo)
			decl.Params = append(decl.Params, param)
			if !p.check(token.GT) {
				p.expect(token.COMMA)
			}
		}
		p.expectGT()
	})
	if len(decl.Params) == 0 {
		p.failAt(p.spanFrom(lo), "Type parameter list cannot be empty")
	}
	decl.NodeInfo = p.at(lo)
	return decl
}

// parseTypeParamModifiers parses const, in and out before a type parameter name.
func (p *Parser) parseTypeParamModifiers(param *ast.TsTypeParam) {
	for p.peek().Type == token.IDENT {
		switch {
		case p.check(token.CONST):
			param.Const = true
		case p.check(token.IN):
			param.In = true
		case p.checkIdent("out"):
			param.Out = true
		default:
			return
		}
		p.next()
	}
}

// parseTypeArgs parses <A, B> after a reference, call or new.
func (p *Parser) parseTypeArgs() *ast.TsTypeArgs {
	lo := p.tok.Span.Lo
	p.expect(token.LT)
	args := &ast.TsTypeArgs{}
	f := p.flags
	f.inType = true
	p.withFlags(f, func() {
		for !p.check(token.GT) {
			args.Params = append(args.Params, p.parseType())
			if !p.check(token.GT) {
				p.expect(token.COMMA)
			}
		}
		p.expectGT()
	})
	if len(args.Params) == 0 {
		p.failAt(p.spanFrom(lo), "Type argument list cannot be empty")
	}
	args.NodeInfo = p.at(lo)
	return args
}

// parseHeritageList parses A, B.C<D> after extends or implements.
func (p *Parser) parseHeritageList() []*ast.TsExprWithTypeArgs {
	var list []*ast.TsExprWithTypeArgs
	for {
		lo := p.tok.Span.Lo
		var expr ast.Expr = p.parseIdentName()
		for p.match(token.DOT) {
			prop := p.parseIdentName()
			expr = &ast.MemberExpr{NodeInfo: p.at(lo), Object: expr, Property: prop}
		}
		entry := &ast.TsExprWithTypeArgs{Expr: expr}
		if p.check(token.LT) {
			entry.TypeArgs = p.parseTypeArgs()
		}
		entry.NodeInfo = p.at(lo)
		list = append(list, entry)
		if !p.match(token.COMMA) {
			return list
		}
	}
}

// ---------- Declarations ----------

// parseTsDeclStatement parses a declaration introduced by a contextual
// keyword: interface, type, abstract class, namespace, module, global and
// declare. It returns nil when the identifier starts an expression instead.
func (p *Parser) parseTsDeclStatement(lo token.Pos, next token.Token, declare bool) ast.Stmt {
	if next.NewlineBefore {
		return nil
	}
	switch p.tok.Literal {
	case "interface":
		if next.Type == token.IDENT {
			return p.parseInterfaceDecl(lo, declare)
		}
	case "type":
		if next.Type == token.IDENT {
			return p.parseTypeAlias(lo, declare)
		}
	case "abstract":
		if next.Type == token.CLASS {
			p.next()
			return p.parseClassDecl(lo, nil, true, declare)
		}
	case "namespace":
		if next.Type == token.IDENT {
			p.next()
			return p.parseModuleDecl(lo, declare, true)
		}
	case "module":
		if next.Type == token.IDENT || next.Type == token.STRING {
			p.next()
			return p.parseModuleDecl(lo, declare, false)
		}
	case "global":
		if declare && next.Type == token.LBRACE {
			id := p.parseIdentName()
			body := p.parseModuleBlock()
			return &ast.TsModuleDecl{NodeInfo: p.at(lo), Declare: true, Global: true, ID: id, Body: body}
		}
	case "declare":
		if !declare {
			return p.parseDeclare(lo, next)
		}
	}
	return nil
}

// parseDeclare parses `declare <declaration>`, whose bodies and initializers
// are omitted.
func (p *Parser) parseDeclare(lo token.Pos, next token.Token) ast.Stmt {
	switch next.Type {
	case token.VAR, token.CONST, token.FUNCTION, token.CLASS, token.ENUM, token.IDENT:
	default:
		return nil
	}
	var decl ast.Stmt
	f := p.flags
	f.ambient = true
	p.withFlags(f, func() {
		p.next()
		switch {
		case p.check(token.CONST) && p.peek().Type == token.ENUM:
			p.next()
			decl = p.parseEnumDecl(lo, true, true)
		case p.check(token.VAR), p.check(token.CONST), p.checkIdent("let"):
			kind := ast.VarKind(p.tok.Literal)
			p.next()
			v := p.parseVarDecl(lo, kind, true, false)
			p.semicolon()
			v.Span = p.spanFrom(lo)
			decl = v
		case p.check(token.FUNCTION):
			decl = p.parseFunctionDecl(lo, false, true)
		case p.check(token.CLASS):
			decl = p.parseClassDecl(lo, nil, false, true)
		case p.check(token.ENUM):
			decl = p.parseEnumDecl(lo, true, false)
		default:
			decl = p.parseTsDeclStatement(lo, p.peek(), true)
			if decl == nil {
				p.failf(errUnexpectedToken, tokenText(p.tok))
			}
		}
	})
	return decl
}

// parseInterfaceDecl parses interface I<T> extends A { members }.
func (p *Parser) parseInterfaceDecl(lo token.Pos, declare bool) *ast.TsInterfaceDecl {
	p.next()
	decl := &ast.TsInterfaceDecl{Declare: declare, ID: p.parseBindingIdent()}
	if p.check(token.LT) {
		decl.TypeParams = p.parseTypeParams()
	}
	if p.match(token.EXTENDS) {
		decl.Extends = p.parseHeritageList()
	}
	decl.Body = p.parseTypeMembers()
	decl.NodeInfo = p.at(lo)
	return decl
}

func (p *Parser) parseTypeAlias(lo token.Pos, declare bool) *ast.TsTypeAliasDecl {
	p.next()
	decl := &ast.TsTypeAliasDecl{Declare: declare, ID: p.parseBindingIdent()}
	if p.check(token.LT) {
		decl.TypeParams = p.parseTypeParams()
	}
	p.expect(token.EQ)
	decl.Type = p.parseType()
	p.semicolon()
	decl.NodeInfo = p.at(lo)
	return decl
}

// parseEnumDecl parses enum E { A, B = 1 } from the enum keyword.
func (p *Parser) parseEnumDecl(lo token.Pos, declare, isConst bool) *ast.TsEnumDecl {
	p.expect(token.ENUM)
	decl := &ast.TsEnumDecl{Declare: declare, Const: isConst, ID: p.parseBindingIdent()}
	p.expect(token.LBRACE)
	decl.Members = []*ast.TsEnumMember{}
	for !p.match(token.RBRACE) {
		mlo := p.tok.Span.Lo
		member := &ast.TsEnumMember{}
		if p.check(token.STRING) {
			member.ID = p.parseStr()
		} else {
			member.ID = p.parseIdentName()
		}
		if p.match(token.EQ) {
			member.Init = p.parseAssignmentIn()
		}
		member.NodeInfo = p.at(mlo)
		decl.Members = append(decl.Members, member)
		if !p.check(token.RBRACE) {
			p.expect(token.COMMA)
		}
	}
	decl.NodeInfo = p.at(lo)
	return decl
}

// parseModuleDecl parses the name and body of a namespace or module
// declaration after its keyword. Dotted names nest one declaration per part.
func (p *Parser) parseModuleDecl(lo token.Pos, declare, namespace bool) *ast.TsModuleDecl {
	decl := &ast.TsModuleDecl{Declare: declare, Namespace: namespace}
	if p.check(token.STRING) {
		decl.ID = p.parseStr()
	} else {
		decl.ID = p.parseBindingIdent()
		if p.match(token.DOT) {
			decl.Body = p.parseModuleDecl(p.tok.Span.Lo, false, namespace)
			decl.NodeInfo = p.at(lo)
			return decl
		}
	}
	if p.check(token.LBRACE) {
		decl.Body = p.parseModuleBlock()
	} else {
		p.semicolon()
	}
	decl.NodeInfo = p.at(lo)
	return decl
}

// parseModuleBlock parses { items } of a namespace. Exports inside it do not
// make the enclosing unit a module.
func (p *Parser) parseModuleBlock() *ast.TsModuleBlock {
	lo := p.tok.Span.Lo
	p.expect(token.LBRACE)
	saved := p.moduleSyntax
	block := &ast.TsModuleBlock{}
	f := p.flags
	f.inFunction = false
	f.inAsync = false
	f.inGenerator = false
	f.inClass = false
	p.withFlags(f, func() {
		for !p.match(token.RBRACE) {
			if p.check(token.EOF) {
				p.fail(expectedMsg("}", p.tok))
			}
			block.Body = append(block.Body, p.parseModuleItem())
		}
	})
	p.moduleSyntax = saved
	block.NodeInfo = p.at(lo)
	return block
}

package parser

import (
	"github.com/leapstack-labs/leapmacro/pkg/ast"
	"github.com/leapstack-labs/leapmacro/pkg/token"
)

// fnOptions select the variations of the shared function grammar.
type fnOptions struct {
	async        bool
	generator    bool
	bodyOptional bool // TypeScript overloads, abstract and ambient members
	paramProps   bool // constructor parameters may declare properties
}

// ---------- Functions ----------

// parseFunctionDecl parses `function [*] name(...) {...}`. A preceding async
// has already been consumed by the caller.
func (p *Parser) parseFunctionDecl(lo token.Pos, async, declare bool) ast.Decl {
	p.expect(token.FUNCTION)
	generator := p.match(token.STAR)
	id := p.parseBindingIdent()
	fn := p.parseFunction(fnOptions{
		async:        async,
		generator:    generator,
		bodyOptional: p.dialect.TypeScript(),
	})
	if fn.Body == nil {
		p.semicolon()
	}
	return &ast.FnDecl{NodeInfo: p.at(lo), Ident: id, Declare: declare, Function: fn}
}

// parseFunctionExpr parses a function expression. As the declaration of
// `export default`, the name is optional and TypeScript overloads may omit
// the body.
func (p *Parser) parseFunctionExpr(exportDefault bool) *ast.FnExpr {
	lo := p.tok.Span.Lo
	async := p.matchIdent("async")
	p.expect(token.FUNCTION)
	generator := p.match(token.STAR)

	var id *ast.Ident
	if p.check(token.IDENT) {
		f := p.flags
		f.inAsync = async
		f.inGenerator = generator
		p.withFlags(f, func() { id = p.parseBindingIdent() })
	}
	fn := p.parseFunction(fnOptions{
		async:        async,
		generator:    generator,
		bodyOptional: exportDefault && p.dialect.TypeScript(),
	})
	if fn.Body == nil {
		p.semicolon()
	}
	return &ast.FnExpr{NodeInfo: p.at(lo), Ident: id, Function: fn}
}

// parseMethodFunction parses the parameters and body of an object literal method.
func (p *Parser) parseMethodFunction(async, generator bool, kind ast.MethodKind) *ast.Function {
	fn := p.parseFunction(fnOptions{async: async, generator: generator})
	p.checkAccessorParams(fn, kind)
	return fn
}

// parseFunction parses [<T>](params)[: R] { body } starting at the type
// parameters or the opening parenthesis.
func (p *Parser) parseFunction(opts fnOptions) *ast.Function {
	lo := p.tok.Span.Lo
	fn := &ast.Function{Async: opts.async, Generator: opts.generator}

	if p.check(token.LT) {
		p.requireTS("Type parameters")
		fn.TypeParams = p.parseTypeParams()
	}

	f := p.flags
	f.inAsync = opts.async
	f.inGenerator = opts.generator
	f.noIn = false
	f.inType = false
	f.inCover = false
	f.inDecorator = false
	p.withFlags(f, func() {
		fn.Params = p.parseFormalParams()
	})
	if !opts.paramProps {
		for _, param := range fn.Params {
			if param.IsParamProp() {
				p.failAt(param.Span, "A parameter property is only allowed in a constructor implementation")
			}
		}
	}

	if p.check(token.COLON) {
		p.requireTS("Type annotations")
		fn.ReturnType = p.parseReturnType()
	}

	if opts.bodyOptional && !p.check(token.LBRACE) {
		fn.NodeInfo = p.at(lo)
		return fn
	}
	f.inFunction = true
	p.withFlags(f, func() {
		fn.Body = p.parseBlock()
	})
	fn.NodeInfo = p.at(lo)
	return fn
}

// checkAccessorParams enforces the parameter counts of getters and setters.
func (p *Parser) checkAccessorParams(fn *ast.Function, kind ast.MethodKind) {
	switch kind {
	case ast.MethodGetter:
		if len(fn.Params) > 0 && !isThisParam(fn.Params[0]) {
			p.failAt(fn.Params[0].Span, "A 'get' accessor cannot have parameters")
		}
	case ast.MethodSetter:
		n := len(fn.Params)
		if n > 0 && isThisParam(fn.Params[0]) {
			n--
		}
		if n != 1 {
			p.failAt(fn.Span, "A 'set' accessor must have exactly one parameter")
		}
	}
}

func isThisParam(param *ast.Param) bool {
	id, ok := param.Pat.(*ast.Ident)
	return ok && id.Name == "this"
}

// parseFormalParams parses ( params ).
func (p *Parser) parseFormalParams() []*ast.Param {
	p.expect(token.LPAREN)
	params := []*ast.Param{}
	for !p.match(token.RPAREN) {
		param := p.parseParam()
		params = append(params, param)
		if _, isRest := param.Pat.(*ast.RestPat); isRest && !p.check(token.RPAREN) {
			p.failAt(param.Span, "A rest parameter must be last in a parameter list")
		}
		if !p.check(token.RPAREN) {
			p.expect(token.COMMA)
		}
	}
	return params
}

// parseParam parses one parameter with its decorators and TypeScript modifiers.
func (p *Parser) parseParam() *ast.Param {
	lo := p.tok.Span.Lo
	param := &ast.Param{}
	if p.check(token.AT) {
		param.Decorators = p.parseDecorators()
	}
	if p.dialect.TypeScript() {
		p.parseParamModifiers(param)
	}

	switch {
	case p.check(token.ELLIPSIS):
		rlo := p.tok.Span.Lo
		p.next()
		arg := p.parseBindingTarget()
		rest := &ast.RestPat{Arg: arg}
		if p.dialect.TypeScript() && p.check(token.QUESTION) {
			p.fail("A rest parameter cannot be optional")
		}
		if p.dialect.TypeScript() && p.check(token.COLON) {
			p.next()
			rest.TypeAnn = p.parseType()
		}
		rest.NodeInfo = p.at(rlo)
		param.Pat = rest
	case p.dialect.TypeScript() && p.check(token.THIS):
		this := &ast.Ident{NodeInfo: ast.At(p.tok.Span), Name: "this"}
		p.next()
		p.parseTypeAnnotationInto(this)
		param.Pat = this
	default:
		pat := p.parseBindingTarget()
		if p.dialect.TypeScript() {
			if p.check(token.QUESTION) {
				p.next()
				setOptional(pat)
			}
			p.parseTypeAnnotationInto(pat)
		}
		if p.match(token.EQ) {
			def := p.parseAssignmentIn()
			pat = &ast.AssignPat{NodeInfo: p.at(pat.GetSpan().Lo), Left: pat, Right: def}
		}
		param.Pat = pat
	}
	param.NodeInfo = p.at(lo)
	return param
}

// parseParamModifiers parses accessibility, readonly and override on a
// parameter. A modifier keyword directly followed by a binding start is a
// modifier; otherwise it names the parameter.
func (p *Parser) parseParamModifiers(param *ast.Param) {
	for p.check(token.IDENT) {
		lit := p.tok.Literal
		switch lit {
		case "public", "private", "protected", "readonly", "override":
		default:
			return
		}
		next := p.peek()
		if next.Type != token.IDENT && next.Type != token.LBRACE && next.Type != token.LBRACKET && next.Type != token.THIS {
			return
		}
		p.next()
		switch lit {
		case "readonly":
			param.Readonly = true
		case "override":
			param.Override = true
		default:
			if param.Accessibility != "" {
				p.fail("Accessibility modifier already seen")
			}
			param.Accessibility = lit
		}
	}
}

func setOptional(pat ast.Pat) {
	switch pt := pat.(type) {
	case *ast.Ident:
		pt.Optional = true
	case *ast.ArrayPat:
		pt.Optional = true
	case *ast.ObjectPat:
		pt.Optional = true
	}
}

// ---------- Binding Patterns ----------

// parseBindingTarget parses an identifier, array pattern or object pattern.
func (p *Parser) parseBindingTarget() ast.Pat {
	switch p.tok.Type {
	case token.IDENT:
		return p.parseBindingIdent()
	case token.LBRACKET:
		return p.parseArrayPat()
	case token.LBRACE:
		return p.parseObjectPat()
	}
	if p.tok.Type.IsKeyword() {
		p.failf(errIdentExpected, tokenText(p.tok))
	}
	p.fail(errBindingExpected)
	return nil
}

// parseBindingElement parses a binding target with an optional default.
func (p *Parser) parseBindingElement() ast.Pat {
	lo := p.tok.Span.Lo
	target := p.parseBindingTarget()
	if p.match(token.EQ) {
		def := p.parseAssignmentIn()
		return &ast.AssignPat{NodeInfo: p.at(lo), Left: target, Right: def}
	}
	return target
}

func (p *Parser) parseArrayPat() *ast.ArrayPat {
	lo := p.tok.Span.Lo
	p.expect(token.LBRACKET)
	pat := &ast.ArrayPat{Elems: []ast.Pat{}}
	for !p.match(token.RBRACKET) {
		if p.match(token.COMMA) {
			pat.Elems = append(pat.Elems, nil)
			continue
		}
		if p.check(token.ELLIPSIS) {
			rlo := p.tok.Span.Lo
			p.next()
			arg := p.parseBindingTarget()
			pat.Elems = append(pat.Elems, &ast.RestPat{NodeInfo: p.at(rlo), Arg: arg})
			if !p.check(token.RBRACKET) {
				p.fail("Rest element must be last element")
			}
			continue
		}
		pat.Elems = append(pat.Elems, p.parseBindingElement())
		if !p.check(token.RBRACKET) {
			p.expect(token.COMMA)
		}
	}
	pat.NodeInfo = p.at(lo)
	return pat
}

func (p *Parser) parseObjectPat() *ast.ObjectPat {
	lo := p.tok.Span.Lo
	p.expect(token.LBRACE)
	pat := &ast.ObjectPat{Props: []ast.ObjectPatProp{}}
	for !p.match(token.RBRACE) {
		plo := p.tok.Span.Lo
		if p.check(token.ELLIPSIS) {
			p.next()
			arg := p.parseBindingIdent()
			pat.Props = append(pat.Props, &ast.RestPat{NodeInfo: p.at(plo), Arg: arg})
			if !p.check(token.RBRACE) {
				p.fail("Rest element must be last element")
			}
			continue
		}
		keyTok := p.tok
		key := p.parsePropertyKey()
		if p.match(token.COLON) {
			value := p.parseBindingElement()
			pat.Props = append(pat.Props, &ast.KeyValuePatProp{NodeInfo: p.at(plo), Key: key, Value: value})
		} else {
			id, ok := key.(*ast.Ident)
			if !ok || keyTok.Type != token.IDENT {
				p.fail(expectedMsg(":", p.tok))
			}
			prop := &ast.AssignPatProp{Key: id}
			if p.match(token.EQ) {
				prop.Value = p.parseAssignmentIn()
			}
			prop.NodeInfo = p.at(plo)
			pat.Props = append(pat.Props, prop)
		}
		if !p.check(token.RBRACE) {
			p.expect(token.COMMA)
		}
	}
	pat.NodeInfo = p.at(lo)
	return pat
}

// ---------- Decorators ----------

// parseDecorators parses one or more @decorator entries.
func (p *Parser) parseDecorators() []*ast.Decorator {
	var decorators []*ast.Decorator
	for p.check(token.AT) {
		lo := p.tok.Span.Lo
		p.next()
		var expr ast.Expr
		f := p.flags
		f.inDecorator = true
		p.withFlags(f, func() { expr = p.parseDecoratorExpr() })
		decorators = append(decorators, &ast.Decorator{NodeInfo: p.at(lo), Expr: expr})
	}
	return decorators
}

// parseDecoratorExpr parses @(expr), or a dotted name followed by an
// optional argument list.
func (p *Parser) parseDecoratorExpr() ast.Expr {
	lo := p.tok.Span.Lo
	if p.check(token.LPAREN) {
		p.next()
		expr := p.parseExpressionIn()
		p.expect(token.RPAREN)
		paren := &ast.ParenExpr{NodeInfo: p.at(lo), Expr: expr}
		return p.parseDecoratorCall(lo, paren)
	}
	var expr ast.Expr = p.parseBindingIdent()
	for p.match(token.DOT) {
		prop := p.parseMemberName()
		expr = &ast.MemberExpr{NodeInfo: p.at(lo), Object: expr, Property: prop}
	}
	return p.parseDecoratorCall(lo, expr)
}

func (p *Parser) parseDecoratorCall(lo token.Pos, callee ast.Expr) ast.Expr {
	var typeArgs *ast.TsTypeArgs
	if p.dialect.TypeScript() && p.check(token.LT) {
		typeArgs = p.parseTypeArgs()
	}
	if !p.check(token.LPAREN) {
		if typeArgs != nil {
			p.fail(expectedMsg("(", p.tok))
		}
		return callee
	}
	args := p.parseArguments()
	return &ast.CallExpr{NodeInfo: p.at(lo), Callee: callee, TypeArgs: typeArgs, Args: args}
}

// ---------- Classes ----------

// parseClassDeclWithDecorators parses a class declaration after its decorators.
func (p *Parser) parseClassDeclWithDecorators(lo token.Pos, decorators []*ast.Decorator) ast.Stmt {
	abstract := false
	if p.dialect.TypeScript() && p.checkIdent("abstract") && p.peek().Type == token.CLASS {
		p.next()
		abstract = true
	}
	if !p.check(token.CLASS) {
		p.fail(expectedMsg("class", p.tok))
	}
	return p.parseClassDecl(lo, decorators, abstract, false)
}

// parseClassDecl parses `class Name ... { body }`.
func (p *Parser) parseClassDecl(lo token.Pos, decorators []*ast.Decorator, abstract, declare bool) ast.Decl {
	p.expect(token.CLASS)
	if p.checkIdent("implements") || !p.check(token.IDENT) {
		p.failf(errIdentExpected, tokenText(p.tok))
	}
	id := p.parseBindingIdent()
	class := p.parseClass(lo, decorators, abstract)
	return &ast.ClassDecl{NodeInfo: p.at(lo), Ident: id, Declare: declare, Class: class}
}

// parseClassExpr parses a class expression, whose name is optional.
func (p *Parser) parseClassExpr(lo token.Pos, decorators []*ast.Decorator, abstract bool) *ast.ClassExpr {
	p.expect(token.CLASS)
	var id *ast.Ident
	if p.check(token.IDENT) && !p.checkIdent("implements") {
		id = p.parseBindingIdent()
	}
	class := p.parseClass(lo, decorators, abstract)
	return &ast.ClassExpr{NodeInfo: p.at(lo), Ident: id, Class: class}
}

// parseClass parses type parameters, heritage clauses and the class body.
func (p *Parser) parseClass(lo token.Pos, decorators []*ast.Decorator, abstract bool) *ast.Class {
	class := &ast.Class{Decorators: decorators, Abstract: abstract}
	if p.check(token.LT) {
		p.requireTS("Type parameters")
		class.TypeParams = p.parseTypeParams()
	}
	if p.match(token.EXTENDS) {
		slo := p.tok.Span.Lo
		var super ast.Expr
		if p.check(token.NEW) {
			super = p.parseNew()
		} else {
			super = p.parsePrimary()
		}
		class.SuperClass = p.parseSuffixes(slo, super, false)
		if p.dialect.TypeScript() && p.check(token.LT) {
			class.SuperTypeArgs = p.parseTypeArgs()
		}
	}
	if p.checkIdent("implements") {
		p.requireTS("'implements' clauses")
		p.next()
		class.Implements = p.parseHeritageList()
	}

	p.expect(token.LBRACE)
	f := p.flags
	f.inClass = true
	f.noIn = false
	f.inCover = false
	p.withFlags(f, func() {
		class.Body = []ast.ClassMember{}
		for !p.match(token.RBRACE) {
			if p.check(token.EOF) {
				p.fail(expectedMsg("}", p.tok))
			}
			class.Body = append(class.Body, p.parseClassMember())
		}
	})
	class.NodeInfo = p.at(lo)
	return class
}

// classModifiers are the keywords that may precede a class member.
var classModifiers = map[string]bool{
	"static": true, "public": true, "private": true, "protected": true,
	"abstract": true, "override": true, "readonly": true, "declare": true,
	"accessor": true,
}

// isModifier reports whether the current identifier is a modifier rather
// than the member's name.
func (p *Parser) isModifier() bool {
	if !p.check(token.IDENT) || !classModifiers[p.tok.Literal] {
		return false
	}
	if !p.dialect.TypeScript() && p.tok.Literal != "static" && p.tok.Literal != "accessor" {
		return false
	}
	next := p.peek()
	switch next.Type {
	case token.LPAREN, token.EQ, token.SEMICOLON, token.COLON, token.QUESTION, token.BANG,
		token.RBRACE, token.LT, token.EOF:
		return false
	case token.LBRACE:
		return p.tok.Literal == "static"
	}
	if next.NewlineBefore && p.tok.Literal != "static" {
		return false
	}
	return next.Type == token.STAR || next.Type == token.STRING || next.Type == token.NUMBER ||
		next.Type == token.BIGINT || next.Type == token.LBRACKET || next.Type == token.PRIVATE_NAME ||
		isIdentName(next)
}

// parseClassMember parses a constructor, method, property, index signature
// or static block.
func (p *Parser) parseClassMember() ast.ClassMember {
	lo := p.tok.Span.Lo
	if p.match(token.SEMICOLON) {
		return &ast.EmptyMember{NodeInfo: p.at(lo)}
	}
	var decorators []*ast.Decorator
	if p.check(token.AT) {
		decorators = p.parseDecorators()
	}

	var mods ast.MemberModifiers
	readonly, declare, accessor := false, false, false
	for p.isModifier() {
		lit := p.tok.Literal
		p.next()
		switch lit {
		case "static":
			if p.check(token.LBRACE) {
				if len(decorators) > 0 {
					p.fail("Decorators are not valid here")
				}
				return p.parseStaticBlock(lo)
			}
			mods.Static = true
		case "public", "private", "protected":
			mods.Accessibility = lit
		case "abstract":
			mods.Abstract = true
		case "override":
			mods.Override = true
		case "readonly":
			readonly = true
		case "declare":
			declare = true
		case "accessor":
			accessor = true
		}
	}

	if p.dialect.TypeScript() && p.check(token.LBRACKET) && p.looksLikeIndexSignature() {
		sig := p.parseIndexSignature(lo, readonly)
		sig.Static = mods.Static
		p.semicolon()
		sig.NodeInfo = p.at(lo)
		return sig
	}

	async, generator := false, false
	kind := ast.MethodNormal
	if p.checkIdent("async") && p.peekStartsMethodKey() {
		p.next()
		async = true
	}
	if p.match(token.STAR) {
		generator = true
	}
	if !async && !generator && (p.checkIdent("get") || p.checkIdent("set")) && p.peekStartsMethodKey() {
		if p.tok.Literal == "get" {
			kind = ast.MethodGetter
		} else {
			kind = ast.MethodSetter
		}
		p.next()
	}

	key := p.parsePropertyKey()
	optional := false
	if p.dialect.TypeScript() && p.check(token.QUESTION) {
		p.next()
		optional = true
	}
	mods.Optional = optional

	if p.check(token.LPAREN) || p.check(token.LT) {
		bodyOptional := p.dialect.TypeScript()
		if isConstructorKey(key) && !mods.Static && kind == ast.MethodNormal {
			if async || generator || len(decorators) > 0 {
				p.failAt(key.GetSpan(), "Constructor cannot be async, a generator or decorated")
			}
			fn := p.parseFunction(fnOptions{bodyOptional: bodyOptional, paramProps: true})
			if fn.Body == nil {
				p.semicolon()
			}
			return &ast.Constructor{NodeInfo: p.at(lo), Accessibility: mods.Accessibility, Key: key, Function: fn}
		}
		fn := p.parseFunction(fnOptions{async: async, generator: generator, bodyOptional: bodyOptional})
		p.checkAccessorParams(fn, kind)
		if fn.Body == nil {
			p.semicolon()
		}
		return &ast.ClassMethod{NodeInfo: p.at(lo), MemberModifiers: mods, Decorators: decorators, Kind: kind, Key: key, Function: fn}
	}
	if async || generator || kind != ast.MethodNormal {
		p.fail(expectedMsg("(", p.tok))
	}

	prop := &ast.ClassProp{
		MemberModifiers: mods,
		Decorators:      decorators,
		Key:             key,
		Readonly:        readonly,
		Declare:         declare,
		Accessor:        accessor,
	}
	if p.dialect.TypeScript() {
		if !optional && p.check(token.BANG) {
			p.next()
			prop.Definite = true
		}
		if p.check(token.COLON) {
			p.next()
			prop.TypeAnn = p.parseType()
		}
	}
	if p.match(token.EQ) {
		f := p.flags
		f.inFunction = true
		f.inAsync = false
		f.inGenerator = false
		p.withFlags(f, func() { prop.Value = p.parseAssignmentIn() })
	}
	p.semicolon()
	prop.NodeInfo = p.at(lo)
	return prop
}

// peekStartsMethodKey reports whether the token after get, set or async
// begins a member key, so the word is a modifier and not the key itself.
func (p *Parser) peekStartsMethodKey() bool {
	next := p.peek()
	if next.NewlineBefore {
		return false
	}
	switch next.Type {
	case token.STRING, token.NUMBER, token.BIGINT, token.LBRACKET, token.PRIVATE_NAME, token.STAR:
		return true
	}
	return isIdentName(next)
}

func isConstructorKey(key ast.Expr) bool {
	switch k := key.(type) {
	case *ast.Ident:
		return k.Name == "constructor"
	case *ast.Str:
		return k.Value == "constructor"
	}
	return false
}

func (p *Parser) parseStaticBlock(lo token.Pos) ast.ClassMember {
	var body *ast.BlockStmt
	f := p.flags
	f.inFunction = false
	f.inAsync = false
	f.inGenerator = false
	p.withFlags(f, func() { body = p.parseBlock() })
	return &ast.StaticBlock{NodeInfo: p.at(lo), Body: body}
}

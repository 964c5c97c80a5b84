package parser

import (
	"strings"

	"github.com/leapstack-labs/leapmacro/pkg/ast"
	"github.com/leapstack-labs/leapmacro/pkg/token"
)

// parsePrimary parses literals, identifiers, grouping and the expression forms
// introduced by a keyword.
func (p *Parser) parsePrimary() ast.Expr {
	lo := p.tok.Span.Lo
	tok := p.tok
	switch tok.Type {
	case token.IDENT:
		if tok.Literal == "async" {
			next := p.peek()
			if next.Type == token.FUNCTION && !next.NewlineBefore {
				return p.parseFunctionExpr(false)
			}
		}
		if !p.checkBindingIdent() {
			p.failf(errIdentExpected, tokenText(p.tok))
		}
		p.next()
		return &ast.Ident{NodeInfo: ast.At(tok.Span), Name: identValue(tok)}
	case token.NUMBER:
		p.next()
		return &ast.Num{NodeInfo: ast.At(tok.Span), Value: NumberValue(tok.Literal), Raw: tok.Literal}
	case token.BIGINT:
		p.next()
		return &ast.BigInt{NodeInfo: ast.At(tok.Span), Raw: tok.Literal}
	case token.STRING:
		return p.parseStr()
	case token.TEMPLATE, token.TEMPLATE_HEAD:
		return p.parseTemplate(false)
	case token.SLASH, token.SLASH_EQ:
		re := p.lexer.RescanRegExp(tok)
		p.tok = re
		p.next()
		slash := strings.LastIndexByte(re.Literal, '/')
		return &ast.Regex{NodeInfo: ast.At(re.Span), Pattern: re.Value, Flags: re.Literal[slash+1:]}
	case token.TRUE, token.FALSE:
		p.next()
		return &ast.Bool{NodeInfo: ast.At(tok.Span), Value: tok.Type == token.TRUE}
	case token.NULL:
		p.next()
		return &ast.Null{NodeInfo: ast.At(tok.Span)}
	case token.THIS:
		p.next()
		return &ast.ThisExpr{NodeInfo: ast.At(tok.Span)}
	case token.SUPER:
		p.next()
		if !p.check(token.LPAREN) && !p.check(token.DOT) && !p.check(token.LBRACKET) {
			p.fail("'super' keyword unexpected here")
		}
		return &ast.SuperExpr{NodeInfo: ast.At(tok.Span)}
	case token.IMPORT:
		p.next()
		if p.match(token.DOT) {
			if !p.checkIdent("meta") {
				p.fail(expectedMsg("meta", p.tok))
			}
			p.next()
			p.moduleSyntax = true
			return &ast.MetaProp{NodeInfo: p.at(lo), Meta: "import", Property: "meta"}
		}
		if !p.check(token.LPAREN) {
			p.fail(expectedMsg("(", p.tok))
		}
		return &ast.ImportExpr{NodeInfo: ast.At(tok.Span)}
	case token.LPAREN:
		p.next()
		expr := p.parseExpressionIn()
		p.expect(token.RPAREN)
		return &ast.ParenExpr{NodeInfo: p.at(lo), Expr: expr}
	case token.LBRACKET:
		return p.parseArrayLit()
	case token.LBRACE:
		return p.parseObjectLit()
	case token.FUNCTION:
		return p.parseFunctionExpr(false)
	case token.CLASS:
		return p.parseClassExpr(lo, nil, false)
	case token.AT:
		decorators := p.parseDecorators()
		if !p.check(token.CLASS) {
			p.fail(expectedMsg("class", p.tok))
		}
		return p.parseClassExpr(lo, decorators, false)
	case token.PRIVATE_NAME:
		name := p.parsePrivateName()
		if !p.check(token.IN) {
			p.fail(expectedMsg("in", p.tok))
		}
		return name
	case token.LT:
		if p.dialect.JSX() {
			return p.parseJSXElement(false)
		}
		p.fail(errJSXDisabled)
	}
	p.fail(errExpressionExpected)
	return nil
}

// parseStr parses a string literal token.
func (p *Parser) parseStr() *ast.Str {
	tok := p.expect(token.STRING)
	return &ast.Str{NodeInfo: ast.At(tok.Span), Value: tok.Value, Raw: tok.Literal}
}

// parseTemplate parses a template literal. Invalid escapes are only allowed
// in tagged templates, where the cooked value becomes undefined.
func (p *Parser) parseTemplate(tagged bool) *ast.Tpl {
	lo := p.tok.Span.Lo
	tpl := &ast.Tpl{}
	tok := p.tok
	for {
		var quasi *ast.TplElement
		switch tok.Type {
		case token.TEMPLATE, token.TEMPLATE_TAIL:
			quasi = p.templateElement(tok, 1, tagged)
			quasi.Tail = true
		case token.TEMPLATE_HEAD, token.TEMPLATE_MIDDLE:
			quasi = p.templateElement(tok, 2, tagged)
		default:
			p.fail(expectedMsg("`", tok))
		}
		tpl.Quasis = append(tpl.Quasis, quasi)
		if quasi.Tail {
			p.next()
			break
		}
		p.next()
		tpl.Exprs = append(tpl.Exprs, p.parseExpressionIn())
		if !p.check(token.RBRACE) {
			p.fail(expectedMsg("}", p.tok))
		}
		p.tok = p.lexer.RescanTemplateContinuation(p.tok)
		tok = p.tok
	}
	tpl.NodeInfo = p.at(lo)
	return tpl
}

// templateElement extracts the text of a template chunk between its
// one-byte opening delimiter and its closing delimiter of closeLen bytes.
func (p *Parser) templateElement(tok token.Token, closeLen int, tagged bool) *ast.TplElement {
	raw := tok.Literal[1 : len(tok.Literal)-closeLen]
	span := token.NewSpan(tok.Span.Lo+1, tok.Span.Hi-token.Pos(closeLen))
	el := &ast.TplElement{NodeInfo: ast.At(span), Raw: raw}
	if tok.InvalidEscape {
		if !tagged {
			p.failAt(tok.Span, errInvalidEscape)
		}
		return el
	}
	cooked := tok.Value
	el.Cooked = &cooked
	return el
}

// parseArrayLit parses [elements] with holes and spreads.
func (p *Parser) parseArrayLit() ast.Expr {
	lo := p.tok.Span.Lo
	p.expect(token.LBRACKET)
	arr := &ast.ArrayLit{Elems: []ast.Expr{}}
	for !p.match(token.RBRACKET) {
		if p.check(token.COMMA) {
			p.next()
			arr.Elems = append(arr.Elems, nil)
			continue
		}
		if p.check(token.ELLIPSIS) {
			slo := p.tok.Span.Lo
			p.next()
			arg := p.parseCoverElement()
			arr.Elems = append(arr.Elems, &ast.SpreadElement{NodeInfo: p.at(slo), Arg: arg})
		} else {
			arr.Elems = append(arr.Elems, p.parseCoverElement())
		}
		if !p.check(token.RBRACKET) {
			p.expect(token.COMMA)
		}
	}
	arr.NodeInfo = p.at(lo)
	return arr
}

// parseObjectLit parses { properties }.
func (p *Parser) parseObjectLit() *ast.ObjectLit {
	lo := p.tok.Span.Lo
	p.expect(token.LBRACE)
	obj := &ast.ObjectLit{Props: []ast.Prop{}}
	for !p.match(token.RBRACE) {
		obj.Props = append(obj.Props, p.parseObjectProp())
		if !p.check(token.RBRACE) {
			p.expect(token.COMMA)
		}
	}
	obj.NodeInfo = p.at(lo)
	return obj
}

// parseObjectProp parses one object literal member.
func (p *Parser) parseObjectProp() ast.Prop {
	lo := p.tok.Span.Lo
	if p.check(token.ELLIPSIS) {
		p.next()
		arg := p.parseCoverElement()
		return &ast.SpreadElement{NodeInfo: p.at(lo), Arg: arg}
	}

	isAsync, isGenerator := false, false
	kind := ast.MethodNormal
	if p.checkIdent("async") && p.peekStartsPropertyKey(true) {
		p.next()
		isAsync = true
	}
	if p.match(token.STAR) {
		isGenerator = true
	}
	if !isAsync && !isGenerator && (p.checkIdent("get") || p.checkIdent("set")) && p.peekStartsPropertyKey(false) {
		if p.tok.Literal == "get" {
			kind = ast.MethodGetter
		} else {
			kind = ast.MethodSetter
		}
		p.next()
	}

	keyTok := p.tok
	key := p.parsePropertyKey()

	if isAsync || isGenerator || kind != ast.MethodNormal || p.check(token.LPAREN) || p.check(token.LT) {
		fn := p.parseMethodFunction(isAsync, isGenerator, kind)
		return &ast.MethodProp{NodeInfo: p.at(lo), Kind: kind, Key: key, Function: fn}
	}

	if p.match(token.COLON) {
		value := p.parseCoverElement()
		return &ast.KeyValueProp{NodeInfo: p.at(lo), Key: key, Value: value}
	}

	id, ok := key.(*ast.Ident)
	if !ok || keyTok.Type != token.IDENT {
		p.fail(expectedMsg(":", p.tok))
	}
	if p.match(token.EQ) {
		value := p.parseAssignmentIn()
		return &ast.AssignProp{NodeInfo: p.at(lo), Key: id, Value: value}
	}
	return &ast.ShorthandProp{NodeInfo: p.at(lo), Ident: id}
}

// peekStartsPropertyKey reports whether the token after a get, set or async
// modifier starts a property key, so the modifier is not itself the key.
func (p *Parser) peekStartsPropertyKey(allowStar bool) bool {
	next := p.peek()
	if next.NewlineBefore && allowStar {
		return false
	}
	switch next.Type {
	case token.STRING, token.NUMBER, token.BIGINT, token.LBRACKET, token.PRIVATE_NAME:
		return true
	case token.STAR:
		return allowStar
	}
	return isIdentName(next)
}

// parsePropertyKey parses an identifier name, string, number or [computed] key.
func (p *Parser) parsePropertyKey() ast.Expr {
	tok := p.tok
	switch tok.Type {
	case token.STRING:
		return p.parseStr()
	case token.NUMBER:
		p.next()
		return &ast.Num{NodeInfo: ast.At(tok.Span), Value: NumberValue(tok.Literal), Raw: tok.Literal}
	case token.BIGINT:
		p.next()
		return &ast.BigInt{NodeInfo: ast.At(tok.Span), Raw: tok.Literal}
	case token.LBRACKET:
		lo := tok.Span.Lo
		p.next()
		expr := p.parseAssignmentIn()
		p.expect(token.RBRACKET)
		return &ast.ComputedPropName{NodeInfo: p.at(lo), Expr: expr}
	case token.PRIVATE_NAME:
		if !p.flags.inClass {
			p.fail("Private names are only allowed in class bodies")
		}
		return p.parsePrivateName()
	}
	return p.parseIdentName()
}

// ---------- Arrow Functions ----------

// arrowHead is the part of an arrow function before its body.
type arrowHead struct {
	lo         token.Pos
	async      bool
	typeParams *ast.TsTypeParamDecl
	params     []ast.Pat
	returnType ast.Type
}

// tryParseArrow parses an arrow function if one starts at the current token.
// The head is parsed speculatively; once => is seen the parser commits, so
// errors in the body are reported where they occur.
func (p *Parser) tryParseArrow() ast.Expr {
	lo := p.tok.Span.Lo
	switch p.tok.Type {
	case token.IDENT:
		next := p.peek()
		if next.Type == token.ARROW && !next.NewlineBefore && p.checkBindingIdent() {
			param := p.parseBindingIdent()
			return p.parseArrowBody(&arrowHead{lo: lo, params: []ast.Pat{param}})
		}
		if p.tok.Literal != "async" || next.NewlineBefore {
			return nil
		}
		switch {
		case next.Type == token.IDENT:
			head, ok := speculate(p, func() (*arrowHead, bool) {
				p.next()
				param := p.parseBindingIdent()
				return &arrowHead{lo: lo, async: true, params: []ast.Pat{param}}, p.check(token.ARROW) && !p.tok.NewlineBefore
			})
			if ok {
				return p.parseArrowBody(head)
			}
		case next.Type == token.LPAREN || (next.Type == token.LT && p.dialect.TypeScript()):
			head, ok := speculate(p, func() (*arrowHead, bool) {
				p.next()
				return p.parseArrowHead(lo, true)
			})
			if ok {
				return p.parseArrowBody(head)
			}
		}
	case token.LPAREN:
		head, ok := speculate(p, func() (*arrowHead, bool) {
			return p.parseArrowHead(lo, false)
		})
		if ok {
			return p.parseArrowBody(head)
		}
	case token.LT:
		if !p.dialect.TypeScript() || (p.dialect.JSX() && !p.looksLikeTSXGenericArrow()) {
			return nil
		}
		head, ok := speculate(p, func() (*arrowHead, bool) {
			return p.parseArrowHead(lo, false)
		})
		if ok {
			return p.parseArrowBody(head)
		}
	}
	return nil
}

// looksLikeTSXGenericArrow reports whether < starts type parameters rather
// than a JSX element: `<T,>`, `<T extends U>` or `<const T>`.
func (p *Parser) looksLikeTSXGenericArrow() bool {
	s := p.save()
	defer p.restore(s)
	p.next()
	if p.check(token.CONST) {
		p.next()
		return p.check(token.IDENT)
	}
	if !p.check(token.IDENT) {
		return false
	}
	p.next()
	return p.check(token.COMMA) || p.check(token.EXTENDS)
}

// parseArrowHead parses [<T>] (params) [: R] and reports whether => follows.
func (p *Parser) parseArrowHead(lo token.Pos, async bool) (*arrowHead, bool) {
	head := &arrowHead{lo: lo, async: async}
	if p.check(token.LT) {
		head.typeParams = p.parseTypeParams()
	}
	f := p.flags
	f.inAsync = async
	f.inGenerator = false
	f.noIn = false
	f.inCover = false
	p.withFlags(f, func() {
		params := p.parseFormalParams()
		for _, param := range params {
			if param.IsParamProp() || len(param.Decorators) > 0 {
				p.failAt(param.Span, "Parameter properties are only allowed in constructors")
			}
			head.params = append(head.params, param.Pat)
		}
	})
	if p.dialect.TypeScript() && p.check(token.COLON) {
		head.returnType = p.parseReturnType()
	}
	return head, p.check(token.ARROW) && !p.tok.NewlineBefore
}

// parseArrowBody parses => body after a committed head.
func (p *Parser) parseArrowBody(head *arrowHead) ast.Expr {
	p.expect(token.ARROW)
	arrow := &ast.ArrowExpr{
		Async:      head.async,
		TypeParams: head.typeParams,
		Params:     head.params,
		ReturnType: head.returnType,
	}
	f := p.flags
	f.inFunction = true
	f.inAsync = head.async
	f.inGenerator = false
	f.inCover = false
	f.inType = false
	if p.check(token.LBRACE) {
		f.noIn = false
		p.withFlags(f, func() { arrow.Body = p.parseBlock() })
	} else {
		p.withFlags(f, func() { arrow.Body = p.parseAssignment() })
	}
	arrow.NodeInfo = p.at(head.lo)
	return arrow
}

package parser

import (
	"fmt"

	"github.com/leapstack-labs/leapmacro/pkg/ast"
	"github.com/leapstack-labs/leapmacro/pkg/token"
)

// JSX is scanned in three modes: tag contents use the default lexer with
// dashed names rescanned, children are scanned as raw text up to < or {,
// and attribute strings are scanned without escapes.

// nextJSXChild advances to the next child token after a > or }.
func (p *Parser) nextJSXChild() {
	p.prevEnd = p.tok.Span.Hi
	p.tok = p.lexer.ScanJSXChild()
}

// finishJSXTag advances past the closing > of an element. Nested elements
// continue in child mode, the outermost returns to the default lexer.
func (p *Parser) finishJSXTag(inChildren bool) {
	if !p.check(token.GT) {
		p.fail(expectedMsg(">", p.tok))
	}
	if inChildren {
		p.nextJSXChild()
		return
	}
	p.next()
}

// parseJSXElement parses an element or fragment starting at <.
func (p *Parser) parseJSXElement(inChildren bool) ast.Expr {
	lo := p.tok.Span.Lo
	p.expect(token.LT)

	if p.check(token.GT) {
		p.nextJSXChild()
		children := p.parseJSXChildren()
		p.parseJSXClosing(nil)
		p.finishJSXTag(inChildren)
		return &ast.JSXFragment{NodeInfo: p.at(lo), Children: children}
	}

	opening := &ast.JSXOpeningElement{Name: p.parseJSXElementName()}
	if p.dialect.TypeScript() && p.check(token.LT) {
		opening.TypeArgs = p.parseTypeArgs()
	}
	opening.Attrs = p.parseJSXAttrs()

	el := &ast.JSXElement{Opening: opening}
	if p.match(token.SLASH) {
		opening.SelfClosing = true
		if !p.check(token.GT) {
			p.fail(expectedMsg(">", p.tok))
		}
		opening.NodeInfo = ast.At(token.NewSpan(lo, p.tok.Span.Hi))
		p.finishJSXTag(inChildren)
		el.NodeInfo = p.at(lo)
		return el
	}
	if !p.check(token.GT) {
		p.fail(expectedMsg(">", p.tok))
	}
	opening.NodeInfo = ast.At(token.NewSpan(lo, p.tok.Span.Hi))
	p.nextJSXChild()
	el.Children = p.parseJSXChildren()
	el.Closing = p.parseJSXClosing(opening.Name)
	p.finishJSXTag(inChildren)
	el.NodeInfo = p.at(lo)
	return el
}

// parseJSXChildren parses children up to the < of a closing tag.
func (p *Parser) parseJSXChildren() []ast.Expr {
	children := []ast.Expr{}
	for {
		switch p.tok.Type {
		case token.JSX_TEXT:
			children = append(children, &ast.JSXText{NodeInfo: ast.At(p.tok.Span), Raw: p.tok.Literal})
			p.nextJSXChild()
		case token.LBRACE:
			children = append(children, p.parseJSXExprContainer(true))
			p.nextJSXChild()
		case token.LT:
			if p.peek().Type == token.SLASH {
				return children
			}
			children = append(children, p.parseJSXElement(true))
		case token.EOF:
			p.fail("Unterminated JSX contents")
		default:
			p.unexpected()
		}
	}
}

// parseJSXExprContainer parses {expr}, {} or, among children, {...expr}.
// It leaves the closing } as the current token.
func (p *Parser) parseJSXExprContainer(child bool) ast.Expr {
	lo := p.tok.Span.Lo
	open := p.tok.Span.Hi
	p.next()
	if p.check(token.RBRACE) {
		empty := &ast.JSXEmptyExpr{NodeInfo: ast.At(token.NewSpan(open, p.tok.Span.Lo))}
		if !child {
			p.fail("JSX attributes must only be assigned a non-empty expression")
		}
		return &ast.JSXExprContainer{NodeInfo: ast.At(token.NewSpan(lo, p.tok.Span.Hi)), Expr: empty}
	}
	if child && p.check(token.ELLIPSIS) {
		p.next()
		expr := p.parseExpressionIn()
		if !p.check(token.RBRACE) {
			p.fail(expectedMsg("}", p.tok))
		}
		return &ast.JSXSpreadChild{NodeInfo: ast.At(token.NewSpan(lo, p.tok.Span.Hi)), Expr: expr}
	}
	expr := p.parseExpressionIn()
	if !p.check(token.RBRACE) {
		p.fail(expectedMsg("}", p.tok))
	}
	return &ast.JSXExprContainer{NodeInfo: ast.At(token.NewSpan(lo, p.tok.Span.Hi)), Expr: expr}
}

// parseJSXClosing parses </Name or </ up to its >, which stays current.
// A nil name closes a fragment.
func (p *Parser) parseJSXClosing(name ast.Expr) *ast.JSXClosingElement {
	lo := p.tok.Span.Lo
	p.expect(token.LT)
	p.expect(token.SLASH)
	if name == nil {
		if !p.check(token.GT) {
			p.fail(expectedMsg(">", p.tok))
		}
		return nil
	}
	closing := p.parseJSXElementName()
	if jsxNameString(closing) != jsxNameString(name) {
		p.failAt(closing.GetSpan(), fmt.Sprintf(errJSXClosingMismatch, jsxNameString(name)))
	}
	if !p.check(token.GT) {
		p.fail(expectedMsg(">", p.tok))
	}
	return &ast.JSXClosingElement{NodeInfo: ast.At(token.NewSpan(lo, p.tok.Span.Hi)), Name: closing}
}

// parseJSXIdent parses an identifier that may contain dashes.
func (p *Parser) parseJSXIdent() *ast.Ident {
	if !isIdentName(p.tok) {
		p.failf(errIdentExpected, tokenText(p.tok))
	}
	p.tok = p.lexer.RescanJSXIdentifier(p.tok)
	id := &ast.Ident{NodeInfo: ast.At(p.tok.Span), Name: p.tok.Literal}
	p.next()
	return id
}

// parseJSXElementName parses a, a-b, a:b or a.b.c.
func (p *Parser) parseJSXElementName() ast.Expr {
	lo := p.tok.Span.Lo
	first := p.parseJSXIdent()
	if p.match(token.COLON) {
		name := p.parseJSXIdent()
		return &ast.JSXNamespacedName{NodeInfo: p.at(lo), NS: first, Name: name}
	}
	var name ast.Expr = first
	for p.match(token.DOT) {
		prop := p.parseIdentName()
		name = &ast.JSXMemberExpr{NodeInfo: p.at(lo), Object: name, Property: prop}
	}
	return name
}

// parseJSXAttrs parses attributes up to / or >.
func (p *Parser) parseJSXAttrs() []ast.Node {
	attrs := []ast.Node{}
	for !p.check(token.SLASH) && !p.check(token.GT) {
		lo := p.tok.Span.Lo
		if p.check(token.LBRACE) {
			p.next()
			p.expect(token.ELLIPSIS)
			arg := p.parseAssignmentIn()
			if !p.check(token.RBRACE) {
				p.fail(expectedMsg("}", p.tok))
			}
			p.next()
			attrs = append(attrs, &ast.JSXSpreadAttr{NodeInfo: p.at(lo), Arg: arg})
			continue
		}

		var name ast.Expr = p.parseJSXIdent()
		if p.match(token.COLON) {
			local := p.parseJSXIdent()
			name = &ast.JSXNamespacedName{NodeInfo: p.at(lo), NS: name.(*ast.Ident), Name: local}
		}
		attr := &ast.JSXAttr{Name: name}
		if p.check(token.EQ) {
			attr.Value = p.parseJSXAttrValue()
		}
		attr.NodeInfo = p.at(lo)
		attrs = append(attrs, attr)
	}
	return attrs
}

// parseJSXAttrValue parses the value after =.
func (p *Parser) parseJSXAttrValue() ast.Expr {
	p.prevEnd = p.tok.Span.Hi
	p.tok = p.lexer.ScanJSXAttrValue()
	switch p.tok.Type {
	case token.STRING:
		tok := p.tok
		p.next()
		return &ast.Str{NodeInfo: ast.At(tok.Span), Value: tok.Value, Raw: tok.Literal}
	case token.LBRACE:
		container := p.parseJSXExprContainer(false)
		p.next()
		return container
	case token.LT:
		return p.parseJSXElement(false)
	}
	p.fail("JSX value should be either an expression or a quoted JSX text")
	return nil
}

// jsxNameString renders a tag name for comparing opening and closing tags.
func jsxNameString(name ast.Expr) string {
	switch n := name.(type) {
	case *ast.Ident:
		return n.Name
	case *ast.JSXNamespacedName:
		return n.NS.Name + ":" + n.Name.Name
	case *ast.JSXMemberExpr:
		return jsxNameString(n.Object) + "." + n.Property.Name
	}
	return ""
}

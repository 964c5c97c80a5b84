package parser

import (
	"github.com/leapstack-labs/leapmacro/pkg/ast"
	"github.com/leapstack-labs/leapmacro/pkg/token"
)

// Expression grammar, lowest precedence first:
//
//	expression  → assignment (',' assignment)*
//	assignment  → arrow | yield | conditional [assign_op assignment]
//	conditional → binary ['?' assignment ':' assignment]
//	binary      → unary (binary_op unary)*          precedence climbing
//	unary       → unary_op unary | await unary | '<' type '>' unary | postfix
//	postfix     → lhs ['++' | '--']
//	lhs         → (new_expr | primary) (member | call | template | '!')*

// parseExpression parses a comma-separated sequence.
func (p *Parser) parseExpression() ast.Expr {
	lo := p.tok.Span.Lo
	expr := p.parseAssignment()
	if !p.check(token.COMMA) {
		return expr
	}
	exprs := []ast.Expr{expr}
	for p.match(token.COMMA) {
		exprs = append(exprs, p.parseAssignment())
	}
	return &ast.SeqExpr{NodeInfo: p.at(lo), Exprs: exprs}
}

// parseExpressionIn parses an expression with `in` allowed, as inside
// parentheses, brackets and template substitutions.
func (p *Parser) parseExpressionIn() ast.Expr {
	var expr ast.Expr
	f := p.flags
	f.noIn = false
	f.inType = false
	f.inCover = false
	p.withFlags(f, func() { expr = p.parseExpression() })
	return expr
}

// parseAssignmentIn parses an assignment expression with `in` allowed.
func (p *Parser) parseAssignmentIn() ast.Expr {
	var expr ast.Expr
	f := p.flags
	f.noIn = false
	f.inType = false
	f.inCover = false
	p.withFlags(f, func() { expr = p.parseAssignment() })
	return expr
}

// parseCoverElement parses an element of an array or object literal, which
// may still turn into a destructuring pattern.
func (p *Parser) parseCoverElement() ast.Expr {
	var expr ast.Expr
	f := p.flags
	f.noIn = false
	f.inType = false
	f.inCover = true
	p.withFlags(f, func() { expr = p.parseAssignment() })
	return expr
}

// parseAssignment parses an assignment expression, including arrow functions
// and yield.
func (p *Parser) parseAssignment() ast.Expr {
	if p.checkIdent("yield") && p.flags.inGenerator {
		return p.parseYield()
	}
	if arrow := p.tryParseArrow(); arrow != nil {
		return arrow
	}

	lo := p.tok.Span.Lo
	left := p.parseConditional()

	if p.check(token.GT) && !p.flags.inType {
		p.tok = p.lexer.RescanGreater(p.tok)
	}
	if !p.tok.Type.IsAssign() {
		if !p.flags.inCover && !(p.flags.noIn && (p.check(token.IN) || p.checkIdent("of"))) {
			p.checkNoCoverInit(left)
		}
		return left
	}

	op := p.tok.Type
	var target ast.Pat
	if op == token.EQ {
		target = p.toAssignTarget(left)
	} else {
		target = p.toSimpleTarget(left)
	}
	p.next()
	right := p.parseAssignment()
	return &ast.AssignExpr{NodeInfo: p.at(lo), Op: op, Left: target, Right: right}
}

func (p *Parser) parseYield() ast.Expr {
	lo := p.tok.Span.Lo
	p.next()
	y := &ast.YieldExpr{}
	if !p.tok.NewlineBefore {
		if p.match(token.STAR) {
			y.Delegate = true
			y.Arg = p.parseAssignment()
		} else if p.startsExpression() {
			y.Arg = p.parseAssignment()
		}
	}
	y.NodeInfo = p.at(lo)
	return y
}

// startsExpression reports whether the current token can begin an expression.
func (p *Parser) startsExpression() bool {
	return startsExpression(p.tok.Type)
}

func startsExpression(t token.TokenType) bool {
	switch t {
	case token.IDENT, token.PRIVATE_NAME, token.NUMBER, token.BIGINT, token.STRING,
		token.TEMPLATE, token.TEMPLATE_HEAD, token.LPAREN, token.LBRACKET, token.LBRACE,
		token.PLUS, token.MINUS, token.BANG, token.TILDE, token.PLUS_PLUS, token.MINUS_MINUS,
		token.LT, token.SLASH, token.SLASH_EQ, token.AT, token.HASH,
		token.THIS, token.SUPER, token.NEW, token.FUNCTION, token.CLASS, token.TRUE, token.FALSE,
		token.NULL, token.TYPEOF, token.VOID, token.DELETE, token.IMPORT:
		return true
	}
	return false
}

// parseConditional parses test ? cons : alt.
func (p *Parser) parseConditional() ast.Expr {
	lo := p.tok.Span.Lo
	test := p.parseBinary(ast.PrecLowest)
	if !p.check(token.QUESTION) {
		return test
	}
	p.next()
	cons := p.parseAssignmentIn()
	p.expect(token.COLON)
	alt := p.parseAssignment()
	return &ast.CondExpr{NodeInfo: p.at(lo), Test: test, Cons: cons, Alt: alt}
}

// binaryPrec returns the precedence of the current token as a binary
// operator, or 0 when it does not continue a binary expression.
func (p *Parser) binaryPrec() int {
	if p.check(token.GT) && !p.flags.inType {
		p.tok = p.lexer.RescanGreater(p.tok)
	}
	if p.check(token.IN) && p.flags.noIn {
		return 0
	}
	if p.dialect.TypeScript() && p.check(token.IDENT) && !p.tok.NewlineBefore &&
		(p.tok.Literal == "as" || p.tok.Literal == "satisfies") {
		return ast.PrecRelational
	}
	return ast.BinaryPrecedence(p.tok.Type)
}

// parseBinary implements precedence climbing over binary operators.
func (p *Parser) parseBinary(minPrec int) ast.Expr {
	lo := p.tok.Span.Lo
	left := p.parseUnary()
	for {
		prec := p.binaryPrec()
		if prec == 0 || prec <= minPrec {
			return left
		}
		if p.check(token.IDENT) {
			left = p.parseTsAsOrSatisfies(lo, left)
			continue
		}
		op := p.tok.Type
		p.next()
		var right ast.Expr
		if op == token.STAR_STAR {
			// right associative
			right = p.parseBinary(prec - 1)
		} else {
			right = p.parseBinary(prec)
		}
		left = &ast.BinExpr{NodeInfo: p.at(lo), Op: op, Left: left, Right: right}
	}
}

// parseTsAsOrSatisfies parses the type after `as` or `satisfies`.
func (p *Parser) parseTsAsOrSatisfies(lo token.Pos, expr ast.Expr) ast.Expr {
	isAs := p.tok.Literal == "as"
	p.next()
	if isAs && p.check(token.CONST) {
		p.next()
		return &ast.TsConstAssertion{NodeInfo: p.at(lo), Expr: expr}
	}
	typ := p.parseType()
	if isAs {
		return &ast.TsAsExpr{NodeInfo: p.at(lo), Expr: expr, Type: typ}
	}
	return &ast.TsSatisfiesExpr{NodeInfo: p.at(lo), Expr: expr, Type: typ}
}

// parseUnary parses prefix operators.
func (p *Parser) parseUnary() ast.Expr {
	lo := p.tok.Span.Lo
	switch p.tok.Type {
	case token.MINUS, token.PLUS, token.BANG, token.TILDE, token.TYPEOF, token.VOID, token.DELETE:
		op := p.tok.Type
		p.next()
		arg := p.parseUnary()
		if p.check(token.STAR_STAR) {
			p.fail("Unary operator used immediately before exponentiation expression; use parentheses")
		}
		return &ast.UnaryExpr{NodeInfo: p.at(lo), Op: op, Arg: arg}
	case token.PLUS_PLUS, token.MINUS_MINUS:
		op := p.tok.Type
		p.next()
		arg := p.parseUnary()
		p.toSimpleTarget(arg)
		return &ast.UpdateExpr{NodeInfo: p.at(lo), Op: op, Prefix: true, Arg: arg}
	case token.LT:
		if p.dialect.TypeScript() && !p.dialect.JSX() {
			p.next()
			typ := p.parseType()
			p.expectGT()
			expr := p.parseUnary()
			return &ast.TsTypeAssertion{NodeInfo: p.at(lo), Type: typ, Expr: expr}
		}
	case token.IDENT:
		if p.tok.Literal == "await" && p.awaitIsKeyword() {
			p.next()
			arg := p.parseUnary()
			return &ast.AwaitExpr{NodeInfo: p.at(lo), Arg: arg}
		}
	}
	return p.parsePostfix()
}

// awaitIsKeyword reports whether await starts an await expression here:
// inside async functions and at the top level of a unit.
func (p *Parser) awaitIsKeyword() bool {
	if p.flags.inAsync {
		return true
	}
	if p.flags.inFunction {
		return false
	}
	next := p.peek()
	if next.NewlineBefore {
		return false
	}
	return startsExpression(next.Type) && next.Type != token.LPAREN && next.Type != token.LBRACKET
}

// parsePostfix parses x++ and x--.
func (p *Parser) parsePostfix() ast.Expr {
	lo := p.tok.Span.Lo
	expr := p.parseLeftHandSide()
	if (p.check(token.PLUS_PLUS) || p.check(token.MINUS_MINUS)) && !p.tok.NewlineBefore {
		p.toSimpleTarget(expr)
		op := p.tok.Type
		p.next()
		return &ast.UpdateExpr{NodeInfo: p.at(lo), Op: op, Arg: expr}
	}
	return expr
}

// parseLeftHandSide parses new expressions, calls and member accesses.
func (p *Parser) parseLeftHandSide() ast.Expr {
	lo := p.tok.Span.Lo
	var expr ast.Expr
	if p.check(token.NEW) {
		expr = p.parseNew()
	} else {
		expr = p.parsePrimary()
	}
	return p.parseSuffixes(lo, expr, false)
}

// parseNew parses `new callee[<T>][(args)]` and `new.target`.
func (p *Parser) parseNew() ast.Expr {
	lo := p.tok.Span.Lo
	p.expect(token.NEW)
	if p.match(token.DOT) {
		if !p.checkIdent("target") {
			p.fail(expectedMsg("target", p.tok))
		}
		p.next()
		return &ast.MetaProp{NodeInfo: p.at(lo), Meta: "new", Property: "target"}
	}

	clo := p.tok.Span.Lo
	var callee ast.Expr
	if p.check(token.NEW) {
		callee = p.parseNew()
	} else {
		callee = p.parsePrimary()
	}
	callee = p.parseSuffixes(clo, callee, true)

	n := &ast.NewExpr{Callee: callee}
	if p.dialect.TypeScript() && p.check(token.LT) {
		if args, ok := speculate(p, func() (*ast.TsTypeArgs, bool) {
			ta := p.parseTypeArgs()
			return ta, p.check(token.LPAREN) || !p.startsExpression()
		}); ok {
			n.TypeArgs = args
		}
	}
	if p.check(token.LPAREN) {
		n.Args = p.parseArguments()
	}
	n.NodeInfo = p.at(lo)
	return n
}

// parseSuffixes parses member accesses, calls, tagged templates and
// non-null assertions following expr. With noCall set, it stops before a call,
// as needed for the callee of `new`.
func (p *Parser) parseSuffixes(lo token.Pos, expr ast.Expr, noCall bool) ast.Expr {
	inChain := false
	for {
		switch p.tok.Type {
		case token.DOT:
			p.next()
			prop := p.parseMemberName()
			expr = &ast.MemberExpr{NodeInfo: p.at(lo), Object: expr, Property: prop}
		case token.QUESTION_DOT:
			if noCall {
				p.fail("Invalid optional chain from new expression")
			}
			inChain = true
			p.next()
			switch {
			case p.check(token.LPAREN):
				args := p.parseArguments()
				expr = &ast.CallExpr{NodeInfo: p.at(lo), Callee: expr, Args: args, Optional: true}
			case p.check(token.LBRACKET):
				p.next()
				prop := p.parseExpressionIn()
				p.expect(token.RBRACKET)
				expr = &ast.MemberExpr{NodeInfo: p.at(lo), Object: expr, Property: prop, Computed: true, Optional: true}
			case p.dialect.TypeScript() && p.check(token.LT):
				typeArgs := p.parseTypeArgs()
				args := p.parseArguments()
				expr = &ast.CallExpr{NodeInfo: p.at(lo), Callee: expr, TypeArgs: typeArgs, Args: args, Optional: true}
			default:
				prop := p.parseMemberName()
				expr = &ast.MemberExpr{NodeInfo: p.at(lo), Object: expr, Property: prop, Optional: true}
			}
		case token.LBRACKET:
			p.next()
			prop := p.parseExpressionIn()
			p.expect(token.RBRACKET)
			expr = &ast.MemberExpr{NodeInfo: p.at(lo), Object: expr, Property: prop, Computed: true}
		case token.LPAREN:
			if noCall {
				return p.wrapChain(lo, expr, inChain)
			}
			args := p.parseArguments()
			expr = &ast.CallExpr{NodeInfo: p.at(lo), Callee: expr, Args: args}
		case token.TEMPLATE, token.TEMPLATE_HEAD:
			if inChain {
				p.fail("Tagged template cannot be used in optional chain")
			}
			tpl := p.parseTemplate(true)
			expr = &ast.TaggedTpl{NodeInfo: p.at(lo), Tag: expr, Tpl: tpl}
		case token.BANG:
			if !p.dialect.TypeScript() || p.tok.NewlineBefore {
				return p.wrapChain(lo, expr, inChain)
			}
			p.next()
			expr = &ast.TsNonNullExpr{NodeInfo: p.at(lo), Expr: expr}
		case token.LT:
			if !p.dialect.TypeScript() {
				return p.wrapChain(lo, expr, inChain)
			}
			next, ok := p.tryTypeArgsSuffix(lo, expr, noCall)
			if !ok {
				return p.wrapChain(lo, expr, inChain)
			}
			expr = next
		default:
			return p.wrapChain(lo, expr, inChain)
		}
	}
}

// tryTypeArgsSuffix parses expr<T>(...), expr<T>`...` or an instantiation
// expression expr<T>. It fails when < is a comparison.
func (p *Parser) tryTypeArgsSuffix(lo token.Pos, expr ast.Expr, noCall bool) (ast.Expr, bool) {
	return speculate(p, func() (ast.Expr, bool) {
		typeArgs := p.parseTypeArgs()
		switch {
		case p.check(token.LPAREN) && !noCall:
			args := p.parseArguments()
			return &ast.CallExpr{NodeInfo: p.at(lo), Callee: expr, TypeArgs: typeArgs, Args: args}, true
		case p.check(token.TEMPLATE) || p.check(token.TEMPLATE_HEAD):
			tpl := p.parseTemplate(true)
			return &ast.TaggedTpl{NodeInfo: p.at(lo), Tag: expr, TypeArgs: typeArgs, Tpl: tpl}, true
		case p.check(token.LPAREN) && noCall:
			// new C<T>(): the type arguments belong to the new expression
			return nil, false
		}
		if p.tok.NewlineBefore || !p.startsExpression() {
			return &ast.TsInstantiation{NodeInfo: p.at(lo), Expr: expr, TypeArgs: typeArgs}, true
		}
		return nil, false
	})
}

// wrapChain wraps an optional chain so its short circuit stops here.
func (p *Parser) wrapChain(lo token.Pos, expr ast.Expr, inChain bool) ast.Expr {
	if !inChain {
		return expr
	}
	return &ast.ChainExpr{NodeInfo: p.at(lo), Expr: expr}
}

// parseMemberName parses the name after . or ?.
func (p *Parser) parseMemberName() ast.Expr {
	if p.check(token.PRIVATE_NAME) {
		return p.parsePrivateName()
	}
	return p.parseIdentName()
}

func (p *Parser) parsePrivateName() *ast.PrivateName {
	name := &ast.PrivateName{NodeInfo: ast.At(p.tok.Span), Name: identValue(p.tok)}
	p.next()
	return name
}

// parseArguments parses ( args ) with spreads.
func (p *Parser) parseArguments() []ast.Expr {
	p.expect(token.LPAREN)
	args := []ast.Expr{}
	for !p.match(token.RPAREN) {
		if p.check(token.ELLIPSIS) {
			lo := p.tok.Span.Lo
			p.next()
			arg := p.parseAssignmentIn()
			args = append(args, &ast.SpreadElement{NodeInfo: p.at(lo), Arg: arg})
		} else {
			args = append(args, p.parseAssignmentIn())
		}
		if !p.check(token.RPAREN) {
			p.expect(token.COMMA)
		}
	}
	return args
}

// ---------- Assignment Targets ----------

// toSimpleTarget checks that expr can be the operand of ++, -- or a
// compound assignment, and wraps it as a pattern.
func (p *Parser) toSimpleTarget(expr ast.Expr) ast.Pat {
	switch e := expr.(type) {
	case *ast.Ident:
		return e
	case *ast.MemberExpr:
		if !e.Optional {
			return &ast.ExprPat{NodeInfo: e.NodeInfo, Expr: e}
		}
	case *ast.ParenExpr:
		p.toSimpleTarget(e.Expr)
		return &ast.ExprPat{NodeInfo: e.NodeInfo, Expr: e}
	case *ast.TsAsExpr, *ast.TsNonNullExpr, *ast.TsSatisfiesExpr, *ast.TsTypeAssertion:
		return &ast.ExprPat{NodeInfo: ast.At(e.GetSpan()), Expr: e}
	}
	p.failAt(expr.GetSpan(), errNotAssignable)
	return nil
}

// toAssignTarget converts the left side of `=` or a for-in/of head into a
// pattern, turning array and object literals into destructuring patterns.
func (p *Parser) toAssignTarget(expr ast.Expr) ast.Pat {
	switch e := expr.(type) {
	case *ast.ArrayLit:
		pat := &ast.ArrayPat{NodeInfo: e.NodeInfo}
		for i, el := range e.Elems {
			if el == nil {
				pat.Elems = append(pat.Elems, nil)
				continue
			}
			if spread, ok := el.(*ast.SpreadElement); ok {
				if i != len(e.Elems)-1 {
					p.failAt(spread.Span, "Rest element must be last element")
				}
				pat.Elems = append(pat.Elems, &ast.RestPat{NodeInfo: spread.NodeInfo, Arg: p.toAssignTarget(spread.Arg)})
				continue
			}
			pat.Elems = append(pat.Elems, p.toBindingElement(el))
		}
		return pat
	case *ast.ObjectLit:
		pat := &ast.ObjectPat{NodeInfo: e.NodeInfo}
		for i, prop := range e.Props {
			switch pr := prop.(type) {
			case *ast.KeyValueProp:
				pat.Props = append(pat.Props, &ast.KeyValuePatProp{NodeInfo: pr.NodeInfo, Key: pr.Key, Value: p.toBindingElement(pr.Value)})
			case *ast.ShorthandProp:
				pat.Props = append(pat.Props, &ast.AssignPatProp{NodeInfo: pr.NodeInfo, Key: pr.Ident})
			case *ast.AssignProp:
				pat.Props = append(pat.Props, &ast.AssignPatProp{NodeInfo: pr.NodeInfo, Key: pr.Key, Value: pr.Value})
			case *ast.SpreadElement:
				if i != len(e.Props)-1 {
					p.failAt(pr.Span, "Rest element must be last element")
				}
				pat.Props = append(pat.Props, &ast.RestPat{NodeInfo: pr.NodeInfo, Arg: p.toAssignTarget(pr.Arg)})
			default:
				p.failAt(prop.GetSpan(), errNotAssignable)
			}
		}
		return pat
	case *ast.AssignExpr:
		p.failAt(e.Span, errNotAssignable)
	}
	return p.toSimpleTarget(expr)
}

// toBindingElement converts an element of a destructuring literal, where
// `target = default` is allowed.
func (p *Parser) toBindingElement(expr ast.Expr) ast.Pat {
	if a, ok := expr.(*ast.AssignExpr); ok && a.Op == token.EQ {
		return &ast.AssignPat{NodeInfo: a.NodeInfo, Left: a.Left, Right: a.Right}
	}
	return p.toAssignTarget(expr)
}

// checkNoCoverInit rejects `{ a = 1 }` in a literal that did not become a pattern.
func (p *Parser) checkNoCoverInit(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.ObjectLit:
		for _, prop := range e.Props {
			switch pr := prop.(type) {
			case *ast.AssignProp:
				p.failAt(pr.Span, "Invalid shorthand property initializer")
			case *ast.KeyValueProp:
				p.checkNoCoverInit(pr.Value)
			}
		}
	case *ast.ArrayLit:
		for _, el := range e.Elems {
			if el != nil {
				p.checkNoCoverInit(el)
			}
		}
	}
}

package parser

import (
	"github.com/leapstack-labs/leapmacro/pkg/ast"
	"github.com/leapstack-labs/leapmacro/pkg/token"
)

// Statement grammar:
//
//	statement   → block | var_decl | fn_decl | class_decl | ts_decl
//	            | if | for | while | do | return | break | continue
//	            | throw | try | switch | with | debugger | labeled
//	            | expr_stmt | ';'
//	module_item → import_decl | export_decl | statement

// parseModuleItem parses a top-level item or a module-block item.
func (p *Parser) parseModuleItem() ast.ModuleItem {
	switch p.tok.Type {
	case token.IMPORT:
		// import(...) and import.meta are expressions
		next := p.peek()
		if next.Type != token.LPAREN && next.Type != token.DOT {
			return p.parseImport()
		}
	case token.EXPORT:
		return p.parseExport(nil)
	case token.AT:
		// Decorators may precede export or the class itself
		lo := p.tok.Span.Lo
		decorators := p.parseDecorators()
		if p.check(token.EXPORT) {
			return p.parseExport(decorators)
		}
		return p.parseClassDeclWithDecorators(lo, decorators)
	}
	return p.parseStatement()
}

// parseStatement parses any statement or declaration.
func (p *Parser) parseStatement() ast.Stmt {
	lo := p.tok.Span.Lo
	switch p.tok.Type {
	case token.LBRACE:
		return p.parseBlock()
	case token.SEMICOLON:
		p.next()
		return &ast.EmptyStmt{NodeInfo: p.at(lo)}
	case token.VAR:
		p.next()
		decl := p.parseVarDecl(lo, ast.VarKindVar, false, false)
		p.semicolon()
		decl.Span = p.spanFrom(lo)
		return decl
	case token.CONST:
		if p.peek().Type == token.ENUM {
			p.requireTS("'const enum'")
			p.next()
			return p.parseEnumDecl(lo, false, true)
		}
		p.next()
		decl := p.parseVarDecl(lo, ast.VarKindConst, false, false)
		p.semicolon()
		decl.Span = p.spanFrom(lo)
		return decl
	case token.FUNCTION:
		return p.parseFunctionDecl(lo, false, false)
	case token.CLASS:
		return p.parseClassDecl(lo, nil, false, false)
	case token.IF:
		return p.parseIf()
	case token.FOR:
		return p.parseFor()
	case token.WHILE:
		p.next()
		p.expect(token.LPAREN)
		test := p.parseExpression()
		p.expect(token.RPAREN)
		body := p.parseStatement()
		return &ast.WhileStmt{NodeInfo: p.at(lo), Test: test, Body: body}
	case token.DO:
		p.next()
		body := p.parseStatement()
		p.expect(token.WHILE)
		p.expect(token.LPAREN)
		test := p.parseExpression()
		p.expect(token.RPAREN)
		// a semicolon after do-while is always optional
		p.match(token.SEMICOLON)
		return &ast.DoWhileStmt{NodeInfo: p.at(lo), Body: body, Test: test}
	case token.RETURN:
		if !p.flags.inFunction {
			p.fail(errReturnOutside)
		}
		p.next()
		var arg ast.Expr
		if !p.canInsertSemicolon() {
			arg = p.parseExpression()
		}
		p.semicolon()
		return &ast.ReturnStmt{NodeInfo: p.at(lo), Arg: arg}
	case token.BREAK, token.CONTINUE:
		isBreak := p.check(token.BREAK)
		p.next()
		var label *ast.Ident
		if p.check(token.IDENT) && !p.tok.NewlineBefore {
			label = p.parseIdentName()
		}
		p.semicolon()
		if isBreak {
			return &ast.BreakStmt{NodeInfo: p.at(lo), Label: label}
		}
		return &ast.ContinueStmt{NodeInfo: p.at(lo), Label: label}
	case token.THROW:
		p.next()
		if p.tok.NewlineBefore {
			p.fail("Line break not permitted here")
		}
		arg := p.parseExpression()
		p.semicolon()
		return &ast.ThrowStmt{NodeInfo: p.at(lo), Arg: arg}
	case token.TRY:
		return p.parseTry()
	case token.SWITCH:
		return p.parseSwitch()
	case token.WITH:
		p.next()
		p.expect(token.LPAREN)
		obj := p.parseExpression()
		p.expect(token.RPAREN)
		body := p.parseStatement()
		return &ast.WithStmt{NodeInfo: p.at(lo), Object: obj, Body: body}
	case token.DEBUGGER:
		p.next()
		p.semicolon()
		return &ast.DebuggerStmt{NodeInfo: p.at(lo)}
	case token.ENUM:
		p.requireTS("'enum'")
		return p.parseEnumDecl(lo, false, false)
	case token.IDENT:
		if stmt := p.parseIdentStatement(lo); stmt != nil {
			return stmt
		}
	}
	return p.parseExprStatement(lo)
}

// parseIdentStatement handles statements introduced by contextual keywords.
// It returns nil when the identifier starts an expression statement.
func (p *Parser) parseIdentStatement(lo token.Pos) ast.Stmt {
	next := p.peek()
	switch p.tok.Literal {
	case "let":
		if next.Type == token.IDENT || next.Type == token.LBRACKET || next.Type == token.LBRACE ||
			(next.Type.IsKeyword() && !next.NewlineBefore && next.Type != token.IN && next.Type != token.INSTANCEOF) {
			p.next()
			decl := p.parseVarDecl(lo, ast.VarKindLet, false, false)
			p.semicolon()
			decl.Span = p.spanFrom(lo)
			return decl
		}
	case "async":
		if next.Type == token.FUNCTION && !next.NewlineBefore {
			p.next()
			return p.parseFunctionDecl(lo, true, false)
		}
	}
	if next.Type == token.COLON {
		label := p.parseIdentName()
		p.expect(token.COLON)
		body := p.parseStatement()
		return &ast.LabeledStmt{NodeInfo: p.at(lo), Label: label, Body: body}
	}
	if p.dialect.TypeScript() {
		if decl := p.parseTsDeclStatement(lo, next, false); decl != nil {
			return decl
		}
	}
	return nil
}

func (p *Parser) parseExprStatement(lo token.Pos) ast.Stmt {
	expr := p.parseExpression()
	p.semicolon()
	return &ast.ExprStmt{NodeInfo: p.at(lo), Expr: expr}
}

// parseBlock parses { statements }.
func (p *Parser) parseBlock() *ast.BlockStmt {
	lo := p.tok.Span.Lo
	p.expect(token.LBRACE)
	var body []ast.Stmt
	for !p.check(token.RBRACE) {
		if p.check(token.EOF) {
			p.fail(expectedMsg("}", p.tok))
		}
		body = append(body, p.parseStatementListItem())
	}
	p.next()
	return &ast.BlockStmt{NodeInfo: p.at(lo), Body: body}
}

// parseStatementListItem parses a statement inside a block, where class
// declarations may carry decorators.
func (p *Parser) parseStatementListItem() ast.Stmt {
	if p.check(token.AT) {
		lo := p.tok.Span.Lo
		decorators := p.parseDecorators()
		return p.parseClassDeclWithDecorators(lo, decorators)
	}
	return p.parseStatement()
}

// parseVarDecl parses declarators after the var/let/const keyword.
func (p *Parser) parseVarDecl(lo token.Pos, kind ast.VarKind, declare, forHead bool) *ast.VarDecl {
	decl := &ast.VarDecl{Kind: kind, Declare: declare}
	for {
		dlo := p.tok.Span.Lo
		name := p.parseBindingTarget()
		d := &ast.VarDeclarator{Name: name}
		if p.dialect.TypeScript() {
			if p.check(token.BANG) && !p.tok.NewlineBefore {
				p.next()
				d.Definite = true
			}
			p.parseTypeAnnotationInto(name)
		}
		if p.match(token.EQ) {
			d.Init = p.parseAssignment()
		} else if !forHead && !declare {
			if kind == ast.VarKindConst && !p.flags.ambient {
				p.failAt(token.NewSpan(dlo, p.prevEnd), errMissingInit)
			}
			if _, isIdent := name.(*ast.Ident); !isIdent {
				p.fail(expectedMsg("=", p.tok))
			}
		}
		d.NodeInfo = p.at(dlo)
		decl.Decls = append(decl.Decls, d)
		if !p.match(token.COMMA) {
			break
		}
	}
	decl.NodeInfo = p.at(lo)
	return decl
}

func (p *Parser) parseIf() ast.Stmt {
	lo := p.tok.Span.Lo
	p.next()
	p.expect(token.LPAREN)
	test := p.parseExpression()
	p.expect(token.RPAREN)
	cons := p.parseStatement()
	var alt ast.Stmt
	if p.match(token.ELSE) {
		alt = p.parseStatement()
	}
	return &ast.IfStmt{NodeInfo: p.at(lo), Test: test, Cons: cons, Alt: alt}
}

// parseFor parses the three for-statement forms.
func (p *Parser) parseFor() ast.Stmt {
	lo := p.tok.Span.Lo
	p.next()
	isAwait := false
	if p.checkIdent("await") {
		isAwait = true
		p.next()
	}
	p.expect(token.LPAREN)

	var init ast.Node
	if !p.check(token.SEMICOLON) {
		noIn := p.flags
		noIn.noIn = true
		p.withFlags(noIn, func() {
			init = p.parseForInit()
		})
	}

	if decl, ok := init.(*ast.VarDecl); ok && (p.check(token.IN) || p.checkIdent("of")) {
		if len(decl.Decls) != 1 {
			p.failAt(decl.Span, "Only a single declaration is allowed in a for...in or for...of statement")
		}
	}

	switch {
	case p.check(token.IN) || p.checkIdent("of"):
		isOf := p.checkIdent("of")
		left := init
		if e, ok := init.(ast.Expr); ok {
			left = p.toAssignTarget(e)
		}
		p.next()
		var right ast.Expr
		if isOf {
			right = p.parseAssignment()
		} else {
			right = p.parseExpression()
		}
		p.expect(token.RPAREN)
		body := p.parseStatement()
		if isOf {
			return &ast.ForOfStmt{NodeInfo: p.at(lo), Await: isAwait, Left: left, Right: right, Body: body}
		}
		return &ast.ForInStmt{NodeInfo: p.at(lo), Left: left, Right: right, Body: body}
	}

	if e, ok := init.(ast.Expr); ok {
		p.checkNoCoverInit(e)
	}
	if decl, ok := init.(*ast.VarDecl); ok && decl.Kind == ast.VarKindConst {
		for _, d := range decl.Decls {
			if d.Init == nil {
				p.failAt(d.Span, errMissingInit)
			}
		}
	}
	p.expect(token.SEMICOLON)
	var test, update ast.Expr
	if !p.check(token.SEMICOLON) {
		test = p.parseExpression()
	}
	p.expect(token.SEMICOLON)
	if !p.check(token.RPAREN) {
		update = p.parseExpression()
	}
	p.expect(token.RPAREN)
	body := p.parseStatement()
	return &ast.ForStmt{NodeInfo: p.at(lo), Init: init, Test: test, Update: update, Body: body}
}

// parseForInit parses the head of a for statement: a declaration or an expression.
func (p *Parser) parseForInit() ast.Node {
	lo := p.tok.Span.Lo
	switch {
	case p.check(token.VAR):
		p.next()
		return p.parseVarDecl(lo, ast.VarKindVar, false, true)
	case p.check(token.CONST):
		p.next()
		return p.parseVarDecl(lo, ast.VarKindConst, false, true)
	case p.checkIdent("let"):
		next := p.peek()
		if next.Type == token.IDENT || next.Type == token.LBRACKET || next.Type == token.LBRACE {
			p.next()
			return p.parseVarDecl(lo, ast.VarKindLet, false, true)
		}
	}
	return p.parseExpression()
}

func (p *Parser) parseTry() ast.Stmt {
	lo := p.tok.Span.Lo
	p.next()
	block := p.parseBlock()
	stmt := &ast.TryStmt{Block: block}
	if p.check(token.CATCH) {
		clo := p.tok.Span.Lo
		p.next()
		var param ast.Pat
		if p.match(token.LPAREN) {
			param = p.parseBindingTarget()
			if p.dialect.TypeScript() {
				p.parseTypeAnnotationInto(param)
			}
			p.expect(token.RPAREN)
		}
		body := p.parseBlock()
		stmt.Handler = &ast.CatchClause{NodeInfo: p.at(clo), Param: param, Body: body}
	}
	if p.match(token.FINALLY) {
		stmt.Finalizer = p.parseBlock()
	}
	if stmt.Handler == nil && stmt.Finalizer == nil {
		p.fail(expectedMsg("catch", p.tok))
	}
	stmt.NodeInfo = p.at(lo)
	return stmt
}

func (p *Parser) parseSwitch() ast.Stmt {
	lo := p.tok.Span.Lo
	p.next()
	p.expect(token.LPAREN)
	disc := p.parseExpression()
	p.expect(token.RPAREN)
	p.expect(token.LBRACE)
	stmt := &ast.SwitchStmt{Discriminant: disc}
	seenDefault := false
	for !p.match(token.RBRACE) {
		clo := p.tok.Span.Lo
		c := &ast.SwitchCase{}
		switch {
		case p.match(token.CASE):
			c.Test = p.parseExpression()
		case p.check(token.DEFAULT):
			if seenDefault {
				p.fail("Multiple default clauses")
			}
			seenDefault = true
			p.next()
		default:
			p.fail(expectedMsg("case", p.tok))
		}
		p.expect(token.COLON)
		for !p.check(token.CASE) && !p.check(token.DEFAULT) && !p.check(token.RBRACE) {
			if p.check(token.EOF) {
				p.fail(expectedMsg("}", p.tok))
			}
			c.Cons = append(c.Cons, p.parseStatementListItem())
		}
		c.NodeInfo = p.at(clo)
		stmt.Cases = append(stmt.Cases, c)
	}
	stmt.NodeInfo = p.at(lo)
	return stmt
}

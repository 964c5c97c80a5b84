package parser

import (
	"github.com/leapstack-labs/leapmacro/pkg/ast"
	"github.com/leapstack-labs/leapmacro/pkg/token"
)

// Module grammar:
//
//	import_decl → 'import' [type] [default [',']] [namespace | named] 'from' str [attributes]
//	            | 'import' str [attributes]
//	            | 'import' ident '=' (entity | 'require' '(' str ')')          (TypeScript)
//	attributes  → ('with' | 'assert') object_literal
//	export_decl → 'export' ( declaration | 'default' (decl | expr)
//	            | '*' ['as' name] 'from' str | '{' specifiers '}' ['from' str]
//	            | '=' expr | 'as' 'namespace' ident )

// parseImport parses an import declaration.
func (p *Parser) parseImport() ast.ModuleItem {
	lo := p.tok.Span.Lo
	p.expect(token.IMPORT)
	p.moduleSyntax = true

	decl := &ast.ImportDecl{}
	if p.dialect.TypeScript() && p.checkIdent("type") {
		next := p.peek()
		if next.Type == token.LBRACE || next.Type == token.STAR ||
			(next.Type == token.IDENT && next.Literal != "from") {
			p.next()
			decl.TypeOnly = true
		}
	}

	if p.check(token.STRING) {
		decl.Src = p.parseStr()
		p.parseImportAttributes(&decl.With, &decl.WithKw)
		p.semicolon()
		decl.NodeInfo = p.at(lo)
		return decl
	}

	more := true
	if p.checkBindingIdent() {
		local := p.parseBindingIdent()
		if p.dialect.TypeScript() && p.check(token.EQ) {
			return p.parseImportEquals(lo, local, false, decl.TypeOnly)
		}
		decl.Specifiers = append(decl.Specifiers, &ast.ImportDefault{NodeInfo: local.NodeInfo, Local: local})
		more = p.match(token.COMMA)
	}

	if more {
		switch {
		case p.check(token.STAR):
			slo := p.tok.Span.Lo
			p.next()
			if !p.matchIdent("as") {
				p.fail(expectedMsg("as", p.tok))
			}
			local := p.parseBindingIdent()
			decl.Specifiers = append(decl.Specifiers, &ast.ImportNamespace{NodeInfo: p.at(slo), Local: local})
		case p.check(token.LBRACE):
			p.next()
			for !p.match(token.RBRACE) {
				decl.Specifiers = append(decl.Specifiers, p.parseImportNamed())
				if !p.check(token.RBRACE) {
					p.expect(token.COMMA)
				}
			}
		default:
			p.failf(errUnexpectedToken, tokenText(p.tok))
		}
	}

	if !p.matchIdent("from") {
		p.fail(expectedMsg("from", p.tok))
	}
	if !p.check(token.STRING) {
		p.fail(expectedMsg("string", p.tok))
	}
	decl.Src = p.parseStr()
	p.parseImportAttributes(&decl.With, &decl.WithKw)
	p.semicolon()
	decl.NodeInfo = p.at(lo)
	return decl
}

// parseImportNamed parses one { imported as local } specifier.
func (p *Parser) parseImportNamed() ast.ImportSpecifier {
	lo := p.tok.Span.Lo
	spec := &ast.ImportNamed{}
	if p.dialect.TypeScript() && p.checkIdent("type") {
		next := p.peek()
		if next.Type != token.COMMA && next.Type != token.RBRACE && !(next.Type == token.IDENT && next.Literal == "as") {
			p.next()
			spec.TypeOnly = true
		}
	}
	var imported ast.Expr
	if p.check(token.STRING) {
		imported = p.parseStr()
	} else {
		imported = p.parseIdentName()
	}
	if p.matchIdent("as") {
		spec.Imported = imported
		spec.Local = p.parseBindingIdent()
	} else {
		id, ok := imported.(*ast.Ident)
		if !ok {
			p.fail(expectedMsg("as", p.tok))
		}
		spec.Local = id
	}
	spec.NodeInfo = p.at(lo)
	return spec
}

// parseImportAttributes parses an optional `with { ... }` or `assert { ... }` clause.
func (p *Parser) parseImportAttributes(with **ast.ObjectLit, kw *string) {
	switch {
	case p.check(token.WITH):
		*kw = "with"
	case p.checkIdent("assert") && !p.tok.NewlineBefore:
		*kw = "assert"
	default:
		return
	}
	if !p.dialect.ImportAttributes() {
		p.fail("Import attributes are not enabled for this dialect")
	}
	p.next()
	if !p.check(token.LBRACE) {
		p.fail(expectedMsg("{", p.tok))
	}
	*with = p.parseObjectLit()
}

// parseImportEquals parses the rest of `import id = ...`.
func (p *Parser) parseImportEquals(lo token.Pos, id *ast.Ident, exported, typeOnly bool) ast.ModuleItem {
	p.expect(token.EQ)
	decl := &ast.TsImportEquals{Exported: exported, TypeOnly: typeOnly, ID: id}
	if p.checkIdent("require") && p.peek().Type == token.LPAREN {
		rlo := p.tok.Span.Lo
		p.next()
		p.expect(token.LPAREN)
		if !p.check(token.STRING) {
			p.fail(expectedMsg("string", p.tok))
		}
		src := p.parseStr()
		p.expect(token.RPAREN)
		decl.Ref = &ast.TsExternalModuleRef{NodeInfo: p.at(rlo), Expr: src}
	} else {
		decl.Ref = p.parseEntityName()
	}
	p.semicolon()
	decl.NodeInfo = p.at(lo)
	return decl
}

// parseExport parses an export declaration. Decorators parsed before the
// export keyword are handed to the exported class.
func (p *Parser) parseExport(decorators []*ast.Decorator) ast.ModuleItem {
	lo := p.tok.Span.Lo
	if len(decorators) > 0 {
		lo = decorators[0].Span.Lo
	}
	p.expect(token.EXPORT)
	p.moduleSyntax = true

	if p.check(token.AT) {
		decorators = append(decorators, p.parseDecorators()...)
	}

	switch {
	case p.check(token.DEFAULT):
		return p.parseExportDefault(lo, decorators)
	case p.check(token.STAR):
		return p.parseExportAll(lo, false)
	case p.check(token.LBRACE):
		return p.parseExportNamed(lo, false)
	case p.dialect.TypeScript() && p.checkIdent("type") && p.peek().Type == token.LBRACE:
		p.next()
		return p.parseExportNamed(lo, true)
	case p.dialect.TypeScript() && p.checkIdent("type") && p.peek().Type == token.STAR:
		p.next()
		return p.parseExportAll(lo, true)
	case p.dialect.TypeScript() && p.check(token.EQ):
		p.next()
		expr := p.parseExpression()
		p.semicolon()
		return &ast.TsExportAssignment{NodeInfo: p.at(lo), Expr: expr}
	case p.dialect.TypeScript() && p.checkIdent("as"):
		p.next()
		if !p.matchIdent("namespace") {
			p.fail(expectedMsg("namespace", p.tok))
		}
		id := p.parseBindingIdent()
		p.semicolon()
		return &ast.TsNamespaceExport{NodeInfo: p.at(lo), ID: id}
	case p.dialect.TypeScript() && p.check(token.IMPORT):
		p.next()
		typeOnly := false
		if p.checkIdent("type") && p.peek().Type == token.IDENT {
			p.next()
			typeOnly = true
		}
		id := p.parseBindingIdent()
		return p.parseImportEquals(lo, id, true, typeOnly)
	}

	decl := p.parseExportableDecl(decorators)
	return &ast.ExportDecl{NodeInfo: p.at(lo), Decl: decl}
}

// parseExportableDecl parses the declaration after `export`.
func (p *Parser) parseExportableDecl(decorators []*ast.Decorator) ast.Decl {
	lo := p.tok.Span.Lo
	if len(decorators) > 0 {
		if !p.check(token.CLASS) && !p.checkIdent("abstract") {
			p.fail(expectedMsg("class", p.tok))
		}
		return p.parseClassDeclWithDecorators(decorators[0].Span.Lo, decorators).(ast.Decl)
	}
	switch {
	case p.check(token.VAR), p.check(token.CONST) && p.peek().Type != token.ENUM, p.checkIdent("let"):
		kind := ast.VarKind(p.tok.Literal)
		p.next()
		decl := p.parseVarDecl(lo, kind, false, false)
		p.semicolon()
		decl.Span = p.spanFrom(lo)
		return decl
	case p.check(token.FUNCTION):
		return p.parseFunctionDecl(lo, false, false)
	case p.checkIdent("async") && p.peek().Type == token.FUNCTION:
		p.next()
		return p.parseFunctionDecl(lo, true, false)
	case p.check(token.CLASS):
		return p.parseClassDecl(lo, nil, false, false)
	case p.check(token.CONST) || p.check(token.ENUM):
		p.requireTS("'enum'")
		isConst := p.match(token.CONST)
		return p.parseEnumDecl(lo, false, isConst)
	case p.dialect.TypeScript() && p.check(token.IDENT):
		if decl := p.parseTsDeclStatement(lo, p.peek(), false); decl != nil {
			return decl.(ast.Decl)
		}
	}
	p.failf(errUnexpectedToken, tokenText(p.tok))
	return nil
}

func (p *Parser) parseExportDefault(lo token.Pos, decorators []*ast.Decorator) ast.ModuleItem {
	p.expect(token.DEFAULT)
	dlo := p.tok.Span.Lo
	if p.check(token.AT) {
		decorators = append(decorators, p.parseDecorators()...)
	}

	switch {
	case p.check(token.FUNCTION), p.checkIdent("async") && p.peek().Type == token.FUNCTION && !p.peek().NewlineBefore:
		fn := p.parseFunctionExpr(true)
		return &ast.ExportDefaultDecl{NodeInfo: p.at(lo), Decl: fn}
	case p.check(token.CLASS), p.checkIdent("abstract") && p.peek().Type == token.CLASS:
		abstract := p.matchIdent("abstract")
		class := p.parseClassExpr(dlo, decorators, abstract)
		return &ast.ExportDefaultDecl{NodeInfo: p.at(lo), Decl: class}
	case p.dialect.TypeScript() && p.checkIdent("interface") && p.peek().Type == token.IDENT:
		decl := p.parseInterfaceDecl(dlo, false)
		return &ast.ExportDefaultDecl{NodeInfo: p.at(lo), Decl: decl}
	}
	if len(decorators) > 0 {
		p.fail(expectedMsg("class", p.tok))
	}
	expr := p.parseAssignment()
	p.semicolon()
	return &ast.ExportDefaultExpr{NodeInfo: p.at(lo), Expr: expr}
}

func (p *Parser) parseExportAll(lo token.Pos, typeOnly bool) ast.ModuleItem {
	slo := p.tok.Span.Lo
	p.expect(token.STAR)
	if p.matchIdent("as") {
		name := p.parseModuleExportName()
		spec := &ast.ExportNamespaceSpec{NodeInfo: p.at(slo), Name: name}
		decl := &ast.ExportNamed{TypeOnly: typeOnly, Specifiers: []ast.ExportSpecifier{spec}}
		p.parseExportFrom(&decl.Src, &decl.With, &decl.WithKw, true)
		decl.NodeInfo = p.at(lo)
		return decl
	}
	decl := &ast.ExportAll{TypeOnly: typeOnly}
	p.parseExportFrom(&decl.Src, &decl.With, &decl.WithKw, true)
	decl.NodeInfo = p.at(lo)
	return decl
}

func (p *Parser) parseExportNamed(lo token.Pos, typeOnly bool) ast.ModuleItem {
	p.expect(token.LBRACE)
	decl := &ast.ExportNamed{TypeOnly: typeOnly}
	for !p.match(token.RBRACE) {
		slo := p.tok.Span.Lo
		spec := &ast.ExportNamedSpec{}
		if p.dialect.TypeScript() && p.checkIdent("type") {
			next := p.peek()
			if next.Type != token.COMMA && next.Type != token.RBRACE && !(next.Type == token.IDENT && next.Literal == "as") {
				p.next()
				spec.TypeOnly = true
			}
		}
		spec.Orig = p.parseModuleExportName()
		if p.matchIdent("as") {
			spec.Exported = p.parseModuleExportName()
		}
		spec.NodeInfo = p.at(slo)
		decl.Specifiers = append(decl.Specifiers, spec)
		if !p.check(token.RBRACE) {
			p.expect(token.COMMA)
		}
	}
	p.parseExportFrom(&decl.Src, &decl.With, &decl.WithKw, false)
	decl.NodeInfo = p.at(lo)
	return decl
}

// parseExportFrom parses `from "src" [attributes]` and the terminator.
func (p *Parser) parseExportFrom(src **ast.Str, with **ast.ObjectLit, kw *string, required bool) {
	if p.matchIdent("from") {
		if !p.check(token.STRING) {
			p.fail(expectedMsg("string", p.tok))
		}
		*src = p.parseStr()
		p.parseImportAttributes(with, kw)
	} else if required {
		p.fail(expectedMsg("from", p.tok))
	}
	p.semicolon()
}

// parseModuleExportName parses an identifier name or a string literal.
func (p *Parser) parseModuleExportName() ast.Expr {
	if p.check(token.STRING) {
		return p.parseStr()
	}
	return p.parseIdentName()
}

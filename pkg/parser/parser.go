// Package parser parses JavaScript, JSX and TypeScript into an ast.Program.
//
// # Usage
//
//	sm := source.NewMap()
//	file := sm.AddFile(source.RealFile("app.tsx"), code)
//	prog, err := parser.ParseProgram(file, dialect.TSX, ast.NewComments())
//	if err != nil {
//	    var perr *parser.Error
//	    errors.As(err, &perr) // perr.Span locates the failure
//	}
//
// The dialect gates grammar features: TypeScript syntax is only accepted by
// TS and TSX, JSX only by JS, JSX and TSX. In TS, `<T>expr` is a type
// assertion and a JSX element is a syntax error.
//
// # Structure
//
// The parser is a hand-written recursive descent parser with precedence
// climbing for binary operators. Ambiguous constructs (arrow functions,
// generic calls, TSX generic arrows) are parsed speculatively: the parser
// snapshots its state, tries one reading, and restores on failure. The first
// syntax error aborts the parse.
//
//	statements  parser_stmt.go
//	modules     parser_module.go
//	expressions parser_expr.go, parser_primary.go
//	functions   parser_function.go (functions, classes, patterns)
//	TypeScript  parser_ts.go
//	JSX         parser_jsx.go
package parser

import (
	"fmt"

	"github.com/leapstack-labs/leapmacro/pkg/ast"
	"github.com/leapstack-labs/leapmacro/pkg/dialect"
	"github.com/leapstack-labs/leapmacro/pkg/source"
	"github.com/leapstack-labs/leapmacro/pkg/token"
)

// Parser parses one source unit.
type Parser struct {
	lexer   *Lexer
	file    *source.File
	dialect *dialect.Dialect
	tok     token.Token // current token
	prevEnd token.Pos   // end of the previous token

	flags        flags
	moduleSyntax bool // an import, export or import.meta was seen
}

// flags hold grammar switches that change inside functions, classes and types.
type flags struct {
	inFunction  bool
	inAsync     bool
	inGenerator bool
	inClass     bool
	noIn        bool // `in` is not a binary operator (for-statement heads)
	inType      bool // parsing a type, so `>` closes type arguments
	inDecorator bool
	ambient     bool // inside a declare block, where bodies and initializers are omitted
	inCover     bool // inside an array or object literal that may become a pattern
}

// state is a snapshot of everything speculative parsing may change.
type state struct {
	lexer        Lexer
	tok          token.Token
	prevEnd      token.Pos
	flags        flags
	moduleSyntax bool
}

// NewParser creates a parser for the file in the given dialect. Comments are
// recorded into the given store, which may be nil.
func NewParser(file *source.File, d *dialect.Dialect, comments *ast.Comments) *Parser {
	if d == nil {
		d = dialect.Default()
	}
	return &Parser{
		lexer:   NewLexer(file, comments),
		file:    file,
		dialect: d,
		prevEnd: file.Base(),
	}
}

// ParseProgram parses the file as a module or script. The result is an
// *ast.Module when the unit uses any import, export or import.meta, and an
// *ast.Script otherwise.
func ParseProgram(file *source.File, d *dialect.Dialect, comments *ast.Comments) (prog ast.Program, err error) {
	p := NewParser(file, d, comments)
	defer recoverError(&err)
	return p.parseProgram(), nil
}

// ParseExpr parses the whole file as a single expression.
func ParseExpr(file *source.File, d *dialect.Dialect, comments *ast.Comments) (expr ast.Expr, err error) {
	p := NewParser(file, d, comments)
	defer recoverError(&err)
	p.next()
	expr = p.parseExpression()
	if !p.check(token.EOF) {
		p.unexpected()
	}
	return expr, nil
}

// Dialect returns the parser's dialect.
func (p *Parser) Dialect() *dialect.Dialect {
	return p.dialect
}

func (p *Parser) parseProgram() ast.Program {
	shebang := p.lexer.Shebang()
	p.next()
	var items []ast.ModuleItem
	for !p.check(token.EOF) {
		items = append(items, p.parseModuleItem())
	}
	span := token.NewSpan(p.file.Base(), p.file.End())
	if p.moduleSyntax {
		return &ast.Module{NodeInfo: ast.At(span), Shebang: shebang, Body: items}
	}
	stmts := make([]ast.Stmt, 0, len(items))
	for _, it := range items {
		stmts = append(stmts, it.(ast.Stmt))
	}
	return &ast.Script{NodeInfo: ast.At(span), Shebang: shebang, Body: stmts}
}

// ---------- Token Helpers ----------

// next advances to the next token in the default scanning mode.
func (p *Parser) next() {
	p.prevEnd = p.tok.Span.Hi
	p.tok = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.tok.Type == t
}

// checkIdent returns true if the current token is the identifier name.
// Contextual keywords are matched this way.
func (p *Parser) checkIdent(name string) bool {
	return p.tok.Type == token.IDENT && p.tok.Literal == name
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.next()
		return true
	}
	return false
}

// matchIdent consumes a contextual keyword.
func (p *Parser) matchIdent(name string) bool {
	if p.checkIdent(name) {
		p.next()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise fails.
func (p *Parser) expect(t token.TokenType) token.Token {
	if !p.check(t) {
		p.fail(expectedMsg(t.String(), p.tok))
	}
	tok := p.tok
	p.next()
	return tok
}

// expectGT consumes a single > even when the lexer produced a longer
// operator, as in `Array<Array<number>>`.
func (p *Parser) expectGT() {
	if p.check(token.GT) {
		p.next()
		return
	}
	p.fail(expectedMsg(">", p.tok))
}

// fail aborts the parse with an error at the current token.
func (p *Parser) fail(msg string) {
	bail(p.tok.Span, msg)
}

// failf aborts with a formatted message at the current token.
func (p *Parser) failf(format string, args ...any) {
	bail(p.tok.Span, fmt.Sprintf(format, args...))
}

// failAt aborts with an error at the given span.
func (p *Parser) failAt(span token.Span, msg string) {
	bail(span, msg)
}

// unexpected aborts at the current token.
func (p *Parser) unexpected() {
	if p.check(token.EOF) {
		p.fail("Unexpected end of input")
	}
	p.failf(errUnexpectedToken, tokenText(p.tok))
}

// spanFrom returns the span from lo to the end of the previous token.
func (p *Parser) spanFrom(lo token.Pos) token.Span {
	return token.NewSpan(lo, p.prevEnd)
}

// at returns NodeInfo spanning from lo to the previous token.
func (p *Parser) at(lo token.Pos) ast.NodeInfo {
	return ast.At(p.spanFrom(lo))
}

// semicolon consumes a statement terminator, applying automatic semicolon
// insertion before }, at EOF, and after a line break.
func (p *Parser) semicolon() {
	if p.match(token.SEMICOLON) {
		return
	}
	if p.check(token.RBRACE) || p.check(token.EOF) || p.tok.NewlineBefore {
		return
	}
	p.fail(expectedMsg(";", p.tok))
}

// canInsertSemicolon reports whether a statement may end before the current token.
func (p *Parser) canInsertSemicolon() bool {
	return p.check(token.SEMICOLON) || p.check(token.RBRACE) || p.check(token.EOF) || p.tok.NewlineBefore
}

// ---------- Speculation ----------

func (p *Parser) save() state {
	return state{
		lexer:        *p.lexer,
		tok:          p.tok,
		prevEnd:      p.prevEnd,
		flags:        p.flags,
		moduleSyntax: p.moduleSyntax,
	}
}

func (p *Parser) restore(s state) {
	*p.lexer = s.lexer
	p.tok = s.tok
	p.prevEnd = s.prevEnd
	p.flags = s.flags
	p.moduleSyntax = s.moduleSyntax
}

// speculate runs fn and keeps its result if it neither fails nor returns
// false; otherwise the parser is restored to where it was.
func speculate[T any](p *Parser, fn func() (T, bool)) (result T, ok bool) {
	s := p.save()
	defer func() {
		if r := recover(); r != nil {
			if _, isBail := r.(bailout); !isBail {
				panic(r)
			}
			p.restore(s)
			var zero T
			result, ok = zero, false
		}
	}()
	result, ok = fn()
	if !ok {
		p.restore(s)
	}
	return result, ok
}

// peek returns the token after the current one without consuming anything.
func (p *Parser) peek() token.Token {
	s := p.save()
	p.next()
	tok := p.tok
	p.restore(s)
	return tok
}

// withFlags runs fn with modified flags and restores them afterwards.
func (p *Parser) withFlags(f flags, fn func()) {
	saved := p.flags
	p.flags = f
	defer func() { p.flags = saved }()
	fn()
}

// ---------- Identifier Helpers ----------

// isIdentName reports whether tok can be a property name: any identifier or reserved word.
func isIdentName(tok token.Token) bool {
	return tok.Type == token.IDENT || tok.Type.IsKeyword()
}

// strictReserved are not reserved words but cannot name bindings.
var strictReserved = map[string]bool{
	"implements": true, "interface": true, "package": true, "private": true,
	"protected": true, "public": true, "static": true,
}

// checkBindingIdent reports whether the current token can start a binding identifier.
func (p *Parser) checkBindingIdent() bool {
	if p.tok.Type != token.IDENT {
		return false
	}
	switch p.tok.Literal {
	case "await":
		return !p.flags.inAsync
	case "yield":
		return !p.flags.inGenerator
	}
	return true
}

// parseIdentName parses an identifier in property-name position.
func (p *Parser) parseIdentName() *ast.Ident {
	if !isIdentName(p.tok) {
		p.failf(errIdentExpected, tokenText(p.tok))
	}
	id := &ast.Ident{NodeInfo: ast.At(p.tok.Span), Name: identValue(p.tok)}
	p.next()
	return id
}

// parseBindingIdent parses an identifier that introduces or references a binding.
func (p *Parser) parseBindingIdent() *ast.Ident {
	if !p.checkBindingIdent() {
		p.failf(errIdentExpected, tokenText(p.tok))
	}
	id := &ast.Ident{NodeInfo: ast.At(p.tok.Span), Name: identValue(p.tok)}
	p.next()
	return id
}

func identValue(tok token.Token) string {
	if tok.Value != "" {
		return tok.Value
	}
	return tok.Literal
}

// requireTS fails unless the dialect accepts TypeScript.
func (p *Parser) requireTS(what string) {
	if !p.dialect.TypeScript() {
		p.failf(errTSOnly, what)
	}
}

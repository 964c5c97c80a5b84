// Package codegen prints a syntax tree back to source text.
//
// The printer walks the tree depth first and records, for every node that
// carries a source span, where its first character lands in the output.
// Those mappings feed the sourcemap package. Parentheses are inserted from
// operator precedence, so rewritten trees print correctly even when a
// replacement expression binds looser than the expression it replaced.
// Printing never mutates the tree or the comment store.
package codegen

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapmacro/pkg/ast"
	"github.com/leapstack-labs/leapmacro/pkg/token"
)

// DefaultIndent is one level of indentation.
const DefaultIndent = "    "

// Config configures printing.
type Config struct {
	// Comments are re-emitted next to the nodes they are attached to. May be nil.
	Comments *ast.Comments
	// Indent defaults to DefaultIndent.
	Indent string
}

// Error reports a tree that cannot be printed.
type Error struct {
	Node ast.Node
}

func (e *Error) Error() string {
	return fmt.Sprintf("codegen: cannot print %T", e.Node)
}

type bailout struct {
	err *Error
}

type emitter struct {
	w        *Writer
	comments *ast.Comments
	leading  map[token.Pos]bool
	trailing map[token.Pos]bool
}

func newEmitter(cfg Config) *emitter {
	indent := cfg.Indent
	if indent == "" {
		indent = DefaultIndent
	}
	return &emitter{
		w:        NewWriter(indent),
		comments: cfg.Comments,
		leading:  make(map[token.Pos]bool),
		trailing: make(map[token.Pos]bool),
	}
}

func (e *emitter) fail(n ast.Node) {
	panic(bailout{err: &Error{Node: n}})
}

func recoverError(errp *error) {
	if r := recover(); r != nil {
		b, ok := r.(bailout)
		if !ok {
			panic(r)
		}
		*errp = b.err
	}
}

// Emit prints m and returns the text with its mappings.
func Emit(m *ast.Module, cfg Config) (code string, mappings []Mapping, err error) {
	if m == nil {
		return "", nil, fmt.Errorf("codegen: nil module")
	}
	defer recoverError(&err)

	e := newEmitter(cfg)
	e.module(m)
	return e.w.String(), e.w.Mappings(), nil
}

// EmitExpr prints a single expression without a trailing newline.
func EmitExpr(x ast.Expr, cfg Config) (code string, err error) {
	defer recoverError(&err)

	e := newEmitter(cfg)
	e.expr(x, ast.PrecLowest)
	return e.w.String(), nil
}

func (e *emitter) module(m *ast.Module) {
	if m.Shebang != "" {
		e.w.Write(m.Shebang)
		e.w.Writeln()
	}
	for _, item := range m.Body {
		e.moduleItem(item)
	}
	e.danglingComments(m.Span.Hi)
}

// ---------- Comments ----------

// leadingComments prints the comments attached before pos. Line comments
// end the line; in inline contexts they are printed as block comments.
func (e *emitter) leadingComments(pos token.Pos, inline bool) {
	if !pos.IsValid() || e.leading[pos] || !e.comments.HasLeading(pos) {
		return
	}
	e.leading[pos] = true
	for _, c := range e.comments.Leading(pos) {
		switch {
		case c.Kind == token.LineComment && !inline:
			e.w.Write(c.Text)
			e.w.Writeln()
		case c.Kind == token.LineComment:
			e.w.Write(lineAsBlock(c.Text))
			e.w.Space()
		default:
			e.w.Write(c.Text)
			if inline {
				e.w.Space()
			} else {
				e.w.Writeln()
			}
		}
	}
}

// trailingComments prints the comments that followed pos on its line. In
// inline contexts a line comment is left for the enclosing statement.
func (e *emitter) trailingComments(pos token.Pos, inline bool) {
	if !pos.IsValid() || e.trailing[pos] {
		return
	}
	cs := e.comments.Trailing(pos)
	if len(cs) == 0 {
		return
	}
	if inline {
		for _, c := range cs {
			if c.Kind == token.LineComment {
				return
			}
		}
	}
	e.trailing[pos] = true
	for _, c := range cs {
		e.w.Space()
		e.w.Write(c.Text)
	}
}

// danglingComments prints comments attached to a closing token, such as
// the comments at the end of a block.
func (e *emitter) danglingComments(pos token.Pos) {
	if !pos.IsValid() || e.leading[pos] || !e.comments.HasLeading(pos) {
		return
	}
	if !e.w.AtLineStart() {
		e.w.Writeln()
	}
	e.leadingComments(pos, false)
}

func lineAsBlock(text string) string {
	body := text
	if len(body) >= 2 && body[:2] == "//" {
		body = body[2:]
	}
	return "/*" + strings.ReplaceAll(body, "*/", "* /") + " */"
}

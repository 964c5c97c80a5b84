package parser

import (
	"fmt"

	"github.com/leapstack-labs/leapmacro/pkg/token"
)

// Error is a fatal syntax error. Parsing stops at the first one.
type Error struct {
	Span    token.Span
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// bailout carries an *Error through the parser's call stack.
type bailout struct {
	err *Error
}

func bail(span token.Span, msg string) {
	panic(bailout{err: &Error{Span: span, Message: msg}})
}

// recoverError converts a bailout into an error. Other panics propagate.
func recoverError(errp *error) {
	if r := recover(); r != nil {
		b, ok := r.(bailout)
		if !ok {
			panic(r)
		}
		*errp = b.err
	}
}

// Common error messages
const (
	errUnterminatedComment  = "Unterminated comment"
	errUnterminatedString   = "Unterminated string constant"
	errUnterminatedTemplate = "Unterminated template"
	errUnterminatedRegExp   = "Unterminated regexp literal"
	errInvalidEscape        = "Invalid escape sequence"
	errInvalidIdentEscape   = "Invalid Unicode escape sequence in identifier"
	errInvalidNumber        = "Invalid number"
	errIdentAfterNumber     = "An identifier or keyword cannot immediately follow a numeric literal"

	errExpressionExpected = "Expression expected"
	errExpected           = "Expected '%s', got '%s'"
	errUnexpectedToken    = "Unexpected token '%s'"
	errNotAssignable      = "Invalid assignment target"
	errBindingExpected    = "Binding pattern expected"
	errIdentExpected      = "Identifier expected, got '%s'"
	errTypeExpected       = "Type expected"
	errJSXDisabled        = "JSX is not enabled for this dialect"
	errTSOnly             = "%s can only be used in TypeScript files"
	errJSXClosingMismatch = "Expected corresponding closing tag for JSX element '%s'"
	errMissingInit        = "Missing initializer in const declaration"
	errReturnOutside      = "Return statement is not allowed here"
)

func tokenText(tok token.Token) string {
	if tok.Type == token.EOF {
		return "<eof>"
	}
	return tok.Literal
}

func expectedMsg(want string, got token.Token) string {
	return fmt.Sprintf(errExpected, want, tokenText(got))
}

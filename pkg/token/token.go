// Package token defines the lexical tokens of JavaScript, JSX and TypeScript.
//
// Contextual keywords (let, async, of, type, interface, ...) are scanned as IDENT
// and recognized by the parser from their literal, because every one of them is
// also a valid identifier somewhere in the grammar.
package token

import "fmt"

// TokenType represents the type of a lexical token.
//
//nolint:revive // Accept stutter as token.TokenType is clear and widely used
type TokenType int32

//nolint:revive // TOKEN names are intentionally ALL_CAPS
const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	IDENT           // foo
	PRIVATE_NAME    // #foo
	NUMBER          // 123, 0x1f, 1e10
	BIGINT          // 123n
	STRING          // 'a', "a"
	TEMPLATE        // `a` (no substitutions)
	TEMPLATE_HEAD   // `a${
	TEMPLATE_MIDDLE // }a${
	TEMPLATE_TAIL   // }a`
	REGEXP          // /a/g
	JSX_TEXT        // text between JSX tags

	// Punctuators
	LBRACE            // {
	RBRACE            // }
	LPAREN            // (
	RPAREN            // )
	LBRACKET          // [
	RBRACKET          // ]
	DOT               // .
	ELLIPSIS          // ...
	SEMICOLON         // ;
	COMMA             // ,
	LT                // <
	GT                // >
	LE                // <=
	GE                // >=
	EQ_EQ             // ==
	NOT_EQ            // !=
	EQ_EQ_EQ          // ===
	NOT_EQ_EQ         // !==
	PLUS              // +
	MINUS             // -
	STAR              // *
	SLASH             // /
	PERCENT           // %
	STAR_STAR         // **
	PLUS_PLUS         // ++
	MINUS_MINUS       // --
	LT_LT             // <<
	GT_GT             // >>
	GT_GT_GT          // >>>
	AMP               // &
	PIPE              // |
	CARET             // ^
	BANG              // !
	TILDE             // ~
	AMP_AMP           // &&
	PIPE_PIPE         // ||
	QUESTION          // ?
	QUESTION_QUESTION // ??
	QUESTION_DOT      // ?.
	COLON             // :
	ARROW             // =>
	AT                // @
	HASH              // # not followed by an identifier

	// Assignment operators
	EQ                   // =
	PLUS_EQ              // +=
	MINUS_EQ             // -=
	STAR_EQ              // *=
	SLASH_EQ             // /=
	PERCENT_EQ           // %=
	STAR_STAR_EQ         // **=
	LT_LT_EQ             // <<=
	GT_GT_EQ             // >>=
	GT_GT_GT_EQ          // >>>=
	AMP_EQ               // &=
	PIPE_EQ              // |=
	CARET_EQ             // ^=
	AMP_AMP_EQ           // &&=
	PIPE_PIPE_EQ         // ||=
	QUESTION_QUESTION_EQ // ??=

	// Reserved words (alphabetical)
	BREAK
	CASE
	CATCH
	CLASS
	CONST
	CONTINUE
	DEBUGGER
	DEFAULT
	DELETE
	DO
	ELSE
	ENUM
	EXPORT
	EXTENDS
	FALSE
	FINALLY
	FOR
	FUNCTION
	IF
	IMPORT
	IN
	INSTANCEOF
	NEW
	NULL
	RETURN
	SUPER
	SWITCH
	THIS
	THROW
	TRUE
	TRY
	TYPEOF
	VAR
	VOID
	WHILE
	WITH

	maxToken
)

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// IsKeyword reports whether t is a reserved word.
func (t TokenType) IsKeyword() bool {
	return t >= BREAK && t < maxToken
}

// IsAssign reports whether t is an assignment operator.
func (t TokenType) IsAssign() bool {
	return t >= EQ && t <= QUESTION_QUESTION_EQ
}

// tokenNames maps token types to their string representations.
var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	IDENT:           "identifier",
	PRIVATE_NAME:    "private name",
	NUMBER:          "number",
	BIGINT:          "bigint",
	STRING:          "string",
	TEMPLATE:        "template",
	TEMPLATE_HEAD:   "template head",
	TEMPLATE_MIDDLE: "template middle",
	TEMPLATE_TAIL:   "template tail",
	REGEXP:          "regexp",
	JSX_TEXT:        "jsx text",

	LBRACE:            "{",
	RBRACE:            "}",
	LPAREN:            "(",
	RPAREN:            ")",
	LBRACKET:          "[",
	RBRACKET:          "]",
	DOT:               ".",
	ELLIPSIS:          "...",
	SEMICOLON:         ";",
	COMMA:             ",",
	LT:                "<",
	GT:                ">",
	LE:                "<=",
	GE:                ">=",
	EQ_EQ:             "==",
	NOT_EQ:            "!=",
	EQ_EQ_EQ:          "===",
	NOT_EQ_EQ:         "!==",
	PLUS:              "+",
	MINUS:             "-",
	STAR:              "*",
	SLASH:             "/",
	PERCENT:           "%",
	STAR_STAR:         "**",
	PLUS_PLUS:         "++",
	MINUS_MINUS:       "--",
	LT_LT:             "<<",
	GT_GT:             ">>",
	GT_GT_GT:          ">>>",
	AMP:               "&",
	PIPE:              "|",
	CARET:             "^",
	BANG:              "!",
	TILDE:             "~",
	AMP_AMP:           "&&",
	PIPE_PIPE:         "||",
	QUESTION:          "?",
	QUESTION_QUESTION: "??",
	QUESTION_DOT:      "?.",
	COLON:             ":",
	ARROW:             "=>",
	AT:                "@",
	HASH:              "#",

	EQ:                   "=",
	PLUS_EQ:              "+=",
	MINUS_EQ:             "-=",
	STAR_EQ:              "*=",
	SLASH_EQ:             "/=",
	PERCENT_EQ:           "%=",
	STAR_STAR_EQ:         "**=",
	LT_LT_EQ:             "<<=",
	GT_GT_EQ:             ">>=",
	GT_GT_GT_EQ:          ">>>=",
	AMP_EQ:               "&=",
	PIPE_EQ:              "|=",
	CARET_EQ:             "^=",
	AMP_AMP_EQ:           "&&=",
	PIPE_PIPE_EQ:         "||=",
	QUESTION_QUESTION_EQ: "??=",

	BREAK:      "break",
	CASE:       "case",
	CATCH:      "catch",
	CLASS:      "class",
	CONST:      "const",
	CONTINUE:   "continue",
	DEBUGGER:   "debugger",
	DEFAULT:    "default",
	DELETE:     "delete",
	DO:         "do",
	ELSE:       "else",
	ENUM:       "enum",
	EXPORT:     "export",
	EXTENDS:    "extends",
	FALSE:      "false",
	FINALLY:    "finally",
	FOR:        "for",
	FUNCTION:   "function",
	IF:         "if",
	IMPORT:     "import",
	IN:         "in",
	INSTANCEOF: "instanceof",
	NEW:        "new",
	NULL:       "null",
	RETURN:     "return",
	SUPER:      "super",
	SWITCH:     "switch",
	THIS:       "this",
	THROW:      "throw",
	TRUE:       "true",
	TRY:        "try",
	TYPEOF:     "typeof",
	VAR:        "var",
	VOID:       "void",
	WHILE:      "while",
	WITH:       "with",
}

// keywords maps reserved words to their token types.
var keywords = map[string]TokenType{
	"break":      BREAK,
	"case":       CASE,
	"catch":      CATCH,
	"class":      CLASS,
	"const":      CONST,
	"continue":   CONTINUE,
	"debugger":   DEBUGGER,
	"default":    DEFAULT,
	"delete":     DELETE,
	"do":         DO,
	"else":       ELSE,
	"enum":       ENUM,
	"export":     EXPORT,
	"extends":    EXTENDS,
	"false":      FALSE,
	"finally":    FINALLY,
	"for":        FOR,
	"function":   FUNCTION,
	"if":         IF,
	"import":     IMPORT,
	"in":         IN,
	"instanceof": INSTANCEOF,
	"new":        NEW,
	"null":       NULL,
	"return":     RETURN,
	"super":      SUPER,
	"switch":     SWITCH,
	"this":       THIS,
	"throw":      THROW,
	"true":       TRUE,
	"try":        TRY,
	"typeof":     TYPEOF,
	"var":        VAR,
	"void":       VOID,
	"while":      WHILE,
	"with":       WITH,
}

// LookupIdent returns the token type for the given identifier.
// If the identifier is a reserved word, the keyword token type is returned.
// Otherwise, IDENT is returned. JavaScript keywords are case-sensitive.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Token is a single lexical token.
type Token struct {
	Type    TokenType
	Literal string // raw source text of the token
	Value   string // cooked value for strings, templates and identifiers with escapes
	Span    Span

	// NewlineBefore is set when a line terminator separates this token from the previous one.
	NewlineBefore bool

	// InvalidEscape marks template chunks whose escapes cannot be cooked.
	InvalidEscape bool
}

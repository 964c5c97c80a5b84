package parser

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/leapmacro/pkg/ast"
	"github.com/leapstack-labs/leapmacro/pkg/source"
	"github.com/leapstack-labs/leapmacro/pkg/token"
)

// Lexer tokenizes JavaScript and TypeScript source.
//
// The lexer is driven by the parser: tokens whose meaning depends on the
// grammatical context (regular expressions, template continuations, JSX text,
// compound > operators) are produced by rescanning from a token's start.
// A Lexer is a plain value, so copying it saves its state.
type Lexer struct {
	file  *source.File
	input string
	pos   int // offset of the next unread byte

	lastEnd  token.Pos // end of the previous token
	newline  bool      // a line terminator was skipped before the current token
	comments *commentSink
}

// commentSink attaches comments to the store once, no matter how often the
// parser rescans the text around them.
type commentSink struct {
	store   *ast.Comments
	seen    map[token.Pos]bool
	pending []token.Comment
}

// NewLexer creates a Lexer over the file's text.
func NewLexer(file *source.File, comments *ast.Comments) *Lexer {
	l := &Lexer{
		file:    file,
		input:   file.Source(),
		lastEnd: file.Base(),
		comments: &commentSink{
			store: comments,
			seen:  make(map[token.Pos]bool),
		},
	}
	return l
}

// Shebang consumes a leading #! line and returns it.
func (l *Lexer) Shebang() string {
	if l.pos != 0 || !strings.HasPrefix(l.input, "#!") {
		return ""
	}
	end := strings.IndexAny(l.input, "\r\n")
	if end < 0 {
		end = len(l.input)
	}
	l.pos = end
	return l.input[:end]
}

// at returns the byte at offset i, or 0 past the end.
func (l *Lexer) at(i int) byte {
	if i >= len(l.input) {
		return 0
	}
	return l.input[i]
}

// ch returns the current byte.
func (l *Lexer) ch() byte {
	return l.at(l.pos)
}

// peekChar returns the byte after the current one.
func (l *Lexer) peekChar() byte {
	return l.at(l.pos + 1)
}

// runeAt decodes the rune at offset i.
func (l *Lexer) runeAt(i int) (rune, int) {
	if i >= len(l.input) {
		return 0, 0
	}
	if c := l.input[i]; c < utf8.RuneSelf {
		return rune(c), 1
	}
	return utf8.DecodeRuneInString(l.input[i:])
}

func (l *Lexer) spanFrom(start int) token.Span {
	return token.NewSpan(l.file.Pos(start), l.file.Pos(l.pos))
}

func (l *Lexer) errorAt(start, end int, msg string) {
	bail(token.NewSpan(l.file.Pos(start), l.file.Pos(end)), msg)
}

func (l *Lexer) makeToken(t token.TokenType, start int) token.Token {
	tok := token.Token{
		Type:          t,
		Literal:       l.input[start:l.pos],
		Span:          l.spanFrom(start),
		NewlineBefore: l.newline,
	}
	l.lastEnd = tok.Span.Hi
	return tok
}

// reset moves the lexer to the given offset. Trivia before it is not rescanned.
func (l *Lexer) reset(offset int) {
	l.pos = offset
}

// NextToken skips trivia and scans the next token in the default mode.
func (l *Lexer) NextToken() token.Token {
	l.skipTrivia()
	start := l.pos
	l.comments.flushLeading(l.file.Pos(start))

	c := l.ch()
	if l.pos >= len(l.input) {
		return l.makeToken(token.EOF, start)
	}

	if isIdentStartByte(c) || c == '\\' || c >= utf8.RuneSelf {
		return l.scanIdentifier(start)
	}
	if isDigit(c) || (c == '.' && isDigit(l.peekChar())) {
		return l.scanNumber(start)
	}

	switch c {
	case '"', '\'':
		return l.scanString(start, c)
	case '`':
		l.pos++
		return l.scanTemplateChunk(start, token.TEMPLATE, token.TEMPLATE_HEAD)
	case '#':
		if r, _ := l.runeAt(l.pos + 1); isIdentStart(r) || r == '\\' {
			l.pos++
			tok := l.scanIdentifier(l.pos)
			tok.Type = token.PRIVATE_NAME
			tok.Literal = l.input[start:l.pos]
			tok.Span = l.spanFrom(start)
			return tok
		}
		l.pos++
		return l.makeToken(token.HASH, start)
	}
	return l.scanPunctuator(start)
}

// skipTrivia skips whitespace and comments, recording the comments.
func (l *Lexer) skipTrivia() {
	l.newline = false
	for l.pos < len(l.input) {
		c := l.ch()
		switch {
		case c == '\n' || c == '\r':
			l.newline = true
			l.pos++
		case c == ' ' || c == '\t' || c == '\v' || c == '\f':
			l.pos++
		case c == '/' && l.peekChar() == '/':
			start := l.pos
			for l.pos < len(l.input) && !l.atLineTerminator() {
				l.pos++
			}
			l.addComment(token.LineComment, start)
		case c == '/' && l.peekChar() == '*':
			start := l.pos
			end := strings.Index(l.input[l.pos+2:], "*/")
			if end < 0 {
				l.errorAt(start, len(l.input), errUnterminatedComment)
			}
			l.pos += end + 4
			l.addComment(token.BlockComment, start)
			if strings.ContainsAny(l.input[start:l.pos], "\n\r\u2028\u2029") {
				l.newline = true
			}
		case c >= utf8.RuneSelf:
			r, size := l.runeAt(l.pos)
			if r == '\u2028' || r == '\u2029' {
				l.newline = true
			} else if !unicode.Is(unicode.Zs, r) && r != '\uFEFF' {
				return
			}
			l.pos += size
		default:
			return
		}
	}
}

func (l *Lexer) atLineTerminator() bool {
	c := l.ch()
	if c == '\n' || c == '\r' {
		return true
	}
	if c == 0xE2 {
		r, _ := l.runeAt(l.pos)
		return r == '\u2028' || r == '\u2029'
	}
	return false
}

// addComment classifies a comment as trailing (same line as the previous
// token) or pending leading (attached to the next token).
func (l *Lexer) addComment(kind token.CommentKind, start int) {
	cm := token.Comment{Kind: kind, Text: l.input[start:l.pos], Span: l.spanFrom(start)}
	sink := l.comments
	if sink.store == nil || sink.seen[cm.Span.Lo] {
		return
	}
	sink.seen[cm.Span.Lo] = true
	sameLine := kind == token.LineComment || l.lineRestBlank()
	if !l.newline && sameLine && len(sink.pending) == 0 && l.lastEnd > l.file.Base() {
		sink.store.AddTrailing(l.lastEnd, cm)
		return
	}
	sink.pending = append(sink.pending, cm)
}

// lineRestBlank reports whether only blanks or a line comment follow the
// current position on its line.
func (l *Lexer) lineRestBlank() bool {
	for i := l.pos; i < len(l.input); i++ {
		switch c := l.input[i]; c {
		case ' ', '\t', '\v', '\f':
		case '\n', '\r':
			return true
		case '/':
			return i+1 < len(l.input) && l.input[i+1] == '/'
		default:
			return false
		}
	}
	return true
}

func (s *commentSink) flushLeading(pos token.Pos) {
	if len(s.pending) == 0 {
		return
	}
	for _, cm := range s.pending {
		s.store.AddLeading(pos, cm)
	}
	s.pending = s.pending[:0]
}

// ---------- Identifiers ----------

func isIdentStartByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == '$'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(r rune) bool {
	if r < utf8.RuneSelf {
		return isIdentStartByte(byte(r))
	}
	return unicode.IsLetter(r) || unicode.Is(unicode.Nl, r) || unicode.Is(unicode.Other_ID_Start, r)
}

func isIdentPart(r rune) bool {
	if r < utf8.RuneSelf {
		return isIdentStartByte(byte(r)) || isDigit(byte(r))
	}
	return isIdentStart(r) || unicode.In(r, unicode.Mn, unicode.Mc, unicode.Nd, unicode.Pc) ||
		r == '\u200C' || r == '\u200D'
}

// scanIdentifier scans an identifier or keyword starting at start.
func (l *Lexer) scanIdentifier(start int) token.Token {
	var cooked strings.Builder
	escaped := false
	first := true
	for l.pos < len(l.input) {
		if l.ch() == '\\' {
			escStart := l.pos
			if l.peekChar() != 'u' {
				l.errorAt(escStart, escStart+1, errInvalidIdentEscape)
			}
			l.pos += 2
			r, ok := l.scanUnicodeEscapeBody()
			if !ok || (first && !isIdentStart(r)) || (!first && !isIdentPart(r)) {
				l.errorAt(escStart, l.pos, errInvalidIdentEscape)
			}
			cooked.WriteRune(r)
			escaped = true
			first = false
			continue
		}
		r, size := l.runeAt(l.pos)
		if (first && !isIdentStart(r)) || (!first && !isIdentPart(r)) {
			break
		}
		cooked.WriteRune(r)
		l.pos += size
		first = false
	}
	if first {
		r, size := l.runeAt(l.pos)
		l.pos += size
		l.errorAt(start, l.pos, "Unexpected character '"+string(r)+"'")
	}

	tok := l.makeToken(token.IDENT, start)
	tok.Value = cooked.String()
	if !escaped {
		tok.Type = token.LookupIdent(tok.Value)
	}
	return tok
}

// scanUnicodeEscapeBody scans XXXX or {X...} after \u.
func (l *Lexer) scanUnicodeEscapeBody() (rune, bool) {
	if l.ch() == '{' {
		end := strings.IndexByte(l.input[l.pos:], '}')
		if end < 2 {
			return 0, false
		}
		v, err := strconv.ParseUint(l.input[l.pos+1:l.pos+end], 16, 32)
		l.pos += end + 1
		if err != nil || v > unicode.MaxRune {
			return 0, false
		}
		return rune(v), true
	}
	if l.pos+4 > len(l.input) {
		return 0, false
	}
	v, err := strconv.ParseUint(l.input[l.pos:l.pos+4], 16, 32)
	if err != nil {
		return 0, false
	}
	l.pos += 4
	return rune(v), true
}

// ---------- Numbers ----------

func (l *Lexer) scanNumber(start int) token.Token {
	c := l.ch()
	if c == '0' && (l.peekChar()|0x20 == 'x' || l.peekChar()|0x20 == 'o' || l.peekChar()|0x20 == 'b') {
		l.pos += 2
		base := 16
		switch l.input[start+1] | 0x20 {
		case 'o':
			base = 8
		case 'b':
			base = 2
		}
		if !l.scanDigits(base) {
			l.errorAt(start, l.pos, errInvalidNumber)
		}
		return l.finishNumber(start, true)
	}

	legacyOctal := c == '0' && isDigit(l.peekChar())
	if legacyOctal {
		l.scanDigits(10)
		return l.finishNumber(start, false)
	}

	if c != '.' {
		l.scanDigits(10)
	}
	bigintOK := true
	if l.ch() == '.' {
		bigintOK = false
		l.pos++
		l.scanDigits(10)
	}
	if l.ch()|0x20 == 'e' {
		save := l.pos
		l.pos++
		if l.ch() == '+' || l.ch() == '-' {
			l.pos++
		}
		if !l.scanDigits(10) {
			l.pos = save
			l.errorAt(start, l.pos+1, errInvalidNumber)
		}
		bigintOK = false
	}
	return l.finishNumber(start, bigintOK)
}

// scanDigits consumes digits of base, allowing numeric separators.
func (l *Lexer) scanDigits(base int) bool {
	n := 0
	for l.pos < len(l.input) {
		c := l.ch()
		if c == '_' && n > 0 && digitValue(l.peekChar()) < base {
			l.pos++
			continue
		}
		if digitValue(c) >= base {
			break
		}
		l.pos++
		n++
	}
	return n > 0
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return 99
}

func (l *Lexer) finishNumber(start int, bigintOK bool) token.Token {
	t := token.NUMBER
	if l.ch() == 'n' && bigintOK {
		l.pos++
		t = token.BIGINT
	}
	if r, _ := l.runeAt(l.pos); isIdentStart(r) || isDigit(l.ch()) {
		l.errorAt(start, l.pos+1, errIdentAfterNumber)
	}
	return l.makeToken(t, start)
}

// NumberValue converts a numeric literal to its value.
func NumberValue(raw string) float64 {
	s := strings.ReplaceAll(raw, "_", "")
	if len(s) > 1 && s[0] == '0' {
		base := 0
		switch s[1] | 0x20 {
		case 'x':
			base = 16
		case 'o':
			base = 8
		case 'b':
			base = 2
		}
		if base != 0 {
			return parseUintFloat(s[2:], base)
		}
		if isDigit(s[1]) && !strings.ContainsAny(s, "89.eE") {
			return parseUintFloat(s[1:], 8)
		}
	}
	// out of range literals yield ±Inf together with an error
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseUintFloat(digits string, base int) float64 {
	var v float64
	for i := 0; i < len(digits); i++ {
		v = v*float64(base) + float64(digitValue(digits[i]))
	}
	return v
}

// ---------- Strings ----------

func (l *Lexer) scanString(start int, quote byte) token.Token {
	l.pos++
	var cooked strings.Builder
	for {
		if l.pos >= len(l.input) || l.ch() == '\n' || l.ch() == '\r' {
			l.errorAt(start, l.pos, errUnterminatedString)
		}
		c := l.ch()
		if c == quote {
			l.pos++
			break
		}
		if c == '\\' {
			if !l.scanEscape(&cooked, false) {
				l.errorAt(l.pos-1, l.pos, errInvalidEscape)
			}
			continue
		}
		cooked.WriteByte(c)
		l.pos++
	}
	tok := l.makeToken(token.STRING, start)
	tok.Value = cooked.String()
	return tok
}

// scanEscape consumes an escape sequence at the backslash and writes its
// cooked value. Templates reject legacy octal escapes.
func (l *Lexer) scanEscape(out *strings.Builder, template bool) bool {
	l.pos++ // backslash
	if l.pos >= len(l.input) {
		return false
	}
	c := l.ch()
	l.pos++
	switch c {
	case 'n':
		out.WriteByte('\n')
	case 't':
		out.WriteByte('\t')
	case 'r':
		out.WriteByte('\r')
	case 'b':
		out.WriteByte('\b')
	case 'f':
		out.WriteByte('\f')
	case 'v':
		out.WriteByte('\v')
	case '\r':
		if l.ch() == '\n' {
			l.pos++
		}
	case '\n':
	case 'x':
		if l.pos+2 > len(l.input) {
			return false
		}
		v, err := strconv.ParseUint(l.input[l.pos:l.pos+2], 16, 8)
		if err != nil {
			return false
		}
		l.pos += 2
		out.WriteRune(rune(v))
	case 'u':
		r, ok := l.scanUnicodeEscapeBody()
		if !ok {
			return false
		}
		if r >= 0xD800 && r <= 0xDBFF && l.ch() == '\\' && l.peekChar() == 'u' {
			save := l.pos
			l.pos += 2
			lo, ok := l.scanUnicodeEscapeBody()
			if ok && lo >= 0xDC00 && lo <= 0xDFFF {
				r = (r-0xD800)<<10 + (lo - 0xDC00) + 0x10000
			} else {
				l.pos = save
			}
		}
		out.WriteRune(r)
	case '0', '1', '2', '3', '4', '5', '6', '7':
		if c == '0' && !isDigit(l.ch()) {
			out.WriteByte(0)
			break
		}
		if template {
			return false
		}
		v := int(c - '0')
		for i := 0; i < 2 && l.ch() >= '0' && l.ch() <= '7' && v*8+int(l.ch()-'0') <= 0xFF; i++ {
			v = v*8 + int(l.ch()-'0')
			l.pos++
		}
		out.WriteRune(rune(v))
	case '8', '9':
		if template {
			return false
		}
		out.WriteByte(c)
	default:
		if c >= utf8.RuneSelf {
			r, size := l.runeAt(l.pos - 1)
			l.pos += size - 1
			if r == '\u2028' || r == '\u2029' {
				break
			}
			out.WriteRune(r)
			break
		}
		out.WriteByte(c)
	}
	return true
}

// ---------- Templates ----------

// scanTemplateChunk scans template text after ` or } up to the next ${ or `.
func (l *Lexer) scanTemplateChunk(start int, whole, open token.TokenType) token.Token {
	var cooked strings.Builder
	invalid := false
	for {
		if l.pos >= len(l.input) {
			l.errorAt(start, l.pos, errUnterminatedTemplate)
		}
		c := l.ch()
		if c == '`' {
			l.pos++
			tok := l.makeToken(whole, start)
			tok.Value = cooked.String()
			tok.InvalidEscape = invalid
			return tok
		}
		if c == '$' && l.peekChar() == '{' {
			l.pos += 2
			tok := l.makeToken(open, start)
			tok.Value = cooked.String()
			tok.InvalidEscape = invalid
			return tok
		}
		if c == '\\' {
			escStart := l.pos
			if !l.scanEscape(&cooked, true) {
				invalid = true
				// resume after the backslash and the offending character
				l.pos = escStart + 2
			}
			continue
		}
		if c == '\r' {
			cooked.WriteByte('\n')
			l.pos++
			if l.ch() == '\n' {
				l.pos++
			}
			continue
		}
		cooked.WriteByte(c)
		l.pos++
	}
}

// RescanTemplateContinuation rescans a } token as the middle or tail of a template.
func (l *Lexer) RescanTemplateContinuation(tok token.Token) token.Token {
	start := l.file.Offset(tok.Span.Lo)
	l.reset(start + 1)
	out := l.scanTemplateChunk(start, token.TEMPLATE_TAIL, token.TEMPLATE_MIDDLE)
	out.NewlineBefore = tok.NewlineBefore
	return out
}

// ---------- Regular expressions ----------

// RescanRegExp rescans a / or /= token as a regular expression literal.
func (l *Lexer) RescanRegExp(tok token.Token) token.Token {
	start := l.file.Offset(tok.Span.Lo)
	l.reset(start + 1)
	inClass := false
	for {
		if l.pos >= len(l.input) || l.atLineTerminator() {
			l.errorAt(start, l.pos, errUnterminatedRegExp)
		}
		c := l.ch()
		l.pos++
		if c == '\\' {
			if l.pos >= len(l.input) || l.atLineTerminator() {
				l.errorAt(start, l.pos, errUnterminatedRegExp)
			}
			_, size := l.runeAt(l.pos)
			l.pos += size
			continue
		}
		if c == '[' {
			inClass = true
		} else if c == ']' {
			inClass = false
		} else if c == '/' && !inClass {
			break
		}
	}
	patternEnd := l.pos - 1
	for {
		r, size := l.runeAt(l.pos)
		if size == 0 || !isIdentPart(r) {
			break
		}
		l.pos += size
	}
	out := l.makeToken(token.REGEXP, start)
	out.Value = l.input[start+1 : patternEnd]
	out.NewlineBefore = tok.NewlineBefore
	return out
}

// ---------- Punctuators ----------

// punctuators lists operator spellings, longest first within each leading byte.
var punctuators = []struct {
	text string
	typ  token.TokenType
}{
	{"...", token.ELLIPSIS},
	{"===", token.EQ_EQ_EQ},
	{"!==", token.NOT_EQ_EQ},
	{"**=", token.STAR_STAR_EQ},
	{"<<=", token.LT_LT_EQ},
	{"&&=", token.AMP_AMP_EQ},
	{"||=", token.PIPE_PIPE_EQ},
	{"??=", token.QUESTION_QUESTION_EQ},
	{"=>", token.ARROW},
	{"==", token.EQ_EQ},
	{"!=", token.NOT_EQ},
	{"<=", token.LE},
	{"**", token.STAR_STAR},
	{"++", token.PLUS_PLUS},
	{"--", token.MINUS_MINUS},
	{"<<", token.LT_LT},
	{"&&", token.AMP_AMP},
	{"||", token.PIPE_PIPE},
	{"??", token.QUESTION_QUESTION},
	{"+=", token.PLUS_EQ},
	{"-=", token.MINUS_EQ},
	{"*=", token.STAR_EQ},
	{"/=", token.SLASH_EQ},
	{"%=", token.PERCENT_EQ},
	{"&=", token.AMP_EQ},
	{"|=", token.PIPE_EQ},
	{"^=", token.CARET_EQ},
	{"{", token.LBRACE},
	{"}", token.RBRACE},
	{"(", token.LPAREN},
	{")", token.RPAREN},
	{"[", token.LBRACKET},
	{"]", token.RBRACKET},
	{".", token.DOT},
	{";", token.SEMICOLON},
	{",", token.COMMA},
	{"<", token.LT},
	{">", token.GT},
	{"+", token.PLUS},
	{"-", token.MINUS},
	{"*", token.STAR},
	{"/", token.SLASH},
	{"%", token.PERCENT},
	{"&", token.AMP},
	{"|", token.PIPE},
	{"^", token.CARET},
	{"!", token.BANG},
	{"~", token.TILDE},
	{"?", token.QUESTION},
	{":", token.COLON},
	{"=", token.EQ},
	{"@", token.AT},
}

// scanPunctuator scans an operator. A > is always returned alone; the parser
// combines it with RescanGreater where a shift or comparison is allowed, so
// that nested type arguments close correctly.
func (l *Lexer) scanPunctuator(start int) token.Token {
	rest := l.input[l.pos:]
	if strings.HasPrefix(rest, "?.") && !isDigit(l.at(l.pos+2)) {
		l.pos += 2
		return l.makeToken(token.QUESTION_DOT, start)
	}
	for _, p := range punctuators {
		if strings.HasPrefix(rest, p.text) {
			l.pos += len(p.text)
			return l.makeToken(p.typ, start)
		}
	}
	r, size := l.runeAt(l.pos)
	l.pos += size
	l.errorAt(start, l.pos, "Unexpected character '"+string(r)+"'")
	return token.Token{}
}

// greaterTokens are the operators that begin with >, longest first.
var greaterTokens = []struct {
	text string
	typ  token.TokenType
}{
	{">>>=", token.GT_GT_GT_EQ},
	{">>>", token.GT_GT_GT},
	{">>=", token.GT_GT_EQ},
	{">>", token.GT_GT},
	{">=", token.GE},
	{">", token.GT},
}

// RescanGreater extends a > token into the longest operator starting there.
func (l *Lexer) RescanGreater(tok token.Token) token.Token {
	start := l.file.Offset(tok.Span.Lo)
	rest := l.input[start:]
	for _, g := range greaterTokens {
		if strings.HasPrefix(rest, g.text) {
			l.reset(start + len(g.text))
			out := l.makeToken(g.typ, start)
			out.NewlineBefore = tok.NewlineBefore
			return out
		}
	}
	return tok
}

// ---------- JSX ----------

// ScanJSXChild scans JSX text, or the < or { that ends it, at the current offset.
func (l *Lexer) ScanJSXChild() token.Token {
	start := l.pos
	l.newline = false
	switch {
	case l.pos >= len(l.input):
		return l.makeToken(token.EOF, start)
	case l.ch() == '<':
		l.pos++
		return l.makeToken(token.LT, start)
	case l.ch() == '{':
		l.pos++
		return l.makeToken(token.LBRACE, start)
	}
	for l.pos < len(l.input) && l.ch() != '<' && l.ch() != '{' {
		l.pos++
	}
	tok := l.makeToken(token.JSX_TEXT, start)
	tok.Value = tok.Literal
	return tok
}

// RescanJSXIdentifier extends an identifier or keyword token with the dashes
// JSX allows in tag and attribute names.
func (l *Lexer) RescanJSXIdentifier(tok token.Token) token.Token {
	if tok.Type != token.IDENT && !tok.Type.IsKeyword() {
		return tok
	}
	start := l.file.Offset(tok.Span.Lo)
	l.reset(l.file.Offset(tok.Span.Hi))
	for l.pos < len(l.input) {
		r, size := l.runeAt(l.pos)
		if r != '-' && !isIdentPart(r) {
			break
		}
		l.pos += size
	}
	out := l.makeToken(token.IDENT, start)
	out.Value = out.Literal
	out.NewlineBefore = tok.NewlineBefore
	return out
}

// ScanJSXAttrValue skips trivia and scans an attribute value. Quoted values
// may span lines and have no escapes.
func (l *Lexer) ScanJSXAttrValue() token.Token {
	l.skipTrivia()
	start := l.pos
	l.comments.flushLeading(l.file.Pos(start))
	q := l.ch()
	if q != '"' && q != '\'' {
		return l.NextToken()
	}
	end := strings.IndexByte(l.input[l.pos+1:], q)
	if end < 0 {
		l.errorAt(start, len(l.input), errUnterminatedString)
	}
	l.pos += end + 2
	tok := l.makeToken(token.STRING, start)
	tok.Value = tok.Literal[1 : len(tok.Literal)-1]
	return tok
}

package codegen

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Quote returns s as a double-quoted JavaScript string literal.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\v':
			b.WriteString(`\v`)
		case 0x2028, 0x2029:
			// Line terminators in older engines
			b.WriteString(`\u` + strconv.FormatInt(int64(r), 16))
		case utf8.RuneError:
			// Invalid UTF-8 byte
			if size == 1 {
				b.WriteString(`\ufffd`)
				continue
			}
			b.WriteRune(r)
		default:
			// Other control characters as \xNN
			if r < 0x20 || r == 0x7f {
				b.WriteString(`\x`)
				if r < 0x10 {
					b.WriteByte('0')
				}
				b.WriteString(strconv.FormatInt(int64(r), 16))
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

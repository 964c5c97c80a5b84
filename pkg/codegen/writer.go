package codegen

import (
	"strings"

	"github.com/leapstack-labs/leapmacro/pkg/source"
	"github.com/leapstack-labs/leapmacro/pkg/token"
)

// Mapping links a generated location to the source position it came from.
// GenLine and GenCol are 0-based; GenCol counts UTF-16 code units.
type Mapping struct {
	Src     token.Pos
	GenLine int
	GenCol  int
}

// Writer accumulates generated text and records mappings as it goes.
type Writer struct {
	out         strings.Builder
	indent      string
	depth       int
	atLineStart bool
	line        int
	col         int
	mappings    []Mapping
}

// NewWriter creates a writer that indents with indent per level.
func NewWriter(indent string) *Writer {
	return &Writer{indent: indent, atLineStart: true}
}

// String returns the text written so far.
func (w *Writer) String() string {
	return w.out.String()
}

// Mappings returns the recorded mappings in generation order.
func (w *Writer) Mappings() []Mapping {
	return w.mappings
}

// Line returns the current 0-based line.
func (w *Writer) Line() int { return w.line }

// Write appends s, indenting first when at the start of a line. s may span
// several lines.
func (w *Writer) Write(s string) {
	if s == "" {
		return
	}
	if w.atLineStart && s[0] != '\n' {
		w.writeIndent()
	}
	w.out.WriteString(s)
	w.advance(s)
}

// Writeln ends the current line.
func (w *Writer) Writeln() {
	w.out.WriteByte('\n')
	w.line++
	w.col = 0
	w.atLineStart = true
}

// Space writes a single space.
func (w *Writer) Space() {
	w.Write(" ")
}

// Indent increases the indentation of following lines.
func (w *Writer) Indent() {
	w.depth++
}

// Dedent decreases the indentation of following lines.
func (w *Writer) Dedent() {
	if w.depth > 0 {
		w.depth--
	}
}

// AtLineStart reports whether nothing has been written on the current line.
func (w *Writer) AtLineStart() bool {
	return w.atLineStart
}

// Mark records that the next character written comes from pos. Invalid
// positions and repeated marks at the same generated location are ignored.
func (w *Writer) Mark(pos token.Pos) {
	if !pos.IsValid() {
		return
	}
	if w.atLineStart {
		w.writeIndent()
	}
	if n := len(w.mappings); n > 0 {
		last := w.mappings[n-1]
		if last.GenLine == w.line && last.GenCol == w.col {
			return
		}
	}
	w.mappings = append(w.mappings, Mapping{Src: pos, GenLine: w.line, GenCol: w.col})
}

func (w *Writer) writeIndent() {
	for i := 0; i < w.depth; i++ {
		w.out.WriteString(w.indent)
	}
	w.col += w.depth * len(w.indent)
	w.atLineStart = false
}

// advance moves the generated location past s.
func (w *Writer) advance(s string) {
	for len(s) > 0 {
		i := strings.IndexAny(s, "\n\r")
		if i < 0 {
			w.col += source.UTF16Len(s)
			break
		}
		size := 1
		if strings.HasPrefix(s[i:], "\r\n") {
			size = 2
		}
		w.line++
		w.col = 0
		s = s[i+size:]
	}
	w.atLineStart = false
}

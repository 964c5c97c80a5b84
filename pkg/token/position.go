package token

// Pos is a byte position shared by every source unit registered in one
// source map. Each unit owns a disjoint range, so a Pos alone identifies
// the unit it belongs to.
type Pos int

// NoPos marks nodes that do not originate from any source text.
const NoPos Pos = 0

// IsValid returns true if the position refers to source text.
func (p Pos) IsValid() bool {
	return p > NoPos
}

// Position represents a resolved location in one source unit.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number (bytes)
	Offset int // 0-based byte offset within the unit
}

// IsValid returns true if the position is valid (line > 0).
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Span represents a half-open range [Lo, Hi) of source positions.
type Span struct {
	Lo Pos
	Hi Pos
}

// NoSpan is the span of synthesized nodes.
var NoSpan = Span{}

// NewSpan returns the span between lo and hi.
func NewSpan(lo, hi Pos) Span {
	return Span{Lo: lo, Hi: hi}
}

// Contains returns true if the span contains the given position.
func (s Span) Contains(p Pos) bool {
	return p >= s.Lo && p < s.Hi
}

// IsValid returns true if the span refers to source text.
func (s Span) IsValid() bool {
	return s.Lo.IsValid() && s.Hi >= s.Lo
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return int(s.Hi - s.Lo)
}

// To returns the span from the start of s to the end of other.
func (s Span) To(other Span) Span {
	return Span{Lo: s.Lo, Hi: other.Hi}
}

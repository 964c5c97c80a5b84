package diagnostic

import (
	"github.com/leapstack-labs/leapmacro/pkg/source"
	"github.com/leapstack-labs/leapmacro/pkg/token"
)

// Point is a 0-based line and UTF-16 column, the units editors and source
// maps count in.
type Point struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Location places a diagnostic in a real unit.
type Location struct {
	File  string `json:"file"`
	Start Point  `json:"start"`
	End   Point  `json:"end"`
}

// Locate returns where d applies: its first label in a real unit, or its
// fallback span. It reports false when neither resolves.
func (r *Renderer) Locate(d Diagnostic) (Location, bool) {
	frames := r.frames(d)
	if len(frames) == 0 {
		return Location{}, false
	}
	l := frames[0][0]
	hi := l.Span.Hi
	if hi < l.Span.Lo || !l.file.Contains(hi) {
		hi = l.Span.Lo
	}
	return Location{
		File:  l.file.Name().String(),
		Start: point(l.file, l.Span.Lo),
		End:   point(l.file, hi),
	}, true
}

func point(f *source.File, p token.Pos) Point {
	pos := f.Position(p)
	if !pos.IsValid() {
		return Point{}
	}
	return Point{Line: pos.Line - 1, Column: f.UTF16Column(p)}
}

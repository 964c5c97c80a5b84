// Package source tracks the source units of one transform invocation.
//
// Every unit registered in a Map owns a disjoint range of token.Pos values,
// so a position alone is enough to find the unit, line and column it refers to.
package source

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapmacro/pkg/token"
)

// Kind classifies where a source unit came from.
type Kind int

// Source kinds.
const (
	Real           Kind = iota // file on disk or named user input
	Anon                       // unnamed user input
	MacroExpansion             // text returned by a macro callback
	Internal                   // text synthesized by the pipeline itself
)

var kindNames = map[Kind]string{
	Real:           "real",
	Anon:           "anon",
	MacroExpansion: "macro-expansion",
	Internal:       "internal",
}

// String returns the kind name.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// FileName identifies a source unit.
type FileName struct {
	Kind Kind
	Name string
}

// RealFile returns the name of a user supplied unit.
func RealFile(name string) FileName {
	return FileName{Kind: Real, Name: name}
}

// String renders the name the way it appears in diagnostics and source maps.
func (n FileName) String() string {
	switch n.Kind {
	case Real:
		return n.Name
	case Anon:
		return "<anon>"
	case MacroExpansion:
		return "<macro-expansion>"
	case Internal:
		if n.Name != "" {
			return "<" + n.Name + ">"
		}
		return "<internal>"
	}
	return n.Name
}

// IsSynthetic reports whether the unit has no user-visible text.
// Synthetic units are never rendered as snippets and never appear in source maps.
func (n FileName) IsSynthetic() bool {
	return n.Kind == MacroExpansion || n.Kind == Internal
}

// File is one source unit with its line table.
type File struct {
	name  FileName
	src   string
	base  token.Pos
	lines []int // byte offset of each line start
}

func newFile(name FileName, src string, base token.Pos) *File {
	f := &File{name: name, src: src, base: base, lines: []int{0}}
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '\n':
			f.lines = append(f.lines, i+1)
		case '\r':
			if i+1 < len(src) && src[i+1] == '\n' {
				continue
			}
			f.lines = append(f.lines, i+1)
		}
	}
	return f
}

// Name returns the unit's name.
func (f *File) Name() FileName { return f.name }

// Source returns the unit's text.
func (f *File) Source() string { return f.src }

// Base returns the position of the first byte.
func (f *File) Base() token.Pos { return f.base }

// End returns the position just past the last byte.
func (f *File) End() token.Pos { return f.base + token.Pos(len(f.src)) }

// Size returns the length of the text in bytes.
func (f *File) Size() int { return len(f.src) }

// LineCount returns the number of lines.
func (f *File) LineCount() int { return len(f.lines) }

// Pos converts a byte offset within the unit to a global position.
func (f *File) Pos(offset int) token.Pos {
	return f.base + token.Pos(offset)
}

// Offset converts a global position to a byte offset within the unit.
func (f *File) Offset(p token.Pos) int {
	return int(p - f.base)
}

// Contains reports whether p lies in the unit. The end position is included so
// that EOF spans resolve.
func (f *File) Contains(p token.Pos) bool {
	return p >= f.base && p <= f.End()
}

// Position resolves p to a line and byte column.
func (f *File) Position(p token.Pos) token.Position {
	if !f.Contains(p) {
		return token.Position{}
	}
	off := f.Offset(p)
	line := sort.Search(len(f.lines), func(i int) bool { return f.lines[i] > off }) - 1
	return token.Position{
		Line:   line + 1,
		Column: off - f.lines[line] + 1,
		Offset: off,
	}
}

// Line returns the text of the 1-based line without its terminator.
func (f *File) Line(n int) string {
	if n < 1 || n > len(f.lines) {
		return ""
	}
	start := f.lines[n-1]
	end := len(f.src)
	if n < len(f.lines) {
		end = f.lines[n]
	}
	return strings.TrimRight(f.src[start:end], "\r\n")
}

// LineStart returns the byte offset of the 1-based line.
func (f *File) LineStart(n int) int {
	if n < 1 || n > len(f.lines) {
		return len(f.src)
	}
	return f.lines[n-1]
}

// UTF16Column returns the 0-based UTF-16 column of p, as used by source maps.
func (f *File) UTF16Column(p token.Pos) int {
	pos := f.Position(p)
	if !pos.IsValid() {
		return 0
	}
	return UTF16Len(f.src[f.lines[pos.Line-1]:pos.Offset])
}

// Slice returns the text covered by span, clamped to the unit.
func (f *File) Slice(span token.Span) string {
	lo, hi := f.Offset(span.Lo), f.Offset(span.Hi)
	if lo < 0 {
		lo = 0
	}
	if hi > len(f.src) {
		hi = len(f.src)
	}
	if lo > hi {
		return ""
	}
	return f.src[lo:hi]
}

// UTF16Len returns the number of UTF-16 code units needed to encode s.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// Map owns every source unit of one invocation.
type Map struct {
	mu    sync.RWMutex
	files []*File
	next  token.Pos
}

// NewMap creates an empty source map. The first unit starts at position 1 so
// that token.NoPos never refers to text.
func NewMap() *Map {
	return &Map{next: 1}
}

// AddFile registers a new unit and returns it.
func (m *Map) AddFile(name FileName, src string) *File {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := newFile(name, src, m.next)
	m.files = append(m.files, f)
	// one extra position per unit keeps EOF positions unambiguous
	m.next = f.End() + 1
	return f
}

// Files returns the registered units in registration order.
func (m *Map) Files() []*File {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*File, len(m.files))
	copy(out, m.files)
	return out
}

// FileOf returns the unit containing p, or nil.
func (m *Map) FileOf(p token.Pos) *File {
	if !p.IsValid() {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := sort.Search(len(m.files), func(i int) bool { return m.files[i].End() >= p })
	if i < len(m.files) && m.files[i].Contains(p) {
		return m.files[i]
	}
	return nil
}

// Lookup resolves p to its unit and position.
func (m *Map) Lookup(p token.Pos) (*File, token.Position, bool) {
	f := m.FileOf(p)
	if f == nil {
		return nil, token.Position{}, false
	}
	return f, f.Position(p), true
}

// IsSynthetic reports whether p belongs to a synthetic unit. Positions that
// belong to no unit are treated as synthetic.
func (m *Map) IsSynthetic(p token.Pos) bool {
	f := m.FileOf(p)
	return f == nil || f.Name().IsSynthetic()
}

package ast

import (
	"sort"

	"github.com/leapstack-labs/leapmacro/pkg/token"
)

// Comments stores the comments of a unit keyed by position. Leading comments
// are keyed by the start of the token that follows them, trailing comments by
// the end of the token they follow on the same line.
type Comments struct {
	leading  map[token.Pos][]token.Comment
	trailing map[token.Pos][]token.Comment
}

// NewComments creates an empty store.
func NewComments() *Comments {
	return &Comments{
		leading:  make(map[token.Pos][]token.Comment),
		trailing: make(map[token.Pos][]token.Comment),
	}
}

// AddLeading records a comment before the token starting at pos. A nil
// store discards it.
func (c *Comments) AddLeading(pos token.Pos, cm token.Comment) {
	if c == nil {
		return
	}
	c.leading[pos] = append(c.leading[pos], cm)
}

// AddTrailing records a comment after the token ending at pos.
func (c *Comments) AddTrailing(pos token.Pos, cm token.Comment) {
	if c == nil {
		return
	}
	c.trailing[pos] = append(c.trailing[pos], cm)
}

// Leading returns the comments before pos.
func (c *Comments) Leading(pos token.Pos) []token.Comment {
	if c == nil {
		return nil
	}
	return c.leading[pos]
}

// Trailing returns the comments after pos.
func (c *Comments) Trailing(pos token.Pos) []token.Comment {
	if c == nil {
		return nil
	}
	return c.trailing[pos]
}

// HasLeading reports whether any comment precedes pos.
func (c *Comments) HasLeading(pos token.Pos) bool {
	return c != nil && len(c.leading[pos]) > 0
}

// Len returns the number of stored comments.
func (c *Comments) Len() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, cs := range c.leading {
		n += len(cs)
	}
	for _, cs := range c.trailing {
		n += len(cs)
	}
	return n
}

// All returns every stored comment ordered by position.
func (c *Comments) All() []token.Comment {
	if c == nil {
		return nil
	}
	var out []token.Comment
	for _, cs := range c.leading {
		out = append(out, cs...)
	}
	for _, cs := range c.trailing {
		out = append(out, cs...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Span.Lo < out[j].Span.Lo })
	return out
}

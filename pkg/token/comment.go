package token

// CommentKind tells // comments from /* */ comments.
type CommentKind int

// Comment kinds.
const (
	LineComment  CommentKind = iota // // comment
	BlockComment                    // /* comment */
)

// Comment represents a source comment with position.
type Comment struct {
	Kind CommentKind
	Text string // includes delimiters (// or /* */)
	Span Span
}

// IsLineComment reports whether c runs to the end of its line. The
// printer must break the line after it.
func (c *Comment) IsLineComment() bool { return c.Kind == LineComment }

func (c *Comment) IsBlockComment() bool { return c.Kind == BlockComment }

// IsPure returns true for /*#__PURE__*/ style annotations, which must stay
// attached to the expression that follows them.
func (c *Comment) IsPure() bool {
	return c.Kind == BlockComment && (c.Text == "/*#__PURE__*/" || c.Text == "/*@__PURE__*/")
}

package lsp

import (
	"net/url"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/leapstack-labs/leapmacro/pkg/source"
)

// Document is one version of an open file. A document is never modified;
// edits replace it in the store.
type Document struct {
	URI     string
	Content string
	Version int

	starts []int // byte offset of each line start
}

func newDocument(uri, content string, version int) *Document {
	starts := []int{0}
	for i := range len(content) {
		if content[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Document{URI: uri, Content: content, Version: version, starts: starts}
}

// Documents holds the files the client has open, keyed by URI.
type Documents struct {
	mu   sync.RWMutex
	open map[string]*Document
}

func NewDocuments() *Documents {
	return &Documents{open: make(map[string]*Document)}
}

// Open starts tracking uri, replacing any previous version.
func (s *Documents) Open(uri, content string, version int) {
	s.mu.Lock()
	s.open[uri] = newDocument(uri, content, version)
	s.mu.Unlock()
}

// Update replaces the text of an open document. It ignores documents that
// were never opened.
func (s *Documents) Update(uri, content string, version int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.open[uri]; ok {
		s.open[uri] = newDocument(uri, content, version)
	}
}

func (s *Documents) Close(uri string) {
	s.mu.Lock()
	delete(s.open, uri)
	s.mu.Unlock()
}

// Get returns the current version of uri, or nil.
func (s *Documents) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open[uri]
}

// URIs returns the open documents in sorted order.
func (s *Documents) URIs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uris := make([]string, 0, len(s.open))
	for uri := range s.open {
		uris = append(uris, uri)
	}
	slices.Sort(uris)
	return uris
}

// LineCount returns the number of lines; text after the last newline is a
// line of its own.
func (d *Document) LineCount() int {
	return len(d.starts)
}

// Line returns line n without its terminator.
func (d *Document) Line(n int) string {
	if n < 0 || n >= len(d.starts) {
		return ""
	}
	return d.Content[d.starts[n]:d.lineEnd(n)]
}

// lineEnd is the offset where line n's text stops, before "\n" or "\r\n".
func (d *Document) lineEnd(n int) int {
	end := len(d.Content)
	if n+1 < len(d.starts) {
		end = d.starts[n+1] - 1
	}
	if end > d.starts[n] && d.Content[end-1] == '\r' {
		end--
	}
	return end
}

// Offset converts pos to a byte offset. Characters are UTF-16 code units;
// a character past the end of its line lands on the line end, and a line
// past the end of the document lands on the document end.
func (d *Document) Offset(pos Position) int {
	n := int(pos.Line)
	if n >= len(d.starts) {
		return len(d.Content)
	}

	offset, end := d.starts[n], d.lineEnd(n)
	for units := int(pos.Character); offset < end && units > 0; {
		r, size := utf8.DecodeRuneInString(d.Content[offset:end])
		width := 1
		if r >= 0x10000 {
			width = 2
		}
		if width > units {
			break
		}
		units -= width
		offset += size
	}
	return offset
}

// Position converts a byte offset, clamped to the document, to a position.
func (d *Document) Position(offset int) Position {
	offset = max(0, min(offset, len(d.Content)))
	n := sort.SearchInts(d.starts, offset+1) - 1
	return Position{
		Line:      uint32(n),                                              //nolint:gosec // G115: line index is non-negative
		Character: uint32(source.UTF16Len(d.Content[d.starts[n]:offset])), //nolint:gosec // G115: length is non-negative
	}
}

// WordAt returns the identifier touching pos and its range. The range is
// empty when pos is not next to an identifier.
func (d *Document) WordAt(pos Position) (string, Range) {
	offset := d.Offset(pos)
	start, end := offset, offset
	for start > 0 && isWordChar(d.Content[start-1]) {
		start--
	}
	for end < len(d.Content) && isWordChar(d.Content[end]) {
		end++
	}
	if start == end {
		return "", Range{Start: pos, End: pos}
	}
	return d.Content[start:end], Range{Start: d.Position(start), End: d.Position(end)}
}

// isWordChar reports whether c may appear in an ASCII JavaScript
// identifier.
func isWordChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return c == '_' || c == '$'
}

// URIToPath returns the file path of a file URI. Other strings are
// returned with any file:// prefix removed.
func URIToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return strings.TrimPrefix(uri, "file://")
	}
	return filepath.FromSlash(u.Path)
}

// PathToURI returns the file URI of path, escaping it as needed.
func PathToURI(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

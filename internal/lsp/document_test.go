package lsp

import (
	"slices"
	"testing"
)

func TestDocuments_OpenGetClose(t *testing.T) {
	store := NewDocuments()

	uri := "file:///test/app.js"
	content := "const a = css(\"x\");"

	store.Open(uri, content, 1)

	doc := store.Get(uri)
	if doc == nil {
		t.Fatal("expected document to exist")
	}
	if doc.URI != uri {
		t.Errorf("expected URI %s, got %s", uri, doc.URI)
	}
	if doc.Content != content {
		t.Errorf("expected content %q, got %q", content, doc.Content)
	}
	if doc.Version != 1 {
		t.Errorf("expected version 1, got %d", doc.Version)
	}

	store.Close(uri)
	if store.Get(uri) != nil {
		t.Error("expected document to be nil after close")
	}
}

func TestDocuments_Update(t *testing.T) {
	store := NewDocuments()

	uri := "file:///test/app.js"
	store.Open(uri, "let a = 1", 1)
	before := store.Get(uri)

	store.Update(uri, "let a = 2", 2)

	doc := store.Get(uri)
	if doc.Content != "let a = 2" {
		t.Errorf("expected content 'let a = 2', got %q", doc.Content)
	}
	if doc.Version != 2 {
		t.Errorf("expected version 2, got %d", doc.Version)
	}
	if before.Content != "let a = 1" {
		t.Errorf("earlier snapshot changed to %q", before.Content)
	}

	store.Update("file:///test/closed.js", "x", 1)
	if store.Get("file:///test/closed.js") != nil {
		t.Error("update must not open a document")
	}
}

func TestDocuments_URIs(t *testing.T) {
	store := NewDocuments()

	store.Open("file:///c.js", "c", 1)
	store.Open("file:///a.js", "a", 1)
	store.Open("file:///b.js", "b", 1)

	uris := store.URIs()
	want := []string{"file:///a.js", "file:///b.js", "file:///c.js"}
	if len(uris) != len(want) {
		t.Fatalf("expected %d URIs, got %d", len(want), len(uris))
	}
	for i := range want {
		if uris[i] != want[i] {
			t.Errorf("uris[%d] = %s, want %s", i, uris[i], want[i])
		}
	}
}

func TestDocument_LineStarts(t *testing.T) {
	tests := []struct {
		content string
		want    []int
	}{
		{"", []int{0}},
		{"abc", []int{0}},
		{"a\nb", []int{0, 2}},
		{"a\nb\nc", []int{0, 2, 4}},
		{"\n\n\n", []int{0, 1, 2, 3}},
		{"line1\r\nline2", []int{0, 7}},
	}

	for _, tt := range tests {
		doc := newDocument("file:///x.js", tt.content, 1)
		if !slices.Equal(doc.starts, tt.want) {
			t.Errorf("line starts of %q = %v, want %v", tt.content, doc.starts, tt.want)
		}
		if doc.LineCount() != len(tt.want) {
			t.Errorf("LineCount of %q = %d", tt.content, doc.LineCount())
		}
	}
}

func TestDocument_Positions(t *testing.T) {
	// "é" is two bytes and one UTF-16 unit; "😀" is four bytes and two units.
	doc := newDocument("file:///x.js", "let é = 1;\r\nconst 😀x = 2;\nend", 1)

	tests := []struct {
		pos    Position
		offset int
	}{
		{Position{0, 0}, 0},
		{Position{0, 4}, 4},
		{Position{0, 5}, 6},
		{Position{0, 99}, 11}, // clamped before \r\n
		{Position{1, 6}, 19},
		{Position{1, 7}, 19}, // inside a surrogate pair
		{Position{1, 8}, 23},
		{Position{2, 3}, 33},
		{Position{9, 0}, 33},
	}

	for _, tt := range tests {
		if got := doc.Offset(tt.pos); got != tt.offset {
			t.Errorf("Offset(%v) = %d, want %d", tt.pos, got, tt.offset)
		}
	}

	for _, offset := range []int{0, 4, 6, 19, 23, 28, 33} {
		pos := doc.Position(offset)
		if got := doc.Offset(pos); got != offset {
			t.Errorf("round trip of %d went through %v to %d", offset, pos, got)
		}
	}
}

func TestDocument_Line(t *testing.T) {
	doc := newDocument("file:///x.js", "first\r\nsecond\nthird", 1)

	tests := []struct {
		line int
		want string
	}{
		{0, "first"},
		{1, "second"},
		{2, "third"},
		{3, ""},
		{-1, ""},
	}
	for _, tt := range tests {
		if got := doc.Line(tt.line); got != tt.want {
			t.Errorf("Line(%d) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestDocument_WordAt(t *testing.T) {
	doc := newDocument("file:///x.js", "const $cls = styles.css(\"a\");", 1)

	tests := []struct {
		char      uint32
		wantWord  string
		wantStart uint32
		wantEnd   uint32
	}{
		{0, "const", 0, 5},
		{8, "$cls", 6, 10},
		{15, "styles", 13, 19},
		{20, "css", 20, 23},
		{11, "", 11, 11},
	}

	for _, tt := range tests {
		word, rng := doc.WordAt(Position{Line: 0, Character: tt.char})
		if word != tt.wantWord {
			t.Errorf("WordAt(%d) = %q, want %q", tt.char, word, tt.wantWord)
		}
		if rng.Start.Character != tt.wantStart || rng.End.Character != tt.wantEnd {
			t.Errorf("WordAt(%d) range = %v, want %d-%d", tt.char, rng, tt.wantStart, tt.wantEnd)
		}
	}
}

func TestURIConversion(t *testing.T) {
	tests := []struct {
		path string
		uri  string
	}{
		{"/home/user/project/src/app.js", "file:///home/user/project/src/app.js"},
		{"/tmp/my project/a.ts", "file:///tmp/my%20project/a.ts"},
	}

	for _, tt := range tests {
		if got := PathToURI(tt.path); got != tt.uri {
			t.Errorf("PathToURI(%q) = %q, want %q", tt.path, got, tt.uri)
		}
		if got := URIToPath(tt.uri); got != tt.path {
			t.Errorf("URIToPath(%q) = %q, want %q", tt.uri, got, tt.path)
		}
	}

	if got := PathToURI("file:///already"); got != "file:///already" {
		t.Errorf("PathToURI kept scheme: %q", got)
	}
}

package lsp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmacro/internal/testutil"
)

const brokenSource = `import { broken } from "./styles" with { type: "macro" };
export const y = broken();
`

// lockedBuffer is a bytes.Buffer safe for the server's writer.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) take() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := bytes.Clone(b.buf.Bytes())
	b.buf.Reset()
	return out
}

func frame(t *testing.T, id int, method string, params any) []byte {
	t.Helper()
	msg := map[string]any{"jsonrpc": "2.0", "method": method}
	if id > 0 {
		msg["id"] = id
	}
	if params != nil {
		msg["params"] = params
	}
	body, err := gojson.Marshal(msg)
	require.NoError(t, err)
	return []byte(fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body))
}

func readFrames(t *testing.T, data []byte) []*JSONRPCMessage {
	t.Helper()
	s := &Server{reader: bufio.NewReader(bytes.NewReader(data))}
	var out []*JSONRPCMessage
	for {
		msg, err := s.readMessage()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, msg)
	}
}

func findResponse(t *testing.T, msgs []*JSONRPCMessage, id int) *JSONRPCMessage {
	t.Helper()
	for _, m := range msgs {
		if m.ID != nil && string(*m.ID) == strconv.Itoa(id) {
			return m
		}
	}
	t.Fatalf("no response with id %d", id)
	return nil
}

func notifications(t *testing.T, msgs []*JSONRPCMessage, method string) []*JSONRPCMessage {
	t.Helper()
	var out []*JSONRPCMessage
	for _, m := range msgs {
		if m.ID == nil && m.Method == method {
			out = append(out, m)
		}
	}
	return out
}

func publishedDiagnostics(t *testing.T, msg *JSONRPCMessage) PublishDiagnosticsParams {
	t.Helper()
	var p PublishDiagnosticsParams
	require.NoError(t, gojson.Unmarshal(msg.Params, &p))
	return p
}

func TestServer_Session(t *testing.T) {
	macrosDir := setupMacros(t)
	root := filepath.Dir(macrosDir)
	uri := PathToURI(filepath.Join(root, "src", "broken.js"))

	var in bytes.Buffer
	in.Write(frame(t, 1, "initialize", map[string]any{"processId": 1, "rootUri": PathToURI(root)}))
	in.Write(frame(t, 0, "initialized", map[string]any{}))
	in.Write(frame(t, 0, "textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{"uri": uri, "languageId": "javascript", "version": 1, "text": brokenSource},
	}))
	in.Write(frame(t, 2, "textDocument/hover", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"position":     map[string]any{"line": 1, "character": 18},
	}))
	in.Write(frame(t, 3, "workspace/symbol", map[string]any{"query": ""}))
	in.Write(frame(t, 4, "shutdown", nil))
	in.Write(frame(t, 5, "textDocument/hover", map[string]any{}))
	in.Write(frame(t, 0, "exit", nil))

	out := &lockedBuffer{}
	s := NewServer(&in, out, WithLogger(testutil.NewTestLogger(t)), WithVersion("1.2.3"))
	require.NoError(t, s.Run(context.Background()))

	msgs := readFrames(t, out.take())

	init := findResponse(t, msgs, 1)
	var result InitializeResult
	require.NoError(t, gojson.Unmarshal(init.Result, &result))
	assert.True(t, result.Capabilities.HoverProvider)
	assert.Equal(t, TextDocumentSyncKindFull, result.Capabilities.TextDocumentSync.Change)
	assert.Equal(t, "1.2.3", result.ServerInfo.Version)
	assert.Equal(t, macrosDir, s.macrosDir, "macros dir defaults to <root>/macros")

	assert.Empty(t, notifications(t, msgs, "window/showMessage"))

	published := notifications(t, msgs, "textDocument/publishDiagnostics")
	require.Len(t, published, 1)
	p := publishedDiagnostics(t, published[0])
	assert.Equal(t, uri, p.URI)
	require.Len(t, p.Diagnostics, 1)
	d := p.Diagnostics[0]
	assert.Contains(t, d.Message, "broken macro")
	assert.Equal(t, DiagnosticSeverityError, d.Severity)
	assert.Equal(t, "leapmacro", d.Source)
	assert.Equal(t, Position{Line: 1, Character: 17}, d.Range.Start)

	hover := findResponse(t, msgs, 2)
	assert.Contains(t, string(hover.Result), "def broken()")

	unknown := findResponse(t, msgs, 3)
	require.NotNil(t, unknown.Error)
	assert.Equal(t, codeMethodNotFound, unknown.Error.Code)

	shutdown := findResponse(t, msgs, 4)
	assert.Nil(t, shutdown.Error)

	late := findResponse(t, msgs, 5)
	require.NotNil(t, late.Error)
	assert.Equal(t, codeInvalidRequest, late.Error.Code)

	assert.Nil(t, s.currentHost(), "host is stopped on shutdown")
}

func TestServer_ExitWithoutShutdown(t *testing.T) {
	var in bytes.Buffer
	in.Write(frame(t, 0, "exit", nil))

	s := NewServer(&in, &lockedBuffer{})
	assert.ErrorIs(t, s.Run(context.Background()), ErrExitWithoutShutdown)
}

func TestServer_DisconnectEndsRun(t *testing.T) {
	s := NewServer(strings.NewReader(""), &lockedBuffer{})
	assert.NoError(t, s.Run(context.Background()))
}

func TestServer_MissingMacrosDir(t *testing.T) {
	root := t.TempDir()
	var in bytes.Buffer
	in.Write(frame(t, 1, "initialize", map[string]any{"rootUri": PathToURI(root)}))
	in.Write(frame(t, 0, "initialized", map[string]any{}))

	out := &lockedBuffer{}
	s := NewServer(&in, out, WithMacrosDir("tools/macros"))
	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, filepath.Join(root, "tools", "macros"), s.macrosDir)
	shown := notifications(t, readFrames(t, out.take()), "window/showMessage")
	require.Len(t, shown, 1)
	assert.Contains(t, string(shown[0].Params), "Macros directory")
}

func TestReadMessage_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"missing length", "X-Other: 1\r\n\r\n{}", "missing Content-Length"},
		{"bad length", "Content-Length: abc\r\n\r\n", "invalid Content-Length"},
		{"bad json", "Content-Length: 3\r\n\r\n{x}", "error parsing message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Server{reader: bufio.NewReader(strings.NewReader(tt.input))}
			_, err := s.readMessage()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// handle runs one message through the server and returns its output.
func handle(t *testing.T, s *Server, out *lockedBuffer, id int, method string, params any) []*JSONRPCMessage {
	t.Helper()
	msgs := readFrames(t, frame(t, id, method, params))
	require.Len(t, msgs, 1)
	require.NoError(t, s.handleMessage(msgs[0]))
	return readFrames(t, out.take())
}

func TestServer_DiagnosticsFollowEdits(t *testing.T) {
	macrosDir := setupMacros(t)
	out := &lockedBuffer{}
	s := NewServer(nil, out, WithMacrosDir(macrosDir), WithLogger(testutil.NewTestLogger(t)))
	handle(t, s, out, 1, "initialize", map[string]any{})
	t.Cleanup(s.closeHost)

	uri := "file:///project/src/app.ts"
	open := func(text string) PublishDiagnosticsParams {
		msgs := handle(t, s, out, 0, "textDocument/didOpen", map[string]any{
			"textDocument": map[string]any{"uri": uri, "version": 1, "text": text},
		})
		require.Len(t, msgs, 1)
		return publishedDiagnostics(t, msgs[0])
	}

	t.Run("clean", func(t *testing.T) {
		p := open("import { css } from \"./styles\" with { type: \"macro\" };\nexport const c: string = css(\"abc\");\n")
		assert.Empty(t, p.Diagnostics)
		require.NotNil(t, p.Version)
		assert.Equal(t, 1, *p.Version)
	})

	t.Run("no macro import", func(t *testing.T) {
		p := open("const x = ;")
		assert.Empty(t, p.Diagnostics, "files without macro imports are not checked")
	})

	t.Run("syntax error", func(t *testing.T) {
		p := open("import { css } from \"./styles\" with { type: \"macro\" };\nconst x = ;\n")
		require.Len(t, p.Diagnostics, 1)
		assert.Contains(t, p.Diagnostics[0].Message, "Expression expected")
		assert.Equal(t, Position{Line: 1, Character: 10}, p.Diagnostics[0].Range.Start)
	})

	t.Run("batched errors", func(t *testing.T) {
		p := open("import { css, nope } from \"./styles\" with { type: \"macro\" };\n" +
			"const a = css(unknown);\nconst b = nope();\n")
		require.Len(t, p.Diagnostics, 2)
		assert.Equal(t, uint32(1), p.Diagnostics[0].Range.Start.Line)
		assert.Equal(t, uint32(2), p.Diagnostics[1].Range.Start.Line)
		assert.Contains(t, p.Diagnostics[1].Message, "does not export")
	})

	t.Run("change", func(t *testing.T) {
		msgs := handle(t, s, out, 0, "textDocument/didChange", map[string]any{
			"textDocument":   map[string]any{"uri": uri, "version": 2},
			"contentChanges": []any{map[string]any{"text": brokenSource}},
		})
		require.Len(t, msgs, 1)
		p := publishedDiagnostics(t, msgs[0])
		assert.Equal(t, 2, *p.Version)
		require.Len(t, p.Diagnostics, 1)
		assert.Contains(t, p.Diagnostics[0].Message, "broken macro")
	})

	t.Run("close clears", func(t *testing.T) {
		msgs := handle(t, s, out, 0, "textDocument/didClose", map[string]any{
			"textDocument": map[string]any{"uri": uri},
		})
		require.Len(t, msgs, 1)
		assert.Empty(t, publishedDiagnostics(t, msgs[0]).Diagnostics)
		assert.Nil(t, s.documents.Get(uri))
	})
}

func TestServer_ReloadOnMacroSave(t *testing.T) {
	macrosDir := setupMacros(t)
	out := &lockedBuffer{}
	s := NewServer(nil, out, WithMacrosDir(macrosDir))
	handle(t, s, out, 1, "initialize", map[string]any{})
	t.Cleanup(s.closeHost)

	uri := "file:///project/src/broken.js"
	msgs := handle(t, s, out, 0, "textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{"uri": uri, "version": 1, "text": brokenSource},
	})
	require.Len(t, publishedDiagnostics(t, msgs[0]).Diagnostics, 1)

	iconsURI := "file:///project/src/icons.js"
	handle(t, s, out, 0, "textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{"uri": iconsURI, "version": 1,
			"text": "import { icon } from \"./ui/icons\" with { type: \"macro\" };\nicon(\"x\");\n"},
	})

	stylesPath := filepath.Join(macrosDir, "styles.star")
	fixed := strings.Replace(stylesStar, `fail("broken macro")`, `return "fixed"`, 1)
	require.NoError(t, os.WriteFile(stylesPath, []byte(fixed), 0o600))

	// Saving a source file does not reload macros.
	msgs = handle(t, s, out, 0, "textDocument/didSave", map[string]any{
		"textDocument": map[string]any{"uri": uri},
	})
	assert.Empty(t, msgs)

	msgs = handle(t, s, out, 0, "textDocument/didSave", map[string]any{
		"textDocument": map[string]any{"uri": PathToURI(stylesPath)},
	})
	require.Len(t, msgs, 1, "only documents importing the saved module are re-checked")
	p := publishedDiagnostics(t, msgs[0])
	assert.Equal(t, uri, p.URI)
	assert.Empty(t, p.Diagnostics)
}

func TestIsUnder(t *testing.T) {
	assert.True(t, isUnder("/p/macros", "/p/macros/a.star"))
	assert.True(t, isUnder("/p/macros", "/p/macros/ui/b.star"))
	assert.False(t, isUnder("/p/macros", "/p/src/a.star"))
	assert.False(t, isUnder("", "/p/macros/a.star"))
}

package lsp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	gojson "github.com/goccy/go-json"

	"github.com/leapstack-labs/leapmacro/internal/macro"
	"github.com/leapstack-labs/leapmacro/pkg/dialect"
)

// JSON-RPC error codes.
const (
	codeInvalidParams  = -32602
	codeMethodNotFound = -32601
	codeInvalidRequest = -32600
)

// ErrExitWithoutShutdown is returned by Run when the client sends exit
// before shutdown.
var ErrExitWithoutShutdown = errors.New("lsp: exit without shutdown")

// errExit stops the message loop.
var errExit = errors.New("exit")

// Server implements the Language Server Protocol for macro imports.
type Server struct {
	documents *Documents

	// Project context
	projectRoot string
	macrosDir   string
	dialect     *dialect.Dialect // for files whose extension names no dialect
	version     string
	initialized bool

	index *macroIndex

	hostMu   sync.Mutex
	host     *macro.Host
	stopHost func()

	ctx context.Context

	// I/O
	reader  *bufio.Reader
	writer  io.Writer
	writeMu sync.Mutex

	logger *slog.Logger

	// Shutdown state
	shutdown   bool
	shutdownMu sync.RWMutex
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. Logs must not go to the writer the
// protocol uses.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMacrosDir sets the macros directory. A relative directory is
// resolved against the workspace root. It defaults to "macros".
func WithMacrosDir(dir string) Option {
	return func(s *Server) { s.macrosDir = dir }
}

// WithDialect sets the dialect for documents whose extension names none.
func WithDialect(d *dialect.Dialect) Option {
	return func(s *Server) {
		if d != nil {
			s.dialect = d
		}
	}
}

// WithVersion sets the version reported to the client.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer creates a server reading requests from reader and writing
// responses to writer.
func NewServer(reader io.Reader, writer io.Writer, opts ...Option) *Server {
	s := &Server{
		documents: NewDocuments(),
		dialect:   dialect.Default(),
		ctx:       context.Background(),
		reader:    bufio.NewReader(reader),
		writer:    writer,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes JSON-RPC messages until the client exits or disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.ctx = ctx
	defer s.closeHost()
	s.logger.Info("leapmacro language server starting")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := s.readMessage()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				s.logger.Info("client disconnected")
				return nil
			}
			s.logger.Error("error reading message", "error", err)
			continue
		}

		if err := s.handleMessage(msg); err != nil {
			if errors.Is(err, errExit) {
				if s.isShutdown() {
					return nil
				}
				return ErrExitWithoutShutdown
			}
			s.logger.Error("error handling message", "method", msg.Method, "error", err)
		}
	}
}

// JSONRPCMessage represents a JSON-RPC 2.0 message.
type JSONRPCMessage struct {
	JSONRPC string             `json:"jsonrpc"`
	ID      *gojson.RawMessage `json:"id,omitempty"`
	Method  string             `json:"method,omitempty"`
	Params  gojson.RawMessage  `json:"params,omitempty"`
	Result  gojson.RawMessage  `json:"result,omitempty"`
	Error   *JSONRPCError      `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC error.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// readMessage reads one Content-Length framed message.
func (s *Server) readMessage() (*JSONRPCMessage, error) {
	contentLength := -1
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			break
		}

		name, value, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			contentLength, err = strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %w", err)
			}
		}
	}

	if contentLength <= 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(s.reader, body); err != nil {
		return nil, fmt.Errorf("error reading body: %w", err)
	}

	var msg JSONRPCMessage
	if err := gojson.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("error parsing message: %w", err)
	}
	return &msg, nil
}

// sendResponse sends a JSON-RPC response.
func (s *Server) sendResponse(id *gojson.RawMessage, result any, rpcErr *JSONRPCError) {
	msg := JSONRPCMessage{JSONRPC: "2.0", ID: id}
	if rpcErr != nil {
		msg.Error = rpcErr
	} else {
		data, err := gojson.Marshal(result)
		if err != nil {
			s.logger.Error("error marshaling result", "error", err)
			data = []byte("null")
		}
		msg.Result = data
	}
	s.writeMessage(&msg)
}

// sendNotification sends a JSON-RPC notification.
func (s *Server) sendNotification(method string, params any) {
	msg := JSONRPCMessage{JSONRPC: "2.0", Method: method}
	if params != nil {
		data, err := gojson.Marshal(params)
		if err != nil {
			s.logger.Error("error marshaling params", "method", method, "error", err)
			return
		}
		msg.Params = data
	}
	s.writeMessage(&msg)
}

// writeMessage writes a Content-Length framed message.
func (s *Server) writeMessage(msg *JSONRPCMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	body, err := gojson.Marshal(msg)
	if err != nil {
		s.logger.Error("error marshaling message", "error", err)
		return
	}

	_, _ = fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n", len(body))
	_, _ = s.writer.Write(body)
}

func (s *Server) invalidParams(msg *JSONRPCMessage, err error) error {
	if msg.ID != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: codeInvalidParams, Message: err.Error()})
	}
	return err
}

// handleMessage dispatches a message to its handler.
func (s *Server) handleMessage(msg *JSONRPCMessage) error {
	s.logger.Debug("received", "method", msg.Method)

	if s.isShutdown() && msg.Method != "exit" {
		if msg.ID != nil {
			s.sendResponse(msg.ID, nil, &JSONRPCError{Code: codeInvalidRequest, Message: "server is shut down"})
		}
		return nil
	}

	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return s.handleInitialized(msg)
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		return errExit
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/completion":
		return s.handleCompletion(msg)
	case "textDocument/hover":
		return s.handleHover(msg)
	case "textDocument/definition":
		return s.handleDefinition(msg)
	default:
		if msg.ID != nil {
			s.sendResponse(msg.ID, nil, &JSONRPCError{
				Code:    codeMethodNotFound,
				Message: "Method not found: " + msg.Method,
			})
		}
		return nil
	}
}

// --- Lifecycle handlers ---

func (s *Server) handleInitialize(msg *JSONRPCMessage) error {
	var params InitializeParams
	if err := gojson.Unmarshal(msg.Params, &params); err != nil {
		return s.invalidParams(msg, err)
	}

	if params.RootURI != "" {
		s.projectRoot = URIToPath(params.RootURI)
	}
	switch {
	case s.macrosDir == "":
		s.macrosDir = filepath.Join(s.projectRoot, "macros")
	case !filepath.IsAbs(s.macrosDir) && s.projectRoot != "":
		s.macrosDir = filepath.Join(s.projectRoot, s.macrosDir)
	}
	s.logger.Info("workspace", "root", s.projectRoot, "macros_dir", s.macrosDir)

	s.index = newMacroIndex(s.macrosDir)
	s.restartHost()

	s.sendResponse(msg.ID, InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: &TextDocumentSyncOptions{
				OpenClose: true,
				Change:    TextDocumentSyncKindFull,
				Save:      &SaveOptions{},
			},
			CompletionProvider: &CompletionOptions{
				TriggerCharacters: []string{"{", ",", ".", "\"", "'", "/"},
			},
			HoverProvider:      true,
			DefinitionProvider: true,
		},
		ServerInfo: &ServerInfo{Name: "leapmacro", Version: s.version},
	}, nil)
	return nil
}

func (s *Server) handleInitialized(_ *JSONRPCMessage) error {
	s.initialized = true
	s.logger.Info("server initialized")

	if info, err := os.Stat(s.macrosDir); err != nil || !info.IsDir() {
		s.sendNotification("window/showMessage", &ShowMessageParams{
			Type:    MessageTypeWarning,
			Message: fmt.Sprintf("Macros directory %s not found. Macro imports will fail to load.", s.macrosDir),
		})
	}
	return nil
}

func (s *Server) handleShutdown(msg *JSONRPCMessage) error {
	s.shutdownMu.Lock()
	s.shutdown = true
	s.shutdownMu.Unlock()

	s.closeHost()
	s.sendResponse(msg.ID, nil, nil)
	s.logger.Info("server shutdown")
	return nil
}

func (s *Server) isShutdown() bool {
	s.shutdownMu.RLock()
	defer s.shutdownMu.RUnlock()
	return s.shutdown
}

// --- Document handlers ---

func (s *Server) handleDidOpen(msg *JSONRPCMessage) error {
	var params DidOpenTextDocumentParams
	if err := gojson.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	doc := params.TextDocument
	s.documents.Open(doc.URI, doc.Text, doc.Version)
	s.logger.Debug("opened", "uri", doc.URI)
	s.publishDiagnostics(doc.URI)
	return nil
}

func (s *Server) handleDidClose(msg *JSONRPCMessage) error {
	var params DidCloseTextDocumentParams
	if err := gojson.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	s.documents.Close(params.TextDocument.URI)
	s.logger.Debug("closed", "uri", params.TextDocument.URI)
	s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []Diagnostic{},
	})
	return nil
}

func (s *Server) handleDidChange(msg *JSONRPCMessage) error {
	var params DidChangeTextDocumentParams
	if err := gojson.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	// Full sync: the last change holds the whole document.
	if n := len(params.ContentChanges); n > 0 {
		s.documents.Update(params.TextDocument.URI, params.ContentChanges[n-1].Text, params.TextDocument.Version)
	}
	s.publishDiagnostics(params.TextDocument.URI)
	return nil
}

func (s *Server) handleDidSave(msg *JSONRPCMessage) error {
	var params DidSaveTextDocumentParams
	if err := gojson.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	path := URIToPath(params.TextDocument.URI)
	if filepath.Ext(path) == ".star" && isUnder(s.macrosDir, path) {
		s.logger.Info("macro module saved", "path", path)
		s.reloadMacros(path)
	}
	return nil
}

// reloadMacros restarts the macro host after the module at path changed
// and re-checks the open documents that import it or a module loading it.
func (s *Server) reloadMacros(path string) {
	if s.index == nil {
		return
	}
	affected := s.index.affected(path)
	s.index.forget(affected...)
	s.restartHost()
	s.logger.Debug("macro modules changed", "modules", affected)

	for _, uri := range s.documents.URIs() {
		if doc := s.documents.Get(uri); doc != nil && s.index.imports(doc.Content, affected) {
			s.publishDiagnostics(uri)
		}
	}
}

// --- Feature handlers ---

func (s *Server) handleCompletion(msg *JSONRPCMessage) error {
	var params CompletionParams
	if err := gojson.Unmarshal(msg.Params, &params); err != nil {
		return s.invalidParams(msg, err)
	}

	items := s.getCompletions(params)
	if items == nil {
		items = []CompletionItem{}
	}
	s.sendResponse(msg.ID, &CompletionList{Items: items}, nil)
	return nil
}

func (s *Server) handleHover(msg *JSONRPCMessage) error {
	var params HoverParams
	if err := gojson.Unmarshal(msg.Params, &params); err != nil {
		return s.invalidParams(msg, err)
	}

	s.sendResponse(msg.ID, s.getHover(params), nil)
	return nil
}

func (s *Server) handleDefinition(msg *JSONRPCMessage) error {
	var params DefinitionParams
	if err := gojson.Unmarshal(msg.Params, &params); err != nil {
		return s.invalidParams(msg, err)
	}

	s.sendResponse(msg.ID, s.getDefinition(params), nil)
	return nil
}

// --- Macro host ---

// restartHost replaces the macro host with a fresh one, so modules are
// loaded again on next use.
func (s *Server) restartHost() {
	s.closeHost()

	h := macro.NewHost(s.macrosDir, macro.WithLogger(s.logger))
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := h.Run(context.WithoutCancel(s.ctx)); err != nil {
			s.logger.Warn("macro host stopped", "error", err)
		}
	}()

	s.hostMu.Lock()
	s.host = h
	s.stopHost = func() {
		h.Close()
		<-done
	}
	s.hostMu.Unlock()
}

func (s *Server) closeHost() {
	s.hostMu.Lock()
	stop := s.stopHost
	s.host, s.stopHost = nil, nil
	s.hostMu.Unlock()

	if stop != nil {
		stop()
	}
}

func (s *Server) currentHost() *macro.Host {
	s.hostMu.Lock()
	defer s.hostMu.Unlock()
	return s.host
}

// isUnder reports whether path lies below dir.
func isUnder(dir, path string) bool {
	if dir == "" {
		return false
	}
	rel, err := filepath.Rel(dir, path)
	return err == nil && filepath.IsLocal(rel)
}

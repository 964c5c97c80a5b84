package diagnostic

import (
	"bytes"
	"sync"
)

// LockedWriter is a buffer safe for concurrent writes.
type LockedWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write appends p.
func (w *LockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

// Len returns the number of buffered bytes.
func (w *LockedWriter) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Len()
}

// String returns the buffered text.
func (w *LockedWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

// Handler renders diagnostics into one report.
type Handler struct {
	renderer *Renderer
	out      LockedWriter

	mu     sync.Mutex
	counts map[Severity]int
}

// NewHandler creates a handler that renders with r.
func NewHandler(r *Renderer) *Handler {
	return &Handler{renderer: r, counts: make(map[Severity]int)}
}

// Emit renders d and appends it to the report. Reports are separated by a
// blank line.
func (h *Handler) Emit(d Diagnostic) {
	text := h.renderer.Render(d)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.out.Len() > 0 {
		_, _ = h.out.Write([]byte("\n"))
	}
	_, _ = h.out.Write([]byte(text))
	h.counts[d.Severity]++
}

// Count returns the number of emitted diagnostics with severity s.
func (h *Handler) Count(s Severity) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts[s]
}

// HasErrors reports whether an error was emitted.
func (h *Handler) HasErrors() bool {
	return h.Count(SeverityError) > 0
}

// Report returns the rendered text of everything emitted so far.
func (h *Handler) Report() string {
	return h.out.String()
}

package lsp

import (
	"errors"
	"path/filepath"
	"unicode/utf8"

	starctx "github.com/leapstack-labs/leapmacro/internal/starlark"
	"github.com/leapstack-labs/leapmacro/pkg/dialect"
	"github.com/leapstack-labs/leapmacro/pkg/transform"
)

const diagnosticSource = "leapmacro"

// publishDiagnostics transforms the document and publishes its problems.
// Documents without a macro import are cleared without being transformed.
func (s *Server) publishDiagnostics(uri string) {
	doc := s.documents.Get(uri)
	if doc == nil {
		return
	}

	diagnostics := s.diagnose(doc)
	if diagnostics == nil {
		diagnostics = []Diagnostic{}
	}
	version := doc.Version
	s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         uri,
		Version:     &version,
		Diagnostics: diagnostics,
	})
}

// diagnose runs the transform over doc and converts its failure.
func (s *Server) diagnose(doc *Document) []Diagnostic {
	path := URIToPath(doc.URI)
	d, ok := dialect.FromFilename(path)
	if !ok {
		d = s.dialect
	}
	if !transform.HasMacroImport(doc.Content) {
		return nil
	}

	host := s.currentHost()
	if host == nil {
		return nil
	}

	// Assets are collected and dropped; only failures matter here.
	ctx := starctx.WithAssetSink(s.ctx, starctx.NewAssetSink())
	_, err := transform.Transform(ctx, d, doc.Content, host,
		transform.WithFilename(filepath.Base(path)),
		transform.WithLogger(s.logger))
	if err == nil {
		return nil
	}

	var terr *transform.Error
	if !errors.As(err, &terr) || len(terr.Problems) == 0 {
		return []Diagnostic{{
			Severity: DiagnosticSeverityError,
			Source:   diagnosticSource,
			Message:  err.Error(),
		}}
	}
	return problemsToDiagnostics(doc, terr.Problems)
}

// problemsToDiagnostics converts transform problems. Problems that could
// not be placed are reported at the start of the document.
func problemsToDiagnostics(doc *Document, problems []transform.Problem) []Diagnostic {
	out := make([]Diagnostic, 0, len(problems))
	for _, p := range problems {
		var r Range
		if p.Location != nil {
			r = Range{
				Start: Position{Line: uint32(p.Location.Start.Line), Character: uint32(p.Location.Start.Column)}, //nolint:gosec // G115: locations are non-negative
				End:   Position{Line: uint32(p.Location.End.Line), Character: uint32(p.Location.End.Column)},     //nolint:gosec // G115: locations are non-negative
			}
		}
		if r.Start == r.End {
			r.End = widen(doc, r.Start)
		}
		out = append(out, Diagnostic{
			Range:    r,
			Severity: DiagnosticSeverityError,
			Source:   diagnosticSource,
			Message:  p.Message,
		})
	}
	return out
}

// widen returns the end of a one character range at pos, so empty ranges
// stay visible in editors.
func widen(doc *Document, pos Position) Position {
	if int(pos.Line) >= doc.LineCount() {
		return pos
	}
	offset := doc.Offset(pos)
	if offset >= doc.lineEnd(int(pos.Line)) {
		return pos
	}
	_, size := utf8.DecodeRuneInString(doc.Content[offset:])
	return doc.Position(offset + size)
}

// Package diagnostic renders source-located error reports.
//
// A Diagnostic carries a message and the spans it refers to. The Renderer
// resolves spans through a source.Map and prints a framed snippet of the
// surrounding lines:
//
//	  × Expression expected
//	   ╭─[input.js:1:11]
//	 1 │ const x = ;
//	   ·           ─
//	   ╰────
//
// Spans inside synthetic units never produce a snippet; the renderer uses
// the diagnostic's fallback span instead.
package diagnostic

import (
	"fmt"

	"github.com/leapstack-labs/leapmacro/pkg/macro"
	"github.com/leapstack-labs/leapmacro/pkg/parser"
	"github.com/leapstack-labs/leapmacro/pkg/token"
)

// Severity indicates the importance of a diagnostic.
type Severity int

// Severity levels.
const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityAdvice
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityAdvice:
		return "advice"
	default:
		return "unknown"
	}
}

func (s Severity) glyph() string {
	switch s {
	case SeverityWarning:
		return "⚠"
	case SeverityAdvice:
		return "☞"
	default:
		return "×"
	}
}

// Label marks a span with optional text printed under it.
type Label struct {
	Span token.Span
	Text string
}

// Diagnostic is one report.
type Diagnostic struct {
	Severity Severity
	Message  string
	Labels   []Label
	// Fallback is shown when no label can be rendered, typically the
	// call site that produced a synthetic unit.
	Fallback token.Span
}

// Errorf returns an error diagnostic labelling span.
func Errorf(span token.Span, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
		Labels:   []Label{{Span: span}},
	}
}

// FromParseError converts a syntax error.
func FromParseError(err *parser.Error) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Message:  err.Message,
		Labels:   []Label{{Span: err.Span}},
	}
}

// FromMacroError converts a macro expansion failure.
func FromMacroError(err macro.Error) Diagnostic {
	switch e := err.(type) {
	case *macro.EvaluationError:
		return Diagnostic{
			Severity: SeverityError,
			Message:  e.Error(),
			Labels:   []Label{{Span: e.At}},
		}
	case *macro.LoadError:
		return Diagnostic{
			Severity: SeverityError,
			Message:  e.Error(),
			Labels:   []Label{{Span: e.At}},
		}
	case *macro.ExecutionError:
		return Diagnostic{
			Severity: SeverityError,
			Message:  e.Error(),
			Labels:   []Label{{Span: e.At}},
		}
	case *macro.ReferenceError:
		return Diagnostic{
			Severity: SeverityError,
			Message:  e.Error(),
			Labels:   []Label{{Span: e.At}},
		}
	case *macro.ParseError:
		d := FromParseError(e.Err)
		d.Fallback = e.CallSpan
		return d
	default:
		panic(fmt.Sprintf("diagnostic: unhandled macro error %T", err))
	}
}

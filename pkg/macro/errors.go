package macro

import (
	"fmt"

	"github.com/leapstack-labs/leapmacro/pkg/parser"
	"github.com/leapstack-labs/leapmacro/pkg/token"
)

// Diagnostic messages for macro failures.
const (
	MsgEvaluation = "Could not statically evaluate macro argument"
	MsgLoad       = "Error loading macro: %s"
	MsgExecution  = "Error evaluating macro: %s"
	MsgReference  = "Macro %s can only be called"
)

// Error is a failure recorded while expanding one macro site. The set of
// implementations is closed: *EvaluationError, *LoadError, *ExecutionError,
// *ParseError and *ReferenceError.
type Error interface {
	error
	// Span locates the failure in the input.
	Span() token.Span
	macroError()
}

// EvaluationError reports an argument that could not be reduced to a value.
type EvaluationError struct {
	At token.Span
}

func (e *EvaluationError) Error() string    { return MsgEvaluation }
func (e *EvaluationError) Span() token.Span { return e.At }

// LoadError reports that the host could not load the macro.
type LoadError struct {
	Message string
	At      token.Span
}

func (e *LoadError) Error() string    { return fmt.Sprintf(MsgLoad, e.Message) }
func (e *LoadError) Span() token.Span { return e.At }

// ExecutionError reports that the macro failed while running.
type ExecutionError struct {
	Message string
	At      token.Span
}

func (e *ExecutionError) Error() string    { return fmt.Sprintf(MsgExecution, e.Message) }
func (e *ExecutionError) Span() token.Span { return e.At }

// ParseError reports replacement text that is not a valid expression. Err
// points into the macro expansion unit, CallSpan at the call in the input.
type ParseError struct {
	Err      *parser.Error
	CallSpan token.Span
}

func (e *ParseError) Error() string    { return e.Err.Message }
func (e *ParseError) Span() token.Span { return e.Err.Span }
func (e *ParseError) Unwrap() error    { return e.Err }

// ReferenceError reports a macro binding used other than as a callee. The
// import is removed from the output, so the reference would dangle.
type ReferenceError struct {
	Name string
	At   token.Span
}

func (e *ReferenceError) Error() string    { return fmt.Sprintf(MsgReference, e.Name) }
func (e *ReferenceError) Span() token.Span { return e.At }

func (*EvaluationError) macroError() {}
func (*LoadError) macroError()       {}
func (*ExecutionError) macroError()  {}
func (*ParseError) macroError()      {}
func (*ReferenceError) macroError()  {}

// FailureKind classifies a callback failure.
type FailureKind int

// Callback failure kinds.
const (
	FailureExecution FailureKind = iota
	FailureLoad
)

func (k FailureKind) String() string {
	if k == FailureLoad {
		return "load"
	}
	return "execution"
}

// Failure is the structured error a Callback returns. Any other error from a
// callback counts as an execution failure.
type Failure struct {
	Kind    FailureKind
	Message string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("macro %s failure: %s", f.Kind, f.Message)
}

// LoadFailure returns a FailureLoad with a formatted message.
func LoadFailure(format string, args ...any) *Failure {
	return &Failure{Kind: FailureLoad, Message: fmt.Sprintf(format, args...)}
}

// ExecutionFailure returns a FailureExecution with a formatted message.
func ExecutionFailure(format string, args ...any) *Failure {
	return &Failure{Kind: FailureExecution, Message: fmt.Sprintf(format, args...)}
}

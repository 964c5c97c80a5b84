package macro

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapmacro/pkg/token"
)

// Identity names a macro by the module it is imported from and its export.
type Identity struct {
	Source string
	Export string // "default" for default imports
}

func (id Identity) String() string {
	return fmt.Sprintf("%s#%s", id.Source, id.Export)
}

// Location is the position of a call site. Line is 1-based, Col is a 0-based
// UTF-16 column.
type Location struct {
	File string
	Line int
	Col  int
}

// Request describes one macro invocation.
type Request struct {
	Macro Identity
	Args  []Value
	Span  token.Span
	Loc   Location
}

// Callback runs macros on behalf of the expansion pass. It returns the
// replacement expression as JavaScript source. A *Failure error selects the
// failure kind; any other error is an execution failure.
type Callback interface {
	Call(ctx context.Context, req *Request) (string, error)
}

// CallbackFunc adapts a function to Callback.
type CallbackFunc func(ctx context.Context, req *Request) (string, error)

// Call calls f.
func (f CallbackFunc) Call(ctx context.Context, req *Request) (string, error) {
	return f(ctx, req)
}

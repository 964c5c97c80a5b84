package starlark

import (
	"context"
	"log/slog"

	"go.starlark.net/starlark"

	"github.com/leapstack-labs/leapmacro/pkg/macro"
)

// ServeFunc answers one macro request on the owner goroutine.
type ServeFunc func(ctx context.Context, thread *starlark.Thread, req *macro.Request) (string, error)

// Owner binds one Starlark thread to the goroutine that serves a
// macro.Handle. Transforms on any goroutine call through Callback; the
// thread is only ever touched by the goroutine running Serve.
type Owner struct {
	handle *macro.Handle
	thread *starlark.Thread
	logger *slog.Logger
}

// OwnerOption configures an Owner.
type OwnerOption func(*Owner)

// WithLogger receives print() output from macro code at debug level.
func WithLogger(logger *slog.Logger) OwnerOption {
	return func(o *Owner) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithThreadName names the thread in Starlark backtraces.
func WithThreadName(name string) OwnerOption {
	return func(o *Owner) {
		o.thread.Name = name
	}
}

// WithLoad sets the handler for load() statements in macro modules.
func WithLoad(load func(thread *starlark.Thread, module string) (starlark.StringDict, error)) OwnerOption {
	return func(o *Owner) {
		o.thread.Load = load
	}
}

// NewOwner creates an owner with an open handle.
func NewOwner(opts ...OwnerOption) *Owner {
	o := &Owner{
		handle: macro.NewHandle(),
		thread: &starlark.Thread{Name: "macro"},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.thread.Print = func(thread *starlark.Thread, msg string) {
		o.logger.Debug("macro print", "thread", thread.Name, "msg", msg)
	}
	return o
}

// Callback returns the callback that forwards requests to Serve.
func (o *Owner) Callback() macro.Callback {
	return o.handle
}

// Thread returns the bound thread. Only the Serve goroutine may use it.
func (o *Owner) Thread() *starlark.Thread {
	return o.thread
}

// Serve answers requests with fn until ctx is done or Close is called.
func (o *Owner) Serve(ctx context.Context, fn ServeFunc) error {
	return o.handle.Serve(ctx, macro.CallbackFunc(func(ctx context.Context, req *macro.Request) (string, error) {
		return fn(ctx, o.thread, req)
	}))
}

// Close stops Serve and fails blocked callers.
func (o *Owner) Close() {
	o.handle.Close()
}

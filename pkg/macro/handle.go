package macro

import (
	"context"
	"errors"
	"sync"
)

// ErrHandleClosed is returned by Handle.Call after Close.
var ErrHandleClosed = errors.New("macro handle closed")

// Handle forwards calls from any goroutine to a callback that must run on a
// single owner goroutine, such as an interpreter bound to one thread.
//
// Call enqueues a request and blocks until Serve has answered it. Serve runs
// on the owner goroutine and answers requests one at a time. Close releases
// every blocked and future caller. A callback must not call back into the
// same Handle while it is being served.
type Handle struct {
	requests chan *pending
	done     chan struct{}
	once     sync.Once
}

type pending struct {
	ctx   context.Context
	req   *Request
	reply chan reply
}

type reply struct {
	text string
	err  error
}

// NewHandle creates an open handle.
func NewHandle() *Handle {
	return &Handle{
		requests: make(chan *pending),
		done:     make(chan struct{}),
	}
}

// Call implements Callback.
func (h *Handle) Call(ctx context.Context, req *Request) (string, error) {
	p := &pending{ctx: ctx, req: req, reply: make(chan reply, 1)}
	select {
	case h.requests <- p:
	case <-h.done:
		return "", ErrHandleClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case r := <-p.reply:
		return r.text, r.err
	case <-h.done:
		return "", ErrHandleClosed
	}
}

// Serve answers requests with cb until ctx is cancelled or the handle is
// closed. It returns nil after Close. A cancelled ctx closes the handle, so
// no caller waits on a handle that nothing serves.
func (h *Handle) Serve(ctx context.Context, cb Callback) error {
	for {
		select {
		case p := <-h.requests:
			text, err := cb.Call(p.ctx, p.req)
			p.reply <- reply{text: text, err: err}
		case <-h.done:
			return nil
		case <-ctx.Done():
			h.Close()
			return ctx.Err()
		}
	}
}

// Close stops Serve and fails pending and future calls. It is safe to call
// more than once.
func (h *Handle) Close() {
	h.once.Do(func() { close(h.done) })
}

package transform

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/leapstack-labs/leapmacro/pkg/dialect"
	"github.com/leapstack-labs/leapmacro/pkg/macro"
)

// Pool runs invocations on a bounded number of workers.
type Pool struct {
	sem      *semaphore.Weighted
	workers  int
	defaults []Option
	wg       sync.WaitGroup
}

// NewPool creates a pool with the given number of workers. workers <= 0
// uses GOMAXPROCS. defaults apply to every submission before its own
// options.
func NewPool(workers int, defaults ...Option) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		sem:      semaphore.NewWeighted(int64(workers)),
		workers:  workers,
		defaults: defaults,
	}
}

// Workers returns the pool size.
func (p *Pool) Workers() int {
	return p.workers
}

// Submit queues an invocation and returns immediately. If ctx is done before
// a worker is free the future fails with ctx's error. Once an invocation has
// started it runs to completion.
func (p *Pool) Submit(ctx context.Context, d *dialect.Dialect, code string, cb macro.Callback, opts ...Option) *Future {
	f := newFuture()
	all := make([]Option, 0, len(p.defaults)+len(opts))
	all = append(all, p.defaults...)
	all = append(all, opts...)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := ctx.Err(); err != nil {
			f.resolve(nil, err)
			return
		}
		if err := p.sem.Acquire(ctx, 1); err != nil {
			f.resolve(nil, err)
			return
		}
		defer p.sem.Release(1)
		f.resolve(Transform(context.WithoutCancel(ctx), d, code, cb, all...))
	}()
	return f
}

// Wait blocks until every submitted invocation has resolved.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Future is the pending result of a submitted invocation. It resolves
// exactly once.
type Future struct {
	done chan struct{}
	once sync.Once
	res  *Result
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(res *Result, err error) {
	f.once.Do(func() {
		f.res, f.err = res, err
		close(f.done)
	})
}

// Done is closed when the future has resolved.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future resolves or ctx is done. Giving up on a
// future does not cancel its invocation.
func (f *Future) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-f.done:
		return f.res, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

package starlark

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.starlark.net/starlark"

	"github.com/leapstack-labs/leapmacro/pkg/macro"
	"github.com/leapstack-labs/leapmacro/pkg/sourcemap"
)

// Asset is a file emitted by a macro through add_asset. Loc is the macro
// call that emitted it.
type Asset struct {
	ID      string
	Type    string
	Content string
	Loc     macro.Location
}

// WithSourceMap returns the content followed by an inline source map that
// maps every line of the asset to the macro call in code, the text of the
// file named name.
func (a Asset) WithSourceMap(name, code string) (string, error) {
	lines := strings.Count(a.Content, "\n") + 1
	segs := make([]sourcemap.Segment, lines)
	for i := range segs {
		segs[i] = sourcemap.Segment{GenLine: i, SrcLine: max(a.Loc.Line-1, 0), SrcCol: a.Loc.Col}
	}
	mappings, err := sourcemap.Encode(segs)
	if err != nil {
		return "", err
	}
	m := &sourcemap.Map{
		Version:        sourcemap.Version,
		Sources:        []string{name},
		SourcesContent: []*string{&code},
		Names:          []string{},
		Mappings:       mappings,
	}
	url, err := m.DataURL()
	if err != nil {
		return "", err
	}
	return a.Content + "\n/*# sourceMappingURL=" + url + " */", nil
}

// AssetSink collects assets emitted during one transform.
// It is safe for concurrent use.
type AssetSink struct {
	mu     sync.Mutex
	seen   map[string]bool
	assets []Asset
}

// NewAssetSink creates an empty sink.
func NewAssetSink() *AssetSink {
	return &AssetSink{seen: make(map[string]bool)}
}

// Add records a. Assets with an id already recorded are ignored.
func (s *AssetSink) Add(a Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[a.ID] {
		return
	}
	s.seen[a.ID] = true
	s.assets = append(s.assets, a)
}

// Assets returns the recorded assets in emission order.
func (s *AssetSink) Assets() []Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Asset, len(s.assets))
	copy(out, s.assets)
	return out
}

type assetSinkKey struct{}

type callLocationKey struct{}

// WithCallLocation returns a context that tells add_asset which macro call
// is running.
func WithCallLocation(ctx context.Context, loc macro.Location) context.Context {
	return context.WithValue(ctx, callLocationKey{}, loc)
}

func callLocationFrom(ctx context.Context) macro.Location {
	loc, _ := ctx.Value(callLocationKey{}).(macro.Location)
	return loc
}

// WithAssetSink returns a context that carries sink to add_asset.
func WithAssetSink(ctx context.Context, sink *AssetSink) context.Context {
	return context.WithValue(ctx, assetSinkKey{}, sink)
}

// AssetSinkFrom returns the sink carried by ctx, or nil.
func AssetSinkFrom(ctx context.Context) *AssetSink {
	sink, _ := ctx.Value(assetSinkKey{}).(*AssetSink)
	return sink
}

// contextLocal is the thread-local key holding the request context.
const contextLocal = "leapmacro.context"

func contextOf(thread *starlark.Thread) context.Context {
	if thread != nil {
		if ctx, ok := thread.Local(contextLocal).(context.Context); ok {
			return ctx
		}
	}
	return context.Background()
}

// CallError is a Starlark error raised while running a macro function.
type CallError struct {
	Function  string
	Message   string
	Backtrace string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %s", e.Function, e.Message)
}

// Call runs fn on thread with ctx visible to builtins. The call is
// cancelled when ctx is done; the thread is usable again afterwards.
func Call(ctx context.Context, thread *starlark.Thread, fn starlark.Callable, args starlark.Tuple) (starlark.Value, error) {
	thread.SetLocal(contextLocal, ctx)
	defer thread.SetLocal(contextLocal, nil)

	cancelled := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
		close(cancelled)
	})
	defer func() {
		if !stop() {
			<-cancelled
			thread.Uncancel()
		}
	}()

	v, err := starlark.Call(thread, fn, args, nil)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		callErr := &CallError{Function: fn.Name(), Message: err.Error()}
		var evalErr *starlark.EvalError
		if errors.As(err, &evalErr) {
			callErr.Message = evalErr.Msg
			callErr.Backtrace = evalErr.Backtrace()
		}
		return nil, callErr
	}
	return v, nil
}

package macro

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.starlark.net/starlark"

	starctx "github.com/leapstack-labs/leapmacro/internal/starlark"
	pkgmacro "github.com/leapstack-labs/leapmacro/pkg/macro"
)

// Messages returned to the expansion pass.
const (
	msgNotExported   = "%q does not export %q."
	msgNotFunction   = "%q in %q is not a function."
	msgModuleMissing = "Cannot find macro module %q in %s."
	msgLoadCycle     = "cycle in load() of %q"
)

// Host implements macro.Callback with Starlark modules from a macros
// directory. Modules are loaded on first use and cached. All Starlark work
// happens on the goroutine running Run; Call may be used from any goroutine.
type Host struct {
	loader *Loader
	owner  *starctx.Owner
	logger *slog.Logger

	// owned by the Run goroutine
	modules map[string]*cacheEntry
}

type cacheEntry struct {
	mod     *LoadedModule
	err     error
	loading bool
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithLogger sets the host logger.
func WithLogger(logger *slog.Logger) HostOption {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHost creates a host for the macros in dir. Run must be started before
// Call can be answered.
func NewHost(dir string, opts ...HostOption) *Host {
	h := &Host{
		loader:  NewLoader(dir),
		logger:  slog.New(slog.DiscardHandler),
		modules: make(map[string]*cacheEntry),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.owner = starctx.NewOwner(
		starctx.WithLogger(h.logger),
		starctx.WithThreadName("macros"),
		starctx.WithLoad(h.load),
	)
	return h
}

// Call implements macro.Callback.
func (h *Host) Call(ctx context.Context, req *pkgmacro.Request) (string, error) {
	return h.owner.Callback().Call(ctx, req)
}

// Run serves macro calls until ctx is done or Close is called.
func (h *Host) Run(ctx context.Context) error {
	h.logger.Debug("macro host started", "dir", h.loader.Dir())
	err := h.owner.Serve(ctx, h.serve)
	h.logger.Debug("macro host stopped", "modules", len(h.modules))
	return err
}

// Close stops Run and fails blocked callers.
func (h *Host) Close() {
	h.owner.Close()
}

func (h *Host) serve(ctx context.Context, thread *starlark.Thread, req *pkgmacro.Request) (string, error) {
	id := req.Macro
	mod, err := h.module(thread, id.Source)
	if err != nil {
		if errors.Is(err, ErrModuleNotFound) {
			return "", pkgmacro.LoadFailure(msgModuleMissing, id.Source, h.loader.Dir())
		}
		return "", pkgmacro.LoadFailure("%s", err.Error())
	}

	export, ok := mod.Exports[id.Export]
	if !ok {
		return "", pkgmacro.LoadFailure(msgNotExported, id.Source, id.Export)
	}
	fn, ok := export.(starlark.Callable)
	if !ok {
		return "", pkgmacro.ExecutionFailure(msgNotFunction, id.Export, id.Source)
	}

	args := make(starlark.Tuple, len(req.Args))
	for i, a := range req.Args {
		v, err := starctx.ToStarlark(a)
		if err != nil {
			return "", pkgmacro.ExecutionFailure("argument %d: %v", i+1, err)
		}
		args[i] = v
	}

	result, err := starctx.Call(starctx.WithCallLocation(ctx, req.Loc), thread, fn, args)
	if err != nil {
		var callErr *starctx.CallError
		if errors.As(err, &callErr) {
			return "", pkgmacro.ExecutionFailure("%s", callErr.Message)
		}
		return "", err
	}

	v, err := starctx.FromStarlark(result)
	if err != nil {
		return "", pkgmacro.ExecutionFailure("%s returned %v", id.Export, err)
	}

	h.logger.Debug("macro called",
		"macro", id.String(),
		"file", req.Loc.File,
		"line", req.Loc.Line)
	return pkgmacro.Source(v), nil
}

// module returns the cached module for an import source.
func (h *Host) module(thread *starlark.Thread, src string) (*LoadedModule, error) {
	name, err := h.loader.Resolve(src)
	if err != nil {
		return nil, err
	}
	return h.get(thread, name)
}

func (h *Host) get(thread *starlark.Thread, name string) (*LoadedModule, error) {
	if e, ok := h.modules[name]; ok {
		if e.loading {
			return nil, &LoadError{Module: name, Message: fmt.Sprintf(msgLoadCycle, name)}
		}
		return e.mod, e.err
	}

	e := &cacheEntry{loading: true}
	h.modules[name] = e
	e.mod, e.err = h.loader.LoadModule(thread, name)
	e.loading = false

	if e.err != nil {
		h.logger.Debug("macro module failed", "module", name, "error", e.err)
	} else {
		h.logger.Debug("macro module loaded", "module", name, "exports", len(e.mod.Exports))
	}
	return e.mod, e.err
}

// load serves load() statements inside macro modules. Paths are relative
// to the macros directory.
func (h *Host) load(thread *starlark.Thread, module string) (starlark.StringDict, error) {
	name, err := h.loader.Resolve(strings.TrimPrefix(module, "//"))
	if err != nil {
		return nil, err
	}
	child := &starlark.Thread{Name: "load " + name, Load: thread.Load, Print: thread.Print}
	mod, err := h.get(child, name)
	if err != nil {
		return nil, err
	}
	return mod.Exports, nil
}

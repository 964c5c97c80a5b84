// Package macro expands compile-time macro calls.
//
// A macro is a function imported with the import attribute type "macro":
//
//	import { css } from "./styles" with { type: "macro" };
//	const cls = css("color: red");
//
// Each call site's arguments are evaluated statically, handed to a Callback,
// and the returned source text replaces the call. The macro imports
// themselves are removed.
package macro

import (
	"context"
	"errors"
	"log/slog"

	"github.com/leapstack-labs/leapmacro/pkg/ast"
	"github.com/leapstack-labs/leapmacro/pkg/dialect"
	"github.com/leapstack-labs/leapmacro/pkg/mark"
	"github.com/leapstack-labs/leapmacro/pkg/parser"
	"github.com/leapstack-labs/leapmacro/pkg/source"
)

// Config configures one expansion pass.
type Config struct {
	Callback   Callback
	Dialect    *dialect.Dialect // dialect used to parse replacement text
	Sources    *source.Map      // receives one unit per replacement
	Comments   *ast.Comments    // receives comments of replacement text, may be nil
	Unresolved mark.Mark        // the resolver's unresolved mark
	Logger     *slog.Logger
}

type expander struct {
	ctx        context.Context
	cfg        Config
	logger     *slog.Logger
	eval       *Evaluator
	named      map[ast.ID]Identity
	namespaces map[ast.ID]string
	errs       *[]Error
	sites      int
}

// Expand rewrites every macro call in prog. prog must have been resolved.
// Failures are appended to errs in the order their sites are visited; a
// failed site is left as written and the walk continues.
func Expand(ctx context.Context, prog ast.Program, cfg Config, errs *[]Error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Dialect == nil {
		cfg.Dialect = dialect.Default()
	}
	if cfg.Sources == nil {
		cfg.Sources = source.NewMap()
	}
	if errs == nil {
		errs = new([]Error)
	}

	x := &expander{
		ctx:        ctx,
		cfg:        cfg,
		logger:     logger,
		eval:       NewEvaluator(cfg.Unresolved),
		named:      make(map[ast.ID]Identity),
		namespaces: make(map[ast.ID]string),
		errs:       errs,
	}

	mod, ok := prog.(*ast.Module)
	if !ok || !x.collectImports(mod) {
		return
	}
	x.eval.CollectConsts(prog)

	before := len(*errs)
	ast.Rewrite(prog, x.visit)
	x.checkReferences(prog)
	logger.Debug("expanded macros",
		"sites", x.sites,
		"errors", len(*errs)-before)
}

// collectImports records macro import bindings and removes their
// declarations. It reports whether any were found.
func (x *expander) collectImports(mod *ast.Module) bool {
	kept := mod.Body[:0]
	for _, item := range mod.Body {
		decl, ok := item.(*ast.ImportDecl)
		if !ok || decl.TypeOnly || !IsMacroImport(decl) {
			kept = append(kept, item)
			continue
		}
		src := decl.Src.Value
		for _, spec := range decl.Specifiers {
			switch s := spec.(type) {
			case *ast.ImportNamed:
				if s.TypeOnly {
					continue
				}
				x.named[s.Local.ToID()] = Identity{Source: src, Export: s.ImportedName()}
			case *ast.ImportDefault:
				x.named[s.Local.ToID()] = Identity{Source: src, Export: "default"}
			case *ast.ImportNamespace:
				x.namespaces[s.Local.ToID()] = src
			}
		}
		x.logger.Debug("macro import", "source", src, "specifiers", len(decl.Specifiers))
	}
	found := len(kept) != len(mod.Body)
	for i := len(kept); i < len(mod.Body); i++ {
		mod.Body[i] = nil
	}
	mod.Body = kept
	return found
}

// IsMacroImport reports whether decl carries the attribute type: "macro".
func IsMacroImport(decl *ast.ImportDecl) bool {
	if decl.With == nil {
		return false
	}
	for _, prop := range decl.With.Props {
		kv, ok := prop.(*ast.KeyValueProp)
		if !ok {
			continue
		}
		var key string
		switch k := kv.Key.(type) {
		case *ast.Ident:
			key = k.Name
		case *ast.Str:
			key = k.Value
		}
		if v, ok := kv.Value.(*ast.Str); ok && key == "type" && v.Value == "macro" {
			return true
		}
	}
	return false
}

// identify resolves a callee to the macro it names.
func (x *expander) identify(callee ast.Expr) (Identity, bool) {
	switch c := callee.(type) {
	case *ast.Ident:
		id, ok := x.named[c.ToID()]
		return id, ok
	case *ast.MemberExpr:
		obj, ok := c.Object.(*ast.Ident)
		if !ok {
			return Identity{}, false
		}
		src, ok := x.namespaces[obj.ToID()]
		if !ok {
			return Identity{}, false
		}
		switch p := c.Property.(type) {
		case *ast.Ident:
			if !c.Computed {
				return Identity{Source: src, Export: p.Name}, true
			}
		case *ast.Str:
			if c.Computed {
				return Identity{Source: src, Export: p.Value}, true
			}
		}
	}
	return Identity{}, false
}

// visit is called for every expression after its children, so macro calls
// in the arguments of another macro call are already expanded.
func (x *expander) visit(e ast.Expr) ast.Expr {
	call, ok := e.(*ast.CallExpr)
	if !ok || call.Optional {
		return e
	}
	id, ok := x.identify(call.Callee)
	if !ok {
		return e
	}
	x.sites++

	args, err := x.eval.EvalArgs(call.Args)
	if err != nil {
		var evalErr *EvaluationError
		if errors.As(err, &evalErr) {
			x.fail(evalErr)
		}
		return e
	}

	if x.cfg.Callback == nil {
		x.fail(&LoadError{Message: "no macro callback configured", At: call.Span})
		return e
	}
	req := &Request{Macro: id, Args: args, Span: call.Span, Loc: x.location(call)}
	text, err := x.cfg.Callback.Call(x.ctx, req)
	if err != nil {
		x.fail(callbackError(err, call))
		return e
	}

	file := x.cfg.Sources.AddFile(source.FileName{Kind: source.MacroExpansion}, text)
	expr, err := parser.ParseExpr(file, x.cfg.Dialect, x.cfg.Comments)
	if err != nil {
		var perr *parser.Error
		if !errors.As(err, &perr) {
			perr = &parser.Error{Span: call.Span, Message: err.Error()}
		}
		x.fail(&ParseError{Err: perr, CallSpan: call.Span})
		return e
	}

	x.logger.Debug("expanded macro",
		"macro", id.String(),
		"line", req.Loc.Line,
		"col", req.Loc.Col)
	return expr
}

// checkReferences reports macro bindings that are still referenced after
// expansion other than as the callee of a macro call. Optional calls count
// as references since they are never expanded.
func (x *expander) checkReferences(prog ast.Program) {
	callees := make(map[*ast.Ident]bool)
	ast.Inspect(prog, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.CallExpr:
			if _, ok := x.identify(n.Callee); ok && !n.Optional {
				switch c := n.Callee.(type) {
				case *ast.Ident:
					callees[c] = true
				case *ast.MemberExpr:
					if obj, ok := c.Object.(*ast.Ident); ok {
						callees[obj] = true
					}
				}
			}
		case *ast.Ident:
			if callees[n] {
				return true
			}
			id := n.ToID()
			_, named := x.named[id]
			_, ns := x.namespaces[id]
			if named || ns {
				x.fail(&ReferenceError{Name: n.Name, At: n.Span})
			}
		}
		return true
	})
}

func (x *expander) fail(err Error) {
	*x.errs = append(*x.errs, err)
	x.logger.Debug("macro site failed", "error", err.Error())
}

func (x *expander) location(call *ast.CallExpr) Location {
	file, pos, ok := x.cfg.Sources.Lookup(call.Span.Lo)
	if !ok {
		return Location{}
	}
	return Location{
		File: file.Name().String(),
		Line: pos.Line,
		Col:  file.UTF16Column(call.Span.Lo),
	}
}

// callbackError classifies an error returned by a callback.
func callbackError(err error, call *ast.CallExpr) Error {
	var f *Failure
	if errors.As(err, &f) {
		if f.Kind == FailureLoad {
			return &LoadError{Message: f.Message, At: call.Span}
		}
		return &ExecutionError{Message: f.Message, At: call.Span}
	}
	return &ExecutionError{Message: err.Error(), At: call.Span}
}

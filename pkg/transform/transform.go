// Package transform runs the whole pipeline on one source unit: parse,
// resolve, expand macros, then print the result with a source map.
//
// Every invocation owns its source map, scope marks and error list. Nothing
// but the macro callback is shared between invocations.
package transform

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/leapstack-labs/leapmacro/pkg/ast"
	"github.com/leapstack-labs/leapmacro/pkg/codegen"
	"github.com/leapstack-labs/leapmacro/pkg/diagnostic"
	"github.com/leapstack-labs/leapmacro/pkg/dialect"
	"github.com/leapstack-labs/leapmacro/pkg/macro"
	"github.com/leapstack-labs/leapmacro/pkg/parser"
	"github.com/leapstack-labs/leapmacro/pkg/resolver"
	"github.com/leapstack-labs/leapmacro/pkg/source"
	"github.com/leapstack-labs/leapmacro/pkg/sourcemap"
)

// Result is the output of a successful invocation.
type Result struct {
	Code string
	Map  string // Source Map v3 JSON
}

// Error is the only error Transform returns. Text is the rendered report of
// every diagnostic, or a plain message when the output could not be built.
type Error struct {
	Text     string
	Problems []Problem
}

// Problem is one diagnostic of a failed invocation. Location is only set
// when the diagnostic could be placed in the input.
type Problem struct {
	Message  string               `json:"message"`
	Location *diagnostic.Location `json:"location,omitempty"`
}

// report collects diagnostics as rendered text and as problems.
type report struct {
	renderer *diagnostic.Renderer
	handler  *diagnostic.Handler
	problems []Problem
}

func (r *report) emit(d diagnostic.Diagnostic) {
	r.handler.Emit(d)
	p := Problem{Message: d.Message}
	if loc, ok := r.renderer.Locate(d); ok {
		p.Location = &loc
	}
	r.problems = append(r.problems, p)
}

func (r *report) err() *Error {
	return &Error{Text: r.handler.Report(), Problems: r.problems}
}

func (e *Error) Error() string {
	return e.Text
}

// Transform processes code as dialect d, calling cb for every macro site.
// cb must not call Transform synchronously from inside a call.
func Transform(ctx context.Context, d *dialect.Dialect, code string, cb macro.Callback, opts ...Option) (*Result, error) {
	o := newOptions(opts)
	if d == nil {
		d = dialect.Default()
	}
	logger := o.logger.With("file", o.fileName().String(), "dialect", d.Name)
	start := time.Now()
	logger.Debug("transform started", "bytes", len(code))

	sm := source.NewMap()
	file := sm.AddFile(o.fileName(), code)
	renderer := diagnostic.NewRenderer(sm)
	renderer.ContextLines = o.contextLines
	renderer.Color = o.color
	rep := &report{renderer: renderer, handler: diagnostic.NewHandler(renderer)}
	comments := ast.NewComments()

	prog, err := parser.ParseProgram(file, d, comments)
	if err != nil {
		var perr *parser.Error
		if !errors.As(err, &perr) {
			return nil, &Error{Text: err.Error()}
		}
		rep.emit(diagnostic.FromParseError(perr))
		logger.Debug("transform failed", "stage", "parse", "duration", time.Since(start))
		return nil, rep.err()
	}

	marks := resolver.NewMarks(nil)
	resolver.Resolve(prog, marks)

	var errs []macro.Error
	macro.Expand(ctx, prog, macro.Config{
		Callback:   cb,
		Dialect:    d,
		Sources:    sm,
		Comments:   comments,
		Unresolved: marks.Unresolved,
		Logger:     logger,
	}, &errs)
	if len(errs) > 0 {
		for _, e := range errs {
			rep.emit(diagnostic.FromMacroError(e))
		}
		logger.Debug("transform failed",
			"stage", "macro",
			"errors", len(errs),
			"duration", time.Since(start))
		return nil, rep.err()
	}

	res, err := build(sm, prog, comments, o)
	if err != nil {
		return nil, &Error{Text: err.Error()}
	}
	logger.Debug("transform finished",
		"bytes", len(res.Code),
		"duration", time.Since(start))
	return res, nil
}

// build prints the module and its source map.
func build(sm *source.Map, prog ast.Program, comments *ast.Comments, o *options) (*Result, error) {
	code, mappings, err := codegen.Emit(ast.NormalizeModule(prog), codegen.Config{Comments: comments})
	if err != nil {
		return nil, err
	}
	m, err := sourcemap.Build(sm, mappings, sourcemap.Config{SourcesContent: o.sourcesContent})
	if err != nil {
		return nil, err
	}
	data, err := m.JSON()
	if err != nil {
		return nil, err
	}
	return &Result{Code: code, Map: string(data)}, nil
}

var macroImportPattern = regexp.MustCompile(`(?:with|assert)\s*\{\s*["']?type["']?\s*:\s*["']macro["']\s*,?\s*\}`)

// HasMacroImport reports whether code may contain an import with the macro
// attribute. It is a quick textual check; a false result means Transform
// would leave the code unchanged apart from formatting.
func HasMacroImport(code string) bool {
	return macroImportPattern.MatchString(code)
}

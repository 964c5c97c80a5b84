// Package verify re-parses transformed output with esbuild as an
// independent syntax check.
package verify

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/leapstack-labs/leapmacro/pkg/dialect"
)

var loaders = map[string]api.Loader{
	"js":  api.LoaderJS,
	"jsx": api.LoaderJSX,
	"ts":  api.LoaderTS,
	"tsx": api.LoaderTSX,
}

// Issue is one esbuild diagnostic. Line is 1-based, Column is a 0-based
// byte offset.
type Issue struct {
	Line   int
	Column int
	Text   string
}

// Error reports output that esbuild rejects.
type Error struct {
	File   string
	Issues []Issue
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: esbuild rejected output", e.File)
	for _, is := range e.Issues {
		fmt.Fprintf(&b, "\n  %s:%d:%d: %s", e.File, is.Line, is.Column, is.Text)
	}
	return b.String()
}

// Loader returns the esbuild loader for a dialect.
func Loader(d *dialect.Dialect) (api.Loader, error) {
	l, ok := loaders[d.Loader()]
	if !ok {
		return api.LoaderNone, fmt.Errorf("dialect %s: unknown esbuild loader %q", d.Name, d.Loader())
	}
	return l, nil
}

// Check parses code as dialect d. It returns *Error when esbuild reports
// errors.
func Check(d *dialect.Dialect, filename, code string) error {
	if d == nil {
		d = dialect.Default()
	}
	loader, err := Loader(d)
	if err != nil {
		return err
	}

	result := api.Transform(code, api.TransformOptions{
		Loader:     loader,
		Sourcefile: filename,
		Target:     api.ESNext,
		Format:     api.FormatDefault,
		JSX:        api.JSXPreserve,
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) == 0 {
		return nil
	}

	verr := &Error{File: filename}
	for _, msg := range result.Errors {
		is := Issue{Text: msg.Text}
		if msg.Location != nil {
			is.Line = msg.Location.Line
			is.Column = msg.Location.Column
		}
		verr.Issues = append(verr.Issues, is)
	}
	return verr
}

// Package macro runs macros written in Starlark on behalf of the expansion
// pass. A macro import source names a .star module under the macros
// directory; the module's public globals are its exports.
//
//	import { css } from "./styles" with { type: "macro" };
//
// resolves to <macros_dir>/styles.star and calls its css function.
package macro

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.starlark.net/starlark"

	starctx "github.com/leapstack-labs/leapmacro/internal/starlark"
)

// ErrModuleNotFound is wrapped by LoadError when no .star file exists for
// an import source.
var ErrModuleNotFound = errors.New("module not found")

// sourceExtensions are stripped from import sources before resolution so
// "./styles.js" and "./styles" name the same module.
var sourceExtensions = []string{".star", ".js", ".mjs", ".cjs", ".jsx", ".ts", ".mts", ".cts", ".tsx"}

// Loader finds and executes .star modules under one directory.
type Loader struct {
	dir string
}

// NewLoader creates a loader for the specified directory.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Dir returns the macros directory.
func (l *Loader) Dir() string {
	return l.dir
}

// LoadedModule is an executed macro module.
type LoadedModule struct {
	// Name is the slash-separated path below the macros directory, without
	// the .star extension (e.g. "ui/button").
	Name string

	// Path is the file the module was loaded from.
	Path string

	// Exports contains all globals whose names do not start with _.
	Exports starlark.StringDict
}

// Resolve maps an import source to a module name.
func (l *Loader) Resolve(src string) (string, error) {
	name := src
	for strings.HasPrefix(name, "./") {
		name = name[2:]
	}
	for _, ext := range sourceExtensions {
		if strings.HasSuffix(name, ext) {
			name = strings.TrimSuffix(name, ext)
			break
		}
	}
	if !filepath.IsLocal(filepath.FromSlash(name)) {
		return "", &LoadError{Module: src, Message: "import source escapes the macros directory", Err: ErrModuleNotFound}
	}
	for _, seg := range strings.Split(name, "/") {
		if err := validateModuleName(seg); err != nil {
			return "", &LoadError{Module: src, Message: err.Error(), Err: ErrModuleNotFound}
		}
	}
	return name, nil
}

// Path returns the file that holds module name.
func (l *Loader) Path(name string) string {
	return filepath.Join(l.dir, filepath.FromSlash(name)+".star")
}

// Scan lists the module names of every .star file below the directory,
// sorted. A missing directory has no modules.
func (l *Loader) Scan() ([]string, error) {
	info, err := os.Stat(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to access macros directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("macros path is not a directory: %s", l.dir)
	}

	var names []string
	err = filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".star" {
			return nil
		}
		rel, err := filepath.Rel(l.dir, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(strings.TrimSuffix(rel, ".star")))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan macros directory: %w", err)
	}
	slices.Sort(names)
	return names, nil
}

// Digest hashes the names and contents of every module under the
// directory. It changes whenever a macro could behave differently.
func (l *Loader) Digest() (string, error) {
	names, err := l.Scan()
	if err != nil {
		return "", err
	}
	h := sha256.New()
	for _, name := range names {
		content, err := os.ReadFile(l.Path(name)) //nolint:gosec // G304: path comes from scanning the macros directory
		if err != nil {
			return "", fmt.Errorf("failed to read macro module %s: %w", name, err)
		}
		_, _ = fmt.Fprintf(h, "%s\x00%d\x00", name, len(content))
		_, _ = h.Write(content)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// LoadModule executes module name on thread with the macro builtins
// predeclared. load() statements go through thread.Load.
func (l *Loader) LoadModule(thread *starlark.Thread, name string) (*LoadedModule, error) {
	path := l.Path(name)
	content, err := os.ReadFile(path) //nolint:gosec // G304: path is resolved inside the macros directory
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Module: name, File: path, Message: "no such file", Err: ErrModuleNotFound}
		}
		return nil, &LoadError{Module: name, File: path, Message: fmt.Sprintf("failed to read file: %v", err), Err: err}
	}

	globals, err := starlark.ExecFile(thread, path, content, starctx.Predeclared()) //nolint:staticcheck // SA1019: will migrate to ExecFileOptions later
	if err != nil {
		return nil, &LoadError{Module: name, File: path, Message: fmt.Sprintf("Starlark execution error: %v", err), Err: err}
	}

	exports := make(starlark.StringDict, len(globals))
	for n, value := range globals {
		if !strings.HasPrefix(n, "_") {
			exports[n] = value
		}
	}
	exports.Freeze()

	return &LoadedModule{
		Name:    name,
		Path:    path,
		Exports: exports,
	}, nil
}

// validateModuleName checks one path segment of a module name.
func validateModuleName(name string) error {
	if name == "" {
		return fmt.Errorf("module name cannot be empty")
	}

	for i, r := range name {
		if i == 0 {
			if !isLetter(r) && r != '_' {
				return fmt.Errorf("module name must start with letter or underscore: %s", name)
			}
		} else if !isLetter(r) && !isDigit(r) && r != '_' && r != '-' {
			return fmt.Errorf("module name contains invalid character: %s", name)
		}
	}

	return nil
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// LoadError represents an error loading a macro module.
type LoadError struct {
	Module  string
	File    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("macro module %q: %s", e.Module, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

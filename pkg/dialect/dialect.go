// Package dialect describes the source dialects accepted by the parser.
//
// A dialect gates grammar features: TypeScript syntax, JSX, and import
// attributes. The four builtin dialects (js, jsx, ts, tsx) are registered when
// the package is loaded; hosts look them up by name or by file extension.
package dialect

import "strings"

// Dialect is an immutable grammar configuration.
type Dialect struct {
	Name string

	typeScript       bool
	jsx              bool
	importAttributes bool
	extensions       []string // lowercase, with leading dot
	loader           string   // esbuild loader name
}

// TypeScript reports whether TypeScript syntax is enabled.
func (d *Dialect) TypeScript() bool { return d.typeScript }

// JSX reports whether JSX elements are enabled.
func (d *Dialect) JSX() bool { return d.jsx }

// ImportAttributes reports whether `with { ... }` clauses are accepted on imports.
func (d *Dialect) ImportAttributes() bool { return d.importAttributes }

// Extensions returns the file extensions mapped to this dialect.
func (d *Dialect) Extensions() []string {
	out := make([]string, len(d.extensions))
	copy(out, d.extensions)
	return out
}

// Loader returns the esbuild loader name for the dialect.
func (d *Dialect) Loader() string { return d.loader }

// DefaultExtension returns the primary extension, used to name anonymous input.
func (d *Dialect) DefaultExtension() string {
	if len(d.extensions) == 0 {
		return ""
	}
	return d.extensions[0]
}

// String returns the dialect name.
func (d *Dialect) String() string { return d.Name }

// Builder constructs a Dialect.
type Builder struct {
	d *Dialect
}

// NewDialect starts a new dialect definition.
func NewDialect(name string) *Builder {
	return &Builder{d: &Dialect{Name: strings.ToLower(name), loader: "js"}}
}

// TypeScript enables TypeScript syntax.
func (b *Builder) TypeScript() *Builder {
	b.d.typeScript = true
	return b
}

// JSX enables JSX elements.
func (b *Builder) JSX() *Builder {
	b.d.jsx = true
	return b
}

// ImportAttributes enables `with { ... }` import attributes.
func (b *Builder) ImportAttributes() *Builder {
	b.d.importAttributes = true
	return b
}

// Extensions maps file extensions to the dialect. The first one is the default.
func (b *Builder) Extensions(exts ...string) *Builder {
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		b.d.extensions = append(b.d.extensions, ext)
	}
	return b
}

// Loader sets the esbuild loader name.
func (b *Builder) Loader(name string) *Builder {
	b.d.loader = name
	return b
}

// Build returns the finished dialect.
func (b *Builder) Build() *Dialect {
	return b.d
}

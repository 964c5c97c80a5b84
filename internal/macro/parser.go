package macro

import (
	"path/filepath"
	"strings"

	"go.starlark.net/syntax"
)

// ParsedFunction is a public function found in a .star file.
type ParsedFunction struct {
	Name      string
	Args      []string // with defaults, e.g. "flags=\"\""
	Docstring string
	Line      int
}

// ParsedModule is the static outline of a macro module.
type ParsedModule struct {
	Name      string
	FilePath  string
	Functions []*ParsedFunction
	Values    []string // public non-function globals
	Loads     []string // modules named by load() statements, as written
}

// ParseStarlarkFile extracts the outline of a .star file without
// executing it. Functions are top-level defs and lambda assignments.
func ParseStarlarkFile(filename string, content []byte) (*ParsedModule, error) {
	f, err := syntax.Parse(filename, content, 0)
	if err != nil {
		return nil, &ParseError{
			File:    filename,
			Message: err.Error(),
		}
	}

	mod := &ParsedModule{
		Name:     strings.TrimSuffix(filepath.Base(filename), ".star"),
		FilePath: filename,
	}
	// Starlark globals bind once; keep the first
	seen := make(map[string]bool)

	for _, stmt := range f.Stmts {
		switch s := stmt.(type) {
		case *syntax.LoadStmt:
			if name, ok := s.Module.Value.(string); ok {
				mod.Loads = append(mod.Loads, name)
			}

		case *syntax.DefStmt:
			if isPrivate(s.Name.Name) {
				continue
			}
			mod.Functions = append(mod.Functions, &ParsedFunction{
				Name:      s.Name.Name,
				Line:      int(s.Name.NamePos.Line),
				Args:      extractArgs(s.Params),
				Docstring: extractDocstring(s.Body),
			})
			seen[s.Name.Name] = true

		case *syntax.AssignStmt:
			// name = lambda ...: counts as a function
			ident, ok := s.LHS.(*syntax.Ident)
			if !ok || s.Op != syntax.EQ || isPrivate(ident.Name) || seen[ident.Name] {
				continue
			}
			seen[ident.Name] = true
			if lambda, ok := s.RHS.(*syntax.LambdaExpr); ok {
				mod.Functions = append(mod.Functions, &ParsedFunction{
					Name: ident.Name,
					Line: int(ident.NamePos.Line),
					Args: extractArgs(lambda.Params),
				})
				continue
			}
			mod.Values = append(mod.Values, ident.Name)
		}
	}

	return mod, nil
}

func isPrivate(name string) bool {
	return strings.HasPrefix(name, "_")
}

// extractArgs renders parameters the way they read in a def, with
// defaults and star markers.
func extractArgs(params []syntax.Expr) []string {
	var args []string
	for _, param := range params {
		switch p := param.(type) {
		case *syntax.Ident:
			args = append(args, p.Name)
		case *syntax.BinaryExpr:
			// name=default
			if p.Op == syntax.EQ {
				if ident, ok := p.X.(*syntax.Ident); ok {
					args = append(args, ident.Name+"="+exprToString(p.Y))
				}
			}
		case *syntax.UnaryExpr:
			switch p.Op {
			case syntax.STAR:
				if ident, ok := p.X.(*syntax.Ident); ok {
					args = append(args, "*"+ident.Name)
				} else {
					// keyword-only marker
					args = append(args, "*")
				}
			case syntax.STARSTAR:
				if ident, ok := p.X.(*syntax.Ident); ok {
					args = append(args, "**"+ident.Name)
				}
			}
		}
	}
	return args
}

// extractDocstring returns the leading string literal of a function body.
func extractDocstring(body []syntax.Stmt) string {
	if len(body) == 0 {
		return ""
	}

	exprStmt, ok := body[0].(*syntax.ExprStmt)
	if !ok {
		return ""
	}

	lit, ok := exprStmt.X.(*syntax.Literal)
	if !ok || lit.Token != syntax.STRING {
		return ""
	}

	s, ok := lit.Value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// exprToString abbreviates a default value for display.
func exprToString(expr syntax.Expr) string {
	switch e := expr.(type) {
	case *syntax.Literal:
		return e.Raw
	case *syntax.Ident:
		return e.Name
	case *syntax.ListExpr:
		return "[]"
	case *syntax.DictExpr:
		return "{}"
	case *syntax.TupleExpr:
		return "()"
	case *syntax.UnaryExpr:
		if e.Op == syntax.MINUS {
			return "-" + exprToString(e.X)
		}
		return exprToString(e.X)
	case *syntax.CallExpr:
		return exprToString(e.Fn) + "(...)"
	default:
		return "..."
	}
}

// ParseError is a syntax error found while outlining a module.
type ParseError struct {
	File    string
	Message string
}

func (e *ParseError) Error() string {
	return "parse " + filepath.Base(e.File) + ": " + e.Message
}

// Signature returns the function as it would be called, e.g. "css(rules, scope=None)".
func (f *ParsedFunction) Signature() string {
	return f.Name + "(" + strings.Join(f.Args, ", ") + ")"
}

// Summary returns the first line of the docstring.
func (f *ParsedFunction) Summary() string {
	first, _, _ := strings.Cut(f.Docstring, "\n")
	return strings.TrimSpace(first)
}

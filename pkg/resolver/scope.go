package resolver

import (
	"github.com/leapstack-labs/leapmacro/pkg/ast"
	"github.com/leapstack-labs/leapmacro/pkg/mark"
)

// ScopeKind classifies a lexical scope.
type ScopeKind int

// Scope kinds. Function-like scopes collect hoisted var declarations.
const (
	ScopeProgram ScopeKind = iota
	ScopeFunction
	ScopeBlock
	ScopeCatch
	ScopeFor
	ScopeClass
	ScopeModuleBlock
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeProgram:
		return "program"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	case ScopeCatch:
		return "catch"
	case ScopeFor:
		return "for"
	case ScopeClass:
		return "class"
	case ScopeModuleBlock:
		return "module block"
	}
	return "unknown"
}

// Scope is one level of the lexical scope chain.
type Scope struct {
	Kind     ScopeKind
	Mark     mark.Mark
	parent   *Scope
	bindings map[string]struct{}
}

func newScope(kind ScopeKind, m mark.Mark, parent *Scope) *Scope {
	return &Scope{
		Kind:     kind,
		Mark:     m,
		parent:   parent,
		bindings: make(map[string]struct{}),
	}
}

// Parent returns the enclosing scope, or nil for the program scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Declare adds a binding to the scope.
func (s *Scope) Declare(name string) {
	s.bindings[name] = struct{}{}
}

// DeclarePat adds every identifier bound by p.
func (s *Scope) DeclarePat(p ast.Pat) {
	for _, id := range ast.PatIdents(nil, p) {
		s.Declare(id.Name)
	}
}

// Has reports whether name is declared directly in s.
func (s *Scope) Has(name string) bool {
	_, ok := s.bindings[name]
	return ok
}

// Lookup finds the innermost scope declaring name.
func (s *Scope) Lookup(name string) (*Scope, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.Has(name) {
			return cur, true
		}
	}
	return nil, false
}

// functionScope returns the nearest scope that receives hoisted var declarations.
func (s *Scope) functionScope() *Scope {
	cur := s
	for cur.parent != nil && cur.Kind != ScopeFunction && cur.Kind != ScopeModuleBlock {
		cur = cur.parent
	}
	return cur
}

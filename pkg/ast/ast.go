// Package ast declares the syntax tree for JavaScript, JSX and TypeScript.
//
// Every node embeds NodeInfo and reports its source span. Synthesized nodes
// carry token.NoSpan. Comments are not stored on nodes: they live in a
// Comments store keyed by position so that rewriting the tree never loses or
// duplicates them.
package ast

import "github.com/leapstack-labs/leapmacro/pkg/token"

// Node is implemented by every syntax tree node.
type Node interface {
	GetSpan() token.Span
}

// ModuleItem is a top-level item of a module: a statement or a module declaration.
type ModuleItem interface {
	Node
	moduleItemNode()
}

// Stmt is a statement.
type Stmt interface {
	ModuleItem
	stmtNode()
}

// Decl is a declaration statement.
type Decl interface {
	Stmt
	declNode()
}

// Expr is an expression.
type Expr interface {
	Node
	exprNode()
}

// Pat is a binding or assignment pattern.
type Pat interface {
	Node
	patNode()
}

// NodeInfo provides the span shared by all nodes.
type NodeInfo struct {
	Span token.Span
}

// GetSpan returns the node's source span.
func (n *NodeInfo) GetSpan() token.Span {
	return n.Span
}

// At returns NodeInfo for the given span.
func At(span token.Span) NodeInfo {
	return NodeInfo{Span: span}
}

// Program is the root of a parsed unit: *Module or *Script.
type Program interface {
	Node
	programNode()
}

// Module is a unit with ES module syntax.
type Module struct {
	NodeInfo
	Shebang string
	Body    []ModuleItem
}

// Script is a unit without any import or export.
type Script struct {
	NodeInfo
	Shebang string
	Body    []Stmt
}

func (*Module) programNode() {}
func (*Script) programNode() {}

// NormalizeModule returns prog in module shape. A script is wrapped into a
// module with the same span and body; a module is returned as is.
func NormalizeModule(prog Program) *Module {
	switch p := prog.(type) {
	case *Module:
		return p
	case *Script:
		items := make([]ModuleItem, len(p.Body))
		for i, s := range p.Body {
			items[i] = s
		}
		return &Module{NodeInfo: p.NodeInfo, Shebang: p.Shebang, Body: items}
	}
	return nil
}

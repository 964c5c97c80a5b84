package ast

import "strings"

// JSXElement is <Name attrs>children</Name> or <Name attrs />.
type JSXElement struct {
	NodeInfo
	Opening  *JSXOpeningElement
	Children []Expr // *JSXText, *JSXExprContainer, *JSXSpreadChild, *JSXElement, *JSXFragment
	Closing  *JSXClosingElement
}

// JSXOpeningElement is the opening tag.
type JSXOpeningElement struct {
	NodeInfo
	Name        Expr // *Ident, *JSXMemberExpr or *JSXNamespacedName
	TypeArgs    *TsTypeArgs
	Attrs       []Node // *JSXAttr or *JSXSpreadAttr
	SelfClosing bool
}

// JSXClosingElement is the closing tag.
type JSXClosingElement struct {
	NodeInfo
	Name Expr
}

// JSXFragment is <>children</>.
type JSXFragment struct {
	NodeInfo
	Children []Expr
}

// JSXAttr is name[=value]. Value is *Str, *JSXExprContainer, *JSXElement,
// *JSXFragment or nil.
type JSXAttr struct {
	NodeInfo
	Name  Expr // *Ident or *JSXNamespacedName
	Value Expr
}

// JSXSpreadAttr is {...arg} in an attribute list.
type JSXSpreadAttr struct {
	NodeInfo
	Arg Expr
}

// JSXText is raw text between tags.
type JSXText struct {
	NodeInfo
	Raw string
}

// JSXExprContainer is {expr}. Expr is *JSXEmptyExpr for {}.
type JSXExprContainer struct {
	NodeInfo
	Expr Expr
}

// JSXEmptyExpr is the missing expression in {} or {/* comment */}.
type JSXEmptyExpr struct{ NodeInfo }

// JSXSpreadChild is {...expr} among children.
type JSXSpreadChild struct {
	NodeInfo
	Expr Expr
}

// JSXMemberExpr is a.b in a tag name.
type JSXMemberExpr struct {
	NodeInfo
	Object   Expr // *Ident or *JSXMemberExpr
	Property *Ident
}

// JSXNamespacedName is ns:name.
type JSXNamespacedName struct {
	NodeInfo
	NS   *Ident
	Name *Ident
}

func (*JSXElement) exprNode()        {}
func (*JSXFragment) exprNode()       {}
func (*JSXText) exprNode()           {}
func (*JSXExprContainer) exprNode()  {}
func (*JSXEmptyExpr) exprNode()      {}
func (*JSXSpreadChild) exprNode()    {}
func (*JSXMemberExpr) exprNode()     {}
func (*JSXNamespacedName) exprNode() {}

// IsIntrinsicTag reports whether a tag name refers to a host element rather
// than a binding: lowercase identifiers and namespaced names.
func IsIntrinsicTag(name Expr) bool {
	switch n := name.(type) {
	case *Ident:
		if n.Name == "" {
			return true
		}
		c := n.Name[0]
		return (c >= 'a' && c <= 'z') || strings.Contains(n.Name, "-")
	case *JSXNamespacedName:
		return true
	}
	return false
}

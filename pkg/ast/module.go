package ast

// ImportDecl is an import declaration, possibly with attributes.
type ImportDecl struct {
	NodeInfo
	TypeOnly   bool
	Specifiers []ImportSpecifier
	Src        *Str
	With       *ObjectLit // import attributes, nil when absent
	WithKw     string     // "with" or "assert"
}

// ImportSpecifier is one binding introduced by an import.
type ImportSpecifier interface {
	Node
	importSpecifierNode()
	LocalIdent() *Ident
}

// ImportNamed is { imported as local }. Imported is nil when it equals Local.
type ImportNamed struct {
	NodeInfo
	Local    *Ident
	Imported Expr // *Ident or *Str
	TypeOnly bool
}

// ImportDefault is the default binding.
type ImportDefault struct {
	NodeInfo
	Local *Ident
}

// ImportNamespace is * as local.
type ImportNamespace struct {
	NodeInfo
	Local *Ident
}

func (*ImportNamed) importSpecifierNode()     {}
func (*ImportDefault) importSpecifierNode()   {}
func (*ImportNamespace) importSpecifierNode() {}

// LocalIdent returns the bound identifier.
func (s *ImportNamed) LocalIdent() *Ident { return s.Local }

// LocalIdent returns the bound identifier.
func (s *ImportDefault) LocalIdent() *Ident { return s.Local }

// LocalIdent returns the bound identifier.
func (s *ImportNamespace) LocalIdent() *Ident { return s.Local }

// ImportedName returns the exported name the specifier refers to.
func (s *ImportNamed) ImportedName() string {
	switch n := s.Imported.(type) {
	case *Ident:
		return n.Name
	case *Str:
		return n.Value
	}
	return s.Local.Name
}

// ExportDecl is export <declaration>.
type ExportDecl struct {
	NodeInfo
	Decl Decl
}

// ExportNamed is export { a as b } [from "src"].
type ExportNamed struct {
	NodeInfo
	TypeOnly   bool
	Specifiers []ExportSpecifier
	Src        *Str
	With       *ObjectLit
	WithKw     string
}

// ExportSpecifier is a member of an export list.
type ExportSpecifier interface {
	Node
	exportSpecifierNode()
}

// ExportNamedSpec is orig [as exported]. Exported is nil when it equals Orig.
type ExportNamedSpec struct {
	NodeInfo
	Orig     Expr // *Ident or *Str
	Exported Expr
	TypeOnly bool
}

// ExportNamespaceSpec is * as name.
type ExportNamespaceSpec struct {
	NodeInfo
	Name Expr
}

func (*ExportNamedSpec) exportSpecifierNode()     {}
func (*ExportNamespaceSpec) exportSpecifierNode() {}

// ExportAll is export * from "src".
type ExportAll struct {
	NodeInfo
	TypeOnly bool
	Src      *Str
	With     *ObjectLit
	WithKw   string
}

// ExportDefaultDecl is export default function/class/interface.
// Decl is *FnExpr, *ClassExpr or *TsInterfaceDecl.
type ExportDefaultDecl struct {
	NodeInfo
	Decl Node
}

// ExportDefaultExpr is export default <expr>.
type ExportDefaultExpr struct {
	NodeInfo
	Expr Expr
}

// TsImportEquals is [export] import id = require("x") or import id = A.B.
type TsImportEquals struct {
	NodeInfo
	Exported bool
	TypeOnly bool
	ID       *Ident
	Ref      Node // *TsExternalModuleRef or an entity name expression
}

// TsExternalModuleRef is require("x") in an import-equals declaration.
type TsExternalModuleRef struct {
	NodeInfo
	Expr *Str
}

// TsExportAssignment is export = expr.
type TsExportAssignment struct {
	NodeInfo
	Expr Expr
}

// TsNamespaceExport is export as namespace X.
type TsNamespaceExport struct {
	NodeInfo
	ID *Ident
}

func (*ImportDecl) moduleItemNode()         {}
func (*ExportDecl) moduleItemNode()         {}
func (*ExportNamed) moduleItemNode()        {}
func (*ExportAll) moduleItemNode()          {}
func (*ExportDefaultDecl) moduleItemNode()  {}
func (*ExportDefaultExpr) moduleItemNode()  {}
func (*TsImportEquals) moduleItemNode()     {}
func (*TsExportAssignment) moduleItemNode() {}
func (*TsNamespaceExport) moduleItemNode()  {}

// IsModuleDecl reports whether item is an import or export declaration.
func IsModuleDecl(item ModuleItem) bool {
	_, isStmt := item.(Stmt)
	return !isStmt
}

package ast

// BlockStmt is { ... }.
type BlockStmt struct {
	NodeInfo
	Body []Stmt
}

// EmptyStmt is a lone semicolon.
type EmptyStmt struct{ NodeInfo }

// DebuggerStmt is `debugger`.
type DebuggerStmt struct{ NodeInfo }

// ExprStmt is an expression statement.
type ExprStmt struct {
	NodeInfo
	Expr Expr
}

// WithStmt is with (obj) body.
type WithStmt struct {
	NodeInfo
	Object Expr
	Body   Stmt
}

// ReturnStmt is return [arg].
type ReturnStmt struct {
	NodeInfo
	Arg Expr
}

// LabeledStmt is label: body.
type LabeledStmt struct {
	NodeInfo
	Label *Ident
	Body  Stmt
}

// BreakStmt is break [label].
type BreakStmt struct {
	NodeInfo
	Label *Ident
}

// ContinueStmt is continue [label].
type ContinueStmt struct {
	NodeInfo
	Label *Ident
}

// IfStmt is if (test) cons [else alt].
type IfStmt struct {
	NodeInfo
	Test Expr
	Cons Stmt
	Alt  Stmt
}

// SwitchStmt is switch (disc) { cases }.
type SwitchStmt struct {
	NodeInfo
	Discriminant Expr
	Cases        []*SwitchCase
}

// SwitchCase is case test: cons, or default: cons when Test is nil.
type SwitchCase struct {
	NodeInfo
	Test Expr
	Cons []Stmt
}

// ThrowStmt is throw arg.
type ThrowStmt struct {
	NodeInfo
	Arg Expr
}

// TryStmt is try/catch/finally.
type TryStmt struct {
	NodeInfo
	Block     *BlockStmt
	Handler   *CatchClause
	Finalizer *BlockStmt
}

// CatchClause is catch [(param)] body.
type CatchClause struct {
	NodeInfo
	Param Pat
	Body  *BlockStmt
}

// WhileStmt is while (test) body.
type WhileStmt struct {
	NodeInfo
	Test Expr
	Body Stmt
}

// DoWhileStmt is do body while (test).
type DoWhileStmt struct {
	NodeInfo
	Body Stmt
	Test Expr
}

// ForStmt is for (init; test; update) body. Init is *VarDecl, Expr or nil.
type ForStmt struct {
	NodeInfo
	Init   Node
	Test   Expr
	Update Expr
	Body   Stmt
}

// ForInStmt is for (left in right) body. Left is *VarDecl or Pat.
type ForInStmt struct {
	NodeInfo
	Left  Node
	Right Expr
	Body  Stmt
}

// ForOfStmt is for [await] (left of right) body. Left is *VarDecl or Pat.
type ForOfStmt struct {
	NodeInfo
	Await bool
	Left  Node
	Right Expr
	Body  Stmt
}

// VarKind is the declaration keyword.
type VarKind string

// Variable declaration kinds.
const (
	VarKindVar   VarKind = "var"
	VarKindLet   VarKind = "let"
	VarKindConst VarKind = "const"
)

// VarDecl is var/let/const with one or more declarators.
type VarDecl struct {
	NodeInfo
	Kind    VarKind
	Declare bool
	Decls   []*VarDeclarator
}

// VarDeclarator is name [= init].
type VarDeclarator struct {
	NodeInfo
	Name     Pat
	Init     Expr
	Definite bool // let x!: T
}

// FnDecl is a function declaration.
type FnDecl struct {
	NodeInfo
	Ident    *Ident
	Declare  bool
	Function *Function
}

// ClassDecl is a class declaration.
type ClassDecl struct {
	NodeInfo
	Ident   *Ident
	Declare bool
	Class   *Class
}

func (*BlockStmt) moduleItemNode()    {}
func (*EmptyStmt) moduleItemNode()    {}
func (*DebuggerStmt) moduleItemNode() {}
func (*ExprStmt) moduleItemNode()     {}
func (*WithStmt) moduleItemNode()     {}
func (*ReturnStmt) moduleItemNode()   {}
func (*LabeledStmt) moduleItemNode()  {}
func (*BreakStmt) moduleItemNode()    {}
func (*ContinueStmt) moduleItemNode() {}
func (*IfStmt) moduleItemNode()       {}
func (*SwitchStmt) moduleItemNode()   {}
func (*ThrowStmt) moduleItemNode()    {}
func (*TryStmt) moduleItemNode()      {}
func (*WhileStmt) moduleItemNode()    {}
func (*DoWhileStmt) moduleItemNode()  {}
func (*ForStmt) moduleItemNode()      {}
func (*ForInStmt) moduleItemNode()    {}
func (*ForOfStmt) moduleItemNode()    {}
func (*VarDecl) moduleItemNode()      {}
func (*FnDecl) moduleItemNode()       {}
func (*ClassDecl) moduleItemNode()    {}

func (*BlockStmt) stmtNode()    {}
func (*EmptyStmt) stmtNode()    {}
func (*DebuggerStmt) stmtNode() {}
func (*ExprStmt) stmtNode()     {}
func (*WithStmt) stmtNode()     {}
func (*ReturnStmt) stmtNode()   {}
func (*LabeledStmt) stmtNode()  {}
func (*BreakStmt) stmtNode()    {}
func (*ContinueStmt) stmtNode() {}
func (*IfStmt) stmtNode()       {}
func (*SwitchStmt) stmtNode()   {}
func (*ThrowStmt) stmtNode()    {}
func (*TryStmt) stmtNode()      {}
func (*WhileStmt) stmtNode()    {}
func (*DoWhileStmt) stmtNode()  {}
func (*ForStmt) stmtNode()      {}
func (*ForInStmt) stmtNode()    {}
func (*ForOfStmt) stmtNode()    {}
func (*VarDecl) stmtNode()      {}
func (*FnDecl) stmtNode()       {}
func (*ClassDecl) stmtNode()    {}

func (*VarDecl) declNode()   {}
func (*FnDecl) declNode()    {}
func (*ClassDecl) declNode() {}

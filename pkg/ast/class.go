package ast

// Function is the shared part of function declarations, expressions and methods.
type Function struct {
	NodeInfo
	Async      bool
	Generator  bool
	TypeParams *TsTypeParamDecl
	Params     []*Param
	ReturnType Type
	Body       *BlockStmt // nil for overloads and ambient declarations
}

// Param is a function parameter. The modifiers are only valid on TypeScript
// constructor parameter properties.
type Param struct {
	NodeInfo
	Decorators    []*Decorator
	Accessibility string // "public", "private", "protected" or ""
	Readonly      bool
	Override      bool
	Pat           Pat
}

// IsParamProp reports whether the parameter declares a class property.
func (p *Param) IsParamProp() bool {
	return p.Accessibility != "" || p.Readonly || p.Override
}

// Decorator is @expr.
type Decorator struct {
	NodeInfo
	Expr Expr
}

// Class is the shared part of class declarations and expressions.
type Class struct {
	NodeInfo
	Decorators    []*Decorator
	Abstract      bool
	TypeParams    *TsTypeParamDecl
	SuperClass    Expr
	SuperTypeArgs *TsTypeArgs
	Implements    []*TsExprWithTypeArgs
	Body          []ClassMember
}

// ClassMember is an element of a class body.
type ClassMember interface {
	Node
	classMemberNode()
}

// MemberModifiers are the modifiers shared by class methods and properties.
type MemberModifiers struct {
	Static        bool
	Accessibility string
	Abstract      bool
	Override      bool
	Optional      bool
}

// Constructor is constructor(params) { body }.
type Constructor struct {
	NodeInfo
	Accessibility string
	Key           Expr // *Ident or *Str
	Function      *Function
}

// ClassMethod is a method, getter or setter.
type ClassMethod struct {
	NodeInfo
	MemberModifiers
	Decorators []*Decorator
	Kind       MethodKind
	Key        Expr // *Ident, *Str, *Num, *BigInt, *PrivateName or *ComputedPropName
	Function   *Function
}

// ClassProp is a field declaration.
type ClassProp struct {
	NodeInfo
	MemberModifiers
	Decorators []*Decorator
	Key        Expr
	Value      Expr
	TypeAnn    Type
	Readonly   bool
	Declare    bool
	Definite   bool
	Accessor   bool // auto-accessor `accessor x`
}

// StaticBlock is static { ... }.
type StaticBlock struct {
	NodeInfo
	Body *BlockStmt
}

// EmptyMember is a stray semicolon in a class body.
type EmptyMember struct{ NodeInfo }

func (*Constructor) classMemberNode()      {}
func (*ClassMethod) classMemberNode()      {}
func (*ClassProp) classMemberNode()        {}
func (*StaticBlock) classMemberNode()      {}
func (*EmptyMember) classMemberNode()      {}
func (*TsIndexSignature) classMemberNode() {}

package ast

import "github.com/leapstack-labs/leapmacro/pkg/token"

// ThisExpr is `this`.
type ThisExpr struct{ NodeInfo }

// SuperExpr is `super`, only valid as a callee or member object.
type SuperExpr struct{ NodeInfo }

// ImportExpr is the callee of a dynamic `import(...)` call.
type ImportExpr struct{ NodeInfo }

// MetaProp is `import.meta` or `new.target`.
type MetaProp struct {
	NodeInfo
	Meta     string // "import" or "new"
	Property string // "meta" or "target"
}

// Str is a string literal.
type Str struct {
	NodeInfo
	Value string
	Raw   string // empty when synthesized
}

// Num is a numeric literal.
type Num struct {
	NodeInfo
	Value float64
	Raw   string
}

// BigInt is a bigint literal. Raw includes the trailing n.
type BigInt struct {
	NodeInfo
	Raw string
}

// Bool is `true` or `false`.
type Bool struct {
	NodeInfo
	Value bool
}

// Null is `null`.
type Null struct{ NodeInfo }

// Regex is a regular expression literal.
type Regex struct {
	NodeInfo
	Pattern string
	Flags   string
}

// TplElement is one literal chunk of a template.
type TplElement struct {
	NodeInfo
	Raw    string
	Cooked *string // nil when the chunk has an invalid escape (tagged templates only)
	Tail   bool
}

// Tpl is a template literal. len(Quasis) == len(Exprs)+1.
type Tpl struct {
	NodeInfo
	Quasis []*TplElement
	Exprs  []Expr
}

// TaggedTpl is tag`...`.
type TaggedTpl struct {
	NodeInfo
	Tag      Expr
	TypeArgs *TsTypeArgs
	Tpl      *Tpl
}

// ArrayLit is [a, , ...b]. Holes are nil.
type ArrayLit struct {
	NodeInfo
	Elems []Expr
}

// SpreadElement is ...arg in arrays, calls and object literals.
type SpreadElement struct {
	NodeInfo
	Arg Expr
}

// ObjectLit is { ... }.
type ObjectLit struct {
	NodeInfo
	Props []Prop
}

// Prop is a member of an object literal.
type Prop interface {
	Node
	propNode()
}

// KeyValueProp is key: value.
type KeyValueProp struct {
	NodeInfo
	Key   Expr // *Ident, *Str, *Num, *BigInt or *ComputedPropName
	Value Expr
}

// ShorthandProp is { a }.
type ShorthandProp struct {
	NodeInfo
	Ident *Ident
}

// AssignProp is { a = 1 }, only valid once converted to a pattern.
type AssignProp struct {
	NodeInfo
	Key   *Ident
	Value Expr
}

// MethodKind distinguishes methods from accessors.
type MethodKind int

// Method kinds.
const (
	MethodNormal MethodKind = iota
	MethodGetter
	MethodSetter
)

// MethodProp is a method, getter or setter in an object literal.
type MethodProp struct {
	NodeInfo
	Kind     MethodKind
	Key      Expr
	Function *Function
}

// ComputedPropName is [expr] used as a key.
type ComputedPropName struct {
	NodeInfo
	Expr Expr
}

func (*KeyValueProp) propNode()  {}
func (*ShorthandProp) propNode() {}
func (*AssignProp) propNode()    {}
func (*MethodProp) propNode()    {}
func (*SpreadElement) propNode() {}

// FnExpr is a function expression.
type FnExpr struct {
	NodeInfo
	Ident    *Ident
	Function *Function
}

// ArrowExpr is an arrow function. Body is *BlockStmt or Expr.
type ArrowExpr struct {
	NodeInfo
	Async      bool
	TypeParams *TsTypeParamDecl
	Params     []Pat
	ReturnType Type
	Body       Node
}

// ClassExpr is a class expression.
type ClassExpr struct {
	NodeInfo
	Ident *Ident
	Class *Class
}

// UnaryExpr is a prefix operator: - + ! ~ typeof void delete.
type UnaryExpr struct {
	NodeInfo
	Op  token.TokenType
	Arg Expr
}

// UpdateExpr is ++ or --.
type UpdateExpr struct {
	NodeInfo
	Op     token.TokenType
	Prefix bool
	Arg    Expr
}

// BinExpr is a binary or logical operation.
type BinExpr struct {
	NodeInfo
	Op    token.TokenType
	Left  Expr
	Right Expr
}

// AssignExpr is an assignment. Left is a pattern for `=` and an *ExprPat otherwise.
type AssignExpr struct {
	NodeInfo
	Op    token.TokenType
	Left  Pat
	Right Expr
}

// MemberExpr is obj.prop, obj[prop], obj.#priv or their optional forms.
type MemberExpr struct {
	NodeInfo
	Object   Expr
	Property Expr // *Ident, *PrivateName or any Expr when Computed
	Computed bool
	Optional bool // this link is ?.
}

// CallExpr is a call. Callee may be *SuperExpr or *ImportExpr.
type CallExpr struct {
	NodeInfo
	Callee   Expr
	TypeArgs *TsTypeArgs
	Args     []Expr
	Optional bool // this link is ?.()
}

// ChainExpr wraps an optional chain so that a short circuit ends at its boundary.
type ChainExpr struct {
	NodeInfo
	Expr Expr
}

// NewExpr is new C(args). Args is nil when the parentheses are omitted.
type NewExpr struct {
	NodeInfo
	Callee   Expr
	TypeArgs *TsTypeArgs
	Args     []Expr
}

// SeqExpr is a, b, c.
type SeqExpr struct {
	NodeInfo
	Exprs []Expr
}

// CondExpr is test ? cons : alt.
type CondExpr struct {
	NodeInfo
	Test Expr
	Cons Expr
	Alt  Expr
}

// YieldExpr is yield or yield*.
type YieldExpr struct {
	NodeInfo
	Arg      Expr
	Delegate bool
}

// AwaitExpr is await arg.
type AwaitExpr struct {
	NodeInfo
	Arg Expr
}

// ParenExpr keeps explicit parentheses from the source.
type ParenExpr struct {
	NodeInfo
	Expr Expr
}

// Invalid is produced when a pattern is converted from an expression that
// cannot be an assignment target. It never reaches a successful parse result.
type Invalid struct{ NodeInfo }

func (*ThisExpr) exprNode()         {}
func (*SuperExpr) exprNode()        {}
func (*ImportExpr) exprNode()       {}
func (*MetaProp) exprNode()         {}
func (*Str) exprNode()              {}
func (*Num) exprNode()              {}
func (*BigInt) exprNode()           {}
func (*Bool) exprNode()             {}
func (*Null) exprNode()             {}
func (*Regex) exprNode()            {}
func (*Tpl) exprNode()              {}
func (*TaggedTpl) exprNode()        {}
func (*ArrayLit) exprNode()         {}
func (*SpreadElement) exprNode()    {}
func (*ObjectLit) exprNode()        {}
func (*ComputedPropName) exprNode() {}
func (*FnExpr) exprNode()           {}
func (*ArrowExpr) exprNode()        {}
func (*ClassExpr) exprNode()        {}
func (*UnaryExpr) exprNode()        {}
func (*UpdateExpr) exprNode()       {}
func (*BinExpr) exprNode()          {}
func (*AssignExpr) exprNode()       {}
func (*MemberExpr) exprNode()       {}
func (*CallExpr) exprNode()         {}
func (*ChainExpr) exprNode()        {}
func (*NewExpr) exprNode()          {}
func (*SeqExpr) exprNode()          {}
func (*CondExpr) exprNode()         {}
func (*YieldExpr) exprNode()        {}
func (*AwaitExpr) exprNode()        {}
func (*ParenExpr) exprNode()        {}
func (*Invalid) exprNode()          {}

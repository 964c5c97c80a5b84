package ast

// Type is a TypeScript type node.
type Type interface {
	Node
	typeNode()
}

// TsTypeParamDecl is <T extends U = V, ...> on a declaration.
type TsTypeParamDecl struct {
	NodeInfo
	Params []*TsTypeParam
}

// TsTypeParam is one type parameter.
type TsTypeParam struct {
	NodeInfo
	Name       *Ident
	In         bool
	Out        bool
	Const      bool
	Constraint Type
	Default    Type
}

// TsTypeArgs is <A, B> on a reference, call or new.
type TsTypeArgs struct {
	NodeInfo
	Params []Type
}

// TsExprWithTypeArgs is a heritage clause entry: Base<T>.
type TsExprWithTypeArgs struct {
	NodeInfo
	Expr     Expr // *Ident or *MemberExpr
	TypeArgs *TsTypeArgs
}

// TsKeywordType is any, unknown, number, string, void, never, ...
type TsKeywordType struct {
	NodeInfo
	Keyword string
}

// TsThisType is `this` in a type position.
type TsThisType struct{ NodeInfo }

// TsTypeRef is a named type: A.B<C>.
type TsTypeRef struct {
	NodeInfo
	Name     Expr // *Ident or *TsQualifiedName
	TypeArgs *TsTypeArgs
}

// TsQualifiedName is Left.Right in a type or entity name.
type TsQualifiedName struct {
	NodeInfo
	Left  Expr // *Ident or *TsQualifiedName
	Right *Ident
}

// TsArrayType is T[].
type TsArrayType struct {
	NodeInfo
	Elem Type
}

// TsTupleType is [A, b?: B, ...C].
type TsTupleType struct {
	NodeInfo
	Elems []*TsTupleElement
}

// TsTupleElement is one tuple member, possibly labelled.
type TsTupleElement struct {
	NodeInfo
	Label    *Ident
	Optional bool
	Rest     bool
	Type     Type
}

// TsOptionalType is T? inside a tuple.
type TsOptionalType struct {
	NodeInfo
	Type Type
}

// TsRestType is ...T inside a tuple.
type TsRestType struct {
	NodeInfo
	Type Type
}

// TsUnionType is A | B.
type TsUnionType struct {
	NodeInfo
	Types []Type
}

// TsIntersectionType is A & B.
type TsIntersectionType struct {
	NodeInfo
	Types []Type
}

// TsFnType is (a: A) => R or new (a: A) => R.
type TsFnType struct {
	NodeInfo
	Constructor bool
	Abstract    bool
	TypeParams  *TsTypeParamDecl
	Params      []Pat
	Return      Type
}

// TsTypeLit is { members }.
type TsTypeLit struct {
	NodeInfo
	Members []TsTypeMember
}

// TsParenType is (T).
type TsParenType struct {
	NodeInfo
	Type Type
}

// TsTypeQuery is typeof x.y<T>.
type TsTypeQuery struct {
	NodeInfo
	ExprName Node // entity name or *TsImportType
	TypeArgs *TsTypeArgs
}

// TsTypeOperator is keyof T, unique T or readonly T.
type TsTypeOperator struct {
	NodeInfo
	Op   string
	Type Type
}

// TsIndexedAccessType is T[K].
type TsIndexedAccessType struct {
	NodeInfo
	Object Type
	Index  Type
}

// TsConditionalType is C extends E ? T : F.
type TsConditionalType struct {
	NodeInfo
	Check   Type
	Extends Type
	True    Type
	False   Type
}

// TsInferType is infer T [extends C].
type TsInferType struct {
	NodeInfo
	Param *TsTypeParam
}

// TsMappedType is { [K in T as N]?: V }.
type TsMappedType struct {
	NodeInfo
	Readonly string // "", "+", "-" or "readonly"
	Param    *TsTypeParam
	NameType Type
	Optional string // "", "+", "-" or "?"
	Type     Type
}

// TsLitType is a literal used as a type: "a", 1, -1, true, `a${B}`.
type TsLitType struct {
	NodeInfo
	Lit Node // *Str, *Num, *BigInt, *Bool, *UnaryExpr or *TsTplLitType
}

// TsTplLitType is a template literal type.
type TsTplLitType struct {
	NodeInfo
	Quasis []*TplElement
	Types  []Type
}

// TsTypePredicate is x is T, asserts x or asserts x is T.
type TsTypePredicate struct {
	NodeInfo
	Asserts bool
	Param   Node // *Ident or *TsThisType
	Type    Type
}

// TsImportType is import("x").A<B>.
type TsImportType struct {
	NodeInfo
	Arg       *Str
	Qualifier Expr
	TypeArgs  *TsTypeArgs
}

func (*TsKeywordType) typeNode()       {}
func (*TsThisType) typeNode()          {}
func (*TsTypeRef) typeNode()           {}
func (*TsArrayType) typeNode()         {}
func (*TsTupleType) typeNode()         {}
func (*TsOptionalType) typeNode()      {}
func (*TsRestType) typeNode()          {}
func (*TsUnionType) typeNode()         {}
func (*TsIntersectionType) typeNode()  {}
func (*TsFnType) typeNode()            {}
func (*TsTypeLit) typeNode()           {}
func (*TsParenType) typeNode()         {}
func (*TsTypeQuery) typeNode()         {}
func (*TsTypeOperator) typeNode()      {}
func (*TsIndexedAccessType) typeNode() {}
func (*TsConditionalType) typeNode()   {}
func (*TsInferType) typeNode()         {}
func (*TsMappedType) typeNode()        {}
func (*TsLitType) typeNode()           {}
func (*TsTplLitType) typeNode()        {}
func (*TsTypePredicate) typeNode()     {}
func (*TsImportType) typeNode()        {}

func (*TsQualifiedName) exprNode() {}

// TsTypeMember is a member of an interface body or type literal.
type TsTypeMember interface {
	Node
	tsTypeMemberNode()
}

// TsPropertySignature is [readonly] key[?]: T.
type TsPropertySignature struct {
	NodeInfo
	Readonly bool
	Key      Expr
	Computed bool
	Optional bool
	TypeAnn  Type
}

// TsMethodSignature is key[?]<T>(params): R, or a get/set accessor signature.
type TsMethodSignature struct {
	NodeInfo
	Kind       MethodKind
	Key        Expr
	Computed   bool
	Optional   bool
	TypeParams *TsTypeParamDecl
	Params     []Pat
	Return     Type
}

// TsCallSignature is <T>(params): R, or new <T>(params): R when Construct.
type TsCallSignature struct {
	NodeInfo
	Construct  bool
	TypeParams *TsTypeParamDecl
	Params     []Pat
	Return     Type
}

// TsIndexSignature is [readonly] [key: K]: V. It also appears in class bodies.
type TsIndexSignature struct {
	NodeInfo
	Static   bool
	Readonly bool
	Params   []Pat
	TypeAnn  Type
}

func (*TsPropertySignature) tsTypeMemberNode() {}
func (*TsMethodSignature) tsTypeMemberNode()   {}
func (*TsCallSignature) tsTypeMemberNode()     {}
func (*TsIndexSignature) tsTypeMemberNode()    {}

// TsInterfaceDecl is interface I<T> extends A, B { body }.
type TsInterfaceDecl struct {
	NodeInfo
	Declare    bool
	ID         *Ident
	TypeParams *TsTypeParamDecl
	Extends    []*TsExprWithTypeArgs
	Body       []TsTypeMember
}

// TsTypeAliasDecl is type A<T> = B.
type TsTypeAliasDecl struct {
	NodeInfo
	Declare    bool
	ID         *Ident
	TypeParams *TsTypeParamDecl
	Type       Type
}

// TsEnumDecl is [const] enum E { members }.
type TsEnumDecl struct {
	NodeInfo
	Declare bool
	Const   bool
	ID      *Ident
	Members []*TsEnumMember
}

// TsEnumMember is name [= init].
type TsEnumMember struct {
	NodeInfo
	ID   Expr // *Ident or *Str
	Init Expr
}

// TsModuleDecl is namespace A.B { } , module "x" { } or declare global { }.
type TsModuleDecl struct {
	NodeInfo
	Declare   bool
	Global    bool
	Namespace bool // declared with the namespace keyword
	ID        Expr // *Ident or *Str
	Body      Node // *TsModuleBlock, *TsModuleDecl for dotted names, or nil
}

// TsModuleBlock is the body of a namespace or module declaration.
type TsModuleBlock struct {
	NodeInfo
	Body []ModuleItem
}

func (*TsInterfaceDecl) moduleItemNode() {}
func (*TsTypeAliasDecl) moduleItemNode() {}
func (*TsEnumDecl) moduleItemNode()      {}
func (*TsModuleDecl) moduleItemNode()    {}

func (*TsInterfaceDecl) stmtNode() {}
func (*TsTypeAliasDecl) stmtNode() {}
func (*TsEnumDecl) stmtNode()      {}
func (*TsModuleDecl) stmtNode()    {}

func (*TsInterfaceDecl) declNode() {}
func (*TsTypeAliasDecl) declNode() {}
func (*TsEnumDecl) declNode()      {}
func (*TsModuleDecl) declNode()    {}

// TsAsExpr is expr as T.
type TsAsExpr struct {
	NodeInfo
	Expr Expr
	Type Type
}

// TsConstAssertion is expr as const.
type TsConstAssertion struct {
	NodeInfo
	Expr Expr
}

// TsSatisfiesExpr is expr satisfies T.
type TsSatisfiesExpr struct {
	NodeInfo
	Expr Expr
	Type Type
}

// TsNonNullExpr is expr!.
type TsNonNullExpr struct {
	NodeInfo
	Expr Expr
}

// TsTypeAssertion is <T>expr.
type TsTypeAssertion struct {
	NodeInfo
	Type Type
	Expr Expr
}

// TsInstantiation is expr<T> without a call.
type TsInstantiation struct {
	NodeInfo
	Expr     Expr
	TypeArgs *TsTypeArgs
}

func (*TsAsExpr) exprNode()         {}
func (*TsConstAssertion) exprNode() {}
func (*TsSatisfiesExpr) exprNode()  {}
func (*TsNonNullExpr) exprNode()    {}
func (*TsTypeAssertion) exprNode()  {}
func (*TsInstantiation) exprNode()  {}

// UnwrapTS strips TypeScript-only wrappers and parentheses from e.
func UnwrapTS(e Expr) Expr {
	for {
		switch x := e.(type) {
		case *TsAsExpr:
			e = x.Expr
		case *TsConstAssertion:
			e = x.Expr
		case *TsSatisfiesExpr:
			e = x.Expr
		case *TsNonNullExpr:
			e = x.Expr
		case *TsTypeAssertion:
			e = x.Expr
		case *ParenExpr:
			e = x.Expr
		default:
			return e
		}
	}
}

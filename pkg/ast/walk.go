package ast

// Walk traverses the tree rooted at n in source order.
//
// pre is called for every node before its children; returning false skips the
// children. post is called for every node held in an expression slot after
// its children have been visited, and its result replaces the node in that
// slot. Either callback may be nil.
func Walk(n Node, pre func(Node) bool, post func(Expr) Expr) {
	if n == nil {
		return
	}
	w := &walker{pre: pre, post: post}
	w.any(n)
}

// Inspect calls f for every node in source order; returning false skips
// the node's children.
func Inspect(n Node, f func(Node) bool) {
	Walk(n, f, nil)
}

// Rewrite replaces expressions bottom-up: f receives every expression after
// its children were rewritten and returns its replacement.
func Rewrite(n Node, f func(Expr) Expr) {
	Walk(n, nil, f)
}

type walker struct {
	pre  func(Node) bool
	post func(Expr) Expr
}

func (w *walker) enter(n Node) bool {
	return w.pre == nil || w.pre(n)
}

// any dispatches on the node category.
func (w *walker) any(n Node) {
	switch n := n.(type) {
	case *Module:
		if w.enter(n) {
			w.items(n.Body)
		}
	case *Script:
		if w.enter(n) {
			w.stmts(n.Body)
		}
	case Expr:
		w.expr(n)
	case ModuleItem:
		w.item(n)
	case Pat:
		w.pat(n)
	case Type:
		w.typ(n)
	default:
		w.other(n)
	}
}

func (w *walker) items(items []ModuleItem) {
	for _, it := range items {
		w.item(it)
	}
}

func (w *walker) stmts(stmts []Stmt) {
	for _, s := range stmts {
		w.stmt(s)
	}
}

func (w *walker) exprs(list []Expr) {
	for i, e := range list {
		list[i] = w.expr(e)
	}
}

func (w *walker) item(it ModuleItem) {
	if it == nil {
		return
	}
	// Statements are module items too
	if s, ok := it.(Stmt); ok {
		w.stmt(s)
		return
	}
	if !w.enter(it) {
		return
	}
	switch n := it.(type) {
	case *ImportDecl:
		for _, s := range n.Specifiers {
			w.other(s)
		}
		w.str(n.Src)
		w.objectLit(n.With)
	case *ExportDecl:
		w.stmt(n.Decl)
	case *ExportNamed:
		for _, s := range n.Specifiers {
			w.other(s)
		}
		w.str(n.Src)
		w.objectLit(n.With)
	case *ExportAll:
		w.str(n.Src)
		w.objectLit(n.With)
	case *ExportDefaultDecl:
		// Function and class declarations are expressions here, interfaces are not
		switch d := n.Decl.(type) {
		case Expr:
			n.Decl = w.expr(d)
		case Stmt:
			w.stmt(d)
		}
	case *ExportDefaultExpr:
		n.Expr = w.expr(n.Expr)
	case *TsImportEquals:
		w.ident(n.ID)
		if n.Ref != nil {
			w.any(n.Ref)
		}
	case *TsExportAssignment:
		n.Expr = w.expr(n.Expr)
	case *TsNamespaceExport:
		w.ident(n.ID)
	}
}

func (w *walker) stmt(s Stmt) {
	if s == nil || !w.enter(s) {
		return
	}
	switch n := s.(type) {
	case *BlockStmt:
		w.stmts(n.Body)
	case *EmptyStmt, *DebuggerStmt:
	case *ExprStmt:
		n.Expr = w.expr(n.Expr)
	case *WithStmt:
		n.Object = w.expr(n.Object)
		w.stmt(n.Body)
	case *ReturnStmt:
		n.Arg = w.expr(n.Arg)
	case *LabeledStmt:
		w.ident(n.Label)
		w.stmt(n.Body)
	case *BreakStmt:
		w.ident(n.Label)
	case *ContinueStmt:
		w.ident(n.Label)
	case *IfStmt:
		n.Test = w.expr(n.Test)
		w.stmt(n.Cons)
		w.stmt(n.Alt)
	case *SwitchStmt:
		n.Discriminant = w.expr(n.Discriminant)
		for _, c := range n.Cases {
			if w.enter(c) {
				c.Test = w.expr(c.Test)
				w.stmts(c.Cons)
			}
		}
	case *ThrowStmt:
		n.Arg = w.expr(n.Arg)
	case *TryStmt:
		w.block(n.Block)
		if n.Handler != nil && w.enter(n.Handler) {
			w.pat(n.Handler.Param)
			w.block(n.Handler.Body)
		}
		w.block(n.Finalizer)
	case *WhileStmt:
		n.Test = w.expr(n.Test)
		w.stmt(n.Body)
	case *DoWhileStmt:
		w.stmt(n.Body)
		n.Test = w.expr(n.Test)
	case *ForStmt:
		n.Init = w.forHead(n.Init)
		n.Test = w.expr(n.Test)
		n.Update = w.expr(n.Update)
		w.stmt(n.Body)
	case *ForInStmt:
		n.Left = w.forHead(n.Left)
		n.Right = w.expr(n.Right)
		w.stmt(n.Body)
	case *ForOfStmt:
		n.Left = w.forHead(n.Left)
		n.Right = w.expr(n.Right)
		w.stmt(n.Body)
	case *VarDecl:
		w.varDecl(n)
	case *FnDecl:
		w.ident(n.Ident)
		w.function(n.Function)
	case *ClassDecl:
		w.ident(n.Ident)
		w.class(n.Class)
	case *TsInterfaceDecl:
		w.ident(n.ID)
		w.typeParams(n.TypeParams)
		for _, e := range n.Extends {
			w.exprWithTypeArgs(e)
		}
		for _, m := range n.Body {
			w.other(m)
		}
	case *TsTypeAliasDecl:
		w.ident(n.ID)
		w.typeParams(n.TypeParams)
		w.typ(n.Type)
	case *TsEnumDecl:
		w.ident(n.ID)
		for _, m := range n.Members {
			if w.enter(m) {
				m.ID = w.expr(m.ID)
				m.Init = w.expr(m.Init)
			}
		}
	case *TsModuleDecl:
		w.tsModule(n)
	}
}

// tsModule walks a namespace, following dotted names into nested
// declarations.
func (w *walker) tsModule(n *TsModuleDecl) {
	n.ID = w.expr(n.ID)
	switch b := n.Body.(type) {
	case *TsModuleBlock:
		if w.enter(b) {
			w.items(b.Body)
		}
	case *TsModuleDecl:
		if w.enter(b) {
			w.tsModule(b)
		}
	}
}

// forHead walks the left side of a for statement, which is a declaration,
// a pattern, or an expression.
func (w *walker) forHead(n Node) Node {
	switch h := n.(type) {
	case nil:
		return nil
	case *VarDecl:
		if w.enter(h) {
			w.varDecl(h)
		}
		return h
	case Expr:
		return w.expr(h)
	case Pat:
		// Patterns are never replaced
		w.pat(h)
	}
	return n
}

func (w *walker) varDecl(n *VarDecl) {
	for _, d := range n.Decls {
		if w.enter(d) {
			w.pat(d.Name)
			d.Init = w.expr(d.Init)
		}
	}
}

func (w *walker) block(b *BlockStmt) {
	if b != nil {
		w.stmt(b)
	}
}

func (w *walker) ident(id *Ident) {
	if id == nil || !w.enter(id) {
		return
	}
	w.typ(id.TypeAnn)
}

func (w *walker) str(s *Str) {
	if s != nil {
		w.enter(s)
	}
}

func (w *walker) objectLit(o *ObjectLit) {
	if o != nil {
		w.expr(o)
	}
}

func (w *walker) expr(e Expr) Expr {
	// A skipped subtree is not rewritten either
	if e == nil || !w.enter(e) {
		return e
	}
	switch n := e.(type) {
	case *Ident:
		w.typ(n.TypeAnn)
	case *ThisExpr, *SuperExpr, *ImportExpr, *MetaProp, *Str, *Num, *BigInt,
		*Bool, *Null, *Regex, *PrivateName, *JSXText, *JSXEmptyExpr, *Invalid:
	case *Tpl:
		w.tpl(n)
	case *TaggedTpl:
		n.Tag = w.expr(n.Tag)
		w.typeArgs(n.TypeArgs)
		w.tpl(n.Tpl)
	case *ArrayLit:
		w.exprs(n.Elems)
	case *SpreadElement:
		n.Arg = w.expr(n.Arg)
	case *ObjectLit:
		for _, p := range n.Props {
			w.prop(p)
		}
	case *ComputedPropName:
		n.Expr = w.expr(n.Expr)
	case *FnExpr:
		w.ident(n.Ident)
		w.function(n.Function)
	case *ArrowExpr:
		w.typeParams(n.TypeParams)
		for _, p := range n.Params {
			w.pat(p)
		}
		w.typ(n.ReturnType)
		switch b := n.Body.(type) {
		case *BlockStmt:
			w.stmt(b)
		case Expr:
			n.Body = w.expr(b)
		}
	case *ClassExpr:
		w.ident(n.Ident)
		w.class(n.Class)
	case *UnaryExpr:
		n.Arg = w.expr(n.Arg)
	case *UpdateExpr:
		n.Arg = w.expr(n.Arg)
	case *BinExpr:
		n.Left = w.expr(n.Left)
		n.Right = w.expr(n.Right)
	case *AssignExpr:
		w.pat(n.Left)
		n.Right = w.expr(n.Right)
	case *MemberExpr:
		n.Object = w.expr(n.Object)
		n.Property = w.expr(n.Property)
	case *CallExpr:
		n.Callee = w.expr(n.Callee)
		w.typeArgs(n.TypeArgs)
		w.exprs(n.Args)
	case *ChainExpr:
		n.Expr = w.expr(n.Expr)
	case *NewExpr:
		n.Callee = w.expr(n.Callee)
		w.typeArgs(n.TypeArgs)
		w.exprs(n.Args)
	case *SeqExpr:
		w.exprs(n.Exprs)
	case *CondExpr:
		n.Test = w.expr(n.Test)
		n.Cons = w.expr(n.Cons)
		n.Alt = w.expr(n.Alt)
	case *YieldExpr:
		n.Arg = w.expr(n.Arg)
	case *AwaitExpr:
		n.Arg = w.expr(n.Arg)
	case *ParenExpr:
		n.Expr = w.expr(n.Expr)
	case *TsQualifiedName:
		n.Left = w.expr(n.Left)
		w.ident(n.Right)
	case *TsAsExpr:
		n.Expr = w.expr(n.Expr)
		w.typ(n.Type)
	case *TsConstAssertion:
		n.Expr = w.expr(n.Expr)
	case *TsSatisfiesExpr:
		n.Expr = w.expr(n.Expr)
		w.typ(n.Type)
	case *TsNonNullExpr:
		n.Expr = w.expr(n.Expr)
	case *TsTypeAssertion:
		w.typ(n.Type)
		n.Expr = w.expr(n.Expr)
	case *TsInstantiation:
		n.Expr = w.expr(n.Expr)
		w.typeArgs(n.TypeArgs)
	case *JSXElement:
		w.jsxOpening(n.Opening)
		w.exprs(n.Children)
		if n.Closing != nil && w.enter(n.Closing) {
			n.Closing.Name = w.expr(n.Closing.Name)
		}
	case *JSXFragment:
		w.exprs(n.Children)
	case *JSXExprContainer:
		n.Expr = w.expr(n.Expr)
	case *JSXSpreadChild:
		n.Expr = w.expr(n.Expr)
	case *JSXMemberExpr:
		n.Object = w.expr(n.Object)
		w.ident(n.Property)
	case *JSXNamespacedName:
		w.ident(n.NS)
		w.ident(n.Name)
	}
	// Children first, so post sees already rewritten arguments
	if w.post != nil {
		return w.post(e)
	}
	return e
}

func (w *walker) tpl(t *Tpl) {
	if t == nil {
		return
	}
	// Quasis and expressions alternate in source order
	for i, q := range t.Quasis {
		w.enter(q)
		if i < len(t.Exprs) {
			t.Exprs[i] = w.expr(t.Exprs[i])
		}
	}
}

func (w *walker) jsxOpening(o *JSXOpeningElement) {
	if o == nil || !w.enter(o) {
		return
	}
	o.Name = w.expr(o.Name)
	w.typeArgs(o.TypeArgs)
	for _, a := range o.Attrs {
		if !w.enter(a) {
			continue
		}
		switch a := a.(type) {
		case *JSXAttr:
			a.Name = w.expr(a.Name)
			a.Value = w.expr(a.Value)
		case *JSXSpreadAttr:
			a.Arg = w.expr(a.Arg)
		}
	}
}

func (w *walker) prop(p Prop) {
	// A spread property is an expression slot of its own
	if sp, ok := p.(*SpreadElement); ok {
		w.expr(sp)
		return
	}
	if !w.enter(p) {
		return
	}
	switch n := p.(type) {
	case *KeyValueProp:
		n.Key = w.expr(n.Key)
		n.Value = w.expr(n.Value)
	case *ShorthandProp:
		// {a} keeps its identifier even if post returns something else
		w.expr(n.Ident)
	case *AssignProp:
		w.ident(n.Key)
		n.Value = w.expr(n.Value)
	case *MethodProp:
		n.Key = w.expr(n.Key)
		w.function(n.Function)
	}
}

func (w *walker) pat(p Pat) {
	if p == nil {
		return
	}
	if id, ok := p.(*Ident); ok {
		w.ident(id)
		return
	}
	if !w.enter(p) {
		return
	}
	switch n := p.(type) {
	case *ArrayPat:
		for _, e := range n.Elems {
			w.pat(e)
		}
		w.typ(n.TypeAnn)
	case *ObjectPat:
		for _, prop := range n.Props {
			switch pp := prop.(type) {
			case *KeyValuePatProp:
				if w.enter(pp) {
					pp.Key = w.expr(pp.Key)
					w.pat(pp.Value)
				}
			case *AssignPatProp:
				if w.enter(pp) {
					w.ident(pp.Key)
					pp.Value = w.expr(pp.Value)
				}
			case *RestPat:
				w.pat(pp)
			}
		}
		w.typ(n.TypeAnn)
	case *AssignPat:
		w.pat(n.Left)
		n.Right = w.expr(n.Right)
	case *RestPat:
		w.pat(n.Arg)
		w.typ(n.TypeAnn)
	case *ExprPat:
		n.Expr = w.expr(n.Expr)
	}
}

func (w *walker) function(f *Function) {
	if f == nil || !w.enter(f) {
		return
	}
	w.typeParams(f.TypeParams)
	for _, p := range f.Params {
		w.param(p)
	}
	w.typ(f.ReturnType)
	w.block(f.Body)
}

func (w *walker) param(p *Param) {
	if p == nil || !w.enter(p) {
		return
	}
	w.decorators(p.Decorators)
	w.pat(p.Pat)
}

func (w *walker) decorators(ds []*Decorator) {
	for _, d := range ds {
		if w.enter(d) {
			d.Expr = w.expr(d.Expr)
		}
	}
}

func (w *walker) class(c *Class) {
	if c == nil || !w.enter(c) {
		return
	}
	w.decorators(c.Decorators)
	w.typeParams(c.TypeParams)
	c.SuperClass = w.expr(c.SuperClass)
	w.typeArgs(c.SuperTypeArgs)
	for _, impl := range c.Implements {
		w.exprWithTypeArgs(impl)
	}
	for _, m := range c.Body {
		if !w.enter(m) {
			continue
		}
		switch m := m.(type) {
		case *Constructor:
			m.Key = w.expr(m.Key)
			w.function(m.Function)
		case *ClassMethod:
			w.decorators(m.Decorators)
			m.Key = w.expr(m.Key)
			w.function(m.Function)
		case *ClassProp:
			w.decorators(m.Decorators)
			m.Key = w.expr(m.Key)
			w.typ(m.TypeAnn)
			m.Value = w.expr(m.Value)
		case *StaticBlock:
			w.block(m.Body)
		case *TsIndexSignature:
			w.indexSignature(m)
		}
	}
}

func (w *walker) exprWithTypeArgs(e *TsExprWithTypeArgs) {
	if e == nil || !w.enter(e) {
		return
	}
	e.Expr = w.expr(e.Expr)
	w.typeArgs(e.TypeArgs)
}

func (w *walker) typeParams(tp *TsTypeParamDecl) {
	if tp == nil || !w.enter(tp) {
		return
	}
	for _, p := range tp.Params {
		w.typeParam(p)
	}
}

func (w *walker) typeParam(p *TsTypeParam) {
	if p == nil || !w.enter(p) {
		return
	}
	w.ident(p.Name)
	w.typ(p.Constraint)
	w.typ(p.Default)
}

func (w *walker) typeArgs(ta *TsTypeArgs) {
	if ta == nil || !w.enter(ta) {
		return
	}
	for _, t := range ta.Params {
		w.typ(t)
	}
}

func (w *walker) indexSignature(s *TsIndexSignature) {
	for _, p := range s.Params {
		w.pat(p)
	}
	w.typ(s.TypeAnn)
}

func (w *walker) typ(t Type) {
	if t == nil || !w.enter(t) {
		return
	}
	switch n := t.(type) {
	case *TsKeywordType, *TsThisType:
	case *TsTypeRef:
		n.Name = w.expr(n.Name)
		w.typeArgs(n.TypeArgs)
	case *TsArrayType:
		w.typ(n.Elem)
	case *TsTupleType:
		for _, e := range n.Elems {
			if w.enter(e) {
				w.ident(e.Label)
				w.typ(e.Type)
			}
		}
	case *TsOptionalType:
		w.typ(n.Type)
	case *TsRestType:
		w.typ(n.Type)
	case *TsUnionType:
		for _, x := range n.Types {
			w.typ(x)
		}
	case *TsIntersectionType:
		for _, x := range n.Types {
			w.typ(x)
		}
	case *TsFnType:
		w.typeParams(n.TypeParams)
		for _, p := range n.Params {
			w.pat(p)
		}
		w.typ(n.Return)
	case *TsTypeLit:
		for _, m := range n.Members {
			w.other(m)
		}
	case *TsParenType:
		w.typ(n.Type)
	case *TsTypeQuery:
		w.any(n.ExprName)
		w.typeArgs(n.TypeArgs)
	case *TsTypeOperator:
		w.typ(n.Type)
	case *TsIndexedAccessType:
		w.typ(n.Object)
		w.typ(n.Index)
	case *TsConditionalType:
		w.typ(n.Check)
		w.typ(n.Extends)
		w.typ(n.True)
		w.typ(n.False)
	case *TsInferType:
		w.typeParam(n.Param)
	case *TsMappedType:
		w.typeParam(n.Param)
		w.typ(n.NameType)
		w.typ(n.Type)
	case *TsLitType:
		w.any(n.Lit)
	case *TsTplLitType:
		for i, q := range n.Quasis {
			w.enter(q)
			if i < len(n.Types) {
				w.typ(n.Types[i])
			}
		}
	case *TsTypePredicate:
		w.any(n.Param)
		w.typ(n.Type)
	case *TsImportType:
		w.str(n.Arg)
		n.Qualifier = w.expr(n.Qualifier)
		w.typeArgs(n.TypeArgs)
	}
}

// other walks nodes that belong to no slot category: specifiers and type members.
func (w *walker) other(n Node) {
	if n == nil || !w.enter(n) {
		return
	}
	switch n := n.(type) {
	case *ImportNamed:
		n.Imported = w.expr(n.Imported)
		w.ident(n.Local)
	case *ImportDefault:
		w.ident(n.Local)
	case *ImportNamespace:
		w.ident(n.Local)
	case *ExportNamedSpec:
		n.Orig = w.expr(n.Orig)
		n.Exported = w.expr(n.Exported)
	case *ExportNamespaceSpec:
		n.Name = w.expr(n.Name)
	case *TsExternalModuleRef:
		w.str(n.Expr)
	case *TsPropertySignature:
		n.Key = w.expr(n.Key)
		w.typ(n.TypeAnn)
	case *TsMethodSignature:
		n.Key = w.expr(n.Key)
		w.typeParams(n.TypeParams)
		for _, p := range n.Params {
			w.pat(p)
		}
		w.typ(n.Return)
	case *TsCallSignature:
		w.typeParams(n.TypeParams)
		for _, p := range n.Params {
			w.pat(p)
		}
		w.typ(n.Return)
	case *TsIndexSignature:
		w.indexSignature(n)
	}
}

// Package resolver annotates identifiers with the scope mark of the binding
// they refer to.
//
// Every lexical scope gets a fresh mark. Declarations are collected before a
// scope's body is visited, so a reference that appears before its hoisted
// declaration still resolves to it. Identifiers with no declaration in the
// chain get the unresolved mark. Identifiers that are not references (member
// property names, non-computed keys, labels, intrinsic JSX tags and anything
// in a type position) keep mark.Empty.
package resolver

import (
	"github.com/leapstack-labs/leapmacro/pkg/ast"
	"github.com/leapstack-labs/leapmacro/pkg/mark"
)

// Marks is the mark pair of one invocation plus the table that minted it.
type Marks struct {
	Globals    *mark.Globals
	Global     mark.Mark // top-level bindings
	Unresolved mark.Mark // identifiers with no declaration
}

// NewMarks mints a fresh pair from g. A nil g gets a new table.
func NewMarks(g *mark.Globals) Marks {
	if g == nil {
		g = mark.NewGlobals()
	}
	return Marks{Globals: g, Global: g.Fresh(), Unresolved: g.Fresh()}
}

// Resolver walks a program and assigns marks.
type Resolver struct {
	marks Marks
	scope *Scope
}

// Resolve annotates prog in place.
func Resolve(prog ast.Program, marks Marks) {
	if marks.Globals == nil {
		marks.Globals = mark.NewGlobals()
	}
	r := &Resolver{marks: marks}
	r.resolveModule(ast.NormalizeModule(prog))
}

func (r *Resolver) resolveModule(mod *ast.Module) {
	if mod == nil {
		return
	}
	// Top-level bindings carry the global mark
	r.scope = newScope(ScopeProgram, r.marks.Global, nil)
	r.hoistVars(itemStmts(mod.Body))
	r.declareItems(mod.Body)
	r.items(mod.Body)
}

// ---------- Scopes ----------

func (r *Resolver) push(kind ScopeKind) *Scope {
	r.scope = newScope(kind, r.marks.Globals.Fresh(), r.scope)
	return r.scope
}

func (r *Resolver) pop() {
	r.scope = r.scope.parent
}

// mark sets the context of id from the scope chain.
func (r *Resolver) mark(id *ast.Ident) {
	if id == nil {
		return
	}
	if s, ok := r.scope.Lookup(id.Name); ok {
		id.Ctxt = s.Mark
		return
	}
	id.Ctxt = r.marks.Unresolved
}

// ---------- Declaration collection ----------

// itemStmts returns the statements of a module body, unwrapping
// export declarations.
func itemStmts(items []ast.ModuleItem) []ast.Stmt {
	stmts := make([]ast.Stmt, 0, len(items))
	for _, it := range items {
		switch it := it.(type) {
		case ast.Stmt:
			stmts = append(stmts, it)
		case *ast.ExportDecl:
			stmts = append(stmts, it.Decl)
		}
	}
	return stmts
}

// hoistVars declares every var binding in stmts in the nearest function scope.
// It does not descend into nested functions, classes or module blocks.
func (r *Resolver) hoistVars(stmts []ast.Stmt) {
	target := r.scope.functionScope()
	for _, s := range stmts {
		hoistStmt(target, s)
	}
}

func hoistStmt(target *Scope, s ast.Stmt) {
	switch s := s.(type) {
	case *ast.VarDecl:
		hoistDecl(target, s)
	case *ast.BlockStmt:
		for _, b := range s.Body {
			hoistStmt(target, b)
		}
	case *ast.IfStmt:
		hoistStmt(target, s.Cons)
		if s.Alt != nil {
			hoistStmt(target, s.Alt)
		}
	case *ast.LabeledStmt:
		hoistStmt(target, s.Body)
	case *ast.WithStmt:
		hoistStmt(target, s.Body)
	case *ast.WhileStmt:
		hoistStmt(target, s.Body)
	case *ast.DoWhileStmt:
		hoistStmt(target, s.Body)
	case *ast.ForStmt:
		if d, ok := s.Init.(*ast.VarDecl); ok {
			hoistDecl(target, d)
		}
		hoistStmt(target, s.Body)
	case *ast.ForInStmt:
		if d, ok := s.Left.(*ast.VarDecl); ok {
			hoistDecl(target, d)
		}
		hoistStmt(target, s.Body)
	case *ast.ForOfStmt:
		if d, ok := s.Left.(*ast.VarDecl); ok {
			hoistDecl(target, d)
		}
		hoistStmt(target, s.Body)
	case *ast.SwitchStmt:
		for _, c := range s.Cases {
			for _, b := range c.Cons {
				hoistStmt(target, b)
			}
		}
	case *ast.TryStmt:
		hoistStmt(target, s.Block)
		if s.Handler != nil {
			hoistStmt(target, s.Handler.Body)
		}
		if s.Finalizer != nil {
			hoistStmt(target, s.Finalizer)
		}
	}
}

func hoistDecl(target *Scope, d *ast.VarDecl) {
	if d.Kind != ast.VarKindVar {
		return
	}
	for _, decl := range d.Decls {
		target.DeclarePat(decl.Name)
	}
}

// declareItems declares the lexical bindings of a statement list in the
// current scope.
func (r *Resolver) declareItems(items []ast.ModuleItem) {
	for _, it := range items {
		switch it := it.(type) {
		case *ast.ImportDecl:
			for _, spec := range it.Specifiers {
				r.scope.Declare(spec.LocalIdent().Name)
			}
		case *ast.ExportDecl:
			r.declareStmt(it.Decl)
		case *ast.ExportDefaultDecl:
			switch d := it.Decl.(type) {
			case *ast.FnExpr:
				if d.Ident != nil {
					r.scope.Declare(d.Ident.Name)
				}
			case *ast.ClassExpr:
				if d.Ident != nil {
					r.scope.Declare(d.Ident.Name)
				}
			}
		case *ast.TsImportEquals:
			r.scope.Declare(it.ID.Name)
		case ast.Stmt:
			r.declareStmt(it)
		}
	}
}

func (r *Resolver) declareStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		r.declareStmt(s)
	}
}

func (r *Resolver) declareStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.VarDecl:
		if s.Kind != ast.VarKindVar {
			for _, d := range s.Decls {
				r.scope.DeclarePat(d.Name)
			}
		}
	case *ast.FnDecl:
		r.scope.Declare(s.Ident.Name)
	case *ast.ClassDecl:
		r.scope.Declare(s.Ident.Name)
	case *ast.TsEnumDecl:
		r.scope.Declare(s.ID.Name)
	case *ast.TsModuleDecl:
		if id, ok := s.ID.(*ast.Ident); ok && !s.Global {
			r.scope.Declare(id.Name)
		}
	}
}

// ---------- Statements ----------

func (r *Resolver) items(items []ast.ModuleItem) {
	for _, it := range items {
		r.item(it)
	}
}

func (r *Resolver) item(it ast.ModuleItem) {
	switch it := it.(type) {
	case *ast.ImportDecl:
		for _, spec := range it.Specifiers {
			r.mark(spec.LocalIdent())
		}
	case *ast.ExportDecl:
		r.stmt(it.Decl)
	case *ast.ExportNamed:
		if it.Src != nil {
			return
		}
		for _, spec := range it.Specifiers {
			if s, ok := spec.(*ast.ExportNamedSpec); ok {
				if id, ok := s.Orig.(*ast.Ident); ok {
					r.mark(id)
				}
			}
		}
	case *ast.ExportAll, *ast.TsNamespaceExport:
	case *ast.ExportDefaultDecl:
		switch d := it.Decl.(type) {
		case *ast.FnExpr:
			r.mark(d.Ident)
			r.function(d.Function, nil)
		case *ast.ClassExpr:
			r.mark(d.Ident)
			r.class(d.Class, nil)
		}
	case *ast.ExportDefaultExpr:
		r.expr(it.Expr)
	case *ast.TsImportEquals:
		r.mark(it.ID)
		if ref, ok := it.Ref.(ast.Expr); ok {
			r.entityName(ref)
		}
	case *ast.TsExportAssignment:
		r.expr(it.Expr)
	case ast.Stmt:
		r.stmt(it)
	}
}

// block visits a statement list in a fresh block scope.
func (r *Resolver) block(stmts []ast.Stmt) {
	r.push(ScopeBlock)
	r.declareStmts(stmts)
	r.stmts(stmts)
	r.pop()
}

func (r *Resolver) stmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		r.stmt(s)
	}
}

func (r *Resolver) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case nil:
	case *ast.BlockStmt:
		r.block(s.Body)
	case *ast.EmptyStmt, *ast.DebuggerStmt:
	case *ast.ExprStmt:
		r.expr(s.Expr)
	case *ast.WithStmt:
		r.expr(s.Object)
		r.stmt(s.Body)
	case *ast.ReturnStmt:
		r.expr(s.Arg)
	case *ast.LabeledStmt:
		r.stmt(s.Body)
	case *ast.BreakStmt, *ast.ContinueStmt:
	case *ast.IfStmt:
		r.expr(s.Test)
		r.stmt(s.Cons)
		r.stmt(s.Alt)
	case *ast.SwitchStmt:
		// All cases share one block scope
		r.expr(s.Discriminant)
		r.push(ScopeBlock)
		for _, c := range s.Cases {
			r.declareStmts(c.Cons)
		}
		for _, c := range s.Cases {
			r.expr(c.Test)
			r.stmts(c.Cons)
		}
		r.pop()
	case *ast.ThrowStmt:
		r.expr(s.Arg)
	case *ast.TryStmt:
		r.block(s.Block.Body)
		// The catch parameter gets its own scope around the handler block
		if h := s.Handler; h != nil {
			r.push(ScopeCatch)
			if h.Param != nil {
				r.scope.DeclarePat(h.Param)
				r.pat(h.Param)
			}
			r.block(h.Body.Body)
			r.pop()
		}
		if s.Finalizer != nil {
			r.block(s.Finalizer.Body)
		}
	case *ast.WhileStmt:
		r.expr(s.Test)
		r.stmt(s.Body)
	case *ast.DoWhileStmt:
		r.stmt(s.Body)
		r.expr(s.Test)
	case *ast.ForStmt:
		// let in the head is scoped to the loop
		r.push(ScopeFor)
		switch init := s.Init.(type) {
		case *ast.VarDecl:
			r.declareStmt(init)
			r.varDecl(init)
		case ast.Expr:
			r.expr(init)
		}
		r.expr(s.Test)
		r.expr(s.Update)
		r.stmt(s.Body)
		r.pop()
	case *ast.ForInStmt:
		r.forInOf(s.Left, s.Right, s.Body)
	case *ast.ForOfStmt:
		r.forInOf(s.Left, s.Right, s.Body)
	case *ast.VarDecl:
		r.varDecl(s)
	case *ast.FnDecl:
		r.mark(s.Ident)
		r.function(s.Function, nil)
	case *ast.ClassDecl:
		r.mark(s.Ident)
		r.class(s.Class, nil)
	case *ast.TsEnumDecl:
		r.mark(s.ID)
		for _, m := range s.Members {
			r.expr(m.Init)
		}
	case *ast.TsModuleDecl:
		r.moduleDecl(s)
	case *ast.TsInterfaceDecl, *ast.TsTypeAliasDecl:
		// Types hold no references
	}
}

func (r *Resolver) forInOf(left ast.Node, right ast.Expr, body ast.Stmt) {
	r.push(ScopeFor)
	switch l := left.(type) {
	case *ast.VarDecl:
		r.declareStmt(l)
		r.varDecl(l)
	case ast.Pat:
		r.pat(l)
	}
	r.expr(right)
	r.stmt(body)
	r.pop()
}

func (r *Resolver) varDecl(d *ast.VarDecl) {
	for _, decl := range d.Decls {
		r.pat(decl.Name)
		r.expr(decl.Init)
	}
}

func (r *Resolver) moduleDecl(d *ast.TsModuleDecl) {
	if id, ok := d.ID.(*ast.Ident); ok && !d.Global {
		r.mark(id)
	}
	switch body := d.Body.(type) {
	case *ast.TsModuleBlock:
		r.push(ScopeModuleBlock)
		r.hoistVars(itemStmts(body.Body))
		r.declareItems(body.Body)
		r.items(body.Body)
		r.pop()
	case *ast.TsModuleDecl:
		// namespace A.B { }: B is a member of A, not a binding
		r.push(ScopeModuleBlock)
		r.moduleDeclBody(body)
		r.pop()
	}
}

func (r *Resolver) moduleDeclBody(d *ast.TsModuleDecl) {
	switch body := d.Body.(type) {
	case *ast.TsModuleBlock:
		r.hoistVars(itemStmts(body.Body))
		r.declareItems(body.Body)
		r.items(body.Body)
	case *ast.TsModuleDecl:
		r.push(ScopeModuleBlock)
		r.moduleDeclBody(body)
		r.pop()
	}
}

// ---------- Functions and classes ----------

// function visits params and body in a fresh function scope. self, when not
// nil, is the name of a function expression, visible only inside it.
func (r *Resolver) function(fn *ast.Function, self *ast.Ident) {
	if fn == nil {
		return
	}
	r.push(ScopeFunction)
	if self != nil {
		r.scope.Declare(self.Name)
		r.mark(self)
	}
	// Declare everything first so defaults can see later parameters and
	// hoisted functions
	for _, p := range fn.Params {
		r.scope.DeclarePat(p.Pat)
	}
	if fn.Body != nil {
		r.hoistVars(fn.Body.Body)
		r.declareStmts(fn.Body.Body)
	}
	for _, p := range fn.Params {
		r.decorators(p.Decorators)
		r.pat(p.Pat)
	}
	if fn.Body != nil {
		r.stmts(fn.Body.Body)
	}
	r.pop()
}

func (r *Resolver) arrow(a *ast.ArrowExpr) {
	r.push(ScopeFunction)
	for _, p := range a.Params {
		r.scope.DeclarePat(p)
	}
	// An expression body has no declarations of its own
	body, isBlock := a.Body.(*ast.BlockStmt)
	if isBlock {
		r.hoistVars(body.Body)
		r.declareStmts(body.Body)
	}
	for _, p := range a.Params {
		r.pat(p)
	}
	if isBlock {
		r.stmts(body.Body)
	} else if e, ok := a.Body.(ast.Expr); ok {
		r.expr(e)
	}
	r.pop()
}

// class visits a class body in a fresh class scope. self is the name of a
// class expression.
func (r *Resolver) class(c *ast.Class, self *ast.Ident) {
	r.decorators(c.Decorators)
	r.push(ScopeClass)
	if self != nil {
		r.scope.Declare(self.Name)
		r.mark(self)
	}
	r.expr(c.SuperClass)
	for _, m := range c.Body {
		r.classMember(m)
	}
	r.pop()
}

func (r *Resolver) classMember(m ast.ClassMember) {
	switch m := m.(type) {
	case *ast.Constructor:
		r.function(m.Function, nil)
	case *ast.ClassMethod:
		r.decorators(m.Decorators)
		r.propKey(m.Key)
		r.function(m.Function, nil)
	case *ast.ClassProp:
		r.decorators(m.Decorators)
		r.propKey(m.Key)
		if m.Value != nil {
			r.push(ScopeFunction)
			r.expr(m.Value)
			r.pop()
		}
	case *ast.StaticBlock:
		r.push(ScopeFunction)
		r.hoistVars(m.Body.Body)
		r.declareStmts(m.Body.Body)
		r.stmts(m.Body.Body)
		r.pop()
	}
}

func (r *Resolver) decorators(list []*ast.Decorator) {
	for _, d := range list {
		r.expr(d.Expr)
	}
}

// propKey visits a computed key. Plain keys are not references.
func (r *Resolver) propKey(key ast.Expr) {
	if c, ok := key.(*ast.ComputedPropName); ok {
		r.expr(c.Expr)
	}
}

// entityName marks the leftmost identifier of A.B.C.
func (r *Resolver) entityName(e ast.Expr) {
	switch e := e.(type) {
	case *ast.Ident:
		r.mark(e)
	case *ast.TsQualifiedName:
		r.entityName(e.Left)
	case *ast.MemberExpr:
		r.entityName(e.Object)
	}
}

// ---------- Patterns ----------

func (r *Resolver) pat(p ast.Pat) {
	switch p := p.(type) {
	case nil:
	case *ast.Ident:
		r.mark(p)
	case *ast.ArrayPat:
		for _, e := range p.Elems {
			r.pat(e)
		}
	case *ast.ObjectPat:
		for _, prop := range p.Props {
			switch prop := prop.(type) {
			case *ast.KeyValuePatProp:
				r.propKey(prop.Key)
				r.pat(prop.Value)
			case *ast.AssignPatProp:
				r.mark(prop.Key)
				r.expr(prop.Value)
			case *ast.RestPat:
				r.pat(prop.Arg)
			}
		}
	case *ast.AssignPat:
		r.pat(p.Left)
		r.expr(p.Right)
	case *ast.RestPat:
		r.pat(p.Arg)
	case *ast.ExprPat:
		r.expr(p.Expr)
	}
}

// ---------- Expressions ----------

func (r *Resolver) exprs(list []ast.Expr) {
	for _, e := range list {
		r.expr(e)
	}
}

func (r *Resolver) expr(e ast.Expr) {
	switch e := e.(type) {
	case nil:
	case *ast.Ident:
		r.mark(e)
	case *ast.Tpl:
		r.exprs(e.Exprs)
	case *ast.TaggedTpl:
		r.expr(e.Tag)
		r.exprs(e.Tpl.Exprs)
	case *ast.ArrayLit:
		r.exprs(e.Elems)
	case *ast.SpreadElement:
		r.expr(e.Arg)
	case *ast.ObjectLit:
		for _, prop := range e.Props {
			r.prop(prop)
		}
	case *ast.FnExpr:
		r.function(e.Function, e.Ident)
	case *ast.ArrowExpr:
		r.arrow(e)
	case *ast.ClassExpr:
		r.class(e.Class, e.Ident)
	case *ast.UnaryExpr:
		r.expr(e.Arg)
	case *ast.UpdateExpr:
		r.expr(e.Arg)
	case *ast.BinExpr:
		r.expr(e.Left)
		r.expr(e.Right)
	case *ast.AssignExpr:
		r.pat(e.Left)
		r.expr(e.Right)
	case *ast.MemberExpr:
		r.expr(e.Object)
		if e.Computed {
			r.expr(e.Property)
		}
	case *ast.CallExpr:
		r.expr(e.Callee)
		r.exprs(e.Args)
	case *ast.ChainExpr:
		r.expr(e.Expr)
	case *ast.NewExpr:
		r.expr(e.Callee)
		r.exprs(e.Args)
	case *ast.SeqExpr:
		r.exprs(e.Exprs)
	case *ast.CondExpr:
		r.expr(e.Test)
		r.expr(e.Cons)
		r.expr(e.Alt)
	case *ast.YieldExpr:
		r.expr(e.Arg)
	case *ast.AwaitExpr:
		r.expr(e.Arg)
	case *ast.ParenExpr:
		r.expr(e.Expr)
	case *ast.TsAsExpr:
		r.expr(e.Expr)
	case *ast.TsConstAssertion:
		r.expr(e.Expr)
	case *ast.TsSatisfiesExpr:
		r.expr(e.Expr)
	case *ast.TsNonNullExpr:
		r.expr(e.Expr)
	case *ast.TsTypeAssertion:
		r.expr(e.Expr)
	case *ast.TsInstantiation:
		r.expr(e.Expr)
	case *ast.JSXElement:
		r.jsxElement(e)
	case *ast.JSXFragment:
		r.exprs(e.Children)
	case *ast.JSXExprContainer:
		r.expr(e.Expr)
	case *ast.JSXSpreadChild:
		r.expr(e.Expr)
	}
}

func (r *Resolver) prop(p ast.Prop) {
	switch p := p.(type) {
	case *ast.KeyValueProp:
		r.propKey(p.Key)
		r.expr(p.Value)
	case *ast.ShorthandProp:
		r.mark(p.Ident)
	case *ast.AssignProp:
		r.mark(p.Key)
		r.expr(p.Value)
	case *ast.MethodProp:
		r.propKey(p.Key)
		r.function(p.Function, nil)
	case *ast.SpreadElement:
		r.expr(p.Arg)
	}
}

// ---------- JSX ----------

func (r *Resolver) jsxElement(el *ast.JSXElement) {
	r.jsxName(el.Opening.Name)
	for _, attr := range el.Opening.Attrs {
		switch a := attr.(type) {
		case *ast.JSXAttr:
			r.expr(a.Value)
		case *ast.JSXSpreadAttr:
			r.expr(a.Arg)
		}
	}
	r.exprs(el.Children)
	if el.Closing != nil {
		r.jsxName(el.Closing.Name)
	}
}

// jsxName marks component tags. Intrinsic tags such as div are not bindings.
func (r *Resolver) jsxName(name ast.Expr) {
	if ast.IsIntrinsicTag(name) {
		return
	}
	for {
		switch n := name.(type) {
		case *ast.Ident:
			r.mark(n)
			return
		case *ast.JSXMemberExpr:
			name = n.Object
		default:
			return
		}
	}
}

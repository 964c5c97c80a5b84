package codegen

import (
	"github.com/leapstack-labs/leapmacro/pkg/ast"
	"github.com/leapstack-labs/leapmacro/pkg/token"
)

// moduleItem prints one top-level item on its own line.
func (e *emitter) moduleItem(item ast.ModuleItem) {
	if s, ok := item.(ast.Stmt); ok {
		e.stmt(s)
		e.w.Writeln()
		return
	}

	span := item.GetSpan()
	e.leadingComments(span.Lo, false)
	e.w.Mark(span.Lo)
	switch it := item.(type) {
	case *ast.ImportDecl:
		e.importDecl(it)
	case *ast.ExportDecl:
		e.exportDecl(it)
	case *ast.ExportNamed:
		e.exportNamed(it)
	case *ast.ExportAll:
		e.w.Write("export")
		if it.TypeOnly {
			e.w.Write(" type")
		}
		e.w.Write(" * from ")
		e.str(it.Src)
		e.attributes(it.With, it.WithKw)
		e.w.Write(";")
	case *ast.ExportDefaultDecl:
		e.exportDefaultDecl(it)
	case *ast.ExportDefaultExpr:
		e.w.Write("export default ")
		// `export default function` would start a declaration
		if startsAmbiguously(it.Expr, false) {
			e.parenthesized(it.Expr)
		} else {
			e.expr(it.Expr, ast.PrecAssign)
		}
		e.w.Write(";")
	case *ast.TsImportEquals:
		// import x = require("m") or import x = A.B
		if it.Exported {
			e.w.Write("export ")
		}
		e.w.Write("import ")
		if it.TypeOnly {
			e.w.Write("type ")
		}
		e.ident(it.ID)
		e.w.Write(" = ")
		if ref, ok := it.Ref.(*ast.TsExternalModuleRef); ok {
			e.w.Write("require(")
			e.str(ref.Expr)
			e.w.Write(")")
		} else {
			e.entityName(it.Ref)
		}
		e.w.Write(";")
	case *ast.TsExportAssignment:
		e.w.Write("export = ")
		e.expr(it.Expr, ast.PrecAssign)
		e.w.Write(";")
	case *ast.TsNamespaceExport:
		e.w.Write("export as namespace ")
		e.ident(it.ID)
		e.w.Write(";")
	default:
		e.fail(item)
	}
	e.trailingComments(span.Hi, false)
	e.w.Writeln()
}

func (e *emitter) importDecl(d *ast.ImportDecl) {
	e.w.Write("import")
	if d.TypeOnly {
		e.w.Write(" type")
	}
	// Side-effect import
	if len(d.Specifiers) == 0 {
		e.w.Space()
		e.str(d.Src)
		e.attributes(d.With, d.WithKw)
		e.w.Write(";")
		return
	}

	// Default and namespace bindings come before the braces
	e.w.Space()
	var named []*ast.ImportNamed
	first := true
	for _, spec := range d.Specifiers {
		switch s := spec.(type) {
		case *ast.ImportDefault:
			if !first {
				e.w.Write(", ")
			}
			e.ident(s.Local)
			first = false
		case *ast.ImportNamespace:
			if !first {
				e.w.Write(", ")
			}
			e.w.Write("* as ")
			e.ident(s.Local)
			first = false
		case *ast.ImportNamed:
			named = append(named, s)
		}
	}
	if len(named) > 0 {
		if !first {
			e.w.Write(", ")
		}
		e.w.Write("{ ")
		for i, s := range named {
			if i > 0 {
				e.w.Write(", ")
			}
			e.w.Mark(s.Span.Lo)
			if s.TypeOnly {
				e.w.Write("type ")
			}
			if s.Imported != nil {
				e.moduleExportName(s.Imported)
				e.w.Write(" as ")
			}
			e.ident(s.Local)
		}
		e.w.Write(" }")
	}
	e.w.Write(" from ")
	e.str(d.Src)
	e.attributes(d.With, d.WithKw)
	e.w.Write(";")
}

// attributes prints the import attributes clause, keeping the legacy
// assert keyword when the source used it.
func (e *emitter) attributes(with *ast.ObjectLit, kw string) {
	if with == nil {
		return
	}
	if kw == "" {
		kw = "with"
	}
	e.w.Write(" " + kw + " ")
	e.expr(with, ast.PrecLowest)
}

func (e *emitter) moduleExportName(n ast.Expr) {
	switch n := n.(type) {
	case *ast.Ident:
		e.ident(n)
	case *ast.Str:
		e.str(n)
	default:
		e.fail(n)
	}
}

func (e *emitter) exportDecl(d *ast.ExportDecl) {
	if c, ok := d.Decl.(*ast.ClassDecl); ok && len(c.Class.Decorators) > 0 {
		e.decoratorLines(c.Class.Decorators)
	}
	e.w.Write("export ")
	e.stmtInner(d.Decl)
}

func (e *emitter) exportNamed(d *ast.ExportNamed) {
	e.w.Write("export")
	if d.TypeOnly {
		e.w.Write(" type")
	}
	e.w.Space()

	var named []*ast.ExportNamedSpec
	first := true
	for _, spec := range d.Specifiers {
		switch s := spec.(type) {
		case *ast.ExportNamespaceSpec:
			if !first {
				e.w.Write(", ")
			}
			e.w.Write("* as ")
			e.moduleExportName(s.Name)
			first = false
		case *ast.ExportNamedSpec:
			named = append(named, s)
		}
	}
	// `export {};` is kept: it marks the file as a module
	if len(named) > 0 || first {
		if !first {
			e.w.Write(", ")
		}
		if len(named) == 0 {
			e.w.Write("{}")
		} else {
			e.w.Write("{ ")
			for i, s := range named {
				if i > 0 {
					e.w.Write(", ")
				}
				e.w.Mark(s.Span.Lo)
				if s.TypeOnly {
					e.w.Write("type ")
				}
				e.moduleExportName(s.Orig)
				if s.Exported != nil {
					e.w.Write(" as ")
					e.moduleExportName(s.Exported)
				}
			}
			e.w.Write(" }")
		}
	}
	if d.Src != nil {
		e.w.Write(" from ")
		e.str(d.Src)
		e.attributes(d.With, d.WithKw)
	}
	e.w.Write(";")
}

func (e *emitter) exportDefaultDecl(d *ast.ExportDefaultDecl) {
	switch decl := d.Decl.(type) {
	case *ast.FnExpr:
		e.w.Write("export default ")
		e.function(decl.Function, decl.Ident)
	case *ast.ClassExpr:
		if len(decl.Class.Decorators) > 0 {
			e.decoratorLines(decl.Class.Decorators)
		}
		e.w.Write("export default ")
		e.class(decl.Class, decl.Ident, false)
	case *ast.TsInterfaceDecl:
		e.w.Write("export default ")
		e.interfaceDecl(decl)
	default:
		e.fail(d)
	}
}

// ---------- Statements ----------

// stmt prints s with its comments, without the final line break.
func (e *emitter) stmt(s ast.Stmt) {
	span := s.GetSpan()
	e.leadingComments(span.Lo, false)
	if c, ok := s.(*ast.ClassDecl); ok && len(c.Class.Decorators) > 0 {
		e.decoratorLines(c.Class.Decorators)
	}
	e.w.Mark(span.Lo)
	e.stmtInner(s)
	e.trailingComments(span.Hi, false)
}

func (e *emitter) stmts(list []ast.Stmt) {
	for _, s := range list {
		e.stmt(s)
		e.w.Writeln()
	}
}

func (e *emitter) stmtInner(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.BlockStmt:
		e.block(s)
	case *ast.EmptyStmt:
		e.w.Write(";")
	case *ast.DebuggerStmt:
		e.w.Write("debugger;")
	case *ast.ExprStmt:
		// A statement may not start with function, class, let [ or {
		if startsAmbiguously(s.Expr, true) {
			e.parenthesized(s.Expr)
		} else {
			e.expr(s.Expr, ast.PrecLowest)
		}
		e.w.Write(";")
	case *ast.VarDecl:
		e.varDecl(s, false)
		e.w.Write(";")
	case *ast.FnDecl:
		if s.Declare {
			e.w.Write("declare ")
		}
		e.function(s.Function, s.Ident)
	case *ast.ClassDecl:
		if s.Declare {
			e.w.Write("declare ")
		}
		e.class(s.Class, s.Ident, false)
	case *ast.ReturnStmt:
		e.w.Write("return")
		if s.Arg != nil {
			e.w.Space()
			e.expr(s.Arg, ast.PrecLowest)
		}
		e.w.Write(";")
	case *ast.ThrowStmt:
		e.w.Write("throw ")
		e.expr(s.Arg, ast.PrecLowest)
		e.w.Write(";")
	case *ast.BreakStmt:
		e.w.Write("break")
		if s.Label != nil {
			e.w.Space()
			e.ident(s.Label)
		}
		e.w.Write(";")
	case *ast.ContinueStmt:
		e.w.Write("continue")
		if s.Label != nil {
			e.w.Space()
			e.ident(s.Label)
		}
		e.w.Write(";")
	case *ast.LabeledStmt:
		e.ident(s.Label)
		e.w.Write(": ")
		e.stmtInner(s.Body)
	case *ast.IfStmt:
		e.ifStmt(s)
	case *ast.SwitchStmt:
		e.switchStmt(s)
	case *ast.TryStmt:
		e.w.Write("try ")
		e.block(s.Block)
		if h := s.Handler; h != nil {
			e.w.Write(" catch ")
			if h.Param != nil {
				e.w.Write("(")
				e.pat(h.Param)
				e.w.Write(") ")
			}
			e.block(h.Body)
		}
		if s.Finalizer != nil {
			e.w.Write(" finally ")
			e.block(s.Finalizer)
		}
	case *ast.WhileStmt:
		e.w.Write("while (")
		e.expr(s.Test, ast.PrecLowest)
		e.w.Write(")")
		e.body(s.Body)
	case *ast.DoWhileStmt:
		e.w.Write("do")
		e.body(s.Body)
		if _, ok := s.Body.(*ast.BlockStmt); ok {
			e.w.Space()
		} else {
			e.w.Writeln()
		}
		e.w.Write("while (")
		e.expr(s.Test, ast.PrecLowest)
		e.w.Write(");")
	case *ast.ForStmt:
		e.forStmt(s)
	case *ast.ForInStmt:
		e.w.Write("for (")
		e.forHead(s.Left)
		e.w.Write(" in ")
		e.expr(s.Right, ast.PrecLowest)
		e.w.Write(")")
		e.body(s.Body)
	case *ast.ForOfStmt:
		e.w.Write("for ")
		if s.Await {
			e.w.Write("await ")
		}
		e.w.Write("(")
		e.forHead(s.Left)
		e.w.Write(" of ")
		e.expr(s.Right, ast.PrecAssign)
		e.w.Write(")")
		e.body(s.Body)
	case *ast.WithStmt:
		e.w.Write("with (")
		e.expr(s.Object, ast.PrecLowest)
		e.w.Write(")")
		e.body(s.Body)
	case *ast.TsInterfaceDecl:
		e.interfaceDecl(s)
	case *ast.TsTypeAliasDecl:
		if s.Declare {
			e.w.Write("declare ")
		}
		e.w.Write("type ")
		e.ident(s.ID)
		e.typeParams(s.TypeParams)
		e.w.Write(" = ")
		e.typ(s.Type, typePrecLowest)
		e.w.Write(";")
	case *ast.TsEnumDecl:
		e.enumDecl(s)
	case *ast.TsModuleDecl:
		e.moduleDecl(s)
	default:
		e.fail(s)
	}
}

// block prints { ... } with the body indented one level.
func (e *emitter) block(b *ast.BlockStmt) {
	e.w.Mark(b.Span.Lo)
	e.w.Write("{")
	// Synthetic blocks have no source comments to look up
	real := b.Span.Lo.IsValid()
	closing := b.Span.Hi - 1
	if len(b.Body) == 0 && (!real || !e.comments.HasLeading(closing) && len(e.comments.Trailing(b.Span.Lo+1)) == 0) {
		e.w.Write("}")
		return
	}
	if real {
		e.trailingComments(b.Span.Lo+1, false)
	}
	e.w.Writeln()
	e.w.Indent()
	e.stmts(b.Body)
	if real {
		e.danglingComments(closing)
	}
	e.w.Dedent()
	e.w.Write("}")
}

// body prints the body of a compound statement: a block on the same line,
// anything else indented on the next line.
func (e *emitter) body(s ast.Stmt) {
	if b, ok := s.(*ast.BlockStmt); ok {
		e.w.Space()
		e.block(b)
		return
	}
	if _, ok := s.(*ast.EmptyStmt); ok {
		e.w.Write(";")
		return
	}
	e.w.Writeln()
	e.w.Indent()
	e.stmt(s)
	e.w.Dedent()
}

func (e *emitter) ifStmt(s *ast.IfStmt) {
	e.w.Write("if (")
	e.expr(s.Test, ast.PrecLowest)
	e.w.Write(")")
	e.body(s.Cons)
	if s.Alt == nil {
		return
	}
	if _, ok := s.Cons.(*ast.BlockStmt); ok {
		e.w.Space()
	} else {
		e.w.Writeln()
	}
	e.w.Write("else")
	// else if chains stay flat
	if alt, ok := s.Alt.(*ast.IfStmt); ok {
		e.w.Space()
		e.leadingComments(alt.Span.Lo, true)
		e.w.Mark(alt.Span.Lo)
		e.ifStmt(alt)
		return
	}
	e.body(s.Alt)
}

func (e *emitter) switchStmt(s *ast.SwitchStmt) {
	e.w.Write("switch (")
	e.expr(s.Discriminant, ast.PrecLowest)
	e.w.Write(") {")
	if len(s.Cases) == 0 {
		e.w.Write("}")
		return
	}
	e.w.Writeln()
	e.w.Indent()
	for _, c := range s.Cases {
		e.leadingComments(c.Span.Lo, false)
		e.w.Mark(c.Span.Lo)
		if c.Test == nil {
			e.w.Write("default:")
		} else {
			e.w.Write("case ")
			e.expr(c.Test, ast.PrecLowest)
			e.w.Write(":")
		}
		// case x: { ... } keeps the block on the case line
		if len(c.Cons) == 1 {
			if b, ok := c.Cons[0].(*ast.BlockStmt); ok {
				e.w.Space()
				e.leadingComments(b.Span.Lo, true)
				e.block(b)
				e.trailingComments(b.Span.Hi, false)
				e.w.Writeln()
				continue
			}
		}
		e.w.Writeln()
		e.w.Indent()
		e.stmts(c.Cons)
		e.w.Dedent()
	}
	if s.Span.Hi.IsValid() {
		e.danglingComments(s.Span.Hi - 1)
	}
	e.w.Dedent()
	e.w.Write("}")
}

func (e *emitter) forStmt(s *ast.ForStmt) {
	e.w.Write("for (")
	switch init := s.Init.(type) {
	case nil:
	case *ast.VarDecl:
		e.varDecl(init, true)
	case ast.Expr:
		// for (("a" in b); ;) so `in` is not read as for-in
		if containsIn(init) {
			e.parenthesized(init)
		} else {
			e.expr(init, ast.PrecLowest)
		}
	default:
		e.fail(init)
	}
	e.w.Write(";")
	if s.Test != nil {
		e.w.Space()
		e.expr(s.Test, ast.PrecLowest)
	}
	e.w.Write(";")
	if s.Update != nil {
		e.w.Space()
		e.expr(s.Update, ast.PrecLowest)
	}
	e.w.Write(")")
	e.body(s.Body)
}

func (e *emitter) forHead(left ast.Node) {
	switch l := left.(type) {
	case *ast.VarDecl:
		e.varDecl(l, false)
	case ast.Pat:
		e.pat(l)
	default:
		e.fail(left)
	}
}

// varDecl prints a declaration without its semicolon. In a for
// initializer, initializers containing `in` are parenthesized.
func (e *emitter) varDecl(d *ast.VarDecl, forInit bool) {
	if d.Declare {
		e.w.Write("declare ")
	}
	e.w.Write(string(d.Kind))
	e.w.Space()
	for i, decl := range d.Decls {
		if i > 0 {
			e.w.Write(", ")
		}
		e.w.Mark(decl.Span.Lo)
		if id, ok := decl.Name.(*ast.Ident); ok && decl.Definite {
			e.ident(id)
			e.w.Write("!")
			e.typeAnn(id.TypeAnn)
		} else {
			e.pat(decl.Name)
		}
		if decl.Init == nil {
			continue
		}
		e.w.Write(" = ")
		if forInit && containsIn(decl.Init) {
			e.parenthesized(decl.Init)
		} else {
			e.expr(decl.Init, ast.PrecAssign)
		}
	}
}

func (e *emitter) decoratorLines(decorators []*ast.Decorator) {
	for _, d := range decorators {
		e.decorator(d)
		e.w.Writeln()
	}
}

// containsIn reports whether x has an `in` operator outside of any
// parentheses or function body.
func containsIn(x ast.Expr) bool {
	found := false
	ast.Inspect(x, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.BinExpr:
			if n.Op == token.IN {
				found = true
			}
		case *ast.ParenExpr, *ast.FnExpr, *ast.ArrowExpr, *ast.ClassExpr:
			return false
		}
		return !found
	})
	return found
}

package compiler

import "github.com/xirelogy/go-jazz/internal/ast"

// resolution holds the side tables the emitter reads: the binding of every
// identifier node and the scope of every function literal.
type resolution struct {
	root   *Scope
	vars   map[*ast.Identifier]*Variable
	scopes map[*ast.FuncLit]*Scope
}

// resolve classifies every identifier in prog and assigns slot indices.
func resolve(prog *ast.Program) *resolution {
	r := &resolution{
		root:   newScope(nil, nil),
		vars:   make(map[*ast.Identifier]*Variable),
		scopes: make(map[*ast.FuncLit]*Scope),
	}
	r.resolveBody(r.root, nil, prog.Statements)
	r.root.assignSlots(0)
	return r
}

// resolveBody hoists declarations, resolves nested functions depth-first,
// then resolves this body's own references.
func (r *resolution) resolveBody(s *Scope, params []ast.Param, body []ast.Statement) {
	for _, p := range params {
		s.params = append(s.params, s.declare(p.Name))
	}
	for _, stmt := range body {
		hoist(s, stmt)
	}

	c := &collector{}
	for _, stmt := range body {
		c.stmt(stmt)
	}

	for _, fn := range c.funcs {
		child := newScope(s, fn)
		r.scopes[fn] = child
		r.resolveBody(child, fn.Params, fn.Body.Statements)
	}

	for _, id := range c.idents {
		r.vars[id] = s.lookup(id.Name)
	}
}

// hoist registers var and function declarations without entering nested
// function bodies.
func hoist(s *Scope, stmt ast.Statement) {
	switch st := stmt.(type) {
	case *ast.VarStmt:
		for _, d := range st.Decls {
			if s.isProgram() {
				s.declareGlobal(d.Name.Name)
			} else {
				s.declare(d.Name.Name)
			}
		}
	case *ast.FuncDecl:
		if !s.isProgram() {
			s.declare(st.Name.Name)
		}
		s.funcs = append(s.funcs, st)
	case *ast.BlockStmt:
		for _, inner := range st.Statements {
			hoist(s, inner)
		}
	case *ast.IfStmt:
		hoist(s, st.Conseq)
		if st.Alt != nil {
			hoist(s, st.Alt)
		}
	case *ast.WhileStmt:
		hoist(s, st.Body)
	case *ast.DoWhileStmt:
		hoist(s, st.Body)
	case *ast.ForStmt:
		if st.Init != nil {
			hoist(s, st.Init)
		}
		hoist(s, st.Body)
	case *ast.SwitchStmt:
		for _, c := range st.Cases {
			for _, inner := range c.Body {
				hoist(s, inner)
			}
		}
	}
}

// collector gathers the identifier references of one function body and
// the function literals nested directly inside it.
type collector struct {
	idents []*ast.Identifier
	funcs  []*ast.FuncLit
}

func (c *collector) stmt(stmt ast.Statement) {
	switch st := stmt.(type) {
	case *ast.ExprStmt:
		c.expr(st.Expression)
	case *ast.VarStmt:
		for _, d := range st.Decls {
			c.idents = append(c.idents, d.Name)
			if d.Init != nil {
				c.expr(d.Init)
			}
		}
	case *ast.ReturnStmt:
		if st.Value != nil {
			c.expr(st.Value)
		}
	case *ast.IfStmt:
		c.expr(st.Condition)
		c.stmt(st.Conseq)
		if st.Alt != nil {
			c.stmt(st.Alt)
		}
	case *ast.WhileStmt:
		c.expr(st.Condition)
		c.stmt(st.Body)
	case *ast.DoWhileStmt:
		c.stmt(st.Body)
		c.expr(st.Condition)
	case *ast.ForStmt:
		if st.Init != nil {
			c.stmt(st.Init)
		}
		if st.Test != nil {
			c.expr(st.Test)
		}
		if st.Update != nil {
			c.expr(st.Update)
		}
		c.stmt(st.Body)
	case *ast.SwitchStmt:
		c.expr(st.Discriminant)
		for _, sc := range st.Cases {
			if sc.Test != nil {
				c.expr(sc.Test)
			}
			for _, inner := range sc.Body {
				c.stmt(inner)
			}
		}
	case *ast.BlockStmt:
		for _, inner := range st.Statements {
			c.stmt(inner)
		}
	case *ast.FuncDecl:
		c.idents = append(c.idents, st.Name)
		c.funcs = append(c.funcs, st.Func)
	}
}

func (c *collector) expr(expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.Identifier:
		c.idents = append(c.idents, e)
	case *ast.ObjectLiteral:
		for _, f := range e.Fields {
			c.expr(f.Value)
		}
	case *ast.IndexExpr:
		c.expr(e.Left)
		c.expr(e.Index)
	case *ast.MemberExpr:
		c.expr(e.Left)
	case *ast.CallExpr:
		c.expr(e.Callee)
		for _, a := range e.Arguments {
			c.expr(a)
		}
	case *ast.AssignExpr:
		c.expr(e.Left)
		c.expr(e.Value)
	case *ast.UpdateExpr:
		c.expr(e.Target)
	case *ast.BinaryExpr:
		c.expr(e.Left)
		c.expr(e.Right)
	case *ast.UnaryExpr:
		c.expr(e.Right)
	case *ast.ConditionalExpr:
		c.expr(e.Test)
		c.expr(e.Conseq)
		c.expr(e.Alt)
	case *ast.FuncLit:
		c.funcs = append(c.funcs, e)
	}
}

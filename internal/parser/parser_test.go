package parser

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xirelogy/go-jazz/internal/ast"
	"github.com/xirelogy/go-jazz/internal/lexer"
	"github.com/xirelogy/go-jazz/internal/token"
)

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := New(lexer.New(input))
	prog := p.ParseProgram()
	if len(p.Errors()) != 0 {
		t.Fatalf("parser errors: %v", p.Errors())
	}
	return prog
}

func TestParseReturnAndExpr(t *testing.T) {
	prog := parse(t, `return 5
a = 10 + 2;`)
	if len(prog.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(prog.Statements))
	}
	if _, ok := prog.Statements[0].(*ast.ReturnStmt); !ok {
		t.Fatalf("expected ReturnStmt, got %T", prog.Statements[0])
	}
	stmt, ok := prog.Statements[1].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected ExprStmt, got %T", prog.Statements[1])
	}
	if _, ok := stmt.Expression.(*ast.AssignExpr); !ok {
		t.Fatalf("expected AssignExpr, got %T", stmt.Expression)
	}
}

func TestParseReturnNewlineEndsStatement(t *testing.T) {
	prog := parse(t, "function f() { return\n1 }")
	fn := prog.Statements[0].(*ast.FuncDecl)
	ret := fn.Func.Body.Statements[0].(*ast.ReturnStmt)
	if ret.Value != nil {
		t.Fatalf("return followed by a line break must not take a value")
	}
	if len(fn.Func.Body.Statements) != 2 {
		t.Fatalf("expected 2 statements in body, got %d", len(fn.Func.Body.Statements))
	}
}

func TestParseFunctionDeclaration(t *testing.T) {
	prog := parse(t, `function add(a, b) {
  return a + b;
}`)
	fn, ok := prog.Statements[0].(*ast.FuncDecl)
	if !ok {
		t.Fatalf("expected FuncDecl, got %T", prog.Statements[0])
	}
	if fn.Name.Name != "add" || len(fn.Func.Params) != 2 {
		t.Fatalf("unexpected func signature: %s %d params", fn.Name.Name, len(fn.Func.Params))
	}
	if len(fn.Func.Body.Statements) != 1 {
		t.Fatalf("unexpected body")
	}
}

func TestParseIfCallCondition(t *testing.T) {
	prog := parse(t, `if (callFunction(1, 2) > 2) { x = 1 } else y = 2;`)
	stmt, ok := prog.Statements[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected IfStmt, got %T", prog.Statements[0])
	}
	cond, ok := stmt.Condition.(*ast.BinaryExpr)
	if !ok || cond.Operator != token.Greater {
		t.Fatalf("expected '>' condition, got %T", stmt.Condition)
	}
	call, ok := cond.Left.(*ast.CallExpr)
	if !ok || len(call.Arguments) != 2 {
		t.Fatalf("expected call with 2 args on left, got %T", cond.Left)
	}
	if _, ok := stmt.Alt.(*ast.ExprStmt); !ok {
		t.Fatalf("expected expression statement as else branch, got %T", stmt.Alt)
	}
}

func TestParseForLoop(t *testing.T) {
	prog := parse(t, `for (var i = 0; i < n; i++) a[i] = i;`)
	loop, ok := prog.Statements[0].(*ast.ForStmt)
	if !ok {
		t.Fatalf("expected ForStmt, got %T", prog.Statements[0])
	}
	if _, ok := loop.Init.(*ast.VarStmt); !ok {
		t.Fatalf("expected var init, got %T", loop.Init)
	}
	upd, ok := loop.Update.(*ast.UpdateExpr)
	if !ok || upd.Prefix || upd.Operator != token.Increment {
		t.Fatalf("expected postfix increment, got %#v", loop.Update)
	}

	prog = parse(t, `for (;;) {}`)
	loop = prog.Statements[0].(*ast.ForStmt)
	if loop.Init != nil || loop.Test != nil || loop.Update != nil {
		t.Fatalf("expected empty clauses")
	}
}

func TestParseSwitch(t *testing.T) {
	prog := parse(t, `switch (2) { case 1: 'a'; case 2: 'b'; default: 'c'; }`)
	sw, ok := prog.Statements[0].(*ast.SwitchStmt)
	if !ok {
		t.Fatalf("expected SwitchStmt, got %T", prog.Statements[0])
	}
	if len(sw.Cases) != 3 {
		t.Fatalf("expected 3 clauses, got %d", len(sw.Cases))
	}
	if sw.Cases[2].Test != nil {
		t.Fatalf("last clause should be default")
	}
	for i, c := range sw.Cases {
		if len(c.Body) != 1 {
			t.Fatalf("clause %d has %d statements", i, len(c.Body))
		}
	}
}

func TestParseDoWhile(t *testing.T) {
	prog := parse(t, `do { x = x + 1 } while (x < 3); y`)
	if _, ok := prog.Statements[0].(*ast.DoWhileStmt); !ok {
		t.Fatalf("expected DoWhileStmt, got %T", prog.Statements[0])
	}
	if len(prog.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(prog.Statements))
	}
}

func TestParseObjectLiteralKeys(t *testing.T) {
	prog := parse(t, `x = {a: 1, "b c": 2, 3: 3, default: 4,};`)
	assign := prog.Statements[0].(*ast.ExprStmt).Expression.(*ast.AssignExpr)
	obj, ok := assign.Value.(*ast.ObjectLiteral)
	if !ok {
		t.Fatalf("expected ObjectLiteral, got %T", assign.Value)
	}
	var keys []string
	for _, f := range obj.Fields {
		keys = append(keys, f.Key)
	}
	if diff := cmp.Diff([]string{"a", "b c", "3", "default"}, keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  token.Type
	}{
		{"1 + 2 * 3", token.Plus},
		{"7 & 3 | -5 & 12", token.BitOr},
		{"a || b && c", token.OrOr},
		{"1 << 2 < 3", token.Less},
		{"a == b < c", token.Equal},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			prog := parse(t, tt.input)
			bin, ok := prog.Statements[0].(*ast.ExprStmt).Expression.(*ast.BinaryExpr)
			if !ok || bin.Operator != tt.want {
				t.Fatalf("root of %q = %#v, want %s", tt.input, prog.Statements[0].(*ast.ExprStmt).Expression, tt.want)
			}
		})
	}
}

func TestParseAssignmentIsRightAssociative(t *testing.T) {
	prog := parse(t, "a = b += c")
	outer := prog.Statements[0].(*ast.ExprStmt).Expression.(*ast.AssignExpr)
	inner, ok := outer.Value.(*ast.AssignExpr)
	if !ok || inner.Operator != token.PlusAssign {
		t.Fatalf("expected nested compound assignment, got %T", outer.Value)
	}
}

func TestParseConditionalAndMembers(t *testing.T) {
	prog := parse(t, "x = a ? obj.foo['bar'] : typeof f(1)(2)")
	assign := prog.Statements[0].(*ast.ExprStmt).Expression.(*ast.AssignExpr)
	cond, ok := assign.Value.(*ast.ConditionalExpr)
	if !ok {
		t.Fatalf("expected ConditionalExpr, got %T", assign.Value)
	}
	idx, ok := cond.Conseq.(*ast.IndexExpr)
	if !ok {
		t.Fatalf("expected IndexExpr, got %T", cond.Conseq)
	}
	if m, ok := idx.Left.(*ast.MemberExpr); !ok || m.Property != "foo" {
		t.Fatalf("expected member foo, got %T", idx.Left)
	}
	un, ok := cond.Alt.(*ast.UnaryExpr)
	if !ok || un.Operator != token.Typeof {
		t.Fatalf("expected typeof, got %T", cond.Alt)
	}
	if _, ok := un.Right.(*ast.CallExpr); !ok {
		t.Fatalf("typeof operand should be the chained call, got %T", un.Right)
	}
}

func TestParseErrors(t *testing.T) {
	inputs := []string{
		`function bad(c) { c->clear() }`,
		`inc(1, 2`,
		`inc(1,)`,
		`var = 3`,
		`a b`,
		`switch (x) { foo }`,
		`"open`,
	}
	for _, input := range inputs {
		p := New(lexer.New(input))
		_ = p.ParseProgram()
		if len(p.Errors()) == 0 {
			t.Fatalf("expected parser errors for %q", input)
		}
		if !errors.Is(p.Err(), ErrSyntax) {
			t.Fatalf("Err() for %q should wrap ErrSyntax", input)
		}
	}
}

func TestParseSpans(t *testing.T) {
	prog := parse(t, "x = 1;\nfoo(bar);")
	second := prog.Statements[1].(*ast.ExprStmt)
	if second.Pos().Line != 2 || second.Pos().Column != 1 {
		t.Fatalf("second statement at %d:%d", second.Pos().Line, second.Pos().Column)
	}
}

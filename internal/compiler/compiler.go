package compiler

import (
	"errors"
	"fmt"
	"math"

	"github.com/xirelogy/go-jazz/internal/ast"
	"github.com/xirelogy/go-jazz/internal/bytecode"
	"github.com/xirelogy/go-jazz/internal/token"
	"github.com/xirelogy/go-jazz/internal/value"
)

// ErrCompile is wrapped by every error the compiler reports.
var ErrCompile = errors.New("compile error")

// Error is a compile error at a source position.
type Error struct {
	Pos token.Position
	Msg string
}

func (e *Error) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("compile error at %d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
	}
	return "compile error: " + e.Msg
}

func (e *Error) Unwrap() error { return ErrCompile }

func errorf(pos token.Position, format string, args ...interface{}) error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Compile resolves every identifier of prog and emits the program body.
// Function literals are reachable from the returned unit's constant pool
// as templates.
func Compile(prog *ast.Program, source string) (*Unit, error) {
	c := &compiler{res: resolve(prog), source: source}
	fc := c.newFuncCompiler("main", c.res.root)
	if err := fc.compileProgram(prog.Statements); err != nil {
		return nil, err
	}
	return fc.finish()
}

type compiler struct {
	res    *resolution
	source string
}

type funcCompiler struct {
	c     *compiler
	unit  *Unit
	scope *Scope
	line  int
	err   error
}

func (c *compiler) newFuncCompiler(name string, s *Scope) *funcCompiler {
	return &funcCompiler{
		c:     c,
		scope: s,
		unit:  &Unit{Name: name, Source: c.source},
	}
}

func (fc *funcCompiler) finish() (*Unit, error) {
	if fc.err != nil {
		return nil, fc.err
	}
	s := fc.scope
	if s.localCount > math.MaxUint16 || s.closureCount > math.MaxUint16 {
		return nil, errorf(fc.pos(), "too many variables in %s", fc.unit.Name)
	}
	u := fc.unit
	u.LocalCount = s.localCount
	u.ClosureVarCount = s.closureCount
	u.ClosureLocalCount = s.closureCount - s.inherited
	for _, p := range s.params {
		u.Params = append(u.Params, Slot{Closure: p.Kind == Closure, Index: p.Index})
	}
	return u, nil
}

func (fc *funcCompiler) pos() token.Position {
	return token.Position{Line: fc.line}
}

func (fc *funcCompiler) compileProgram(stmts []ast.Statement) error {
	for _, name := range fc.scope.globals {
		fc.emitU16(OP_DEFINE_GLOBAL, fc.nameConst(name))
	}
	if err := fc.hoistFunctions(); err != nil {
		return err
	}

	// The value of a trailing expression statement is the program's result.
	last := -1
	if n := len(stmts); n > 0 {
		if _, ok := stmts[n-1].(*ast.ExprStmt); ok {
			last = n - 1
		}
	}
	for i, stmt := range stmts {
		if i == last {
			fc.setLine(stmt.Pos().Line)
			if err := fc.expr(stmt.(*ast.ExprStmt).Expression, true); err != nil {
				return err
			}
			fc.emitByte(OP_RET)
			return nil
		}
		if err := fc.stmt(stmt); err != nil {
			return err
		}
	}
	fc.emitByte(OP_END)
	return nil
}

func (fc *funcCompiler) compileBody(stmts []ast.Statement) error {
	if err := fc.hoistFunctions(); err != nil {
		return err
	}
	for _, stmt := range stmts {
		if err := fc.stmt(stmt); err != nil {
			return err
		}
	}
	fc.emitByte(OP_END)
	return nil
}

// hoistFunctions binds every function declaration of the body before the
// first statement runs.
func (fc *funcCompiler) hoistFunctions() error {
	for _, decl := range fc.scope.funcs {
		fc.setLine(decl.Pos().Line)
		if err := fc.closure(decl.Func, decl.Name.Name); err != nil {
			return err
		}
		v, err := fc.variable(decl.Name)
		if err != nil {
			return err
		}
		fc.store(v)
	}
	return nil
}

func (fc *funcCompiler) closure(fn *ast.FuncLit, name string) error {
	s, ok := fc.c.res.scopes[fn]
	if !ok {
		return errorf(fn.Pos(), "function literal was not resolved")
	}
	child := fc.c.newFuncCompiler(name, s)
	child.setLine(fn.Pos().Line)
	if err := child.compileBody(fn.Body.Statements); err != nil {
		return err
	}
	unit, err := child.finish()
	if err != nil {
		return err
	}
	fc.emitU16(OP_CLOSURE, fc.addConst(value.Obj(bytecode.NewTemplate(unit))))
	return nil
}

func (fc *funcCompiler) variable(id *ast.Identifier) (*Variable, error) {
	v, ok := fc.c.res.vars[id]
	if !ok {
		return nil, errorf(id.Pos(), "identifier %s was not resolved", id.Name)
	}
	return v, nil
}

func (fc *funcCompiler) load(v *Variable) {
	switch v.Kind {
	case Local:
		fc.emitU16(OP_GET_LOCAL, v.Index)
	case Closure:
		fc.emitU16(OP_GET_CLOSURE, v.Index)
	default:
		fc.emitU16(OP_GET_GLOBAL, fc.nameConst(v.Name))
	}
}

// store pops the top of stack into v.
func (fc *funcCompiler) store(v *Variable) {
	switch v.Kind {
	case Local:
		fc.emitU16(OP_SET_LOCAL, v.Index)
	case Closure:
		fc.emitU16(OP_SET_CLOSURE, v.Index)
	default:
		fc.emitU16(OP_SET_GLOBAL, fc.nameConst(v.Name))
	}
}

func (fc *funcCompiler) stmt(stmt ast.Statement) error {
	fc.setLine(stmt.Pos().Line)
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		return fc.expr(s.Expression, false)
	case *ast.VarStmt:
		for _, d := range s.Decls {
			if d.Init == nil {
				continue
			}
			v, err := fc.variable(d.Name)
			if err != nil {
				return err
			}
			if err := fc.value(d.Init); err != nil {
				return err
			}
			fc.store(v)
		}
	case *ast.ReturnStmt:
		if s.Value == nil {
			fc.emitByte(OP_END)
			return nil
		}
		if err := fc.value(s.Value); err != nil {
			return err
		}
		fc.emitByte(OP_RET)
	case *ast.IfStmt:
		return fc.compileIf(s)
	case *ast.WhileStmt:
		return fc.compileLoop(s.Condition, s.Body, nil)
	case *ast.DoWhileStmt:
		return fc.compileDoWhile(s)
	case *ast.ForStmt:
		if s.Init != nil {
			if err := fc.stmt(s.Init); err != nil {
				return err
			}
		}
		return fc.compileLoop(s.Test, s.Body, s.Update)
	case *ast.SwitchStmt:
		return fc.compileSwitch(s)
	case *ast.BlockStmt:
		for _, inner := range s.Statements {
			if err := fc.stmt(inner); err != nil {
				return err
			}
		}
	case *ast.EmptyStmt, *ast.FuncDecl:
		// function declarations are bound by hoistFunctions
	default:
		return errorf(stmt.Pos(), "unsupported statement %T", stmt)
	}
	return nil
}

func (fc *funcCompiler) compileIf(s *ast.IfStmt) error {
	if err := fc.value(s.Condition); err != nil {
		return err
	}
	elseJump := fc.emitJump(OP_JUMP_UNLESS)
	if err := fc.stmt(s.Conseq); err != nil {
		return err
	}
	if s.Alt == nil {
		fc.patchJump(elseJump)
		return nil
	}
	endJump := fc.emitJump(OP_JUMP)
	fc.patchJump(elseJump)
	if err := fc.stmt(s.Alt); err != nil {
		return err
	}
	fc.patchJump(endJump)
	return nil
}

// compileLoop emits while loops and desugared for loops. A nil or
// constant truthy test produces an unconditional back edge.
func (fc *funcCompiler) compileLoop(test ast.Expression, body ast.Statement, update ast.Expression) error {
	top := len(fc.unit.Code)
	exitJump := -1
	if !constTruthy(test) {
		if err := fc.value(test); err != nil {
			return err
		}
		exitJump = fc.emitJump(OP_JUMP_UNLESS)
	}
	if err := fc.stmt(body); err != nil {
		return err
	}
	if update != nil {
		if err := fc.expr(update, false); err != nil {
			return err
		}
	}
	fc.emitLoop(OP_JUMP, top)
	if exitJump >= 0 {
		fc.patchJump(exitJump)
	}
	return nil
}

func (fc *funcCompiler) compileDoWhile(s *ast.DoWhileStmt) error {
	top := len(fc.unit.Code)
	if err := fc.stmt(s.Body); err != nil {
		return err
	}
	if constTruthy(s.Condition) {
		fc.emitLoop(OP_JUMP, top)
		return nil
	}
	if err := fc.value(s.Condition); err != nil {
		return err
	}
	fc.emitLoop(OP_JUMP_IF, top)
	return nil
}

// compileSwitch keeps the discriminant on the stack while the case tests
// run and pops it once after the last body. Bodies fall through.
func (fc *funcCompiler) compileSwitch(s *ast.SwitchStmt) error {
	if err := fc.value(s.Discriminant); err != nil {
		return err
	}
	jumps := make([]int, len(s.Cases))
	hasDefault := false
	for i, c := range s.Cases {
		if c.Test == nil {
			hasDefault = true
			jumps[i] = -1
			continue
		}
		fc.setLine(c.Pos.Line)
		fc.emitByte(OP_DUP)
		if err := fc.value(c.Test); err != nil {
			return err
		}
		fc.emitByte(OP_STRICT_EQ)
		jumps[i] = fc.emitJump(OP_JUMP_IF)
	}
	fallback := fc.emitJump(OP_JUMP)
	for i, c := range s.Cases {
		if jumps[i] < 0 {
			fc.patchJump(fallback)
		} else {
			fc.patchJump(jumps[i])
		}
		for _, stmt := range c.Body {
			if err := fc.stmt(stmt); err != nil {
				return err
			}
		}
	}
	if !hasDefault {
		fc.patchJump(fallback)
	}
	fc.emitByte(OP_POP)
	return nil
}

// expr compiles e; when want is false the net stack effect is zero.
func (fc *funcCompiler) expr(e ast.Expression, want bool) error {
	switch x := e.(type) {
	case *ast.NumberLiteral, *ast.StringLiteral, *ast.BoolLiteral, *ast.NullLiteral:
		if !want {
			return nil
		}
	case *ast.AssignExpr:
		return fc.assign(x, want)
	case *ast.UpdateExpr:
		return fc.update(x, want)
	case *ast.ConditionalExpr:
		return fc.conditional(x, want)
	case *ast.BinaryExpr:
		if x.Operator == token.AndAnd || x.Operator == token.OrOr {
			return fc.logical(x, want)
		}
	}
	if err := fc.value(e); err != nil {
		return err
	}
	if !want {
		fc.emitByte(OP_POP)
	}
	return nil
}

// value compiles e so that it pushes exactly one value.
func (fc *funcCompiler) value(e ast.Expression) error {
	switch x := e.(type) {
	case *ast.NumberLiteral:
		fc.emitConst(value.Number(x.Value))
	case *ast.StringLiteral:
		fc.emitConst(value.Str(value.StaticString(x.Value)))
	case *ast.BoolLiteral:
		if x.Value {
			fc.emitByte(OP_TRUE)
		} else {
			fc.emitByte(OP_FALSE)
		}
	case *ast.NullLiteral:
		fc.emitByte(OP_NULL)
	case *ast.Identifier:
		v, err := fc.variable(x)
		if err != nil {
			return err
		}
		fc.load(v)
	case *ast.ObjectLiteral:
		fc.emitByte(OP_NEW_OBJECT)
		for _, f := range x.Fields {
			fc.emitByte(OP_DUP)
			fc.emitConst(value.Str(value.StaticString(f.Key)))
			if err := fc.value(f.Value); err != nil {
				return err
			}
			fc.emitByte(OP_INDEX_STORE)
		}
	case *ast.IndexExpr, *ast.MemberExpr:
		if err := fc.target(e); err != nil {
			return err
		}
		fc.emitByte(OP_INDEX)
	case *ast.CallExpr:
		if err := fc.value(x.Callee); err != nil {
			return err
		}
		for _, arg := range x.Arguments {
			if err := fc.value(arg); err != nil {
				return err
			}
		}
		fc.setLine(x.Pos().Line)
		fc.emitU16(OP_CALL, len(x.Arguments))
	case *ast.UnaryExpr:
		if err := fc.value(x.Right); err != nil {
			return err
		}
		switch x.Operator {
		case token.Minus:
			fc.emitByte(OP_NEG)
		case token.Plus:
			fc.emitByte(OP_TO_NUM)
		case token.Bang:
			fc.emitByte(OP_NOT)
		case token.Tilde:
			fc.emitByte(OP_BW_NOT)
		case token.Typeof:
			fc.emitByte(OP_TYPEOF)
		default:
			return errorf(x.Pos(), "unsupported unary operator %s", x.Operator)
		}
	case *ast.BinaryExpr:
		if x.Operator == token.AndAnd || x.Operator == token.OrOr {
			return fc.logical(x, true)
		}
		if err := fc.value(x.Left); err != nil {
			return err
		}
		if err := fc.value(x.Right); err != nil {
			return err
		}
		return fc.binaryOp(x.Pos(), x.Operator)
	case *ast.FuncLit:
		return fc.closure(x, x.Name)
	case *ast.AssignExpr, *ast.UpdateExpr, *ast.ConditionalExpr:
		return fc.expr(e, true)
	default:
		return errorf(e.Pos(), "unsupported expression %T", e)
	}
	return nil
}

// target pushes the base object and the key of an index or member
// expression.
func (fc *funcCompiler) target(e ast.Expression) error {
	switch x := e.(type) {
	case *ast.IndexExpr:
		if err := fc.value(x.Left); err != nil {
			return err
		}
		return fc.value(x.Index)
	case *ast.MemberExpr:
		if err := fc.value(x.Left); err != nil {
			return err
		}
		fc.emitConst(value.Str(value.StaticString(x.Property)))
		return nil
	}
	return errorf(e.Pos(), "invalid assignment target")
}

var binaryOps = map[token.Type]byte{
	token.Plus:         OP_ADD,
	token.Minus:        OP_SUB,
	token.Star:         OP_MUL,
	token.Slash:        OP_DIV,
	token.Percent:      OP_MOD,
	token.BitAnd:       OP_BW_AND,
	token.BitOr:        OP_BW_OR,
	token.BitXor:       OP_BW_XOR,
	token.Shl:          OP_LSHIFT,
	token.Shr:          OP_RSHIFT,
	token.UShr:         OP_URSHIFT,
	token.Equal:        OP_EQ,
	token.NotEqual:     OP_NEQ,
	token.StrictEqual:  OP_STRICT_EQ,
	token.StrictNotEq:  OP_STRICT_NEQ,
	token.Less:         OP_LT,
	token.LessEqual:    OP_LTE,
	token.Greater:      OP_GT,
	token.GreaterEqual: OP_GTE,
}

func (fc *funcCompiler) binaryOp(pos token.Position, op token.Type) error {
	code, ok := binaryOps[op]
	if !ok {
		return errorf(pos, "unsupported binary operator %s", op)
	}
	fc.emitByte(code)
	return nil
}

func (fc *funcCompiler) assign(e *ast.AssignExpr, want bool) error {
	op, compound := token.CompoundOp(e.Operator)
	switch lhs := e.Left.(type) {
	case *ast.Identifier:
		v, err := fc.variable(lhs)
		if err != nil {
			return err
		}
		if compound {
			fc.load(v)
		}
		if err := fc.value(e.Value); err != nil {
			return err
		}
		if compound {
			if err := fc.binaryOp(e.Pos(), op); err != nil {
				return err
			}
		}
		if want {
			fc.emitByte(OP_DUP)
		}
		fc.store(v)
	case *ast.IndexExpr, *ast.MemberExpr:
		if err := fc.target(lhs); err != nil {
			return err
		}
		if compound {
			fc.emitByte(OP_DUP2)
			fc.emitByte(OP_INDEX)
		}
		if err := fc.value(e.Value); err != nil {
			return err
		}
		if compound {
			if err := fc.binaryOp(e.Pos(), op); err != nil {
				return err
			}
		}
		if want {
			fc.emitByte(OP_DUP_X2)
		}
		fc.emitByte(OP_INDEX_STORE)
	default:
		return errorf(e.Pos(), "invalid assignment target")
	}
	return nil
}

func (fc *funcCompiler) update(e *ast.UpdateExpr, want bool) error {
	delta := byte(OP_ADD)
	if e.Operator == token.Decrement {
		delta = OP_SUB
	}
	switch t := e.Target.(type) {
	case *ast.Identifier:
		v, err := fc.variable(t)
		if err != nil {
			return err
		}
		fc.load(v)
		fc.emitByte(OP_TO_NUM)
		if want && !e.Prefix {
			fc.emitByte(OP_DUP)
		}
		fc.emitConst(value.Number(1))
		fc.emitByte(delta)
		if want && e.Prefix {
			fc.emitByte(OP_DUP)
		}
		fc.store(v)
	case *ast.IndexExpr, *ast.MemberExpr:
		if err := fc.target(t); err != nil {
			return err
		}
		fc.emitByte(OP_DUP2)
		fc.emitByte(OP_INDEX)
		fc.emitByte(OP_TO_NUM)
		if want && !e.Prefix {
			fc.emitByte(OP_DUP_X2)
		}
		fc.emitConst(value.Number(1))
		fc.emitByte(delta)
		if want && e.Prefix {
			fc.emitByte(OP_DUP_X2)
		}
		fc.emitByte(OP_INDEX_STORE)
	default:
		return errorf(e.Pos(), "invalid %s operand", e.Operator)
	}
	return nil
}

func (fc *funcCompiler) logical(e *ast.BinaryExpr, want bool) error {
	if err := fc.value(e.Left); err != nil {
		return err
	}
	if want {
		fc.emitByte(OP_DUP)
	}
	op := byte(OP_JUMP_UNLESS)
	if e.Operator == token.OrOr {
		op = OP_JUMP_IF
	}
	end := fc.emitJump(op)
	if want {
		fc.emitByte(OP_POP)
	}
	if err := fc.expr(e.Right, want); err != nil {
		return err
	}
	fc.patchJump(end)
	return nil
}

func (fc *funcCompiler) conditional(e *ast.ConditionalExpr, want bool) error {
	if err := fc.value(e.Test); err != nil {
		return err
	}
	elseJump := fc.emitJump(OP_JUMP_UNLESS)
	if err := fc.expr(e.Conseq, want); err != nil {
		return err
	}
	endJump := fc.emitJump(OP_JUMP)
	fc.patchJump(elseJump)
	if err := fc.expr(e.Alt, want); err != nil {
		return err
	}
	fc.patchJump(endJump)
	return nil
}

// constTruthy reports whether a loop test is a literal that is always
// true. A missing test counts as true.
func constTruthy(e ast.Expression) bool {
	switch x := e.(type) {
	case nil:
		return true
	case *ast.BoolLiteral:
		return x.Value
	case *ast.NumberLiteral:
		return x.Value != 0 && !math.IsNaN(x.Value)
	case *ast.StringLiteral:
		return x.Value != ""
	}
	return false
}

func (fc *funcCompiler) emitConst(v value.Value) {
	fc.emitU16(OP_CONST, fc.addConst(v))
}

func (fc *funcCompiler) nameConst(name string) int {
	return fc.addConst(value.Str(value.StaticString(name)))
}

// addConst interns v, returning the index of a strictly equal entry when
// one exists.
func (fc *funcCompiler) addConst(v value.Value) int {
	for i, c := range fc.unit.Constants {
		if value.StrictEqual(c, v) {
			return i
		}
	}
	fc.unit.Constants = append(fc.unit.Constants, v)
	return len(fc.unit.Constants) - 1
}

func (fc *funcCompiler) emitByte(b byte) {
	fc.recordLine()
	fc.unit.Code = append(fc.unit.Code, b)
}

func (fc *funcCompiler) emitBytes(b ...byte) {
	fc.recordLine()
	fc.unit.Code = append(fc.unit.Code, b...)
}

func (fc *funcCompiler) emitU16(op byte, n int) {
	if n > math.MaxUint16 && fc.err == nil {
		fc.err = errorf(fc.pos(), "%s operand %d out of range", bytecode.OpName(op), n)
	}
	fc.emitBytes(op, byte(n>>8), byte(n))
}

// emitJump writes op with a placeholder displacement and returns the
// operand's offset for patchJump.
func (fc *funcCompiler) emitJump(op byte) int {
	fc.emitBytes(op, 0xff, 0xff, 0xff, 0xff)
	return len(fc.unit.Code) - 4
}

// patchJump points the jump whose operand is at pos to the current end of
// code.
func (fc *funcCompiler) patchJump(pos int) {
	bytecode.PutI32(fc.unit.Code, pos, int32(len(fc.unit.Code)-(pos+4)))
}

// emitLoop writes a backward jump to start.
func (fc *funcCompiler) emitLoop(op byte, start int) {
	pos := fc.emitJump(op)
	bytecode.PutI32(fc.unit.Code, pos, int32(start-(pos+4)))
}

func (fc *funcCompiler) setLine(line int) {
	if line > 0 {
		fc.line = line
	}
}

func (fc *funcCompiler) recordLine() {
	if fc.line == 0 {
		return
	}
	off := len(fc.unit.Code)
	n := len(fc.unit.Lines)
	if n > 0 && fc.unit.Lines[n-1].Line == fc.line {
		return
	}
	if n > 0 && fc.unit.Lines[n-1].Offset == off {
		fc.unit.Lines[n-1].Line = fc.line
		return
	}
	fc.unit.Lines = append(fc.unit.Lines, LineInfo{Offset: off, Line: fc.line})
}

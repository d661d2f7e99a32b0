package ast

import "github.com/xirelogy/go-jazz/internal/token"

// Node represents any AST node.
type Node interface {
	Pos() token.Position
	Span() token.Span
}

// Statement is an executable node.
type Statement interface {
	Node
	stmtNode()
}

// Expression produces a value.
type Expression interface {
	Node
	exprNode()
}

// Program is the root node.
type Program struct {
	Statements []Statement
	NodeSpan   token.Span
}

func (p *Program) Pos() token.Position {
	if len(p.Statements) == 0 {
		return token.Position{}
	}
	return p.Statements[0].Pos()
}
func (p *Program) Span() token.Span { return p.NodeSpan }

// Statements

type BlockStmt struct {
	LBrace     token.Position
	Statements []Statement
	BlockSpan  token.Span
}

func (b *BlockStmt) Pos() token.Position { return b.LBrace }
func (b *BlockStmt) Span() token.Span    { return b.BlockSpan }
func (b *BlockStmt) stmtNode()           {}

type EmptyStmt struct {
	PosT token.Position
	Sp   token.Span
}

func (e *EmptyStmt) Pos() token.Position { return e.PosT }
func (e *EmptyStmt) Span() token.Span    { return e.Sp }
func (e *EmptyStmt) stmtNode()           {}

type ExprStmt struct {
	Expression Expression
	Start      token.Position
	StmtSpan   token.Span
}

func (e *ExprStmt) Pos() token.Position { return e.Start }
func (e *ExprStmt) Span() token.Span    { return e.StmtSpan }
func (e *ExprStmt) stmtNode()           {}

// VarStmt declares one or more function-scoped variables.
type VarStmt struct {
	VarPos   token.Position
	Decls    []VarDecl
	StmtSpan token.Span
}

func (v *VarStmt) Pos() token.Position { return v.VarPos }
func (v *VarStmt) Span() token.Span    { return v.StmtSpan }
func (v *VarStmt) stmtNode()           {}

// VarDecl is one declarator; Init is nil when absent.
type VarDecl struct {
	Name *Identifier
	Init Expression
}

type ReturnStmt struct {
	Return   token.Position
	Value    Expression
	StmtSpan token.Span
}

func (r *ReturnStmt) Pos() token.Position { return r.Return }
func (r *ReturnStmt) Span() token.Span    { return r.StmtSpan }
func (r *ReturnStmt) stmtNode()           {}

type IfStmt struct {
	IfPos     token.Position
	Condition Expression
	Conseq    Statement
	Alt       Statement
	IfSpan    token.Span
}

func (i *IfStmt) Pos() token.Position { return i.IfPos }
func (i *IfStmt) Span() token.Span    { return i.IfSpan }
func (i *IfStmt) stmtNode()           {}

type WhileStmt struct {
	WhilePos  token.Position
	Condition Expression
	Body      Statement
	NodeSpan  token.Span
}

func (w *WhileStmt) Pos() token.Position { return w.WhilePos }
func (w *WhileStmt) Span() token.Span    { return w.NodeSpan }
func (w *WhileStmt) stmtNode()           {}

type DoWhileStmt struct {
	DoPos     token.Position
	Body      Statement
	Condition Expression
	NodeSpan  token.Span
}

func (d *DoWhileStmt) Pos() token.Position { return d.DoPos }
func (d *DoWhileStmt) Span() token.Span    { return d.NodeSpan }
func (d *DoWhileStmt) stmtNode()           {}

// ForStmt is the three-clause loop. Init is a *VarStmt, an *ExprStmt or
// nil; Test and Update may be nil.
type ForStmt struct {
	ForPos   token.Position
	Init     Statement
	Test     Expression
	Update   Expression
	Body     Statement
	NodeSpan token.Span
}

func (f *ForStmt) Pos() token.Position { return f.ForPos }
func (f *ForStmt) Span() token.Span    { return f.NodeSpan }
func (f *ForStmt) stmtNode()           {}

type SwitchStmt struct {
	SwitchPos    token.Position
	Discriminant Expression
	Cases        []SwitchCase
	NodeSpan     token.Span
}

func (s *SwitchStmt) Pos() token.Position { return s.SwitchPos }
func (s *SwitchStmt) Span() token.Span    { return s.NodeSpan }
func (s *SwitchStmt) stmtNode()           {}

// SwitchCase is a case clause; Test is nil for default.
type SwitchCase struct {
	Test Expression
	Body []Statement
	Pos  token.Position
}

type FuncDecl struct {
	FuncPos  token.Position
	Name     *Identifier
	Func     *FuncLit
	NodeSpan token.Span
}

func (f *FuncDecl) Pos() token.Position { return f.FuncPos }
func (f *FuncDecl) Span() token.Span    { return f.NodeSpan }
func (f *FuncDecl) stmtNode()           {}

// Expressions

type Identifier struct {
	Name string
	PosT token.Position
	Sp   token.Span
}

func (i *Identifier) Pos() token.Position { return i.PosT }
func (i *Identifier) Span() token.Span    { return i.Sp }
func (i *Identifier) exprNode()           {}

type NumberLiteral struct {
	Value float64
	Raw   string
	PosT  token.Position
	Sp    token.Span
}

func (n *NumberLiteral) Pos() token.Position { return n.PosT }
func (n *NumberLiteral) Span() token.Span    { return n.Sp }
func (n *NumberLiteral) exprNode()           {}

type StringLiteral struct {
	Value string
	PosT  token.Position
	Sp    token.Span
}

func (s *StringLiteral) Pos() token.Position { return s.PosT }
func (s *StringLiteral) Span() token.Span    { return s.Sp }
func (s *StringLiteral) exprNode()           {}

type BoolLiteral struct {
	Value bool
	PosT  token.Position
	Sp    token.Span
}

func (b *BoolLiteral) Pos() token.Position { return b.PosT }
func (b *BoolLiteral) Span() token.Span    { return b.Sp }
func (b *BoolLiteral) exprNode()           {}

type NullLiteral struct {
	PosT token.Position
	Sp   token.Span
}

func (n *NullLiteral) Pos() token.Position { return n.PosT }
func (n *NullLiteral) Span() token.Span    { return n.Sp }
func (n *NullLiteral) exprNode()           {}

type ObjectLiteral struct {
	Fields []ObjectField
	PosT   token.Position
	Sp     token.Span
}

func (o *ObjectLiteral) Pos() token.Position { return o.PosT }
func (o *ObjectLiteral) Span() token.Span    { return o.Sp }
func (o *ObjectLiteral) exprNode()           {}

// ObjectField is a key: value pair. Identifier, string and number keys
// are all normalized to their property name.
type ObjectField struct {
	Key   string
	Value Expression
	Pos   token.Position
}

type IndexExpr struct {
	Left  Expression
	Index Expression
	PosT  token.Position
	Sp    token.Span
}

func (i *IndexExpr) Pos() token.Position { return i.PosT }
func (i *IndexExpr) Span() token.Span    { return i.Sp }
func (i *IndexExpr) exprNode()           {}

type MemberExpr struct {
	Left     Expression
	Property string
	PosT     token.Position
	Sp       token.Span
}

func (m *MemberExpr) Pos() token.Position { return m.PosT }
func (m *MemberExpr) Span() token.Span    { return m.Sp }
func (m *MemberExpr) exprNode()           {}

type CallExpr struct {
	Callee    Expression
	Arguments []Expression
	PosT      token.Position
	Sp        token.Span
}

func (c *CallExpr) Pos() token.Position { return c.PosT }
func (c *CallExpr) Span() token.Span    { return c.Sp }
func (c *CallExpr) exprNode()           {}

// AssignExpr covers = and the compound operators.
type AssignExpr struct {
	Left     Expression
	Value    Expression
	Operator token.Type
	PosT     token.Position
	Sp       token.Span
}

func (a *AssignExpr) Pos() token.Position { return a.PosT }
func (a *AssignExpr) Span() token.Span    { return a.Sp }
func (a *AssignExpr) exprNode()           {}

// UpdateExpr is ++ or -- in prefix or postfix position.
type UpdateExpr struct {
	Operator token.Type
	Prefix   bool
	Target   Expression
	PosT     token.Position
	Sp       token.Span
}

func (u *UpdateExpr) Pos() token.Position { return u.PosT }
func (u *UpdateExpr) Span() token.Span    { return u.Sp }
func (u *UpdateExpr) exprNode()           {}

type BinaryExpr struct {
	Left     Expression
	Operator token.Type
	Right    Expression
	PosT     token.Position
	Sp       token.Span
}

func (b *BinaryExpr) Pos() token.Position { return b.PosT }
func (b *BinaryExpr) Span() token.Span    { return b.Sp }
func (b *BinaryExpr) exprNode()           {}

type UnaryExpr struct {
	Operator token.Type
	Right    Expression
	PosT     token.Position
	Sp       token.Span
}

func (u *UnaryExpr) Pos() token.Position { return u.PosT }
func (u *UnaryExpr) Span() token.Span    { return u.Sp }
func (u *UnaryExpr) exprNode()           {}

type ConditionalExpr struct {
	Test   Expression
	Conseq Expression
	Alt    Expression
	PosT   token.Position
	Sp     token.Span
}

func (c *ConditionalExpr) Pos() token.Position { return c.PosT }
func (c *ConditionalExpr) Span() token.Span    { return c.Sp }
func (c *ConditionalExpr) exprNode()           {}

// FuncLit is a function body with its parameters. It appears on its own
// as a function expression and inside a FuncDecl.
type FuncLit struct {
	FuncPos token.Position
	Name    string
	Params  []Param
	Body    *BlockStmt
	Sp      token.Span
}

func (f *FuncLit) Pos() token.Position { return f.FuncPos }
func (f *FuncLit) Span() token.Span    { return f.Sp }
func (f *FuncLit) exprNode()           {}

type Param struct {
	Name string
	Pos  token.Position
	Sp   token.Span
}

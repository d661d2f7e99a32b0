package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xirelogy/go-jazz/internal/ast"
	"github.com/xirelogy/go-jazz/internal/lexer"
	"github.com/xirelogy/go-jazz/internal/token"
	"github.com/xirelogy/go-jazz/internal/value"
)

// ErrSyntax is wrapped by the error returned from Err.
var ErrSyntax = errors.New("syntax error")

// Parser is a Pratt parser over the lexer's token stream. Statement parsers
// leave curToken on the first token after the statement; expression parsers
// leave it on the last token of the expression.
type Parser struct {
	l         *lexer.Lexer
	curToken  token.Token
	peekToken token.Token
	errors    []string
	prevToken token.Token
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:      l,
		errors: []string{},
	}
	// Read two tokens, so curToken and peekToken are set
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) Errors() []string {
	return p.errors
}

// Err returns the collected errors as a single error, or nil.
func (p *Parser) Err() error {
	if len(p.errors) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrSyntax, strings.Join(p.errors, "; "))
}

func (p *Parser) nextToken() {
	p.prevToken = p.curToken
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	prog.Statements = p.parseStatements(token.EOF)
	if len(prog.Statements) > 0 {
		prog.NodeSpan = token.Span{Start: prog.Statements[0].Span().Start, End: prog.Statements[len(prog.Statements)-1].Span().End}
	}
	return prog
}

// parseStatements reads statements until one of the stop tokens (or EOF).
func (p *Parser) parseStatements(stop ...token.Type) []ast.Statement {
	var stmts []ast.Statement
	for !p.curIs(stop...) && p.curToken.Type != token.EOF {
		start := p.curToken
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.curToken == start {
			p.nextToken()
		}
	}
	return stmts
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.Var:
		stmt := p.parseVarDecls()
		if stmt == nil {
			return nil
		}
		p.consumeTerminator()
		return stmt
	case token.Function:
		return p.parseFuncDecl()
	case token.Return:
		return p.parseReturn()
	case token.If:
		return p.parseIf()
	case token.While:
		return p.parseWhile()
	case token.Do:
		return p.parseDoWhile()
	case token.For:
		return p.parseFor()
	case token.Switch:
		return p.parseSwitch()
	case token.LBrace:
		block := p.parseBlock()
		if block == nil {
			return nil
		}
		p.nextToken()
		return block
	case token.Semicolon:
		stmt := &ast.EmptyStmt{PosT: p.curToken.Pos, Sp: token.Span{Start: p.curToken.Pos, End: p.curToken.Pos}}
		p.nextToken()
		return stmt
	default:
		return p.parseExprStatement()
	}
}

// parseBlock leaves curToken on the closing brace.
func (p *Parser) parseBlock() *ast.BlockStmt {
	block := &ast.BlockStmt{LBrace: p.curToken.Pos}
	p.nextToken()
	block.Statements = p.parseStatements(token.RBrace)
	if p.curToken.Type != token.RBrace {
		p.errorf(p.curToken.Pos, "expected '}'")
		return nil
	}
	block.BlockSpan = token.Span{Start: block.LBrace, End: p.curToken.Pos}
	return block
}

// parseVarDecls leaves curToken on the last token of the declaration list.
func (p *Parser) parseVarDecls() *ast.VarStmt {
	stmt := &ast.VarStmt{VarPos: p.curToken.Pos}
	for {
		if !p.expectPeek(token.Ident) {
			return nil
		}
		p.nextToken()
		decl := ast.VarDecl{Name: p.identifier()}
		if p.peekToken.Type == token.Assign {
			p.nextToken()
			p.nextToken()
			decl.Init = p.parseExpression(lowest)
			if decl.Init == nil {
				return nil
			}
		}
		stmt.Decls = append(stmt.Decls, decl)
		if p.peekToken.Type != token.Comma {
			break
		}
		p.nextToken()
	}
	stmt.StmtSpan = token.Span{Start: stmt.VarPos, End: p.curToken.Pos}
	return stmt
}

func (p *Parser) parseFuncDecl() ast.Statement {
	decl := &ast.FuncDecl{FuncPos: p.curToken.Pos}
	if !p.expectPeek(token.Ident) {
		return nil
	}
	p.nextToken()
	decl.Name = p.identifier()
	decl.Func = p.parseFunctionRest(decl.FuncPos, decl.Name.Name)
	if decl.Func == nil {
		return nil
	}
	decl.NodeSpan = decl.Func.Sp
	p.nextToken()
	return decl
}

func (p *Parser) parseReturn() ast.Statement {
	ret := &ast.ReturnStmt{Return: p.curToken.Pos}
	if !p.atStatementEnd() {
		p.nextToken()
		ret.Value = p.parseExpression(lowest)
		if ret.Value == nil {
			return nil
		}
	}
	end := ret.Return
	if ret.Value != nil {
		end = ret.Value.Span().End
	}
	ret.StmtSpan = token.Span{Start: ret.Return, End: end}
	p.consumeTerminator()
	return ret
}

func (p *Parser) parseIf() ast.Statement {
	stmt := &ast.IfStmt{IfPos: p.curToken.Pos}
	stmt.Condition = p.parseCondition()
	if stmt.Condition == nil {
		return nil
	}
	stmt.Conseq = p.parseStatement()
	if stmt.Conseq == nil {
		return nil
	}
	end := stmt.Conseq.Span().End
	if p.curToken.Type == token.Else {
		p.nextToken()
		stmt.Alt = p.parseStatement()
		if stmt.Alt == nil {
			return nil
		}
		end = stmt.Alt.Span().End
	}
	stmt.IfSpan = token.Span{Start: stmt.IfPos, End: end}
	return stmt
}

func (p *Parser) parseWhile() ast.Statement {
	stmt := &ast.WhileStmt{WhilePos: p.curToken.Pos}
	stmt.Condition = p.parseCondition()
	if stmt.Condition == nil {
		return nil
	}
	stmt.Body = p.parseStatement()
	if stmt.Body == nil {
		return nil
	}
	stmt.NodeSpan = token.Span{Start: stmt.WhilePos, End: stmt.Body.Span().End}
	return stmt
}

func (p *Parser) parseDoWhile() ast.Statement {
	stmt := &ast.DoWhileStmt{DoPos: p.curToken.Pos}
	p.nextToken()
	stmt.Body = p.parseStatement()
	if stmt.Body == nil {
		return nil
	}
	if p.curToken.Type != token.While {
		p.errorf(p.curToken.Pos, "expected 'while' after do body, got %s", p.curToken.Type)
		return nil
	}
	stmt.Condition = p.parseCondition()
	if stmt.Condition == nil {
		return nil
	}
	stmt.NodeSpan = token.Span{Start: stmt.DoPos, End: p.prevToken.Pos}
	if p.curToken.Type == token.Semicolon {
		p.nextToken()
	}
	return stmt
}

func (p *Parser) parseFor() ast.Statement {
	stmt := &ast.ForStmt{ForPos: p.curToken.Pos}
	if !p.expectPeek(token.LParen) {
		return nil
	}
	p.nextToken() // move to '('
	p.nextToken() // move to init or ';'

	switch p.curToken.Type {
	case token.Semicolon:
	case token.Var:
		decls := p.parseVarDecls()
		if decls == nil || !p.expectPeek(token.Semicolon) {
			return nil
		}
		stmt.Init = decls
		p.nextToken()
	default:
		start := p.curToken.Pos
		expr := p.parseExpression(lowest)
		if expr == nil || !p.expectPeek(token.Semicolon) {
			return nil
		}
		stmt.Init = &ast.ExprStmt{Expression: expr, Start: start, StmtSpan: expr.Span()}
		p.nextToken()
	}

	p.nextToken() // move past ';'
	if p.curToken.Type != token.Semicolon {
		stmt.Test = p.parseExpression(lowest)
		if stmt.Test == nil || !p.expectPeek(token.Semicolon) {
			return nil
		}
		p.nextToken()
	}

	p.nextToken() // move past ';'
	if p.curToken.Type != token.RParen {
		stmt.Update = p.parseExpression(lowest)
		if stmt.Update == nil || !p.expectPeek(token.RParen) {
			return nil
		}
		p.nextToken()
	}

	p.nextToken() // move past ')'
	stmt.Body = p.parseStatement()
	if stmt.Body == nil {
		return nil
	}
	stmt.NodeSpan = token.Span{Start: stmt.ForPos, End: stmt.Body.Span().End}
	return stmt
}

func (p *Parser) parseSwitch() ast.Statement {
	stmt := &ast.SwitchStmt{SwitchPos: p.curToken.Pos}
	stmt.Discriminant = p.parseCondition()
	if stmt.Discriminant == nil {
		return nil
	}
	if p.curToken.Type != token.LBrace {
		p.errorf(p.curToken.Pos, "expected '{' after switch discriminant")
		return nil
	}
	p.nextToken()

	hasDefault := false
	for p.curToken.Type != token.RBrace {
		clause := ast.SwitchCase{Pos: p.curToken.Pos}
		switch p.curToken.Type {
		case token.Case:
			p.nextToken()
			clause.Test = p.parseExpression(lowest)
			if clause.Test == nil {
				return nil
			}
		case token.Default:
			if hasDefault {
				p.errorf(p.curToken.Pos, "multiple default clauses in switch")
				return nil
			}
			hasDefault = true
		default:
			p.errorf(p.curToken.Pos, "expected 'case', 'default' or '}' in switch, got %s", p.curToken.Type)
			return nil
		}
		if !p.expectPeek(token.Colon) {
			return nil
		}
		p.nextToken() // move to ':'
		p.nextToken() // move to first body token
		clause.Body = p.parseStatements(token.Case, token.Default, token.RBrace)
		stmt.Cases = append(stmt.Cases, clause)
		if p.curToken.Type == token.EOF {
			p.errorf(p.curToken.Pos, "unterminated switch")
			return nil
		}
	}
	stmt.NodeSpan = token.Span{Start: stmt.SwitchPos, End: p.curToken.Pos}
	p.nextToken()
	return stmt
}

func (p *Parser) parseExprStatement() ast.Statement {
	stmt := &ast.ExprStmt{Start: p.curToken.Pos}
	stmt.Expression = p.parseExpression(lowest)
	if stmt.Expression == nil {
		return nil
	}
	stmt.StmtSpan = token.Span{Start: stmt.Start, End: stmt.Expression.Span().End}
	p.consumeTerminator()
	return stmt
}

// parseCondition reads a parenthesized expression following the current
// keyword and leaves curToken after the closing parenthesis.
func (p *Parser) parseCondition() ast.Expression {
	if !p.expectPeek(token.LParen) {
		return nil
	}
	p.nextToken()
	p.nextToken()
	cond := p.parseExpression(lowest)
	if cond == nil || !p.expectPeek(token.RParen) {
		return nil
	}
	p.nextToken()
	p.nextToken()
	return cond
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	var left ast.Expression
	pos := p.curToken.Pos
	span := token.Span{Start: pos, End: pos}

	switch p.curToken.Type {
	case token.Ident:
		left = p.identifier()
	case token.Number:
		left = &ast.NumberLiteral{Value: value.ParseNumber(p.curToken.Literal), Raw: p.curToken.Literal, PosT: pos, Sp: span}
	case token.String:
		left = &ast.StringLiteral{Value: p.curToken.Literal, PosT: pos, Sp: span}
	case token.True:
		left = &ast.BoolLiteral{Value: true, PosT: pos, Sp: span}
	case token.False:
		left = &ast.BoolLiteral{Value: false, PosT: pos, Sp: span}
	case token.Null:
		left = &ast.NullLiteral{PosT: pos, Sp: span}
	case token.Function:
		name := ""
		if p.peekToken.Type == token.Ident {
			p.nextToken()
			name = p.curToken.Literal
		}
		if fn := p.parseFunctionRest(pos, name); fn != nil {
			left = fn
		}
	case token.LParen:
		p.nextToken()
		left = p.parseExpression(lowest)
		if left == nil || !p.expectPeek(token.RParen) {
			return nil
		}
		p.nextToken()
	case token.LBrace:
		left = p.parseObjectLiteral()
	case token.Bang, token.Minus, token.Plus, token.Tilde, token.Typeof:
		left = p.parsePrefixExpression()
	case token.Increment, token.Decrement:
		left = p.parsePrefixUpdate()
	case token.Illegal:
		p.errorf(pos, "illegal token: %s", p.curToken.Literal)
		return nil
	default:
		p.errorf(pos, "unexpected token %s", p.curToken.Type)
		return nil
	}

	if left == nil {
		return nil
	}

	for precedence < p.peekPrecedence() {
		op := p.peekToken.Type
		if (op == token.Increment || op == token.Decrement) && p.peekToken.NewlineBefore {
			break
		}
		p.nextToken()
		switch {
		case token.IsAssign(op):
			left = p.parseAssignExpression(left)
		case op == token.Question:
			left = p.parseConditionalExpression(left)
		case op == token.Increment, op == token.Decrement:
			left = &ast.UpdateExpr{
				Operator: op,
				Target:   left,
				PosT:     p.curToken.Pos,
				Sp:       token.Span{Start: left.Span().Start, End: p.curToken.Pos},
			}
		case op == token.LParen:
			left = p.parseCallExpression(left)
		case op == token.Dot:
			left = p.parseMemberExpression(left)
		case op == token.LBracket:
			left = p.parseIndexExpression(left)
		default:
			left = p.parseInfixExpression(left)
		}
		if left == nil {
			return nil
		}
	}

	return left
}

func (p *Parser) identifier() *ast.Identifier {
	return &ast.Identifier{Name: p.curToken.Literal, PosT: p.curToken.Pos, Sp: token.Span{Start: p.curToken.Pos, End: p.curToken.Pos}}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expr := &ast.UnaryExpr{
		Operator: p.curToken.Type,
		PosT:     p.curToken.Pos,
	}
	p.nextToken()
	expr.Right = p.parseExpression(prefixPrecedence)
	if expr.Right == nil {
		return nil
	}
	expr.Sp = token.Span{Start: expr.PosT, End: expr.Right.Span().End}
	return expr
}

func (p *Parser) parsePrefixUpdate() ast.Expression {
	expr := &ast.UpdateExpr{
		Operator: p.curToken.Type,
		Prefix:   true,
		PosT:     p.curToken.Pos,
	}
	p.nextToken()
	expr.Target = p.parseExpression(prefixPrecedence)
	if expr.Target == nil {
		return nil
	}
	expr.Sp = token.Span{Start: expr.PosT, End: expr.Target.Span().End}
	return expr
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expr := &ast.BinaryExpr{
		Left:     left,
		Operator: p.curToken.Type,
		PosT:     p.curToken.Pos,
	}
	precedence := p.curPrecedence()
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	if expr.Right == nil {
		return nil
	}
	expr.Sp = token.Span{Start: left.Span().Start, End: expr.Right.Span().End}
	return expr
}

func (p *Parser) parseAssignExpression(left ast.Expression) ast.Expression {
	expr := &ast.AssignExpr{
		Left:     left,
		Operator: p.curToken.Type,
		PosT:     p.curToken.Pos,
	}
	p.nextToken()
	expr.Value = p.parseExpression(assignPrecedence - 1)
	if expr.Value == nil {
		return nil
	}
	expr.Sp = token.Span{Start: left.Span().Start, End: expr.Value.Span().End}
	return expr
}

func (p *Parser) parseConditionalExpression(test ast.Expression) ast.Expression {
	expr := &ast.ConditionalExpr{Test: test, PosT: p.curToken.Pos}
	p.nextToken()
	expr.Conseq = p.parseExpression(lowest)
	if expr.Conseq == nil || !p.expectPeek(token.Colon) {
		return nil
	}
	p.nextToken()
	p.nextToken()
	expr.Alt = p.parseExpression(assignPrecedence - 1)
	if expr.Alt == nil {
		return nil
	}
	expr.Sp = token.Span{Start: test.Span().Start, End: expr.Alt.Span().End}
	return expr
}

func (p *Parser) parseCallExpression(callee ast.Expression) ast.Expression {
	expr := &ast.CallExpr{
		Callee: callee,
		PosT:   p.curToken.Pos,
	}
	p.nextToken()
	args, ok := p.parseExpressionList(token.RParen)
	if !ok {
		return nil
	}
	expr.Arguments = args
	expr.Sp = token.Span{Start: callee.Span().Start, End: p.curToken.Pos}
	return expr
}

func (p *Parser) parseMemberExpression(left ast.Expression) ast.Expression {
	pos := p.curToken.Pos
	if !isPropertyName(p.peekToken) {
		p.errorf(p.peekToken.Pos, "expected property name after '.', got %s", p.peekToken.Type)
		return nil
	}
	p.nextToken()
	return &ast.MemberExpr{
		Left:     left,
		Property: p.curToken.Literal,
		PosT:     pos,
		Sp:       token.Span{Start: left.Span().Start, End: p.curToken.Pos},
	}
}

func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	pos := p.curToken.Pos
	p.nextToken()
	index := p.parseExpression(lowest)
	if index == nil || !p.expectPeek(token.RBracket) {
		return nil
	}
	p.nextToken()
	return &ast.IndexExpr{
		Left:  left,
		Index: index,
		PosT:  pos,
		Sp:    token.Span{Start: left.Span().Start, End: p.curToken.Pos},
	}
}

// parseObjectLiteral leaves curToken on the closing brace.
func (p *Parser) parseObjectLiteral() ast.Expression {
	obj := &ast.ObjectLiteral{PosT: p.curToken.Pos}
	p.nextToken()
	for p.curToken.Type != token.RBrace {
		field := ast.ObjectField{Pos: p.curToken.Pos}
		switch {
		case p.curToken.Type == token.String:
			field.Key = p.curToken.Literal
		case p.curToken.Type == token.Number:
			field.Key = value.FormatNumber(value.ParseNumber(p.curToken.Literal))
		case isPropertyName(p.curToken):
			field.Key = p.curToken.Literal
		default:
			p.errorf(p.curToken.Pos, "invalid object key %s", p.curToken.Type)
			return nil
		}
		if !p.expectPeek(token.Colon) {
			return nil
		}
		p.nextToken() // move to ':'
		p.nextToken() // move to value
		field.Value = p.parseExpression(lowest)
		if field.Value == nil {
			return nil
		}
		obj.Fields = append(obj.Fields, field)
		if p.peekToken.Type == token.Comma {
			p.nextToken() // move to ','
			p.nextToken() // move to next key or '}'
			continue
		}
		if !p.expectPeek(token.RBrace) {
			return nil
		}
		p.nextToken()
	}
	obj.Sp = token.Span{Start: obj.PosT, End: p.curToken.Pos}
	return obj
}

// parseExpressionList starts on the first element (or end) and leaves
// curToken on end.
func (p *Parser) parseExpressionList(end token.Type) ([]ast.Expression, bool) {
	list := []ast.Expression{}
	if p.curToken.Type == end {
		return list, true
	}
	for {
		exp := p.parseExpression(lowest)
		if exp == nil {
			return nil, false
		}
		list = append(list, exp)
		if p.peekToken.Type == token.Comma {
			p.nextToken() // move to comma
			p.nextToken() // move to next expression start
			if p.curToken.Type == end {
				p.errorf(p.curToken.Pos, "expected expression")
				return nil, false
			}
			continue
		}
		if !p.expectPeek(end) {
			return nil, false
		}
		p.nextToken()
		return list, true
	}
}

// parseParamList starts on the first parameter (or ')') and leaves
// curToken on ')'.
func (p *Parser) parseParamList() ([]ast.Param, bool) {
	params := []ast.Param{}
	if p.curToken.Type == token.RParen {
		return params, true
	}
	for {
		if p.curToken.Type != token.Ident {
			p.errorf(p.curToken.Pos, "expected parameter name, got %s", p.curToken.Type)
			return nil, false
		}
		params = append(params, ast.Param{Name: p.curToken.Literal, Pos: p.curToken.Pos, Sp: token.Span{Start: p.curToken.Pos, End: p.curToken.Pos}})
		if p.peekToken.Type != token.Comma {
			break
		}
		p.nextToken()
		p.nextToken()
	}
	if !p.expectPeek(token.RParen) {
		return nil, false
	}
	p.nextToken()
	return params, true
}

// parseFunctionRest parses "(params) { body }" with curToken on the token
// before '('. It leaves curToken on the closing brace.
func (p *Parser) parseFunctionRest(pos token.Position, name string) *ast.FuncLit {
	fn := &ast.FuncLit{FuncPos: pos, Name: name}
	if !p.expectPeek(token.LParen) {
		return nil
	}
	p.nextToken() // move to '('
	p.nextToken() // move to first param or ')'
	params, ok := p.parseParamList()
	if !ok {
		return nil
	}
	fn.Params = params
	if !p.expectPeek(token.LBrace) {
		return nil
	}
	p.nextToken()
	fn.Body = p.parseBlock()
	if fn.Body == nil {
		return nil
	}
	fn.Sp = token.Span{Start: pos, End: p.curToken.Pos}
	return fn
}

// consumeTerminator ends a simple statement whose last token is current:
// an explicit ';', or a line break, '}' or EOF that follows it.
func (p *Parser) consumeTerminator() {
	switch {
	case p.peekToken.Type == token.Semicolon:
		p.nextToken()
		p.nextToken()
	case p.atStatementEnd():
		p.nextToken()
	default:
		p.errorf(p.peekToken.Pos, "expected ';' before %s", p.peekToken.Type)
		p.nextToken()
	}
}

func (p *Parser) atStatementEnd() bool {
	switch p.peekToken.Type {
	case token.Semicolon, token.RBrace, token.EOF:
		return true
	}
	return p.peekToken.NewlineBefore
}

func (p *Parser) curIs(types ...token.Type) bool {
	for _, t := range types {
		if p.curToken.Type == t {
			return true
		}
	}
	return false
}

func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekToken.Type == t {
		return true
	}
	p.errorf(p.peekToken.Pos, "expected next token to be %s, got %s", t, p.peekToken.Type)
	return false
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return lowest
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return lowest
}

func (p *Parser) errorf(pos token.Position, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	p.errors = append(p.errors, fmt.Sprintf("%d:%d: %s", pos.Line, pos.Column, msg))
}

// isPropertyName accepts identifiers and keywords after '.' and as
// object literal keys.
func isPropertyName(tok token.Token) bool {
	return tok.Type == token.Ident || (tok.Literal != "" && token.LookupIdent(tok.Literal) == tok.Type)
}

const (
	lowest = iota + 1
	assignPrecedence
	conditionalPrecedence
	orPrecedence
	andPrecedence
	bitOrPrecedence
	bitXorPrecedence
	bitAndPrecedence
	equalPrecedence
	lessGreaterPrecedence
	shiftPrecedence
	sumPrecedence
	productPrecedence
	prefixPrecedence
	postfixPrecedence
	callPrecedence
)

var precedences = map[token.Type]int{
	token.Assign:        assignPrecedence,
	token.PlusAssign:    assignPrecedence,
	token.MinusAssign:   assignPrecedence,
	token.StarAssign:    assignPrecedence,
	token.SlashAssign:   assignPrecedence,
	token.PercentAssign: assignPrecedence,
	token.ShlAssign:     assignPrecedence,
	token.ShrAssign:     assignPrecedence,
	token.UShrAssign:    assignPrecedence,
	token.AndAssign:     assignPrecedence,
	token.OrAssign:      assignPrecedence,
	token.XorAssign:     assignPrecedence,
	token.Question:      conditionalPrecedence,
	token.OrOr:          orPrecedence,
	token.AndAnd:        andPrecedence,
	token.BitOr:         bitOrPrecedence,
	token.BitXor:        bitXorPrecedence,
	token.BitAnd:        bitAndPrecedence,
	token.Equal:         equalPrecedence,
	token.NotEqual:      equalPrecedence,
	token.StrictEqual:   equalPrecedence,
	token.StrictNotEq:   equalPrecedence,
	token.Less:          lessGreaterPrecedence,
	token.LessEqual:     lessGreaterPrecedence,
	token.Greater:       lessGreaterPrecedence,
	token.GreaterEqual:  lessGreaterPrecedence,
	token.Shl:           shiftPrecedence,
	token.Shr:           shiftPrecedence,
	token.UShr:          shiftPrecedence,
	token.Plus:          sumPrecedence,
	token.Minus:         sumPrecedence,
	token.Star:          productPrecedence,
	token.Slash:         productPrecedence,
	token.Percent:       productPrecedence,
	token.Increment:     postfixPrecedence,
	token.Decrement:     postfixPrecedence,
	token.LParen:        callPrecedence,
	token.LBracket:      callPrecedence,
	token.Dot:           callPrecedence,
}

package token

// Type identifies the category of a token.
type Type string

// Token carries the lexical item along with its source position.
// NewlineBefore records a line break between this token and the previous
// one; the parser uses it for automatic statement termination.
type Token struct {
	Type          Type
	Literal       string
	Pos           Position
	NewlineBefore bool
}

// Position describes a rune offset and 1-based line/column.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Span represents an inclusive start and end position for a node.
type Span struct {
	Start Position
	End   Position
}

const (
	Illegal Type = "ILLEGAL"
	EOF     Type = "EOF"

	// identifiers and literals
	Ident  Type = "IDENT"
	Number Type = "NUMBER"
	String Type = "STRING"

	// keywords
	Var      Type = "VAR"
	Function Type = "FUNCTION"
	Return   Type = "RETURN"
	If       Type = "IF"
	Else     Type = "ELSE"
	While    Type = "WHILE"
	Do       Type = "DO"
	For      Type = "FOR"
	Switch   Type = "SWITCH"
	Case     Type = "CASE"
	Default  Type = "DEFAULT"
	True     Type = "TRUE"
	False    Type = "FALSE"
	Null     Type = "NULL"
	Typeof   Type = "TYPEOF"

	// operators
	Assign        Type = "ASSIGN"        // =
	PlusAssign    Type = "PLUSASSIGN"    // +=
	MinusAssign   Type = "MINUSASSIGN"   // -=
	StarAssign    Type = "STARASSIGN"    // *=
	SlashAssign   Type = "SLASHASSIGN"   // /=
	PercentAssign Type = "PERCENTASSIGN" // %=
	ShlAssign     Type = "SHLASSIGN"     // <<=
	ShrAssign     Type = "SHRASSIGN"     // >>=
	UShrAssign    Type = "USHRASSIGN"    // >>>=
	AndAssign     Type = "ANDASSIGN"     // &=
	OrAssign      Type = "ORASSIGN"      // |=
	XorAssign     Type = "XORASSIGN"     // ^=
	Plus          Type = "PLUS"          // +
	Minus         Type = "MINUS"         // -
	Star          Type = "STAR"          // *
	Slash         Type = "SLASH"         // /
	Percent       Type = "PERCENT"       // %
	Increment     Type = "INCREMENT"     // ++
	Decrement     Type = "DECREMENT"     // --
	Bang          Type = "BANG"          // !
	Tilde         Type = "TILDE"         // ~
	Equal         Type = "EQUAL"         // ==
	NotEqual      Type = "NOTEQUAL"      // !=
	StrictEqual   Type = "STRICTEQUAL"   // ===
	StrictNotEq   Type = "STRICTNOTEQ"   // !==
	Less          Type = "LESS"          // <
	LessEqual     Type = "LESSEQUAL"     // <=
	Greater       Type = "GREATER"       // >
	GreaterEqual  Type = "GREATEREQUAL"  // >=
	AndAnd        Type = "ANDAND"        // &&
	OrOr          Type = "OROR"          // ||
	BitAnd        Type = "BITAND"        // &
	BitOr         Type = "BITOR"         // |
	BitXor        Type = "BITXOR"        // ^
	Shl           Type = "SHL"           // <<
	Shr           Type = "SHR"           // >>
	UShr          Type = "USHR"          // >>>
	Question      Type = "QUESTION"      // ?

	// delimiters
	Comma     Type = "COMMA"
	Colon     Type = "COLON"
	Semicolon Type = "SEMICOLON"
	Dot       Type = "DOT"
	LParen    Type = "LPAREN"
	RParen    Type = "RPAREN"
	LBrace    Type = "LBRACE"
	RBrace    Type = "RBRACE"
	LBracket  Type = "LBRACKET"
	RBracket  Type = "RBRACKET"
)

var keywords = map[string]Type{
	"var":      Var,
	"function": Function,
	"return":   Return,
	"if":       If,
	"else":     Else,
	"while":    While,
	"do":       Do,
	"for":      For,
	"switch":   Switch,
	"case":     Case,
	"default":  Default,
	"true":     True,
	"false":    False,
	"null":     Null,
	"typeof":   Typeof,
}

// LookupIdent returns the keyword token type or Ident.
func LookupIdent(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return Ident
}

// IsAssign reports whether t is = or a compound assignment operator.
func IsAssign(t Type) bool {
	_, ok := compoundOps[t]
	return ok || t == Assign
}

var compoundOps = map[Type]Type{
	PlusAssign:    Plus,
	MinusAssign:   Minus,
	StarAssign:    Star,
	SlashAssign:   Slash,
	PercentAssign: Percent,
	ShlAssign:     Shl,
	ShrAssign:     Shr,
	UShrAssign:    UShr,
	AndAssign:     BitAnd,
	OrAssign:      BitOr,
	XorAssign:     BitXor,
}

// CompoundOp returns the binary operator applied by a compound assignment.
func CompoundOp(t Type) (Type, bool) {
	op, ok := compoundOps[t]
	return op, ok
}

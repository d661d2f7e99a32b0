package lexer

import (
	"strings"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/unicode/norm"

	"github.com/xirelogy/go-jazz/internal/token"
)

// Identifier and whitespace classes follow the Unicode categories of the
// language grammar, so they are matched with regexp2 rather than ASCII
// tests.
var (
	identifierRE = regexp2.MustCompile(
		`\G[\p{Lu}\p{Ll}\p{Lt}\p{Lm}\p{Lo}\p{Nl}$_][\p{Lu}\p{Ll}\p{Lt}\p{Lm}\p{Lo}\p{Nl}$_\p{Mn}\p{Mc}\p{Nd}\p{Pc}]*`,
		regexp2.None)
	whitespaceRE = regexp2.MustCompile(`\G[\p{Zs}\t\x0B\f\uFEFF]+`, regexp2.None)
)

var punctuators = []struct {
	lit string
	typ token.Type
}{
	{">>>=", token.UShrAssign},
	{"===", token.StrictEqual},
	{"!==", token.StrictNotEq},
	{">>>", token.UShr},
	{"<<=", token.ShlAssign},
	{">>=", token.ShrAssign},
	{"==", token.Equal},
	{"!=", token.NotEqual},
	{"<=", token.LessEqual},
	{">=", token.GreaterEqual},
	{"&&", token.AndAnd},
	{"||", token.OrOr},
	{"++", token.Increment},
	{"--", token.Decrement},
	{"+=", token.PlusAssign},
	{"-=", token.MinusAssign},
	{"*=", token.StarAssign},
	{"/=", token.SlashAssign},
	{"%=", token.PercentAssign},
	{"&=", token.AndAssign},
	{"|=", token.OrAssign},
	{"^=", token.XorAssign},
	{"<<", token.Shl},
	{">>", token.Shr},
	{"=", token.Assign},
	{"+", token.Plus},
	{"-", token.Minus},
	{"*", token.Star},
	{"/", token.Slash},
	{"%", token.Percent},
	{"!", token.Bang},
	{"~", token.Tilde},
	{"<", token.Less},
	{">", token.Greater},
	{"&", token.BitAnd},
	{"|", token.BitOr},
	{"^", token.BitXor},
	{"?", token.Question},
	{",", token.Comma},
	{":", token.Colon},
	{";", token.Semicolon},
	{".", token.Dot},
	{"(", token.LParen},
	{")", token.RParen},
	{"{", token.LBrace},
	{"}", token.RBrace},
	{"[", token.LBracket},
	{"]", token.RBracket},
}

// Lexer converts source text into a stream of tokens. The input is
// NFC-normalized first so that identifiers compare by canonical form.
type Lexer struct {
	input   []rune
	pos     int // current position in runes
	readPos int // next read position
	ch      rune
	line    int
	column  int
	newline bool
}

// New creates a lexer for the provided source text.
func New(input string) *Lexer {
	l := &Lexer{
		input: []rune(norm.NFC.String(input)),
		line:  1,
	}
	l.readChar()
	return l
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() token.Token {
	for {
		l.skipWhitespace()
		if l.atEOF() {
			return l.finishToken(l.makeToken(token.EOF, ""))
		}
		if isLineTerminator(l.ch) {
			l.newline = true
			l.readChar()
			continue
		}
		if l.ch == '/' && l.peekChar() == '/' {
			l.skipLineComment()
			continue
		}
		if l.ch == '/' && l.peekChar() == '*' {
			if !l.skipBlockComment() {
				return l.finishToken(l.makeToken(token.Illegal, "unterminated comment"))
			}
			continue
		}
		break
	}

	switch {
	case l.ch == '"' || l.ch == '\'':
		return l.readString(l.ch)
	case isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())):
		return l.readNumber()
	}
	if n := l.match(identifierRE); n > 0 {
		return l.readIdentifier(n)
	}
	for _, p := range punctuators {
		if l.hasPrefix(p.lit) {
			tok := l.makeToken(p.typ, p.lit)
			l.advance(len(p.lit))
			return l.finishToken(tok)
		}
	}
	tok := l.makeToken(token.Illegal, string(l.ch))
	l.readChar()
	return l.finishToken(tok)
}

func (l *Lexer) makeToken(t token.Type, lit string) token.Token {
	return token.Token{
		Type:          t,
		Literal:       lit,
		NewlineBefore: l.newline,
		Pos: token.Position{
			Offset: l.pos,
			Line:   l.line,
			Column: l.column,
		},
	}
}

func (l *Lexer) finishToken(tok token.Token) token.Token {
	l.newline = false
	return tok
}

func (l *Lexer) match(re *regexp2.Regexp) int {
	if l.atEOF() {
		return 0
	}
	m, err := re.FindRunesMatchStartingAt(l.input, l.pos)
	if err != nil || m == nil || m.Index != l.pos {
		return 0
	}
	return m.Length
}

func (l *Lexer) skipWhitespace() {
	if n := l.match(whitespaceRE); n > 0 {
		l.advance(n)
	}
}

func (l *Lexer) skipLineComment() {
	for !l.atEOF() && !isLineTerminator(l.ch) {
		l.readChar()
	}
}

func (l *Lexer) skipBlockComment() bool {
	l.readChar() // consume '/'
	l.readChar() // consume '*'
	for {
		if l.atEOF() {
			return false
		}
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar() // '*'
			l.readChar() // '/'
			return true
		}
		if isLineTerminator(l.ch) {
			l.newline = true
		}
		l.readChar()
	}
}

func (l *Lexer) readIdentifier(n int) token.Token {
	start := l.makeToken(token.Ident, "")
	lit := string(l.input[l.pos : l.pos+n])
	l.advance(n)
	start.Type = token.LookupIdent(lit)
	start.Literal = lit
	return l.finishToken(start)
}

func (l *Lexer) readNumber() token.Token {
	start := l.makeToken(token.Number, "")
	begin := l.pos
	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.advance(2)
		digits := 0
		for isHexDigit(l.ch) {
			l.readChar()
			digits++
		}
		if digits == 0 {
			return l.finishToken(l.makeToken(token.Illegal, "invalid hex literal"))
		}
	} else {
		for isDigit(l.ch) {
			l.readChar()
		}
		if l.ch == '.' {
			l.readChar()
			for isDigit(l.ch) {
				l.readChar()
			}
		}
		if l.ch == 'e' || l.ch == 'E' {
			next := l.peekChar()
			if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekAt(2))) {
				l.advance(2)
				for isDigit(l.ch) {
					l.readChar()
				}
			}
		}
	}
	if l.match(identifierRE) > 0 {
		return l.finishToken(l.makeToken(token.Illegal, "identifier directly after number"))
	}
	start.Literal = string(l.input[begin:l.pos])
	return l.finishToken(start)
}

func (l *Lexer) readString(quote rune) token.Token {
	start := l.makeToken(token.String, "")
	var sb strings.Builder

	for {
		l.readChar()
		if l.atEOF() || isLineTerminator(l.ch) {
			return l.finishToken(l.makeToken(token.Illegal, "unterminated string"))
		}
		if l.ch == quote {
			l.readChar()
			break
		}
		if l.ch != '\\' {
			sb.WriteRune(l.ch)
			continue
		}
		l.readChar()
		switch l.ch {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'v':
			sb.WriteByte('\v')
		case '0':
			sb.WriteByte(0)
		case 'x':
			r, ok := l.readHexEscape(2)
			if !ok {
				return l.finishToken(l.makeToken(token.Illegal, "invalid \\x escape"))
			}
			sb.WriteRune(r)
		case 'u':
			r, ok := l.readHexEscape(4)
			if !ok {
				return l.finishToken(l.makeToken(token.Illegal, "invalid \\u escape"))
			}
			sb.WriteRune(r)
		case '\n', '\u2028', '\u2029':
			// line continuation
		default:
			if l.atEOF() {
				return l.finishToken(l.makeToken(token.Illegal, "unterminated string"))
			}
			sb.WriteRune(l.ch)
		}
	}

	start.Literal = sb.String()
	return l.finishToken(start)
}

// readHexEscape consumes n hex digits following the escape letter and
// leaves the lexer on the last of them.
func (l *Lexer) readHexEscape(n int) (rune, bool) {
	var r rune
	for i := 1; i <= n; i++ {
		d := hexValue(l.peekAt(i))
		if d < 0 {
			return 0, false
		}
		r = r<<4 | rune(d)
	}
	l.advance(n)
	return r, true
}

func (l *Lexer) hasPrefix(lit string) bool {
	i := 0
	for _, r := range lit {
		if l.pos+i >= len(l.input) || l.input[l.pos+i] != r {
			return false
		}
		i++
	}
	return true
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) advance(n int) {
	for i := 0; i < n; i++ {
		l.readChar()
	}
}

func isLineTerminator(ch rune) bool {
	return ch == '\n' || ch == '\r' || ch == '\u2028' || ch == '\u2029'
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return hexValue(ch) >= 0
}

func hexValue(ch rune) int {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0')
	case ch >= 'a' && ch <= 'f':
		return int(ch-'a') + 10
	case ch >= 'A' && ch <= 'F':
		return int(ch-'A') + 10
	default:
		return -1
	}
}

func (l *Lexer) peekChar() rune {
	return l.peekAt(1)
}

// peekAt returns the rune n positions after the current one.
func (l *Lexer) peekAt(n int) rune {
	i := l.pos + n
	if i >= len(l.input) {
		return 0
	}
	return l.input[i]
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.pos = len(l.input)
		l.ch = 0
		return
	}

	l.ch = l.input[l.readPos]
	l.pos = l.readPos
	l.readPos++

	if l.ch == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
}

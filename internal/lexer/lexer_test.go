package lexer

import (
	"testing"

	"github.com/xirelogy/go-jazz/internal/token"
)

func TestLexerBasicTokens(t *testing.T) {
	input := `
function add(a, b) {
  var c = a + b;
  if (c >= 10 && a !== b) {
    return c;
  }
}
`

	tests := []token.Token{
		{Type: token.Function, Literal: "function"},
		{Type: token.Ident, Literal: "add"},
		{Type: token.LParen, Literal: "("},
		{Type: token.Ident, Literal: "a"},
		{Type: token.Comma, Literal: ","},
		{Type: token.Ident, Literal: "b"},
		{Type: token.RParen, Literal: ")"},
		{Type: token.LBrace, Literal: "{"},
		{Type: token.Var, Literal: "var"},
		{Type: token.Ident, Literal: "c"},
		{Type: token.Assign, Literal: "="},
		{Type: token.Ident, Literal: "a"},
		{Type: token.Plus, Literal: "+"},
		{Type: token.Ident, Literal: "b"},
		{Type: token.Semicolon, Literal: ";"},
		{Type: token.If, Literal: "if"},
		{Type: token.LParen, Literal: "("},
		{Type: token.Ident, Literal: "c"},
		{Type: token.GreaterEqual, Literal: ">="},
		{Type: token.Number, Literal: "10"},
		{Type: token.AndAnd, Literal: "&&"},
		{Type: token.Ident, Literal: "a"},
		{Type: token.StrictNotEq, Literal: "!=="},
		{Type: token.Ident, Literal: "b"},
		{Type: token.RParen, Literal: ")"},
		{Type: token.LBrace, Literal: "{"},
		{Type: token.Return, Literal: "return"},
		{Type: token.Ident, Literal: "c"},
		{Type: token.Semicolon, Literal: ";"},
		{Type: token.RBrace, Literal: "}"},
		{Type: token.RBrace, Literal: "}"},
		{Type: token.EOF},
	}

	l := New(input)
	for i, expected := range tests {
		tok := l.NextToken()
		if tok.Type != expected.Type || tok.Literal != expected.Literal {
			t.Fatalf("token %d: expected %v %q, got %v %q", i, expected.Type, expected.Literal, tok.Type, tok.Literal)
		}
	}
}

func TestLexerLongestOperator(t *testing.T) {
	input := `a >>>= b >>> c >> d >= e === f == g ++h--`
	expected := []token.Type{
		token.Ident, token.UShrAssign, token.Ident, token.UShr, token.Ident, token.Shr, token.Ident,
		token.GreaterEqual, token.Ident, token.StrictEqual, token.Ident, token.Equal, token.Ident,
		token.Increment, token.Ident, token.Decrement, token.EOF,
	}
	l := New(input)
	for i, typ := range expected {
		tok := l.NextToken()
		if tok.Type != typ {
			t.Fatalf("token %d: expected %v, got %v (%q)", i, typ, tok.Type, tok.Literal)
		}
	}
}

func TestLexerNumbers(t *testing.T) {
	for _, lit := range []string{"12", "12.", ".1", "12e1", "12.12e2", "100e-2", "0xabc123", "0X456DEF"} {
		tok := New(lit).NextToken()
		if tok.Type != token.Number || tok.Literal != lit {
			t.Fatalf("%q lexed as %v %q", lit, tok.Type, tok.Literal)
		}
	}
	if tok := New("12px").NextToken(); tok.Type != token.Illegal {
		t.Fatalf("expected illegal token for 12px, got %v", tok.Type)
	}
}

func TestLexerStringEscapes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"foo"`, "foo"},
		{`'foo'`, "foo"},
		{`'\u006e is n!'`, "n is n!"},
		{`"\x12\x34"`, "\x12\x34"},
		{`"\\"`, `\`},
		{`'\''`, "'"},
		{`"\'"`, "'"},
		{`"\r\f\v\n\t\b\0"`, "\r\f\v\n\t\b\x00"},
		{`"\h\a\h\a"`, "haha"},
	}
	for _, tt := range tests {
		tok := New(tt.in).NextToken()
		if tok.Type != token.String || tok.Literal != tt.want {
			t.Fatalf("%s lexed as %v %q, want %q", tt.in, tok.Type, tok.Literal, tt.want)
		}
	}
	if tok := New(`"open`).NextToken(); tok.Type != token.Illegal {
		t.Fatalf("expected illegal token for unterminated string, got %v", tok.Type)
	}
}

func TestLexerUnicodeIdentifiers(t *testing.T) {
	input := "$el _x café π2 ǅa"
	want := []string{"$el", "_x", "café", "π2", "ǅa"}
	l := New(input)
	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != token.Ident || tok.Literal != w {
			t.Fatalf("identifier %d: got %v %q, want %q", i, tok.Type, tok.Literal, w)
		}
	}
}

func TestLexerNormalizesSource(t *testing.T) {
	// "e" followed by a combining acute accent composes to U+00E9.
	tok := New("cafe\u0301").NextToken()
	if tok.Type != token.Ident || tok.Literal != "caf\u00e9" {
		t.Fatalf("got %v %q, want NFC identifier", tok.Type, tok.Literal)
	}
}

func TestLexerNewlineBefore(t *testing.T) {
	input := `a
// comment
b /* multi
line */ c d`
	l := New(input)
	want := []bool{false, true, true, false}
	for i, w := range want {
		tok := l.NextToken()
		if tok.NewlineBefore != w {
			t.Fatalf("token %d (%q): NewlineBefore = %v, want %v", i, tok.Literal, tok.NewlineBefore, w)
		}
	}
}

func TestLexerPositions(t *testing.T) {
	l := New("a\n  bb")
	l.NextToken()
	tok := l.NextToken()
	if tok.Pos.Line != 2 || tok.Pos.Column != 3 {
		t.Fatalf("bb at %d:%d, want 2:3", tok.Pos.Line, tok.Pos.Column)
	}
}

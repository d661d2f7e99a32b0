package compiler

import (
	"github.com/xirelogy/go-jazz/internal/lexer"
	"github.com/xirelogy/go-jazz/internal/parser"
)

// CompileSource parses and compiles src. Syntax errors wrap
// parser.ErrSyntax.
func CompileSource(src, source string) (*Unit, error) {
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	if err := p.Err(); err != nil {
		return nil, err
	}
	return Compile(prog, source)
}

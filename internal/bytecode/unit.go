package bytecode

import (
	"github.com/xirelogy/go-jazz/internal/value"
)

// Unit is the compiled form of one function body. It is immutable once
// the compiler hands it out.
type Unit struct {
	Name      string
	Source    string
	Code      []byte
	Constants []value.Value
	Lines     []LineInfo

	// LocalCount is the number of frame slots reserved below the operand
	// stack.
	LocalCount int
	// ClosureVarCount is the number of closure cells visible to the body.
	// The first ClosureVarCount-ClosureLocalCount are inherited from the
	// enclosing function; the rest live in the box the call allocates.
	ClosureVarCount   int
	ClosureLocalCount int

	// Params places each positional argument.
	Params []Slot
}

// Slot locates a parameter: a frame local, or a closure cell index.
type Slot struct {
	Closure bool
	Index   int
}

// LineInfo maps bytecode offsets to source lines (start-inclusive).
type LineInfo struct {
	Offset int
	Line   int
}

// Inherited is the number of closure cells copied from the parent.
func (u *Unit) Inherited() int {
	return u.ClosureVarCount - u.ClosureLocalCount
}

// LineAt returns the source line for the instruction at offset, or 0.
func (u *Unit) LineAt(offset int) int {
	return lineForOffset(u.Lines, offset)
}

// Template is the constant that OP_CLOSURE turns into a function object.
// Templates are static: they live as long as the unit that holds them.
type Template struct {
	value.Header
	Unit *Unit
}

// NewTemplate wraps u as a static constant.
func NewTemplate(u *Unit) *Template {
	return &Template{
		Header: value.Header{Type: value.TypeTemplate, Static: true},
		Unit:   u,
	}
}

func (t *Template) Trace(m value.Marker) {
	for _, c := range t.Unit.Constants {
		m.MarkValue(c)
	}
}

func (t *Template) Size() int { return 64 }

func (t *Template) Finalize() {}

func (t *Template) String() string {
	name := t.Unit.Name
	if name == "" {
		name = "<anon>"
	}
	return "template " + name
}

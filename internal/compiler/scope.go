package compiler

import "github.com/xirelogy/go-jazz/internal/ast"

// Kind classifies where a variable lives at run time.
type Kind int

const (
	Local Kind = iota
	Closure
	Global
)

func (k Kind) String() string {
	switch k {
	case Local:
		return "local"
	case Closure:
		return "closure"
	default:
		return "global"
	}
}

// Variable is a resolved binding. The same *Variable is shared by every
// scope that refers to it, so promoting a local to a closure cell is
// visible everywhere at once.
type Variable struct {
	Kind  Kind
	Name  string
	Index int
}

// Scope is the compile-time view of one function body. The outermost
// scope belongs to the program and declares nothing: its variables are
// globals.
type Scope struct {
	parent *Scope
	fn     *ast.FuncLit

	locals   map[string]*Variable
	closures map[string]*Variable

	// order holds every variable declared here, in declaration order,
	// including those later promoted.
	order []*Variable
	// promoted holds this scope's own locals captured by nested
	// functions, in promotion order.
	promoted []*Variable
	params   []*Variable
	funcs    []*ast.FuncDecl
	globals  []string
	children []*Scope

	closureCount int
	inherited    int
	localCount   int
}

func newScope(parent *Scope, fn *ast.FuncLit) *Scope {
	s := &Scope{
		parent:   parent,
		fn:       fn,
		locals:   make(map[string]*Variable),
		closures: make(map[string]*Variable),
	}
	if parent != nil {
		parent.children = append(parent.children, s)
	}
	return s
}

func (s *Scope) isProgram() bool {
	return s.parent == nil
}

// declare registers name as a local, returning the existing binding on
// redeclaration.
func (s *Scope) declare(name string) *Variable {
	if v, ok := s.locals[name]; ok {
		return v
	}
	v := &Variable{Kind: Local, Name: name}
	s.locals[name] = v
	s.order = append(s.order, v)
	return v
}

// declareGlobal records a top-level var name once.
func (s *Scope) declareGlobal(name string) {
	for _, g := range s.globals {
		if g == name {
			return
		}
	}
	s.globals = append(s.globals, name)
}

// lookup resolves name from this scope outwards. A hit in an ancestor's
// locals promotes the binding to a closure cell; every scope between the
// use and the definition records the same Variable.
func (s *Scope) lookup(name string) *Variable {
	if v, ok := s.locals[name]; ok {
		return v
	}
	if v, ok := s.closures[name]; ok {
		return v
	}
	path := []*Scope{s}
	for p := s.parent; p != nil; p = p.parent {
		if v, ok := p.locals[name]; ok {
			delete(p.locals, name)
			p.closures[name] = v
			p.promoted = append(p.promoted, v)
			v.Kind = Closure
			thread(path, name, v)
			return v
		}
		if v, ok := p.closures[name]; ok {
			thread(path, name, v)
			return v
		}
		path = append(path, p)
	}
	return &Variable{Kind: Global, Name: name}
}

func thread(path []*Scope, name string, v *Variable) {
	for _, s := range path {
		s.closures[name] = v
	}
}

// assignSlots numbers closure cells top-down and locals densely. inherited
// is the enclosing scope's closure count.
func (s *Scope) assignSlots(inherited int) {
	s.inherited = inherited
	n := inherited
	for _, v := range s.promoted {
		v.Index = n
		n++
	}
	s.closureCount = n

	l := 0
	for _, v := range s.order {
		if v.Kind == Local {
			v.Index = l
			l++
		}
	}
	s.localCount = l

	for _, c := range s.children {
		c.assignSlots(n)
	}
}

// LocalCount is the number of frame slots the function needs.
func (s *Scope) LocalCount() int { return s.localCount }

// ClosureCount is the number of closure cells visible to the function.
func (s *Scope) ClosureCount() int { return s.closureCount }

// Inherited is the number of cells taken unchanged from the parent.
func (s *Scope) Inherited() int { return s.inherited }

// Closures returns the closure bindings visible in this scope.
func (s *Scope) Closures() map[string]*Variable { return s.closures }

package vm

import (
	"github.com/xirelogy/go-jazz/internal/bytecode"
	"github.com/xirelogy/go-jazz/internal/value"
)

// NativeFunc is a host-provided callable. args aliases the VM stack and is
// only valid until the function returns. A non-nil error stops execution.
type NativeFunc func(vm *VM, callee *Object, args []value.Value) (value.Value, error)

// Object is a property bag. Functions are objects that also carry either
// a compiled unit with its captured cells or a native handler.
type Object struct {
	value.Header
	Props map[string]value.Value
	Proto *Object
	Class string

	Unit  *bytecode.Unit
	Env   *Box
	Cells []*value.Value

	Native NativeFunc
	Name   string
}

// Callable reports whether the object can be invoked.
func (o *Object) Callable() bool {
	return o.Unit != nil || o.Native != nil
}

// Get reads name through the prototype chain. An object without an own
// "prototype" property exposes its prototype link under that name.
func (o *Object) Get(name string) value.Value {
	if v, ok := o.Props[name]; ok {
		return v
	}
	if name == "prototype" {
		return value.Obj(objectRef(o.Proto))
	}
	for p := o.Proto; p != nil; p = p.Proto {
		if v, ok := p.Props[name]; ok {
			return v
		}
	}
	return value.Undefined()
}

// Has reports whether name is an own property.
func (o *Object) Has(name string) bool {
	_, ok := o.Props[name]
	return ok
}

func objectRef(o *Object) value.HeapObject {
	if o == nil {
		return nil
	}
	return o
}

func (o *Object) Trace(m value.Marker) {
	for _, v := range o.Props {
		m.MarkValue(v)
	}
	if o.Proto != nil {
		m.MarkObject(o.Proto)
	}
	if o.Env != nil {
		m.MarkObject(o.Env)
	}
}

func (o *Object) Size() int {
	return 96 + 48*len(o.Props)
}

func (o *Object) Finalize() {
	o.Props = nil
	o.Proto = nil
	o.Env = nil
	o.Cells = nil
	o.Native = nil
}

func (o *Object) String() string {
	switch {
	case o.Native != nil:
		return "function " + o.Name + "() { [native code] }"
	case o.Unit != nil:
		return "function " + o.Name + "() { [bytecode] }"
	default:
		return "[object " + o.Class + "]"
	}
}

// Box holds the closure cells a call owns. Frames and functions point
// into Cells; Parent links to the environment the function was created
// in so inherited cells stay reachable.
type Box struct {
	value.Header
	Cells  []value.Value
	Parent *Box
}

func (b *Box) Trace(m value.Marker) {
	for _, v := range b.Cells {
		m.MarkValue(v)
	}
	if b.Parent != nil {
		m.MarkObject(b.Parent)
	}
}

func (b *Box) Size() int {
	return 32 + 32*len(b.Cells)
}

func (b *Box) Finalize() {
	b.Cells = nil
	b.Parent = nil
}

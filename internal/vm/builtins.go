package vm

import (
	"github.com/xirelogy/go-jazz/internal/value"
)

// DefineNative binds a host function as a global.
func (vm *VM) DefineNative(name string, fn NativeFunc) *Object {
	if fn == nil {
		panic("nil native handler")
	}
	obj := vm.NewNative(name, fn)
	vm.DefineGlobal(name, value.Obj(obj))
	return obj
}

// NewNative wraps fn as a function object without binding it.
func (vm *VM) NewNative(name string, fn NativeFunc) *Object {
	obj := vm.newObject("Function", vm.functionProto)
	obj.Native = fn
	obj.Name = name
	return obj
}

// DefineGlobal binds a value into the global object.
func (vm *VM) DefineGlobal(name string, v value.Value) {
	vm.heap.Barrier(vm.global, v)
	vm.global.Props[name] = v
}

// Global reads a global binding.
func (vm *VM) Global(name string) (value.Value, bool) {
	v, ok := vm.global.Props[name]
	return v, ok
}

// Globals is the global object.
func (vm *VM) Globals() *Object {
	return vm.global
}

// Prototype returns the shared prototype for "Object" or "Function".
func (vm *VM) Prototype(name string) *Object {
	switch name {
	case "Object":
		return vm.objectProto
	case "Function":
		return vm.functionProto
	default:
		return nil
	}
}

// NewString allocates a collected string.
func (vm *VM) NewString(s string) value.Value {
	str := value.NewString(s)
	vm.heap.Alloc(str)
	return value.Str(str)
}

// NewObject allocates an empty plain object.
func (vm *VM) NewObject() *Object {
	return vm.newObject("Object", vm.objectProto)
}

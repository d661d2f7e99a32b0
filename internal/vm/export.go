package vm

import (
	"strconv"

	"github.com/xirelogy/go-jazz/internal/value"
)

// Arg returns args[i], or undefined when the caller passed fewer.
func Arg(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined()
}

// TypeName reports the typeof name for a value.
func TypeName(v value.Value) string {
	return value.TypeOf(v)
}

// Pin keeps o alive across collections until a matching Unpin. Hosts
// use it for values they hold between runs.
func (vm *VM) Pin(o value.HeapObject) {
	if o == nil || o.GCHeader().Static {
		return
	}
	vm.pins[o]++
}

// Unpin releases one Pin of o.
func (vm *VM) Unpin(o value.HeapObject) {
	if o == nil {
		return
	}
	if n := vm.pins[o]; n > 1 {
		vm.pins[o] = n - 1
	} else {
		delete(vm.pins, o)
	}
}

// Pinned reports the number of pinned objects.
func (vm *VM) Pinned() int {
	return len(vm.pins)
}

// describe renders v for error messages.
func describe(v value.Value) string {
	if v.Kind == value.KindString {
		return strconv.Quote(value.ToString(v))
	}
	return value.ToString(v)
}

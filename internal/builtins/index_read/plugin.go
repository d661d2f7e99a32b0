package index_read

import (
	"github.com/xirelogy/go-jazz/internal/runtime"
	"github.com/xirelogy/go-jazz/internal/value"
	"github.com/xirelogy/go-jazz/internal/vm"
)

func init() {
	runtime.Register(runtime.Spec{
		Name:    "indexRead",
		Arity:   3,
		Handler: runIndexRead,
		Doc:     "indexRead(obj, key, def) reads key through the prototype chain, or returns def",
	})
}

func runIndexRead(_ *vm.VM, _ *vm.Object, args []value.Value) (value.Value, error) {
	def := vm.Arg(args, 2)
	obj, ok := vm.Arg(args, 0).Ref.(*vm.Object)
	if !ok || obj == nil {
		return def, nil
	}
	key := value.ToString(vm.Arg(args, 1))
	for o := obj; o != nil; o = o.Proto {
		if o.Has(key) {
			return o.Props[key], nil
		}
	}
	return def, nil
}

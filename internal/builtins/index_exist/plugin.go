package index_exist

import (
	"github.com/xirelogy/go-jazz/internal/runtime"
	"github.com/xirelogy/go-jazz/internal/value"
	"github.com/xirelogy/go-jazz/internal/vm"
)

func init() {
	runtime.Register(runtime.Spec{
		Name:    "indexExist",
		Arity:   2,
		Handler: runIndexExist,
		Doc:     "indexExist(obj, key) reports whether obj has key as an own property",
	})
}

func runIndexExist(_ *vm.VM, _ *vm.Object, args []value.Value) (value.Value, error) {
	obj, ok := vm.Arg(args, 0).Ref.(*vm.Object)
	if !ok || obj == nil {
		return value.Bool(false), nil
	}
	return value.Bool(obj.Has(value.ToString(vm.Arg(args, 1)))), nil
}

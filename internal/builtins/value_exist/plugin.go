package value_exist

import (
	"github.com/xirelogy/go-jazz/internal/runtime"
	"github.com/xirelogy/go-jazz/internal/value"
	"github.com/xirelogy/go-jazz/internal/vm"
)

func init() {
	runtime.Register(runtime.Spec{
		Name:    "valueExist",
		Arity:   2,
		Handler: runValueExist,
		Doc:     "valueExist(obj, v) reports whether an own property of obj is strictly equal to v",
	})
}

func runValueExist(_ *vm.VM, _ *vm.Object, args []value.Value) (value.Value, error) {
	obj, ok := vm.Arg(args, 0).Ref.(*vm.Object)
	if !ok || obj == nil {
		return value.Bool(false), nil
	}
	needle := vm.Arg(args, 1)
	for _, v := range obj.Props {
		if value.StrictEqual(v, needle) {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

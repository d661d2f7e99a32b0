package isnan

import (
	"math"

	"github.com/xirelogy/go-jazz/internal/runtime"
	"github.com/xirelogy/go-jazz/internal/value"
	"github.com/xirelogy/go-jazz/internal/vm"
)

func init() {
	runtime.Register(runtime.Spec{
		Name:    "isNaN",
		Arity:   1,
		Handler: runIsNaN,
		Doc:     "isNaN(x) reports whether x converts to NaN",
	})
}

func runIsNaN(_ *vm.VM, _ *vm.Object, args []value.Value) (value.Value, error) {
	return value.Bool(math.IsNaN(value.ToNumber(vm.Arg(args, 0)))), nil
}

package collect

import (
	"github.com/xirelogy/go-jazz/internal/runtime"
	"github.com/xirelogy/go-jazz/internal/value"
	"github.com/xirelogy/go-jazz/internal/vm"
)

func init() {
	runtime.Register(runtime.Spec{
		Name:    "gc",
		Arity:   0,
		Handler: runCollect,
		Doc:     "gc() runs a full garbage collection and returns the number of live objects",
	})
}

func runCollect(rt *vm.VM, _ *vm.Object, _ []value.Value) (value.Value, error) {
	rt.Collect()
	return value.Number(float64(rt.Collector().Stats().Objects)), nil
}

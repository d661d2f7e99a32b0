package printbuiltin

import (
	"fmt"
	"strings"

	"github.com/xirelogy/go-jazz/internal/runtime"
	"github.com/xirelogy/go-jazz/internal/value"
	"github.com/xirelogy/go-jazz/internal/vm"
)

func init() {
	runtime.Register(runtime.Spec{
		Name:    "print",
		Arity:   -1,
		Handler: runPrint,
		Doc:     "print(...values) writes its arguments separated by spaces and a newline",
	})
	runtime.Register(runtime.Spec{
		Name:    "write",
		Arity:   -1,
		Handler: runWrite,
		Doc:     "write(...values) writes its arguments separated by spaces",
	})
}

func runPrint(rt *vm.VM, _ *vm.Object, args []value.Value) (value.Value, error) {
	_, err := fmt.Fprintln(rt.Output(), join(args))
	return value.Undefined(), err
}

func runWrite(rt *vm.VM, _ *vm.Object, args []value.Value) (value.Value, error) {
	_, err := fmt.Fprint(rt.Output(), join(args))
	return value.Undefined(), err
}

func join(args []value.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = value.ToString(a)
	}
	return strings.Join(parts, " ")
}

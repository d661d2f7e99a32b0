package load

import (
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/xirelogy/go-jazz/internal/compiler"
	"github.com/xirelogy/go-jazz/internal/runtime"
	"github.com/xirelogy/go-jazz/internal/value"
	"github.com/xirelogy/go-jazz/internal/vm"
)

var log = commonlog.GetLogger("jazz.load")

func init() {
	runtime.Register(runtime.Spec{
		Name:    "load",
		Arity:   1,
		Handler: runLoad,
		Doc:     "load(path) compiles and runs a file against the current globals",
	})
}

func runLoad(rt *vm.VM, _ *vm.Object, args []value.Value) (value.Value, error) {
	arg := vm.Arg(args, 0)
	if arg.Kind != value.KindString {
		return value.Undefined(), vm.Errorf(vm.ErrType, "load expects a path string, got %s", value.TypeOf(arg))
	}
	path := value.ToString(arg)
	log.Infof("loading %s", path)
	src, err := os.ReadFile(path)
	if err != nil {
		return value.Undefined(), fmt.Errorf("load %s: %w", path, err)
	}
	unit, err := compiler.CompileSource(string(src), path)
	if err != nil {
		return value.Undefined(), err
	}
	return rt.Run(unit)
}

package vm

import (
	"fmt"
	"io"
	"sort"

	"github.com/xirelogy/go-jazz/internal/bytecode"
)

// Disassemble emits assembly-style bytecode output for global functions.
func (vm *VM) Disassemble(w io.Writer) error {
	if vm == nil {
		return fmt.Errorf("nil VM")
	}
	if w == nil {
		return fmt.Errorf("nil writer")
	}
	names := make([]string, 0, len(vm.global.Props))
	funcs := make(map[string]*Object, len(vm.global.Props))
	for name, val := range vm.global.Props {
		fn := asObject(val)
		if fn == nil || !fn.Callable() {
			continue
		}
		names = append(names, name)
		funcs[name] = fn
	}
	sort.Strings(names)
	dis := bytecode.NewDisassembler(w)
	for _, name := range names {
		fn := funcs[name]
		if fn.Native != nil {
			dis.PrintNative(name)
			continue
		}
		if err := dis.DisassembleUnit(name, fn.Unit); err != nil {
			return err
		}
	}
	return nil
}

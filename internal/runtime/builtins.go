package runtime

import (
	"fmt"
	"sort"

	"github.com/xirelogy/go-jazz/internal/vm"
)

// Spec describes a built-in function and its handler. Arity is the
// number of documented parameters, or -1 for variadic functions; calls
// with fewer arguments see undefined for the rest.
type Spec struct {
	Name    string
	Arity   int
	Handler vm.NativeFunc
	Doc     string
}

var byName = map[string]Spec{}

// Register adds a built-in to the registry. It is meant to be called from
// plugin init functions.
func Register(spec Spec) {
	if spec.Handler == nil {
		panic(fmt.Sprintf("builtin %s has nil handler", spec.Name))
	}
	if _, exists := byName[spec.Name]; exists {
		panic(fmt.Sprintf("builtin %s already registered", spec.Name))
	}
	byName[spec.Name] = spec
}

// LookupByName finds a builtin by its script-visible name.
func LookupByName(name string) (Spec, bool) {
	spec, ok := byName[name]
	return spec, ok
}

// All returns all registered builtins sorted by name.
func All() []Spec {
	out := make([]Spec, 0, len(byName))
	for _, spec := range byName {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Install binds every registered builtin as a global of m.
func Install(m *vm.VM) {
	for _, spec := range All() {
		m.DefineNative(spec.Name, spec.Handler)
	}
}

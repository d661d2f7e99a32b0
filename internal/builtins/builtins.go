// Package builtins links every built-in plugin into the runtime registry.
package builtins

import (
	_ "github.com/xirelogy/go-jazz/internal/builtins/collect"
	_ "github.com/xirelogy/go-jazz/internal/builtins/index_exist"
	_ "github.com/xirelogy/go-jazz/internal/builtins/index_read"
	_ "github.com/xirelogy/go-jazz/internal/builtins/isnan"
	_ "github.com/xirelogy/go-jazz/internal/builtins/load"
	_ "github.com/xirelogy/go-jazz/internal/builtins/print"
	_ "github.com/xirelogy/go-jazz/internal/builtins/value_exist"
)

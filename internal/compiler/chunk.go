package compiler

import "github.com/xirelogy/go-jazz/internal/bytecode"

type Unit = bytecode.Unit
type Slot = bytecode.Slot
type Template = bytecode.Template
type LineInfo = bytecode.LineInfo

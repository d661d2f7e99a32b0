package bytecode

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xirelogy/go-jazz/internal/value"
)

// Disassembler formats bytecode as a readable assembly-style dump.
type Disassembler struct {
	w       io.Writer
	visited map[*Unit]bool
	printed bool
}

// NewDisassembler constructs a disassembler that writes to w.
func NewDisassembler(w io.Writer) *Disassembler {
	return &Disassembler{
		w:       w,
		visited: make(map[*Unit]bool),
	}
}

// DisassembleUnit emits a readable dump for a unit and any nested units
// reachable through closure templates in its constant pool.
func (d *Disassembler) DisassembleUnit(label string, unit *Unit) error {
	if unit == nil {
		return fmt.Errorf("nil unit")
	}
	if d.visited[unit] {
		return nil
	}
	d.visited[unit] = true
	d.startSection()
	name := label
	if name == "" {
		name = unit.Name
	}
	if name == "" {
		name = "<anon>"
	}
	source := unit.Source
	if source == "" {
		source = "<unknown>"
	}
	fmt.Fprintf(d.w, "func %s (params=%d, locals=%d, closures=%d/%d) source=%s\n",
		name, len(unit.Params), unit.LocalCount, unit.ClosureLocalCount, unit.ClosureVarCount, source)
	if err := d.disassembleCode(unit); err != nil {
		return err
	}
	for idx, c := range unit.Constants {
		tmpl, ok := c.Ref.(*Template)
		if !ok || c.Kind != value.KindObject {
			continue
		}
		childName := tmpl.Unit.Name
		if childName == "" {
			childName = fmt.Sprintf("<closure@const:%d>", idx)
		}
		if err := d.DisassembleUnit(childName, tmpl.Unit); err != nil {
			return err
		}
	}
	return nil
}

// PrintNative emits a header for a native (host) function.
func (d *Disassembler) PrintNative(name string) {
	d.startSection()
	if name == "" {
		name = "<native>"
	}
	fmt.Fprintf(d.w, "func %s [native]\n", name)
}

func (d *Disassembler) startSection() {
	if d.printed {
		fmt.Fprintln(d.w)
	}
	d.printed = true
}

func (d *Disassembler) disassembleCode(unit *Unit) error {
	code := unit.Code
	for ip := 0; ip < len(code); {
		offset := ip
		op := code[ip]
		if _, ok := LookupOp(op); !ok {
			return fmt.Errorf("unknown opcode 0x%02X at %d", op, offset)
		}
		width := Width(op)
		if ip+width > len(code) {
			return fmt.Errorf("unexpected end of bytecode")
		}
		line := lineForOffset(unit.Lines, offset)
		lineStr := "-"
		if line > 0 {
			lineStr = strconv.Itoa(line)
		}
		detail := strings.TrimSpace(d.decodeOperand(op, unit, ip+1))
		fmt.Fprintf(d.w, "%04d %4s %-16s", offset, lineStr, OpName(op))
		if detail != "" {
			fmt.Fprintf(d.w, " %s", detail)
		}
		fmt.Fprintln(d.w)
		ip += width
	}
	return nil
}

func (d *Disassembler) decodeOperand(op byte, unit *Unit, at int) string {
	code := unit.Code
	switch op {
	case OP_CONST, OP_CLOSURE:
		idx := ReadU16(code, at)
		return fmt.Sprintf("%d ; %s", idx, formatConstRef(unit, idx))
	case OP_GET_GLOBAL, OP_SET_GLOBAL, OP_DEFINE_GLOBAL:
		idx := ReadU16(code, at)
		return fmt.Sprintf("%d ; name=%s", idx, formatConstRef(unit, idx))
	case OP_GET_LOCAL, OP_SET_LOCAL, OP_GET_CLOSURE, OP_SET_CLOSURE, OP_CALL:
		return strconv.Itoa(int(ReadU16(code, at)))
	case OP_JUMP, OP_JUMP_IF, OP_JUMP_UNLESS:
		rel := ReadI32(code, at)
		return fmt.Sprintf("%+d ; -> %04d", rel, at+4+int(rel))
	default:
		return ""
	}
}

func lineForOffset(lines []LineInfo, offset int) int {
	line := 0
	for _, info := range lines {
		if info.Offset > offset {
			break
		}
		line = info.Line
	}
	return line
}

func formatConstRef(unit *Unit, idx uint16) string {
	if int(idx) >= len(unit.Constants) {
		return "<invalid>"
	}
	return FormatConst(unit.Constants[idx])
}

// FormatConst renders a constant pool entry.
func FormatConst(v value.Value) string {
	switch v.Kind {
	case value.KindString:
		return strconv.Quote(v.Text())
	case value.KindObject:
		if t, ok := v.Ref.(*Template); ok {
			return t.String()
		}
		return value.ToString(v)
	default:
		return value.ToString(v)
	}
}

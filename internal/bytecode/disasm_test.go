package bytecode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xirelogy/go-jazz/internal/value"
)

func TestDisassembleJumpTarget(t *testing.T) {
	code := []byte{OP_TRUE, OP_JUMP_UNLESS, 0, 0, 0, 0, OP_NOP, OP_END}
	PutI32(code, 2, 1)
	unit := &Unit{
		Name:  "test",
		Code:  code,
		Lines: []LineInfo{{Offset: 0, Line: 1}},
	}
	var buf bytes.Buffer
	if err := NewDisassembler(&buf).DisassembleUnit("", unit); err != nil {
		t.Fatalf("disassemble: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "OP_JUMP_UNLESS") || !strings.Contains(out, "+1 ; -> 0007") {
		t.Fatalf("expected resolved jump target, got:\n%s", out)
	}
}

func TestDisassembleNestedTemplates(t *testing.T) {
	inner := &Unit{Name: "inner", Code: []byte{OP_UNDEFINED, OP_RET}}
	outer := &Unit{
		Name: "main",
		Code: []byte{OP_CLOSURE, 0, 1, OP_CONST, 0, 0, OP_END},
		Constants: []value.Value{
			value.Str(value.StaticString("hi")),
			value.Obj(NewTemplate(inner)),
		},
	}
	var buf bytes.Buffer
	if err := NewDisassembler(&buf).DisassembleUnit("", outer); err != nil {
		t.Fatalf("disassemble: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"func main", "template inner", `"hi"`, "func inner", "OP_RET"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestDisassembleTruncated(t *testing.T) {
	unit := &Unit{Code: []byte{OP_CONST, 0}}
	var buf bytes.Buffer
	if err := NewDisassembler(&buf).DisassembleUnit("bad", unit); err == nil {
		t.Fatalf("expected error for truncated operand")
	}
}

func TestOperandCodec(t *testing.T) {
	buf := make([]byte, 4)
	for _, v := range []int32{0, 1, -1, 70000, -70000} {
		PutI32(buf, 0, v)
		if got := ReadI32(buf, 0); got != v {
			t.Fatalf("i32 round trip %d -> %d", v, got)
		}
	}
	if got := ReadU16([]byte{0x12, 0x34}, 0); got != 0x1234 {
		t.Fatalf("ReadU16 = %#x", got)
	}
}

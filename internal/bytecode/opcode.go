package bytecode

import "fmt"

// OpCode enumerates bytecode operations. Operands follow the opcode byte
// inline, big-endian: u16 for slots, constant indices and argument counts,
// i32 for jump displacements relative to the end of the operand.
const (
	OP_CONST byte = iota
	OP_UNDEFINED
	OP_NULL
	OP_TRUE
	OP_FALSE
	OP_POP
	OP_DUP
	OP_DUP2
	OP_DUP_X2
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved

	OP_ADD
	OP_SUB
	OP_MUL
	OP_DIV
	OP_MOD
	OP_NEG
	OP_TO_NUM
	OP_NOT
	OP_BW_NOT
	OP_BW_AND
	OP_BW_OR
	OP_BW_XOR
	OP_LSHIFT
	OP_RSHIFT
	OP_URSHIFT
	OP_TYPEOF

	OP_EQ
	OP_NEQ
	OP_STRICT_EQ
	OP_STRICT_NEQ
	OP_LT
	OP_LTE
	OP_GT
	OP_GTE

	OP_GET_GLOBAL
	OP_SET_GLOBAL
	OP_GET_LOCAL
	OP_SET_LOCAL
	OP_GET_CLOSURE
	OP_SET_CLOSURE
	OP_DEFINE_GLOBAL
	_ // reserved

	OP_NEW_OBJECT
	OP_INDEX
	OP_INDEX_STORE
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved

	OP_JUMP
	OP_JUMP_IF
	OP_JUMP_UNLESS
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved

	OP_CALL
	OP_RET
	OP_END
	OP_CLOSURE
)

const (
	OP_NOP byte = 0x60
)

// Operand encodings.
const (
	OperandNone = iota
	OperandU16
	OperandI32
)

// OpInfo describes an opcode for the disassembler and the VM's decoder.
type OpInfo struct {
	Name    string
	Operand int
}

var opInfo = map[byte]OpInfo{
	OP_CONST:         {"OP_CONST", OperandU16},
	OP_UNDEFINED:     {"OP_UNDEFINED", OperandNone},
	OP_NULL:          {"OP_NULL", OperandNone},
	OP_TRUE:          {"OP_TRUE", OperandNone},
	OP_FALSE:         {"OP_FALSE", OperandNone},
	OP_POP:           {"OP_POP", OperandNone},
	OP_DUP:           {"OP_DUP", OperandNone},
	OP_DUP2:          {"OP_DUP2", OperandNone},
	OP_DUP_X2:        {"OP_DUP_X2", OperandNone},
	OP_ADD:           {"OP_ADD", OperandNone},
	OP_SUB:           {"OP_SUB", OperandNone},
	OP_MUL:           {"OP_MUL", OperandNone},
	OP_DIV:           {"OP_DIV", OperandNone},
	OP_MOD:           {"OP_MOD", OperandNone},
	OP_NEG:           {"OP_NEG", OperandNone},
	OP_TO_NUM:        {"OP_TO_NUM", OperandNone},
	OP_NOT:           {"OP_NOT", OperandNone},
	OP_BW_NOT:        {"OP_BW_NOT", OperandNone},
	OP_BW_AND:        {"OP_BW_AND", OperandNone},
	OP_BW_OR:         {"OP_BW_OR", OperandNone},
	OP_BW_XOR:        {"OP_BW_XOR", OperandNone},
	OP_LSHIFT:        {"OP_LSHIFT", OperandNone},
	OP_RSHIFT:        {"OP_RSHIFT", OperandNone},
	OP_URSHIFT:       {"OP_URSHIFT", OperandNone},
	OP_TYPEOF:        {"OP_TYPEOF", OperandNone},
	OP_EQ:            {"OP_EQ", OperandNone},
	OP_NEQ:           {"OP_NEQ", OperandNone},
	OP_STRICT_EQ:     {"OP_STRICT_EQ", OperandNone},
	OP_STRICT_NEQ:    {"OP_STRICT_NEQ", OperandNone},
	OP_LT:            {"OP_LT", OperandNone},
	OP_LTE:           {"OP_LTE", OperandNone},
	OP_GT:            {"OP_GT", OperandNone},
	OP_GTE:           {"OP_GTE", OperandNone},
	OP_GET_GLOBAL:    {"OP_GET_GLOBAL", OperandU16},
	OP_SET_GLOBAL:    {"OP_SET_GLOBAL", OperandU16},
	OP_GET_LOCAL:     {"OP_GET_LOCAL", OperandU16},
	OP_SET_LOCAL:     {"OP_SET_LOCAL", OperandU16},
	OP_GET_CLOSURE:   {"OP_GET_CLOSURE", OperandU16},
	OP_SET_CLOSURE:   {"OP_SET_CLOSURE", OperandU16},
	OP_DEFINE_GLOBAL: {"OP_DEFINE_GLOBAL", OperandU16},
	OP_NEW_OBJECT:    {"OP_NEW_OBJECT", OperandNone},
	OP_INDEX:         {"OP_INDEX", OperandNone},
	OP_INDEX_STORE:   {"OP_INDEX_STORE", OperandNone},
	OP_JUMP:          {"OP_JUMP", OperandI32},
	OP_JUMP_IF:       {"OP_JUMP_IF", OperandI32},
	OP_JUMP_UNLESS:   {"OP_JUMP_UNLESS", OperandI32},
	OP_CALL:          {"OP_CALL", OperandU16},
	OP_RET:           {"OP_RET", OperandNone},
	OP_END:           {"OP_END", OperandNone},
	OP_CLOSURE:       {"OP_CLOSURE", OperandU16},
	OP_NOP:           {"OP_NOP", OperandNone},
}

// LookupOp returns metadata for a defined opcode.
func LookupOp(op byte) (OpInfo, bool) {
	info, ok := opInfo[op]
	return info, ok
}

// OpName returns the mnemonic of op, or a hex placeholder.
func OpName(op byte) string {
	if info, ok := opInfo[op]; ok {
		return info.Name
	}
	return fmt.Sprintf("OP_0x%02X", op)
}

// Width returns the encoded size of op including its operand.
func Width(op byte) int {
	switch opInfo[op].Operand {
	case OperandU16:
		return 3
	case OperandI32:
		return 5
	default:
		return 1
	}
}

// ReadU16 decodes a u16 operand at code[at].
func ReadU16(code []byte, at int) uint16 {
	return uint16(code[at])<<8 | uint16(code[at+1])
}

// ReadI32 decodes an i32 operand at code[at].
func ReadI32(code []byte, at int) int32 {
	return int32(uint32(code[at])<<24 | uint32(code[at+1])<<16 | uint32(code[at+2])<<8 | uint32(code[at+3]))
}

// PutI32 encodes v at code[at].
func PutI32(code []byte, at int, v int32) {
	u := uint32(v)
	code[at] = byte(u >> 24)
	code[at+1] = byte(u >> 16)
	code[at+2] = byte(u >> 8)
	code[at+3] = byte(u)
}

package compiler

import "github.com/xirelogy/go-jazz/internal/bytecode"

const (
	OP_CONST         = bytecode.OP_CONST
	OP_NULL          = bytecode.OP_NULL
	OP_TRUE          = bytecode.OP_TRUE
	OP_FALSE         = bytecode.OP_FALSE
	OP_POP           = bytecode.OP_POP
	OP_DUP           = bytecode.OP_DUP
	OP_DUP2          = bytecode.OP_DUP2
	OP_DUP_X2        = bytecode.OP_DUP_X2
	OP_ADD           = bytecode.OP_ADD
	OP_SUB           = bytecode.OP_SUB
	OP_MUL           = bytecode.OP_MUL
	OP_DIV           = bytecode.OP_DIV
	OP_MOD           = bytecode.OP_MOD
	OP_NEG           = bytecode.OP_NEG
	OP_TO_NUM        = bytecode.OP_TO_NUM
	OP_NOT           = bytecode.OP_NOT
	OP_BW_NOT        = bytecode.OP_BW_NOT
	OP_BW_AND        = bytecode.OP_BW_AND
	OP_BW_OR         = bytecode.OP_BW_OR
	OP_BW_XOR        = bytecode.OP_BW_XOR
	OP_LSHIFT        = bytecode.OP_LSHIFT
	OP_RSHIFT        = bytecode.OP_RSHIFT
	OP_URSHIFT       = bytecode.OP_URSHIFT
	OP_TYPEOF        = bytecode.OP_TYPEOF
	OP_EQ            = bytecode.OP_EQ
	OP_NEQ           = bytecode.OP_NEQ
	OP_STRICT_EQ     = bytecode.OP_STRICT_EQ
	OP_STRICT_NEQ    = bytecode.OP_STRICT_NEQ
	OP_LT            = bytecode.OP_LT
	OP_LTE           = bytecode.OP_LTE
	OP_GT            = bytecode.OP_GT
	OP_GTE           = bytecode.OP_GTE
	OP_GET_GLOBAL    = bytecode.OP_GET_GLOBAL
	OP_SET_GLOBAL    = bytecode.OP_SET_GLOBAL
	OP_DEFINE_GLOBAL = bytecode.OP_DEFINE_GLOBAL
	OP_GET_LOCAL     = bytecode.OP_GET_LOCAL
	OP_SET_LOCAL     = bytecode.OP_SET_LOCAL
	OP_GET_CLOSURE   = bytecode.OP_GET_CLOSURE
	OP_SET_CLOSURE   = bytecode.OP_SET_CLOSURE
	OP_NEW_OBJECT    = bytecode.OP_NEW_OBJECT
	OP_INDEX         = bytecode.OP_INDEX
	OP_INDEX_STORE   = bytecode.OP_INDEX_STORE
	OP_JUMP          = bytecode.OP_JUMP
	OP_JUMP_IF       = bytecode.OP_JUMP_IF
	OP_JUMP_UNLESS   = bytecode.OP_JUMP_UNLESS
	OP_CALL          = bytecode.OP_CALL
	OP_RET           = bytecode.OP_RET
	OP_END           = bytecode.OP_END
	OP_CLOSURE       = bytecode.OP_CLOSURE
	OP_NOP           = bytecode.OP_NOP
)

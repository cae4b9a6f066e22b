package cpu

import (
	"fmt"
)

// AluOp is an ALU operation type.
type AluOp int

//go:generate go tool stringer -linecomment -type=AluOp
const (
	ALU_OP_ADD = AluOp(0)  // add
	ALU_OP_SUB = AluOp(1)  // sub
	ALU_OP_MUL = AluOp(2)  // mul
	ALU_OP_DIV = AluOp(3)  // div
	ALU_OP_MOD = AluOp(4)  // mod
	ALU_OP_AND = AluOp(5)  // and
	ALU_OP_OR  = AluOp(6)  // or
	ALU_OP_XOR = AluOp(7)  // xor
	ALU_OP_NOT = AluOp(8)  // not
	ALU_OP_SHL = AluOp(9)  // shl
	ALU_OP_SHR = AluOp(10) // shr
	ALU_OP_INC = AluOp(11) // inc
	ALU_OP_DEC = AluOp(12) // dec
)

// Unary returns true if the operation ignores its second argument.
func (op AluOp) Unary() bool {
	switch op {
	case ALU_OP_NOT, ALU_OP_INC, ALU_OP_DEC:
		return true
	}
	return false
}

// wrap truncates an intermediate result to a byte.
func wrap(value uint16) uint8 {
	return uint8(value & 0xff)
}

// Alu performs the requested ALU action on a and b, and returns the
// output value. Unary operations ignore b.
//
// Division and remainder by zero return ErrDivideByZero.
func Alu(op AluOp, a uint8, b uint8) (output uint8, err error) {
	switch op {
	case ALU_OP_ADD:
		output = wrap(uint16(a) + uint16(b))
	case ALU_OP_SUB:
		output = wrap(uint16(a) + uint16(^b) + 1)
	case ALU_OP_MUL:
		output = wrap(uint16(a) * uint16(b))
	case ALU_OP_DIV:
		if b == 0 {
			err = ErrDivideByZero
			return
		}
		output = a / b
	case ALU_OP_MOD:
		if b == 0 {
			err = ErrDivideByZero
			return
		}
		output = a % b
	case ALU_OP_AND:
		output = a & b
	case ALU_OP_OR:
		output = a | b
	case ALU_OP_XOR:
		output = a ^ b
	case ALU_OP_NOT:
		output = ^a
	case ALU_OP_SHL:
		if b < 8 {
			output = wrap(uint16(a) << b)
		}
	case ALU_OP_SHR:
		if b < 8 {
			output = a >> b
		}
	case ALU_OP_INC:
		output = wrap(uint16(a) + 1)
	case ALU_OP_DEC:
		output = wrap(uint16(a) + 0xff)
	default:
		panic(fmt.Sprintf("cpu: unsupported ALU operation %v", op))
	}

	return
}

// Compare returns the flag register after comparing a against b.
// Exactly one of FLAG_E, FLAG_G or FLAG_L is set.
func Compare(a uint8, b uint8) (fl Flags) {
	switch {
	case a == b:
		fl = FLAG_E
	case a > b:
		fl = FLAG_G
	default:
		fl = FLAG_L
	}
	return
}

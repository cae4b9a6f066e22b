package cpu

import (
	"errors"

	"github.com/Michael-Bailar/Computer-Architecture/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrHalted         = errors.New(f("cpu halted"))
	ErrChannelInvalid = errors.New(f("channel invalid"))
	ErrProgramSize    = errors.New(f("program exceeds memory"))

	// Instruction faults
	ErrOpcodeUnknown = errors.New(f("opcode unknown"))
	ErrOpcodeAlu     = errors.New(f("alu"))
	ErrOpcodeIo      = errors.New(f("io"))
	ErrDivideByZero  = errors.New(f("divide by zero"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrLabelInvalid       = errors.New(f("label invalid"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
	ErrRegisterInvalid    = errors.New(f("register invalid"))
)

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrOpcode is an opcode byte with no instruction. It matches
// ErrOpcodeUnknown as well as any other ErrOpcode.
type ErrOpcode uint8

func (eo ErrOpcode) Error() string {
	return f("opcode unknown 0b%08b", uint8(eo))
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	if err == ErrOpcodeUnknown {
		return true
	}
	_, ok = err.(ErrOpcode)
	return
}

// ErrFault is a terminal execution fault, located by the instruction
// pointer of the faulting instruction.
type ErrFault struct {
	Pc     uint8
	Opcode Opcode
	Err    error
}

func (err *ErrFault) Error() string {
	if instructions[err.Opcode] == nil {
		return f("fault at 0x%02x: %v", err.Pc, err.Err)
	}
	return f("fault at 0x%02x (%v): %v", err.Pc, err.Opcode, err.Err)
}

func (err *ErrFault) Unwrap() error {
	return err.Err
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

package cpu

import (
	"fmt"
	"iter"
	"strings"
)

// Opcode is the first byte of an instruction.
// Bits 7-6 hold the number of operand bytes that follow it.
type Opcode uint8

const (
	OP_HLT  = Opcode(0b00000001)
	OP_RET  = Opcode(0b00010001)
	OP_PUSH = Opcode(0b01000101)
	OP_POP  = Opcode(0b01000110)
	OP_PRN  = Opcode(0b01000111)
	OP_CALL = Opcode(0b01010000)
	OP_JMP  = Opcode(0b01010100)
	OP_JEQ  = Opcode(0b01010101)
	OP_JNE  = Opcode(0b01010110)
	OP_JGT  = Opcode(0b01010111)
	OP_JLT  = Opcode(0b01011000)
	OP_JLE  = Opcode(0b01011001)
	OP_INC  = Opcode(0b01100101)
	OP_DEC  = Opcode(0b01100110)
	OP_NOT  = Opcode(0b01101001)
	OP_LDI  = Opcode(0b10000010)
	OP_ST   = Opcode(0b10000100)
	OP_ADD  = Opcode(0b10100000)
	OP_SUB  = Opcode(0b10100001)
	OP_MUL  = Opcode(0b10100010)
	OP_DIV  = Opcode(0b10100011)
	OP_MOD  = Opcode(0b10100100)
	OP_CMP  = Opcode(0b10100111)
	OP_AND  = Opcode(0b10101000)
	OP_OR   = Opcode(0b10101010)
	OP_XOR  = Opcode(0b10101011)
	OP_SHL  = Opcode(0b10101100)
	OP_SHR  = Opcode(0b10101101)
)

// Operands returns the number of operand bytes following the opcode.
func (op Opcode) Operands() int {
	return int((op >> 6) & 0b11)
}

// Len returns the total instruction length in bytes.
func (op Opcode) Len() int {
	return op.Operands() + 1
}

// String returns the instruction mnemonic.
func (op Opcode) String() string {
	inst := instructions[op]
	if inst == nil {
		return fmt.Sprintf("Opcode(0b%08b)", uint8(op))
	}
	return inst.Name
}

// OperandKind describes how an operand byte is interpreted.
type OperandKind int

const (
	OPERAND_REG = OperandKind(0) // Register index.
	OPERAND_IMM = OperandKind(1) // Immediate value.
)

// handler executes an instruction with its two operand bytes.
// If jumped is set, the handler has already moved the PC.
type handler func(cpu *Cpu, a, b uint8) (jumped bool, err error)

// Instruction is the decoded form of an opcode.
type Instruction struct {
	Opcode   Opcode        // Opcode byte.
	Name     string        // Assembler mnemonic.
	Operands []OperandKind // Operand kinds, one per operand byte.
	SetsPc   bool          // Set if the instruction may redirect the PC itself.

	exec handler
}

// Len returns the total instruction length in bytes.
func (inst *Instruction) Len() int {
	return inst.Opcode.Len()
}

var (
	reg    = []OperandKind{OPERAND_REG}
	regReg = []OperandKind{OPERAND_REG, OPERAND_REG}
	regImm = []OperandKind{OPERAND_REG, OPERAND_IMM}
)

// instructionTable lists the instruction set, in opcode order.
var instructionTable = []Instruction{
	{OP_HLT, "HLT", nil, false, (*Cpu).opHlt},
	{OP_RET, "RET", nil, true, (*Cpu).opRet},
	{OP_PUSH, "PUSH", reg, false, (*Cpu).opPush},
	{OP_POP, "POP", reg, false, (*Cpu).opPop},
	{OP_PRN, "PRN", reg, false, (*Cpu).opPrn},
	{OP_CALL, "CALL", reg, true, (*Cpu).opCall},
	{OP_JMP, "JMP", reg, true, jumpIf(func(Flags) bool { return true })},
	{OP_JEQ, "JEQ", reg, true, jumpIf(Flags.Equal)},
	{OP_JNE, "JNE", reg, true, jumpIf(func(fl Flags) bool { return !fl.Equal() })},
	{OP_JGT, "JGT", reg, true, jumpIf(Flags.Greater)},
	{OP_JLT, "JLT", reg, true, jumpIf(Flags.Less)},
	{OP_JLE, "JLE", reg, true, jumpIf(func(fl Flags) bool { return fl.Less() || fl.Equal() })},
	{OP_INC, "INC", reg, false, alu(ALU_OP_INC)},
	{OP_DEC, "DEC", reg, false, alu(ALU_OP_DEC)},
	{OP_NOT, "NOT", reg, false, alu(ALU_OP_NOT)},
	{OP_LDI, "LDI", regImm, false, (*Cpu).opLdi},
	{OP_ST, "ST", regReg, false, (*Cpu).opSt},
	{OP_ADD, "ADD", regReg, false, alu(ALU_OP_ADD)},
	{OP_SUB, "SUB", regReg, false, alu(ALU_OP_SUB)},
	{OP_MUL, "MUL", regReg, false, alu(ALU_OP_MUL)},
	{OP_DIV, "DIV", regReg, false, alu(ALU_OP_DIV)},
	{OP_MOD, "MOD", regReg, false, alu(ALU_OP_MOD)},
	{OP_CMP, "CMP", regReg, false, (*Cpu).opCmp},
	{OP_AND, "AND", regReg, false, alu(ALU_OP_AND)},
	{OP_OR, "OR", regReg, false, alu(ALU_OP_OR)},
	{OP_XOR, "XOR", regReg, false, alu(ALU_OP_XOR)},
	{OP_SHL, "SHL", regReg, false, alu(ALU_OP_SHL)},
	{OP_SHR, "SHR", regReg, false, alu(ALU_OP_SHR)},
}

// instructions is the dispatch table, indexed by opcode byte.
var instructions [256]*Instruction

// mnemonics maps upper case mnemonics to instructions.
var mnemonics = map[string]*Instruction{}

func init() {
	for n := range instructionTable {
		inst := &instructionTable[n]
		if len(inst.Operands) != inst.Opcode.Operands() {
			panic(fmt.Sprintf("cpu: %v operand count mismatch", inst.Name))
		}
		if instructions[inst.Opcode] != nil {
			panic(fmt.Sprintf("cpu: %v opcode duplicated", inst.Name))
		}
		instructions[inst.Opcode] = inst
		mnemonics[inst.Name] = inst
	}
}

// Decode returns the instruction for an opcode byte. Unknown opcodes
// return an ErrOpcode.
func Decode(opcode uint8) (inst *Instruction, err error) {
	inst = instructions[opcode]
	if inst == nil {
		err = ErrOpcode(opcode)
	}
	return
}

// Lookup returns the instruction for a mnemonic, in any case.
func Lookup(name string) (inst *Instruction, ok bool) {
	inst, ok = mnemonics[strings.ToUpper(name)]
	return
}

// Opcodes returns an iterator over the instruction set.
func Opcodes() iter.Seq2[Opcode, *Instruction] {
	return func(yield func(Opcode, *Instruction) bool) {
		for n := range instructionTable {
			inst := &instructionTable[n]
			if !yield(inst.Opcode, inst) {
				return
			}
		}
	}
}

// Defines returns an iterator of assembler equates for the CPU.
func Defines() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		fixed := [][2]string{
			{"MEMORY_SIZE", fmt.Sprintf("%d", MEMORY_SIZE)},
			{"SP", fmt.Sprintf("R%d", SP)},
			{"SP_INIT", fmt.Sprintf("%#x", SP_INIT)},
		}
		for _, def := range fixed {
			if !yield(def[0], def[1]) {
				return
			}
		}
		for op, inst := range Opcodes() {
			if !yield("OP_"+inst.Name, fmt.Sprintf("%#x", uint8(op))) {
				return
			}
		}
	}
}

// Disassemble renders the instruction at addr, returning its text and
// length in bytes. Unknown opcodes render as a single .db byte.
func Disassemble(mem *Memory, addr uint8) (text string, size int) {
	opcode := mem.Read(addr)
	inst, err := Decode(opcode)
	if err != nil {
		return fmt.Sprintf(".db 0x%02x", opcode), 1
	}

	args := make([]string, len(inst.Operands))
	for n, kind := range inst.Operands {
		value := mem.Read(addr + uint8(n) + 1)
		switch kind {
		case OPERAND_REG:
			args[n] = fmt.Sprintf("R%d", value%REGISTER_COUNT)
		case OPERAND_IMM:
			args[n] = fmt.Sprintf("%d", value)
		}
	}

	text = inst.Name
	if len(args) > 0 {
		text += " " + strings.Join(args, ", ")
	}

	return text, inst.Len()
}

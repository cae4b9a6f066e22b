// Package cpu implements the LS-8 microprocessor, its binary program loader,
// and its assembler.
//
// The CPU consists of 256 bytes of memory, an 8-bit instruction pointer
// (PC), eight 8-bit general-purpose registers (R0-R7, with R7 doubling as
// the stack pointer), an ALU, and a flag register holding the Equal,
// Greater and Less results of the last compare.
//
// All address and register arithmetic wraps modulo 256. The stack lives
// in memory, grows downward from SP_INIT, and is addressed through R7.
//
// Instructions are one opcode byte followed by zero, one or two operand
// bytes; the operand count is encoded in the two highest bits of the
// opcode.
//
// The assembler provides a mnemonic source language for the LS-8
// instruction set, supporting labels, equates, raw data bytes, and
// compile-time expression evaluation.
package cpu

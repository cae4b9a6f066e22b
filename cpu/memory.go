package cpu

import (
	"fmt"
	"strings"
)

const (
	MEMORY_SIZE    = 256  // Bytes of addressable memory.
	REGISTER_COUNT = 8    // General purpose registers.
	SP             = 7    // Register index of the stack pointer.
	SP_INIT        = 0xf3 // Stack pointer value after reset.
)

// Memory is the flat LS-8 address space. Addresses are bytes, so every
// access wraps modulo MEMORY_SIZE.
type Memory [MEMORY_SIZE]uint8

// Read the byte at addr.
func (mem *Memory) Read(addr uint8) uint8 {
	return mem[addr]
}

// Write value to addr.
func (mem *Memory) Write(addr uint8, value uint8) {
	mem[addr] = value
}

// Load copies image into memory starting at address 0.
func (mem *Memory) Load(image []uint8) (err error) {
	if len(image) > MEMORY_SIZE {
		err = ErrProgramSize
		return
	}

	copy(mem[:], image)

	return
}

// Reset zeros all of memory.
func (mem *Memory) Reset() {
	clear(mem[:])
}

// RegisterFile is the bank of general purpose registers.
// Register indices wrap modulo REGISTER_COUNT.
type RegisterFile [REGISTER_COUNT]uint8

// Get returns the value of register index.
func (rf *RegisterFile) Get(index uint8) uint8 {
	return rf[index%REGISTER_COUNT]
}

// Set register index to value.
func (rf *RegisterFile) Set(index uint8, value uint8) {
	rf[index%REGISTER_COUNT] = value
}

// Reset zeros the registers, and points the stack pointer at SP_INIT.
func (rf *RegisterFile) Reset() {
	clear(rf[:])
	rf[SP] = SP_INIT
}

// String returns the register values as hex bytes.
func (rf *RegisterFile) String() string {
	var sb strings.Builder
	for n, value := range rf {
		if n > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", value)
	}
	return sb.String()
}

// Flags is the flag register, laid out as 0b00000LGE.
type Flags uint8

const (
	FLAG_E = Flags(1 << 0) // Equal
	FLAG_G = Flags(1 << 1) // Greater
	FLAG_L = Flags(1 << 2) // Less
)

func (fl Flags) Equal() bool {
	return (fl & FLAG_E) != 0
}

func (fl Flags) Greater() bool {
	return (fl & FLAG_G) != 0
}

func (fl Flags) Less() bool {
	return (fl & FLAG_L) != 0
}

// String renders the flags as LGE, with '-' for a clear flag.
func (fl Flags) String() string {
	text := []byte("---")
	if fl.Less() {
		text[0] = 'L'
	}
	if fl.Greater() {
		text[1] = 'G'
	}
	if fl.Equal() {
		text[2] = 'E'
	}
	return string(text)
}

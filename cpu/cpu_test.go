package cpu

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Michael-Bailar/Computer-Architecture/io"
)

// newTestCpu returns a CPU loaded with image, printing to the returned buffer.
func newTestCpu(t *testing.T, image ...uint8) (cpu *Cpu, output *bytes.Buffer) {
	output = &bytes.Buffer{}
	cpu = NewCpu()
	cpu.SetChannel(&io.Console{Output: output})

	err := cpu.Load(image)
	if err != nil {
		t.Fatal(err)
	}

	return
}

func TestNewCpu(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	assert.Equal(uint8(0), cpu.Pc)
	assert.Equal(uint8(SP_INIT), cpu.Register[SP])
	assert.Equal(Flags(0), cpu.Flags)
	assert.False(cpu.Halted)
	assert.Nil(cpu.Fault)
}

func TestCpu_Reset(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, 0x82, 0x00, 0x08, 0x01)
	assert.NoError(cpu.Run())
	assert.True(cpu.Halted)
	assert.Equal(2, cpu.Ticks)

	cpu.Flags = FLAG_G
	cpu.Reset()
	assert.False(cpu.Halted)
	assert.Equal(uint8(0), cpu.Pc)
	assert.Equal(Flags(0), cpu.Flags)
	assert.Equal(uint8(0), cpu.Register[0])
	assert.Equal(uint8(SP_INIT), cpu.Register[SP])
	assert.Equal(uint8(0), cpu.Memory[0])
	assert.Equal(0, cpu.Ticks)
}

func TestCpu_LoadTooLarge(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	assert.ErrorIs(cpu.Load(make([]uint8, MEMORY_SIZE+1)), ErrProgramSize)
}

func TestCpu_PrintEight(t *testing.T) {
	assert := assert.New(t)

	cpu, output := newTestCpu(t,
		0x82, 0x00, 0x08, // LDI R0, 8
		0x47, 0x00, // PRN R0
		0x01, // HLT
	)

	assert.NoError(cpu.Run())
	assert.Equal("8\n", output.String())
	assert.True(cpu.Halted)
	assert.Nil(cpu.Fault)
	assert.Equal(uint8(6), cpu.Pc)
	assert.Equal(3, cpu.Ticks)
}

func TestCpu_LdiPrn(t *testing.T) {
	assert := assert.New(t)

	for r := range uint8(REGISTER_COUNT) {
		for v := range 256 {
			cpu, output := newTestCpu(t,
				uint8(OP_LDI), r, uint8(v),
				uint8(OP_PRN), r,
				uint8(OP_HLT),
			)
			assert.NoError(cpu.Run())
			if output.String() != fmt.Sprintf("%d\n", v) {
				t.Fatalf("LDI R%d,%d; PRN R%d printed %q", r, v, r, output.String())
			}
		}
	}
}

func TestCpu_Mul(t *testing.T) {
	assert := assert.New(t)

	cpu, output := newTestCpu(t,
		0x82, 0x00, 0x05, // LDI R0, 5
		0x82, 0x01, 0x03, // LDI R1, 3
		0xa2, 0x00, 0x01, // MUL R0, R1
		0x47, 0x00, // PRN R0
		0x01, // HLT
	)

	assert.NoError(cpu.Run())
	assert.Equal("15\n", output.String())
	assert.Equal(uint8(3), cpu.Register[1])
}

func TestCpu_AluInstructions(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		op     Opcode
		a, b   uint8
		output uint8
	}){
		{"ADD", OP_ADD, 250, 10, 4},
		{"SUB", OP_SUB, 10, 250, 16},
		{"MUL", OP_MUL, 5, 3, 15},
		{"DIV", OP_DIV, 200, 7, 28},
		{"MOD", OP_MOD, 200, 7, 4},
		{"AND", OP_AND, 0xf0, 0x3c, 0x30},
		{"OR", OP_OR, 0xf0, 0x0f, 0xff},
		{"XOR", OP_XOR, 0xff, 0x0f, 0xf0},
		{"SHL", OP_SHL, 0x03, 2, 0x0c},
		{"SHR", OP_SHR, 0xc0, 6, 0x03},
		{"ST", OP_ST, 1, 99, 99},
		{"INC", OP_INC, 255, 7, 0},
		{"DEC", OP_DEC, 0, 7, 255},
		{"NOT", OP_NOT, 0xaa, 7, 0x55},
	}

	for _, entry := range table {
		image := []uint8{
			uint8(OP_LDI), 2, entry.a,
			uint8(OP_LDI), 3, entry.b,
			uint8(entry.op), 2,
		}
		if entry.op.Operands() == 2 {
			image = append(image, 3)
		}
		image = append(image, uint8(OP_PRN), 2, uint8(OP_HLT))

		cpu, output := newTestCpu(t, image...)
		assert.NoError(cpu.Run(), entry.name)
		assert.Equal(fmt.Sprintf("%d\n", entry.output), output.String(), entry.name)
		assert.Equal(entry.b, cpu.Register[3], entry.name)
	}
}

func TestCpu_Cmp(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		a, b  uint8
		flags Flags
	}){
		{5, 5, FLAG_E},
		{6, 5, FLAG_G},
		{4, 5, FLAG_L},
		{0, 255, FLAG_L},
		{255, 0, FLAG_G},
	}

	for _, entry := range table {
		cpu, _ := newTestCpu(t,
			uint8(OP_LDI), 0, entry.a,
			uint8(OP_LDI), 1, entry.b,
			uint8(OP_CMP), 0, 1,
			uint8(OP_CMP), 0, 1,
			uint8(OP_HLT),
		)
		// Stale flags are replaced, not merged.
		cpu.Flags = FLAG_E | FLAG_G | FLAG_L

		for range 3 {
			assert.NoError(cpu.Tick())
		}
		assert.Equal(entry.flags, cpu.Flags)

		assert.NoError(cpu.Tick())
		assert.Equal(entry.flags, cpu.Flags)
	}
}

// branchProgram compares R0 and R1, then jumps with op to a routine
// printing 1. When not taken, it prints 0.
func branchProgram(op Opcode, a, b uint8) []uint8 {
	return []uint8{
		uint8(OP_LDI), 0, a, // 0
		uint8(OP_LDI), 1, b, // 3
		uint8(OP_LDI), 2, 20, // 6
		uint8(OP_CMP), 0, 1, // 9
		uint8(op), 2, // 12
		uint8(OP_LDI), 3, 0, // 14
		uint8(OP_PRN), 3, // 17
		uint8(OP_HLT), // 19
		uint8(OP_LDI), 3, 1, // 20
		uint8(OP_PRN), 3, // 23
		uint8(OP_HLT), // 25
	}
}

func TestCpu_Jumps(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		op    Opcode
		a, b  uint8
		taken bool
	}){
		{"JMP_eq", OP_JMP, 5, 5, true},
		{"JMP_lt", OP_JMP, 1, 5, true},
		{"JEQ_eq", OP_JEQ, 5, 5, true},
		{"JEQ_ne", OP_JEQ, 5, 3, false},
		{"JNE_eq", OP_JNE, 5, 5, false},
		{"JNE_ne", OP_JNE, 5, 3, true},
		{"JGT_gt", OP_JGT, 6, 5, true},
		{"JGT_eq", OP_JGT, 5, 5, false},
		{"JGT_lt", OP_JGT, 4, 5, false},
		{"JLT_lt", OP_JLT, 4, 5, true},
		{"JLT_eq", OP_JLT, 5, 5, false},
		{"JLT_gt", OP_JLT, 6, 5, false},
		{"JLE_lt", OP_JLE, 4, 5, true},
		{"JLE_eq", OP_JLE, 5, 5, true},
		{"JLE_gt", OP_JLE, 6, 5, false},
	}

	for _, entry := range table {
		cpu, output := newTestCpu(t, branchProgram(entry.op, entry.a, entry.b)...)

		for range 4 {
			assert.NoError(cpu.Tick(), entry.name)
		}
		assert.Equal(uint8(12), cpu.Pc, entry.name)

		assert.NoError(cpu.Tick(), entry.name)
		if entry.taken {
			assert.Equal(uint8(20), cpu.Pc, entry.name)
		} else {
			assert.Equal(uint8(14), cpu.Pc, entry.name)
		}

		assert.NoError(cpu.Run(), entry.name)
		if entry.taken {
			assert.Equal("1\n", output.String(), entry.name)
		} else {
			assert.Equal("0\n", output.String(), entry.name)
		}
	}
}

func TestCpu_PushPop(t *testing.T) {
	assert := assert.New(t)

	cpu, output := newTestCpu(t,
		uint8(OP_LDI), 0, 42,
		uint8(OP_PUSH), 0,
		uint8(OP_POP), 0,
		uint8(OP_PRN), 0,
		uint8(OP_HLT),
	)

	assert.NoError(cpu.Tick())
	assert.NoError(cpu.Tick())

	// PUSH zeros its source register.
	assert.Equal(uint8(0), cpu.Register[0])
	assert.Equal(uint8(SP_INIT-1), cpu.Register[SP])
	assert.Equal(uint8(42), cpu.Memory[SP_INIT-1])

	assert.NoError(cpu.Tick())
	assert.Equal(uint8(42), cpu.Register[0])
	assert.Equal(uint8(SP_INIT), cpu.Register[SP])

	assert.NoError(cpu.Run())
	assert.Equal("42\n", output.String())
}

func TestCpu_PushPopOrder(t *testing.T) {
	assert := assert.New(t)

	cpu, output := newTestCpu(t,
		uint8(OP_LDI), 0, 1,
		uint8(OP_LDI), 1, 2,
		uint8(OP_PUSH), 0,
		uint8(OP_PUSH), 1,
		uint8(OP_POP), 2,
		uint8(OP_POP), 3,
		uint8(OP_PRN), 2,
		uint8(OP_PRN), 3,
		uint8(OP_HLT),
	)

	assert.NoError(cpu.Run())
	assert.Equal("2\n1\n", output.String())
	assert.Equal(uint8(SP_INIT), cpu.Register[SP])
}

func TestCpu_CallRet(t *testing.T) {
	assert := assert.New(t)

	cpu, output := newTestCpu(t,
		uint8(OP_LDI), 1, 8, // 0
		uint8(OP_CALL), 1, // 3
		uint8(OP_PRN), 0, // 5
		uint8(OP_HLT),       // 7
		uint8(OP_LDI), 0, 99, // 8: subroutine
		uint8(OP_RET), // 11
	)

	assert.NoError(cpu.Tick())
	assert.NoError(cpu.Tick())
	assert.Equal(uint8(8), cpu.Pc)
	assert.Equal(uint8(SP_INIT-1), cpu.Register[SP])
	assert.Equal(uint8(5), cpu.Peek())

	assert.NoError(cpu.Tick())
	assert.NoError(cpu.Tick())
	assert.Equal(uint8(5), cpu.Pc)
	assert.Equal(uint8(SP_INIT), cpu.Register[SP])

	assert.NoError(cpu.Run())
	assert.Equal("99\n", output.String())
}

func TestCpu_NestedCall(t *testing.T) {
	assert := assert.New(t)

	cpu, output := newTestCpu(t,
		uint8(OP_LDI), 1, 9, // 0
		uint8(OP_LDI), 2, 16, // 3
		uint8(OP_CALL), 1, // 6
		uint8(OP_HLT),    // 8
		uint8(OP_INC), 0, // 9: outer
		uint8(OP_CALL), 2, // 11
		uint8(OP_PRN), 0, // 13
		uint8(OP_RET),    // 15
		uint8(OP_INC), 0, // 16: inner
		uint8(OP_RET), // 18
	)

	assert.NoError(cpu.Run())
	assert.Equal("2\n", output.String())
	assert.Equal(uint8(SP_INIT), cpu.Register[SP])
	assert.Equal(uint8(9), cpu.Pc)
}

func TestCpu_DivideByZero(t *testing.T) {
	assert := assert.New(t)

	for _, op := range []Opcode{OP_DIV, OP_MOD} {
		cpu, output := newTestCpu(t,
			uint8(OP_LDI), 0, 10,
			uint8(OP_LDI), 1, 0,
			uint8(op), 0, 1,
			uint8(OP_PRN), 0,
			uint8(OP_HLT),
		)

		err := cpu.Run()
		assert.ErrorIs(err, ErrDivideByZero, op.String())
		assert.ErrorIs(err, ErrOpcodeAlu, op.String())
		assert.Equal("fault at 0x06 ("+op.String()+"): alu: divide by zero", err.Error())

		var fault *ErrFault
		if assert.True(errors.As(err, &fault), op.String()) {
			assert.Equal(uint8(6), fault.Pc)
			assert.Equal(op, fault.Opcode)
		}

		assert.True(cpu.Halted)
		assert.Equal(err, cpu.Fault)
		assert.Equal(uint8(6), cpu.Pc)
		assert.Equal(uint8(10), cpu.Register[0])
		assert.Equal("", output.String())

		assert.ErrorIs(cpu.Tick(), ErrHalted)
	}
}

func TestCpu_UnknownOpcode(t *testing.T) {
	assert := assert.New(t)

	cpu, output := newTestCpu(t,
		uint8(OP_LDI), 0, 1,
		uint8(OP_PRN), 0,
		0b11111111,
		uint8(OP_HLT),
	)

	err := cpu.Run()
	assert.ErrorIs(err, ErrOpcodeUnknown)
	assert.ErrorIs(err, ErrOpcode(0xff))

	var fault *ErrFault
	assert.True(errors.As(err, &fault))
	assert.Equal(uint8(5), fault.Pc)
	assert.Equal("fault at 0x05: opcode unknown 0b11111111", err.Error())

	assert.True(cpu.Halted)
	assert.Equal("1\n", output.String())
}

func TestCpu_HaltedTick(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, uint8(OP_HLT))
	assert.NoError(cpu.Tick())
	assert.True(cpu.Halted)
	assert.Nil(cpu.Fault)

	assert.ErrorIs(cpu.Tick(), ErrHalted)
	assert.Nil(cpu.Fault)
	assert.NoError(cpu.Run())
}

func TestCpu_NoChannel(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	assert.NoError(cpu.Load([]uint8{uint8(OP_PRN), 0, uint8(OP_HLT)}))

	err := cpu.Run()
	assert.ErrorIs(err, ErrChannelInvalid)
	assert.ErrorIs(err, ErrOpcodeIo)
	assert.True(cpu.Halted)
}

func TestCpu_PcWrap(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, 0x07)
	cpu.Memory[0xfe] = uint8(OP_LDI)
	cpu.Memory[0xff] = 0x00
	cpu.Pc = 0xfe

	assert.NoError(cpu.Tick())
	assert.Equal(uint8(0x07), cpu.Register[0])
	assert.Equal(uint8(0x01), cpu.Pc)
}

func TestCpu_PushSp(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t,
		uint8(OP_PUSH), SP,
		uint8(OP_HLT),
	)

	assert.NoError(cpu.Run())
	assert.Equal(uint8(SP_INIT), cpu.Memory[SP_INIT-1])
	assert.Equal(uint8(0), cpu.Register[SP])
}

func TestCpu_String(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, 0x82, 0x00, 0x08, 0x01)
	assert.Equal("00 | 82 00 08 | 00 00 00 00 00 00 00 F3 | ---", cpu.String())

	assert.NoError(cpu.Tick())
	assert.Equal("03 | 01 00 00 | 08 00 00 00 00 00 00 F3 | ---", cpu.String())
}

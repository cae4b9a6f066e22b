package cpu

import (
	"fmt"
	"log"

	"github.com/Michael-Bailar/Computer-Architecture/io"
)

// Channel is an output channel interface.
type Channel io.Channel

// Cpu is the simulation context for the LS-8 processor.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Memory   Memory       // Main memory, shared by program text and the stack.
	Register RegisterFile // Register bank. Register SP is the stack pointer.
	Flags    Flags        // Result of the last CMP.
	Pc       uint8        // Current instruction pointer.

	Halted bool  // Set once the CPU has executed HLT or faulted.
	Fault  error // Terminal fault, if the CPU halted on one.

	Ticks int // Executed instruction counter.

	channel Channel // PRN output.
}

// NewCpu creates a new CPU, reset and ready to load a program.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}
	cpu.Reset()

	return
}

// SetChannel sets the channel that PRN writes to.
func (cpu *Cpu) SetChannel(channel Channel) {
	cpu.channel = channel
}

// Reset the CPU state.
// - Clears memory, registers and flags.
// - Points the stack pointer at SP_INIT.
// - Zeros statistics counters.
// - Rewinds the output channel.
// - Sets the PC to address 0.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.Memory.Reset()
	cpu.Register.Reset()
	cpu.Flags = 0
	cpu.Pc = 0
	cpu.Halted = false
	cpu.Fault = nil
	cpu.Ticks = 0

	if cpu.channel != nil {
		cpu.channel.Rewind()
	}
}

// Load resets the CPU, then copies a program image to address 0.
func (cpu *Cpu) Load(image []uint8) (err error) {
	cpu.Reset()

	err = cpu.Memory.Load(image)
	if err != nil {
		return
	}

	if cpu.Verbose {
		log.Printf("cpu: loaded %d bytes", len(image))
	}

	return
}

// String returns the current CPU state as a trace line:
// PC | IR A B | R0..R7 | FL
func (cpu *Cpu) String() string {
	return fmt.Sprintf("%02X | %02X %02X %02X | %v | %v",
		cpu.Pc,
		cpu.Memory.Read(cpu.Pc),
		cpu.Memory.Read(cpu.Pc+1),
		cpu.Memory.Read(cpu.Pc+2),
		cpu.Register.String(),
		cpu.Flags.String(),
	)
}

// Tick executes a single CPU instruction cycle.
func (cpu *Cpu) Tick() (err error) {
	if cpu.Halted {
		err = ErrHalted
		return
	}

	pc := cpu.Pc
	err = cpu.Execute(cpu.Memory.Read(pc), cpu.Memory.Read(pc+1), cpu.Memory.Read(pc+2))

	return
}

// Run ticks the CPU until it halts. A clean HLT returns nil; otherwise the
// fault that halted the CPU is returned.
func (cpu *Cpu) Run() (err error) {
	for !cpu.Halted {
		err = cpu.Tick()
		if err != nil {
			return
		}
	}

	return
}

// Execute executes a single instruction at the current PC, given its
// opcode and the two bytes that follow it.
//
// Any error is terminal: the CPU halts, and records the fault.
func (cpu *Cpu) Execute(opcode, a, b uint8) (err error) {
	pc := cpu.Pc

	defer func() {
		if err != nil {
			err = &ErrFault{Pc: pc, Opcode: Opcode(opcode), Err: err}
			cpu.Halted = true
			cpu.Fault = err
			if cpu.Verbose {
				log.Printf("cpu: %v", err)
			}
		}
	}()

	if cpu.Verbose {
		text, _ := Disassemble(&cpu.Memory, pc)
		log.Printf("cpu: %v | %v", cpu.String(), text)
	}

	inst, err := Decode(opcode)
	if err != nil {
		return
	}

	jumped, err := inst.exec(cpu, a, b)
	if err != nil {
		return
	}

	if !jumped {
		cpu.Pc = pc + uint8(inst.Len())
	}

	cpu.Ticks++

	return
}

// jumpIf returns a handler that sets the PC to the value of its register
// operand when cond holds for the current flags.
func jumpIf(cond func(fl Flags) bool) handler {
	return func(cpu *Cpu, a, _ uint8) (jumped bool, err error) {
		if cond(cpu.Flags) {
			cpu.Pc = cpu.Register.Get(a)
			jumped = true
		}
		return
	}
}

// alu returns a handler that applies op to its register operands, and
// stores the result in the first.
func alu(op AluOp) handler {
	return func(cpu *Cpu, a, b uint8) (jumped bool, err error) {
		var value uint8
		if !op.Unary() {
			value = cpu.Register.Get(b)
		}
		value, err = Alu(op, cpu.Register.Get(a), value)
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrOpcodeAlu, err)
			return
		}
		cpu.Register.Set(a, value)
		return
	}
}

func (cpu *Cpu) opHlt(_, _ uint8) (jumped bool, err error) {
	cpu.Halted = true
	return
}

func (cpu *Cpu) opLdi(a, b uint8) (jumped bool, err error) {
	cpu.Register.Set(a, b)
	return
}

// opSt copies register b into register a.
func (cpu *Cpu) opSt(a, b uint8) (jumped bool, err error) {
	cpu.Register.Set(a, cpu.Register.Get(b))
	return
}

func (cpu *Cpu) opPrn(a, _ uint8) (jumped bool, err error) {
	if cpu.channel == nil {
		err = fmt.Errorf("%w: %w", ErrOpcodeIo, ErrChannelInvalid)
		return
	}

	err = cpu.channel.Send(cpu.Register.Get(a))
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrOpcodeIo, err)
	}
	return
}

func (cpu *Cpu) opCmp(a, b uint8) (jumped bool, err error) {
	cpu.Flags = Compare(cpu.Register.Get(a), cpu.Register.Get(b))
	return
}

// opPush pushes register a, then zeros it.
func (cpu *Cpu) opPush(a, _ uint8) (jumped bool, err error) {
	cpu.Push(cpu.Register.Get(a))
	cpu.Register.Set(a, 0)
	return
}

func (cpu *Cpu) opPop(a, _ uint8) (jumped bool, err error) {
	cpu.Register.Set(a, cpu.Pop())
	return
}

// opCall pushes the address following the CALL, and jumps to register a.
func (cpu *Cpu) opCall(a, _ uint8) (jumped bool, err error) {
	target := cpu.Register.Get(a)
	cpu.Push(cpu.Pc + uint8(OP_CALL.Len()))
	cpu.Pc = target
	jumped = true
	return
}

func (cpu *Cpu) opRet(_, _ uint8) (jumped bool, err error) {
	cpu.Pc = cpu.Pop()
	jumped = true
	return
}

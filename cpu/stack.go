package cpu

// The stack lives in Memory, addressed through the SP register.
// It grows downward from SP_INIT, and wraps with the address space.

// Push decrements SP, then writes value to the new top of the stack.
func (cpu *Cpu) Push(value uint8) {
	sp := cpu.Register.Get(SP) - 1
	cpu.Register.Set(SP, sp)
	cpu.Memory.Write(sp, value)
}

// Pop reads the top of the stack, then increments SP.
func (cpu *Cpu) Pop() (value uint8) {
	sp := cpu.Register.Get(SP)
	value = cpu.Memory.Read(sp)
	cpu.Register.Set(SP, sp+1)
	return
}

// Peek returns the top of the stack without moving SP.
func (cpu *Cpu) Peek() uint8 {
	return cpu.Memory.Read(cpu.Register.Get(SP))
}

// Depth returns the number of bytes pushed below SP_INIT.
func (cpu *Cpu) Depth() int {
	return int(uint8(SP_INIT - cpu.Register.Get(SP)))
}

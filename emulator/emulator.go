// Package emulator runs LS-8 programs: a CPU, the program listing it was
// loaded from, and its console.
package emulator

import (
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/Michael-Bailar/Computer-Architecture/cpu"
	lsio "github.com/Michael-Bailar/Computer-Architecture/io"
)

// Emulator state. CPU + program listing + console.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.

	Console lsio.Console // PRN output channel.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
	}

	emu.Cpu.SetChannel(&emu.Console)

	return
}

// Source describes how program files are read.
type Source struct {
	Verbose  bool              // If set, verbosely logs the assembler actions.
	Assemble bool              // If set, every file is assembled.
	Define   map[string]string // Assembler predefines.
}

// Parse reads a program from input. Sources named with a .asm extension,
// or any source when Assemble is set, are assembled; all others are
// parsed as one binary literal per line.
func (src *Source) Parse(name string, input io.Reader) (prog *cpu.Program, err error) {
	if src.Assemble || strings.EqualFold(filepath.Ext(name), ".asm") {
		asm := &cpu.Assembler{Verbose: src.Verbose}
		for equ, value := range src.Define {
			asm.Predefine(equ, value)
		}
		prog, err = asm.Parse(input)
		return
	}

	prog, err = cpu.ParseBinary(input)
	return
}

// Reset the emulator, and load the program into memory.
func (emu *Emulator) Reset() (err error) {
	if emu.Program == nil {
		err = ErrProgramMissing
		return
	}

	emu.Cpu.Verbose = emu.Verbose

	err = emu.Cpu.Load(emu.Program.Binary())
	if err != nil {
		return
	}

	if emu.Verbose {
		log.Printf("emulator: %d statements, %d bytes", len(emu.Program.Statements), emu.Program.Size())
	}

	return
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Pc returns current instruction pointer.
func (emu *Emulator) Pc() int {
	return int(emu.Cpu.Pc)
}

// LineNo returns the source line number for the executing instruction,
// or 0 if the PC is outside of the program.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Statement == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single tick of the emulator. done is set once the CPU
// has halted.
func (emu *Emulator) Tick() (done bool, err error) {
	if emu.Program == nil {
		err = ErrProgramMissing
		return
	}

	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	err = emu.Cpu.Tick()
	if err != nil {
		return
	}

	done = emu.Cpu.Halted

	return
}

// Run ticks the emulator until the program halts or faults. Running an
// emulator that has already halted does nothing.
func (emu *Emulator) Run() (err error) {
	for !emu.Cpu.Halted {
		_, err = emu.Tick()
		if err != nil {
			return
		}
	}

	if emu.Verbose {
		log.Printf("emulator: halted after %d ticks", emu.Ticks())
	}

	return
}

package cpu

import (
	"iter"
)

// Link is a label whose address is stored into a generated byte once
// every label is known.
type Link struct {
	Index int    // Index into Statement.Codes.
	Label string // Label to resolve.
}

// Statement is one source line of a program, and the bytes it generated.
type Statement struct {
	LineNo int      // Source line number.
	Addr   int      // Address of the first generated byte.
	Words  []string // Source words of the line.
	Codes  []uint8  // Generated bytes.
	Links  []Link   // Labels to resolve into Codes.
}

// Program is a loadable LS-8 program, with its source listing.
type Program struct {
	Statements []Statement
}

// Debug locates the statement that generated an address.
type Debug struct {
	*Statement
	Index int
}

// Debug returns the statement covering addr. If none does, the
// returned Debug has a nil Statement.
func (prog *Program) Debug(addr uint8) (dbg Debug) {
	for n, st := range prog.Statements {
		if int(addr) >= st.Addr && int(addr) < st.Addr+len(st.Codes) {
			dbg = Debug{
				Statement: &prog.Statements[n],
				Index:     int(addr) - st.Addr,
			}
			break
		}
	}

	return
}

// Size returns the number of bytes needed to hold the program image.
func (prog *Program) Size() (size int) {
	for _, st := range prog.Statements {
		size = max(size, st.Addr+len(st.Codes))
	}

	return
}

// Binary returns the program memory image, starting at address 0.
func (prog *Program) Binary() (image []uint8) {
	image = make([]uint8, prog.Size())
	for addr, code := range prog.Codes() {
		image[addr] = code
	}

	return
}

// Codes returns an iterator over the address and value of every byte
// in the program.
func (prog *Program) Codes() iter.Seq2[int, uint8] {
	return func(yield func(addr int, code uint8) bool) {
		for _, st := range prog.Statements {
			for n, code := range st.Codes {
				if !yield(st.Addr+n, code) {
					return
				}
			}
		}
	}
}

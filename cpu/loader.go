package cpu

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// ParseBinary parses a program of binary literals, one byte per line.
//
// Everything following a '#' on a line is a comment. Lines that are
// blank once comments are removed do not consume an address. Bytes are
// placed from address 0, in file order.
func ParseBinary(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			prog = nil
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	prog = &Program{}
	addr := 0

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		text_comment := strings.SplitN(text, "#", 2)
		line = strings.TrimSpace(text_comment[0])
		if len(line) == 0 {
			continue
		}

		if addr >= MEMORY_SIZE {
			err = ErrProgramSize
			return
		}

		var value uint64
		value, err = strconv.ParseUint(line, 2, 8)
		if err != nil {
			err = ErrParseNumber(line)
			return
		}

		prog.Statements = append(prog.Statements, Statement{
			LineNo: lineno,
			Addr:   addr,
			Words:  []string{line},
			Codes:  []uint8{uint8(value)},
		})
		addr++
	}

	err = scanner.Err()

	return
}

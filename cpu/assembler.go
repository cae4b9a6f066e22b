package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/Michael-Bailar/Computer-Architecture/internal"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Assembler is a single pass assembler for the LS-8 instruction set.
//
// Source lines have the form:
//
//	[label:]... [MNEMONIC [operand[, operand]]] [; comment]
//
// Operands are registers (R0-R7), numbers (decimal, 0x, 0b or 0o),
// character constants ('A'), labels, equates, or $(...) expressions.
//
// Labels used as operands may be defined anywhere in the source. A $(...)
// expression is evaluated when its line is read, so it only sees labels
// defined on earlier lines.
type Assembler struct {
	Verbose    bool        // If set, verbosely logs the assembler actions.
	Statements []Statement // List of generated statements.

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of labels to addresses.
	Equate    map[string]string // Map of equates.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

var symbolRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// valueOf returns the byte value of a simple word.
// Negative values are encoded in two's complement.
func (asm *Assembler) valueOf(word string) (value uint8, err error) {
	if len(word) == 3 && word[0] == '\'' && word[2] == '\'' {
		value = word[1]
		return
	}

	v64, err := strconv.ParseInt(word, 0, 16)
	if err != nil || v64 < -128 || v64 > 0xff {
		err = ErrParseNumber(word)
		return
	}

	value = uint8(v64)

	return
}

// registerOf returns the register index named by word.
func registerOf(word string) (index uint8, err error) {
	if len(word) != 2 || (word[0] != 'R' && word[0] != 'r') {
		err = ErrRegisterInvalid
		return
	}

	if word[1] < '0' || word[1] >= '0'+REGISTER_COUNT {
		err = ErrRegisterInvalid
		return
	}

	index = word[1] - '0'

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		v64, perr := strconv.ParseInt(str, 0, 64)
		if perr != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(addr)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

var parenRe = regexp.MustCompile(`\$\([^\$]*\)`)

// isCharConst is true if a character constant starts at text[n].
func isCharConst(text string, n int) bool {
	return text[n] == '\'' && n+2 < len(text) && text[n+2] == '\''
}

// commentIndex returns the index of the ';' or '#' starting a comment,
// or -1 if there is none.
func commentIndex(text string) int {
	for n := 0; n < len(text); n++ {
		switch {
		case isCharConst(text, n):
			n += 2
		case text[n] == ';' || text[n] == '#':
			return n
		}
	}

	return -1
}

// splitWords splits a line on white space and commas. Character
// constants such as ' ' and ',' stay whole.
func splitWords(line string) (words []string) {
	start := -1
	for n := 0; n < len(line); n++ {
		switch {
		case isCharConst(line, n):
			if start < 0 {
				start = n
			}
			n += 2
		case unicode.IsSpace(rune(line[n])) || line[n] == ',':
			if start >= 0 {
				words = append(words, line[start:n])
				start = -1
			}
		default:
			if start < 0 {
				start = n
			}
		}
	}

	if start >= 0 {
		words = append(words, line[start:])
	}

	return
}

// parseLine parses a single line into words, handling equates,
// expressions and labels.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do $() evaluations
	line = parenRe.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	words = splitWords(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if strings.EqualFold(words[0], ".equ") {
		if len(words) != 3 || !symbolRe.MatchString(words[1]) {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for len(words) > 0 && strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		if !symbolRe.MatchString(label) {
			err = ErrLabelInvalid
			return
		}
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		asm.Label[label] = asm.currentAddr()
		words = words[1:]
	}

	return
}

// currentAddr gets the address of the next generated byte.
func (asm *Assembler) currentAddr() int {
	if len(asm.Statements) == 0 {
		return 0
	}

	last := asm.Statements[len(asm.Statements)-1]

	return last.Addr + len(last.Codes)
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Statements = asm.Statements[:0]
	asm.Label = make(map[string]int, 16)
	asm.Equate = maps.Collect(internal.IterSeq2Concat(
		maps.All(sysEquate),
		Defines(),
		maps.All(asm.predefine),
	))

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("asm: %v: %v", lineno, text)
		}

		if i := commentIndex(text); i >= 0 {
			text = text[:i]
		}
		line = strings.TrimSpace(text)

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	// Final linking of labels.
	for n := range asm.Statements {
		st := &asm.Statements[n]

		for _, link := range st.Links {
			lineno = st.LineNo
			line = strings.Join(st.Words, " ")

			addr, ok := asm.Label[link.Label]
			if !ok {
				err = ErrLabelMissing(link.Label)
				return
			}
			st.Codes[link.Index] = uint8(addr)
		}
	}

	prog = &Program{
		Statements: slices.Clone(asm.Statements),
	}

	return
}

// immediate returns the value of an immediate operand word. Symbols
// that are not yet known are returned as a label to link.
func (asm *Assembler) immediate(word string) (value uint8, label string, err error) {
	if symbolRe.MatchString(word) {
		label = word
		return
	}

	value, err = asm.valueOf(word)

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []uint8
	var links []Link

	// no-op
	if len(words) == 0 {
		return
	}

	link := func(index int, word string) (value uint8, err error) {
		var sym string
		value, sym, err = asm.immediate(word)
		if err != nil || len(sym) == 0 {
			return
		}
		links = append(links, Link{Index: index, Label: sym})
		return
	}

	if strings.EqualFold(words[0], ".db") {
		if len(words) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		for n, word := range words[1:] {
			var value uint8
			value, err = link(n, word)
			if err != nil {
				return
			}
			codes = append(codes, value)
		}
	} else {
		inst, ok := Lookup(words[0])
		if !ok {
			err = ErrInstructionInvalid
			return
		}

		args := words[1:]
		if len(args) < len(inst.Operands) {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > len(inst.Operands) {
			err = ErrOpcodeExtraArgs
			return
		}

		codes = append(codes, uint8(inst.Opcode))
		for n, kind := range inst.Operands {
			var value uint8
			switch kind {
			case OPERAND_REG:
				value, err = registerOf(args[n])
			case OPERAND_IMM:
				value, err = link(n+1, args[n])
			}
			if err != nil {
				return
			}
			codes = append(codes, value)
		}
	}

	addr := asm.currentAddr()
	if addr+len(codes) > MEMORY_SIZE {
		err = ErrProgramSize
		return
	}

	asm.Statements = append(asm.Statements, Statement{
		LineNo: lineno,
		Addr:   addr,
		Words:  words,
		Codes:  codes,
		Links:  links,
	})

	return
}

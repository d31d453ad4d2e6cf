// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// labelName matches the words that may be used as a call target label.
var labelName = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Assembler is a single pass macro assembler for the interpreter's
// instruction set.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	pc        int             // Location counter.
	expanding map[string]bool // Macros currently being expanded.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value uint32, err error) {
	invert := false
	if len(word) > 0 && word[0] == '~' {
		invert = true
		word = word[1:]
	}
	v64, err := strconv.ParseInt(word, 0, 33)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if v64 > 0xffffffff || v64 < -int64(0x80000000) {
		err = ErrParseNumber(word)
		return
	}

	if v64 < 0 {
		value = uint32(0xffffffff + (v64 + 1))
	} else {
		value = uint32(v64)
	}

	if invert {
		value = ^value
	}

	return
}

// immediate returns the value of a word, which may not exceed limit.
func (asm *Assembler) immediate(word string, limit uint32) (value uint32, err error) {
	value, err = asm.valueOf(word)
	if err != nil {
		return
	}

	if value > limit {
		err = ErrValueRange{Value: value, Limit: limit}
		return
	}

	return
}

// registerOf returns the register index named by a word, v0 through vf.
func registerOf(word string) (reg uint8, ok bool) {
	word = strings.ToLower(word)
	if len(word) != 2 || word[0] != 'v' {
		return
	}

	index, err := strconv.ParseUint(word[1:], 16, 8)
	if err != nil {
		return
	}

	return uint8(index), true
}

// register returns the register index named by a word, or an error.
func (asm *Assembler) register(word string) (reg uint8, err error) {
	reg, ok := registerOf(word)
	if !ok {
		err = ErrRegisterInvalid
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint32, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value32 uint32
		value32, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(int(value32))
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
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint32(st_int64)
	return
}

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	re := regexp.MustCompile(`'\\?[^']'`)
	line = re.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	re = regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	// Operands may be separated by commas.
	line = strings.ReplaceAll(line, ",", " ")

	words = strings.Fields(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
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

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.pc
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .equ may not follow a label.
	if words[0] == ".equ" {
		err = ErrEquateSyntax
		return
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		if asm.expanding[name] {
			err = ErrMacroRecursion
			return
		}
		if asm.expanding == nil {
			asm.expanding = make(map[string]bool)
		}
		asm.expanding[name] = true
		defer delete(asm.expanding, name)

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		// Local labels are unique to each expansion.
		local := fmt.Sprintf("%v_%v_", name, lineno)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	asm.pc = 0
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	clear(asm.expanding)
	asm.Equate = maps.Clone(_cpu_defines)
	asm.Equate["LINENO"] = "0"
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

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

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of call labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		label := op.LinkLabel
		pc, ok := asm.Label[label]
		if !ok {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrLabelMissing(label)
			return
		}
		if pc > 0xfff {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrValueRange{Value: uint32(pc), Limit: 0xfff}
			return
		}
		op.Codes[len(op.Codes)-1] = MakeCodeCall(uint16(pc))
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// args checks the operand count of an instruction.
func args(words []string, count int) (err error) {
	switch {
	case len(words) < count+1:
		err = ErrOpcodeValueMissing
	case len(words) > count+1:
		err = ErrOpcodeExtraArgs
	}

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []Code
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if err != nil || len(codes) == 0 {
			return
		}
		opcode := Opcode{LineNo: lineno, Pc: asm.pc, Words: initial_words, Codes: codes, LinkLabel: label}
		asm.Opcode = append(asm.Opcode, opcode)
		asm.pc += len(codes) * CODE_SIZE
		if asm.pc > MEMORY_SIZE {
			err = ErrProgramSize
		}
	}()

	// Alternate syntax substitutions
	switch {
	case len(words) == 1 && words[0] == "return":
		words = []string{"ret"}
	case len(words) == 1 && words[0] == "exit":
		words = []string{"halt"}
	default:
		// unchanged
	}

	switch words[0] {
	case ".org":
		if len(words) != 2 {
			err = ErrOrgSyntax
			return
		}
		var value uint32
		value, err = asm.immediate(words[1], MEMORY_SIZE-1)
		if err != nil {
			return
		}
		if int(value) < asm.pc {
			err = ErrOrgBackwards
			return
		}
		asm.pc = int(value)
	case ".word":
		if len(words) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, word := range words[1:] {
			var value uint32
			value, err = asm.immediate(word, 0xffff)
			if err != nil {
				return
			}
			codes = append(codes, Code(value))
		}
	case "halt":
		err = args(words, 0)
		if err != nil {
			return
		}
		codes = append(codes, MakeCodeHalt())
	case "ret":
		err = args(words, 0)
		if err != nil {
			return
		}
		codes = append(codes, MakeCodeRet())
	case "call":
		if len(words) < 2 {
			err = ErrTargetMissing
			return
		}
		if len(words) > 2 {
			err = ErrOpcodeExtraArgs
			return
		}
		var addr uint32
		addr, err = asm.immediate(words[1], 0xfff)
		var not_number ErrParseNumber
		if errors.As(err, &not_number) && labelName.MatchString(words[1]) {
			// Linked after the whole program is parsed.
			err = nil
			label = words[1]
		}
		if err != nil {
			return
		}
		codes = append(codes, MakeCodeCall(uint16(addr)))
	case "se", "sne":
		err = args(words, 2)
		if err != nil {
			return
		}
		var x uint8
		var kk uint32
		x, err = asm.register(words[1])
		if err != nil {
			return
		}
		kk, err = asm.immediate(words[2], 0xff)
		if err != nil {
			return
		}
		if words[0] == "se" {
			codes = append(codes, MakeCodeSe(x, uint8(kk)))
		} else {
			codes = append(codes, MakeCodeSne(x, uint8(kk)))
		}
	case "ld", "add":
		err = args(words, 2)
		if err != nil {
			return
		}
		var x uint8
		x, err = asm.register(words[1])
		if err != nil {
			return
		}
		y, is_reg := registerOf(words[2])
		switch {
		case is_reg && words[0] == "ld":
			codes = append(codes, MakeCodeAlu(OP_LD_XY, x, y))
		case is_reg:
			codes = append(codes, MakeCodeAlu(OP_ADD_XY, x, y))
		case words[0] == "ld":
			var kk uint32
			kk, err = asm.immediate(words[2], 0xff)
			if err != nil {
				return
			}
			codes = append(codes, MakeCodeLd(x, uint8(kk)))
		default:
			var n uint32
			n, err = asm.immediate(words[2], 0xf)
			if err != nil {
				return
			}
			codes = append(codes, MakeCodeAdd(x, uint8(n)))
		}
	case "or", "and", "xor":
		err = args(words, 2)
		if err != nil {
			return
		}
		var x, y uint8
		x, err = asm.register(words[1])
		if err != nil {
			return
		}
		y, err = asm.register(words[2])
		if err != nil {
			return
		}
		op := map[string]CodeOp{"or": OP_OR, "and": OP_AND, "xor": OP_XOR}[words[0]]
		codes = append(codes, MakeCodeAlu(op, x, y))
	default:
		err = ErrInstructionInvalid
		return
	}

	return
}

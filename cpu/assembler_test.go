package cpu

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Opcodes))

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal(fmt.Sprintf("0x%x", MEMORY_SIZE), asm.Equate["MEMORY_SIZE"])
	assert.Equal(fmt.Sprintf("%d", STACK_LIMIT), asm.Equate["STACK_LIMIT"])
	assert.Equal(fmt.Sprintf("0x%x", PROGRAM_START), asm.Equate["PROGRAM_START"])
}

func opEqual(t *testing.T, expected, opcodes []Opcode) {
	assert := assert.New(t)

	assert.Equal(len(expected), len(opcodes))
	if len(expected) == len(opcodes) {
		for n := range len(expected) {
			assert.Equal(expected[n], opcodes[n])
		}
	}
}

func TestAssemblerInstructions(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		"ld v0, 5",
		"ld v1 10 ; comment",
		"add v0, v1",
		"add v0 3",
		"ld v2 v0",
		"or v2 v1",
		"and V2 V1",
		"xor v2 vF",
		"se v2 0x12",
		"sne v2 'A'",
		"",
		"return",
		"halt",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	expected := []Opcode{
		{1, 0x00, []string{"ld", "v0", "5"}, []Code{0x6005}, ""},
		{2, 0x02, []string{"ld", "v1", "10"}, []Code{0x610a}, ""},
		{3, 0x04, []string{"add", "v0", "v1"}, []Code{0x8014}, ""},
		{4, 0x06, []string{"add", "v0", "3"}, []Code{0x7003}, ""},
		{5, 0x08, []string{"ld", "v2", "v0"}, []Code{0x8200}, ""},
		{6, 0x0a, []string{"or", "v2", "v1"}, []Code{0x8211}, ""},
		{7, 0x0c, []string{"and", "V2", "V1"}, []Code{0x8212}, ""},
		{8, 0x0e, []string{"xor", "v2", "vF"}, []Code{0x82f3}, ""},
		{9, 0x10, []string{"se", "v2", "0x12"}, []Code{0x3212}, ""},
		{10, 0x12, []string{"sne", "v2", "65"}, []Code{0x4241}, ""},
		{12, 0x14, []string{"return"}, []Code{0x00ee}, ""},
		{13, 0x16, []string{"halt"}, []Code{0x0000}, ""},
	}

	opEqual(t, expected, prog.Opcodes)
}

func TestAssemblerLabels(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		".org 0x200",
		"start: call sub",
		"call 0x300",
		"halt",
		"sub:",
		"add v0 1",
		"ret",
		".org 0x300",
		".word 0x1234 0xabcd",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	expected := []Opcode{
		{2, 0x200, []string{"call", "sub"}, []Code{0x2206}, "sub"},
		{3, 0x202, []string{"call", "0x300"}, []Code{0x2300}, ""},
		{4, 0x204, []string{"halt"}, []Code{0x0000}, ""},
		{6, 0x206, []string{"add", "v0", "1"}, []Code{0x7001}, ""},
		{7, 0x208, []string{"ret"}, []Code{0x00ee}, ""},
		{9, 0x300, []string{".word", "0x1234", "0xabcd"}, []Code{0x1234, 0xabcd}, ""},
	}

	opEqual(t, expected, prog.Opcodes)

	assert.Equal(0x200, asm.Label["start"])
	assert.Equal(0x206, asm.Label["sub"])
	assert.Equal(uint16(0x200), prog.Entry())

	origin, image, err := prog.Binary()
	assert.NoError(err)
	assert.Equal(uint16(0x200), origin)
	assert.Equal(0x104, len(image))
	assert.Equal([]byte{0x22, 0x06, 0x23, 0x00}, image[0:4])
	assert.Equal([]byte{0x12, 0x34, 0xab, 0xcd}, image[0x100:0x104])
}

func TestAssemblerEquateMacro(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		".equ COUNT v3",
		".equ STEP 2",
		".macro bump reg amount",
		"add reg amount",
		".endm",
		"ld COUNT $(STEP * 4)",
		"bump COUNT STEP",
		"se COUNT $(LINENO)",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	expected := []Opcode{
		{6, 0x00, []string{"ld", "v3", "0x8"}, []Code{0x6308}, ""},
		{4, 0x02, []string{"add", "v3", "2"}, []Code{0x7302}, ""},
		{8, 0x04, []string{"se", "v3", "0x8"}, []Code{0x3308}, ""},
	}

	opEqual(t, expected, prog.Opcodes)

	_, ok := asm.Equate["reg"]
	assert.False(ok)
	assert.Equal("v3", asm.Equate["COUNT"])
}

func TestAssemblerMacroLocalLabel(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		".macro twice",
		"call @body",
		"halt",
		"@body: add v0 1",
		"ret",
		".endm",
		"twice",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	assert.Equal(0x004, asm.Label["twice_7_body"])
	assert.Equal(4, len(prog.Opcodes))
	assert.Equal([]Code{MakeCodeCall(0x004)}, prog.Opcodes[0].Codes)
}

func TestAssemblerPredefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("ORIGIN", "0x300")
	asm.Predefine("ORIGIN", "0x280")

	prog, err := asm.Parse(strings.NewReader(".org ORIGIN\nhalt"))
	assert.NoError(err)
	assert.Equal(uint16(0x280), prog.Entry())
}

func TestAssemblerErrors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name    string
		program string
		err     error
		lineno  int
	}){
		{"invalid", "foo v0", ErrInstructionInvalid, 1},
		{"missing", "ld v0", ErrOpcodeValueMissing, 1},
		{"extra", "ld v0 1 2", ErrOpcodeExtraArgs, 1},
		{"halt_extra", "halt 1", ErrOpcodeExtraArgs, 1},
		{"register", "ld x0 1", ErrRegisterInvalid, 1},
		{"register_hex", "ld vg 1", ErrRegisterInvalid, 1},
		{"or_immediate", "or v0 1", ErrRegisterInvalid, 1},
		{"call_missing", "call", ErrTargetMissing, 1},
		{"equ_syntax", ".equ A", ErrEquateSyntax, 1},
		{"equ_duplicate", ".equ A 1\n.equ A 2", ErrEquateDuplicate, 2},
		{"equ_label", "top: .equ X 3", ErrEquateSyntax, 1},
		{"label_duplicate", "a:\nhalt\na:", ErrLabelDuplicate, 3},
		{"macro_nesting", ".macro m\n.macro n", ErrMacroNesting, 2},
		{"macro_lonely", ".macro m\nhalt", ErrMacroLonely, 2},
		{"endm_lonely", "halt\n.endm", ErrMacroLonelyEndm, 2},
		{"macro_args", ".macro m a\nld v0 a\n.endm\nm", ErrMacroSyntax, 4},
		{"macro_recursion", ".macro loop\nloop\n.endm\nloop", ErrMacroRecursion, 4},
		{"macro_mutual", ".macro a\nb\n.endm\n.macro b\na\n.endm\nhalt\na", ErrMacroRecursion, 8},
		{"org_syntax", ".org", ErrOrgSyntax, 1},
		{"org_backwards", ".org 0x10\n.org 0x8", ErrOrgBackwards, 2},
		{"program_size", ".org 0xffe\nhalt\nhalt", ErrProgramSize, 3},
	}

	for _, entry := range table {
		asm := &Assembler{}
		_, err := asm.Parse(strings.NewReader(entry.program))
		assert.ErrorIs(err, entry.err, entry.name)

		var syntax *ErrSyntax
		if assert.True(errors.As(err, &syntax), entry.name) {
			assert.Equal(entry.lineno, syntax.LineNo, entry.name)
		}
	}
}

func TestAssemblerValueErrors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		program string
		value   uint32
		limit   uint32
	}){
		{"ld v0 0x100", 0x100, 0xff},
		{"se v0 -1", 0xffffffff, 0xff},
		{"add v0 16", 16, 0xf},
		{"call 0x1000", 0x1000, 0xfff},
		{".word 0x10000", 0x10000, 0xffff},
		{".org 0x1000", 0x1000, 0xfff},
	}

	for _, entry := range table {
		asm := &Assembler{}
		_, err := asm.Parse(strings.NewReader(entry.program))

		var value ErrValueRange
		if assert.True(errors.As(err, &value), entry.program) {
			assert.Equal(entry.value, value.Value, entry.program)
			assert.Equal(entry.limit, value.Limit, entry.program)
		}
	}

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader("se v0 'ab'"))
	var number ErrParseNumber
	if assert.True(errors.As(err, &number)) {
		assert.Equal(ErrParseNumber("'ab'"), number)
	}

	numbers := [](struct {
		program string
		word    string
	}){
		{"ld v0 -0x90000000", "-0x90000000"},
		{"call -0x90000000", "-0x90000000"},
		{".word -0x100000000", "-0x100000000"},
	}
	for _, entry := range numbers {
		_, err = asm.Parse(strings.NewReader(entry.program))
		if assert.True(errors.As(err, &number), entry.program) {
			assert.Equal(ErrParseNumber(entry.word), number, entry.program)
		}
	}

	_, err = asm.Parse(strings.NewReader("ld v0 -0x80000000"))
	var value ErrValueRange
	if assert.True(errors.As(err, &value)) {
		assert.Equal(uint32(0x80000000), value.Value)
	}

	_, err = asm.Parse(strings.NewReader("call nowhere"))
	var missing ErrLabelMissing
	if assert.True(errors.As(err, &missing)) {
		assert.Equal(ErrLabelMissing("nowhere"), missing)
	}

	_, err = asm.Parse(strings.NewReader("ld v0 $(1 +)"))
	assert.Error(err)

	_, err = asm.Parse(strings.NewReader(`ld v0 $("x")`))
	var expr ErrParseExpression
	assert.True(errors.As(err, &expr))
}

func TestAssemblerDisassembleRoundTrip(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		".org 0x200",
		"ld v0 250",
		"ld v1 10",
		"call sum",
		"sne vf 1",
		".word 0xffff",
		"halt",
		"sum: add v0 v1",
		"xor v2 v2",
		"ret",
	}

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)

	origin, image, err := prog.Binary()
	assert.NoError(err)

	listing := []string{fmt.Sprintf(".org 0x%x", origin)}
	for _, op := range Disassemble(origin, image).Opcodes {
		listing = append(listing, strings.Join(op.Words, " "))
	}

	again, err := asm.Parse(strings.NewReader(strings.Join(listing, "\n")))
	assert.NoError(err)

	origin_again, image_again, err := again.Binary()
	assert.NoError(err)
	assert.Equal(origin, origin_again)
	assert.Equal(image, image_again)
}

func TestAssemblerMacroError(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader(".macro m\nhalt\nfoo v0\n.endm\nm"))
	assert.ErrorIs(err, ErrInstructionInvalid)

	var syntax *ErrSyntax
	if !assert.True(errors.As(err, &syntax)) {
		return
	}
	assert.Equal(5, syntax.LineNo)
	assert.Equal("m", syntax.Line)

	var macro *ErrMacro
	if assert.True(errors.As(syntax.Err, &macro)) {
		assert.Equal("m", macro.Macro)
		assert.Equal(3, macro.Line)
	}

	var inner *ErrSyntax
	assert.False(errors.As(syntax.Err, &inner))
}

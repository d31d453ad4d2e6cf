package cpu

import (
	"errors"

	"github.com/ezrec/ria/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrHalt                = errors.New(f("halt"))
	ErrStackOverflow       = errors.New(f("stack overflow"))
	ErrStackUnderflow      = errors.New(f("stack underflow"))
	ErrOpcodeUnimplemented = errors.New(f("opcode unimplemented"))
	ErrFetchBounds         = errors.New(f("fetch out of bounds"))
	ErrImageSize           = errors.New(f("image exceeds memory"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrOrgSyntax          = errors.New(f(".org syntax"))
	ErrOrgBackwards       = errors.New(f(".org moves backwards"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrMacroRecursion     = errors.New(f(".macro expands itself"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrRegisterInvalid    = errors.New(f("register invalid"))
	ErrTargetMissing      = errors.New(f("target missing"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
	ErrProgramSize        = errors.New(f("program exceeds memory"))
)

// ErrExecute reports the instruction that stopped a run.
type ErrExecute struct {
	Pc   uint16 // Address of the failing instruction.
	Code Code   // Instruction word, zero when the fetch itself failed.
	Err  error
}

func (err *ErrExecute) Error() string {
	return f("pc 0x%03x opcode 0x%04x: %v", err.Pc, uint16(err.Code), err.Err)
}

func (err *ErrExecute) Unwrap() error {
	return err.Err
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrValueRange is a numeric operand too wide for its instruction field.
type ErrValueRange struct {
	Value uint32
	Limit uint32
}

func (err ErrValueRange) Error() string {
	return f("0x%x exceeds 0x%x", err.Value, err.Limit)
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}

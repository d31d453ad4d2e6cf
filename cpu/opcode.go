package cpu

import (
	"fmt"
)

// CodeOp is the decoded operation of an instruction word.
type CodeOp int

//go:generate go tool stringer -linecomment -type=CodeOp
const (
	OP_UNKNOWN = CodeOp(0)  // unknown
	OP_HALT    = CodeOp(1)  // halt
	OP_RET     = CodeOp(2)  // ret
	OP_CALL    = CodeOp(3)  // call
	OP_SE      = CodeOp(4)  // se
	OP_SNE     = CodeOp(5)  // sne
	OP_LD      = CodeOp(6)  // ld
	OP_ADD     = CodeOp(7)  // add
	OP_LD_XY   = CodeOp(8)  // ld
	OP_OR      = CodeOp(9)  // or
	OP_AND     = CodeOp(10) // and
	OP_XOR     = CodeOp(11) // xor
	OP_ADD_XY  = CodeOp(12) // add
)

// Instruction word families, selected by the most significant nibble.
const (
	FAMILY_SYS  = 0x0
	FAMILY_CALL = 0x2
	FAMILY_SE   = 0x3
	FAMILY_SNE  = 0x4
	FAMILY_LD   = 0x6
	FAMILY_ADD  = 0x7
	FAMILY_ALU  = 0x8
)

// Sub-operations of the ALU family, selected by the least significant nibble.
const (
	ALU_LD  = 0x0
	ALU_OR  = 0x1
	ALU_AND = 0x2
	ALU_XOR = 0x3
	ALU_ADD = 0x4
)

// Code is a single 16-bit instruction word.
type Code uint16

// Instruction is a decoded instruction word, with every operand field
// extracted regardless of whether the operation uses it.
type Instruction struct {
	Op   CodeOp
	X    uint8  // Register index, bits 8-11.
	Y    uint8  // Register index, bits 4-7.
	N    uint8  // Sub-operation or 4-bit immediate, bits 0-3.
	Addr uint16 // 12-bit address, bits 0-11.
	Kk   uint8  // 8-bit immediate, bits 0-7.
}

// Family returns the most significant nibble.
func (code Code) Family() uint8 {
	return uint8((code >> 12) & 0xf)
}

func (code Code) X() uint8 {
	return uint8((code >> 8) & 0xf)
}

func (code Code) Y() uint8 {
	return uint8((code >> 4) & 0xf)
}

func (code Code) N() uint8 {
	return uint8((code >> 0) & 0xf)
}

func (code Code) Addr() uint16 {
	return uint16(code & 0xfff)
}

func (code Code) Kk() uint8 {
	return uint8(code & 0xff)
}

// Op classifies the instruction word.
func (code Code) Op() CodeOp {
	switch code.Family() {
	case FAMILY_SYS:
		switch code {
		case 0x0000:
			return OP_HALT
		case 0x00ee:
			return OP_RET
		}
	case FAMILY_CALL:
		return OP_CALL
	case FAMILY_SE:
		return OP_SE
	case FAMILY_SNE:
		return OP_SNE
	case FAMILY_LD:
		return OP_LD
	case FAMILY_ADD:
		return OP_ADD
	case FAMILY_ALU:
		switch code.N() {
		case ALU_LD:
			return OP_LD_XY
		case ALU_OR:
			return OP_OR
		case ALU_AND:
			return OP_AND
		case ALU_XOR:
			return OP_XOR
		case ALU_ADD:
			return OP_ADD_XY
		}
	}

	return OP_UNKNOWN
}

// Decode the instruction word.
func (code Code) Decode() Instruction {
	return Instruction{
		Op:   code.Op(),
		X:    code.X(),
		Y:    code.Y(),
		N:    code.N(),
		Addr: code.Addr(),
		Kk:   code.Kk(),
	}
}

// String returns the assembly language representation of the word.
func (code Code) String() string {
	if code.Op() == OP_UNKNOWN {
		return fmt.Sprintf(".word 0x%04x", uint16(code))
	}

	return code.Decode().String()
}

// String returns the assembly language representation of the instruction.
func (ins Instruction) String() (out string) {
	switch ins.Op {
	case OP_HALT, OP_RET:
		out = ins.Op.String()
	case OP_CALL:
		out = fmt.Sprintf("%v 0x%03x", ins.Op, ins.Addr)
	case OP_SE, OP_SNE, OP_LD:
		out = fmt.Sprintf("%v v%x 0x%02x", ins.Op, ins.X, ins.Kk)
	case OP_ADD:
		out = fmt.Sprintf("%v v%x 0x%x", ins.Op, ins.X, ins.N)
	case OP_LD_XY, OP_OR, OP_AND, OP_XOR, OP_ADD_XY:
		out = fmt.Sprintf("%v v%x v%x", ins.Op, ins.X, ins.Y)
	default:
		out = ins.Op.String()
	}

	return
}

func makeCode(family uint8, x uint8, low uint8) Code {
	return Code(uint16(family&0xf)<<12 | uint16(x&0xf)<<8 | uint16(low))
}

// MakeCodeHalt creates the end-of-program instruction.
func MakeCodeHalt() Code {
	return Code(0x0000)
}

// MakeCodeRet creates a subroutine return instruction.
func MakeCodeRet() Code {
	return Code(0x00ee)
}

// MakeCodeCall creates a subroutine call instruction.
func MakeCodeCall(addr uint16) Code {
	return Code(uint16(FAMILY_CALL)<<12 | (addr & 0xfff))
}

// MakeCodeSe creates a skip-if-equal instruction.
func MakeCodeSe(x uint8, kk uint8) Code {
	return makeCode(FAMILY_SE, x, kk)
}

// MakeCodeSne creates a skip-if-not-equal instruction.
func MakeCodeSne(x uint8, kk uint8) Code {
	return makeCode(FAMILY_SNE, x, kk)
}

// MakeCodeLd creates a load immediate instruction.
func MakeCodeLd(x uint8, kk uint8) Code {
	return makeCode(FAMILY_LD, x, kk)
}

// MakeCodeAdd creates an add immediate instruction. Only the low nibble
// of the immediate is used by the interpreter.
func MakeCodeAdd(x uint8, n uint8) Code {
	return makeCode(FAMILY_ADD, x, n&0xf)
}

// MakeCodeAlu creates a register to register instruction.
func MakeCodeAlu(op CodeOp, x uint8, y uint8) Code {
	var sub uint8
	switch op {
	case OP_LD_XY:
		sub = ALU_LD
	case OP_OR:
		sub = ALU_OR
	case OP_AND:
		sub = ALU_AND
	case OP_XOR:
		sub = ALU_XOR
	case OP_ADD_XY:
		sub = ALU_ADD
	default:
		panic(fmt.Sprintf("%v is not a register to register operation", op))
	}

	return makeCode(FAMILY_ALU, x, ((y&0xf)<<4)|sub)
}

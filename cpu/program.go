package cpu

import (
	"fmt"
	"iter"
	"strings"
)

// Opcode represents a line of assembled code with its source location and generated instructions.
type Opcode struct {
	LineNo    int
	Pc        int
	Words     []string
	Codes     []Code
	LinkLabel string
}

type Program struct {
	Opcodes []Opcode
}

type Debug struct {
	*Opcode
	Index int
}

// Entry returns the address of the first instruction of the program.
func (prog *Program) Entry() uint16 {
	for _, op := range prog.Opcodes {
		if len(op.Codes) > 0 {
			return uint16(op.Pc)
		}
	}

	return 0
}

func (prog *Program) Debug(pc uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		end := op.Pc + len(op.Codes)*CODE_SIZE
		if int(pc) >= op.Pc && int(pc) < end {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  (int(pc) - op.Pc) / CODE_SIZE,
			}
			break
		}
	}

	return
}

func (prog *Program) Codes() iter.Seq2[uint16, Code] {
	return func(yield func(pc uint16, code Code) bool) {
		for _, op := range prog.Opcodes {
			for n, code := range op.Codes {
				if !yield(uint16(op.Pc+n*CODE_SIZE), code) {
					return
				}
			}
		}
	}
}

// Binary returns the memory image of the program, and the address
// it must be loaded at.
func (prog *Program) Binary() (origin uint16, image []byte, err error) {
	low := MEMORY_SIZE
	high := 0
	for pc := range prog.Codes() {
		low = min(low, int(pc))
		high = max(high, int(pc)+CODE_SIZE)
	}

	if high == 0 {
		return
	}

	if high > MEMORY_SIZE {
		err = ErrProgramSize
		return
	}

	origin = uint16(low)
	image = make([]byte, high-low)
	for pc, code := range prog.Codes() {
		at := int(pc) - low
		image[at+0] = byte(code >> 8)
		image[at+1] = byte(code >> 0)
	}

	return
}

// Listing returns a disassembly of the program, one word per line.
func (prog *Program) Listing() string {
	var text strings.Builder
	for pc, code := range prog.Codes() {
		text.WriteString(fmt.Sprintf("%03x: %04x  %v\n", pc, uint16(code), code))
	}

	return text.String()
}

// Disassemble a memory image loaded at origin into a program listing.
// A trailing odd byte is treated as the high byte of a word.
func Disassemble(origin uint16, image []byte) (prog *Program) {
	prog = &Program{}

	for at := 0; at < len(image); at += CODE_SIZE {
		word := uint16(image[at]) << 8
		if at+1 < len(image) {
			word |= uint16(image[at+1])
		}
		code := Code(word)
		prog.Opcodes = append(prog.Opcodes, Opcode{
			Pc:    int(origin) + at,
			Words: strings.Fields(code.String()),
			Codes: []Code{code},
		})
	}

	return
}

package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"strings"
)

var _cpu_defines = map[string]string{
	"MEMORY_SIZE":   fmt.Sprintf("0x%x", MEMORY_SIZE),
	"STACK_LIMIT":   fmt.Sprintf("%d", STACK_LIMIT),
	"REGISTER_FLAG": fmt.Sprintf("0x%x", REGISTER_FLAG),
	"PROGRAM_START": fmt.Sprintf("0x%x", PROGRAM_START),
}

// Cpu is the interpreter state. One Cpu runs one instruction stream; it is
// not safe for concurrent use.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Register [REGISTER_COUNT]uint8 // Register bank, v0-vf.
	Memory   [MEMORY_SIZE]byte     // Program and data memory.
	Pc       uint16                // Address of the next instruction to fetch.
	Stack    Stack                 // Call stack.

	Ticks int // Instructions executed.
}

// NewCpu creates a new zeroed CPU.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text += fmt.Sprintf("% 5s: 0x%03x\n", "pc", cpu.Pc)
	for n, val := range cpu.Register {
		text += fmt.Sprintf("% 5s: 0x%02x\n", fmt.Sprintf("v%x", n), val)
	}

	var frames []string
	for _, ret := range cpu.Stack.Depth() {
		frames = append(frames, fmt.Sprintf("%03x", ret))
	}
	if len(frames) == 0 {
		frames = append(frames, "---")
	}
	text += fmt.Sprintf("% 5s: %v\n", "stack", strings.Join(frames, " "))

	return
}

// Reset the CPU state.
// - Clears the registers, memory, and stack.
// - Sets the program counter to zero.
// - Zeros the tick counter.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Register[:])
	clear(cpu.Memory[:])
	cpu.Stack.Reset()
	cpu.Pc = 0
	cpu.Ticks = 0
}

// LoadImage copies a memory image to origin, and starts execution there.
// Memory outside of the image is left untouched.
func (cpu *Cpu) LoadImage(origin uint16, image []byte) (err error) {
	if int(origin)+len(image) > len(cpu.Memory) {
		err = ErrImageSize
		return
	}

	copy(cpu.Memory[origin:], image)
	cpu.Pc = origin

	if cpu.Verbose {
		log.Printf("cpu: loaded %d bytes at 0x%03x", len(image), origin)
	}

	return
}

// Fetch reads the instruction word at the program counter.
func (cpu *Cpu) Fetch() (code Code, err error) {
	pc := int(cpu.Pc)
	if pc+1 >= len(cpu.Memory) {
		err = ErrFetchBounds
		return
	}

	code = Code(uint16(cpu.Memory[pc])<<8 | uint16(cpu.Memory[pc+1]))
	return
}

// Tick executes a single instruction cycle.
// Returns ErrHalt when the halt instruction was executed, and *ErrExecute
// for any fault.
func (cpu *Cpu) Tick() (err error) {
	pc := cpu.Pc

	code, err := cpu.Fetch()
	if err != nil {
		err = &ErrExecute{Pc: pc, Err: err}
		return
	}

	cpu.Pc += CODE_SIZE

	if cpu.Verbose {
		log.Printf("%03x: %v", pc, code)
	}

	err = cpu.Execute(code.Decode())
	switch {
	case err == nil:
		cpu.Ticks++
	case errors.Is(err, ErrHalt):
		cpu.Ticks++
	default:
		err = &ErrExecute{Pc: pc, Code: code, Err: err}
	}

	return
}

// Run executes instructions until halt.
// A nil return means the halt instruction was reached.
func (cpu *Cpu) Run() (err error) {
	for {
		err = cpu.Tick()
		if errors.Is(err, ErrHalt) {
			err = nil
			return
		}
		if err != nil {
			if cpu.Verbose {
				log.Printf("cpu: %v", err)
			}
			return
		}
	}
}

// Execute executes a single decoded instruction.
func (cpu *Cpu) Execute(ins Instruction) (err error) {
	switch ins.Op {
	case OP_HALT:
		err = ErrHalt
	case OP_RET:
		err = cpu.Ret()
	case OP_CALL:
		err = cpu.Call(ins.Addr)
	case OP_SE:
		cpu.Se(ins.X, ins.Kk)
	case OP_SNE:
		cpu.Sne(ins.X, ins.Kk)
	case OP_LD:
		cpu.Ld(ins.X, ins.Kk)
	case OP_ADD:
		cpu.Add(ins.X, ins.N)
	case OP_LD_XY:
		cpu.LdXY(ins.X, ins.Y)
	case OP_OR:
		cpu.Or(ins.X, ins.Y)
	case OP_AND:
		cpu.And(ins.X, ins.Y)
	case OP_XOR:
		cpu.Xor(ins.X, ins.Y)
	case OP_ADD_XY:
		cpu.AddXY(ins.X, ins.Y)
	default:
		err = ErrOpcodeUnimplemented
	}

	return
}

// Ret pops a return address into the program counter.
func (cpu *Cpu) Ret() (err error) {
	pc, ok := cpu.Stack.Pop()
	if !ok {
		err = ErrStackUnderflow
		return
	}

	cpu.Pc = pc
	return
}

// Call pushes the program counter, and jumps to addr.
func (cpu *Cpu) Call(addr uint16) (err error) {
	if !cpu.Stack.Push(cpu.Pc) {
		err = ErrStackOverflow
		return
	}

	cpu.Pc = addr & 0xfff
	return
}

// Se skips the next instruction if register x equals kk.
func (cpu *Cpu) Se(x uint8, kk uint8) {
	if cpu.Register[x] == kk {
		cpu.Pc += CODE_SIZE
	}
}

// Sne skips the next instruction if register x does not equal kk.
func (cpu *Cpu) Sne(x uint8, kk uint8) {
	if cpu.Register[x] != kk {
		cpu.Pc += CODE_SIZE
	}
}

// Ld loads kk into register x.
func (cpu *Cpu) Ld(x uint8, kk uint8) {
	cpu.Register[x] = kk
}

// Add adds the 4-bit immediate n to register x.
// The carry is discarded, and the flag register is not updated.
func (cpu *Cpu) Add(x uint8, n uint8) {
	cpu.Register[x] += n & 0xf
}

// LdXY copies register y into register x.
func (cpu *Cpu) LdXY(x uint8, y uint8) {
	cpu.Register[x] = cpu.Register[y]
}

// Or sets register x to the bitwise or of registers x and y.
func (cpu *Cpu) Or(x uint8, y uint8) {
	cpu.Register[x] |= cpu.Register[y]
}

// And sets register x to the bitwise and of registers x and y.
func (cpu *Cpu) And(x uint8, y uint8) {
	cpu.Register[x] &= cpu.Register[y]
}

// Xor sets register x to the bitwise exclusive or of registers x and y.
func (cpu *Cpu) Xor(x uint8, y uint8) {
	cpu.Register[x] ^= cpu.Register[y]
}

// AddXY adds register y to register x, setting the flag register to the
// carry. The flag is written last, so it wins when x is the flag register.
func (cpu *Cpu) AddXY(x uint8, y uint8) {
	sum := uint16(cpu.Register[x]) + uint16(cpu.Register[y])
	cpu.Register[x] = uint8(sum)

	var carry uint8
	if sum > 0xff {
		carry = 1
	}
	cpu.Register[REGISTER_FLAG] = carry
}

// Package cpu implements the interpreter and assembler for a CHIP-8 style
// byte-code machine.
//
// The machine has sixteen 8-bit registers (v0-vf, with vf doubling as the
// carry flag), 4KiB of byte addressable memory holding big-endian 16-bit
// instruction words, a program counter, and a sixteen slot call stack.
//
// Cpu.Run fetches, decodes and executes instructions until the halt opcode
// (0x0000) is reached, or until a fault stops the run. Faults are reported
// as *ErrExecute, carrying the program counter and opcode of the failing
// instruction.
//
// The assembler provides a small assembly language for the instruction set,
// supporting labels, equates, macros, and compile-time expression evaluation.
package cpu

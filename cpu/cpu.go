// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
)

// TRAP_VECTOR_BASE is the address of the vector for trap #0 (vector 32).
const TRAP_VECTOR_BASE = uint32(0x80)

var _cpu_defines = map[string]string{
	"ADDRESS_MASK":     fmt.Sprintf("0x%x", ADDRESS_MASK),
	"TRAP_VECTOR_BASE": fmt.Sprintf("0x%x", TRAP_VECTOR_BASE),
}

// Cpu is the simulation context for a MC68000.
type Cpu struct {
	Verbose bool // Set to enable instruction trace logging.

	Registers // Register file.

	Bus        Bus    // Memory space.
	VectorBase uint32 // Address of the trap #0 vector.

	Ticks int   // Executed instruction counter.
	Trace Trace // Most recently decoded instruction.
}

// NewCpu creates a new, cleared CPU attached to a bus.
func NewCpu(bus Bus) (cpu *Cpu) {
	cpu = &Cpu{
		Bus:        bus,
		VectorBase: TRAP_VECTOR_BASE,
	}

	cpu.Reset()

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset clears the register file and statistics.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.Registers = Registers{}
	cpu.Ticks = 0
	cpu.Trace = Trace{}
}

// SetPc sets the program counter.
func (cpu *Cpu) SetPc(address uint32) {
	cpu.Pc = address
}

// SetSp sets the stack pointer (A7).
func (cpu *Cpu) SetSp(address uint32) {
	cpu.A[7] = address
}

// Stat returns the program counter status line.
func (cpu *Cpu) Stat() string {
	return fmt.Sprintf("PC:%08x", cpu.Pc)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text = fmt.Sprintf("   pc: %08X\n   sr: %04X\n", cpu.Pc, cpu.Sr)
	for n := range 8 {
		text += fmt.Sprintf("   d%d: %08X   a%d: %08X\n", n, cpu.D[n].Long(), n, cpu.A[n])
	}

	return
}

// fetch16 reads the next instruction stream word, advancing the PC.
func (cpu *Cpu) fetch16() (word uint16, err error) {
	value, err := cpu.read(cpu.Pc, SIZE_WORD)
	if err != nil {
		return
	}

	word = uint16(value)
	cpu.Pc += 2
	cpu.Trace.Words = append(cpu.Trace.Words, word)
	return
}

// fetch32 reads the next two instruction stream words, advancing the PC.
func (cpu *Cpu) fetch32() (long uint32, err error) {
	hi, err := cpu.fetch16()
	if err != nil {
		return
	}
	lo, err := cpu.fetch16()
	if err != nil {
		return
	}

	long = (uint32(hi) << 16) | uint32(lo)
	return
}

// push32 pushes a long onto the stack.
func (cpu *Cpu) push32(value uint32) (err error) {
	err = cpu.write(cpu.A[7]-4, SIZE_LONG, value)
	if err != nil {
		return
	}

	cpu.A[7] -= 4
	return
}

// pop32 pops a long from the stack.
func (cpu *Cpu) pop32() (value uint32, err error) {
	value, err = cpu.read(cpu.A[7], SIZE_LONG)
	if err != nil {
		return
	}

	cpu.A[7] += 4
	return
}

// Step decodes and executes a single instruction.
// On failure the register file is left as it was before the step.
func (cpu *Cpu) Step() (err error) {
	saved := cpu.Registers

	cpu.Trace = Trace{Address: cpu.Pc}

	defer func() {
		if err == nil {
			return
		}
		cpu.Registers = saved
		var unmapped *ErrUnmapped
		if !errors.As(err, &unmapped) {
			err = &ErrUnimplemented{
				Address: cpu.Trace.Address,
				Words:   cpu.Trace.Words,
				Err:     err,
			}
		}
		if cpu.Verbose {
			log.Printf("%v  <%v>", &cpu.Trace, err)
		}
	}()

	op, err := cpu.fetch16()
	if err != nil {
		return
	}

	rule := Decode(op)
	if rule == nil {
		err = ErrOpcodeUnimplemented
		return
	}

	err = rule.exec(cpu, op)
	if err != nil {
		return
	}

	cpu.Ticks++

	if cpu.Verbose {
		log.Printf("%v", &cpu.Trace)
	}

	return
}

package cpu

import (
	"fmt"
)

//go:generate go tool stringer -linecomment -type=Mode

// Mode is a decoded effective addressing mode.
type Mode int

const (
	MODE_DATA_REG   = Mode(iota) // Dn
	MODE_ADDR_REG                // An
	MODE_INDIRECT                // (An)
	MODE_POSTINC                 // (An)+
	MODE_PREDEC                  // -(An)
	MODE_DISP                    // d16(An)
	MODE_INDEX                   // d8(An,Xn)
	MODE_ABS_SHORT               // xxx.w
	MODE_ABS_LONG                // xxx.l
	MODE_PC_DISP                 // d16(PC)
	MODE_PC_INDEX                // d8(PC,Xn)
	MODE_IMMEDIATE               // #imm
	MODE_INVALID                 // invalid
)

// decodeMode maps the 3-bit mode and register fields to a Mode.
func decodeMode(mode, reg uint16) Mode {
	mode &= 7
	reg &= 7
	if mode < 7 {
		return Mode(mode)
	}
	switch reg {
	case 0:
		return MODE_ABS_SHORT
	case 1:
		return MODE_ABS_LONG
	case 2:
		return MODE_PC_DISP
	case 3:
		return MODE_PC_INDEX
	case 4:
		return MODE_IMMEDIATE
	}
	return MODE_INVALID
}

// operand is a resolved effective address.
type operand struct {
	mode    Mode
	reg     int
	size    Size
	address uint32 // Memory address, for memory modes.
	value   uint32 // Immediate value.
	text    string // Rendering for the trace.
}

// memory reports whether the operand lives on the bus.
func (ea *operand) memory() bool {
	switch ea.mode {
	case MODE_DATA_REG, MODE_ADDR_REG, MODE_IMMEDIATE:
		return false
	}
	return true
}

// hexImmediate renders an immediate for a size.
func hexImmediate(value uint32, size Size) string {
	switch size {
	case SIZE_BYTE:
		return fmt.Sprintf("#$%02x", value&0xff)
	case SIZE_WORD:
		return fmt.Sprintf("#$%04x", value&0xffff)
	}
	return fmt.Sprintf("#$%08x", value)
}

// hexDisplacement renders a signed displacement.
func hexDisplacement(disp int16) string {
	if disp < 0 {
		return fmt.Sprintf("-$%x", -int32(disp))
	}
	return fmt.Sprintf("$%x", disp)
}

// resolve decodes an effective address, consuming extension words and
// applying pre-decrement and post-increment side effects in order.
func (cpu *Cpu) resolve(mode, reg uint16, size Size) (ea operand, err error) {
	ea = operand{
		mode: decodeMode(mode, reg),
		reg:  int(reg & 7),
		size: size,
	}

	switch ea.mode {
	case MODE_DATA_REG:
		ea.text = fmt.Sprintf("D%d", ea.reg)
	case MODE_ADDR_REG:
		if size == SIZE_BYTE {
			err = ErrAddressingMode
			return
		}
		ea.text = fmt.Sprintf("A%d", ea.reg)
	case MODE_INDIRECT:
		ea.address = cpu.A[ea.reg]
		ea.text = fmt.Sprintf("(A%d)", ea.reg)
	case MODE_POSTINC:
		ea.address = cpu.A[ea.reg]
		cpu.A[ea.reg] += uint32(size)
		ea.text = fmt.Sprintf("(A%d)+", ea.reg)
	case MODE_PREDEC:
		cpu.A[ea.reg] -= uint32(size)
		ea.address = cpu.A[ea.reg]
		ea.text = fmt.Sprintf("-(A%d)", ea.reg)
	case MODE_DISP:
		var ext uint16
		ext, err = cpu.fetch16()
		if err != nil {
			return
		}
		disp := int16(ext)
		ea.address = cpu.A[ea.reg] + uint32(int32(disp))
		ea.text = fmt.Sprintf("%s(A%d)", hexDisplacement(disp), ea.reg)
	case MODE_ABS_SHORT:
		var ext uint16
		ext, err = cpu.fetch16()
		if err != nil {
			return
		}
		ea.address = SIZE_WORD.Extend(uint32(ext))
		ea.text = fmt.Sprintf("$%04x.w", ext)
	case MODE_ABS_LONG:
		ea.address, err = cpu.fetch32()
		if err != nil {
			return
		}
		ea.text = fmt.Sprintf("$%08x.l", ea.address)
	case MODE_PC_DISP:
		base := cpu.Pc
		var ext uint16
		ext, err = cpu.fetch16()
		if err != nil {
			return
		}
		disp := int16(ext)
		ea.address = base + uint32(int32(disp))
		ea.text = fmt.Sprintf("%s(PC)", hexDisplacement(disp))
	case MODE_IMMEDIATE:
		if size == SIZE_LONG {
			ea.value, err = cpu.fetch32()
		} else {
			var ext uint16
			ext, err = cpu.fetch16()
			ea.value = uint32(ext) & size.Mask()
		}
		if err != nil {
			return
		}
		ea.text = hexImmediate(ea.value, size)
	default:
		err = ErrAddressingMode
	}

	return
}

// load reads the value of a resolved operand, zero extended.
func (cpu *Cpu) load(ea operand) (value uint32, err error) {
	switch ea.mode {
	case MODE_DATA_REG:
		value = cpu.D[ea.reg].Get(ea.size)
	case MODE_ADDR_REG:
		value = cpu.A[ea.reg] & ea.size.Mask()
	case MODE_IMMEDIATE:
		value = ea.value
	default:
		value, err = cpu.read(ea.address, ea.size)
	}

	return
}

// store writes a value to a resolved operand.
func (cpu *Cpu) store(ea operand, value uint32) (err error) {
	switch ea.mode {
	case MODE_DATA_REG:
		cpu.D[ea.reg].Set(ea.size, value)
	case MODE_ADDR_REG:
		cpu.A[ea.reg] = ea.size.Extend(value & ea.size.Mask())
	case MODE_IMMEDIATE, MODE_PC_DISP:
		err = ErrAddressingMode
	default:
		err = cpu.write(ea.address, ea.size, value)
	}

	return
}

// readEA resolves and reads a source operand.
func (cpu *Cpu) readEA(mode, reg uint16, size Size) (value uint32, text string, err error) {
	ea, err := cpu.resolve(mode, reg, size)
	if err != nil {
		return
	}

	value, err = cpu.load(ea)
	text = ea.text
	return
}

// writeEA resolves and writes a destination operand.
func (cpu *Cpu) writeEA(mode, reg uint16, size Size, value uint32) (text string, err error) {
	ea, err := cpu.resolve(mode, reg, size)
	if err != nil {
		return
	}

	switch ea.mode {
	case MODE_IMMEDIATE, MODE_PC_DISP:
		err = ErrAddressingMode
		return
	}

	err = cpu.store(ea, value)
	text = ea.text
	return
}

// address resolves a control addressing mode without accessing it.
func (cpu *Cpu) address(mode, reg uint16) (address uint32, text string, err error) {
	switch decodeMode(mode, reg) {
	case MODE_INDIRECT, MODE_DISP, MODE_ABS_SHORT, MODE_ABS_LONG, MODE_PC_DISP:
	default:
		err = ErrAddressingMode
		return
	}

	ea, err := cpu.resolve(mode, reg, SIZE_LONG)
	if err != nil {
		return
	}

	address = ea.address
	text = ea.text
	return
}

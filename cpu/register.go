package cpu

// Status register bits.
const (
	SR_C      = uint16(1 << 0)  // Carry
	SR_V      = uint16(1 << 1)  // Overflow
	SR_Z      = uint16(1 << 2)  // Zero
	SR_N      = uint16(1 << 3)  // Negative
	SR_X      = uint16(1 << 4)  // Extend
	SR_I_MASK = uint16(7 << 8)  // Interrupt mask
	SR_S      = uint16(1 << 13) // Supervisor
	SR_T      = uint16(1 << 15) // Trace
)

// Register is a data register cell, viewable as a long, word, or byte.
type Register uint32

// Long view.
func (r Register) Long() uint32 {
	return uint32(r)
}

// Word view, the low 16 bits.
func (r Register) Word() uint16 {
	return uint16(r)
}

// Byte view, the low 8 bits.
func (r Register) Byte() uint8 {
	return uint8(r)
}

// Get the view for a size, zero extended.
func (r Register) Get(size Size) uint32 {
	return uint32(r) & size.Mask()
}

// SetLong replaces the whole register.
func (r *Register) SetLong(value uint32) {
	*r = Register(value)
}

// SetWord replaces the low 16 bits.
func (r *Register) SetWord(value uint16) {
	r.Set(SIZE_WORD, uint32(value))
}

// SetByte replaces the low 8 bits.
func (r *Register) SetByte(value uint8) {
	r.Set(SIZE_BYTE, uint32(value))
}

// Set the view for a size, leaving the bits above it untouched.
func (r *Register) Set(size Size, value uint32) {
	mask := size.Mask()
	*r = Register((uint32(*r) & ^mask) | (value & mask))
}

// Registers is the programmer visible register file.
type Registers struct {
	D  [8]Register // Data registers.
	A  [8]uint32   // Address registers, A7 is the stack pointer.
	Pc uint32      // Program counter.
	Sr uint16      // Status register.
}

// Flag reports whether a status register bit is set.
func (r *Registers) Flag(bit uint16) bool {
	return (r.Sr & bit) != 0
}

// SetFlag sets or clears a status register bit.
func (r *Registers) SetFlag(bit uint16, on bool) {
	if on {
		r.Sr |= bit
	} else {
		r.Sr &^= bit
	}
}

// setLogicFlags sets N and Z from a result, and clears V and C.
func (r *Registers) setLogicFlags(value uint32, size Size) {
	r.SetFlag(SR_N, (value&size.SignBit()) != 0)
	r.SetFlag(SR_Z, (value&size.Mask()) == 0)
	r.SetFlag(SR_V, false)
	r.SetFlag(SR_C, false)
}

// setCompareFlags sets N, Z and C from dst - src.
// V and X are not modeled for compares.
func (r *Registers) setCompareFlags(dst, src uint32, size Size) {
	mask := size.Mask()
	dst &= mask
	src &= mask
	result := (dst - src) & mask
	r.SetFlag(SR_Z, result == 0)
	r.SetFlag(SR_N, (result&size.SignBit()) != 0)
	r.SetFlag(SR_C, src > dst)
}

// condition evaluates a 4-bit condition code against the flags.
func (r *Registers) condition(cc uint16) bool {
	c := r.Flag(SR_C)
	v := r.Flag(SR_V)
	z := r.Flag(SR_Z)
	n := r.Flag(SR_N)

	switch cc & 0xf {
	case 0x0: // t
		return true
	case 0x1: // f
		return false
	case 0x2: // hi
		return !c && !z
	case 0x3: // ls
		return c || z
	case 0x4: // cc
		return !c
	case 0x5: // cs
		return c
	case 0x6: // ne
		return !z
	case 0x7: // eq
		return z
	case 0x8: // vc
		return !v
	case 0x9: // vs
		return v
	case 0xa: // pl
		return !n
	case 0xb: // mi
		return n
	case 0xc: // ge
		return n == v
	case 0xd: // lt
		return n != v
	case 0xe: // gt
		return !z && n == v
	}
	// le
	return z || n != v
}

// conditionNames are the mnemonic suffixes of the condition codes.
var conditionNames = [16]string{
	"t", "f", "hi", "ls", "cc", "cs", "ne", "eq",
	"vc", "vs", "pl", "mi", "ge", "lt", "gt", "le",
}

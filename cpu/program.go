package cpu

import (
	"iter"
)

// LinkKind is the encoding of a label reference.
type LinkKind int

const (
	LINK_ABS_LONG = LinkKind(0) // 32-bit absolute address, two words.
	LINK_REL_WORD = LinkKind(1) // 16-bit displacement from Base.
	LINK_REL_BYTE = LinkKind(2) // 8-bit displacement in the opcode low byte, from Base.
)

// Link is a reference to a label, patched once all labels are known.
type Link struct {
	Label string   // Referenced label.
	Index int      // Index of the first patched code word.
	Kind  LinkKind // Encoding.
	Base  uint32   // Displacement base address, for relative links.
}

// Opcode represents a line of assembled code with its source location and generated words.
type Opcode struct {
	LineNo  int      // Source line number.
	Address uint32   // Address of the first word.
	Words   []string // Mnemonic and operands.
	Codes   []uint16 // Generated words.
	Links   []Link   // Unresolved label references.
}

// Size of the opcode, in bytes.
func (op *Opcode) Size() uint32 {
	return 2 * uint32(len(op.Codes))
}

// Program is an assembled program.
type Program struct {
	Opcodes []Opcode
}

// Debug locates the opcode containing an address.
type Debug struct {
	*Opcode
	Index int // Word index within the opcode.
}

// Debug returns the opcode that generated the word at address, if any.
func (prog *Program) Debug(address uint32) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if address >= op.Address && address < op.Address+op.Size() {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(address-op.Address) / 2,
			}
			break
		}
	}

	return
}

// Origin is the lowest address of the program.
func (prog *Program) Origin() (origin uint32) {
	for n, op := range prog.Opcodes {
		if n == 0 || op.Address < origin {
			origin = op.Address
		}
	}

	return
}

// Binary returns the big-endian memory image of the program, starting at Origin().
// Gaps between opcodes are zero filled.
func (prog *Program) Binary() (bins []byte) {
	origin := prog.Origin()

	for address, code := range prog.Codes() {
		offset := int(address - origin)
		for len(bins) < offset+2 {
			bins = append(bins, 0)
		}
		bins[offset] = uint8(code >> 8)
		bins[offset+1] = uint8(code)
	}

	return
}

// Codes iterates over every generated word and its address.
func (prog *Program) Codes() iter.Seq2[uint32, uint16] {
	return func(yield func(address uint32, code uint16) bool) {
		for _, op := range prog.Opcodes {
			for n, code := range op.Codes {
				if !yield(op.Address+2*uint32(n), code) {
					return
				}
			}
		}
	}
}

package cpu

// Size is an operand width, in bytes.
type Size uint32

const (
	SIZE_BYTE = Size(1) // .b
	SIZE_WORD = Size(2) // .w
	SIZE_LONG = Size(4) // .l
)

// Mask of the bits covered by the size.
func (s Size) Mask() uint32 {
	switch s {
	case SIZE_BYTE:
		return 0xff
	case SIZE_WORD:
		return 0xffff
	}
	return 0xffff_ffff
}

// SignBit of a value of this size.
func (s Size) SignBit() uint32 {
	return (s.Mask() >> 1) + 1
}

// Extend sign-extends a value of this size to 32 bits.
func (s Size) Extend(value uint32) uint32 {
	switch s {
	case SIZE_BYTE:
		return uint32(int32(int8(value)))
	case SIZE_WORD:
		return uint32(int32(int16(value)))
	}
	return value
}

func (s Size) String() string {
	switch s {
	case SIZE_BYTE:
		return ".b"
	case SIZE_WORD:
		return ".w"
	case SIZE_LONG:
		return ".l"
	}
	return ".?"
}

// sizeField decodes the common 2-bit size field at bits 7-6.
func sizeField(op uint16) (size Size, ok bool) {
	switch (op >> 6) & 3 {
	case 0:
		return SIZE_BYTE, true
	case 1:
		return SIZE_WORD, true
	case 2:
		return SIZE_LONG, true
	}
	return
}

// moveSizeField decodes the move size field at bits 13-12.
func moveSizeField(op uint16) (size Size, ok bool) {
	switch (op >> 12) & 3 {
	case 1:
		return SIZE_BYTE, true
	case 3:
		return SIZE_WORD, true
	case 2:
		return SIZE_LONG, true
	}
	return
}

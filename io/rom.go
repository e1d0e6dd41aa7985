package io

import (
	"iter"
	"maps"
)

// Rom is a read-only byte array, such as the IPL image.
type Rom struct {
	Name string // Name used in errors.
	Data []byte

	size int
}

var _ Device = (*Rom)(nil)

// NewRom creates a ROM window of the given size in bytes.
// Unloaded bytes read as 0xff.
func NewRom(name string, size int) *Rom {
	rom := &Rom{
		Name: name,
		size: size,
	}

	rom.Erase()

	return rom
}

// Reset leaves the ROM contents alone.
func (rom *Rom) Reset() {
}

// Erase fills the ROM window with 0xff.
func (rom *Rom) Erase() {
	rom.Data = make([]byte, rom.size)
	for n := range rom.Data {
		rom.Data[n] = 0xff
	}
}

// Load replaces the ROM contents with an image. The image must not be
// larger than the ROM window.
func (rom *Rom) Load(image []byte) (err error) {
	if len(image) > rom.size {
		err = &ErrAccess{Device: rom.Name, Offset: uint32(len(image)), Err: ErrOutOfRange}
		return
	}

	rom.Erase()
	copy(rom.Data, image)

	return
}

// ReadOnly is always true for a ROM.
func (rom *Rom) ReadOnly() bool {
	return true
}

// Read8 reads a byte from the ROM.
func (rom *Rom) Read8(offset uint32) (value uint8, err error) {
	if offset >= uint32(len(rom.Data)) {
		err = &ErrAccess{Device: rom.Name, Offset: offset, Err: ErrOutOfRange}
		return
	}

	value = rom.Data[offset]
	return
}

// Write8 always fails with ErrReadOnly.
func (rom *Rom) Write8(offset uint32, value uint8) (err error) {
	err = &ErrAccess{Device: rom.Name, Offset: offset, Err: ErrReadOnly}
	return
}

// Defines returns an iter of defines for the ROM.
func (rom *Rom) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{})
}

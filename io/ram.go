package io

import (
	"iter"
	"maps"
)

// Ram is a read/write byte array.
type Ram struct {
	Name string // Name used in errors.
	Data []byte
}

var _ Device = (*Ram)(nil)

// NewRam creates a cleared RAM of the given size in bytes.
func NewRam(name string, size int) *Ram {
	return &Ram{
		Name: name,
		Data: make([]byte, size),
	}
}

// Reset clears the memory.
func (ram *Ram) Reset() {
	clear(ram.Data)
}

// Size returns the size of the RAM in bytes.
func (ram *Ram) Size() uint32 {
	return uint32(len(ram.Data))
}

// Read8 reads a byte from the RAM.
func (ram *Ram) Read8(offset uint32) (value uint8, err error) {
	if offset >= ram.Size() {
		err = &ErrAccess{Device: ram.Name, Offset: offset, Err: ErrOutOfRange}
		return
	}

	value = ram.Data[offset]
	return
}

// Write8 writes a byte to the RAM.
func (ram *Ram) Write8(offset uint32, value uint8) (err error) {
	if offset >= ram.Size() {
		err = &ErrAccess{Device: ram.Name, Offset: offset, Err: ErrOutOfRange}
		return
	}

	ram.Data[offset] = value
	return
}

// Defines returns an iter of defines for the RAM.
func (ram *Ram) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{})
}

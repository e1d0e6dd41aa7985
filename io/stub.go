package io

import (
	"iter"
	"log"
	"maps"
)

// Stub is a register block for a peripheral that is not modeled.
// Reads return zero, writes are ignored.
type Stub struct {
	Verbose bool   // If set, log every access.
	Name    string // Name of the peripheral.
	Size    uint32 // Size of the register block in bytes.

	Reads  int // Number of reads since reset.
	Writes int // Number of writes since reset.
}

var _ Device = (*Stub)(nil)

// Reset clears the access counters.
func (stub *Stub) Reset() {
	stub.Reads = 0
	stub.Writes = 0
}

// Read8 returns zero for any offset in the block.
func (stub *Stub) Read8(offset uint32) (value uint8, err error) {
	if offset >= stub.Size {
		err = &ErrAccess{Device: stub.Name, Offset: offset, Err: ErrOutOfRange}
		return
	}

	stub.Reads++
	if stub.Verbose {
		log.Printf("%v: read  +%04x", stub.Name, offset)
	}

	return
}

// Write8 discards the value.
func (stub *Stub) Write8(offset uint32, value uint8) (err error) {
	if offset >= stub.Size {
		err = &ErrAccess{Device: stub.Name, Offset: offset, Err: ErrOutOfRange}
		return
	}

	stub.Writes++
	if stub.Verbose {
		log.Printf("%v: write +%04x = %02x", stub.Name, offset, value)
	}

	return
}

// Defines returns an iter of defines for the stub.
func (stub *Stub) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{})
}

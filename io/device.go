// Package io provides the memory-mapped devices of the X68000 emulator.
// It includes main and static RAM (Ram), the IPL ROM (Rom), register
// blocks for unmodeled peripherals (Stub), and the Z8530 serial
// controller (Scc). Offsets passed to a device are relative to its base.
package io

import (
	"iter"
)

// Device defines the interface for all memory-mapped devices.
type Device interface {
	// Reset returns the device to its power-on state.
	Reset()
	// Read8 reads a byte at an offset from the device base.
	Read8(offset uint32) (value uint8, err error)
	// Write8 writes a byte at an offset from the device base.
	Write8(offset uint32, value uint8) (err error)
	// Defines returns an iter of defines for the device.
	Defines() iter.Seq2[string, string]
}

package io

import (
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
)

const (
	SCC_CTRL_B = 1 // Channel B (mouse) control register.
	SCC_DATA_B = 3 // Channel B (mouse) data register.
	SCC_CTRL_A = 5 // Channel A (RS-232C) control register.
	SCC_DATA_A = 7 // Channel A (RS-232C) data register.

	SCC_RR0_RX_AVAILABLE = 0x01 // RR0: receive character available.
	SCC_RR0_TX_EMPTY     = 0x04 // RR0: transmit buffer empty.

	SCC_SIZE = 0x2000 // Size of the register block.
)

var _scc_defines = map[string]string{
	"SCC_CTRL_B":           fmt.Sprintf("%v", SCC_CTRL_B),
	"SCC_DATA_B":           fmt.Sprintf("%v", SCC_DATA_B),
	"SCC_CTRL_A":           fmt.Sprintf("%v", SCC_CTRL_A),
	"SCC_DATA_A":           fmt.Sprintf("%v", SCC_DATA_A),
	"SCC_RR0_RX_AVAILABLE": fmt.Sprintf("%v", SCC_RR0_RX_AVAILABLE),
	"SCC_RR0_TX_EMPTY":     fmt.Sprintf("%v", SCC_RR0_TX_EMPTY),
}

// Scc is a minimal Z8530 serial controller. Channel A transmits to Output
// and receives from Input. Channel B is never ready to receive.
//
// The register block repeats every 8 bytes. A control write selects the
// register for the next control access, as on the real part; all
// registers other than RR0 read as zero.
type Scc struct {
	Verbose bool
	Output  io.Writer // Channel A transmit.
	Input   []byte    // Channel A receive queue.

	pointer [2]uint8 // Selected register, per channel.
}

var _ Device = (*Scc)(nil)

// Reset clears the register pointers and the receive queue.
func (scc *Scc) Reset() {
	scc.pointer = [2]uint8{}
	scc.Input = nil
}

// Receive queues bytes for channel A.
func (scc *Scc) Receive(data []byte) {
	scc.Input = append(scc.Input, data...)
}

func (scc *Scc) rr0(channel int) (value uint8) {
	value = SCC_RR0_TX_EMPTY
	if channel == 1 && len(scc.Input) > 0 {
		value |= SCC_RR0_RX_AVAILABLE
	}
	return
}

// Read8 reads a control or data register.
func (scc *Scc) Read8(offset uint32) (value uint8, err error) {
	if offset >= SCC_SIZE {
		err = &ErrAccess{Device: "scc", Offset: offset, Err: ErrOutOfRange}
		return
	}

	switch offset & 7 {
	case SCC_CTRL_B, SCC_CTRL_A:
		channel := int(offset&7) / SCC_CTRL_A
		if scc.pointer[channel] == 0 {
			value = scc.rr0(channel)
		}
		scc.pointer[channel] = 0
	case SCC_DATA_A:
		if len(scc.Input) > 0 {
			value = scc.Input[0]
			scc.Input = scc.Input[1:]
		}
	}

	return
}

// Write8 writes a control or data register.
func (scc *Scc) Write8(offset uint32, value uint8) (err error) {
	if offset >= SCC_SIZE {
		err = &ErrAccess{Device: "scc", Offset: offset, Err: ErrOutOfRange}
		return
	}

	switch offset & 7 {
	case SCC_CTRL_B, SCC_CTRL_A:
		channel := int(offset&7) / SCC_CTRL_A
		if scc.pointer[channel] == 0 {
			scc.pointer[channel] = value & 0x0f
		} else {
			if scc.Verbose {
				log.Printf("scc: channel %c WR%d = %02x", 'B'-channel, scc.pointer[channel], value)
			}
			scc.pointer[channel] = 0
		}
	case SCC_DATA_A:
		if scc.Output != nil {
			_, err = scc.Output.Write([]byte{value})
		}
	case SCC_DATA_B:
		if scc.Verbose {
			log.Printf("scc: channel B data %02x", value)
		}
	}

	return
}

// Defines returns an iter of defines for the SCC.
func (scc *Scc) Defines() iter.Seq2[string, string] {
	return maps.All(_scc_defines)
}

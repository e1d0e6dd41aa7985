package cpu

import (
	"fmt"
	"strings"
)

// Trace records the instruction words consumed by a step, and its mnemonic.
type Trace struct {
	Address uint32   // Address of the opcode word.
	Words   []uint16 // Opcode and extension words, in fetch order.
	Text    string   // Mnemonic and operands.
}

// Length of the instruction, in bytes.
func (tr Trace) Length() int {
	return 2 * len(tr.Words)
}

// Dump renders the address and raw instruction words.
func (tr Trace) Dump() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%06x:", tr.Address)
	for _, word := range tr.Words {
		fmt.Fprintf(&sb, " %04x", word)
	}
	return sb.String()
}

func (tr Trace) String() string {
	return fmt.Sprintf("%-30s  %s", tr.Dump(), tr.Text)
}

// mnemonic sets the trace text.
func (cpu *Cpu) mnemonic(format string, args ...any) {
	cpu.Trace.Text = fmt.Sprintf(format, args...)
}

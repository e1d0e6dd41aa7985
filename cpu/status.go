package cpu

import (
	"fmt"
	"strings"

	"github.com/mgutz/ansi"
)

var chSame = ansi.ColorCode("default:default")
var chNew = ansi.ColorCode("default+bu:default")

// Change is the before and after value of a single register.
type Change struct {
	Name     string
	Old, New uint32
	Digits   int
}

// Changed reports whether the register was modified.
func (c *Change) Changed() bool {
	return c.Old != c.New
}

// String renders the register, highlighting changed hex digits when color is set.
func (c *Change) String(color bool) string {
	hexFmt := fmt.Sprintf("%%0%dx", c.Digits)
	newText := fmt.Sprintf(hexFmt, c.New)

	if !c.Changed() {
		return fmt.Sprintf("  %3s %s", c.Name, newText)
	}

	if !color {
		return fmt.Sprintf("+ %3s %s", c.Name, newText)
	}

	oldText := fmt.Sprintf(hexFmt, c.Old)
	var sb strings.Builder
	fmt.Fprintf(&sb, "  %s%3s%s ", chNew, c.Name, ansi.Reset)
	for n := range newText {
		col := chSame
		if newText[n] != oldText[n] {
			col = chNew
		}
		sb.WriteString(col + newText[n:n+1])
	}
	sb.WriteString(ansi.Reset)
	return sb.String()
}

// Changes is a set of register changes, rendered in columns.
type Changes []*Change

// Changed returns only the modified registers.
func (cs Changes) Changed() (changed Changes) {
	for _, c := range cs {
		if c.Changed() {
			changed = append(changed, c)
		}
	}
	return
}

// String renders the changes four to a row.
func (cs Changes) String(color bool) string {
	var sb strings.Builder
	for n, c := range cs {
		sb.WriteString(c.String(color))
		if n%4 == 3 || n == len(cs)-1 {
			sb.WriteString("\n")
		} else {
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

// StatusDiff tracks register values between successive dumps.
type StatusDiff struct {
	Cpu *Cpu
	old *Registers
}

// snapshot flattens a register file into named changes.
func snapshot(regs *Registers, old *Registers) (cs Changes) {
	add := func(name string, value, prior uint32, digits int) {
		cs = append(cs, &Change{Name: name, New: value, Old: prior, Digits: digits})
	}

	prior := old
	if prior == nil {
		prior = regs
	}

	add("pc", regs.Pc, prior.Pc, 8)
	add("sr", uint32(regs.Sr), uint32(prior.Sr), 4)
	for n := range 8 {
		add(fmt.Sprintf("d%d", n), regs.D[n].Long(), prior.D[n].Long(), 8)
	}
	for n := range 8 {
		add(fmt.Sprintf("a%d", n), regs.A[n], prior.A[n], 8)
	}

	return
}

// Changes returns the registers, compared against the previous call.
// If onlyChanged is set, unmodified registers are omitted.
func (s *StatusDiff) Changes(onlyChanged bool) (cs Changes) {
	cs = snapshot(&s.Cpu.Registers, s.old)

	regs := s.Cpu.Registers
	s.old = &regs

	if onlyChanged {
		cs = cs.Changed()
	}

	return
}

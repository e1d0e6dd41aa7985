package cpu

import (
	"strings"
	"testing"

	"github.com/mgutz/ansi"
	"github.com/stretchr/testify/assert"
)

func TestChange(t *testing.T) {
	assert := assert.New(t)

	same := &Change{Name: "d0", Old: 1, New: 1, Digits: 8}
	assert.False(same.Changed())
	assert.Equal("   d0 00000001", same.String(false))
	assert.Equal("   d0 00000001", same.String(true))

	changed := &Change{Name: "sr", Old: 0x2700, New: 0x2704, Digits: 4}
	assert.True(changed.Changed())
	assert.Equal("+  sr 2704", changed.String(false))

	colored := changed.String(true)
	assert.True(strings.HasSuffix(colored, chNew+"4"+ansi.Reset))
	assert.Contains(colored, chSame+"2")
}

func TestStatusDiff(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(newTestBus(16))
	status := &StatusDiff{Cpu: cpu}

	cs := status.Changes(false)
	assert.Equal(18, len(cs))
	assert.Equal("pc", cs[0].Name)
	assert.Equal("sr", cs[1].Name)
	assert.Equal("d0", cs[2].Name)
	assert.Equal("a7", cs[17].Name)
	assert.Equal(0, len(cs.Changed()))

	cpu.D[2].SetLong(0x55)
	cpu.A[7] = 0x8000

	cs = status.Changes(true)
	assert.Equal(2, len(cs))
	assert.Equal("d2", cs[0].Name)
	assert.Equal(uint32(0x55), cs[0].New)
	assert.Equal("a7", cs[1].Name)
	assert.Equal("+  d2 00000055 +  a7 00008000\n", cs.String(false))

	// Compared against the previous call.
	cs = status.Changes(true)
	assert.Equal(0, len(cs))

	text := status.Changes(false).String(false)
	assert.Equal(5, strings.Count(text, "\n"))
}

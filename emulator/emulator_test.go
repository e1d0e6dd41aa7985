package emulator

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/x68k/cpu"
	"github.com/ezrec/x68k/io"
)

func newTestEmulator(t *testing.T) *Emulator {
	emu, err := NewEmulator(DefaultConfig())
	if err != nil {
		t.Fatalf("%v", err)
	}
	return emu
}

func doAssemble(t *testing.T, emu *Emulator, program ...string) *cpu.Program {
	asm := &cpu.Assembler{}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatalf("%v", err)
	}

	err = emu.LoadProgram(prog)
	if err != nil {
		t.Fatalf("%v", err)
	}

	return prog
}

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	assert.False(emu.Verbose)
	assert.NotNil(emu.Cpu)
	assert.Equal(RAM_SIZE_DEFAULT, emu.Ram.Size())
	assert.Len(emu.Stubs, 16)
}

func TestEmulator_RamSize(t *testing.T) {
	assert := assert.New(t)

	for _, size := range []uint32{0, 0x1001, RAM_SIZE_MAX + 2} {
		cfg := DefaultConfig()
		cfg.RamSize = size
		_, err := NewEmulator(cfg)
		assert.True(errors.Is(err, ErrRamSize), "size %x", size)
	}

	cfg := DefaultConfig()
	cfg.RamSize = RAM_SIZE_MAX
	emu, err := NewEmulator(cfg)
	assert.NoError(err)
	assert.Equal("ram", emu.Lookup(GVRAM_BASE-1).Name)
	assert.Equal("gvram", emu.Lookup(GVRAM_BASE).Name)
}

func TestEmulator_MemoryMap(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	table := [](struct {
		address uint32
		name    string
	}){
		{0x000000, "ram"},
		{0x0fffff, "ram"},
		{0x100000, ""},
		{0xc00000, "gvram"},
		{0xdfffff, "gvram"},
		{0xe00000, "tvram"},
		{0xe7ffff, "tvram"},
		{0xe80000, "crtc"},
		{0xe82000, "vc"},
		{0xe84000, "dmac"},
		{0xe88000, "mfp"},
		{0xe8a000, "rtc"},
		{0xe8e000, "sysport"},
		{0xe90000, "opm"},
		{0xe92000, "adpcm"},
		{0xe94000, "fdc"},
		{0xe96000, "sasi"},
		{0xe98000, "scc"},
		{0xe9a000, "ppi"},
		{0xe9c000, "ioc"},
		{0xe9dfff, "ioc"},
		{0xe9e000, "fpu"},
		{0xe9ffff, "fpu"},
		{0xea0000, ""},
		{0xeb0000, "sprite"},
		{0xebffff, "sprite"},
		{0xed0000, "sram"},
		{0xed3fff, "sram"},
		{0xed4000, ""},
		{0xf00000, ""},
		{0xfe0000, "ipl"},
		{0xffffff, "ipl"},
		{0x01fe0000, "ipl"},
	}

	for _, entry := range table {
		region := emu.Lookup(entry.address)
		if len(entry.name) == 0 {
			assert.Nil(region, "%06x", entry.address)
		} else if assert.NotNil(region, "%06x", entry.address) {
			assert.Equal(entry.name, region.Name, "%06x", entry.address)
		}
	}

	var last uint32
	for region := range emu.Regions() {
		assert.GreaterOrEqual(region.Base, last)
		last = region.Base + region.Size
	}
}

func TestEmulator_Map(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	err := emu.Map(&Region{Name: "cgrom", Base: 0xf00000, Size: 0xc0000, Device: io.NewRom("cgrom", 0xc0000)})
	assert.NoError(err)
	assert.Equal("cgrom", emu.Lookup(0xf00000).Name)

	err = emu.Map(&Region{Name: "bad", Base: 0xfdf000, Size: 0x2000, Device: io.NewRam("bad", 0x2000)})
	assert.True(errors.Is(err, ErrRegionOverlap))

	err = emu.Map(&Region{Name: "empty", Base: 0xea0000, Device: io.NewRam("empty", 0)})
	assert.True(errors.Is(err, ErrRegionInvalid))

	err = emu.Map(&Region{Name: "wrap", Base: 0xfff000, Size: 0x2000, Device: io.NewRam("wrap", 0x2000)})
	assert.True(errors.Is(err, ErrRegionInvalid))
}

func TestEmulator_Bus(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	assert.NoError(emu.Write8(0x1000, 0x5a))
	value, err := emu.Read8(0x1000)
	assert.NoError(err)
	assert.Equal(uint8(0x5a), value)
	assert.Equal(uint8(0x5a), emu.Ram.Data[0x1000])

	assert.NoError(emu.Write8(SRAM_BASE+1, 0xa5))
	assert.Equal(uint8(0xa5), emu.Sram.Data[1])

	_, err = emu.Read8(0x200000)
	assert.True(errors.Is(err, cpu.ErrAddressUnmapped))
	var unmapped *cpu.ErrUnmapped
	assert.True(errors.As(err, &unmapped))
	assert.Equal(uint32(0x200000), unmapped.Address)
	assert.False(unmapped.Write)
	assert.Equal(1, strings.Count(err.Error(), "unmapped address"))

	err = emu.Write8(IPL_BASE, 0)
	assert.True(errors.Is(err, io.ErrReadOnly))

	assert.NoError(emu.Probe(IPL_BASE, false))
	assert.True(errors.Is(emu.Probe(IPL_BASE, true), io.ErrReadOnly))
	assert.True(errors.Is(emu.Probe(0x200000, false), cpu.ErrAddressUnmapped))
	assert.NoError(emu.Probe(0x1000, true))
}

func TestEmulator_Defines(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	defines := map[string]string{}
	for key, value := range emu.Defines() {
		defines[key] = value
	}

	assert.Equal("0xe98000", defines["SCC_BASE"])
	assert.Equal("0xfe0000", defines["IPL_BASE"])
	assert.Equal("0x100000", defines["RAM_SIZE"])
	assert.Equal("0x80", defines["TRAP_VECTOR_BASE"])
	assert.Equal("7", defines["SCC_DATA_A"])
}

func TestEmulator_Program(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	var out bytes.Buffer
	emu.Scc.Output = &out

	program := []string{
		".org $1000",
		"start:",
		"  lea msg(pc), a0",
		"loop:",
		"  move.b (a0)+, d0",
		"  beq done",
		"wait:",
		"  btst #2, $(SCC_BASE+SCC_CTRL_A)",
		"  beq wait",
		"  move.b d0, $(SCC_BASE+SCC_DATA_A)",
		"  bra loop",
		"done:",
		"  rts",
		"msg:",
		"  .dc.b 'h', 'i', '\\n', 0",
	}

	doAssemble(t, emu, program...)

	assert.Equal(uint32(0x1000), emu.Cpu.Pc)
	assert.Equal(emu.Config.StackTop-4, emu.Cpu.A[7])
	assert.Equal(3, emu.LineNo())

	steps, err := emu.Run(0)
	assert.NoError(err)
	assert.True(emu.Done())
	assert.Equal("hi\n", out.String())
	assert.Equal(1+3*6+2+1, steps)
	assert.Equal(emu.Config.StackTop, emu.Cpu.A[7])

	done, err := emu.Tick()
	assert.NoError(err)
	assert.True(done)
}

func TestEmulator_ProgramInput(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	doAssemble(t, emu,
		".org $2000",
		"  moveq #0, d1",
		"next:",
		"  btst #0, $(SCC_BASE+SCC_CTRL_A)",
		"  beq out",
		"  move.b $(SCC_BASE+SCC_DATA_A), d0",
		"  addq.l #1, d1",
		"  bra next",
		"out:",
		"  rts",
	)

	// LoadProgram resets the devices, so queue input afterwards.
	emu.Scc.Receive([]byte("abc"))

	_, err := emu.Run(0)
	assert.NoError(err)
	assert.Equal(uint32(3), emu.Cpu.D[1].Long())
	assert.Equal(uint8('c'), emu.Cpu.D[0].Byte())
}

func TestEmulator_Limit(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	doAssemble(t, emu,
		".org $1000",
		"spin:",
		"  bra.s spin",
	)

	steps, err := emu.Run(10)
	assert.NoError(err)
	assert.Equal(10, steps)
	assert.False(emu.Done())

	emu.Config.MaxSteps = 25
	steps, err = emu.Run(0)
	assert.NoError(err)
	assert.Equal(25, steps)
}

func TestEmulator_Origin(t *testing.T) {
	assert := assert.New(t)

	cfg := DefaultConfig()
	cfg.Origin = 0x1004
	cfg.StackTop = 0x8000
	emu, err := NewEmulator(cfg)
	assert.NoError(err)

	doAssemble(t, emu,
		".org $1000",
		"  moveq #1, d0",
		"  moveq #2, d0",
		"  moveq #3, d1",
		"  rts",
	)

	assert.Equal(uint32(0x1004), emu.Cpu.Pc)
	assert.Equal(uint32(0x7ffc), emu.Cpu.A[7])

	_, err = emu.Run(0)
	assert.NoError(err)
	assert.Equal(uint32(0), emu.Cpu.D[0].Long())
	assert.Equal(uint32(3), emu.Cpu.D[1].Long())
}

func TestEmulator_Stub(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	doAssemble(t, emu,
		".org $1000",
		"  move.w #$1234, $e80028",
		"  move.w $e80028, d0",
		"  rts",
	)

	emu.Cpu.D[0].SetLong(0xffffffff)
	_, err := emu.Run(0)
	assert.NoError(err)
	assert.Equal(uint32(0xffff0000), emu.Cpu.D[0].Long())

	crtc := emu.Lookup(DEVICE_BASE).Device.(*io.Stub)
	assert.Equal(2, crtc.Writes)
	assert.Equal(2, crtc.Reads)
}

func TestEmulator_Unmapped(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	doAssemble(t, emu,
		".org $1000",
		"  moveq #7, d0",
		"  move.l $f00000, d0",
		"  rts",
	)

	steps, err := emu.Run(0)
	assert.Equal(1, steps)
	assert.True(errors.Is(err, cpu.ErrAddressUnmapped))

	var runtime *ErrRuntime
	assert.True(errors.As(err, &runtime))
	assert.Equal(3, runtime.LineNo)
	assert.Equal(uint32(0x1002), runtime.Address)
	assert.Contains(err.Error(), "001002")

	var unmapped *cpu.ErrUnmapped
	assert.True(errors.As(err, &unmapped))
	assert.Equal(uint32(0xf00000), unmapped.Address)

	// The failed instruction left no trace in the registers.
	assert.Equal(uint32(7), emu.Cpu.D[0].Long())
	assert.Equal(uint32(0x1002), emu.Cpu.Pc)
}

func TestEmulator_ReadOnlyProbe(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	doAssemble(t, emu,
		".org $1000",
		"  move.l #$11223344, d0",
		"  lea $(SRAM_BASE+0x3ffe), a0",
		"  move.l d0, (a0)+",
		"  rts",
	)

	_, err := emu.Run(0)
	assert.True(errors.Is(err, cpu.ErrAddressUnmapped))

	// No partial write to SRAM, and the post-increment is rolled back.
	assert.Equal([]byte{0, 0}, emu.Sram.Data[0x3ffe:])
	assert.Equal(SRAM_BASE+0x3ffe, emu.Cpu.A[0])

	doAssemble(t, emu,
		".org $1000",
		"  move.w d0, $fe0000",
		"  rts",
	)

	_, err = emu.Run(0)
	assert.True(errors.Is(err, io.ErrReadOnly))
	assert.True(errors.Is(err, cpu.ErrAddressUnmapped))
}

func TestEmulator_Unimplemented(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	doAssemble(t, emu,
		".org $1000",
		"  nop",
		"  .dc.w $4afc",
	)

	steps, err := emu.Run(0)
	assert.Equal(1, steps)
	assert.True(errors.Is(err, cpu.ErrOpcodeUnimplemented))

	var unimp *cpu.ErrUnimplemented
	assert.True(errors.As(err, &unimp))
	assert.Equal(uint32(0x1002), unimp.Address)
	assert.Equal([]uint16{0x4afc}, unimp.Words)
}

func TestEmulator_Trap(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)
	emu.Config.Origin = 0x1000

	doAssemble(t, emu,
		".org $80",
		"  .dc.l handler",
		".org $1000",
		"  trap #0",
		"  rts",
		"handler:",
		"  moveq #42, d0",
		"  rts",
	)

	_, err := emu.Run(0)
	assert.NoError(err)
	assert.Equal(uint32(42), emu.Cpu.D[0].Long())
}

func TestEmulator_Boot(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	assert.True(errors.Is(emu.Boot(), ErrNoIpl))

	image := make([]byte, 0x10008)
	// moveq #42, d0
	image[0] = 0x70
	image[1] = 0x2a
	// Unimplemented
	image[2] = 0xff
	image[3] = 0xff
	copy(image[0x10000:], []byte{
		0x00, 0x00, 0x20, 0x00, // sp
		0x00, 0xfe, 0x00, 0x00, // pc
	})

	assert.NoError(emu.LoadIpl(image))
	assert.NoError(emu.Boot())
	assert.Equal(uint32(0x2000), emu.Cpu.A[7])
	assert.Equal(IPL_BASE, emu.Cpu.Pc)
	assert.Equal(0, emu.LineNo())

	steps, err := emu.Run(100)
	assert.Equal(1, steps)
	assert.True(errors.Is(err, cpu.ErrOpcodeUnimplemented))
	assert.Equal(uint32(42), emu.Cpu.D[0].Long())

	var runtime *ErrRuntime
	assert.True(errors.As(err, &runtime))
	assert.Equal(IPL_BASE+2, runtime.Address)
	assert.Equal(0, runtime.LineNo)

	// The image survives a reset.
	emu.Reset()
	assert.NoError(emu.Boot())
	assert.Equal(IPL_BASE, emu.Cpu.Pc)
}

func TestEmulator_BootTooLarge(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	err := emu.LoadIpl(make([]byte, IPL_SIZE+1))
	assert.True(errors.Is(err, io.ErrOutOfRange))
}

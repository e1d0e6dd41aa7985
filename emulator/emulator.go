// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator assembles a MC68000 core and the X68000 memory map into
// a runnable machine.
package emulator

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"iter"
	"log"
	"maps"
	"slices"
	"sort"

	"github.com/lunixbochs/struc"

	"github.com/ezrec/x68k/cpu"
	"github.com/ezrec/x68k/internal"
	"github.com/ezrec/x68k/io"
)

const (
	RAM_BASE         = uint32(0x000000)
	RAM_SIZE_DEFAULT = uint32(0x100000) // 1 MiB
	RAM_SIZE_MAX     = uint32(0xc00000) // Up to the graphics VRAM.

	GVRAM_BASE = uint32(0xc00000)
	GVRAM_SIZE = uint32(0x200000)
	TVRAM_BASE = uint32(0xe00000)
	TVRAM_SIZE = uint32(0x080000)

	DEVICE_BASE = uint32(0xe80000) // First of the 8 KiB peripheral blocks.
	DEVICE_SIZE = uint32(0x2000)
	SCC_BASE    = uint32(0xe98000)
	SPRITE_BASE = uint32(0xeb0000)
	SPRITE_SIZE = uint32(0x10000)

	SRAM_BASE = uint32(0xed0000)
	SRAM_SIZE = uint32(0x4000)

	IPL_BASE = uint32(0xfe0000)
	IPL_SIZE = uint32(0x20000)

	BOOT_HEADER_OFFSET = 0x10000 // Reset vectors, at 0xff0000.

	// RETURN_ADDRESS is pushed under an assembled program, so that its
	// final rts ends the run.
	RETURN_ADDRESS = IPL_BASE + IPL_SIZE - 2
)

// Peripherals that are decoded but not modeled, in address order from
// DEVICE_BASE. The empty entry is the SCC.
var _stub_names = []string{
	"crtc", "vc", "dmac", "area", "mfp", "rtc", "printer", "sysport",
	"opm", "adpcm", "fdc", "sasi", "", "ppi", "ioc", "fpu",
}

var _emulator_defines = map[string]string{
	"RAM_BASE":       fmt.Sprintf("0x%x", RAM_BASE),
	"GVRAM_BASE":     fmt.Sprintf("0x%x", GVRAM_BASE),
	"TVRAM_BASE":     fmt.Sprintf("0x%x", TVRAM_BASE),
	"SCC_BASE":       fmt.Sprintf("0x%x", SCC_BASE),
	"SPRITE_BASE":    fmt.Sprintf("0x%x", SPRITE_BASE),
	"SRAM_BASE":      fmt.Sprintf("0x%x", SRAM_BASE),
	"IPL_BASE":       fmt.Sprintf("0x%x", IPL_BASE),
	"RETURN_ADDRESS": fmt.Sprintf("0x%x", RETURN_ADDRESS),
}

// BootHeader is the reset vector pair at the start of the IPL boot block.
type BootHeader struct {
	Sp uint32
	Pc uint32
}

// Region is a device mapped into the address space.
type Region struct {
	Name   string
	Base   uint32
	Size   uint32
	Device io.Device
}

// Contains returns true if the address is within the region.
func (r *Region) Contains(address uint32) bool {
	return address >= r.Base && address-r.Base < r.Size
}

// Emulator state. CPU + memory map.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.
	Config   Config       // Machine configuration.

	Ram   *io.Ram
	Gvram *io.Ram
	Tvram *io.Ram
	Sram  *io.Ram
	Ipl   *io.Rom
	Scc   *io.Scc
	Stubs []*io.Stub

	regions []*Region
}

var _ cpu.Bus = (*Emulator)(nil)
var _ cpu.BusProber = (*Emulator)(nil)

// NewEmulator creates a new emulator with the stock X68000 memory map.
func NewEmulator(cfg Config) (emu *Emulator, err error) {
	err = cfg.Validate()
	if err != nil {
		return
	}

	emu = &Emulator{
		Verbose: cfg.Verbose,
		Program: &cpu.Program{},
		Config:  cfg,
		Ram:     io.NewRam("ram", int(cfg.RamSize)),
		Gvram:   io.NewRam("gvram", int(GVRAM_SIZE)),
		Tvram:   io.NewRam("tvram", int(TVRAM_SIZE)),
		Sram:    io.NewRam("sram", int(SRAM_SIZE)),
		Ipl:     io.NewRom("ipl", int(IPL_SIZE)),
		Scc:     &io.Scc{Verbose: cfg.Verbose},
	}

	emu.Cpu = cpu.NewCpu(emu)
	emu.Cpu.Verbose = cfg.Verbose
	emu.Cpu.VectorBase = cfg.VectorBase

	regions := []*Region{
		{Name: "ram", Base: RAM_BASE, Size: cfg.RamSize, Device: emu.Ram},
		{Name: "gvram", Base: GVRAM_BASE, Size: GVRAM_SIZE, Device: emu.Gvram},
		{Name: "tvram", Base: TVRAM_BASE, Size: TVRAM_SIZE, Device: emu.Tvram},
		{Name: "scc", Base: SCC_BASE, Size: io.SCC_SIZE, Device: emu.Scc},
		{Name: "sram", Base: SRAM_BASE, Size: SRAM_SIZE, Device: emu.Sram},
		{Name: "ipl", Base: IPL_BASE, Size: IPL_SIZE, Device: emu.Ipl},
	}

	for n, name := range _stub_names {
		if len(name) == 0 {
			continue
		}
		stub := &io.Stub{Verbose: cfg.Verbose, Name: name, Size: DEVICE_SIZE}
		emu.Stubs = append(emu.Stubs, stub)
		regions = append(regions, &Region{Name: name, Base: DEVICE_BASE + uint32(n)*DEVICE_SIZE, Size: DEVICE_SIZE, Device: stub})
	}

	sprite := &io.Stub{Verbose: cfg.Verbose, Name: "sprite", Size: SPRITE_SIZE}
	emu.Stubs = append(emu.Stubs, sprite)
	regions = append(regions, &Region{Name: "sprite", Base: SPRITE_BASE, Size: SPRITE_SIZE, Device: sprite})

	for _, region := range regions {
		err = emu.Map(region)
		if err != nil {
			emu = nil
			return
		}
	}

	return
}

// Map adds a device region to the address space.
func (emu *Emulator) Map(region *Region) (err error) {
	end := uint64(region.Base) + uint64(region.Size)
	if region.Size == 0 || end > uint64(cpu.ADDRESS_MASK)+1 {
		err = fmt.Errorf("%w: %v", ErrRegionInvalid, region.Name)
		return
	}

	for _, other := range emu.regions {
		if region.Base < other.Base+other.Size && other.Base < region.Base+region.Size {
			err = fmt.Errorf("%w: %v, %v", ErrRegionOverlap, region.Name, other.Name)
			return
		}
	}

	if emu.Verbose {
		log.Printf("map: %06x-%06x %v", region.Base, region.Base+region.Size-1, region.Name)
	}

	emu.regions = append(emu.regions, region)
	slices.SortFunc(emu.regions, func(a, b *Region) int {
		return int(int64(a.Base) - int64(b.Base))
	})

	return
}

// Regions returns the mapped regions in address order.
func (emu *Emulator) Regions() iter.Seq[*Region] {
	return slices.Values(emu.regions)
}

// Lookup returns the region containing an address, or nil.
func (emu *Emulator) Lookup(address uint32) *Region {
	address &= cpu.ADDRESS_MASK
	n := sort.Search(len(emu.regions), func(i int) bool {
		region := emu.regions[i]
		return region.Base+region.Size > address
	})
	if n < len(emu.regions) && emu.regions[n].Contains(address) {
		return emu.regions[n]
	}
	return nil
}

func (emu *Emulator) region(address uint32, write bool) (region *Region, err error) {
	region = emu.Lookup(address)
	if region == nil {
		if emu.Verbose {
			log.Printf("bus: unmapped %06x", address&cpu.ADDRESS_MASK)
		}
		err = &cpu.ErrUnmapped{Address: address & cpu.ADDRESS_MASK, Write: write}
	}
	return
}

// Read8 reads a byte from the mapped device.
func (emu *Emulator) Read8(address uint32) (value uint8, err error) {
	region, err := emu.region(address, false)
	if err != nil {
		return
	}

	value, err = region.Device.Read8((address & cpu.ADDRESS_MASK) - region.Base)
	return
}

// Write8 writes a byte to the mapped device.
func (emu *Emulator) Write8(address uint32, value uint8) (err error) {
	region, err := emu.region(address, true)
	if err != nil {
		return
	}

	err = region.Device.Write8((address&cpu.ADDRESS_MASK)-region.Base, value)
	return
}

// Probe reports whether an access would fail, without side effects.
func (emu *Emulator) Probe(address uint32, write bool) (err error) {
	region, err := emu.region(address, write)
	if err != nil {
		return
	}

	if rom, ok := region.Device.(interface{ ReadOnly() bool }); write && ok && rom.ReadOnly() {
		err = &io.ErrAccess{Device: region.Name, Offset: (address & cpu.ADDRESS_MASK) - region.Base, Err: io.ErrReadOnly}
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	machine := map[string]string{
		"RAM_SIZE": fmt.Sprintf("0x%x", emu.Config.RamSize),
	}
	return internal.Concat2(maps.All(_emulator_defines),
		maps.All(machine),
		emu.Cpu.Defines(),
		emu.Scc.Defines(),
	)
}

// Reset the devices and the processor. The IPL image is retained.
func (emu *Emulator) Reset() {
	for _, region := range emu.regions {
		region.Device.Reset()
	}

	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()
	emu.Cpu.VectorBase = emu.Config.VectorBase
	emu.Program = &cpu.Program{}
}

// LoadIpl installs an IPL ROM image.
func (emu *Emulator) LoadIpl(image []byte) (err error) {
	err = emu.Ipl.Load(image)
	return
}

// Boot resets the machine, and starts it from the IPL reset vectors.
func (emu *Emulator) Boot() (err error) {
	var header BootHeader
	raw := emu.Ipl.Data[BOOT_HEADER_OFFSET:]
	err = struc.UnpackWithOrder(bytes.NewReader(raw), &header, binary.BigEndian)
	if err != nil {
		return
	}

	if header.Sp == ^uint32(0) && header.Pc == ^uint32(0) {
		err = ErrNoIpl
		return
	}

	emu.Reset()
	emu.Cpu.SetSp(header.Sp)
	emu.Cpu.SetPc(header.Pc)

	if emu.Verbose {
		log.Printf("boot: sp=%08x pc=%08x", header.Sp, header.Pc)
	}

	return
}

// LoadProgram resets the machine, writes an assembled program into memory,
// and prepares to run it. A final rts from the entry point ends the run.
func (emu *Emulator) LoadProgram(prog *cpu.Program) (err error) {
	emu.Reset()

	for address, code := range prog.Codes() {
		err = emu.Write8(address, uint8(code>>8))
		if err != nil {
			return
		}
		err = emu.Write8(address+1, uint8(code))
		if err != nil {
			return
		}
	}

	emu.Program = prog

	entry := emu.Config.Origin
	if entry == 0 {
		entry = prog.Origin()
	}

	sp := emu.Config.StackTop - 4
	for n := range uint32(4) {
		err = emu.Write8(sp+n, uint8(RETURN_ADDRESS>>(24-8*n)))
		if err != nil {
			return
		}
	}

	emu.Cpu.SetSp(sp)
	emu.Cpu.SetPc(entry)

	return
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode == nil {
		return 0
	}
	return dbg.LineNo
}

// Done returns true once a loaded program has returned.
func (emu *Emulator) Done() bool {
	return emu.Cpu.Pc == RETURN_ADDRESS
}

// Tick performs a single instruction of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	if emu.Done() {
		done = true
		return
	}

	emu.Cpu.Verbose = emu.Verbose

	address := emu.Cpu.Pc
	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{Address: address, LineNo: lineno, Err: err}
		}
	}()

	err = emu.Cpu.Step()
	if err != nil {
		return
	}

	done = emu.Done()
	return
}

// Run ticks until the program is done, an error occurs, or limit steps
// have been taken. A limit of zero or less uses Config.MaxSteps, and if
// that is also zero, runs without limit.
func (emu *Emulator) Run(limit int) (steps int, err error) {
	if limit <= 0 {
		limit = emu.Config.MaxSteps
	}

	for limit <= 0 || steps < limit {
		if emu.Done() {
			return
		}
		_, err = emu.Tick()
		if err != nil {
			return
		}
		steps++
	}

	return
}

package cpu

// ADDRESS_MASK is the 24-bit physical address space of the 68000.
const ADDRESS_MASK = uint32(0x00ff_ffff)

// Bus is the byte-wide memory space the processor reads and writes through.
// Wider accesses are composed by the processor, most significant byte first.
type Bus interface {
	// Read8 reads a single byte.
	Read8(address uint32) (value uint8, err error)
	// Write8 writes a single byte.
	Write8(address uint32, value uint8) (err error)
}

// BusProber is an optional Bus extension. When present, every byte of a
// multi-byte write is probed before the first byte is committed.
type BusProber interface {
	// Probe reports the error an access to address would raise, if any.
	Probe(address uint32, write bool) (err error)
}

// read fetches a big-endian value of the given size.
func (cpu *Cpu) read(address uint32, size Size) (value uint32, err error) {
	for n := range uint32(size) {
		addr := (address + n) & ADDRESS_MASK
		var b uint8
		b, err = cpu.Bus.Read8(addr)
		if err != nil {
			err = busError(addr, false, err)
			return
		}
		value = (value << 8) | uint32(b)
	}

	return
}

// write stores a big-endian value of the given size.
func (cpu *Cpu) write(address uint32, size Size, value uint32) (err error) {
	if size != SIZE_BYTE {
		err = cpu.probeWrite(address, uint32(size))
		if err != nil {
			return
		}
	}

	for n := range uint32(size) {
		addr := (address + n) & ADDRESS_MASK
		shift := 8 * (uint32(size) - 1 - n)
		err = cpu.Bus.Write8(addr, uint8(value>>shift))
		if err != nil {
			err = busError(addr, true, err)
			return
		}
	}

	return
}

// probeWrite checks every byte of a write span, when the bus can probe.
func (cpu *Cpu) probeWrite(address uint32, length uint32) (err error) {
	prober, ok := cpu.Bus.(BusProber)
	if !ok {
		return
	}

	for n := range length {
		addr := (address + n) & ADDRESS_MASK
		err = prober.Probe(addr, true)
		if err != nil {
			err = busError(addr, true, err)
			return
		}
	}

	return
}

// busError converts a bus failure into an ErrUnmapped.
func busError(address uint32, write bool, err error) error {
	if _, ok := err.(*ErrUnmapped); ok {
		return err
	}
	return &ErrUnmapped{Address: address, Write: write, Err: err}
}

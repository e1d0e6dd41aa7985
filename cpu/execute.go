package cpu

import (
	"fmt"
	"math/bits"
	"strings"
)

// Opcode field helpers.
func fieldEaMode(op uint16) uint16 { return (op >> 3) & 7 }
func fieldEaReg(op uint16) uint16  { return op & 7 }
func fieldReg9(op uint16) uint16   { return (op >> 9) & 7 }

// move.l #imm,Dn
func (cpu *Cpu) opMoveImmLong(op uint16) (err error) {
	dn := fieldReg9(op)
	value, err := cpu.fetch32()
	if err != nil {
		return
	}

	cpu.D[dn].SetLong(value)
	cpu.setLogicFlags(value, SIZE_LONG)
	cpu.mnemonic("move.l #$%08x, D%d", value, dn)
	return
}

// move.l Dn,(An)+
func (cpu *Cpu) opMoveRegPostInc(op uint16) (err error) {
	an := fieldReg9(op)
	dn := fieldEaReg(op)
	value := cpu.D[dn].Long()

	text, err := cpu.writeEA(3, an, SIZE_LONG, value)
	if err != nil {
		return
	}

	cpu.setLogicFlags(value, SIZE_LONG)
	cpu.mnemonic("move.l D%d, %s", dn, text)
	return
}

// move.w #imm,Dn
func (cpu *Cpu) opMoveImmWord(op uint16) (err error) {
	dn := fieldReg9(op)
	value, err := cpu.fetch16()
	if err != nil {
		return
	}

	cpu.D[dn].SetWord(value)
	cpu.setLogicFlags(uint32(value), SIZE_WORD)
	cpu.mnemonic("move.w #$%04x, D%d", value, dn)
	return
}

// movea.[wl] <ea>,An
func (cpu *Cpu) opMovea(op uint16) (err error) {
	size, _ := moveSizeField(op)
	an := fieldReg9(op)

	value, src, err := cpu.readEA(fieldEaMode(op), fieldEaReg(op), size)
	if err != nil {
		return
	}

	cpu.A[an] = size.Extend(value)
	cpu.mnemonic("movea%v %s, A%d", size, src, an)
	return
}

// move.[bwl] <ea>,<ea>
func (cpu *Cpu) opMove(op uint16) (err error) {
	size, _ := moveSizeField(op)

	value, src, err := cpu.readEA(fieldEaMode(op), fieldEaReg(op), size)
	if err != nil {
		return
	}

	dst, err := cpu.writeEA((op>>6)&7, fieldReg9(op), size, value)
	if err != nil {
		return
	}

	cpu.setLogicFlags(value, size)
	cpu.mnemonic("move%v %s, %s", size, src, dst)
	return
}

// moveq #imm,Dn
func (cpu *Cpu) opMoveq(op uint16) (err error) {
	dn := fieldReg9(op)
	value := SIZE_BYTE.Extend(uint32(op))

	cpu.D[dn].SetLong(value)
	cpu.setLogicFlags(value, SIZE_LONG)
	cpu.mnemonic("moveq #$%02x, D%d", uint8(op), dn)
	return
}

// move #imm,SR
func (cpu *Cpu) opMoveImmSr(op uint16) (err error) {
	value, err := cpu.fetch16()
	if err != nil {
		return
	}

	cpu.Sr = value
	cpu.mnemonic("move #$%04x, SR", value)
	return
}

// move <ea>,SR
func (cpu *Cpu) opMoveToSr(op uint16) (err error) {
	if fieldEaMode(op) == 1 {
		err = ErrAddressingMode
		return
	}

	value, src, err := cpu.readEA(fieldEaMode(op), fieldEaReg(op), SIZE_WORD)
	if err != nil {
		return
	}

	cpu.Sr = uint16(value)
	cpu.mnemonic("move %s, SR", src)
	return
}

// move SR,<ea>
func (cpu *Cpu) opMoveFromSr(op uint16) (err error) {
	if fieldEaMode(op) == 1 {
		err = ErrAddressingMode
		return
	}

	dst, err := cpu.writeEA(fieldEaMode(op), fieldEaReg(op), SIZE_WORD, uint32(cpu.Sr))
	if err != nil {
		return
	}

	cpu.mnemonic("move SR, %s", dst)
	return
}

// reset only asserts the external reset line, which nothing listens to.
func (cpu *Cpu) opReset(op uint16) (err error) {
	cpu.mnemonic("reset")
	return
}

func (cpu *Cpu) opNop(op uint16) (err error) {
	cpu.mnemonic("nop")
	return
}

func (cpu *Cpu) opRts(op uint16) (err error) {
	pc, err := cpu.pop32()
	if err != nil {
		return
	}

	cpu.Pc = pc
	cpu.mnemonic("rts")
	return
}

// trap #n pushes the return address and jumps through vector 32+n.
func (cpu *Cpu) opTrap(op uint16) (err error) {
	n := uint32(op & 0xf)

	target, err := cpu.read(cpu.VectorBase+n*4, SIZE_LONG)
	if err != nil {
		return
	}

	err = cpu.push32(cpu.Pc)
	if err != nil {
		return
	}

	cpu.Pc = target
	cpu.mnemonic("trap #%d", n)
	return
}

// jsr xxx.l
func (cpu *Cpu) opJsrAbsLong(op uint16) (err error) {
	target, err := cpu.fetch32()
	if err != nil {
		return
	}

	err = cpu.push32(cpu.Pc)
	if err != nil {
		return
	}

	cpu.Pc = target
	cpu.mnemonic("jsr $%08x.l", target)
	return
}

// jsr <ea>
func (cpu *Cpu) opJsr(op uint16) (err error) {
	target, text, err := cpu.address(fieldEaMode(op), fieldEaReg(op))
	if err != nil {
		return
	}

	err = cpu.push32(cpu.Pc)
	if err != nil {
		return
	}

	cpu.Pc = target
	cpu.mnemonic("jsr %s", text)
	return
}

// jmp <ea>
func (cpu *Cpu) opJmp(op uint16) (err error) {
	target, text, err := cpu.address(fieldEaMode(op), fieldEaReg(op))
	if err != nil {
		return
	}

	cpu.Pc = target
	cpu.mnemonic("jmp %s", text)
	return
}

// lea xxx.l,A7
func (cpu *Cpu) opLeaAbsLongA7(op uint16) (err error) {
	address, err := cpu.fetch32()
	if err != nil {
		return
	}

	cpu.A[7] = address
	cpu.mnemonic("lea $%08x.l, A7", address)
	return
}

// lea <ea>,An
func (cpu *Cpu) opLea(op uint16) (err error) {
	an := fieldReg9(op)
	address, text, err := cpu.address(fieldEaMode(op), fieldEaReg(op))
	if err != nil {
		return
	}

	cpu.A[an] = address
	cpu.mnemonic("lea %s, A%d", text, an)
	return
}

// movemSize decodes the movem size bit.
func movemSize(op uint16) Size {
	if (op & 0x40) != 0 {
		return SIZE_LONG
	}
	return SIZE_WORD
}

// regList renders a register mask, bit n being D0-D7 then A0-A7.
func regList(mask uint16) string {
	var groups []string
	for n := 0; n < 16; {
		if (mask & (1 << n)) == 0 {
			n++
			continue
		}
		kind := "D"
		if n >= 8 {
			kind = "A"
		}
		first := n
		for n < 16 && (mask&(1<<n)) != 0 && (n < 8) == (first < 8) {
			n++
		}
		last := n - 1
		if first == last {
			groups = append(groups, fmt.Sprintf("%s%d", kind, first&7))
		} else {
			groups = append(groups, fmt.Sprintf("%s%d-%s%d", kind, first&7, kind, last&7))
		}
	}
	return strings.Join(groups, "/")
}

// getListed reads register n of a movem list.
func (cpu *Cpu) getListed(n int) uint32 {
	if n < 8 {
		return cpu.D[n].Long()
	}
	return cpu.A[n-8]
}

// setListed writes register n of a movem list.
func (cpu *Cpu) setListed(n int, value uint32) {
	if n < 8 {
		cpu.D[n].SetLong(value)
	} else {
		cpu.A[n-8] = value
	}
}

// movem.[wl] list,-(An)
//
// The pre-decrement mask is stored reversed (bit 15 is D0). Once normalized,
// the mask is consumed from bit 0 up: data registers, then address registers,
// stored at ascending addresses below An.
func (cpu *Cpu) opMovemSave(op uint16) (err error) {
	size := movemSize(op)
	an := fieldEaReg(op)

	stored, err := cpu.fetch16()
	if err != nil {
		return
	}

	mask := bits.Reverse16(stored)
	count := uint32(bits.OnesCount16(mask))
	top := cpu.A[an]
	address := top - count*uint32(size)

	var values [16]uint32
	for n := range 16 {
		values[n] = cpu.getListed(n)
	}

	err = cpu.probeWrite(address, count*uint32(size))
	if err != nil {
		return
	}

	for n := range 16 {
		if (mask & (1 << n)) == 0 {
			continue
		}
		err = cpu.write(address, size, values[n])
		if err != nil {
			return
		}
		address += uint32(size)
	}

	cpu.A[an] = top - count*uint32(size)
	cpu.mnemonic("movem%v %s, -(A%d)", size, regList(mask), an)
	return
}

// movem.[wl] (An)+,list
//
// The mask is consumed from bit 15 down: address registers, then data
// registers, loaded from descending addresses. Word loads are sign-extended.
func (cpu *Cpu) opMovemRestore(op uint16) (err error) {
	size := movemSize(op)
	an := fieldEaReg(op)

	mask, err := cpu.fetch16()
	if err != nil {
		return
	}

	count := uint32(bits.OnesCount16(mask))
	base := cpu.A[an]
	address := base + count*uint32(size)

	for n := 15; n >= 0; n-- {
		if (mask & (1 << n)) == 0 {
			continue
		}
		address -= uint32(size)
		var value uint32
		value, err = cpu.read(address, size)
		if err != nil {
			return
		}
		cpu.setListed(n, size.Extend(value))
	}

	cpu.A[an] = base + count*uint32(size)
	cpu.mnemonic("movem%v (A%d)+, %s", size, an, regList(mask))
	return
}

// clr.[bwl] <ea>
func (cpu *Cpu) opClr(op uint16) (err error) {
	size, _ := sizeField(op)
	if fieldEaMode(op) == 1 {
		err = ErrAddressingMode
		return
	}

	dst, err := cpu.writeEA(fieldEaMode(op), fieldEaReg(op), size, 0)
	if err != nil {
		return
	}

	cpu.setLogicFlags(0, size)
	cpu.mnemonic("clr%v %s", size, dst)
	return
}

// tst.[bwl] <ea>
func (cpu *Cpu) opTst(op uint16) (err error) {
	size, _ := sizeField(op)
	if fieldEaMode(op) == 1 {
		err = ErrAddressingMode
		return
	}

	value, src, err := cpu.readEA(fieldEaMode(op), fieldEaReg(op), size)
	if err != nil {
		return
	}

	cpu.setLogicFlags(value, size)
	cpu.mnemonic("tst%v %s", size, src)
	return
}

// dbcc Dn,<label>
//
// The branch base is the address of the displacement word.
func (cpu *Cpu) opDbcc(op uint16) (err error) {
	cc := (op >> 8) & 0xf
	dn := fieldEaReg(op)

	base := cpu.Pc
	ext, err := cpu.fetch16()
	if err != nil {
		return
	}
	target := base + uint32(int32(int16(ext)))

	name := "db" + conditionNames[cc]
	if cc == 1 {
		name = "dbra"
	}
	cpu.mnemonic("%s D%d, %06x", name, dn, target)

	if cpu.condition(cc) {
		return
	}

	count := cpu.D[dn].Word() - 1
	cpu.D[dn].SetWord(count)
	if count != 0xffff {
		cpu.Pc = target
	}

	return
}

// addQuick applies addq/subq.
func (cpu *Cpu) addQuick(op uint16, name string, sign uint32) (err error) {
	size, _ := sizeField(op)
	data := uint32(fieldReg9(op))
	if data == 0 {
		data = 8
	}
	delta := data * sign

	mode := fieldEaMode(op)
	reg := fieldEaReg(op)

	if mode == 1 {
		// Address registers always operate on all 32 bits.
		if size == SIZE_BYTE {
			err = ErrAddressingMode
			return
		}
		cpu.A[reg] += delta
		cpu.mnemonic("%s%v #%d, A%d", name, size, data, reg)
		return
	}

	ea, err := cpu.resolve(mode, reg, size)
	if err != nil {
		return
	}
	value, err := cpu.load(ea)
	if err != nil {
		return
	}
	err = cpu.store(ea, value+delta)
	if err != nil {
		return
	}

	cpu.mnemonic("%s%v #%d, %s", name, size, data, ea.text)
	return
}

// addq #n,<ea>
func (cpu *Cpu) opAddq(op uint16) (err error) {
	return cpu.addQuick(op, "addq", 1)
}

// subq #n,<ea>
func (cpu *Cpu) opSubq(op uint16) (err error) {
	return cpu.addQuick(op, "subq", ^uint32(0))
}

// branchTarget decodes a bcc/bsr displacement. Both the 8-bit form in the
// opcode and the 16-bit extension form are relative to the address
// following the opcode word.
func (cpu *Cpu) branchTarget(op uint16) (target uint32, suffix string, err error) {
	base := cpu.Pc

	switch disp := uint8(op); disp {
	case 0x00:
		var ext uint16
		ext, err = cpu.fetch16()
		if err != nil {
			return
		}
		target = base + uint32(int32(int16(ext)))
	case 0xff:
		err = ErrBranchLong
	default:
		target = base + uint32(int32(int8(disp)))
		suffix = ".s"
	}

	return
}

// bsr <label>
func (cpu *Cpu) opBsr(op uint16) (err error) {
	target, suffix, err := cpu.branchTarget(op)
	if err != nil {
		return
	}

	err = cpu.push32(cpu.Pc)
	if err != nil {
		return
	}

	cpu.Pc = target
	cpu.mnemonic("bsr%s %06x", suffix, target)
	return
}

// bcc <label>
func (cpu *Cpu) opBcc(op uint16) (err error) {
	cc := (op >> 8) & 0xf

	target, suffix, err := cpu.branchTarget(op)
	if err != nil {
		return
	}

	name := "b" + conditionNames[cc]
	if cc == 0 {
		name = "bra"
	}
	cpu.mnemonic("%s%s %06x", name, suffix, target)

	if cpu.condition(cc) {
		cpu.Pc = target
	}
	return
}

// add.l Dy,Dx
func (cpu *Cpu) opAddRegReg(op uint16) (err error) {
	dx := fieldReg9(op)
	dy := fieldEaReg(op)

	cpu.D[dx].SetLong(cpu.D[dx].Long() + cpu.D[dy].Long())
	cpu.mnemonic("add.l D%d, D%d", dy, dx)
	return
}

// addressArith applies adda/suba.
func (cpu *Cpu) addressArith(op uint16, name string, sign uint32) (err error) {
	size := SIZE_WORD
	if (op & 0x100) != 0 {
		size = SIZE_LONG
	}
	an := fieldReg9(op)

	value, src, err := cpu.readEA(fieldEaMode(op), fieldEaReg(op), size)
	if err != nil {
		return
	}

	cpu.A[an] += size.Extend(value) * sign
	cpu.mnemonic("%s%v %s, A%d", name, size, src, an)
	return
}

// adda.[wl] <ea>,An
func (cpu *Cpu) opAdda(op uint16) (err error) {
	return cpu.addressArith(op, "adda", 1)
}

// suba.[wl] <ea>,An
func (cpu *Cpu) opSuba(op uint16) (err error) {
	return cpu.addressArith(op, "suba", ^uint32(0))
}

// suba.l An,A0
func (cpu *Cpu) opSubaA0(op uint16) (err error) {
	an := fieldEaReg(op)

	cpu.A[0] -= cpu.A[an]
	cpu.mnemonic("suba.l A%d, A0", an)
	return
}

// dataArith applies add/sub in either direction.
func (cpu *Cpu) dataArith(op uint16, name string, sign uint32) (err error) {
	size, _ := sizeField(op)
	dn := fieldReg9(op)

	if (op & 0x100) == 0 {
		// <ea>,Dn
		var value uint32
		var src string
		value, src, err = cpu.readEA(fieldEaMode(op), fieldEaReg(op), size)
		if err != nil {
			return
		}
		cpu.D[dn].Set(size, cpu.D[dn].Get(size)+value*sign)
		cpu.mnemonic("%s%v %s, D%d", name, size, src, dn)
		return
	}

	// Dn,<ea>
	ea, err := cpu.resolve(fieldEaMode(op), fieldEaReg(op), size)
	if err != nil {
		return
	}
	value, err := cpu.load(ea)
	if err != nil {
		return
	}
	err = cpu.store(ea, value+cpu.D[dn].Get(size)*sign)
	if err != nil {
		return
	}

	cpu.mnemonic("%s%v D%d, %s", name, size, dn, ea.text)
	return
}

// add.[bwl]
func (cpu *Cpu) opAdd(op uint16) (err error) {
	return cpu.dataArith(op, "add", 1)
}

// sub.[bwl]
func (cpu *Cpu) opSub(op uint16) (err error) {
	return cpu.dataArith(op, "sub", ^uint32(0))
}

// cmpm.[bwl] (Ay)+,(Ax)+
func (cpu *Cpu) opCmpm(op uint16) (err error) {
	size, _ := sizeField(op)
	ax := fieldReg9(op)
	ay := fieldEaReg(op)

	src, srcText, err := cpu.readEA(3, ay, size)
	if err != nil {
		return
	}
	dst, dstText, err := cpu.readEA(3, ax, size)
	if err != nil {
		return
	}

	cpu.setCompareFlags(dst, src, size)
	cpu.mnemonic("cmpm%v %s, %s", size, srcText, dstText)
	return
}

// cmp.[bwl] <ea>,Dn
func (cpu *Cpu) opCmp(op uint16) (err error) {
	size, _ := sizeField(op)
	dn := fieldReg9(op)

	src, text, err := cpu.readEA(fieldEaMode(op), fieldEaReg(op), size)
	if err != nil {
		return
	}

	cpu.setCompareFlags(cpu.D[dn].Get(size), src, size)
	cpu.mnemonic("cmp%v %s, D%d", size, text, dn)
	return
}

// bitTest sets Z from a bit of a data register (modulo 32) or a memory
// byte (modulo 8).
func (cpu *Cpu) bitTest(op uint16, bit uint32) (text string, err error) {
	mode := fieldEaMode(op)
	reg := fieldEaReg(op)

	var value uint32
	if mode == 0 {
		bit %= 32
		value = cpu.D[reg].Long()
		text = fmt.Sprintf("D%d", reg)
	} else {
		bit %= 8
		value, text, err = cpu.readEA(mode, reg, SIZE_BYTE)
		if err != nil {
			return
		}
	}

	cpu.SetFlag(SR_Z, (value&(1<<bit)) == 0)
	return
}

// btst #n,<ea>
func (cpu *Cpu) opBtstImm(op uint16) (err error) {
	ext, err := cpu.fetch16()
	if err != nil {
		return
	}
	bit := uint32(ext & 0xff)

	text, err := cpu.bitTest(op, bit)
	if err != nil {
		return
	}

	cpu.mnemonic("btst #%d, %s", bit, text)
	return
}

// btst Dn,<ea>
func (cpu *Cpu) opBtstReg(op uint16) (err error) {
	dn := fieldReg9(op)

	text, err := cpu.bitTest(op, cpu.D[dn].Long())
	if err != nil {
		return
	}

	cpu.mnemonic("btst D%d, %s", dn, text)
	return
}

// immediateArith applies addi/subi.
func (cpu *Cpu) immediateArith(op uint16, name string, sign uint32) (err error) {
	size, _ := sizeField(op)
	if fieldEaMode(op) == 1 {
		err = ErrAddressingMode
		return
	}

	imm, immText, err := cpu.readEA(7, 4, size)
	if err != nil {
		return
	}

	ea, err := cpu.resolve(fieldEaMode(op), fieldEaReg(op), size)
	if err != nil {
		return
	}
	value, err := cpu.load(ea)
	if err != nil {
		return
	}
	err = cpu.store(ea, value+imm*sign)
	if err != nil {
		return
	}

	cpu.mnemonic("%s%v %s, %s", name, size, immText, ea.text)
	return
}

// addi #imm,<ea>
func (cpu *Cpu) opAddi(op uint16) (err error) {
	return cpu.immediateArith(op, "addi", 1)
}

// subi #imm,<ea>
func (cpu *Cpu) opSubi(op uint16) (err error) {
	return cpu.immediateArith(op, "subi", ^uint32(0))
}

// cmpi #imm,<ea>
func (cpu *Cpu) opCmpi(op uint16) (err error) {
	size, _ := sizeField(op)
	if fieldEaMode(op) == 1 {
		err = ErrAddressingMode
		return
	}

	imm, immText, err := cpu.readEA(7, 4, size)
	if err != nil {
		return
	}

	dst, text, err := cpu.readEA(fieldEaMode(op), fieldEaReg(op), size)
	if err != nil {
		return
	}

	cpu.setCompareFlags(dst, imm, size)
	cpu.mnemonic("cmpi%v %s, %s", size, immText, text)
	return
}

package cpu

// Rule is a single instruction decode rule.
type Rule struct {
	Name  string             // Rule name, for diagnostics.
	Mask  uint16             // Bits of the opcode word to compare.
	Match uint16             // Expected value of the masked bits.
	Valid func(uint16) bool  // Optional secondary field check.
	exec  func(*Cpu, uint16) error
}

// Matches reports whether the rule accepts an opcode word.
func (rule *Rule) Matches(op uint16) bool {
	if (op & rule.Mask) != rule.Match {
		return false
	}
	return rule.Valid == nil || rule.Valid(op)
}

func validSize(op uint16) bool {
	_, ok := sizeField(op)
	return ok
}

func validMoveSize(op uint16) bool {
	_, ok := moveSizeField(op)
	return ok
}

func validMovea(op uint16) bool {
	size, ok := moveSizeField(op)
	return ok && size != SIZE_BYTE
}

// validAddSub rejects the register forms of Dn,<ea>, which are addx/subx.
func validAddSub(op uint16) bool {
	if !validSize(op) {
		return false
	}
	return (op&0x100) == 0 || ((op>>3)&7) >= 2
}

// validBtst rejects address register direct, which is movep.
func validBtst(op uint16) bool {
	return ((op >> 3) & 7) != 1
}

// validBcc rejects condition 'f', which is bsr.
func validBcc(op uint16) bool {
	return ((op >> 8) & 0xf) != 1
}

// rules are tried in order; the first match wins.
//
// Several narrow rules share bit patterns with a broader family and must
// come first:
//   - move.l #imm,Dn, move.l Dn,(An)+ and move.w #imm,Dn are forms of move.
//   - movea is move with an address register destination.
//   - move #imm,SR is a form of move to SR.
//   - jsr abs.l is a form of jsr; lea abs.l,A7 is a form of lea.
//   - dbra is dbcc with condition 'f'; dbcc occupies the size 11 space of
//     addq/subq.
//   - bsr (condition 'f'), bne and beq are forms of bcc.
//   - add.l Dn,Dn and adda are forms of add; suba.l An,A0 and suba of sub.
//   - cmpm occupies the address register space of the eor/cmp row.
var rules = []*Rule{
	{Name: "move.l #imm,Dn", Mask: 0xf1ff, Match: 0x203c, exec: (*Cpu).opMoveImmLong},
	{Name: "move.l Dn,(An)+", Mask: 0xf1f8, Match: 0x20c0, exec: (*Cpu).opMoveRegPostInc},
	{Name: "move.w #imm,Dn", Mask: 0xf1ff, Match: 0x303c, exec: (*Cpu).opMoveImmWord},
	{Name: "movea", Mask: 0xc1c0, Match: 0x0040, Valid: validMovea, exec: (*Cpu).opMovea},
	{Name: "move", Mask: 0xc000, Match: 0x0000, Valid: validMoveSize, exec: (*Cpu).opMove},
	{Name: "moveq", Mask: 0xf100, Match: 0x7000, exec: (*Cpu).opMoveq},
	{Name: "move #imm,SR", Mask: 0xffff, Match: 0x46fc, exec: (*Cpu).opMoveImmSr},
	{Name: "move to SR", Mask: 0xffc0, Match: 0x46c0, exec: (*Cpu).opMoveToSr},
	{Name: "move from SR", Mask: 0xffc0, Match: 0x40c0, exec: (*Cpu).opMoveFromSr},
	{Name: "reset", Mask: 0xffff, Match: 0x4e70, exec: (*Cpu).opReset},
	{Name: "nop", Mask: 0xffff, Match: 0x4e71, exec: (*Cpu).opNop},
	{Name: "rts", Mask: 0xffff, Match: 0x4e75, exec: (*Cpu).opRts},
	{Name: "trap", Mask: 0xfff0, Match: 0x4e40, exec: (*Cpu).opTrap},
	{Name: "jsr abs.l", Mask: 0xffff, Match: 0x4eb9, exec: (*Cpu).opJsrAbsLong},
	{Name: "jsr", Mask: 0xffc0, Match: 0x4e80, exec: (*Cpu).opJsr},
	{Name: "jmp", Mask: 0xffc0, Match: 0x4ec0, exec: (*Cpu).opJmp},
	{Name: "lea abs.l,A7", Mask: 0xffff, Match: 0x4ff9, exec: (*Cpu).opLeaAbsLongA7},
	{Name: "lea", Mask: 0xf1c0, Match: 0x41c0, exec: (*Cpu).opLea},
	{Name: "movem save", Mask: 0xffb8, Match: 0x48a0, exec: (*Cpu).opMovemSave},
	{Name: "movem restore", Mask: 0xffb8, Match: 0x4c98, exec: (*Cpu).opMovemRestore},
	{Name: "clr", Mask: 0xff00, Match: 0x4200, Valid: validSize, exec: (*Cpu).opClr},
	{Name: "tst", Mask: 0xff00, Match: 0x4a00, Valid: validSize, exec: (*Cpu).opTst},
	{Name: "dbra", Mask: 0xfff8, Match: 0x51c8, exec: (*Cpu).opDbcc},
	{Name: "dbcc", Mask: 0xf0f8, Match: 0x50c8, exec: (*Cpu).opDbcc},
	{Name: "addq", Mask: 0xf100, Match: 0x5000, Valid: validSize, exec: (*Cpu).opAddq},
	{Name: "subq", Mask: 0xf100, Match: 0x5100, Valid: validSize, exec: (*Cpu).opSubq},
	{Name: "bsr", Mask: 0xff00, Match: 0x6100, exec: (*Cpu).opBsr},
	{Name: "bne", Mask: 0xff00, Match: 0x6600, exec: (*Cpu).opBcc},
	{Name: "beq", Mask: 0xff00, Match: 0x6700, exec: (*Cpu).opBcc},
	{Name: "bcc", Mask: 0xf000, Match: 0x6000, Valid: validBcc, exec: (*Cpu).opBcc},
	{Name: "add.l Dn,Dn", Mask: 0xf1f8, Match: 0xd080, exec: (*Cpu).opAddRegReg},
	{Name: "adda", Mask: 0xf0c0, Match: 0xd0c0, exec: (*Cpu).opAdda},
	{Name: "add", Mask: 0xf000, Match: 0xd000, Valid: validAddSub, exec: (*Cpu).opAdd},
	{Name: "suba.l An,A0", Mask: 0xfff8, Match: 0x91c8, exec: (*Cpu).opSubaA0},
	{Name: "suba", Mask: 0xf0c0, Match: 0x90c0, exec: (*Cpu).opSuba},
	{Name: "sub", Mask: 0xf000, Match: 0x9000, Valid: validAddSub, exec: (*Cpu).opSub},
	{Name: "cmpm", Mask: 0xf138, Match: 0xb108, Valid: validSize, exec: (*Cpu).opCmpm},
	{Name: "cmp", Mask: 0xf100, Match: 0xb000, Valid: validSize, exec: (*Cpu).opCmp},
	{Name: "btst #n", Mask: 0xffc0, Match: 0x0800, Valid: validBtst, exec: (*Cpu).opBtstImm},
	{Name: "btst Dn", Mask: 0xf1c0, Match: 0x0100, Valid: validBtst, exec: (*Cpu).opBtstReg},
	{Name: "subi", Mask: 0xff00, Match: 0x0400, Valid: validSize, exec: (*Cpu).opSubi},
	{Name: "addi", Mask: 0xff00, Match: 0x0600, Valid: validSize, exec: (*Cpu).opAddi},
	{Name: "cmpi", Mask: 0xff00, Match: 0x0c00, Valid: validSize, exec: (*Cpu).opCmpi},
}

// decodeTable caches the first matching rule for every opcode word.
var decodeTable [0x10000]*Rule

func init() {
	for op := range 0x10000 {
		for _, rule := range rules {
			if rule.Matches(uint16(op)) {
				decodeTable[op] = rule
				break
			}
		}
	}
}

// Decode returns the rule for an opcode word, or nil if none is modeled.
func Decode(op uint16) *Rule {
	return decodeTable[op]
}

// Rules returns the decode rules, in priority order.
func Rules() []*Rule {
	return rules
}

package cpu

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		op   uint16
		name string
	}){
		{0x203c, "move.l #imm,Dn"},
		{0x22c0, "move.l Dn,(An)+"},
		{0x303c, "move.w #imm,Dn"},
		{0x2040, "movea"},
		{0x3248, "movea"},
		{0x1000, "move"},
		{0x2039, "move"},
		{0x7000, "moveq"},
		{0x46fc, "move #imm,SR"},
		{0x46c0, "move to SR"},
		{0x40c0, "move from SR"},
		{0x4e70, "reset"},
		{0x4e71, "nop"},
		{0x4e75, "rts"},
		{0x4e4f, "trap"},
		{0x4eb9, "jsr abs.l"},
		{0x4e90, "jsr"},
		{0x4ed0, "jmp"},
		{0x4ff9, "lea abs.l,A7"},
		{0x41d0, "lea"},
		{0x48e7, "movem save"},
		{0x48a7, "movem save"},
		{0x4cdf, "movem restore"},
		{0x4c9f, "movem restore"},
		{0x4280, "clr"},
		{0x4a80, "tst"},
		{0x51c8, "dbra"},
		{0x56c8, "dbcc"},
		{0x5280, "addq"},
		{0x5380, "subq"},
		{0x6100, "bsr"},
		{0x6600, "bne"},
		{0x6700, "beq"},
		{0x6000, "bcc"},
		{0x6efe, "bcc"},
		{0xd081, "add.l Dn,Dn"},
		{0xd1c8, "adda"},
		{0xd040, "add"},
		{0xd390, "add"},
		{0x91c9, "suba.l An,A0"},
		{0x93c8, "suba"},
		{0x9040, "sub"},
		{0xb308, "cmpm"},
		{0xb040, "cmp"},
		{0x0800, "btst #n"},
		{0x0300, "btst Dn"},
		{0x0480, "subi"},
		{0x0680, "addi"},
		{0x0c80, "cmpi"},
	}

	for _, entry := range table {
		rule := Decode(entry.op)
		name := fmt.Sprintf("%04x", entry.op)
		if !assert.NotNil(rule, name) {
			continue
		}
		assert.Equal(entry.name, rule.Name, name)
		assert.True(rule.Matches(entry.op), name)
	}
}

func TestDecodeUnimplemented(t *testing.T) {
	assert := assert.New(t)

	for _, op := range []uint16{
		0x4afc, // illegal
		0x0040, // move with size 00
		0x0108, // movep
		0xd188, // addx
		0xa000, // line A
		0xf000, // line F
		0x4e73, // rte
	} {
		assert.Nil(Decode(op), fmt.Sprintf("%04x", op))
	}
}

func TestDecodeTableFirstMatch(t *testing.T) {
	assert := assert.New(t)

	for op := range 0x10000 {
		var first *Rule
		for _, rule := range Rules() {
			if rule.Matches(uint16(op)) {
				first = rule
				break
			}
		}
		if first != Decode(uint16(op)) {
			assert.Fail(fmt.Sprintf("%04x: table and rules disagree", op))
			return
		}
	}
}

func ruleNamed(name string) *Rule {
	for _, rule := range Rules() {
		if rule.Name == name {
			return rule
		}
	}
	return nil
}

func TestDecodeOverlap(t *testing.T) {
	assert := assert.New(t)

	type variant struct {
		op    uint16
		broad string
	}

	table := map[string][]variant{}
	add := func(narrow string, op uint16, broad string) {
		table[narrow] = append(table[narrow], variant{op: op, broad: broad})
	}

	for reg := range uint16(8) {
		add("move.l #imm,Dn", 0x203c|reg<<9, "move")
		add("move.w #imm,Dn", 0x303c|reg<<9, "move")
		add("dbra", 0x51c8|reg, "dbcc")
		add("suba.l An,A0", 0x91c8|reg, "suba")
		for src := range uint16(8) {
			add("move.l Dn,(An)+", 0x20c0|reg<<9|src, "move")
			add("add.l Dn,Dn", 0xd080|reg<<9|src, "add")
		}
	}
	for disp := range uint16(256) {
		add("bsr", 0x6100|disp, "")
		add("bne", 0x6600|disp, "bcc")
		add("beq", 0x6700|disp, "bcc")
	}

	for narrow, variants := range table {
		assert.NotNil(ruleNamed(narrow), narrow)
		for _, v := range variants {
			name := fmt.Sprintf("%04x", v.op)
			rule := Decode(v.op)
			if !assert.NotNil(rule, name) {
				continue
			}
			assert.Equal(narrow, rule.Name, name)
			if len(v.broad) > 0 {
				assert.True(ruleNamed(v.broad).Matches(v.op), "%v: %v", name, v.broad)
			}
		}
	}

	// Neighbours of the narrow rules fall through to the broad family.
	for reg := range uint16(8) {
		assert.Equal("suba", Decode(0x93c8|reg).Name)
		assert.Equal("movea", Decode(0x207c|reg<<9).Name)
		for src := range uint16(8) {
			assert.Equal("add", Decode(0xd040|reg<<9|src).Name)
			assert.Equal("move", Decode(0x2080|reg<<9|src).Name)
		}
		for cc := range uint16(16) {
			if cc != 1 {
				assert.Equal("dbcc", Decode(0x50c8|cc<<8|reg).Name)
			}
		}
	}
	for cc := range uint16(16) {
		if cc >= 2 && cc != 6 && cc != 7 {
			assert.Equal("bcc", Decode(0x6000|cc<<8|0x10).Name)
		}
	}
}

package io

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRam(t *testing.T) {
	assert := assert.New(t)

	ram := NewRam("ram", 16)
	assert.Equal(uint32(16), ram.Size())

	assert.NoError(ram.Write8(0, 0x12))
	assert.NoError(ram.Write8(15, 0x34))

	value, err := ram.Read8(0)
	assert.NoError(err)
	assert.Equal(uint8(0x12), value)

	value, err = ram.Read8(15)
	assert.NoError(err)
	assert.Equal(uint8(0x34), value)

	ram.Reset()
	value, err = ram.Read8(15)
	assert.NoError(err)
	assert.Equal(uint8(0), value)
}

func TestRam_OutOfRange(t *testing.T) {
	assert := assert.New(t)

	ram := NewRam("sram", 16)

	_, err := ram.Read8(16)
	assert.True(errors.Is(err, ErrOutOfRange))

	err = ram.Write8(0x100, 0)
	assert.True(errors.Is(err, ErrOutOfRange))

	var access *ErrAccess
	assert.True(errors.As(err, &access))
	assert.Equal("sram", access.Device)
	assert.Equal(uint32(0x100), access.Offset)
	assert.Contains(err.Error(), "sram+0x100")
}

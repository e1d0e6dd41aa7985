package io

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStub(t *testing.T) {
	assert := assert.New(t)

	stub := &Stub{Name: "crtc", Size: 0x2000}

	assert.NoError(stub.Write8(0x28, 0x55))
	value, err := stub.Read8(0x28)
	assert.NoError(err)
	assert.Equal(uint8(0), value)

	assert.Equal(1, stub.Reads)
	assert.Equal(1, stub.Writes)

	_, err = stub.Read8(0x2000)
	assert.True(errors.Is(err, ErrOutOfRange))
	assert.True(errors.Is(stub.Write8(0x2000, 0), ErrOutOfRange))
	assert.Equal(1, stub.Reads)

	stub.Reset()
	assert.Equal(0, stub.Reads)
	assert.Equal(0, stub.Writes)

	count := 0
	for range stub.Defines() {
		count++
	}
	assert.Equal(0, count)
}

package io

import (
	"errors"
	"fmt"

	"github.com/ezrec/x68k/translate"
)

var f = translate.From

var (
	// Device errors
	ErrReadOnly   = errors.New(f("device is read only"))
	ErrOutOfRange = errors.New(f("offset out of range"))
)

// ErrAccess records the device offset of a failed access.
type ErrAccess struct {
	Device string
	Offset uint32
	Err    error
}

func (err *ErrAccess) Error() string {
	return f("%v+%s: %v", err.Device, fmt.Sprintf("%#x", err.Offset), err.Err)
}

func (err *ErrAccess) Unwrap() error {
	return err.Err
}

package emulator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ezrec/x68k/translate"
)

var f = translate.From

var (
	ErrRamSize       = errors.New(f("ram size invalid"))
	ErrRegionOverlap = errors.New(f("memory region overlaps"))
	ErrRegionInvalid = errors.New(f("memory region invalid"))
	ErrConfigKey     = errors.New(f("unknown configuration key"))
	ErrNoIpl         = errors.New(f("no IPL image loaded"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Address uint32 // Address of the failing instruction.
	LineNo  int    // Source line of the failing instruction, if known.
	Err     error
}

func (err *ErrRuntime) Error() string {
	where := fmt.Sprintf("%06x", err.Address)
	if err.LineNo > 0 {
		return f("line %d (%s): %v", err.LineNo, where, err.Err)
	}
	return f("%s: %v", where, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// ErrConfig reports configuration keys that were not recognized.
type ErrConfig []string

func (err ErrConfig) Error() string {
	return f("%v: %s", ErrConfigKey, strings.Join(err, ", "))
}

func (err ErrConfig) Is(target error) bool {
	return target == ErrConfigKey
}

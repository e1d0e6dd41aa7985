package cpu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ezrec/x68k/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrOpcodeUnimplemented = errors.New(f("unimplemented opcode"))
	ErrAddressUnmapped     = errors.New(f("unmapped address"))
	ErrAddressingMode      = errors.New(f("addressing mode not modeled"))
	ErrBranchLong          = errors.New(f("32-bit branch displacement"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrOrgBackwards       = errors.New(f(".org before current address"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrOpcodeSize         = errors.New(f("size invalid"))
	ErrOperandInvalid     = errors.New(f("operand invalid"))
	ErrRegisterInvalid    = errors.New(f("register invalid"))
	ErrRegisterList       = errors.New(f("register list invalid"))
	ErrRangeImmediate     = errors.New(f("immediate out of range"))
	ErrRangeDisplacement  = errors.New(f("displacement out of range"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
)

// ErrUnimplemented is raised when an instruction, or one of its operand
// forms, is not modeled by the core.
type ErrUnimplemented struct {
	Address uint32   // Address of the opcode word.
	Words   []uint16 // Instruction words consumed before the failure.
	Err     error    // Detail, if any.
}

func (err *ErrUnimplemented) Error() string {
	words := make([]string, len(err.Words))
	for n, word := range err.Words {
		words[n] = fmt.Sprintf("%04x", word)
	}
	detail := ErrOpcodeUnimplemented
	if err.Err != nil {
		detail = err.Err
	}
	return f("%06x: [%s] %v", err.Address, strings.Join(words, " "), detail)
}

func (err *ErrUnimplemented) Unwrap() error {
	return err.Err
}

func (err *ErrUnimplemented) Is(target error) bool {
	return target == ErrOpcodeUnimplemented
}

// ErrUnmapped is raised when the bus can not satisfy an access.
type ErrUnmapped struct {
	Address uint32 // Faulting bus address.
	Write   bool   // Set for write accesses.
	Err     error  // Reason given by the bus, if any.
}

func (err *ErrUnmapped) Error() string {
	access := "read"
	if err.Write {
		access = "write"
	}
	if err.Err != nil {
		return f("%06x: %v %v: %v", err.Address, ErrAddressUnmapped, access, err.Err)
	}
	return f("%06x: %v %v", err.Address, ErrAddressUnmapped, access)
}

func (err *ErrUnmapped) Unwrap() error {
	return err.Err
}

func (err *ErrUnmapped) Is(target error) bool {
	return target == ErrAddressUnmapped
}

// ErrLabelMissing is raised when a referenced label is never defined.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrSyntax locates an assembler error.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseCharacter string

func (err ErrParseCharacter) Error() string {
	return f("'%v' is not a character", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}

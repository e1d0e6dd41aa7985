// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"math/bits"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":           "0",
	"ADDRESS_MASK":     fmt.Sprintf("%#x", ADDRESS_MASK),
	"TRAP_VECTOR_BASE": fmt.Sprintf("%#x", TRAP_VECTOR_BASE),
}

var (
	reCharacter    = regexp.MustCompile(`'\\?[^']'`)
	reParen        = regexp.MustCompile(`\$\(([^()]|\([^()]*\))*\)`)
	reToken        = regexp.MustCompile(`\$[0-9A-Fa-f]+|%[01]+|[0-9][A-Za-z0-9_]*|[A-Za-z_][A-Za-z0-9_]*`)
	reLabel        = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	reDisplacement = regexp.MustCompile(`^(.*)\(([^()]*)\)$`)
)

// Assembler is a single pass macro assembler for the MC68000 instruction subset.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]uint32   // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	address uint32 // Address of the next opcode.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	text := word
	invert := false
	negate := false
	if strings.HasPrefix(text, "~") {
		invert = true
		text = text[1:]
	}
	if strings.HasPrefix(text, "-") {
		negate = true
		text = text[1:]
	}
	if len(text) == 0 {
		err = ErrParseNumber(word)
		return
	}
	if text[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(text)
		return
	}

	var v64 uint64
	switch text[0] {
	case '$':
		v64, err = strconv.ParseUint(text[1:], 16, 32)
	case '%':
		v64, err = strconv.ParseUint(text[1:], 2, 32)
	default:
		v64, err = strconv.ParseUint(text, 0, 32)
	}
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = int64(v64)
	if negate {
		value = -value
	}
	if invert {
		value = int64(^uint32(value))
	}

	return
}

// fits reports whether a value is representable, signed or unsigned, in a size.
func fits(value int64, size Size) bool {
	width := int(size) * 8
	return value >= -(int64(1)<<(width-1)) && value < (int64(1)<<width)
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint32, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v64 int64
		v64, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	for key, address := range asm.Label {
		pred[key] = starlark.MakeInt64(int64(address))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint32(st_int64)
	return
}

// splitOperands splits an operand field on commas outside of parentheses.
func splitOperands(text string) (operands []string) {
	if len(text) == 0 {
		return
	}

	depth := 0
	start := 0
	for n, ch := range text {
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				operands = append(operands, text[start:n])
				start = n + 1
			}
		}
	}
	operands = append(operands, text[start:])

	return
}

// substitute replaces equates in an operand. Numeric literals are matched
// whole, so hex digits are never taken for an identifier.
func (asm *Assembler) substitute(text string) string {
	return reToken.ReplaceAllStringFunc(text, func(word string) string {
		if !reLabel.MatchString(word) {
			return word
		}
		equate, ok := asm.Equate[word]
		if ok {
			return equate
		}
		return word
	})
}

// parseLine parses a single line into a mnemonic and its operands.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			case "0":
				str = "\000"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#x", value)
	})
	if err != nil {
		return
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	// .equ CONST VALUE
	if fields[0] == ".equ" {
		if len(fields) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[fields[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[fields[1]] = asm.substitute(fields[2])
		return
	}

	for strings.HasSuffix(fields[0], ":") {
		label := fields[0][:len(fields[0])-1]
		if !reLabel.MatchString(label) {
			err = ErrOperandInvalid
			return
		}
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]uint32, 16)
		}
		asm.Label[label] = asm.address
		fields = fields[1:]
		if len(fields) == 0 {
			return
		}
	}

	name := fields[0]
	operands := splitOperands(strings.Join(fields[1:], ""))
	for n, operand := range operands {
		operands[n] = asm.substitute(operand)
	}

	// .macro processing
	macro, ok := asm.Macro[name]
	if ok {
		if len(operands) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = operands[n]
		}
		defer func() { asm.Equate = old_equate }()

		// Local labels are unique per invocation.
		local := fmt.Sprintf("%v_%v_", name, lineno)
		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	words = append([]string{name}, operands...)
	return
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	asm.address = 0
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = splitOperands(strings.Join(words[2:], ""))
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]
		for _, link := range op.Links {
			address, ok := asm.Label[link.Label]
			if !ok {
				line = strings.Join(op.Words, " ")
				lineno = op.LineNo
				err = ErrLabelMissing(link.Label)
				return
			}
			err = link.patch(op, address)
			if err != nil {
				line = strings.Join(op.Words, " ")
				lineno = op.LineNo
				return
			}
		}
		op.Links = nil
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// patch resolves a link against its target address.
func (link Link) patch(op *Opcode, target uint32) (err error) {
	if link.Index >= len(op.Codes) {
		log.Fatalf("Unable to link label '%s' to line %d: %v", link.Label, op.LineNo, op.Words)
	}

	disp := int64(target) - int64(link.Base)

	switch link.Kind {
	case LINK_ABS_LONG:
		op.Codes[link.Index] = uint16(target >> 16)
		op.Codes[link.Index+1] = uint16(target)
	case LINK_REL_WORD:
		if disp < -0x8000 || disp > 0x7fff {
			err = ErrRangeDisplacement
			return
		}
		op.Codes[link.Index] = uint16(int16(disp))
	case LINK_REL_BYTE:
		// 0x00 and 0xff select the word and long forms.
		if disp < -0x80 || disp > 0x7f || disp == 0 || disp == -1 {
			err = ErrRangeDisplacement
			return
		}
		op.Codes[link.Index] = (op.Codes[link.Index] & 0xff00) | uint16(uint8(int8(disp)))
	}

	return
}

// asmOperand is a parsed effective address operand.
type asmOperand struct {
	mode uint16   // Mode field.
	reg  uint16   // Register field.
	ext  []uint16 // Extension words.

	label string   // Label reference, if any.
	kind  LinkKind // Encoding of the label reference.

	sr   bool   // Status register.
	list uint16 // Register list, D0 at bit 0.
}

func (ea *asmOperand) field() uint16 {
	return (ea.mode << 3) | ea.reg
}

func (ea *asmOperand) is(modes ...Mode) bool {
	return slices.Contains(modes, decodeMode(ea.mode, ea.reg))
}

// control reports whether the operand is a control addressing mode.
func (ea *asmOperand) control() bool {
	return ea.is(MODE_INDIRECT, MODE_DISP, MODE_ABS_SHORT, MODE_ABS_LONG, MODE_PC_DISP)
}

// parseRegister parses a data or address register name.
func parseRegister(word string) (reg uint16, addr bool, ok bool) {
	word = strings.ToLower(word)
	if word == "sp" {
		return 7, true, true
	}
	if len(word) != 2 || word[1] < '0' || word[1] > '7' {
		return
	}
	switch word[0] {
	case 'd':
		return uint16(word[1] - '0'), false, true
	case 'a':
		return uint16(word[1] - '0'), true, true
	}
	return
}

// parseRegisterList parses a movem register list, such as 'd0-d3/a0/a6'.
func parseRegisterList(text string) (mask uint16, err error) {
	for _, group := range strings.Split(text, "/") {
		first, last, ranged := strings.Cut(group, "-")
		if !ranged {
			last = first
		}
		lo, lo_addr, ok := parseRegister(first)
		if !ok {
			err = ErrRegisterList
			return
		}
		hi, hi_addr, ok := parseRegister(last)
		if !ok || lo_addr != hi_addr || hi < lo {
			err = ErrRegisterList
			return
		}
		for reg := lo; reg <= hi; reg++ {
			if lo_addr {
				mask |= 1 << (reg + 8)
			} else {
				mask |= 1 << reg
			}
		}
	}

	return
}

// immediateWords encodes an immediate value for a size.
func immediateWords(value int64, size Size) (ext []uint16, err error) {
	if !fits(value, size) {
		err = ErrRangeImmediate
		return
	}
	switch size {
	case SIZE_LONG:
		ext = []uint16{uint16(value >> 16), uint16(value)}
	case SIZE_BYTE:
		ext = []uint16{uint16(value) & 0xff}
	default:
		ext = []uint16{uint16(value)}
	}
	return
}

// parseOperand parses an effective address operand, for an access of size.
func (asm *Assembler) parseOperand(text string, size Size) (ea *asmOperand, err error) {
	lower := strings.ToLower(text)
	ea = &asmOperand{}

	if lower == "sr" {
		ea.sr = true
		ea.mode = 7
		ea.reg = 7
		return
	}

	if reg, addr, ok := parseRegister(lower); ok {
		ea.reg = reg
		if addr {
			ea.mode = 1
		}
		return
	}

	// #imm
	if strings.HasPrefix(text, "#") {
		ea.mode = 7
		ea.reg = 4
		word := text[1:]
		if reLabel.MatchString(word) {
			if size != SIZE_LONG {
				err = ErrOperandInvalid
				return
			}
			ea.ext = []uint16{0, 0}
			ea.label = word
			ea.kind = LINK_ABS_LONG
			return
		}
		var value int64
		value, err = asm.valueOf(word)
		if err != nil {
			return
		}
		ea.ext, err = immediateWords(value, size)
		return
	}

	// -(An)
	if strings.HasPrefix(lower, "-(") && strings.HasSuffix(lower, ")") {
		reg, addr, ok := parseRegister(lower[2 : len(lower)-1])
		if !ok || !addr {
			err = ErrRegisterInvalid
			return
		}
		ea.mode = 4
		ea.reg = reg
		return
	}

	// (An)+
	if strings.HasPrefix(lower, "(") && strings.HasSuffix(lower, ")+") {
		reg, addr, ok := parseRegister(lower[1 : len(lower)-2])
		if !ok || !addr {
			err = ErrRegisterInvalid
			return
		}
		ea.mode = 3
		ea.reg = reg
		return
	}

	// (An), d16(An), d16(PC)
	if match := reDisplacement.FindStringSubmatch(text); match != nil {
		disp := match[1]
		base := strings.ToLower(match[2])

		if base == "pc" {
			ea.mode = 7
			ea.reg = 2
			if reLabel.MatchString(disp) {
				ea.ext = []uint16{0}
				ea.label = disp
				ea.kind = LINK_REL_WORD
				return
			}
		} else {
			reg, addr, ok := parseRegister(base)
			if !ok || !addr {
				err = ErrRegisterInvalid
				return
			}
			ea.reg = reg
			ea.mode = 5
			if len(disp) == 0 {
				ea.mode = 2
				return
			}
		}

		var value int64
		if len(disp) > 0 {
			value, err = asm.valueOf(disp)
			if err != nil {
				return
			}
		}
		if value < -0x8000 || value > 0x7fff {
			err = ErrRangeDisplacement
			return
		}
		ea.ext = []uint16{uint16(value)}
		return
	}

	// xxx.w, xxx.l, xxx
	word := text
	short := false
	switch {
	case strings.HasSuffix(lower, ".w"):
		short = true
		word = text[:len(text)-2]
	case strings.HasSuffix(lower, ".l"):
		word = text[:len(text)-2]
	}

	ea.mode = 7
	if short {
		ea.reg = 0
		var value int64
		value, err = asm.valueOf(word)
		if err != nil {
			return
		}
		// Short addresses sign extend: $0000-$7fff, or $ff8000-$ffffff.
		address := uint32(value) & ADDRESS_MASK
		signed := value >= -0x8000 && value <= 0x7fff
		if !signed && address < 0xff8000 {
			err = ErrRangeDisplacement
			return
		}
		ea.ext = []uint16{uint16(address)}
		return
	}

	ea.reg = 1
	if reLabel.MatchString(word) {
		ea.ext = []uint16{0, 0}
		ea.label = word
		ea.kind = LINK_ABS_LONG
		return
	}

	value, err := asm.valueOf(word)
	if err != nil {
		return
	}
	ea.ext = []uint16{uint16(value >> 16), uint16(value)}
	return
}

// emit assembles an opcode word and the extension words of its operands.
func (asm *Assembler) emit(op uint16, eas ...*asmOperand) (codes []uint16, links []Link) {
	codes = []uint16{op}
	for _, ea := range eas {
		if len(ea.label) > 0 {
			index := len(codes)
			links = append(links, Link{
				Label: ea.label,
				Index: index,
				Kind:  ea.kind,
				Base:  asm.address + 2*uint32(index),
			})
		}
		codes = append(codes, ea.ext...)
	}

	return
}

// conditionMap maps condition suffixes to condition codes.
var conditionMap = map[string]uint16{
	"t": 0, "f": 1, "hi": 2, "ls": 3,
	"cc": 4, "hs": 4, "cs": 5, "lo": 5,
	"ne": 6, "eq": 7, "vc": 8, "vs": 9,
	"pl": 10, "mi": 11, "ge": 12, "lt": 13,
	"gt": 14, "le": 15,
}

// sizeMap maps size suffixes.
var sizeMap = map[string]Size{
	"b": SIZE_BYTE,
	"w": SIZE_WORD,
	"l": SIZE_LONG,
}

// sizeBits returns the bits 7-6 size field.
func sizeBits(size Size) uint16 {
	switch size {
	case SIZE_BYTE:
		return 0 << 6
	case SIZE_LONG:
		return 2 << 6
	}
	return 1 << 6
}

// moveSizeBits returns the bits 13-12 move size field.
func moveSizeBits(size Size) uint16 {
	switch size {
	case SIZE_BYTE:
		return 1 << 12
	case SIZE_LONG:
		return 2 << 12
	}
	return 3 << 12
}

// parseDc assembles a .dc.[bwl] directive.
func (asm *Assembler) parseDc(size Size, args []string) (codes []uint16, links []Link, err error) {
	if len(args) == 0 {
		err = ErrOpcodeValueMissing
		return
	}

	var bytes []uint8
	for _, arg := range args {
		if size == SIZE_LONG && reLabel.MatchString(arg) {
			links = append(links, Link{
				Label: arg,
				Index: len(bytes) / 2,
				Kind:  LINK_ABS_LONG,
			})
			bytes = append(bytes, 0, 0, 0, 0)
			continue
		}
		var value int64
		value, err = asm.valueOf(arg)
		if err != nil {
			return
		}
		if !fits(value, size) {
			err = ErrRangeImmediate
			return
		}
		for n := int(size) - 1; n >= 0; n-- {
			bytes = append(bytes, uint8(value>>(8*n)))
		}
	}

	if len(bytes)%2 != 0 {
		bytes = append(bytes, 0)
	}
	for n := 0; n < len(bytes); n += 2 {
		codes = append(codes, uint16(bytes[n])<<8|uint16(bytes[n+1]))
	}

	return
}

// parseBranch assembles bra, bsr and bcc.
func (asm *Assembler) parseBranch(cc uint16, short bool, args []string) (codes []uint16, links []Link, err error) {
	if len(args) != 1 {
		err = ErrOpcodeValueMissing
		if len(args) > 1 {
			err = ErrOpcodeExtraArgs
		}
		return
	}

	op := 0x6000 | cc<<8
	link := Link{Label: args[0], Base: asm.address + 2}
	if short {
		codes = []uint16{op}
		link.Kind = LINK_REL_BYTE
		link.Index = 0
	} else {
		codes = []uint16{op, 0}
		link.Kind = LINK_REL_WORD
		link.Index = 1
	}

	if reLabel.MatchString(args[0]) {
		links = append(links, link)
		return
	}

	// Absolute numeric target.
	value, err := asm.valueOf(args[0])
	if err != nil {
		return
	}
	opcode := Opcode{Codes: codes}
	err = link.patch(&opcode, uint32(value))
	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []uint16
	var links []Link

	// no-op
	if len(words) == 0 {
		return
	}

	defer func() {
		if err != nil || len(codes) == 0 {
			return
		}
		opcode := Opcode{LineNo: lineno, Address: asm.address, Words: words, Codes: codes, Links: links}
		asm.Opcode = append(asm.Opcode, opcode)
		asm.address += opcode.Size()
	}()

	mnemonic := strings.ToLower(words[0])
	args := words[1:]

	// Directives
	switch mnemonic {
	case ".org":
		if len(args) != 1 {
			err = ErrOpcodeValueMissing
			return
		}
		var value int64
		value, err = asm.valueOf(args[0])
		if err != nil {
			return
		}
		address := uint32(value) & ADDRESS_MASK
		if (address & 1) != 0 {
			err = ErrOperandInvalid
			return
		}
		if len(asm.Opcode) > 0 && address < asm.address {
			err = ErrOrgBackwards
			return
		}
		asm.address = address
		return
	case ".dc.b":
		codes, links, err = asm.parseDc(SIZE_BYTE, args)
		return
	case ".dc.w", ".dc":
		codes, links, err = asm.parseDc(SIZE_WORD, args)
		return
	case ".dc.l":
		codes, links, err = asm.parseDc(SIZE_LONG, args)
		return
	}

	name, suffix, sized := strings.Cut(mnemonic, ".")
	size := SIZE_WORD
	short := false
	if sized {
		if suffix == "s" {
			short = true
		} else {
			var ok bool
			size, ok = sizeMap[suffix]
			if !ok {
				err = ErrOpcodeSize
				return
			}
		}
	}

	operands := make([]*asmOperand, len(args))
	parse := func(count int) (err error) {
		if len(args) < count {
			return ErrOpcodeValueMissing
		}
		if len(args) > count {
			return ErrOpcodeExtraArgs
		}
		for n, arg := range args {
			operands[n], err = asm.parseOperand(arg, size)
			if err != nil {
				return
			}
		}
		return
	}

	// Branches
	if cc, ok := branchCondition(name); ok {
		codes, links, err = asm.parseBranch(cc, short, args)
		return
	}
	if short {
		err = ErrOpcodeSize
		return
	}

	// dbcc Dn,label
	if cc, ok := conditionMap[strings.TrimPrefix(name, "db")]; ok && strings.HasPrefix(name, "db") || name == "dbra" {
		if name == "dbra" {
			cc = 1
		}
		if len(args) != 2 {
			err = ErrOpcodeValueMissing
			return
		}
		reg, addr, ok := parseRegister(args[0])
		if !ok || addr {
			err = ErrRegisterInvalid
			return
		}
		target := &asmOperand{ext: []uint16{0}, label: args[1], kind: LINK_REL_WORD}
		if !reLabel.MatchString(args[1]) {
			var value int64
			value, err = asm.valueOf(args[1])
			if err != nil {
				return
			}
			disp := value - int64(asm.address+2)
			if disp < -0x8000 || disp > 0x7fff {
				err = ErrRangeDisplacement
				return
			}
			target = &asmOperand{ext: []uint16{uint16(disp)}}
		}
		codes, links = asm.emit(0x50c8|cc<<8|reg, target)
		return
	}

	switch name {
	case "nop":
		codes = []uint16{0x4e71}
	case "rts":
		codes = []uint16{0x4e75}
	case "reset":
		codes = []uint16{0x4e70}
	case "trap":
		if len(args) != 1 || !strings.HasPrefix(args[0], "#") {
			err = ErrOperandInvalid
			return
		}
		var value int64
		value, err = asm.valueOf(args[0][1:])
		if err != nil {
			return
		}
		if value < 0 || value > 15 {
			err = ErrRangeImmediate
			return
		}
		codes = []uint16{0x4e40 | uint16(value)}
	case "jmp", "jsr":
		err = parse(1)
		if err != nil {
			return
		}
		if !operands[0].control() {
			err = ErrOperandInvalid
			return
		}
		op := uint16(0x4ec0)
		if name == "jsr" {
			op = 0x4e80
		}
		codes, links = asm.emit(op|operands[0].field(), operands[0])
	case "lea":
		size = SIZE_LONG
		err = parse(2)
		if err != nil {
			return
		}
		src, dst := operands[0], operands[1]
		if !src.control() || !dst.is(MODE_ADDR_REG) {
			err = ErrOperandInvalid
			return
		}
		codes, links = asm.emit(0x41c0|dst.reg<<9|src.field(), src)
	case "moveq":
		err = parse(2)
		if err != nil {
			return
		}
		src, dst := operands[0], operands[1]
		if !src.is(MODE_IMMEDIATE) || !dst.is(MODE_DATA_REG) || len(src.label) > 0 {
			err = ErrOperandInvalid
			return
		}
		var value int64
		value, err = asm.valueOf(args[0][1:])
		if err != nil {
			return
		}
		if !fits(value, SIZE_BYTE) {
			err = ErrRangeImmediate
			return
		}
		codes = []uint16{0x7000 | dst.reg<<9 | uint16(uint8(value))}
	case "move", "movea":
		err = parse(2)
		if err != nil {
			return
		}
		src, dst := operands[0], operands[1]
		switch {
		case dst.sr:
			if src.sr || src.is(MODE_ADDR_REG) {
				err = ErrOperandInvalid
				return
			}
			codes, links = asm.emit(0x46c0|src.field(), src)
		case src.sr:
			if dst.is(MODE_ADDR_REG, MODE_IMMEDIATE, MODE_PC_DISP) {
				err = ErrOperandInvalid
				return
			}
			codes, links = asm.emit(0x40c0|dst.field(), dst)
		case dst.is(MODE_ADDR_REG):
			if size == SIZE_BYTE {
				err = ErrOpcodeSize
				return
			}
			codes, links = asm.emit(moveSizeBits(size)|dst.reg<<9|1<<6|src.field(), src)
		case name == "movea":
			err = ErrOperandInvalid
			return
		default:
			if dst.is(MODE_IMMEDIATE, MODE_PC_DISP) {
				err = ErrOperandInvalid
				return
			}
			codes, links = asm.emit(moveSizeBits(size)|dst.reg<<9|dst.mode<<6|src.field(), src, dst)
		}
	case "movem":
		if size == SIZE_BYTE {
			err = ErrOpcodeSize
			return
		}
		if len(args) != 2 {
			err = ErrOpcodeValueMissing
			return
		}
		op := uint16(0x4880)
		if size == SIZE_LONG {
			op |= 0x40
		}
		var list, ea *asmOperand
		if ea, err = asm.parseOperand(args[1], size); err == nil && ea.is(MODE_PREDEC) {
			var mask uint16
			mask, err = parseRegisterList(args[0])
			if err != nil {
				return
			}
			list = &asmOperand{ext: []uint16{bits.Reverse16(mask)}}
		} else if ea, err = asm.parseOperand(args[0], size); err == nil && ea.is(MODE_POSTINC) {
			var mask uint16
			mask, err = parseRegisterList(args[1])
			if err != nil {
				return
			}
			op |= 0x0400
			list = &asmOperand{ext: []uint16{mask}}
		} else {
			err = ErrOperandInvalid
			return
		}
		codes, links = asm.emit(op|ea.field(), list)
	case "clr", "tst":
		err = parse(1)
		if err != nil {
			return
		}
		dst := operands[0]
		if dst.sr || dst.is(MODE_ADDR_REG, MODE_IMMEDIATE) {
			err = ErrOperandInvalid
			return
		}
		op := uint16(0x4200)
		if name == "tst" {
			op = 0x4a00
		}
		codes, links = asm.emit(op|sizeBits(size)|dst.field(), dst)
	case "addq", "subq":
		err = parse(2)
		if err != nil {
			return
		}
		src, dst := operands[0], operands[1]
		if !src.is(MODE_IMMEDIATE) || len(src.label) > 0 || dst.sr || dst.is(MODE_IMMEDIATE, MODE_PC_DISP) {
			err = ErrOperandInvalid
			return
		}
		var value int64
		value, err = asm.valueOf(args[0][1:])
		if err != nil {
			return
		}
		if value < 1 || value > 8 {
			err = ErrRangeImmediate
			return
		}
		op := uint16(0x5000)
		if name == "subq" {
			op = 0x5100
		}
		codes, links = asm.emit(op|uint16(value&7)<<9|sizeBits(size)|dst.field(), dst)
	case "adda", "suba":
		err = parse(2)
		if err != nil {
			return
		}
		codes, links, err = asm.addressArith(name, size, operands[0], operands[1])
	case "addi", "subi", "cmpi":
		err = parse(2)
		if err != nil {
			return
		}
		codes, links, err = asm.immediateArith(name, size, operands[0], operands[1])
	case "add", "sub":
		err = parse(2)
		if err != nil {
			return
		}
		src, dst := operands[0], operands[1]
		op := uint16(0xd000)
		if name == "sub" {
			op = 0x9000
		}
		switch {
		case dst.is(MODE_ADDR_REG):
			codes, links, err = asm.addressArith(name+"a", size, src, dst)
		case src.sr || dst.sr:
			err = ErrOperandInvalid
		case dst.is(MODE_DATA_REG):
			if size == SIZE_BYTE && src.is(MODE_ADDR_REG) {
				err = ErrOpcodeSize
				return
			}
			codes, links = asm.emit(op|dst.reg<<9|sizeBits(size)|src.field(), src)
		case src.is(MODE_DATA_REG):
			if dst.is(MODE_IMMEDIATE, MODE_PC_DISP) {
				err = ErrOperandInvalid
				return
			}
			codes, links = asm.emit(op|src.reg<<9|0x100|sizeBits(size)|dst.field(), dst)
		case src.is(MODE_IMMEDIATE):
			codes, links, err = asm.immediateArith(name+"i", size, src, dst)
		default:
			err = ErrOperandInvalid
		}
	case "cmp":
		err = parse(2)
		if err != nil {
			return
		}
		src, dst := operands[0], operands[1]
		switch {
		case src.sr || dst.sr:
			err = ErrOperandInvalid
		case dst.is(MODE_DATA_REG):
			codes, links = asm.emit(0xb000|dst.reg<<9|sizeBits(size)|src.field(), src)
		case src.is(MODE_IMMEDIATE):
			codes, links, err = asm.immediateArith("cmpi", size, src, dst)
		default:
			err = ErrOperandInvalid
		}
	case "cmpm":
		err = parse(2)
		if err != nil {
			return
		}
		src, dst := operands[0], operands[1]
		if !src.is(MODE_POSTINC) || !dst.is(MODE_POSTINC) {
			err = ErrOperandInvalid
			return
		}
		codes = []uint16{0xb108 | dst.reg<<9 | sizeBits(size) | src.reg}
	case "btst":
		size = SIZE_BYTE
		err = parse(2)
		if err != nil {
			return
		}
		src, dst := operands[0], operands[1]
		if dst.sr || dst.is(MODE_ADDR_REG) {
			err = ErrOperandInvalid
			return
		}
		switch {
		case src.is(MODE_DATA_REG):
			codes, links = asm.emit(0x0100|src.reg<<9|dst.field(), dst)
		case src.is(MODE_IMMEDIATE) && len(src.label) == 0:
			if dst.is(MODE_IMMEDIATE) {
				err = ErrOperandInvalid
				return
			}
			codes, links = asm.emit(0x0800|dst.field(), src, dst)
		default:
			err = ErrOperandInvalid
		}
	default:
		err = ErrInstructionInvalid
	}

	return
}

// branchCondition maps bra, bsr and bcc mnemonics to their condition field.
func branchCondition(name string) (cc uint16, ok bool) {
	switch name {
	case "bra":
		return 0, true
	case "bsr":
		return 1, true
	}
	if !strings.HasPrefix(name, "b") {
		return
	}
	cc, ok = conditionMap[name[1:]]
	if cc < 2 {
		ok = false
	}
	return
}

// addressArith assembles adda and suba.
func (asm *Assembler) addressArith(name string, size Size, src, dst *asmOperand) (codes []uint16, links []Link, err error) {
	if !dst.is(MODE_ADDR_REG) || src.sr {
		err = ErrOperandInvalid
		return
	}
	if size == SIZE_BYTE {
		err = ErrOpcodeSize
		return
	}

	op := uint16(0xd0c0)
	if name == "suba" {
		op = 0x90c0
	}
	if size == SIZE_LONG {
		op |= 0x100
	}

	codes, links = asm.emit(op|dst.reg<<9|src.field(), src)
	return
}

// immediateArith assembles addi, subi and cmpi.
func (asm *Assembler) immediateArith(name string, size Size, src, dst *asmOperand) (codes []uint16, links []Link, err error) {
	if !src.is(MODE_IMMEDIATE) || dst.sr || dst.is(MODE_ADDR_REG, MODE_IMMEDIATE, MODE_PC_DISP) {
		err = ErrOperandInvalid
		return
	}

	var op uint16
	switch name {
	case "addi":
		op = 0x0600
	case "subi":
		op = 0x0400
	case "cmpi":
		op = 0x0c00
	}

	codes, links = asm.emit(op|sizeBits(size)|dst.field(), src, dst)
	return
}

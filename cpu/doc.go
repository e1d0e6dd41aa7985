// Package cpu implements the MC68000 processor core and assembler for the x68k system.
//
// The core consists of eight data registers (D0-D7) viewable as byte, word, or
// long, eight address registers (A0-A7, A7 being the stack pointer), a program
// counter, and a status register. Every instruction is fetched, decoded against
// an ordered rule table, and executed against a byte-wide Bus supplied by the
// host platform.
//
// The assembler accepts a Motorola style syntax for the modeled instruction
// subset, supporting macros, labels, equates, and compile-time expression
// evaluation.
package cpu

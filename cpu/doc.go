// Package cpu implements the processor and assembler for the rum machine.
//
// The CPU consists of an instruction pointer (IP), eight 32-bit
// general-purpose registers (r0-r7), a segmented word memory, and a byte
// console. Instructions are single 32-bit words, fetched from segment 0
// of memory. The upper four bits of each word select one of fourteen
// operations.
//
// The assembler provides a small assembly language for the instruction
// set, supporting macros, labels, equates, and compile-time expression
// evaluation.
package cpu

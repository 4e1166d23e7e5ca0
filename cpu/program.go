package cpu

import (
	"iter"
	"slices"
	"strings"
)

// Line is a line of assembled code with its source location and generated instructions.
type Line struct {
	LineNo    int
	Ip        int
	Words     []string
	Codes     []Code
	LinkLabel string
}

type Program struct {
	Opcodes []Line
}

type Debug struct {
	*Line
	Index int
}

// ProgramOf builds a listing from a binary image, one opcode per word.
func ProgramOf(words []uint32) (prog *Program) {
	prog = &Program{
		Opcodes: make([]Line, 0, len(words)),
	}

	for ip, word := range words {
		code := Decode(word)
		prog.Opcodes = append(prog.Opcodes, Line{
			Ip:    ip,
			Words: strings.Fields(code.String()),
			Codes: []Code{code},
		})
	}

	return
}

// Debug finds the line that generated the instruction at ip.
// Opcodes must be sorted by Ip, as the assembler and ProgramOf produce them.
func (prog *Program) Debug(ip uint32) (dbg Debug) {
	n, ok := slices.BinarySearchFunc(prog.Opcodes, uint64(ip), func(line Line, ip uint64) int {
		switch {
		case ip < uint64(line.Ip):
			return 1
		case ip >= uint64(line.Ip+len(line.Codes)):
			return -1
		}
		return 0
	})
	if !ok {
		return
	}

	dbg = Debug{
		Line:  &prog.Opcodes[n],
		Index: int(ip) - prog.Opcodes[n].Ip,
	}

	return
}

// Binary returns the program image.
func (prog *Program) Binary() (bins []uint32) {
	for _, code := range prog.Codes() {
		bins = append(bins, code.Word)
	}

	return
}

func (prog *Program) Codes() iter.Seq2[uint32, Code] {
	return func(yield func(ip uint32, code Code) bool) {
		for _, op := range prog.Opcodes {
			ip := uint32(op.Ip)
			for n, code := range op.Codes {
				if !yield(ip+uint32(n), code) {
					return
				}
			}
		}
	}
}

package cpu

import (
	"fmt"

	"github.com/ezrec/rum/bitpack"
)

// Opcode is the operation selected by an instruction word.
type Opcode int

//go:generate go tool stringer -linecomment -type=Opcode
const (
	OP_CMOV    = Opcode(0)  // cmov
	OP_LOAD    = Opcode(1)  // load
	OP_STORE   = Opcode(2)  // store
	OP_ADD     = Opcode(3)  // add
	OP_MUL     = Opcode(4)  // mul
	OP_DIV     = Opcode(5)  // div
	OP_NAND    = Opcode(6)  // nand
	OP_HALT    = Opcode(7)  // halt
	OP_MAP     = Opcode(8)  // map
	OP_UNMAP   = Opcode(9)  // unmap
	OP_OUTPUT  = Opcode(10) // out
	OP_INPUT   = Opcode(11) // in
	OP_LOADP   = Opcode(12) // loadp
	OP_IMM     = Opcode(13) // imm
	OP_UNKNOWN = Opcode(14) // unknown

	OPCODE_COUNT = int(OP_UNKNOWN) + 1 // Number of distinct Opcode values.
)

// Instruction word field layout.
const (
	OPCODE_LSB   = 28
	OPCODE_WIDTH = 4

	REG_WIDTH = 3
	REG_A_LSB = 6
	REG_B_LSB = 3
	REG_C_LSB = 0

	IMM_REG_LSB = 25
	IMM_LSB     = 0
	IMM_WIDTH   = 25
	IMM_MAX     = uint32(1)<<IMM_WIDTH - 1
)

// opcodeOf maps the 4-bit opcode field to an Opcode.
func opcodeOf(field uint64) Opcode {
	if field > uint64(OP_IMM) {
		return OP_UNKNOWN
	}

	return Opcode(field)
}

// Code is a single decoded instruction word.
//
// Fields that an operation does not use are absent, rather than zero.
type Code struct {
	Word uint32   // Raw instruction word.
	Op   Opcode   // Decoded operation.
	A    Register // Register A.

	b, c     Register
	hasBC    bool
	value    uint32
	hasValue bool
}

// Decode decodes an instruction word.
func Decode(word uint32) (code Code) {
	w := uint64(word)

	code.Word = word
	code.Op = opcodeOf(bitpack.ExtractUnsigned(w, OPCODE_WIDTH, OPCODE_LSB))

	switch code.Op {
	case OP_IMM:
		code.A = Register(bitpack.ExtractUnsigned(w, REG_WIDTH, IMM_REG_LSB))
		code.value = uint32(bitpack.ExtractUnsigned(w, IMM_WIDTH, IMM_LSB))
		code.hasValue = true
	default:
		code.A = Register(bitpack.ExtractUnsigned(w, REG_WIDTH, REG_A_LSB))
		code.b = Register(bitpack.ExtractUnsigned(w, REG_WIDTH, REG_B_LSB))
		code.c = Register(bitpack.ExtractUnsigned(w, REG_WIDTH, REG_C_LSB))
		code.hasBC = true
	}

	return
}

// B returns register B, if the operation has one.
func (code Code) B() (reg Register, ok bool) {
	return code.b, code.hasBC
}

// C returns register C, if the operation has one.
func (code Code) C() (reg Register, ok bool) {
	return code.c, code.hasBC
}

// Value returns the immediate value, if the operation has one.
func (code Code) Value() (value uint32, ok bool) {
	return code.value, code.hasValue
}

// Registers returns all three register fields, if the operation has them.
func (code Code) Registers() (a, b, c Register, ok bool) {
	return code.A, code.b, code.c, code.hasBC
}

// MakeCode encodes a three-register instruction.
func MakeCode(op Opcode, a, b, c Register) (code Code, err error) {
	if op < OP_CMOV || op > OP_LOADP {
		err = ErrOpcodeInvalid
		return
	}

	fields := [](struct {
		lsb   uint
		width uint
		value uint64
	}){
		{OPCODE_LSB, OPCODE_WIDTH, uint64(op)},
		{REG_A_LSB, REG_WIDTH, uint64(a)},
		{REG_B_LSB, REG_WIDTH, uint64(b)},
		{REG_C_LSB, REG_WIDTH, uint64(c)},
	}

	var word uint64
	for _, field := range fields {
		word, err = bitpack.PackUnsigned(word, field.width, field.lsb, field.value)
		if err != nil {
			err = ErrRegisterInvalid
			return
		}
	}

	code = Decode(uint32(word))

	return
}

// MakeCodeImm encodes an immediate load of value into register a.
func MakeCodeImm(a Register, value uint32) (code Code, err error) {
	word, _ := bitpack.PackUnsigned(0, OPCODE_WIDTH, OPCODE_LSB, uint64(OP_IMM))

	word, err = bitpack.PackUnsigned(word, REG_WIDTH, IMM_REG_LSB, uint64(a))
	if err != nil {
		err = ErrRegisterInvalid
		return
	}

	word, err = bitpack.PackUnsigned(word, IMM_WIDTH, IMM_LSB, uint64(value))
	if err != nil {
		err = ErrOpcodeImm
		return
	}

	code = Decode(uint32(word))

	return
}

// String returns the assembly language representation of this instruction.
func (code Code) String() (out string) {
	a, b, c, _ := code.Registers()

	switch code.Op {
	case OP_CMOV, OP_LOAD, OP_STORE, OP_ADD, OP_MUL, OP_DIV, OP_NAND:
		out = fmt.Sprintf("%v %v %v %v", code.Op, a, b, c)
	case OP_HALT:
		out = code.Op.String()
	case OP_MAP, OP_LOADP:
		out = fmt.Sprintf("%v %v %v", code.Op, b, c)
	case OP_UNMAP, OP_OUTPUT, OP_INPUT:
		out = fmt.Sprintf("%v %v", code.Op, c)
	case OP_IMM:
		value, _ := code.Value()
		out = fmt.Sprintf("%v %v %#x", code.Op, code.A, value)
	default:
		out = fmt.Sprintf(".word 0x%08x", code.Word)
	}

	return
}

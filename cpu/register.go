package cpu

import (
	"strconv"
)

const (
	REGISTER_COUNT = 8 // Number of general-purpose registers.
)

// Register is a general-purpose register index.
type Register uint8

// String returns the assembler name of the register.
func (reg Register) String() string {
	return "r" + strconv.Itoa(int(reg))
}

// Registers is the register file.
type Registers [REGISTER_COUNT]uint32

// Get returns the value of a register.
// An index outside of r0-r7 is a programming error, and panics.
func (rf *Registers) Get(reg Register) uint32 {
	if int(reg) >= len(rf) {
		panic(ErrRegisterInvalid)
	}

	return rf[reg]
}

// Set sets the value of a register.
// An index outside of r0-r7 is a programming error, and panics.
func (rf *Registers) Set(reg Register, value uint32) {
	if int(reg) >= len(rf) {
		panic(ErrRegisterInvalid)
	}

	rf[reg] = value
}

// Reset zeros all registers.
func (rf *Registers) Reset() {
	clear(rf[:])
}

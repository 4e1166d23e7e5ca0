// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/rum/cpu"
	"github.com/ezrec/rum/internal"
	"github.com/ezrec/rum/io"
	"github.com/ezrec/rum/memory"
)

var _emulator_defines = map[string]string{
	"SEGMENT_PROGRAM": fmt.Sprintf("%v", memory.SEGMENT_PROGRAM),
	"INPUT_EOF":       fmt.Sprintf("%#x", cpu.INPUT_EOF),
}

// Emulator state. CPU + memory + console tape.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.

	Tape io.Tape // Console IO channel.

	Profile [cpu.OPCODE_COUNT]int // Executed instructions, by opcode.

	replaced bool // Segment 0 no longer matches Program.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
	}

	emu.Cpu.SetConsole(&emu.Tape)

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	)
}

// Reset the emulator, and load the program listing into segment 0.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	if emu.Program == nil {
		emu.Program = &cpu.Program{}
	}

	emu.replaced = false
	clear(emu.Profile[:])

	err = emu.Cpu.Reset(emu.Program.Binary())
	if err != nil {
		return
	}

	return
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Code returns the current instruction code.
func (emu *Emulator) Code() cpu.Code {
	code, err := emu.Cpu.FetchCode()
	if err != nil {
		return cpu.Code{}
	}

	return code
}

// LineNo returns the current line number for the executing opcode.
// Programs that have replaced segment 0 report line 0.
func (emu *Emulator) LineNo() int {
	return emu.lineOf(emu.Cpu.Ip, emu.replaced)
}

func (emu *Emulator) lineOf(ip uint32, replaced bool) int {
	if replaced {
		return 0
	}

	dbg := emu.Program.Debug(ip)
	if dbg.Line == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single tick of the emulator.
// Halting reports done, and no error.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	ip := emu.Cpu.Ip
	replaced := emu.replaced
	ticks := emu.Cpu.Ticks
	defer func() {
		if err != nil {
			err = &ErrRuntime{Ip: ip, LineNo: emu.lineOf(ip, replaced), Err: err}
		}
	}()

	code, err := emu.Cpu.Step()
	if emu.Cpu.Ticks != ticks {
		emu.Profile[code.Op]++
		if code.Op == cpu.OP_LOADP {
			b, _ := code.B()
			if emu.Cpu.Register.Get(b) != memory.SEGMENT_PROGRAM {
				emu.replaced = true
			}
		}
	}

	if errors.Is(err, cpu.ErrHalt) {
		err = nil
		done = true
		return
	}

	return
}

// Run ticks the emulator until the program halts, or fails.
func (emu *Emulator) Run() (err error) {
	for {
		var done bool
		done, err = emu.Tick()
		if err != nil {
			break
		}
		if done {
			break
		}
	}

	if emu.Verbose {
		log.Printf("emulator: %v ticks, %v bytes in, %v bytes out", emu.Ticks(), emu.Tape.Received, emu.Tape.Sent)
	}

	return
}

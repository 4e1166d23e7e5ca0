package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/rum/io"
	"github.com/ezrec/rum/memory"
)

// Channel is an I/O channel interface.
type Channel io.Channel

const (
	OUTPUT_MAX = 0xff       // Largest value the output operation accepts.
	INPUT_EOF  = ^uint32(0) // Value read by the input operation at end of stream.
)

var _cpu_defines = map[string]string{
	"REGISTER_COUNT": fmt.Sprintf("%v", REGISTER_COUNT),
	"IMM_MAX":        fmt.Sprintf("0x%x", IMM_MAX),
	"OUTPUT_MAX":     fmt.Sprintf("0x%x", OUTPUT_MAX),
}

// Cpu is the simulation context for the machine.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Ip       uint32         // Current instruction pointer, an index into segment 0.
	Register Registers      // Register bank.
	Memory   *memory.Memory // Segment memory.

	Ticks int // Instructions executed since reset.

	console Channel // Console I/O channel.
}

// NewCpu creates a new CPU with an empty program.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{
		Memory: memory.NewMemory(nil),
	}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// SetConsole attaches the byte channel used by the input and output
// operations.
func (cpu *Cpu) SetConsole(channel Channel) {
	cpu.console = channel
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text += fmt.Sprintf("% 5s: %08X\n", "ip", cpu.Ip)
	for n, val := range cpu.Register {
		text += fmt.Sprintf("% 5s: %04X_%04X\n", Register(n), val>>16, val&0xffff)
	}
	text += fmt.Sprintf("% 5s: %v\n", "maps", cpu.Memory.Mapped())

	return
}

// Reset the CPU state.
// - Clears the registers.
// - Zeros statistics counters.
// - Rewinds the console.
// - Installs program as segment 0, and sets the IP to its first word.
func (cpu *Cpu) Reset(program []uint32) (err error) {
	if cpu.Verbose {
		log.Printf("cpu: reset (%d words)", len(program))
	}

	cpu.Register.Reset()
	cpu.Ticks = 0
	cpu.Ip = 0

	if cpu.Memory == nil {
		cpu.Memory = memory.NewMemory(program)
	} else {
		cpu.Memory.Reset(program)
	}
	cpu.Memory.Verbose = cpu.Verbose

	if cpu.console != nil {
		cpu.console.Rewind()
	}

	return
}

// FetchCode fetches and decodes the instruction at the IP.
func (cpu *Cpu) FetchCode() (code Code, err error) {
	word, err := cpu.Memory.Fetch(cpu.Ip)
	if err != nil {
		err = errors.Join(ErrIpRange, err)
		return
	}

	code = Decode(word)

	return
}

// Tick executes a single CPU instruction cycle.
// A halt is reported as ErrHalt.
func (cpu *Cpu) Tick() (err error) {
	_, err = cpu.Step()

	return
}

// Step executes a single CPU instruction cycle, and returns the
// instruction executed. A fetch failure leaves Ticks unchanged.
func (cpu *Cpu) Step() (code Code, err error) {
	cpu.Memory.Verbose = cpu.Verbose

	code, err = cpu.FetchCode()
	if err != nil {
		return
	}

	if cpu.Verbose {
		log.Printf("%08x: %v", cpu.Ip, code)
	}

	// Advance before execution, so that loadp replaces the next IP.
	cpu.Ip++

	err = cpu.Execute(code)

	cpu.Ticks++

	return
}

// Execute executes a single decoded instruction.
func (cpu *Cpu) Execute(code Code) (err error) {
	defer func() {
		if err != nil && err != ErrHalt {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()

	reg := &cpu.Register

	switch code.Op {
	case OP_IMM:
		value, ok := code.Value()
		if !ok {
			err = ErrOpcodeDecode
			return
		}
		reg.Set(code.A, value)
		return
	case OP_UNKNOWN:
		err = ErrOpcodeUnknown
		return
	}

	a, b, c, ok := code.Registers()
	if !ok {
		err = ErrOpcodeDecode
		return
	}

	switch code.Op {
	case OP_CMOV:
		if reg.Get(c) != 0 {
			reg.Set(a, reg.Get(b))
		}
	case OP_LOAD:
		var value uint32
		value, err = cpu.Memory.Read(reg.Get(b), reg.Get(c))
		if err != nil {
			return
		}
		reg.Set(a, value)
	case OP_STORE:
		err = cpu.Memory.Write(reg.Get(a), reg.Get(b), reg.Get(c))
	case OP_ADD:
		reg.Set(a, reg.Get(b)+reg.Get(c))
	case OP_MUL:
		reg.Set(a, reg.Get(b)*reg.Get(c))
	case OP_DIV:
		divisor := reg.Get(c)
		if divisor == 0 {
			err = ErrDivideByZero
			return
		}
		reg.Set(a, reg.Get(b)/divisor)
	case OP_NAND:
		reg.Set(a, ^(reg.Get(b) & reg.Get(c)))
	case OP_HALT:
		err = ErrHalt
	case OP_MAP:
		var address uint32
		address, err = cpu.Memory.Map(reg.Get(c))
		if err != nil {
			return
		}
		reg.Set(b, address)
	case OP_UNMAP:
		err = cpu.Memory.Unmap(reg.Get(c))
	case OP_OUTPUT:
		value := reg.Get(c)
		if value > OUTPUT_MAX {
			err = ErrOutputRange
			return
		}
		if cpu.console == nil {
			err = ErrChannelInvalid
			return
		}
		err = cpu.console.Send(byte(value))
	case OP_INPUT:
		value := INPUT_EOF
		if cpu.console != nil {
			in, ok := cpu.console.Receive()
			if ok {
				value = uint32(in)
			}
		}
		reg.Set(c, value)
	case OP_LOADP:
		address := reg.Get(b)
		if address != memory.SEGMENT_PROGRAM {
			err = cpu.Memory.LoadProgram(address)
			if err != nil {
				return
			}
		}
		cpu.Ip = reg.Get(c)
	default:
		err = ErrOpcodeDecode
	}

	return
}

package emulator

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/rum/cpu"
	rumio "github.com/ezrec/rum/io"
	"github.com/ezrec/rum/memory"
)

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.NotNil(emu.Cpu.Memory)
	assert.NoError(emu.Reset())
	assert.Equal(0, emu.Ticks())
	assert.Equal(0, emu.LineNo())

	defines := map[string]string{}
	for key, value := range emu.Defines() {
		defines[key] = value
	}
	assert.Equal("0", defines["SEGMENT_PROGRAM"])
	assert.Equal("0xffffffff", defines["INPUT_EOF"])
	assert.Equal("8", defines["REGISTER_COUNT"])
	assert.Equal("0x1ffffff", defines["IMM_MAX"])
}

// doRun assembles and runs a program to completion.
func doRun(emu *Emulator, program []string, input []byte, t *testing.T) (output []byte, err error) {
	assert := assert.New(t)

	asm := &cpu.Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if !assert.NoError(err) {
		t.FailNow()
	}
	emu.Program = prog

	err = emu.Reset()
	assert.NoError(err)

	emu.Tape.Input = bytes.NewReader(input)
	tape_output := &bytes.Buffer{}
	emu.Tape.Output = tape_output

	err = emu.Run()

	output = tape_output.Bytes()
	return
}

func TestEmulator_Single(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"imm r0 'H'",
		"out r0",
		"halt",
	}

	asm := &cpu.Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)

	emu := NewEmulator()
	emu.Program = prog
	assert.NoError(emu.Reset())

	tape_output := &bytes.Buffer{}
	emu.Tape.Output = tape_output

	for _, op := range prog.Opcodes {
		assert.Equal(op.LineNo, emu.LineNo())
		assert.Equal(op.Codes[0], emu.Code())
		done, err := emu.Tick()
		assert.NoError(err, program[op.LineNo-1])
		if op.Codes[0].Op == cpu.OP_HALT {
			assert.True(done)
		} else {
			assert.False(done)
		}
	}

	assert.Equal(3, emu.Ticks())
	assert.Equal([]byte("H"), tape_output.Bytes())

	assert.Equal(1, emu.Profile[cpu.OP_IMM])
	assert.Equal(1, emu.Profile[cpu.OP_OUTPUT])
	assert.Equal(1, emu.Profile[cpu.OP_HALT])
	assert.Equal(0, emu.Profile[cpu.OP_ADD])
}

func TestEmulator_Scenarios(t *testing.T) {
	table := [](struct {
		name    string
		program []string
		input   []byte
		output  []byte
		err     error
		lineno  int
		check   func(emu *Emulator, assert *assert.Assertions)
	}){
		{
			name:    "hello",
			program: []string{"imm r0 72", "out r0", "halt"},
			output:  []byte("H"),
		},
		{
			name: "add_wrap",
			program: []string{
				"not r1 r0     ; r1 = 0xffffffff",
				"imm r2 1",
				"add r3 r1 r2",
				"halt",
			},
			check: func(emu *Emulator, assert *assert.Assertions) {
				assert.Equal(uint32(0xffffffff), emu.Cpu.Register[1])
				assert.Equal(uint32(0), emu.Cpu.Register[3])
			},
		},
		{
			name: "divide_by_zero",
			program: []string{
				"imm r1 5",
				"div r2 r1 r0",
				"out r1",
				"halt",
			},
			err:    cpu.ErrDivideByZero,
			lineno: 2,
		},
		{
			name: "map_reuse",
			program: []string{
				"imm r1 3",
				"map r2 r1",
				"unmap r2",
				"imm r1 5",
				"map r3 r1",
				"halt",
			},
			check: func(emu *Emulator, assert *assert.Assertions) {
				assert.Equal(uint32(1), emu.Cpu.Register[2])
				assert.Equal(uint32(1), emu.Cpu.Register[3])
				count, err := emu.Cpu.Memory.Len(1)
				assert.NoError(err)
				assert.Equal(5, count)
				for n := range uint32(5) {
					value, err := emu.Cpu.Memory.Read(1, n)
					assert.NoError(err)
					assert.Equal(uint32(0), value)
				}
			},
		},
		{
			name: "loadp_jump",
			program: []string{
				"imm r1 skip",
				"loadp r0 r1",
				"imm r2 'X'",
				"out r2",
				"skip: imm r2 'Y'",
				"out r2",
				"halt",
			},
			output: []byte("Y"),
			check: func(emu *Emulator, assert *assert.Assertions) {
				binary := emu.Program.Binary()
				count, err := emu.Cpu.Memory.Len(memory.SEGMENT_PROGRAM)
				assert.NoError(err)
				assert.Equal(len(binary), count)
				for n, word := range binary {
					value, err := emu.Cpu.Memory.Read(memory.SEGMENT_PROGRAM, uint32(n))
					assert.NoError(err)
					assert.Equal(word, value, n)
				}
				assert.Equal(5, emu.Ticks())
				assert.False(emu.replaced)
			},
		},
		{
			name:    "output_range",
			program: []string{"imm r1 300", "out r1", "halt"},
			err:     cpu.ErrOutputRange,
			lineno:  2,
		},
		{
			name: "input_eof",
			program: []string{
				"in r1",
				"halt",
			},
			check: func(emu *Emulator, assert *assert.Assertions) {
				assert.Equal(cpu.INPUT_EOF, emu.Cpu.Register[1])
			},
		},
		{
			name: "self_modify",
			program: []string{
				"imm r4 'Z'",
				"imm r1 2",
				"map r2 r1",
				"imm r5 data",
				"load r6 r0 r5",
				"store r2 r0 r6",
				"imm r7 1",
				"add r5 r5 r7",
				"load r6 r0 r5",
				"store r2 r7 r6",
				"loadp r2 r0",
				"halt",
				"data: .word 0xa0000004 ; out r4",
				".word 0x70000000       ; halt",
			},
			output: []byte("Z"),
			check: func(emu *Emulator, assert *assert.Assertions) {
				count, err := emu.Cpu.Memory.Len(memory.SEGMENT_PROGRAM)
				assert.NoError(err)
				assert.Equal(2, count)
				assert.Equal(0, emu.LineNo())
			},
		},
		{
			name:    "unknown_opcode",
			program: []string{".word 0xe0000000"},
			err:     cpu.ErrOpcodeUnknown,
			lineno:  1,
		},
		{
			name:    "run_off_end",
			program: []string{"imm r0 1"},
			err:     cpu.ErrIpRange,
		},
		{
			name:    "unmap_program",
			program: []string{"unmap r0", "halt"},
			err:     memory.ErrSegmentProgram,
			lineno:  1,
		},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			emu := NewEmulator()
			output, err := doRun(emu, entry.program, entry.input, t)
			if entry.err != nil {
				assert.ErrorIs(err, entry.err)
				var runtime *ErrRuntime
				if assert.True(errors.As(err, &runtime)) && entry.lineno != 0 {
					assert.Equal(entry.lineno, runtime.LineNo)
				}
			} else {
				assert.NoError(err)
			}
			if entry.output == nil {
				assert.Empty(output)
			} else {
				assert.Equal(entry.output, output)
			}
			if entry.check != nil {
				entry.check(emu, assert)
			}
		})
	}
}

func TestEmulator_Echo(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"imm r2 loop",
		"loop: in r1",
		"imm r3 done",
		"not r4 r1       ; r4 is zero at end of stream",
		"cmov r3 r2 r4   ; r3 = loop unless at end of stream",
		"loadp r0 r3",
		"done: halt",
	}

	emu := NewEmulator()
	output, err := doRun(emu, program, []byte("ab"), t)
	assert.NoError(err)
	assert.Empty(output)
	assert.Equal(2, emu.Tape.Received)
}

func TestEmulator_Cat(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		".macro jumpz REG TARGET",
		"  imm r7 TARGET",
		"  imm r6 @next",
		"  cmov r7 r6 REG",
		"  loadp r0 r7",
		"@next:",
		".endm",
		"",
		"loop: in r1",
		"  not r2 r1",
		"  jumpz r2 done",
		"  out r1",
		"  imm r3 loop",
		"  loadp r0 r3",
		"done: halt",
	}

	emu := NewEmulator()
	output, err := doRun(emu, program, []byte("hello, world\n"), t)
	assert.NoError(err)
	assert.Equal([]byte("hello, world\n"), output)
	assert.Equal(13, emu.Tape.Sent)
}

func TestEmulator_Reset(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	output, err := doRun(emu, []string{"imm r0 'A'", "out r0", "halt"}, nil, t)
	assert.NoError(err)
	assert.Equal([]byte("A"), output)
	assert.Equal(3, emu.Ticks())

	assert.Equal(1, emu.Profile[cpu.OP_HALT])

	assert.NoError(emu.Reset())
	assert.Equal(0, emu.Ticks())
	assert.Equal([cpu.OPCODE_COUNT]int{}, emu.Profile)
	assert.Equal(uint32(0), emu.Cpu.Ip)
	assert.Equal(1, emu.LineNo())
	assert.Equal(0, emu.Tape.Sent)
}

func TestEmulator_NoConsole(t *testing.T) {
	assert := assert.New(t)

	asm := &cpu.Assembler{}
	prog, err := asm.Parse(strings.NewReader("imm r0 'A'\nout r0\nhalt\n"))
	assert.NoError(err)

	emu := NewEmulator()
	emu.Program = prog
	assert.NoError(emu.Reset())

	err = emu.Run()
	assert.ErrorIs(err, rumio.ErrChannelFull)
}

func TestEmulator_LargeImage(t *testing.T) {
	assert := assert.New(t)

	// A long run of no-op cmov words, then a loop that spins in place.
	const size = 1 << 18
	words := make([]uint32, size)
	spin, err := cpu.MakeCodeImm(1, size-1)
	assert.NoError(err)
	loop, err := cpu.MakeCode(cpu.OP_LOADP, 0, 0, 1)
	assert.NoError(err)
	words[size-2] = spin.Word
	words[size-1] = loop.Word

	emu := NewEmulator()
	emu.Program = cpu.ProgramOf(words)
	assert.NoError(emu.Reset())

	for range size + 20000 {
		done, err := emu.Tick()
		if !assert.NoError(err) || !assert.False(done) {
			break
		}
	}

	assert.Equal(size+20000, emu.Ticks())
	assert.Equal(uint32(size-1), emu.Cpu.Ip)
	assert.Equal(size-2, emu.Profile[cpu.OP_CMOV])
	assert.Equal(1, emu.Profile[cpu.OP_IMM])
	assert.Equal(20001, emu.Profile[cpu.OP_LOADP])
}

func TestEmulator_ErrorLine(t *testing.T) {
	assert := assert.New(t)

	program := make([]string, 0, 1002)
	for range 1000 {
		program = append(program, "cmov r0 r0 r0")
	}
	program = append(program, "div r2 r1 r0", "halt")

	emu := NewEmulator()
	_, err := doRun(emu, program, nil, t)

	var re *ErrRuntime
	assert.True(errors.As(err, &re))
	assert.ErrorIs(err, cpu.ErrDivideByZero)
	assert.Equal(uint32(1000), re.Ip)
	assert.Equal(1001, re.LineNo)
	assert.Equal(1000, emu.Profile[cpu.OP_CMOV])
	assert.Equal(1, emu.Profile[cpu.OP_DIV])
	assert.Equal(0, emu.Profile[cpu.OP_HALT])
}

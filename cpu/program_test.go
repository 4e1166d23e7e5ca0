package cpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Line{
			{LineNo: 1, Ip: 0, Words: []string{"imm", "r0", "0x10"},
				Codes: []Code{mustImm(0, 0x10)}},
			{LineNo: 2, Ip: 1, Words: []string{"imm", "r1", "0x20"},
				Codes: []Code{mustImm(1, 0x20)}},
			{LineNo: 3, Ip: 2, Words: []string{"add", "r0", "r0", "r1"},
				Codes: []Code{mustCode(OP_ADD, 0, 0, 1)}},
		},
	}

	for ip := range uint32(3) {
		dbg := prog.Debug(ip)
		assert.NotNil(dbg.Line)
		assert.Equal(int(ip)+1, dbg.Line.LineNo)
		assert.Equal(0, dbg.Index)
	}

	dbg := prog.Debug(10)
	assert.Nil(dbg.Line)
	assert.Equal(0, dbg.Index)
}

func TestProgram_Debug_MultipleCodesPerOpcode(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Line{
			{LineNo: 1, Ip: 0, Words: []string{"mov", "r1", "r2"},
				Codes: []Code{
					mustCode(OP_NAND, 1, 2, 2),
					mustCode(OP_NAND, 1, 1, 1),
				}},
			{LineNo: 2, Ip: 2, Words: []string{"halt"},
				Codes: []Code{mustCode(OP_HALT, 0, 0, 0)}},
		},
	}

	dbg := prog.Debug(0)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(1)
	assert.Equal(1, dbg.Index)
	assert.Equal(1, dbg.LineNo)

	dbg = prog.Debug(2)
	assert.Equal(0, dbg.Index)
	assert.Equal(2, dbg.LineNo)

	dbg = prog.Debug(3)
	assert.Nil(dbg.Line)
}

func TestProgram_Binary(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Line{
			{LineNo: 1, Ip: 0, Words: []string{"mov", "r1", "r2"},
				Codes: []Code{
					mustCode(OP_NAND, 1, 2, 2),
					mustCode(OP_NAND, 1, 1, 1),
				}},
			{LineNo: 2, Ip: 2, Words: []string{"halt"},
				Codes: []Code{mustCode(OP_HALT, 0, 0, 0)}},
		},
	}

	assert.Equal([]uint32{0x60000052, 0x60000049, 0x70000000}, prog.Binary())

	empty := &Program{}
	assert.Empty(empty.Binary())
}

func TestProgram_Codes(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Line{
			{LineNo: 1, Ip: 0, Words: []string{"mov", "r1", "r2"},
				Codes: []Code{
					mustCode(OP_NAND, 1, 2, 2),
					mustCode(OP_NAND, 1, 1, 1),
				}},
			{LineNo: 2, Ip: 2, Words: []string{"halt"},
				Codes: []Code{mustCode(OP_HALT, 0, 0, 0)}},
		},
	}

	ips := []uint32{}
	codes := []Code{}
	for ip, code := range prog.Codes() {
		ips = append(ips, ip)
		codes = append(codes, code)
	}

	assert.Equal([]uint32{0, 1, 2}, ips)
	assert.Equal(OP_HALT, codes[2].Op)

	count := 0
	for range prog.Codes() {
		count++
		if count == 1 {
			break
		}
	}
	assert.Equal(1, count)
}

func TestProgramOf(t *testing.T) {
	assert := assert.New(t)

	words := []uint32{0xd0000048, 0xa0000000, 0x70000000, 0xe0000000}

	prog := ProgramOf(words)
	assert.Equal(4, len(prog.Opcodes))
	assert.Equal(words, prog.Binary())

	assert.Equal([]string{"imm", "r0", "0x48"}, prog.Opcodes[0].Words)
	assert.Equal([]string{"out", "r0"}, prog.Opcodes[1].Words)
	assert.Equal([]string{"halt"}, prog.Opcodes[2].Words)
	assert.Equal([]string{".word", "0xe0000000"}, prog.Opcodes[3].Words)

	dbg := prog.Debug(3)
	assert.Equal(3, dbg.Ip)
	assert.Equal(0, dbg.LineNo)
}

func TestProgram_Integration_ParseAndDebug(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := strings.Join([]string{
		"imm r0 0x100",
		"",
		"mov r1 r0",
		"add r0 r0 r1",
	}, "\n")

	prog, err := asm.Parse(strings.NewReader(program))
	assert.NoError(err)
	assert.Equal(4, len(prog.Binary()))

	dbg := prog.Debug(0)
	assert.Equal(1, dbg.LineNo)

	dbg = prog.Debug(2)
	assert.Equal(3, dbg.LineNo)
	assert.Equal(1, dbg.Index)

	dbg = prog.Debug(3)
	assert.Equal(4, dbg.LineNo)
}

func TestProgram_Debug_Search(t *testing.T) {
	assert := assert.New(t)

	prog := ProgramOf(make([]uint32, 100000))
	for _, ip := range []uint32{0, 1, 49999, 50000, 99998, 99999} {
		dbg := prog.Debug(ip)
		if assert.NotNil(dbg.Line, ip) {
			assert.Equal(int(ip), dbg.Ip)
			assert.Equal(0, dbg.Index)
		}
	}
	assert.Nil(prog.Debug(100000).Line)
	assert.Nil(prog.Debug(0xffffffff).Line)

	assert.Nil((&Program{}).Debug(0).Line)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader("halt\nmov r1 r2\nmov r3 r4\nhalt\n"))
	assert.NoError(err)
	table := [](struct {
		ip     uint32
		lineno int
		index  int
	}){
		{0, 1, 0},
		{1, 2, 0},
		{2, 2, 1},
		{3, 3, 0},
		{4, 3, 1},
		{5, 4, 0},
	}
	for _, entry := range table {
		dbg := prog.Debug(entry.ip)
		if assert.NotNil(dbg.Line, entry.ip) {
			assert.Equal(entry.lineno, dbg.LineNo, entry.ip)
			assert.Equal(entry.index, dbg.Index, entry.ip)
		}
	}
	assert.Nil(prog.Debug(6).Line)
}

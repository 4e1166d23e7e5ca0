// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package memory implements the segmented word memory of the machine.
//
// Memory is a table of independently sized segments of 32-bit words.
// Segment 0 always holds the program being executed. Unmapped addresses
// are kept on a free stack, and the most recently unmapped address is the
// first to be handed out again.
package memory

import (
	"log"
	"slices"
)

const (
	SEGMENT_PROGRAM = uint32(0)       // Address of the program segment.
	SEGMENT_LIMIT   = uint64(1) << 32 // Maximum number of segment addresses.
)

// Segment is a single block of words.
type Segment struct {
	Data   []uint32
	Mapped bool
}

// Memory is the segment table.
type Memory struct {
	Verbose bool

	segment []Segment
	free    []uint32
}

// NewMemory creates a segment table with program as segment 0.
func NewMemory(program []uint32) (mem *Memory) {
	mem = &Memory{}

	mem.Reset(program)

	return
}

// Reset discards all segments, and installs a copy of program as segment 0.
func (mem *Memory) Reset(program []uint32) {
	clear(mem.segment)
	mem.segment = mem.segment[:0]
	mem.free = mem.free[:0]

	mem.segment = append(mem.segment, Segment{
		Data:   slices.Clone(program),
		Mapped: true,
	})
}

// Mapped returns the number of live segments, including segment 0.
func (mem *Memory) Mapped() int {
	return len(mem.segment) - len(mem.free)
}

// lookup returns the live segment at address.
func (mem *Memory) lookup(address uint32) (seg *Segment, err error) {
	if uint64(address) >= uint64(len(mem.segment)) {
		err = ErrSegmentInvalid
		return
	}

	seg = &mem.segment[address]
	if !seg.Mapped {
		seg = nil
		err = ErrSegmentUnmapped
		return
	}

	return
}

// Map creates a zeroed segment of size words, and returns its address.
// Unmapped addresses are reused, most recently unmapped first, before the
// table grows.
func (mem *Memory) Map(size uint32) (address uint32, err error) {
	data := make([]uint32, size)

	if len(mem.free) > 0 {
		address = mem.free[len(mem.free)-1]
		mem.free = mem.free[:len(mem.free)-1]
		mem.segment[address] = Segment{Data: data, Mapped: true}
	} else {
		if uint64(len(mem.segment)) >= SEGMENT_LIMIT {
			err = ErrMemoryFull
			return
		}
		address = uint32(len(mem.segment))
		mem.segment = append(mem.segment, Segment{Data: data, Mapped: true})
	}

	if mem.Verbose {
		log.Printf("memory: map 0x%x (%d words)", address, size)
	}

	return
}

// Unmap discards the segment at address, and makes the address available
// for reuse.
func (mem *Memory) Unmap(address uint32) (err error) {
	defer func() {
		if err != nil {
			err = &ErrAccess{Address: address, Err: err}
		}
	}()

	if address == SEGMENT_PROGRAM {
		err = ErrSegmentProgram
		return
	}

	_, err = mem.lookup(address)
	if err != nil {
		return
	}

	mem.segment[address] = Segment{}
	mem.free = append(mem.free, address)

	if mem.Verbose {
		log.Printf("memory: unmap 0x%x", address)
	}

	return
}

// Len returns the number of words in the segment at address.
func (mem *Memory) Len(address uint32) (count int, err error) {
	seg, err := mem.lookup(address)
	if err != nil {
		err = &ErrAccess{Address: address, Err: err}
		return
	}

	count = len(seg.Data)

	return
}

// Read returns the word at index of the segment at address.
func (mem *Memory) Read(address uint32, index uint32) (value uint32, err error) {
	seg, err := mem.lookup(address)
	if err == nil && uint64(index) >= uint64(len(seg.Data)) {
		err = ErrSegmentIndex
	}
	if err != nil {
		err = &ErrAccess{Address: address, Index: index, Err: err}
		return
	}

	value = seg.Data[index]

	return
}

// Write sets the word at index of the segment at address.
func (mem *Memory) Write(address uint32, index uint32, value uint32) (err error) {
	seg, err := mem.lookup(address)
	if err == nil && uint64(index) >= uint64(len(seg.Data)) {
		err = ErrSegmentIndex
	}
	if err != nil {
		err = &ErrAccess{Address: address, Index: index, Err: err}
		return
	}

	seg.Data[index] = value

	return
}

// Fetch returns the program word at index of segment 0.
func (mem *Memory) Fetch(index uint32) (value uint32, err error) {
	return mem.Read(SEGMENT_PROGRAM, index)
}

// LoadProgram replaces segment 0 with a copy of the segment at address.
// The copy is independent of its source; later changes to either do not
// affect the other. Loading from address 0 leaves the program as is.
func (mem *Memory) LoadProgram(address uint32) (err error) {
	seg, err := mem.lookup(address)
	if err != nil {
		err = &ErrAccess{Address: address, Err: err}
		return
	}

	if address == SEGMENT_PROGRAM {
		return
	}

	mem.segment[SEGMENT_PROGRAM].Data = slices.Clone(seg.Data)

	if mem.Verbose {
		log.Printf("memory: load program from 0x%x (%d words)", address, len(seg.Data))
	}

	return
}

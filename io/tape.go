package io

import (
	"io"
)

// Flusher is implemented by writers that buffer output, such as
// *bufio.Writer.
type Flusher interface {
	Flush() error
}

// Tape provides sequential byte I/O for the machine's console.
// It wraps an io.Reader for input and an io.Writer for output.
type Tape struct {
	Input  io.Reader
	Output io.Writer

	Received int // Bytes received since the last rewind.
	Sent     int // Bytes sent since the last rewind.
}

var _ Channel = (*Tape)(nil)

// Rewind is not possible on a tape; only the counters are reset.
func (tc *Tape) Rewind() {
	tc.Received = 0
	tc.Sent = 0
}

// Receive reads exactly one byte from the input stream.
// A missing input, a read failure, or end of stream all report !ok.
func (tc *Tape) Receive() (value byte, ok bool) {
	if tc.Input == nil {
		return
	}

	var one [1]byte
	for {
		n, err := tc.Input.Read(one[:])
		if n == 1 {
			break
		}
		if err != nil {
			return
		}
	}

	tc.Received++

	value = one[0]
	ok = true
	return
}

// Send writes a byte to the output stream, and flushes it.
func (tc *Tape) Send(value byte) (err error) {
	if tc.Output == nil {
		err = ErrChannelFull
		return
	}

	_, err = tc.Output.Write([]byte{value})
	if err != nil {
		return
	}

	if flusher, ok := tc.Output.(Flusher); ok {
		err = flusher.Flush()
		if err != nil {
			return
		}
	}

	tc.Sent++

	return
}

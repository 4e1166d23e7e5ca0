// Package io provides the byte channels and program images used by the
// rum emulator.
//
// A Tape connects the machine's console to an io.Reader and io.Writer,
// and a Rom holds a program image as big-endian 32-bit words.
package io

// Channel defines the interface for the machine's console.
// Channels transfer one byte at a time.
type Channel interface {
	// Rewind resets the channel to its initial state.
	Rewind()
	// Receive returns the next byte, or false at end of stream.
	Receive() (value byte, ok bool)
	// Send writes a single byte to the channel.
	Send(value byte) error
}

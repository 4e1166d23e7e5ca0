package io

import (
	"encoding/binary"
	"io"
)

const (
	WORD_SIZE = 4 // Bytes per image word.
)

// Rom is a program image of 32-bit words, stored big-endian.
type Rom struct {
	Data []uint32
}

// Load replaces the image with the big-endian words read from r.
func (rc *Rom) Load(r io.Reader) (err error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return
	}

	if len(buf)%WORD_SIZE != 0 {
		err = ErrRomAlign
		return
	}

	rc.Data = make([]uint32, 0, len(buf)/WORD_SIZE)
	for n := 0; n < len(buf); n += WORD_SIZE {
		rc.Data = append(rc.Data, binary.BigEndian.Uint32(buf[n:]))
	}

	return
}

// Save writes the image to w as big-endian words.
func (rc *Rom) Save(w io.Writer) (err error) {
	buf := make([]byte, 0, len(rc.Data)*WORD_SIZE)
	for _, data := range rc.Data {
		buf = binary.BigEndian.AppendUint32(buf, data)
	}

	_, err = w.Write(buf)

	return
}

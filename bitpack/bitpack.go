// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package bitpack packs and unpacks signed and unsigned bit fields in
// 64-bit words.
//
// A field is described by its width in bits and the offset of its least
// significant bit. Bits above bit 63 do not exist; reading them yields
// zero, and writing them is refused.
package bitpack

const (
	WORD_BITS = 64 // Bits in a word.
)

// fieldMask returns the unshifted mask for a field of width bits.
func fieldMask(width uint) uint64 {
	if width >= WORD_BITS {
		return ^uint64(0)
	}

	return (uint64(1) << width) - 1
}

// FitsSigned returns true iff n is representable as a two's complement
// value of width bits.
//
// A width 0 field can only ever hold 0.
func FitsSigned(n int64, width uint) bool {
	switch {
	case width == 0:
		return n == 0
	case width >= WORD_BITS:
		return true
	}

	limit := int64(1) << (width - 1)

	return n >= -limit && n <= limit-1
}

// FitsUnsigned returns true iff n is representable as an unsigned value
// of width bits.
//
// A width 0 field can only ever hold 0.
func FitsUnsigned(n uint64, width uint) bool {
	switch {
	case width == 0:
		return n == 0
	case width >= WORD_BITS:
		return true
	}

	return (n >> width) == 0
}

// ExtractSigned returns the width bit field at lsb, sign extended.
func ExtractSigned(word uint64, width, lsb uint) (value int64) {
	if width == 0 || lsb >= WORD_BITS {
		return
	}

	if width > WORD_BITS-lsb {
		// The sign bit is beyond the word, and therefore zero.
		value = int64(ExtractUnsigned(word, WORD_BITS-lsb, lsb))
		return
	}

	value = int64(word<<(WORD_BITS-width-lsb)) >> (WORD_BITS - width)

	return
}

// ExtractUnsigned returns the width bit field at lsb, zero extended.
func ExtractUnsigned(word uint64, width, lsb uint) (value uint64) {
	if width == 0 || lsb >= WORD_BITS {
		return
	}

	if width > WORD_BITS-lsb {
		width = WORD_BITS - lsb
	}

	value = (word << (WORD_BITS - width - lsb)) >> (WORD_BITS - width)

	return
}

// PackUnsigned returns word with the width bit field at lsb replaced by
// value. The prior content of the field is cleared; all other bits pass
// through unchanged.
func PackUnsigned(word uint64, width, lsb uint, value uint64) (packed uint64, err error) {
	if !FitsUnsigned(value, width) {
		err = ErrOverflow
		return
	}

	packed, err = insert(word, width, lsb, value)

	return
}

// PackSigned returns word with the width bit field at lsb replaced by the
// two's complement form of value. The prior content of the field is
// cleared; all other bits pass through unchanged.
func PackSigned(word uint64, width, lsb uint, value int64) (packed uint64, err error) {
	if !FitsSigned(value, width) {
		err = ErrOverflow
		return
	}

	packed, err = insert(word, width, lsb, uint64(value)&fieldMask(width))

	return
}

// insert places an already range-checked value into the field.
func insert(word uint64, width, lsb uint, value uint64) (packed uint64, err error) {
	if width == 0 {
		packed = word
		return
	}

	if lsb >= WORD_BITS || width > WORD_BITS-lsb {
		err = ErrFieldRange
		return
	}

	mask := fieldMask(width) << lsb
	packed = (word &^ mask) | (value << lsb)

	return
}

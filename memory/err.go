package memory

import (
	"errors"

	"github.com/ezrec/rum/translate"
)

var f = translate.From

var (
	ErrSegmentInvalid  = errors.New(f("segment address out of range"))
	ErrSegmentUnmapped = errors.New(f("segment unmapped"))
	ErrSegmentIndex    = errors.New(f("segment index out of range"))
	ErrSegmentProgram  = errors.New(f("segment 0 holds the program"))
	ErrMemoryFull      = errors.New(f("segment table full"))
)

// ErrAccess identifies the segment access that failed.
type ErrAccess struct {
	Address uint32
	Index   uint32
	Err     error
}

func (err *ErrAccess) Error() string {
	return f("segment 0x%x index 0x%x: %v", err.Address, err.Index, err.Err)
}

func (err *ErrAccess) Unwrap() error {
	return err.Err
}

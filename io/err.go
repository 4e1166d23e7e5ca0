package io

import (
	"errors"

	"github.com/ezrec/rum/translate"
)

var f = translate.From

var (
	// Channel errors
	ErrChannelFull = errors.New(f("channel full"))

	// Image errors
	ErrRomAlign = errors.New(f("image length is not a multiple of 4"))
)

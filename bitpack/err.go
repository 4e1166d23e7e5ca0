package bitpack

import (
	"errors"

	"github.com/ezrec/rum/translate"
)

var f = translate.From

var (
	ErrOverflow   = errors.New(f("value does not fit in field"))
	ErrFieldRange = errors.New(f("field extends beyond word"))
)

package emulator

import (
	"github.com/ezrec/ria/translate"
)

var f = translate.From

// ErrRuntime locates a fault at the source line of the faulting instruction.
// LineNo is zero when the program carries no source lines.
type ErrRuntime struct {
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return err.Err.Error()
	}
	return f("line %d: %v", err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

package emulator

import (
	"errors"

	"github.com/ezrec/rails/translate"
)

var f = translate.From

var (
	ErrStopTimeout = errors.New(f("emulator did not stop within timeout"))
	ErrBusy        = errors.New(f("emulator is running"))
	ErrUnsupported = errors.New(f("not supported by machine"))
)

// ErrRuntime indicates a run ended by a machine error.
type ErrRuntime struct {
	Steps int // Steps into the run.
	Err   error
}

func (err *ErrRuntime) Error() string {
	return f("step %d %v", err.Steps, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

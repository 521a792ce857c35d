package machine

import (
	"errors"

	"github.com/ezrec/rails/translate"
)

var f = translate.From

var (
	ErrOpcodeInvalid = errors.New(f("opcode invalid"))
	ErrProgramSize   = errors.New(f("program exceeds 256 words"))
	ErrInputInvalid  = errors.New(f("input latch invalid"))
	ErrOutputInvalid = errors.New(f("output latch invalid"))
	ErrStateFormat   = errors.New(f("state format invalid"))
)

// ErrOpcode reports the instruction word that failed to decode.
type ErrOpcode Word

func (eo ErrOpcode) Error() string {
	return f("bad opcode 0x%04x %v", uint16(eo), Word(eo).Opcode())
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

// ErrHalt locates a fatal halt of the machine.
type ErrHalt struct {
	Pc  uint8
	Err error
}

func (err *ErrHalt) Error() string {
	return f("pc 0x%02x %v", err.Pc, err.Err)
}

func (err *ErrHalt) Unwrap() error {
	return err.Err
}

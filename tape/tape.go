// Package tape connects the Rails input and output latches to byte streams
// for unthrottled runs.
package tape

import (
	"errors"
	"io"

	"github.com/ezrec/rails/machine"
	"github.com/ezrec/rails/translate"
)

var f = translate.From

var ErrTapeEmpty = errors.New(f("input tape exhausted"))

// Tape provides sequential I/O for the machine latches.
// Before each IN instruction one byte is read from Input into the latch the
// instruction names. After each OUT instruction the latch written is sent
// to Output as one byte. A nil Input or Output leaves the latches alone.
type Tape struct {
	Verbose bool // If set, logs each byte transferred.

	Input  io.Reader
	Output io.Writer
}

// receive reads the next input byte into an input latch.
func (tc *Tape) receive(m *machine.Machine, index uint8) (err error) {
	var one [1]byte
	_, err = io.ReadFull(tc.Input, one[:])
	if errors.Is(err, io.EOF) {
		err = ErrTapeEmpty
	}
	if err != nil {
		return
	}

	if tc.Verbose {
		translate.Logf("tape: in %v: 0x%02x", index, one[0])
	}

	return m.SetInput(int(index), one[0])
}

// send writes an output latch as a byte.
func (tc *Tape) send(m *machine.Machine, index uint8) (err error) {
	value, err := m.Output(int(index))
	if err != nil {
		return
	}

	if tc.Verbose {
		translate.Logf("tape: out %v: 0x%02x", index, value)
	}

	_, err = tc.Output.Write([]byte{value})
	return
}

// Run runs the machine until exit, an error, or limit instructions have
// executed, servicing the IN and OUT instructions from the tape. A limit
// of zero or less runs without bound.
func (tc *Tape) Run(m *machine.Machine, limit int) (changed machine.Changed, steps int, done bool, err error) {
	for limit <= 0 || steps < limit {
		remaining := 0
		if limit > 0 {
			remaining = limit - steps
		}

		var ch machine.Changed
		var n int
		ch, n, done, err = m.RunUntil(machine.UNTIL_IO, remaining)
		changed |= ch
		steps += n
		if done || err != nil {
			return
		}
		if limit > 0 && steps >= limit {
			return
		}

		// Stopped before an IN or OUT.
		word := m.Fetch()
		if word.Opcode() == machine.OP_IN && tc.Input != nil {
			err = tc.receive(m, word.A())
			if err != nil {
				return
			}
		}

		ch, done, err = m.Step()
		changed |= ch
		steps++
		if done || err != nil {
			return
		}

		if word.Opcode() == machine.OP_OUT && tc.Output != nil {
			err = tc.send(m, word.A())
			if err != nil {
				return
			}
		}
	}

	return
}

package machine

import (
	"encoding/binary"
	"errors"
	"io"
	"slices"
)

// STATE_SIZE is the encoded size of a saved state.
const STATE_SIZE = PROM_SIZE*2 + RAM_SIZE + REGISTER_SIZE + LATCH_SIZE*2 + 3

// savedState is the on-disk layout of State. The program length is a single
// byte, so a full program memory is stored as 0.
type savedState struct {
	Prom          [PROM_SIZE]uint16
	Ram           [RAM_SIZE]uint8
	Regfile       [REGISTER_SIZE]uint8
	InRegs        [LATCH_SIZE]uint8
	OutRegs       [LATCH_SIZE]uint8
	Pc            uint8
	ProgramLength uint8
	CarryFlag     bool
}

// Save writes the machine state to w, little-endian.
func (m *Machine) Save(w io.Writer) (err error) {
	st := &m.state
	saved := savedState{
		Prom:          st.Prom,
		Ram:           st.Ram,
		Regfile:       st.Regfile,
		InRegs:        st.InRegs,
		OutRegs:       st.OutRegs,
		Pc:            st.Pc,
		ProgramLength: uint8(st.ProgramLength),
		CarryFlag:     st.CarryFlag,
	}

	return binary.Write(w, binary.LittleEndian, &saved)
}

// Restore reads a machine state written by Save.
// The breakpoints are kept; any pending halt reason is dropped.
func (m *Machine) Restore(r io.Reader) (err error) {
	var saved savedState
	err = binary.Read(r, binary.LittleEndian, &saved)
	if err != nil {
		err = errors.Join(ErrStateFormat, err)
		return
	}

	length := uint16(saved.ProgramLength)
	if length == 0 && slices.ContainsFunc(saved.Prom[:], func(word uint16) bool { return word != 0 }) {
		length = PROM_SIZE
	}

	m.state = State{
		Prom:          saved.Prom,
		Ram:           saved.Ram,
		Regfile:       saved.Regfile,
		InRegs:        saved.InRegs,
		OutRegs:       saved.OutRegs,
		Pc:            saved.Pc,
		ProgramLength: length,
		CarryFlag:     saved.CarryFlag,
	}
	m.halt = HALT_NONE
	m.resume = false

	return
}

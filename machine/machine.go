// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package machine

import (
	"errors"
	"maps"
	"slices"

	"github.com/ezrec/rails/translate"
)

const (
	PROM_SIZE     = 256 // Program memory words.
	RAM_SIZE      = 256 // Data memory bytes.
	REGISTER_SIZE = 16  // General purpose registers.
	LATCH_SIZE    = 16  // Input and output latches.
)

// State is the complete machine state.
type State struct {
	Prom          [PROM_SIZE]uint16    // Program memory.
	Ram           [RAM_SIZE]uint8      // Data memory.
	Regfile       [REGISTER_SIZE]uint8 // General purpose registers.
	InRegs        [LATCH_SIZE]uint8    // Input latches.
	OutRegs       [LATCH_SIZE]uint8    // Output latches.
	Pc            uint8                // Program counter.
	ProgramLength uint16               // Words loaded into Prom.
	CarryFlag     bool                 // Carry flag.
}

// Snapshot is a copy of the observable state handed to a renderer.
type Snapshot struct {
	Changed   Changed    // Categories modified since the previous snapshot.
	Halt      HaltReason // Halt since the previous snapshot, if any.
	Pc        uint8
	CarryFlag bool
	Regfile   [REGISTER_SIZE]uint8
	Ram       [RAM_SIZE]uint8
	InRegs    [LATCH_SIZE]uint8
	OutRegs   [LATCH_SIZE]uint8
}

// Machine is the simulation context for the Rails processor.
type Machine struct {
	Verbose bool // Set to enable verbose logging.

	state State

	breakpoints map[uint8]struct{}
	halt        HaltReason

	// resume skips the breakpoint at resumePc once, so a continuous run
	// can proceed past the breakpoint that stopped it.
	resume   bool
	resumePc uint8
}

// NewMachine creates a machine with all state zeroed.
func NewMachine() (m *Machine) {
	m = &Machine{
		breakpoints: make(map[uint8]struct{}),
	}

	return
}

// Load writes a program into program memory, zero filling the remainder.
func (m *Machine) Load(words []uint16) (err error) {
	if len(words) > PROM_SIZE {
		err = ErrProgramSize
		return
	}

	clear(m.state.Prom[:])
	copy(m.state.Prom[:], words)
	m.state.ProgramLength = uint16(len(words))

	if m.Verbose {
		translate.Logf("machine: loaded %v words", len(words))
	}

	return
}

// Program returns the loaded program words.
func (m *Machine) Program() []uint16 {
	return slices.Clone(m.state.Prom[:m.state.ProgramLength])
}

// SetInput sets an input latch.
func (m *Machine) SetInput(index int, value uint8) (err error) {
	if index < 0 || index >= LATCH_SIZE {
		err = ErrInputInvalid
		return
	}

	m.state.InRegs[index] = value
	return
}

// Output returns an output latch.
func (m *Machine) Output(index int) (value uint8, err error) {
	if index < 0 || index >= LATCH_SIZE {
		err = ErrOutputInvalid
		return
	}

	value = m.state.OutRegs[index]
	return
}

// Fetch returns the instruction at the program counter.
func (m *Machine) Fetch() Word {
	return Word(m.state.Prom[m.state.Pc])
}

// Pc returns the program counter.
func (m *Machine) Pc() uint8 {
	return m.state.Pc
}

// Break adds a breakpoint.
func (m *Machine) Break(pc uint8) {
	m.breakpoints[pc] = struct{}{}
}

// Clear removes a breakpoint.
func (m *Machine) Clear(pc uint8) {
	delete(m.breakpoints, pc)
}

// IsBreakpoint is true if pc has a breakpoint.
func (m *Machine) IsBreakpoint(pc uint8) (ok bool) {
	_, ok = m.breakpoints[pc]
	return
}

// Breakpoints returns the breakpoints in ascending order.
func (m *Machine) Breakpoints() []uint8 {
	return slices.Sorted(maps.Keys(m.breakpoints))
}

// Reset the machine.
// - Clears the registers, data memory and output latches.
// - Zeros the program counter and carry flag.
// - Keeps the program memory and input latches.
func (m *Machine) Reset() (changed Changed) {
	if m.Verbose {
		translate.Logf("machine: reset")
	}

	clear(m.state.Regfile[:])
	clear(m.state.Ram[:])
	clear(m.state.OutRegs[:])
	m.state.Pc = 0
	m.state.CarryFlag = false
	m.resume = false

	return CHANGED_ALL
}

// Snapshot copies the observable state, reporting changed as the modified
// categories. The pending halt reason is consumed.
func (m *Machine) Snapshot(changed Changed) (snap Snapshot) {
	snap = Snapshot{
		Changed:   changed,
		Halt:      m.halt,
		Pc:        m.state.Pc,
		CarryFlag: m.state.CarryFlag,
		Regfile:   m.state.Regfile,
		Ram:       m.state.Ram,
		InRegs:    m.state.InRegs,
		OutRegs:   m.state.OutRegs,
	}

	m.halt = HALT_NONE

	return
}

// Step executes a single instruction without checking breakpoints.
func (m *Machine) Step() (changed Changed, done bool, err error) {
	m.resume = false
	return m.step(false)
}

// Tick executes a single instruction of a continuous run. A breakpoint at
// the program counter stops the run before the instruction executes.
func (m *Machine) Tick() (changed Changed, done bool, err error) {
	return m.step(true)
}

// step fetches, decodes and executes the instruction at the program counter.
func (m *Machine) step(running bool) (changed Changed, done bool, err error) {
	pc := m.state.Pc
	word := Word(m.state.Prom[pc])

	if word == EXIT_WORD {
		m.stop(HALT_EXIT)
		done = true
		return
	}

	if running && m.IsBreakpoint(pc) {
		if !m.resume || m.resumePc != pc {
			m.stop(HALT_BREAKPOINT)
			m.resume = true
			m.resumePc = pc
			done = true
			return
		}
	}
	m.resume = false

	changed, err = m.Execute(word)
	if err != nil {
		m.stop(HALT_INVALID_OPCODE)
		err = &ErrHalt{Pc: pc, Err: err}
		done = true
	}

	return
}

// stop records why the machine stopped.
func (m *Machine) stop(reason HaltReason) {
	if m.Verbose {
		translate.Logf("machine: 0x%02x: halt %v", m.state.Pc, reason)
	}
	m.halt = reason
}

// Execute executes a single decoded instruction.
func (m *Machine) Execute(word Word) (changed Changed, err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(word), err)
		}
	}()

	st := &m.state
	reg := &st.Regfile

	if m.Verbose {
		translate.Logf("%02x: %v", st.Pc, word.Disassemble())
	}

	a, b, c, imm := word.A(), word.B(), word.C(), word.Imm()

	var carry uint16
	if st.CarryFlag {
		carry = 1
	}

	changed = CHANGED_PC

	switch word.Opcode() {
	case OP_ADD:
		result := uint16(reg[a]) + uint16(reg[b])
		st.CarryFlag = result > 0xff
		reg[c] = uint8(result)
		changed |= CHANGED_REGISTERS | CHANGED_CARRY
	case OP_ADDC:
		result := uint16(reg[a]) + uint16(reg[b]) + carry
		st.CarryFlag = result > 0xff
		reg[c] = uint8(result)
		changed |= CHANGED_REGISTERS | CHANGED_CARRY
	case OP_SUB:
		st.CarryFlag = reg[a] < reg[b]
		reg[c] = reg[a] - reg[b]
		changed |= CHANGED_REGISTERS | CHANGED_CARRY
	case OP_SWB:
		borrow := uint16(reg[a]) + carry
		st.CarryFlag = uint16(reg[b]) < borrow
		reg[c] = uint8(uint16(reg[b]) - borrow)
		changed |= CHANGED_REGISTERS | CHANGED_CARRY
	case OP_NAND:
		reg[c] = ^(reg[a] & reg[b])
		changed |= CHANGED_REGISTERS
	case OP_RSFT:
		reg[c] = reg[a] >> 1
		changed |= CHANGED_REGISTERS
	case OP_IMM:
		reg[c] = imm
		changed |= CHANGED_REGISTERS
	case OP_LD:
		reg[c] = st.Ram[reg[a]]
		changed |= CHANGED_REGISTERS
	case OP_LDIM:
		reg[c] = st.Ram[imm]
		changed |= CHANGED_REGISTERS
	case OP_ST:
		st.Ram[reg[a]] = reg[b]
		changed |= CHANGED_RAM
	case OP_STIM:
		// Source is rc, not rb.
		st.Ram[imm] = reg[c]
		changed |= CHANGED_RAM
	case OP_BEQ:
		if reg[15] == reg[c] {
			reg[0] = 0
			st.Pc = imm
			st.CarryFlag = false
			changed |= CHANGED_CARRY
			return
		}
	case OP_BGT:
		if reg[15] > reg[c] {
			reg[0] = 0
			st.Pc = imm
			st.CarryFlag = false
			changed |= CHANGED_CARRY
			return
		}
	case OP_JMPL:
		reg[c] = st.Pc + 1
		reg[0] = 0
		st.Pc = reg[a]
		st.CarryFlag = false
		changed |= CHANGED_REGISTERS | CHANGED_CARRY
		return
	case OP_IN:
		reg[c] = st.InRegs[a]
		changed |= CHANGED_REGISTERS
	case OP_OUT:
		st.OutRegs[a] = reg[b]
		changed |= CHANGED_OUTPUT
	default:
		err = ErrOpcodeInvalid
		changed = CHANGED_NONE
		return
	}

	// r0 always reads as zero
	reg[0] = 0
	st.Pc++

	return
}

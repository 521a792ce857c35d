package machine

import (
	"fmt"
	"strings"
)

// Opcode selects one of the sixteen instruction behaviours.
type Opcode uint8

//go:generate go tool stringer -linecomment -type=Opcode
const (
	OP_ADD  = Opcode(0)  // ADD
	OP_ADDC = Opcode(1)  // ADDC
	OP_SUB  = Opcode(2)  // SUB
	OP_SWB  = Opcode(3)  // SWB
	OP_NAND = Opcode(4)  // NAND
	OP_RSFT = Opcode(5)  // RSFT
	OP_IMM  = Opcode(6)  // IMM
	OP_LD   = Opcode(7)  // LD
	OP_LDIM = Opcode(8)  // LDIM
	OP_ST   = Opcode(9)  // ST
	OP_STIM = Opcode(10) // STIM
	OP_BEQ  = Opcode(11) // BEQ
	OP_BGT  = Opcode(12) // BGT
	OP_JMPL = Opcode(13) // JMPL
	OP_IN   = Opcode(14) // IN
	OP_OUT  = Opcode(15) // OUT
)

// Encoding is the assembly operand order of an opcode.
type Encoding int

const (
	ENC_CAB   = Encoding(iota) // rc ra rb
	ENC_CA                     // rc ra
	ENC_AB                     // ra rb
	ENC_C_IMM                  // rc imm
	ENC_IMM_C                  // imm rc
)

var _encoding = [16]Encoding{
	OP_ADD:  ENC_CAB,
	OP_ADDC: ENC_CAB,
	OP_SUB:  ENC_CAB,
	OP_SWB:  ENC_CAB,
	OP_NAND: ENC_CAB,
	OP_RSFT: ENC_CA,
	OP_IMM:  ENC_C_IMM,
	OP_LD:   ENC_CA,
	OP_LDIM: ENC_C_IMM,
	OP_ST:   ENC_AB,
	OP_STIM: ENC_IMM_C,
	OP_BEQ:  ENC_IMM_C,
	OP_BGT:  ENC_IMM_C,
	OP_JMPL: ENC_CA,
	OP_IN:   ENC_CA,
	OP_OUT:  ENC_AB,
}

// Encoding returns the operand order used by the opcode.
func (op Opcode) Encoding() Encoding {
	return _encoding[op&0xf]
}

// Immediate is true if the opcode uses the 8-bit imm field.
func (op Opcode) Immediate() bool {
	enc := op.Encoding()
	return enc == ENC_C_IMM || enc == ENC_IMM_C
}

// Word is a single 16-bit instruction.
type Word uint16

// EXIT_WORD halts the machine. It is JMPL r0 r0.
const EXIT_WORD = Word(0xD000)

// MakeWord encodes a register form instruction.
func MakeWord(op Opcode, a, b, c uint8) Word {
	return Word(uint16(op&0xf)<<12 | uint16(a&0xf)<<8 | uint16(b&0xf)<<4 | uint16(c&0xf))
}

// MakeWordImm encodes an immediate form instruction.
func MakeWordImm(op Opcode, imm uint8, c uint8) Word {
	return Word(uint16(op&0xf)<<12 | uint16(imm)<<4 | uint16(c&0xf))
}

func (w Word) Opcode() Opcode {
	return Opcode(w >> 12)
}

func (w Word) A() uint8 {
	return uint8((w >> 8) & 0xf)
}

func (w Word) B() uint8 {
	return uint8((w >> 4) & 0xf)
}

func (w Word) C() uint8 {
	return uint8(w & 0xf)
}

func (w Word) Imm() uint8 {
	return uint8((w >> 4) & 0xff)
}

// String returns the word in the format "xxxx-xxxx-xxxx-xxxx".
func (w Word) String() string {
	s := fmt.Sprintf("%016b", uint16(w))
	return strings.Join([]string{s[0:4], s[4:8], s[8:12], s[12:16]}, "-")
}

// Disassemble returns the assembly text for the word.
func (w Word) Disassemble() string {
	if w == EXIT_WORD {
		return "EXIT"
	}

	op := w.Opcode()
	switch op.Encoding() {
	case ENC_CAB:
		return fmt.Sprintf("%v r%d r%d r%d", op, w.C(), w.A(), w.B())
	case ENC_CA:
		return fmt.Sprintf("%v r%d r%d", op, w.C(), w.A())
	case ENC_AB:
		return fmt.Sprintf("%v r%d r%d", op, w.A(), w.B())
	case ENC_C_IMM:
		return fmt.Sprintf("%v r%d %d", op, w.C(), w.Imm())
	case ENC_IMM_C:
		return fmt.Sprintf("%v %d r%d", op, w.Imm(), w.C())
	}

	return fmt.Sprintf("0x%04x", uint16(w))
}

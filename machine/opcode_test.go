package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordDecode(t *testing.T) {
	assert := assert.New(t)

	w := Word(0x1234)
	assert.Equal(OP_ADDC, w.Opcode())
	assert.Equal(uint8(2), w.A())
	assert.Equal(uint8(3), w.B())
	assert.Equal(uint8(4), w.C())
	assert.Equal(uint8(0x23), w.Imm())

	assert.Equal(Word(0x6054), MakeWordImm(OP_IMM, 5, 4))
	assert.Equal(Word(0x0123), MakeWord(OP_ADD, 1, 2, 3))
	assert.Equal(Word(0xf0a0), MakeWord(OP_OUT, 0x10, 0xa, 0x10))
}

func TestWordString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("1101-0000-0000-0000", EXIT_WORD.String())
	assert.Equal("0000-0001-0010-0011", Word(0x0123).String())
}

func TestWordDisassemble(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		word Word
		text string
	}{
		{EXIT_WORD, "EXIT"},
		{MakeWord(OP_ADD, 1, 2, 3), "ADD r3 r1 r2"},
		{MakeWord(OP_RSFT, 4, 0, 5), "RSFT r5 r4"},
		{MakeWord(OP_ST, 6, 7, 0), "ST r6 r7"},
		{MakeWordImm(OP_IMM, 200, 1), "IMM r1 200"},
		{MakeWordImm(OP_BEQ, 12, 15), "BEQ 12 r15"},
		{MakeWord(OP_JMPL, 2, 0, 1), "JMPL r1 r2"},
	}

	for _, entry := range table {
		assert.Equal(entry.text, entry.word.Disassemble())
	}
}

func TestOpcode(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("ADD", OP_ADD.String())
	assert.Equal("OUT", OP_OUT.String())
	assert.Equal("Opcode(16)", Opcode(16).String())

	assert.True(OP_IMM.Immediate())
	assert.True(OP_BGT.Immediate())
	assert.False(OP_LD.Immediate())
	assert.Equal(ENC_AB, OP_OUT.Encoding())
}

func TestChanged(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("none", CHANGED_NONE.String())
	assert.Equal("registers|pc", (CHANGED_PC | CHANGED_REGISTERS).String())
	assert.Equal("registers|ram|output|pc|carry", CHANGED_ALL.String())

	assert.True(CHANGED_ALL.Has(CHANGED_RAM | CHANGED_CARRY))
	assert.False(CHANGED_RAM.Has(CHANGED_RAM | CHANGED_CARRY))

	var bits []Changed
	for bit := range (CHANGED_CARRY | CHANGED_RAM).All() {
		bits = append(bits, bit)
	}
	assert.Equal([]Changed{CHANGED_RAM, CHANGED_CARRY}, bits)

	assert.Equal("exit instruction", HALT_EXIT.String())
	assert.Equal("breakpoint", HALT_BREAKPOINT.String())
}

package asm

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ezrec/rails/machine"
)

// Program is an assembled program.
type Program struct {
	Words  []uint16 // Instruction words, starting at address 0.
	LineNo []int    // Source line of each word.
}

// Len returns the number of words in the program.
func (prog *Program) Len() int {
	return len(prog.Words)
}

// Line returns the source line of the word at pc, or 0 if none.
func (prog *Program) Line(pc uint8) int {
	if int(pc) >= len(prog.LineNo) {
		return 0
	}

	return prog.LineNo[pc]
}

// WriteTo writes the program as little-endian 16-bit words.
func (prog *Program) WriteTo(w io.Writer) (n int64, err error) {
	err = binary.Write(w, binary.LittleEndian, prog.Words)
	if err != nil {
		return
	}

	n = int64(len(prog.Words) * 2)
	return
}

// Listing writes an address, binary and disassembly line per word.
func (prog *Program) Listing(w io.Writer) (err error) {
	for pc, word := range prog.Words {
		_, err = fmt.Fprintf(w, "%02x: %v  %v\n", pc, machine.Word(word), machine.Word(word).Disassemble())
		if err != nil {
			return
		}
	}

	return
}

// ReadBinary reads a program of little-endian 16-bit words.
func ReadBinary(r io.Reader) (prog *Program, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return
	}

	if len(data)%2 != 0 {
		err = ErrBinaryFormat
		return
	}

	if len(data)/2 > machine.PROM_SIZE {
		err = ErrProgramSize
		return
	}

	prog = &Program{}
	for n := 0; n < len(data); n += 2 {
		prog.Words = append(prog.Words, binary.LittleEndian.Uint16(data[n:]))
	}

	return
}

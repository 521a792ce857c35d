// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ezrec/rails/asm"
	"github.com/ezrec/rails/machine"
	"github.com/ezrec/rails/translate"
)

var f = translate.From

// Console renders machine snapshots as text. It is the emulator Observer,
// and also serialises the shell output with the notifications.
type Console struct {
	Output  io.Writer
	Program *asm.Program // Optional source line information.

	mutex sync.Mutex
}

// Printf writes a translated message.
func (con *Console) Printf(format string, args ...any) {
	con.mutex.Lock()
	defer con.mutex.Unlock()

	fmt.Fprint(con.Output, f(format, args...))
}

// Update renders the changed categories of a snapshot.
func (con *Console) Update(snap machine.Snapshot) {
	con.mutex.Lock()
	defer con.mutex.Unlock()

	con.render(snap)
}

func hexBytes(data []uint8) string {
	text := make([]string, len(data))
	for n, value := range data {
		text[n] = fmt.Sprintf("%02x", value)
	}
	return strings.Join(text, " ")
}

func (con *Console) render(snap machine.Snapshot) {
	out := con.Output

	if snap.Changed.Has(machine.CHANGED_PC) || snap.Changed.Has(machine.CHANGED_CARRY) {
		carry := 0
		if snap.CarryFlag {
			carry = 1
		}
		fmt.Fprint(out, f("pc: %02x carry: %v", snap.Pc, carry))
		if con.Program != nil {
			line := con.Program.Line(snap.Pc)
			if line > 0 {
				fmt.Fprint(out, f(" (line %v)", line))
			}
		}
		fmt.Fprintln(out)
	}

	if snap.Changed.Has(machine.CHANGED_REGISTERS) {
		fmt.Fprintln(out, f("reg: %v", hexBytes(snap.Regfile[:])))
	}

	// Input latches only show on a full update.
	if snap.Changed == machine.CHANGED_ALL {
		fmt.Fprintln(out, f("in: %v", hexBytes(snap.InRegs[:])))
	}

	if snap.Changed.Has(machine.CHANGED_OUTPUT) {
		fmt.Fprintln(out, f("out: %v", hexBytes(snap.OutRegs[:])))
	}

	if snap.Changed.Has(machine.CHANGED_RAM) {
		for row := 0; row < machine.RAM_SIZE; row += 16 {
			data := snap.Ram[row : row+16]
			if row != 0 && !nonZero(data) {
				continue
			}
			fmt.Fprintln(out, f("ram %02x: %v", row, hexBytes(data)))
		}
	}

	if snap.Halt != machine.HALT_NONE {
		fmt.Fprintln(out, f("halt: %v", snap.Halt))
	}
}

// nonZero is true if any byte is set.
func nonZero(data []uint8) bool {
	for _, value := range data {
		if value != 0 {
			return true
		}
	}
	return false
}

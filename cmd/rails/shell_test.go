package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/rails/asm"
	"github.com/ezrec/rails/emulator"
	"github.com/ezrec/rails/machine"
)

const zeros = "00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00"

func newTestShell(t *testing.T, program ...string) (sh *Shell, out *bytes.Buffer) {
	as := &asm.Assembler{}
	prog, err := as.Parse(strings.NewReader(strings.Join(program, "\n")))
	require.NoError(t, err)

	m := machine.NewMachine()
	require.NoError(t, m.Load(prog.Words))

	emu := emulator.NewEmulator(m)
	emu.StepRateLimit = time.Millisecond
	t.Cleanup(func() { emu.Close() })

	out = &bytes.Buffer{}
	sh = &Shell{
		Emulator: emu,
		Machine:  m,
		Console:  &Console{Output: out, Program: prog},
	}

	return
}

func runShell(t *testing.T, sh *Shell, commands ...string) {
	err := sh.Run(strings.NewReader(strings.Join(commands, "\n")))
	require.NoError(t, err)
}

func TestShellStep(t *testing.T) {
	assert := assert.New(t)

	sh, out := newTestShell(t,
		"IMM r1 5",
		"OUT 2 r1",
		"EXIT",
	)

	runShell(t, sh, "step")
	assert.Equal("pc: 01 carry: 0 (line 2)\n"+
		"reg: 00 05 00 00 00 00 00 00 00 00 00 00 00 00 00 00\n", out.String())

	out.Reset()
	runShell(t, sh, "step 5")
	assert.Equal("pc: 02 carry: 0 (line 3)\n"+
		"out: 00 00 05 00 00 00 00 00 00 00 00 00 00 00 00 00\n"+
		"halt: exit instruction\n", out.String())
}

func TestShellBreaks(t *testing.T) {
	assert := assert.New(t)

	sh, out := newTestShell(t, "NOP", "NOP", "NOP", "NOP", "EXIT")

	runShell(t, sh,
		"break 3",
		"b 0x1",
		"breaks",
		"clear 3",
		"breaks",
	)

	assert.Equal("break 01\nbreak 03\nbreak 01\n", out.String())
}

func TestShellErrors(t *testing.T) {
	assert := assert.New(t)

	sh, out := newTestShell(t, "EXIT")

	runShell(t, sh, "bogus")
	assert.Equal("bogus: unknown command\n", out.String())

	out.Reset()
	runShell(t, sh, "break")
	assert.Equal("break: wrong number of arguments\n", out.String())

	out.Reset()
	runShell(t, sh, "break 300")
	assert.True(strings.HasPrefix(out.String(), "break: "))

	out.Reset()
	runShell(t, sh, "in 16 1")
	assert.Equal("in: input latch invalid\n", out.String())

	out.Reset()
	runShell(t, sh, "", "quit", "bogus")
	assert.Equal("", out.String())
}

func TestShellShow(t *testing.T) {
	assert := assert.New(t)

	sh, out := newTestShell(t, "EXIT")

	runShell(t, sh, "in 3 0x7f", "show")

	assert.Equal("pc: 00 carry: 0 (line 1)\n"+
		"reg: "+zeros+"\n"+
		"in: 00 00 00 7f 00 00 00 00 00 00 00 00 00 00 00 00\n"+
		"out: "+zeros+"\n"+
		"ram 00: "+zeros+"\n", out.String())
}

func TestShellStartStop(t *testing.T) {
	assert := assert.New(t)

	sh, out := newTestShell(t,
		"loop: JMP loop",
	)

	runShell(t, sh, "start")
	assert.Equal(emulator.STATE_RUNNING, sh.Emulator.State())

	runShell(t, sh, "step")
	assert.Equal("step: emulator is running\n", out.String())

	out.Reset()
	runShell(t, sh, "stop 2000")
	assert.Equal("", out.String())
	assert.Equal(emulator.STATE_IDLE, sh.Emulator.State())

	runShell(t, sh, "reset")
	assert.Equal("", out.String())
	assert.Equal(uint8(0), sh.Machine.Pc())
}

func TestShellSave(t *testing.T) {
	assert := assert.New(t)

	sh, out := newTestShell(t,
		"IMM r1 5",
		"EXIT",
	)

	path := filepath.Join(t.TempDir(), "rails.state")

	runShell(t, sh, "step", "save "+path)
	out.Reset()

	inf, err := os.Open(path)
	require.NoError(t, err)
	defer inf.Close()

	m := machine.NewMachine()
	assert.NoError(m.Restore(inf))
	assert.Equal(sh.Machine.Program(), m.Program())
	assert.Equal(uint8(1), m.Pc())
}

func TestConsoleHalt(t *testing.T) {
	assert := assert.New(t)

	var out strings.Builder
	con := &Console{Output: &out}

	con.Update(machine.Snapshot{Halt: machine.HALT_BREAKPOINT})
	assert.Equal("halt: breakpoint\n", out.String())

	out.Reset()
	snap := machine.Snapshot{Changed: machine.CHANGED_RAM}
	snap.Ram[0x42] = 0x99
	con.Update(snap)
	assert.Equal("ram 00: "+zeros+"\n"+
		"ram 40: 00 00 99 00 00 00 00 00 00 00 00 00 00 00 00 00\n", out.String())
}

// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ezrec/rails/emulator"
	"github.com/ezrec/rails/machine"
)

var (
	ErrCommand   = errors.New(f("unknown command"))
	ErrArguments = errors.New(f("wrong number of arguments"))
)

const shellHelp = `start            run continuously
stop [ms]        stop, waiting at most ms milliseconds
step [n]         execute n instructions (default 1)
reset            stop and reset the machine
break PC         set a breakpoint
clear PC         remove a breakpoint
breaks           list breakpoints
in INDEX VALUE   set an input latch
show             show the machine state
save FILE        save the machine state
quit             leave the shell
`

// Shell is the interactive command interpreter for an emulator.
type Shell struct {
	Emulator *emulator.Emulator
	Machine  *machine.Machine
	Console  *Console
	Prompt   string // Printed before each command, if set.
}

// parseNumber parses an integer in any Go base.
func parseNumber(word string, bits int) (value uint64, err error) {
	value, err = strconv.ParseUint(word, 0, bits)
	return
}

// Run reads and executes commands until quit or the end of input.
func (sh *Shell) Run(input io.Reader) (err error) {
	scanner := bufio.NewScanner(input)

	for {
		if len(sh.Prompt) != 0 {
			sh.Console.Printf("%v", sh.Prompt)
		}

		if !scanner.Scan() {
			break
		}

		words := strings.Fields(scanner.Text())
		if len(words) == 0 {
			continue
		}

		var quit bool
		quit, err = sh.Exec(words)
		if err != nil {
			sh.Console.Printf("%v: %v\n", words[0], err)
			err = nil
		}
		if quit {
			return
		}
	}

	err = scanner.Err()
	return
}

// Exec executes a single command.
func (sh *Shell) Exec(words []string) (quit bool, err error) {
	emu := sh.Emulator
	cmd, args := strings.ToLower(words[0]), words[1:]

	argc := func(lo, hi int) bool {
		if len(args) < lo || len(args) > hi {
			err = ErrArguments
			return false
		}
		return true
	}

	switch cmd {
	case "help", "?":
		sh.Console.Printf("%v", shellHelp)
	case "start", "run":
		if argc(0, 0) {
			emu.Start()
		}
	case "stop":
		if !argc(0, 1) {
			return
		}
		timeout := emu.StopTimeout
		if len(args) == 1 {
			var ms uint64
			ms, err = parseNumber(args[0], 32)
			if err != nil {
				return
			}
			timeout = time.Duration(ms) * time.Millisecond
		}
		err = emu.Stop(timeout)
	case "step", "s":
		if !argc(0, 1) {
			return
		}
		count := uint64(1)
		if len(args) == 1 {
			count, err = parseNumber(args[0], 32)
			if err != nil {
				return
			}
		}
		err = sh.step(int(count))
	case "reset":
		if argc(0, 0) {
			err = emu.Reset()
		}
	case "break", "b":
		if !argc(1, 1) {
			return
		}
		var pc uint64
		pc, err = parseNumber(args[0], 8)
		if err != nil {
			return
		}
		err = emu.Break(uint8(pc))
	case "clear":
		if !argc(1, 1) {
			return
		}
		var pc uint64
		pc, err = parseNumber(args[0], 8)
		if err != nil {
			return
		}
		err = emu.Clear(uint8(pc))
	case "breaks":
		if !argc(0, 0) {
			return
		}
		var pcs []uint8
		pcs, err = emu.Breakpoints()
		if err != nil {
			return
		}
		for _, pc := range pcs {
			sh.Console.Printf("break %02x\n", pc)
		}
	case "in":
		if !argc(2, 2) {
			return
		}
		var index, value uint64
		index, err = parseNumber(args[0], 8)
		if err != nil {
			return
		}
		value, err = parseNumber(args[1], 8)
		if err != nil {
			return
		}
		err = emu.SetInput(int(index), uint8(value))
	case "show":
		if argc(0, 0) {
			snap := emu.Snapshot()
			snap.Changed = machine.CHANGED_ALL
			sh.Console.Update(snap)
		}
	case "save":
		if argc(1, 1) {
			err = sh.save(args[0])
		}
	case "quit", "exit", "q":
		quit = true
	default:
		err = ErrCommand
	}

	return
}

// step executes count instructions, then shows what changed.
func (sh *Shell) step(count int) (err error) {
	for range count {
		var done bool
		done, err = sh.Emulator.Step()
		if done || err != nil {
			break
		}
	}

	sh.Console.Update(sh.Emulator.Snapshot())

	return
}

// save writes the machine state to a file.
func (sh *Shell) save(path string) (err error) {
	ouf, err := os.Create(path)
	if err != nil {
		return
	}

	sh.Emulator.Do(func(emulator.Steppable) {
		err = sh.Machine.Save(ouf)
	})

	if cerr := ouf.Close(); err == nil {
		err = cerr
	}

	return
}

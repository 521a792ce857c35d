// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/ezrec/rails/asm"
	"github.com/ezrec/rails/emulator"
	"github.com/ezrec/rails/machine"
	"github.com/ezrec/rails/tape"
)

func main() {
	var compile string
	var binary string
	var restore string
	var output string
	var tapeIn string
	var tapeOut string
	var listing bool
	var fast bool
	var limit int
	var rate int
	var ui int
	var verbose bool

	flag.StringVar(&compile, "c", "", ".rails file to assemble")
	flag.StringVar(&binary, "b", "", "Binary program file to use")
	flag.StringVar(&restore, "s", "", "Saved state to restore")
	flag.StringVar(&output, "o", "", "Save state on exit")
	flag.StringVar(&tapeIn, "i", "", "Tape input of -fast (- for stdin)")
	flag.StringVar(&tapeOut, "t", "", "Tape output of -fast (- for stdout)")
	flag.BoolVar(&listing, "l", false, "List the program, do not execute")
	flag.BoolVar(&fast, "fast", false, "Run to completion, unthrottled")
	flag.IntVar(&limit, "limit", 0, "Instruction limit of -fast (0 for none)")
	flag.IntVar(&rate, "rate", int(emulator.STEP_RATE_LIMIT.Milliseconds()), "Milliseconds between steps")
	flag.IntVar(&ui, "ui", int(emulator.UI_UPDATE_LIMIT.Milliseconds()), "Milliseconds between updates")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(compile) != 0 && len(binary) != 0 {
		log.Fatalf("%v: -c and -b are exclusive", os.Args[0])
	}

	prog := &asm.Program{}

	// Assemble a new program.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		as := &asm.Assembler{Verbose: verbose}
		prog, err = as.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	}

	// Load a binary program.
	if len(binary) != 0 {
		inf, err := os.Open(binary)
		if err != nil {
			log.Fatalf("%v: %v", binary, err)
		}
		defer inf.Close()

		prog, err = asm.ReadBinary(inf)
		if err != nil {
			log.Fatalf("%v: %v", binary, err)
		}
	}

	console := &Console{Output: os.Stdout, Program: prog}

	if listing {
		err := prog.Listing(os.Stdout)
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	m := machine.NewMachine()
	m.Verbose = verbose

	err := m.Load(prog.Words)
	if err != nil {
		log.Fatal(err)
	}

	if len(restore) != 0 {
		inf, err := os.Open(restore)
		if err != nil {
			log.Fatalf("%v: %v", restore, err)
		}
		err = m.Restore(inf)
		inf.Close()
		if err != nil {
			log.Fatalf("%v: %v", restore, err)
		}
		// A program given on the command line replaces the saved one.
		if len(prog.Words) != 0 {
			err = m.Load(prog.Words)
			if err != nil {
				log.Fatal(err)
			}
		}
	}

	if fast {
		tc := &tape.Tape{Verbose: verbose}

		if tapeIn == "-" {
			tc.Input = os.Stdin
		} else if len(tapeIn) != 0 {
			inf, err := os.Open(tapeIn)
			if err != nil {
				log.Fatalf("%v: %v", tapeIn, err)
			}
			defer inf.Close()
			tc.Input = inf
		}

		if tapeOut == "-" {
			tc.Output = os.Stdout
			console.Output = os.Stderr
		} else if len(tapeOut) != 0 {
			ouf, err := os.Create(tapeOut)
			if err != nil {
				log.Fatalf("%v: %v", tapeOut, err)
			}
			defer ouf.Close()
			tc.Output = ouf
		}

		changed, steps, _, err := tc.Run(m, limit)
		console.Update(m.Snapshot(changed))
		// The end of the input tape ends the run.
		if errors.Is(err, tape.ErrTapeEmpty) {
			err = nil
		}
		if err != nil {
			log.Fatalf("step %v: %v", steps, err)
		}
	} else {
		emu := emulator.NewEmulator(m)
		emu.Verbose = verbose
		emu.StepRateLimit = time.Duration(rate) * time.Millisecond
		emu.UiUpdateLimit = time.Duration(ui) * time.Millisecond
		emu.Observer = console

		sh := &Shell{
			Emulator: emu,
			Machine:  m,
			Console:  console,
		}
		if isTerminal(os.Stdin) {
			sh.Prompt = "rails> "
		}

		err = sh.Run(os.Stdin)
		emu.Close()
		if err != nil {
			log.Fatal(err)
		}
		if err = emu.Err(); err != nil {
			log.Print(err)
		}
	}

	if len(output) != 0 {
		ouf, err := os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		err = m.Save(ouf)
		if cerr := ouf.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
	}
}

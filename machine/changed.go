package machine

import (
	"iter"
	"strings"
)

// Changed is the set of state categories modified by one or more steps.
type Changed uint8

const (
	CHANGED_REGISTERS = Changed(1 << 0)
	CHANGED_RAM       = Changed(1 << 1)
	CHANGED_OUTPUT    = Changed(1 << 2)
	CHANGED_PC        = Changed(1 << 3)
	CHANGED_CARRY     = Changed(1 << 4)

	CHANGED_NONE = Changed(0)
	CHANGED_ALL  = CHANGED_REGISTERS | CHANGED_RAM | CHANGED_OUTPUT | CHANGED_PC | CHANGED_CARRY
)

var _changed_name = map[Changed]string{
	CHANGED_REGISTERS: "registers",
	CHANGED_RAM:       "ram",
	CHANGED_OUTPUT:    "output",
	CHANGED_PC:        "pc",
	CHANGED_CARRY:     "carry",
}

// Has is true if every category in other is also in ch.
func (ch Changed) Has(other Changed) bool {
	return ch&other == other
}

// All iterates over the single categories in the set, lowest bit first.
func (ch Changed) All() iter.Seq[Changed] {
	return func(yield func(Changed) bool) {
		for bit := CHANGED_REGISTERS; bit <= CHANGED_CARRY; bit <<= 1 {
			if ch&bit == 0 {
				continue
			}
			if !yield(bit) {
				return
			}
		}
	}
}

func (ch Changed) String() string {
	if ch == CHANGED_NONE {
		return "none"
	}

	var names []string
	for bit := range ch.All() {
		names = append(names, _changed_name[bit])
	}

	return strings.Join(names, "|")
}

// HaltReason is the cause of the most recent stop.
type HaltReason int

//go:generate go tool stringer -linecomment -type=HaltReason
const (
	HALT_NONE           = HaltReason(0) // none
	HALT_EXIT           = HaltReason(1) // exit instruction
	HALT_BREAKPOINT     = HaltReason(2) // breakpoint
	HALT_INVALID_OPCODE = HaltReason(3) // invalid opcode
)

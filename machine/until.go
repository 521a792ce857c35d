package machine

// Until selects the stopping condition of RunUntil.
type Until int

const (
	UNTIL_EXIT = Until(iota) // Stop at the exit instruction.
	UNTIL_IO                 // Stop before an IN or OUT instruction.
)

// RunUntil runs the machine without throttling or breakpoints until the
// condition is met, an error occurs, or limit instructions have executed.
// A limit of zero or less runs without bound. The changes of all executed
// instructions are unioned.
func (m *Machine) RunUntil(until Until, limit int) (changed Changed, steps int, done bool, err error) {
	m.resume = false

	for limit <= 0 || steps < limit {
		word := Word(m.state.Prom[m.state.Pc])
		if until == UNTIL_IO {
			op := word.Opcode()
			if word != EXIT_WORD && (op == OP_IN || op == OP_OUT) {
				return
			}
		}

		var ch Changed
		ch, done, err = m.step(false)
		changed |= ch
		if done || err != nil {
			return
		}
		steps++
	}

	return
}

// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator drives a Steppable machine at a bounded rate, with
// start, stop, step and reset control and periodic change notification.
package emulator

import (
	"sync"
	"time"

	"github.com/ezrec/rails/machine"
	"github.com/ezrec/rails/translate"
)

const (
	STEP_RATE_LIMIT = 100 * time.Millisecond  // Minimum time between steps.
	UI_UPDATE_LIMIT = 1000 * time.Millisecond // Minimum time between notifications.
	STOP_TIMEOUT    = 5000 * time.Millisecond // Stop timeout used by Reset.
)

// Steppable is a machine the emulator can drive.
type Steppable interface {
	// Step executes one instruction, ignoring breakpoints.
	Step() (changed machine.Changed, done bool, err error)
	// Tick executes one instruction of a continuous run.
	Tick() (changed machine.Changed, done bool, err error)
	// Reset clears the machine state.
	Reset() (changed machine.Changed)
	// Snapshot describes the state, with changed as the modified categories.
	Snapshot(changed machine.Changed) machine.Snapshot
}

// Debugger is implemented by machines supporting breakpoints.
type Debugger interface {
	Break(pc uint8)
	Clear(pc uint8)
	Breakpoints() []uint8
}

// Inputs is implemented by machines with externally set input latches.
type Inputs interface {
	SetInput(index int, value uint8) error
}

// Observer receives change notifications from the emulator.
type Observer interface {
	Update(snap machine.Snapshot)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(snap machine.Snapshot)

func (of ObserverFunc) Update(snap machine.Snapshot) {
	of(snap)
}

// RunState is the state of the run loop.
type RunState int

//go:generate go tool stringer -linecomment -type=RunState
const (
	STATE_IDLE         = RunState(0) // idle
	STATE_RUNNING      = RunState(1) // running
	STATE_STOP_PENDING = RunState(2) // stop pending
)

// Emulator is the run controller for a Steppable machine.
//
// All access to the machine is serialised through the emulator, so the
// run loop and the control calls never observe a partial step.
type Emulator struct {
	Verbose bool // If set, enables verbose logging.

	StepRateLimit time.Duration // Minimum time between steps. See SetStepRateLimit.
	UiUpdateLimit time.Duration // Minimum time between notifications.
	StopTimeout   time.Duration // Stop timeout used by Reset.

	Observer Observer // Receives change notifications, if set.

	mutex   sync.Mutex
	machine Steppable

	running       bool
	stopRequested bool
	initialized   bool
	idle          chan struct{} // Closed on transition to idle.
	quit          chan struct{} // Closed to end the run loop.
	exited        chan struct{} // Closed when the run loop ends.
	rate          chan struct{} // Signals a StepRateLimit change.

	push       pending // Changes since the last notification.
	pull       pending // Changes since the last Snapshot call.
	steps      int     // Steps taken by the current run.
	lastUpdate time.Time
	err        error // Error that ended the last run.
}

// pending is the change set and halt reason not yet seen by one consumer.
type pending struct {
	changed machine.Changed
	halt    machine.HaltReason
}

// NewEmulator creates a new emulator for a machine.
func NewEmulator(m Steppable) (emu *Emulator) {
	emu = &Emulator{
		StepRateLimit: STEP_RATE_LIMIT,
		UiUpdateLimit: UI_UPDATE_LIMIT,
		StopTimeout:   STOP_TIMEOUT,
		machine:       m,
	}

	return
}

// State returns the run state.
func (emu *Emulator) State() RunState {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.state()
}

func (emu *Emulator) state() RunState {
	switch {
	case emu.running && emu.stopRequested:
		return STATE_STOP_PENDING
	case emu.running:
		return STATE_RUNNING
	}

	return STATE_IDLE
}

// Err returns the error that ended the last run, if any.
func (emu *Emulator) Err() error {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.err
}

// Start the emulator, launching the run loop on first use.
// Starting a running emulator cancels any pending stop.
func (emu *Emulator) Start() {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	if !emu.initialized {
		emu.initialized = true
		emu.quit = make(chan struct{})
		emu.exited = make(chan struct{})
		emu.rate = make(chan struct{}, 1)
		go emu.mainLoop(emu.quit, emu.exited, emu.rate)
	}

	emu.stopRequested = false
	if emu.running {
		return
	}

	emu.running = true
	emu.idle = make(chan struct{})
	emu.err = nil
	emu.steps = 0

	if emu.Verbose {
		translate.Logf("emulator: started")
	}
}

// Stop the emulator, waiting at most timeout for the run loop to go idle.
// Stopping an idle emulator succeeds immediately. On ErrStopTimeout the
// stop remains pending.
func (emu *Emulator) Stop(timeout time.Duration) (err error) {
	emu.mutex.Lock()
	if !emu.running {
		emu.mutex.Unlock()
		return
	}
	emu.stopRequested = true
	idle := emu.idle
	emu.mutex.Unlock()

	if emu.Verbose {
		translate.Logf("emulator: stop requested")
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-idle:
		if emu.Verbose {
			translate.Logf("emulator: stopped")
		}
	case <-timer.C:
		err = ErrStopTimeout
	}

	return
}

// Reset stops the emulator, then resets the machine.
func (emu *Emulator) Reset() (err error) {
	err = emu.Stop(emu.StopTimeout)
	if err != nil {
		return
	}

	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	emu.accumulate(emu.machine.Reset())
	emu.err = nil

	if emu.Verbose {
		translate.Logf("emulator: reset")
	}

	return
}

// Step executes a single instruction while idle.
func (emu *Emulator) Step() (done bool, err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	if emu.running {
		err = ErrBusy
		return
	}

	var changed machine.Changed
	changed, done, err = emu.machine.Step()
	emu.accumulate(changed)
	if err != nil {
		err = &ErrRuntime{Steps: 1, Err: err}
	}

	return
}

// Break adds a breakpoint.
func (emu *Emulator) Break(pc uint8) (err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	dbg, ok := emu.machine.(Debugger)
	if !ok {
		err = ErrUnsupported
		return
	}

	dbg.Break(pc)
	return
}

// Clear removes a breakpoint.
func (emu *Emulator) Clear(pc uint8) (err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	dbg, ok := emu.machine.(Debugger)
	if !ok {
		err = ErrUnsupported
		return
	}

	dbg.Clear(pc)
	return
}

// Breakpoints returns the breakpoints in ascending order.
func (emu *Emulator) Breakpoints() (pcs []uint8, err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	dbg, ok := emu.machine.(Debugger)
	if !ok {
		err = ErrUnsupported
		return
	}

	pcs = dbg.Breakpoints()
	return
}

// SetInput sets an input latch. It may be called at any time.
func (emu *Emulator) SetInput(index int, value uint8) (err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	in, ok := emu.machine.(Inputs)
	if !ok {
		err = ErrUnsupported
		return
	}

	return in.SetInput(index, value)
}

// Do calls fn with the machine while the run loop is held off.
func (emu *Emulator) Do(fn func(m Steppable)) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	fn(emu.machine)
}

// Snapshot returns the machine state with the changes and halt accumulated
// since the previous Snapshot call. Observer notifications are tracked
// separately and are not affected.
func (emu *Emulator) Snapshot() (snap machine.Snapshot) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.snapshot(&emu.pull, &emu.push)
}

// SetStepRateLimit changes the time between steps, taking effect at once
// even while running.
func (emu *Emulator) SetStepRateLimit(rate time.Duration) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	emu.StepRateLimit = rate
	if emu.rate != nil {
		select {
		case emu.rate <- struct{}{}:
		default:
		}
	}
}

// accumulate records changes for both the observer and Snapshot.
func (emu *Emulator) accumulate(changed machine.Changed) {
	emu.push.changed |= changed
	emu.pull.changed |= changed
}

// snapshot takes a machine snapshot for the own consumer. A halt reason
// reported by the machine is kept pending for the other consumer.
func (emu *Emulator) snapshot(own, other *pending) (snap machine.Snapshot) {
	snap = emu.machine.Snapshot(own.changed)
	if snap.Halt != machine.HALT_NONE {
		other.halt = snap.Halt
	} else {
		snap.Halt = own.halt
	}
	*own = pending{}

	return
}

// Close ends the run loop. The emulator is left idle.
func (emu *Emulator) Close() (err error) {
	emu.mutex.Lock()
	if !emu.initialized {
		emu.mutex.Unlock()
		return
	}
	emu.initialized = false
	emu.setIdle()
	quit, exited := emu.quit, emu.exited
	emu.mutex.Unlock()

	close(quit)
	<-exited

	return
}

// setIdle moves to idle, releasing any Stop waiters.
func (emu *Emulator) setIdle() {
	emu.running = false
	emu.stopRequested = false
	if emu.idle != nil {
		close(emu.idle)
		emu.idle = nil
	}
}

// stepRate returns the current StepRateLimit.
func (emu *Emulator) stepRate() time.Duration {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.StepRateLimit
}

// mainLoop calls tick every StepRateLimit until quit is closed.
func (emu *Emulator) mainLoop(quit chan struct{}, exited chan struct{}, rate chan struct{}) {
	defer close(exited)

	timer := time.NewTimer(emu.stepRate())
	defer timer.Stop()

	for {
		select {
		case <-quit:
			return
		case <-rate:
			timer.Reset(emu.stepRate())
		case now := <-timer.C:
			emu.tick(now)
			timer.Reset(emu.stepRate())
		}
	}
}

// tick is a single scheduling tick of the run loop.
func (emu *Emulator) tick(now time.Time) {
	emu.mutex.Lock()

	if emu.stopRequested {
		emu.setIdle()
	}

	if emu.running {
		changed, done, err := emu.machine.Tick()
		emu.accumulate(changed)
		emu.steps++
		if done {
			if err != nil {
				emu.err = &ErrRuntime{Steps: emu.steps, Err: err}
				if emu.Verbose {
					translate.Logf("emulator: %v", emu.err)
				}
			}
			emu.setIdle()
		}
	}

	var snap *machine.Snapshot
	observer := emu.Observer
	if observer != nil && now.Sub(emu.lastUpdate) > emu.UiUpdateLimit {
		s := emu.snapshot(&emu.push, &emu.pull)
		snap = &s
		emu.lastUpdate = now
	}

	emu.mutex.Unlock()

	if snap != nil {
		observer.Update(*snap)
	}
}

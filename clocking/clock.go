// Package clocking runs cooperative tasks against a clock.
//
// A Clock is scheduled on a sim.Engine and handles one tick event per rising
// edge. Tasks are goroutines, but only one of them runs at any time: the clock
// resumes a task and waits until it suspends in Task.Edge or returns. At every
// edge the clock first commits the attached signals, then invokes the edge
// hooks, then resumes the tasks that wait for the edge in the order they
// started waiting. A task spawned during an edge runs later in the same edge.
//
// Foreground tasks keep the clock ticking. Background tasks are stopped once
// the last foreground task returns.
package clocking

import (
	"log"

	"github.com/pkg/errors"
	"github.com/sarchlab/wbsim/sim"
)

// HookPosEdge marks a rising edge. It is invoked after the signals are
// committed and before any task runs. The hook item is the cycle number.
var HookPosEdge = &sim.HookPos{Name: "Clock Edge"}

// ErrCycleLimit is returned by Run when the clock exceeds its cycle limit.
var ErrCycleLimit = errors.New("clock cycle limit exceeded")

// A Committer latches staged values at a rising edge.
type Committer interface {
	Commit()
}

// A TaskFunc is the body of a task.
type TaskFunc func(t *Task) error

// A Clock delivers rising edges to tasks.
type Clock struct {
	*sim.ComponentBase
	*sim.TickScheduler

	cycle      uint64
	cycleLimit uint64
	committers []Committer

	ready      []*Task
	waiting    []*Task
	foreground int
	running    *Task
	yield      chan struct{}
	err        error
}

// NewClock creates a clock that ticks at freq on the given engine.
func NewClock(name string, engine sim.Engine, freq sim.Freq) *Clock {
	c := &Clock{
		yield: make(chan struct{}),
	}
	c.ComponentBase = sim.NewComponentBase(name)
	c.TickScheduler = sim.NewTickScheduler(c, engine, freq)

	return c
}

// Attach registers a committer to be committed at every edge, in attach
// order.
func (c *Clock) Attach(committer Committer) {
	c.committers = append(c.committers, committer)
}

// SetCycleLimit makes Run fail with ErrCycleLimit once more than limit edges
// have been delivered. Zero disables the limit.
func (c *Clock) SetCycleLimit(limit uint64) {
	c.cycleLimit = limit
}

// Cycle returns the number of rising edges delivered so far.
func (c *Clock) Cycle() uint64 {
	return c.cycle
}

// Go starts a foreground task.
func (c *Clock) Go(name string, fn TaskFunc) *Task {
	return c.spawn(name, fn, false)
}

// GoBackground starts a background task.
func (c *Clock) GoBackground(name string, fn TaskFunc) *Task {
	return c.spawn(name, fn, true)
}

func (c *Clock) spawn(name string, fn TaskFunc, background bool) *Task {
	t := &Task{
		name:       name,
		clock:      c,
		fn:         fn,
		background: background,
		resume:     make(chan bool),
	}

	c.ready = append(c.ready, t)
	if !background {
		c.foreground++
	}

	go t.main()

	return t
}

// Run runs the tasks that are ready, then keeps delivering edges until every
// foreground task has returned. It returns the first error returned by a task
// or by the engine. Remaining tasks are stopped before Run returns. A panic in
// a task is raised again by Run.
func (c *Clock) Run() error {
	if c.running != nil {
		log.Panic("clock cannot be run from within a task")
	}

	defer c.shutdown()

	if err := c.drain(); err != nil {
		return err
	}

	if c.foreground == 0 {
		return nil
	}

	c.TickLater()

	if err := c.Engine.Run(); err != nil {
		return err
	}

	return c.err
}

// Handle delivers one rising edge.
func (c *Clock) Handle(e sim.Event) error {
	if _, ok := e.(sim.TickEvent); !ok {
		log.Panicf("clock %s cannot handle event %T", c.Name(), e)
	}

	c.cycle++
	if c.cycleLimit > 0 && c.cycle > c.cycleLimit {
		c.err = errors.Wrapf(ErrCycleLimit,
			"%s: limit of %d cycles", c.Name(), c.cycleLimit)
		return c.err
	}

	for _, s := range c.committers {
		s.Commit()
	}

	if c.NumHooks() > 0 {
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    HookPosEdge,
			Item:   c.cycle,
		})
	}

	c.ready = append(c.ready, c.waiting...)
	c.waiting = nil

	if err := c.drain(); err != nil {
		return err
	}

	if c.foreground > 0 {
		c.TickLater()
	}

	return nil
}

func (c *Clock) drain() error {
	for len(c.ready) > 0 && c.err == nil {
		t := c.ready[0]
		c.ready = c.ready[1:]
		c.step(t)
	}

	return c.err
}

func (c *Clock) step(t *Task) {
	c.running = t
	t.resume <- true
	<-c.yield
	c.running = nil

	if !t.finished {
		return
	}

	if !t.background {
		c.foreground--
	}

	if t.panicked {
		c.shutdown()
		panic(t.panicValue)
	}

	if t.err != nil && c.err == nil {
		c.err = errors.Wrapf(t.err, "task %s", t.name)
	}
}

func (c *Clock) shutdown() {
	pending := append(c.ready, c.waiting...)
	c.ready = nil
	c.waiting = nil

	for _, t := range pending {
		if t.finished {
			continue
		}

		t.resume <- false
		<-c.yield
	}
}

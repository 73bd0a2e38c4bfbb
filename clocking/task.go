package clocking

import (
	"log"
	"runtime"
)

// A Task is a cooperative routine that advances with the clock.
type Task struct {
	name       string
	clock      *Clock
	fn         TaskFunc
	background bool
	resume     chan bool

	finished   bool
	err        error
	panicked   bool
	panicValue interface{}
}

func (t *Task) main() {
	defer func() {
		if r := recover(); r != nil {
			t.panicked = true
			t.panicValue = r
		}

		t.finished = true
		t.clock.yield <- struct{}{}
	}()

	if !<-t.resume {
		return
	}

	t.err = t.fn(t)
}

// Name returns the name of the task.
func (t *Task) Name() string {
	return t.name
}

// Clock returns the clock that runs the task.
func (t *Task) Clock() *Clock {
	return t.clock
}

// Cycle returns the number of the current edge.
func (t *Task) Cycle() uint64 {
	return t.clock.cycle
}

// Finished tells if the task has returned.
func (t *Task) Finished() bool {
	return t.finished
}

// Err returns the error the task returned.
func (t *Task) Err() error {
	return t.err
}

// Edge suspends the task until the next rising edge. It must only be called
// by the task itself. If the clock stops while the task waits, the task's
// goroutine exits and its deferred calls run.
func (t *Task) Edge() {
	c := t.clock
	if c.running != t {
		log.Panicf("task %s waits for an edge outside of its own body", t.name)
	}

	c.waiting = append(c.waiting, t)
	c.yield <- struct{}{}

	if !<-t.resume {
		runtime.Goexit()
	}
}

// Edges waits for n rising edges.
func (t *Task) Edges(n int) {
	for i := 0; i < n; i++ {
		t.Edge()
	}
}

// WaitUntil checks cond at every edge, starting with the current one, and
// returns once it holds. It returns the number of edges waited.
func (t *Task) WaitUntil(cond func() bool) int {
	n := 0
	for !cond() {
		t.Edge()
		n++
	}

	return n
}

// Go starts a foreground task on the same clock.
func (t *Task) Go(name string, fn TaskFunc) *Task {
	return t.clock.Go(name, fn)
}

// GoBackground starts a background task on the same clock.
func (t *Task) GoBackground(name string, fn TaskFunc) *Task {
	return t.clock.GoBackground(name, fn)
}

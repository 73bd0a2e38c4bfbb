package wishbone

import (
	"iter"
	"log"
)

// A Generator produces an endless sequence of values. Every call to Next
// yields the next value. Callers pull exactly one value per decision.
type Generator[T any] interface {
	Next() T
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc[T any] func() T

// Next calls f.
func (f GeneratorFunc[T]) Next() T {
	return f()
}

type repeatGen[T any] struct {
	v T
}

func (g repeatGen[T]) Next() T {
	return g.v
}

// Repeat yields v forever.
func Repeat[T any](v T) Generator[T] {
	return repeatGen[T]{v: v}
}

type cycleGen[T any] struct {
	values []T
	i      int
}

func (g *cycleGen[T]) Next() T {
	v := g.values[g.i]
	g.i = (g.i + 1) % len(g.values)

	return v
}

// Cycle yields the given values in order, starting over after the last one.
func Cycle[T any](values ...T) Generator[T] {
	if len(values) == 0 {
		log.Panic("wishbone: cycling through no values")
	}

	vs := make([]T, len(values))
	copy(vs, values)

	return &cycleGen[T]{values: vs}
}

// A SeqGenerator pulls values from an iterator. It holds the iterator
// suspended between calls to Next until Stop is called.
type SeqGenerator[T any] struct {
	next func() (T, bool)
	stop func()
}

// Next returns the next value of the iterator.
func (g *SeqGenerator[T]) Next() T {
	v, ok := g.next()
	if !ok {
		log.Panic("wishbone: generator sequence ended")
	}

	return v
}

// Stop ends the iterator. Next must not be called afterwards.
func (g *SeqGenerator[T]) Stop() {
	g.stop()
}

// Close stops the iterator.
func (g *SeqGenerator[T]) Close() error {
	g.Stop()
	return nil
}

// FromSeq pulls values from an iterator. The iterator must not end. The
// returned generator should be stopped once no more values are needed.
func FromSeq[T any](seq iter.Seq[T]) *SeqGenerator[T] {
	next, stop := iter.Pull(seq)
	return &SeqGenerator[T]{next: next, stop: stop}
}

// Counter yields start, start+step, start+2*step and so on.
func Counter(start, step uint64) Generator[uint64] {
	v := start

	return GeneratorFunc[uint64](func() uint64 {
		r := v
		v += step

		return r
	})
}

// A StallRun holds the stall line high for High edges, then low for Low
// edges.
type StallRun struct {
	High int
	Low  int
}

type stallGen struct {
	runs Generator[StallRun]
	high int
	low  int
}

func (g *stallGen) Next() bool {
	for g.high == 0 && g.low == 0 {
		r := g.runs.Next()
		g.high = max(r.High, 0)
		g.low = max(r.Low, 1)
	}

	if g.high > 0 {
		g.high--
		return true
	}

	g.low--

	return false
}

// StallPattern expands stall runs into stall bits. Every run has at least one
// low bit so that requests can make progress.
func StallPattern(runs Generator[StallRun]) Generator[bool] {
	return &stallGen{runs: runs}
}

// NoStall never stalls.
func NoStall() Generator[bool] {
	return Repeat(false)
}

// Package signal provides the lines of a simulated bus.
//
// A Line keeps two values: the committed value that every reader sees during
// the current clock edge, and the staged value that writers set. Committing
// the line, which the clock does at each rising edge, makes the staged value
// visible. Reads within one edge are therefore independent of the order in
// which the components run.
package signal

import (
	"fmt"
	"log"
)

// MaxWidth is the widest line that can be modeled.
const MaxWidth = 64

// A Line is a named group of wires.
type Line struct {
	name  string
	width int
	mask  uint64
	cur   uint64
	next  uint64
}

// NewLine creates a line that is width bits wide. The line starts at zero.
func NewLine(name string, width int) *Line {
	if width < 1 || width > MaxWidth {
		log.Panicf("line %s: width %d is out of range [1, %d]",
			name, width, MaxWidth)
	}

	return &Line{
		name:  name,
		width: width,
		mask:  Mask(width),
	}
}

// Mask returns a value with the low width bits set.
func Mask(width int) uint64 {
	if width >= MaxWidth {
		return ^uint64(0)
	}

	return (uint64(1) << uint(width)) - 1
}

// Name returns the name of the line.
func (l *Line) Name() string {
	return l.name
}

// Width returns the number of wires of the line.
func (l *Line) Width() int {
	return l.width
}

// Fits tells if v can be driven on the line without truncation.
func (l *Line) Fits(v uint64) bool {
	return v&^l.mask == 0
}

// Value returns the committed value.
func (l *Line) Value() uint64 {
	return l.cur
}

// IsHigh returns true if any wire of the line is set.
func (l *Line) IsHigh() bool {
	return l.cur != 0
}

// Set stages v. The value becomes visible after the next commit. The last
// value set before the commit wins.
func (l *Line) Set(v uint64) {
	l.next = v & l.mask
}

// SetBool stages 1 for true and 0 for false.
func (l *Line) SetBool(b bool) {
	if b {
		l.Set(1)
		return
	}

	l.Set(0)
}

// SetImmediate sets both the staged and the committed value. It is meant for
// initial values, before the clock starts.
func (l *Line) SetImmediate(v uint64) {
	l.next = v & l.mask
	l.cur = l.next
}

// Commit makes the staged value visible. It returns true if the visible value
// changed.
func (l *Line) Commit() bool {
	changed := l.cur != l.next
	l.cur = l.next

	return changed
}

func (l *Line) String() string {
	return fmt.Sprintf("%s[%d]=%#x", l.name, l.width, l.cur)
}

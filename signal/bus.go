package signal

import "log"

// A Bus is an ordered set of named lines.
type Bus struct {
	name  string
	lines []*Line
	index map[string]*Line

	changed []*Line
}

// NewBus creates an empty bus.
func NewBus(name string) *Bus {
	return &Bus{
		name:  name,
		index: make(map[string]*Line),
	}
}

// Name returns the name of the bus.
func (b *Bus) Name() string {
	return b.name
}

// AddLine creates a line on the bus. Line names must be unique on a bus.
func (b *Bus) AddLine(name string, width int) *Line {
	if _, found := b.index[name]; found {
		log.Panicf("bus %s already has a line named %s", b.name, name)
	}

	l := NewLine(name, width)
	b.lines = append(b.lines, l)
	b.index[name] = l

	return l
}

// Line returns the line with the given name.
func (b *Bus) Line(name string) (*Line, bool) {
	l, found := b.index[name]
	return l, found
}

// Lines returns all the lines in the order they were added.
func (b *Bus) Lines() []*Line {
	return b.lines
}

// Commit commits every line on the bus.
func (b *Bus) Commit() {
	b.changed = b.changed[:0]

	for _, l := range b.lines {
		if l.Commit() {
			b.changed = append(b.changed, l)
		}
	}
}

// Changed returns the lines whose visible value changed at the last commit.
func (b *Bus) Changed() []*Line {
	return b.changed
}

// Package wishbone holds what initiators and responders of a Wishbone bus
// share: the line names, the bus variant, operation and result records,
// errors, and the generators that shape responder timing.
package wishbone

import (
	"log"

	"github.com/pkg/errors"
	"github.com/sarchlab/wbsim/signal"
)

// Default line names.
const (
	LineCyc   = "cyc"
	LineStb   = "stb"
	LineWe    = "we"
	LineAdr   = "adr"
	LineDatWr = "datwr"
	LineDatRd = "datrd"
	LineAck   = "ack"
	LineSel   = "sel"
	LineErr   = "err"
	LineStall = "stall"
	LineRty   = "rty"
)

// AdrWidth is the width of the address lines that NewBus creates.
const AdrWidth = 32

// RequiredLines are the lines every bus variant carries.
var RequiredLines = []string{
	LineCyc, LineStb, LineWe, LineAdr, LineDatWr, LineDatRd, LineAck,
}

// OptionalLines are the lines a bus variant may leave out.
var OptionalLines = []string{LineSel, LineErr, LineStall, LineRty}

// A Variant tells which optional lines a bus carries.
type Variant struct {
	WithSelect bool
	WithError  bool
	WithStall  bool
	WithRetry  bool
}

// FullVariant carries every optional line.
var FullVariant = Variant{
	WithSelect: true,
	WithError:  true,
	WithStall:  true,
	WithRetry:  true,
}

// A SignalMap renames lines. Keys are default line names, values are the
// names of the lines on the bus. Lines not in the map keep their default name.
type SignalMap map[string]string

func (m SignalMap) resolve(name string) string {
	if m == nil {
		return name
	}

	if mapped, ok := m[name]; ok {
		return mapped
	}

	return name
}

// NewBus creates a bus of the given data width carrying the lines of the
// variant under their default names.
func NewBus(name string, width int, v Variant) *signal.Bus {
	return NewMappedBus(name, width, v, nil)
}

// NewMappedBus is NewBus with the lines named through m.
func NewMappedBus(name string, width int, v Variant, m SignalMap) *signal.Bus {
	if width <= 0 || width > signal.MaxWidth || width%8 != 0 {
		log.Panicf("wishbone: data width %d is not a multiple of 8 up to %d",
			width, signal.MaxWidth)
	}

	bus := signal.NewBus(name)
	add := func(line string, w int) {
		bus.AddLine(m.resolve(line), w)
	}

	add(LineCyc, 1)
	add(LineStb, 1)
	add(LineWe, 1)
	add(LineAdr, AdrWidth)
	add(LineDatWr, width)
	add(LineDatRd, width)
	add(LineAck, 1)

	if v.WithSelect {
		add(LineSel, width/8)
	}

	if v.WithError {
		add(LineErr, 1)
	}

	if v.WithStall {
		add(LineStall, 1)
	}

	if v.WithRetry {
		add(LineRty, 1)
	}

	return bus
}

// Signals are the lines of a bus resolved for one component. Optional lines
// the bus does not carry are nil.
type Signals struct {
	Cyc   *signal.Line
	Stb   *signal.Line
	We    *signal.Line
	Adr   *signal.Line
	DatWr *signal.Line
	DatRd *signal.Line
	Ack   *signal.Line
	Sel   *signal.Line
	Err   *signal.Line
	Stall *signal.Line
	Rty   *signal.Line

	variant Variant
}

// Bind resolves the lines of a bus. A missing required line, or a
// single-bit line of the wrong width, fails with ErrProtocolConfig.
func Bind(bus *signal.Bus, m SignalMap) (*Signals, error) {
	s := &Signals{}

	required := []struct {
		name string
		dst  **signal.Line
	}{
		{LineCyc, &s.Cyc},
		{LineStb, &s.Stb},
		{LineWe, &s.We},
		{LineAdr, &s.Adr},
		{LineDatWr, &s.DatWr},
		{LineDatRd, &s.DatRd},
		{LineAck, &s.Ack},
	}

	for _, r := range required {
		l, ok := bus.Line(m.resolve(r.name))
		if !ok {
			return nil, errors.Wrapf(ErrProtocolConfig,
				"bus %s has no %s line (%s)",
				bus.Name(), r.name, m.resolve(r.name))
		}

		*r.dst = l
	}

	s.Sel, _ = bus.Line(m.resolve(LineSel))
	s.Err, _ = bus.Line(m.resolve(LineErr))
	s.Stall, _ = bus.Line(m.resolve(LineStall))
	s.Rty, _ = bus.Line(m.resolve(LineRty))

	for _, l := range []*signal.Line{
		s.Cyc, s.Stb, s.We, s.Ack, s.Err, s.Stall, s.Rty,
	} {
		if l != nil && l.Width() != 1 {
			return nil, errors.Wrapf(ErrProtocolConfig,
				"line %s must be 1 bit wide, not %d", l.Name(), l.Width())
		}
	}

	s.variant = Variant{
		WithSelect: s.Sel != nil,
		WithError:  s.Err != nil,
		WithStall:  s.Stall != nil,
		WithRetry:  s.Rty != nil,
	}

	return s, nil
}

// Variant returns the optional lines that were found.
func (s *Signals) Variant() Variant {
	return s.variant
}

// ReplyLine returns the line that carries the given reply kind, or nil if the
// bus has no such line.
func (s *Signals) ReplyLine(k ReplyKind) *signal.Line {
	switch k {
	case ReplyAck:
		return s.Ack
	case ReplyErr:
		return s.Err
	case ReplyRty:
		return s.Rty
	}

	return nil
}

// FullSel returns the mask that selects every byte lane.
func (s *Signals) FullSel() uint64 {
	return signal.Mask(s.DatWr.Width() / 8)
}

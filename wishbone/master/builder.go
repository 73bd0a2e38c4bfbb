package master

import (
	"log"

	"github.com/sarchlab/wbsim/clocking"
	"github.com/sarchlab/wbsim/signal"
	"github.com/sarchlab/wbsim/sim"
	"github.com/sarchlab/wbsim/wishbone"
	"go.uber.org/zap"
)

// Builder builds initiators.
type Builder struct {
	clk     *clocking.Clock
	bus     *signal.Bus
	width   int
	timeout int
	signals wishbone.SignalMap
	logger  *zap.Logger
}

// MakeBuilder returns a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		width:  32,
		logger: zap.NewNop(),
	}
}

// WithClock sets the clock the initiator runs on.
func (b Builder) WithClock(clk *clocking.Clock) Builder {
	b.clk = clk
	return b
}

// WithBus sets the bus the initiator drives.
func (b Builder) WithBus(bus *signal.Bus) Builder {
	b.bus = bus
	return b
}

// WithWidth sets the data width in bits. It is informational only.
func (b Builder) WithWidth(width int) Builder {
	b.width = width
	return b
}

// WithTimeout bounds stall waits and the wait for outstanding replies before
// closing a cycle, in edges. Zero waits forever.
func (b Builder) WithTimeout(timeout int) Builder {
	b.timeout = timeout
	return b
}

// WithSignalMap sets custom line names.
func (b Builder) WithSignalMap(m wishbone.SignalMap) Builder {
	b.signals = m
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(logger *zap.Logger) Builder {
	b.logger = logger
	return b
}

// Build creates an initiator and drives the idle values on its lines.
func (b Builder) Build(name string) (*Comp, error) {
	if b.clk == nil {
		log.Panic("initiator needs a clock")
	}

	if b.bus == nil {
		log.Panic("initiator needs a bus")
	}

	sig, err := wishbone.Bind(b.bus, b.signals)
	if err != nil {
		return nil, err
	}

	c := &Comp{
		ComponentBase: sim.NewComponentBase(name),
		clk:           b.clk,
		sig:           sig,
		width:         b.width,
		timeout:       b.timeout,
		logger:        b.logger.Named(name),
	}

	sig.Cyc.SetImmediate(0)
	sig.Stb.SetImmediate(0)
	sig.We.SetImmediate(0)
	sig.Adr.SetImmediate(0)
	sig.DatWr.SetImmediate(0)

	if sig.Sel != nil {
		sig.Sel.SetImmediate(sig.FullSel())
	}

	c.logger.Info("initiator built",
		zap.String("bus", b.bus.Name()),
		zap.Int("width", b.width),
		zap.Int("timeout", b.timeout),
		zap.Any("variant", sig.Variant()),
	)

	return c, nil
}

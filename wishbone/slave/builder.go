package slave

import (
	"log"

	"github.com/sarchlab/wbsim/clocking"
	"github.com/sarchlab/wbsim/signal"
	"github.com/sarchlab/wbsim/sim"
	"github.com/sarchlab/wbsim/wishbone"
	"go.uber.org/zap"
)

// Builder builds responders.
type Builder struct {
	clk        *clocking.Clock
	bus        *signal.Bus
	dataGen    wishbone.Generator[uint64]
	replyGen   wishbone.Generator[wishbone.ReplyKind]
	latencyGen wishbone.Generator[int]
	stallGen   wishbone.Generator[bool]
	consumer   ResultConsumer
	signals    wishbone.SignalMap
	queueSize  int
	logger     *zap.Logger
}

// MakeBuilder returns a Builder with default parameters. By default the
// responder acknowledges every request at once with zero data and never
// stalls.
func MakeBuilder() Builder {
	return Builder{
		dataGen:    wishbone.Repeat[uint64](0),
		replyGen:   wishbone.Repeat(wishbone.ReplyAck),
		latencyGen: wishbone.Repeat(0),
		stallGen:   wishbone.NoStall(),
		queueSize:  16,
		logger:     zap.NewNop(),
	}
}

// WithClock sets the clock the responder runs on.
func (b Builder) WithClock(clk *clocking.Clock) Builder {
	b.clk = clk
	return b
}

// WithBus sets the bus the responder watches.
func (b Builder) WithBus(bus *signal.Bus) Builder {
	b.bus = bus
	return b
}

// WithDataGen sets the data returned for reads.
func (b Builder) WithDataGen(g wishbone.Generator[uint64]) Builder {
	b.dataGen = g
	return b
}

// WithReplyGen sets the kind of reply given to each request.
func (b Builder) WithReplyGen(g wishbone.Generator[wishbone.ReplyKind]) Builder {
	b.replyGen = g
	return b
}

// WithLatencyGen sets the number of edges between accepting a request and
// driving its reply.
func (b Builder) WithLatencyGen(g wishbone.Generator[int]) Builder {
	b.latencyGen = g
	return b
}

// WithStallPattern sets the stall line from a sequence of runs.
func (b Builder) WithStallPattern(runs wishbone.Generator[wishbone.StallRun]) Builder {
	b.stallGen = wishbone.StallPattern(runs)
	return b
}

// WithStallGen sets the stall line bit by bit.
func (b Builder) WithStallGen(g wishbone.Generator[bool]) Builder {
	b.stallGen = g
	return b
}

// WithConsumer sets who receives the results of each cycle.
func (b Builder) WithConsumer(consumer ResultConsumer) Builder {
	b.consumer = consumer
	return b
}

// WithSignalMap sets custom line names.
func (b Builder) WithSignalMap(m wishbone.SignalMap) Builder {
	b.signals = m
	return b
}

// WithQueueSize sets the capacity of the pending reply queue.
func (b Builder) WithQueueSize(n int) Builder {
	b.queueSize = n
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(logger *zap.Logger) Builder {
	b.logger = logger
	return b
}

// Build creates a responder, drives the idle values on its lines and starts
// its duties on the clock.
func (b Builder) Build(name string) (*Comp, error) {
	if b.clk == nil {
		log.Panic("responder needs a clock")
	}

	if b.bus == nil {
		log.Panic("responder needs a bus")
	}

	sig, err := wishbone.Bind(b.bus, b.signals)
	if err != nil {
		return nil, err
	}

	c := &Comp{
		ComponentBase: sim.NewComponentBase(name),
		clk:           b.clk,
		sig:           sig,
		dataGen:       b.dataGen,
		replyGen:      b.replyGen,
		latencyGen:    b.latencyGen,
		stallGen:      b.stallGen,
		consumer:      b.consumer,
		logger:        b.logger.Named(name),
		stallPrevLow:  true,
	}
	c.queue = sim.NewBuffer(name+".ReplyQueue", b.queueSize)

	sig.Ack.SetImmediate(0)
	sig.DatRd.SetImmediate(0)

	for _, l := range []*signal.Line{sig.Err, sig.Stall, sig.Rty} {
		if l != nil {
			l.SetImmediate(0)
		}
	}

	b.clk.GoBackground(name+".Stall", c.driveStall)
	b.clk.GoBackground(name+".Reply", c.driveReplies)
	b.clk.GoBackground(name+".Observe", c.observe)

	c.logger.Info("responder built",
		zap.String("bus", b.bus.Name()),
		zap.Any("variant", sig.Variant()),
		zap.Int("queue_size", b.queueSize),
	)

	return c, nil
}

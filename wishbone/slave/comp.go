// Package slave provides a Wishbone bus responder with programmable timing.
package slave

import (
	"log"

	"github.com/pkg/errors"
	"github.com/sarchlab/wbsim/clocking"
	"github.com/sarchlab/wbsim/signal"
	"github.com/sarchlab/wbsim/sim"
	"github.com/sarchlab/wbsim/wishbone"
	"go.uber.org/zap"
)

type state int

const (
	stateIdle state = iota
	stateActive
	stateResponding
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateActive:
		return "active"
	case stateResponding:
		return "responding"
	}

	return "unknown"
}

// reply is a decided reply waiting to be driven.
type reply struct {
	kind    wishbone.ReplyKind
	dat     uint64
	latency int
	epoch   uint64
}

// Comp is a Wishbone bus responder. Once built it keeps running three
// duties on the clock: driving the stall line, driving queued replies and
// observing requests.
type Comp struct {
	*sim.ComponentBase

	clk        *clocking.Clock
	sig        *wishbone.Signals
	dataGen    wishbone.Generator[uint64]
	replyGen   wishbone.Generator[wishbone.ReplyKind]
	latencyGen wishbone.Generator[int]
	stallGen   wishbone.Generator[bool]
	consumer   ResultConsumer
	logger     *zap.Logger

	state        state
	count        int
	lastTime     int
	stallCount   int
	stallPrevLow bool
	epoch        uint64
	queue        sim.Buffer
	results      []wishbone.Result

	NumCyclesDone int
}

// Signals returns the lines the responder drives and watches.
func (c *Comp) Signals() *wishbone.Signals {
	return c.sig
}

// ReplyQueue returns the queue of decided replies.
func (c *Comp) ReplyQueue() sim.Buffer {
	return c.queue
}

// State returns the name of the state the responder is in.
func (c *Comp) State() string {
	return c.state.String()
}

func (c *Comp) driveStall(t *clocking.Task) error {
	if c.sig.Stall == nil {
		return nil
	}

	for {
		high := c.sig.Stall.IsHigh()
		if high {
			if c.stallPrevLow {
				c.stallCount = 0
			}
			c.stallCount++
		} else if c.stallPrevLow {
			c.stallCount = 0
		}
		c.stallPrevLow = !high

		c.sig.Stall.SetBool(c.stallGen.Next())

		t.Edge()
	}
}

func (c *Comp) driveReplies(t *clocking.Task) error {
	for {
		c.clearReplies()

		if item := c.queue.Pop(); item != nil {
			r := item.(reply)

			// A closed cycle abandons its pending replies right away.
			for i := 0; i < r.latency && r.epoch == c.epoch; i++ {
				t.Edge()
			}

			if r.epoch == c.epoch {
				l := c.sig.ReplyLine(r.kind)
				if l == nil {
					return errors.Wrapf(wishbone.ErrProtocolConfig,
						"%s: bus has no line for %s replies", c.Name(), r.kind)
				}

				l.Set(1)
				c.sig.DatRd.Set(r.dat)
			}
		}

		t.Edge()
	}
}

func (c *Comp) clearReplies() {
	c.sig.Ack.Set(0)
	c.sig.DatRd.Set(0)

	if c.sig.Err != nil {
		c.sig.Err.Set(0)
	}

	if c.sig.Rty != nil {
		c.sig.Rty.Set(0)
	}
}

func (c *Comp) observe(t *clocking.Task) error {
	for {
		if err := c.step(); err != nil {
			return err
		}

		t.Edge()
	}
}

func (c *Comp) step() error {
	if !c.sig.Cyc.IsHigh() {
		if c.state != stateIdle {
			c.endCycle()
		}

		c.count = 0

		return nil
	}

	c.count++

	switch c.state {
	case stateIdle:
		c.state = stateActive
		c.lastTime = c.count - 1
	case stateResponding:
		if c.replyOnBus() {
			c.state = stateActive
		}

		return nil
	}

	if !c.requestValid() {
		return nil
	}

	return c.respond()
}

func (c *Comp) requestValid() bool {
	if !c.sig.Stb.IsHigh() {
		return false
	}

	return c.sig.Stall == nil || !c.sig.Stall.IsHigh()
}

func (c *Comp) replyOnBus() bool {
	for _, l := range []*signal.Line{c.sig.Ack, c.sig.Err, c.sig.Rty} {
		if l != nil && l.IsHigh() {
			return true
		}
	}

	return false
}

func (c *Comp) respond() error {
	latency := c.latencyGen.Next()
	if latency < 0 {
		return errors.Wrapf(wishbone.ErrProtocolConfig,
			"%s: negative reply latency %d", c.Name(), latency)
	}

	write := c.sig.We.IsHigh()

	var dat uint64
	if !write {
		dat = c.dataGen.Next() & signal.Mask(c.sig.DatRd.Width())
	}

	kind := c.replyGen.Next()
	if !kind.IsValid() {
		return errors.Wrapf(wishbone.ErrProtocolConfig,
			"%s: invalid reply kind %s", c.Name(), kind)
	}

	res := wishbone.Result{
		Ack:       kind,
		Adr:       c.sig.Adr.Value(),
		Sel:       c.sig.FullSel(),
		WaitIdle:  c.count - c.lastTime - 1,
		WaitStall: c.stallCount,
		WaitAck:   latency,
	}

	if c.sig.Sel != nil {
		res.Sel = c.sig.Sel.Value()
	}

	if write {
		d := c.sig.DatWr.Value()
		res.DatWr = &d
	} else {
		res.DatRd = dat
	}

	if !c.queue.CanPush() {
		log.Panicf("%s: reply queue overflow", c.Name())
	}

	c.queue.Push(reply{
		kind:    kind,
		dat:     dat,
		latency: latency,
		epoch:   c.epoch,
	})
	c.results = append(c.results, res)

	c.lastTime = c.count
	c.state = stateResponding

	c.logger.Debug("request accepted",
		zap.Uint64("cycle", c.clk.Cycle()), zap.Stringer("result", res))

	return nil
}

func (c *Comp) endCycle() {
	results := c.results
	c.results = nil

	c.queue.Clear()
	c.epoch++
	c.state = stateIdle
	c.NumCyclesDone++

	c.logger.Debug("cycle closed",
		zap.Uint64("cycle", c.clk.Cycle()), zap.Int("results", len(results)))

	if c.consumer != nil {
		c.consumer.ConsumeCycle(results)
	}

	if c.NumHooks() > 0 {
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    wishbone.HookPosCycleDone,
			Item: wishbone.CycleRecord{
				Cycle:   c.clk.Cycle(),
				Results: results,
			},
		})
	}
}

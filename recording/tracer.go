package recording

import (
	"github.com/rs/xid"
	"github.com/sarchlab/wbsim/clocking"
	"github.com/sarchlab/wbsim/signal"
	"github.com/sarchlab/wbsim/sim"
	"github.com/sarchlab/wbsim/wishbone"
	"github.com/sarchlab/wbsim/wishbone/slave"
)

// ResultTable and SignalTable are the default table names of the tracers.
const (
	ResultTable = "wishbone_results"
	SignalTable = "wishbone_signals"
)

// ResultEntry is one row of the result table.
type ResultEntry struct {
	ID        string `rec:"id"`
	Where     string `rec:"where"`
	Cycle     int64  `rec:"cycle"`
	Index     int    `rec:"index"`
	Ack       string `rec:"ack"`
	Adr       int64  `rec:"adr"`
	Sel       int64  `rec:"sel"`
	DatRd     int64  `rec:"datrd"`
	DatWr     int64  `rec:"datwr"`
	IsWrite   bool   `rec:"is_write"`
	WaitIdle  int    `rec:"wait_idle"`
	WaitStall int    `rec:"wait_stall"`
	WaitAck   int    `rec:"wait_ack"`
}

// ResultTracer records the results of closed cycles. As a hook it records
// what initiators and responders report at wishbone.HookPosCycleDone. As a
// responder consumer it records under its consumer name.
type ResultTracer struct {
	recorder DataRecorder
	table    string
	clk      *clocking.Clock
	name     string
}

var _ slave.ResultConsumer = (*ResultTracer)(nil)

// NewResultTracer creates the result table and returns a tracer that writes
// into it. The clock, if any, stamps rows recorded as a consumer.
func NewResultTracer(recorder DataRecorder, clk *clocking.Clock) *ResultTracer {
	t := &ResultTracer{
		recorder: recorder,
		table:    ResultTable,
		clk:      clk,
		name:     "consumer",
	}

	recorder.CreateTable(t.table, ResultEntry{})

	return t
}

// SetConsumerName sets the name recorded for results delivered through
// ConsumeCycle.
func (t *ResultTracer) SetConsumerName(name string) {
	t.name = name
}

// Func records a closed cycle.
func (t *ResultTracer) Func(ctx sim.HookCtx) {
	if ctx.Pos != wishbone.HookPosCycleDone {
		return
	}

	rec, ok := ctx.Item.(wishbone.CycleRecord)
	if !ok {
		return
	}

	where := ""
	if named, ok := ctx.Domain.(sim.Named); ok {
		where = named.Name()
	}

	t.record(where, rec.Cycle, rec.Results)
}

// ConsumeCycle records the results of a responder cycle.
func (t *ResultTracer) ConsumeCycle(results []wishbone.Result) {
	var cycle uint64
	if t.clk != nil {
		cycle = t.clk.Cycle()
	}

	t.record(t.name, cycle, results)
}

func (t *ResultTracer) record(
	where string,
	cycle uint64,
	results []wishbone.Result,
) {
	for i, r := range results {
		entry := ResultEntry{
			ID:        xid.New().String(),
			Where:     where,
			Cycle:     int64(cycle),
			Index:     i,
			Ack:       r.Ack.String(),
			Adr:       int64(r.Adr),
			Sel:       int64(r.Sel),
			DatRd:     int64(r.DatRd),
			IsWrite:   r.IsWrite(),
			WaitIdle:  r.WaitIdle,
			WaitStall: r.WaitStall,
			WaitAck:   r.WaitAck,
		}

		if r.DatWr != nil {
			entry.DatWr = int64(*r.DatWr)
		}

		t.recorder.InsertData(t.table, entry)
	}
}

// SignalEntry is one row of the signal table.
type SignalEntry struct {
	Cycle int64   `rec:"cycle"`
	Time  float64 `rec:"time"`
	Line  string  `rec:"line"`
	Value int64   `rec:"value"`
}

// SignalTracer records every line value change of a bus. It is a hook for
// clocking.HookPosEdge.
type SignalTracer struct {
	recorder DataRecorder
	table    string
	bus      *signal.Bus
}

// NewSignalTracer creates the signal table and returns a tracer of bus.
func NewSignalTracer(recorder DataRecorder, bus *signal.Bus) *SignalTracer {
	t := &SignalTracer{
		recorder: recorder,
		table:    SignalTable,
		bus:      bus,
	}

	recorder.CreateTable(t.table, SignalEntry{})

	return t
}

// Func records the lines that changed at the edge.
func (t *SignalTracer) Func(ctx sim.HookCtx) {
	if ctx.Pos != clocking.HookPosEdge {
		return
	}

	cycle, _ := ctx.Item.(uint64)

	var now sim.VTimeInSec
	if teller, ok := ctx.Domain.(sim.TimeTeller); ok {
		now = teller.CurrentTime()
	}

	for _, l := range t.bus.Changed() {
		t.recorder.InsertData(t.table, SignalEntry{
			Cycle: int64(cycle),
			Time:  float64(now),
			Line:  l.Name(),
			Value: int64(l.Value()),
		})
	}
}

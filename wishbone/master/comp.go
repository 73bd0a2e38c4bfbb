// Package master provides a Wishbone bus initiator.
package master

import (
	"github.com/pkg/errors"
	"github.com/sarchlab/wbsim/clocking"
	"github.com/sarchlab/wbsim/sim"
	"github.com/sarchlab/wbsim/wishbone"
	"go.uber.org/zap"
)

// aux keeps what the initiator knows about a driven operation until the
// reply is merged in.
type aux struct {
	sel   uint64
	adr   uint64
	datWr *uint64
	idle  int
	stall int
	ts    int
}

// session is the state of one open cycle.
type session struct {
	openedAt uint64
	opCount  int
	acked    int
	results  []wishbone.Result
	aux      []aux
	closed   bool
	err      error
}

// Comp is a Wishbone bus initiator. It drives one cycle at a time.
type Comp struct {
	*sim.ComponentBase

	clk     *clocking.Clock
	sig     *wishbone.Signals
	width   int
	timeout int
	logger  *zap.Logger

	busy          bool
	session       *session
	NumCyclesDone int
}

// Width returns the configured data width in bits.
func (c *Comp) Width() int {
	return c.width
}

// Signals returns the lines the initiator drives and watches.
func (c *Comp) Signals() *wishbone.Signals {
	return c.sig
}

// Busy tells if a cycle is open.
func (c *Comp) Busy() bool {
	return c.busy
}

// SendCycle performs the operations in one bus cycle and returns one result
// per operation, in request order. It must be called from task t and returns
// after the cycle has been closed. On failure the cycle is dropped and no
// results are returned.
func (c *Comp) SendCycle(
	t *clocking.Task,
	ops []wishbone.Op,
) ([]wishbone.Result, error) {
	if len(ops) == 0 {
		return nil, errors.Wrap(wishbone.ErrProtocolUsage, "no operations")
	}

	for i, op := range ops {
		if err := op.Validate(c.sig); err != nil {
			return nil, errors.WithMessagef(err, "operation %d", i)
		}
	}

	t.Edge()

	s := c.open(t, len(ops))

	results, err := c.transfer(t, s, ops)
	if err != nil {
		c.abort(t, s, err)
		return nil, err
	}

	c.NumCyclesDone++

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

	return results, nil
}

func (c *Comp) transfer(
	t *clocking.Task,
	s *session,
	ops []wishbone.Op,
) ([]wishbone.Result, error) {
	for i, op := range ops {
		if err := c.drive(t, s, op); err != nil {
			return nil, errors.WithMessagef(err, "operation %d", i)
		}
	}

	if err := c.close(t, s); err != nil {
		return nil, err
	}

	return c.merge(s)
}

func (c *Comp) open(t *clocking.Task, n int) *session {
	if c.busy {
		c.logger.Error("cycle opened while another one is open",
			zap.Error(errors.Wrapf(wishbone.ErrProtocolState,
				"task %s", t.Name())),
			zap.Uint64("cycle", t.Cycle()),
		)

		t.WaitUntil(func() bool { return !c.busy })
	}

	c.busy = true
	s := &session{
		openedAt: t.Cycle(),
		opCount:  n,
	}
	c.session = s

	c.sig.Cyc.Set(1)
	t.GoBackground(c.Name()+".Reader", c.readReplies(s))

	c.logger.Debug("cycle opened",
		zap.Uint64("cycle", s.openedAt), zap.Int("ops", n))

	return s
}

// count returns the number of edges since the session was opened.
func (c *Comp) count(s *session) int {
	return int(c.clk.Cycle() - s.openedAt)
}

// edge waits for the next edge and reports what the reply reader found.
func (c *Comp) edge(t *clocking.Task, s *session) error {
	t.Edge()
	return s.err
}

func (c *Comp) drive(t *clocking.Task, s *session, op wishbone.Op) error {
	for i := 0; i < op.Idle; i++ {
		if err := c.edge(t, s); err != nil {
			return err
		}
	}

	sel := c.sig.FullSel()
	if op.Sel != nil {
		sel = *op.Sel
	}

	c.sig.Stb.Set(1)
	c.sig.Adr.Set(op.Adr)

	if op.IsWrite() {
		c.sig.We.Set(1)
		c.sig.DatWr.Set(*op.Dat)
	} else {
		c.sig.We.Set(0)
	}

	if c.sig.Sel != nil {
		c.sig.Sel.Set(sel)
	}

	if err := c.edge(t, s); err != nil {
		return err
	}

	stall, err := c.waitStall(t, s)
	if err != nil {
		return err
	}

	s.aux = append(s.aux, aux{
		sel:   sel,
		adr:   op.Adr,
		datWr: op.Dat,
		idle:  op.Idle,
		stall: stall,
		ts:    c.count(s),
	})

	return c.waitAck(t, s, op)
}

func (c *Comp) waitStall(t *clocking.Task, s *session) (int, error) {
	if c.sig.Stall == nil {
		return 0, nil
	}

	n := 0
	for c.sig.Stall.IsHigh() {
		if c.timeout > 0 && n >= c.timeout {
			return n, errors.Wrapf(wishbone.ErrTimeout,
				"stalled for %d edges", n)
		}

		if err := c.edge(t, s); err != nil {
			return n, err
		}
		n++
	}

	return n, nil
}

func (c *Comp) waitAck(t *clocking.Task, s *session, op wishbone.Op) error {
	if c.sig.Stall != nil {
		c.sig.Stb.Set(0)
	}

	for n := 0; ; n++ {
		kind, err := c.reply()
		if err != nil {
			return err
		}

		if kind != wishbone.ReplyNone {
			break
		}

		if op.AckTimeout > 0 && n >= op.AckTimeout {
			return errors.Wrapf(wishbone.ErrTimeout,
				"no reply within %d edges", op.AckTimeout)
		}

		if err := c.edge(t, s); err != nil {
			return err
		}
	}

	c.sig.We.Set(0)
	if c.sig.Stall == nil {
		c.sig.Stb.Set(0)
	}

	return nil
}

// reply classifies the reply lines. More than one asserted reply is a
// protocol violation.
func (c *Comp) reply() (wishbone.ReplyKind, error) {
	kind := wishbone.ReplyNone
	asserted := 0

	for _, k := range []wishbone.ReplyKind{
		wishbone.ReplyAck, wishbone.ReplyErr, wishbone.ReplyRty,
	} {
		l := c.sig.ReplyLine(k)
		if l != nil && l.IsHigh() {
			kind = k
			asserted++
		}
	}

	if asserted > 1 {
		return wishbone.ReplyNone, errors.Wrapf(wishbone.ErrProtocolViolation,
			"%d replies asserted at cycle %d", asserted, c.clk.Cycle())
	}

	return kind, nil
}

func (c *Comp) readReplies(s *session) clocking.TaskFunc {
	return func(t *clocking.Task) error {
		for !s.closed {
			kind, err := c.reply()
			if err != nil {
				s.err = err
				return nil
			}

			if kind != wishbone.ReplyNone {
				s.results = append(s.results, wishbone.Result{
					Ack:     kind,
					DatRd:   c.sig.DatRd.Value(),
					WaitAck: c.count(s),
				})
				s.acked++
			}

			t.Edge()
		}

		return nil
	}
}

func (c *Comp) close(t *clocking.Task, s *session) error {
	n := 0
	for s.acked < s.opCount {
		if c.timeout > 0 && n >= c.timeout {
			return errors.Wrapf(wishbone.ErrTimeout,
				"%d of %d replies after %d edges", s.acked, s.opCount, n)
		}

		if err := c.edge(t, s); err != nil {
			return err
		}
		n++
	}

	s.closed = true
	c.sig.Cyc.Set(0)
	t.Edge()
	c.busy = false

	c.logger.Debug("cycle closed",
		zap.Uint64("cycle", c.clk.Cycle()), zap.Int("replies", s.acked))

	return nil
}

func (c *Comp) merge(s *session) ([]wishbone.Result, error) {
	if len(s.results) != len(s.aux) {
		return nil, errors.Wrapf(wishbone.ErrProtocolViolation,
			"%d replies for %d operations", len(s.results), len(s.aux))
	}

	results := make([]wishbone.Result, len(s.results))
	for i, r := range s.results {
		a := s.aux[i]

		r.Adr = a.adr
		r.Sel = a.sel
		r.DatWr = a.datWr
		r.WaitIdle = a.idle
		r.WaitStall = a.stall
		r.WaitAck -= a.ts

		if r.WaitAck < 0 {
			return nil, errors.Wrapf(wishbone.ErrProtocolViolation,
				"reply %d arrived before its strobe", i)
		}

		c.logger.Debug("result", zap.Int("index", i), zap.Stringer("result", r))

		results[i] = r
	}

	return results, nil
}

// abort drops the cycle. Like close, it keeps the initiator busy until
// cyc has been low for one edge, so that a waiting cycle cannot reopen it on
// the same edge.
func (c *Comp) abort(t *clocking.Task, s *session, err error) {
	if !s.closed {
		s.closed = true

		c.sig.Cyc.Set(0)
		c.sig.Stb.Set(0)
		c.sig.We.Set(0)
		t.Edge()
		c.busy = false
	}

	c.logger.Debug("cycle aborted",
		zap.Uint64("cycle", c.clk.Cycle()), zap.Error(err))
}

package scenario

import (
	"github.com/pkg/errors"
	"github.com/sarchlab/wbsim/clocking"
	"github.com/sarchlab/wbsim/monitoring"
	"github.com/sarchlab/wbsim/recording"
	"github.com/sarchlab/wbsim/signal"
	"github.com/sarchlab/wbsim/sim"
	"github.com/sarchlab/wbsim/wishbone"
	"github.com/sarchlab/wbsim/wishbone/master"
	"github.com/sarchlab/wbsim/wishbone/slave"
	"go.uber.org/zap"
)

// DefaultFreqMHz is the clock frequency used when neither the scenario nor
// the options name one.
const DefaultFreqMHz = 100

// Options controls how a scenario is built.
type Options struct {
	// Logger is handed to every component. Nil means no logging.
	Logger *zap.Logger

	// Recorder, if set, receives the results of both ends of the bus.
	Recorder recording.DataRecorder

	// TraceSignals records every line change. It needs a Recorder.
	TraceSignals bool

	// Monitor, if set, gets the engine, the components and a progress bar.
	Monitor *monitoring.Monitor

	// DefaultFreqMHz applies when the scenario sets no frequency.
	DefaultFreqMHz float64
}

// A Testbench is a built scenario, ready to run once.
type Testbench struct {
	scenario *Scenario
	logger   *zap.Logger

	Engine sim.Engine
	Clock  *clocking.Clock
	Bus    *signal.Bus
	Master *master.Comp
	Slave  *slave.Comp

	recorder    recording.DataRecorder
	monitor     *monitoring.Monitor
	progressBar *monitoring.ProgressBar

	report *Report
	ran    bool
}

// Build creates the engine, the clock, the bus and both ends of the bus.
func (s *Scenario) Build(opts Options) (*Testbench, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	freq := s.FreqMHz
	if freq == 0 {
		freq = opts.DefaultFreqMHz
	}

	if freq == 0 {
		freq = DefaultFreqMHz
	}

	if opts.TraceSignals && opts.Recorder == nil {
		return nil, errors.New("tracing signals needs a recorder")
	}

	tb := &Testbench{
		scenario: s,
		logger:   logger.Named(s.Name),
		recorder: opts.Recorder,
		monitor:  opts.Monitor,
		report:   newReport(s.Name),
	}

	tb.Engine = sim.NewSerialEngine()
	tb.Clock = clocking.NewClock(s.Name+".Clock", tb.Engine, sim.Freq(freq)*sim.MHz)
	tb.Clock.SetCycleLimit(s.MaxCycles)
	tb.Bus = s.Bus.NewBus(s.Name + ".Bus")
	tb.Clock.Attach(tb.Bus)

	if err := tb.buildMaster(); err != nil {
		return nil, err
	}

	if err := tb.buildSlave(); err != nil {
		return nil, err
	}

	tb.wireRecorder(opts.TraceSignals)
	tb.wireMonitor()

	tb.logger.Info("testbench built",
		zap.Float64("freq_mhz", freq),
		zap.Int("width", s.Bus.Width),
		zap.Int("cycles", len(s.Cycles)),
		zap.Int("ops", s.NumOps()))

	return tb, nil
}

func (tb *Testbench) buildMaster() error {
	m, err := master.MakeBuilder().
		WithClock(tb.Clock).
		WithBus(tb.Bus).
		WithWidth(tb.scenario.Bus.Width).
		WithTimeout(tb.scenario.Master.Timeout).
		WithSignalMap(wishbone.SignalMap(tb.scenario.Bus.Signals)).
		WithLogger(tb.logger).
		Build(tb.scenario.Name + ".Master")
	if err != nil {
		return err
	}

	tb.Master = m

	return nil
}

func (tb *Testbench) buildSlave() error {
	cfg := tb.scenario.Slave

	b := slave.MakeBuilder().
		WithClock(tb.Clock).
		WithBus(tb.Bus).
		WithSignalMap(wishbone.SignalMap(tb.scenario.Bus.Signals)).
		WithConsumer(slave.ResultConsumerFunc(tb.report.addSlaveCycle)).
		WithLogger(tb.logger)

	if len(cfg.Data) > 0 {
		b = b.WithDataGen(wishbone.Cycle(cfg.Data...))
	}

	if len(cfg.Replies) > 0 {
		kinds, err := tb.scenario.replyKinds(tb.Master.Signals())
		if err != nil {
			return err
		}

		b = b.WithReplyGen(wishbone.Cycle(kinds...))
	}

	if len(cfg.Latencies) > 0 {
		b = b.WithLatencyGen(wishbone.Cycle(cfg.Latencies...))
	}

	if len(cfg.Stall) > 0 {
		runs := make([]wishbone.StallRun, 0, len(cfg.Stall))
		for _, r := range cfg.Stall {
			runs = append(runs, wishbone.StallRun{High: r.High, Low: r.Low})
		}

		b = b.WithStallPattern(wishbone.Cycle(runs...))
	}

	s, err := b.Build(tb.scenario.Name + ".Slave")
	if err != nil {
		return err
	}

	tb.Slave = s

	return nil
}

func (tb *Testbench) wireRecorder(traceSignals bool) {
	if tb.recorder == nil {
		return
	}

	tracer := recording.NewResultTracer(tb.recorder, tb.Clock)
	tb.Master.AcceptHook(tracer)
	tb.Slave.AcceptHook(tracer)

	if traceSignals {
		tb.Clock.AcceptHook(recording.NewSignalTracer(tb.recorder, tb.Bus))
	}
}

func (tb *Testbench) wireMonitor() {
	if tb.monitor == nil {
		return
	}

	tb.monitor.RegisterEngine(tb.Engine)
	tb.monitor.RegisterComponent(tb.Clock)
	tb.monitor.RegisterComponent(tb.Master)
	tb.monitor.RegisterComponent(tb.Slave)

	tb.progressBar = tb.monitor.CreateProgressBar(
		tb.scenario.Name, uint64(tb.scenario.NumOps()))
}

// Run sends every cycle of the scenario in order and returns the report. A
// failing cycle ends the run. A testbench runs only once.
func (tb *Testbench) Run() (*Report, error) {
	if tb.ran {
		return nil, errors.Wrap(wishbone.ErrProtocolUsage, "testbench already ran")
	}

	tb.ran = true

	tb.Clock.Go(tb.scenario.Name+".Driver", tb.drive)

	err := tb.Clock.Run()

	if tb.progressBar != nil {
		tb.monitor.CompleteProgressBar(tb.progressBar)
	}

	if tb.recorder != nil {
		tb.recorder.Flush()
	}

	tb.report.Cycles = tb.Clock.Cycle()
	tb.report.SimTime = tb.Engine.CurrentTime()

	if err != nil {
		return nil, err
	}

	if err := tb.report.summarize(); err != nil {
		return nil, err
	}

	tb.logger.Info("testbench finished",
		zap.Uint64("cycles", tb.report.Cycles),
		zap.Int("transfers", tb.report.Transfers))

	return tb.report, nil
}

func (tb *Testbench) drive(t *clocking.Task) error {
	for i, cycle := range tb.scenario.Cycles {
		ops := make([]wishbone.Op, 0, len(cycle))
		for _, op := range cycle {
			ops = append(ops, op.Op())
		}

		if tb.progressBar != nil {
			tb.progressBar.IncrementInProgress(uint64(len(ops)))
		}

		results, err := tb.Master.SendCycle(t, ops)
		if err != nil {
			return errors.WithMessagef(err, "cycle %d", i)
		}

		tb.report.addMasterCycle(results)

		if tb.progressBar != nil {
			tb.progressBar.MoveInProgressToFinished(uint64(len(ops)))
		}
	}

	// The responder reports a cycle once it sees cyc low.
	t.Edges(2)

	return nil
}

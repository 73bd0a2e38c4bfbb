package scenario

import (
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/sarchlab/wbsim/sim"
	"github.com/sarchlab/wbsim/wishbone"
)

// LatencyStats summarizes wait counts in edges.
type LatencyStats struct {
	Count int
	Mean  float64
	P95   float64
	Max   float64
}

func newLatencyStats(data []float64) (LatencyStats, error) {
	s := LatencyStats{Count: len(data)}
	if len(data) == 0 {
		return s, nil
	}

	var err error

	s.Mean, err = stats.Mean(data)
	if err != nil {
		return s, errors.Wrap(err, "mean")
	}

	s.P95, err = stats.Percentile(data, 95)
	if err != nil {
		return s, errors.Wrap(err, "95th percentile")
	}

	s.Max, err = stats.Max(data)
	if err != nil {
		return s, errors.Wrap(err, "max")
	}

	return s, nil
}

// A Report is what a testbench run produced.
type Report struct {
	Name    string
	Cycles  uint64
	SimTime sim.VTimeInSec

	// MasterCycles holds what SendCycle returned, one entry per bus cycle.
	MasterCycles [][]wishbone.Result

	// SlaveCycles holds what the responder reported, one entry per bus cycle.
	SlaveCycles [][]wishbone.Result

	Transfers int
	Replies   map[wishbone.ReplyKind]int

	WaitAck   LatencyStats
	WaitStall LatencyStats
}

func newReport(name string) *Report {
	return &Report{
		Name:    name,
		Replies: make(map[wishbone.ReplyKind]int),
	}
}

func (r *Report) addMasterCycle(results []wishbone.Result) {
	r.MasterCycles = append(r.MasterCycles, results)
}

func (r *Report) addSlaveCycle(results []wishbone.Result) {
	r.SlaveCycles = append(r.SlaveCycles, results)
}

func (r *Report) summarize() error {
	var waitAck, waitStall []float64

	for _, cycle := range r.MasterCycles {
		for _, res := range cycle {
			r.Transfers++
			r.Replies[res.Ack]++
			waitAck = append(waitAck, float64(res.WaitAck))
			waitStall = append(waitStall, float64(res.WaitStall))
		}
	}

	var err error

	r.WaitAck, err = newLatencyStats(waitAck)
	if err != nil {
		return errors.WithMessage(err, "wait ack")
	}

	r.WaitStall, err = newLatencyStats(waitStall)
	if err != nil {
		return errors.WithMessage(err, "wait stall")
	}

	return nil
}

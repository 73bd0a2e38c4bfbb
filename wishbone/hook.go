package wishbone

import "github.com/sarchlab/wbsim/sim"

// HookPosCycleDone is invoked by initiators and responders when a cycle
// closes. The hook item is a CycleRecord.
var HookPosCycleDone = &sim.HookPos{Name: "Wishbone Cycle Done"}

// A CycleRecord holds the results of one closed cycle.
type CycleRecord struct {
	// Cycle is the clock edge at which the cycle closed.
	Cycle   uint64
	Results []Result
}

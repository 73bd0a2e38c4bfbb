// Package scenario describes Wishbone testbenches in YAML and runs them.
package scenario

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"github.com/sarchlab/wbsim/signal"
	"github.com/sarchlab/wbsim/wishbone"
	"gopkg.in/yaml.v3"
)

// DefaultMaxCycles bounds a run when the scenario does not set max_cycles.
const DefaultMaxCycles = 1000000

// A Scenario is a testbench: a bus, an initiator, a responder and the cycles
// the initiator sends.
type Scenario struct {
	Name      string       `yaml:"name"`
	FreqMHz   float64      `yaml:"freq_mhz"`
	MaxCycles uint64       `yaml:"max_cycles"`
	Bus       BusConfig    `yaml:"bus"`
	Master    MasterConfig `yaml:"master"`
	Slave     SlaveConfig  `yaml:"slave"`
	Cycles    [][]OpConfig `yaml:"cycles"`
}

// BusConfig selects the bus variant.
type BusConfig struct {
	Width   int               `yaml:"width"`
	Select  bool              `yaml:"select"`
	Error   bool              `yaml:"error"`
	Stall   bool              `yaml:"stall"`
	Retry   bool              `yaml:"retry"`
	Signals map[string]string `yaml:"signals"`
}

// Variant returns the bus variant.
func (b BusConfig) Variant() wishbone.Variant {
	return wishbone.Variant{
		WithSelect: b.Select,
		WithError:  b.Error,
		WithStall:  b.Stall,
		WithRetry:  b.Retry,
	}
}

// NewBus creates the bus with its lines renamed through the signal map.
func (b BusConfig) NewBus(name string) *signal.Bus {
	return wishbone.NewMappedBus(name, b.Width, b.Variant(),
		wishbone.SignalMap(b.Signals))
}

func (b BusConfig) validateSignals() error {
	known := map[string]bool{}
	for _, l := range wishbone.RequiredLines {
		known[l] = true
	}

	for _, l := range wishbone.OptionalLines {
		known[l] = true
	}

	used := map[string]string{}

	for line, name := range b.Signals {
		if !known[line] {
			return errors.Wrapf(wishbone.ErrProtocolConfig,
				"unknown line %s in signal map", line)
		}

		if name == "" {
			return errors.Wrapf(wishbone.ErrProtocolConfig,
				"line %s is mapped to an empty name", line)
		}

		if other, ok := used[name]; ok {
			return errors.Wrapf(wishbone.ErrProtocolConfig,
				"lines %s and %s are both named %s", other, line, name)
		}

		used[name] = line
	}

	return nil
}

// MasterConfig configures the initiator.
type MasterConfig struct {
	Timeout int `yaml:"timeout"`
}

// SlaveConfig configures the responder. Each list is cycled through, one
// value per accepted request.
type SlaveConfig struct {
	Data      []uint64      `yaml:"data"`
	Replies   []string      `yaml:"replies"`
	Latencies []int         `yaml:"latencies"`
	Stall     []StallConfig `yaml:"stall"`
}

// StallConfig is one run of the stall pattern.
type StallConfig struct {
	High int `yaml:"high"`
	Low  int `yaml:"low"`
}

// OpConfig is one operation. Without dat it is a read.
type OpConfig struct {
	Adr        uint64  `yaml:"adr"`
	Dat        *uint64 `yaml:"dat"`
	Sel        *uint64 `yaml:"sel"`
	Idle       int     `yaml:"idle"`
	AckTimeout int     `yaml:"ack_timeout"`
}

// Op converts the configuration into an operation.
func (o OpConfig) Op() wishbone.Op {
	return wishbone.Op{
		Adr:        o.Adr,
		Dat:        o.Dat,
		Sel:        o.Sel,
		Idle:       o.Idle,
		AckTimeout: o.AckTimeout,
	}
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading scenario")
	}

	s, err := Parse(data)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}

	return s, nil
}

// Parse decodes and validates a scenario. Unknown keys are rejected.
func Parse(data []byte) (*Scenario, error) {
	s := &Scenario{}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(s); err != nil {
		return nil, errors.Wrap(err, "decoding scenario")
	}

	if s.Bus.Width == 0 {
		s.Bus.Width = 32
	}

	if s.MaxCycles == 0 {
		s.MaxCycles = DefaultMaxCycles
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// Validate checks that the scenario can run on its bus.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return errors.New("scenario has no name")
	}

	if s.FreqMHz < 0 {
		return errors.Errorf("negative frequency %g MHz", s.FreqMHz)
	}

	w := s.Bus.Width
	if w <= 0 || w > signal.MaxWidth || w%8 != 0 {
		return errors.Wrapf(wishbone.ErrProtocolConfig,
			"bus width %d is not a multiple of 8 up to 64", w)
	}

	if err := s.Bus.validateSignals(); err != nil {
		return err
	}

	sig, err := wishbone.Bind(s.Bus.NewBus(s.Name), wishbone.SignalMap(s.Bus.Signals))
	if err != nil {
		return err
	}

	if err := s.validateSlave(sig); err != nil {
		return err
	}

	if s.Master.Timeout < 0 {
		return errors.Wrapf(wishbone.ErrProtocolConfig,
			"negative master timeout %d", s.Master.Timeout)
	}

	if len(s.Cycles) == 0 {
		return errors.Wrap(wishbone.ErrProtocolUsage, "scenario has no cycles")
	}

	for i, cycle := range s.Cycles {
		if len(cycle) == 0 {
			return errors.Wrapf(wishbone.ErrProtocolUsage, "cycle %d is empty", i)
		}

		for j, op := range cycle {
			if err := op.Op().Validate(sig); err != nil {
				return errors.WithMessagef(err, "cycle %d operation %d", i, j)
			}
		}
	}

	return nil
}

func (s *Scenario) validateSlave(sig *wishbone.Signals) error {
	if _, err := s.replyKinds(sig); err != nil {
		return err
	}

	for _, l := range s.Slave.Latencies {
		if l < 0 {
			return errors.Wrapf(wishbone.ErrProtocolConfig,
				"negative latency %d", l)
		}
	}

	for _, d := range s.Slave.Data {
		if !sig.DatRd.Fits(d) {
			return errors.Wrapf(wishbone.ErrProtocolConfig,
				"data 0x%x does not fit %d bits", d, sig.DatRd.Width())
		}
	}

	for _, r := range s.Slave.Stall {
		if r.High < 0 || r.Low < 0 {
			return errors.Wrapf(wishbone.ErrProtocolConfig,
				"negative stall run %+v", r)
		}
	}

	return nil
}

func (s *Scenario) replyKinds(sig *wishbone.Signals) ([]wishbone.ReplyKind, error) {
	kinds := make([]wishbone.ReplyKind, 0, len(s.Slave.Replies))

	for _, name := range s.Slave.Replies {
		k, err := wishbone.ParseReplyKind(name)
		if err != nil {
			return nil, err
		}

		if !k.IsValid() || sig.ReplyLine(k) == nil {
			return nil, errors.Wrapf(wishbone.ErrProtocolConfig,
				"bus cannot carry %s replies", name)
		}

		kinds = append(kinds, k)
	}

	return kinds, nil
}

// NumOps returns the number of operations over all cycles.
func (s *Scenario) NumOps() int {
	n := 0
	for _, c := range s.Cycles {
		n += len(c)
	}

	return n
}

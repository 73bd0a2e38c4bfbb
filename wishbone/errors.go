package wishbone

import "github.com/pkg/errors"

// ErrProtocolUsage is returned when a request is malformed or missing.
var ErrProtocolUsage = errors.New("wishbone: protocol usage error")

// ErrProtocolState is reported when a cycle is opened while another one is
// still open on the same initiator.
var ErrProtocolState = errors.New("wishbone: protocol state error")

// ErrTimeout is returned when a stall, acknowledge or cycle-close wait exceeds
// its bound.
var ErrTimeout = errors.New("wishbone: timeout")

// ErrProtocolViolation is returned when the lines show something the
// protocol forbids, such as two replies on the same edge.
var ErrProtocolViolation = errors.New("wishbone: protocol violation")

// ErrProtocolConfig is returned when a component is configured for something
// the bus cannot carry.
var ErrProtocolConfig = errors.New("wishbone: protocol config error")

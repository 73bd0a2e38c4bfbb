package wishbone

import (
	"fmt"

	"github.com/pkg/errors"
)

// ReplyKind is the reply a responder gives to a request.
type ReplyKind int

// The reply kinds, numbered as on the bus.
const (
	ReplyNone ReplyKind = iota
	ReplyAck
	ReplyErr
	ReplyRty
)

var replyKindNames = []string{"none", "ack", "err", "rty"}

// String returns the short name of the reply kind.
func (k ReplyKind) String() string {
	if k < 0 || int(k) >= len(replyKindNames) {
		return fmt.Sprintf("ReplyKind(%d)", int(k))
	}

	return replyKindNames[k]
}

// IsValid tells if a responder may give this kind of reply.
func (k ReplyKind) IsValid() bool {
	return k == ReplyAck || k == ReplyErr || k == ReplyRty
}

// ParseReplyKind converts a short name back to a reply kind.
func ParseReplyKind(s string) (ReplyKind, error) {
	for i, name := range replyKindNames {
		if name == s {
			return ReplyKind(i), nil
		}
	}

	return ReplyNone, errors.Wrapf(ErrProtocolConfig, "unknown reply kind %q", s)
}

// A Result describes one transferred word.
//
// On the initiator side WaitAck counts the edges from the accepted strobe to
// the reply. On the responder side it holds the latency the responder chose.
type Result struct {
	Ack       ReplyKind
	Sel       uint64
	Adr       uint64
	DatRd     uint64
	DatWr     *uint64
	WaitIdle  int
	WaitStall int
	WaitAck   int
}

// IsWrite tells if the result belongs to a write.
func (r Result) IsWrite() bool {
	return r.DatWr != nil
}

// String formats the result for logs.
func (r Result) String() string {
	if r.DatWr != nil {
		return fmt.Sprintf(
			"%s W adr=0x%x sel=0x%x dat=0x%x idle=%d stall=%d ack=%d",
			r.Ack, r.Adr, r.Sel, *r.DatWr, r.WaitIdle, r.WaitStall, r.WaitAck)
	}

	return fmt.Sprintf(
		"%s R adr=0x%x sel=0x%x dat=0x%x idle=%d stall=%d ack=%d",
		r.Ack, r.Adr, r.Sel, r.DatRd, r.WaitIdle, r.WaitStall, r.WaitAck)
}

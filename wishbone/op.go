package wishbone

import "github.com/pkg/errors"

// An Op is one operation requested from an initiator. A nil Dat makes it a
// read. A nil Sel selects all byte lanes.
type Op struct {
	Adr        uint64
	Dat        *uint64
	Sel        *uint64
	Idle       int
	AckTimeout int
}

// Read creates a read operation.
func Read(adr uint64) Op {
	return Op{Adr: adr}
}

// Write creates a write operation.
func Write(adr, dat uint64) Op {
	return Op{Adr: adr, Dat: &dat}
}

// WithSel returns a copy of the operation with the byte-select mask set.
func (o Op) WithSel(sel uint64) Op {
	o.Sel = &sel
	return o
}

// WithIdle returns a copy of the operation that inserts n idle edges before
// the strobe.
func (o Op) WithIdle(n int) Op {
	o.Idle = n
	return o
}

// WithAckTimeout returns a copy of the operation that fails if no reply comes
// within n edges. Zero waits forever.
func (o Op) WithAckTimeout(n int) Op {
	o.AckTimeout = n
	return o
}

// IsWrite tells if the operation carries write data.
func (o Op) IsWrite() bool {
	return o.Dat != nil
}

// Validate checks the operation against the lines it is going to be driven
// on.
func (o Op) Validate(s *Signals) error {
	if !s.Adr.Fits(o.Adr) {
		return errors.Wrapf(ErrProtocolUsage,
			"address 0x%x does not fit %d bits", o.Adr, s.Adr.Width())
	}

	if o.Dat != nil && !s.DatWr.Fits(*o.Dat) {
		return errors.Wrapf(ErrProtocolUsage,
			"data 0x%x does not fit %d bits", *o.Dat, s.DatWr.Width())
	}

	if o.Sel != nil && s.Sel != nil && !s.Sel.Fits(*o.Sel) {
		return errors.Wrapf(ErrProtocolUsage,
			"select 0x%x does not fit %d bits", *o.Sel, s.Sel.Width())
	}

	if o.Idle < 0 {
		return errors.Wrapf(ErrProtocolUsage, "negative idle count %d", o.Idle)
	}

	if o.AckTimeout < 0 {
		return errors.Wrapf(ErrProtocolUsage,
			"negative acknowledge timeout %d", o.AckTimeout)
	}

	return nil
}

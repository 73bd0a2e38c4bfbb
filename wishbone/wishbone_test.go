package wishbone

import (
	"github.com/sarchlab/wbsim/signal"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Bus binding", func() {
	It("should create the lines of a variant", func() {
		bus := NewBus("Bus", 32, Variant{WithStall: true})

		names := []string{}
		for _, l := range bus.Lines() {
			names = append(names, l.Name())
		}

		Expect(names).To(Equal([]string{
			"cyc", "stb", "we", "adr", "datwr", "datrd", "ack", "stall",
		}))
	})

	It("should name the lines through a signal map", func() {
		m := SignalMap{LineCyc: "cyc_o", LineErr: "err_i"}
		bus := NewMappedBus("Bus", 8, Variant{WithError: true}, m)

		s, err := Bind(bus, m)

		Expect(err).NotTo(HaveOccurred())
		Expect(s.Cyc.Name()).To(Equal("cyc_o"))
		Expect(s.Err.Name()).To(Equal("err_i"))
		Expect(s.Stb.Name()).To(Equal(LineStb))

		_, err = Bind(bus, nil)
		Expect(err).To(MatchError(ErrProtocolConfig))
	})

	It("should reject odd widths", func() {
		Expect(func() { NewBus("Bus", 12, FullVariant) }).To(Panic())
	})

	It("should resolve the variant", func() {
		s, err := Bind(NewBus("Bus", 16, Variant{WithSelect: true, WithRetry: true}), nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(s.Variant()).To(Equal(Variant{WithSelect: true, WithRetry: true}))
		Expect(s.Sel.Width()).To(Equal(2))
		Expect(s.FullSel()).To(Equal(uint64(0x3)))
		Expect(s.ReplyLine(ReplyRty)).To(BeIdenticalTo(s.Rty))
		Expect(s.ReplyLine(ReplyErr)).To(BeNil())
		Expect(s.ReplyLine(ReplyNone)).To(BeNil())
	})

	It("should follow a signal map", func() {
		bus := signal.NewBus("Custom")
		for _, name := range []string{"cyc_o", "stb_o", "we_o", "ack_i"} {
			bus.AddLine(name, 1)
		}
		bus.AddLine("adr_o", 32)
		bus.AddLine("dat_o", 32)
		bus.AddLine("dat_i", 32)

		s, err := Bind(bus, SignalMap{
			LineCyc:   "cyc_o",
			LineStb:   "stb_o",
			LineWe:    "we_o",
			LineAck:   "ack_i",
			LineAdr:   "adr_o",
			LineDatWr: "dat_o",
			LineDatRd: "dat_i",
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(s.Cyc.Name()).To(Equal("cyc_o"))
		Expect(s.DatRd.Name()).To(Equal("dat_i"))
		Expect(s.Variant()).To(Equal(Variant{}))
	})

	It("should fail on a missing required line", func() {
		bus := signal.NewBus("Broken")
		bus.AddLine(LineCyc, 1)

		_, err := Bind(bus, nil)

		Expect(err).To(MatchError(ErrProtocolConfig))
	})

	It("should fail on a wide control line", func() {
		bus := NewBus("Bus", 32, Variant{})
		bus.AddLine(LineErr, 2)

		_, err := Bind(bus, nil)

		Expect(err).To(MatchError(ErrProtocolConfig))
	})
})

var _ = Describe("Op", func() {
	var s *Signals

	BeforeEach(func() {
		var err error
		s, err = Bind(NewBus("Bus", 8, FullVariant), nil)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should build reads and writes", func() {
		r := Read(0x10).WithIdle(2).WithAckTimeout(5)
		w := Write(0x14, 0xab).WithSel(1)

		Expect(r.IsWrite()).To(BeFalse())
		Expect(r.Idle).To(Equal(2))
		Expect(r.AckTimeout).To(Equal(5))
		Expect(w.IsWrite()).To(BeTrue())
		Expect(*w.Dat).To(Equal(uint64(0xab)))
		Expect(*w.Sel).To(Equal(uint64(1)))
	})

	It("should accept valid operations", func() {
		Expect(Write(0xffffffff, 0xff).WithSel(1).Validate(s)).To(Succeed())
	})

	DescribeTable("should reject invalid operations",
		func(op Op) {
			Expect(op.Validate(s)).To(MatchError(ErrProtocolUsage))
		},
		Entry("address too wide", Read(1<<32)),
		Entry("data too wide", Write(0, 0x100)),
		Entry("select too wide", Read(0).WithSel(2)),
		Entry("negative idle", Read(0).WithIdle(-1)),
		Entry("negative timeout", Read(0).WithAckTimeout(-1)),
	)
})

var _ = Describe("ReplyKind", func() {
	It("should print and parse", func() {
		for _, k := range []ReplyKind{ReplyNone, ReplyAck, ReplyErr, ReplyRty} {
			parsed, err := ParseReplyKind(k.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(k))
		}
	})

	It("should reject unknown names", func() {
		_, err := ParseReplyKind("nak")
		Expect(err).To(MatchError(ErrProtocolConfig))
	})

	It("should only allow real replies", func() {
		Expect(ReplyNone.IsValid()).To(BeFalse())
		Expect(ReplyKind(7).IsValid()).To(BeFalse())
		Expect(ReplyKind(7).String()).To(Equal("ReplyKind(7)"))
		Expect(ReplyRty.IsValid()).To(BeTrue())
	})
})

package scenario

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sarchlab/wbsim/monitoring"
	"github.com/sarchlab/wbsim/recording"
	"github.com/sarchlab/wbsim/wishbone"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func mustParse(doc string) *Scenario {
	s, err := Parse([]byte(doc))
	Expect(err).NotTo(HaveOccurred())

	return s
}

var _ = ginkgo.Describe("Testbench", func() {
	ginkgo.It("should run every cycle and report both ends", func() {
		tb, err := mustParse(basic).Build(Options{})
		Expect(err).NotTo(HaveOccurred())

		report, err := tb.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(report.Name).To(Equal("basic"))
		Expect(report.MasterCycles).To(HaveLen(2))
		Expect(report.MasterCycles[0]).To(HaveLen(2))
		Expect(report.MasterCycles[0][0].DatRd).To(Equal(uint64(0x11)))
		Expect(report.MasterCycles[0][1].DatRd).To(Equal(uint64(0x22)))
		Expect(report.MasterCycles[1][0].IsWrite()).To(BeTrue())
		Expect(report.MasterCycles[1][0].Ack).To(Equal(wishbone.ReplyErr))

		Expect(report.SlaveCycles).To(HaveLen(2))
		Expect(report.SlaveCycles[0]).To(HaveLen(2))
		Expect(report.SlaveCycles[1]).To(HaveLen(1))
		Expect(*report.SlaveCycles[1][0].DatWr).To(Equal(uint64(5)))

		Expect(report.Transfers).To(Equal(3))
		Expect(report.Replies).To(Equal(map[wishbone.ReplyKind]int{
			wishbone.ReplyAck: 2,
			wishbone.ReplyErr: 1,
		}))
		Expect(report.WaitAck.Count).To(Equal(3))
		Expect(report.WaitAck.Mean).To(Equal(2.0))
		Expect(report.WaitAck.Max).To(Equal(2.0))
		Expect(report.WaitStall.Max).To(Equal(0.0))
		Expect(report.Cycles).To(BeNumerically(">", 0))
		Expect(report.SimTime).To(BeNumerically(">", 0))
	})

	ginkgo.It("should take longer with latency", func() {
		s := mustParse(basic)
		s.Slave.Latencies = []int{3}

		tb, err := s.Build(Options{})
		Expect(err).NotTo(HaveOccurred())

		report, err := tb.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(report.WaitAck.Mean).To(Equal(5.0))
	})

	ginkgo.It("should fail on an acknowledge timeout", func() {
		s := mustParse(`
name: slow
slave: {latencies: [10]}
cycles: [[{adr: 0, ack_timeout: 3}]]
`)
		tb, err := s.Build(Options{})
		Expect(err).NotTo(HaveOccurred())

		report, err := tb.Run()

		Expect(report).To(BeNil())
		Expect(errors.Is(err, wishbone.ErrTimeout)).To(BeTrue())
	})

	ginkgo.It("should run only once", func() {
		tb, err := mustParse(basic).Build(Options{})
		Expect(err).NotTo(HaveOccurred())

		_, err = tb.Run()
		Expect(err).NotTo(HaveOccurred())

		_, err = tb.Run()
		Expect(err).To(MatchError(wishbone.ErrProtocolUsage))
	})

	ginkgo.It("should log the build", func() {
		core, logs := observer.New(zap.InfoLevel)

		_, err := mustParse(basic).Build(Options{Logger: zap.New(core)})

		Expect(err).NotTo(HaveOccurred())
		Expect(logs.FilterMessage("testbench built").Len()).To(Equal(1))
	})

	ginkgo.It("should refuse to trace signals without a recorder", func() {
		_, err := mustParse(basic).Build(Options{TraceSignals: true})

		Expect(err).To(HaveOccurred())
	})

	ginkgo.It("should record results and signals", func() {
		path := filepath.Join(ginkgo.GinkgoT().TempDir(), "run")
		w := recording.New(path)

		tb, err := mustParse(basic).Build(Options{
			Recorder:     w,
			TraceSignals: true,
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = tb.Run()
		Expect(err).NotTo(HaveOccurred())
		Expect(w.Close()).To(Succeed())

		r, err := recording.NewReader(path + ".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		ginkgo.DeferCleanup(r.Close)

		r.MapTable(recording.ResultTable, recording.ResultEntry{})
		r.MapTable(recording.SignalTable, recording.SignalEntry{})

		_, total, err := r.Query(context.Background(),
			recording.ResultTable, recording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(6))

		_, total, err = r.Query(context.Background(),
			recording.SignalTable, recording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(BeNumerically(">", 0))
	})

	ginkgo.It("should register with a monitor", func() {
		m := monitoring.NewMonitor()

		tb, err := mustParse(basic).Build(Options{Monitor: m})
		Expect(err).NotTo(HaveOccurred())

		_, err = tb.Run()
		Expect(err).NotTo(HaveOccurred())

		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec,
			httptest.NewRequest(http.MethodGet, "/api/list_components", nil))

		var names []string
		Expect(json.Unmarshal(rec.Body.Bytes(), &names)).To(Succeed())
		Expect(names).To(ConsistOf(
			"basic.Clock", "basic.Master", "basic.Slave"))

		rec = httptest.NewRecorder()
		m.Handler().ServeHTTP(rec,
			httptest.NewRequest(http.MethodGet, "/api/progress", nil))
		Expect(rec.Body.String()).To(MatchJSON("[]"))
	})
})

var _ = ginkgo.Describe("LatencyStats", func() {
	ginkgo.It("should be zero without data", func() {
		s, err := newLatencyStats(nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal(LatencyStats{}))
	})

	ginkgo.It("should summarize", func() {
		s, err := newLatencyStats([]float64{2, 2, 4, 8})

		Expect(err).NotTo(HaveOccurred())
		Expect(s.Count).To(Equal(4))
		Expect(s.Mean).To(Equal(4.0))
		Expect(s.Max).To(Equal(8.0))
	})
})

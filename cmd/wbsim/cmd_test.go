package main

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/sarchlab/wbsim/recording"
	"github.com/sarchlab/wbsim/scenario"
	"github.com/sarchlab/wbsim/wishbone"
	"github.com/spf13/pflag"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const scenarioFile = `
name: cli
bus: {width: 16, stall: true}
slave:
  data: [0xbeef]
  latencies: [1]
  stall: [{high: 1, low: 1}]
cycles:
  - - {adr: 0x10}
    - {adr: 0x12, dat: 0x1234}
`

type countingRecorder struct {
	recording.DataRecorder
	closed int
}

func (r *countingRecorder) Close() error {
	r.closed++
	return nil
}

var _ = Describe("Commands", func() {
	var (
		dir string
		out *bytes.Buffer
	)

	execute := func(args ...string) error {
		rootCmd.SetArgs(args)
		rootCmd.SetOut(out)
		rootCmd.SetErr(out)

		return rootCmd.Execute()
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		out = &bytes.Buffer{}
		Expect(os.WriteFile(filepath.Join(dir, "s.yaml"),
			[]byte(scenarioFile), 0o644)).To(Succeed())
	})

	AfterEach(func() {
		reset := func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}

		rootCmd.PersistentFlags().VisitAll(reset)
		for _, c := range rootCmd.Commands() {
			c.Flags().VisitAll(reset)
		}
	})

	It("should validate a scenario", func() {
		err := execute("validate", "-c", filepath.Join(dir, "s.yaml"))

		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).To(ContainSubstring(
			"cli: 1 cycles, 2 operations on a 16-bit bus"))
	})

	It("should reject a broken scenario", func() {
		path := filepath.Join(dir, "bad.yaml")
		Expect(os.WriteFile(path, []byte("name: bad\n"), 0o644)).To(Succeed())

		err := execute("validate", "-c", path)

		Expect(err).To(HaveOccurred())
	})

	It("should run a scenario and record it", func() {
		db := filepath.Join(dir, "trace")

		err := execute("run", "-c", filepath.Join(dir, "s.yaml"),
			"--db", db, "--trace-signals", "--log-level", "error")

		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).To(ContainSubstring("Scenario cli"))
		Expect(out.String()).To(ContainSubstring("transfers     2"))
		Expect(filepath.Join(dir, "trace.sqlite3")).To(BeARegularFile())
	})

	It("should close the recorder when the testbench cannot be built", func() {
		rec := &countingRecorder{}
		s := &scenario.Scenario{
			Name:  "nolines",
			Bus:   scenario.BusConfig{Width: 32},
			Slave: scenario.SlaveConfig{Replies: []string{"err"}},
		}

		tb, err := buildTestbench(s, scenario.Options{Recorder: rec})

		Expect(tb).To(BeNil())
		Expect(err).To(MatchError(wishbone.ErrProtocolConfig))
		Expect(rec.closed).To(Equal(1))
	})
})

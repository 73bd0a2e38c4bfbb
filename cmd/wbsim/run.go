package main

import (
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/pkg/browser"
	"github.com/sarchlab/wbsim/monitoring"
	"github.com/sarchlab/wbsim/recording"
	"github.com/sarchlab/wbsim/scenario"
	"github.com/sarchlab/wbsim/wishbone"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario and print its report.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		s, err := loadScenario(cmd)
		if err != nil {
			return err
		}

		opts, err := runOptions(cmd, logger)
		if err != nil {
			return err
		}

		tb, err := buildTestbench(s, opts)
		if err != nil {
			return err
		}

		report, err := tb.Run()
		if err := closeRecorder(opts, err); err != nil {
			return err
		}

		printReport(cmd, report)

		return nil
	},
}

func init() {
	runCmd.Flags().String("db", "",
		"record results into this SQLite file (without extension)")
	runCmd.Flags().Bool("trace-signals", false,
		"also record every line change; needs --db")
	runCmd.Flags().Bool("monitor", false, "serve the monitoring API")
	runCmd.Flags().Int("monitor-port", 0,
		"port of the monitoring API; defaults to WBSIM_MONITOR_PORT")
	runCmd.Flags().Bool("open-browser", false,
		"open the monitoring API in a browser")
	rootCmd.AddCommand(runCmd)
}

func runOptions(cmd *cobra.Command, logger *zap.Logger) (scenario.Options, error) {
	opts := scenario.Options{
		Logger:         logger,
		DefaultFreqMHz: env.FreqMHz,
	}

	db, _ := cmd.Flags().GetString("db")
	if db == "" {
		db = env.DB
	}

	if db != "" {
		opts.Recorder = recording.New(db)
		opts.TraceSignals, _ = cmd.Flags().GetBool("trace-signals")
	}

	withMonitor, _ := cmd.Flags().GetBool("monitor")
	if !withMonitor {
		return opts, nil
	}

	m := monitoring.NewMonitor().WithLogger(logger)

	port, _ := cmd.Flags().GetInt("monitor-port")
	if port == 0 {
		port = env.MonitorPort
	}

	if port != 0 {
		m = m.WithPortNumber(port)
	}

	url, err := m.StartServer()
	if err != nil {
		return opts, closeRecorder(opts, err)
	}

	cmd.Printf("Monitoring at %s\n", url)

	if open, _ := cmd.Flags().GetBool("open-browser"); open {
		if err := browser.OpenURL(url + "/api/progress"); err != nil {
			logger.Warn("cannot open browser", zap.Error(err))
		}
	}

	opts.Monitor = m

	return opts, nil
}

// buildTestbench builds the testbench of s. The recorder is closed if the
// build fails.
func buildTestbench(
	s *scenario.Scenario,
	opts scenario.Options,
) (*scenario.Testbench, error) {
	tb, err := s.Build(opts)
	if err != nil {
		return nil, closeRecorder(opts, err)
	}

	return tb, nil
}

// closeRecorder closes the recorder of opts, if any, and returns err or else
// the error of closing it.
func closeRecorder(opts scenario.Options, err error) error {
	if opts.Recorder == nil {
		return err
	}

	if closeErr := opts.Recorder.Close(); err == nil {
		err = closeErr
	}

	return err
}

func printReport(cmd *cobra.Command, r *scenario.Report) {
	cmd.Printf("Scenario %s\n", r.Name)
	cmd.Printf("  simulated     %s cycles (%s)\n",
		humanize.Comma(int64(r.Cycles)),
		humanize.SIWithDigits(float64(r.SimTime), 2, "s"))
	cmd.Printf("  bus cycles    %s\n", humanize.Comma(int64(len(r.MasterCycles))))
	cmd.Printf("  transfers     %s\n", humanize.Comma(int64(r.Transfers)))

	kinds := make([]wishbone.ReplyKind, 0, len(r.Replies))
	for k := range r.Replies {
		kinds = append(kinds, k)
	}

	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, k := range kinds {
		cmd.Printf("  %-13s %s\n", k.String(), humanize.Comma(int64(r.Replies[k])))
	}

	cmd.Printf("  wait ack      mean %.2f  p95 %.2f  max %.0f\n",
		r.WaitAck.Mean, r.WaitAck.P95, r.WaitAck.Max)
	cmd.Printf("  wait stall    mean %.2f  p95 %.2f  max %.0f\n",
		r.WaitStall.Mean, r.WaitStall.P95, r.WaitStall.Max)
}

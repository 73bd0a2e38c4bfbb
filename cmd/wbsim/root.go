package main

import (
	"github.com/sarchlab/wbsim/scenario"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"go.uber.org/zap"
)

var env scenario.Env

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wbsim",
	Short: "wbsim runs cycle-accurate Wishbone bus scenarios.",
	Long: `wbsim runs cycle-accurate Wishbone bus scenarios described in ` +
		`YAML files. Defaults come from WBSIM_ variables in the environment ` +
		`or in a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error

		env, err = scenario.LoadEnv(".env")

		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "scenario file")
	rootCmd.PersistentFlags().String("log-level", "",
		"log level (debug, info, warn, error); defaults to WBSIM_LOG_LEVEL")
	_ = rootCmd.MarkPersistentFlagRequired("config")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	text, _ := cmd.Flags().GetString("log-level")
	if text == "" {
		text = env.LogLevel
	}

	level, err := zap.ParseAtomicLevel(text)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	if level.Level() == zap.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.Level = level
	cfg.OutputPaths = []string{"stderr"}

	return cfg.Build()
}

func loadScenario(cmd *cobra.Command) (*scenario.Scenario, error) {
	path, _ := cmd.Flags().GetString("config")

	return scenario.Load(path)
}

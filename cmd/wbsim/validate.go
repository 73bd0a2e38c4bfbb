package main

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a scenario file without running it.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := loadScenario(cmd)
		if err != nil {
			return err
		}

		cmd.Printf("%s: %s cycles, %s operations on a %d-bit bus\n",
			s.Name,
			humanize.Comma(int64(len(s.Cycles))),
			humanize.Comma(int64(s.NumOps())),
			s.Bus.Width)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

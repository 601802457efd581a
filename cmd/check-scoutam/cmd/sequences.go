package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/versity/scoutam-checks/internal/checks"
	"github.com/versity/scoutam-checks/internal/nrpe"
)

var (
	arfindWarnSecs int
	arfindCritSecs int
	stfindWarnSecs int
	stfindCritSecs int
)

var sequencesCmd = &cobra.Command{
	Use:   "sequences",
	Short: "Check for blocked Arfind/Stfind restart scanners",
	Long: "Tracks how long the per-filesystem Arfind and Stfind restart " +
		"scanners have been blocked, persisting block onset across " +
		"invocations. Only the active scheduler node evaluates; other " +
		"nodes report OK and discard any stale persisted state.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runChecks(cmd, checkSequences)
	},
}

func init() {
	flags := sequencesCmd.Flags()
	flags.IntVar(&arfindWarnSecs, "arfind-warn", 300, "Arfind block WARN threshold, seconds")
	flags.IntVar(&arfindCritSecs, "arfind-crit", 600, "Arfind block CRITICAL threshold, seconds")
	flags.IntVar(&stfindWarnSecs, "stfind-warn", 300, "Stfind block WARN threshold, seconds")
	flags.IntVar(&stfindCritSecs, "stfind-crit", 600, "Stfind block CRITICAL threshold, seconds")

	rootCmd.AddCommand(sequencesCmd)
}

func checkSequences(ctx context.Context, c *checks.Checker) nrpe.Result {
	thresholds := checks.SequenceThresholds{
		ArfindWarn: time.Duration(arfindWarnSecs) * time.Second,
		ArfindCrit: time.Duration(arfindCritSecs) * time.Second,
		StfindWarn: time.Duration(stfindWarnSecs) * time.Second,
		StfindCrit: time.Duration(stfindCritSecs) * time.Second,
	}
	return c.Sequences(ctx, mountFilter, thresholds)
}

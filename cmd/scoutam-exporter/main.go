package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/versity/scoutam-checks/internal/config"
	"github.com/versity/scoutam-checks/internal/exporter"
	"github.com/versity/scoutam-checks/internal/logging"
)

var (
	outFile string
	verbose bool
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:           "scoutam-exporter",
	Short:         "Write ScoutAM metrics for the node_exporter textfile collector",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := logging.New(logging.LevelFor(verbose, debug))
		return exporter.New(cfg, logger).Run(cmd.Context(), outFile)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&outFile, "file", "f", "", "metrics textfile to write (required)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging on stderr")
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "debug logging on stderr")
	cobra.CheckErr(rootCmd.MarkFlagRequired("file"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

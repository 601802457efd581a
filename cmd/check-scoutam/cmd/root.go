// Package cmd wires the NRPE check operations into a CLI. Each
// subcommand prints one severity-prefixed line per evaluated
// condition and the process exits with the worst severity seen:
// 0 OK, 1 WARN, 2 CRITICAL.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/versity/scoutam-checks/internal/checks"
	"github.com/versity/scoutam-checks/internal/config"
	"github.com/versity/scoutam-checks/internal/logging"
	"github.com/versity/scoutam-checks/internal/nrpe"
)

var (
	mountFilter string
	passFail    bool
	verbose     bool
	debug       bool

	exitStatus nrpe.Status
)

var rootCmd = &cobra.Command{
	Use:           "check-scoutam",
	Short:         "NRPE health checks for ScoutAM and ScoutFS cluster nodes",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&mountFilter, "mount", "m", "", "restrict checks to one ScoutFS mount point")
	flags.BoolVarP(&passFail, "passfail", "p", false, "suppress per-condition output, report via exit code only")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose logging on stderr")
	flags.BoolVarP(&debug, "debug", "d", false, "debug logging on stderr")
}

// Execute runs the CLI and returns the NRPE exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: %v\n", err)
		return nrpe.StatusCritical.ExitCode()
	}
	return exitStatus.ExitCode()
}

type checkFunc func(ctx context.Context, c *checks.Checker) nrpe.Result

// runChecks builds one Checker and runs the given checks in order,
// merging their output into the process result.
func runChecks(cmd *cobra.Command, fns ...checkFunc) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(logging.LevelFor(verbose, debug))

	if missing := checks.MissingBinaries(cfg); len(missing) > 0 {
		var result nrpe.Result
		for _, path := range missing {
			result.Add(nrpe.StatusCritical, "Required binary %s is missing or not executable", path)
		}
		report(result)
		return nil
	}

	ctx := cmd.Context()
	systemd, err := checks.NewSystemdClient(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("could not connect to systemd")
		systemd = checks.UnavailableSystemd(err)
	}
	defer systemd.Close()

	checker := checks.New(cfg, logger, checks.WithSystemd(systemd))

	var result nrpe.Result
	for _, fn := range fns {
		result.Merge(fn(ctx, checker))
	}
	report(result)
	return nil
}

func report(result nrpe.Result) {
	exitStatus = nrpe.Worst(exitStatus, result.Status)
	if passFail {
		return
	}
	for _, line := range result.Messages {
		fmt.Println(line)
	}
}

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/versity/scoutam-checks/internal/checks"
	"github.com/versity/scoutam-checks/internal/nrpe"
)

var (
	usageWarnPct int
	usageCritPct int
)

var mountCmd = &cobra.Command{
	Use:   "mount",
	Short: "Check ScoutFS mounts, capacity, and the fencing service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runChecks(cmd, checkMounts)
	},
}

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Check that the ScoutAM service is running",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runChecks(cmd, checkService)
	},
}

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Check the ScoutAM scheduler and its queues",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runChecks(cmd, checkScheduler)
	},
}

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Check ScoutGW gateway instances",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runChecks(cmd, checkScoutGW)
	},
}

var versitygwCmd = &cobra.Command{
	Use:   "versitygw",
	Short: "Check VersityGW gateway instances",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runChecks(cmd, checkVersityGW)
	},
}

var scoutamCmd = &cobra.Command{
	Use:   "scoutam",
	Short: "Run the mount, service, and scheduler checks together",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runChecks(cmd, checkMounts, checkService, checkScheduler)
	},
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run every check except sequences",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runChecks(cmd, checkMounts, checkService, checkScheduler, checkScoutGW, checkVersityGW)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.IntVar(&usageWarnPct, "warn", 70, "filesystem usage WARN threshold, percent")
	flags.IntVar(&usageCritPct, "crit", 90, "filesystem usage CRITICAL threshold, percent")

	rootCmd.AddCommand(mountCmd, serviceCmd, schedulerCmd, gatewayCmd, versitygwCmd, scoutamCmd, allCmd)
}

func checkMounts(ctx context.Context, c *checks.Checker) nrpe.Result {
	return c.Mounts(ctx, mountFilter, usageWarnPct, usageCritPct)
}

func checkService(ctx context.Context, c *checks.Checker) nrpe.Result {
	return c.Service(ctx)
}

func checkScheduler(ctx context.Context, c *checks.Checker) nrpe.Result {
	return c.Scheduler(ctx)
}

func checkScoutGW(ctx context.Context, c *checks.Checker) nrpe.Result {
	return c.Gateway(ctx, checks.GatewayScout)
}

func checkVersityGW(ctx context.Context, c *checks.Checker) nrpe.Result {
	return c.Gateway(ctx, checks.GatewayVersity)
}

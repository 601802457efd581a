package checks

import (
	"context"

	"github.com/versity/scoutam-checks/internal/config"
	"github.com/versity/scoutam-checks/internal/nrpe"
	"github.com/versity/scoutam-checks/internal/scoutam"
	"github.com/versity/scoutam-checks/internal/sizeutil"
)

// Mounts checks that the ScoutFS filesystems are mounted and healthy:
// fencing service active, every configured filesystem mounted, usage
// under the percent thresholds and the high watermark not exceeded.
func (c *Checker) Mounts(ctx context.Context, mountFilter string, warnPct, critPct int) nrpe.Result {
	var result nrpe.Result

	active, err := c.systemd.UnitActive(ctx, c.cfg.FencedUnit)
	if err != nil || !active {
		result.Add(nrpe.StatusCritical, "ScoutFS fencing service is not active")
	}

	res, err := c.exec.Run(ctx, c.cfg.MonitorCmd, "-print")
	if err != nil {
		result.Add(nrpe.StatusCritical, "ScoutFS check failed: %v", err)
		return result
	}
	if res.ExitCode != 0 {
		result.Add(nrpe.StatusCritical, "ScoutFS check failed: %s", res.ErrorText())
		return result
	}

	mounts := scoutam.ParseMounts(res.Stdout)
	if len(mounts) == 0 {
		result.Add(nrpe.StatusCritical, "No ScoutFS filesystems mounted")
		return result
	}

	if mountFilter != "" && !mountKnown(mounts, mountFilter) {
		result.Add(nrpe.StatusCritical, "ScoutFS filesystem %s not found or mounted", mountFilter)
		return result
	}

	c.checkConfiguredMounts(&result, mounts)

	for _, mount := range mounts {
		if mountFilter != "" && mount.MountPoint != mountFilter {
			continue
		}
		if !c.checkUsage(ctx, &result, mount.MountPoint, warnPct, critPct) {
			return result
		}
	}

	return result
}

func mountKnown(mounts []scoutam.Mount, mountPoint string) bool {
	for _, m := range mounts {
		if m.MountPoint == mountPoint {
			return true
		}
	}
	return false
}

// checkConfiguredMounts flags filesystems present in multifs.yaml but
// not currently mounted.
func (c *Checker) checkConfiguredMounts(result *nrpe.Result, mounts []scoutam.Mount) {
	multifs, err := config.LoadMultiFS(c.cfg.MultiFSConf)
	if err != nil {
		result.Add(nrpe.StatusWarning, "Cannot read %s: %v", c.cfg.MultiFSConf, err)
		return
	}
	for _, configured := range multifs.Mounts() {
		if !mountKnown(mounts, configured) {
			result.Add(nrpe.StatusCritical, "Configured ScoutFS filesystem %s is not mounted", configured)
		}
	}
}

// checkUsage evaluates data and metadata usage of one filesystem
// against the thresholds. Returns false when the underlying commands
// failed and the check should stop.
func (c *Checker) checkUsage(ctx context.Context, result *nrpe.Result, mountPoint string, warnPct, critPct int) bool {
	res, err := c.exec.Run(ctx, c.cfg.ScoutfsCmd, "df", "--path", mountPoint)
	if err != nil {
		result.Add(nrpe.StatusCritical, "ScoutFS failed to get usage: %v", err)
		return false
	}
	if res.ExitCode != 0 {
		result.Add(nrpe.StatusCritical, "ScoutFS failed to get usage: %s", res.ErrorText())
		return false
	}
	usage, err := scoutam.ParseUsage(res.Stdout)
	if err != nil {
		result.Add(nrpe.StatusCritical, "ScoutFS failed to get usage: %v", err)
		return false
	}

	res, err = c.exec.Run(ctx, c.cfg.SamcliCmd, "fs", "stat", "-m", mountPoint)
	if err != nil {
		result.Add(nrpe.StatusCritical, "ScoutFS failed to get usage: %v", err)
		return false
	}
	if res.ExitCode != 0 {
		result.Add(nrpe.StatusCritical, "ScoutFS failed to get usage: %s", res.ErrorText())
		return false
	}
	watermarks, err := scoutam.ParseWatermarks(res.Stdout)
	if err != nil {
		result.Add(nrpe.StatusCritical, "ScoutFS failed to get usage: %v", err)
		return false
	}

	hwmBytes := float64(usage.Data.BytesTotal) * float64(watermarks.HighPct) / 100

	c.classifyUsage(result, mountPoint, "data", usage.Data, hwmBytes, warnPct, critPct)
	c.classifyUsage(result, mountPoint, "metadata", usage.MetaData, hwmBytes, warnPct, critPct)

	if float64(usage.Data.BytesUsed) > hwmBytes {
		result.Add(nrpe.StatusCritical, "ScoutFS filesystem %s exceeded high watermark (used: %s, high watermark: %s, free: %s)",
			mountPoint,
			sizeutil.FormatBytes(float64(usage.Data.BytesUsed)),
			sizeutil.FormatBytes(hwmBytes),
			sizeutil.FormatBytes(float64(usage.Data.BytesFree)))
	}

	return true
}

func (c *Checker) classifyUsage(result *nrpe.Result, mountPoint, class string, usage scoutam.UsageClass, hwmBytes float64, warnPct, critPct int) {
	critBytes := float64(usage.BytesTotal) * float64(critPct) / 100
	warnBytes := float64(usage.BytesTotal) * float64(warnPct) / 100
	used := sizeutil.FormatBytes(float64(usage.BytesUsed))
	free := sizeutil.FormatBytes(float64(usage.BytesFree))

	switch {
	case float64(usage.BytesUsed) > critBytes:
		result.Add(nrpe.StatusCritical, "ScoutFS filesystem %s %s usage above critical threshold of %s, used %s, free %s",
			mountPoint, class, sizeutil.FormatBytes(critBytes), used, free)
	case float64(usage.BytesUsed) > warnBytes:
		result.Add(nrpe.StatusWarning, "ScoutFS filesystem %s %s usage above warning threshold of %s, used %s, free %s",
			mountPoint, class, sizeutil.FormatBytes(warnBytes), used, free)
	default:
		result.Add(nrpe.StatusOK, "ScoutFS filesystem %s %s used %s, free: %s, high watermark: %s",
			mountPoint, class, used, free, sizeutil.FormatBytes(hwmBytes))
	}
}

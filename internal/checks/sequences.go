package checks

import (
	"context"
	"time"

	"github.com/versity/scoutam-checks/internal/nrpe"
	"github.com/versity/scoutam-checks/internal/scoutam"
	"github.com/versity/scoutam-checks/internal/sequence"
)

// SequenceThresholds are the per-monitor block-duration thresholds.
// warn <= crit is expected but not enforced; classification is
// crit-first either way.
type SequenceThresholds struct {
	ArfindWarn time.Duration
	ArfindCrit time.Duration
	StfindWarn time.Duration
	StfindCrit time.Duration
}

// Sequences checks whether the Arfind/Stfind restart scanners are
// blocked, tracking block onset across invocations through the state
// store. The check only runs meaningfully on the scheduler node: on
// non-scheduler nodes it reports OK and discards any persisted state
// so a later promotion starts with fresh duration clocks.
func (c *Checker) Sequences(ctx context.Context, mountFilter string, thresholds SequenceThresholds) nrpe.Result {
	var result nrpe.Result

	status, err := c.resolver.Resolve(ctx)
	if err != nil {
		// Cannot determine leadership: an observability gap, not a
		// confirmed fault. State stays untouched.
		result.Add(nrpe.StatusWarning, "Could not determine scheduler node: %v", err)
		return result
	}

	if !status.IsScheduler {
		removed, derr := c.store.Delete()
		switch {
		case derr != nil:
			result.Add(nrpe.StatusOK, "Not scheduler node, skipping sequence check (scheduler: %s), warning: could not remove stale state file: %v",
				status.SchedulerName, derr)
		case removed:
			result.Add(nrpe.StatusOK, "Not scheduler node, skipping sequence check (scheduler: %s), removed stale state file",
				status.SchedulerName)
		default:
			result.Add(nrpe.StatusOK, "Not scheduler node, skipping sequence check (scheduler: %s)", status.SchedulerName)
		}
		return result
	}

	res, err := c.exec.Run(ctx, c.cfg.SamcliCmd, "debug", "seq", "-c")
	if err != nil {
		result.Add(nrpe.StatusCritical, "Sequence check failed: %v", err)
		return result
	}
	if res.ExitCode != 0 {
		result.Add(nrpe.StatusCritical, "Sequence check failed: %s", res.ErrorText())
		return result
	}

	blocks := scoutam.ParseSequenceDump(res.Stdout)
	if len(blocks) == 0 {
		// Vendor tool broken or misconfigured. No state write: this
		// run never reached the write step.
		result.Add(nrpe.StatusCritical, "No filesystems found in sequence output")
		return result
	}

	st := c.store.Load(ctx)
	now := c.now()
	seen := make(map[string]struct{})

	for _, block := range blocks {
		if mountFilter != "" && block.Mount != mountFilter {
			continue
		}
		seen[block.Mount] = struct{}{}

		prior, known := st[block.Mount]
		if !known {
			prior.Arfind = sequence.MonitorState{Status: sequence.StatusNotBlocked}
			prior.Stfind = sequence.MonitorState{Status: sequence.StatusNotBlocked}
		}

		record := sequence.FilesystemState{
			FSID:       block.FSID,
			LastCheck:  now,
			CurrentSeq: block.CurrentSeq,
		}
		record.Arfind = c.evalMonitor(&result, "Arfind", block.Mount, prior.Arfind, block.Arfind,
			thresholds.ArfindWarn, thresholds.ArfindCrit, now)
		record.Stfind = c.evalMonitor(&result, "Stfind", block.Mount, prior.Stfind, block.Stfind,
			thresholds.StfindWarn, thresholds.StfindCrit, now)
		st[block.Mount] = record
	}

	// Prune filesystems no longer observed so their clocks do not
	// resume if the mount reappears.
	for mount := range st {
		if _, ok := seen[mount]; !ok {
			delete(st, mount)
		}
	}

	c.store.Save(ctx, st)
	return result
}

// evalMonitor applies one monitor's transition and, when the monitor
// is currently blocked, classifies the block duration.
func (c *Checker) evalMonitor(result *nrpe.Result, name, mount string, prior sequence.MonitorState, obs scoutam.Observation, warn, crit time.Duration, now time.Time) sequence.MonitorState {
	next, duration, evaluate := sequence.Transition(prior, obs, now)

	switch {
	case evaluate:
		severity := sequence.Classify(duration, warn, crit)
		if severity == nrpe.StatusOK {
			result.Add(severity, "%s blocked for %ds on %s (under threshold)", name, int(duration.Seconds()), mount)
		} else {
			result.Add(severity, "%s blocked for %ds on %s (inode %s: %s)",
				name, int(duration.Seconds()), mount, next.Inode, next.Reason)
		}
	case obs.Kind == scoutam.ObservedNotBlocked:
		result.Add(nrpe.StatusOK, "%s not blocked on %s", name, mount)
	}
	// Absent: no line, no transition.

	return next
}

package checks

import (
	"context"

	"github.com/versity/scoutam-checks/internal/nrpe"
	"github.com/versity/scoutam-checks/internal/scoutam"
)

// Service checks that the ScoutAM service unit is active.
func (c *Checker) Service(ctx context.Context) nrpe.Result {
	var result nrpe.Result

	active, err := c.systemd.UnitActive(ctx, c.cfg.ScoutAMUnit)
	if err != nil || !active {
		result.Add(nrpe.StatusCritical, "ScoutAM service is not running")
		return result
	}
	result.Add(nrpe.StatusOK, "ScoutAM service is running")
	return result
}

// Scheduler checks whether the scheduler, archiving and staging
// queues are idled. An idled queue is a WARN: the operator paused it
// or the cluster did, either way work is not flowing.
func (c *Checker) Scheduler(ctx context.Context) nrpe.Result {
	var result nrpe.Result

	res, err := c.exec.Run(ctx, c.cfg.SamcliCmd, "scheduler")
	if err != nil {
		result.Add(nrpe.StatusCritical, "ScoutAM scheduler check failed: %v", err)
		return result
	}
	if res.ExitCode != 0 {
		result.Add(nrpe.StatusCritical, "ScoutAM scheduler check failed: %s", res.ErrorText())
		return result
	}

	queues := scoutam.ParseSchedulerQueues(res.Stdout)
	severity := nrpe.StatusOK
	if queues.SchedulerIdled || queues.ArchivingIdled || queues.StagingIdled {
		severity = nrpe.StatusWarning
	}
	result.Add(severity, "ScoutAM scheduler: %s, archiver: %s, staging: %s",
		queueState(queues.SchedulerIdled),
		queueState(queues.ArchivingIdled),
		queueState(queues.StagingIdled))
	return result
}

func queueState(idled bool) string {
	if idled {
		return "idle"
	}
	return "running"
}

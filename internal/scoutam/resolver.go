package scoutam

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/versity/scoutam-checks/internal/execx"
)

// schedulerQueryRetries bounds the backoff retries around the cluster
// status query before leadership is declared indeterminate.
const schedulerQueryRetries = 2

// SchedulerStatus is the outcome of a leadership resolution.
type SchedulerStatus struct {
	IsScheduler   bool
	SchedulerName string
}

// Resolver determines whether the local node is the cluster's active
// scheduler.
type Resolver struct {
	exec     execx.Runner
	samcli   string
	hostname func() (string, error)
	logger   zerolog.Logger
}

// NewResolver returns a Resolver querying the cluster through the
// given samcli binary.
func NewResolver(exec execx.Runner, samcli string, logger zerolog.Logger) *Resolver {
	return &Resolver{
		exec:     exec,
		samcli:   samcli,
		hostname: os.Hostname,
		logger:   logger,
	}
}

// Resolve runs `samcli system`, parses the reported scheduler name
// and compares it to the local hostname. An error means leadership
// could not be determined, not that this node is a non-scheduler;
// callers must treat it as inconclusive.
func (r *Resolver) Resolve(ctx context.Context) (SchedulerStatus, error) {
	res, err := r.exec.RunRetry(ctx, schedulerQueryRetries, r.samcli, "system")
	if err != nil {
		return SchedulerStatus{}, fmt.Errorf("samcli system: %w", err)
	}
	if res.ExitCode != 0 {
		return SchedulerStatus{}, fmt.Errorf("samcli system exited %d: %s", res.ExitCode, res.ErrorText())
	}

	name, err := ParseSchedulerName(res.Stdout)
	if err != nil {
		return SchedulerStatus{}, err
	}

	local, err := r.hostname()
	if err != nil {
		return SchedulerStatus{SchedulerName: name}, fmt.Errorf("local hostname: %w", err)
	}

	status := SchedulerStatus{
		IsScheduler:   ShortHostEqual(name, local),
		SchedulerName: name,
	}
	r.logger.Debug().
		Str("scheduler", name).
		Str("hostname", local).
		Bool("is_scheduler", status.IsScheduler).
		Msg("resolved scheduler node")
	return status, nil
}

// ShortName returns the portion of a hostname before the first dot.
func ShortName(host string) string {
	short, _, _ := strings.Cut(host, ".")
	return short
}

// ShortHostEqual compares two hostnames by their case-folded short
// names, so FQDN vs short-name mismatches do not produce false
// negatives.
func ShortHostEqual(a, b string) bool {
	return strings.EqualFold(ShortName(a), ShortName(b))
}

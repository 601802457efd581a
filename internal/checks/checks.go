// Package checks implements the NRPE check operations for a ScoutAM
// cluster node. Every check returns its worst severity and one
// explanatory line per evaluated condition; the caller aggregates
// severities into the process exit code.
package checks

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/versity/scoutam-checks/internal/config"
	"github.com/versity/scoutam-checks/internal/execx"
	"github.com/versity/scoutam-checks/internal/scoutam"
	"github.com/versity/scoutam-checks/internal/state"
)

// schedulerResolver is the leadership surface the sequences check
// needs, satisfied by *scoutam.Resolver.
type schedulerResolver interface {
	Resolve(ctx context.Context) (scoutam.SchedulerStatus, error)
}

// Checker runs the individual check operations against one node.
type Checker struct {
	cfg      config.Config
	logger   zerolog.Logger
	exec     execx.Runner
	store    state.Store
	systemd  SystemdClient
	resolver schedulerResolver
	now      func() time.Time
}

// Option customizes a Checker, mainly for tests.
type Option func(*Checker)

// WithExecutor substitutes the command executor.
func WithExecutor(exec execx.Runner) Option {
	return func(c *Checker) {
		c.exec = exec
	}
}

// WithStore substitutes the sequence state store.
func WithStore(store state.Store) Option {
	return func(c *Checker) {
		c.store = store
	}
}

// WithSystemd substitutes the systemd client.
func WithSystemd(client SystemdClient) Option {
	return func(c *Checker) {
		c.systemd = client
	}
}

// WithResolver substitutes the scheduler resolver.
func WithResolver(resolver schedulerResolver) Option {
	return func(c *Checker) {
		c.resolver = resolver
	}
}

// WithClock substitutes the clock used for block durations.
func WithClock(now func() time.Time) Option {
	return func(c *Checker) {
		c.now = now
	}
}

// New constructs a Checker. Collaborators not overridden by options
// are built from the configuration.
func New(cfg config.Config, logger zerolog.Logger, opts ...Option) *Checker {
	c := &Checker{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.exec == nil {
		c.exec = execx.New(logger, cfg.CommandTimeout)
	}
	if c.store == nil {
		c.store = state.NewFileStore(cfg.StateFile, logger)
	}
	if c.resolver == nil {
		c.resolver = scoutam.NewResolver(c.exec, cfg.SamcliCmd, logger)
	}
	return c
}

// MissingBinaries returns the required vendor binaries that are not
// installed or not executable. A non-empty result is an immediate
// CRITICAL before any check runs.
func MissingBinaries(cfg config.Config) []string {
	var missing []string
	for _, path := range []string{cfg.ScoutfsCmd, cfg.MonitorCmd} {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || info.Mode().Perm()&0o111 == 0 {
			missing = append(missing, path)
		}
	}
	return missing
}

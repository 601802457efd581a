// Package exporter renders node metrics for the Prometheus
// node_exporter textfile collector. Collection is leader-gated:
// cluster-wide counters are only meaningful on the leader node, so
// non-leaders publish just their leadership gauge.
package exporter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog"

	"github.com/versity/scoutam-checks/internal/config"
	"github.com/versity/scoutam-checks/internal/execx"
	"github.com/versity/scoutam-checks/internal/scoutam"
)

const defaultProjectsPath = "/etc/projects"

// Exporter collects ScoutAM metrics and writes them to a textfile.
type Exporter struct {
	cfg          config.Config
	logger       zerolog.Logger
	exec         execx.Runner
	hostname     func() (string, error)
	projectsPath string
}

// Option customizes an Exporter, mainly for tests.
type Option func(*Exporter)

// WithExecutor substitutes the command executor.
func WithExecutor(exec execx.Runner) Option {
	return func(e *Exporter) {
		e.exec = exec
	}
}

// WithHostname substitutes local hostname lookup.
func WithHostname(fn func() (string, error)) Option {
	return func(e *Exporter) {
		e.hostname = fn
	}
}

// WithProjectsPath substitutes the project-name mapping file.
func WithProjectsPath(path string) Option {
	return func(e *Exporter) {
		e.projectsPath = path
	}
}

// New constructs an Exporter.
func New(cfg config.Config, logger zerolog.Logger, opts ...Option) *Exporter {
	e := &Exporter{
		cfg:          cfg,
		logger:       logger,
		hostname:     os.Hostname,
		projectsPath: defaultProjectsPath,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.exec == nil {
		e.exec = execx.New(logger, cfg.CommandTimeout)
	}
	return e
}

// Run collects one round of metrics and atomically replaces the
// textfile at path.
func (e *Exporter) Run(ctx context.Context, path string) error {
	registry := prometheus.NewRegistry()

	leaderGauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scoutam_leader",
		Help: "Whether this node is the ScoutAM cluster leader.",
	}, []string{"fqdn", "hostname", "leader"})
	schedulerGauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scoutam_scheduler",
		Help: "Scheduler queue state: 1 running, 0 idled.",
	}, []string{"queue", "idle"})
	acctGauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scoutam_acct",
		Help: "ScoutAM accounting counters.",
	}, []string{"id", "name", "type", "category", "metric"})
	registry.MustRegister(leaderGauge, schedulerGauge, acctGauge)

	leader := e.isLeader(ctx)
	if leader {
		e.collectScheduler(ctx, schedulerGauge)
		e.collectCacheStats(ctx, acctGauge)
		e.collectProjectQuotas(ctx, acctGauge)
	}

	host, err := e.hostname()
	if err != nil {
		return fmt.Errorf("local hostname: %w", err)
	}
	leaderGauge.WithLabelValues(host, scoutam.ShortName(host), strconv.FormatBool(leader)).Set(1)

	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	var buf bytes.Buffer
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, family); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}

	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	e.logger.Info().Str("path", path).Bool("leader", leader).Msg("metrics written")
	return nil
}

func (e *Exporter) isLeader(ctx context.Context) bool {
	res, err := e.exec.Run(ctx, e.cfg.MonitorCmd, "-print")
	if err != nil || res.ExitCode != 0 {
		e.logger.Warn().Err(err).Int("exit_code", res.ExitCode).Msg("could not query mounts for leadership")
		return false
	}
	for _, mount := range scoutam.ParseMounts(res.Stdout) {
		if mount.Leader {
			return true
		}
	}
	return false
}

func (e *Exporter) collectScheduler(ctx context.Context, gauge *prometheus.GaugeVec) {
	res, err := e.exec.Run(ctx, e.cfg.SamcliCmd, "scheduler")
	if err != nil || res.ExitCode != 0 {
		e.logger.Warn().Err(err).Msg("scheduler metrics unavailable")
		return
	}
	queues := scoutam.ParseSchedulerQueues(res.Stdout)
	setQueue(gauge, "SCHEDULER", queues.SchedulerIdled)
	setQueue(gauge, "ARCHIVING", queues.ArchivingIdled)
	setQueue(gauge, "STAGING", queues.StagingIdled)
}

func setQueue(gauge *prometheus.GaugeVec, queue string, idled bool) {
	value := 1.0
	if idled {
		value = 0
	}
	gauge.WithLabelValues(queue, strconv.FormatBool(idled)).Set(value)
}

func (e *Exporter) collectCacheStats(ctx context.Context, gauge *prometheus.GaugeVec) {
	res, err := e.exec.Run(ctx, e.cfg.SamcliCmd, "fs", "acct", "--cache")
	if err != nil || res.ExitCode != 0 {
		e.logger.Warn().Err(err).Msg("cache accounting unavailable")
		return
	}
	stats := scoutam.ParseCacheStats(res.Stdout)
	gauge.WithLabelValues("", "noarchive", "cache", "", "files").Set(float64(stats.NoArchive))
	gauge.WithLabelValues("", "unmatched", "cache", "", "files").Set(float64(stats.Unmatched))
	gauge.WithLabelValues("", "damaged", "cache", "", "files").Set(float64(stats.Damaged))
}

func (e *Exporter) collectProjectQuotas(ctx context.Context, gauge *prometheus.GaugeVec) {
	names, err := loadProjectNames(e.projectsPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			e.logger.Warn().Err(err).Str("path", e.projectsPath).Msg("could not read project mapping")
		}
		return
	}

	res, err := e.exec.Run(ctx, e.cfg.SamcliCmd, "quota", "use")
	if err != nil || res.ExitCode != 0 {
		e.logger.Warn().Err(err).Msg("quota usage unavailable")
		return
	}

	for _, quota := range scoutam.ParseProjectQuotas(res.Stdout) {
		name := names[quota.ID]
		gauge.WithLabelValues(quota.ID, name, "project", "online", "files").Set(float64(quota.OnlineFiles))
		gauge.WithLabelValues(quota.ID, name, "project", "online", "size").Set(float64(quota.OnlineSize))
		gauge.WithLabelValues(quota.ID, name, "project", "total", "files").Set(float64(quota.TotalFiles))
		gauge.WithLabelValues(quota.ID, name, "project", "total", "size").Set(float64(quota.TotalSize))
	}
}

// loadProjectNames parses the name:id mapping file into id -> name.
func loadProjectNames(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		name, id, found := strings.Cut(strings.TrimSpace(line), ":")
		if !found || name == "" {
			continue
		}
		names[id] = name
	}
	return names, nil
}

package checks

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/versity/scoutam-checks/internal/config"
	"github.com/versity/scoutam-checks/internal/execx"
	"github.com/versity/scoutam-checks/internal/scoutam"
	"github.com/versity/scoutam-checks/internal/sequence"
)

// fakeExec serves canned results keyed by the full command line.
type fakeExec struct {
	results map[string]execx.Result
	errs    map[string]error
	calls   []string
}

func cmdKey(name string, args ...string) string {
	return strings.Join(append([]string{name}, args...), " ")
}

// newFakeExec returns a fakeExec answering one command line with the
// given stdout.
func newFakeExec(key, stdout string) *fakeExec {
	return &fakeExec{results: map[string]execx.Result{key: {Stdout: stdout}}}
}

func (f *fakeExec) Run(ctx context.Context, name string, args ...string) (execx.Result, error) {
	key := cmdKey(name, args...)
	f.calls = append(f.calls, key)
	if err, ok := f.errs[key]; ok {
		return execx.Result{}, err
	}
	return f.results[key], nil
}

func (f *fakeExec) RunRetry(ctx context.Context, retries uint64, name string, args ...string) (execx.Result, error) {
	return f.Run(ctx, name, args...)
}

type fakeStore struct {
	st        sequence.State
	saved     *sequence.State
	loadCalls int
	deleted   bool
	hadFile   bool
	deleteErr error
}

func (f *fakeStore) Load(ctx context.Context) sequence.State {
	f.loadCalls++
	if f.st == nil {
		return sequence.State{}
	}
	return f.st
}

func (f *fakeStore) Save(ctx context.Context, st sequence.State) {
	f.saved = &st
}

func (f *fakeStore) Delete() (bool, error) {
	f.deleted = true
	return f.hadFile, f.deleteErr
}

type fakeSystemd struct {
	active map[string]bool
	err    error
}

func (f *fakeSystemd) UnitActive(ctx context.Context, unit string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.active[unit], nil
}

func (f *fakeSystemd) Close() {}

type fakeResolver struct {
	status scoutam.SchedulerStatus
	err    error
}

func (f *fakeResolver) Resolve(ctx context.Context) (scoutam.SchedulerStatus, error) {
	return f.status, f.err
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		ScoutfsCmd:       "/usr/sbin/scoutfs",
		MonitorCmd:       "/usr/sbin/scoutam-monitor",
		SamcliCmd:        "/usr/bin/samcli",
		ScoutAMUnit:      "scoutam.service",
		FencedUnit:       "scoutfs-fenced.service",
		VersityGWUnit:    "versitygw@",
		ScoutGWUnit:      "scoutgw@",
		VersityGWConfDir: t.TempDir(),
		ScoutGWConfDir:   t.TempDir(),
		MultiFSConf:      "/nonexistent/multifs.yaml",
		StateFile:        "/nonexistent/state.json",
		CommandTimeout:   time.Second,
	}
}

func newTestChecker(t *testing.T, opts ...Option) *Checker {
	t.Helper()
	return New(testConfig(t), zerolog.Nop(), opts...)
}

func hasLine(messages []string, want string) bool {
	for _, m := range messages {
		if m == want {
			return true
		}
	}
	return false
}

func containsLine(messages []string, fragment string) bool {
	for _, m := range messages {
		if strings.Contains(m, fragment) {
			return true
		}
	}
	return false
}

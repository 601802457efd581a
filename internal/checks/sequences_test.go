package checks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/versity/scoutam-checks/internal/nrpe"
	"github.com/versity/scoutam-checks/internal/scoutam"
	"github.com/versity/scoutam-checks/internal/sequence"
)

var seqNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const seqCmd = "/usr/bin/samcli debug seq -c"

var defaultThresholds = SequenceThresholds{
	ArfindWarn: 300 * time.Second,
	ArfindCrit: 600 * time.Second,
	StfindWarn: 300 * time.Second,
	StfindCrit: 600 * time.Second,
}

func schedulerResolverFake() *fakeResolver {
	return &fakeResolver{status: scoutam.SchedulerStatus{IsScheduler: true, SchedulerName: "node1"}}
}

func TestSequencesFreshBlockUnderThreshold(t *testing.T) {
	dump := "### FSID: a1b2c3d4  Mount: /scoutfs\nCurrent FS Seq: 7\nArfind Restart Blocked: 42: waiting on lock\nStfind Restart Not Blocked\n"
	store := &fakeStore{}
	exec := newFakeExec(seqCmd, dump)
	c := newTestChecker(t,
		WithExecutor(exec),
		WithStore(store),
		WithResolver(schedulerResolverFake()),
		WithClock(func() time.Time { return seqNow }),
	)

	result := c.Sequences(context.Background(), "", defaultThresholds)

	if result.Status != nrpe.StatusOK {
		t.Fatalf("expected OK, got %v: %v", result.Status, result.Messages)
	}
	if !hasLine(result.Messages, "OK: Arfind blocked for 0s on /scoutfs (under threshold)") {
		t.Fatalf("missing under-threshold line: %v", result.Messages)
	}
	if !hasLine(result.Messages, "OK: Stfind not blocked on /scoutfs") {
		t.Fatalf("missing stfind line: %v", result.Messages)
	}

	if store.saved == nil {
		t.Fatal("state must be saved")
	}
	saved := (*store.saved)["/scoutfs"]
	if saved.FSID != "a1b2c3d4" || !saved.LastCheck.Equal(seqNow) {
		t.Fatalf("unexpected saved record: %+v", saved)
	}
	if !saved.Arfind.Blocked() || saved.Arfind.Inode != "42" || !saved.Arfind.BlockedSince.Equal(seqNow) {
		t.Fatalf("unexpected arfind state: %+v", saved.Arfind)
	}
	if saved.Stfind.Blocked() {
		t.Fatalf("unexpected stfind state: %+v", saved.Stfind)
	}
	if saved.CurrentSeq == nil || *saved.CurrentSeq != 7 {
		t.Fatalf("unexpected current seq: %v", saved.CurrentSeq)
	}
}

func TestSequencesOngoingBlockGoesCritical(t *testing.T) {
	dump := "### FSID: a1b2c3d4  Mount: /scoutfs\nArfind Restart Blocked: 42: waiting on lock\n"
	since := seqNow.Add(-700 * time.Second)
	store := &fakeStore{st: sequence.State{
		"/scoutfs": {
			FSID:      "a1b2c3d4",
			LastCheck: since,
			Arfind: sequence.MonitorState{
				Status:       sequence.StatusBlocked,
				BlockedSince: &since,
				Inode:        "42",
				Reason:       "waiting on lock",
			},
			Stfind: sequence.MonitorState{Status: sequence.StatusNotBlocked},
		},
	}}
	c := newTestChecker(t,
		WithExecutor(newFakeExec(seqCmd, dump)),
		WithStore(store),
		WithResolver(schedulerResolverFake()),
		WithClock(func() time.Time { return seqNow }),
	)

	result := c.Sequences(context.Background(), "", defaultThresholds)

	if result.Status != nrpe.StatusCritical {
		t.Fatalf("expected CRITICAL, got %v: %v", result.Status, result.Messages)
	}
	if !hasLine(result.Messages, "CRITICAL: Arfind blocked for 700s on /scoutfs (inode 42: waiting on lock)") {
		t.Fatalf("missing critical line: %v", result.Messages)
	}
	saved := (*store.saved)["/scoutfs"]
	if !saved.Arfind.BlockedSince.Equal(since) {
		t.Fatalf("blocked_since must not move for same inode: %v", saved.Arfind.BlockedSince)
	}
}

func TestSequencesInodeChangeResetsDuration(t *testing.T) {
	dump := "### FSID: a1b2c3d4  Mount: /scoutfs\nArfind Restart Blocked: 99: new blocker\n"
	since := seqNow.Add(-4 * time.Hour)
	store := &fakeStore{st: sequence.State{
		"/scoutfs": {
			FSID: "a1b2c3d4",
			Arfind: sequence.MonitorState{
				Status:       sequence.StatusBlocked,
				BlockedSince: &since,
				Inode:        "42",
			},
		},
	}}
	c := newTestChecker(t,
		WithExecutor(newFakeExec(seqCmd, dump)),
		WithStore(store),
		WithResolver(schedulerResolverFake()),
		WithClock(func() time.Time { return seqNow }),
	)

	result := c.Sequences(context.Background(), "", defaultThresholds)

	if result.Status != nrpe.StatusOK {
		t.Fatalf("inode change must restart the clock, got %v: %v", result.Status, result.Messages)
	}
	if !hasLine(result.Messages, "OK: Arfind blocked for 0s on /scoutfs (under threshold)") {
		t.Fatalf("missing reset line: %v", result.Messages)
	}
	saved := (*store.saved)["/scoutfs"]
	if saved.Arfind.Inode != "99" || !saved.Arfind.BlockedSince.Equal(seqNow) {
		t.Fatalf("unexpected arfind state: %+v", saved.Arfind)
	}
}

func TestSequencesAbsentLeavesStateUntouched(t *testing.T) {
	// Neither monitor shape matches in the block: prior blocked state
	// must survive with no line emitted.
	dump := "### FSID: a1b2c3d4  Mount: /scoutfs\nCurrent FS Seq: 8\n"
	since := seqNow.Add(-time.Hour)
	store := &fakeStore{st: sequence.State{
		"/scoutfs": {
			FSID: "a1b2c3d4",
			Arfind: sequence.MonitorState{
				Status:       sequence.StatusBlocked,
				BlockedSince: &since,
				Inode:        "42",
				Reason:       "waiting",
			},
			Stfind: sequence.MonitorState{Status: sequence.StatusNotBlocked},
		},
	}}
	c := newTestChecker(t,
		WithExecutor(newFakeExec(seqCmd, dump)),
		WithStore(store),
		WithResolver(schedulerResolverFake()),
		WithClock(func() time.Time { return seqNow }),
	)

	result := c.Sequences(context.Background(), "", defaultThresholds)

	if result.Status != nrpe.StatusOK {
		t.Fatalf("expected OK, got %v: %v", result.Status, result.Messages)
	}
	if len(result.Messages) != 0 {
		t.Fatalf("absent observations must not emit lines: %v", result.Messages)
	}
	saved := (*store.saved)["/scoutfs"]
	if !saved.Arfind.Blocked() || saved.Arfind.Inode != "42" || !saved.Arfind.BlockedSince.Equal(since) {
		t.Fatalf("prior blocked state must survive absence: %+v", saved.Arfind)
	}
}

func TestSequencesNoFilesystemsIsCriticalWithoutWrite(t *testing.T) {
	store := &fakeStore{}
	c := newTestChecker(t,
		WithExecutor(newFakeExec(seqCmd, "no blocks in this output\n")),
		WithStore(store),
		WithResolver(schedulerResolverFake()),
		WithClock(func() time.Time { return seqNow }),
	)

	result := c.Sequences(context.Background(), "", defaultThresholds)

	if result.Status != nrpe.StatusCritical {
		t.Fatalf("expected CRITICAL, got %v", result.Status)
	}
	if !hasLine(result.Messages, "CRITICAL: No filesystems found in sequence output") {
		t.Fatalf("missing message: %v", result.Messages)
	}
	if store.loadCalls != 0 || store.saved != nil {
		t.Fatal("state must be untouched when no filesystems are found")
	}
}

func TestSequencesCommandFailureIsCritical(t *testing.T) {
	store := &fakeStore{}
	exec := &fakeExec{errs: map[string]error{seqCmd: errors.New("samcli timed out after 30s")}}
	c := newTestChecker(t,
		WithExecutor(exec),
		WithStore(store),
		WithResolver(schedulerResolverFake()),
	)

	result := c.Sequences(context.Background(), "", defaultThresholds)

	if result.Status != nrpe.StatusCritical {
		t.Fatalf("expected CRITICAL, got %v", result.Status)
	}
	if !containsLine(result.Messages, "Sequence check failed") {
		t.Fatalf("missing failure line: %v", result.Messages)
	}
	if store.saved != nil {
		t.Fatal("state must not be written on command failure")
	}
}

func TestSequencesNotSchedulerRemovesState(t *testing.T) {
	store := &fakeStore{hadFile: true}
	resolver := &fakeResolver{status: scoutam.SchedulerStatus{IsScheduler: false, SchedulerName: "node1.cluster.local"}}
	c := newTestChecker(t,
		WithExecutor(&fakeExec{}),
		WithStore(store),
		WithResolver(resolver),
	)

	result := c.Sequences(context.Background(), "", defaultThresholds)

	if result.Status != nrpe.StatusOK {
		t.Fatalf("expected OK on non-scheduler node, got %v", result.Status)
	}
	if !store.deleted {
		t.Fatal("stale state must be deleted on non-scheduler node")
	}
	if !hasLine(result.Messages, "OK: Not scheduler node, skipping sequence check (scheduler: node1.cluster.local), removed stale state file") {
		t.Fatalf("unexpected messages: %v", result.Messages)
	}
}

func TestSequencesNotSchedulerNoStateFile(t *testing.T) {
	store := &fakeStore{hadFile: false}
	resolver := &fakeResolver{status: scoutam.SchedulerStatus{IsScheduler: false, SchedulerName: "node1"}}
	c := newTestChecker(t, WithExecutor(&fakeExec{}), WithStore(store), WithResolver(resolver))

	result := c.Sequences(context.Background(), "", defaultThresholds)

	if !hasLine(result.Messages, "OK: Not scheduler node, skipping sequence check (scheduler: node1)") {
		t.Fatalf("unexpected messages: %v", result.Messages)
	}
}

func TestSequencesResolverErrorIsWarn(t *testing.T) {
	store := &fakeStore{hadFile: true}
	exec := &fakeExec{}
	resolver := &fakeResolver{err: errors.New("samcli system exited 1")}
	c := newTestChecker(t, WithExecutor(exec), WithStore(store), WithResolver(resolver))

	result := c.Sequences(context.Background(), "", defaultThresholds)

	if result.Status != nrpe.StatusWarning {
		t.Fatalf("indeterminate leadership must be WARN, got %v", result.Status)
	}
	if store.deleted || store.loadCalls != 0 || store.saved != nil {
		t.Fatal("state must be untouched when leadership is indeterminate")
	}
	if len(exec.calls) != 0 {
		t.Fatalf("parser command must not run: %v", exec.calls)
	}
}

func TestSequencesPrunesStaleMounts(t *testing.T) {
	dump := "### FSID: a1b2c3d4  Mount: /scoutfs\nArfind Restart Not Blocked\n"
	store := &fakeStore{st: sequence.State{
		"/scoutfs": {FSID: "a1b2c3d4"},
		"/gone":    {FSID: "deadbeef"},
	}}
	c := newTestChecker(t,
		WithExecutor(newFakeExec(seqCmd, dump)),
		WithStore(store),
		WithResolver(schedulerResolverFake()),
		WithClock(func() time.Time { return seqNow }),
	)

	c.Sequences(context.Background(), "", defaultThresholds)

	if store.saved == nil {
		t.Fatal("state must be saved")
	}
	if _, ok := (*store.saved)["/gone"]; ok {
		t.Fatal("unobserved mount must be pruned")
	}
	if _, ok := (*store.saved)["/scoutfs"]; !ok {
		t.Fatal("observed mount must be kept")
	}
}

func TestSequencesMountFilter(t *testing.T) {
	dump := "### FSID: a1  Mount: /scoutfs\nArfind Restart Not Blocked\n" +
		"### FSID: b2  Mount: /scoutfs2\nArfind Restart Blocked: 7: stuck\n"
	store := &fakeStore{}
	c := newTestChecker(t,
		WithExecutor(newFakeExec(seqCmd, dump)),
		WithStore(store),
		WithResolver(schedulerResolverFake()),
		WithClock(func() time.Time { return seqNow }),
	)

	result := c.Sequences(context.Background(), "/scoutfs", defaultThresholds)

	if result.Status != nrpe.StatusOK {
		t.Fatalf("filtered run must ignore other mounts, got %v: %v", result.Status, result.Messages)
	}
	if containsLine(result.Messages, "/scoutfs2") {
		t.Fatalf("filtered-out mount must not be reported: %v", result.Messages)
	}
	if _, ok := (*store.saved)["/scoutfs2"]; ok {
		t.Fatal("filtered-out mount must not be recorded")
	}
}

func TestSequencesCritFirstTieBreak(t *testing.T) {
	// warn greater than crit: a duration meeting both is CRITICAL.
	dump := "### FSID: a1b2c3d4  Mount: /scoutfs\nArfind Restart Blocked: 42: waiting on lock\n"
	since := seqNow.Add(-600 * time.Second)
	store := &fakeStore{st: sequence.State{
		"/scoutfs": {
			FSID: "a1b2c3d4",
			Arfind: sequence.MonitorState{
				Status:       sequence.StatusBlocked,
				BlockedSince: &since,
				Inode:        "42",
			},
		},
	}}
	thresholds := defaultThresholds
	thresholds.ArfindWarn = 900 * time.Second
	thresholds.ArfindCrit = 600 * time.Second

	c := newTestChecker(t,
		WithExecutor(newFakeExec(seqCmd, dump)),
		WithStore(store),
		WithResolver(schedulerResolverFake()),
		WithClock(func() time.Time { return seqNow }),
	)

	result := c.Sequences(context.Background(), "", thresholds)

	if result.Status != nrpe.StatusCritical {
		t.Fatalf("crit threshold must win the tie-break, got %v: %v", result.Status, result.Messages)
	}
}

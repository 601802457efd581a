// Package sequence tracks Arfind/Stfind restart blocks across check
// invocations. The transition logic is a pure function of the prior
// persisted state, the current observation and the clock, so every
// transition is testable without touching disk or processes.
package sequence

import (
	"time"

	"github.com/versity/scoutam-checks/internal/nrpe"
	"github.com/versity/scoutam-checks/internal/scoutam"
)

// MonitorStatus is the persisted blocked/not-blocked state of one
// monitor.
type MonitorStatus string

const (
	StatusNotBlocked MonitorStatus = "not_blocked"
	StatusBlocked    MonitorStatus = "blocked"
)

// MonitorState is the persisted state for one {filesystem, monitor}
// pair. BlockedSince is set the instant a block is first observed for
// a given inode and survives unchanged while that inode remains the
// blocker.
type MonitorState struct {
	Status       MonitorStatus `json:"status"`
	BlockedSince *time.Time    `json:"blocked_since,omitempty"`
	Inode        string        `json:"inode,omitempty"`
	Reason       string        `json:"reason,omitempty"`
}

// Blocked reports whether the state records an ongoing block.
func (m MonitorState) Blocked() bool {
	return m.Status == StatusBlocked
}

// FilesystemState is the persisted record for one filesystem.
type FilesystemState struct {
	FSID       string       `json:"fsid"`
	LastCheck  time.Time    `json:"last_check"`
	CurrentSeq *uint64      `json:"current_fs_seq,omitempty"`
	Arfind     MonitorState `json:"arfind"`
	Stfind     MonitorState `json:"stfind"`
}

// State maps mount path to filesystem record. The mount path is the
// natural key within a single node.
type State map[string]FilesystemState

// Transition computes the next monitor state from the prior state and
// the current observation.
//
// The returned duration is how long the monitor has been blocked on
// its current inode; it is meaningful only when evaluate is true.
// evaluate is true only for a blocked observation: an explicit
// not-blocked observation transitions the state but produces nothing
// to threshold, and an absent observation leaves the prior state
// untouched.
func Transition(prior MonitorState, obs scoutam.Observation, now time.Time) (next MonitorState, duration time.Duration, evaluate bool) {
	switch obs.Kind {
	case scoutam.ObservedBlocked:
		if prior.Blocked() && prior.Inode == obs.Inode && prior.BlockedSince != nil {
			// Same inode still blocking: keep the onset time, refresh
			// the reason text.
			next = prior
			next.Reason = obs.Reason
			return next, now.Sub(*prior.BlockedSince), true
		}
		since := now
		next = MonitorState{
			Status:       StatusBlocked,
			BlockedSince: &since,
			Inode:        obs.Inode,
			Reason:       obs.Reason,
		}
		return next, 0, true

	case scoutam.ObservedNotBlocked:
		return MonitorState{Status: StatusNotBlocked}, 0, false

	default:
		return prior, 0, false
	}
}

// Classify maps a block duration to a severity. Critical is checked
// first so a duration satisfying both thresholds is CRITICAL even
// when the thresholds are misconfigured with warn > crit.
func Classify(duration, warn, crit time.Duration) nrpe.Status {
	switch {
	case duration >= crit:
		return nrpe.StatusCritical
	case duration >= warn:
		return nrpe.StatusWarning
	default:
		return nrpe.StatusOK
	}
}

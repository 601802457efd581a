// Package scoutam parses the free-form text output of the ScoutAM and
// ScoutFS command line tools into typed facts. Parsers are pure: text
// in, facts out, no process invocation.
package scoutam

// Mount describes one mounted ScoutFS filesystem as reported by
// scoutam-monitor.
type Mount struct {
	MountPoint string
	Device     string
	FSID       string
	Leader     bool
	QuorumSlot int64
}

// UsageClass holds the usage counters for one storage class
// (MetaData or Data) of a filesystem.
type UsageClass struct {
	BlockSize   uint64
	BlocksTotal uint64
	BlocksUsed  uint64
	BlocksFree  uint64
	PctUsed     int

	BytesTotal uint64
	BytesUsed  uint64
	BytesFree  uint64
}

// Usage is the parsed `scoutfs df` output for one filesystem.
type Usage struct {
	MetaData UsageClass
	Data     UsageClass
}

// Watermarks are the reclamation thresholds reported by
// `samcli fs stat`.
type Watermarks struct {
	HighPct int
	LowPct  int
}

// SchedulerQueues reports which scheduler queues are idled.
type SchedulerQueues struct {
	SchedulerIdled bool
	ArchivingIdled bool
	StagingIdled   bool
}

// ObservationKind distinguishes the three textual shapes a monitor
// status line can take within a sequence block.
type ObservationKind int

const (
	// ObservedAbsent means neither the blocked nor the not-blocked
	// shape matched. Distinct from not blocked: the prior state must
	// be left untouched.
	ObservedAbsent ObservationKind = iota
	ObservedNotBlocked
	ObservedBlocked
)

// Observation is the parsed point-in-time status of one monitor
// (Arfind or Stfind) on one filesystem.
type Observation struct {
	Kind   ObservationKind
	Inode  string
	Reason string
}

// SequenceBlock is one per-filesystem section of the
// `samcli debug seq -c` diagnostic dump.
type SequenceBlock struct {
	FSID       string
	Mount      string
	CurrentSeq *uint64
	Arfind     Observation
	Stfind     Observation
}

package scoutam

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/versity/scoutam-checks/internal/sizeutil"
)

var (
	mountRe = regexp.MustCompile(
		`MountPoint: \(string\) \(len=\d+\) "(?P<MountPoint>[^"]+)",\s*` +
			`IsLeader: \(bool\) (?P<IsLeader>\w+),\s*` +
			`Device: \(string\) \(len=\d+\) "(?P<Device>[^"]+)",\s*` +
			`Fsid: \(fs\.FSID\) (?P<Fsid>[a-zA-Z0-9]+),\s*` +
			`QuorumSlot: \(int64\) (?P<QuorumSlot>\d+)`)

	usageRe     = regexp.MustCompile(`^\s*(MetaData|Data)\s+(\S+)\s+(\d+)\s+(\d+)\s+(\d+)\s+(\d+)\s*$`)
	watermarkRe = regexp.MustCompile(`(\d+)%`)

	schedulerNameRe = regexp.MustCompile(`(?m)^scheduler name\s*:\s*(.+)$`)

	seqHeaderRe = regexp.MustCompile(`(?m)^### FSID: (?P<fsid>[a-zA-Z0-9]+)\s+Mount: (?P<mount>[^\n]+)$`)

	arfindBlockedRe    = regexp.MustCompile(`Arfind Restart Blocked:\s*(\d+):\s*(.+)`)
	arfindNotBlockedRe = regexp.MustCompile(`Arfind Restart Not Blocked`)
	stfindBlockedRe    = regexp.MustCompile(`Stfind Restart Blocked:\s*(\d+):\s*(.+)`)
	stfindNotBlockedRe = regexp.MustCompile(`Stfind Restart Not Blocked`)
	currentSeqRe       = regexp.MustCompile(`Current FS Seq:\s*(\d+)`)
)

// ErrNoSchedulerName is returned when the cluster status output does
// not carry a scheduler name line. Absence of the line means the
// output is unusable, not that there is no scheduler.
var ErrNoSchedulerName = errors.New("no scheduler name in system output")

// ParseMounts extracts mounted filesystems from scoutam-monitor
// -print output.
func ParseMounts(output string) []Mount {
	var mounts []Mount
	for _, m := range mountRe.FindAllStringSubmatch(output, -1) {
		slot, _ := strconv.ParseInt(m[5], 10, 64)
		mounts = append(mounts, Mount{
			MountPoint: m[1],
			Leader:     m[2] == "true",
			Device:     m[3],
			FSID:       m[4],
			QuorumSlot: slot,
		})
	}
	return mounts
}

// ParseSchedulerName extracts the reported scheduler hostname from
// `samcli system` output.
func ParseSchedulerName(output string) (string, error) {
	m := schedulerNameRe.FindStringSubmatch(output)
	if m == nil {
		return "", ErrNoSchedulerName
	}
	return strings.TrimSpace(m[1]), nil
}

// ParseSchedulerQueues reports idled queues from `samcli scheduler`
// output.
func ParseSchedulerQueues(output string) SchedulerQueues {
	var queues SchedulerQueues
	for _, line := range strings.Split(output, "\n") {
		switch strings.TrimSpace(line) {
		case "SCHEDULER IS IDLED":
			queues.SchedulerIdled = true
		case "ARCHIVING IS IDLED":
			queues.ArchivingIdled = true
		case "STAGING IS IDLED":
			queues.StagingIdled = true
		}
	}
	return queues
}

// ParseUsage extracts the MetaData and Data rows from `scoutfs df`
// output and derives byte counts from the block size.
func ParseUsage(output string) (Usage, error) {
	var usage Usage
	for _, line := range strings.Split(output, "\n") {
		m := usageRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		class, err := parseUsageClass(m)
		if err != nil {
			return Usage{}, err
		}
		if m[1] == "MetaData" {
			usage.MetaData = class
		} else {
			usage.Data = class
		}
	}
	return usage, nil
}

func parseUsageClass(m []string) (UsageClass, error) {
	blockSize, err := sizeutil.ParseBytes(m[2])
	if err != nil {
		return UsageClass{}, fmt.Errorf("parse %s block size: %w", m[1], err)
	}
	total, _ := strconv.ParseUint(m[3], 10, 64)
	used, _ := strconv.ParseUint(m[4], 10, 64)
	free, _ := strconv.ParseUint(m[5], 10, 64)
	pct, _ := strconv.Atoi(m[6])

	return UsageClass{
		BlockSize:   blockSize,
		BlocksTotal: total,
		BlocksUsed:  used,
		BlocksFree:  free,
		PctUsed:     pct,
		BytesTotal:  total * blockSize,
		BytesUsed:   used * blockSize,
		BytesFree:   free * blockSize,
	}, nil
}

// ParseWatermarks extracts the high and low watermark percentages
// from `samcli fs stat` output. Both must be present.
func ParseWatermarks(output string) (Watermarks, error) {
	var (
		wm       Watermarks
		haveHigh bool
		haveLow  bool
	)
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "High Watermark:") {
			if m := watermarkRe.FindStringSubmatch(line); m != nil {
				wm.HighPct, _ = strconv.Atoi(m[1])
				haveHigh = true
			}
		}
		if strings.HasPrefix(line, "Low Watermark:") {
			if m := watermarkRe.FindStringSubmatch(line); m != nil {
				wm.LowPct, _ = strconv.Atoi(m[1])
				haveLow = true
			}
		}
	}
	if !haveHigh || !haveLow {
		return Watermarks{}, errors.New("high or low watermark not found in fs stat output")
	}
	return wm, nil
}

// ParseSequenceDump segments `samcli debug seq -c` output into
// per-filesystem blocks. Each block starts at a `### FSID:` header
// and runs up to the next header or end of input. Unrecognized lines
// within a block are ignored.
func ParseSequenceDump(output string) []SequenceBlock {
	headers := seqHeaderRe.FindAllStringSubmatchIndex(output, -1)
	blocks := make([]SequenceBlock, 0, len(headers))

	for i, h := range headers {
		fsid := output[h[2]:h[3]]
		mount := strings.TrimSpace(output[h[4]:h[5]])

		bodyStart := h[1]
		bodyEnd := len(output)
		if i+1 < len(headers) {
			bodyEnd = headers[i+1][0]
		}
		body := output[bodyStart:bodyEnd]

		block := SequenceBlock{
			FSID:   fsid,
			Mount:  mount,
			Arfind: parseMonitor(body, arfindBlockedRe, arfindNotBlockedRe),
			Stfind: parseMonitor(body, stfindBlockedRe, stfindNotBlockedRe),
		}
		if m := currentSeqRe.FindStringSubmatch(body); m != nil {
			if seq, err := strconv.ParseUint(m[1], 10, 64); err == nil {
				block.CurrentSeq = &seq
			}
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func parseMonitor(body string, blockedRe, notBlockedRe *regexp.Regexp) Observation {
	if m := blockedRe.FindStringSubmatch(body); m != nil {
		return Observation{
			Kind:   ObservedBlocked,
			Inode:  m[1],
			Reason: strings.TrimSpace(m[2]),
		}
	}
	if notBlockedRe.MatchString(body) {
		return Observation{Kind: ObservedNotBlocked}
	}
	return Observation{Kind: ObservedAbsent}
}

package scoutam

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	noArchiveRe = regexp.MustCompile(`NoArchive\s+count:\s+(\d+)\s+data:\d+`)
	unmatchedRe = regexp.MustCompile(`Archset Unmatched\s+count:\s+(\d+)\s+data:\d+`)
	damagedRe   = regexp.MustCompile(`Files with damaged copy:\s+(\d+)`)
)

// CacheStats are the cache accounting counters from
// `samcli fs acct --cache`. Missing counters read as zero.
type CacheStats struct {
	NoArchive uint64
	Unmatched uint64
	Damaged   uint64
}

// ParseCacheStats extracts cache accounting counters.
func ParseCacheStats(output string) CacheStats {
	return CacheStats{
		NoArchive: matchCount(noArchiveRe, output),
		Unmatched: matchCount(unmatchedRe, output),
		Damaged:   matchCount(damagedRe, output),
	}
}

func matchCount(re *regexp.Regexp, output string) uint64 {
	m := re.FindStringSubmatch(output)
	if m == nil {
		return 0
	}
	n, _ := strconv.ParseUint(m[1], 10, 64)
	return n
}

// ProjectQuota is one project row of `samcli quota use`.
type ProjectQuota struct {
	ID          string
	OnlineFiles uint64
	OnlineSize  uint64
	TotalFiles  uint64
	TotalSize   uint64
}

// ParseProjectQuotas extracts per-project usage rows. Rows are
// whitespace separated:
// PROJ <id> ONLN <files> SIZE <size> TOT <files> SIZE <size>
func ParseProjectQuotas(output string) []ProjectQuota {
	var quotas []ProjectQuota
	for _, line := range strings.Split(output, "\n") {
		if !strings.HasPrefix(line, "PROJ") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 10 {
			continue
		}
		quota := ProjectQuota{ID: parts[1]}
		quota.OnlineFiles, _ = strconv.ParseUint(parts[3], 10, 64)
		quota.OnlineSize, _ = strconv.ParseUint(parts[5], 10, 64)
		quota.TotalFiles, _ = strconv.ParseUint(parts[7], 10, 64)
		quota.TotalSize, _ = strconv.ParseUint(parts[9], 10, 64)
		quotas = append(quotas, quota)
	}
	return quotas
}

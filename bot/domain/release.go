package domain

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Release is one published OS build taken from the update feed.
type Release struct {
	Platform Platform
	Version  string
	Build    string
	// Date is zero when the feed omits a posting date for the entry.
	Date time.Time
	// Raw keeps the original feed node (JSON) so callers can run
	// heuristics the normalizer does not model as fields.
	Raw string
}

// CompareVersions orders dotted version strings numeric-aware: "10.0"
// sorts above "9.5". Segments that parse as integers are compared
// numerically, anything else falls back to string comparison.
func CompareVersions(a, b string) int {
	as := strings.Split(strings.TrimSpace(a), ".")
	bs := strings.Split(strings.TrimSpace(b), ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var sa, sb string
		if i < len(as) {
			sa = as[i]
		}
		if i < len(bs) {
			sb = bs[i]
		}
		if sa == sb {
			continue
		}
		na, errA := strconv.Atoi(sa)
		nb, errB := strconv.Atoi(sb)
		switch {
		case errA == nil && errB == nil:
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
		case errA == nil:
			// numeric beats non-numeric (and absent)
			return 1
		case errB == nil:
			return -1
		default:
			return strings.Compare(sa, sb)
		}
	}
	return 0
}

// SortReleases orders releases newest-first: posting date descending,
// ties (and missing dates) broken by numeric-aware version descending.
// The sort is stable so re-running it never reshuffles equal entries.
func SortReleases(rs []Release) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return CompareVersions(a.Version, b.Version) > 0
	})
}

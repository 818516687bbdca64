package application

import (
	"regexp"
	"time"

	"github.com/tidwall/gjson"

	"appstore-bot/bot/domain"
)

// The feed names its top-level asset grouping differently across
// revisions; both spellings describe the same concept and both are
// traversed, current name first.
var assetSetNames = []string{"PublicAssetSets", "AssetSets"}

var (
	versionFields = []string{"ProductVersion", "OS"}
	buildFields   = []string{"Build", "BuildID"}
	dateFields    = []string{"PostingDate", "PublicReleaseDate", "ReleaseDate"}
)

// iPadOS diverged from iOS as a labeled platform at 13.0 but kept
// sharing unified builds, and the feed does not always label those
// distinctly. The threshold is a historical constant, not a general
// rule for future platform splits.
const iPadOSSplitVersion = "13.0"

// CollectReleases normalizes the raw update-feed document into a
// deduplicated, newest-first catalog for one platform family. It is a
// pure function of its input: re-running it on the same document yields
// identical output.
func CollectReleases(doc []byte, target domain.Platform) []domain.Release {
	if len(doc) == 0 || target == "" {
		return nil
	}

	var out []domain.Release
	seen := make(map[string]struct{})

	root := gjson.ParseBytes(doc)
	for _, setName := range assetSetNames {
		set := root.Get(setName)
		if !set.IsObject() {
			continue
		}
		// source keys inside a grouping are arbitrary; only the
		// "array of objects" shape below them is assumed
		set.ForEach(func(_, nodes gjson.Result) bool {
			if !nodes.IsArray() {
				return true
			}
			nodes.ForEach(func(_, node gjson.Result) bool {
				if rel, ok := releaseFromNode(node, target, seen); ok {
					out = append(out, rel)
				}
				return true
			})
			return true
		})
	}

	domain.SortReleases(out)
	return out
}

func releaseFromNode(node gjson.Result, target domain.Platform, seen map[string]struct{}) (domain.Release, bool) {
	if !node.IsObject() {
		return domain.Release{}, false
	}

	version := firstString(node, versionFields)
	build := firstString(node, buildFields)
	if version == "" && build == "" {
		return domain.Release{}, false
	}
	// dedup by build, first occurrence wins; later duplicates across
	// groupings are discarded, not merged
	if build != "" {
		if _, dup := seen[build]; dup {
			return domain.Release{}, false
		}
	}

	var devices []string
	node.Get("SupportedDevices").ForEach(func(_, d gjson.Result) bool {
		devices = append(devices, d.String())
		return true
	})

	platforms := domain.PlatformsFromDevices(devices)
	include := platforms.Has(target)
	if !include && target == domain.PlatformIPadOS && platforms.Has(domain.PlatformIOS) {
		include = version != "" && domain.CompareVersions(version, iPadOSSplitVersion) >= 0
	}
	if !include {
		return domain.Release{}, false
	}

	if build != "" {
		seen[build] = struct{}{}
	}
	return domain.Release{
		Platform: target,
		Version:  version,
		Build:    build,
		Date:     parseFeedDate(firstString(node, dateFields)),
		Raw:      node.Raw,
	}, true
}

func firstString(node gjson.Result, fields []string) string {
	for _, f := range fields {
		if v := node.Get(f); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

var feedDateLayouts = []string{"2006-01-02", time.RFC3339}

func parseFeedDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range feedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Latest returns the head of the canonical ordering.
func Latest(rs []domain.Release) (domain.Release, bool) {
	if len(rs) == 0 {
		return domain.Release{}, false
	}
	return rs[0], true
}

// historySize is the fixed prefix served for "recent history" queries.
const historySize = 5

// History returns the recent-history prefix of the catalog.
func History(rs []domain.Release) []domain.Release {
	if len(rs) > historySize {
		return rs[:historySize]
	}
	return rs
}

// Maturity-tier classification is a best-effort keyword heuristic over
// the retained raw payload; the feed exposes no structured marker today.
// Kept behind these two functions so a structured field can replace the
// heuristic without touching callers.
var (
	prereleaseMarkers = regexp.MustCompile(`(?i)beta|rc|seed`)
	betaMarkers       = regexp.MustCompile(`(?i)beta`)
)

// IsPrerelease reports whether a release carries beta/RC/seed markers.
// Absence of a match is the only basis for calling a release stable.
func IsPrerelease(r domain.Release) bool {
	return prereleaseMarkers.MatchString(r.Raw)
}

// IsBeta is the narrower marker used for tagging history lines.
func IsBeta(r domain.Release) bool {
	return betaMarkers.MatchString(r.Raw)
}

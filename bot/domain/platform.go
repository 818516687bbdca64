package domain

import (
	"regexp"
	"strings"
)

// Platform is one of the OS families published in the update feed.
type Platform string

const (
	PlatformIOS      Platform = "iOS"
	PlatformIPadOS   Platform = "iPadOS"
	PlatformMacOS    Platform = "macOS"
	PlatformWatchOS  Platform = "watchOS"
	PlatformTVOS     Platform = "tvOS"
	PlatformVisionOS Platform = "visionOS"
)

// Platforms lists every supported family in display order.
var Platforms = []Platform{
	PlatformIOS, PlatformIPadOS, PlatformMacOS,
	PlatformWatchOS, PlatformTVOS, PlatformVisionOS,
}

// NormalizePlatform maps free-form user input ("ios", "MacOS") to the
// canonical platform name. ok=false for anything unrecognized.
func NormalizePlatform(s string) (Platform, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ios":
		return PlatformIOS, true
	case "ipados":
		return PlatformIPadOS, true
	case "macos":
		return PlatformMacOS, true
	case "watchos":
		return PlatformWatchOS, true
	case "tvos":
		return PlatformTVOS, true
	case "visionos":
		return PlatformVisionOS, true
	}
	return "", false
}

// PlatformSet is the result of classifying a device-identifier list.
// One feed node can serve several families at once.
type PlatformSet map[Platform]struct{}

func (s PlatformSet) Has(p Platform) bool {
	_, ok := s[p]
	return ok
}

func (s PlatformSet) add(p Platform) { s[p] = struct{}{} }

// Mac board identifiers show up as a letter followed by three digits
// (e.g. "J274") instead of a product-family prefix.
var macBoardID = regexp.MustCompile(`^[a-z][0-9]{3}$`)

// PlatformsFromDevices classifies raw device-identifier tokens into
// platform families. Matching is a case-insensitive substring heuristic;
// tokens that match no rule are ignored on purpose, so unknown future
// identifiers never break classification.
func PlatformsFromDevices(devices []string) PlatformSet {
	set := make(PlatformSet)
	for _, d := range devices {
		s := strings.ToLower(strings.TrimSpace(d))
		if s == "" {
			continue
		}
		switch {
		case strings.Contains(s, "iphone"):
			set.add(PlatformIOS)
		case strings.Contains(s, "ipad"):
			set.add(PlatformIPadOS)
		case strings.Contains(s, "watch"):
			set.add(PlatformWatchOS)
		case strings.Contains(s, "appletv"), strings.Contains(s, "audioaccessory"):
			set.add(PlatformTVOS)
		case strings.Contains(s, "mac"), macBoardID.MatchString(s):
			set.add(PlatformMacOS)
		case strings.Contains(s, "realitydevice"):
			set.add(PlatformVisionOS)
		}
	}
	return set
}

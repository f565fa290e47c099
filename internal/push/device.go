package push

import (
	"strings"

	"upkeep/internal/feed"
)

// DetectDevice infers a device hint from a user-agent string. Pure string
// matching, best effort only; registration never depends on it being right.
func DetectDevice(userAgent string) feed.DeviceInfo {
	ua := strings.ToLower(userAgent)

	browser := "unknown"
	switch {
	// order matters: Edge and Opera embed "chrome", every webkit browser
	// embeds "safari"
	case strings.Contains(ua, "edg/") || strings.Contains(ua, "edge"):
		browser = "edge"
	case strings.Contains(ua, "opr/") || strings.Contains(ua, "opera"):
		browser = "opera"
	case strings.Contains(ua, "firefox"):
		browser = "firefox"
	case strings.Contains(ua, "chrome") || strings.Contains(ua, "crios"):
		browser = "chrome"
	case strings.Contains(ua, "safari"):
		browser = "safari"
	}

	platform := "unknown"
	switch {
	case strings.Contains(ua, "android"):
		platform = "android"
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad"):
		platform = "ios"
	case strings.Contains(ua, "windows"):
		platform = "windows"
	case strings.Contains(ua, "mac os") || strings.Contains(ua, "macintosh"):
		platform = "macos"
	case strings.Contains(ua, "linux"):
		platform = "linux"
	}

	return feed.DeviceInfo{
		Type:    "web",
		Browser: browser,
		Name:    browser + " on " + platform,
	}
}

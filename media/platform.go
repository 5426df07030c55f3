package media

import (
	"regexp"
	"strconv"
	"time"

	"github.com/poiesic/studyforge/core"
)

var (
	bilibiliPattern  = regexp.MustCompile(`(?i)bilibili\.com/video/(BV\w+)`)
	youtubeWatchID   = regexp.MustCompile(`[?&]v=([\w-]{11})`)
	youtubeShortID   = regexp.MustCompile(`youtu\.be/([\w-]{11})`)
	isoDurationParts = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)
)

// Detect identifies the platform and video id of a URL. It returns an
// empty platform for unsupported URLs.
func Detect(rawURL string) (core.Platform, string) {
	if m := bilibiliPattern.FindStringSubmatch(rawURL); m != nil {
		return core.PlatformBilibili, m[1]
	}
	if m := youtubeWatchID.FindStringSubmatch(rawURL); m != nil {
		return core.PlatformYouTube, m[1]
	}
	if m := youtubeShortID.FindStringSubmatch(rawURL); m != nil {
		return core.PlatformYouTube, m[1]
	}
	return "", ""
}

// ParseISODuration parses the PT#H#M#S durations used by the YouTube Data API.
func ParseISODuration(s string) (time.Duration, bool) {
	m := isoDurationParts.FindStringSubmatch(s)
	if m == nil || s == "PT" {
		return 0, false
	}
	var d time.Duration
	for i, unit := range []time.Duration{time.Hour, time.Minute, time.Second} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, false
		}
		d += time.Duration(n) * unit
	}
	return d, true
}

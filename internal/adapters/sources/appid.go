package sources

import (
	"regexp"
	"strings"

	"reviewpulse/internal/domain"
)

var (
	playURLID  = regexp.MustCompile(`[?&]id=([^&#]+)`)
	playBareID = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z0-9_]+)+$`)
	appleURLID = regexp.MustCompile(`/id(\d+)`)
	appleBare  = regexp.MustCompile(`^(?:id)?(\d+)$`)
)

// ParseAppID accepts either a store URL or a bare id and returns the bare id.
func ParseAppID(p domain.Platform, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", domain.Invalid("appId", "required")
	}
	switch p {
	case domain.PlatformGoogle:
		if m := playURLID.FindStringSubmatch(s); m != nil {
			s = m[1]
		}
		if !playBareID.MatchString(s) {
			return "", domain.Invalid("appId", "not a Google Play package name")
		}
		return s, nil
	case domain.PlatformApple:
		if m := appleURLID.FindStringSubmatch(s); m != nil {
			return m[1], nil
		}
		if m := appleBare.FindStringSubmatch(s); m != nil {
			return m[1], nil
		}
		return "", domain.Invalid("appId", "not an App Store id")
	}
	return "", domain.Invalid("platform", "must be google or apple")
}

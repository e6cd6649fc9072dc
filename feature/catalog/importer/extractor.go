package importer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidLocator is returned when no media id can be extracted from a locator.
var ErrInvalidLocator = errors.New("invalid locator")

// KeyExtractor turns a locator string into a media id.
type KeyExtractor interface {
	Extract(locator string) (string, bool)
}

// KeyExtractorFunc adapts a function to KeyExtractor.
type KeyExtractorFunc func(locator string) (string, bool)

// Extract calls f.
func (f KeyExtractorFunc) Extract(locator string) (string, bool) {
	return f(locator)
}

var (
	youTubeURL = regexp.MustCompile(`(?:youtube(?:-nocookie)?\.com/(?:watch\?(?:[^#]*&)?v=|embed/|shorts/|v/|live/)|youtu\.be/)([A-Za-z0-9_-]{11})`)
	youTubeID  = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// YouTubeKey extracts the 11 character video id from YouTube watch, embed,
// shorts and short-link URLs. A bare id is accepted as is.
var YouTubeKey KeyExtractor = KeyExtractorFunc(func(locator string) (string, bool) {
	locator = strings.TrimSpace(locator)
	if youTubeID.MatchString(locator) {
		return locator, true
	}
	m := youTubeURL.FindStringSubmatch(locator)
	if m == nil {
		return "", false
	}
	return m[1], true
})

// PatternKey returns an extractor that yields the first capture group of pattern.
func PatternKey(pattern string) (KeyExtractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid locator pattern: %w", err)
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("locator pattern %q has no capture group", pattern)
	}
	return KeyExtractorFunc(func(locator string) (string, bool) {
		m := re.FindStringSubmatch(locator)
		if m == nil || m[1] == "" {
			return "", false
		}
		return m[1], true
	}), nil
}

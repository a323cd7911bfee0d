package dataset

import (
	"regexp"
	"time"
)

// KeyLayout is the time layout of a correlation key: YYYY-MM-DD_HH-MM-SS.
const KeyLayout = "2006-01-02_15-04-05"

// Clock returns the current time. Stores take one so tests can pin it.
type Clock func() time.Time

// UTCClock is the production clock.
func UTCClock() time.Time {
	return time.Now().UTC()
}

var keyPrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}`)

// NewKey formats t as a correlation key in UTC. Keys have one-second
// resolution, so uploads within the same second share a key; the store
// disambiguates them with a numeric suffix.
func NewKey(t time.Time) string {
	return t.UTC().Format(KeyLayout)
}

// ParseKey returns the correlation key name starts with.
func ParseKey(name string) (string, bool) {
	key := keyPrefix.FindString(name)
	if key == "" {
		return "", false
	}
	if _, err := time.Parse(KeyLayout, key); err != nil {
		return "", false
	}
	return key, true
}

package schedule

import (
	"fmt"
	"time"
)

// naiveLayouts are accepted for timestamps that arrive without a UTC offset.
// Such values are pinned to the shop's timezone at the boundary so that no
// later comparison has to guess between UTC and local.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTime parses an RFC 3339 timestamp. An offset-less timestamp is
// interpreted in loc, never silently as UTC.
func ParseTime(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
}

// ParseDay parses a YYYY-MM-DD date in the shop's timezone.
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable date %q", value)
	}
	return t, nil
}

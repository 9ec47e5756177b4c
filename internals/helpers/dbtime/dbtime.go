// file: internals/helpers/dbtime/dbtime.go
package dbtime

import "time"

// WordPress stores local and GMT stamps side by side in DATETIME columns
// (post_date / post_date_gmt). The driver converts time.Time values to its
// configured location before writing, so a local stamp must be passed as a
// wall clock labelled with that same location.

// WallClock returns t as seen in loc, relabelled as UTC so the driver
// writes the wall-clock digits unchanged. A nil loc means UTC.
func WallClock(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), l.Hour(), l.Minute(), l.Second(), 0, time.UTC)
}

// Stamps returns the (local, gmt) pair for a post write at t.
func Stamps(t time.Time, loc *time.Location) (local, gmt time.Time) {
	return WallClock(t, loc), t.UTC().Truncate(time.Second)
}

// FromWallClock reads a local DATETIME scanned as UTC back into loc.
func FromWallClock(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return t
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// Package localtime converts TriMet timestamps into agency-local time and
// renders them for riders.
package localtime

import (
	"fmt"
	"strings"
	"time"

	_ "time/tzdata"
)

// DefaultZone is the civil time zone TriMet publishes schedules in.
const DefaultZone = "America/Los_Angeles"

type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock returns a clock for loc. A nil now uses time.Now.
func NewClock(loc *time.Location, now func() time.Time) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Clock{loc: loc, now: now}
}

// LoadClock resolves the zone by name and returns a wall clock for it.
func LoadClock(zone string) (*Clock, error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", zone, err)
	}
	return NewClock(loc, nil), nil
}

func (c *Clock) Location() *time.Location { return c.loc }

// Now returns the current time in the agency zone.
func (c *Clock) Now() time.Time { return c.now().In(c.loc) }

// FromMillis converts an epoch-millisecond timestamp to local time.
// Zero means "no value" and yields nil.
func (c *Clock) FromMillis(ms int64) *time.Time {
	if ms == 0 {
		return nil
	}
	t := time.UnixMilli(ms).In(c.loc)
	return &t
}

// NiceTime formats t as a 12-hour clock time, e.g. "3:07 p.m.".
func (c *Clock) NiceTime(t time.Time, withSeconds bool) string {
	t = t.In(c.loc)
	suffix := "a.m."
	if t.Hour() >= 12 {
		suffix = "p.m."
	}
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	if withSeconds {
		return fmt.Sprintf("%d:%02d:%02d %s", hour, t.Minute(), t.Second(), suffix)
	}
	return fmt.Sprintf("%d:%02d %s", hour, t.Minute(), suffix)
}

// NiceDelta describes how long from now until t, e.g. "1 hour, 5 minutes".
//
// Minutes round up when the leftover passes 45 seconds. The rounding
// applies only when withSeconds is false; with seconds the leftover is
// shown as is.
func (c *Clock) NiceDelta(t time.Time, withSeconds bool) string {
	total := SecondsUntil(c.Now(), t)
	if total <= 30 {
		return "Due"
	}
	if total < 60 {
		return "Less than a minute"
	}

	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60
	seconds := total % 60

	if !withSeconds && seconds > 45 {
		minutes++
		if minutes == 60 {
			minutes = 0
			hours++
		}
		if hours == 24 {
			hours = 0
			days++
		}
	}

	var parts []string
	parts = appendUnit(parts, days, "day")
	parts = appendUnit(parts, hours, "hour")
	parts = appendUnit(parts, minutes, "minute")
	if withSeconds {
		parts = appendUnit(parts, seconds, "second")
	}
	return strings.Join(parts, ", ")
}

// SecondsUntil returns whole seconds from now until t, truncated toward zero.
func SecondsUntil(now, t time.Time) int64 {
	return int64(t.Sub(now) / time.Second)
}

func appendUnit(parts []string, n int64, unit string) []string {
	switch {
	case n == 0:
		return parts
	case n == 1:
		return append(parts, "1 "+unit)
	default:
		return append(parts, fmt.Sprintf("%d %ss", n, unit))
	}
}

// Package units holds the unit and timezone conventions used when rendering
// decoded captures.
package units

import (
	"fmt"
	"time"
)

// LoadTimezone resolves a timezone name. An empty name means UTC, which is
// what the wi-scan text format calls GMT.
func LoadTimezone(tz string) (*time.Location, error) {
	if tz == "" || tz == "UTC" || tz == "GMT" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", tz, err)
	}
	return loc, nil
}

// ConvertTime converts a UTC time to the specified timezone
// Captures store all times in UTC, this function converts them for display
func ConvertTime(utcTime time.Time, targetTimezone string) (time.Time, error) {
	loc, err := LoadTimezone(targetTimezone)
	if err != nil {
		return utcTime, err
	}
	return utcTime.In(loc), nil
}

// ZoneLabel returns the label printed after a time of day: GMT for UTC,
// otherwise the zone abbreviation in effect at t.
func ZoneLabel(t time.Time) string {
	if t.Location() == time.UTC {
		return "GMT"
	}
	name, _ := t.Zone()
	return name
}

package team

import (
	"strings"
	"time"
)

// Season names the part of the year a competition belongs to.
func Season(competition string) string {
	switch {
	case strings.Contains(competition, "Zomer"), strings.Contains(competition, "Voorjaar"):
		return "Zomer"
	case strings.Contains(competition, "Winter"):
		return "Winter"
	case strings.Contains(competition, "Najaars"):
		return "Najaars"
	default:
		return "Zomer"
	}
}

// ParseDate parses a fixture date such as "08-10-2016".
// Returns the zero time if the text is not a date.
func ParseDate(dateText string) time.Time {
	dateText = strings.TrimSpace(dateText)
	if dateText == "" {
		return time.Time{}
	}

	for _, layout := range []string{"02-01-2006", "2-1-2006", "02-01-06"} {
		if t, err := time.Parse(layout, dateText); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ParseKickoff combines a fixture date with a start time such as "10:00".
// A missing or malformed time yields midnight of the fixture date.
func ParseKickoff(dateText, startTime string, loc *time.Location) time.Time {
	d := ParseDate(dateText)
	if d.IsZero() {
		return d
	}
	if loc == nil {
		loc = time.UTC
	}
	clock, err := time.Parse("15:04", strings.TrimSpace(startTime))
	if err != nil {
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
}

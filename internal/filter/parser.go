package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/knltb-stats/internal/player"
)

// dateLayout is the date format of the KNLTB pages.
const dateLayout = "02-01-2006"

var (
	monthRe = regexp.MustCompile(`^(\d{1,2})-(\d{4})$`)
	yearRe  = regexp.MustCompile(`^(\d{4})$`)
)

// ParseDateRange parses a period into start and end times.
//
// Supported formats:
//   - "01-08-2016:31-08-2016" - Explicit range; either side may be left
//     empty for an open range
//   - "08-2016" - Entire month
//   - "2016" - Entire year
//
// Returns (dateFrom, dateTo, error). Times are in UTC.
// Start time is at 00:00:00, end time is at 23:59:59.
func ParseDateRange(input string) (*time.Time, *time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil, fmt.Errorf("date range cannot be empty")
	}

	// Format 1: "01-08-2016:31-08-2016"
	if start, end, ok := strings.Cut(input, ":"); ok {
		var from, to *time.Time
		if s := strings.TrimSpace(start); s != "" {
			d, err := time.Parse(dateLayout, s)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid start date: %s", s)
			}
			from = &d
		}
		if s := strings.TrimSpace(end); s != "" {
			d, err := time.Parse(dateLayout, s)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid end date: %s", s)
			}
			d = endOfDay(d)
			to = &d
		}
		if from == nil && to == nil {
			return nil, nil, fmt.Errorf("date range needs a start or an end date")
		}
		if from != nil && to != nil && from.After(*to) {
			return nil, nil, fmt.Errorf("start date must be before end date")
		}
		return from, to, nil
	}

	// Format 2: "08-2016"
	if matches := monthRe.FindStringSubmatch(input); matches != nil {
		month, _ := strconv.Atoi(matches[1])
		if month < 1 || month > 12 {
			return nil, nil, fmt.Errorf("invalid month: %s", matches[1])
		}
		year, _ := strconv.Atoi(matches[2])

		from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		// Last day of month
		to := endOfDay(time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC))
		return &from, &to, nil
	}

	// Format 3: "2016"
	if matches := yearRe.FindStringSubmatch(input); matches != nil {
		year, _ := strconv.Atoi(matches[1])
		from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		to := endOfDay(time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC))
		return &from, &to, nil
	}

	return nil, nil, fmt.Errorf("invalid date range format. Use '01-08-2016:31-08-2016', '08-2016' or '2016'")
}

func endOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, time.UTC)
}

// ParseMatchTypes accepts "singles"/"enkel" and "doubles"/"dubbel" in any
// case.
func ParseMatchTypes(names []string) ([]player.MatchType, error) {
	types := make([]player.MatchType, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "singles", "enkel":
			types = append(types, player.Singles)
		case "doubles", "dubbel":
			types = append(types, player.Doubles)
		default:
			return nil, fmt.Errorf("unknown match type: %q (use singles or doubles)", name)
		}
	}
	return types, nil
}

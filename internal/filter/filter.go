// Package filter narrows a player's match history down to the matches of
// interest.
//
// Matches can be selected on:
//   - Date range (from/to dates, inclusive)
//   - Event names (substring matching, case-insensitive)
//   - Match type (singles or doubles)
//   - Weekends only (Saturday/Sunday)
//
// Example usage:
//
//	// Doubles played at the Breda tournament in August 2016
//	f := filter.NewFilter()
//	f.DateFrom, f.DateTo, _ = filter.ParseDateRange("08-2016")
//	f.Events = []string{"Breda"}
//	f.Types = []player.MatchType{player.Doubles}
//
//	filtered := f.Apply(records)
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/knltb-stats/internal/player"
	"github.com/pfrederiksen/knltb-stats/internal/team"
)

// Filter represents match selection criteria
type Filter struct {
	// Date range filtering
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	// Event name filtering (case-insensitive substring match)
	Events []string `json:"events,omitempty"`

	Types []player.MatchType `json:"types,omitempty"`

	// Weekend-only filtering (Saturday/Sunday)
	WeekendsOnly bool `json:"weekends_only,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all matches until criteria are added.
func NewFilter() *Filter {
	return &Filter{
		Events: []string{},
		Types:  []player.MatchType{},
	}
}

// IsEmpty checks if the filter has any active criteria.
func (f *Filter) IsEmpty() bool {
	return f == nil || (f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Events) == 0 &&
		len(f.Types) == 0 &&
		!f.WeekendsOnly)
}

// Matches checks if a match passes all active criteria. Date criteria do
// not reject a match whose date cannot be parsed.
func (f *Filter) Matches(m player.MatchRecord) bool {
	if f.IsEmpty() {
		return true
	}

	date := team.ParseDate(m.Date)
	if !date.IsZero() {
		if f.DateFrom != nil && date.Before(*f.DateFrom) {
			return false
		}
		if f.DateTo != nil && date.After(*f.DateTo) {
			return false
		}
		if f.WeekendsOnly {
			if wd := date.Weekday(); wd != time.Saturday && wd != time.Sunday {
				return false
			}
		}
	}

	if len(f.Events) > 0 {
		matched := false
		name := strings.ToLower(m.EventName)
		for _, ev := range f.Events {
			if strings.Contains(name, strings.ToLower(ev)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(f.Types) > 0 {
		matched := false
		for _, t := range f.Types {
			if m.MatchType == t {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

// Apply returns the matching records in their original order. An empty
// filter returns records unchanged.
func (f *Filter) Apply(records []player.MatchRecord) []player.MatchRecord {
	if f.IsEmpty() {
		return records
	}

	filtered := make([]player.MatchRecord, 0, len(records))
	for _, rec := range records {
		if f.Matches(rec) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// String returns a human-readable description of the active criteria.
// Format: "From: 01-08-2016 | To: 31-08-2016 | Events: Breda | Types: doubles"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string
	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format(dateLayout)))
	}
	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format(dateLayout)))
	}
	if len(f.Events) > 0 {
		parts = append(parts, fmt.Sprintf("Events: %s", strings.Join(f.Events, ", ")))
	}
	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		parts = append(parts, fmt.Sprintf("Types: %s", strings.Join(types, ", ")))
	}
	if f.WeekendsOnly {
		parts = append(parts, "Weekends only")
	}
	return strings.Join(parts, " | ")
}

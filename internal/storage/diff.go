package storage

import (
	"sort"

	"github.com/pfrederiksen/knltb-stats/internal/player"
	"github.com/pfrederiksen/knltb-stats/internal/team"
)

// DiffResult contains the matches of a run that the previous snapshot did
// not have.
type DiffResult struct {
	NewMatches []player.MatchRecord
	Events     map[string][]player.MatchRecord // new matches grouped by event name
}

// DiffMatches compares a player's current match history against the
// previous snapshot.
func DiffMatches(previous *Snapshot, current []player.MatchRecord) *DiffResult {
	result := &DiffResult{
		NewMatches: make([]player.MatchRecord, 0),
		Events:     make(map[string][]player.MatchRecord),
	}

	if previous == nil {
		previous = NewSnapshot(0)
	}

	seen := make(map[string]bool, len(current))
	for _, rec := range current {
		id := rec.ID()
		if _, exists := previous.Matches[id]; exists || seen[id] {
			continue
		}
		seen[id] = true
		result.NewMatches = append(result.NewMatches, rec)
		result.Events[rec.EventName] = append(result.Events[rec.EventName], rec)
	}

	// Sort new matches for consistent output
	sortMatches(result.NewMatches)
	for name := range result.Events {
		sortMatches(result.Events[name])
	}
	return result
}

// sortMatches orders matches by date, then event name. Dates that do not
// parse sort last in their original order.
func sortMatches(recs []player.MatchRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		di := team.ParseDate(recs[i].Date)
		dj := team.ParseDate(recs[j].Date)
		switch {
		case di.IsZero() || dj.IsZero():
			return !di.IsZero() && dj.IsZero()
		case !di.Equal(dj):
			return di.Before(dj)
		}
		return recs[i].EventName < recs[j].EventName
	})
}

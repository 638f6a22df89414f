package player

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/pfrederiksen/knltb-stats/internal/scan"
)

const (
	leagueHeading     = "Partijresultaten competitie"
	tournamentHeading = "Partijresultaten toernooien"
	matchTable        = `<table class="knltb-geselecteerde-toernooien" `
	headerCell        = "Datum"
	rowOpen           = "<tr"

	dateCell     = `<td class="crm-wp-cell crm-wp-cell-padding-top">`
	eventCell    = `<td class="crm-wp-cell crm-wp-cell-padding-top" colspan="4">`
	detailCell   = `<td class="crm-wp-cell crm-wp-cell-padding-top crm-wp-cell-padding-bottom">`
	categoryCell = `crm-wp-cell-padding-bottom" colspan="2">`
	deltaCell    = `crm-wp-cell-padding-top crm-wp-cell-padding-bottom" colspan="2">`

	participantOpen  = `" target="_blank">`
	participantClose = " ("
	startRatingOpen  = "nbsp;"
	startRatingClose = ")</a>"
	anchorClose      = "</a>"

	outcomeCell = `style="vertical-align:middle;white-space:nowrap">`
	scoreCell   = `style="vertical-align:middle">`
)

// MatchRecord is one played match as seen by the profile's player. Pointer
// fields are absent when the page does not show them.
type MatchRecord struct {
	Date          string    `json:"date"`
	EventName     string    `json:"event_name"`
	IsTournament  bool      `json:"is_tournament"`
	MatchType     MatchType `json:"match_type"`
	Category      *string   `json:"category,omitempty"`
	HomeClub      *string   `json:"home_club,omitempty"`
	AwayClub      *string   `json:"away_club,omitempty"`
	RatingDelta   *string   `json:"rating_delta,omitempty"`
	RatingAtStart *string   `json:"rating_at_start,omitempty"`
	Partner       *string   `json:"partner,omitempty"`
	Opponent1     string    `json:"opponent1"`
	Opponent2     *string   `json:"opponent2,omitempty"`
	IsHomePlayer  bool      `json:"is_home_player"`
	Outcome       string    `json:"outcome"`
	Score         string    `json:"score"`
}

// ID identifies a match across runs. Rating fields are left out because the
// site recomputes them after the fact.
func (m MatchRecord) ID() string {
	parts := []string{
		m.Date,
		m.EventName,
		string(m.MatchType),
		deref(m.Partner),
		m.Opponent1,
		deref(m.Opponent2),
		m.Score,
	}
	sum := sha1.Sum([]byte(strings.ToLower(strings.Join(parts, "|"))))
	return hex.EncodeToString(sum[:])
}

// Matches is the result of reading both match tables of a profile.
type Matches struct {
	Records []MatchRecord
	Skipped []error
}

// ExtractMatches reads the league table and then the tournament table. A row
// that cannot be read is recorded in Skipped. A table whose scan stops
// advancing is abandoned; the records of the other table are still returned
// and the returned error says which table was cut short.
func ExtractMatches(buf scan.Buffer, subject string) (Matches, error) {
	var m Matches
	variants := NameVariants(subject)

	league := scan.Find(buf, leagueHeading, 0)
	tournament := scan.Find(buf, tournamentHeading, 0)

	var errs []error
	if league != scan.NotFound {
		if err := m.readTable(buf, "league", league, tournament, false, variants); err != nil {
			errs = append(errs, fmt.Errorf("league matches: %w", err))
		}
	}
	if tournament != scan.NotFound {
		if err := m.readTable(buf, "tournament", tournament, scan.NotFound, true, variants); err != nil {
			errs = append(errs, fmt.Errorf("tournament matches: %w", err))
		}
	}
	return m, errors.Join(errs...)
}

func (m *Matches) readTable(buf scan.Buffer, pass string, heading, bound scan.Cursor, tournament bool, variants []string) error {
	header := scan.Find(buf, headerCell, scan.Find(buf, matchTable, heading))
	if bound != scan.NotFound && header > bound {
		return nil
	}
	row := scan.Find(buf, rowOpen, header)

	progress := scan.NewProgress()
	for row != scan.NotFound {
		if bound != scan.NotFound && row > bound {
			return nil
		}
		// A trailing row without a date cell of its own ends the table.
		if date := scan.Find(buf, dateCell, row); bound != scan.NotFound && (date == scan.NotFound || date > bound) {
			return nil
		}
		if err := progress.Advance(row); err != nil {
			return err
		}

		rec, next, err := readMatch(buf, row, tournament, variants)
		switch {
		case bound != scan.NotFound && next > bound:
			// The row's cells were found past the end of this table.
			return nil
		case err != nil:
			m.Skipped = append(m.Skipped, &scan.RowError{Pass: pass, Row: row, Err: err})
		default:
			m.Records = append(m.Records, rec)
		}

		row = scan.Find(buf, rowOpen, next)
	}
	return nil
}

// readMatch reads the three rows of one match starting at row. The returned
// cursor is where the search for the next match begins, also on error.
func readMatch(buf scan.Buffer, row scan.Cursor, tournament bool, variants []string) (MatchRecord, scan.Cursor, error) {
	r := scan.NewRow(buf, row)
	rec := MatchRecord{IsTournament: tournament}

	rec.Date = r.Text(dateCell)
	rec.EventName = scan.CleanText(r.Cell(eventCell))
	rec.MatchType = ParseMatchType(r.Text(detailCell))
	if tournament {
		if v, ok := r.OptionalBefore(categoryCell, scan.CellClose, rowOpen); ok {
			rec.Category = &v
		}
	} else {
		home := r.Text(detailCell)
		away := r.Text(detailCell)
		rec.HomeClub = &home
		rec.AwayClub = &away
	}
	// Both optional cells belong to the detail row; the next row starts the
	// participants.
	if v, ok := r.OptionalBefore(deltaCell, scan.CellClose, rowOpen); ok {
		rec.RatingDelta = &v
	}

	r.Seek(rowOpen)
	participants := make([]string, 0, rec.MatchType.Participants())
	for range rec.MatchType.Participants() {
		name := strings.TrimSpace(r.Field(participantOpen, participantClose))
		if rec.RatingAtStart == nil && slices.Contains(variants, name) {
			if v, ok := r.OptionalBefore(startRatingOpen, startRatingClose, anchorClose); ok {
				rec.RatingAtStart = &v
			}
		}
		participants = append(participants, name)
	}

	rec.Outcome = r.Text(outcomeCell)
	rec.Score = scan.CleanText(r.Cell(scoreCell))

	if err := r.Err(); err != nil {
		return MatchRecord{}, resumeAt(r, row), err
	}

	index, err := FindSubject(participants, variants[0])
	if err != nil {
		return MatchRecord{}, r.Cursor(), err
	}
	roles, err := Resolve(participants, index, rec.MatchType)
	if err != nil {
		return MatchRecord{}, r.Cursor(), err
	}
	rec.IsHomePlayer = roles.IsHomePlayer
	rec.Partner = roles.Partner
	rec.Opponent1 = roles.Opponent1
	rec.Opponent2 = roles.Opponent2
	return rec, r.Cursor(), nil
}

// resumeAt never returns a cursor at or before row, so a failing row cannot
// be found again.
func resumeAt(r *scan.Row, row scan.Cursor) scan.Cursor {
	if c := r.Cursor(); c > row {
		return c
	}
	return scan.After(row, rowOpen)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

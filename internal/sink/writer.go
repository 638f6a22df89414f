package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pfrederiksen/knltb-stats/internal/player"
	"github.com/pfrederiksen/knltb-stats/internal/team"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// NewWriter returns the writer sink for format.
func NewWriter(w io.Writer, format OutputFormat, verbose bool) (Sink, error) {
	switch format {
	case FormatJSON:
		return NewJSON(w), nil
	case FormatText:
		return NewText(w, verbose), nil
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// Record is one line of JSON output.
type Record struct {
	Kind      string                `json:"kind"`
	WrittenAt time.Time             `json:"written_at"`
	Player    int                   `json:"player,omitempty"`
	Name      string                `json:"name,omitempty"`
	Rating    *player.Rating        `json:"rating,omitempty"`
	Matches   []player.MatchRecord  `json:"matches,omitempty"`
	Summary   *player.Summary       `json:"summary,omitempty"`
	Team      *team.CompetitionTeam `json:"team,omitempty"`
}

// JSON writes one JSON object per call.
type JSON struct {
	enc *json.Encoder
	now func() time.Time
}

// NewJSON creates a JSON lines sink.
func NewJSON(w io.Writer) *JSON {
	return &JSON{enc: json.NewEncoder(w), now: time.Now}
}

func (j *JSON) write(rec Record) error {
	rec.WrittenAt = j.now().UTC()
	if err := j.enc.Encode(rec); err != nil {
		return fmt.Errorf("writing %s record: %w", rec.Kind, err)
	}
	return nil
}

func (j *JSON) Competition(_ context.Context, t team.CompetitionTeam) error {
	return j.write(Record{Kind: "competition", Team: &t})
}

func (j *JSON) PlayerRating(_ context.Context, number int, name string, r player.Rating) error {
	return j.write(Record{Kind: "rating", Player: number, Name: name, Rating: &r})
}

func (j *JSON) PlayerMatches(_ context.Context, number int, records []player.MatchRecord) error {
	summary := player.Summarize(records)
	if records == nil {
		records = []player.MatchRecord{}
	}
	return j.write(Record{Kind: "matches", Player: number, Matches: records, Summary: &summary})
}

func (j *JSON) InvalidPlayer(_ context.Context, number int) error {
	return j.write(Record{Kind: "invalid_player", Player: number})
}

func (j *JSON) Close() error { return nil }

// Text writes human-readable output.
type Text struct {
	w       io.Writer
	verbose bool
}

// NewText creates a text sink. Verbose output adds standings and the match
// identifiers.
func NewText(w io.Writer, verbose bool) *Text {
	return &Text{w: w, verbose: verbose}
}

func (t *Text) Competition(_ context.Context, ct team.CompetitionTeam) error {
	w := t.w
	fmt.Fprintf(w, "\n%s (%s)\n", ct.Info.FullLabel, ct.Competition)
	if ct.Info.Tier != "" {
		fmt.Fprintf(w, "  Tier: %s\n", ct.Info.Tier)
	}
	fmt.Fprintf(w, "  Type: %s\n", ct.Info.MatchType)
	if ct.URL != "" {
		fmt.Fprintf(w, "  URL: %s\n", ct.URL)
	}
	if len(ct.OwnTeams) > 0 {
		fmt.Fprintf(w, "  Own teams: %s\n", strings.Join(ct.OwnTeams, ", "))
	}

	if t.verbose {
		fmt.Fprintln(w, "  Standings:")
		for _, r := range ct.Standings {
			marker := " "
			if r.IsOwnClub {
				marker = "*"
			}
			fmt.Fprintf(w, "   %s%2d. %-24s %2d %2d-%d-%d  %d-%d\n",
				marker, r.Position, r.Name, r.Played, r.Won, r.Draw, r.Lost, r.PointsWon, r.PointsLost)
		}
	}

	if len(ct.Fixtures) == 0 {
		fmt.Fprintln(w, "  No fixtures found.")
		return nil
	}
	fmt.Fprintln(w, "  Fixtures:")
	for _, f := range ct.Fixtures {
		where := "away at"
		if f.PlaysAtHome {
			where = "home vs"
		}
		fmt.Fprintf(w, "    Dag %d %s %s: %s %s %s", f.RoundNumber, f.Date, f.StartTime, f.OwnTeam, where, f.Opponent)
		if f.Result != "" {
			fmt.Fprintf(w, " (%s)", f.Result)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func (t *Text) PlayerRating(_ context.Context, number int, name string, r player.Rating) error {
	fmt.Fprintf(t.w, "\n%s [%d]\n", name, number)
	fmt.Fprintf(t.w, "  Singles: %.4f (year end %.0f, last year %.4f)\n", r.CurrentSingles, r.YearEndSingles, r.PriorYearSingles)
	fmt.Fprintf(t.w, "  Doubles: %.4f (year end %.0f, last year %.4f)\n", r.CurrentDoubles, r.YearEndDoubles, r.PriorYearDoubles)
	return nil
}

func (t *Text) PlayerMatches(_ context.Context, number int, records []player.MatchRecord) error {
	w := t.w
	if len(records) == 0 {
		fmt.Fprintf(w, "  No matches found for %d.\n", number)
		return nil
	}

	for _, m := range records {
		fmt.Fprintf(w, "  %s %s %s vs %s", m.Date, m.MatchType, m.Outcome, opponents(m))
		if m.Partner != nil {
			fmt.Fprintf(w, " with %s", *m.Partner)
		}
		fmt.Fprintf(w, " %s", m.Score)
		if m.RatingDelta != nil {
			fmt.Fprintf(w, " [%s]", *m.RatingDelta)
		}
		fmt.Fprintln(w)
		if t.verbose {
			fmt.Fprintf(w, "       Event: %s\n", m.EventName)
			fmt.Fprintf(w, "       ID: %s\n", m.ID())
		}
	}

	s := player.Summarize(records)
	fmt.Fprintf(w, "\n  Total: %d matches (%d singles, %d doubles; %d league, %d tournament)\n",
		s.Matches, s.Singles, s.Doubles, s.League, s.Tournament)
	if s.Rated > 0 {
		fmt.Fprintf(w, "  Rating change: mean %+.4f, stdev %.4f over %d matches\n", s.RatingDeltaMean, s.RatingDeltaStdev, s.Rated)
	}
	return nil
}

func (t *Text) InvalidPlayer(_ context.Context, number int) error {
	fmt.Fprintf(t.w, "\n[%d] is not a valid player number.\n", number)
	return nil
}

func (t *Text) Close() error { return nil }

func opponents(m player.MatchRecord) string {
	if m.Opponent2 == nil {
		return m.Opponent1
	}
	return m.Opponent1 + " & " + *m.Opponent2
}

package team

import (
	"fmt"

	"github.com/pfrederiksen/knltb-stats/internal/scan"
)

// CompetitionTeam is everything read from one team page, together with the
// competition it was found through.
type CompetitionTeam struct {
	Competition string     `json:"competition"`
	Season      string     `json:"season"`
	Association string     `json:"association"`
	URL         string     `json:"url"`
	Info        Info       `json:"info"`
	Standings   []Result   `json:"standings"`
	OwnTeams    []string   `json:"own_teams"`
	Fixtures    []Planning `json:"fixtures"`
	// Skipped collects abandoned rows and aborted passes of both tables.
	Skipped []error `json:"-"`
}

// ExtractTeam reads the division label, the standings and the association's
// fixtures from a team page. Only a missing division label fails the page;
// problems in either table end up in Skipped.
func ExtractTeam(buf scan.Buffer, competition, association string) (CompetitionTeam, error) {
	ct := CompetitionTeam{
		Competition: competition,
		Season:      Season(competition),
		Association: association,
	}

	info, err := ExtractInfo(buf)
	if err != nil {
		return ct, err
	}
	ct.Info = info

	st, err := ExtractStandings(buf, association)
	ct.Standings = st.Results
	ct.OwnTeams = st.OwnTeams
	ct.Skipped = append(ct.Skipped, st.Skipped...)
	if err != nil {
		ct.Skipped = append(ct.Skipped, fmt.Errorf("standings: %w", err))
	}

	sch, err := ExtractPlanning(buf, association)
	ct.Fixtures = sch.Fixtures
	ct.Skipped = append(ct.Skipped, sch.Skipped...)
	if err != nil {
		ct.Skipped = append(ct.Skipped, fmt.Errorf("planning: %w", err))
	}
	return ct, nil
}

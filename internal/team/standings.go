package team

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pfrederiksen/knltb-stats/internal/scan"
)

const (
	standingsRow = `<tr bgcolor=`
	nameCell     = `<td class="crm-wp-cell">`
	countCell    = `<td class="crm-wp-cell" width="30">`
)

// Result is one line of a division's standings table.
type Result struct {
	Name       string `json:"name"`
	Position   int    `json:"position"`
	Played     int    `json:"played"`
	Won        int    `json:"won"`
	Draw       int    `json:"draw"`
	Lost       int    `json:"lost"`
	PointsWon  int    `json:"points_won"`
	PointsLost int    `json:"points_lost"`
	IsOwnClub  bool   `json:"is_own_club"`
}

// Standings holds the rows of one standings table in document order.
type Standings struct {
	Results []Result `json:"results"`
	// OwnTeams lists the names of this pass's rows that belong to the
	// association.
	OwnTeams []string `json:"own_teams"`
	Skipped  []error  `json:"-"`
}

// ExtractStandings reads every standings row. A row that cannot be read is
// recorded in Skipped and the scan moves on; a scan that stops advancing
// returns what it has together with scan.ErrNonTerminatingLoop.
func ExtractStandings(buf scan.Buffer, association string) (Standings, error) {
	var st Standings
	progress := scan.NewProgress()

	row := scan.Find(buf, standingsRow, 0)
	for row != scan.NotFound {
		if err := progress.Advance(row); err != nil {
			return st, err
		}

		res, next, err := readResult(buf, row, association)
		if err != nil {
			st.Skipped = append(st.Skipped, &scan.RowError{Pass: "standings", Row: row, Err: err})
			next = scan.After(row, standingsRow)
		} else {
			st.Results = append(st.Results, res)
			if res.IsOwnClub {
				st.OwnTeams = append(st.OwnTeams, res.Name)
			}
		}

		row = scan.Find(buf, standingsRow, next)
	}
	return st, nil
}

func readResult(buf scan.Buffer, row scan.Cursor, association string) (Result, scan.Cursor, error) {
	r := scan.NewRow(buf, scan.After(row, standingsRow))

	label := r.Text(nameCell)
	res := Result{
		Played:     r.Int(countCell),
		Won:        r.Int(countCell),
		Draw:       r.Int(countCell),
		Lost:       r.Int(countCell),
		PointsWon:  r.Int(countCell),
		PointsLost: r.Int(countCell),
	}
	if err := r.Err(); err != nil {
		return Result{}, scan.NotFound, err
	}

	pos, name, err := splitPosition(label)
	if err != nil {
		return Result{}, scan.NotFound, err
	}
	res.Position = pos
	res.Name = name
	res.IsOwnClub = IsOwnClub(name, association)
	return res, r.Cursor(), nil
}

// splitPosition splits "3 A.T.C. 1" into 3 and "A.T.C. 1".
func splitPosition(label string) (int, string, error) {
	head, name, ok := strings.Cut(label, " ")
	if !ok {
		return 0, "", fmt.Errorf("%w: standings label %q", scan.ErrStructureAbsent, label)
	}
	pos, err := strconv.Atoi(strings.TrimSuffix(head, "."))
	if err != nil {
		return 0, "", fmt.Errorf("%w: position %q", scan.ErrNotNumeric, head)
	}
	return pos, strings.TrimSpace(name), nil
}

// IsOwnClub reports whether a team name belongs to the association. Team
// names carry prefixes and suffixes ("A.T.C. 3", "LTC A.T.C."), so this is a
// containment test rather than an exact match.
func IsOwnClub(teamName, association string) bool {
	return association != "" && strings.Contains(teamName, association)
}

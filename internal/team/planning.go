package team

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pfrederiksen/knltb-stats/internal/scan"
)

const (
	planningRow = `<tr title=`
	rowClose    = "</tr>"
	dayHeading  = ">Dag "

	startTimeOpen  = "Aanvang:&lt;/b> "
	attendanceOpen = "Aanwezig:&lt;/b> "
	surfaceOpen    = "Baansoort:&lt;/b> "
	commentOpen    = "Opmerking:&lt;/b>"
	titleLineClose = "&lt;br/>"
	titleClose     = `"`
)

// Planning is one fixture of an own team.
type Planning struct {
	OwnTeam     string `json:"own_team"`
	Opponent    string `json:"opponent"`
	PlaysAtHome bool   `json:"plays_at_home"`
	// RoundNumber is 0 when no day heading precedes the fixture.
	RoundNumber  int    `json:"round_number"`
	Date         string `json:"date,omitempty"`
	Result       string `json:"result,omitempty"`
	Status       string `json:"status,omitempty"`
	CatchUp      string `json:"catch_up,omitempty"`
	StartTime    string `json:"start_time,omitempty"`
	Attendance   string `json:"attendance,omitempty"`
	CourtSurface string `json:"court_surface,omitempty"`
	Comment      string `json:"comment,omitempty"`
}

// Schedule holds an own team's fixtures in document order.
type Schedule struct {
	Fixtures []Planning `json:"fixtures"`
	Skipped  []error    `json:"-"`
}

// ExtractPlanning reads the fixtures the association takes part in. Rows are
// found through the association's name in a team cell and then walked back to
// the opening row tag. Fixtures are grouped under "Dag N (date)" headings; a
// heading applies to every row after it until the next heading.
func ExtractPlanning(buf scan.Buffer, association string) (Schedule, error) {
	var sch Schedule
	if association == "" {
		return sch, fmt.Errorf("%w: empty association", scan.ErrStructureAbsent)
	}

	marker := ">" + association
	progress := scan.NewProgress()
	day := scan.NotFound

	hit := scan.Find(buf, marker, 0)
	for hit != scan.NotFound {
		row := scan.FindBefore(buf, planningRow, hit)
		if row == scan.NotFound {
			sch.Skipped = append(sch.Skipped, &scan.RowError{
				Pass: "planning",
				Row:  hit,
				Err:  fmt.Errorf("%w: no fixture row before %q", scan.ErrStructureAbsent, marker),
			})
			hit = scan.Find(buf, marker, scan.After(hit, marker))
			continue
		}
		if err := progress.Advance(row); err != nil {
			return sch, err
		}

		day = advanceDay(buf, day, row)
		p, next, err := readPlanning(buf, row, association)
		if err != nil {
			sch.Skipped = append(sch.Skipped, &scan.RowError{Pass: "planning", Row: row, Err: err})
			next = scan.Find(buf, rowClose, hit)
			if next == scan.NotFound {
				next = scan.After(hit, marker)
			}
		} else {
			p.RoundNumber, p.Date = readDay(buf, day)
			sch.Fixtures = append(sch.Fixtures, p)
		}

		hit = scan.Find(buf, marker, next)
	}
	return sch, nil
}

func readPlanning(buf scan.Buffer, row scan.Cursor, association string) (Planning, scan.Cursor, error) {
	r := scan.NewRow(buf, row)

	p := Planning{
		StartTime:    strings.TrimSpace(r.Field(startTimeOpen, titleLineClose)),
		Attendance:   strings.TrimSpace(r.Field(attendanceOpen, titleLineClose)),
		CourtSurface: strings.TrimSpace(r.Field(surfaceOpen, titleLineClose)),
		Comment:      scan.CleanText(r.Field(commentOpen, titleClose)),
	}
	home := r.Text(nameCell)
	away := r.Text(nameCell)
	p.Result = r.Text(nameCell)
	p.Status = r.Text(nameCell)
	p.CatchUp = r.Text(nameCell)
	if err := r.Err(); err != nil {
		return Planning{}, scan.NotFound, err
	}

	if IsOwnClub(home, association) {
		p.OwnTeam, p.Opponent, p.PlaysAtHome = home, away, true
	} else {
		p.OwnTeam, p.Opponent, p.PlaysAtHome = away, home, false
	}
	return p, r.Cursor(), nil
}

// advanceDay moves the day heading cursor to the last heading that starts
// strictly before limit. Without a newer heading the previous one carries
// over.
func advanceDay(buf scan.Buffer, day, limit scan.Cursor) scan.Cursor {
	from := scan.Cursor(0)
	if day != scan.NotFound {
		from = scan.After(day, dayHeading)
	}
	for {
		next := scan.FindWithin(buf, dayHeading, from, limit)
		if next == scan.NotFound {
			return day
		}
		day = next
		from = scan.After(next, dayHeading)
	}
}

// readDay reads "Dag 3 (08-10-2016)" at the heading cursor.
func readDay(buf scan.Buffer, day scan.Cursor) (int, string) {
	if day == scan.NotFound {
		return 0, ""
	}
	heading, _, err := scan.ReadField(buf, dayHeading, day, ")")
	if err != nil {
		return 0, ""
	}
	raw, date, _ := strings.Cut(heading, " (")
	round, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, ""
	}
	return round, strings.TrimSpace(date)
}

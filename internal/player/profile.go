package player

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/pfrederiksen/knltb-stats/internal/scan"
)

const (
	profileMarker = "Spelersprofiel"
	nameOpen      = ":&nbsp;"
	nameClose     = "&nbsp;["
	maxNameLen    = 40

	ratingLabel = `<td class="knltb-public-label">`
	ratingValue = "<td>"
)

// Rating holds the six rating values shown on a profile page.
type Rating struct {
	CurrentSingles   float64 `json:"current_singles"`
	CurrentDoubles   float64 `json:"current_doubles"`
	PriorYearSingles float64 `json:"prior_year_singles"`
	PriorYearDoubles float64 `json:"prior_year_doubles"`
	YearEndSingles   float64 `json:"year_end_singles"`
	YearEndDoubles   float64 `json:"year_end_doubles"`
}

// ExtractName returns the player's display name from the profile heading.
// The heading is the first "Spelersprofiel" followed, after optional
// whitespace, by ":&nbsp;"; other mentions such as the page title are passed
// over.
func ExtractName(buf scan.Buffer) (string, error) {
	at := headingAt(buf)
	if at == scan.NotFound {
		return "", fmt.Errorf("%w: %s heading", scan.ErrRequiredSectionMissing, profileMarker)
	}
	raw, _, err := scan.ReadField(buf, nameOpen, at, nameClose)
	if err != nil {
		return "", fmt.Errorf("%w: player name: %v", scan.ErrRequiredSectionMissing, err)
	}
	name := strings.TrimSpace(raw)
	if name == "" || len(name) > maxNameLen {
		return "", fmt.Errorf("%w: player name %q", scan.ErrRequiredSectionMissing, name)
	}
	return name, nil
}

// headingAt returns the cursor of the name opener that directly follows the
// profile marker.
func headingAt(buf scan.Buffer) scan.Cursor {
	for at := scan.Find(buf, profileMarker, 0); at != scan.NotFound; at = scan.Find(buf, profileMarker, scan.After(at, profileMarker)) {
		c := int(scan.After(at, profileMarker))
		for c < len(buf) && strings.IndexByte(" \t\r\n", buf[c]) >= 0 {
			c++
		}
		if bytes.HasPrefix(buf[c:], []byte(nameOpen)) {
			return scan.Cursor(c)
		}
	}
	return scan.NotFound
}

// ExtractRating reads the six labelled rating values in page order. Labels
// are matched by prefix so a season suffix ("Speelsterkte Enkel 2017") does
// not matter. A page without all six values is not a valid player page.
func ExtractRating(buf scan.Buffer) (Rating, error) {
	var rt Rating
	targets := []struct {
		label string
		dst   *float64
	}{
		{"Speelsterkte Enkel", &rt.YearEndSingles},
		{"Speelsterkte Dubbel", &rt.YearEndDoubles},
		{"Rating Enkel", &rt.CurrentSingles},
		{"Rating Dubbel", &rt.CurrentDoubles},
		{"Eindejaarsrating Enkel", &rt.PriorYearSingles},
		{"Eindejaarsrating Dubbel", &rt.PriorYearDoubles},
	}

	c := scan.Cursor(0)
	for _, t := range targets {
		at := scan.Find(buf, ratingLabel+t.label, c)
		if at == scan.NotFound {
			return Rating{}, fmt.Errorf("%w: rating %q", scan.ErrRequiredSectionMissing, t.label)
		}
		raw, next, err := scan.ReadCell(buf, ratingValue, scan.After(at, ratingLabel+t.label))
		if err != nil {
			return Rating{}, fmt.Errorf("%w: rating %q: %v", scan.ErrRequiredSectionMissing, t.label, err)
		}
		v, err := parseDecimal(raw)
		if err != nil {
			return Rating{}, fmt.Errorf("%w: rating %q: %q", scan.ErrNotNumeric, t.label, raw)
		}
		*t.dst = v
		c = next
	}
	return rt, nil
}

// parseDecimal accepts both decimal point and decimal comma.
func parseDecimal(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	return strconv.ParseFloat(s, 64)
}

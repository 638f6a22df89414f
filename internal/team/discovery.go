package team

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/knltb-stats/internal/scan"
)

// TeamLinkPrefix starts every link to a team standings page.
const TeamLinkPrefix = "StandenEnUitslagen.aspx?id="

// minCompetitionUIDLen rejects option values that are clearly not ids.
const minCompetitionUIDLen = 5

// ParseCompetitionUID finds the id of a competition by its display name on
// the competition search page.
func ParseCompetitionUID(r io.Reader, name string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	var uid string
	doc.Find("option").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if !strings.Contains(sel.Text(), name) {
			return true
		}
		uid, _ = sel.Attr("value")
		return false
	})

	uid = strings.TrimSpace(uid)
	if len(uid) < minCompetitionUIDLen {
		return "", fmt.Errorf("%w: competition %q", scan.ErrRequiredSectionMissing, name)
	}
	return uid, nil
}

// ParseTeamLinks returns the team ids linked from a competition search
// result page, in document order and without duplicates.
func ParseTeamLinks(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	ids := make([]string, 0)
	seen := make(map[string]bool)
	doc.Find(`a[href^="` + TeamLinkPrefix + `"]`).Each(func(i int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		id := strings.TrimSpace(strings.TrimPrefix(href, TeamLinkPrefix))
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	})

	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no team links", scan.ErrRequiredSectionMissing)
	}
	return ids, nil
}

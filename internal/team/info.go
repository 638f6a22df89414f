package team

import (
	"fmt"
	"strings"

	"github.com/pfrederiksen/knltb-stats/internal/scan"
)

// MatchType is the player category a team competes in.
type MatchType string

const (
	Mixed   MatchType = "mixed"
	Men     MatchType = "men"
	Women   MatchType = "women"
	Boys    MatchType = "boys"
	Girls   MatchType = "girls"
	Unknown MatchType = "unknown"
)

// Info describes the division a team plays in.
type Info struct {
	FullLabel string    `json:"full_label"`
	DayOfWeek string    `json:"day_of_week"`
	MatchType MatchType `json:"match_type"`
	Category  string    `json:"category,omitempty"`
	Tier      string    `json:"tier,omitempty"`
	RawLabel  string    `json:"raw_label"`
}

// categories are tried top to bottom; the first keyword present wins.
var categories = []struct {
	keyword string
	kind    MatchType
}{
	{"Gemengd", Mixed},
	{"Heren", Men},
	{"Dames", Women},
	{"Jongens", Boys},
	{"Meisjes", Girls},
}

// tiers are tried top to bottom before falling back to genericTier.
var tiers = []string{
	"Eredivisie",
	"Eerste divisie",
	"Hoofdklasse",
	"Overgangsklasse",
	"Open klasse",
}

const (
	genericTier = "klasse"
	// genericTierWidth is the number of bytes before genericTier that name
	// the level, as in "4e klasse".
	genericTierWidth = 3
)

const (
	labelOpen  = `<div class="knltb-public-label">`
	labelClose = "</div>"
)

// ClassifyLabel splits a division label such as
// "Zaterdag 17+ 3e klasse Heren Dubbel" into its parts.
func ClassifyLabel(label string) Info {
	text := strings.TrimSpace(label)
	info := Info{RawLabel: label, MatchType: Unknown}

	cut := len(text)
	for _, c := range categories {
		if i := strings.Index(text, c.keyword); i >= 0 {
			info.MatchType = c.kind
			info.Category = strings.TrimSpace(text[i:])
			cut = i
			break
		}
	}

	if tier, at := classifyTier(text); at >= 0 {
		info.Tier = tier
		if at < cut {
			cut = at
		}
	}

	info.FullLabel = strings.TrimSpace(text[:cut])
	if fields := strings.Fields(info.FullLabel); len(fields) > 0 {
		info.DayOfWeek = fields[0]
	}
	return info
}

// classifyTier returns the tier name and its offset in text, or -1.
func classifyTier(text string) (string, int) {
	for _, t := range tiers {
		if i := strings.Index(text, t); i >= 0 {
			return t, i
		}
	}
	i := strings.Index(text, genericTier)
	if i < 0 {
		return "", -1
	}
	start := i - genericTierWidth
	if start < 0 {
		start = 0
	}
	return strings.TrimSpace(text[start : i+len(genericTier)]), start
}

// ExtractInfo reads the division label, the second public label block on a
// team page.
func ExtractInfo(buf scan.Buffer) (Info, error) {
	first := scan.Find(buf, labelOpen, 0)
	if first == scan.NotFound {
		return Info{}, fmt.Errorf("%w: division label", scan.ErrRequiredSectionMissing)
	}
	label, _, err := scan.ReadField(buf, labelOpen, scan.After(first, labelOpen), labelClose)
	if err != nil {
		return Info{}, fmt.Errorf("%w: division label: %v", scan.ErrRequiredSectionMissing, err)
	}
	return ClassifyLabel(label), nil
}

package team

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pfrederiksen/knltb-stats/internal/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompetitionUID(t *testing.T) {
	page := loadFixture(t, "competition_search.html")

	tests := []struct {
		name    string
		comp    string
		want    string
		wantErr error
	}{
		{"winter", "Winteroutdoorcompetitie Zuid 2016/2017", "3b9e0d44-77a2-4f0c-8e61-5c1a2f9d3b02", nil},
		{"partial name", "Najaarscompetitie", "c0ffee00-1234-4abc-8def-001122334455", nil},
		{"unknown", "Zomercompetitie 2030", "", scan.ErrRequiredSectionMissing},
		{"placeholder option has no id", "Kies een competitie", "", scan.ErrRequiredSectionMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCompetitionUID(bytes.NewReader(page), tt.comp)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTeamLinks(t *testing.T) {
	page := loadFixture(t, "competition_teams.html")

	ids, err := ParseTeamLinks(bytes.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, []string{"T-1001", "T-1003"}, ids)
}

func TestParseTeamLinksNone(t *testing.T) {
	_, err := ParseTeamLinks(strings.NewReader(`<a href="Elders.aspx">x</a>`))
	assert.ErrorIs(t, err, scan.ErrRequiredSectionMissing)
}

package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/knltb-stats/internal/player"
)

func str(s string) *string {
	return &s
}

func testMatches() []player.MatchRecord {
	return []player.MatchRecord{
		{Date: "08-10-2016", EventName: "Winteroutdoorcompetitie Zuid 2016/2017", MatchType: player.Singles, Opponent1: "Tom Visser", Score: "4-6 6-7"},
		{Date: "01-10-2016", EventName: "Winteroutdoorcompetitie Zuid 2016/2017", MatchType: player.Doubles, Partner: str("Piet Bakker"), Opponent1: "Kees Smit", Opponent2: str("Henk Jansen"), Score: "6-4 6-3"},
		{Date: "12-08-2016", EventName: "Open Toernooi Breda", IsTournament: true, MatchType: player.Singles, Opponent1: "Rob Dekker", Score: "7-5 6-2"},
	}
}

func TestNew_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	s, err := New("~/knltb")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "knltb"), s.DataDir())

	for _, dir := range []string{"snapshots", "pages"} {
		info, err := os.Stat(filepath.Join(home, "knltb", dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	empty, err := s.LoadSnapshot(20889364)
	require.NoError(t, err)
	assert.Equal(t, 20889364, empty.Player)
	assert.Empty(t, empty.Matches)

	snap := CreateSnapshot(20889364, "Jan de Vries", testMatches(), "")
	require.NoError(t, s.SaveSnapshot(snap))

	loaded, err := s.LoadSnapshot(20889364)
	require.NoError(t, err)
	assert.Equal(t, "Jan de Vries", loaded.Name)
	assert.NotEmpty(t, loaded.UpdatedAt)
	assert.Len(t, loaded.Matches, 3)
	for _, rec := range testMatches() {
		assert.Equal(t, rec, loaded.Matches[rec.ID()])
	}
}

func TestSnapshot_Corrupt(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "snapshots", "player_1.json"), []byte("{"), 0644))
	_, err = s.LoadSnapshot(1)
	assert.ErrorContains(t, err, "parsing snapshot")
}

func TestDiffMatches(t *testing.T) {
	all := testMatches()
	previous := CreateSnapshot(1, "", all[:1], "")

	result := DiffMatches(previous, all)
	require.Len(t, result.NewMatches, 2)
	// Sorted by date: the tournament match came first.
	assert.Equal(t, "12-08-2016", result.NewMatches[0].Date)
	assert.Equal(t, "01-10-2016", result.NewMatches[1].Date)
	assert.Len(t, result.Events["Open Toernooi Breda"], 1)
	assert.Len(t, result.Events["Winteroutdoorcompetitie Zuid 2016/2017"], 1)
}

func TestDiffMatches_NilAndDuplicates(t *testing.T) {
	all := testMatches()
	result := DiffMatches(nil, append(all, all[0]))
	assert.Len(t, result.NewMatches, 3)

	result = DiffMatches(CreateSnapshot(1, "", all, ""), all)
	assert.Empty(t, result.NewMatches)
	assert.Empty(t, result.Events)
}

func TestArchive_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	body := []byte("<html><body>Spelersprofiel</body></html>")
	require.NoError(t, s.ArchivePage("player-1.html", body))
	require.NoError(t, s.ArchivePage("player-1.html", append(body, '\n')))
	require.NoError(t, s.ArchivePage("team-T-1001.html", body))

	got, err := s.LoadPage("player-1.html")
	require.NoError(t, err)
	assert.Equal(t, append(body, '\n'), got)

	_, err = os.Stat(filepath.Join(dir, "pages", "player-1.html.gz"))
	assert.NoError(t, err)

	_, err = s.LoadPage("missing.html")
	assert.Error(t, err)
}

func TestArchive_RejectsPaths(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, s.ArchivePage("../escape.html", []byte("x")))
	assert.Error(t, s.ArchivePage("", []byte("x")))
	_, err = s.LoadPage("a/b.html")
	assert.Error(t, err)
}

func TestGlobPages(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"team-T-2.html", "player-2.html", "team-T-1.html", "competition-search.html"} {
		require.NoError(t, s.ArchivePage(name, []byte("<html></html>")))
	}

	tests := []struct {
		pattern string
		want    []string
	}{
		{"team-*", []string{"team-T-1.html", "team-T-2.html"}},
		{"{player,competition}-*.html", []string{"competition-search.html", "player-2.html"}},
		{"*", []string{"competition-search.html", "player-2.html", "team-T-1.html", "team-T-2.html"}},
		{"match-*", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := s.GlobPages(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = s.GlobPages("[")
	assert.Error(t, err)
}

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/knltb-stats/internal/fetch"
	"github.com/pfrederiksen/knltb-stats/internal/sink"
	"github.com/pfrederiksen/knltb-stats/internal/storage"
)

const (
	subject     = 20889364
	competition = "Winteroutdoorcompetitie Zuid 2016/2017"
)

// unratedPage names a player but shows none of the rating labels.
const unratedPage = "<html><body><div>Home &gt; Spelersprofiel\r\n" +
	"        :&nbsp;Jan de Vries&nbsp;[555]</div><p>Geen ratings</p></body></html>"

type site struct {
	server   *httptest.Server
	requests atomic.Int32
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "fixtures", name))
	require.NoError(t, err)
	return data
}

// newSite serves the fixtures the way the KNLTB site lays out its pages.
func newSite(t *testing.T) *site {
	t.Helper()
	pages := map[string][]byte{
		"player": fixture(t, "player_page.html"),
		"search": fixture(t, "competition_search.html"),
		"teams":  fixture(t, "competition_teams.html"),
		"team":   fixture(t, "team_page.html"),
	}

	s := &site{}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		q := r.URL.Query()

		var body []byte
		switch r.URL.Path {
		case "/Spelersprofiel.aspx":
			switch q.Get("bondsnummer") {
			case "20889364":
				body = pages["player"]
			case "555":
				body = []byte(unratedPage)
			case "556":
				body = bytes.Replace(pages["player"], []byte(":&nbsp;Jan de Vries&nbsp;["), []byte(" Jan de Vries ["), 1)
			default:
				body = []byte("<html><body>Geen speler gevonden</body></html>")
			}
		case "/StandenEnUitslagenZoeken.aspx":
			if q.Get("id") == "" {
				body = pages["search"]
			} else {
				body = pages["teams"]
			}
		case "/StandenEnUitslagen.aspx":
			body = pages["team"]
		default:
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(s.server.Close)
	return s
}

type result struct {
	code   int
	stdout string
	stderr string
}

func (s *site) run(t *testing.T, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := &app{
		out:    &stdout,
		errOut: &stderr,
		fetchOptions: func(o *fetch.Options) {
			o.BaseURL = s.server.URL
			o.Delay = time.Millisecond
			o.Retries = 1
			o.SkipDelayFloor = true
		},
	}
	code := run(a, args)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// forget removes the subject's matches played on date from the snapshot.
func forget(t *testing.T, dataDir, date string) {
	t.Helper()
	store, err := storage.New(dataDir)
	require.NoError(t, err)
	snap, err := store.LoadSnapshot(subject)
	require.NoError(t, err)
	for id, rec := range snap.Matches {
		if rec.Date == date {
			delete(snap.Matches, id)
		}
	}
	require.Len(t, snap.Matches, 3)
	require.NoError(t, store.SaveSnapshot(snap))
}

func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return filepath.Join(t.TempDir(), "data")
}

func decodeRecords(t *testing.T, out string) []sink.Record {
	t.Helper()
	var recs []sink.Record
	dec := json.NewDecoder(bytes.NewBufferString(out))
	for {
		var rec sink.Record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return recs
		}
		require.NoError(t, err)
		recs = append(recs, rec)
	}
}

func kinds(recs []sink.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Kind)
	}
	return out
}

func TestPlayers_JSON(t *testing.T) {
	s := newSite(t)
	dataDir := isolate(t)

	res := s.run(t, "players", "20889364", "77", "--matches", "--format", "json", "--data-dir", dataDir)
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	recs := decodeRecords(t, res.stdout)
	assert.Equal(t, []string{"rating", "matches", "invalid_player"}, kinds(recs))

	assert.Equal(t, "Jan de Vries", recs[0].Name)
	require.NotNil(t, recs[0].Rating)
	assert.InDelta(t, 8.1234, recs[0].Rating.CurrentSingles, 1e-9)

	assert.Len(t, recs[1].Matches, 4)
	require.NotNil(t, recs[1].Summary)
	assert.Equal(t, 4, recs[1].Summary.Matches)
	assert.Equal(t, 77, recs[2].Player)

	// The league row without the player is logged, not fatal.
	assert.Contains(t, res.stderr, "Skipped row")

	// The first run seeds the snapshot and archives the pages.
	store, err := storage.New(dataDir)
	require.NoError(t, err)
	snap, err := store.LoadSnapshot(subject)
	require.NoError(t, err)
	assert.Len(t, snap.Matches, 4)
	assert.Equal(t, "Jan de Vries", snap.Name)

	pages, err := store.GlobPages("player-*.html")
	require.NoError(t, err)
	assert.Equal(t, []string{"player-20889364.html", "player-77.html"}, pages)
}

func TestPlayers_NewMatches(t *testing.T) {
	s := newSite(t)
	dataDir := isolate(t)

	res := s.run(t, "players", "20889364", "--matches", "--data-dir", dataDir)
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	res = s.run(t, "players", "20889364", "--matches", "--data-dir", dataDir)
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	// Forget one match so the next run reports it again.
	forget(t, dataDir, "12-08-2016")

	res = s.run(t, "players", "20889364", "--matches", "--notify", "--dry-run", "--data-dir", dataDir)
	require.Equal(t, ExitNewMatches, res.code, res.stderr)
	assert.Contains(t, res.stdout, "--- Tweet 1/1 ---")
	assert.Contains(t, res.stdout, "12-08-2016 - Open Toernooi Breda")

	// Back in the snapshot, so the next run is quiet again.
	res = s.run(t, "players", "20889364", "--matches", "--data-dir", dataDir)
	assert.Equal(t, ExitSuccess, res.code, res.stderr)
}

func TestPlayers_NewMatchesFiltered(t *testing.T) {
	s := newSite(t)
	dataDir := isolate(t)

	res := s.run(t, "players", "20889364", "--matches", "--data-dir", dataDir)
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	// The forgotten match is a singles match, so a doubles filter hides it.
	forget(t, dataDir, "12-08-2016")

	res = s.run(t, "players", "20889364", "--matches", "--type", "doubles", "--notify", "--dry-run", "--data-dir", dataDir)
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.NotContains(t, res.stdout, "--- Tweet")

	// The snapshot still learned the match.
	store, err := storage.New(dataDir)
	require.NoError(t, err)
	snap, err := store.LoadSnapshot(subject)
	require.NoError(t, err)
	assert.Len(t, snap.Matches, 4)
}

func TestPlayers_Invalid(t *testing.T) {
	s := newSite(t)

	res := s.run(t, "players", "555", "556", "--matches", "--format", "json", "--data-dir", isolate(t))
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	recs := decodeRecords(t, res.stdout)
	require.Equal(t, []string{"invalid_player", "rating"}, kinds(recs))
	assert.Equal(t, 555, recs[0].Player)
	assert.Contains(t, res.stderr, "Invalid player")

	// A page with ratings but an unreadable name keeps its rating.
	assert.Equal(t, 556, recs[1].Player)
	assert.Empty(t, recs[1].Name)
	require.NotNil(t, recs[1].Rating)
	assert.InDelta(t, 8.1234, recs[1].Rating.CurrentSingles, 1e-9)
}

func TestPlayers_Refresh(t *testing.T) {
	s := newSite(t)
	dataDir := isolate(t)

	store, err := storage.New(dataDir)
	require.NoError(t, err)
	require.NoError(t, store.SaveSnapshot(storage.NewSnapshot(subject)))

	res := s.run(t, "players", "20889364", "--matches", "--refresh", "--data-dir", dataDir)
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	snap, err := store.LoadSnapshot(subject)
	require.NoError(t, err)
	assert.Len(t, snap.Matches, 4)
}

func TestPlayers_RatingOnlyByDefault(t *testing.T) {
	s := newSite(t)

	res := s.run(t, "players", "20889364", "--format", "json", "--data-dir", isolate(t))
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, []string{"rating"}, kinds(decodeRecords(t, res.stdout)))
}

func TestPlayers_FromConfig(t *testing.T) {
	s := newSite(t)
	dataDir := isolate(t)

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("players: [20889364]\nformat: json\n"), 0o600))

	res := s.run(t, "players", "--config", cfgPath, "--data-dir", dataDir)
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, []string{"rating"}, kinds(decodeRecords(t, res.stdout)))
}

func TestCompetitions(t *testing.T) {
	s := newSite(t)
	dataDir := isolate(t)
	icsDir := filepath.Join(t.TempDir(), "ics")
	dbPath := filepath.Join(t.TempDir(), "stats.db")
	metrics := filepath.Join(t.TempDir(), "knltb.prom")

	res := s.run(t, "competitions",
		"--competition", competition,
		"--association", "A.T.C.",
		"--format", "json",
		"--data-dir", dataDir,
		"--ics-dir", icsDir,
		"--sqlite", dbPath,
		"--metrics-file", metrics,
	)
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	recs := decodeRecords(t, res.stdout)
	require.Equal(t, []string{"competition", "competition"}, kinds(recs))
	ct := recs[0].Team
	require.NotNil(t, ct)
	assert.Equal(t, "Winter", ct.Season)
	assert.Equal(t, []string{"A.T.C. 1", "A.T.C. 3"}, ct.OwnTeams)
	assert.Len(t, ct.Fixtures, 6)
	assert.Contains(t, ct.URL, "id=T-1001")

	for _, name := range []string{"team-T-1001.ics", "team-T-1003.ics"} {
		data, err := os.ReadFile(filepath.Join(icsDir, name))
		require.NoError(t, err)
		assert.Contains(t, string(data), "BEGIN:VCALENDAR")
	}
	assert.FileExists(t, dbPath)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "knltb_teams_extracted_total")
}

func TestCompetitions_UnknownIsSkipped(t *testing.T) {
	s := newSite(t)

	res := s.run(t, "competitions",
		"--competition", "Zomercompetitie 2030",
		"--association", "A.T.C.",
		"--data-dir", isolate(t),
	)
	assert.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "Competition not found, skipping")
}

func TestReplay(t *testing.T) {
	s := newSite(t)
	dataDir := isolate(t)

	res := s.run(t, "competitions", "--competition", competition, "--association", "A.T.C.", "--data-dir", dataDir)
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	res = s.run(t, "players", "20889364", "--data-dir", dataDir)
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	fetched := s.requests.Load()

	res = s.run(t, "replay", "player-*.html", "--format", "json", "--data-dir", dataDir)
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	recs := decodeRecords(t, res.stdout)
	require.Equal(t, []string{"rating", "matches"}, kinds(recs))
	assert.Len(t, recs[1].Matches, 4)

	res = s.run(t, "replay", "team-*.html", "--format", "json", "--data-dir", dataDir,
		"--competition", competition, "--association", "A.T.C.")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, []string{"competition", "competition"}, kinds(decodeRecords(t, res.stdout)))

	// Without a competition the team pages are passed over.
	res = s.run(t, "replay", "team-*.html", "--format", "json", "--data-dir", dataDir)
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Empty(t, res.stdout)

	assert.Equal(t, fetched, s.requests.Load())
}

func TestRun_Errors(t *testing.T) {
	s := newSite(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad format", []string{"players", "20889364", "--format", "xml"}},
		{"bad player number", []string{"players", "abc"}},
		{"no players", []string{"players"}},
		{"half a competition", []string{"competitions", "--competition", competition}},
		{"no competitions", []string{"competitions"}},
		{"missing config", []string{"players", "1", "--config", "/nonexistent/knltb.yaml"}},
		{"bad glob", []string{"replay", "[", "--format", "json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "--data-dir", isolate(t))
			res := s.run(t, args...)
			assert.Equal(t, ExitError, res.code)
			assert.Contains(t, res.stderr, "Error:")
		})
	}
}

func TestPlayerNumbers(t *testing.T) {
	got, err := playerNumbers([]string{"20889364", "42"}, []int{1})
	require.NoError(t, err)
	assert.Equal(t, []int{20889364, 42}, got)

	got, err = playerNumbers(nil, []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)

	_, err = playerNumbers([]string{"-3"}, nil)
	assert.Error(t, err)
	_, err = playerNumbers(nil, nil)
	assert.Error(t, err)
}

func TestPlayers_Filter(t *testing.T) {
	s := newSite(t)

	res := s.run(t, "players", "20889364", "--matches", "--format", "json", "--data-dir", isolate(t),
		"--period", "08-2016", "--type", "doubles")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	recs := decodeRecords(t, res.stdout)
	require.Equal(t, []string{"rating", "matches"}, kinds(recs))
	require.Len(t, recs[1].Matches, 1)
	assert.Equal(t, "14-08-2016", recs[1].Matches[0].Date)

	res = s.run(t, "players", "20889364", "--period", "augustus", "--data-dir", isolate(t))
	assert.Equal(t, ExitError, res.code)
}

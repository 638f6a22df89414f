package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memArchive struct {
	mu    sync.Mutex
	pages map[string][]byte
	err   error
}

func (a *memArchive) ArchivePage(name string, body []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	if a.pages == nil {
		a.pages = make(map[string][]byte)
	}
	a.pages[name] = body
	return nil
}

func testClient(url string, archiver Archiver) *Client {
	return New(Options{
		BaseURL:        url,
		Delay:          time.Millisecond,
		Retries:        1,
		Archiver:       archiver,
		SkipDelayFloor: true,
	})
}

func TestClient_Requests(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.RequestURI())
		mu.Unlock()

		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	archive := &memArchive{}
	c := testClient(server.URL, archive)
	ctx := context.Background()

	p, err := c.PlayerPage(ctx, 20889364)
	require.NoError(t, err)
	assert.Equal(t, "player-20889364.html", p.Name)
	assert.Equal(t, server.URL+"/Spelersprofiel.aspx?bondsnummer=20889364", p.URL)
	assert.Contains(t, string(p.Body), "ok")

	_, err = c.CompetitionSearch(ctx)
	require.NoError(t, err)
	_, err = c.CompetitionTeams(ctx, "3b9e0d44", "A.T.C.")
	require.NoError(t, err)
	_, err = c.TeamPage(ctx, "T-1001")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/Spelersprofiel.aspx?bondsnummer=20889364",
		"/StandenEnUitslagenZoeken.aspx",
		"/StandenEnUitslagenZoeken.aspx?id=3b9e0d44&vereniging=A.T.C.",
		"/StandenEnUitslagen.aspx?id=T-1001",
	}, seen)

	assert.Len(t, archive.pages, 4)
	assert.Contains(t, archive.pages, "team-T-1001.html")
	assert.Contains(t, archive.pages, "competition-3b9e0d44.html")
}

func TestClient_StatusCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := testClient(server.URL, nil).TeamPage(context.Background(), "T-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 404")
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("<html>second try</html>"))
	}))
	defer server.Close()

	p, err := testClient(server.URL, nil).CompetitionSearch(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(p.Body), "second try")
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestClient_ConvertsCharset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<html><body>Caf\xe9 De Kei</body></html>"))
	}))
	defer server.Close()

	p, err := testClient(server.URL, nil).TeamPage(context.Background(), "T-1")
	require.NoError(t, err)
	assert.Contains(t, string(p.Body), "Café De Kei")
}

func TestClient_RejectsBinary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n"))
	}))
	defer server.Close()

	_, err := testClient(server.URL, nil).PlayerPage(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotMarkup)
}

func TestClient_ArchiveFailureIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>x</html>"))
	}))
	defer server.Close()

	archive := &memArchive{err: errors.New("disk full")}
	_, err := testClient(server.URL, archive).PlayerPage(context.Background(), 1)
	assert.NoError(t, err)
}

func TestClient_CanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>x</html>"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(server.URL, nil).PlayerPage(ctx, 1)
	assert.Error(t, err)
}

func TestClient_DelayFloor(t *testing.T) {
	interval := func(c *Client) float64 {
		return 1 / float64(c.limiter.Limit())
	}

	assert.InDelta(t, MinDelay.Seconds(), interval(New(Options{Delay: 10 * time.Millisecond})), 1e-9)
	assert.InDelta(t, DefaultDelay.Seconds(), interval(New(Options{})), 1e-9)
}

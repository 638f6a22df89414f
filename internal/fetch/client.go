package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/pfrederiksen/knltb-stats/internal/logger"
	"github.com/pfrederiksen/knltb-stats/internal/scan"
)

const (
	DefaultBaseURL = "http://publiek.mijnknltb.nl"
	UserAgent      = "knltb-stats/1.0 (github.com/pfrederiksen/knltb-stats)"
	Timeout        = 30 * time.Second

	// DefaultDelay is the pause between two requests.
	DefaultDelay = 750 * time.Millisecond
	// MinDelay is the shortest pause New accepts.
	MinDelay = 500 * time.Millisecond

	playerPath = "/Spelersprofiel.aspx"
	searchPath = "/StandenEnUitslagenZoeken.aspx"
	teamPath   = "/StandenEnUitslagen.aspx"
)

// ErrNotMarkup is returned when a response body is not text.
var ErrNotMarkup = errors.New("response is not a markup page")

// Page is one fetched page.
type Page struct {
	// Name identifies the page in the archive, e.g. "player-20889364.html".
	Name string
	URL  string
	Body scan.Buffer
}

// Archiver keeps a copy of every fetched page.
type Archiver interface {
	ArchivePage(name string, body []byte) error
}

// Options configures a Client. Zero values select the defaults.
type Options struct {
	BaseURL  string
	Delay    time.Duration
	Retries  int
	Archiver Archiver
	// SkipDelayFloor allows delays below MinDelay; tests use it against
	// local servers.
	SkipDelayFloor bool
}

// Client fetches KNLTB pages.
type Client struct {
	resty    *resty.Client
	limiter  *rate.Limiter
	archiver Archiver
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Delay < MinDelay && !opts.SkipDelayFloor {
		opts.Delay = MinDelay
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.Retries
	retryClient.RetryWaitMin = opts.Delay
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.Logger = nil

	httpClient := retryClient.StandardClient()
	httpClient.Timeout = Timeout

	r := resty.NewWithClient(httpClient).
		SetBaseURL(opts.BaseURL).
		SetHeader("User-Agent", UserAgent)

	return &Client{
		resty:    r,
		limiter:  rate.NewLimiter(rate.Every(opts.Delay), 1),
		archiver: opts.Archiver,
	}
}

// PlayerPage fetches the profile of one player.
func (c *Client) PlayerPage(ctx context.Context, number int) (*Page, error) {
	return c.get(ctx, fmt.Sprintf("player-%d.html", number), playerPath, map[string]string{
		"bondsnummer": strconv.Itoa(number),
	})
}

// CompetitionSearch fetches the competition search page listing every
// competition and its uid.
func (c *Client) CompetitionSearch(ctx context.Context) (*Page, error) {
	return c.get(ctx, "competition-search.html", searchPath, nil)
}

// CompetitionTeams fetches the teams an association has in a competition.
func (c *Client) CompetitionTeams(ctx context.Context, uid, association string) (*Page, error) {
	return c.get(ctx, "competition-"+uid+".html", searchPath, map[string]string{
		"id":         uid,
		"vereniging": association,
	})
}

// TeamPage fetches the standings and planning page of one team.
func (c *Client) TeamPage(ctx context.Context, id string) (*Page, error) {
	return c.get(ctx, "team-"+id+".html", teamPath, map[string]string{"id": id})
}

func (c *Client) get(ctx context.Context, name, path string, params map[string]string) (*Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	start := time.Now()
	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	logger.RecordTiming("fetch.request", time.Since(start))
	if err != nil {
		logger.IncrCounter("fetch.errors")
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}

	if resp.StatusCode() != http.StatusOK {
		logger.IncrCounter("fetch.errors")
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	body, err := decode(resp.Body(), resp.Header().Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	page := &Page{Name: name, URL: resp.Request.URL, Body: body}
	if raw := resp.RawResponse; raw != nil && raw.Request != nil {
		page.URL = raw.Request.URL.String()
	}
	logger.IncrCounter("fetch.pages")

	if c.archiver != nil {
		if err := c.archiver.ArchivePage(name, body); err != nil {
			logger.Warn("Failed to archive page", logger.Fields{"page": name, "error": err.Error()})
		}
	}
	return page, nil
}

// decode converts body to UTF-8 using the Content-Type header and any meta
// charset declaration, and rejects bodies that are not text.
func decode(body []byte, contentType string) (scan.Buffer, error) {
	if !isText(body) {
		return nil, fmt.Errorf("%w: %s", ErrNotMarkup, mimetype.Detect(body).String())
	}
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("detecting charset: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("converting to utf-8: %w", err)
	}
	return scan.Buffer(out), nil
}

func isText(body []byte) bool {
	for mt := mimetype.Detect(body); mt != nil; mt = mt.Parent() {
		if mt.Is("text/plain") {
			return true
		}
	}
	return false
}

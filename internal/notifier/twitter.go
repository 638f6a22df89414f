package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"

	"github.com/pfrederiksen/knltb-stats/internal/logger"
)

// Credentials are the OAuth1 keys of the posting account.
type Credentials struct {
	APIKey       string `envconfig:"TWITTER_API_KEY"`
	APISecret    string `envconfig:"TWITTER_API_SECRET"`
	AccessToken  string `envconfig:"TWITTER_ACCESS_TOKEN"`
	AccessSecret string `envconfig:"TWITTER_ACCESS_SECRET"`
}

// Complete reports whether all four keys are set.
func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.APISecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

type statusUpdater interface {
	Update(status string, params *twitter.StatusUpdateParams) (*twitter.Tweet, *http.Response, error)
}

// TwitterNotifier posts announcements to Twitter
type TwitterNotifier struct {
	statuses   statusUpdater
	pause      time.Duration
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

// NewTwitterNotifier creates a Twitter notifier for the given account.
func NewTwitterNotifier(creds Credentials) (*TwitterNotifier, error) {
	if !creds.Complete() {
		return nil, fmt.Errorf("missing required Twitter credentials")
	}

	config := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	httpClient := config.Client(oauth1.NoContext, token)
	client := twitter.NewClient(httpClient)

	return newTwitterNotifier(client.Statuses), nil
}

func newTwitterNotifier(statuses statusUpdater) *TwitterNotifier {
	return &TwitterNotifier{
		statuses:   statuses,
		pause:      2 * time.Second,
		maxRetries: 3,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxElapsedTime = time.Minute
			return b
		},
	}
}

// Notify posts one tweet per announcement, stopping at the first post that
// keeps failing.
func (n *TwitterNotifier) Notify(ctx context.Context, announcements []Announcement) error {
	for i, a := range announcements {
		tweet := formatTweet(a)

		if err := n.post(ctx, tweet); err != nil {
			return fmt.Errorf("failed to post tweet for match %s: %w", a.Match.ID(), err)
		}
		logger.IncrCounter("notifier.tweets")

		// Rate limiting: wait between tweets
		if i < len(announcements)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.pause):
			}
		}
	}
	return nil
}

func (n *TwitterNotifier) post(ctx context.Context, tweet string) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(n.newBackOff(), n.maxRetries), ctx)

	return backoff.Retry(func() error {
		_, resp, err := n.statuses.Update(tweet, nil)
		if err == nil {
			return nil
		}
		if !retryable(resp, err) {
			return backoff.Permanent(err)
		}
		logger.Warn("Tweet failed, retrying", logger.Fields{"error": err.Error()})
		return err
	}, policy)
}

// retryable reports whether a failed post may succeed later: network errors,
// rate limiting and server errors.
func retryable(resp *http.Response, err error) bool {
	var apiErr twitter.APIError
	if errors.As(err, &apiErr) {
		for _, e := range apiErr.Errors {
			// 187: duplicate status.
			if e.Code == 187 {
				return false
			}
		}
	}
	if resp == nil {
		return true
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
}

package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

// DryRunNotifier prints what would be tweeted without actually posting
type DryRunNotifier struct {
	w io.Writer
}

// NewDryRunNotifier creates a dry-run notifier writing to w, or to standard
// output when w is nil.
func NewDryRunNotifier(w io.Writer) *DryRunNotifier {
	if w == nil {
		w = os.Stdout
	}
	return &DryRunNotifier{w: w}
}

// Notify prints the tweets that would be posted
func (n *DryRunNotifier) Notify(_ context.Context, announcements []Announcement) error {
	for i, a := range announcements {
		tweet := formatTweet(a)
		fmt.Fprintf(n.w, "--- Tweet %d/%d ---\n", i+1, len(announcements))
		fmt.Fprintln(n.w, tweet)
		fmt.Fprintf(n.w, "\n(Length: %d characters)\n\n", utf8.RuneCountInString(tweet))
	}
	return nil
}

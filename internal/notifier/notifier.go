package notifier

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pfrederiksen/knltb-stats/internal/player"
)

// MaxTweetLen is the character limit of a post.
const MaxTweetLen = 280

// Announcement is one new match of a tracked player.
type Announcement struct {
	Player int                `json:"player"`
	Name   string             `json:"name"`
	Match  player.MatchRecord `json:"match"`
}

// Announcements builds one announcement per match.
func Announcements(number int, name string, matches []player.MatchRecord) []Announcement {
	out := make([]Announcement, 0, len(matches))
	for _, m := range matches {
		out = append(out, Announcement{Player: number, Name: name, Match: m})
	}
	return out
}

// Notifier defines the interface for posting match announcements
type Notifier interface {
	// Notify posts one message per announcement
	Notify(ctx context.Context, announcements []Announcement) error
}

// formatTweet formats an announcement as a tweet
func formatTweet(a Announcement) string {
	m := a.Match
	var b strings.Builder

	fmt.Fprintf(&b, "🎾 New match for %s!\n\n", a.Name)
	fmt.Fprintf(&b, "📅 %s - %s\n", m.Date, m.EventName)

	opponents := m.Opponent1
	if m.Opponent2 != nil {
		opponents += " & " + *m.Opponent2
	}
	fmt.Fprintf(&b, "🆚 %s", opponents)
	if m.Partner != nil {
		fmt.Fprintf(&b, " (with %s)", *m.Partner)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "🏁 %s %s\n", m.Outcome, m.Score)
	if m.RatingDelta != nil {
		fmt.Fprintf(&b, "📈 %s\n", *m.RatingDelta)
	}

	b.WriteString("\n#KNLTB #tennis")
	if m.IsTournament {
		b.WriteString(" #toernooi")
	} else {
		b.WriteString(" #competitie")
	}

	return truncate(b.String(), MaxTweetLen)
}

// truncate shortens s to at most n characters, ending in "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

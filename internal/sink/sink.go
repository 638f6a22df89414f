package sink

import (
	"context"
	"errors"

	"github.com/pfrederiksen/knltb-stats/internal/player"
	"github.com/pfrederiksen/knltb-stats/internal/team"
)

// Sink consumes extracted records.
type Sink interface {
	Competition(ctx context.Context, t team.CompetitionTeam) error
	PlayerRating(ctx context.Context, number int, name string, r player.Rating) error
	PlayerMatches(ctx context.Context, number int, records []player.MatchRecord) error
	InvalidPlayer(ctx context.Context, number int) error
	Close() error
}

// Multi forwards every call to all sinks. Every sink sees every call; the
// errors are joined.
type Multi []Sink

func (m Multi) Competition(ctx context.Context, t team.CompetitionTeam) error {
	return m.each(func(s Sink) error { return s.Competition(ctx, t) })
}

func (m Multi) PlayerRating(ctx context.Context, number int, name string, r player.Rating) error {
	return m.each(func(s Sink) error { return s.PlayerRating(ctx, number, name, r) })
}

func (m Multi) PlayerMatches(ctx context.Context, number int, records []player.MatchRecord) error {
	return m.each(func(s Sink) error { return s.PlayerMatches(ctx, number, records) })
}

func (m Multi) InvalidPlayer(ctx context.Context, number int) error {
	return m.each(func(s Sink) error { return s.InvalidPlayer(ctx, number) })
}

func (m Multi) Close() error {
	return m.each(func(s Sink) error { return s.Close() })
}

func (m Multi) each(fn func(Sink) error) error {
	var errs []error
	for _, s := range m {
		if err := fn(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/knltb-stats/internal/filter"
	"github.com/pfrederiksen/knltb-stats/internal/logger"
	"github.com/pfrederiksen/knltb-stats/internal/notifier"
	"github.com/pfrederiksen/knltb-stats/internal/player"
	"github.com/pfrederiksen/knltb-stats/internal/scan"
	"github.com/pfrederiksen/knltb-stats/internal/storage"
)

func newPlayersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "players [bondsnummer...]",
		Short: "Collect ratings and match histories of players",
		Long: `Collect the rating of every player and, with --matches, the match
history. Players are taken from the arguments or, without arguments, from
the config file. Matches not seen in an earlier run are reported, and exit
code 2 signals that at least one was found.`,
	}
	cmd.RunE = a.command(a.runPlayers)

	cmd.Flags().BoolVar(&a.flags.matches, "matches", false, "Also collect match histories")
	cmd.Flags().BoolVar(&a.flags.refresh, "refresh", false, "Refresh snapshots without reporting new matches")
	cmd.Flags().BoolVar(&a.flags.notify, "notify", false, "Announce new matches on Twitter")
	cmd.Flags().BoolVar(&a.flags.dryRun, "dry-run", false, "Print announcements instead of posting them")
	cmd.Flags().StringVar(&a.flags.period, "period", "", "Only report matches in this period: 01-08-2016:31-08-2016, 08-2016 or 2016")
	cmd.Flags().StringSliceVar(&a.flags.events, "event", nil, "Only report matches of events containing this text (repeatable)")
	cmd.Flags().StringSliceVar(&a.flags.types, "type", nil, "Only report singles or doubles matches")
	cmd.Flags().BoolVar(&a.flags.weekends, "weekends", false, "Only report matches played on Saturday or Sunday")
	return cmd
}

func (a *app) runPlayers(cmd *cobra.Command, args []string) error {
	numbers, err := playerNumbers(args, a.cfg.Players)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("matches") {
		a.cfg.Matches = a.flags.matches
	}

	a.filter, err = a.matchFilter()
	if err != nil {
		return err
	}
	if !a.filter.IsEmpty() {
		logger.Info("Filtering matches", logger.Fields{"filter": a.filter.String()})
	}

	var notify notifier.Notifier
	if a.flags.notify {
		notify, err = a.notifier()
		if err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	var errs []error
	for _, number := range numbers {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		page, err := a.client.PlayerPage(ctx, number)
		if err != nil {
			logger.Error("Fetching player failed", logger.Fields{"player": number}, err)
			errs = append(errs, fmt.Errorf("player %d: %w", number, err))
			continue
		}
		logger.RecordTiming("fetch.player", time.Since(start))

		found, err := a.processPlayer(ctx, number, page.Body, true)
		if err != nil {
			errs = append(errs, fmt.Errorf("player %d: %w", number, err))
			continue
		}
		if len(found) > 0 && notify != nil {
			if err := notify.Notify(ctx, found); err != nil {
				logger.Error("Announcing matches failed", logger.Fields{"player": number}, err)
				errs = append(errs, fmt.Errorf("player %d: notify: %w", number, err))
			}
		}
	}
	return errors.Join(errs...)
}

// processPlayer extracts one player page and writes the results. A page
// whose six rating values cannot be read is reported as an invalid player.
// With track set the match history is compared against the stored snapshot
// and the matches not seen before are returned.
func (a *app) processPlayer(ctx context.Context, number int, body scan.Buffer, track bool) ([]notifier.Announcement, error) {
	fields := logger.Fields{"player": number}

	rating, err := player.ExtractRating(body)
	if errors.Is(err, scan.ErrRequiredSectionMissing) || errors.Is(err, scan.ErrNotNumeric) {
		logger.Warn("Invalid player", withError(fields, err))
		logger.IncrCounter("players.invalid")
		return nil, a.sink.InvalidPlayer(ctx, number)
	}
	if err != nil {
		return nil, fmt.Errorf("reading rating: %w", err)
	}

	name, err := player.ExtractName(body)
	if err != nil {
		// Matches are resolved by name, so only the rating can be kept.
		logger.Warn("Player page has no name", withError(fields, err))
		logger.IncrCounter("players.unnamed")
		if err := a.sink.PlayerRating(ctx, number, "", rating); err != nil {
			return nil, err
		}
		logger.IncrCounter("players.rated")
		return nil, nil
	}
	fields["name"] = name

	if err := a.sink.PlayerRating(ctx, number, name, rating); err != nil {
		return nil, err
	}
	logger.IncrCounter("players.rated")

	if !a.cfg.Matches {
		return nil, nil
	}

	m, err := player.ExtractMatches(body, name)
	if err != nil {
		// The other pass still delivered its records.
		logger.Error("Match table incomplete", fields, err)
		logger.IncrCounter("passes.failed")
	}
	logSkipped(fields, m.Skipped)
	logger.Info("Extracted matches", logger.Fields{
		"player":  number,
		"matches": len(m.Records),
		"skipped": len(m.Skipped),
	})

	if err := a.sink.PlayerMatches(ctx, number, a.filter.Apply(m.Records)); err != nil {
		return nil, err
	}
	if !track {
		return nil, nil
	}
	return a.trackMatches(number, name, m.Records)
}

// trackMatches merges records into the player's snapshot. A player seen for
// the first time only seeds the snapshot.
func (a *app) trackMatches(number int, name string, records []player.MatchRecord) ([]notifier.Announcement, error) {
	previous, err := a.store.LoadSnapshot(number)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	firstRun := previous.UpdatedAt == ""

	diff := storage.DiffMatches(previous, records)

	known := make([]player.MatchRecord, 0, len(previous.Matches)+len(records))
	for _, rec := range previous.Matches {
		known = append(known, rec)
	}
	known = append(known, records...)
	if err := a.store.SaveSnapshot(storage.CreateSnapshot(number, name, known, previous.UpdatedAt)); err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}

	fields := logger.Fields{"player": number, "new_matches": len(diff.NewMatches)}
	switch {
	case firstRun:
		logger.Info("Seeded snapshot", fields)
		return nil, nil
	case a.flags.refresh:
		logger.Info("Snapshot refreshed", fields)
		return nil, nil
	}

	for event, recs := range diff.Events {
		logger.Info("New matches", logger.Fields{"player": number, "event": event, "count": len(recs)})
	}
	// Only matches that pass the filter are reported or counted.
	shown := a.filter.Apply(diff.NewMatches)
	a.newMatches += len(shown)
	logger.SetGauge("matches.new", float64(a.newMatches))
	return notifier.Announcements(number, name, shown), nil
}

// matchFilter builds the filter selected by flags.
func (a *app) matchFilter() (*filter.Filter, error) {
	f := filter.NewFilter()
	if a.flags.period != "" {
		from, to, err := filter.ParseDateRange(a.flags.period)
		if err != nil {
			return nil, err
		}
		f.DateFrom, f.DateTo = from, to
	}
	types, err := filter.ParseMatchTypes(a.flags.types)
	if err != nil {
		return nil, err
	}
	f.Types = types
	f.Events = append(f.Events, a.flags.events...)
	f.WeekendsOnly = a.flags.weekends
	return f, nil
}

func (a *app) notifier() (notifier.Notifier, error) {
	if a.flags.dryRun {
		return notifier.NewDryRunNotifier(a.out), nil
	}
	n, err := notifier.NewTwitterNotifier(a.cfg.Twitter)
	if err != nil {
		return nil, fmt.Errorf("creating notifier: %w", err)
	}
	return n, nil
}

// playerNumbers parses the arguments, falling back to the configured
// players.
func playerNumbers(args []string, configured []int) ([]int, error) {
	if len(args) == 0 {
		if len(configured) == 0 {
			return nil, fmt.Errorf("no players given and none configured")
		}
		return configured, nil
	}

	numbers := make([]int, 0, len(args))
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid player number: %q", arg)
		}
		numbers = append(numbers, n)
	}
	return numbers, nil
}

// logSkipped reports every abandoned row.
func logSkipped(fields logger.Fields, skipped []error) {
	for _, err := range skipped {
		entry := withError(fields, err)
		var rowErr *scan.RowError
		if errors.As(err, &rowErr) {
			entry["pass"] = rowErr.Pass
			entry["row"] = rowErr.Row
		}
		logger.Warn("Skipped row", entry)
		logger.IncrCounter("rows.skipped")
	}
}

func withError(fields logger.Fields, err error) logger.Fields {
	out := make(logger.Fields, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["reason"] = err.Error()
	return out
}

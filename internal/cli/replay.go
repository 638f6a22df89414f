package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/knltb-stats/internal/logger"
	"github.com/pfrederiksen/knltb-stats/internal/scan"
)

func newReplayCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay [pattern]",
		Short: "Run the extraction again over archived pages",
		Long: `Run the extraction again over archived pages whose names match the
glob pattern (default "*"), e.g. "player-*.html" or "team-T-1*.html".
Nothing is fetched and no snapshot is changed. Team pages need a
competition: --competition and --association, or a single configured one.`,
		Args: cobra.MaximumNArgs(1),
	}
	cmd.RunE = a.command(a.runReplay)

	cmd.Flags().StringVar(&a.flags.competition, "competition", "", "Competition the archived team pages belong to")
	cmd.Flags().StringVar(&a.flags.association, "association", "", "Association whose teams the archived pages show")
	cmd.Flags().BoolVar(&a.flags.replayMatches, "matches", true, "Also extract match histories from player pages")
	return cmd
}

func (a *app) runReplay(cmd *cobra.Command, args []string) error {
	a.cfg.Matches = a.flags.replayMatches
	pattern := "*"
	if len(args) == 1 {
		pattern = args[0]
	}

	names, err := a.store.GlobPages(pattern)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		logger.Warn("No archived pages match", logger.Fields{"pattern": pattern})
		return nil
	}

	ctx := cmd.Context()
	var errs []error
	for _, name := range names {
		if err := a.replayPage(ctx, name); err != nil {
			logger.Error("Replay failed", logger.Fields{"page": name}, err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (a *app) replayPage(ctx context.Context, name string) error {
	stem := strings.TrimSuffix(name, ".html")

	switch {
	case strings.HasPrefix(stem, "player-"):
		number, err := strconv.Atoi(strings.TrimPrefix(stem, "player-"))
		if err != nil {
			return fmt.Errorf("no player number in page name")
		}
		body, err := a.store.LoadPage(name)
		if err != nil {
			return err
		}
		_, err = a.processPlayer(ctx, number, scan.Buffer(body), false)
		return err

	case strings.HasPrefix(stem, "team-"):
		comps, err := a.competitions()
		if err != nil {
			return err
		}
		if len(comps) != 1 {
			logger.Warn("Team page needs exactly one competition, skipping", logger.Fields{"page": name})
			return nil
		}
		body, err := a.store.LoadPage(name)
		if err != nil {
			return err
		}
		return a.processTeam(ctx, strings.TrimPrefix(stem, "team-"), "", scan.Buffer(body), comps[0])
	}

	logger.Debug("Nothing to replay", logger.Fields{"page": name})
	return nil
}

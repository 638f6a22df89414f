package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/knltb-stats/internal/calendar"
	"github.com/pfrederiksen/knltb-stats/internal/config"
	"github.com/pfrederiksen/knltb-stats/internal/logger"
	"github.com/pfrederiksen/knltb-stats/internal/scan"
	"github.com/pfrederiksen/knltb-stats/internal/team"
)

func newCompetitionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "competitions",
		Short: "Collect standings and fixtures of an association's teams",
		Long: `Look up every configured competition, find the teams of the
association and collect the division, standings and fixtures of each team.
--competition and --association select a single pair instead of the
configured ones.`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = a.command(a.runCompetitions)

	cmd.Flags().StringVar(&a.flags.competition, "competition", "", "Competition name as shown on the search page")
	cmd.Flags().StringVar(&a.flags.association, "association", "", "Association whose teams are collected")
	cmd.Flags().StringVar(&a.flags.icsDir, "ics-dir", "", "Write the fixtures of every team as an iCalendar file into this directory")
	return cmd
}

func (a *app) runCompetitions(cmd *cobra.Command, _ []string) error {
	comps, err := a.competitions()
	if err != nil {
		return err
	}
	if len(comps) == 0 {
		return fmt.Errorf("no competitions given and none configured")
	}
	if a.flags.icsDir != "" {
		if err := os.MkdirAll(a.flags.icsDir, 0755); err != nil {
			return fmt.Errorf("creating ics directory: %w", err)
		}
	}

	ctx := cmd.Context()
	search, err := a.client.CompetitionSearch(ctx)
	if err != nil {
		return fmt.Errorf("fetching competition search: %w", err)
	}

	var errs []error
	for _, comp := range comps {
		if err := a.collectCompetition(ctx, search.Body, comp); err != nil {
			logger.Error("Competition failed", logger.Fields{"competition": comp.Name}, err)
			errs = append(errs, fmt.Errorf("%s: %w", comp.Name, err))
		}
	}
	return errors.Join(errs...)
}

// competitions returns the pair selected by flags, or the configured ones.
func (a *app) competitions() ([]config.Competition, error) {
	switch {
	case a.flags.competition == "" && a.flags.association == "":
		return a.cfg.Competitions, nil
	case a.flags.competition == "" || a.flags.association == "":
		return nil, fmt.Errorf("--competition and --association must be given together")
	}
	return []config.Competition{{Name: a.flags.competition, Association: a.flags.association}}, nil
}

func (a *app) collectCompetition(ctx context.Context, search scan.Buffer, comp config.Competition) error {
	fields := logger.Fields{"competition": comp.Name, "association": comp.Association}

	uid, err := team.ParseCompetitionUID(bytes.NewReader(search), comp.Name)
	if errors.Is(err, scan.ErrRequiredSectionMissing) {
		logger.Warn("Competition not found, skipping", fields)
		logger.IncrCounter("competitions.skipped")
		return nil
	}
	if err != nil {
		return err
	}

	list, err := a.client.CompetitionTeams(ctx, uid, comp.Association)
	if err != nil {
		return fmt.Errorf("fetching teams: %w", err)
	}
	ids, err := team.ParseTeamLinks(bytes.NewReader(list.Body))
	if errors.Is(err, scan.ErrRequiredSectionMissing) {
		logger.Warn("Association has no teams, skipping", fields)
		logger.IncrCounter("competitions.skipped")
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("Found teams", logger.Fields{"competition": comp.Name, "teams": len(ids)})

	var errs []error
	for _, id := range ids {
		start := time.Now()
		page, err := a.client.TeamPage(ctx, id)
		if err != nil {
			logger.Error("Fetching team failed", logger.Fields{"team_id": id}, err)
			errs = append(errs, fmt.Errorf("team %s: %w", id, err))
			continue
		}
		logger.RecordTiming("fetch.team", time.Since(start))

		if err := a.processTeam(ctx, id, page.URL, page.Body, comp); err != nil {
			errs = append(errs, fmt.Errorf("team %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// processTeam extracts one team page and writes the results.
func (a *app) processTeam(ctx context.Context, id, url string, body scan.Buffer, comp config.Competition) error {
	fields := logger.Fields{"team_id": id, "competition": comp.Name}

	ct, err := team.ExtractTeam(body, comp.Name, comp.Association)
	if errors.Is(err, scan.ErrRequiredSectionMissing) {
		logger.Warn("Team page has no division, skipping", withError(fields, err))
		logger.IncrCounter("teams.skipped")
		return nil
	}
	if err != nil {
		return err
	}
	ct.URL = url

	logSkipped(fields, ct.Skipped)
	logger.IncrCounter("teams.extracted")
	logger.SetGauge("own.teams", float64(len(ct.OwnTeams)))

	if err := a.sink.Competition(ctx, ct); err != nil {
		return err
	}
	if a.flags.icsDir == "" || len(ct.Fixtures) == 0 {
		return nil
	}

	path := filepath.Join(a.flags.icsDir, fmt.Sprintf("team-%s.ics", id))
	if err := os.WriteFile(path, []byte(calendar.GenerateICS(ct, time.Now())), 0644); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	logger.Debug("Wrote calendar", logger.Fields{"team_id": id, "path": path, "fixtures": len(ct.Fixtures)})
	return nil
}

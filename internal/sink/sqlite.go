package sink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pfrederiksen/knltb-stats/internal/player"
	"github.com/pfrederiksen/knltb-stats/internal/team"
)

// Schema is applied when a database is opened.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS teams (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id),
	competition TEXT NOT NULL,
	season TEXT NOT NULL,
	association TEXT NOT NULL,
	url TEXT,
	full_label TEXT,
	day_of_week TEXT,
	match_type TEXT,
	category TEXT,
	tier TEXT,
	raw_label TEXT
);
CREATE TABLE IF NOT EXISTS standings (
	team_id INTEGER NOT NULL REFERENCES teams(id),
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	played INTEGER, won INTEGER, draw INTEGER, lost INTEGER,
	points_won INTEGER, points_lost INTEGER,
	is_own_club INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS fixtures (
	team_id INTEGER NOT NULL REFERENCES teams(id),
	own_team TEXT NOT NULL,
	opponent TEXT NOT NULL,
	plays_at_home INTEGER NOT NULL,
	round_number INTEGER,
	date TEXT, start_time TEXT, attendance TEXT, court_surface TEXT,
	result TEXT, status TEXT, catch_up TEXT, comment TEXT
);
CREATE TABLE IF NOT EXISTS ratings (
	run_id TEXT NOT NULL REFERENCES runs(id),
	player INTEGER NOT NULL,
	name TEXT,
	current_singles REAL, current_doubles REAL,
	prior_year_singles REAL, prior_year_doubles REAL,
	year_end_singles REAL, year_end_doubles REAL
);
CREATE TABLE IF NOT EXISTS matches (
	run_id TEXT NOT NULL REFERENCES runs(id),
	player INTEGER NOT NULL,
	match_id TEXT NOT NULL,
	date TEXT, event_name TEXT, is_tournament INTEGER, match_type TEXT,
	category TEXT, home_club TEXT, away_club TEXT,
	rating_delta TEXT, rating_at_start TEXT,
	partner TEXT, opponent1 TEXT, opponent2 TEXT,
	is_home_player INTEGER, outcome TEXT, score TEXT
);
CREATE TABLE IF NOT EXISTS invalid_players (
	run_id TEXT NOT NULL REFERENCES runs(id),
	player INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_matches_player ON matches(player, match_id);
CREATE INDEX IF NOT EXISTS idx_ratings_player ON ratings(player);
`

// SQLite stores every record of a run, tagged with a run id.
type SQLite struct {
	db    *sql.DB
	runID string
}

// OpenSQLite opens (or creates) the database at path and registers a new
// run.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close() // nolint:errcheck
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s := &SQLite{db: db, runID: uuid.NewString()}
	if _, err := db.ExecContext(ctx, `INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		s.runID, time.Now().UTC().Format(time.RFC3339)); err != nil {
		db.Close() // nolint:errcheck
		return nil, fmt.Errorf("registering run: %w", err)
	}
	return s, nil
}

// RunID identifies the rows written through this sink.
func (s *SQLite) RunID() string {
	return s.runID
}

// DB exposes the connection for queries over stored runs.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

func (s *SQLite) Competition(ctx context.Context, ct team.CompetitionTeam) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO teams
			(run_id, competition, season, association, url, full_label, day_of_week, match_type, category, tier, raw_label)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.runID, ct.Competition, ct.Season, ct.Association, ct.URL,
			ct.Info.FullLabel, ct.Info.DayOfWeek, string(ct.Info.MatchType), ct.Info.Category, ct.Info.Tier, ct.Info.RawLabel)
		if err != nil {
			return fmt.Errorf("inserting team: %w", err)
		}
		teamID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading team id: %w", err)
		}

		for _, r := range ct.Standings {
			if _, err := tx.ExecContext(ctx, `INSERT INTO standings
				(team_id, position, name, played, won, draw, lost, points_won, points_lost, is_own_club)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				teamID, r.Position, r.Name, r.Played, r.Won, r.Draw, r.Lost, r.PointsWon, r.PointsLost, r.IsOwnClub); err != nil {
				return fmt.Errorf("inserting standing %q: %w", r.Name, err)
			}
		}

		for _, f := range ct.Fixtures {
			if _, err := tx.ExecContext(ctx, `INSERT INTO fixtures
				(team_id, own_team, opponent, plays_at_home, round_number, date, start_time, attendance,
				 court_surface, result, status, catch_up, comment)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				teamID, f.OwnTeam, f.Opponent, f.PlaysAtHome, f.RoundNumber, f.Date, f.StartTime, f.Attendance,
				f.CourtSurface, f.Result, f.Status, f.CatchUp, f.Comment); err != nil {
				return fmt.Errorf("inserting fixture %s-%s: %w", f.OwnTeam, f.Opponent, err)
			}
		}
		return nil
	})
}

func (s *SQLite) PlayerRating(ctx context.Context, number int, name string, r player.Rating) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO ratings
		(run_id, player, name, current_singles, current_doubles, prior_year_singles, prior_year_doubles,
		 year_end_singles, year_end_doubles)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID, number, name, r.CurrentSingles, r.CurrentDoubles, r.PriorYearSingles, r.PriorYearDoubles,
		r.YearEndSingles, r.YearEndDoubles)
	if err != nil {
		return fmt.Errorf("inserting rating for %d: %w", number, err)
	}
	return nil
}

func (s *SQLite) PlayerMatches(ctx context.Context, number int, records []player.MatchRecord) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO matches
			(run_id, player, match_id, date, event_name, is_tournament, match_type, category, home_club, away_club,
			 rating_delta, rating_at_start, partner, opponent1, opponent2, is_home_player, outcome, score)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing match insert: %w", err)
		}
		defer stmt.Close() // nolint:errcheck

		for _, m := range records {
			if _, err := stmt.ExecContext(ctx,
				s.runID, number, m.ID(), m.Date, m.EventName, m.IsTournament, string(m.MatchType),
				nullable(m.Category), nullable(m.HomeClub), nullable(m.AwayClub),
				nullable(m.RatingDelta), nullable(m.RatingAtStart),
				nullable(m.Partner), m.Opponent1, nullable(m.Opponent2),
				m.IsHomePlayer, m.Outcome, m.Score); err != nil {
				return fmt.Errorf("inserting match %s: %w", m.ID(), err)
			}
		}
		return nil
	})
}

func (s *SQLite) InvalidPlayer(ctx context.Context, number int) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO invalid_players (run_id, player) VALUES (?, ?)`, s.runID, number); err != nil {
		return fmt.Errorf("inserting invalid player %d: %w", number, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback() // nolint:errcheck
		return err
	}
	return tx.Commit()
}

// nullable stores an absent optional field as NULL, not as "".
func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/league"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// PostgresStore handles database operations
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and makes sure the schema exists
func NewPostgresStore(ctx context.Context, dbURL string, maxConns int32) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing database URL: %w", err)
	}

	if maxConns > 0 {
		config.MaxConns = maxConns
	}
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	store := &PostgresStore{pool: pool}

	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error initializing schema: %w", err)
	}

	slog.Info("connected to PostgreSQL database")
	return store, nil
}

// initSchema creates the necessary tables
func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS leagues (
			id UUID PRIMARY KEY,
			user_id VARCHAR(100) NOT NULL UNIQUE,
			weeks INTEGER NOT NULL DEFAULT 0,
			current_week INTEGER NOT NULL DEFAULT 0,
			status VARCHAR(30) NOT NULL,
			good_emotion INTEGER NOT NULL DEFAULT 0,
			bad_emotion INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS teams (
			id SERIAL PRIMARY KEY,
			league_id UUID NOT NULL REFERENCES leagues(id) ON DELETE CASCADE,
			name VARCHAR(100) NOT NULL,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			is_user BOOLEAN NOT NULL DEFAULT FALSE
		);

		CREATE INDEX IF NOT EXISTS idx_teams_league ON teams(league_id);

		CREATE TABLE IF NOT EXISTS players (
			id SERIAL PRIMARY KEY,
			team_id INTEGER NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
			name VARCHAR(100) NOT NULL,
			age INTEGER NOT NULL,
			height INTEGER NOT NULL,
			position VARCHAR(2) NOT NULL,
			rating INTEGER NOT NULL,
			tendency VARCHAR(20) NOT NULL,
			is_starter BOOLEAN NOT NULL DEFAULT FALSE
		);

		CREATE INDEX IF NOT EXISTS idx_players_team ON players(team_id);

		CREATE TABLE IF NOT EXISTS fixtures (
			id SERIAL PRIMARY KEY,
			league_id UUID NOT NULL REFERENCES leagues(id) ON DELETE CASCADE,
			week INTEGER NOT NULL,
			home_team_id INTEGER NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
			away_team_id INTEGER NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
			game_date TIMESTAMPTZ NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			is_user_game BOOLEAN NOT NULL DEFAULT FALSE,
			home_score INTEGER,
			away_score INTEGER,
			winner_id INTEGER,
			phase VARCHAR(10) NOT NULL DEFAULT 'REGULAR'
		);

		CREATE INDEX IF NOT EXISTS idx_fixtures_league_week ON fixtures(league_id, week);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// CreateLeague inserts the league, its teams and their rosters in one
// transaction
func (s *PostgresStore) CreateLeague(ctx context.Context, l *models.League) error {
	return wrapErr(s.createLeague(ctx, l))
}

func (s *PostgresStore) createLeague(ctx context.Context, l *models.League) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO leagues (id, user_id, weeks, current_week, status, good_emotion, bad_emotion, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, l.ID, l.UserID, l.Weeks, l.CurrentWeek, l.Status, l.Morale.Good, l.Morale.Bad, l.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: league for user %s", league.ErrAlreadyExists, l.UserID)
		}
		return err
	}

	for i := range l.Teams {
		t := &l.Teams[i]
		err := tx.QueryRow(ctx, `
			INSERT INTO teams (league_id, name, wins, losses, is_user)
			VALUES ($1, $2, $3, $4, $5) RETURNING id
		`, l.ID, t.Name, t.Wins, t.Losses, t.IsUser).Scan(&t.ID)
		if err != nil {
			return err
		}
		if t.IsUser {
			l.UserTeamID = t.ID
		}

		batch := &pgx.Batch{}
		for _, p := range t.Roster {
			batch.Queue(`
				INSERT INTO players (team_id, name, age, height, position, rating, tendency, is_starter)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id
			`, t.ID, p.Name, p.Age, p.Height, p.Position, p.Rating, p.Tendency, p.Starter)
		}
		br := tx.SendBatch(ctx, batch)
		for j := range t.Roster {
			if err := br.QueryRow().Scan(&t.Roster[j].ID); err != nil {
				br.Close()
				return err
			}
			t.Roster[j].TeamID = t.ID
		}
		if err := br.Close(); err != nil {
			return err
		}
	}

	if err := insertFixtures(ctx, tx, l.ID, l.Fixtures); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetLeague loads the user's league with teams, rosters and fixtures
func (s *PostgresStore) GetLeague(ctx context.Context, userID string) (*models.League, error) {
	l, err := s.loadLeague(ctx, `WHERE user_id = $1`, userID)
	return l, wrapErr(err)
}

// GetLeagueByFixture loads the league that owns a fixture
func (s *PostgresStore) GetLeagueByFixture(ctx context.Context, fixtureID int) (*models.League, error) {
	l, err := s.loadLeague(ctx, `WHERE id = (SELECT league_id FROM fixtures WHERE id = $1)`, fixtureID)
	return l, wrapErr(err)
}

// GetLeagueByTeam loads the league a team plays in
func (s *PostgresStore) GetLeagueByTeam(ctx context.Context, teamID int) (*models.League, error) {
	l, err := s.loadLeague(ctx, `WHERE id = (SELECT league_id FROM teams WHERE id = $1)`, teamID)
	return l, wrapErr(err)
}

func (s *PostgresStore) loadLeague(ctx context.Context, where string, arg any) (*models.League, error) {
	var l models.League
	err := s.pool.QueryRow(ctx, `
		SELECT id::text, user_id, weeks, current_week, status, good_emotion, bad_emotion, created_at
		FROM leagues `+where, arg).Scan(
		&l.ID, &l.UserID, &l.Weeks, &l.CurrentWeek, &l.Status, &l.Morale.Good, &l.Morale.Bad, &l.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: league for %v", league.ErrNotFound, arg)
	}
	if err != nil {
		return nil, err
	}

	teams, err := s.queryTeams(ctx, `WHERE league_id = $1 ORDER BY id`, l.ID)
	if err != nil {
		return nil, err
	}
	l.Teams = teams
	for _, t := range teams {
		if t.IsUser {
			l.UserTeamID = t.ID
		}
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, league_id::text, week, home_team_id, away_team_id, game_date, completed,
		       is_user_game, home_score, away_score, winner_id, phase
		FROM fixtures WHERE league_id = $1 ORDER BY week, id
	`, l.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var f models.Fixture
		err := rows.Scan(&f.ID, &f.LeagueID, &f.Week, &f.HomeTeamID, &f.AwayTeamID, &f.Date, &f.Completed,
			&f.IsUserGame, &f.HomeScore, &f.AwayScore, &f.WinnerID, &f.Phase)
		if err != nil {
			return nil, err
		}
		l.Fixtures = append(l.Fixtures, &f)
	}
	return &l, rows.Err()
}

// queryTeams loads teams and their rosters
func (s *PostgresStore) queryTeams(ctx context.Context, where string, arg any) ([]models.Team, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, wins, losses, is_user FROM teams `+where, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Wins, &t.Losses, &t.IsUser); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range teams {
		players, err := s.queryPlayers(ctx, teams[i].ID)
		if err != nil {
			return nil, err
		}
		teams[i].Roster = players
	}
	return teams, nil
}

// ListLeagueOwners returns every user with a league
func (s *PostgresStore) ListLeagueOwners(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT user_id FROM leagues ORDER BY user_id`)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	owners := make([]string, 0)
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, wrapErr(err)
		}
		owners = append(owners, userID)
	}
	return owners, wrapErr(rows.Err())
}

// DeleteLeague removes the league; teams, players and fixtures cascade
func (s *PostgresStore) DeleteLeague(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM leagues WHERE user_id = $1`, userID)
	return wrapErr(err)
}

// SaveFixtures inserts fixtures and assigns their IDs
func (s *PostgresStore) SaveFixtures(ctx context.Context, leagueID string, fixtures []*models.Fixture) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return wrapErr(err)
	}
	defer tx.Rollback(ctx)

	if err := insertFixtures(ctx, tx, leagueID, fixtures); err != nil {
		return wrapErr(err)
	}
	return wrapErr(tx.Commit(ctx))
}

func insertFixtures(ctx context.Context, tx pgx.Tx, leagueID string, fixtures []*models.Fixture) error {
	if len(fixtures) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, f := range fixtures {
		batch.Queue(`
			INSERT INTO fixtures (league_id, week, home_team_id, away_team_id, game_date, completed,
			                      is_user_game, home_score, away_score, winner_id, phase)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id
		`, leagueID, f.Week, f.HomeTeamID, f.AwayTeamID, f.Date, f.Completed,
			f.IsUserGame, f.HomeScore, f.AwayScore, f.WinnerID, f.Phase)
	}

	br := tx.SendBatch(ctx, batch)
	for _, f := range fixtures {
		if err := br.QueryRow().Scan(&f.ID); err != nil {
			br.Close()
			return err
		}
		f.LeagueID = leagueID
	}
	return br.Close()
}

// DeleteFixtures drops the league's schedule
func (s *PostgresStore) DeleteFixtures(ctx context.Context, leagueID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM fixtures WHERE league_id = $1`, leagueID)
	return wrapErr(err)
}

// CompleteFixture records a final score together with the team records and
// morale in one transaction. The conditional update makes the first caller
// win.
func (s *PostgresStore) CompleteFixture(ctx context.Context, r models.FixtureResult) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return wrapErr(err)
	}
	defer tx.Rollback(ctx)

	if err := completeFixture(ctx, tx, r); err != nil {
		return wrapErr(err)
	}
	return wrapErr(tx.Commit(ctx))
}

func completeFixture(ctx context.Context, tx pgx.Tx, r models.FixtureResult) error {
	var leagueID string
	err := tx.QueryRow(ctx, `
		UPDATE fixtures
		SET completed = TRUE, home_score = $2, away_score = $3, winner_id = $4
		WHERE id = $1 AND NOT completed
		RETURNING league_id::text
	`, r.FixtureID, r.HomeScore, r.AwayScore, r.WinnerID).Scan(&leagueID)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM fixtures WHERE id = $1)`, r.FixtureID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: fixture %d", league.ErrNotFound, r.FixtureID)
		}
		return fmt.Errorf("%w: fixture %d", league.ErrAlreadyCompleted, r.FixtureID)
	}
	if err != nil {
		return err
	}

	if r.WinnerID != nil {
		if r.LoserID == nil {
			return fmt.Errorf("%w: fixture %d has a winner but no loser", league.ErrPreconditionFailed, r.FixtureID)
		}
		err := execOne(ctx, tx, fmt.Sprintf("team %d in league %s", *r.WinnerID, leagueID),
			`UPDATE teams SET wins = wins + 1 WHERE id = $1 AND league_id = $2`, *r.WinnerID, leagueID)
		if err != nil {
			return err
		}
		err = execOne(ctx, tx, fmt.Sprintf("team %d in league %s", *r.LoserID, leagueID),
			`UPDATE teams SET losses = losses + 1 WHERE id = $1 AND league_id = $2`, *r.LoserID, leagueID)
		if err != nil {
			return err
		}
	}

	if r.Morale != nil {
		return execOne(ctx, tx, fmt.Sprintf("league %s", leagueID),
			`UPDATE leagues SET good_emotion = $2, bad_emotion = $3 WHERE id = $1`, leagueID, r.Morale.Good, r.Morale.Bad)
	}
	return nil
}

// UpdateLeagueProgress stores the week pointer and season status
func (s *PostgresStore) UpdateLeagueProgress(ctx context.Context, leagueID string, week int, status models.LeagueStatus) error {
	return wrapErr(execOne(ctx, s.pool, fmt.Sprintf("league %s", leagueID),
		`UPDATE leagues SET current_week = $2, status = $3 WHERE id = $1`, leagueID, week, status))
}

// UpdateMorale stores the coach's morale
func (s *PostgresStore) UpdateMorale(ctx context.Context, leagueID string, m models.Morale) error {
	return wrapErr(execOne(ctx, s.pool, fmt.Sprintf("league %s", leagueID),
		`UPDATE leagues SET good_emotion = $2, bad_emotion = $3 WHERE id = $1`, leagueID, m.Good, m.Bad))
}

// UpdateRecord adds one win or loss to a team
func (s *PostgresStore) UpdateRecord(ctx context.Context, teamID int, outcome models.Outcome) error {
	var query string
	switch outcome {
	case models.OutcomeWin:
		query = `UPDATE teams SET wins = wins + 1 WHERE id = $1`
	case models.OutcomeLoss:
		query = `UPDATE teams SET losses = losses + 1 WHERE id = $1`
	default:
		return fmt.Errorf("%w: unknown outcome %q", league.ErrPreconditionFailed, outcome)
	}
	return wrapErr(execOne(ctx, s.pool, fmt.Sprintf("team %d", teamID), query, teamID))
}

// ResetRecords zeroes every team record in a league
func (s *PostgresStore) ResetRecords(ctx context.Context, leagueID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE teams SET wins = 0, losses = 0 WHERE league_id = $1`, leagueID)
	return wrapErr(err)
}

// GetTeam returns a team with its roster
func (s *PostgresStore) GetTeam(ctx context.Context, teamID int) (*models.Team, error) {
	teams, err := s.queryTeams(ctx, `WHERE id = $1`, teamID)
	if err != nil {
		return nil, wrapErr(err)
	}
	if len(teams) == 0 {
		return nil, fmt.Errorf("%w: team %d", league.ErrNotFound, teamID)
	}
	return &teams[0], nil
}

// GetPlayersByTeam returns a team's roster in insertion order
func (s *PostgresStore) GetPlayersByTeam(ctx context.Context, teamID int) ([]models.Player, error) {
	players, err := s.queryPlayers(ctx, teamID)
	return players, wrapErr(err)
}

func (s *PostgresStore) queryPlayers(ctx context.Context, teamID int) ([]models.Player, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, team_id, name, age, height, position, rating, tendency, is_starter
		FROM players WHERE team_id = $1 ORDER BY id
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		var p models.Player
		err := rows.Scan(&p.ID, &p.TeamID, &p.Name, &p.Age, &p.Height, &p.Position, &p.Rating, &p.Tendency, &p.Starter)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// SaveLineup flags exactly the named players as starters
func (s *PostgresStore) SaveLineup(ctx context.Context, teamID int, starters []string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE players SET is_starter = (name = ANY($2)) WHERE team_id = $1`, teamID, starters)
	if err != nil {
		return wrapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: team %d", league.ErrNotFound, teamID)
	}
	return nil
}

// Ping checks the connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", league.ErrDataUnavailable, err)
	}
	return nil
}

// Close closes the database connection pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// execer is satisfied by both the pool and a transaction
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func execOne(ctx context.Context, db execer, what, query string, args ...any) error {
	tag, err := db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("%w: %s", league.ErrNotFound, what)
	}
	return nil
}

// wrapErr reports failures to reach the database as league.ErrDataUnavailable.
// Query errors from the server, missing rows and errors that already carry a
// league sentinel pass through unchanged.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr),
		errors.Is(err, pgx.ErrNoRows),
		errors.Is(err, context.Canceled),
		errors.Is(err, league.ErrNotFound),
		errors.Is(err, league.ErrAlreadyExists),
		errors.Is(err, league.ErrAlreadyCompleted),
		errors.Is(err, league.ErrPreconditionFailed),
		errors.Is(err, league.ErrDataUnavailable):
		return err
	}
	return fmt.Errorf("%w: %w", league.ErrDataUnavailable, err)
}

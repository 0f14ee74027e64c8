package storage

import (
	"context"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/models"
)

// Store is the league data source. Both implementations report missing rows
// as league.ErrNotFound, duplicate leagues as league.ErrAlreadyExists and an
// unreachable backend as league.ErrDataUnavailable.
type Store interface {
	// CreateLeague inserts a league with its teams and rosters, assigning
	// team and player IDs in place.
	CreateLeague(ctx context.Context, l *models.League) error
	// GetLeague loads the user's league with teams, rosters and fixtures
	GetLeague(ctx context.Context, userID string) (*models.League, error)
	GetLeagueByFixture(ctx context.Context, fixtureID int) (*models.League, error)
	GetLeagueByTeam(ctx context.Context, teamID int) (*models.League, error)
	ListLeagueOwners(ctx context.Context) ([]string, error)
	DeleteLeague(ctx context.Context, userID string) error

	// SaveFixtures inserts fixtures and assigns their IDs in place
	SaveFixtures(ctx context.Context, leagueID string, fixtures []*models.Fixture) error
	DeleteFixtures(ctx context.Context, leagueID string) error
	// CompleteFixture records a final score, the winner's win, the loser's
	// loss and any morale change in one atomic write, exactly once. Later
	// calls get league.ErrAlreadyCompleted.
	CompleteFixture(ctx context.Context, r models.FixtureResult) error
	UpdateLeagueProgress(ctx context.Context, leagueID string, week int, status models.LeagueStatus) error
	UpdateMorale(ctx context.Context, leagueID string, m models.Morale) error

	UpdateRecord(ctx context.Context, teamID int, outcome models.Outcome) error
	ResetRecords(ctx context.Context, leagueID string) error
	GetTeam(ctx context.Context, teamID int) (*models.Team, error)

	GetPlayersByTeam(ctx context.Context, teamID int) ([]models.Player, error)
	// SaveLineup marks exactly the named players as starters
	SaveLineup(ctx context.Context, teamID int, starters []string) error

	Ping(ctx context.Context) error
	Close()
}

func cloneLeague(l *models.League) *models.League {
	cp := *l
	cp.Teams = make([]models.Team, len(l.Teams))
	for i, t := range l.Teams {
		cp.Teams[i] = cloneTeam(t)
	}
	cp.Fixtures = make([]*models.Fixture, len(l.Fixtures))
	for i, f := range l.Fixtures {
		cp.Fixtures[i] = cloneFixture(f)
	}
	return &cp
}

func cloneTeam(t models.Team) models.Team {
	t.Roster = append([]models.Player(nil), t.Roster...)
	return t
}

func cloneFixture(f *models.Fixture) *models.Fixture {
	cp := *f
	cp.HomeScore = cloneInt(f.HomeScore)
	cp.AwayScore = cloneInt(f.AwayScore)
	cp.WinnerID = cloneInt(f.WinnerID)
	return &cp
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

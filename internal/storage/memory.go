package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/league"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/models"
)

// MemoryStore keeps leagues in process memory. Reads return deep copies so
// callers never share state with the store.
type MemoryStore struct {
	leagues map[string]*models.League // userID -> league
	byID    map[string]string         // leagueID -> userID
	teams   map[int]string            // teamID -> userID
	fixture map[int]string            // fixtureID -> userID

	nextTeam    int
	nextPlayer  int
	nextFixture int

	mu sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		leagues: make(map[string]*models.League),
		byID:    make(map[string]string),
		teams:   make(map[int]string),
		fixture: make(map[int]string),
	}
}

// CreateLeague stores a new league for its user
func (s *MemoryStore) CreateLeague(_ context.Context, l *models.League) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.leagues[l.UserID]; ok {
		return fmt.Errorf("%w: league for user %s", league.ErrAlreadyExists, l.UserID)
	}

	for i := range l.Teams {
		t := &l.Teams[i]
		s.nextTeam++
		t.ID = s.nextTeam
		if t.IsUser {
			l.UserTeamID = t.ID
		}
		for j := range t.Roster {
			s.nextPlayer++
			t.Roster[j].ID = s.nextPlayer
			t.Roster[j].TeamID = t.ID
		}
		s.teams[t.ID] = l.UserID
	}

	for _, f := range l.Fixtures {
		s.nextFixture++
		f.ID = s.nextFixture
		f.LeagueID = l.ID
		s.fixture[f.ID] = l.UserID
	}
	s.leagues[l.UserID] = cloneLeague(l)
	s.byID[l.ID] = l.UserID
	return nil
}

// GetLeague returns the user's league
func (s *MemoryStore) GetLeague(_ context.Context, userID string) (*models.League, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.leagues[userID]
	if !ok {
		return nil, fmt.Errorf("%w: league for user %s", league.ErrNotFound, userID)
	}
	return cloneLeague(l), nil
}

// GetLeagueByFixture returns the league that owns a fixture
func (s *MemoryStore) GetLeagueByFixture(ctx context.Context, fixtureID int) (*models.League, error) {
	s.mu.RLock()
	userID, ok := s.fixture[fixtureID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: fixture %d", league.ErrNotFound, fixtureID)
	}
	return s.GetLeague(ctx, userID)
}

// GetLeagueByTeam returns the league a team plays in
func (s *MemoryStore) GetLeagueByTeam(ctx context.Context, teamID int) (*models.League, error) {
	s.mu.RLock()
	userID, ok := s.teams[teamID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: team %d", league.ErrNotFound, teamID)
	}
	return s.GetLeague(ctx, userID)
}

// ListLeagueOwners returns every user with a league, sorted
func (s *MemoryStore) ListLeagueOwners(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owners := make([]string, 0, len(s.leagues))
	for userID := range s.leagues {
		owners = append(owners, userID)
	}
	sort.Strings(owners)
	return owners, nil
}

// DeleteLeague removes the user's league and everything in it. Deleting a
// missing league is not an error.
func (s *MemoryStore) DeleteLeague(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.leagues[userID]
	if !ok {
		return nil
	}
	for _, t := range l.Teams {
		delete(s.teams, t.ID)
	}
	for _, f := range l.Fixtures {
		delete(s.fixture, f.ID)
	}
	delete(s.byID, l.ID)
	delete(s.leagues, userID)
	return nil
}

// SaveFixtures appends fixtures to a league
func (s *MemoryStore) SaveFixtures(_ context.Context, leagueID string, fixtures []*models.Fixture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.leagueByIDLocked(leagueID)
	if err != nil {
		return err
	}
	for _, f := range fixtures {
		s.nextFixture++
		f.ID = s.nextFixture
		f.LeagueID = leagueID
		l.Fixtures = append(l.Fixtures, cloneFixture(f))
		s.fixture[f.ID] = l.UserID
	}
	return nil
}

// DeleteFixtures drops the league's schedule
func (s *MemoryStore) DeleteFixtures(_ context.Context, leagueID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.leagueByIDLocked(leagueID)
	if err != nil {
		return err
	}
	for _, f := range l.Fixtures {
		delete(s.fixture, f.ID)
	}
	l.Fixtures = nil
	return nil
}

// CompleteFixture records a final score with its record and morale effects.
// Everything is checked before anything changes.
func (s *MemoryStore) CompleteFixture(_ context.Context, r models.FixtureResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.fixture[r.FixtureID]
	if !ok {
		return fmt.Errorf("%w: fixture %d", league.ErrNotFound, r.FixtureID)
	}
	l := s.leagues[userID]
	f := l.Fixture(r.FixtureID)
	if f.Completed {
		return fmt.Errorf("%w: fixture %d", league.ErrAlreadyCompleted, r.FixtureID)
	}

	var winner, loser *models.Team
	if r.WinnerID != nil {
		if r.LoserID == nil {
			return fmt.Errorf("%w: fixture %d has a winner but no loser", league.ErrPreconditionFailed, r.FixtureID)
		}
		winner, loser = l.Team(*r.WinnerID), l.Team(*r.LoserID)
		if winner == nil || loser == nil {
			return fmt.Errorf("%w: fixture %d result names a team outside its league", league.ErrNotFound, r.FixtureID)
		}
	}

	f.Completed = true
	f.HomeScore = cloneInt(&r.HomeScore)
	f.AwayScore = cloneInt(&r.AwayScore)
	f.WinnerID = cloneInt(r.WinnerID)
	if winner != nil {
		winner.Wins++
		loser.Losses++
	}
	if r.Morale != nil {
		l.Morale = *r.Morale
	}
	return nil
}

// UpdateLeagueProgress stores the week pointer and season status
func (s *MemoryStore) UpdateLeagueProgress(_ context.Context, leagueID string, week int, status models.LeagueStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.leagueByIDLocked(leagueID)
	if err != nil {
		return err
	}
	l.CurrentWeek = week
	l.Status = status
	return nil
}

// UpdateMorale stores the coach's morale
func (s *MemoryStore) UpdateMorale(_ context.Context, leagueID string, m models.Morale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.leagueByIDLocked(leagueID)
	if err != nil {
		return err
	}
	l.Morale = m
	return nil
}

// UpdateRecord adds one win or loss to a team
func (s *MemoryStore) UpdateRecord(_ context.Context, teamID int, outcome models.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.teamLocked(teamID)
	if err != nil {
		return err
	}
	switch outcome {
	case models.OutcomeWin:
		t.Wins++
	case models.OutcomeLoss:
		t.Losses++
	default:
		return fmt.Errorf("%w: unknown outcome %q", league.ErrPreconditionFailed, outcome)
	}
	return nil
}

// ResetRecords zeroes every team record in a league
func (s *MemoryStore) ResetRecords(_ context.Context, leagueID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.leagueByIDLocked(leagueID)
	if err != nil {
		return err
	}
	for i := range l.Teams {
		l.Teams[i].Wins, l.Teams[i].Losses = 0, 0
	}
	return nil
}

// GetTeam returns a team with its roster
func (s *MemoryStore) GetTeam(_ context.Context, teamID int) (*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.teamLocked(teamID)
	if err != nil {
		return nil, err
	}
	cp := cloneTeam(*t)
	return &cp, nil
}

// GetPlayersByTeam returns a team's roster
func (s *MemoryStore) GetPlayersByTeam(_ context.Context, teamID int) ([]models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.teamLocked(teamID)
	if err != nil {
		return nil, err
	}
	return append([]models.Player(nil), t.Roster...), nil
}

// SaveLineup flags the named players as the starting five
func (s *MemoryStore) SaveLineup(_ context.Context, teamID int, starters []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.teamLocked(teamID)
	if err != nil {
		return err
	}
	names := make(map[string]bool, len(starters))
	for _, n := range starters {
		names[n] = true
	}
	for i := range t.Roster {
		t.Roster[i].Starter = names[t.Roster[i].Name]
	}
	return nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() {}

func (s *MemoryStore) leagueByIDLocked(leagueID string) (*models.League, error) {
	userID, ok := s.byID[leagueID]
	if !ok {
		return nil, fmt.Errorf("%w: league %s", league.ErrNotFound, leagueID)
	}
	return s.leagues[userID], nil
}

func (s *MemoryStore) teamLocked(teamID int) (*models.Team, error) {
	userID, ok := s.teams[teamID]
	if !ok {
		return nil, fmt.Errorf("%w: team %d", league.ErrNotFound, teamID)
	}
	t := s.leagues[userID].Team(teamID)
	if t == nil {
		return nil, fmt.Errorf("%w: team %d", league.ErrNotFound, teamID)
	}
	return t, nil
}

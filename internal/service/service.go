package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/league"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/models"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/roster"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/storage"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// DefaultUserTeamName is used when setup names no team
const DefaultUserTeamName = "Imagine"

// AITeamNames are the computer-controlled clubs in every league
var AITeamNames = []string{
	"Riverlake Eagles",
	"Storm Breakers",
	"Red Dragons",
	"Wolverines",
	"Golden Tigers",
}

// InitialMorale is the coach's mood in a new league
var InitialMorale = models.Morale{Good: 75, Bad: 25}

// Emitter receives committed league changes
type Emitter interface {
	FixtureCompleted(l *models.League, f *models.Fixture)
	WeekAdvanced(l *models.League)
	PlayoffsGenerated(l *models.League, f *models.Fixture)
}

type noopEmitter struct{}

func (noopEmitter) FixtureCompleted(*models.League, *models.Fixture)  {}
func (noopEmitter) WeekAdvanced(*models.League)                       {}
func (noopEmitter) PlayoffsGenerated(*models.League, *models.Fixture) {}

// UserTeam is the user's club with the season context around it
type UserTeam struct {
	models.Team
	LeagueID    string              `json:"leagueId"`
	CurrentWeek int                 `json:"currentWeek"`
	Status      models.LeagueStatus `json:"status"`
	Morale      models.Morale       `json:"morale"`
}

// ScheduleView is the league schedule grouped by week
type ScheduleView struct {
	LeagueID    string              `json:"leagueId"`
	Weeks       league.Schedule     `json:"schedule"`
	TotalWeeks  int                 `json:"totalWeeks"`
	CurrentWeek int                 `json:"currentWeek"`
	Status      models.LeagueStatus `json:"status"`
}

// Matchup is a fixture with both teams resolved
type Matchup struct {
	Fixture  *models.Fixture `json:"game"`
	HomeTeam *models.Team    `json:"homeTeam"`
	AwayTeam *models.Team    `json:"awayTeam"`
}

// GameResult is a committed final score and the table after it
type GameResult struct {
	Fixture   *models.Fixture   `json:"game"`
	Standings []league.Standing `json:"standings"`
}

// WeekResult reports a simulate or advance call
type WeekResult struct {
	Week        int                 `json:"week"`
	Played      []*models.Fixture   `json:"played"`
	Advanced    bool                `json:"advanced"`
	CurrentWeek int                 `json:"currentWeek"`
	Status      models.LeagueStatus `json:"status"`
}

// Service runs user leagues on top of a Store
type Service struct {
	store    storage.Store
	sim      league.GameSimulator
	emitter  Emitter
	clock    clockwork.Clock
	legs     int
	parallel int

	rng   *rand.Rand
	rngMu sync.Mutex

	locks   map[string]*sync.Mutex
	locksMu sync.Mutex
}

// Option customizes a Service
type Option func(*Service)

// WithEmitter publishes committed changes
func WithEmitter(e Emitter) Option {
	return func(s *Service) {
		if e != nil {
			s.emitter = e
		}
	}
}

// WithClock sets the clock used for league creation and season dates
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLegs sets how many times each pairing is played in the regular season
func WithLegs(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.legs = n
		}
	}
}

// WithParallelism bounds concurrent AI games per week
func WithParallelism(n int) Option {
	return func(s *Service) { s.parallel = n }
}

// WithSeed makes roster generation reproducible
func WithSeed(seed int64) Option {
	return func(s *Service) { s.rng = rand.New(rand.NewSource(seed)) }
}

// New creates a league service
func New(store storage.Store, sim league.GameSimulator, opts ...Option) *Service {
	s := &Service{
		store:    store,
		sim:      sim,
		emitter:  noopEmitter{},
		clock:    clockwork.NewRealClock(),
		legs:     1,
		parallel: league.DefaultParallelism,
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(s.clock.Now().UnixNano()))
	}
	return s
}

// lock serializes season changes for one user
func (s *Service) lock(userID string) func() {
	s.locksMu.Lock()
	m, ok := s.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[userID] = m
	}
	s.locksMu.Unlock()

	m.Lock()
	return m.Unlock
}

// SetupLeague creates the user's league: their team plus the AI clubs, each
// with a generated roster. The schedule is generated separately.
func (s *Service) SetupLeague(ctx context.Context, userID, teamName string) (*models.League, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", league.ErrPreconditionFailed)
	}
	if teamName == "" {
		teamName = DefaultUserTeamName
	}

	unlock := s.lock(userID)
	defer unlock()

	names := append([]string{teamName}, AITeamNames...)
	teams := make([]models.Team, len(names))

	s.rngMu.Lock()
	for i, name := range names {
		teams[i] = models.Team{
			Name:   name,
			IsUser: i == 0,
			Roster: roster.Generate(s.rng, 0),
		}
	}
	s.rngMu.Unlock()

	l := &models.League{
		ID:        uuid.New().String(),
		UserID:    userID,
		Teams:     teams,
		Weeks:     s.legs * (len(teams) - 1),
		Status:    models.StatusRegularSeason,
		Morale:    InitialMorale,
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.CreateLeague(ctx, l); err != nil {
		return nil, err
	}

	slog.Info("league created", "user", userID, "league", l.ID, "teams", len(teams))
	return l, nil
}

// ResetLeague deletes the user's league and everything in it
func (s *Service) ResetLeague(ctx context.Context, userID string) error {
	unlock := s.lock(userID)
	defer unlock()

	if err := s.store.DeleteLeague(ctx, userID); err != nil {
		return err
	}
	slog.Info("league deleted", "user", userID)
	return nil
}

// GetUserTeam returns the user's team with morale and season status
func (s *Service) GetUserTeam(ctx context.Context, userID string) (*UserTeam, error) {
	l, err := s.store.GetLeague(ctx, userID)
	if err != nil {
		return nil, err
	}
	t := l.UserTeam()
	if t == nil {
		return nil, fmt.Errorf("%w: league %s has no user team", league.ErrNotFound, l.ID)
	}
	return &UserTeam{
		Team:        *t,
		LeagueID:    l.ID,
		CurrentWeek: l.CurrentWeek,
		Status:      l.Status,
		Morale:      l.Morale,
	}, nil
}

// GetStandings ranks the user's league by the stored team records, so
// manual record changes show up in the table
func (s *Service) GetStandings(ctx context.Context, userID string) ([]league.Standing, error) {
	l, err := s.store.GetLeague(ctx, userID)
	if err != nil {
		return nil, err
	}
	return league.RecordStandings(l.Teams, l.Fixtures), nil
}

// UpdateRecord adds a win or a loss to a team directly
func (s *Service) UpdateRecord(ctx context.Context, teamID int, outcome models.Outcome) (*models.Team, error) {
	if outcome != models.OutcomeWin && outcome != models.OutcomeLoss {
		return nil, fmt.Errorf("%w: result must be %q or %q", league.ErrPreconditionFailed, models.OutcomeWin, models.OutcomeLoss)
	}
	if err := s.store.UpdateRecord(ctx, teamID, outcome); err != nil {
		return nil, err
	}
	return s.store.GetTeam(ctx, teamID)
}

// GenerateSchedule builds the regular season. A league that already has
// fixtures must be reset first.
func (s *Service) GenerateSchedule(ctx context.Context, userID string) (*ScheduleView, error) {
	unlock := s.lock(userID)
	defer unlock()

	l, err := s.store.GetLeague(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(l.Fixtures) > 0 {
		return nil, fmt.Errorf("%w: league %s already has a schedule", league.ErrAlreadyExists, l.ID)
	}
	return s.generateLocked(ctx, l)
}

func (s *Service) generateLocked(ctx context.Context, l *models.League) (*ScheduleView, error) {
	weeks := l.Weeks
	if weeks <= 0 {
		weeks = s.legs * (len(l.Teams) - 1)
	}

	sched, err := league.GenerateRoundRobin(l.Teams, weeks, s.clock.Now())
	if err != nil {
		return nil, err
	}
	fixtures := sched.Fixtures()
	if err := s.store.SaveFixtures(ctx, l.ID, fixtures); err != nil {
		return nil, err
	}
	if err := s.store.UpdateLeagueProgress(ctx, l.ID, 1, models.StatusRegularSeason); err != nil {
		return nil, err
	}

	l.Fixtures = fixtures
	l.Weeks, l.CurrentWeek, l.Status = weeks, 1, models.StatusRegularSeason

	slog.Info("schedule generated", "user", l.UserID, "league", l.ID, "weeks", weeks, "fixtures", len(fixtures))
	return scheduleView(l), nil
}

// GetSchedule returns every fixture grouped by week
func (s *Service) GetSchedule(ctx context.Context, userID string) (*ScheduleView, error) {
	l, err := s.store.GetLeague(ctx, userID)
	if err != nil {
		return nil, err
	}
	return scheduleView(l), nil
}

// GetNextGame returns the user's earliest open fixture
func (s *Service) GetNextGame(ctx context.Context, userID string) (*Matchup, error) {
	l, err := s.store.GetLeague(ctx, userID)
	if err != nil {
		return nil, err
	}

	var next *models.Fixture
	for _, f := range l.Fixtures {
		if f.Completed || !f.Involves(l.UserTeamID) {
			continue
		}
		if next == nil || f.Week < next.Week || (f.Week == next.Week && f.ID < next.ID) {
			next = f
		}
	}
	if next == nil {
		return nil, fmt.Errorf("%w: no open game for user %s", league.ErrNotFound, userID)
	}
	return matchup(l, next), nil
}

// CompleteGame commits a final score and returns the updated standings
func (s *Service) CompleteGame(ctx context.Context, fixtureID, homeScore, awayScore int) (*GameResult, error) {
	owner, err := s.store.GetLeagueByFixture(ctx, fixtureID)
	if err != nil {
		return nil, err
	}

	unlock := s.lock(owner.UserID)
	defer unlock()

	ctrl, err := s.controller(ctx, owner.UserID)
	if err != nil {
		return nil, err
	}
	standings, err := ctrl.RecordUserGameResult(ctx, fixtureID, homeScore, awayScore)
	if err != nil {
		return nil, err
	}

	f := *ctrl.League().Fixture(fixtureID)
	slog.Info("game completed", "user", owner.UserID, "fixture", fixtureID, "home", homeScore, "away", awayScore)
	return &GameResult{Fixture: &f, Standings: standings}, nil
}

// SimulateWeek plays the current week's AI games and advances the week when
// nothing is left open. An open user game keeps the week where it is.
func (s *Service) SimulateWeek(ctx context.Context, userID string) (*WeekResult, error) {
	unlock := s.lock(userID)
	defer unlock()

	ctrl, err := s.controller(ctx, userID)
	if err != nil {
		return nil, err
	}
	l := ctrl.League()
	switch {
	case l.CurrentWeek == 0:
		return nil, fmt.Errorf("%w: no schedule has been generated", league.ErrPreconditionFailed)
	case l.Status == models.StatusReadyForPlayoffs:
		return nil, fmt.Errorf("%w: regular season is over, generate playoffs first", league.ErrPreconditionFailed)
	case l.Status == models.StatusComplete:
		return nil, fmt.Errorf("%w: season is complete", league.ErrPreconditionFailed)
	}

	week := l.CurrentWeek
	played, err := ctrl.SimulateRemainingAIGames(ctx, week)
	if err != nil {
		return nil, err
	}

	res := &WeekResult{Week: week, Played: played}
	if _, err := ctrl.AdvanceWeek(ctx); err != nil {
		if !errors.Is(err, league.ErrWeekIncomplete) {
			return nil, err
		}
	} else {
		res.Advanced = true
		s.emitter.WeekAdvanced(l)
	}
	res.CurrentWeek, res.Status = l.CurrentWeek, l.Status

	slog.Info("week simulated", "user", userID, "week", week, "played", len(played), "advanced", res.Advanced)
	return res, nil
}

// AdvanceWeek moves to the next week once the current one is complete
func (s *Service) AdvanceWeek(ctx context.Context, userID string) (*WeekResult, error) {
	unlock := s.lock(userID)
	defer unlock()

	ctrl, err := s.controller(ctx, userID)
	if err != nil {
		return nil, err
	}
	l := ctrl.League()
	week := l.CurrentWeek
	if _, err := ctrl.AdvanceWeek(ctx); err != nil {
		return nil, err
	}
	s.emitter.WeekAdvanced(l)

	return &WeekResult{Week: week, Advanced: true, CurrentWeek: l.CurrentWeek, Status: l.Status}, nil
}

// GeneratePlayoffs schedules the final between the top two teams
func (s *Service) GeneratePlayoffs(ctx context.Context, userID string) (*Matchup, error) {
	unlock := s.lock(userID)
	defer unlock()

	ctrl, err := s.controller(ctx, userID)
	if err != nil {
		return nil, err
	}
	f, err := ctrl.GeneratePlayoffs(ctx)
	if err != nil {
		return nil, err
	}

	l := ctrl.League()
	s.emitter.PlayoffsGenerated(l, f)
	slog.Info("playoffs generated", "user", userID, "fixture", f.ID, "home", f.HomeTeamID, "away", f.AwayTeamID)
	return matchup(l, f), nil
}

// ResetSchedule drops every fixture, zeroes the records and generates a
// fresh season
func (s *Service) ResetSchedule(ctx context.Context, userID string) (*ScheduleView, error) {
	unlock := s.lock(userID)
	defer unlock()

	l, err := s.store.GetLeague(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteFixtures(ctx, l.ID); err != nil {
		return nil, err
	}
	if err := s.store.ResetRecords(ctx, l.ID); err != nil {
		return nil, err
	}
	if err := s.store.UpdateMorale(ctx, l.ID, InitialMorale); err != nil {
		return nil, err
	}
	for i := range l.Teams {
		l.Teams[i].Wins, l.Teams[i].Losses = 0, 0
	}
	l.Morale = InitialMorale

	return s.generateLocked(ctx, l)
}

// ListLeagueOwners returns every user with a league
func (s *Service) ListLeagueOwners(ctx context.Context) ([]string, error) {
	return s.store.ListLeagueOwners(ctx)
}

// GetTeam loads a team with its roster
func (s *Service) GetTeam(ctx context.Context, teamID int) (*models.Team, error) {
	return s.store.GetTeam(ctx, teamID)
}

// GetLeague loads the user's league
func (s *Service) GetLeague(ctx context.Context, userID string) (*models.League, error) {
	return s.store.GetLeague(ctx, userID)
}

// controller loads a fresh league snapshot and wraps it
func (s *Service) controller(ctx context.Context, userID string) (*league.Controller, error) {
	l, err := s.store.GetLeague(ctx, userID)
	if err != nil {
		return nil, err
	}
	ctrl := league.NewController(l, s.store, s.sim)
	ctrl.SetParallelism(s.parallel)
	ctrl.SetOnComplete(s.emitter.FixtureCompleted)
	return ctrl, nil
}

func scheduleView(l *models.League) *ScheduleView {
	return &ScheduleView{
		LeagueID:    l.ID,
		Weeks:       league.BuildSchedule(l.Fixtures),
		TotalWeeks:  l.Weeks,
		CurrentWeek: l.CurrentWeek,
		Status:      l.Status,
	}
}

func matchup(l *models.League, f *models.Fixture) *Matchup {
	cp := *f
	m := &Matchup{Fixture: &cp}
	if t := l.Team(f.HomeTeamID); t != nil {
		home := *t
		m.HomeTeam = &home
	}
	if t := l.Team(f.AwayTeamID); t != nil {
		away := *t
		m.AwayTeam = &away
	}
	return m
}

package league

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/models"
	"golang.org/x/sync/errgroup"
)

// DefaultParallelism bounds how many AI games are simulated at once
const DefaultParallelism = 4

// Morale swings applied after each of the user team's games
const (
	moraleRise = 10
	moraleDrop = 5
	moraleMax  = 100
)

// Recorder persists season progress. CompleteFixture writes the score, both
// team records and the morale as one unit: either all of it is stored or
// none of it. The first call for a fixture wins and every later call returns
// ErrAlreadyCompleted.
type Recorder interface {
	CompleteFixture(ctx context.Context, r models.FixtureResult) error
	UpdateLeagueProgress(ctx context.Context, leagueID string, week int, status models.LeagueStatus) error
	SaveFixtures(ctx context.Context, leagueID string, fixtures []*models.Fixture) error
}

// GameSimulator plays a full game with no coach interaction
type GameSimulator interface {
	PlayHeadless(ctx context.Context, home, away *models.Team, playoff bool) (homeScore, awayScore int, err error)
}

// Controller advances one league through its season. It owns the league
// snapshot it was built with; every write goes through the Recorder first.
type Controller struct {
	league     *models.League
	recorder   Recorder
	sim        GameSimulator
	parallel   int
	onComplete func(l *models.League, f *models.Fixture)
	mu         sync.Mutex
}

// NewController creates a controller for a loaded league
func NewController(l *models.League, rec Recorder, sim GameSimulator) *Controller {
	return &Controller{
		league:   l,
		recorder: rec,
		sim:      sim,
		parallel: DefaultParallelism,
	}
}

// SetParallelism changes how many AI games may run concurrently
func (c *Controller) SetParallelism(n int) {
	if n < 1 {
		n = 1
	}
	c.parallel = n
}

// SetOnComplete sets the callback invoked after a fixture is committed
func (c *Controller) SetOnComplete(callback func(l *models.League, f *models.Fixture)) {
	c.onComplete = callback
}

// League returns the controlled league
func (c *Controller) League() *models.League {
	return c.league
}

// CurrentWeekFixtures returns copies of the fixtures in the current week
func (c *Controller) CurrentWeekFixtures() []*models.Fixture {
	c.mu.Lock()
	defer c.mu.Unlock()

	week := c.league.WeekFixtures(c.league.CurrentWeek)
	out := make([]*models.Fixture, 0, len(week))
	for _, f := range week {
		cp := *f
		out = append(out, &cp)
	}
	return out
}

// Standings ranks the teams by their records
func (c *Controller) Standings() []Standing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return RecordStandings(c.league.Teams, c.league.Fixtures)
}

// AdvanceWeek moves the week pointer once the current week is complete. The
// last regular-season week leads to the ready-for-playoffs status instead,
// and a finished playoff week completes the season.
func (c *Controller) AdvanceWeek(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	l := c.league
	switch l.Status {
	case models.StatusReadyForPlayoffs:
		return l.CurrentWeek, fmt.Errorf("%w: regular season is over, generate playoffs first", ErrPreconditionFailed)
	case models.StatusComplete:
		return l.CurrentWeek, fmt.Errorf("%w: season is complete", ErrPreconditionFailed)
	}
	if l.CurrentWeek == 0 {
		return 0, fmt.Errorf("%w: no schedule has been generated", ErrPreconditionFailed)
	}

	for _, f := range l.WeekFixtures(l.CurrentWeek) {
		if !f.Completed {
			return l.CurrentWeek, fmt.Errorf("%w: week %d fixture %d", ErrWeekIncomplete, l.CurrentWeek, f.ID)
		}
	}

	week, status := l.CurrentWeek, l.Status
	switch {
	case l.Status == models.StatusPlayoffs:
		status = models.StatusComplete
	case l.CurrentWeek >= l.Weeks:
		status = models.StatusReadyForPlayoffs
	default:
		week++
	}

	if err := c.recorder.UpdateLeagueProgress(ctx, l.ID, week, status); err != nil {
		return l.CurrentWeek, err
	}
	l.CurrentWeek, l.Status = week, status
	return week, nil
}

// GeneratePlayoffs schedules the final and moves the league into the
// playoff week.
func (c *Controller) GeneratePlayoffs(ctx context.Context) (*models.Fixture, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	l := c.league
	if l.CurrentWeek == 0 {
		return nil, fmt.Errorf("%w: no schedule has been generated", ErrPreconditionFailed)
	}

	f, err := GeneratePlayoff(l.Teams, l.Fixtures, l.Weeks)
	if err != nil {
		return nil, err
	}
	f.LeagueID = l.ID

	if err := c.recorder.SaveFixtures(ctx, l.ID, []*models.Fixture{f}); err != nil {
		return nil, err
	}
	l.Fixtures = append(l.Fixtures, f)

	week := l.Weeks + 1
	if err := c.recorder.UpdateLeagueProgress(ctx, l.ID, week, models.StatusPlayoffs); err != nil {
		return nil, err
	}
	l.CurrentWeek, l.Status = week, models.StatusPlayoffs

	cp := *f
	return &cp, nil
}

// RecordUserGameResult commits the final score of a fixture and returns the
// refreshed standings.
func (c *Controller) RecordUserGameResult(ctx context.Context, fixtureID, homeScore, awayScore int) ([]Standing, error) {
	c.mu.Lock()
	f := c.league.Fixture(fixtureID)
	switch {
	case f == nil:
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: fixture %d", ErrNotFound, fixtureID)
	case f.Completed:
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: fixture %d", ErrAlreadyCompleted, fixtureID)
	}
	c.mu.Unlock()

	if err := c.complete(ctx, f, homeScore, awayScore); err != nil {
		return nil, err
	}
	return c.Standings(), nil
}

// SimulateRemainingAIGames plays every open fixture of the week that does not
// involve the user's team. Completed fixtures are skipped, so repeated calls
// are harmless. It returns the fixtures this call completed.
func (c *Controller) SimulateRemainingAIGames(ctx context.Context, week int) ([]*models.Fixture, error) {
	type job struct {
		fixture    *models.Fixture
		home, away models.Team
	}

	c.mu.Lock()
	jobs := make([]job, 0)
	for _, f := range c.league.WeekFixtures(week) {
		if f.Completed || c.isUserFixture(f) {
			continue
		}
		home, away := c.league.Team(f.HomeTeamID), c.league.Team(f.AwayTeamID)
		if home == nil || away == nil {
			c.mu.Unlock()
			return nil, fmt.Errorf("%w: fixture %d references an unknown team", ErrNotFound, f.ID)
		}
		jobs = append(jobs, job{fixture: f, home: cloneTeam(home), away: cloneTeam(away)})
	}
	c.mu.Unlock()

	var (
		played []*models.Fixture
		pmu    sync.Mutex
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallel)
	for _, j := range jobs {
		g.Go(func() error {
			hs, as, err := c.sim.PlayHeadless(gctx, &j.home, &j.away, j.fixture.Phase == models.PhasePlayoff)
			if err != nil {
				return fmt.Errorf("simulate fixture %d: %w", j.fixture.ID, err)
			}
			if err := c.complete(gctx, j.fixture, hs, as); err != nil {
				if errors.Is(err, ErrAlreadyCompleted) {
					return nil
				}
				return err
			}
			pmu.Lock()
			played = append(played, j.fixture)
			pmu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(played, func(i, j int) bool { return played[i].ID < played[j].ID })
	return played, nil
}

// complete is the single completion path shared by user and AI games
func (c *Controller) complete(ctx context.Context, f *models.Fixture, homeScore, awayScore int) error {
	if homeScore < 0 || awayScore < 0 {
		return fmt.Errorf("%w: scores must not be negative", ErrPreconditionFailed)
	}
	if homeScore == awayScore && f.Phase == models.PhasePlayoff {
		return fmt.Errorf("%w: playoff fixture %d cannot end tied", ErrPreconditionFailed, f.ID)
	}

	res := models.FixtureResult{
		LeagueID:  c.league.ID,
		FixtureID: f.ID,
		HomeScore: homeScore,
		AwayScore: awayScore,
	}
	switch {
	case homeScore > awayScore:
		res.WinnerID, res.LoserID = intPtr(f.HomeTeamID), intPtr(f.AwayTeamID)
	case awayScore > homeScore:
		res.WinnerID, res.LoserID = intPtr(f.AwayTeamID), intPtr(f.HomeTeamID)
	}

	if err := c.commit(ctx, f, res); err != nil {
		return err
	}
	if c.onComplete != nil {
		c.onComplete(c.league, f)
	}
	return nil
}

// commit stores the result and only then applies it to the league, so a
// failed write leaves the snapshot untouched and the game can be retried.
func (c *Controller) commit(ctx context.Context, f *models.Fixture, res models.FixtureResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f.Completed {
		return fmt.Errorf("%w: fixture %d", ErrAlreadyCompleted, f.ID)
	}
	if res.WinnerID != nil && c.isUserFixture(f) {
		m := adjustMorale(c.league.Morale, *res.WinnerID == c.league.UserTeamID)
		res.Morale = &m
	}

	if err := c.recorder.CompleteFixture(ctx, res); err != nil {
		return err
	}

	f.Completed = true
	f.HomeScore = intPtr(res.HomeScore)
	f.AwayScore = intPtr(res.AwayScore)
	f.WinnerID = res.WinnerID
	if res.WinnerID != nil {
		if t := c.league.Team(*res.WinnerID); t != nil {
			t.Wins++
		}
		if t := c.league.Team(*res.LoserID); t != nil {
			t.Losses++
		}
	}
	if res.Morale != nil {
		c.league.Morale = *res.Morale
	}
	return nil
}

func (c *Controller) isUserFixture(f *models.Fixture) bool {
	return f.IsUserGame || f.Involves(c.league.UserTeamID)
}

func adjustMorale(m models.Morale, won bool) models.Morale {
	if won {
		m.Good += moraleRise
		m.Bad -= moraleDrop
	} else {
		m.Good -= moraleDrop
		m.Bad += moraleRise
	}
	m.Good = min(max(m.Good, 0), moraleMax)
	m.Bad = min(max(m.Bad, 0), moraleMax)
	return m
}

func intPtr(v int) *int {
	return &v
}

func cloneTeam(t *models.Team) models.Team {
	cp := *t
	cp.Roster = append([]models.Player(nil), t.Roster...)
	return cp
}

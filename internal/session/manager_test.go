package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/game"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/league"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/models"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/service"
	"github.com/jonboulle/clockwork"
)

type fakeService struct {
	mu        sync.Mutex
	completed map[int][2]int
	noGame    bool
}

func newFakeService() *fakeService {
	return &fakeService{completed: make(map[int][2]int)}
}

func team(id int, name string, user bool) *models.Team {
	t := &models.Team{ID: id, Name: name, IsUser: user}
	for i, pos := range models.Positions {
		t.Roster = append(t.Roster, models.Player{
			ID:       id*10 + i,
			TeamID:   id,
			Name:     fmt.Sprintf("%s %d", name, i),
			Position: pos,
			Rating:   80,
			Starter:  true,
		})
	}
	return t
}

func (f *fakeService) GetNextGame(_ context.Context, userID string) (*service.Matchup, error) {
	if f.noGame {
		return nil, fmt.Errorf("%w: no open game for %s", league.ErrNotFound, userID)
	}
	return &service.Matchup{
		Fixture:  &models.Fixture{ID: 42, Week: 1, HomeTeamID: 1, AwayTeamID: 2, IsUserGame: true, Phase: models.PhaseRegular},
		HomeTeam: team(1, "Imagine", true),
		AwayTeam: team(2, "Wolverines", false),
	}, nil
}

func (f *fakeService) CompleteGame(_ context.Context, fixtureID, homeScore, awayScore int) (*service.GameResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.completed[fixtureID]; ok {
		return nil, league.ErrAlreadyCompleted
	}
	f.completed[fixtureID] = [2]int{homeScore, awayScore}
	return &service.GameResult{Fixture: &models.Fixture{ID: fixtureID}}, nil
}

func newTestManager(svc LeagueService, clock clockwork.Clock) *Manager {
	m := NewManager(svc, game.Config{QuarterSeconds: 2, Quarters: 1}, clock, time.Second)
	m.SetSource(func() game.Source { return game.NewSource(5) })
	return m
}

func TestManagerPlaysAndRecordsResult(t *testing.T) {
	clock := clockwork.NewFakeClock()
	svc := newFakeService()
	m := newTestManager(svc, clock)

	ended := make(chan *service.GameResult, 1)
	m.SetOnGameEnd(func(_ *Session, res *service.GameResult, err error) {
		if err != nil {
			t.Errorf("game end error = %v", err)
		}
		ended <- res
	})

	s, err := m.Start(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if s.Game.Coached != game.SideHome {
		t.Errorf("Coached = %s, want %s", s.Game.Coached, game.SideHome)
	}
	if again, _ := m.Start(context.Background(), "u1"); again != s {
		t.Error("second Start() created another game")
	}

	for i := 0; i < 2; i++ {
		clock.BlockUntil(1)
		clock.Advance(time.Second)
	}

	select {
	case <-ended:
	case <-time.After(2 * time.Second):
		t.Fatal("game did not finish")
	}

	r, ok := s.Game.Result()
	if !ok {
		t.Fatal("game has no result")
	}
	svc.mu.Lock()
	got := svc.completed[42]
	svc.mu.Unlock()
	if got != [2]int{r.HomeScore, r.AwayScore} {
		t.Errorf("recorded %v, want %d-%d", got, r.HomeScore, r.AwayScore)
	}

	<-s.done
	if n := m.ActiveCount(); n != 0 {
		t.Errorf("ActiveCount() = %d after the game, want 0", n)
	}
}

func TestManagerAbandon(t *testing.T) {
	clock := clockwork.NewFakeClock()
	svc := newFakeService()
	m := newTestManager(svc, clock)

	if _, err := m.Start(context.Background(), "u1"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := m.Abandon("u1"); err != nil {
		t.Fatalf("Abandon() error = %v", err)
	}
	if m.Get("u1") != nil {
		t.Error("session still registered after abandon")
	}
	if len(svc.completed) != 0 {
		t.Errorf("abandoned game recorded a result: %v", svc.completed)
	}
	if err := m.Abandon("u1"); !errors.Is(err, ErrNoSession) {
		t.Errorf("second Abandon() error = %v, want %v", err, ErrNoSession)
	}
}

func TestManagerCommands(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := newTestManager(newFakeService(), clock)
	defer m.Shutdown()

	if _, err := m.Pause("nobody"); !errors.Is(err, league.ErrNotFound) {
		t.Errorf("Pause(nobody) error = %v, want %v", err, league.ErrNotFound)
	}

	if _, err := m.Start(context.Background(), "u1"); err != nil {
		t.Fatal(err)
	}

	st, err := m.Pause("u1")
	if err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if st.Status != game.StatusPaused {
		t.Errorf("Status = %s, want %s", st.Status, game.StatusPaused)
	}

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	clock.BlockUntil(1)
	if st := m.Get("u1").Game.GetState(); st.TimeLeft != 2 {
		t.Errorf("paused clock moved to %d", st.TimeLeft)
	}

	if st, _ := m.Resume("u1"); st.Status != game.StatusInProgress {
		t.Errorf("Status after Resume = %s, want %s", st.Status, game.StatusInProgress)
	}

	if _, err := m.SetStrategy("u1", game.Strategy("zone")); !errors.Is(err, game.ErrUnknownStrategy) {
		t.Errorf("SetStrategy(zone) error = %v, want %v", err, game.ErrUnknownStrategy)
	}
	st, err = m.SetStrategy("u1", game.StrategyPerimeter)
	if err != nil || st.Strategy != game.StrategyPerimeter {
		t.Errorf("SetStrategy() = %s, %v", st.Strategy, err)
	}
}

func TestManagerStartWithoutOpenGame(t *testing.T) {
	svc := newFakeService()
	svc.noGame = true
	m := newTestManager(svc, clockwork.NewFakeClock())

	if _, err := m.Start(context.Background(), "u1"); !errors.Is(err, league.ErrNotFound) {
		t.Errorf("Start() error = %v, want %v", err, league.ErrNotFound)
	}
	if m.ActiveCount() != 0 {
		t.Error("failed start left a session behind")
	}
}

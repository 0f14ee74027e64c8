package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/game"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/league"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/models"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/service"
	"github.com/jonboulle/clockwork"
)

// ErrNoSession is returned for commands sent without a live game
var ErrNoSession = fmt.Errorf("%w: no live game", league.ErrNotFound)

// LeagueService is the part of the league service a live game needs
type LeagueService interface {
	GetNextGame(ctx context.Context, userID string) (*service.Matchup, error)
	CompleteGame(ctx context.Context, fixtureID, homeScore, awayScore int) (*service.GameResult, error)
}

// Session is one user's live game bound to their next fixture
type Session struct {
	UserID  string
	Fixture models.Fixture
	Game    *game.Game

	cancel context.CancelFunc
	done   chan struct{}
}

// Ended reports whether the final buzzer has sounded
func (s *Session) Ended() bool {
	return s.Game.Status() == game.StatusEnded
}

// Manager runs at most one live game per user
type Manager struct {
	svc    LeagueService
	cfg    game.Config
	clock  clockwork.Clock
	tick   time.Duration
	source func() game.Source

	sessions map[string]*Session // userID -> session
	mu       sync.Mutex

	onGameStart    func(s *Session)
	onEvent        func(userID string, ev game.Event)
	onQuarterBreak func(userID string, st game.GameState)
	onGameEnd      func(s *Session, res *service.GameResult, err error)
}

// NewManager creates a session manager. Games tick once per interval on
// the given clock.
func NewManager(svc LeagueService, cfg game.Config, clock clockwork.Clock, interval time.Duration) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{
		svc:      svc,
		cfg:      cfg,
		clock:    clock,
		tick:     interval,
		source:   func() game.Source { return game.NewSource(0) },
		sessions: make(map[string]*Session),
	}
}

// SetSource overrides the random source factory for new games
func (m *Manager) SetSource(fn func() game.Source) {
	m.source = fn
}

// SetOnGameStart sets the callback for when a live game tips off
func (m *Manager) SetOnGameStart(callback func(s *Session)) {
	m.onGameStart = callback
}

// SetOnEvent sets the callback for every play
func (m *Manager) SetOnEvent(callback func(userID string, ev game.Event)) {
	m.onEvent = callback
}

// SetOnQuarterBreak sets the callback for period breaks
func (m *Manager) SetOnQuarterBreak(callback func(userID string, st game.GameState)) {
	m.onQuarterBreak = callback
}

// SetOnGameEnd sets the callback for a finished game. res is nil when the
// result could not be recorded.
func (m *Manager) SetOnGameEnd(callback func(s *Session, res *service.GameResult, err error)) {
	m.onGameEnd = callback
}

// Start tips off the user's next fixture. A user with a game in progress
// gets that game back.
func (m *Manager) Start(ctx context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	prev, ok := m.sessions[userID]
	m.mu.Unlock()
	if ok {
		if !prev.Ended() {
			return prev, nil
		}
		// the previous result must be recorded before the next fixture is picked
		<-prev.done
	}

	next, err := m.svc.GetNextGame(ctx, userID)
	if err != nil {
		return nil, err
	}
	if next.HomeTeam == nil || next.AwayTeam == nil {
		return nil, fmt.Errorf("%w: fixture %d is missing a team", league.ErrDataUnavailable, next.Fixture.ID)
	}

	cfg := m.cfg
	if next.Fixture.Phase == models.PhasePlayoff && cfg.OvertimeSeconds == 0 {
		cfg.OvertimeSeconds = game.DefaultOvertimeSeconds
	}
	coached := game.SideAway
	if next.HomeTeam.IsUser {
		coached = game.SideHome
	}

	g := game.NewGame(next.HomeTeam, next.AwayTeam, cfg,
		game.WithSource(m.source()),
		game.WithCoachedSide(coached),
	)

	runCtx, cancel := context.WithCancel(context.Background())
	s := &Session{
		UserID:  userID,
		Fixture: *next.Fixture,
		Game:    g,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	m.mu.Lock()
	if existing, ok := m.sessions[userID]; ok && !existing.Ended() {
		m.mu.Unlock()
		cancel()
		return existing, nil
	}
	m.sessions[userID] = s
	m.mu.Unlock()

	if m.onEvent != nil {
		g.SetOnEvent(func(ev game.Event) { m.onEvent(userID, ev) })
	}
	if m.onQuarterBreak != nil {
		g.SetOnQuarterBreak(func(st game.GameState) { m.onQuarterBreak(userID, st) })
	}

	g.Start()
	slog.Info("live game started", "user", userID, "game", g.ID, "fixture", s.Fixture.ID)
	if m.onGameStart != nil {
		m.onGameStart(s)
	}

	go m.run(runCtx, s)
	return s, nil
}

func (m *Manager) run(ctx context.Context, s *Session) {
	defer close(s.done)
	defer m.remove(s)

	err := game.NewRunner(m.clock, m.tick).Run(ctx, s.Game)
	if errors.Is(err, context.Canceled) {
		slog.Info("live game abandoned", "user", s.UserID, "game", s.Game.ID)
		return
	}

	r, _ := s.Game.Result()
	res, err := m.svc.CompleteGame(context.Background(), s.Fixture.ID, r.HomeScore, r.AwayScore)
	if err != nil {
		slog.Error("record live game result", "user", s.UserID, "fixture", s.Fixture.ID, "error", err)
	} else {
		slog.Info("live game finished", "user", s.UserID, "fixture", s.Fixture.ID, "home", r.HomeScore, "away", r.AwayScore)
	}
	if m.onGameEnd != nil {
		m.onGameEnd(s, res, err)
	}
}

func (m *Manager) remove(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[s.UserID] == s {
		delete(m.sessions, s.UserID)
	}
}

// Get returns the user's live session
func (m *Manager) Get(userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[userID]
}

func (m *Manager) live(userID string) (*Session, error) {
	s := m.Get(userID)
	if s == nil {
		return nil, ErrNoSession
	}
	return s, nil
}

// Pause stops the user's game clock
func (m *Manager) Pause(userID string) (game.GameState, error) {
	s, err := m.live(userID)
	if err != nil {
		return game.GameState{}, err
	}
	s.Game.Pause()
	return s.Game.GetState(), nil
}

// Resume restarts the clock after a pause or a quarter break
func (m *Manager) Resume(userID string) (game.GameState, error) {
	s, err := m.live(userID)
	if err != nil {
		return game.GameState{}, err
	}
	s.Game.Resume()
	return s.Game.GetState(), nil
}

// SetStrategy applies the coach's game plan
func (m *Manager) SetStrategy(userID string, strategy game.Strategy) (game.GameState, error) {
	s, err := m.live(userID)
	if err != nil {
		return game.GameState{}, err
	}
	if err := s.Game.SetStrategy(strategy); err != nil {
		return game.GameState{}, err
	}
	return s.Game.GetState(), nil
}

// Abandon stops the user's game without recording a result
func (m *Manager) Abandon(userID string) error {
	s, err := m.live(userID)
	if err != nil {
		return err
	}
	s.cancel()
	<-s.done
	return nil
}

// ActiveCount returns the number of live games
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown abandons every live game
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.cancel()
		<-s.done
	}
}

package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/models"
	"github.com/google/uuid"
)

// GameStatus represents the current state of the game
type GameStatus string

const (
	StatusNotStarted   GameStatus = "not_started"
	StatusInProgress   GameStatus = "in_progress"
	StatusPaused       GameStatus = "paused"
	StatusQuarterBreak GameStatus = "quarter_break"
	StatusEnded        GameStatus = "ended"
)

// Result is the final outcome of a game
type Result struct {
	HomeScore int  `json:"homeScore"`
	AwayScore int  `json:"awayScore"`
	Winner    Side `json:"winner"` // neutral on a tie
	Periods   int  `json:"periods"`
}

// GameState represents the serializable game state
type GameState struct {
	GameID           string     `json:"gameId"`
	HomeTeam         string     `json:"homeTeam"`
	AwayTeam         string     `json:"awayTeam"`
	HomeScore        int        `json:"homeScore"`
	AwayScore        int        `json:"awayScore"`
	Quarter          int        `json:"quarter"`
	TimeLeft         int        `json:"timeLeft"`
	Clock            string     `json:"clock"`
	Possession       Side       `json:"possession"`
	Status           GameStatus `json:"status"`
	Playing          bool       `json:"isPlaying"`
	Ended            bool       `json:"gameEnded"`
	AwaitingStrategy bool       `json:"awaitingStrategy"`
	Strategy         Strategy   `json:"strategy,omitempty"`
	EventCount       int        `json:"eventCount"`
}

// Game is one simulated basketball game
type Game struct {
	ID      string
	Home    *models.Team
	Away    *models.Team
	Coached Side // side that takes strategy input, neutral when none

	cfg       Config
	rng       Source
	gen       *Generator
	state     GameState
	strategy  Strategy
	events    []Event
	result    *Result
	overtimes int
	startTime time.Time
	endTime   time.Time

	onEvent        func(Event)
	onQuarterBreak func(GameState)
	onEnd          func(Result)

	mu sync.RWMutex
}

// Option customizes a new game
type Option func(*Game)

// WithSource sets the random source
func WithSource(src Source) Option {
	return func(g *Game) { g.rng = src }
}

// WithCoachedSide marks the side whose strategy choices apply
func WithCoachedSide(side Side) Option {
	return func(g *Game) { g.Coached = side }
}

// NewGame creates a game that has not tipped off yet
func NewGame(home, away *models.Team, cfg Config, opts ...Option) *Game {
	cfg = cfg.withDefaults()
	g := &Game{
		ID:      uuid.New().String(),
		Home:    home,
		Away:    away,
		Coached: SideNeutral,
		cfg:     cfg,
		events:  make([]Event, 0, 256),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = NewSource(0)
	}
	g.gen = NewGenerator(cfg, g.rng)

	g.state = GameState{
		GameID:     g.ID,
		HomeTeam:   teamName(home),
		AwayTeam:   teamName(away),
		Quarter:    1,
		TimeLeft:   cfg.QuarterSeconds,
		Possession: SideHome,
		Status:     StatusNotStarted,
	}
	g.state.Clock = formatClock(g.state.TimeLeft)
	return g
}

// SetOnEvent sets the callback for every logged play
func (g *Game) SetOnEvent(callback func(Event)) {
	g.onEvent = callback
}

// SetOnQuarterBreak sets the callback for the end of each period
func (g *Game) SetOnQuarterBreak(callback func(GameState)) {
	g.onQuarterBreak = callback
}

// SetOnEnd sets the callback for the final buzzer
func (g *Game) SetOnEnd(callback func(Result)) {
	g.onEnd = callback
}

// Start tips off a new game or resumes a paused or suspended one. It does
// nothing once the game is running or over.
func (g *Game) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state.Status {
	case StatusNotStarted:
		g.startTime = time.Now()
		if g.rng.Intn(2) == 1 {
			g.state.Possession = SideAway
		}
		g.state.Status = StatusInProgress
	case StatusPaused, StatusQuarterBreak:
		g.state.Status = StatusInProgress
		g.state.AwaitingStrategy = false
	}
	g.state.Playing = g.state.Status == StatusInProgress
}

// Resume is an alias for Start
func (g *Game) Resume() {
	g.Start()
}

// Pause stops the clock. It only affects a running game.
func (g *Game) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.Status == StatusInProgress {
		g.state.Status = StatusPaused
		g.state.Playing = false
	}
}

// SetStrategy applies the coach's game plan to the coached side for the
// rest of the game.
func (g *Game) SetStrategy(s Strategy) error {
	if _, ok := strategyKind[s]; !ok {
		return ErrUnknownStrategy
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.Status == StatusEnded {
		return ErrGameEnded
	}
	g.strategy = s
	g.state.Strategy = s
	g.state.AwaitingStrategy = false
	return nil
}

// Tick advances the clock one second and returns any play it produced.
// Ticks outside InProgress are ignored.
func (g *Game) Tick() []Event {
	g.mu.Lock()

	if g.state.Status != StatusInProgress {
		g.mu.Unlock()
		return nil
	}

	g.state.TimeLeft--
	g.state.Clock = formatClock(g.state.TimeLeft)

	var fired []Event
	if g.rng.Float64() < g.cfg.EventProbability {
		fired = append(fired, g.playLocked())
	}

	var (
		brk *GameState
		res *Result
	)
	if g.state.TimeLeft <= 0 {
		if g.periodOverLocked() {
			r := g.finishLocked()
			res = &r
		} else {
			st := g.state
			brk = &st
		}
	}

	onEvent, onBreak, onEnd := g.onEvent, g.onQuarterBreak, g.onEnd
	g.mu.Unlock()

	if onEvent != nil {
		for _, ev := range fired {
			onEvent(ev)
		}
	}
	if brk != nil && onBreak != nil {
		onBreak(*brk)
	}
	if res != nil && onEnd != nil {
		onEnd(*res)
	}
	return fired
}

// playLocked draws a play for the team in possession and applies it
func (g *Game) playLocked() Event {
	offense, defense := g.Home, g.Away
	margin := g.state.HomeScore - g.state.AwayScore
	if g.state.Possession == SideAway {
		offense, defense = g.Away, g.Home
		margin = -margin
	}

	strategy := StrategyNone
	if g.Coached != SideNeutral && g.Coached == g.state.Possession {
		strategy = g.strategy
	}

	ev := g.gen.Next(offense, defense, Situation{
		Offense:  g.state.Possession,
		Quarter:  g.state.Quarter,
		TimeLeft: g.state.TimeLeft,
		Margin:   margin,
		Strategy: strategy,
	})

	switch {
	case ev.Points > 0:
		if ev.Team == SideHome {
			g.state.HomeScore += ev.Points
		} else {
			g.state.AwayScore += ev.Points
		}
		g.state.Possession = ev.Team.Other()
	case ev.ChangesPossession:
		g.state.Possession = g.state.Possession.Other()
	}

	ev.ID = uuid.New().String()
	ev.Seq = len(g.events) + 1
	ev.Quarter = g.state.Quarter
	ev.Clock = g.state.Clock
	g.events = append(g.events, ev)
	g.state.EventCount = len(g.events)
	return ev
}

// periodOverLocked handles the buzzer at the end of a period. It reports
// whether the game is over; otherwise the game is left in a quarter break.
func (g *Game) periodOverLocked() bool {
	q := g.state.Quarter
	tied := g.state.HomeScore == g.state.AwayScore

	switch {
	case q < g.cfg.Quarters:
		g.state.TimeLeft = g.cfg.QuarterSeconds
	case tied && g.cfg.OvertimeSeconds > 0 && g.overtimes < g.cfg.MaxOvertimes:
		g.overtimes++
		g.state.TimeLeft = g.cfg.OvertimeSeconds
	default:
		return true
	}

	g.state.Quarter++
	g.state.Clock = formatClock(g.state.TimeLeft)
	g.state.Status = StatusQuarterBreak
	g.state.Playing = false
	if q == g.cfg.StrategyQuarter {
		g.state.AwaitingStrategy = true
	}
	return false
}

func (g *Game) finishLocked() Result {
	g.state.TimeLeft = 0
	g.state.Clock = formatClock(0)
	g.state.Status = StatusEnded
	g.state.Playing = false
	g.state.Ended = true
	g.state.AwaitingStrategy = false
	g.endTime = time.Now()

	r := Result{
		HomeScore: g.state.HomeScore,
		AwayScore: g.state.AwayScore,
		Winner:    SideNeutral,
		Periods:   g.state.Quarter,
	}
	switch {
	case r.HomeScore > r.AwayScore:
		r.Winner = SideHome
	case r.AwayScore > r.HomeScore:
		r.Winner = SideAway
	}
	g.result = &r
	return r
}

// GetState returns a snapshot of the game state
func (g *Game) GetState() GameState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Status returns the current status
func (g *Game) Status() GameStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state.Status
}

// Events returns a copy of the play-by-play log
func (g *Game) Events() []Event {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Event(nil), g.events...)
}

// Result returns the final result once the game has ended
func (g *Game) Result() (Result, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.result == nil {
		return Result{}, false
	}
	return *g.result, true
}

// GetDuration returns the wall-clock game duration in seconds
func (g *Game) GetDuration() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.startTime.IsZero() {
		return 0
	}
	end := g.endTime
	if end.IsZero() {
		end = time.Now()
	}
	return int(end.Sub(g.startTime).Seconds())
}

func teamName(t *models.Team) string {
	if t == nil {
		return ""
	}
	return t.Name
}

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Errors
var (
	ErrGameEnded       = &GameError{"game has already ended"}
	ErrUnknownStrategy = &GameError{"unknown strategy"}
)

// GameError represents a game-related error
type GameError struct {
	msg string
}

func (e *GameError) Error() string {
	return e.msg
}

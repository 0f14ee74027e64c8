package game

import (
	"context"
	"math"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/models"
)

// ctxCheckInterval is how many ticks Play runs between context checks
const ctxCheckInterval = 60

// Play drives a game to the final buzzer without waiting on anyone:
// quarter breaks are resumed immediately and no strategy is chosen.
func Play(ctx context.Context, g *Game) (Result, error) {
	g.Start()
	for i := 0; ; i++ {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}

		g.Tick()
		switch g.Status() {
		case StatusEnded:
			r, _ := g.Result()
			return r, nil
		case StatusQuarterBreak, StatusPaused:
			g.Start()
		}
	}
}

// Simulator plays AI-only games. Each game gets its own source seeded from
// a shared seed stream, so a fixed seed reproduces a whole week.
type Simulator struct {
	cfg    Config
	seeder *lockedSource
}

// NewSimulator creates a headless simulator. A zero seed is time based.
func NewSimulator(cfg Config, seed int64) *Simulator {
	return &Simulator{
		cfg:    cfg.withDefaults(),
		seeder: &lockedSource{src: NewSource(seed)},
	}
}

// PlayHeadless simulates a full game and returns the final score. Playoff
// games go to overtime instead of ending tied.
func (s *Simulator) PlayHeadless(ctx context.Context, home, away *models.Team, playoff bool) (int, int, error) {
	cfg := s.cfg
	if playoff && cfg.OvertimeSeconds == 0 {
		cfg.OvertimeSeconds = DefaultOvertimeSeconds
	}

	src := NewSource(int64(s.seeder.Intn(math.MaxInt32)) + 1)
	r, err := Play(ctx, NewGame(home, away, cfg, WithSource(src)))
	if err != nil {
		return 0, 0, err
	}
	return r.HomeScore, r.AwayScore, nil
}

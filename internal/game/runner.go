package game

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultTickInterval is one simulated second per wall-clock second
const DefaultTickInterval = time.Second

// Runner ticks a live game from a clock. Ticks that arrive while the game
// is paused or in a quarter break are dropped; the game waits for Start.
type Runner struct {
	clock    clockwork.Clock
	interval time.Duration
}

// NewRunner creates a runner on the given clock
func NewRunner(clock clockwork.Clock, interval time.Duration) *Runner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Runner{clock: clock, interval: interval}
}

// Run blocks until the game ends or ctx is cancelled
func (r *Runner) Run(ctx context.Context, g *Game) error {
	for {
		if g.Status() == StatusEnded {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.clock.After(r.interval):
			g.Tick()
		}
	}
}

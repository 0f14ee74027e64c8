package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/league"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/service"
	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
)

// runTimeout bounds one pass over every league
const runTimeout = 5 * time.Minute

// Leagues is the part of the league service the scheduler drives
type Leagues interface {
	ListLeagueOwners(ctx context.Context) ([]string, error)
	SimulateWeek(ctx context.Context, userID string) (*service.WeekResult, error)
}

// Scheduler periodically plays the AI games of every active league
type Scheduler struct {
	s        gocron.Scheduler
	leagues  Leagues
	interval time.Duration
}

// NewScheduler creates a scheduler that ticks on the given clock. A nil
// clock means wall time.
func NewScheduler(leagues Leagues, interval time.Duration, clock clockwork.Clock) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("auto-simulation interval must be positive, got %s", interval)
	}

	opts := []gocron.SchedulerOption{}
	if clock != nil {
		opts = append(opts, gocron.WithClock(clock))
	}
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		s:        s,
		leagues:  leagues,
		interval: interval,
	}, nil
}

// Start registers the auto-simulation job and starts the scheduler
func (s *Scheduler) Start() error {
	_, err := s.s.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.simulateAll),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create auto-simulation job: %w", err)
	}

	s.s.Start()
	slog.Info("auto-simulation scheduled", "interval", s.interval)
	return nil
}

// Stop waits for a running pass and shuts the scheduler down
func (s *Scheduler) Stop() error {
	return s.s.Shutdown()
}

func (s *Scheduler) simulateAll() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		slog.Error("auto-simulation failed", "error", err)
	}
}

// RunOnce simulates the current week of every league and returns how many
// leagues moved. Leagues waiting on their user are skipped quietly.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	owners, err := s.leagues.ListLeagueOwners(ctx)
	if err != nil {
		return 0, fmt.Errorf("list leagues: %w", err)
	}

	simulated := 0
	for _, userID := range owners {
		if err := ctx.Err(); err != nil {
			return simulated, err
		}

		res, err := s.leagues.SimulateWeek(ctx, userID)
		switch {
		case err == nil:
			if len(res.Played) > 0 || res.Advanced {
				simulated++
			}
		case errors.Is(err, league.ErrPreconditionFailed),
			errors.Is(err, league.ErrWeekIncomplete),
			errors.Is(err, league.ErrNotFound):
			slog.Debug("league skipped", "user", userID, "reason", err)
		default:
			slog.Warn("auto-simulate league", "user", userID, "error", err)
		}
	}
	return simulated, nil
}

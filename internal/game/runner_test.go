package game

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func waitRun(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not return")
		return nil
	}
}

func TestRunnerHoldsAtQuarterBreak(t *testing.T) {
	clock := clockwork.NewFakeClock()
	g := NewGame(testTeam(1, "Imagine", 80), testTeam(2, "Red Dragons", 80), Config{QuarterSeconds: 2}, WithSource(NewSource(1)))
	g.Start()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewRunner(clock, time.Second).Run(ctx, g) }()

	tick := func() {
		clock.BlockUntil(1)
		clock.Advance(time.Second)
	}

	tick()
	tick()
	clock.BlockUntil(1)
	if st := g.GetState(); st.Status != StatusQuarterBreak || st.Quarter != 2 {
		t.Fatalf("after two ticks state = %s Q%d, want %s Q2", st.Status, st.Quarter, StatusQuarterBreak)
	}

	tick()
	clock.BlockUntil(1)
	if st := g.GetState(); st.TimeLeft != 2 {
		t.Errorf("clock ran during the break: %d seconds left", st.TimeLeft)
	}

	g.Start()
	tick()
	clock.BlockUntil(1)
	if st := g.GetState(); st.Status != StatusInProgress || st.TimeLeft != 1 {
		t.Errorf("after resume state = %s %ds, want %s 1s", st.Status, st.TimeLeft, StatusInProgress)
	}

	cancel()
	if err := waitRun(t, done); err != context.Canceled {
		t.Errorf("Run() error = %v, want %v", err, context.Canceled)
	}
}

func TestRunnerReturnsAtFinalBuzzer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	g := NewGame(testTeam(1, "Imagine", 80), testTeam(2, "Wolverines", 80), Config{QuarterSeconds: 2, Quarters: 1}, WithSource(NewSource(2)))
	g.Start()

	done := make(chan error, 1)
	go func() { done <- NewRunner(clock, 100*time.Millisecond).Run(context.Background(), g) }()

	clock.BlockUntil(1)
	clock.Advance(100 * time.Millisecond)
	clock.BlockUntil(1)
	clock.Advance(100 * time.Millisecond)

	if err := waitRun(t, done); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, ok := g.Result(); !ok {
		t.Error("game has no result after the runner returned")
	}
}

package game

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/models"
)

func testTeam(id int, name string, rating int) *models.Team {
	tendencies := []models.Tendency{
		models.TendencyThreePoint,
		models.TendencyThreePoint,
		models.TendencyMidrange,
		models.TendencyMidrange,
		models.TendencyPost,
	}
	roster := make([]models.Player, 0, 10)
	for i := 0; i < 10; i++ {
		roster = append(roster, models.Player{
			ID:       id*100 + i,
			TeamID:   id,
			Name:     fmt.Sprintf("%s %d", name, i+1),
			Position: models.Positions[i%5],
			Rating:   rating,
			Tendency: tendencies[i%5],
			Starter:  i < 5,
		})
	}
	return &models.Team{ID: id, Name: name, Roster: roster}
}

func TestGameStateTransitions(t *testing.T) {
	g := NewGame(testTeam(1, "Imagine", 80), testTeam(2, "Red Dragons", 80), Config{}, WithSource(NewSource(1)))

	st := g.GetState()
	if st.Status != StatusNotStarted || st.Quarter != 1 || st.TimeLeft != DefaultQuarterSeconds {
		t.Fatalf("initial state = %+v", st)
	}

	g.Tick()
	if got := g.GetState().TimeLeft; got != DefaultQuarterSeconds {
		t.Errorf("TimeLeft after tick before start = %d, want %d", got, DefaultQuarterSeconds)
	}

	g.Start()
	if got := g.Status(); got != StatusInProgress {
		t.Fatalf("Status after Start = %s, want %s", got, StatusInProgress)
	}
	g.Tick()
	if got := g.GetState().TimeLeft; got != DefaultQuarterSeconds-1 {
		t.Errorf("TimeLeft = %d, want %d", got, DefaultQuarterSeconds-1)
	}

	g.Pause()
	g.Pause()
	if st := g.GetState(); st.Status != StatusPaused || st.Playing {
		t.Errorf("after Pause status = %s playing = %v, want %s false", st.Status, st.Playing, StatusPaused)
	}
	g.Tick()
	if got := g.GetState().TimeLeft; got != DefaultQuarterSeconds-1 {
		t.Errorf("TimeLeft changed while paused: %d", got)
	}

	g.Resume()
	g.Start()
	if got := g.Status(); got != StatusInProgress {
		t.Errorf("Status after Resume = %s, want %s", got, StatusInProgress)
	}
}

func TestQuarterBreakStrategyPrompt(t *testing.T) {
	cfg := Config{QuarterSeconds: 5}
	g := NewGame(testTeam(1, "Imagine", 80), testTeam(2, "Wolverines", 80), cfg,
		WithSource(NewSource(3)), WithCoachedSide(SideHome))

	var breaks []GameState
	g.SetOnQuarterBreak(func(st GameState) { breaks = append(breaks, st) })

	g.Start()
	for i := 0; i < 5; i++ {
		g.Tick()
	}
	st := g.GetState()
	if st.Status != StatusQuarterBreak || st.Quarter != 2 || st.TimeLeft != 5 {
		t.Fatalf("after Q1 state = %s Q%d %ds, want %s Q2 5s", st.Status, st.Quarter, st.TimeLeft, StatusQuarterBreak)
	}
	if st.AwaitingStrategy {
		t.Error("AwaitingStrategy after Q1 = true, want false")
	}

	// the break holds until resumed
	g.Tick()
	if got := g.GetState(); got.Status != StatusQuarterBreak || got.TimeLeft != 5 {
		t.Errorf("tick during break changed state to %s %ds", got.Status, got.TimeLeft)
	}

	g.Start()
	for i := 0; i < 5; i++ {
		g.Tick()
	}
	st = g.GetState()
	if st.Status != StatusQuarterBreak || st.Quarter != 3 || !st.AwaitingStrategy {
		t.Fatalf("after Q2 state = %s Q%d awaiting=%v, want %s Q3 awaiting=true", st.Status, st.Quarter, st.AwaitingStrategy, StatusQuarterBreak)
	}
	if len(breaks) != 2 {
		t.Errorf("quarter break callbacks = %d, want 2", len(breaks))
	}

	if err := g.SetStrategy(StrategyPerimeter); err != nil {
		t.Fatalf("SetStrategy() error = %v", err)
	}
	st = g.GetState()
	if st.AwaitingStrategy || st.Strategy != StrategyPerimeter || st.Status != StatusQuarterBreak {
		t.Errorf("after SetStrategy state = %+v", st)
	}

	g.Start()
	if got := g.Status(); got != StatusInProgress {
		t.Errorf("Status after resume = %s, want %s", got, StatusInProgress)
	}
}

func TestFullGameEnds(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		g := NewGame(testTeam(1, "Imagine", 80), testTeam(2, "Golden Tigers", 80), Config{}, WithSource(NewSource(seed)))

		var ended []Result
		g.SetOnEnd(func(r Result) { ended = append(ended, r) })

		r, err := Play(context.Background(), g)
		if err != nil {
			t.Fatalf("seed %d: Play() error = %v", seed, err)
		}

		st := g.GetState()
		if st.Status != StatusEnded || !st.Ended {
			t.Errorf("seed %d: status = %s, want %s", seed, st.Status, StatusEnded)
		}
		if r.HomeScore < 0 || r.AwayScore < 0 {
			t.Errorf("seed %d: negative score %d-%d", seed, r.HomeScore, r.AwayScore)
		}
		if r.Periods != DefaultQuarters {
			t.Errorf("seed %d: periods = %d, want %d", seed, r.Periods, DefaultQuarters)
		}

		want := SideNeutral
		switch {
		case r.HomeScore > r.AwayScore:
			want = SideHome
		case r.AwayScore > r.HomeScore:
			want = SideAway
		}
		if r.Winner != want {
			t.Errorf("seed %d: winner = %s for %d-%d, want %s", seed, r.Winner, r.HomeScore, r.AwayScore, want)
		}
		if len(ended) != 1 || ended[0] != r {
			t.Errorf("seed %d: end callbacks = %v, want exactly %v", seed, ended, r)
		}

		home, away := 0, 0
		for _, ev := range g.Events() {
			switch ev.Team {
			case SideHome:
				home += ev.Points
			case SideAway:
				away += ev.Points
			}
		}
		if home != r.HomeScore || away != r.AwayScore {
			t.Errorf("seed %d: event log totals %d-%d, result %d-%d", seed, home, away, r.HomeScore, r.AwayScore)
		}

		g.Start()
		if got := g.Status(); got != StatusEnded {
			t.Errorf("seed %d: Start after end moved status to %s", seed, got)
		}
	}
}

func TestDefaultScoringIsPlausible(t *testing.T) {
	const games = 40
	total := 0
	scores := make([]int, 0, 2*games)
	for seed := int64(1); seed <= games; seed++ {
		g := NewGame(testTeam(1, "Imagine", 80), testTeam(2, "Storm Breakers", 80), Config{}, WithSource(NewSource(seed*31)))
		r, err := Play(context.Background(), g)
		if err != nil {
			t.Fatalf("Play() error = %v", err)
		}
		for _, score := range []int{r.HomeScore, r.AwayScore} {
			if score < 30 || score > 170 {
				t.Errorf("seed %d: team score %d outside plausible range", seed, score)
			}
		}
		total += r.HomeScore + r.AwayScore
		scores = append(scores, r.HomeScore, r.AwayScore)
	}

	avg := float64(total) / (2 * games)
	if avg < 70 || avg > 110 {
		t.Errorf("average team score = %.1f, want between 70 and 110", avg)
	}

	// a few blowouts must not carry the mean
	sort.Ints(scores)
	median := float64(scores[len(scores)/2-1]+scores[len(scores)/2]) / 2
	if median < 70 || median > 110 {
		t.Errorf("median team score = %.1f, want between 70 and 110", median)
	}
}

func TestScoringFlipsPossession(t *testing.T) {
	cfg := Config{
		QuarterSeconds:   50,
		EventProbability: 1,
		Weights:          []Weight{{Kind: KindFreeThrow, Weight: 1}},
	}
	g := NewGame(testTeam(1, "Imagine", 70), testTeam(2, "Riverlake Eagles", 70), cfg, WithSource(NewSource(9)))
	g.Start()

	scores := 0
	for g.Status() != StatusEnded {
		before := g.GetState().Possession
		events := g.Tick()
		after := g.GetState().Possession

		for _, ev := range events {
			if ev.Points > 0 {
				scores++
				if ev.Team != before {
					t.Fatalf("scoring team = %s, possession was %s", ev.Team, before)
				}
				if after != before.Other() {
					t.Fatalf("possession after score = %s, want %s", after, before.Other())
				}
			} else if after != before {
				t.Fatalf("possession changed on a missed free throw")
			}
		}
		if g.Status() == StatusQuarterBreak {
			g.Start()
		}
	}
	if scores == 0 {
		t.Error("no free throws made in 200 attempts")
	}
}

func TestTiedGameOvertime(t *testing.T) {
	empty := func(id int) *models.Team { return &models.Team{ID: id, Name: "Ghosts"} }

	tests := []struct {
		name        string
		cfg         Config
		wantPeriods int
	}{
		{"regulation tie", Config{QuarterSeconds: 3}, 4},
		{"overtime until limit", Config{QuarterSeconds: 3, OvertimeSeconds: 2, MaxOvertimes: 3}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// empty rosters only produce placeholder plays, so the game stays 0-0
			g := NewGame(empty(1), empty(2), tt.cfg, WithSource(NewSource(5)))
			r, err := Play(context.Background(), g)
			if err != nil {
				t.Fatalf("Play() error = %v", err)
			}
			if r.Winner != SideNeutral || r.HomeScore != 0 || r.AwayScore != 0 {
				t.Errorf("result = %+v, want a 0-0 tie", r)
			}
			if r.Periods != tt.wantPeriods {
				t.Errorf("periods = %d, want %d", r.Periods, tt.wantPeriods)
			}
		})
	}
}

func TestSetStrategyErrors(t *testing.T) {
	g := NewGame(testTeam(1, "Imagine", 80), testTeam(2, "Red Dragons", 80), Config{QuarterSeconds: 2}, WithSource(NewSource(2)))

	if err := g.SetStrategy(Strategy("zone")); err != ErrUnknownStrategy {
		t.Errorf("SetStrategy(zone) error = %v, want %v", err, ErrUnknownStrategy)
	}
	if _, err := Play(context.Background(), g); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if err := g.SetStrategy(StrategyPost); err != ErrGameEnded {
		t.Errorf("SetStrategy after end error = %v, want %v", err, ErrGameEnded)
	}
}

func TestPlayHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGame(testTeam(1, "Imagine", 80), testTeam(2, "Red Dragons", 80), Config{})
	if _, err := Play(ctx, g); err != context.Canceled {
		t.Errorf("Play() error = %v, want %v", err, context.Canceled)
	}
	if _, ok := g.Result(); ok {
		t.Error("cancelled game produced a result")
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want Strategy
		err  error
	}{
		{"perimeter", StrategyPerimeter, nil},
		{"three_point", StrategyPerimeter, nil},
		{"inside_post", StrategyPost, nil},
		{" Midrange ", StrategyMidrange, nil},
		{"zone", StrategyNone, ErrUnknownStrategy},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if got != tt.want || err != tt.err {
			t.Errorf("ParseStrategy(%q) = %q, %v, want %q, %v", tt.in, got, err, tt.want, tt.err)
		}
	}
}

package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/league"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/models"
)

func newLeague(userID string) *models.League {
	return &models.League{
		ID:     "league-" + userID,
		UserID: userID,
		Teams: []models.Team{
			{Name: "Imagine", IsUser: true, Roster: []models.Player{{Name: "A"}, {Name: "B"}}},
			{Name: "Red Dragons", Roster: []models.Player{{Name: "C"}}},
		},
		Status:    models.StatusRegularSeason,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStoreCreateLeague(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	l := newLeague("u1")
	if err := s.CreateLeague(ctx, l); err != nil {
		t.Fatalf("CreateLeague() error = %v", err)
	}
	if l.UserTeamID == 0 || l.UserTeamID != l.Teams[0].ID {
		t.Errorf("UserTeamID = %d, want %d", l.UserTeamID, l.Teams[0].ID)
	}
	for _, p := range l.Teams[1].Roster {
		if p.ID == 0 || p.TeamID != l.Teams[1].ID {
			t.Errorf("player %+v not assigned to team %d", p, l.Teams[1].ID)
		}
	}

	if err := s.CreateLeague(ctx, newLeague("u1")); !errors.Is(err, league.ErrAlreadyExists) {
		t.Errorf("second CreateLeague() error = %v, want %v", err, league.ErrAlreadyExists)
	}

	if _, err := s.GetLeague(ctx, "nobody"); !errors.Is(err, league.ErrNotFound) {
		t.Errorf("GetLeague(nobody) error = %v, want %v", err, league.ErrNotFound)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.CreateLeague(ctx, newLeague("u1")); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetLeague(ctx, "u1")
	got.Teams[0].Wins = 99
	got.Teams[0].Roster[0].Name = "changed"

	again, _ := s.GetLeague(ctx, "u1")
	if again.Teams[0].Wins != 0 || again.Teams[0].Roster[0].Name != "A" {
		t.Errorf("store state leaked through a returned league: %+v", again.Teams[0])
	}
}

func TestMemoryStoreCompleteFixtureOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	l := newLeague("u1")
	if err := s.CreateLeague(ctx, l); err != nil {
		t.Fatal(err)
	}

	f := &models.Fixture{Week: 1, HomeTeamID: l.Teams[0].ID, AwayTeamID: l.Teams[1].ID}
	if err := s.SaveFixtures(ctx, l.ID, []*models.Fixture{f}); err != nil {
		t.Fatalf("SaveFixtures() error = %v", err)
	}
	if f.ID == 0 {
		t.Fatal("SaveFixtures did not assign an ID")
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.CompleteFixture(ctx, models.FixtureResult{
				LeagueID:  l.ID,
				FixtureID: f.ID,
				HomeScore: 90,
				AwayScore: 80,
				WinnerID:  &l.Teams[0].ID,
				LoserID:   &l.Teams[1].ID,
				Morale:    &models.Morale{Good: 60, Bad: 20},
			})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			} else if !errors.Is(err, league.ErrAlreadyCompleted) {
				t.Errorf("CompleteFixture() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("successful completions = %d, want 1", successes)
	}

	got, err := s.GetLeagueByFixture(ctx, f.ID)
	if err != nil {
		t.Fatalf("GetLeagueByFixture() error = %v", err)
	}
	stored := got.Fixture(f.ID)
	if !stored.Completed || *stored.HomeScore != 90 || *stored.WinnerID != l.Teams[0].ID {
		t.Errorf("stored fixture = %+v", stored)
	}
	// the record and morale effects land exactly once with the score
	if w, lo := got.Teams[0], got.Teams[1]; w.Wins != 1 || w.Losses != 0 || lo.Wins != 0 || lo.Losses != 1 {
		t.Errorf("records = %d-%d and %d-%d, want 1-0 and 0-1", w.Wins, w.Losses, lo.Wins, lo.Losses)
	}
	if got.Morale != (models.Morale{Good: 60, Bad: 20}) {
		t.Errorf("Morale = %+v, want {60 20}", got.Morale)
	}

	if err := s.CompleteFixture(ctx, models.FixtureResult{FixtureID: 12345, HomeScore: 1}); !errors.Is(err, league.ErrNotFound) {
		t.Errorf("CompleteFixture(unknown) error = %v, want %v", err, league.ErrNotFound)
	}
}

func TestMemoryStoreCompleteFixtureRejectsForeignTeam(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	l := newLeague("u1")
	other := newLeague("u2")
	if err := s.CreateLeague(ctx, l); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateLeague(ctx, other); err != nil {
		t.Fatal(err)
	}
	f := &models.Fixture{Week: 1, HomeTeamID: l.Teams[0].ID, AwayTeamID: l.Teams[1].ID}
	if err := s.SaveFixtures(ctx, l.ID, []*models.Fixture{f}); err != nil {
		t.Fatal(err)
	}

	err := s.CompleteFixture(ctx, models.FixtureResult{
		FixtureID: f.ID,
		HomeScore: 70,
		AwayScore: 60,
		WinnerID:  &l.Teams[0].ID,
		LoserID:   &other.Teams[0].ID,
	})
	if !errors.Is(err, league.ErrNotFound) {
		t.Fatalf("CompleteFixture() error = %v, want %v", err, league.ErrNotFound)
	}

	got, _ := s.GetLeague(ctx, "u1")
	if got.Fixture(f.ID).Completed || got.Teams[0].Wins != 0 {
		t.Errorf("rejected result was partly applied: fixture %+v, team %+v", got.Fixture(f.ID), got.Teams[0])
	}
}

func TestMemoryStoreRecordsAndLineup(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	l := newLeague("u1")
	if err := s.CreateLeague(ctx, l); err != nil {
		t.Fatal(err)
	}
	teamID := l.Teams[0].ID

	_ = s.UpdateRecord(ctx, teamID, models.OutcomeWin)
	_ = s.UpdateRecord(ctx, teamID, models.OutcomeWin)
	_ = s.UpdateRecord(ctx, teamID, models.OutcomeLoss)

	team, err := s.GetTeam(ctx, teamID)
	if err != nil {
		t.Fatalf("GetTeam() error = %v", err)
	}
	if team.Wins != 2 || team.Losses != 1 {
		t.Errorf("record = %d-%d, want 2-1", team.Wins, team.Losses)
	}

	if err := s.UpdateRecord(ctx, teamID, "draw"); !errors.Is(err, league.ErrPreconditionFailed) {
		t.Errorf("UpdateRecord(draw) error = %v, want %v", err, league.ErrPreconditionFailed)
	}
	if err := s.UpdateRecord(ctx, 999, models.OutcomeWin); !errors.Is(err, league.ErrNotFound) {
		t.Errorf("UpdateRecord(999) error = %v, want %v", err, league.ErrNotFound)
	}

	if err := s.ResetRecords(ctx, l.ID); err != nil {
		t.Fatalf("ResetRecords() error = %v", err)
	}
	team, _ = s.GetTeam(ctx, teamID)
	if team.Wins != 0 || team.Losses != 0 {
		t.Errorf("record after reset = %d-%d, want 0-0", team.Wins, team.Losses)
	}

	if err := s.SaveLineup(ctx, teamID, []string{"B"}); err != nil {
		t.Fatalf("SaveLineup() error = %v", err)
	}
	players, _ := s.GetPlayersByTeam(ctx, teamID)
	for _, p := range players {
		if want := p.Name == "B"; p.Starter != want {
			t.Errorf("%s starter = %v, want %v", p.Name, p.Starter, want)
		}
	}
}

func TestMemoryStoreDeleteLeague(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	l := newLeague("u1")
	_ = s.CreateLeague(ctx, l)
	_ = s.CreateLeague(ctx, newLeague("u2"))

	f := &models.Fixture{Week: 1, HomeTeamID: l.Teams[0].ID, AwayTeamID: l.Teams[1].ID}
	_ = s.SaveFixtures(ctx, l.ID, []*models.Fixture{f})

	if err := s.DeleteLeague(ctx, "u1"); err != nil {
		t.Fatalf("DeleteLeague() error = %v", err)
	}
	if _, err := s.GetLeagueByFixture(ctx, f.ID); !errors.Is(err, league.ErrNotFound) {
		t.Errorf("fixture survived league deletion: %v", err)
	}
	if _, err := s.GetTeam(ctx, l.Teams[0].ID); !errors.Is(err, league.ErrNotFound) {
		t.Errorf("team survived league deletion: %v", err)
	}

	owners, _ := s.ListLeagueOwners(ctx)
	if len(owners) != 1 || owners[0] != "u2" {
		t.Errorf("owners = %v, want [u2]", owners)
	}

	if err := s.DeleteLeague(ctx, "u1"); err != nil {
		t.Errorf("deleting a missing league: %v", err)
	}

	// a fresh league can be created after cleanup
	if err := s.CreateLeague(ctx, newLeague("u1")); err != nil {
		t.Errorf("CreateLeague() after delete error = %v", err)
	}
}

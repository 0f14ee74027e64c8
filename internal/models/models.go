package models

import "time"

// Position is a player's court position
type Position string

const (
	PointGuard    Position = "PG"
	ShootingGuard Position = "SG"
	SmallForward  Position = "SF"
	PowerForward  Position = "PF"
	Center        Position = "C"
)

// Positions lists every position in lineup order
var Positions = []Position{PointGuard, ShootingGuard, SmallForward, PowerForward, Center}

// Tendency is a player's preferred shot type
type Tendency string

const (
	TendencyPost       Tendency = "POST"
	TendencyThreePoint Tendency = "THREE_POINT"
	TendencyMidrange   Tendency = "MIDRANGE"
)

// StartersPerTeam is the size of a finalized starting lineup
const StartersPerTeam = 5

// Player is a rostered player
type Player struct {
	ID       int      `json:"playerId"`
	TeamID   int      `json:"teamId"`
	Name     string   `json:"playerName"`
	Age      int      `json:"playerAge"`
	Height   int      `json:"playerHeight"` // inches
	Position Position `json:"playerPosition"`
	Rating   int      `json:"playerRating"`
	Tendency Tendency `json:"playerTendencies"`
	Starter  bool     `json:"isStarter"`
}

// Team is a league member with its season record
type Team struct {
	ID     int      `json:"teamId"`
	Name   string   `json:"teamName"`
	Wins   int      `json:"wins"`
	Losses int      `json:"lose"`
	IsUser bool     `json:"isUserTeam"`
	Roster []Player `json:"players,omitempty"`
}

// Starters returns the players flagged as starters
func (t *Team) Starters() []Player {
	starters := make([]Player, 0, StartersPerTeam)
	for _, p := range t.Roster {
		if p.Starter {
			starters = append(starters, p)
		}
	}
	return starters
}

// OnCourt returns the starting five when a full lineup is set,
// otherwise the whole roster.
func (t *Team) OnCourt() []Player {
	if starters := t.Starters(); len(starters) == StartersPerTeam {
		return starters
	}
	return t.Roster
}

// Phase tags a fixture as regular season or playoff
type Phase string

const (
	PhaseRegular Phase = "REGULAR"
	PhasePlayoff Phase = "PLAYOFF"
)

// Fixture is a single scheduled game
type Fixture struct {
	ID         int       `json:"scheduleId"`
	LeagueID   string    `json:"leagueId"`
	Week       int       `json:"week"`
	HomeTeamID int       `json:"homeTeamId"`
	AwayTeamID int       `json:"awayTeamId"`
	Date       time.Time `json:"gameDate"`
	Completed  bool      `json:"isCompleted"`
	IsUserGame bool      `json:"isUserGame"`
	HomeScore  *int      `json:"homeScore,omitempty"`
	AwayScore  *int      `json:"awayScore,omitempty"`
	WinnerID   *int      `json:"winnerId,omitempty"`
	Phase      Phase     `json:"phase"`
}

// Involves reports whether the team plays in this fixture
func (f *Fixture) Involves(teamID int) bool {
	return f.HomeTeamID == teamID || f.AwayTeamID == teamID
}

// Outcome is a single-game result from one team's point of view
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// LeagueStatus tracks where a league is in its season
type LeagueStatus string

const (
	StatusRegularSeason    LeagueStatus = "regular_season"
	StatusReadyForPlayoffs LeagueStatus = "ready_for_playoffs"
	StatusPlayoffs         LeagueStatus = "playoffs"
	StatusComplete         LeagueStatus = "complete"
)

// Morale is the assistant coach's mood, each side on a 0-100 scale
type Morale struct {
	Good int `json:"goodEmotion"`
	Bad  int `json:"badEmotion"`
}

// FixtureResult is everything one completed game changes: the score, one
// win and one loss unless it was tied, and the coach's morale when the
// user's team played.
type FixtureResult struct {
	LeagueID  string
	FixtureID int
	HomeScore int
	AwayScore int
	WinnerID  *int
	LoserID   *int
	Morale    *Morale
}

// League is one user's season
type League struct {
	ID          string       `json:"leagueId"`
	UserID      string       `json:"userId"`
	UserTeamID  int          `json:"userTeamId"`
	Teams       []Team       `json:"teams"`
	Fixtures    []*Fixture   `json:"-"`
	Weeks       int          `json:"weeks"`
	CurrentWeek int          `json:"currentWeek"`
	Status      LeagueStatus `json:"status"`
	Morale      Morale       `json:"morale"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Team looks up a team by ID
func (l *League) Team(id int) *Team {
	for i := range l.Teams {
		if l.Teams[i].ID == id {
			return &l.Teams[i]
		}
	}
	return nil
}

// UserTeam returns the user-controlled team
func (l *League) UserTeam() *Team {
	return l.Team(l.UserTeamID)
}

// Fixture looks up a fixture by ID
func (l *League) Fixture(id int) *Fixture {
	for _, f := range l.Fixtures {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// WeekFixtures returns the fixtures scheduled in the given week
func (l *League) WeekFixtures(week int) []*Fixture {
	out := make([]*Fixture, 0)
	for _, f := range l.Fixtures {
		if f.Week == week {
			out = append(out, f)
		}
	}
	return out
}

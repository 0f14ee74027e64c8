package league

import (
	"sort"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/models"
)

// Standing is one row of the league table
type Standing struct {
	Rank          int    `json:"rank"`
	TeamID        int    `json:"teamId"`
	TeamName      string `json:"teamName"`
	IsUser        bool   `json:"isUserTeam"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"lose"`
	Ties          int    `json:"ties"`
	PointsFor     int    `json:"pointsFor"`
	PointsAgainst int    `json:"pointsAgainst"`
	Differential  int    `json:"differential"`
}

// ComputeStandings ranks teams by the completed fixtures: wins descending,
// losses ascending, then point differential, then team ID. The result does
// not depend on the order of either input.
func ComputeStandings(teams []models.Team, fixtures []*models.Fixture) []Standing {
	return rank(tally(teams, fixtures))
}

// RecordStandings ranks teams by their stored win/loss records. Ties and
// points still come from the completed fixtures, and the ordering matches
// ComputeStandings.
func RecordStandings(teams []models.Team, fixtures []*models.Fixture) []Standing {
	rows := tally(teams, fixtures)
	for _, t := range teams {
		if r := rows[t.ID]; r != nil {
			r.Wins, r.Losses = t.Wins, t.Losses
		}
	}
	return rank(rows)
}

func tally(teams []models.Team, fixtures []*models.Fixture) map[int]*Standing {
	rows := make(map[int]*Standing, len(teams))
	for _, t := range teams {
		rows[t.ID] = &Standing{TeamID: t.ID, TeamName: t.Name, IsUser: t.IsUser}
	}

	for _, f := range fixtures {
		if !f.Completed || f.HomeScore == nil || f.AwayScore == nil {
			continue
		}
		home, away := rows[f.HomeTeamID], rows[f.AwayTeamID]
		if home == nil || away == nil {
			continue
		}

		hs, as := *f.HomeScore, *f.AwayScore
		home.PointsFor += hs
		home.PointsAgainst += as
		away.PointsFor += as
		away.PointsAgainst += hs

		switch {
		case hs > as:
			home.Wins++
			away.Losses++
		case as > hs:
			away.Wins++
			home.Losses++
		default:
			home.Ties++
			away.Ties++
		}
	}
	return rows
}

func rank(rows map[int]*Standing) []Standing {
	table := make([]Standing, 0, len(rows))
	for _, r := range rows {
		r.Differential = r.PointsFor - r.PointsAgainst
		table = append(table, *r)
	}

	sort.Slice(table, func(i, j int) bool {
		a, b := table[i], table[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.Losses != b.Losses {
			return a.Losses < b.Losses
		}
		if a.Differential != b.Differential {
			return a.Differential > b.Differential
		}
		return a.TeamID < b.TeamID
	})

	for i := range table {
		table[i].Rank = i + 1
	}
	return table
}

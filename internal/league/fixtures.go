package league

import (
	"fmt"
	"sort"
	"time"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/models"
)

// DaysBetweenWeeks spaces the nominal date of consecutive weeks
const DaysBetweenWeeks = 7

// Schedule maps a week number to the fixtures played that week
type Schedule map[int][]*models.Fixture

// Fixtures flattens the schedule in week order
func (s Schedule) Fixtures() []*models.Fixture {
	weeks := make([]int, 0, len(s))
	for w := range s {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)

	out := make([]*models.Fixture, 0)
	for _, w := range weeks {
		out = append(out, s[w]...)
	}
	return out
}

// BuildSchedule groups fixtures by week
func BuildSchedule(fixtures []*models.Fixture) Schedule {
	s := make(Schedule)
	for _, f := range fixtures {
		s[f.Week] = append(s[f.Week], f)
	}
	return s
}

// GenerateRoundRobin builds a regular season with the circle method: the
// first team stays fixed while the others rotate one slot per week, and
// slot i meets slot n-1-i. weeks must be a multiple of n-1; every extra
// cycle replays the pairings with home and away swapped.
func GenerateRoundRobin(teams []models.Team, weeks int, start time.Time) (Schedule, error) {
	n := len(teams)
	if n < 2 || n%2 != 0 {
		return nil, fmt.Errorf("%w: round robin needs an even number of teams, got %d", ErrInvalidTeamCount, n)
	}

	seen := make(map[int]bool, n)
	for _, t := range teams {
		if seen[t.ID] {
			return nil, fmt.Errorf("%w: team %d listed twice", ErrInvalidTeamCount, t.ID)
		}
		seen[t.ID] = true
	}

	rounds := n - 1
	if weeks <= 0 || weeks%rounds != 0 {
		return nil, fmt.Errorf("%w: %d weeks cannot hold a round robin of %d teams", ErrInvalidWeeks, weeks, n)
	}

	slots := make([]int, n)
	for i := range slots {
		slots[i] = i
	}

	schedule := make(Schedule, weeks)
	for week := 1; week <= weeks; week++ {
		date := start.AddDate(0, 0, DaysBetweenWeeks*(week-1))
		fixtures := make([]*models.Fixture, 0, n/2)

		for i := 0; i < n/2; i++ {
			home, away := teams[slots[i]], teams[slots[n-1-i]]
			// n-1 is odd, so the second cycle lands on the opposite parity
			if week%2 == 0 {
				home, away = away, home
			}
			fixtures = append(fixtures, &models.Fixture{
				Week:       week,
				HomeTeamID: home.ID,
				AwayTeamID: away.ID,
				Date:       date,
				IsUserGame: home.IsUser || away.IsUser,
				Phase:      models.PhaseRegular,
			})
		}
		schedule[week] = fixtures

		last := slots[n-1]
		copy(slots[2:], slots[1:n-1])
		slots[1] = last
	}

	return schedule, nil
}

// GeneratePlayoff creates the final between the two best regular-season
// records. It is only allowed once every regular-season fixture is complete.
func GeneratePlayoff(teams []models.Team, fixtures []*models.Fixture, weeks int) (*models.Fixture, error) {
	if len(teams) < 2 {
		return nil, fmt.Errorf("%w: playoffs need at least two teams", ErrInvalidTeamCount)
	}

	regular := make([]*models.Fixture, 0, len(fixtures))
	var lastDate time.Time
	for _, f := range fixtures {
		if f.Phase == models.PhasePlayoff {
			return nil, fmt.Errorf("%w: playoff fixture %d", ErrAlreadyExists, f.ID)
		}
		if !f.Completed {
			return nil, fmt.Errorf("%w: week %d fixture %d is not complete", ErrPreconditionFailed, f.Week, f.ID)
		}
		if f.Date.After(lastDate) {
			lastDate = f.Date
		}
		regular = append(regular, f)
	}
	if len(regular) == 0 {
		return nil, fmt.Errorf("%w: no regular season has been played", ErrPreconditionFailed)
	}

	table := ComputeStandings(teams, regular)
	first, second := table[0], table[1]

	return &models.Fixture{
		Week:       weeks + 1,
		HomeTeamID: first.TeamID,
		AwayTeamID: second.TeamID,
		Date:       lastDate.AddDate(0, 0, DaysBetweenWeeks),
		IsUserGame: first.IsUser || second.IsUser,
		Phase:      models.PhasePlayoff,
	}, nil
}

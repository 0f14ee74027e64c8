package roster

import (
	"math/rand"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/models"
)

// PlayersPerTeam is the size of a generated roster
const PlayersPerTeam = 10

// Generated player attribute ranges
const (
	minRating = 65
	maxRating = 94
	minAge    = 20
	maxAge    = 34
	minHeight = 70
	maxHeight = 85
)

var firstNames = []string{
	"James", "Michael", "David", "Chris", "Robert", "Daniel", "Matthew", "Anthony",
	"Mark", "Paul", "Carlos", "Marcus", "Kevin", "Tyler", "Jordan", "Brandon",
	"Austin", "Derek", "Trevor", "Cameron",
}

var lastNames = []string{
	"Smith", "Johnson", "Brown", "Davis", "Wilson", "Taylor", "Anderson", "Thomas",
	"Jackson", "White", "Rodriguez", "Thompson", "Williams", "Martinez", "Garcia",
	"Lopez", "Miller", "Jones", "Adams", "Clark",
}

var tendencies = []models.Tendency{
	models.TendencyPost,
	models.TendencyThreePoint,
	models.TendencyMidrange,
}

// Generate builds a ten-man roster, two players per position, with the
// first five as starters. Names are unique within the roster.
func Generate(rng *rand.Rand, teamID int) []models.Player {
	used := make(map[string]bool, PlayersPerTeam)
	players := make([]models.Player, 0, PlayersPerTeam)

	for i := 0; i < PlayersPerTeam; i++ {
		var name string
		for {
			name = firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]
			if !used[name] {
				break
			}
		}
		used[name] = true

		players = append(players, models.Player{
			TeamID:   teamID,
			Name:     name,
			Age:      minAge + rng.Intn(maxAge-minAge+1),
			Height:   minHeight + rng.Intn(maxHeight-minHeight+1),
			Position: models.Positions[i%len(models.Positions)],
			Rating:   minRating + rng.Intn(maxRating-minRating+1),
			Tendency: tendencies[rng.Intn(len(tendencies))],
			Starter:  i < models.StartersPerTeam,
		})
	}
	return players
}

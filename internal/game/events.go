package game

import (
	"fmt"
	"strings"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/models"
)

// Side identifies a team within a game
type Side string

const (
	SideHome    Side = "home"
	SideAway    Side = "away"
	SideNeutral Side = "neutral"
)

// Other returns the opposing side
func (s Side) Other() Side {
	switch s {
	case SideHome:
		return SideAway
	case SideAway:
		return SideHome
	}
	return SideNeutral
}

// Category is the broad class of a play
type Category string

const (
	CategoryShot     Category = "shot"
	CategoryRebound  Category = "rebound"
	CategorySteal    Category = "steal"
	CategoryTurnover Category = "turnover"
	CategoryAssist   Category = "assist"
	CategoryBlock    Category = "block"
	CategoryTimeout  Category = "timeout"
	CategoryFoul     Category = "foul"
	CategoryNone     Category = "none"
)

// Kind is the specific play drawn from the weight table
type Kind string

const (
	KindThreePointer     Kind = "three_pointer"
	KindJumpShot         Kind = "jump_shot"
	KindLayup            Kind = "layup"
	KindFreeThrow        Kind = "free_throw"
	KindAssist           Kind = "assist"
	KindTurnover         Kind = "turnover"
	KindSteal            Kind = "steal"
	KindBlock            Kind = "block"
	KindDefensiveRebound Kind = "defensive_rebound"
	KindOffensiveRebound Kind = "offensive_rebound"
	KindFoul             Kind = "foul"
	KindTimeout          Kind = "timeout"
	KindPreparing        Kind = "preparing"
)

var kindCategory = map[Kind]Category{
	KindThreePointer:     CategoryShot,
	KindJumpShot:         CategoryShot,
	KindLayup:            CategoryShot,
	KindFreeThrow:        CategoryShot,
	KindAssist:           CategoryAssist,
	KindTurnover:         CategoryTurnover,
	KindSteal:            CategorySteal,
	KindBlock:            CategoryBlock,
	KindDefensiveRebound: CategoryRebound,
	KindOffensiveRebound: CategoryRebound,
	KindFoul:             CategoryFoul,
	KindTimeout:          CategoryTimeout,
}

var shotPoints = map[Kind]int{
	KindThreePointer: 3,
	KindJumpShot:     2,
	KindLayup:        2,
	KindFreeThrow:    1,
}

// kinds performed by the defending team
var defensiveKinds = map[Kind]bool{
	KindSteal:            true,
	KindBlock:            true,
	KindDefensiveRebound: true,
	KindFoul:             true,
}

// kinds that hand the ball to the other team without a score
var possessionKinds = map[Kind]bool{
	KindTurnover:         true,
	KindSteal:            true,
	KindDefensiveRebound: true,
}

// Weight is one row of the category table
type Weight struct {
	Kind   Kind
	Weight float64
}

// Situational adjustments to the category table
const (
	crunchTimeSeconds = 120
	crunchTimeMargin  = 6
	lateThreeBoost    = 3
	lateStealBoost    = 2
	crunchThreeBoost  = 5
	crunchFoulBoost   = 4
	minDefenderRating = 70
)

// Event is one entry of a game's play-by-play log
type Event struct {
	ID          string   `json:"id"`
	Seq         int      `json:"seq"`
	Quarter     int      `json:"quarter"`
	Clock       string   `json:"time"`
	Description string   `json:"description"`
	Team        Side     `json:"team"`
	Points      int      `json:"points"`
	Player      string   `json:"player,omitempty"`
	Category    Category `json:"type"`
	Kind        Kind     `json:"kind"`
	Made        bool     `json:"made,omitempty"`
	// ChangesPossession is set on non-scoring plays that give the ball away
	ChangesPossession bool `json:"changesPossession,omitempty"`
}

// Situation is the game context a play is generated in
type Situation struct {
	Offense  Side
	Quarter  int
	TimeLeft int
	// Margin is the offense's score minus the defense's
	Margin   int
	Strategy Strategy
}

// Generator draws weighted plays and resolves them against player ratings
type Generator struct {
	cfg Config
	rng Source
}

// NewGenerator creates a play generator
func NewGenerator(cfg Config, rng Source) *Generator {
	return &Generator{cfg: cfg.withDefaults(), rng: rng}
}

// Next produces the next play for the team with the ball. A team without
// players yields a neutral placeholder instead of a play.
func (g *Generator) Next(offense, defense *models.Team, s Situation) Event {
	if offense == nil || defense == nil || len(offense.Roster) == 0 || len(defense.Roster) == 0 {
		return Event{
			Description: preparingDescription,
			Team:        SideNeutral,
			Category:    CategoryNone,
			Kind:        KindPreparing,
		}
	}

	kind := g.pickKind(s)
	actor, side := offense, s.Offense
	if defensiveKinds[kind] {
		actor, side = defense, s.Offense.Other()
	}

	player, name := g.pickPlayer(actor, kind)
	ev := Event{
		Team:              side,
		Player:            name,
		Category:          kindCategory[kind],
		Kind:              kind,
		ChangesPossession: possessionKinds[kind],
	}

	made := true
	if points, ok := shotPoints[kind]; ok {
		made = g.rng.Float64() < g.MakeChance(kind, player)
		if made {
			ev.Points = points
		}
		ev.Made = made
	}
	ev.Description = describe(g.rng, kind, made, name)
	return ev
}

// MakeChance is the probability that the player makes a shot of this kind:
// base rate plus tendency bonus, scaled by rating/100.
func (g *Generator) MakeChance(kind Kind, p models.Player) float64 {
	rates, ok := g.cfg.Shots[kind]
	if !ok {
		return 0
	}

	bonus := 0.0
	switch {
	case kind == KindThreePointer && p.Tendency == models.TendencyThreePoint,
		kind == KindJumpShot && p.Tendency == models.TendencyMidrange,
		kind == KindLayup && p.Tendency == models.TendencyPost:
		bonus = rates.Bonus
	case kind == KindLayup && (p.Position == models.Center || p.Position == models.PowerForward):
		bonus = rates.Bonus / 2
	}

	chance := (rates.Base + bonus) * float64(p.Rating) / 100
	return min(max(chance, 0), 0.95)
}

func (g *Generator) pickKind(s Situation) Kind {
	weights := make([]float64, len(g.cfg.Weights))
	total := 0.0

	late := s.Quarter >= g.cfg.Quarters
	crunch := late && s.TimeLeft <= crunchTimeSeconds && abs(s.Margin) <= crunchTimeMargin
	boosted := strategyKind[s.Strategy]

	for i, w := range g.cfg.Weights {
		v := w.Weight
		if late {
			switch w.Kind {
			case KindThreePointer:
				v += lateThreeBoost
			case KindSteal:
				v += lateStealBoost
			}
		}
		if crunch {
			switch w.Kind {
			case KindThreePointer:
				v += crunchThreeBoost
			case KindFoul:
				v += crunchFoulBoost
			}
		}
		if boosted != "" && w.Kind == boosted {
			v *= g.cfg.StrategyBoost
		}
		v = max(v, 0)
		weights[i] = v
		total += v
	}

	if total == 0 {
		return KindTimeout
	}

	r := g.rng.Float64() * total
	for i, v := range weights {
		if r < v {
			return g.cfg.Weights[i].Kind
		}
		r -= v
	}
	return g.cfg.Weights[len(g.cfg.Weights)-1].Kind
}

// pickPlayer chooses a suitable on-court player for the play and returns
// the name to report, which is never empty.
func (g *Generator) pickPlayer(team *models.Team, kind Kind) (models.Player, string) {
	court := team.OnCourt()

	candidates := make([]int, 0, len(court))
	for i, p := range court {
		if suited(kind, p) {
			candidates = append(candidates, i)
		}
	}

	var idx int
	if len(candidates) > 0 {
		idx = candidates[g.rng.Intn(len(candidates))]
	} else {
		idx = g.rng.Intn(len(court))
	}

	p := court[idx]
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = placeholderName(team.Name, idx)
	}
	return p, name
}

func placeholderName(teamName string, idx int) string {
	if strings.TrimSpace(teamName) == "" {
		return fmt.Sprintf("Player #%d", idx+1)
	}
	return fmt.Sprintf("%s Player #%d", teamName, idx+1)
}

func suited(kind Kind, p models.Player) bool {
	switch kind {
	case KindThreePointer, KindJumpShot:
		return p.Position == models.PointGuard || p.Position == models.ShootingGuard || p.Position == models.SmallForward
	case KindAssist:
		return p.Position == models.PointGuard || p.Position == models.ShootingGuard
	case KindDefensiveRebound, KindOffensiveRebound:
		return p.Position == models.PowerForward || p.Position == models.Center || p.Position == models.SmallForward
	case KindSteal, KindBlock:
		return p.Rating >= minDefenderRating && p.Position != models.PointGuard
	}
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

package roster

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/league"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/models"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Lineup is a lineup save request, by player name
type Lineup struct {
	Starters []string `json:"starters"`
	Bench    []string `json:"bench"`
}

// Store is the roster persistence the provider needs
type Store interface {
	GetPlayersByTeam(ctx context.Context, teamID int) ([]models.Player, error)
	SaveLineup(ctx context.Context, teamID int, starters []string) error
}

// Provider serves rosters and validates lineup changes
type Provider struct {
	store Store
}

// NewProvider creates a roster provider
func NewProvider(store Store) *Provider {
	return &Provider{store: store}
}

// GetPlayersByTeam returns the team's roster. An empty roster is reported
// as ErrInvalidRoster.
func (p *Provider) GetPlayersByTeam(ctx context.Context, teamID int) ([]models.Player, error) {
	players, err := p.store.GetPlayersByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("%w: team %d has no players", league.ErrInvalidRoster, teamID)
	}
	return players, nil
}

// SaveLineup validates and stores a new starting five
func (p *Provider) SaveLineup(ctx context.Context, teamID int, l Lineup) ([]models.Player, error) {
	players, err := p.GetPlayersByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := ValidateLineup(players, l); err != nil {
		return nil, err
	}
	if err := p.store.SaveLineup(ctx, teamID, l.Starters); err != nil {
		return nil, err
	}
	return ApplyLineup(players, l), nil
}

// SearchPlayers finds roster players whose names fuzzily match the query,
// best matches first.
func (p *Provider) SearchPlayers(ctx context.Context, teamID int, query string) ([]models.Player, error) {
	players, err := p.GetPlayersByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return Search(players, query), nil
}

// ValidateLineup checks that the lineup names exactly five starters and
// places every rostered player exactly once.
func ValidateLineup(players []models.Player, l Lineup) error {
	if len(l.Starters) != models.StartersPerTeam {
		return fmt.Errorf("%w: need exactly %d starters, got %d", league.ErrInvalidRoster, models.StartersPerTeam, len(l.Starters))
	}

	rostered := make(map[string]bool, len(players))
	for _, p := range players {
		rostered[p.Name] = true
	}

	placed := make(map[string]bool, len(players))
	for _, name := range append(append([]string(nil), l.Starters...), l.Bench...) {
		if !rostered[name] {
			return fmt.Errorf("%w: %q is not on the roster", league.ErrInvalidRoster, name)
		}
		if placed[name] {
			return fmt.Errorf("%w: %q is listed twice", league.ErrInvalidRoster, name)
		}
		placed[name] = true
	}

	if len(placed) != len(rostered) {
		return fmt.Errorf("%w: lineup places %d of %d players", league.ErrInvalidRoster, len(placed), len(rostered))
	}
	return nil
}

// ApplyLineup returns a copy of the roster with starter flags set from the
// lineup.
func ApplyLineup(players []models.Player, l Lineup) []models.Player {
	starters := make(map[string]bool, len(l.Starters))
	for _, name := range l.Starters {
		starters[name] = true
	}

	out := make([]models.Player, len(players))
	for i, p := range players {
		p.Starter = starters[p.Name]
		out[i] = p
	}
	return out
}

// Search ranks players by fuzzy name match. A blank query returns nothing.
func Search(players []models.Player, query string) []models.Player {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	names := make([]string, len(players))
	byName := make(map[string]models.Player, len(players))
	for i, p := range players {
		names[i] = p.Name
		byName[p.Name] = p
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Sort(ranks)

	out := make([]models.Player, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, byName[r.Target])
	}
	return out
}

package game

import "sort"

// PlayerLine is one player's counting stats for a game
type PlayerLine struct {
	Team     Side   `json:"team"`
	Player   string `json:"player"`
	Points   int    `json:"points"`
	Assists  int    `json:"assists"`
	Rebounds int    `json:"rebounds"`
	Steals   int    `json:"steals"`
	Blocks   int    `json:"blocks"`
}

// BoxScore totals the play-by-play into per-player lines, highest scorers
// first.
func BoxScore(events []Event) []PlayerLine {
	type key struct {
		team   Side
		player string
	}
	lines := make(map[key]*PlayerLine)

	for _, ev := range events {
		if ev.Player == "" || ev.Team == SideNeutral {
			continue
		}
		k := key{ev.Team, ev.Player}
		line := lines[k]
		if line == nil {
			line = &PlayerLine{Team: ev.Team, Player: ev.Player}
			lines[k] = line
		}

		line.Points += ev.Points
		switch ev.Kind {
		case KindAssist:
			line.Assists++
		case KindDefensiveRebound, KindOffensiveRebound:
			line.Rebounds++
		case KindSteal:
			line.Steals++
		case KindBlock:
			line.Blocks++
		}
	}

	out := make([]PlayerLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		if out[i].Team != out[j].Team {
			return out[i].Team < out[j].Team
		}
		return out[i].Player < out[j].Player
	})
	return out
}

package game

import "fmt"

type phrases struct {
	made   []string
	missed []string
}

var descriptions = map[Kind]phrases{
	KindThreePointer: {
		made: []string{
			"%s drains a three-pointer!",
			"%s buries it from downtown!",
			"%s hits from way beyond the arc!",
			"%s knocks down the corner three!",
		},
		missed: []string{
			"%s misses the three-point attempt",
			"%s's three rims out",
			"%s fires from deep but it's off the mark",
		},
	},
	KindJumpShot: {
		made: []string{
			"%s hits the midrange jumper",
			"%s pulls up and scores from the elbow",
			"%s knocks down the fadeaway",
		},
		missed: []string{
			"%s misses the jump shot",
			"%s's pull-up comes up short",
			"%s can't connect on the fadeaway",
		},
	},
	KindLayup: {
		made: []string{
			"%s drives and finishes the layup",
			"%s scores with a strong post move",
			"%s lays it in off the glass",
			"%s finishes at the rim!",
		},
		missed: []string{
			"%s misses the layup",
			"%s can't finish through contact",
			"%s's shot at the rim rolls off",
		},
	},
	KindFreeThrow: {
		made: []string{
			"%s makes the free throw",
			"%s sinks it from the line",
		},
		missed: []string{
			"%s misses the free throw",
			"%s leaves the free throw short",
		},
	},
	KindAssist: {
		made: []string{
			"%s finds the open teammate",
			"%s threads a great pass",
			"%s swings it around the perimeter",
		},
	},
	KindTurnover: {
		made: []string{
			"%s turns it over",
			"%s throws it out of bounds",
			"%s is called for traveling",
		},
	},
	KindSteal: {
		made: []string{
			"%s picks the pocket!",
			"%s jumps the passing lane for a steal",
			"%s strips the ball away",
		},
	},
	KindBlock: {
		made: []string{
			"%s with the block!",
			"%s swats it away!",
			"%s rejects the shot at the rim",
		},
	},
	KindDefensiveRebound: {
		made: []string{
			"%s grabs the defensive rebound",
			"%s secures the board",
		},
	},
	KindOffensiveRebound: {
		made: []string{
			"%s crashes the glass for the offensive rebound",
			"%s keeps the possession alive with the rebound",
		},
	},
	KindFoul: {
		made: []string{
			"%s is called for a foul",
			"%s picks up a personal foul",
			"%s reaches in and gets whistled",
		},
	},
	KindTimeout: {
		made: []string{
			"%s signals for a timeout",
			"Timeout called as %s waves to the bench",
		},
	},
}

const preparingDescription = "Teams are preparing..."

func describe(rng Source, kind Kind, made bool, player string) string {
	p, ok := descriptions[kind]
	if !ok {
		return player
	}
	lines := p.made
	if !made && len(p.missed) > 0 {
		lines = p.missed
	}
	return fmt.Sprintf(lines[rng.Intn(len(lines))], player)
}

package game

import "strings"

// Strategy is the coach's halftime game plan
type Strategy string

const (
	StrategyNone      Strategy = ""
	StrategyPerimeter Strategy = "perimeter"
	StrategyPost      Strategy = "post"
	StrategyMidrange  Strategy = "midrange"
)

// strategyKind is the play each strategy leans on
var strategyKind = map[Strategy]Kind{
	StrategyPerimeter: KindThreePointer,
	StrategyPost:      KindLayup,
	StrategyMidrange:  KindJumpShot,
}

var strategyAliases = map[string]Strategy{
	"perimeter":   StrategyPerimeter,
	"three_point": StrategyPerimeter,
	"post":        StrategyPost,
	"inside_post": StrategyPost,
	"midrange":    StrategyMidrange,
}

// ParseStrategy accepts a strategy name or its coach-popup id
func ParseStrategy(s string) (Strategy, error) {
	st, ok := strategyAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return StrategyNone, ErrUnknownStrategy
	}
	return st, nil
}

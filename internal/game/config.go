package game

// Default simulation tuning. One tick is one simulated second.
const (
	DefaultQuarterSeconds   = 720
	DefaultQuarters         = 4
	DefaultEventProbability = 0.12
	DefaultStrategyQuarter  = 2
	DefaultOvertimeSeconds  = 300
	DefaultMaxOvertimes     = 10
	DefaultStrategyBoost    = 1.5
)

// Rates holds the base make chance and tendency bonus per shot kind
type Rates struct {
	Base  float64
	Bonus float64
}

// Config tunes a simulated game. Zero fields fall back to the defaults.
type Config struct {
	QuarterSeconds   int
	Quarters         int
	EventProbability float64
	// StrategyQuarter is the quarter after which the coach is asked for a
	// strategy.
	StrategyQuarter int
	// OvertimeSeconds > 0 plays overtime periods instead of ending tied.
	OvertimeSeconds int
	MaxOvertimes    int
	StrategyBoost   float64
	Weights         []Weight
	Shots           map[Kind]Rates
}

// DefaultWeights is the category table used when Config.Weights is empty
var DefaultWeights = []Weight{
	{Kind: KindThreePointer, Weight: 18},
	{Kind: KindJumpShot, Weight: 22},
	{Kind: KindLayup, Weight: 14},
	{Kind: KindFreeThrow, Weight: 8},
	{Kind: KindAssist, Weight: 8},
	{Kind: KindTurnover, Weight: 7},
	{Kind: KindSteal, Weight: 4},
	{Kind: KindBlock, Weight: 4},
	{Kind: KindDefensiveRebound, Weight: 7},
	{Kind: KindOffensiveRebound, Weight: 3},
	{Kind: KindFoul, Weight: 4},
	{Kind: KindTimeout, Weight: 1},
}

// DefaultShots are the shot make rates used when Config.Shots is empty
var DefaultShots = map[Kind]Rates{
	KindThreePointer: {Base: 0.35, Bonus: 0.10},
	KindJumpShot:     {Base: 0.45, Bonus: 0.12},
	KindLayup:        {Base: 0.55, Bonus: 0.15},
	KindFreeThrow:    {Base: 0.95, Bonus: 0},
}

func (c Config) withDefaults() Config {
	if c.QuarterSeconds <= 0 {
		c.QuarterSeconds = DefaultQuarterSeconds
	}
	if c.Quarters <= 0 {
		c.Quarters = DefaultQuarters
	}
	if c.EventProbability <= 0 {
		c.EventProbability = DefaultEventProbability
	}
	if c.EventProbability > 1 {
		c.EventProbability = 1
	}
	if c.StrategyQuarter <= 0 {
		c.StrategyQuarter = DefaultStrategyQuarter
	}
	if c.OvertimeSeconds < 0 {
		c.OvertimeSeconds = 0
	}
	if c.MaxOvertimes <= 0 {
		c.MaxOvertimes = DefaultMaxOvertimes
	}
	if c.StrategyBoost <= 0 {
		c.StrategyBoost = DefaultStrategyBoost
	}
	if len(c.Weights) == 0 {
		c.Weights = DefaultWeights
	}
	if len(c.Shots) == 0 {
		c.Shots = DefaultShots
	}
	return c
}

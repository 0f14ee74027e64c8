package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/models"
	"github.com/IBM/sarama"
)

// DefaultGroupID is the analytics consumer group
const DefaultGroupID = "league-analytics"

// AnalyticsMetrics holds aggregated analytics data
type AnalyticsMetrics struct {
	TotalGames   int64                   `json:"totalGames"`
	TotalPoints  int64                   `json:"totalPoints"`
	HighestScore int                     `json:"highestScore"`
	PlayoffGames int64                   `json:"playoffGames"`
	LiveGames    int64                   `json:"liveGames"`
	WeeksPlayed  int64                   `json:"weeksPlayed"`
	GamesPerDay  map[string]int          `json:"gamesPerDay"`
	TeamRecords  map[string]*TeamMetrics `json:"teamRecords"`
}

// TeamMetrics holds per-team analytics
type TeamMetrics struct {
	Wins          int `json:"wins"`
	Losses        int `json:"losses"`
	Ties          int `json:"ties"`
	PointsFor     int `json:"pointsFor"`
	PointsAgainst int `json:"pointsAgainst"`
}

// Consumer aggregates league events for the analytics endpoint
type Consumer struct {
	group   sarama.ConsumerGroup
	topic   string
	metrics *AnalyticsMetrics
	mu      sync.RWMutex
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewConsumer joins the analytics consumer group
func NewConsumer(brokers []string, topic, groupID string) (*Consumer, error) {
	if topic == "" {
		topic = DefaultTopic
	}
	if groupID == "" {
		groupID = DefaultGroupID
	}

	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, err
	}

	c := newConsumer(topic)
	c.group = group
	return c, nil
}

func newConsumer(topic string) *Consumer {
	return &Consumer{
		topic: topic,
		metrics: &AnalyticsMetrics{
			GamesPerDay: make(map[string]int),
			TeamRecords: make(map[string]*TeamMetrics),
		},
		done: make(chan struct{}),
	}
}

// Start consumes until ctx is cancelled or Stop is called
func (c *Consumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	go func() {
		defer close(c.done)
		for {
			if err := c.group.Consume(ctx, []string{c.topic}, c); err != nil {
				slog.Error("kafka consumer error", "error", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
	slog.Info("kafka consumer started", "topic", c.topic)
}

// Setup is called at the beginning of a new session
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is called at the end of a session
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim processes messages from a partition
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		c.processMessage(msg)
		session.MarkMessage(msg, "")
	}
	return nil
}

// processMessage folds one event into the metrics
func (c *Consumer) processMessage(msg *sarama.ConsumerMessage) {
	var event LeagueEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		slog.Warn("skipping malformed event", "offset", msg.Offset, "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch event.Type {
	case EventGameStart:
		c.metrics.LiveGames++
	case EventWeekAdvanced:
		c.metrics.WeeksPlayed++
	case EventFixtureCompleted:
		var data FixtureCompletedData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			slog.Warn("skipping malformed fixture event", "offset", msg.Offset, "error", err)
			return
		}
		c.handleFixtureCompleted(event, data)
	}
}

func (c *Consumer) handleFixtureCompleted(event LeagueEvent, data FixtureCompletedData) {
	m := c.metrics
	m.TotalGames++
	m.TotalPoints += int64(data.HomeScore + data.AwayScore)
	m.HighestScore = max(m.HighestScore, data.HomeScore, data.AwayScore)
	if data.Phase == models.PhasePlayoff {
		m.PlayoffGames++
	}
	m.GamesPerDay[event.Timestamp.Format("2006-01-02")]++

	home, away := c.team(data.HomeTeam), c.team(data.AwayTeam)
	home.PointsFor += data.HomeScore
	home.PointsAgainst += data.AwayScore
	away.PointsFor += data.AwayScore
	away.PointsAgainst += data.HomeScore

	switch {
	case data.HomeScore > data.AwayScore:
		home.Wins++
		away.Losses++
	case data.AwayScore > data.HomeScore:
		away.Wins++
		home.Losses++
	default:
		home.Ties++
		away.Ties++
	}
}

func (c *Consumer) team(name string) *TeamMetrics {
	t, ok := c.metrics.TeamRecords[name]
	if !ok {
		t = &TeamMetrics{}
		c.metrics.TeamRecords[name] = t
	}
	return t
}

// GetMetrics returns a copy of the current metrics
func (c *Consumer) GetMetrics() *AnalyticsMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cp := *c.metrics
	cp.GamesPerDay = make(map[string]int, len(c.metrics.GamesPerDay))
	for k, v := range c.metrics.GamesPerDay {
		cp.GamesPerDay[k] = v
	}
	cp.TeamRecords = make(map[string]*TeamMetrics, len(c.metrics.TeamRecords))
	for k, v := range c.metrics.TeamRecords {
		t := *v
		cp.TeamRecords[k] = &t
	}
	return &cp
}

// AveragePoints returns the mean combined score per completed game
func (c *Consumer) AveragePoints() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.metrics.TotalGames == 0 {
		return 0
	}
	return float64(c.metrics.TotalPoints) / float64(c.metrics.TotalGames)
}

// Stop stops the consumer and waits for the consume loop to exit
func (c *Consumer) Stop() {
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}
	if c.group != nil {
		c.group.Close()
	}
}

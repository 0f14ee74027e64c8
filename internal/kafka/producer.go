package kafka

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/models"
	"github.com/IBM/sarama"
)

// DefaultTopic carries every league event
const DefaultTopic = "league-events"

// EventType represents the type of league event
type EventType string

const (
	EventGameStart         EventType = "game_start"
	EventGameEnd           EventType = "game_end"
	EventFixtureCompleted  EventType = "fixture_completed"
	EventWeekAdvanced      EventType = "week_advanced"
	EventPlayoffsGenerated EventType = "playoffs_generated"
)

// LeagueEvent is the envelope written to the topic
type LeagueEvent struct {
	Type      EventType       `json:"type"`
	LeagueID  string          `json:"leagueId"`
	UserID    string          `json:"userId"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// GameStartData describes a live game tipping off
type GameStartData struct {
	GameID    string `json:"gameId"`
	FixtureID int    `json:"fixtureId"`
	HomeTeam  string `json:"homeTeam"`
	AwayTeam  string `json:"awayTeam"`
}

// GameEndData describes a live game's final buzzer
type GameEndData struct {
	GameID          string `json:"gameId"`
	FixtureID       int    `json:"fixtureId"`
	HomeScore       int    `json:"homeScore"`
	AwayScore       int    `json:"awayScore"`
	Periods         int    `json:"periods"`
	DurationSeconds int    `json:"durationSeconds"`
	TotalEvents     int    `json:"totalEvents"`
}

// FixtureCompletedData is a committed final score
type FixtureCompletedData struct {
	FixtureID int          `json:"fixtureId"`
	Week      int          `json:"week"`
	Phase     models.Phase `json:"phase"`
	HomeTeam  string       `json:"homeTeam"`
	AwayTeam  string       `json:"awayTeam"`
	HomeScore int          `json:"homeScore"`
	AwayScore int          `json:"awayScore"`
	Winner    string       `json:"winner,omitempty"`
}

// WeekAdvancedData is the league pointer after an advance
type WeekAdvancedData struct {
	Week   int                 `json:"week"`
	Status models.LeagueStatus `json:"status"`
}

// PlayoffsGeneratedData names the finalists
type PlayoffsGeneratedData struct {
	FixtureID int    `json:"fixtureId"`
	HomeTeam  string `json:"homeTeam"`
	AwayTeam  string `json:"awayTeam"`
}

// Producer handles Kafka event production. A producer without brokers is
// disabled and drops every event.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	enabled  bool
}

// NewProducer connects to the brokers. A connection failure disables the
// producer instead of failing startup.
func NewProducer(brokers []string, topic string) *Producer {
	if topic == "" {
		topic = DefaultTopic
	}
	if len(brokers) == 0 {
		slog.Info("kafka producer disabled, no brokers configured")
		return &Producer{topic: topic}
	}

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		slog.Warn("kafka producer not available, analytics disabled", "error", err)
		return &Producer{topic: topic}
	}

	slog.Info("kafka producer connected", "brokers", brokers, "topic", topic)
	return newProducer(producer, topic)
}

func newProducer(p sarama.SyncProducer, topic string) *Producer {
	return &Producer{producer: p, topic: topic, enabled: true}
}

// EmitGameStart emits a live game start
func (p *Producer) EmitGameStart(leagueID, userID string, data GameStartData) {
	p.emit(EventGameStart, leagueID, userID, data)
}

// EmitGameEnd emits a live game end
func (p *Producer) EmitGameEnd(leagueID, userID string, data GameEndData) {
	p.emit(EventGameEnd, leagueID, userID, data)
}

// FixtureCompleted emits a committed result
func (p *Producer) FixtureCompleted(l *models.League, f *models.Fixture) {
	if !p.enabled || f.HomeScore == nil || f.AwayScore == nil {
		return
	}
	data := FixtureCompletedData{
		FixtureID: f.ID,
		Week:      f.Week,
		Phase:     f.Phase,
		HomeTeam:  teamName(l, f.HomeTeamID),
		AwayTeam:  teamName(l, f.AwayTeamID),
		HomeScore: *f.HomeScore,
		AwayScore: *f.AwayScore,
	}
	if f.WinnerID != nil {
		data.Winner = teamName(l, *f.WinnerID)
	}
	p.emit(EventFixtureCompleted, l.ID, l.UserID, data)
}

// WeekAdvanced emits the league's new week and status
func (p *Producer) WeekAdvanced(l *models.League) {
	p.emit(EventWeekAdvanced, l.ID, l.UserID, WeekAdvancedData{Week: l.CurrentWeek, Status: l.Status})
}

// PlayoffsGenerated emits the final's pairing
func (p *Producer) PlayoffsGenerated(l *models.League, f *models.Fixture) {
	p.emit(EventPlayoffsGenerated, l.ID, l.UserID, PlayoffsGeneratedData{
		FixtureID: f.ID,
		HomeTeam:  teamName(l, f.HomeTeamID),
		AwayTeam:  teamName(l, f.AwayTeamID),
	})
}

func (p *Producer) emit(t EventType, leagueID, userID string, data any) {
	if !p.enabled {
		return
	}

	raw, err := json.Marshal(data)
	if err != nil {
		slog.Error("marshal event data", "type", t, "error", err)
		return
	}

	p.send(LeagueEvent{
		Type:      t,
		LeagueID:  leagueID,
		UserID:    userID,
		Timestamp: time.Now(),
		Data:      raw,
	})
}

// send writes an event keyed by league so a league's events stay ordered
func (p *Producer) send(event LeagueEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("marshal event", "type", event.Type, "error", err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.LeagueID),
		Value: sarama.ByteEncoder(data),
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		slog.Error("send event to kafka", "type", event.Type, "error", err)
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// IsEnabled returns whether Kafka is enabled
func (p *Producer) IsEnabled() bool {
	return p.enabled
}

func teamName(l *models.League, teamID int) string {
	if t := l.Team(teamID); t != nil {
		return t.Name
	}
	return ""
}

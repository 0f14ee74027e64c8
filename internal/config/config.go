package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/game"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server     Server
	Database   Database
	Kafka      Kafka
	Auth       Auth
	Simulation Simulation
	Scheduler  Scheduler
}

type Server struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// Database is optional; without a URL leagues live in memory
type Database struct {
	URL      string `envconfig:"DATABASE_URL"`
	MaxConns int32  `envconfig:"DATABASE_MAX_CONNS" default:"10"`
}

// Kafka is optional; without brokers events are dropped
type Kafka struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Topic   string   `envconfig:"KAFKA_TOPIC" default:"league-events"`
	GroupID string   `envconfig:"KAFKA_GROUP_ID" default:"league-analytics"`
}

// Auth enables bearer tokens when a secret is set
type Auth struct {
	JWTSecret string `envconfig:"AUTH_JWT_SECRET"`
}

type Simulation struct {
	QuarterSeconds   int           `envconfig:"SIM_QUARTER_SECONDS" default:"720"`
	EventProbability float64       `envconfig:"SIM_EVENT_PROBABILITY" default:"0.12"`
	TickInterval     time.Duration `envconfig:"SIM_TICK_INTERVAL" default:"1s"`
	Seed             int64         `envconfig:"SIM_SEED"`
	Legs             int           `envconfig:"SIM_LEGS" default:"1"`
	Parallelism      int           `envconfig:"SIM_PARALLELISM" default:"4"`
}

// Scheduler runs AI weeks automatically when the interval is set
type Scheduler struct {
	AutoSimInterval time.Duration `envconfig:"AUTO_SIM_INTERVAL"`
}

// New loads an optional .env file and then the environment
func New(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	if p, err := strconv.Atoi(c.Server.Port); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("invalid PORT %q", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.Server.ShutdownTimeout)
	}
	if c.Database.MaxConns <= 0 {
		return fmt.Errorf("DATABASE_MAX_CONNS must be positive, got %d", c.Database.MaxConns)
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	sim := c.Simulation
	switch {
	case sim.QuarterSeconds <= 0:
		return fmt.Errorf("SIM_QUARTER_SECONDS must be positive, got %d", sim.QuarterSeconds)
	case sim.EventProbability <= 0 || sim.EventProbability > 1:
		return fmt.Errorf("SIM_EVENT_PROBABILITY must be in (0, 1], got %g", sim.EventProbability)
	case sim.TickInterval <= 0:
		return fmt.Errorf("SIM_TICK_INTERVAL must be positive, got %s", sim.TickInterval)
	case sim.Legs < 1:
		return fmt.Errorf("SIM_LEGS must be at least 1, got %d", sim.Legs)
	case sim.Parallelism < 1:
		return fmt.Errorf("SIM_PARALLELISM must be at least 1, got %d", sim.Parallelism)
	}

	if c.Scheduler.AutoSimInterval < 0 {
		return fmt.Errorf("AUTO_SIM_INTERVAL must not be negative, got %s", c.Scheduler.AutoSimInterval)
	}
	return nil
}

// GameConfig is the game tuning derived from the simulation settings
func (c *Config) GameConfig() game.Config {
	return game.Config{
		QuarterSeconds:   c.Simulation.QuarterSeconds,
		EventProbability: c.Simulation.EventProbability,
	}
}

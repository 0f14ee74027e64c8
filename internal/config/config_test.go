package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	c, err := New(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if c.Server.Port != "8080" {
		t.Errorf("Port = %q, want 8080", c.Server.Port)
	}
	if c.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %s, want 30s", c.Server.ShutdownTimeout)
	}
	if c.Kafka.Topic != "league-events" {
		t.Errorf("Topic = %q, want league-events", c.Kafka.Topic)
	}
	if c.Simulation.Legs != 1 || c.Simulation.TickInterval != time.Second {
		t.Errorf("Simulation = %+v", c.Simulation)
	}
	if c.Scheduler.AutoSimInterval != 0 {
		t.Errorf("AutoSimInterval = %s, want disabled", c.Scheduler.AutoSimInterval)
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SIM_LEGS", "2")
	t.Setenv("AUTO_SIM_INTERVAL", "5m")

	c, err := New(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Server.Port != "9090" {
		t.Errorf("Port = %q, want 9090", c.Server.Port)
	}
	if len(c.Kafka.Brokers) != 2 || c.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Brokers = %v", c.Kafka.Brokers)
	}
	if c.Simulation.Legs != 2 {
		t.Errorf("Legs = %d, want 2", c.Simulation.Legs)
	}
	if c.Scheduler.AutoSimInterval != 5*time.Minute {
		t.Errorf("AutoSimInterval = %s, want 5m", c.Scheduler.AutoSimInterval)
	}
}

func TestNewLoadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("AUTH_JWT_SECRET=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// Setenv restores the variable on cleanup; godotenv only fills unset keys
	t.Setenv("AUTH_JWT_SECRET", "")
	os.Unsetenv("AUTH_JWT_SECRET")

	c, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Auth.JWTSecret != "from-file" {
		t.Errorf("JWTSecret = %q, want from-file", c.Auth.JWTSecret)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   Server{Port: "8080", ShutdownTimeout: time.Second},
			Database: Database{MaxConns: 4},
			Kafka:    Kafka{Topic: "t"},
			Simulation: Simulation{
				QuarterSeconds:   720,
				EventProbability: 0.12,
				TickInterval:     time.Second,
				Legs:             1,
				Parallelism:      1,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = "http" }, true},
		{"port out of range", func(c *Config) { c.Server.Port = "70000" }, true},
		{"no pool", func(c *Config) { c.Database.MaxConns = 0 }, true},
		{"brokers without topic", func(c *Config) { c.Kafka = Kafka{Brokers: []string{"k:9092"}} }, true},
		{"zero quarter", func(c *Config) { c.Simulation.QuarterSeconds = 0 }, true},
		{"probability above one", func(c *Config) { c.Simulation.EventProbability = 1.5 }, true},
		{"zero legs", func(c *Config) { c.Simulation.Legs = 0 }, true},
		{"negative auto-sim", func(c *Config) { c.Scheduler.AutoSimInterval = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

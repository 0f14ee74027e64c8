package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/api"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/config"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/game"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/kafka"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/roster"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/scheduler"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/service"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/session"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/storage"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := openStore(ctx, cfg.Database)
	defer store.Close()

	// Kafka is optional; a disabled producer drops events
	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer producer.Close()

	var consumer *kafka.Consumer
	if producer.IsEnabled() {
		consumer, err = kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
		if err != nil {
			slog.Warn("kafka consumer not available", "error", err)
			consumer = nil
		} else {
			consumer.Start(ctx)
			defer consumer.Stop()
		}
	}

	gameCfg := cfg.GameConfig()
	opts := []service.Option{
		service.WithEmitter(producer),
		service.WithLegs(cfg.Simulation.Legs),
		service.WithParallelism(cfg.Simulation.Parallelism),
	}
	if cfg.Simulation.Seed != 0 {
		opts = append(opts, service.WithSeed(cfg.Simulation.Seed))
	}
	svc := service.New(store, game.NewSimulator(gameCfg, cfg.Simulation.Seed), opts...)

	sessions := session.NewManager(svc, gameCfg, clockwork.NewRealClock(), cfg.Simulation.TickInterval)
	defer sessions.Shutdown()

	hub := websocket.NewHub()
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	wireSessions(sessions, hub, producer)

	if cfg.Scheduler.AutoSimInterval > 0 {
		sched, err := scheduler.NewScheduler(svc, cfg.Scheduler.AutoSimInterval, nil)
		if err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}
		defer func() {
			if err := sched.Stop(); err != nil {
				slog.Warn("scheduler shutdown", "error", err)
			}
		}()
	}

	identity := api.NewIdentity(cfg.Auth.JWTSecret)
	handler := websocket.NewHandler(hub, sessions)

	// Set up HTTP router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		apiHandlers := api.NewHandlers(api.Deps{
			Service:  svc,
			Players:  roster.NewProvider(store),
			Sessions: sessions,
			Store:    store,
			Identity: identity,
			Producer: producer,
			Consumer: consumer,
		})
		apiHandlers.RegisterRoutes(r)
	})

	// WebSocket endpoint
	r.Get("/ws", identity.GuardWebsocket(func(w http.ResponseWriter, r *http.Request) {
		websocket.ServeWs(hub, handler, w, r)
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port, "auth", identity.Enabled(), "kafka", producer.IsEnabled())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server exited properly")
	return nil
}

// openStore connects to Postgres, falling back to memory when no database
// is configured or reachable
func openStore(ctx context.Context, cfg config.Database) storage.Store {
	if cfg.URL == "" {
		slog.Info("no DATABASE_URL set, leagues are kept in memory")
		return storage.NewMemoryStore()
	}

	pg, err := storage.NewPostgresStore(ctx, cfg.URL, cfg.MaxConns)
	if err != nil {
		slog.Warn("database not available, leagues are kept in memory", "error", err)
		return storage.NewMemoryStore()
	}
	return pg
}

// wireSessions forwards live game callbacks to websocket clients and kafka
func wireSessions(sessions *session.Manager, hub *websocket.Hub, producer *kafka.Producer) {
	sessions.SetOnGameStart(func(s *session.Session) {
		hub.BroadcastGameStart(s)
		st := s.Game.GetState()
		producer.EmitGameStart(s.Fixture.LeagueID, s.UserID, kafka.GameStartData{
			GameID:    s.Game.ID,
			FixtureID: s.Fixture.ID,
			HomeTeam:  st.HomeTeam,
			AwayTeam:  st.AwayTeam,
		})
	})

	sessions.SetOnEvent(hub.BroadcastEvent)
	sessions.SetOnQuarterBreak(hub.BroadcastQuarterBreak)

	sessions.SetOnGameEnd(func(s *session.Session, res *service.GameResult, err error) {
		hub.BroadcastGameOver(s, res, err)

		r, _ := s.Game.Result()
		producer.EmitGameEnd(s.Fixture.LeagueID, s.UserID, kafka.GameEndData{
			GameID:          s.Game.ID,
			FixtureID:       s.Fixture.ID,
			HomeScore:       r.HomeScore,
			AwayScore:       r.AwayScore,
			Periods:         r.Periods,
			DurationSeconds: s.Game.GetDuration(),
			TotalEvents:     len(s.Game.Events()),
		})
	})
}

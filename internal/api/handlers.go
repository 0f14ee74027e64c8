package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/kafka"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/models"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/roster"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/service"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/session"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/storage"
	"github.com/go-chi/chi/v5"
)

var errBadRequest = errors.New("bad request")

const pingTimeout = 2 * time.Second

// Deps are the collaborators the API serves
type Deps struct {
	Service  *service.Service
	Players  *roster.Provider
	Sessions *session.Manager
	Store    storage.Store
	Identity *Identity
	Producer *kafka.Producer
	Consumer *kafka.Consumer // nil when analytics are off
}

// Handlers holds API handler dependencies
type Handlers struct {
	svc      *service.Service
	players  *roster.Provider
	sessions *session.Manager
	store    storage.Store
	identity *Identity
	producer *kafka.Producer
	consumer *kafka.Consumer
}

// NewHandlers creates a new API handlers instance
func NewHandlers(d Deps) *Handlers {
	return &Handlers{
		svc:      d.Service,
		players:  d.Players,
		sessions: d.Sessions,
		store:    d.Store,
		identity: d.Identity,
		producer: d.Producer,
		consumer: d.Consumer,
	}
}

// RegisterRoutes registers API routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/analytics", h.GetAnalytics)
	r.Get("/status", h.GetStatus)

	r.Group(func(r chi.Router) {
		r.Use(h.identity.Authenticate)

		r.Route("/teams", func(r chi.Router) {
			r.With(h.ownUser).Post("/setup-user-league/{userID}", h.SetupLeague)
			r.With(h.ownUser).Get("/user-team/{userID}", h.GetUserTeam)
			r.With(h.ownUser).Get("/standings/{userID}", h.GetStandings)
			r.With(h.ownUser).Delete("/cleanup-user/{userID}", h.ResetLeague)
			r.With(h.ownTeam).Put("/{teamID}/record", h.UpdateRecord)
		})

		r.Route("/players/team/{teamID}", func(r chi.Router) {
			r.Use(h.ownTeam)
			r.Get("/", h.GetPlayers)
			r.Put("/lineup", h.SaveLineup)
			r.Get("/search", h.SearchPlayers)
		})

		r.Route("/schedule", func(r chi.Router) {
			r.Post("/complete-game", h.CompleteGame)
			r.Group(func(r chi.Router) {
				r.Use(h.ownUser)
				r.Post("/generate/{userID}", h.GenerateSchedule)
				r.Get("/league/{userID}", h.GetSchedule)
				r.Get("/next-game/{userID}", h.GetNextGame)
				r.Post("/simulate-week/{userID}", h.SimulateWeek)
				r.Post("/advance-week/{userID}", h.AdvanceWeek)
				r.Post("/generate-playoffs/{userID}", h.GeneratePlayoffs)
				r.Post("/reset/{userID}", h.ResetSchedule)
			})
		})
	})
}

// ownUser rejects requests whose token is for another user than {userID}
func (h *Handlers) ownUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := authorize(r.Context(), chi.URLParam(r, "userID")); err != nil {
			respondErr(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ownTeam rejects requests for a team outside the caller's league
func (h *Handlers) ownTeam(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		teamID, err := teamParam(r)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		err = h.checkOwner(r.Context(), func(ctx context.Context) (*models.League, error) {
			return h.store.GetLeagueByTeam(ctx, teamID)
		})
		if err != nil {
			respondErr(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkOwner looks up the league behind a resource only when a token is
// in play
func (h *Handlers) checkOwner(ctx context.Context, lookup func(context.Context) (*models.League, error)) error {
	if _, ok := ctx.Value(userContextKey).(string); !ok {
		return nil
	}
	l, err := lookup(ctx)
	if err != nil {
		return err
	}
	return authorize(ctx, l.UserID)
}

func teamParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "teamID"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid team id %q", errBadRequest, chi.URLParam(r, "teamID"))
	}
	return id, nil
}

// decode reads a JSON body. An empty body leaves v untouched.
func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid request body", errBadRequest)
	}
	return nil
}

// SetupLeague creates the user's league
func (h *Handlers) SetupLeague(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TeamName string `json:"teamName"`
	}
	if err := decode(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}

	l, err := h.svc.SetupLeague(r.Context(), chi.URLParam(r, "userID"), req.TeamName)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, envelope{
		"message":  "League created",
		"leagueId": l.ID,
		"userTeam": l.UserTeam(),
		"teams":    l.Teams,
	})
}

// GetUserTeam returns the user's team with morale
func (h *Handlers) GetUserTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.svc.GetUserTeam(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"team": team})
}

// GetStandings returns the league table
func (h *Handlers) GetStandings(w http.ResponseWriter, r *http.Request) {
	standings, err := h.svc.GetStandings(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"standings": standings})
}

// UpdateRecord adds a win or a loss to a team
func (h *Handlers) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	teamID, err := teamParam(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	var req struct {
		Result models.Outcome `json:"result"`
	}
	if err := decode(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}

	team, err := h.svc.UpdateRecord(r.Context(), teamID, req.Result)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"team": team})
}

// ResetLeague deletes the user's league and stops their live game
func (h *Handlers) ResetLeague(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	h.abandonLive(userID)

	if err := h.svc.ResetLeague(r.Context(), userID); err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"message": "League data cleaned up"})
}

// GetPlayers returns a team's roster
func (h *Handlers) GetPlayers(w http.ResponseWriter, r *http.Request) {
	teamID, _ := teamParam(r)
	players, err := h.players.GetPlayersByTeam(r.Context(), teamID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"players": players})
}

// SaveLineup stores a new starting five
func (h *Handlers) SaveLineup(w http.ResponseWriter, r *http.Request) {
	teamID, _ := teamParam(r)
	var lineup roster.Lineup
	if err := decode(r, &lineup); err != nil {
		respondErr(w, r, err)
		return
	}

	players, err := h.players.SaveLineup(r.Context(), teamID, lineup)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"message": "Lineup saved", "players": players})
}

// SearchPlayers finds roster players by name
func (h *Handlers) SearchPlayers(w http.ResponseWriter, r *http.Request) {
	teamID, _ := teamParam(r)
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "Query parameter q required")
		return
	}

	players, err := h.players.SearchPlayers(r.Context(), teamID, query)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"players": players})
}

// GenerateSchedule builds the regular season
func (h *Handlers) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GenerateSchedule(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, scheduleEnvelope(view))
}

// GetSchedule returns the season grouped by week
func (h *Handlers) GetSchedule(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetSchedule(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, scheduleEnvelope(view))
}

// GetNextGame returns the user's next open fixture
func (h *Handlers) GetNextGame(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.GetNextGame(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, matchupEnvelope(m))
}

// CompleteGame records a final score
func (h *Handlers) CompleteGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FixtureID int  `json:"scheduleId"`
		HomeScore *int `json:"homeScore"`
		AwayScore *int `json:"awayScore"`
	}
	if err := decode(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	if req.FixtureID <= 0 || req.HomeScore == nil || req.AwayScore == nil {
		respondError(w, http.StatusBadRequest, "scheduleId, homeScore and awayScore are required")
		return
	}

	err := h.checkOwner(r.Context(), func(ctx context.Context) (*models.League, error) {
		return h.store.GetLeagueByFixture(ctx, req.FixtureID)
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}

	res, err := h.svc.CompleteGame(r.Context(), req.FixtureID, *req.HomeScore, *req.AwayScore)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"game": res.Fixture, "standings": res.Standings})
}

// SimulateWeek plays the AI games of the current week
func (h *Handlers) SimulateWeek(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.SimulateWeek(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, weekEnvelope(res))
}

// AdvanceWeek moves to the next week once every game is played
func (h *Handlers) AdvanceWeek(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.AdvanceWeek(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, weekEnvelope(res))
}

// GeneratePlayoffs schedules the final
func (h *Handlers) GeneratePlayoffs(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.GeneratePlayoffs(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, matchupEnvelope(m))
}

// ResetSchedule clears results and regenerates the season
func (h *Handlers) ResetSchedule(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	h.abandonLive(userID)

	view, err := h.svc.ResetSchedule(r.Context(), userID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, scheduleEnvelope(view))
}

// GetAnalytics returns league analytics
func (h *Handlers) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	response := envelope{
		"realtime": map[string]interface{}{
			"liveGames":    h.sessions.ActiveCount(),
			"kafkaEnabled": h.producer.IsEnabled(),
		},
	}

	// Add Kafka metrics if available
	if h.consumer != nil {
		response["kafka"] = map[string]interface{}{
			"avgPoints": h.consumer.AveragePoints(),
			"metrics":   h.consumer.GetMetrics(),
		}
	}

	respondJSON(w, http.StatusOK, response)
}

// GetStatus returns server status
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	database := "up"
	if err := h.store.Ping(ctx); err != nil {
		database = "down"
	}

	respondJSON(w, http.StatusOK, envelope{
		"status":       "ok",
		"database":     database,
		"liveGames":    h.sessions.ActiveCount(),
		"kafkaEnabled": h.producer.IsEnabled(),
		"authEnabled":  h.identity.Enabled(),
	})
}

func (h *Handlers) abandonLive(userID string) {
	if err := h.sessions.Abandon(userID); err != nil && !errors.Is(err, session.ErrNoSession) {
		slog.Warn("abandon live game", "user", userID, "error", err)
	}
}

func scheduleEnvelope(v *service.ScheduleView) envelope {
	return envelope{
		"leagueId":    v.LeagueID,
		"schedule":    v.Weeks,
		"totalWeeks":  v.TotalWeeks,
		"currentWeek": v.CurrentWeek,
		"status":      v.Status,
	}
}

func matchupEnvelope(m *service.Matchup) envelope {
	return envelope{"game": m.Fixture, "homeTeam": m.HomeTeam, "awayTeam": m.AwayTeam}
}

func weekEnvelope(res *service.WeekResult) envelope {
	return envelope{
		"week":        res.Week,
		"played":      res.Played,
		"advanced":    res.Advanced,
		"currentWeek": res.CurrentWeek,
		"status":      res.Status,
	}
}

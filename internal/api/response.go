package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/game"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/league"
)

// envelope is the body of every response
type envelope map[string]interface{}

// respondJSON writes a successful JSON response
func respondJSON(w http.ResponseWriter, status int, data envelope) {
	if data == nil {
		data = envelope{}
	}
	data["success"] = true
	writeJSON(w, status, data)
}

// respondError writes a failed JSON response
func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{"success": false, "message": message})
}

// respondErr maps a service error to its status code
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondError(w, status, "Internal server error")
		return
	}
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, league.ErrPreconditionFailed),
		errors.Is(err, league.ErrWeekIncomplete),
		errors.Is(err, league.ErrAlreadyExists),
		errors.Is(err, league.ErrAlreadyCompleted):
		return http.StatusConflict
	case errors.Is(err, league.ErrInvalidRoster),
		errors.Is(err, league.ErrInvalidTeamCount),
		errors.Is(err, league.ErrInvalidWeeks):
		return http.StatusUnprocessableEntity
	case errors.Is(err, league.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, league.ErrDataUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, game.ErrUnknownStrategy), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/game"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/kafka"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/roster"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/service"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/session"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
)

func newTestRouter(t *testing.T, secret string) http.Handler {
	t.Helper()

	store := storage.NewMemoryStore()
	svc := service.New(store, game.NewSimulator(game.Config{}, 7), service.WithSeed(7))
	sessions := session.NewManager(svc, game.Config{}, clockwork.NewFakeClock(), time.Second)
	t.Cleanup(sessions.Shutdown)

	h := NewHandlers(Deps{
		Service:  svc,
		Players:  roster.NewProvider(store),
		Sessions: sessions,
		Store:    store,
		Identity: NewIdentity(secret),
		Producer: kafka.NewProducer(nil, ""),
	})

	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)
	return r
}

type response struct {
	code int
	body map[string]interface{}
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}, token string) response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	res := response{code: rec.Code}
	if err := json.Unmarshal(rec.Body.Bytes(), &res.body); err != nil {
		t.Fatalf("%s %s: decode body %q: %v", method, path, rec.Body.String(), err)
	}
	return res
}

func (r response) object(key string) map[string]interface{} {
	m, _ := r.body[key].(map[string]interface{})
	return m
}

func (r response) list(key string) []interface{} {
	l, _ := r.body[key].([]interface{})
	return l
}

func TestLeagueFlow(t *testing.T) {
	h := newTestRouter(t, "")

	res := do(t, h, http.MethodPost, "/api/teams/setup-user-league/u1", map[string]string{"teamName": "Night Owls"}, "")
	if res.code != http.StatusCreated || res.body["success"] != true {
		t.Fatalf("setup = %d %v", res.code, res.body)
	}
	userTeam := res.object("userTeam")
	if userTeam["teamName"] != "Night Owls" {
		t.Errorf("user team = %v, want Night Owls", userTeam["teamName"])
	}
	teamID := int(userTeam["teamId"].(float64))

	if res := do(t, h, http.MethodPost, "/api/teams/setup-user-league/u1", nil, ""); res.code != http.StatusConflict {
		t.Errorf("second setup = %d, want %d", res.code, http.StatusConflict)
	}

	res = do(t, h, http.MethodGet, "/api/teams/user-team/u1", nil, "")
	if res.code != http.StatusOK {
		t.Fatalf("user team = %d %v", res.code, res.body)
	}
	morale, _ := res.object("team")["morale"].(map[string]interface{})
	if morale["goodEmotion"] != float64(75) {
		t.Errorf("morale = %v, want goodEmotion 75", morale)
	}

	if res := do(t, h, http.MethodGet, "/api/schedule/next-game/u1", nil, ""); res.code != http.StatusNotFound {
		t.Errorf("next game before schedule = %d, want %d", res.code, http.StatusNotFound)
	}

	res = do(t, h, http.MethodPost, "/api/schedule/generate/u1", nil, "")
	if res.code != http.StatusCreated || res.body["currentWeek"] != float64(1) {
		t.Fatalf("generate = %d %v", res.code, res.body)
	}
	if res := do(t, h, http.MethodPost, "/api/schedule/generate/u1", nil, ""); res.code != http.StatusConflict {
		t.Errorf("second generate = %d, want %d", res.code, http.StatusConflict)
	}

	res = do(t, h, http.MethodGet, "/api/schedule/next-game/u1", nil, "")
	if res.code != http.StatusOK {
		t.Fatalf("next game = %d %v", res.code, res.body)
	}
	fixtureID := res.object("game")["scheduleId"]

	complete := map[string]interface{}{"scheduleId": fixtureID, "homeScore": 101, "awayScore": 99}
	res = do(t, h, http.MethodPost, "/api/schedule/complete-game", complete, "")
	if res.code != http.StatusOK || len(res.list("standings")) != 6 {
		t.Fatalf("complete = %d %v", res.code, res.body)
	}
	if res := do(t, h, http.MethodPost, "/api/schedule/complete-game", complete, ""); res.code != http.StatusConflict {
		t.Errorf("second complete = %d, want %d", res.code, http.StatusConflict)
	}

	res = do(t, h, http.MethodPost, "/api/schedule/simulate-week/u1", nil, "")
	if res.code != http.StatusOK || res.body["advanced"] != true || res.body["currentWeek"] != float64(2) {
		t.Errorf("simulate week = %d %v", res.code, res.body)
	}

	res = do(t, h, http.MethodGet, fmt.Sprintf("/api/players/team/%d", teamID), nil, "")
	if res.code != http.StatusOK || len(res.list("players")) != roster.PlayersPerTeam {
		t.Fatalf("players = %d %v", res.code, res.body)
	}
	first := res.list("players")[0].(map[string]interface{})["playerName"].(string)

	res = do(t, h, http.MethodGet, fmt.Sprintf("/api/players/team/%d/search?q=%s", teamID, first[:3]), nil, "")
	if res.code != http.StatusOK || len(res.list("players")) == 0 {
		t.Errorf("search = %d %v", res.code, res.body)
	}

	bad := roster.Lineup{Starters: []string{first}}
	if res := do(t, h, http.MethodPut, fmt.Sprintf("/api/players/team/%d/lineup", teamID), bad, ""); res.code != http.StatusUnprocessableEntity {
		t.Errorf("bad lineup = %d, want %d", res.code, http.StatusUnprocessableEntity)
	}

	res = do(t, h, http.MethodDelete, "/api/teams/cleanup-user/u1", nil, "")
	if res.code != http.StatusOK {
		t.Errorf("cleanup = %d %v", res.code, res.body)
	}
	if res := do(t, h, http.MethodGet, "/api/teams/standings/u1", nil, ""); res.code != http.StatusNotFound {
		t.Errorf("standings after cleanup = %d, want %d", res.code, http.StatusNotFound)
	}
}

func TestErrorResponses(t *testing.T) {
	h := newTestRouter(t, "")

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"unknown user", http.MethodGet, "/api/teams/standings/nobody", nil, http.StatusNotFound},
		{"bad team id", http.MethodPut, "/api/teams/abc/record", map[string]string{"result": "win"}, http.StatusBadRequest},
		{"unknown team", http.MethodGet, "/api/players/team/999", nil, http.StatusNotFound},
		{"missing scores", http.MethodPost, "/api/schedule/complete-game", map[string]int{"scheduleId": 1}, http.StatusBadRequest},
		{"advance without league", http.MethodPost, "/api/schedule/advance-week/nobody", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := do(t, h, tt.method, tt.path, tt.body, "")
			if res.code != tt.want {
				t.Errorf("status = %d, want %d (%v)", res.code, tt.want, res.body)
			}
			if res.body["success"] != false || res.body["message"] == "" {
				t.Errorf("body = %v, want failure with message", res.body)
			}
		})
	}
}

func TestIdentity(t *testing.T) {
	const secret = "test-secret"
	h := newTestRouter(t, secret)
	id := NewIdentity(secret)

	own, err := id.IssueToken("u1")
	if err != nil {
		t.Fatal(err)
	}
	other, _ := id.IssueToken("u2")
	forged, _ := NewIdentity("other-secret").IssueToken("u1")

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"wrong secret", forged, http.StatusUnauthorized},
		{"other user", other, http.StatusForbidden},
		{"own token", own, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := do(t, h, http.MethodPost, "/api/teams/setup-user-league/u1", nil, tt.token)
			if res.code != tt.want {
				t.Errorf("status = %d, want %d (%v)", res.code, tt.want, res.body)
			}
		})
	}

	res := do(t, h, http.MethodGet, "/api/teams/user-team/u1", nil, own)
	teamID := int(res.object("team")["teamId"].(float64))
	path := fmt.Sprintf("/api/players/team/%d", teamID)
	if res := do(t, h, http.MethodGet, path, nil, other); res.code != http.StatusForbidden {
		t.Errorf("other user's roster = %d, want %d", res.code, http.StatusForbidden)
	}
	if res := do(t, h, http.MethodGet, path, nil, own); res.code != http.StatusOK {
		t.Errorf("own roster = %d, want %d", res.code, http.StatusOK)
	}

	if res := do(t, h, http.MethodGet, "/api/status", nil, ""); res.code != http.StatusOK || res.body["authEnabled"] != true {
		t.Errorf("status = %d %v", res.code, res.body)
	}
}

func TestGuardWebsocket(t *testing.T) {
	id := NewIdentity("s")
	token, _ := id.IssueToken("u1")
	guarded := id.GuardWebsocket(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		query string
		want  int
	}{
		{"?user=u1&token=" + token, http.StatusNoContent},
		{"?user=u2&token=" + token, http.StatusForbidden},
		{"?user=u1", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		guarded(rec, httptest.NewRequest(http.MethodGet, "/ws"+tt.query, nil))
		if rec.Code != tt.want {
			t.Errorf("GuardWebsocket(%s) = %d, want %d", tt.query, rec.Code, tt.want)
		}
	}
}

package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/game"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/league"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/models"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/session"
)

// Message types
const (
	TypeStart        = "start"
	TypePause        = "pause"
	TypeResume       = "resume"
	TypeStrategy     = "strategy"
	TypeAbandon      = "abandon"
	TypeGetState     = "state"
	TypeState        = "state"
	TypeEvent        = "event"
	TypeQuarterBreak = "quarterBreak"
	TypeGameOver     = "gameOver"
	TypeAbandoned    = "abandoned"
	TypeError        = "error"
)

// startTimeout bounds the league lookup when a game is started
const startTimeout = 10 * time.Second

// Message represents an outgoing WebSocket message
type Message struct {
	Type      string            `json:"type"`
	State     *game.GameState   `json:"state,omitempty"`
	Event     *game.Event       `json:"event,omitempty"`
	Fixture   *models.Fixture   `json:"game,omitempty"`
	BoxScore  []game.PlayerLine `json:"boxScore,omitempty"`
	Standings []league.Standing `json:"standings,omitempty"`
	Message   string            `json:"message,omitempty"`
}

// IncomingMessage represents a command from the client
type IncomingMessage struct {
	Type     string `json:"type"`
	Strategy string `json:"strategy,omitempty"`
}

// Handler turns client commands into session calls
type Handler struct {
	hub      *Hub
	sessions *session.Manager
}

// NewHandler creates a new message handler
func NewHandler(hub *Hub, sessions *session.Manager) *Handler {
	return &Handler{
		hub:      hub,
		sessions: sessions,
	}
}

// HandleMessage processes an incoming message
func (h *Handler) HandleMessage(client *Client, data []byte) {
	var msg IncomingMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		client.sendMessage(Message{Type: TypeError, Message: "Invalid message format"})
		return
	}

	reply, err := h.dispatch(client.userID, msg)
	if err != nil {
		slog.Info("command failed", "user", client.userID, "command", msg.Type, "error", err)
		client.sendMessage(Message{Type: TypeError, Message: err.Error()})
		return
	}
	if reply != nil {
		h.hub.SendToUser(client.userID, *reply)
	}
}

// dispatch runs one command and returns the message every tab of the user
// should see
func (h *Handler) dispatch(userID string, msg IncomingMessage) (*Message, error) {
	var (
		st  game.GameState
		err error
	)

	switch msg.Type {
	case TypeStart:
		ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
		defer cancel()
		s, err := h.sessions.Start(ctx, userID)
		if err != nil {
			return nil, err
		}
		st = s.Game.GetState()
		f := s.Fixture
		return &Message{Type: TypeState, State: &st, Fixture: &f}, nil

	case TypePause:
		st, err = h.sessions.Pause(userID)

	case TypeResume:
		st, err = h.sessions.Resume(userID)

	case TypeStrategy:
		strategy, perr := game.ParseStrategy(msg.Strategy)
		if perr != nil {
			return nil, perr
		}
		st, err = h.sessions.SetStrategy(userID, strategy)

	case TypeAbandon:
		if err := h.sessions.Abandon(userID); err != nil {
			return nil, err
		}
		return &Message{Type: TypeAbandoned}, nil

	case TypeGetState:
		s := h.sessions.Get(userID)
		if s == nil {
			return nil, session.ErrNoSession
		}
		st = s.Game.GetState()
		f := s.Fixture
		return &Message{Type: TypeState, State: &st, Fixture: &f}, nil

	default:
		return nil, errUnknownCommand
	}

	if err != nil {
		return nil, err
	}
	return &Message{Type: TypeState, State: &st}, nil
}

var errUnknownCommand = &commandError{"Unknown message type"}

type commandError struct {
	msg string
}

func (e *commandError) Error() string {
	return e.msg
}

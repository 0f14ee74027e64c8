package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/Deann7/AssistantCoach-BasketballGame/internal/game"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/service"
	"github.com/Deann7/AssistantCoach-BasketballGame/internal/session"
)

// Hub maintains the set of connected clients and fans live-game messages
// out to them
type Hub struct {
	// Connected clients by user; a user may have several tabs open
	clients map[string]map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			h.mu.Unlock()
			slog.Info("client registered", "user", client.userID)

		case client := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.clients[client.userID]; ok && conns[client] {
				delete(conns, client)
				client.closed = true
				close(client.send)
				if len(conns) == 0 {
					delete(h.clients, client.userID)
				}
			}
			h.mu.Unlock()
			slog.Info("client unregistered", "user", client.userID)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.clients {
		for c := range conns {
			c.closed = true
			close(c.send)
		}
		delete(h.clients, userID)
	}
}

// ConnectedCount returns the number of open connections
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, conns := range h.clients {
		n += len(conns)
	}
	return n
}

// SendToUser delivers a message to every connection of a user
func (h *Hub) SendToUser(userID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "type", msg.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.send <- data:
		default:
			slog.Warn("dropping message, client buffer full", "user", userID, "type", msg.Type)
		}
	}
}

// BroadcastGameStart announces a new live game
func (h *Hub) BroadcastGameStart(s *session.Session) {
	st := s.Game.GetState()
	f := s.Fixture
	h.SendToUser(s.UserID, Message{Type: TypeState, State: &st, Fixture: &f})
}

// BroadcastEvent forwards one play
func (h *Hub) BroadcastEvent(userID string, ev game.Event) {
	h.SendToUser(userID, Message{Type: TypeEvent, Event: &ev})
}

// BroadcastQuarterBreak tells the coach the period is over. After the
// strategy quarter the state asks for a game plan.
func (h *Hub) BroadcastQuarterBreak(userID string, st game.GameState) {
	h.SendToUser(userID, Message{Type: TypeQuarterBreak, State: &st})
}

// BroadcastGameOver sends the final state, box score and standings
func (h *Hub) BroadcastGameOver(s *session.Session, res *service.GameResult, err error) {
	st := s.Game.GetState()
	msg := Message{
		Type:     TypeGameOver,
		State:    &st,
		BoxScore: game.BoxScore(s.Game.Events()),
	}
	if res != nil {
		msg.Fixture = res.Fixture
		msg.Standings = res.Standings
	}
	if err != nil {
		msg.Message = "result could not be recorded: " + err.Error()
	}
	h.SendToUser(s.UserID, msg)
}

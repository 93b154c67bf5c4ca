package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/puzzle-league/internal/domain"
)

// Message types
const (
	MessageTypeScoreUpdate   = "score_update"
	MessageTypeDailyStanding = "daily_standings"
	MessageTypeSubscribe     = "subscribe"
	MessageTypeUnsubscribe   = "unsubscribe"
	MessageTypePing          = "ping"
	MessageTypePong          = "pong"
	MessageTypeError         = "error"
)

// Message represents a WebSocket message
type Message struct {
	Type      string      `json:"type"`
	Game      string      `json:"game,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ScoreUpdate is broadcast when a new score is accepted for a game
type ScoreUpdate struct {
	Game      domain.Game        `json:"game"`
	Username  string             `json:"username"`
	Score     float64            `json:"score"`
	Date      string             `json:"date"`
	Standings []domain.LiveEntry `json:"standings,omitempty"`
}

// Hub maintains the set of active clients and broadcasts score updates.
// Clients may subscribe to individual games or receive everything.
type Hub struct {
	// Registered clients by game
	clients map[string]map[*Client]bool

	// All connected clients
	allClients map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Outbound messages
	broadcast chan *Message

	// Subscription requests
	subscribe chan *subscriptionRequest

	// Unsubscription requests
	unsubscribe chan *subscriptionRequest

	mu sync.RWMutex

	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

type subscriptionRequest struct {
	client *Client
	game   string
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[string]map[*Client]bool),
		allClients:  make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *Message, 256),
		subscribe:   make(chan *subscriptionRequest, 64),
		unsubscribe: make(chan *subscriptionRequest, 64),
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("WebSocket hub stopping")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.allClients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.allClients[client]; ok {
				delete(h.allClients, client)
				// Remove from all game subscriptions
				for game, clients := range h.clients {
					if _, ok := clients[client]; ok {
						delete(clients, client)
						if len(clients) == 0 {
							delete(h.clients, game)
						}
					}
				}
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", "client_id", client.id)

		case req := <-h.subscribe:
			h.mu.Lock()
			if _, ok := h.clients[req.game]; !ok {
				h.clients[req.game] = make(map[*Client]bool)
			}
			h.clients[req.game][req.client] = true
			h.mu.Unlock()
			h.logger.Debug("client subscribed", "client_id", req.client.id, "game", req.game)

		case req := <-h.unsubscribe:
			h.mu.Lock()
			if clients, ok := h.clients[req.game]; ok {
				delete(clients, req.client)
				if len(clients) == 0 {
					delete(h.clients, req.game)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("client unsubscribed", "client_id", req.client.id, "game", req.game)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// Stop stops the hub
func (h *Hub) Stop() {
	h.cancel()
}

// broadcastMessage sends a message to all subscribed clients
func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal message", "error", err)
		return
	}

	// Game-scoped messages go to that game's subscribers plus clients with
	// no subscriptions at all (firehose mode); everything else goes to all.
	if message.Game != "" {
		if clients, ok := h.clients[message.Game]; ok {
			for client := range clients {
				h.send(client, data)
			}
		}
		for client := range h.allClients {
			if !h.subscribedAny(client) {
				h.send(client, data)
			}
		}
	} else {
		for client := range h.allClients {
			h.send(client, data)
		}
	}
}

// send delivers to one client without blocking the hub loop
func (h *Hub) send(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.logger.Warn("client buffer full, skipping", "client_id", client.id)
	}
}

// subscribedAny reports whether the client holds at least one game
// subscription. Caller must hold h.mu.
func (h *Hub) subscribedAny(client *Client) bool {
	for _, clients := range h.clients {
		if clients[client] {
			return true
		}
	}
	return false
}

// BroadcastScoreUpdate notifies subscribers that a score was accepted
func (h *Hub) BroadcastScoreUpdate(update ScoreUpdate) {
	message := &Message{
		Type:      MessageTypeScoreUpdate,
		Game:      string(update.Game),
		Data:      update,
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// BroadcastDailyStandings pushes a refreshed day board to subscribers
func (h *Hub) BroadcastDailyStandings(game domain.Game, date string, standings []domain.LiveEntry) {
	message := &Message{
		Type: MessageTypeDailyStanding,
		Game: string(game),
		Data: map[string]interface{}{
			"game":      game,
			"date":      date,
			"standings": standings,
		},
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe adds a client to a game subscription
func (h *Hub) Subscribe(client *Client, game string) {
	h.subscribe <- &subscriptionRequest{client: client, game: game}
}

// Unsubscribe removes a client from a game subscription
func (h *Hub) Unsubscribe(client *Client, game string) {
	h.unsubscribe <- &subscriptionRequest{client: client, game: game}
}

// GetSubscriberCount returns the number of subscribers for a game
func (h *Hub) GetSubscriberCount(game string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.clients[game]; ok {
		return len(clients)
	}
	return 0
}

// GetTotalConnections returns the total number of connected clients
func (h *Hub) GetTotalConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.allClients)
}

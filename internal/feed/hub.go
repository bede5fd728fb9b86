// Package feed streams release announcements to websocket subscribers grouped by channel.
package feed

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/logger"
)

// Message types
const (
	TypeRelease = "release"
	TypePing    = "ping"
	TypePong    = "pong"
)

// Message is the envelope written to subscribers.
type Message struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Type      string    `json:"type"`
	ChannelID string    `json:"channel_id,omitempty"`
}

// Hub keeps the subscribers of every channel.
type Hub struct {
	clients map[string]map[*Client]struct{}
	now     func() time.Time
	log     zerolog.Logger
	mu      sync.RWMutex
	closed  bool
}

// NewHub creates an empty hub. A nil clock uses time.Now.
func NewHub(now func() time.Time) *Hub {
	if now == nil {
		now = time.Now
	}
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		now:     now,
		log:     logger.Component("feed"),
	}
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	if _, ok := h.clients[c.channel]; !ok {
		h.clients[c.channel] = make(map[*Client]struct{})
	}
	h.clients[c.channel][c] = struct{}{}
	h.log.Debug().Str("client_id", c.id).Str("channel", c.channel).Msg("Subscriber registered")

	return true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[c.channel]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.clients, c.channel)
	}
	close(c.send)
	h.log.Debug().Str("client_id", c.id).Str("channel", c.channel).Msg("Subscriber unregistered")
}

// Publish sends event to every subscriber of channelID and returns how many
// subscribers accepted it. Subscribers with a full buffer are skipped.
func (h *Hub) Publish(channelID string, event any) int {
	data, err := json.Marshal(Message{
		Type:      TypeRelease,
		ChannelID: channelID,
		Data:      event,
		Timestamp: h.now(),
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to marshal feed message")
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.clients[channelID] {
		select {
		case c.send <- data:
			delivered++
		default:
			h.log.Warn().Str("client_id", c.id).Msg("Subscriber buffer full, skipping")
		}
	}

	return delivered
}

// Subscribers returns the number of subscribers of channelID.
func (h *Hub) Subscribers(channelID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[channelID])
}

// Connections returns the total number of subscribers.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for channel, clients := range h.clients {
		for c := range clients {
			close(c.send)
		}
		delete(h.clients, channel)
	}
}

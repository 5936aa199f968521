package notifications

import (
	"context"
	"errors"
	"sync"

	"feedhub/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 8
	maxTotalConns   = 10000
)

// Connection limit errors returned by Register.
var (
	ErrServerFull   = errors.New("server connection limit reached")
	ErrUserConnsMax = errors.New("user connection limit reached")
)

// FeedHub fans feed events out to every connected websocket client.
type FeedHub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
	logger     *observability.HubLogger
}

// NewFeedHub creates an empty hub.
func NewFeedHub() *FeedHub {
	return &FeedHub{
		conns:  make(map[uint]map[*Client]struct{}),
		logger: observability.NewHubLogger("feed"),
	}
}

// Register adds a connection for userID. conn may be nil in tests.
func (h *FeedHub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || h.totalConns >= maxTotalConns {
		return nil, ErrServerFull
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, ErrUserConnsMax
	}

	client := newClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnections.Inc()
	h.logger.Connected(context.Background(), userID, len(m))
	return client, nil
}

// Unregister removes client and closes its Send channel. It is safe to call twice.
func (h *FeedHub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
	h.totalConns--
	close(client.Send)
	observability.WebSocketConnections.Dec()
	h.logger.Disconnected(context.Background(), client.UserID, "closed")
}

// Count returns the number of registered clients.
func (h *FeedHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// BroadcastAll sends message to every registered client.
func (h *FeedHub) BroadcastAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(message)
		}
	}
}

// StartWiring forwards every event published through n to the hub's clients.
func (h *FeedHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartFeedSubscriber(ctx, func(payload string) {
		h.BroadcastAll([]byte(payload))
	})
}

// Shutdown closes every client's Send channel, which makes its WritePump send
// a close frame, and drops all registrations.
func (h *FeedHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for userID, clients := range h.conns {
		for c := range clients {
			close(c.Send)
			observability.WebSocketConnections.Dec()
		}
		delete(h.conns, userID)
	}
	h.totalConns = 0
	return nil
}

// Package websocket fans connection-ledger change notifications out to
// connected UI clients. The hub subscribes to the in-process event bus and
// pushes each ledger mutation to both members of the pair; a client that is
// offline simply misses the push and re-fetches on reconnect, which the
// at-least-once contract allows.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"kinship-backend/internal/domain/shared"
	"kinship-backend/internal/infrastructure/observability"
)

// Hub maintains active WebSocket connections and broadcasts messages to members.
type Hub struct {
	// Member connections - one member can have multiple connections (tabs, devices)
	connections map[string]map[*Client]bool // memberID -> set of clients
	mu          sync.RWMutex

	// Channels for client management
	register   chan *Client
	unregister chan *Client

	// Message broadcasting
	broadcast chan *broadcastMessage

	// Lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *zap.Logger
	metrics *observability.Metrics
}

// broadcastMessage represents a message to be sent to a specific member.
type broadcastMessage struct {
	MemberID  string          `json:"-"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger, metrics *observability.Metrics) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		connections: make(map[string]map[*Client]bool),
		register:    make(chan *Client, 100),
		unregister:  make(chan *Client, 100),
		broadcast:   make(chan *broadcastMessage, 1000),
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
		metrics:     metrics,
	}
}

// Run starts the hub's main event loop.
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("hub shutting down")
			h.closeAllConnections()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToMember(message)

		case <-ticker.C:
			h.logConnectionCounts()
		}
	}
}

// Stop gracefully shuts down the hub.
func (h *Hub) Stop() {
	h.cancel()
}

// HandleConnectionEvent is the shared.EventHandler the hub registers on the
// event bus. Redelivered events produce a duplicate push; the UI treats
// every push as "re-fetch now", so reapplication is a no-op.
func (h *Hub) HandleConnectionEvent(_ context.Context, event shared.DomainEvent) error {
	change, ok := event.(*shared.ConnectionChangedEvent)
	if !ok {
		return nil
	}
	for _, memberID := range change.InvolvedMembers() {
		if err := h.SendToMember(memberID, event.EventType(), change.EventData()); err != nil {
			return err
		}
	}
	return nil
}

// SendToMember sends a message to all connections of a specific member.
func (h *Hub) SendToMember(memberID string, messageType string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	message := &broadcastMessage{
		MemberID:  memberID,
		Type:      messageType,
		Data:      jsonData,
		Timestamp: time.Now().Unix(),
	}

	select {
	case h.broadcast <- message:
		return nil
	case <-time.After(5 * time.Second):
		h.metrics.HubMessages.WithLabelValues("dropped").Inc()
		return fmt.Errorf("broadcast channel full, message dropped")
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connections[client.memberID] == nil {
		h.connections[client.memberID] = make(map[*Client]bool)
	}
	h.connections[client.memberID][client] = true
	h.metrics.HubConnections.Inc()

	h.logger.Debug("client registered",
		zap.String("member_id", client.memberID),
		zap.String("client_id", client.id))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.connections[client.memberID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.connections, client.memberID)
	}
	close(client.send)
	h.metrics.HubConnections.Dec()

	h.logger.Debug("client unregistered",
		zap.String("member_id", client.memberID),
		zap.String("client_id", client.id))
}

func (h *Hub) broadcastToMember(message *broadcastMessage) {
	payload, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal broadcast message", zap.Error(err))
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.connections[message.MemberID]))
	for client := range h.connections[message.MemberID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- payload:
			h.metrics.HubMessages.WithLabelValues("sent").Inc()
		default:
			// Slow consumer: drop the connection, the client reconnects
			// with backoff and re-fetches.
			h.metrics.HubMessages.WithLabelValues("dropped").Inc()
			h.unregister <- client
		}
	}
}

func (h *Hub) closeAllConnections() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for memberID, clients := range h.connections {
		for client := range clients {
			close(client.send)
			client.conn.Close()
		}
		delete(h.connections, memberID)
	}
	h.metrics.HubConnections.Set(0)
}

func (h *Hub) logConnectionCounts() {
	h.mu.RLock()
	members := len(h.connections)
	total := 0
	for _, clients := range h.connections {
		total += len(clients)
	}
	h.mu.RUnlock()

	h.logger.Debug("hub health",
		zap.Int("members", members),
		zap.Int("connections", total))
}

package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"learnera-be/internal/pkg/logger"
)

// Hub is the per-process group registry: it maps group names to the local
// connections subscribed to them and mirrors that membership onto the
// cross-process backbone, subscribing to a group's topic only while at least
// one local connection is in it. Delivery is best-effort, at most once per
// connection.
type Hub struct {
	mu sync.RWMutex

	// group name -> local member connections
	groups map[string]map[*Client]bool

	// connection -> groups it joined (reverse index for teardown)
	members map[*Client]map[string]bool

	// live connection count per user, drives presence transitions
	userConns map[uint]int

	backbone Backbone
	logger   logger.ILogger
}

// NewHub creates a hub. backbone may be nil for single-instance deployments;
// local delivery semantics are identical either way.
func NewHub(backbone Backbone, log logger.ILogger) *Hub {
	return &Hub{
		groups:    make(map[string]map[*Client]bool),
		members:   make(map[*Client]map[string]bool),
		userConns: make(map[uint]int),
		backbone:  backbone,
		logger:    log,
	}
}

// Run starts the backbone receive loop. Remote publishes come back through
// deliverLocal; the backbone filters out this process's own publishes.
func (h *Hub) Run() {
	if h.backbone != nil {
		go h.backbone.Run(h.deliverLocal)
	}
}

// Register adds a connection to the registry and reports whether it is the
// user's first live connection.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.members[c]; ok {
		return false
	}
	h.members[c] = make(map[string]bool)
	h.userConns[c.userId]++

	h.logger.Info("Hub", "Client registered", map[string]interface{}{
		"connection_id": c.id, "user_id": c.userId, "connections": h.userConns[c.userId],
	})
	return h.userConns[c.userId] == 1
}

// Unregister removes the connection from every group it joined, closes its
// send channel and reports whether it was the user's last live connection.
// Safe to call for an unknown connection.
func (h *Hub) Unregister(c *Client) bool {
	h.mu.Lock()

	joined, ok := h.members[c]
	if !ok {
		h.mu.Unlock()
		return false
	}

	var emptied []string
	for group := range joined {
		delete(h.groups[group], c)
		if len(h.groups[group]) == 0 {
			delete(h.groups, group)
			emptied = append(emptied, group)
		}
	}
	delete(h.members, c)

	h.userConns[c.userId]--
	last := h.userConns[c.userId] <= 0
	if last {
		delete(h.userConns, c.userId)
	}
	close(c.send)
	h.mu.Unlock()

	for _, group := range emptied {
		h.unsubscribeBackbone(group)
	}

	h.logger.Info("Hub", "Client unregistered", map[string]interface{}{
		"connection_id": c.id, "user_id": c.userId, "last": last,
	})
	return last
}

// Join is idempotent; joining an already-joined group is a no-op. The first
// local member of a group subscribes the process to the group's topic.
func (h *Hub) Join(group string, c *Client) {
	h.mu.Lock()

	joined, ok := h.members[c]
	if !ok || joined[group] {
		h.mu.Unlock()
		return
	}
	joined[group] = true

	if h.groups[group] == nil {
		h.groups[group] = make(map[*Client]bool)
	}
	h.groups[group][c] = true
	firstLocal := len(h.groups[group]) == 1
	h.mu.Unlock()

	if firstLocal && h.backbone != nil {
		if err := h.backbone.Subscribe(group); err != nil {
			h.logger.Error("Hub", "Backbone subscribe failed", map[string]interface{}{
				"group": group, "error": err.Error(),
			})
		}
	}
}

// Leave is idempotent; leaving a group the connection never joined is a
// no-op. The last local member leaving drops the backbone subscription.
func (h *Hub) Leave(group string, c *Client) {
	h.mu.Lock()

	joined, ok := h.members[c]
	if !ok || !joined[group] {
		h.mu.Unlock()
		return
	}
	delete(joined, group)
	delete(h.groups[group], c)

	emptied := len(h.groups[group]) == 0
	if emptied {
		delete(h.groups, group)
	}
	h.mu.Unlock()

	if emptied {
		h.unsubscribeBackbone(group)
	}
}

// Publish serializes the payload and delivers it to every member of the
// group: local connections directly, remote ones through the backbone.
func (h *Hub) Publish(ctx context.Context, group string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	h.deliverLocal(group, data)

	if h.backbone != nil {
		if err := h.backbone.Publish(ctx, group, data); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hub) deliverLocal(group string, data []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.groups[group]))
	for c := range h.groups[group] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.enqueue(data) {
			// Slow consumer: drop the event rather than block the publisher.
			h.logger.Warn("Hub", "Send buffer full, dropping event", map[string]interface{}{
				"connection_id": c.id, "user_id": c.userId, "group": group,
			})
		}
	}
}

func (h *Hub) unsubscribeBackbone(group string) {
	if h.backbone == nil {
		return
	}
	if err := h.backbone.Unsubscribe(group); err != nil {
		h.logger.Error("Hub", "Backbone unsubscribe failed", map[string]interface{}{
			"group": group, "error": err.Error(),
		})
	}
}

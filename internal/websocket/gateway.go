package websocket

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"sync"
	"time"

	"learnera-be/internal/dto"
	"learnera-be/internal/pkg/apperrors"
	"learnera-be/internal/pkg/logger"
	"learnera-be/internal/pkg/token"
	"learnera-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Close codes sent when a handshake fails. Stable; the web client switches
// on them.
const (
	CloseGenericFailure = 4000
	CloseUserNotFound   = 4001
	CloseInvalidToken   = 4002
)

// authTimeout bounds verifier/directory calls during the handshake so a
// connection with a bad credential cannot hang in CONNECTING.
const authTimeout = 5 * time.Second

// Gateway owns the lifecycle of each chat connection: handshake and
// authentication, group joins, inbound frame dispatch and the centralized
// teardown path.
type Gateway struct {
	hub       *Hub
	verifier  *token.Verifier
	directory service.IUserDirectory
	chat      service.IChatService
	presence  service.IPresenceService
	logger    logger.ILogger

	// Per-user gates serializing the refcount decision with the matching
	// presence publish, so status events go out in transition order even
	// when a reconnect races a slow disconnect.
	mu    sync.Mutex
	gates map[uint]*userGate
}

type userGate struct {
	mu   sync.Mutex
	refs int
}

func NewGateway(
	hub *Hub,
	verifier *token.Verifier,
	directory service.IUserDirectory,
	chat service.IChatService,
	presence service.IPresenceService,
	log logger.ILogger,
) *Gateway {
	return &Gateway{
		hub:       hub,
		verifier:  verifier,
		directory: directory,
		chat:      chat,
		presence:  presence,
		logger:    log,
		gates:     make(map[uint]*userGate),
	}
}

func (g *Gateway) acquireGate(userId uint) *userGate {
	g.mu.Lock()
	gate := g.gates[userId]
	if gate == nil {
		gate = &userGate{}
		g.gates[userId] = gate
	}
	gate.refs++
	g.mu.Unlock()

	gate.mu.Lock()
	return gate
}

func (g *Gateway) releaseGate(userId uint, gate *userGate) {
	gate.mu.Unlock()

	g.mu.Lock()
	gate.refs--
	if gate.refs == 0 {
		delete(g.gates, userId)
	}
	g.mu.Unlock()
}

// Handler upgrades `GET /api/chat/ws/:token` requests. Authentication runs
// after the upgrade so failures can be reported with a close code.
func (g *Gateway) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return websocket.New(g.serve)(c)
		}
		return fiber.ErrUpgradeRequired
	}
}

func (g *Gateway) serve(conn *websocket.Conn) {
	tokenStr := conn.Params("token")

	userId, err := g.verifier.Verify(tokenStr)
	if err != nil {
		g.logger.Warn("Gateway", "Rejecting connection: bad token", map[string]interface{}{"error": err.Error()})
		g.closeWithCode(conn, CloseInvalidToken, "invalid or expired token")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	user, err := g.directory.GetUser(ctx, userId)
	cancel()
	if err != nil {
		g.logger.Error("Gateway", "Rejecting connection: user lookup failed", map[string]interface{}{
			"user_id": userId, "error": err.Error(),
		})
		g.closeWithCode(conn, CloseGenericFailure, "connection failed")
		return
	}
	if user == nil {
		g.closeWithCode(conn, CloseUserNotFound, "user not found")
		return
	}

	client := newClient(g.hub, conn, userId, g.handleFrame, g.teardown)
	g.attach(client)

	// Acceptance ack goes out only after the group joins succeeded.
	ack, _ := json.Marshal(dto.ConnectionEstablishedPayload{
		Type:   dto.TypeConnectionEstablished,
		UserId: userId,
	})
	client.enqueue(ack)

	g.logger.Info("Gateway", "Connection open", map[string]interface{}{
		"connection_id": client.id, "user_id": userId,
	})

	go client.writePump()
	client.readPump()
}

// attach registers the connection, joins its groups and, for the user's
// first live connection, publishes the online transition before the gate
// is released.
func (g *Gateway) attach(c *Client) {
	gate := g.acquireGate(c.userId)
	defer g.releaseGate(c.userId, gate)

	first := g.hub.Register(c)
	g.hub.Join(service.PersonalGroup(c.userId), c)
	g.hub.Join(service.PresenceGroup, c)

	if first {
		ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
		defer cancel()
		if err := g.presence.MarkOnline(ctx, c.userId); err != nil {
			g.logger.Error("Gateway", "Presence mark-online failed", map[string]interface{}{
				"user_id": c.userId, "error": err.Error(),
			})
		}
	}
}

// teardown is invoked exactly once per connection via the client's
// sync.Once, whether the close was clean, abnormal or server-initiated.
// The gate keeps a reconnect from publishing its online transition while
// this offline publish is still in flight.
func (g *Gateway) teardown(c *Client) {
	gate := g.acquireGate(c.userId)
	defer g.releaseGate(c.userId, gate)

	last := g.hub.Unregister(c)
	if last {
		ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
		defer cancel()
		if err := g.presence.MarkOffline(ctx, c.userId); err != nil {
			g.logger.Error("Gateway", "Presence mark-offline failed", map[string]interface{}{
				"user_id": c.userId, "error": err.Error(),
			})
		}
	}
}

// handleFrame processes one inbound frame. Failures become a structured
// error reply; the connection stays open unless the error is terminal.
func (g *Gateway) handleFrame(c *Client, data []byte) {
	var req dto.ChatSendRequest
	if err := json.Unmarshal(data, &req); err != nil {
		g.sendError(c, "Invalid JSON format")
		return
	}

	if req.ReceiverId == 0 || req.Message == "" {
		g.sendError(c, "Missing required fields")
		return
	}

	if err := g.chat.Route(context.Background(), c.userId, &req); err != nil {
		if apperrors.KindOf(err) == apperrors.KindTransient {
			g.logger.Error("Gateway", "Message routing failed", map[string]interface{}{
				"user_id": c.userId, "receiver_id": req.ReceiverId, "error": err.Error(),
			})
		}
		g.sendError(c, apperrors.UserMessage(err))

		// Auth and unknown-user failures mean the credential behind this
		// connection is no longer valid; drop it.
		if apperrors.IsTerminal(err) {
			c.shutdown()
		}
	}
}

func (g *Gateway) sendError(c *Client, message string) {
	payload, _ := json.Marshal(dto.ChatErrorPayload{Status: dto.StatusError, Message: message})
	c.enqueue(payload)
}

func (g *Gateway) closeWithCode(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(writeWait)
	_ = conn.WriteControl(websocket.CloseMessage, formatClosePayload(code, reason), deadline)
	_ = conn.Close()
}

// formatClosePayload builds a close frame body: 2-byte big-endian status
// code followed by the UTF-8 reason.
func formatClosePayload(code int, reason string) []byte {
	payload := make([]byte, 2+len(reason))
	binary.BigEndian.PutUint16(payload, uint16(code))
	copy(payload[2:], reason)
	return payload
}

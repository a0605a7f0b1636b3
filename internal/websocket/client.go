package websocket

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// Opaque connection id, distinct from the owning user.
	id uuid.UUID

	// Owning user, set during the handshake and immutable afterwards.
	userId uint

	// Buffered channel of outbound frames; closed by the hub on unregister.
	send chan []byte

	inbound func(c *Client, data []byte)
	onClose func(c *Client)

	closeOnce sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn, userId uint, inbound func(*Client, []byte), onClose func(*Client)) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		id:      uuid.New(),
		userId:  userId,
		send:    make(chan []byte, sendBufferSize),
		inbound: inbound,
		onClose: onClose,
	}
}

func (c *Client) UserId() uint {
	return c.userId
}

// enqueue hands a frame to the write pump without blocking. Returns false
// when the buffer is full or the channel already closed.
func (c *Client) enqueue(data []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// shutdown runs the teardown path exactly once, no matter which pump or
// error branch got here first.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		if c.onClose != nil {
			c.onClose(c)
		}
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// readPump pumps frames from the websocket connection into the gateway.
func (c *Client) readPump() {
	defer c.shutdown()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			// Abnormal closes land here too; shutdown handles both paths.
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}
		c.inbound(c, data)
	}
}

// writePump pumps frames from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.shutdown()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/localmart/localmart-backend/internal/auth"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendBufferSize = 256
)

// Client is one authenticated websocket connection. The identity is fixed at
// upgrade time; event payloads are checked against it rather than trusted.
type Client struct {
	ID       string
	Identity auth.Identity

	conn *websocket.Conn
	Send chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(ident auth.Identity, conn *websocket.Conn) *Client {
	return &Client{
		ID:       uuid.NewString(),
		Identity: ident,
		conn:     conn,
		Send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
	}
}

// Start runs the read and write pumps. The relay is notified when the read
// side ends, which tears down room membership and presence.
func (c *Client) Start(r *Relay) {
	go c.writePump()
	go c.readPump(r)
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) readPump(r *Relay) {
	defer func() {
		r.dropClient(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		r.touchPresence(c)
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := codec.Unmarshal(data, &env); err != nil {
			r.sendError(c, "malformed event payload")
			continue
		}
		r.Handle(c, env)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case msg := <-c.Send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

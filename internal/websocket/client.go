package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"collabnotes-server/internal/registry"

	"github.com/gorilla/websocket"
)

// Timings groups the per-connection deadlines shared by all sessions.
type Timings struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
}

// Client is one live WebSocket session. Topic, identity and the receive-only
// flag are fixed at construction and never change after the handshake; a new
// connection is a new Client.
type Client struct {
	ID     string
	UserID string // empty for anonymous list sessions
	Topic  string

	conn        *websocket.Conn
	registry    registry.Registry
	receiveOnly bool
	timings     Timings

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(id, userID, topic string, receiveOnly bool, conn *websocket.Conn, reg registry.Registry, timings Timings) *Client {
	return &Client{
		ID:          id,
		UserID:      userID,
		Topic:       topic,
		conn:        conn,
		registry:    reg,
		receiveOnly: receiveOnly,
		timings:     timings,
		send:        make(chan []byte, 256),
		done:        make(chan struct{}),
	}
}

// Deliver implements registry.Subscriber. It never blocks: a session whose
// send buffer is full is closed instead of stalling the broadcaster.
func (c *Client) Deliver(payload []byte) {
	select {
	case <-c.done:
	case c.send <- payload:
	default:
		log.Printf("client %s send buffer full, closing connection", c.ID)
		c.Close()
	}
}

// Close releases the session's topic membership and tears the connection
// down. Safe to call from any goroutine, any number of times.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.registry.Leave(c.Topic, c)
		close(c.done)
		c.conn.Close()
		log.Printf("client %s left %s", c.ID, c.Topic)
	})
}

func (c *Client) ReadPump() {
	defer c.Close()

	c.conn.SetReadLimit(c.timings.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.timings.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.timings.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error: %v", err)
			}
			break
		}

		if c.receiveOnly {
			continue
		}
		c.handleInbound(message)
	}
}

// handleInbound relays a live edit to everyone on the topic, the sender
// included. Anything that is not a well-formed edit message is dropped
// without a reply; the live channel is best-effort. Nothing on this path is
// persisted.
func (c *Client) handleInbound(raw []byte) {
	var msg Inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if msg.Type != TypeEdit || msg.Content == nil {
		return
	}

	payload, err := EncodeUpdate(*msg.Content, c.UserID)
	if err != nil {
		return
	}
	if err := c.registry.Broadcast(c.Topic, payload); err != nil {
		log.Printf("broadcast on %s failed: %v", c.Topic, err)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(c.timings.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.timings.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.timings.WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.timings.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

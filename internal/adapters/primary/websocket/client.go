package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/solvedesk/helpdesk-backend/internal/core/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// Outbound buffer per connection.
	sendBufferSize = 256
)

// connState is the liveness state of a connection.
type connState int32

const (
	stateConnecting connState = iota
	stateAuthenticated
	stateClosed
)

// Client is one live bidirectional connection, labeled with the verified
// identity it authenticated as. The identity, and therefore the room set, is
// immutable for the connection's lifetime.
type Client struct {
	// ID is opaque and process-unique.
	ID uuid.UUID

	Identity domain.Identity

	hub  *Hub
	conn *websocket.Conn

	// send is the ordered outbound queue drained by WritePump. Because a
	// broadcast enqueues synchronously, the queue preserves publish order
	// per recipient.
	send chan domain.Envelope

	// mu guards closed and state; closed makes send-after-close a no-op
	// instead of a panic.
	mu     sync.RWMutex
	closed bool
	state  connState

	closeOnce sync.Once
	logger    *slog.Logger
}

// NewClient wraps an upgraded connection. The client starts in the
// CONNECTING state; Hub.Register transitions it to AUTHENTICATED.
func NewClient(hub *Hub, conn *websocket.Conn, identity domain.Identity, logger *slog.Logger) *Client {
	id := uuid.New()
	return &Client{
		ID:       id,
		Identity: identity,
		hub:      hub,
		conn:     conn,
		send:     make(chan domain.Envelope, sendBufferSize),
		state:    stateConnecting,
		logger:   logger.With("connection_id", id.String(), "user_id", identity.UserID.String()),
	}
}

// TrySend enqueues an envelope without blocking. It returns false when the
// connection is closed or its buffer is full; both are harmless to the
// broadcast that attempted the delivery.
func (c *Client) TrySend(envelope domain.Envelope) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- envelope:
		return true
	default:
		return false
	}
}

// closeSend marks the client closed and closes the queue exactly once.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
	})
}

func (c *Client) setState(s connState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// State returns the connection's liveness state.
func (c *Client) State() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch c.state {
	case stateAuthenticated:
		return "AUTHENTICATED"
	case stateClosed:
		return "CLOSED"
	default:
		return "CONNECTING"
	}
}

// ReadPump pumps messages from the websocket connection and unregisters the
// client when the transport drops. Runs in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.logger.Error("failed to set read deadline in pong handler", "error", err)
		}
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			break
		}

		c.handleIncomingMessage(message)
	}
}

// WritePump drains the send queue to the websocket connection and keeps the
// transport alive with protocol pings. Runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case envelope, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}

			if !ok {
				// The hub closed the queue. Send close message.
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.logger.Debug("failed to send close message", "error", err)
				}
				return
			}

			if err := c.writeJSON(envelope); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline for ping", "error", err)
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

func (c *Client) writeJSON(envelope domain.Envelope) error {
	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}

// clientMessage is the structure for messages sent from the client. The
// protocol is deliberately small: rooms are assigned at registration, so the
// only client-initiated message is the application-level keep-alive.
type clientMessage struct {
	Type string `json:"type"`
}

func (c *Client) handleIncomingMessage(message []byte) {
	var msg clientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("failed to unmarshal client message", "error", err)
		return
	}

	switch msg.Type {
	case "PING":
		c.TrySend(domain.Envelope{
			Kind:    domain.KindPong,
			Payload: map[string]string{"timestamp": time.Now().UTC().Format(time.RFC3339)},
		})

	default:
		c.logger.Debug("received unknown message type", "type", msg.Type)
	}
}

// internal/websocket/client.go
package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"nilm-live/internal/data"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod     = (pongWait * 9) / 10 // Send pings to peer with this period. Must be less than pongWait.
	maxMessageSize = 512                 // Maximum message size allowed from peer.
)

// Client is one streaming session on a websocket connection.
// WriteEvent must only be called from a single goroutine.
type Client struct {
	ID          string
	RemoteAddr  string
	ConnectedAt time.Time

	// OnSent, if set, runs after each event reaches the peer.
	OnSent func(ev data.Event)

	conn      *websocket.Conn
	log       *slog.Logger
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, log *slog.Logger) *Client {
	id := uuid.NewString()
	addr := conn.RemoteAddr().String()
	return &Client{
		ID:          id,
		RemoteAddr:  addr,
		ConnectedAt: time.Now(),
		conn:        conn,
		log:         log.With(slog.String("session", id), slog.String("remote", addr)),
	}
}

// WriteEvent sends one event as a single text frame.
func (c *Client) WriteEvent(ev data.Event) error {
	payload, err := data.Encode(ev)
	if err != nil {
		return err
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return err
	}
	if c.OnSent != nil {
		c.OnSent(ev)
	}
	return nil
}

// ReadPump drains the connection so control frames are processed and calls
// cancel once the peer goes away. Client payloads are ignored.
func (c *Client) ReadPump(cancel context.CancelFunc) {
	defer cancel()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.log.Debug("websocket read error", slog.Any("err", err))
			}
			return
		}
	}
}

// PingPump keeps intermediaries from dropping an idle-looking connection.
// WriteControl is safe to call alongside WriteEvent.
func (c *Client) PingPump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.log.Debug("websocket ping error", slog.Any("err", err))
				return
			}
		}
	}
}

// Close sends a close frame with the given code and closes the connection.
// Safe to call more than once.
func (c *Client) Close(code int, reason string) {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(code, reason)
		c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.conn.Close()
	})
}

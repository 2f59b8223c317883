package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"support-chat-be/internal/dto"
	"support-chat-be/internal/pkg/logger"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

var (
	ErrConnClosed     = errors.New("websocket: connection closed")
	ErrSendBufferFull = errors.New("websocket: send buffer full")
)

// InboundHandler receives parsed client commands from the read pump.
type InboundHandler func(action string, data json.RawMessage)

// Client is the middleman between one websocket connection and the chat core. It
// implements chat.Conn: outbound events are enqueued on Send and drained by the write
// pump, so broadcast fan-out never blocks on a slow peer.
type Client struct {
	Conn *websocket.Conn
	Id   string
	Send chan []byte

	mu     sync.Mutex
	closed bool

	logger logger.ILogger
}

func NewClient(conn *websocket.Conn, id string, log logger.ILogger) *Client {
	return &Client{
		Conn:   conn,
		Id:     id,
		Send:   make(chan []byte, 256),
		logger: log,
	}
}

func (c *Client) ID() string {
	return c.Id
}

// SendEvent marshals the {"type": ..., "data": ...} envelope and enqueues it. A full
// buffer or closed connection is reported to the caller, never waited out.
func (c *Client) SendEvent(event string, data interface{}) error {
	payload, err := json.Marshal(map[string]interface{}{
		"type": event,
		"data": data,
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.Send <- payload:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Run starts the write pump and then reads in the current goroutine until the peer
// goes away. onDisconnect fires exactly once, before the send channel closes.
func (c *Client) Run(handler InboundHandler, onDisconnect func()) {
	go c.writePump()
	c.readPump(handler, onDisconnect)
}

func (c *Client) readPump(handler InboundHandler, onDisconnect func()) {
	defer func() {
		onDisconnect()
		c.shutdown()
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Client", "Unexpected close", map[string]interface{}{
					"connection_id": c.Id,
					"error":         err.Error(),
				})
			}
			break
		}

		var cmd dto.ClientCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			c.logger.Warn("Client", "Malformed command", map[string]interface{}{
				"connection_id": c.Id,
				"error":         err.Error(),
			})
			continue
		}
		handler(cmd.Action, cmd.Data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) shutdown() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
	c.mu.Unlock()
}

package hub

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/adnankhan0111/StrangerMeet/internal/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// DefaultMaxMessageSize is enough for SDP offers with a full set of candidates.
	DefaultMaxMessageSize = 64 * 1024

	// DefaultSendBuffer is the number of outbound messages queued per client.
	DefaultSendBuffer = 256
)

// ClientOptions tunes a single connection.
type ClientOptions struct {
	SendBuffer     int
	MaxMessageSize int64
}

// Client is a wrapper for a single websocket connection (a participant).
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	codec protocol.Codec

	// id is assigned by the hub loop on registration and only read there.
	id string

	maxMessageSize int64

	// send is a buffered channel for all outbound messages.
	// The hub writes to it, and WritePump drains it onto the websocket.
	mu     sync.Mutex
	send   chan *protocol.Message
	closed bool
}

// NewClient wraps conn. The client is inert until registered with the hub
// and its pumps are started.
func NewClient(h *Hub, conn *websocket.Conn, codec protocol.Codec, opts ClientOptions) *Client {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultSendBuffer
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = DefaultMaxMessageSize
	}
	return &Client{
		hub:            h,
		conn:           conn,
		codec:          codec,
		maxMessageSize: opts.MaxMessageSize,
		send:           make(chan *protocol.Message, opts.SendBuffer),
	}
}

// Deliver queues msg for WritePump without blocking.
func (c *Client) Deliver(msg *protocol.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Close closes the send channel, which makes WritePump send a close frame
// and exit.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) remoteAddr() string {
	if c.conn == nil {
		return ""
	}
	return c.conn.RemoteAddr().String()
}

func (c *Client) frameType() int {
	if c.codec.Binary() {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// ReadPump pumps messages from the websocket connection to the hub.
//
// The application runs ReadPump in a per-connection goroutine. The application
// ensures that there is at most one reader on a connection by executing all
// reads from this goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read failed", "remote", c.remoteAddr(), "err", err)
			}
			return
		}

		msg, err := c.codec.Decode(data)
		if err != nil {
			slog.Debug("dropping malformed frame", "remote", c.remoteAddr(), "err", err)
			continue
		}

		if !c.hub.dispatch(c, msg) {
			return
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection.
//
// A goroutine running WritePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
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

			data, err := c.codec.Encode(message)
			if err != nil {
				slog.Error("encode outbound message", "type", message.Type, "err", err)
				continue
			}
			if err := c.conn.WriteMessage(c.frameType(), data); err != nil {
				slog.Debug("websocket write failed", "remote", c.remoteAddr(), "err", err)
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

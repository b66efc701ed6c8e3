// Package hub is the central brain of the broker. A single goroutine owns
// the connection registry and both matchmakers, so every pairing decision
// is made atomically with respect to joins and disconnects.
package hub

import (
	"context"
	"errors"
	"log/slog"

	"github.com/adnankhan0111/StrangerMeet/internal/protocol"
	"github.com/adnankhan0111/StrangerMeet/internal/registry"
	"github.com/adnankhan0111/StrangerMeet/internal/relay"
	"github.com/adnankhan0111/StrangerMeet/internal/signaling"
)

// ErrStopped is returned when the hub loop is no longer running.
var ErrStopped = errors.New("hub stopped")

// Stats is a point-in-time snapshot of the broker state.
type Stats struct {
	Online       int `json:"online"`
	WaitingVideo int `json:"waiting_video"`
	Rooms        int `json:"rooms"`
	WaitingText  int `json:"waiting_text"`
	Partnerships int `json:"partnerships"`
}

type inbound struct {
	client *Client
	msg    *protocol.Message
}

// Hub manages all connections, rooms and partnerships.
type Hub struct {
	registry *registry.Registry
	video    *signaling.Matchmaker
	text     *relay.Matchmaker

	// register is a channel for registering new clients.
	register chan *Client

	// unregister is a channel for unregistering clients.
	unregister chan *Client

	// inbound carries decoded client messages to the loop.
	inbound chan inbound

	stats chan chan Stats

	// done is closed when Run returns.
	done chan struct{}
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	reg := registry.New()
	return &Hub{
		registry:   reg,
		video:      signaling.NewMatchmaker(reg),
		text:       relay.NewMatchmaker(reg),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound),
		stats:      make(chan chan Stats),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main processing loop.
// This is the single goroutine that safely manages all state. It returns
// after disconnecting every client once ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			client.id = h.registry.Connect(client)
			slog.Info("client registered", "conn", client.id, "remote", client.remoteAddr(), "codec", client.codec.Name())

		case client := <-h.unregister:
			if h.disconnect(client.id) {
				slog.Info("client unregistered", "conn", client.id, "remote", client.remoteAddr())
			}

		case in := <-h.inbound:
			h.handle(in.client.id, in.msg)

		case reply := <-h.stats:
			reply <- h.snapshot()

		case <-ctx.Done():
			for _, id := range h.registry.IDs() {
				h.disconnect(id)
			}
			slog.Info("hub stopped")
			return
		}
	}
}

// Register hands a new client to the loop. It reports false if the hub
// has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister queues a client for removal from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) dispatch(client *Client, msg *protocol.Message) bool {
	select {
	case h.inbound <- inbound{client: client, msg: msg}:
		return true
	case <-h.done:
		return false
	}
}

// Stats returns a snapshot taken inside the loop.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	select {
	case h.stats <- reply:
	case <-h.done:
		return Stats{}, ErrStopped
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

func (h *Hub) snapshot() Stats {
	return Stats{
		Online:       h.registry.Online(),
		WaitingVideo: h.video.Waiting(),
		Rooms:        h.video.Rooms(),
		WaitingText:  h.text.QueueLen(),
		Partnerships: h.text.Partnerships(),
	}
}

// handle routes one inbound message to the matchmaker that owns it.
func (h *Hub) handle(id string, msg *protocol.Message) {
	if !h.registry.Live(id) {
		slog.Debug("message from unregistered connection dropped", "conn", id, "type", msg.Type)
		return
	}

	switch msg.Type {
	case protocol.TypeJoinQueue:
		if h.text.Busy(id) {
			slog.Debug("signaling join ignored, connection busy in text chat", "conn", id)
			return
		}
		h.video.JoinQueue(id)

	case protocol.TypeReady:
		h.video.Ready(id, msg.RoomID, msg.Label())

	case protocol.TypeLeaveRoom:
		h.video.Leave(id, msg.RoomID)

	case protocol.TypeChatMessage:
		h.video.Relay(id, msg.RoomID, msg.Payload)

	case protocol.TypeJoinTextQueue:
		if h.video.Busy(id) {
			slog.Debug("text join ignored, connection busy in video chat", "conn", id)
			return
		}
		h.text.JoinQueue(id)

	case protocol.TypeTextMessage:
		h.text.Message(id, msg.Payload)

	case protocol.TypeNextText:
		if h.video.Busy(id) {
			slog.Debug("next ignored, connection busy in video chat", "conn", id)
			return
		}
		h.text.Skip(id)

	case protocol.TypeEndText:
		h.text.End(id)

	default:
		slog.Debug("unknown message type", "conn", id, "type", msg.Type)
	}
}

// disconnect reconciles every domain for a terminated connection. Only the
// first call for an id has any effect.
func (h *Hub) disconnect(id string) bool {
	if !h.registry.Disconnect(id) {
		return false
	}
	h.video.Cleanup(id)
	h.text.Cleanup(id)
	return true
}

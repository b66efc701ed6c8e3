package client

import (
	"encoding/json"
	"sync"

	"github.com/adnankhan0111/StrangerMeet/internal/protocol"
)

// Handler routes incoming broker notifications to typed channels.
type Handler struct {
	in <-chan *protocol.Message

	PartnerFound chan string
	TextMessage  chan any
	PartnerLeft  chan struct{}
	Queued       chan struct{}

	// QueueLength and OnlineCount keep only updates the reader keeps up with.
	QueueLength chan int
	OnlineCount chan int

	// Closed is closed once Start returns.
	Closed chan struct{}

	stop     chan struct{}
	stopOnce sync.Once
}

// NewHandler creates a new message handler for client.
func NewHandler(client *Client) *Handler {
	return newHandler(client.Incoming())
}

func newHandler(in <-chan *protocol.Message) *Handler {
	return &Handler{
		in:           in,
		PartnerFound: make(chan string, 1),
		TextMessage:  make(chan any, 32),
		PartnerLeft:  make(chan struct{}, 1),
		Queued:       make(chan struct{}, 1),
		QueueLength:  make(chan int, 1),
		OnlineCount:  make(chan int, 1),
		Closed:       make(chan struct{}),
		stop:         make(chan struct{}),
	}
}

// Start begins listening to incoming messages and routing them. It returns
// when the incoming stream is closed or Stop is called.
func (h *Handler) Start() {
	defer close(h.Closed)

	for {
		select {
		case msg, ok := <-h.in:
			if !ok || !h.route(msg) {
				return
			}
		case <-h.stop:
			return
		}
	}
}

// Stop makes Start return, even while it waits for a reader.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// route delivers msg to its channel. It reports false once stopped.
func (h *Handler) route(msg *protocol.Message) bool {
	switch msg.Type {

	case protocol.TypePartnerFound:
		return deliver(h.stop, h.PartnerFound, partnerID(msg.Payload))

	case protocol.TypeTextMessage:
		return deliver(h.stop, h.TextMessage, msg.Payload)

	case protocol.TypePartnerDisconnected:
		return deliver(h.stop, h.PartnerLeft, struct{}{})

	case protocol.TypeQueuedAgain:
		return deliver(h.stop, h.Queued, struct{}{})

	case protocol.TypeUpdateQueue:
		offer(h.QueueLength, toInt(msg.Payload))

	case protocol.TypeUpdateUserCount:
		offer(h.OnlineCount, toInt(msg.Payload))
	}
	return true
}

func deliver[T any](stop <-chan struct{}, ch chan T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-stop:
		return false
	}
}

// offer replaces any unread value with n.
func offer(ch chan int, n int) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- n:
	default:
	}
}

// partnerID extracts the id from a partner-found payload, which arrives
// as a generic map after decoding.
func partnerID(payload any) string {
	switch p := payload.(type) {
	case map[string]any:
		id, _ := p["partnerId"].(string)
		return id
	case protocol.PartnerFound:
		return p.PartnerID
	}
	return ""
}

// toInt normalises numbers from either codec: JSON yields json.Number and
// MessagePack the smallest integer type that fits.
func toInt(v any) int {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
		f, _ := n.Float64()
		return int(f)
	case int:
		return n
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		return int(n)
	case uint8:
		return int(n)
	case uint16:
		return int(n)
	case uint32:
		return int(n)
	case uint64:
		return int(n)
	case float32:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

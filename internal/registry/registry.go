// Package registry tracks live connections and the online counter.
package registry

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/adnankhan0111/StrangerMeet/internal/protocol"
)

// Sink is the transport endpoint of a single connection.
type Sink interface {
	// Deliver queues msg without blocking and reports whether it was accepted.
	Deliver(msg *protocol.Message) bool

	// Close releases the endpoint. It may be called more than once.
	Close()
}

// Registry owns connection existence. Everything else refers to a
// connection by the id Connect hands out.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]Sink
	online int
	newID  func() string
}

// New creates an empty Registry that allocates UUIDs as connection ids.
func New() *Registry {
	return &Registry{
		conns: make(map[string]Sink),
		newID: uuid.NewString,
	}
}

// Connect registers sink under a fresh id and broadcasts the new online count.
func (r *Registry) Connect(sink Sink) string {
	r.mu.Lock()
	id := r.newID()
	for _, taken := r.conns[id]; taken; _, taken = r.conns[id] {
		id = r.newID()
	}
	r.conns[id] = sink
	r.online++
	count := r.online
	r.mu.Unlock()

	slog.Debug("connection registered", "conn", id, "online", count)
	r.Broadcast(&protocol.Message{Type: protocol.TypeUpdateUserCount, Payload: count})
	return id
}

// Disconnect removes id, closes its sink and broadcasts the new online count.
// It reports false, and does nothing, when id is not live.
func (r *Registry) Disconnect(id string) bool {
	r.mu.Lock()
	sink, ok := r.conns[id]
	if !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.conns, id)
	r.online = max(r.online-1, 0)
	count := r.online
	r.mu.Unlock()

	sink.Close()
	slog.Debug("connection removed", "conn", id, "online", count)
	r.Broadcast(&protocol.Message{Type: protocol.TypeUpdateUserCount, Payload: count})
	return true
}

// Send delivers msg to id. Unknown ids and full buffers drop the message.
func (r *Registry) Send(id string, msg *protocol.Message) {
	r.mu.RLock()
	sink, ok := r.conns[id]
	r.mu.RUnlock()

	if !ok {
		slog.Debug("dropping message for stale connection", "conn", id, "type", msg.Type)
		return
	}
	if !sink.Deliver(msg) {
		slog.Warn("send buffer full, message dropped", "conn", id, "type", msg.Type)
	}
}

// Broadcast delivers msg to every live connection.
func (r *Registry) Broadcast(msg *protocol.Message) {
	r.mu.RLock()
	sinks := make(map[string]Sink, len(r.conns))
	for id, sink := range r.conns {
		sinks[id] = sink
	}
	r.mu.RUnlock()

	for id, sink := range sinks {
		if !sink.Deliver(msg) {
			slog.Warn("send buffer full, broadcast dropped", "conn", id, "type", msg.Type)
		}
	}
}

// Live reports whether id is a registered connection.
func (r *Registry) Live(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[id]
	return ok
}

// Online returns the current online counter.
func (r *Registry) Online() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.online
}

// IDs returns the ids of all live connections in no particular order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}

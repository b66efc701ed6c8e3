// Package relay pairs waiting connections into one-to-one partnerships and
// relays text payloads between partners through the broker.
//
// The waiting pool is strict FIFO: the oldest waiter is paired with the
// second oldest. A Matchmaker is not safe for concurrent use; the hub
// serializes every call.
package relay

import (
	"log/slog"
	"slices"

	"github.com/adnankhan0111/StrangerMeet/internal/protocol"
)

// Matchmaker owns the relay waiting pool and partner table.
type Matchmaker struct {
	notify protocol.Notifier

	queue []string

	// partners is symmetric: partners[a] == b iff partners[b] == a.
	partners map[string]string
}

// NewMatchmaker creates a Matchmaker that emits notifications through n.
func NewMatchmaker(n protocol.Notifier) *Matchmaker {
	return &Matchmaker{
		notify:   n,
		partners: make(map[string]string),
	}
}

// JoinQueue appends id to the pool and pairs the two oldest waiters if it
// can. Connections that are already waiting or partnered are ignored.
func (m *Matchmaker) JoinQueue(id string) {
	if m.Busy(id) {
		slog.Debug("relay join ignored, already queued or paired", "conn", id)
		return
	}
	m.enqueue(id)
	m.pair()
}

// Message forwards payload to id's partner. Without a partner it is dropped.
func (m *Matchmaker) Message(id string, payload any) {
	partner, ok := m.partners[id]
	if !ok {
		slog.Debug("text message without partner dropped", "conn", id)
		return
	}
	m.notify.Send(partner, &protocol.Message{Type: protocol.TypeTextMessage, Payload: payload})
}

// Skip ends id's partnership, puts the abandoned partner back in the pool,
// then puts id back too and runs pairing.
func (m *Matchmaker) Skip(id string) {
	if partner, ok := m.unlink(id); ok {
		m.notify.Send(partner, &protocol.Message{Type: protocol.TypePartnerDisconnected})
		m.requeue(partner)
	}
	if !slices.Contains(m.queue, id) {
		m.requeue(id)
	}
	m.pair()
}

// End ends id's partnership without re-queuing either side. A caller that
// is only waiting leaves the pool.
func (m *Matchmaker) End(id string) {
	if partner, ok := m.unlink(id); ok {
		m.notify.Send(partner, &protocol.Message{Type: protocol.TypePartnerDisconnected})
		return
	}
	if m.dequeue(id) {
		m.broadcastQueue()
	}
}

// Cleanup purges every reference to id. An abandoned partner is re-queued
// so it is not left stranded. Safe for ids that never joined.
func (m *Matchmaker) Cleanup(id string) {
	if m.dequeue(id) {
		m.broadcastQueue()
	}
	if partner, ok := m.unlink(id); ok {
		m.notify.Send(partner, &protocol.Message{Type: protocol.TypePartnerDisconnected})
		m.requeue(partner)
		m.pair()
	}
}

// pair links the two oldest waiters for as long as two are waiting.
func (m *Matchmaker) pair() {
	for len(m.queue) >= 2 {
		a, b := m.queue[0], m.queue[1]
		m.queue = m.queue[2:]
		m.partners[a] = b
		m.partners[b] = a

		slog.Info("relay pair", "first", a, "second", b)

		m.notify.Send(a, &protocol.Message{
			Type:    protocol.TypePartnerFound,
			Payload: protocol.PartnerFound{PartnerID: b},
		})
		m.notify.Send(b, &protocol.Message{
			Type:    protocol.TypePartnerFound,
			Payload: protocol.PartnerFound{PartnerID: a},
		})
		m.broadcastQueue()
	}
}

// unlink removes both directions of id's partnership.
func (m *Matchmaker) unlink(id string) (string, bool) {
	partner, ok := m.partners[id]
	if !ok {
		return "", false
	}
	delete(m.partners, id)
	delete(m.partners, partner)
	slog.Info("relay unpair", "conn", id, "partner", partner)
	return partner, true
}

func (m *Matchmaker) enqueue(id string) {
	m.queue = append(m.queue, id)
	m.broadcastQueue()
}

func (m *Matchmaker) requeue(id string) {
	m.queue = append(m.queue, id)
	m.notify.Send(id, &protocol.Message{Type: protocol.TypeQueuedAgain})
	m.broadcastQueue()
}

func (m *Matchmaker) dequeue(id string) bool {
	n := len(m.queue)
	m.queue = slices.DeleteFunc(m.queue, func(w string) bool { return w == id })
	return len(m.queue) != n
}

func (m *Matchmaker) broadcastQueue() {
	m.notify.Broadcast(&protocol.Message{Type: protocol.TypeUpdateQueue, Payload: len(m.queue)})
}

// Busy reports whether id is waiting or partnered.
func (m *Matchmaker) Busy(id string) bool {
	if _, ok := m.partners[id]; ok {
		return true
	}
	return slices.Contains(m.queue, id)
}

// PartnerOf returns id's current partner.
func (m *Matchmaker) PartnerOf(id string) (string, bool) {
	partner, ok := m.partners[id]
	return partner, ok
}

// QueueLen returns the number of waiting connections.
func (m *Matchmaker) QueueLen() int { return len(m.queue) }

// Partnerships returns the number of active partnerships.
func (m *Matchmaker) Partnerships() int { return len(m.partners) / 2 }

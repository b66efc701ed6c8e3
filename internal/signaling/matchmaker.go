// Package signaling pairs waiting connections into two-party rooms and
// relays opaque signaling payloads between the room members.
//
// A Matchmaker is not safe for concurrent use; the hub serializes every call.
package signaling

import (
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/adnankhan0111/StrangerMeet/internal/protocol"
)

// Matchmaker owns the signaling waiting pool and room table.
type Matchmaker struct {
	notify protocol.Notifier

	// waiting is used as a stack: the most recent waiter is paired first.
	waiting []string

	// rooms maps room IDs to Room instances.
	rooms map[string]*Room

	// roomOf maps a connection to the room it belongs to.
	roomOf map[string]string

	newRoomID func() string
}

// NewMatchmaker creates a Matchmaker that emits notifications through n.
func NewMatchmaker(n protocol.Notifier) *Matchmaker {
	return &Matchmaker{
		notify:    n,
		rooms:     make(map[string]*Room),
		roomOf:    make(map[string]string),
		newRoomID: uuid.NewString,
	}
}

// generateRoomID returns a room id that is not currently in use.
func (m *Matchmaker) generateRoomID() string {
	for {
		id := m.newRoomID()
		if _, ok := m.rooms[id]; !ok {
			return id
		}
	}
}

// JoinQueue pairs id with the most recent waiter, or parks it in the pool.
// Connections that are already waiting or in a room are ignored.
func (m *Matchmaker) JoinQueue(id string) {
	if m.Busy(id) {
		slog.Debug("signaling join ignored, already queued or paired", "conn", id)
		return
	}

	if len(m.waiting) == 0 {
		m.waiting = append(m.waiting, id)
		slog.Debug("signaling queue waiting", "conn", id)
		m.notify.Send(id, &protocol.Message{Type: protocol.TypeWaiting})
		return
	}

	last := len(m.waiting) - 1
	other := m.waiting[last]
	m.waiting = m.waiting[:last]

	room := &Room{
		ID:      m.generateRoomID(),
		Members: []*Member{{ID: other}, {ID: id}},
	}
	m.rooms[room.ID] = room
	m.roomOf[other] = room.ID
	m.roomOf[id] = room.ID

	slog.Info("signaling pair", "room", room.ID, "waiting", other, "joining", id)

	start := &protocol.Message{Type: protocol.TypeStartChat, RoomID: room.ID}
	m.notify.Send(other, start)
	m.notify.Send(id, start)
}

// Ready marks id as joined to roomID and announces it to the other members
// under label. It never creates a room.
func (m *Matchmaker) Ready(id, roomID, label string) {
	room, ok := m.rooms[roomID]
	if !ok {
		slog.Debug("ready for unknown room", "conn", id, "room", roomID)
		return
	}
	member := room.member(id)
	if member == nil {
		slog.Debug("ready from non-member", "conn", id, "room", roomID)
		return
	}
	member.Ready = true

	for _, other := range room.others(id) {
		m.notify.Send(other, &protocol.Message{
			Type:    protocol.TypeUserConnected,
			RoomID:  roomID,
			Payload: label,
		})
	}
}

// Relay forwards payload to every other member of roomID.
func (m *Matchmaker) Relay(id, roomID string, payload any) {
	room, ok := m.rooms[roomID]
	if !ok || room.member(id) == nil {
		slog.Debug("relay outside of room", "conn", id, "room", roomID)
		return
	}
	for _, other := range room.others(id) {
		m.notify.Send(other, &protocol.Message{
			Type:    protocol.TypeChatMessage,
			RoomID:  roomID,
			Payload: payload,
		})
	}
}

// Leave removes id from roomID, tells the remaining members and deletes
// the room. Remaining members are released so they can queue again.
func (m *Matchmaker) Leave(id, roomID string) {
	room, ok := m.rooms[roomID]
	if !ok || room.member(id) == nil {
		slog.Debug("leave outside of room", "conn", id, "room", roomID)
		return
	}
	m.closeRoom(room, id)
}

// Cleanup purges every reference to id. Safe for ids that never joined.
func (m *Matchmaker) Cleanup(id string) {
	m.waiting = slices.DeleteFunc(m.waiting, func(w string) bool { return w == id })

	if roomID, ok := m.roomOf[id]; ok {
		if room, ok := m.rooms[roomID]; ok {
			m.closeRoom(room, id)
		} else {
			delete(m.roomOf, id)
		}
	}
}

// closeRoom deletes room on behalf of the departing member and notifies
// everyone else.
func (m *Matchmaker) closeRoom(room *Room, departing string) {
	remaining := room.others(departing)

	delete(m.rooms, room.ID)
	for _, member := range room.Members {
		delete(m.roomOf, member.ID)
	}
	slog.Info("signaling room closed", "room", room.ID, "by", departing)

	for _, other := range remaining {
		m.notify.Send(other, &protocol.Message{
			Type:   protocol.TypeUserDisconnected,
			RoomID: room.ID,
		})
	}
}

// Busy reports whether id is waiting or in a room.
func (m *Matchmaker) Busy(id string) bool {
	if _, ok := m.roomOf[id]; ok {
		return true
	}
	return slices.Contains(m.waiting, id)
}

// RoomOf returns the room id is a member of.
func (m *Matchmaker) RoomOf(id string) (string, bool) {
	roomID, ok := m.roomOf[id]
	return roomID, ok
}

// Room returns the room with the given id.
func (m *Matchmaker) Room(roomID string) (*Room, bool) {
	room, ok := m.rooms[roomID]
	return room, ok
}

// Waiting returns the number of connections in the pool.
func (m *Matchmaker) Waiting() int { return len(m.waiting) }

// Rooms returns the number of open rooms.
func (m *Matchmaker) Rooms() int { return len(m.rooms) }

package signaling

import (
	"fmt"
	"testing"

	"github.com/adnankhan0111/StrangerMeet/internal/protocol"
)

type sent struct {
	to  string
	msg *protocol.Message
}

type recorder struct {
	sent       []sent
	broadcasts []*protocol.Message
}

func (r *recorder) Send(id string, msg *protocol.Message) {
	r.sent = append(r.sent, sent{to: id, msg: msg})
}

func (r *recorder) Broadcast(msg *protocol.Message) {
	r.broadcasts = append(r.broadcasts, msg)
}

func (r *recorder) to(id string) []*protocol.Message {
	var out []*protocol.Message
	for _, s := range r.sent {
		if s.to == id {
			out = append(out, s.msg)
		}
	}
	return out
}

func (r *recorder) types(id string) []string {
	var out []string
	for _, msg := range r.to(id) {
		out = append(out, msg.Type)
	}
	return out
}

func (r *recorder) reset() { r.sent, r.broadcasts = nil, nil }

func newTestMatchmaker() (*Matchmaker, *recorder) {
	rec := &recorder{}
	m := NewMatchmaker(rec)
	n := 0
	m.newRoomID = func() string {
		n++
		return fmt.Sprintf("room-%d", n)
	}
	return m, rec
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestJoinQueueWaitsThenPairs(t *testing.T) {
	m, rec := newTestMatchmaker()

	m.JoinQueue("a")
	if got := rec.types("a"); !equal(got, []string{protocol.TypeWaiting}) {
		t.Fatalf("a got %v, want [waiting]", got)
	}
	if m.Waiting() != 1 {
		t.Fatalf("Waiting() = %d, want 1", m.Waiting())
	}

	m.JoinQueue("b")
	if m.Waiting() != 0 || m.Rooms() != 1 {
		t.Fatalf("Waiting()=%d Rooms()=%d, want 0 and 1", m.Waiting(), m.Rooms())
	}
	roomA, okA := m.RoomOf("a")
	roomB, okB := m.RoomOf("b")
	if !okA || !okB || roomA != roomB {
		t.Fatalf("a and b not in the same room: %q %q", roomA, roomB)
	}
	for _, id := range []string{"a", "b"} {
		msgs := rec.to(id)
		last := msgs[len(msgs)-1]
		if last.Type != protocol.TypeStartChat || last.RoomID != roomA {
			t.Errorf("%s last message = %+v, want start-chat(%s)", id, last, roomA)
		}
	}
}

func TestJoinQueuePopsMostRecentWaiter(t *testing.T) {
	m, _ := newTestMatchmaker()

	// Two waiters can only accumulate if the pool is seeded; the stack
	// order is observable once a third connection joins.
	m.waiting = []string{"first", "second"}
	m.JoinQueue("third")

	room, ok := m.RoomOf("third")
	if !ok {
		t.Fatal("third not paired")
	}
	if other, _ := m.RoomOf("second"); other != room {
		t.Fatalf("third paired into %q, second is in %q", room, other)
	}
	if _, ok := m.RoomOf("first"); ok {
		t.Fatal("oldest waiter should still be waiting")
	}
	if !equal(m.waiting, []string{"first"}) {
		t.Fatalf("waiting = %v, want [first]", m.waiting)
	}
}

func TestJoinQueueGuardsDuplicates(t *testing.T) {
	m, rec := newTestMatchmaker()

	m.JoinQueue("a")
	m.JoinQueue("a")
	if m.Waiting() != 1 || m.Rooms() != 0 {
		t.Fatalf("duplicate join changed state: waiting=%d rooms=%d", m.Waiting(), m.Rooms())
	}
	if n := len(rec.to("a")); n != 1 {
		t.Fatalf("a received %d messages, want 1", n)
	}

	m.JoinQueue("b")
	rec.reset()
	m.JoinQueue("a")
	m.JoinQueue("b")
	if m.Waiting() != 0 || m.Rooms() != 1 || len(rec.sent) != 0 {
		t.Fatalf("join while paired changed state: waiting=%d rooms=%d sent=%d", m.Waiting(), m.Rooms(), len(rec.sent))
	}
}

func TestPairingNeverSelfPairs(t *testing.T) {
	m, _ := newTestMatchmaker()
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("c%d", i)
		m.JoinQueue(id)
		m.JoinQueue(id)
	}
	for roomID, room := range m.rooms {
		if len(room.Members) != 2 || room.Members[0].ID == room.Members[1].ID {
			t.Fatalf("room %s has members %v", roomID, room.Members)
		}
	}
	if m.Rooms() != 10 || m.Waiting() != 0 {
		t.Fatalf("Rooms()=%d Waiting()=%d, want 10 and 0", m.Rooms(), m.Waiting())
	}
}

func TestReady(t *testing.T) {
	m, rec := newTestMatchmaker()
	m.JoinQueue("a")
	m.JoinQueue("b")
	roomID, _ := m.RoomOf("a")
	rec.reset()

	m.Ready("a", roomID, "peer-a")
	got := rec.to("b")
	if len(got) != 1 || got[0].Type != protocol.TypeUserConnected || got[0].Payload != "peer-a" {
		t.Fatalf("b got %+v, want user-connected(peer-a)", got)
	}
	if len(rec.to("a")) != 0 {
		t.Fatal("ready echoed to the caller")
	}
	room, _ := m.Room(roomID)
	if !room.member("a").Ready || room.member("b").Ready {
		t.Fatal("ready flag not recorded for the caller only")
	}

	rec.reset()
	m.Ready("a", "no-such-room", "peer-a")
	m.Ready("outsider", roomID, "x")
	if len(rec.sent) != 0 || m.Rooms() != 1 {
		t.Fatalf("ready on missing room or by non-member had effects: %+v", rec.sent)
	}
}

func TestRelayForwardsOpaquePayload(t *testing.T) {
	m, rec := newTestMatchmaker()
	m.JoinQueue("a")
	m.JoinQueue("b")
	roomID, _ := m.RoomOf("a")
	rec.reset()

	payload := map[string]any{"type": "offer", "sdp": "v=0"}
	m.Relay("b", roomID, payload)

	got := rec.to("a")
	if len(got) != 1 || got[0].Type != protocol.TypeChatMessage {
		t.Fatalf("a got %+v, want one chat-message", got)
	}
	if got[0].Payload.(map[string]any)["sdp"] != "v=0" {
		t.Fatalf("payload altered: %+v", got[0].Payload)
	}
	if len(rec.to("b")) != 0 {
		t.Fatal("relay echoed to sender")
	}

	rec.reset()
	m.Relay("outsider", roomID, "x")
	if len(rec.sent) != 0 {
		t.Fatal("non-member relayed into room")
	}
}

func TestLeaveClosesRoomAndReleasesPeer(t *testing.T) {
	m, rec := newTestMatchmaker()
	m.JoinQueue("a")
	m.JoinQueue("b")
	roomID, _ := m.RoomOf("a")
	rec.reset()

	m.Leave("a", roomID)
	if got := rec.types("b"); !equal(got, []string{protocol.TypeUserDisconnected}) {
		t.Fatalf("b got %v, want [user-disconnected]", got)
	}
	if m.Rooms() != 0 || m.Busy("a") || m.Busy("b") {
		t.Fatal("room or membership survived leave")
	}

	m.JoinQueue("b")
	if got := rec.types("b"); got[len(got)-1] != protocol.TypeWaiting {
		t.Fatalf("released peer could not queue again: %v", got)
	}
}

func TestLeaveByNonMemberIsNoop(t *testing.T) {
	m, rec := newTestMatchmaker()
	m.JoinQueue("a")
	m.JoinQueue("b")
	roomID, _ := m.RoomOf("a")
	rec.reset()

	m.Leave("c", roomID)
	m.Leave("a", "other-room")
	if m.Rooms() != 1 || len(rec.sent) != 0 {
		t.Fatal("foreign leave affected the room")
	}
}

func TestCleanup(t *testing.T) {
	t.Run("waiting", func(t *testing.T) {
		m, rec := newTestMatchmaker()
		m.JoinQueue("a")
		rec.reset()
		m.Cleanup("a")
		if m.Waiting() != 0 || len(rec.sent) != 0 {
			t.Fatalf("waiting=%d sent=%v", m.Waiting(), rec.sent)
		}
	})

	t.Run("in room", func(t *testing.T) {
		m, rec := newTestMatchmaker()
		m.JoinQueue("a")
		m.JoinQueue("b")
		rec.reset()

		m.Cleanup("b")
		if got := rec.types("a"); !equal(got, []string{protocol.TypeUserDisconnected}) {
			t.Fatalf("a got %v, want [user-disconnected]", got)
		}
		if m.Rooms() != 0 || m.Busy("a") || m.Busy("b") {
			t.Fatal("dangling room state after cleanup")
		}

		rec.reset()
		m.Cleanup("b")
		if len(rec.sent) != 0 {
			t.Fatal("second cleanup emitted notifications")
		}
	})

	t.Run("unknown", func(t *testing.T) {
		m, rec := newTestMatchmaker()
		m.Cleanup("never-joined")
		if len(rec.sent) != 0 {
			t.Fatal("cleanup of unknown id emitted notifications")
		}
	})
}

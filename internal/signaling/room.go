package signaling

// Member is one participant of a room.
type Member struct {
	ID string

	// Ready is set once the member has announced itself with a ready event.
	Ready bool
}

// Room represents a single room where two paired peers exchange signaling
// messages.
type Room struct {
	// ID is the unique identifier for the room.
	ID string

	// Members holds the paired connections in pairing order: the peer that
	// was waiting first, then the peer that completed the pair.
	Members []*Member
}

func (r *Room) member(id string) *Member {
	for _, m := range r.Members {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// others returns the ids of every member except id.
func (r *Room) others(id string) []string {
	out := make([]string, 0, len(r.Members))
	for _, m := range r.Members {
		if m.ID != id {
			out = append(out, m.ID)
		}
	}
	return out
}

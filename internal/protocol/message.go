package protocol

// Message defines the structure for all C2S (Client to Server)
// and S2C (Server to Client) websocket messages.
type Message struct {
	Type    string `json:"type" msgpack:"type"`
	RoomID  string `json:"room_id,omitempty" msgpack:"room_id,omitempty"`
	Payload any    `json:"payload,omitempty" msgpack:"payload,omitempty"`
}

// Inbound event types (client to broker).
const (
	TypeJoinQueue     = "join-queue"
	TypeReady         = "ready"
	TypeLeaveRoom     = "leave-room"
	TypeChatMessage   = "chat-message"
	TypeJoinTextQueue = "join-text-queue"
	TypeTextMessage   = "text-message"
	TypeNextText      = "next-text"
	TypeEndText       = "end-text"
)

// Outbound notification types (broker to client). chat-message and
// text-message are reused in both directions.
const (
	TypeUpdateUserCount     = "updateUserCount"
	TypeStartChat           = "start-chat"
	TypeWaiting             = "waiting"
	TypeUserConnected       = "user-connected"
	TypeUserDisconnected    = "user-disconnected"
	TypePartnerFound        = "partner-found"
	TypePartnerDisconnected = "partner-disconnected"
	TypeQueuedAgain         = "queued-again"
	TypeUpdateQueue         = "updateQueue"
)

// PartnerFound is the payload of a partner-found notification.
type PartnerFound struct {
	PartnerID string `json:"partnerId" msgpack:"partnerId"`
}

// Notifier delivers outbound messages to connections by id.
// Implementations drop messages for ids that are no longer live.
type Notifier interface {
	Send(id string, msg *Message)
	Broadcast(msg *Message)
}

// Label extracts a peer label from a ready payload. Non-string payloads
// yield an empty label.
func (m *Message) Label() string {
	s, _ := m.Payload.(string)
	return s
}

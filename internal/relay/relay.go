package relay

import "encoding/json"

// Conn is the dispatcher's handle to one live connection. IDs are assigned
// by the transport and never reused. Emit must not block; dropping a frame
// on a dead or slow connection is acceptable.
type Conn interface {
	ID() string
	Emit(event string, payload any)
}

// Events emitted to connections.
const (
	EventUserJoined  = "user-joined"
	EventUserLeft    = "user-left"
	EventChatMessage = "chat-message"
	EventSignal      = "signal"
)

type UserJoined struct {
	ID      string   `json:"id"`
	Members []string `json:"members"`
}

type UserLeft struct {
	ID string `json:"id"`
}

type ChatMessage struct {
	Data     string `json:"data"`
	Sender   string `json:"sender"`
	SocketID string `json:"socketId"`
}

type Signal struct {
	From    string          `json:"from"`
	Message json.RawMessage `json:"message"`
}

package ws

import "encoding/json"

// Inbound event names. Disconnect has no frame; it is the socket closing.
const (
	eventJoin   = "join"
	eventSignal = "signal"
	eventChat   = "chat-message"
)

// envelope frames every message in both directions as
// {"event": "...", "data": {...}}.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type joinMsg struct {
	Path   string `json:"path"`
	UserID string `json:"userId"`
}

type signalMsg struct {
	To      string          `json:"to"`
	Message json.RawMessage `json:"message"`
}

type chatMsg struct {
	Data   string `json:"data"`
	Sender string `json:"sender"`
}

func decodeEnvelope(raw []byte) (envelope, error) {
	var env envelope
	err := json.Unmarshal(raw, &env)
	return env, err
}

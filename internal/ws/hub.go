package ws

import (
	"context"
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/google/uuid"

	"peercall/internal/app"
	"peercall/internal/relay"
)

// Hub accepts websocket connections and feeds their events into the
// dispatcher. It owns no room state of its own.
type Hub struct {
	log        *slog.Logger
	cfg        app.Config
	dispatcher *relay.Dispatcher
}

func NewHub(logger *slog.Logger, cfg app.Config, d *relay.Dispatcher) *Hub {
	return &Hub{log: logger, cfg: cfg, dispatcher: d}
}

// Dispatcher exposes the hub's dispatcher for stats reporting.
func (h *Hub) Dispatcher() *relay.Dispatcher { return h.dispatcher }

// ServeWS handles a new /ws connection for its whole lifetime: register,
// pump inbound events, and dispatch a disconnect when the socket drops.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := Accept(w, r, h.cfg.WSOrigins)
	if err != nil {
		h.log.Error("ws.accept", "err", err)
		return
	}

	ctx := r.Context()
	c := NewConn(uuid.NewString(), conn)
	h.dispatcher.Register(c)
	go c.WriteLoop(ctx)

	for {
		raw, ok := c.Read(ctx)
		if !ok {
			break
		}
		h.handle(ctx, c, raw)
	}

	h.dispatcher.Disconnect(c)
	_ = c.Close()
}

// handle decodes one inbound frame and dispatches it. Malformed frames are
// dropped without an error to the sender.
func (h *Hub) handle(ctx context.Context, c *Conn, raw []byte) {
	env, err := decodeEnvelope(raw)
	if err != nil {
		h.log.Warn("ws.frame", "conn", c.ID(), "err", err)
		return
	}

	switch env.Event {
	case eventJoin:
		var m joinMsg
		if err := json.Unmarshal(env.Data, &m); err != nil || m.Path == "" {
			return
		}
		h.dispatcher.Join(ctx, c, m.Path, m.UserID)

	case eventSignal:
		var m signalMsg
		if err := json.Unmarshal(env.Data, &m); err != nil || m.To == "" {
			return
		}
		h.dispatcher.Signal(c, m.To, m.Message)

	case eventChat:
		var m chatMsg
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return
		}
		h.dispatcher.Chat(ctx, c, m.Data, m.Sender)

	default:
		h.log.Debug("ws.unknown_event", "conn", c.ID(), "event", env.Event)
	}
}

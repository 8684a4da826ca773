package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"peercall/pkg/metrics"
	"peercall/pkg/sanitize"
)

// persistableIDLen is the exact length a room identifier must have for the
// room to be mirrored to the store. Rooms with any other identifier length
// still relay live, they just are not remembered across sessions.
const persistableIDLen = 5

const defaultHistoryCap = 256

// Dispatcher owns all live call state: room membership, presence, recent
// chat, and the set of addressable connections. Every inbound event funnels
// through it. All in-memory mutation happens synchronously under one lock,
// so per-room notification order matches dispatch order; only store writes
// happen outside it, after the broadcast they can no longer delay.
type Dispatcher struct {
	log   *slog.Logger
	store Store

	mu    sync.Mutex
	conns map[string]Conn // every live connection, joined or not
	reg   *registry
	seen  presence
	hist  *history
}

type Option func(*Dispatcher)

// WithHistoryCap overrides the per-room chat replay buffer size.
func WithHistoryCap(n int) Option {
	return func(d *Dispatcher) { d.hist = newHistory(n) }
}

func New(log *slog.Logger, store Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		log:   log,
		store: store,
		conns: make(map[string]Conn),
		reg:   newRegistry(),
		seen:  make(presence),
		hist:  newHistory(defaultHistoryCap),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Register makes a connection addressable. Signaling to a connection works
// from this point on; room membership only after Join.
func (d *Dispatcher) Register(c Conn) {
	d.mu.Lock()
	d.conns[c.ID()] = c
	d.mu.Unlock()
	metrics.ConnectionsOpen.Inc()
}

// Join puts the connection into the room at path and tells every member,
// joiner included, who is in the room now. Buffered chat is replayed to the
// joiner only. A connection already in a different room is moved. The store
// upserts run after the broadcasts and only for persistable identifiers;
// their failure is logged and otherwise ignored.
func (d *Dispatcher) Join(ctx context.Context, c Conn, path, userID string) {
	metrics.EventsTotal.WithLabelValues("join").Inc()

	d.mu.Lock()
	if prev, ok := d.reg.roomOf(c.ID()); ok && prev.path != path {
		d.leaveLocked(c.ID())
	}
	rm := d.reg.join(c.ID(), path)
	d.seen.markOnline(c.ID(), time.Now())

	joined := UserJoined{ID: c.ID(), Members: append([]string(nil), rm.members...)}
	d.emitToRoomLocked(rm, EventUserJoined, joined)
	for _, rec := range d.hist.replay(path) {
		c.Emit(EventChatMessage, ChatMessage{Data: rec.Data, Sender: rec.Sender, SocketID: rec.Origin})
	}
	groupID := rm.groupID
	metrics.RoomsActive.Set(float64(len(d.reg.rooms)))
	d.mu.Unlock()

	d.log.Debug("relay.join", "conn", c.ID(), "room", path, "user", userID)

	if len(groupID) != persistableIDLen {
		return
	}
	if err := d.store.AddUserGroup(ctx, userID, groupID); err != nil {
		d.log.Error("store.user_group", "user", userID, "group", groupID, "err", err)
	}
	if err := d.store.AddGroupMember(ctx, groupID, userID); err != nil {
		d.log.Error("store.group_member", "group", groupID, "user", userID, "err", err)
	}
}

// Signal relays a negotiation payload to one target connection, tagged with
// the sender's id. The relay is room-agnostic; a vanished target is a
// silent no-op.
func (d *Dispatcher) Signal(c Conn, targetID string, message json.RawMessage) {
	metrics.EventsTotal.WithLabelValues("signal").Inc()

	d.mu.Lock()
	target, ok := d.conns[targetID]
	d.mu.Unlock()
	if !ok {
		return
	}
	target.Emit(EventSignal, Signal{From: c.ID(), Message: message})
}

// Chat broadcasts a sanitized message to the sender's room, sender included,
// and buffers it for late joiners. A connection that has not joined any room
// is dropped silently. The store write runs after the broadcast; its failure
// is logged and otherwise ignored.
func (d *Dispatcher) Chat(ctx context.Context, c Conn, data, sender string) {
	metrics.EventsTotal.WithLabelValues("chat").Inc()

	data = sanitize.Clean(data)
	sender = sanitize.Clean(sender)

	d.mu.Lock()
	rm, ok := d.reg.roomOf(c.ID())
	if !ok {
		d.mu.Unlock()
		return
	}
	d.hist.record(rm.path, ChatRecord{Data: data, Sender: sender, Origin: c.ID()})
	d.emitToRoomLocked(rm, EventChatMessage, ChatMessage{Data: data, Sender: sender, SocketID: c.ID()})
	groupID := rm.groupID
	d.mu.Unlock()

	if len(groupID) != persistableIDLen {
		return
	}
	if err := d.store.AppendGroupMessage(ctx, groupID, data, sender); err != nil {
		d.log.Error("store.chat", "group", groupID, "err", err)
	}
}

// Disconnect removes the connection from its room, tells the remaining
// members, and drops presence. Unconditional; a connection that never
// joined only loses its registration.
func (d *Dispatcher) Disconnect(c Conn) {
	metrics.EventsTotal.WithLabelValues("disconnect").Inc()

	d.mu.Lock()
	d.leaveLocked(c.ID())
	if dur, ok := d.seen.markOffline(c.ID(), time.Now()); ok {
		metrics.SessionSeconds.Observe(dur.Seconds())
	}
	delete(d.conns, c.ID())
	metrics.RoomsActive.Set(float64(len(d.reg.rooms)))
	d.mu.Unlock()

	metrics.ConnectionsOpen.Dec()
	d.log.Debug("relay.disconnect", "conn", c.ID())
}

// MembersOf returns a snapshot of the room's member ids in join order.
func (d *Dispatcher) MembersOf(path string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reg.membersOf(path)
}

// RoomOf returns the room path the connection is in, if any.
func (d *Dispatcher) RoomOf(connID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rm, ok := d.reg.roomOf(connID)
	if !ok {
		return "", false
	}
	return rm.path, true
}

// Stats reports active room and connection counts.
func (d *Dispatcher) Stats() (rooms, conns int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.reg.rooms), len(d.conns)
}

// leaveLocked removes the connection from its room and tells the remaining
// members. No-op for connections that are not in any room.
func (d *Dispatcher) leaveLocked(connID string) {
	rm, ok := d.reg.leave(connID)
	if !ok {
		return
	}
	d.emitToRoomLocked(rm, EventUserLeft, UserLeft{ID: connID})
}

func (d *Dispatcher) emitToRoomLocked(rm *room, event string, payload any) {
	for _, id := range rm.members {
		if m, ok := d.conns[id]; ok {
			m.Emit(event, payload)
		}
	}
}

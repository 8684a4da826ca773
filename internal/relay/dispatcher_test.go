package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emitted struct {
	event   string
	payload any
}

type mockConn struct {
	id     string
	mu     sync.Mutex
	events []emitted
}

func (m *mockConn) ID() string { return m.id }

func (m *mockConn) Emit(event string, payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, emitted{event, payload})
}

func (m *mockConn) got() []emitted {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]emitted(nil), m.events...)
}

func (m *mockConn) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

type mockStore struct {
	mu           sync.Mutex
	userGroups   [][2]string // username, groupID
	groupMembers [][2]string // groupID, username
	messages     [][3]string // groupID, content, author
	err          error
}

func (s *mockStore) AddUserGroup(_ context.Context, username, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.userGroups = append(s.userGroups, [2]string{username, groupID})
	return nil
}

func (s *mockStore) AddGroupMember(_ context.Context, groupID, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.groupMembers = append(s.groupMembers, [2]string{groupID, username})
	return nil
}

func (s *mockStore) AppendGroupMessage(_ context.Context, groupID, content, author string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, [3]string{groupID, content, author})
	return nil
}

func newTestDispatcher(t *testing.T, opts ...Option) (*Dispatcher, *mockStore) {
	t.Helper()
	st := &mockStore{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(log, st, opts...), st
}

func connect(d *Dispatcher, id string) *mockConn {
	c := &mockConn{id: id}
	d.Register(c)
	return c
}

func TestJoinBroadcastsMemberList(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	a := connect(d, "A")
	d.Join(ctx, a, "/call/ABCDE", "alice")

	require.Len(t, a.got(), 1)
	assert.Equal(t, emitted{EventUserJoined, UserJoined{ID: "A", Members: []string{"A"}}}, a.got()[0])

	b := connect(d, "B")
	d.Join(ctx, b, "/call/ABCDE", "bob")

	// Both members see the updated list, join order preserved.
	want := emitted{EventUserJoined, UserJoined{ID: "B", Members: []string{"A", "B"}}}
	assert.Equal(t, want, a.got()[1])
	assert.Equal(t, want, b.got()[0])
	assert.Equal(t, []string{"A", "B"}, d.MembersOf("/call/ABCDE"))
}

func TestJoinIdempotent(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	a := connect(d, "A")
	d.Join(ctx, a, "/call/ABCDE", "alice")
	d.Join(ctx, a, "/call/ABCDE", "alice")

	assert.Equal(t, []string{"A"}, d.MembersOf("/call/ABCDE"))
}

func TestJoinMovesConnectionBetweenRooms(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	a := connect(d, "A")
	b := connect(d, "B")
	d.Join(ctx, a, "/call/ABCDE", "alice")
	d.Join(ctx, b, "/call/ABCDE", "bob")
	b.reset()

	d.Join(ctx, a, "/call/FGHIJ", "alice")

	// Old room was told A left and no longer lists it.
	assert.Equal(t, []emitted{{EventUserLeft, UserLeft{ID: "A"}}}, b.got())
	assert.Equal(t, []string{"B"}, d.MembersOf("/call/ABCDE"))
	assert.Equal(t, []string{"A"}, d.MembersOf("/call/FGHIJ"))

	path, ok := d.RoomOf("A")
	require.True(t, ok)
	assert.Equal(t, "/call/FGHIJ", path)
}

func TestChatBroadcastsToRoomIncludingSender(t *testing.T) {
	d, st := newTestDispatcher(t)
	ctx := context.Background()

	a := connect(d, "A")
	b := connect(d, "B")
	c := connect(d, "C")
	d.Join(ctx, a, "/call/ABCDE", "alice")
	d.Join(ctx, b, "/call/ABCDE", "bob")
	d.Join(ctx, c, "/call/ZZZZZ", "carol")
	a.reset()
	b.reset()
	c.reset()

	d.Chat(ctx, a, "hi", "alice")

	want := emitted{EventChatMessage, ChatMessage{Data: "hi", Sender: "alice", SocketID: "A"}}
	assert.Equal(t, []emitted{want}, a.got())
	assert.Equal(t, []emitted{want}, b.got())
	assert.Empty(t, c.got(), "no cross-room delivery")
	assert.Equal(t, [][3]string{{"ABCDE", "hi", "alice"}}, st.messages)
}

func TestChatBeforeJoinIsDropped(t *testing.T) {
	d, st := newTestDispatcher(t)

	a := connect(d, "A")
	d.Chat(context.Background(), a, "hello?", "alice")

	assert.Empty(t, a.got())
	assert.Empty(t, st.messages)
}

func TestChatSanitizesContentAndSender(t *testing.T) {
	d, st := newTestDispatcher(t)
	ctx := context.Background()

	a := connect(d, "A")
	d.Join(ctx, a, "/call/ABCDE", "alice")
	a.reset()

	d.Chat(ctx, a, `<script>alert(1)</script>hey`, `<b>alice</b>`)

	require.Len(t, a.got(), 1)
	assert.Equal(t, emitted{EventChatMessage, ChatMessage{Data: "hey", Sender: "alice", SocketID: "A"}}, a.got()[0])
	assert.Equal(t, [][3]string{{"ABCDE", "hey", "alice"}}, st.messages)
}

func TestLateJoinerReceivesReplayInOrder(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	a := connect(d, "A")
	d.Join(ctx, a, "/call/ABCDE", "alice")
	d.Chat(ctx, a, "first", "alice")
	d.Chat(ctx, a, "second", "alice")
	d.Chat(ctx, a, "third", "alice")

	b := connect(d, "B")
	d.Join(ctx, b, "/call/ABCDE", "bob")
	d.Chat(ctx, a, "live", "alice")

	got := b.got()
	require.Len(t, got, 5)
	assert.Equal(t, EventUserJoined, got[0].event)
	for i, data := range []string{"first", "second", "third"} {
		assert.Equal(t, emitted{EventChatMessage, ChatMessage{Data: data, Sender: "alice", SocketID: "A"}}, got[i+1])
	}
	assert.Equal(t, emitted{EventChatMessage, ChatMessage{Data: "live", Sender: "alice", SocketID: "A"}}, got[4])
}

func TestDisconnectIsTotal(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	a := connect(d, "A")
	b := connect(d, "B")
	d.Join(ctx, a, "/call/ABCDE", "alice")
	d.Join(ctx, b, "/call/ABCDE", "bob")
	b.reset()

	d.Disconnect(a)

	_, ok := d.RoomOf("A")
	assert.False(t, ok)
	assert.Equal(t, []string{"B"}, d.MembersOf("/call/ABCDE"))
	assert.Equal(t, []emitted{{EventUserLeft, UserLeft{ID: "A"}}}, b.got())

	rooms, conns := d.Stats()
	assert.Equal(t, 1, rooms)
	assert.Equal(t, 1, conns)
}

func TestDisconnectBeforeJoinIsNoOp(t *testing.T) {
	d, _ := newTestDispatcher(t)

	a := connect(d, "A")
	d.Disconnect(a)

	rooms, conns := d.Stats()
	assert.Zero(t, rooms)
	assert.Zero(t, conns)
}

func TestEmptyRoomIsDeleted(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	a := connect(d, "A")
	d.Join(ctx, a, "/call/ABCDE", "alice")
	d.Disconnect(a)

	rooms, _ := d.Stats()
	assert.Zero(t, rooms)
	assert.Empty(t, d.MembersOf("/call/ABCDE"))
}

func TestPersistenceGating(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		persisted bool
	}{
		{"five char id persists", "/call/ABCDE", true},
		{"short id relays only", "/call/AB", false},
		{"long id relays only", "/call/ABCDEF", false},
		{"bare five char id persists", "ABCDE", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, st := newTestDispatcher(t)
			ctx := context.Background()

			a := connect(d, "A")
			d.Join(ctx, a, tt.path, "alice")
			d.Chat(ctx, a, "hi", "alice")

			// Live relay always works.
			assert.NotEmpty(t, a.got())
			assert.Equal(t, []string{"A"}, d.MembersOf(tt.path))

			if tt.persisted {
				assert.Equal(t, [][2]string{{"alice", "ABCDE"}}, st.userGroups)
				assert.Equal(t, [][2]string{{"ABCDE", "alice"}}, st.groupMembers)
				assert.Len(t, st.messages, 1)
			} else {
				assert.Empty(t, st.userGroups)
				assert.Empty(t, st.groupMembers)
				assert.Empty(t, st.messages)
			}
		})
	}
}

func TestStoreFailureDoesNotAffectRelay(t *testing.T) {
	d, st := newTestDispatcher(t)
	st.err = errors.New("store down")
	ctx := context.Background()

	a := connect(d, "A")
	b := connect(d, "B")
	d.Join(ctx, a, "/call/ABCDE", "alice")
	d.Join(ctx, b, "/call/ABCDE", "bob")
	b.reset()

	d.Chat(ctx, a, "hi", "alice")

	assert.Equal(t, []emitted{{EventChatMessage, ChatMessage{Data: "hi", Sender: "alice", SocketID: "A"}}}, b.got())
}

func TestSignalDeliversToTargetOnly(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	a := connect(d, "A")
	b := connect(d, "B")
	c := connect(d, "C")
	// Signaling is room-agnostic: A and B never join anything.
	d.Join(ctx, c, "/call/ABCDE", "carol")
	c.reset()

	d.Signal(a, "B", []byte(`{"sdp":"offer"}`))

	require.Len(t, b.got(), 1)
	assert.Equal(t, emitted{EventSignal, Signal{From: "A", Message: []byte(`{"sdp":"offer"}`)}}, b.got()[0])
	assert.Empty(t, a.got())
	assert.Empty(t, c.got())
}

func TestSignalToMissingTargetIsSilent(t *testing.T) {
	d, _ := newTestDispatcher(t)

	a := connect(d, "A")
	d.Signal(a, "ghost", []byte(`{}`))

	assert.Empty(t, a.got())
}

// Full lifecycle: two joiners, a chat, a late joiner replay, a disconnect.
func TestCallLifecycle(t *testing.T) {
	d, st := newTestDispatcher(t)
	ctx := context.Background()

	a := connect(d, "A")
	d.Join(ctx, a, "/call/ABCDE", "alice")
	b := connect(d, "B")
	d.Join(ctx, b, "/call/ABCDE", "bob")

	joinedB := emitted{EventUserJoined, UserJoined{ID: "B", Members: []string{"A", "B"}}}
	assert.Contains(t, a.got(), joinedB)
	assert.Contains(t, b.got(), joinedB)

	a.reset()
	b.reset()
	d.Chat(ctx, a, "hi", "alice")

	hi := emitted{EventChatMessage, ChatMessage{Data: "hi", Sender: "alice", SocketID: "A"}}
	assert.Equal(t, []emitted{hi}, a.got())
	assert.Equal(t, []emitted{hi}, b.got())

	c := connect(d, "C")
	d.Join(ctx, c, "/call/ABCDE", "carol")
	require.Len(t, c.got(), 2)
	assert.Equal(t, EventUserJoined, c.got()[0].event)
	assert.Equal(t, hi, c.got()[1])

	b.reset()
	c.reset()
	d.Disconnect(a)

	left := emitted{EventUserLeft, UserLeft{ID: "A"}}
	assert.Equal(t, []emitted{left}, b.got())
	assert.Equal(t, []emitted{left}, c.got())
	assert.Equal(t, []string{"B", "C"}, d.MembersOf("/call/ABCDE"))

	assert.Equal(t, [][2]string{{"alice", "ABCDE"}, {"bob", "ABCDE"}, {"carol", "ABCDE"}}, st.userGroups)
}

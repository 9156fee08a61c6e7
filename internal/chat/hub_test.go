package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu    sync.Mutex
	saved []*Message
	err   error
}

func (s *fakeStore) SaveMessage(_ context.Context, roomID string, senderID int, senderName, content string) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	msg := &Message{
		ID:         len(s.saved) + 1,
		RoomID:     roomID,
		SenderID:   senderID,
		SenderName: senderName,
		Content:    content,
		CreatedAt:  time.Now(),
	}
	s.saved = append(s.saved, msg)
	return msg, nil
}

func (s *fakeStore) ListByRoom(_ context.Context, roomID string) ([]*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Message
	for _, m := range s.saved {
		if m.RoomID == roomID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeDirectory struct {
	names map[int]string
}

func (d *fakeDirectory) DisplayName(_ context.Context, id int) (string, error) {
	name, ok := d.names[id]
	if !ok {
		return "", errors.New("user not found")
	}
	return name, nil
}

// loopbackPublisher short-circuits Redis by feeding published payloads
// straight back into the hub's broadcast loop.
type loopbackPublisher struct {
	hub *Hub
}

func (p *loopbackPublisher) Publish(_ context.Context, roomID string, payload []byte) error {
	p.hub.broadcast <- envelope{roomID: roomID, payload: payload}
	return nil
}

func newTestHub(store *fakeStore, dir *fakeDirectory) *Hub {
	pub := &loopbackPublisher{}
	h := NewHub(NewRegistry(), store, dir, pub)
	pub.hub = h
	go h.Run()
	return h
}

func newTestClient(h *Hub) *Client {
	return &Client{
		id:   uuid.New(),
		hub:  h,
		send: make(chan []byte, 16),
	}
}

func recvEvent(t *testing.T, c *Client) map[string]any {
	t.Helper()

	select {
	case payload, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var m map[string]any
		require.NoError(t, json.Unmarshal(payload, &m))
		return m
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()

	select {
	case payload := <-c.send:
		t.Fatalf("unexpected event: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubPresenceOnJoin(t *testing.T) {
	h := newTestHub(&fakeStore{}, &fakeDirectory{})

	c1 := newTestClient(h)
	c2 := newTestClient(h)
	h.RegisterClient(c1)
	h.RegisterClient(c2)

	h.JoinRoom(c1, "travel-group")
	ev := recvEvent(t, c1)
	assert.Equal(t, eventPresence, ev["type"])
	assert.Equal(t, float64(1), ev["count"])

	h.JoinRoom(c2, "travel-group")
	for _, c := range []*Client{c1, c2} {
		ev := recvEvent(t, c)
		assert.Equal(t, eventPresence, ev["type"])
		assert.Equal(t, float64(2), ev["count"])
	}
}

func TestHubPresenceOnDisconnect(t *testing.T) {
	h := newTestHub(&fakeStore{}, &fakeDirectory{})

	c1 := newTestClient(h)
	c2 := newTestClient(h)
	h.RegisterClient(c1)
	h.RegisterClient(c2)
	h.JoinRoom(c1, "travel-group")
	recvEvent(t, c1)
	h.JoinRoom(c2, "travel-group")
	recvEvent(t, c1)
	recvEvent(t, c2)

	h.UnregisterClient(c1)

	ev := recvEvent(t, c2)
	assert.Equal(t, eventPresence, ev["type"])
	assert.Equal(t, float64(1), ev["count"])
}

func TestHubDisconnectLastMemberRemovesRoom(t *testing.T) {
	h := newTestHub(&fakeStore{}, &fakeDirectory{})

	c1 := newTestClient(h)
	h.RegisterClient(c1)
	h.JoinRoom(c1, "travel-group")
	recvEvent(t, c1)

	h.UnregisterClient(c1)

	// The unregister closes the send channel once processed.
	select {
	case _, ok := <-c1.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}

	assert.Empty(t, h.registry.MembersOf("travel-group"))
}

func TestHubJoinSwitchUpdatesOldRoomPresence(t *testing.T) {
	h := newTestHub(&fakeStore{}, &fakeDirectory{})

	c1 := newTestClient(h)
	c2 := newTestClient(h)
	h.RegisterClient(c1)
	h.RegisterClient(c2)
	h.JoinRoom(c1, "room-a")
	recvEvent(t, c1)
	h.JoinRoom(c2, "room-a")
	recvEvent(t, c1)
	recvEvent(t, c2)

	h.JoinRoom(c1, "room-b")

	// c2 sees room-a shrink, c1 sees room-b's count.
	ev := recvEvent(t, c2)
	assert.Equal(t, eventPresence, ev["type"])
	assert.Equal(t, float64(1), ev["count"])

	ev = recvEvent(t, c1)
	assert.Equal(t, eventPresence, ev["type"])
	assert.Equal(t, float64(1), ev["count"])

	assert.Equal(t, []uuid.UUID{c2.id}, h.registry.MembersOf("room-a"))
}

func TestHubSendMessageFanOut(t *testing.T) {
	store := &fakeStore{}
	h := newTestHub(store, &fakeDirectory{names: map[int]string{7: "Asha"}})

	c1 := newTestClient(h)
	c2 := newTestClient(h)
	h.RegisterClient(c1)
	h.RegisterClient(c2)
	h.JoinRoom(c1, "travel-group")
	recvEvent(t, c1)
	h.JoinRoom(c2, "travel-group")
	recvEvent(t, c1)
	recvEvent(t, c2)

	msg, err := h.SendMessage(context.Background(), "travel-group", 7, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Asha", msg.SenderName)
	assert.Equal(t, "hello", msg.Content)

	// Everyone in the room receives the message, sender included.
	for _, c := range []*Client{c1, c2} {
		ev := recvEvent(t, c)
		assert.Equal(t, eventMessage, ev["type"])
		assert.Equal(t, float64(7), ev["senderId"])
		assert.Equal(t, "Asha", ev["senderName"])
		assert.Equal(t, "hello", ev["text"])
	}

	saved, err := store.ListByRoom(context.Background(), "travel-group")
	require.NoError(t, err)
	require.Len(t, saved, 1)
}

func TestHubSendMessageUnknownSenderFallback(t *testing.T) {
	store := &fakeStore{}
	h := newTestHub(store, &fakeDirectory{})

	c1 := newTestClient(h)
	h.RegisterClient(c1)
	h.JoinRoom(c1, "travel-group")
	recvEvent(t, c1)

	msg, err := h.SendMessage(context.Background(), "travel-group", 99, "hi there")
	require.NoError(t, err)
	assert.Equal(t, "Unknown User", msg.SenderName)

	ev := recvEvent(t, c1)
	assert.Equal(t, "Unknown User", ev["senderName"])
}

func TestHubSendMessagePersistenceFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("store down")}
	h := newTestHub(store, &fakeDirectory{names: map[int]string{7: "Asha"}})

	c1 := newTestClient(h)
	h.RegisterClient(c1)
	h.JoinRoom(c1, "travel-group")
	recvEvent(t, c1)

	_, err := h.SendMessage(context.Background(), "travel-group", 7, "hello")
	require.Error(t, err)

	// No broadcast when persistence fails.
	assertNoEvent(t, c1)
}

func TestHubSendMessageValidation(t *testing.T) {
	h := newTestHub(&fakeStore{}, &fakeDirectory{})

	_, err := h.SendMessage(context.Background(), "", 7, "hello")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = h.SendMessage(context.Background(), "travel-group", 7, "")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestHubNotifyError(t *testing.T) {
	h := newTestHub(&fakeStore{}, &fakeDirectory{})

	c1 := newTestClient(h)
	h.RegisterClient(c1)

	h.NotifyError(c1.id, "message could not be delivered")

	ev := recvEvent(t, c1)
	assert.Equal(t, eventError, ev["type"])
	assert.Equal(t, "message could not be delivered", ev["message"])
}

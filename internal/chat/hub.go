package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"travelxguide/internal/metric"
)

const (
	// Display name used when the sender cannot be resolved. The send
	// still goes through.
	fallbackSenderName = "Unknown User"

	// Budget for the directory lookup plus the persistence write of one
	// send.
	sendTimeout = 5 * time.Second

	roomChannelPrefix = "chat:room:"
)

var ErrEmptyMessage = errors.New("room id and text are required")

// Store is the message persistence the relay writes through.
type Store interface {
	SaveMessage(ctx context.Context, roomID string, senderID int, senderName, content string) (*Message, error)
	ListByRoom(ctx context.Context, roomID string) ([]*Message, error)
}

// Directory resolves a sender id to a display name.
type Directory interface {
	DisplayName(ctx context.Context, id int) (string, error)
}

// Publisher fans a room payload out across instances. The hub's own
// subscriber feeds delivered payloads back into the broadcast loop.
type Publisher interface {
	Publish(ctx context.Context, roomID string, payload []byte) error
}

type joinRequest struct {
	client *Client
	roomID string
}

type envelope struct {
	roomID  string
	payload []byte
}

type directEnvelope struct {
	clientID uuid.UUID
	payload  []byte
}

// Hub is the central router. A single goroutine (Run) owns the client set
// and all membership changes, so presence counts always reflect a
// consistent snapshot.
type Hub struct {
	registry *Registry
	clients  map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
	joins      chan joinRequest
	broadcast  chan envelope
	direct     chan directEnvelope

	store     Store
	directory Directory
	publisher Publisher
}

func NewHub(registry *Registry, store Store, directory Directory, publisher Publisher) *Hub {
	return &Hub{
		registry:   registry,
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		joins:      make(chan joinRequest),
		broadcast:  make(chan envelope),
		direct:     make(chan directEnvelope),
		store:      store,
		directory:  directory,
		publisher:  publisher,
	}
}

func (h *Hub) RegisterClient(c *Client)   { h.register <- c }
func (h *Hub) UnregisterClient(c *Client) { h.unregister <- c }

func (h *Hub) JoinRoom(c *Client, roomID string) {
	h.joins <- joinRequest{client: c, roomID: roomID}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client.id] = client
			metric.IncWSConnections()

		case client := <-h.unregister:
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
				metric.DecWSConnections()

				if room := h.registry.Leave(client.id); room != "" {
					h.broadcastPresence(room)
				}
			}

		case req := <-h.joins:
			if _, ok := h.clients[req.client.id]; !ok {
				// Disconnected before the join was processed.
				continue
			}
			if prev := h.registry.Join(req.client.id, req.roomID); prev != "" {
				h.broadcastPresence(prev)
			}
			h.broadcastPresence(req.roomID)

		case env := <-h.broadcast:
			h.deliver(env.roomID, env.payload)

		case d := <-h.direct:
			if client, ok := h.clients[d.clientID]; ok {
				select {
				case client.send <- d.payload:
				default:
				}
			}
		}
	}
}

// SendMessage resolves the sender, persists the message, then publishes it
// to the room channel. It is called from connection read loops, so slow
// I/O here never stalls other connections. A persistence failure means no
// broadcast and is returned to the caller.
func (h *Hub) SendMessage(ctx context.Context, roomID string, senderID int, text string) (*Message, error) {
	if roomID == "" || text == "" {
		return nil, ErrEmptyMessage
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	senderName, err := h.directory.DisplayName(ctx, senderID)
	if err != nil || senderName == "" {
		if err != nil {
			slog.Warn("resolve sender name", slog.Any("error", err), slog.Int("sender_id", senderID))
		}
		senderName = fallbackSenderName
	}

	msg, err := h.store.SaveMessage(ctx, roomID, senderID, senderName, text)
	if err != nil {
		slog.Error("persist chat message", slog.Any("error", err), slog.String("room_id", roomID))
		return nil, err
	}

	payload, err := json.Marshal(messageEvent{
		Type:       eventMessage,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Text:       msg.Content,
		CreatedAt:  msg.CreatedAt,
	})
	if err != nil {
		return nil, err
	}

	if err := h.publisher.Publish(ctx, roomID, payload); err != nil {
		slog.Error("publish chat message", slog.Any("error", err), slog.String("room_id", roomID))
	}

	metric.IncChatMessages()
	return msg, nil
}

// NotifyError sends an error frame to a single connection, best effort.
func (h *Hub) NotifyError(clientID uuid.UUID, message string) {
	payload, err := json.Marshal(errorEvent{Type: eventError, Message: message})
	if err != nil {
		return
	}
	h.direct <- directEnvelope{clientID: clientID, payload: payload}
}

// broadcastPresence emits the current member count to everyone in the
// room. An empty room means nobody is addressed.
func (h *Hub) broadcastPresence(roomID string) {
	count := h.registry.Count(roomID)
	if count == 0 {
		return
	}

	payload, err := json.Marshal(presenceEvent{Type: eventPresence, Count: count})
	if err != nil {
		return
	}
	h.deliver(roomID, payload)
}

// deliver writes a payload to every member of the room. Clients whose
// send buffer is full are dropped, which counts as a leave.
func (h *Hub) deliver(roomID string, payload []byte) {
	for _, id := range h.registry.MembersOf(roomID) {
		client, ok := h.clients[id]
		if !ok {
			continue
		}

		select {
		case client.send <- payload:
		default:
			delete(h.clients, id)
			close(client.send)
			metric.DecWSConnections()

			if room := h.registry.Leave(id); room != "" {
				h.broadcastPresence(room)
			}
		}
	}
}

// RedisPublisher fans messages out through Redis pub/sub, one channel per
// room, so every instance's hub sees every send.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, roomID string, payload []byte) error {
	return p.rdb.Publish(ctx, roomChannelPrefix+roomID, payload).Err()
}

// SubscribeToRedis pipes room payloads from Redis into the broadcast loop.
// It returns when the context is canceled.
func (h *Hub) SubscribeToRedis(ctx context.Context, rdb *redis.Client) {
	pubsub := rdb.PSubscribe(ctx, roomChannelPrefix+"*")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.broadcast <- envelope{
			roomID:  strings.TrimPrefix(msg.Channel, roomChannelPrefix),
			payload: []byte(msg.Payload),
		}
	}
}

package chat

import "time"

// Message is a persisted chat message, keyed by room.
type Message struct {
	ID         int       `json:"id"`
	RoomID     string    `json:"room_id"`
	SenderID   int       `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// Event types on the websocket, both directions.
const (
	frameJoin = "join"
	frameSend = "send"

	eventPresence = "presenceCount"
	eventMessage  = "messageReceived"
	eventError    = "error"
)

// inboundFrame is what the frontend sends us. The sender identity comes
// from the authenticated connection, never from the frame.
type inboundFrame struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

type presenceEvent struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type messageEvent struct {
	Type       string    `json:"type"`
	SenderID   int       `json:"senderId"`
	SenderName string    `json:"senderName"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
}

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

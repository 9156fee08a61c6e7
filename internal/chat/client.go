package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod     = (pongWait * 9) / 10 // Send pings to peer with this period. Must be less than pongWait.
	maxMessageSize = 4096                // Maximum frame size allowed from peer.
)

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	id   uuid.UUID
	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound payloads. Closed by the hub on
	// unregister.
	send chan []byte

	userID int
	name   string
}

func newClient(hub *Hub, conn *websocket.Conn, userID int, name string) *Client {
	return &Client{
		id:     uuid.New(),
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
		name:   name,
	}
}

// readPump pumps frames from the websocket connection into the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read", slog.Any("error", err), slog.Int("user_id", c.userID))
			}
			break
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.hub.NotifyError(c.id, "malformed frame")
			continue
		}

		switch frame.Type {
		case frameJoin:
			if frame.RoomID == "" {
				c.hub.NotifyError(c.id, "roomId is required")
				continue
			}
			c.hub.JoinRoom(c, frame.RoomID)

		case frameSend:
			if _, err := c.hub.SendMessage(context.Background(), frame.RoomID, c.userID, frame.Text); err != nil {
				c.hub.NotifyError(c.id, "message could not be delivered")
			}

		default:
			c.hub.NotifyError(c.id, "unknown frame type")
		}
	}
}

// writePump pumps payloads from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(payload)

			// Flush queued payloads in the same writer to cut syscalls.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package chat

import (
	"context"
	"database/sql"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SaveMessage appends a message and returns it with the server-assigned
// id and timestamp, so the broadcast carries exactly what was persisted.
func (r *Repository) SaveMessage(ctx context.Context, roomID string, senderID int, senderName, content string) (*Message, error) {
	msg := &Message{
		RoomID:     roomID,
		SenderID:   senderID,
		SenderName: senderName,
		Content:    content,
	}

	query := `INSERT INTO messages (room_id, sender_id, sender_name, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, roomID, senderID, senderName, content).
		Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, err
	}

	return msg, nil
}

// ListByRoom returns a room's history in creation order, used to hydrate
// clients outside the broadcast path.
func (r *Repository) ListByRoom(ctx context.Context, roomID string) ([]*Message, error) {
	query := `SELECT id, room_id, sender_id, sender_name, content, created_at
		FROM messages
		WHERE room_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		msg := &Message{}
		if err := rows.Scan(&msg.ID, &msg.RoomID, &msg.SenderID, &msg.SenderName, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

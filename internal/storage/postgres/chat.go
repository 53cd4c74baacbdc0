package postgres

import (
	"context"

	"github.com/hongminglow/servicedesk-be/internal/models"
)

// CreateMessage stores a chat message and returns it with the sender's username.
func (s *Store) CreateMessage(ctx context.Context, m models.ChatMessage) (models.ChatMessage, error) {
	row := s.db.QueryRowContext(ctx, `
		WITH inserted AS (
			INSERT INTO chat_messages (sender_id, body) VALUES ($1, $2)
			RETURNING id, sender_id, body, created_at
		)
		SELECT i.id, i.sender_id, u.username, i.body, i.created_at
		FROM inserted i JOIN users u ON u.id = i.sender_id`,
		m.SenderID, m.Body)
	var out models.ChatMessage
	if err := row.Scan(&out.ID, &out.SenderID, &out.Sender, &out.Body, &out.CreatedAt); err != nil {
		return models.ChatMessage{}, mapError(err)
	}
	return out, nil
}

// ListMessages returns the most recent messages first.
func (s *Store) ListMessages(ctx context.Context, page models.Page) ([]models.ChatMessage, error) {
	var w where
	query := `
		SELECT m.id, m.sender_id, u.username, m.body, m.created_at
		FROM chat_messages m JOIN users u ON u.id = m.sender_id
		ORDER BY m.created_at DESC, m.id DESC` + w.page(page)
	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.SenderID, &m.Sender, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteMessage removes a chat message.
func (s *Store) DeleteMessage(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "chat_messages", id)
}

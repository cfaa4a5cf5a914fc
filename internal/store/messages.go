package store

import (
	"context"
	"fmt"

	"github.com/easyquant/quantchat/internal/chat"
	"github.com/google/uuid"
)

// InsertMessage appends one message to the log. The database assigns
// created_at at insert time, which keeps the log's ordering causal as long as
// callers serialize their writes. The stored row is returned so callers see
// the authoritative timestamp.
func (s *Store) InsertMessage(ctx context.Context, role chat.Role, content string) (chat.Message, error) {
	if !role.Valid() {
		return chat.Message{}, fmt.Errorf("insert message: invalid role %q", role)
	}

	msg := chat.Message{
		ID:      uuid.New(),
		Role:    role,
		Content: content,
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO messages (id, role, content, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING created_at`,
		msg.ID, msg.Role, msg.Content,
	).Scan(&msg.CreatedAt)
	if err != nil {
		return chat.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

// SelectMessages reads the full log ordered by created_at ascending. Ties on
// created_at are broken by id so repeated reads return a stable order.
func (s *Store) SelectMessages(ctx context.Context) ([]chat.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, role, content, created_at
		FROM messages
		ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}
	return msgs, nil
}

// DeleteAllMessages clears the conversation log.
func (s *Store) DeleteAllMessages(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}

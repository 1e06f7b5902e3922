package chat

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Append inserts one message.
func (r *PGRepo) Append(ctx context.Context, userID, documentID string, msg Message) error {
	const query = `
INSERT INTO chat_messages (id, user_id, document_id, role, content, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.DB.ExecContext(ctx, query, msg.ID, userID, documentID, msg.Role, msg.Content, msg.Timestamp)
	return err
}

// List returns the newest limit messages in chronological order.
func (r *PGRepo) List(ctx context.Context, userID, documentID string, limit int) ([]Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	const query = `
SELECT id, role, content, created_at FROM (
    SELECT id, role, content, created_at
    FROM chat_messages
    WHERE user_id = $1 AND document_id = $2
    ORDER BY created_at DESC
    LIMIT $3
) recent
ORDER BY created_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, userID, documentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// Clear deletes a transcript.
func (r *PGRepo) Clear(ctx context.Context, userID, documentID string) error {
	const query = `DELETE FROM chat_messages WHERE user_id = $1 AND document_id = $2`
	_, err := r.DB.ExecContext(ctx, query, userID, documentID)
	return err
}

var _ Repo = (*PGRepo)(nil)

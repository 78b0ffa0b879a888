package transcripts

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Insert persists a chat message.
func (r *PGRepo) Insert(ctx context.Context, msg Message) error {
	const query = `
INSERT INTO chat_messages (
    id,
    user_id,
    mapping_id,
    message_text,
    sender,
    sent_at,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		msg.ID,
		msg.UserID,
		msg.MappingID,
		msg.Text,
		string(msg.Sender),
		msg.SentAt,
		msg.CreatedAt,
	)
	return err
}

// ListByMapping returns a mapping's messages in ascending sent order.
func (r *PGRepo) ListByMapping(ctx context.Context, userId, mappingID string) ([]Message, error) {
	const query = `
SELECT id, user_id, mapping_id, message_text, sender, sent_at, created_at
FROM chat_messages
WHERE user_id = $1 AND mapping_id = $2
ORDER BY sent_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, userId, mappingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// ListByMappings returns messages for several mappings, grouped by mapping ID.
func (r *PGRepo) ListByMappings(ctx context.Context, userId string, mappingIDs []string) (map[string][]Message, error) {
	out := make(map[string][]Message)
	if len(mappingIDs) == 0 {
		return out, nil
	}

	const query = `
SELECT id, user_id, mapping_id, message_text, sender, sent_at, created_at
FROM chat_messages
WHERE user_id = $1 AND mapping_id = ANY($2)
ORDER BY sent_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, userId, mappingIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out[msg.MappingID] = append(out[msg.MappingID], msg)
	}
	return out, rows.Err()
}

// DeleteByMapping removes all messages for a mapping.
func (r *PGRepo) DeleteByMapping(ctx context.Context, userId, mappingID string) error {
	const query = `DELETE FROM chat_messages WHERE user_id = $1 AND mapping_id = $2`
	_, err := r.DB.ExecContext(ctx, query, userId, mappingID)
	return err
}

// LastMessageTime returns the newest sent_at for a mapping, nil when empty.
func (r *PGRepo) LastMessageTime(ctx context.Context, userId, mappingID string) (*time.Time, error) {
	const query = `
SELECT sent_at
FROM chat_messages
WHERE user_id = $1 AND mapping_id = $2
ORDER BY sent_at DESC
LIMIT 1`

	var sentAt time.Time
	err := r.DB.QueryRowContext(ctx, query, userId, mappingID).Scan(&sentAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sentAt, nil
}

// HasHistory reports whether any messages exist for a mapping. Count-only so
// no row payloads cross the wire.
func (r *PGRepo) HasHistory(ctx context.Context, userId, mappingID string) (bool, error) {
	const query = `SELECT COUNT(1) FROM chat_messages WHERE user_id = $1 AND mapping_id = $2`

	var count int64
	if err := r.DB.QueryRowContext(ctx, query, userId, mappingID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanMessage(rows *sql.Rows) (Message, error) {
	var msg Message
	var sender string
	if err := rows.Scan(
		&msg.ID,
		&msg.UserID,
		&msg.MappingID,
		&msg.Text,
		&sender,
		&msg.SentAt,
		&msg.CreatedAt,
	); err != nil {
		return Message{}, err
	}
	msg.Sender = Sender(sender)
	return msg, nil
}

var _ Repo = (*PGRepo)(nil)

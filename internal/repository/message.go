package repository

import (
	"context"

	"campus-hub-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageRepository handles database operations for direct messages
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create creates a new message
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (id, sender_id, receiver_id, content, media_url, read, client_tag, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		msg.ID, msg.SenderID, msg.ReceiverID, msg.Content, msg.MediaURL, msg.Read, msg.ClientTag, msg.CreatedAt,
	)
	if err != nil {
		return dbErr("failed to create message", err)
	}
	return nil
}

// LastBetween retrieves the most recent message between two users in either
// direction, or nil when the conversation is empty
func (r *MessageRepository) LastBetween(ctx context.Context, userID, peerID string) (*models.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, content, media_url, read, client_tag, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at DESC
		LIMIT 1
	`
	var msg models.Message
	err := r.db.QueryRow(ctx, query, userID, peerID).Scan(
		&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.MediaURL, &msg.Read, &msg.ClientTag, &msg.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, dbErr("failed to get last message", err)
	}
	return &msg, nil
}

// Transcript retrieves the full ordered conversation between two users,
// ascending by timestamp, with sender profiles joined for display
func (r *MessageRepository) Transcript(ctx context.Context, userID, peerID string) ([]*models.Message, error) {
	query := `
		SELECT m.id, m.sender_id, m.receiver_id, m.content, m.media_url, m.read, m.client_tag, m.created_at,
		       p.id, p.full_name, p.avatar_url
		FROM messages m
		JOIN profiles p ON p.id = m.sender_id
		WHERE (m.sender_id = $1 AND m.receiver_id = $2) OR (m.sender_id = $2 AND m.receiver_id = $1)
		ORDER BY m.created_at ASC
	`
	rows, err := r.db.Query(ctx, query, userID, peerID)
	if err != nil {
		return nil, dbErr("failed to get transcript", err)
	}
	defer rows.Close()

	var out []*models.Message
	for rows.Next() {
		var msg models.Message
		var sender models.Profile
		err := rows.Scan(
			&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.MediaURL, &msg.Read, &msg.ClientTag, &msg.CreatedAt,
			&sender.ID, &sender.FullName, &sender.AvatarURL,
		)
		if err != nil {
			return nil, dbErr("failed to scan message", err)
		}
		msg.Sender = &sender
		out = append(out, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, dbErr("error iterating transcript", err)
	}

	return out, nil
}

// MarkRead flips every unread message from the peer to the user to read and
// reports how many rows changed
func (r *MessageRepository) MarkRead(ctx context.Context, peerID, userID string) (int64, error) {
	query := `
		UPDATE messages
		SET read = true
		WHERE sender_id = $1 AND receiver_id = $2 AND read = false
	`
	result, err := r.db.Exec(ctx, query, peerID, userID)
	if err != nil {
		return 0, dbErr("failed to mark messages read", err)
	}
	return result.RowsAffected(), nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/skolard/skolard-api/internal/models"
)

// MessageRepository manages persistence for direct messages.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository constructs a MessageRepository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create stores a new message.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}

	const query = `INSERT INTO messages (id, sender_email, recipient_email, body, sent_at)
		VALUES (:id, :sender_email, :recipient_email, :body, :sent_at)`
	if _, err := r.db.NamedExecContext(ctx, query, msg); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// Conversation returns all messages exchanged between two users, oldest first.
func (r *MessageRepository) Conversation(ctx context.Context, a, b string) ([]*models.Message, error) {
	const query = `SELECT id, sender_email, recipient_email, body, sent_at FROM messages
		WHERE (LOWER(sender_email) = LOWER($1) AND LOWER(recipient_email) = LOWER($2))
		   OR (LOWER(sender_email) = LOWER($2) AND LOWER(recipient_email) = LOWER($1))
		ORDER BY sent_at, id`
	var msgs []*models.Message
	if err := r.db.SelectContext(ctx, &msgs, query, a, b); err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	return msgs, nil
}

// Inbox returns the messages addressed to a user, newest first.
func (r *MessageRepository) Inbox(ctx context.Context, email string) ([]*models.Message, error) {
	const query = `SELECT id, sender_email, recipient_email, body, sent_at FROM messages
		WHERE LOWER(recipient_email) = LOWER($1) ORDER BY sent_at DESC, id DESC`
	var msgs []*models.Message
	if err := r.db.SelectContext(ctx, &msgs, query, email); err != nil {
		return nil, fmt.Errorf("list inbox: %w", err)
	}
	return msgs, nil
}

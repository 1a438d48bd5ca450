// Package repository provides data access for conversation transcripts.
package repository

import (
	"context"
	"errors"
	"time"

	"funilzap_backend/internal/conversations/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("message not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByLead returns a lead's transcript oldest first.
func (r *Repository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]domain.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, content, sender, sender_name, sent_at
		FROM conversation_messages
		WHERE lead_id = $1
		ORDER BY sent_at ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.LeadID, &m.Content, &m.Sender, &m.SenderName, &m.SentAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Insert persists a message and returns it with the server-assigned id and
// timestamp.
func (r *Repository) Insert(ctx context.Context, leadID uuid.UUID, content, sender, senderName string) (domain.Message, error) {
	m := domain.Message{
		LeadID:     leadID,
		Content:    content,
		Sender:     sender,
		SenderName: senderName,
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO conversation_messages (lead_id, content, sender, sender_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, sent_at
	`, leadID, content, sender, senderName).Scan(&m.ID, &m.SentAt)
	if err != nil {
		return domain.Message{}, err
	}
	return m, nil
}

// ListSince returns messages sent after the given instant, oldest first.
// The message watcher uses it to detect new transcript entries.
func (r *Repository) ListSince(ctx context.Context, leadID uuid.UUID, since time.Time) ([]domain.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, content, sender, sender_name, sent_at
		FROM conversation_messages
		WHERE lead_id = $1 AND sent_at > $2
		ORDER BY sent_at ASC
	`, leadID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.LeadID, &m.Content, &m.Sender, &m.SenderName, &m.SentAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

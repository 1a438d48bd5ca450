// Package repository provides data access for the lead funnel collections.
// Joins between the three record sets happen client-side in the service
// layer, mirroring the record-oriented contract of the backing store.
package repository

import (
	"context"
	"errors"
	"time"

	"funilzap_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListFunnel returns all funnel records, newest conversation first.
func (r *Repository) ListFunnel(ctx context.Context) ([]domain.FunnelRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, phone, COALESCE(name, ''), stage_label, stage_updated_at,
		       assigned_to, time_active, COALESCE(symptoms, ''),
		       COALESCE(problem_duration, ''), COALESCE(prior_attempts, ''), created_at
		FROM funnel_leads
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.FunnelRecord, 0)
	for rows.Next() {
		var rec domain.FunnelRecord
		if err := rows.Scan(
			&rec.ID, &rec.Phone, &rec.Name, &rec.StageLabel, &rec.StageUpdatedAt,
			&rec.AssignedTo, &rec.TimeActive, &rec.Symptoms,
			&rec.ProblemDuration, &rec.PriorAttempts, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetFunnel returns a single funnel record by id.
func (r *Repository) GetFunnel(ctx context.Context, id uuid.UUID) (domain.FunnelRecord, error) {
	var rec domain.FunnelRecord
	err := r.pool.QueryRow(ctx, `
		SELECT id, phone, COALESCE(name, ''), stage_label, stage_updated_at,
		       assigned_to, time_active, COALESCE(symptoms, ''),
		       COALESCE(problem_duration, ''), COALESCE(prior_attempts, ''), created_at
		FROM funnel_leads
		WHERE id = $1
	`, id).Scan(
		&rec.ID, &rec.Phone, &rec.Name, &rec.StageLabel, &rec.StageUpdatedAt,
		&rec.AssignedTo, &rec.TimeActive, &rec.Symptoms,
		&rec.ProblemDuration, &rec.PriorAttempts, &rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.FunnelRecord{}, ErrNotFound
	}
	return rec, err
}

// ListRegistrationsByPhone returns all registration records keyed by phone.
func (r *Repository) ListRegistrationsByPhone(ctx context.Context) (map[string]domain.RegistrationRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, phone, COALESCE(name, ''), COALESCE(email, '')
		FROM lead_registrations
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make(map[string]domain.RegistrationRecord)
	for rows.Next() {
		var rec domain.RegistrationRecord
		if err := rows.Scan(&rec.ID, &rec.Phone, &rec.Name, &rec.Email); err != nil {
			return nil, err
		}
		records[rec.Phone] = rec
	}

	return records, rows.Err()
}

// ListLatestMessages returns the most recent message per lead.
func (r *Repository) ListLatestMessages(ctx context.Context) (map[uuid.UUID]domain.MessageRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (lead_id) lead_id, content, sent_at
		FROM conversation_messages
		ORDER BY lead_id, sent_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make(map[uuid.UUID]domain.MessageRecord)
	for rows.Next() {
		var leadID uuid.UUID
		var rec domain.MessageRecord
		if err := rows.Scan(&leadID, &rec.Content, &rec.SentAt); err != nil {
			return nil, err
		}
		records[leadID] = rec
	}

	return records, rows.Err()
}

// UpdateStage writes the external stage label and stage-change timestamp.
func (r *Repository) UpdateStage(ctx context.Context, id uuid.UUID, stageLabel string, changedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE funnel_leads
		SET stage_label = $2, stage_updated_at = $3, updated_at = now()
		WHERE id = $1
	`, id, stageLabel, changedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAssignment sets or clears the assigned salesperson.
func (r *Repository) UpdateAssignment(ctx context.Context, id uuid.UUID, assignedTo *uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE funnel_leads
		SET assigned_to = $2, updated_at = now()
		WHERE id = $1
	`, id, assignedTo)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTimeActive writes the remote "time active" automation flag. The flag
// is the semantic complement of "automation paused".
func (r *Repository) UpdateTimeActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE funnel_leads
		SET time_active = $2, updated_at = now()
		WHERE id = $1
	`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRegistrationByPhone returns the registration record for a phone number,
// or nil when the lead never completed registration.
func (r *Repository) GetRegistrationByPhone(ctx context.Context, phoneNumber string) (*domain.RegistrationRecord, error) {
	var rec domain.RegistrationRecord
	err := r.pool.QueryRow(ctx, `
		SELECT id, phone, COALESCE(name, ''), COALESCE(email, '')
		FROM lead_registrations
		WHERE phone = $1
	`, phoneNumber).Scan(&rec.ID, &rec.Phone, &rec.Name, &rec.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetLatestMessage returns the newest message of a conversation, or nil for
// a conversation with no messages yet.
func (r *Repository) GetLatestMessage(ctx context.Context, leadID uuid.UUID) (*domain.MessageRecord, error) {
	var rec domain.MessageRecord
	err := r.pool.QueryRow(ctx, `
		SELECT content, sent_at
		FROM conversation_messages
		WHERE lead_id = $1
		ORDER BY sent_at DESC
		LIMIT 1
	`, leadID).Scan(&rec.Content, &rec.SentAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

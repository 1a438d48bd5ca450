// Package repository persists the singleton integration settings row.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Settings is the single row of integration configuration. Empty fields
// fall back to environment values at call time.
type Settings struct {
	WhatsAppURL      string
	WhatsAppAPIKey   string
	WhatsAppDeviceID string
	RelayURL         string
	AIAPIKey         string
	FacebookAdsToken string
	PaymentAPIKey    string
	SheetsID         string
	UpdatedAt        time.Time
	UpdatedBy        *uuid.UUID
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get reads the singleton row. A missing row yields zero-value settings so
// a fresh database behaves as env-only configuration.
func (r *Repository) Get(ctx context.Context) (Settings, error) {
	var s Settings
	err := r.pool.QueryRow(ctx, `
		SELECT whatsapp_url, whatsapp_api_key, whatsapp_device_id, relay_url,
		       ai_api_key, facebook_ads_token, payment_api_key, sheets_id,
		       updated_at, updated_by
		FROM integration_settings
		WHERE id = 1`,
	).Scan(&s.WhatsAppURL, &s.WhatsAppAPIKey, &s.WhatsAppDeviceID, &s.RelayURL,
		&s.AIAPIKey, &s.FacebookAdsToken, &s.PaymentAPIKey, &s.SheetsID,
		&s.UpdatedAt, &s.UpdatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Upsert writes the singleton row in one statement.
func (r *Repository) Upsert(ctx context.Context, s Settings) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO integration_settings (id, whatsapp_url, whatsapp_api_key, whatsapp_device_id, relay_url,
			ai_api_key, facebook_ads_token, payment_api_key, sheets_id, updated_at, updated_by)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, now(), $9)
		ON CONFLICT (id) DO UPDATE SET
			whatsapp_url = EXCLUDED.whatsapp_url,
			whatsapp_api_key = EXCLUDED.whatsapp_api_key,
			whatsapp_device_id = EXCLUDED.whatsapp_device_id,
			relay_url = EXCLUDED.relay_url,
			ai_api_key = EXCLUDED.ai_api_key,
			facebook_ads_token = EXCLUDED.facebook_ads_token,
			payment_api_key = EXCLUDED.payment_api_key,
			sheets_id = EXCLUDED.sheets_id,
			updated_at = now(),
			updated_by = EXCLUDED.updated_by`,
		s.WhatsAppURL, s.WhatsAppAPIKey, s.WhatsAppDeviceID, s.RelayURL,
		s.AIAPIKey, s.FacebookAdsToken, s.PaymentAPIKey, s.SheetsID, s.UpdatedBy,
	)
	return err
}

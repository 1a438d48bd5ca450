package service

import (
	"context"
	"strings"

	"funilzap_backend/internal/config"
	"funilzap_backend/internal/settings/repository"
	"funilzap_backend/internal/whatsapp"
	"funilzap_backend/platform/apperr"

	"github.com/google/uuid"
)

const secretMask = "********"

// View is the redacted settings representation returned to the API.
// The gateway key is never echoed back, only whether one is set.
type View struct {
	WhatsAppURL      string `json:"whatsappUrl"`
	WhatsAppAPIKey   string `json:"whatsappApiKey"`
	WhatsAppDeviceID string `json:"whatsappDeviceId"`
	RelayURL         string `json:"relayUrl"`
	AIAPIKey         string `json:"aiApiKey"`
	FacebookAdsToken string `json:"facebookAdsToken"`
	PaymentAPIKey    string `json:"paymentApiKey"`
	SheetsID         string `json:"sheetsId"`
}

// Update carries an admin settings write. A nil field keeps the stored
// value; posting the mask keeps the stored key.
type Update struct {
	WhatsAppURL      *string
	WhatsAppAPIKey   *string
	WhatsAppDeviceID *string
	RelayURL         *string
	AIAPIKey         *string
	FacebookAdsToken *string
	PaymentAPIKey    *string
	SheetsID         *string
}

type Service struct {
	repo *repository.Repository
	cfg  *config.Config
}

func New(repo *repository.Repository, cfg *config.Config) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// Get returns the redacted settings, with env fallbacks applied so the
// admin screen shows the effective configuration.
func (s *Service) Get(ctx context.Context) (View, error) {
	stored, err := s.repo.Get(ctx)
	if err != nil {
		return View{}, apperr.Wrap(apperr.KindInternal, "could not load settings", err)
	}

	effective := s.effective(stored)
	view := View{
		WhatsAppURL:      effective.WhatsAppURL,
		WhatsAppDeviceID: effective.WhatsAppDeviceID,
		RelayURL:         effective.RelayURL,
		SheetsID:         effective.SheetsID,
	}
	if effective.WhatsAppAPIKey != "" {
		view.WhatsAppAPIKey = secretMask
	}
	if effective.AIAPIKey != "" {
		view.AIAPIKey = secretMask
	}
	if effective.FacebookAdsToken != "" {
		view.FacebookAdsToken = secretMask
	}
	if effective.PaymentAPIKey != "" {
		view.PaymentAPIKey = secretMask
	}
	return view, nil
}

// Save applies a partial update on top of the stored row.
func (s *Service) Save(ctx context.Context, update Update, updatedBy uuid.UUID) (View, error) {
	stored, err := s.repo.Get(ctx)
	if err != nil {
		return View{}, apperr.Wrap(apperr.KindInternal, "could not load settings", err)
	}

	if update.WhatsAppURL != nil {
		stored.WhatsAppURL = strings.TrimSpace(*update.WhatsAppURL)
	}
	if update.WhatsAppAPIKey != nil && *update.WhatsAppAPIKey != secretMask {
		stored.WhatsAppAPIKey = strings.TrimSpace(*update.WhatsAppAPIKey)
	}
	if update.WhatsAppDeviceID != nil {
		stored.WhatsAppDeviceID = strings.TrimSpace(*update.WhatsAppDeviceID)
	}
	if update.RelayURL != nil {
		stored.RelayURL = strings.TrimSpace(*update.RelayURL)
	}
	if update.AIAPIKey != nil && *update.AIAPIKey != secretMask {
		stored.AIAPIKey = strings.TrimSpace(*update.AIAPIKey)
	}
	if update.FacebookAdsToken != nil && *update.FacebookAdsToken != secretMask {
		stored.FacebookAdsToken = strings.TrimSpace(*update.FacebookAdsToken)
	}
	if update.PaymentAPIKey != nil && *update.PaymentAPIKey != secretMask {
		stored.PaymentAPIKey = strings.TrimSpace(*update.PaymentAPIKey)
	}
	if update.SheetsID != nil {
		stored.SheetsID = strings.TrimSpace(*update.SheetsID)
	}
	stored.UpdatedBy = &updatedBy

	if err := s.repo.Upsert(ctx, stored); err != nil {
		return View{}, apperr.Wrap(apperr.KindInternal, "could not save settings", err)
	}
	return s.Get(ctx)
}

// WhatsAppCredentials implements whatsapp.CredentialsProvider.
func (s *Service) WhatsAppCredentials(ctx context.Context) (whatsapp.Credentials, error) {
	stored, err := s.repo.Get(ctx)
	if err != nil {
		return whatsapp.Credentials{}, err
	}

	effective := s.effective(stored)
	return whatsapp.Credentials{
		BaseURL:  effective.WhatsAppURL,
		APIKey:   effective.WhatsAppAPIKey,
		DeviceID: effective.WhatsAppDeviceID,
	}, nil
}

// AIKey resolves the effective key for the reply assistant.
func (s *Service) AIKey(ctx context.Context) (string, error) {
	stored, err := s.repo.Get(ctx)
	if err != nil {
		return "", err
	}
	return s.effective(stored).AIAPIKey, nil
}

// RelayURL implements relay.URLProvider.
func (s *Service) RelayURL(ctx context.Context) (string, error) {
	stored, err := s.repo.Get(ctx)
	if err != nil {
		return "", err
	}
	return s.effective(stored).RelayURL, nil
}

// effective overlays stored values on the environment defaults. A stored
// empty field means "use the env value".
func (s *Service) effective(stored repository.Settings) repository.Settings {
	if stored.WhatsAppURL == "" {
		stored.WhatsAppURL = s.cfg.WhatsAppURL
	}
	if stored.WhatsAppAPIKey == "" {
		stored.WhatsAppAPIKey = s.cfg.WhatsAppKey
	}
	if stored.WhatsAppDeviceID == "" {
		stored.WhatsAppDeviceID = s.cfg.WhatsAppDeviceID
	}
	if stored.RelayURL == "" {
		stored.RelayURL = s.cfg.RelayURL
	}
	if stored.AIAPIKey == "" {
		stored.AIAPIKey = s.cfg.GenAIKey
	}
	return stored
}

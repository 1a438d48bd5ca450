// Package whatsapp talks to the self-hosted WhatsApp HTTP gateway.
// Delivery through the gateway is best effort: callers log failures and
// never surface them.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"funilzap_backend/platform/logger"
	"funilzap_backend/platform/phone"
)

// Credentials is the gateway connection info. The settings module provides
// it at call time so admin edits take effect without a restart.
type Credentials struct {
	BaseURL  string
	APIKey   string
	DeviceID string
}

// CredentialsProvider resolves the current gateway credentials.
type CredentialsProvider interface {
	WhatsAppCredentials(ctx context.Context) (Credentials, error)
}

type Client struct {
	creds CredentialsProvider
	http  *http.Client
	log   *logger.Logger
}

type gowaRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func NewClient(creds CredentialsProvider, log *logger.Logger) *Client {
	if creds == nil {
		return nil
	}

	return &Client{
		creds: creds,
		http:  &http.Client{Timeout: 10 * time.Second},
		log:   log,
	}
}

// SendMessage delivers a text message to the given phone through the
// gateway. A nil client and a gateway with no configured URL are both
// silent no-ops.
func (c *Client) SendMessage(ctx context.Context, phoneNumber string, message string) error {
	if c == nil {
		return nil
	}

	creds, err := c.creds.WhatsAppCredentials(ctx)
	if err != nil {
		return fmt.Errorf("resolve whatsapp credentials: %w", err)
	}
	if creds.BaseURL == "" {
		return nil
	}

	normalized := phone.Digits(phone.NormalizeE164(phoneNumber))

	payload := gowaRequest{
		Phone:   normalized,
		Message: message,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/send/message", strings.TrimRight(creds.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if creds.APIKey != "" {
		req.Header.Set("Authorization", formatAuthHeader(creds.APIKey))
	}
	if creds.DeviceID != "" {
		req.Header.Set("X-Device-Id", creds.DeviceID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Info("whatsapp sent via gateway", "phone", normalized)
	return nil
}

func formatAuthHeader(apiKey string) string {
	if strings.HasPrefix(strings.ToLower(apiKey), "basic ") {
		return apiKey
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(apiKey))
	return "Basic " + encoded
}

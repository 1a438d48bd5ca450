// Package relay notifies the n8n automation relay about staff activity.
// The relay call is a fire-and-forget side channel: failures are logged
// by the caller and never block message dispatch.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"funilzap_backend/platform/logger"
)

// URLProvider resolves the current relay endpoint. An empty URL disables
// the relay.
type URLProvider interface {
	RelayURL(ctx context.Context) (string, error)
}

type Client struct {
	urls URLProvider
	http *http.Client
	log  *logger.Logger
}

// Notification is the payload posted to the relay for each staff message.
type Notification struct {
	LeadID   string         `json:"leadId"`
	Message  string         `json:"message"`
	SentBy   string         `json:"sentBy"`
	SentAt   time.Time      `json:"sentAt"`
	LeadData map[string]any `json:"leadData,omitempty"`
}

func NewClient(urls URLProvider, log *logger.Logger) *Client {
	if urls == nil {
		return nil
	}

	return &Client{
		urls: urls,
		http: &http.Client{Timeout: 10 * time.Second},
		log:  log,
	}
}

// Notify posts the notification to the relay. A nil client and an empty
// relay URL are both silent no-ops.
func (c *Client) Notify(ctx context.Context, n Notification) error {
	if c == nil {
		return nil
	}

	url, err := c.urls.RelayURL(ctx)
	if err != nil {
		return fmt.Errorf("resolve relay url: %w", err)
	}
	if url == "" {
		return nil
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal relay payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("relay request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("relay returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Debug("relay notified", "lead_id", n.LeadID)
	return nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string
	RedisURL    string

	JWTSecret      string
	AccessTokenTTL time.Duration
	// SessionIdleTimeout is the inactivity window after which a session is
	// forcibly logged out.
	SessionIdleTimeout time.Duration

	CORSOrigins []string

	// Cached-view refresh cadence.
	LeadPollInterval    time.Duration
	MessagePollInterval time.Duration

	// Messaging gateway (env fallback; tenant settings rows take precedence).
	WhatsAppURL      string
	WhatsAppKey      string
	WhatsAppDeviceID string

	// Automation relay webhook (env fallback).
	RelayURL string

	// AI reply suggestions.
	GenAIKey   string
	GenAIModel string

	// SMTP notifications.
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string

	// Attachment storage.
	MinIOEndpoint          string
	MinIOAccessKey         string
	MinIOSecretKey         string
	MinIOUseSSL            bool
	MinIOBucketAttachments string

	// Background jobs.
	AsynqQueue   string
	DigestCron   string
	DigestEmails []string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisURL:            getEnv("REDIS_URL", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		AccessTokenTTL:      mustDuration(getEnv("JWT_ACCESS_TTL", "12h")),
		SessionIdleTimeout:  mustDuration(getEnv("SESSION_IDLE_TIMEOUT", "30m")),
		CORSOrigins:         splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		LeadPollInterval:    mustDuration(getEnv("LEAD_POLL_INTERVAL", "120s")),
		MessagePollInterval: mustDuration(getEnv("MESSAGE_POLL_INTERVAL", "10s")),

		WhatsAppURL:      getEnv("WHATSAPP_URL", ""),
		WhatsAppKey:      getEnv("WHATSAPP_API_KEY", ""),
		WhatsAppDeviceID: getEnv("WHATSAPP_DEVICE_ID", ""),

		RelayURL: getEnv("RELAY_URL", ""),

		GenAIKey:   getEnv("GENAI_API_KEY", ""),
		GenAIModel: getEnv("GENAI_MODEL", "gemini-2.5-flash"),

		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "FunilZap"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),

		MinIOEndpoint:          getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:         getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:         getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:            strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOBucketAttachments: getEnv("MINIO_BUCKET_ATTACHMENTS", "conversation-attachments"),

		AsynqQueue:   getEnv("ASYNQ_QUEUE", "default"),
		DigestCron:   getEnv("DIGEST_CRON", "0 7 * * *"),
		DigestEmails: splitCSV(getEnv("DIGEST_EMAILS", "")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.SessionIdleTimeout <= 0 {
		return nil, fmt.Errorf("SESSION_IDLE_TIMEOUT must be a positive duration")
	}

	return cfg, nil
}

// EmailEnabled reports whether SMTP delivery is configured.
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != "" && c.EmailFromAddress != ""
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

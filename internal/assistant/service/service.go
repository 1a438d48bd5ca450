package service

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"funilzap_backend/internal/conversations/domain"
	leadsdomain "funilzap_backend/internal/leads/domain"
	"funilzap_backend/platform/apperr"
	"funilzap_backend/platform/logger"

	"github.com/google/uuid"
)

const transcriptWindow = 30

// TranscriptSource provides the conversation history for a lead.
type TranscriptSource interface {
	Transcript(ctx context.Context, leadID uuid.UUID) ([]domain.Message, error)
}

// LeadSource provides the merged lead view for prompt context.
type LeadSource interface {
	GetMerged(ctx context.Context, id uuid.UUID) (leadsdomain.Lead, error)
}

// Service generates suggested replies from the conversation transcript.
// A nil Service (no API key configured) rejects requests with a clear error.
type Service struct {
	client      *genai.Client
	model       string
	transcripts TranscriptSource
	leads       LeadSource
	log         *logger.Logger
}

// New builds the assistant. Returns (nil, nil) when apiKey is empty so the
// feature stays off without configuration.
func New(ctx context.Context, apiKey, model string, transcripts TranscriptSource, leads LeadSource, log *logger.Logger) (*Service, error) {
	if apiKey == "" {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Service{
		client:      client,
		model:       model,
		transcripts: transcripts,
		leads:       leads,
		log:         log,
	}, nil
}

// Enabled reports whether the assistant is configured.
func (s *Service) Enabled() bool {
	return s != nil
}

// SuggestReply drafts a response to the lead's latest messages based on the
// recent transcript and the lead's funnel position.
func (s *Service) SuggestReply(ctx context.Context, leadID uuid.UUID) (string, error) {
	if s == nil {
		return "", apperr.Unavailable("assistant is not configured")
	}

	lead, err := s.leads.GetMerged(ctx, leadID)
	if err != nil {
		return "", err
	}

	messages, err := s.transcripts.Transcript(ctx, leadID)
	if err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return "", apperr.Validation("conversation has no messages yet")
	}

	prompt := buildPrompt(lead, messages)
	result, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		s.log.Error("suggestion generation failed", "lead_id", leadID, "error", err)
		return "", apperr.Wrap(apperr.KindUnavailable, "could not generate suggestion", err)
	}

	suggestion := strings.TrimSpace(result.Text())
	if suggestion == "" {
		return "", apperr.Unavailable("model returned an empty suggestion")
	}
	return suggestion, nil
}

func buildPrompt(lead leadsdomain.Lead, messages []domain.Message) string {
	if len(messages) > transcriptWindow {
		messages = messages[len(messages)-transcriptWindow:]
	}

	var b strings.Builder
	b.WriteString("Você é um assistente de vendas respondendo no WhatsApp. ")
	b.WriteString("Escreva UMA resposta curta e natural em português para a próxima mensagem da equipe.\n\n")
	fmt.Fprintf(&b, "Lead: %s\nEtapa do funil: %s\n", lead.Name, lead.Stage.ExternalLabel())
	if len(lead.Symptoms) > 0 {
		fmt.Fprintf(&b, "Sintomas relatados: %s\n", strings.Join(lead.Symptoms, ", "))
	}
	b.WriteString("\nConversa recente:\n")
	for _, m := range messages {
		who := "Lead"
		if m.Sender == domain.SenderStaff {
			who = "Equipe"
		}
		fmt.Fprintf(&b, "%s: %s\n", who, m.Content)
	}
	b.WriteString("\nResposta sugerida:")
	return b.String()
}

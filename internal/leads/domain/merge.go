package domain

import "strings"

// Placeholder texts shown when a source record is missing a value.
const (
	PlaceholderName      = "Sem nome"
	PlaceholderPhone     = "Sem telefone"
	PlaceholderNoMessage = "Nenhuma mensagem"
	PlaceholderNewChat   = "Nova conversa"
)

// MergeLead joins a funnel record with its optional registration and latest
// message into the unified Lead view. Pure transformation, no side effects.
//
// Name and phone prefer the registration record, then the funnel record, then
// fixed placeholders. The last message prefers the message record; without
// one the funnel's creation timestamp and a placeholder string stand in.
func MergeLead(funnel FunnelRecord, reg *RegistrationRecord, last *MessageRecord) Lead {
	name := firstNonEmpty(regName(reg), funnel.Name)
	if name == "" {
		if last == nil {
			name = PlaceholderNewChat
		} else {
			name = PlaceholderName
		}
	}

	phone := firstNonEmpty(regPhone(reg), funnel.Phone, PlaceholderPhone)

	lastMessage := PlaceholderNoMessage
	lastMessageAt := funnel.CreatedAt
	if last != nil {
		lastMessage = last.Content
		lastMessageAt = last.SentAt
	}

	stage := StageFromLabel(funnel.StageLabel)

	return Lead{
		ID:               funnel.ID,
		Name:             name,
		Phone:            phone,
		Stage:            stage,
		StageUpdatedAt:   funnel.StageUpdatedAt,
		AssignedTo:       funnel.AssignedTo,
		IsHot:            IsHotStage(stage),
		LastMessage:      lastMessage,
		LastMessageAt:    lastMessageAt,
		Symptoms:         splitList(funnel.Symptoms),
		ProblemDuration:  funnel.ProblemDuration,
		PriorAttempts:    splitList(funnel.PriorAttempts),
		AutomationPaused: !funnel.TimeActive,
	}
}

// splitList turns a comma-separated source string into trimmed elements.
// An absent or blank source yields an empty list, never nil.
func splitList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func regName(reg *RegistrationRecord) string {
	if reg == nil {
		return ""
	}
	return strings.TrimSpace(reg.Name)
}

func regPhone(reg *RegistrationRecord) string {
	if reg == nil {
		return ""
	}
	return strings.TrimSpace(reg.Phone)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

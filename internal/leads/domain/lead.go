package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lead is the merged view entity the dashboard works with. It is constructed
// by joining a funnel record with its registration and latest message at
// fetch time and is never persisted in this form; field mutations are written
// back to the owning source record and the in-memory copy patched to match.
type Lead struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone"`
	Stage           Stage      `json:"stage"`
	StageUpdatedAt  time.Time  `json:"stageUpdatedAt"`
	AssignedTo      *uuid.UUID `json:"assignedTo"`
	IsHot           bool       `json:"isHot"`
	LastMessage     string     `json:"lastMessage"`
	LastMessageAt   time.Time  `json:"lastMessageAt"`
	Symptoms        []string   `json:"symptoms"`
	ProblemDuration string     `json:"problemDuration,omitempty"`
	PriorAttempts   []string   `json:"priorAttempts"`
	// AutomationPaused is the inversion of the source record's "time active"
	// flag: true means the bot must not answer this lead.
	AutomationPaused bool `json:"automationPaused"`
}

// FunnelRecord is a row of the funnel-status collection.
type FunnelRecord struct {
	ID              uuid.UUID
	Phone           string
	Name            string
	StageLabel      string
	StageUpdatedAt  time.Time
	AssignedTo      *uuid.UUID
	TimeActive      bool
	Symptoms        string
	ProblemDuration string
	PriorAttempts   string
	CreatedAt       time.Time
}

// RegistrationRecord is a row of the registration collection, joined to the
// funnel by phone number.
type RegistrationRecord struct {
	ID    uuid.UUID
	Phone string
	Name  string
	Email string
}

// MessageRecord is the most recent message of a conversation.
type MessageRecord struct {
	Content string
	SentAt  time.Time
}

// IsHotStage reports whether a stage marks a lead as "hot". The canonical
// definition is stage ∈ {negotiation, objection}; the aggregate stats views
// use the same predicate.
func IsHotStage(s Stage) bool {
	return s == StageNegotiation || s == StageObjection
}

package events

import (
	platformevents "funilzap_backend/platform/events"

	"github.com/google/uuid"
)

// LeadStageChanged fires after a funnel stage write succeeds.
type LeadStageChanged struct {
	platformevents.BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	FromStage string    `json:"fromStage"`
	ToStage   string    `json:"toStage"`
	ChangedBy uuid.UUID `json:"changedBy"`
}

func (LeadStageChanged) EventName() string { return "leads.stage_changed" }

// LeadAssigned fires after a lead is assigned to a salesperson.
type LeadAssigned struct {
	platformevents.BaseEvent
	LeadID     uuid.UUID  `json:"leadId"`
	LeadName   string     `json:"leadName"`
	AssignedTo *uuid.UUID `json:"assignedTo"`
	AssignedBy uuid.UUID  `json:"assignedBy"`
}

func (LeadAssigned) EventName() string { return "leads.assigned" }

// MessageSent fires after a staff message is persisted.
type MessageSent struct {
	platformevents.BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	MessageID uuid.UUID `json:"messageId"`
	SentBy    string    `json:"sentBy"`
}

func (MessageSent) EventName() string { return "conversations.message_sent" }

// SessionExpired fires when the inactivity watchdog forcibly logs a user out.
type SessionExpired struct {
	platformevents.BaseEvent
	UserID uuid.UUID `json:"userId"`
}

func (SessionExpired) EventName() string { return "auth.session_expired" }

// NewBaseEvent re-exports the platform constructor.
var NewBaseEvent = platformevents.NewBaseEvent

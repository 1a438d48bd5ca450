package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sender distinguishes who authored a conversation message.
const (
	SenderLead  = "lead"
	SenderStaff = "staff"
)

// Message is one entry of a lead's conversation transcript.
type Message struct {
	ID         uuid.UUID `json:"id"`
	LeadID     uuid.UUID `json:"leadId"`
	Content    string    `json:"content"`
	Sender     string    `json:"sender"`
	SenderName string    `json:"senderName,omitempty"`
	SentAt     time.Time `json:"sentAt"`
}

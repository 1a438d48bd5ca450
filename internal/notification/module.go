// Package notification sends emails in response to domain events. It
// inverts the dependency: the leads module publishes LeadAssigned and never
// knows about email providers or templates.
package notification

import (
	"context"

	authdomain "funilzap_backend/internal/auth/domain"
	"funilzap_backend/internal/email"
	"funilzap_backend/internal/events"
	"funilzap_backend/platform/logger"

	"github.com/google/uuid"
)

// UserReader resolves the assignee's account for the notification email.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (authdomain.User, error)
}

// Module wires event subscriptions to the email sender. Notification
// failures are logged and never propagate to the publishing operation.
type Module struct {
	users  UserReader
	sender email.Sender
	log    *logger.Logger
}

// NewModule creates the notification module and subscribes its handlers.
func NewModule(bus events.Bus, users UserReader, sender email.Sender, log *logger.Logger) *Module {
	m := &Module{users: users, sender: sender, log: log}

	bus.Subscribe("leads.assigned", events.HandlerFunc(m.handleLeadAssigned))

	return m
}

func (m *Module) handleLeadAssigned(ctx context.Context, event events.Event) error {
	assigned, ok := event.(events.LeadAssigned)
	if !ok || assigned.AssignedTo == nil {
		return nil
	}

	user, err := m.users.GetByID(ctx, *assigned.AssignedTo)
	if err != nil {
		m.log.Error("lead assignment notification skipped", "user_id", *assigned.AssignedTo, "error", err)
		return nil
	}

	leadName := assigned.LeadName
	if leadName == "" {
		leadName = "Lead sem nome"
	}

	if err := m.sender.SendLeadAssigned(ctx, user.Email, user.Name, leadName); err != nil {
		m.log.Error("lead assignment email failed", "user_id", user.ID, "error", err)
	}
	return nil
}

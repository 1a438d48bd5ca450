package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"funilzap_backend/internal/conversations/domain"
	"funilzap_backend/internal/events"
	leadsdomain "funilzap_backend/internal/leads/domain"
	"funilzap_backend/internal/leads/refresh"
	"funilzap_backend/internal/relay"
	"funilzap_backend/platform/apperr"
	"funilzap_backend/platform/logger"

	"github.com/google/uuid"
)

const sideChannelTimeout = 10 * time.Second

var errNoPhone = errors.New("lead has no phone number")

// MessageStore is the transcript persistence this service needs.
type MessageStore interface {
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]domain.Message, error)
	Insert(ctx context.Context, leadID uuid.UUID, content, sender, senderName string) (domain.Message, error)
}

// LeadProvider resolves the merged lead view for dispatch metadata.
type LeadProvider interface {
	GetMerged(ctx context.Context, id uuid.UUID) (leadsdomain.Lead, error)
}

// Gateway delivers outbound text to the lead's WhatsApp number.
type Gateway interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

// Relay notifies the automation relay about staff activity.
type Relay interface {
	Notify(ctx context.Context, n relay.Notification) error
}

// NameResolver maps a user id to a display name for the transcript.
type NameResolver interface {
	DisplayName(ctx context.Context, userID uuid.UUID) string
}

// Service coordinates conversation reads, the per-user transcript watcher
// and outbound message dispatch.
type Service struct {
	repo         MessageStore
	leads        LeadProvider
	gateway      Gateway
	relay        Relay
	names        NameResolver
	bus          events.Bus
	log          *logger.Logger
	pollInterval time.Duration

	mu       sync.Mutex
	watchers map[uuid.UUID]*refresh.Controller[[]domain.Message]
}

func New(repo MessageStore, leads LeadProvider, gateway Gateway, relayClient Relay, names NameResolver, bus events.Bus, log *logger.Logger, pollInterval time.Duration) *Service {
	return &Service{
		repo:         repo,
		leads:        leads,
		gateway:      gateway,
		relay:        relayClient,
		names:        names,
		bus:          bus,
		log:          log,
		pollInterval: pollInterval,
		watchers:     make(map[uuid.UUID]*refresh.Controller[[]domain.Message]),
	}
}

// Transcript returns the full message history of a lead.
func (s *Service) Transcript(ctx context.Context, leadID uuid.UUID) ([]domain.Message, error) {
	messages, err := s.repo.ListByLead(ctx, leadID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "could not load conversation", err)
	}
	return messages, nil
}

// Open points the caller's transcript watcher at a conversation. Each user
// has at most one watcher; opening another conversation retargets it,
// cancelling the previous polling loop before the new one is armed.
func (s *Service) Open(ctx context.Context, userID, leadID uuid.UUID) ([]domain.Message, error) {
	if _, err := s.leads.GetMerged(ctx, leadID); err != nil {
		return nil, err
	}

	s.watcher(userID).Start(leadID.String())
	return s.Transcript(ctx, leadID)
}

// Close stops the caller's transcript watcher.
func (s *Service) Close(userID uuid.UUID) {
	s.mu.Lock()
	w, ok := s.watchers[userID]
	if ok {
		delete(s.watchers, userID)
	}
	s.mu.Unlock()

	if ok {
		w.Stop()
	}
}

// Watched returns the cached transcript of the conversation the caller has
// open, falling back to a direct fetch when the watcher has not completed a
// poll yet.
func (s *Service) Watched(ctx context.Context, userID uuid.UUID) ([]domain.Message, error) {
	s.mu.Lock()
	w, ok := s.watchers[userID]
	s.mu.Unlock()

	if !ok || w.Target() == "" {
		return nil, apperr.BadRequest("no open conversation")
	}

	if messages, _, hasValue := w.Snapshot(); hasValue {
		return messages, nil
	}

	messages, err := w.RefreshNow(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "could not load conversation", err)
	}
	return messages, nil
}

// SendMessage dispatches a staff message. Persistence is the one required
// step: its failure aborts the whole operation and no side channel runs.
// The relay webhook and the WhatsApp gateway are best-effort side channels
// on detached contexts, so a cancelled request cannot fail a recorded
// message and their errors are logged, never surfaced.
func (s *Service) SendMessage(ctx context.Context, leadID uuid.UUID, content string, senderID uuid.UUID) (domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Message{}, apperr.Validation("message content is required")
	}

	lead, err := s.leads.GetMerged(ctx, leadID)
	if err != nil {
		return domain.Message{}, err
	}

	senderName := s.names.DisplayName(ctx, senderID)
	message, err := s.repo.Insert(ctx, leadID, content, domain.SenderStaff, senderName)
	if err != nil {
		return domain.Message{}, apperr.Wrap(apperr.KindUnavailable, "could not record message", err)
	}

	s.patchWatchers(leadID, message)

	s.bus.Publish(ctx, events.MessageSent{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		MessageID: message.ID,
		SentBy:    senderName,
	})

	detached := context.WithoutCancel(ctx)
	go s.notifyRelay(detached, lead, message)
	go s.deliverToGateway(detached, lead, message)

	return message, nil
}

func (s *Service) notifyRelay(ctx context.Context, lead leadsdomain.Lead, message domain.Message) {
	ctx, cancel := context.WithTimeout(ctx, sideChannelTimeout)
	defer cancel()

	err := s.relay.Notify(ctx, relay.Notification{
		LeadID:  lead.ID.String(),
		Message: message.Content,
		SentBy:  message.SenderName,
		SentAt:  message.SentAt,
		LeadData: map[string]any{
			"name":  lead.Name,
			"phone": lead.Phone,
			"stage": string(lead.Stage),
		},
	})
	if err != nil {
		s.log.SideChannelError("relay", lead.ID.String(), err)
	}
}

func (s *Service) deliverToGateway(ctx context.Context, lead leadsdomain.Lead, message domain.Message) {
	ctx, cancel := context.WithTimeout(ctx, sideChannelTimeout)
	defer cancel()

	if lead.Phone == "" || lead.Phone == leadsdomain.PlaceholderPhone {
		s.log.SideChannelError("whatsapp", lead.ID.String(), errNoPhone)
		return
	}

	if err := s.gateway.SendMessage(ctx, lead.Phone, message.Content); err != nil {
		s.log.SideChannelError("whatsapp", lead.ID.String(), err)
	}
}

// StopWatcherFor shuts down the transcript watcher of a user whose session
// ended.
func (s *Service) StopWatcherFor(userID uuid.UUID) {
	s.Close(userID)
}

func (s *Service) watcher(userID uuid.UUID) *refresh.Controller[[]domain.Message] {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.watchers[userID]
	if !ok {
		w = refresh.New(s.pollInterval, s.fetchTranscript, s.log)
		s.watchers[userID] = w
	}
	return w
}

func (s *Service) fetchTranscript(ctx context.Context, target string) ([]domain.Message, error) {
	leadID, err := uuid.Parse(target)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByLead(ctx, leadID)
}

// patchWatchers appends the new message to every cached transcript currently
// watching this lead, building a new slice rather than mutating the shared
// one.
func (s *Service) patchWatchers(leadID uuid.UUID, message domain.Message) {
	target := leadID.String()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range s.watchers {
		if w.Target() != target {
			continue
		}
		w.Mutate(func(messages []domain.Message) []domain.Message {
			next := make([]domain.Message, 0, len(messages)+1)
			next = append(next, messages...)
			return append(next, message)
		})
	}
}

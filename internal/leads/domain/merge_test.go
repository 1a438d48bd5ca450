package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMergeLead_RegistrationWins(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	funnel := FunnelRecord{
		ID:         uuid.New(),
		Phone:      "5511000000000",
		Name:       "Fulano",
		StageLabel: "negociacao",
		TimeActive: true,
		CreatedAt:  created,
	}
	reg := &RegistrationRecord{Phone: "5511999999999", Name: "Maria Silva"}
	last := &MessageRecord{Content: "oi", SentAt: created.Add(time.Hour)}

	lead := MergeLead(funnel, reg, last)

	if lead.Name != "Maria Silva" {
		t.Fatalf("expected registration name, got %q", lead.Name)
	}
	if lead.Phone != "5511999999999" {
		t.Fatalf("expected registration phone, got %q", lead.Phone)
	}
	if lead.Stage != StageNegotiation || !lead.IsHot {
		t.Fatalf("expected hot negotiation lead, got stage=%q hot=%v", lead.Stage, lead.IsHot)
	}
	if lead.LastMessage != "oi" || !lead.LastMessageAt.Equal(created.Add(time.Hour)) {
		t.Fatalf("expected latest message to win, got %q at %v", lead.LastMessage, lead.LastMessageAt)
	}
	if lead.AutomationPaused {
		t.Fatalf("active record must not read as paused")
	}
}

func TestMergeLead_Placeholders(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	funnel := FunnelRecord{ID: uuid.New(), StageLabel: "compra", CreatedAt: created}

	lead := MergeLead(funnel, nil, nil)

	if lead.Name != PlaceholderNewChat {
		t.Fatalf("nameless lead without messages should read %q, got %q", PlaceholderNewChat, lead.Name)
	}
	if lead.Phone != PlaceholderPhone {
		t.Fatalf("expected %q, got %q", PlaceholderPhone, lead.Phone)
	}
	if lead.LastMessage != PlaceholderNoMessage {
		t.Fatalf("expected %q, got %q", PlaceholderNoMessage, lead.LastMessage)
	}
	if !lead.LastMessageAt.Equal(created) {
		t.Fatalf("missing message should fall back to creation time, got %v", lead.LastMessageAt)
	}
	if !lead.AutomationPaused {
		t.Fatalf("inactive record should read as paused")
	}
}

func TestMergeLead_NamelessWithMessages(t *testing.T) {
	funnel := FunnelRecord{ID: uuid.New(), StageLabel: "contato_inicial"}
	last := &MessageRecord{Content: "quero saber mais", SentAt: time.Now()}

	lead := MergeLead(funnel, nil, last)

	if lead.Name != PlaceholderName {
		t.Fatalf("nameless lead with messages should read %q, got %q", PlaceholderName, lead.Name)
	}
}

func TestMergeLead_UnknownStageLabelDefaultsToInitial(t *testing.T) {
	lead := MergeLead(FunnelRecord{ID: uuid.New(), StageLabel: "whatever"}, nil, nil)
	if lead.Stage != StageInitial {
		t.Fatalf("expected initial, got %q", lead.Stage)
	}
	if lead.IsHot {
		t.Fatalf("initial lead must not be hot")
	}
}

func TestMergeLead_ListFieldsNeverNil(t *testing.T) {
	lead := MergeLead(FunnelRecord{ID: uuid.New()}, nil, nil)
	if lead.Symptoms == nil || lead.PriorAttempts == nil {
		t.Fatalf("list fields must be empty, not nil")
	}
	if len(lead.Symptoms) != 0 {
		t.Fatalf("expected no symptoms, got %v", lead.Symptoms)
	}
}

func TestMergeLead_SplitsCommaSeparatedLists(t *testing.T) {
	funnel := FunnelRecord{
		ID:            uuid.New(),
		Symptoms:      " dor de cabeça , insônia,,  fadiga ",
		PriorAttempts: "chá",
	}

	lead := MergeLead(funnel, nil, nil)

	want := []string{"dor de cabeça", "insônia", "fadiga"}
	if len(lead.Symptoms) != len(want) {
		t.Fatalf("expected %d symptoms, got %v", len(want), lead.Symptoms)
	}
	for i, symptom := range want {
		if lead.Symptoms[i] != symptom {
			t.Fatalf("symptom %d: expected %q, got %q", i, symptom, lead.Symptoms[i])
		}
	}
	if len(lead.PriorAttempts) != 1 || lead.PriorAttempts[0] != "chá" {
		t.Fatalf("unexpected prior attempts %v", lead.PriorAttempts)
	}
}

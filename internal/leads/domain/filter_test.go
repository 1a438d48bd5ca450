package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

var filterNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func filterFixture() ([]Lead, uuid.UUID) {
	me := uuid.New()
	other := uuid.New()
	return []Lead{
		{ID: uuid.New(), Name: "Maria Silva", Phone: "5511999990001", Stage: StageNegotiation, AssignedTo: &me, LastMessageAt: filterNow.Add(-time.Hour)},
		{ID: uuid.New(), Name: "João Souza", Phone: "5511999990002", Stage: StageInitial, AssignedTo: &other, LastMessageAt: filterNow.AddDate(0, 0, -3)},
		{ID: uuid.New(), Name: "mariana costa", Phone: "5521888880003", Stage: StagePurchase, LastMessageAt: filterNow.AddDate(0, 0, -20)},
	}, me
}

func TestApplyFilters_NoCriteriaKeepsAllInOrder(t *testing.T) {
	leads, _ := filterFixture()
	got := ApplyFilters(leads, FilterCriteria{Stage: StageFilterAll, Window: DateWindowAll, Assignee: AssigneeAll}, nil, filterNow)
	if len(got) != len(leads) {
		t.Fatalf("expected %d leads, got %d", len(leads), len(got))
	}
	for i := range leads {
		if got[i].ID != leads[i].ID {
			t.Fatalf("relative order changed at %d", i)
		}
	}
}

func TestApplyFilters_Stage(t *testing.T) {
	leads, _ := filterFixture()
	got := ApplyFilters(leads, FilterCriteria{Stage: string(StageNegotiation)}, nil, filterNow)
	if len(got) != 1 || got[0].Name != "Maria Silva" {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestApplyFilters_SearchNameCaseInsensitive(t *testing.T) {
	leads, _ := filterFixture()
	got := ApplyFilters(leads, FilterCriteria{Search: "MARIA"}, nil, filterNow)
	if len(got) != 2 {
		t.Fatalf("expected MARIA to match both marias, got %d", len(got))
	}
}

func TestApplyFilters_SearchPhoneIsRawSubstring(t *testing.T) {
	leads, _ := filterFixture()
	got := ApplyFilters(leads, FilterCriteria{Search: "5521"}, nil, filterNow)
	if len(got) != 1 || got[0].Phone != "5521888880003" {
		t.Fatalf("unexpected result %+v", got)
	}
	if got := ApplyFilters(leads, FilterCriteria{Search: "+5521"}, nil, filterNow); len(got) != 0 {
		t.Fatalf("phone search must not normalize, got %d matches", len(got))
	}
}

func TestApplyFilters_Windows(t *testing.T) {
	leads, _ := filterFixture()
	cases := []struct {
		window DateWindow
		want   int
	}{
		{DateWindowToday, 1},
		{DateWindowWeek, 2},
		{DateWindowMonth, 3},
		{DateWindowAll, 3},
	}
	for _, tc := range cases {
		if got := ApplyFilters(leads, FilterCriteria{Window: tc.window}, nil, filterNow); len(got) != tc.want {
			t.Fatalf("window %q: expected %d leads, got %d", tc.window, tc.want, len(got))
		}
	}
}

func TestApplyFilters_Assignee(t *testing.T) {
	leads, me := filterFixture()

	got := ApplyFilters(leads, FilterCriteria{Assignee: AssigneeMe}, &me, filterNow)
	if len(got) != 1 || got[0].AssignedTo == nil || *got[0].AssignedTo != me {
		t.Fatalf("unexpected 'me' result %+v", got)
	}

	got = ApplyFilters(leads, FilterCriteria{Assignee: AssigneeUnassigned}, &me, filterNow)
	if len(got) != 1 || got[0].AssignedTo != nil {
		t.Fatalf("unexpected 'unassigned' result %+v", got)
	}

	// Without a caller identity the "me" filter cannot restrict anything.
	if got := ApplyFilters(leads, FilterCriteria{Assignee: AssigneeMe}, nil, filterNow); len(got) != len(leads) {
		t.Fatalf("expected all leads, got %d", len(got))
	}
}

func TestApplyFilters_Conjunction(t *testing.T) {
	leads, me := filterFixture()
	criteria := FilterCriteria{
		Stage:    string(StageNegotiation),
		Search:   "maria",
		Window:   DateWindowToday,
		Assignee: AssigneeMe,
	}
	got := ApplyFilters(leads, criteria, &me, filterNow)
	if len(got) != 1 || got[0].Name != "Maria Silva" {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestApplyFilters_Idempotent(t *testing.T) {
	leads, _ := filterFixture()
	criteria := FilterCriteria{Window: DateWindowWeek}
	once := ApplyFilters(leads, criteria, nil, filterNow)
	twice := ApplyFilters(once, criteria, nil, filterNow)
	if len(once) != len(twice) {
		t.Fatalf("filtering is not idempotent: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Fatalf("idempotence broken at %d", i)
		}
	}
}

func TestApplyFilters_DoesNotModifyInput(t *testing.T) {
	leads, _ := filterFixture()
	before := make([]Lead, len(leads))
	copy(before, leads)

	_ = ApplyFilters(leads, FilterCriteria{Stage: string(StagePurchase)}, nil, filterNow)

	for i := range before {
		if leads[i].ID != before[i].ID {
			t.Fatalf("input slice modified at %d", i)
		}
	}
}

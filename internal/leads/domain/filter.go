package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// StageFilterAll disables the stage constraint.
const StageFilterAll = "all"

// DateWindow restricts leads by the age of their last message.
type DateWindow string

const (
	DateWindowAll   DateWindow = "all"
	DateWindowToday DateWindow = "today"
	DateWindowWeek  DateWindow = "week"
	DateWindowMonth DateWindow = "month"
)

// AssigneeFilter restricts leads by assignment.
type AssigneeFilter string

const (
	AssigneeAll        AssigneeFilter = "all"
	AssigneeMe         AssigneeFilter = "me"
	AssigneeUnassigned AssigneeFilter = "unassigned"
)

// FilterCriteria are the four independent, AND-combined lead filters.
// An empty or "all" value for any field means "no constraint".
type FilterCriteria struct {
	Stage    string         `json:"stage"`
	Search   string         `json:"search"`
	Window   DateWindow     `json:"window"`
	Assignee AssigneeFilter `json:"assignee"`
}

// ApplyFilters computes the filtered view of leads. Pure: the input slice is
// not modified and relative order is preserved, which also makes the function
// idempotent for a fixed criteria and clock.
func ApplyFilters(leads []Lead, c FilterCriteria, currentUserID *uuid.UUID, now time.Time) []Lead {
	out := make([]Lead, 0, len(leads))
	cutoff, hasCutoff := windowCutoff(c.Window, now)
	search := strings.TrimSpace(c.Search)

	for _, lead := range leads {
		if c.Stage != "" && c.Stage != StageFilterAll && string(lead.Stage) != c.Stage {
			continue
		}

		if search != "" && !matchesSearch(lead, search) {
			continue
		}

		if hasCutoff && lead.LastMessageAt.Before(cutoff) {
			continue
		}

		if !matchesAssignee(lead, c.Assignee, currentUserID) {
			continue
		}

		out = append(out, lead)
	}

	return out
}

func matchesSearch(lead Lead, search string) bool {
	if strings.Contains(strings.ToLower(lead.Name), strings.ToLower(search)) {
		return true
	}
	// Phone matching is a raw substring check, no case folding involved.
	return strings.Contains(lead.Phone, search)
}

func matchesAssignee(lead Lead, filter AssigneeFilter, currentUserID *uuid.UUID) bool {
	switch filter {
	case AssigneeMe:
		if currentUserID == nil {
			return true
		}
		return lead.AssignedTo != nil && *lead.AssignedTo == *currentUserID
	case AssigneeUnassigned:
		return lead.AssignedTo == nil
	default:
		return true
	}
}

func windowCutoff(w DateWindow, now time.Time) (time.Time, bool) {
	switch w {
	case DateWindowToday:
		year, month, day := now.Date()
		return time.Date(year, month, day, 0, 0, 0, 0, now.Location()), true
	case DateWindowWeek:
		return now.AddDate(0, 0, -7), true
	case DateWindowMonth:
		return now.AddDate(0, -1, 0), true
	default:
		return time.Time{}, false
	}
}

// Package transport defines the request/response DTOs of the leads module.
package transport

import "github.com/google/uuid"

// ListLeadsQuery carries the four conjunctive lead filters plus the manual
// refresh switch.
type ListLeadsQuery struct {
	Stage    string `form:"stage"`
	Search   string `form:"search"`
	Window   string `form:"window" validate:"omitempty,oneof=all today week month"`
	Assignee string `form:"assignee" validate:"omitempty,oneof=all me unassigned"`
	Refresh  bool   `form:"refresh"`
}

// AssignRequest sets or clears (null) the assigned salesperson.
type AssignRequest struct {
	AssignedTo *uuid.UUID `json:"assignedTo"`
}

// ChangeStageRequest moves a lead to another funnel stage.
type ChangeStageRequest struct {
	Stage string `json:"stage" validate:"required"`
}

// ToggleAutomationResponse reports the new paused state.
type ToggleAutomationResponse struct {
	AutomationPaused bool `json:"automationPaused"`
}

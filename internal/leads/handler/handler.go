package handler

import (
	"net/http"

	"funilzap_backend/internal/leads/domain"
	"funilzap_backend/internal/leads/service"
	"funilzap_backend/internal/leads/transport"
	"funilzap_backend/platform/httpkit"
	"funilzap_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id/assign", h.Assign)
	rg.PATCH("/:id/stage", h.ChangeStage)
	rg.POST("/:id/toggle-automation", h.ToggleAutomation)
}

func (h *Handler) List(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var query transport.ListLeadsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	criteria := domain.FilterCriteria{
		Stage:    query.Stage,
		Search:   query.Search,
		Window:   domain.DateWindow(query.Window),
		Assignee: domain.AssigneeFilter(query.Assignee),
	}
	userID := id.UserID()

	leads, err := h.svc.List(c.Request.Context(), criteria, &userID, query.Refresh)
	if err != nil {
		httpkit.MapError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"leads": leads})
}

func (h *Handler) GetByID(c *gin.Context) {
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	lead, err := h.svc.GetMerged(c.Request.Context(), leadID)
	if err != nil {
		httpkit.MapError(c, err)
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) Assign(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req transport.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.Assign(c.Request.Context(), leadID, req.AssignedTo, id.UserID())
	if err != nil {
		httpkit.MapError(c, err)
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) ChangeStage(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req transport.ChangeStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.ChangeStage(c.Request.Context(), leadID, domain.Stage(req.Stage), id.UserID())
	if err != nil {
		httpkit.MapError(c, err)
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) ToggleAutomation(c *gin.Context) {
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	paused, err := h.svc.ToggleAutomation(c.Request.Context(), leadID)
	if err != nil {
		httpkit.MapError(c, err)
		return
	}

	httpkit.OK(c, transport.ToggleAutomationResponse{AutomationPaused: paused})
}

func parseLeadID(c *gin.Context) (uuid.UUID, bool) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return uuid.Nil, false
	}
	return leadID, true
}

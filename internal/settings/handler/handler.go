package handler

import (
	"net/http"

	"funilzap_backend/internal/settings/service"
	"funilzap_backend/internal/settings/transport"
	"funilzap_backend/platform/httpkit"
	"funilzap_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/settings", h.Get)
	rg.PUT("/settings", h.Update)
}

func (h *Handler) Get(c *gin.Context) {
	view, err := h.svc.Get(c.Request.Context())
	if err != nil {
		httpkit.MapError(c, err)
		return
	}

	httpkit.OK(c, view)
}

func (h *Handler) Update(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	view, err := h.svc.Save(c.Request.Context(), service.Update{
		WhatsAppURL:      req.WhatsAppURL,
		WhatsAppAPIKey:   req.WhatsAppAPIKey,
		WhatsAppDeviceID: req.WhatsAppDeviceID,
		RelayURL:         req.RelayURL,
		AIAPIKey:         req.AIAPIKey,
		FacebookAdsToken: req.FacebookAdsToken,
		PaymentAPIKey:    req.PaymentAPIKey,
		SheetsID:         req.SheetsID,
	}, id.UserID())
	if err != nil {
		httpkit.MapError(c, err)
		return
	}

	httpkit.OK(c, view)
}

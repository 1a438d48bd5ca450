package handler

import (
	"net/http"

	"funilzap_backend/internal/assistant/service"
	"funilzap_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/:id/suggest-reply", h.SuggestReply)
}

func (h *Handler) SuggestReply(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	suggestion, err := h.svc.SuggestReply(c.Request.Context(), leadID)
	if err != nil {
		httpkit.MapError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"suggestion": suggestion})
}

package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"funilzap_backend/internal/reports/service"
	"funilzap_backend/internal/scheduler"
	"funilzap_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// DigestEnqueuer queues an out-of-band funnel digest run.
type DigestEnqueuer interface {
	EnqueueFunnelDigest(ctx context.Context, payload scheduler.FunnelDigestPayload) error
}

type Handler struct {
	svc     *service.Service
	digests DigestEnqueuer
}

func New(svc *service.Service, digests DigestEnqueuer) *Handler {
	return &Handler{svc: svc, digests: digests}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/funnel", h.FunnelOverview)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/digest", h.TriggerDigest)
}

func (h *Handler) FunnelOverview(c *gin.Context) {
	overview, err := h.svc.FunnelOverview(c.Request.Context())
	if err != nil {
		httpkit.MapError(c, err)
		return
	}

	httpkit.OK(c, overview)
}

// TriggerDigest queues an immediate digest run instead of waiting for the
// cron schedule. An empty body uses the configured recipient list.
func (h *Handler) TriggerDigest(c *gin.Context) {
	var payload scheduler.FunnelDigestPayload
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	if err := h.digests.EnqueueFunnelDigest(c.Request.Context(), payload); err != nil {
		httpkit.MapError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

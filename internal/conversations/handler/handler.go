package handler

import (
	"net/http"

	"funilzap_backend/internal/conversations/service"
	"funilzap_backend/internal/conversations/transport"
	"funilzap_backend/internal/storage"
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
	svc         *service.Service
	attachments *storage.Service
	val         *validator.Validator
}

func New(svc *service.Service, attachments *storage.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, attachments: attachments, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/messages", h.Transcript)
	rg.POST("/:id/messages", h.SendMessage)
	rg.POST("/:id/open", h.Open)
	rg.POST("/close", h.Close)
	rg.GET("/watched", h.Watched)

	if h.attachments.Enabled() {
		rg.POST("/:id/attachments", h.UploadAttachment)
		rg.GET("/attachments/url", h.AttachmentURL)
	}
}

func (h *Handler) Transcript(c *gin.Context) {
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	messages, err := h.svc.Transcript(c.Request.Context(), leadID)
	if err != nil {
		httpkit.MapError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"messages": messages})
}

func (h *Handler) SendMessage(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req transport.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	message, err := h.svc.SendMessage(c.Request.Context(), leadID, req.Content, id.UserID())
	if err != nil {
		httpkit.MapError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, message)
}

func (h *Handler) Open(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	messages, err := h.svc.Open(c.Request.Context(), id.UserID(), leadID)
	if err != nil {
		httpkit.MapError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"messages": messages})
}

func (h *Handler) Close(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	h.svc.Close(id.UserID())
	httpkit.OK(c, gin.H{"closed": true})
}

func (h *Handler) Watched(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	messages, err := h.svc.Watched(c.Request.Context(), id.UserID())
	if err != nil {
		httpkit.MapError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"messages": messages})
}

func (h *Handler) UploadAttachment(c *gin.Context) {
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read file", nil)
		return
	}
	defer func() {
		_ = file.Close()
	}()

	attachment, err := h.attachments.Upload(
		c.Request.Context(),
		leadID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
		fileHeader.Size,
	)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	httpkit.JSON(c, http.StatusCreated, attachment)
}

func (h *Handler) AttachmentURL(c *gin.Context) {
	var query transport.AttachmentURLQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	attachment, err := h.attachments.DownloadURL(c.Request.Context(), query.FileKey)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	httpkit.OK(c, attachment)
}


func parseLeadID(c *gin.Context) (uuid.UUID, bool) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return uuid.Nil, false
	}
	return leadID, true
}

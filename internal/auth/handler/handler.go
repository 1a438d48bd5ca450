package handler

import (
	"net/http"

	"funilzap_backend/internal/auth/domain"
	"funilzap_backend/internal/auth/service"
	"funilzap_backend/internal/auth/transport"
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

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.Login)
}

func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/logout", h.Logout)
	rg.GET("/me", h.Me)
	rg.PUT("/profile", h.UpdateProfile)
	rg.PUT("/password", h.ChangePassword)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/users", h.ListUsers)
	rg.POST("/users", h.CreateUser)
	rg.PUT("/users/:id/role", h.SetRole)
	rg.PUT("/users/:id/active", h.SetActive)
}

func (h *Handler) Login(c *gin.Context) {
	var req transport.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	accessToken, user, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httpkit.MapError(c, err)
		return
	}

	httpkit.OK(c, transport.LoginResponse{AccessToken: accessToken, User: user})
}

func (h *Handler) Logout(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	if err := h.svc.Logout(c.Request.Context(), id.UserID()); err != nil {
		httpkit.MapError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"loggedOut": true})
}

func (h *Handler) Me(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	user, err := h.svc.Me(c.Request.Context(), id.UserID())
	if err != nil {
		httpkit.MapError(c, err)
		return
	}

	httpkit.OK(c, user)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	user, err := h.svc.UpdateProfile(c.Request.Context(), id.UserID(), req.Name, req.Email)
	if err != nil {
		httpkit.MapError(c, err)
		return
	}

	httpkit.OK(c, user)
}

func (h *Handler) ChangePassword(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), id.UserID(), req.CurrentPassword, req.NewPassword); err != nil {
		httpkit.MapError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"changed": true})
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		httpkit.MapError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"users": users})
}

func (h *Handler) CreateUser(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	user, err := h.svc.CreateUser(c.Request.Context(), domain.Role(id.Role()), req.Email, req.Name, req.Password, domain.Role(req.Role))
	if err != nil {
		httpkit.MapError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, user)
}

func (h *Handler) SetRole(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req transport.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.SetUserRole(c.Request.Context(), domain.Role(id.Role()), userID, domain.Role(req.Role)); err != nil {
		httpkit.MapError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"updated": true})
}

func (h *Handler) SetActive(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req transport.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.SetUserActive(c.Request.Context(), domain.Role(id.Role()), userID, *req.Active); err != nil {
		httpkit.MapError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"updated": true})
}

func parseUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid user id", nil)
		return uuid.Nil, false
	}
	return userID, true
}

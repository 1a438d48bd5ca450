// Package httpkit provides shared HTTP utilities: responses, middleware and
// identity extraction. This is part of the platform layer.
package httpkit

import (
	"errors"
	"net/http"

	"funilzap_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error payload shape.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

func Error(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// MapError writes a domain error with its mapped HTTP status. Errors that are
// not apperr values are reported as internal without leaking their message.
func MapError(c *gin.Context, err error) {
	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		Error(c, domainErr.HTTPStatus(), domainErr.Message, domainErr.Details)
		return
	}
	Error(c, http.StatusInternalServerError, "internal error", nil)
}

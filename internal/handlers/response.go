package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classquest/classquest-backend/internal/pkg/apperr"
)

// Envelope is the uniform JSON response body.
type Envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

func respondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func respondCreated(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

func respondErr(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), Envelope{
		Success:   false,
		Message:   apperr.MessageOf(err),
		ErrorType: errorType(err),
		ErrorCode: apperr.CodeOf(err),
	})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{Success: false, Message: message, ErrorType: "validation"})
}

func errorType(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return "validation"
	case apperr.KindPermission:
		return "permission"
	case apperr.KindNotFound:
		return "not_found"
	case apperr.KindConflict:
		return "conflict"
	case apperr.KindRule:
		return "rule"
	default:
		return "internal"
	}
}

func HealthCheck(c *gin.Context) {
	respondOK(c, "ok", nil)
}

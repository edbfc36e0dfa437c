package api

import (
	"errors"
	"net/http"

	"mentorbook/internal/apperr"
	"mentorbook/internal/logger"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    apperr.Kind            `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// PageResponse wraps a slice of results with its paging window.
type PageResponse struct {
	Items  interface{} `json:"items"`
	Total  int         `json:"total"`
	Offset int         `json:"offset"`
	Limit  int         `json:"limit"`
}

const staleStateMessage = "state changed, please refresh"

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:             http.StatusBadRequest,
	apperr.KindInsufficientFunds:      http.StatusUnprocessableEntity,
	apperr.KindBelowMinimumWithdrawal: http.StatusUnprocessableEntity,
	apperr.KindInvalidTransition:      http.StatusConflict,
	apperr.KindMeetingNotConfigured:   http.StatusPreconditionFailed,
	apperr.KindNotFound:               http.StatusNotFound,
	apperr.KindUnauthorized:           http.StatusUnauthorized,
	apperr.KindForbidden:              http.StatusForbidden,
	apperr.KindRetryable:              http.StatusServiceUnavailable,
}

// StatusFor maps an application error to its HTTP status.
func StatusFor(err error) int {
	if status, ok := statusByKind[apperr.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// RespondError writes err as a JSON error body. Internal errors are logged
// and replaced with a generic message.
func RespondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := StatusFor(err)

	if status == http.StatusInternalServerError {
		logger.WithError(err).Error("request failed",
			"method", c.Request.Method, "path", c.FullPath())
		c.JSON(status, ErrorResponse{Error: "internal server error", Code: apperr.KindInternal})
		return
	}

	resp := ErrorResponse{Error: err.Error(), Code: kind}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		resp.Details = appErr.Details
	}
	if kind == apperr.KindInvalidTransition {
		details := map[string]interface{}{"reason": err.Error()}
		for k, v := range resp.Details {
			details[k] = v
		}
		resp.Error = staleStateMessage
		resp.Details = details
	}
	c.JSON(status, resp)
}

// BadRequest reports a malformed request body or parameter.
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: apperr.KindValidation})
}

func Unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
}

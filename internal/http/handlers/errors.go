package handlers

import (
	"errors"
	"net/http"

	"charter/internal/domain"
	"charter/internal/http/middleware"
	"charter/internal/payments"
	"charter/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Field     string `json:"field,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id"`
}

func respondError(c *gin.Context, status int, code, message string) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: middleware.GetRequestID(c),
	})
}

// RespondDomainError maps domain errors to HTTP responses. Anything that is
// not a typed domain error is logged and reported as a generic 500 so store
// details never reach the client.
func RespondDomainError(c *gin.Context, err error) {
	reqID := middleware.GetRequestID(c)
	resp := ErrorResponse{Error: err.Error(), RequestID: reqID}
	status := http.StatusInternalServerError

	var verr domain.ValidationError
	switch {
	case errors.As(err, &verr):
		status, resp.Code, resp.Field = http.StatusBadRequest, "validation_error", verr.Field
	case domain.IsNotFound(err):
		status, resp.Code = http.StatusNotFound, "not_found"
	case domain.IsConflict(err):
		status, resp.Code = http.StatusConflict, "conflict"
	case domain.IsUnauthorized(err):
		status, resp.Code = http.StatusUnauthorized, "unauthorized"
		resp.Reason = domain.UnauthorizedReason(err)
		resp.Error = "authentication required"
	default:
		resp.Code = "internal_error"
		resp.Error = "internal server error"
		// InternalError messages are written for clients; the wrapped cause is not.
		var ierr domain.InternalError
		if errors.As(err, &ierr) && ierr.Msg != "" {
			resp.Error = ierr.Msg
		}
		if errors.Is(err, payments.ErrNotConfigured) {
			status = http.StatusServiceUnavailable
		}
		utils.LogError(reqID, "http", c.Request.Method+" "+c.FullPath(), err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

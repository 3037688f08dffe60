// Package http wires the gin handlers for the operator and device APIs.
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainErrors "github.com/hanguyen1814/SmartLock/internal/domain/errors"
)

// ResponseError is the error body every endpoint returns.
type ResponseError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RespondWithError sends an error response and logs it.
func RespondWithError(c *gin.Context, statusCode int, message string, errorCode string, logger *zap.Logger) {
	logger.Warn("API error response",
		zap.Int("status_code", statusCode),
		zap.String("error_message", message),
		zap.String("error_code", errorCode),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)
	c.JSON(statusCode, ResponseError{Error: message, Code: errorCode})
}

// RespondWithData sends a plain data response.
func RespondWithData(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, data)
}

// RespondWithMessage sends a message-only response.
func RespondWithMessage(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"message": message})
}

// RespondDomainError maps a domain error to its HTTP status. Handlers
// call this after their own special cases. An AppError carries its own
// status and code and bypasses the class mapping.
func RespondDomainError(c *gin.Context, err error, logger *zap.Logger) {
	var appErr *domainErrors.AppError
	if errors.As(err, &appErr) {
		RespondWithError(c, appErr.StatusCode, appErr.Message, appErr.Code, logger)
		return
	}
	switch {
	case errors.Is(err, domainErrors.ErrRateLimitExceeded):
		RespondWithError(c, http.StatusTooManyRequests, "Too many attempts. Please try again later.", "rate_limited", logger)
	case errors.Is(err, domainErrors.Err2FAAlreadyEnabled),
		errors.Is(err, domainErrors.ErrSessionNotPending):
		RespondWithError(c, http.StatusConflict, err.Error(), "conflict", logger)
	case errors.Is(err, domainErrors.Err2FANotEnabled),
		errors.Is(err, domainErrors.Err2FANotProvisioned):
		RespondWithError(c, http.StatusBadRequest, err.Error(), "invalid_request", logger)
	case domainErrors.IsNotFound(err):
		RespondWithError(c, http.StatusNotFound, err.Error(), "not_found", logger)
	case domainErrors.IsUnauthorized(err):
		RespondWithError(c, http.StatusUnauthorized, err.Error(), "unauthorized", logger)
	case domainErrors.IsForbidden(err):
		RespondWithError(c, http.StatusForbidden, err.Error(), "forbidden", logger)
	case domainErrors.IsConflict(err):
		RespondWithError(c, http.StatusConflict, err.Error(), "conflict", logger)
	case domainErrors.IsBadRequest(err):
		RespondWithError(c, http.StatusBadRequest, err.Error(), "invalid_request", logger)
	default:
		logger.Error("unhandled domain error", zap.Error(err))
		RespondWithError(c, http.StatusInternalServerError, "Internal server error", "internal_error", logger)
	}
}

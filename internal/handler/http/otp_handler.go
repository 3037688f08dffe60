package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/hanguyen1814/SmartLock/internal/domain/errors"
	"github.com/hanguyen1814/SmartLock/internal/domain/models"
	"github.com/hanguyen1814/SmartLock/internal/domain/repository"
	"github.com/hanguyen1814/SmartLock/internal/domain/service"
	"github.com/hanguyen1814/SmartLock/internal/handler/http/middleware"
	"github.com/hanguyen1814/SmartLock/internal/utils/metrics"
)

// OtpHandler serves code issuance, listing and email verification.
type OtpHandler struct {
	otps   service.OtpService
	logger *zap.Logger
}

// NewOtpHandler creates the OTP handler.
func NewOtpHandler(otps service.OtpService, logger *zap.Logger) *OtpHandler {
	return &OtpHandler{otps: otps, logger: logger.Named("otp_handler")}
}

// Issue handles POST /otp/create.
func (h *OtpHandler) Issue(c *gin.Context) {
	var req models.IssueOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request payload", "invalid_request", h.logger)
		return
	}

	result, err := h.otps.Issue(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	metrics.OtpIssuedTotal.Inc()
	RespondWithData(c, http.StatusCreated, result)
}

// IssueForUser handles POST /users/:id/otp: the operator form of
// issuance where the path names the code's subject.
func (h *OtpHandler) IssueForUser(c *gin.Context) {
	var req models.IssueOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request payload", "invalid_request", h.logger)
		return
	}
	req.UserID = c.Param("id")

	result, err := h.otps.Issue(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	metrics.OtpIssuedTotal.Inc()
	RespondWithData(c, http.StatusCreated, result)
}

// Verify handles POST /otp/verify: the lock-independent, one-shot
// check by account email. No authentication; it behaves identically
// for unknown accounts and unknown codes.
func (h *OtpHandler) Verify(c *gin.Context) {
	var req models.VerifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request payload", "invalid_request", h.logger)
		return
	}

	if err := h.otps.VerifyByEmail(c.Request.Context(), req.Email, req.Otp); err != nil {
		if errors.Is(err, domainErrors.ErrOtpNotFound) {
			RespondWithError(c, http.StatusNotFound, "Invalid or expired code", "otp_not_found", h.logger)
			return
		}
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithMessage(c, http.StatusOK, "Code verified")
}

// List handles GET /otp.
func (h *OtpHandler) List(c *gin.Context) {
	params := repository.OtpListParams{Status: c.Query("status")}
	if raw := c.Query("userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondWithError(c, http.StatusBadRequest, "Malformed user ID", "invalid_request", h.logger)
			return
		}
		params.UserID = &id
	}
	if raw := c.Query("lockId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondWithError(c, http.StatusBadRequest, "Malformed lock ID", "invalid_request", h.logger)
			return
		}
		params.LockID = &id
	}

	items, err := h.otps.List(c.Request.Context(), middleware.CurrentUser(c), params)
	if err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, items)
}

package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainErrors "github.com/hanguyen1814/SmartLock/internal/domain/errors"
	"github.com/hanguyen1814/SmartLock/internal/domain/models"
	"github.com/hanguyen1814/SmartLock/internal/domain/service"
	"github.com/hanguyen1814/SmartLock/internal/handler/http/middleware"
)

// TwoFactorHandler serves TOTP enrollment and management for the
// authenticated user.
type TwoFactorHandler struct {
	twoFactor service.TwoFactorService
	logger    *zap.Logger
}

// NewTwoFactorHandler creates the 2FA handler.
func NewTwoFactorHandler(twoFactor service.TwoFactorService, logger *zap.Logger) *TwoFactorHandler {
	return &TwoFactorHandler{twoFactor: twoFactor, logger: logger.Named("two_factor_handler")}
}

// Setup handles POST /2fa/setup.
func (h *TwoFactorHandler) Setup(c *gin.Context) {
	user := middleware.CurrentUser(c)
	result, err := h.twoFactor.Provision(c.Request.Context(), user)
	if err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, result)
}

// Enable handles POST /2fa/enable.
func (h *TwoFactorHandler) Enable(c *gin.Context) {
	var req models.VerifyTwoFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request payload", "invalid_request", h.logger)
		return
	}

	user := middleware.CurrentUser(c)
	backupCodes, err := h.twoFactor.ConfirmEnable(c.Request.Context(), user, req.Token)
	if err != nil {
		if errors.Is(err, domainErrors.ErrInvalid2FACode) {
			RespondWithError(c, http.StatusUnauthorized, "Invalid two-factor code", "invalid_2fa_code", h.logger)
			return
		}
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, gin.H{
		"message":     "Two-factor authentication enabled",
		"backupCodes": backupCodes,
	})
}

// Disable handles POST /2fa/disable.
func (h *TwoFactorHandler) Disable(c *gin.Context) {
	var req models.DisableTwoFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request payload", "invalid_request", h.logger)
		return
	}

	user := middleware.CurrentUser(c)
	if err := h.twoFactor.Disable(c.Request.Context(), user, req.Password, req.BackupCode); err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithMessage(c, http.StatusOK, "Two-factor authentication disabled")
}

// Status handles GET /2fa/status.
func (h *TwoFactorHandler) Status(c *gin.Context) {
	user := middleware.CurrentUser(c)
	status, err := h.twoFactor.Status(c.Request.Context(), user)
	if err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, status)
}

// RegenerateBackupCodes handles POST /2fa/backup-codes/regenerate.
func (h *TwoFactorHandler) RegenerateBackupCodes(c *gin.Context) {
	user := middleware.CurrentUser(c)
	codes, err := h.twoFactor.RegenerateBackupCodes(c.Request.Context(), user)
	if err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, gin.H{"backupCodes": codes})
}

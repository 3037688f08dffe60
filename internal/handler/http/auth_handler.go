package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hanguyen1814/SmartLock/internal/config"
	domainErrors "github.com/hanguyen1814/SmartLock/internal/domain/errors"
	"github.com/hanguyen1814/SmartLock/internal/domain/models"
	"github.com/hanguyen1814/SmartLock/internal/domain/service"
	"github.com/hanguyen1814/SmartLock/internal/handler/http/middleware"
	"github.com/hanguyen1814/SmartLock/internal/utils/metrics"
)

// AuthHandler serves login, 2FA completion and logout.
type AuthHandler struct {
	auth   service.AuthService
	cfg    *config.Config
	logger *zap.Logger
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(auth service.AuthService, cfg *config.Config, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, cfg: cfg, logger: logger.Named("auth_handler")}
}

func clientMeta(c *gin.Context) models.ClientMeta {
	return models.ClientMeta{
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request payload", "invalid_request", h.logger)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req, clientMeta(c))
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		if errors.Is(err, domainErrors.ErrInvalidCredentials) {
			RespondWithError(c, http.StatusUnauthorized, "Invalid email or password", "invalid_credentials", h.logger)
			return
		}
		RespondDomainError(c, err, h.logger)
		return
	}

	if result.Pending {
		metrics.LoginAttemptsTotal.WithLabelValues("pending_2fa").Inc()
		RespondWithData(c, http.StatusOK, models.LoginPendingResponse{
			RequiresTwoFactor: true,
			SessionID:         result.SessionID.String(),
			Message:           "Two-factor authentication required",
		})
		return
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	h.setSessionCookie(c, result.Token)
	RespondWithData(c, http.StatusOK, gin.H{
		"token": result.Token,
		"user":  result.User.ToResponse(),
	})
}

// CompleteTwoFactor handles POST /auth/2fa.
func (h *AuthHandler) CompleteTwoFactor(c *gin.Context) {
	var req models.CompleteTwoFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request payload", "invalid_request", h.logger)
		return
	}

	result, err := h.auth.CompleteTwoFactor(c.Request.Context(), req, clientMeta(c))
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("2fa_failure").Inc()
		if errors.Is(err, domainErrors.ErrInvalid2FACode) {
			RespondWithError(c, http.StatusUnauthorized, "Invalid two-factor code", "invalid_2fa_code", h.logger)
			return
		}
		RespondDomainError(c, err, h.logger)
		return
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	h.setSessionCookie(c, result.Token)
	RespondWithData(c, http.StatusOK, gin.H{
		"token": result.Token,
		"user":  result.User.ToResponse(),
	})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetHeader("Authorization")
	if len(token) > 7 && token[:7] == "Bearer " {
		token = token[7:]
	} else if cookie, err := c.Cookie(h.cfg.JWT.CookieName); err == nil {
		token = cookie
	} else {
		token = ""
	}

	if token != "" {
		if err := h.auth.Logout(c.Request.Context(), token); err != nil && !domainErrors.IsUnauthorized(err) {
			RespondDomainError(c, err, h.logger)
			return
		}
	}
	h.clearSessionCookie(c)
	RespondWithMessage(c, http.StatusOK, "Logged out")
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		RespondWithError(c, http.StatusUnauthorized, "Authentication required", "unauthorized", h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, gin.H{"user": user.ToResponse()})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	maxAge := int(h.cfg.JWT.CookieTTL.Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cfg.JWT.CookieName, token, maxAge, "/", "", h.cfg.IsProduction(), true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cfg.JWT.CookieName, "", -1, "/", "", h.cfg.IsProduction(), true)
}

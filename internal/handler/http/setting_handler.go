package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hanguyen1814/SmartLock/internal/domain/models"
	"github.com/hanguyen1814/SmartLock/internal/domain/service"
)

// SettingHandler serves system-wide settings.
type SettingHandler struct {
	settings service.SettingService
	logger   *zap.Logger
}

// NewSettingHandler creates the settings handler.
func NewSettingHandler(settings service.SettingService, logger *zap.Logger) *SettingHandler {
	return &SettingHandler{settings: settings, logger: logger.Named("setting_handler")}
}

// Get handles GET /settings.
func (h *SettingHandler) Get(c *gin.Context) {
	values, err := h.settings.Get(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, values)
}

// Update handles PUT /settings.
func (h *SettingHandler) Update(c *gin.Context) {
	var req models.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request payload", "invalid_request", h.logger)
		return
	}
	if err := h.settings.Update(c.Request.Context(), req); err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithMessage(c, http.StatusOK, "Settings updated")
}

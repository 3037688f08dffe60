package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainErrors "github.com/hanguyen1814/SmartLock/internal/domain/errors"
	"github.com/hanguyen1814/SmartLock/internal/domain/models"
	"github.com/hanguyen1814/SmartLock/internal/domain/service"
	"github.com/hanguyen1814/SmartLock/internal/utils/metrics"
)

// DeviceHandler serves the firmware-facing API. POST bodies carry the
// device token; GET endpoints take it from the query string or the
// X-Device-Token header.
type DeviceHandler struct {
	devices service.DeviceService
	otps    service.OtpService
	logger  *zap.Logger
}

// NewDeviceHandler creates the device handler.
func NewDeviceHandler(devices service.DeviceService, otps service.OtpService, logger *zap.Logger) *DeviceHandler {
	return &DeviceHandler{devices: devices, otps: otps, logger: logger.Named("device_handler")}
}

// Register handles POST /device/register.
func (h *DeviceHandler) Register(c *gin.Context) {
	var req models.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request payload", "invalid_request", h.logger)
		return
	}
	device, err := h.devices.Register(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusCreated, device)
}

func (h *DeviceHandler) authenticate(c *gin.Context, token string) *models.Lock {
	lock, err := h.devices.Authenticate(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, domainErrors.ErrUnauthorized) {
			RespondWithError(c, http.StatusUnauthorized, "Invalid device token", "unauthorized", h.logger)
		} else {
			RespondDomainError(c, err, h.logger)
		}
		return nil
	}
	return lock
}

func queryToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	return c.GetHeader("X-Device-Token")
}

// Report handles POST /device/report.
func (h *DeviceHandler) Report(c *gin.Context) {
	var req models.ReportStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request payload", "invalid_request", h.logger)
		return
	}
	lock := h.authenticate(c, req.Token)
	if lock == nil {
		return
	}
	if err := h.devices.ReportStatus(c.Request.Context(), lock, req); err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, gin.H{
		"status":   lock.Status,
		"lastSeen": lock.LastSeen,
	})
}

// PollCommand handles GET /device/commands/next. The pending head is
// returned unchanged on every poll; passing ?ack=<id> first marks that
// entry as delivered.
func (h *DeviceHandler) PollCommand(c *gin.Context) {
	lock := h.authenticate(c, queryToken(c))
	if lock == nil {
		return
	}
	metrics.DevicePollsTotal.Inc()

	command, err := h.devices.PollCommand(c.Request.Context(), lock, c.Query("ack"))
	if err != nil {
		if errors.Is(err, domainErrors.ErrCommandNotFound) {
			// An empty queue is the normal case, not an error.
			RespondWithData(c, http.StatusOK, gin.H{"command": nil, "commandId": nil})
			return
		}
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, service.CommandPollResponse{
		Command:   command.Command,
		CommandID: command.ID,
		Metadata:  command.Metadata,
		IssuedAt:  command.CreatedAt,
	})
}

// ConsumeOtp handles POST /device/otp/consume.
func (h *DeviceHandler) ConsumeOtp(c *gin.Context) {
	var req models.ConsumeOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request payload", "invalid_request", h.logger)
		return
	}
	lock := h.authenticate(c, req.Token)
	if lock == nil {
		return
	}

	result, err := h.otps.Consume(c.Request.Context(), lock, req.Otp)
	if err != nil {
		if errors.Is(err, domainErrors.ErrOtpNotFound) {
			metrics.OtpConsumedTotal.WithLabelValues("rejected").Inc()
			RespondWithError(c, http.StatusNotFound, "Invalid or expired code", "otp_not_found", h.logger)
			return
		}
		RespondDomainError(c, err, h.logger)
		return
	}
	metrics.OtpConsumedTotal.WithLabelValues("accepted").Inc()
	RespondWithData(c, http.StatusOK, result)
}

// SyncLogs handles POST /device/logs.
func (h *DeviceHandler) SyncLogs(c *gin.Context) {
	var req models.SyncLogsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request payload", "invalid_request", h.logger)
		return
	}
	lock := h.authenticate(c, req.Token)
	if lock == nil {
		return
	}
	received := h.devices.IngestLogs(c.Request.Context(), lock, req.Logs)
	RespondWithData(c, http.StatusOK, gin.H{"received": received})
}

// Sync handles GET /device/sync.
func (h *DeviceHandler) Sync(c *gin.Context) {
	lock := h.authenticate(c, queryToken(c))
	if lock == nil {
		return
	}
	format := models.ParseSyncFormat(c.Query("format"))
	snapshot, err := h.devices.Snapshot(c.Request.Context(), lock, format)
	if err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, snapshot)
}

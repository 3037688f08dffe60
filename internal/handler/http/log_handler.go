package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hanguyen1814/SmartLock/internal/domain/models"
	"github.com/hanguyen1814/SmartLock/internal/domain/service"
)

// LogHandler serves the audit trail listing, export and dashboard.
type LogHandler struct {
	audit     service.AuditService
	dashboard service.DashboardService
	logger    *zap.Logger
}

// NewLogHandler creates the log handler.
func NewLogHandler(audit service.AuditService, dashboard service.DashboardService, logger *zap.Logger) *LogHandler {
	return &LogHandler{audit: audit, dashboard: dashboard, logger: logger.Named("log_handler")}
}

// List handles GET /logs.
func (h *LogHandler) List(c *gin.Context) {
	params := models.ListLogsParams{
		Action: c.Query("action"),
		Page:   1,
		Limit:  50,
	}
	if raw := c.Query("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page > 0 {
			params.Page = page
		}
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 && limit <= 500 {
			params.Limit = limit
		}
	}
	if raw := c.Query("lockId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondWithError(c, http.StatusBadRequest, "Malformed lock ID", "invalid_request", h.logger)
			return
		}
		params.LockID = &id
	}
	if raw := c.Query("userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondWithError(c, http.StatusBadRequest, "Malformed user ID", "invalid_request", h.logger)
			return
		}
		params.UserID = &id
	}

	entries, total, err := h.audit.List(c.Request.Context(), params)
	if err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, gin.H{
		"logs":  entries,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	})
}

// Export handles GET /logs/export.
func (h *LogHandler) Export(c *gin.Context) {
	data, err := h.audit.ExportCSV(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	filename := "access-logs-" + time.Now().UTC().Format("2006-01-02") + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// Dashboard handles GET /dashboard.
func (h *LogHandler) Dashboard(c *gin.Context) {
	summary, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, summary)
}

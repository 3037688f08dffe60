package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hanguyen1814/SmartLock/internal/domain/models"
	"github.com/hanguyen1814/SmartLock/internal/domain/service"
	"github.com/hanguyen1814/SmartLock/internal/handler/http/middleware"
	"github.com/hanguyen1814/SmartLock/internal/utils/metrics"
)

// LockHandler serves operator-side lock management and remote commands.
type LockHandler struct {
	locks  service.LockService
	logger *zap.Logger
}

// NewLockHandler creates the lock handler.
func NewLockHandler(locks service.LockService, logger *zap.Logger) *LockHandler {
	return &LockHandler{locks: locks, logger: logger.Named("lock_handler")}
}

// Create handles POST /locks.
func (h *LockHandler) Create(c *gin.Context) {
	var req models.CreateLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request payload", "invalid_request", h.logger)
		return
	}
	lock, err := h.locks.Create(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	// The device token is included once, at creation.
	RespondWithData(c, http.StatusCreated, gin.H{
		"lock":  lock,
		"token": lock.Token,
	})
}

// List handles GET /locks.
func (h *LockHandler) List(c *gin.Context) {
	locks, err := h.locks.List(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, locks)
}

// Get handles GET /locks/:id.
func (h *LockHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "Malformed lock ID", "invalid_request", h.logger)
		return
	}
	lock, err := h.locks.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, lock)
}

// Update handles PUT /locks/:id.
func (h *LockHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "Malformed lock ID", "invalid_request", h.logger)
		return
	}
	var req models.UpdateLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request payload", "invalid_request", h.logger)
		return
	}
	lock, err := h.locks.Update(c.Request.Context(), middleware.CurrentUser(c), id, req)
	if err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, lock)
}

// Delete handles DELETE /locks/:id.
func (h *LockHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "Malformed lock ID", "invalid_request", h.logger)
		return
	}
	if err := h.locks.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithMessage(c, http.StatusOK, "Lock deleted")
}

// AssignUsers handles PUT /locks/:id/users.
func (h *LockHandler) AssignUsers(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "Malformed lock ID", "invalid_request", h.logger)
		return
	}
	var req models.AssignUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request payload", "invalid_request", h.logger)
		return
	}
	if err := h.locks.AssignUsers(c.Request.Context(), middleware.CurrentUser(c), id, req.UserIDs); err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithMessage(c, http.StatusOK, "Assignments updated")
}

// AssignedUsers handles GET /locks/:id/users.
func (h *LockHandler) AssignedUsers(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "Malformed lock ID", "invalid_request", h.logger)
		return
	}
	users, err := h.locks.AssignedUsers(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	responses := make([]models.UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, u.ToResponse())
	}
	RespondWithData(c, http.StatusOK, responses)
}

// Open handles POST /locks/:id/open.
func (h *LockHandler) Open(c *gin.Context) {
	h.enqueue(c, models.CommandOpen)
}

// Close handles POST /locks/:id/close.
func (h *LockHandler) Close(c *gin.Context) {
	h.enqueue(c, models.CommandClose)
}

func (h *LockHandler) enqueue(c *gin.Context, command models.CommandType) {
	id, ok := parseIDParam(c)
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "Malformed lock ID", "invalid_request", h.logger)
		return
	}
	entry, err := h.locks.EnqueueCommand(c.Request.Context(), middleware.CurrentUser(c), id, command)
	if err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	metrics.CommandsEnqueuedTotal.WithLabelValues(string(command)).Inc()
	// 202: the command is queued, not executed. The device confirms on
	// its next report.
	RespondWithData(c, http.StatusAccepted, gin.H{
		"commandId": entry.ID,
		"status":    entry.Status,
	})
}

// Commands handles GET /locks/:id/commands.
func (h *LockHandler) Commands(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "Malformed lock ID", "invalid_request", h.logger)
		return
	}
	commands, err := h.locks.Commands(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, commands)
}

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hanguyen1814/SmartLock/internal/domain/models"
	"github.com/hanguyen1814/SmartLock/internal/domain/service"
	"github.com/hanguyen1814/SmartLock/internal/handler/http/middleware"
)

// UserHandler serves operator account management.
type UserHandler struct {
	users  service.UserService
	logger *zap.Logger
}

// NewUserHandler creates the user handler.
func NewUserHandler(users service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger.Named("user_handler")}
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /users.
func (h *UserHandler) Create(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request payload", "invalid_request", h.logger)
		return
	}

	user, err := h.users.Create(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusCreated, user.ToResponse())
}

// List handles GET /users.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
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

// Get handles GET /users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "Malformed user ID", "invalid_request", h.logger)
		return
	}
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, user.ToResponse())
}

// Update handles PUT /users/:id.
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "Malformed user ID", "invalid_request", h.logger)
		return
	}
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request payload", "invalid_request", h.logger)
		return
	}

	user, err := h.users.Update(c.Request.Context(), middleware.CurrentUser(c), id, req)
	if err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, user.ToResponse())
}

// Delete handles DELETE /users/:id.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "Malformed user ID", "invalid_request", h.logger)
		return
	}
	if err := h.users.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithMessage(c, http.StatusOK, "User deleted")
}

// ChangePin handles PUT /users/:id/pin. Users may change their own
// PIN; admins may change anyone's.
func (h *UserHandler) ChangePin(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "Malformed user ID", "invalid_request", h.logger)
		return
	}
	actor := middleware.CurrentUser(c)
	if !actor.IsAdmin() && actor.ID != id {
		RespondWithError(c, http.StatusForbidden, "Access denied", "forbidden", h.logger)
		return
	}

	var req models.ChangePinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid request payload", "invalid_request", h.logger)
		return
	}
	if err := h.users.ChangePin(c.Request.Context(), actor, id, req.Pin); err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithMessage(c, http.StatusOK, "PIN updated")
}

// ResetAccessCode handles POST /users/:id/access-code.
func (h *UserHandler) ResetAccessCode(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "Malformed user ID", "invalid_request", h.logger)
		return
	}
	accessCode, err := h.users.ResetAccessCode(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		RespondDomainError(c, err, h.logger)
		return
	}
	RespondWithData(c, http.StatusOK, gin.H{"accessCode": accessCode})
}

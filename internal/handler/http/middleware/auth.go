package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainErrors "github.com/hanguyen1814/SmartLock/internal/domain/errors"
	"github.com/hanguyen1814/SmartLock/internal/domain/models"
	"github.com/hanguyen1814/SmartLock/internal/domain/service"
)

const (
	// ContextAuthKey is where the authenticated identity lives in the
	// gin context.
	ContextAuthKey = "auth_context"
)

// AuthMiddleware authenticates operator requests. The credential is
// taken from the Authorization header or, for browsers, the session
// cookie. Every accepted request slides the session window.
func AuthMiddleware(auth service.AuthService, cookieName string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c, cookieName)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
				"code":  "unauthorized",
			})
			return
		}

		authCtx, err := auth.Validate(c.Request.Context(), token)
		if err != nil {
			status := http.StatusUnauthorized
			code := "unauthorized"
			if !domainErrors.IsUnauthorized(err) && !domainErrors.IsNotFound(err) {
				logger.Error("session validation failed", zap.Error(err))
				status = http.StatusInternalServerError
				code = "internal_error"
			}
			c.AbortWithStatusJSON(status, gin.H{
				"error": "Invalid or expired session",
				"code":  code,
			})
			return
		}

		c.Set(ContextAuthKey, authCtx)
		c.Next()
	}
}

// RequireAdmin rejects non-admin identities. Must run after
// AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		authCtx := GetAuthContext(c)
		if authCtx == nil || !authCtx.User.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Admin privileges required",
				"code":  "forbidden",
			})
			return
		}
		c.Next()
	}
}

// GetAuthContext returns the authenticated identity, or nil.
func GetAuthContext(c *gin.Context) *service.AuthContext {
	value, ok := c.Get(ContextAuthKey)
	if !ok {
		return nil
	}
	authCtx, ok := value.(*service.AuthContext)
	if !ok {
		return nil
	}
	return authCtx
}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if authCtx := GetAuthContext(c); authCtx != nil {
		return authCtx.User
	}
	return nil
}

func extractToken(c *gin.Context, cookieName string) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookieName != "" {
		if cookie, err := c.Cookie(cookieName); err == nil {
			return cookie
		}
	}
	return ""
}

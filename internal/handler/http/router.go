package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hanguyen1814/SmartLock/internal/config"
	"github.com/hanguyen1814/SmartLock/internal/domain/service"
	"github.com/hanguyen1814/SmartLock/internal/handler/http/middleware"
)

// RouterDeps bundles everything the router mounts.
type RouterDeps struct {
	Auth      *AuthHandler
	TwoFactor *TwoFactorHandler
	Users     *UserHandler
	Locks     *LockHandler
	Otps      *OtpHandler
	Logs      *LogHandler
	Settings  *SettingHandler
	Devices   *DeviceHandler
	Health    *HealthHandler

	AuthService service.AuthService
	Config      *config.Config
	Logger      *zap.Logger
}

// NewRouter builds the gin engine with the full route table.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.LoggingMiddleware(deps.Logger))
	router.Use(middleware.CorsMiddleware(deps.Config.Server.ClientOrigins))
	if deps.Config.Metrics.Enabled {
		router.Use(middleware.MetricsMiddleware())
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	router.GET("/healthz", deps.Health.Live)
	router.GET("/readyz", deps.Health.Ready)

	api := router.Group("/api/v1")

	// Unauthenticated surface.
	api.POST("/auth/login", deps.Auth.Login)
	api.POST("/auth/2fa", deps.Auth.CompleteTwoFactor)
	api.POST("/auth/logout", deps.Auth.Logout)
	api.POST("/otp/verify", deps.Otps.Verify)

	// Device surface, authenticated by device token.
	device := api.Group("/device")
	{
		device.POST("/register", deps.Devices.Register)
		device.POST("/report", deps.Devices.Report)
		device.GET("/commands/next", deps.Devices.PollCommand)
		device.POST("/otp/consume", deps.Devices.ConsumeOtp)
		device.POST("/logs", deps.Devices.SyncLogs)
		device.GET("/sync", deps.Devices.Sync)
	}

	// Operator surface, session-authenticated.
	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(deps.AuthService, deps.Config.JWT.CookieName, deps.Logger))
	{
		authed.GET("/auth/me", deps.Auth.Me)

		twoFA := authed.Group("/2fa")
		{
			twoFA.POST("/setup", deps.TwoFactor.Setup)
			twoFA.POST("/enable", deps.TwoFactor.Enable)
			twoFA.POST("/disable", deps.TwoFactor.Disable)
			twoFA.GET("/status", deps.TwoFactor.Status)
			twoFA.POST("/backup-codes/regenerate", deps.TwoFactor.RegenerateBackupCodes)
		}

		authed.POST("/otp/create", deps.Otps.Issue)
		authed.GET("/otp", deps.Otps.List)

		locks := authed.Group("/locks")
		{
			locks.GET("", deps.Locks.List)
			locks.GET("/:id", deps.Locks.Get)
			locks.POST("/:id/open", deps.Locks.Open)
			locks.POST("/:id/close", deps.Locks.Close)
			locks.GET("/:id/commands", deps.Locks.Commands)
		}

		authed.PUT("/users/:id/pin", deps.Users.ChangePin)
		authed.POST("/users/:id/otp", deps.Otps.IssueForUser)
		authed.GET("/dashboard", deps.Logs.Dashboard)

		// Admin-only management.
		admin := authed.Group("")
		admin.Use(middleware.RequireAdmin())
		{
			admin.POST("/users", deps.Users.Create)
			admin.GET("/users", deps.Users.List)
			admin.GET("/users/:id", deps.Users.Get)
			admin.PUT("/users/:id", deps.Users.Update)
			admin.DELETE("/users/:id", deps.Users.Delete)
			admin.POST("/users/:id/access-code", deps.Users.ResetAccessCode)

			admin.POST("/locks", deps.Locks.Create)
			admin.PUT("/locks/:id", deps.Locks.Update)
			admin.DELETE("/locks/:id", deps.Locks.Delete)
			admin.PUT("/locks/:id/users", deps.Locks.AssignUsers)
			admin.GET("/locks/:id/users", deps.Locks.AssignedUsers)

			admin.GET("/logs", deps.Logs.List)
			admin.GET("/logs/export", deps.Logs.Export)

			admin.GET("/settings", deps.Settings.Get)
			admin.PUT("/settings", deps.Settings.Update)
		}
	}

	return router
}

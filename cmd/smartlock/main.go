package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/hanguyen1814/SmartLock/internal/config"
	repoPostgres "github.com/hanguyen1814/SmartLock/internal/domain/repository/postgres"
	"github.com/hanguyen1814/SmartLock/internal/domain/service"
	eventsKafka "github.com/hanguyen1814/SmartLock/internal/events/kafka"
	httpHandler "github.com/hanguyen1814/SmartLock/internal/handler/http"
	"github.com/hanguyen1814/SmartLock/internal/infrastructure/ratelimit"
	"github.com/hanguyen1814/SmartLock/internal/infrastructure/security"
	"github.com/hanguyen1814/SmartLock/internal/utils/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("service exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		log.Info("running database migrations")
		m, err := migrate.New("file://migrations", migrationURL(cfg.Database))
		if err != nil {
			return fmt.Errorf("failed to create migration instance: %w", err)
		}
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	pool, err := newDBPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Redis backs rate limiting only; the service degrades to
	// unlimited rather than unavailable when it is absent.
	var limiter ratelimit.RateLimiter = ratelimit.NoopRateLimiter{}
	if cfg.Security.RateLimiting.Enabled {
		redisClient, err := newRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			limiter = ratelimit.NewRedisRateLimiter(redisClient, true, log)
		}
	}

	var producer eventsKafka.EventProducer = eventsKafka.NoopProducer{}
	if cfg.Kafka.Enabled {
		kafkaProducer := eventsKafka.NewProducer(cfg.Kafka.Brokers,
			cfg.Kafka.AuditTopic, cfg.Kafka.CommandTopic, "smartlock-access-service", log)
		defer kafkaProducer.Close()
		producer = kafkaProducer
	}

	// Repositories.
	userRepo := repoPostgres.NewUserRepositoryPostgres(pool)
	backupCodeRepo := repoPostgres.NewBackupCodeRepositoryPostgres(pool)
	sessionRepo := repoPostgres.NewSessionRepositoryPostgres(pool)
	otpRepo := repoPostgres.NewOtpRepositoryPostgres(pool)
	lockRepo := repoPostgres.NewLockRepositoryPostgres(pool)
	commandRepo := repoPostgres.NewLockCommandRepositoryPostgres(pool)
	userLockRepo := repoPostgres.NewUserLockRepositoryPostgres(pool)
	auditRepo := repoPostgres.NewAuditLogRepositoryPostgres(pool)
	settingRepo := repoPostgres.NewSettingRepositoryPostgres(pool)

	// Infrastructure services.
	passwords := security.NewArgon2idPasswordService(nil)
	tokens := security.NewHMACTokenService(cfg.JWT.Secret, cfg.JWT.TokenTTL, cfg.JWT.Issuer)
	totp := security.NewTOTPService(cfg.TwoFA.Issuer)
	encryption := security.NewAESGCMEncryptionService()

	// Domain services.
	auditService := service.NewAuditService(auditRepo, producer, log)
	settingService := service.NewSettingService(settingRepo, cfg, log)
	twoFactorService := service.NewTwoFactorService(userRepo, backupCodeRepo, totp, passwords, encryption, auditService, cfg, log)
	authService := service.NewAuthService(userRepo, sessionRepo, passwords, tokens, twoFactorService, auditService, limiter, cfg, log)
	userService := service.NewUserService(userRepo, userLockRepo, passwords, auditService, log)
	lockService := service.NewLockService(lockRepo, commandRepo, userLockRepo, auditService, producer, log)
	otpService := service.NewOtpService(otpRepo, userRepo, lockRepo, userLockRepo, settingService, auditService, cfg, log)
	deviceService := service.NewDeviceService(lockRepo, commandRepo, userLockRepo, userRepo, otpRepo, settingService, auditService, log)
	dashboardService := service.NewDashboardService(userRepo, lockRepo, auditService, log)

	if err := userService.EnsureAdmin(ctx, os.Getenv("SMARTLOCK_ADMIN_EMAIL"), os.Getenv("SMARTLOCK_ADMIN_PASSWORD")); err != nil {
		return fmt.Errorf("failed to bootstrap admin account: %w", err)
	}

	sweeper := service.NewSweeper(otpRepo, sessionRepo, cfg.Otp.SweepInterval, log)
	go sweeper.Run(ctx)

	router := httpHandler.NewRouter(httpHandler.RouterDeps{
		Auth:        httpHandler.NewAuthHandler(authService, cfg, log),
		TwoFactor:   httpHandler.NewTwoFactorHandler(twoFactorService, log),
		Users:       httpHandler.NewUserHandler(userService, log),
		Locks:       httpHandler.NewLockHandler(lockService, log),
		Otps:        httpHandler.NewOtpHandler(otpService, log),
		Logs:        httpHandler.NewLogHandler(auditService, dashboardService, log),
		Settings:    httpHandler.NewSettingHandler(settingService, log),
		Devices:     httpHandler.NewDeviceHandler(deviceService, otpService, log),
		Health:      httpHandler.NewHealthHandler(pool),
		AuthService: authService,
		Config:      cfg,
		Logger:      log,
	})

	server := newHTTPServer(cfg.Server, router)
	return runHTTPServer(ctx, server, cfg.Server.ShutdownTimeout, log)
}

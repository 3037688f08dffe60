package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hanguyen1814/SmartLock/internal/config"
	domainErrors "github.com/hanguyen1814/SmartLock/internal/domain/errors"
	"github.com/hanguyen1814/SmartLock/internal/domain/models"
	"github.com/hanguyen1814/SmartLock/internal/domain/repository"
	"github.com/hanguyen1814/SmartLock/internal/infrastructure/ratelimit"
	"github.com/hanguyen1814/SmartLock/internal/infrastructure/security"
	"github.com/hanguyen1814/SmartLock/internal/utils/random"
)

// LoginResult is what a successful (or 2FA-pending) login yields.
type LoginResult struct {
	// Pending means the password was right but the account requires a
	// second factor: SessionID identifies the half-open session and no
	// credential has been issued yet.
	Pending   bool
	SessionID uuid.UUID
	Token     string
	User      *models.User
}

// AuthContext is the identity attached to an authenticated request.
type AuthContext struct {
	User    *models.User
	Session *models.Session
}

// AuthService owns login, session validation and logout.
type AuthService interface {
	// Login verifies credentials. With 2FA enabled it opens a pending
	// session instead of issuing a credential.
	Login(ctx context.Context, req models.LoginRequest, meta models.ClientMeta) (*LoginResult, error)
	// CompleteTwoFactor turns a pending session into a live one after
	// a valid TOTP code or backup code.
	CompleteTwoFactor(ctx context.Context, req models.CompleteTwoFactorRequest, meta models.ClientMeta) (*LoginResult, error)
	// Validate authenticates a request credential. Every success
	// slides the session's inactivity window forward.
	Validate(ctx context.Context, tokenString string) (*AuthContext, error)
	// Logout revokes the session behind a credential. Revoking an
	// already-dead session is not an error.
	Logout(ctx context.Context, tokenString string) error
}

type authService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	passwords  security.PasswordService
	tokens     security.TokenService
	twoFactor  TwoFactorService
	audit      AuditService
	limiter    ratelimit.RateLimiter
	cfg        *config.Config
	logger     *zap.Logger
}

// NewAuthService creates the authentication service.
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	passwords security.PasswordService,
	tokens security.TokenService,
	twoFactor TwoFactorService,
	audit AuditService,
	limiter ratelimit.RateLimiter,
	cfg *config.Config,
	logger *zap.Logger,
) AuthService {
	return &authService{
		users:     users,
		sessions:  sessions,
		passwords: passwords,
		tokens:    tokens,
		twoFactor: twoFactor,
		audit:     audit,
		limiter:   limiter,
		cfg:       cfg,
		logger:    logger.Named("auth_service"),
	}
}

func (s *authService) Login(ctx context.Context, req models.LoginRequest, meta models.ClientMeta) (*LoginResult, error) {
	rule := s.cfg.Security.RateLimiting.LoginPerIP
	if rule.Enabled && meta.IPAddress != "" {
		allowed, err := s.limiter.Allow(ctx, "login:"+meta.IPAddress, rule.Limit, rule.Window)
		if err == nil && !allowed {
			return nil, domainErrors.ErrRateLimitExceeded
		}
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if domainErrors.IsNotFound(err) {
			// Same answer as a wrong password; account existence is
			// not observable through the login endpoint.
			return nil, domainErrors.ErrInvalidCredentials
		}
		return nil, err
	}

	match, err := s.passwords.CheckPasswordHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		return nil, domainErrors.ErrInvalidCredentials
	}

	now := time.Now().UTC()

	if user.TwoFactor.Enabled {
		session, err := s.createSession(ctx, user, meta, now, true)
		if err != nil {
			return nil, err
		}
		s.audit.Record(ctx, &user.ID, nil, models.ActionLoginPending2FA, map[string]any{
			"sessionId": session.ID.String(),
			"ip":        meta.IPAddress,
		})
		return &LoginResult{Pending: true, SessionID: session.ID, User: user}, nil
	}

	session, err := s.createSession(ctx, user, meta, now, false)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(user.ID, session.ID, session.TokenID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to issue credential: %w", err)
	}
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to stamp last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	s.audit.Record(ctx, &user.ID, nil, models.ActionLogin, map[string]any{
		"ip":        meta.IPAddress,
		"userAgent": meta.UserAgent,
	})
	return &LoginResult{SessionID: session.ID, Token: token, User: user}, nil
}

// createSession opens a session row. A pending-2FA session is born
// revoked with a short completion window; completing the second factor
// activates it.
func (s *authService) createSession(ctx context.Context, user *models.User, meta models.ClientMeta, now time.Time, pending2FA bool) (*models.Session, error) {
	tokenID, err := random.Hex(16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token ID: %w", err)
	}

	session := &models.Session{
		ID:           uuid.New(),
		UserID:       user.ID,
		TokenID:      tokenID,
		UserAgent:    meta.UserAgent,
		IPAddress:    meta.IPAddress,
		LastActiveAt: now,
		ExpiresAt:    now.Add(s.cfg.Session.InactivityWindow),
	}
	if pending2FA {
		revokedAt := now
		session.RevokedAt = &revokedAt
		session.ExpiresAt = now.Add(models.Pending2FATTL)
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *authService) CompleteTwoFactor(ctx context.Context, req models.CompleteTwoFactorRequest, meta models.ClientMeta) (*LoginResult, error) {
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed session id", domainErrors.ErrInvalidRequest)
	}

	rule := s.cfg.Security.RateLimiting.TwoFAPerSession
	if rule.Enabled {
		allowed, err := s.limiter.Allow(ctx, "2fa:"+sessionID.String(), rule.Limit, rule.Window)
		if err == nil && !allowed {
			return nil, domainErrors.ErrRateLimitExceeded
		}
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsPending2FA() {
		return nil, domainErrors.ErrSessionNotPending
	}
	now := time.Now().UTC()
	if session.IsExpired(now) {
		// The completion window has lapsed; the handle is dead.
		if err := s.sessions.Delete(ctx, session.ID); err != nil && !domainErrors.IsNotFound(err) {
			s.logger.Warn("failed to delete lapsed pending session", zap.Error(err))
		}
		return nil, domainErrors.ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.twoFactor.Verify(ctx, user, req.Token, req.BackupCode); err != nil {
		s.audit.Record(ctx, &user.ID, nil, models.ActionLogin2FAFailed, map[string]any{
			"sessionId": session.ID.String(),
			"ip":        meta.IPAddress,
		})
		return nil, err
	}

	expiresAt := now.Add(s.cfg.Session.InactivityWindow)
	if err := s.sessions.Activate(ctx, session.ID, expiresAt); err != nil {
		return nil, err
	}
	session.RevokedAt = nil
	session.LastActiveAt = now
	session.ExpiresAt = expiresAt

	token, err := s.tokens.Issue(user.ID, session.ID, session.TokenID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to issue credential: %w", err)
	}
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to stamp last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	s.audit.Record(ctx, &user.ID, nil, models.ActionLogin, map[string]any{
		"ip":        meta.IPAddress,
		"twoFactor": true,
	})
	return &LoginResult{SessionID: session.ID, Token: token, User: user}, nil
}

func (s *authService) Validate(ctx context.Context, tokenString string) (*AuthContext, error) {
	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return nil, domainErrors.ErrInvalidToken
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	window := s.cfg.Session.InactivityWindow
	switch {
	case session.IsPending2FA():
		// A pending session authenticates nothing. An established
		// session with RevokedAt set was logged out; either way the
		// credential is refused.
		return nil, domainErrors.ErrSessionRevoked
	case session.IsExpired(now), session.IsInactive(now, window):
		// Lazy cleanup: the row is useless, drop it on sight.
		if err := s.sessions.Delete(ctx, session.ID); err != nil && !domainErrors.IsNotFound(err) {
			s.logger.Warn("failed to delete expired session", zap.Error(err))
		}
		return nil, domainErrors.ErrSessionExpired
	}

	if session.TokenID != claims.ID {
		return nil, domainErrors.ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	// Slide the window. The touch is advisory: if it fails the request
	// still proceeds on the already-validated state.
	expiresAt := now.Add(window)
	if err := s.sessions.Touch(ctx, session.ID, now, expiresAt); err != nil {
		s.logger.Warn("failed to slide session window",
			zap.String("session_id", session.ID.String()), zap.Error(err))
	} else {
		session.LastActiveAt = now
		session.ExpiresAt = expiresAt
	}

	return &AuthContext{User: user, Session: session}, nil
}

func (s *authService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		return err
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return domainErrors.ErrInvalidToken
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if domainErrors.IsNotFound(err) {
			return nil
		}
		return err
	}

	now := time.Now().UTC()
	if err := s.sessions.Revoke(ctx, session.ID, now); err != nil && !domainErrors.IsNotFound(err) {
		return err
	}
	s.audit.Record(ctx, &session.UserID, nil, models.ActionLogout, nil)
	return nil
}

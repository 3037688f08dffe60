package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/hanguyen1814/SmartLock/internal/domain/errors"
	"github.com/hanguyen1814/SmartLock/internal/domain/models"
	"github.com/hanguyen1814/SmartLock/internal/domain/repository"
	"github.com/hanguyen1814/SmartLock/internal/infrastructure/security"
	"github.com/hanguyen1814/SmartLock/internal/utils/random"
)

// UserService manages operator accounts.
type UserService interface {
	Create(ctx context.Context, actor *models.User, req models.CreateUserRequest) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, actor *models.User, id uuid.UUID, req models.UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, actor *models.User, id uuid.UUID) error
	// ChangePin replaces a user's keypad PIN.
	ChangePin(ctx context.Context, actor *models.User, id uuid.UUID, pin string) error
	// ResetAccessCode rotates a user's device access code.
	ResetAccessCode(ctx context.Context, actor *models.User, id uuid.UUID) (string, error)
	// EnsureAdmin creates the bootstrap admin account when the user
	// table is empty.
	EnsureAdmin(ctx context.Context, email, password string) error
}

type userService struct {
	users     repository.UserRepository
	userLocks repository.UserLockRepository
	passwords security.PasswordService
	audit     AuditService
	logger    *zap.Logger
}

// NewUserService creates the user service.
func NewUserService(
	users repository.UserRepository,
	userLocks repository.UserLockRepository,
	passwords security.PasswordService,
	audit AuditService,
	logger *zap.Logger,
) UserService {
	return &userService{
		users:     users,
		userLocks: userLocks,
		passwords: passwords,
		audit:     audit,
		logger:    logger.Named("user_service"),
	}
}

func (s *userService) Create(ctx context.Context, actor *models.User, req models.CreateUserRequest) (*models.User, error) {
	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	pin := req.Pin
	if pin == "" {
		pin, err = random.Pin()
		if err != nil {
			return nil, fmt.Errorf("failed to generate pin: %w", err)
		}
	} else if !models.IsValidPin(pin) {
		return nil, domainErrors.ErrInvalidPin
	}
	accessCode, err := random.AccessCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate access code: %w", err)
	}

	role := req.Role
	if role != models.RoleAdmin {
		role = models.RoleUser
	}
	otpExpiry := req.OtpExpiry
	if otpExpiry < 0 {
		otpExpiry = 0
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Pin:          pin,
		AccessCode:   accessCode,
		Role:         role,
		OtpEnabled:   req.OtpEnabled,
		OtpExpiry:    otpExpiry,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actor.ID, nil, models.ActionUserCreate, map[string]any{
		"targetUserId": user.ID.String(),
		"email":        user.Email,
	})
	return user, nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *userService) List(ctx context.Context) ([]*models.User, error) {
	return s.users.List(ctx)
}

func (s *userService) Update(ctx context.Context, actor *models.User, id uuid.UUID, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Password != nil {
		hash, err := s.passwords.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	if req.Role != nil {
		// Only admins may grant or revoke the admin role.
		if !actor.IsAdmin() {
			return nil, domainErrors.ErrForbidden
		}
		if *req.Role == models.RoleAdmin {
			user.Role = models.RoleAdmin
		} else {
			user.Role = models.RoleUser
		}
	}
	if req.OtpEnabled != nil {
		user.OtpEnabled = *req.OtpEnabled
	}
	if req.OtpExpiry != nil && *req.OtpExpiry >= 0 {
		user.OtpExpiry = *req.OtpExpiry
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &actor.ID, nil, models.ActionUserUpdate, map[string]any{
		"targetUserId": user.ID.String(),
	})
	return user, nil
}

func (s *userService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if actor.ID == id {
		return fmt.Errorf("%w: cannot delete own account", domainErrors.ErrInvalidRequest)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, &actor.ID, nil, models.ActionUserDelete, map[string]any{
		"targetUserId": id.String(),
	})
	return nil
}

func (s *userService) ChangePin(ctx context.Context, actor *models.User, id uuid.UUID, pin string) error {
	if !models.IsValidPin(pin) {
		return domainErrors.ErrInvalidPin
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	user.Pin = pin
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	s.audit.Record(ctx, &actor.ID, nil, models.ActionUserPinChange, map[string]any{
		"targetUserId": id.String(),
	})
	return nil
}

func (s *userService) ResetAccessCode(ctx context.Context, actor *models.User, id uuid.UUID) (string, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	accessCode, err := random.AccessCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate access code: %w", err)
	}
	user.AccessCode = accessCode
	if err := s.users.Update(ctx, user); err != nil {
		return "", err
	}
	s.audit.Record(ctx, &actor.ID, nil, models.ActionUserCodeReset, map[string]any{
		"targetUserId": id.String(),
	})
	return accessCode, nil
}

func (s *userService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	count, err := s.users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := s.passwords.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap password: %w", err)
	}
	pin, err := random.Pin()
	if err != nil {
		return fmt.Errorf("failed to generate pin: %w", err)
	}
	accessCode, err := random.AccessCode()
	if err != nil {
		return fmt.Errorf("failed to generate access code: %w", err)
	}

	admin := &models.User{
		ID:           uuid.New(),
		Name:         "Administrator",
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Pin:          pin,
		AccessCode:   accessCode,
		Role:         models.RoleAdmin,
		OtpEnabled:   true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}
	s.logger.Info("bootstrap admin account created", zap.String("email", admin.Email))
	return nil
}

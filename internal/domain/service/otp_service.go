package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hanguyen1814/SmartLock/internal/config"
	domainErrors "github.com/hanguyen1814/SmartLock/internal/domain/errors"
	"github.com/hanguyen1814/SmartLock/internal/domain/models"
	"github.com/hanguyen1814/SmartLock/internal/domain/repository"
	"github.com/hanguyen1814/SmartLock/internal/utils/random"
)

const otpCodeDigits = 6

// maxCodeGenerationAttempts bounds the retry loop on (user, lock, code)
// collisions. Six random digits collide rarely; three tries is plenty.
const maxCodeGenerationAttempts = 3

// OtpService issues, redeems and lists one-time codes.
type OtpService interface {
	// Issue creates a code for a subject user on a lock; the subject
	// defaults to the actor and issuing for someone else is admin-only.
	// The plaintext code is returned once; issuance also prunes expired
	// codes in the scope and evicts the oldest actives beyond the
	// ceiling.
	Issue(ctx context.Context, actor *models.User, req models.IssueOtpRequest) (*models.IssuedOtpResponse, error)
	// Consume redeems a code a device heard on its keypad.
	Consume(ctx context.Context, lock *models.Lock, code string) (*models.ConsumeResult, error)
	// VerifyByEmail checks a code against an account and destroys it
	// unconditionally, whatever its remaining uses.
	VerifyByEmail(ctx context.Context, email, code string) error
	// List returns the operator view of issued codes.
	List(ctx context.Context, actor *models.User, params repository.OtpListParams) ([]models.OtpListItem, error)
}

type otpService struct {
	otps      repository.OtpRepository
	users     repository.UserRepository
	locks     repository.LockRepository
	userLocks repository.UserLockRepository
	settings  SettingService
	audit     AuditService
	cfg       *config.Config
	logger    *zap.Logger
}

// NewOtpService creates the OTP service.
func NewOtpService(
	otps repository.OtpRepository,
	users repository.UserRepository,
	locks repository.LockRepository,
	userLocks repository.UserLockRepository,
	settings SettingService,
	audit AuditService,
	cfg *config.Config,
	logger *zap.Logger,
) OtpService {
	return &otpService{
		otps:      otps,
		users:     users,
		locks:     locks,
		userLocks: userLocks,
		settings:  settings,
		audit:     audit,
		cfg:       cfg,
		logger:    logger.Named("otp_service"),
	}
}

func (s *otpService) Issue(ctx context.Context, actor *models.User, req models.IssueOtpRequest) (*models.IssuedOtpResponse, error) {
	subject, err := s.resolveSubject(ctx, actor, req.UserID)
	if err != nil {
		return nil, err
	}

	lockID, err := uuid.Parse(req.LockID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed lock id", domainErrors.ErrInvalidRequest)
	}
	lock, err := s.locks.GetByID(ctx, lockID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		assigned, err := s.userLocks.Exists(ctx, subject.ID, lock.ID)
		if err != nil {
			return nil, err
		}
		if !assigned {
			return nil, domainErrors.ErrForbidden
		}
	}

	now := time.Now().UTC()
	expiresAt := s.resolveExpiry(ctx, subject, req.OtpExpiry, now)
	maxUses := models.NormalizeMaxUses(req.MaxUses)

	// Housekeeping before the ceiling check: expired codes in the
	// scope do not count against it.
	if err := s.otps.DeleteExpiredScoped(ctx, subject.ID, &lock.ID, now); err != nil {
		s.logger.Warn("failed to prune expired codes in scope", zap.Error(err))
	}
	active, err := s.otps.ListActiveScoped(ctx, subject.ID, &lock.ID, now)
	if err != nil {
		return nil, err
	}
	if len(active) >= models.MaxActiveOtpsPerScope {
		// Keep the newest ceiling-1 actives; the new code fills the
		// last slot.
		var evict []uuid.UUID
		for _, o := range active[models.MaxActiveOtpsPerScope-1:] {
			evict = append(evict, o.ID)
		}
		if err := s.otps.DeleteByIDs(ctx, evict); err != nil {
			return nil, err
		}
	}

	otp, err := s.createWithUniqueCode(ctx, subject.ID, actor.ID, lock, expiresAt, maxUses)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actor.ID, &lock.ID, models.ActionOtpCreate, map[string]any{
		"targetUser": subject.ID,
		"maxUses":    otp.MaxUses,
		"expiresAt":  otp.ExpiresAt,
	})
	return &models.IssuedOtpResponse{
		Otp:       otp.Code,
		ExpiresAt: otp.ExpiresAt,
		MaxUses:   otp.MaxUses,
	}, nil
}

// resolveSubject picks the account a code is minted for. An empty id
// means the caller; minting for anyone else is admin-only.
func (s *otpService) resolveSubject(ctx context.Context, actor *models.User, rawID string) (*models.User, error) {
	if rawID == "" {
		return actor, nil
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed user id", domainErrors.ErrInvalidRequest)
	}
	if id == actor.ID {
		return actor, nil
	}
	if !actor.IsAdmin() {
		return nil, domainErrors.ErrForbidden
	}
	return s.users.GetByID(ctx, id)
}

// resolveExpiry picks the TTL source: explicit request value, then the
// subject's per-user default, then the system-wide setting.
func (s *otpService) resolveExpiry(ctx context.Context, subject *models.User, requested *int, now time.Time) time.Time {
	if requested != nil {
		return models.ExpiryFromTTL(now, requested)
	}
	if subject.OtpExpiry > 0 {
		ttl := subject.OtpExpiry
		return models.ExpiryFromTTL(now, &ttl)
	}
	ttl := s.settings.OtpDefaultExpiry(ctx)
	return models.ExpiryFromTTL(now, &ttl)
}

func (s *otpService) createWithUniqueCode(ctx context.Context, subjectID, issuedBy uuid.UUID, lock *models.Lock, expiresAt time.Time, maxUses int) (*models.Otp, error) {
	for attempt := 0; attempt < maxCodeGenerationAttempts; attempt++ {
		code, err := random.NumericCode(otpCodeDigits)
		if err != nil {
			return nil, fmt.Errorf("failed to generate code: %w", err)
		}
		otp := &models.Otp{
			ID:        uuid.New(),
			UserID:    subjectID,
			LockID:    &lock.ID,
			CreatedBy: issuedBy,
			Code:      code,
			ExpiresAt: expiresAt,
			MaxUses:   maxUses,
		}
		err = s.otps.Create(ctx, otp)
		if err == nil {
			return otp, nil
		}
		if !errors.Is(err, domainErrors.ErrAlreadyExists) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: could not allocate a unique code", domainErrors.ErrAlreadyExists)
}

func (s *otpService) Consume(ctx context.Context, lock *models.Lock, code string) (*models.ConsumeResult, error) {
	now := time.Now().UTC()
	otp, err := s.otps.Consume(ctx, lock.ID, code, now)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &otp.UserID, &lock.ID, models.ActionOtpConsume, map[string]any{
		"usedCount": otp.UsedCount,
		"maxUses":   otp.MaxUses,
	})
	return &models.ConsumeResult{
		UsedCount:     otp.UsedCount,
		MaxUses:       otp.MaxUses,
		RemainingUses: otp.RemainingUses(),
	}, nil
}

func (s *otpService) VerifyByEmail(ctx context.Context, email, code string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if domainErrors.IsNotFound(err) {
			return domainErrors.ErrOtpNotFound
		}
		return err
	}

	otp, err := s.otps.FindByUserAndCode(ctx, user.ID, code)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if otp.IsExpired(now) {
		// Destroy the stale row; the answer is still not-found.
		if err := s.otps.Delete(ctx, otp.ID); err != nil && !domainErrors.IsNotFound(err) {
			s.logger.Warn("failed to delete expired code", zap.Error(err))
		}
		return domainErrors.ErrOtpNotFound
	}

	// One-shot semantics: verification retires the code regardless of
	// how many uses it had left.
	if err := s.otps.Delete(ctx, otp.ID); err != nil && !domainErrors.IsNotFound(err) {
		return err
	}
	s.audit.Record(ctx, &user.ID, otp.LockID, models.ActionOtpVerify, nil)
	return nil
}

func (s *otpService) List(ctx context.Context, actor *models.User, params repository.OtpListParams) ([]models.OtpListItem, error) {
	if !actor.IsAdmin() {
		// Non-admins only ever see their own codes.
		params.UserID = &actor.ID
	}
	params.Now = time.Now().UTC()

	otps, err := s.otps.List(ctx, params)
	if err != nil {
		return nil, err
	}

	userRefs := map[uuid.UUID]*models.UserRef{}
	lockRefs := map[uuid.UUID]*models.LockRef{}
	items := make([]models.OtpListItem, 0, len(otps))
	for _, o := range otps {
		item := models.OtpListItem{
			ID:            o.ID,
			Code:          o.Code,
			ExpiresAt:     o.ExpiresAt,
			IsExpired:     o.IsExpired(params.Now),
			IsUnlimited:   o.IsUnlimited(params.Now),
			MaxUses:       o.MaxUses,
			UsedCount:     o.UsedCount,
			RemainingUses: o.RemainingUses(),
			IsExhausted:   o.IsExhausted(),
			CreatedAt:     o.CreatedAt,
		}
		if !item.IsUnlimited {
			seconds := int(o.ExpiresAt.Sub(params.Now).Seconds())
			if seconds < 0 {
				seconds = 0
			}
			item.ExpiresIn = &seconds
		}
		item.User = s.userRef(ctx, userRefs, o.UserID)
		item.CreatedBy = s.userRef(ctx, userRefs, o.CreatedBy)
		if o.LockID != nil {
			item.Lock = s.lockRef(ctx, lockRefs, *o.LockID)
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *otpService) userRef(ctx context.Context, cache map[uuid.UUID]*models.UserRef, id uuid.UUID) *models.UserRef {
	if ref, ok := cache[id]; ok {
		return ref
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		cache[id] = nil
		return nil
	}
	ref := &models.UserRef{ID: user.ID, Name: user.Name, Email: user.Email, AccessCode: user.AccessCode}
	cache[id] = ref
	return ref
}

func (s *otpService) lockRef(ctx context.Context, cache map[uuid.UUID]*models.LockRef, id uuid.UUID) *models.LockRef {
	if ref, ok := cache[id]; ok {
		return ref
	}
	lock, err := s.locks.GetByID(ctx, id)
	if err != nil {
		cache[id] = nil
		return nil
	}
	ref := &models.LockRef{ID: lock.ID, Name: lock.Name, Location: lock.Location}
	cache[id] = ref
	return ref
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/hanguyen1814/SmartLock/internal/domain/errors"
	"github.com/hanguyen1814/SmartLock/internal/domain/models"
	"github.com/hanguyen1814/SmartLock/internal/domain/repository"
	"github.com/hanguyen1814/SmartLock/internal/events/kafka"
	"github.com/hanguyen1814/SmartLock/internal/utils/random"
)

// LockService manages devices and their command queues from the
// operator side.
type LockService interface {
	Create(ctx context.Context, actor *models.User, req models.CreateLockRequest) (*models.Lock, error)
	Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Lock, error)
	// List returns the locks visible to the actor: all of them for an
	// admin, assigned ones otherwise.
	List(ctx context.Context, actor *models.User) ([]*models.Lock, error)
	Update(ctx context.Context, actor *models.User, id uuid.UUID, req models.UpdateLockRequest) (*models.Lock, error)
	Delete(ctx context.Context, actor *models.User, id uuid.UUID) error
	// AssignUsers replaces the set of users allowed on a lock.
	AssignUsers(ctx context.Context, actor *models.User, id uuid.UUID, userIDs []string) error
	AssignedUsers(ctx context.Context, id uuid.UUID) ([]*models.User, error)
	// EnqueueCommand appends an open/close command to the device's
	// FIFO queue. The device learns about it on its next poll.
	EnqueueCommand(ctx context.Context, actor *models.User, id uuid.UUID, command models.CommandType) (*models.LockCommand, error)
	Commands(ctx context.Context, actor *models.User, id uuid.UUID) ([]*models.LockCommand, error)
}

type lockService struct {
	locks     repository.LockRepository
	commands  repository.LockCommandRepository
	userLocks repository.UserLockRepository
	audit     AuditService
	producer  kafka.EventProducer
	logger    *zap.Logger
}

// NewLockService creates the lock service.
func NewLockService(
	locks repository.LockRepository,
	commands repository.LockCommandRepository,
	userLocks repository.UserLockRepository,
	audit AuditService,
	producer kafka.EventProducer,
	logger *zap.Logger,
) LockService {
	return &lockService{
		locks:     locks,
		commands:  commands,
		userLocks: userLocks,
		audit:     audit,
		producer:  producer,
		logger:    logger.Named("lock_service"),
	}
}

func (s *lockService) Create(ctx context.Context, actor *models.User, req models.CreateLockRequest) (*models.Lock, error) {
	token, err := random.Hex(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate device token: %w", err)
	}
	lock := &models.Lock{
		ID:       uuid.New(),
		Token:    token,
		Name:     req.Name,
		Location: req.Location,
		Status:   models.LockStatusUnknown,
	}
	if err := s.locks.Create(ctx, lock); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &actor.ID, &lock.ID, models.ActionLockCreate, map[string]any{
		"name": lock.Name,
	})
	return lock, nil
}

func (s *lockService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Lock, error) {
	if err := s.authorize(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.locks.GetByID(ctx, id)
}

func (s *lockService) List(ctx context.Context, actor *models.User) ([]*models.Lock, error) {
	if actor.IsAdmin() {
		return s.locks.List(ctx)
	}
	ids, err := s.userLocks.ListLockIDsByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return s.locks.ListByIDs(ctx, ids)
}

func (s *lockService) Update(ctx context.Context, actor *models.User, id uuid.UUID, req models.UpdateLockRequest) (*models.Lock, error) {
	lock, err := s.locks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		lock.Name = *req.Name
	}
	if req.Location != nil {
		lock.Location = *req.Location
	}
	if req.Status != nil {
		lock.Status = models.NormalizeLockStatus(*req.Status)
	}
	if err := s.locks.Update(ctx, lock); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &actor.ID, &lock.ID, models.ActionLockUpdate, nil)
	return lock, nil
}

func (s *lockService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if err := s.locks.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, &actor.ID, &id, models.ActionLockDelete, nil)
	return nil
}

func (s *lockService) AssignUsers(ctx context.Context, actor *models.User, id uuid.UUID, userIDs []string) error {
	if _, err := s.locks.GetByID(ctx, id); err != nil {
		return err
	}
	parsed := make([]uuid.UUID, 0, len(userIDs))
	for _, raw := range userIDs {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("%w: malformed user id '%s'", domainErrors.ErrInvalidRequest, raw)
		}
		parsed = append(parsed, userID)
	}
	if err := s.userLocks.Replace(ctx, id, parsed); err != nil {
		return err
	}
	s.audit.Record(ctx, &actor.ID, &id, models.ActionLockAssign, map[string]any{
		"userCount": len(parsed),
	})
	return nil
}

func (s *lockService) AssignedUsers(ctx context.Context, id uuid.UUID) ([]*models.User, error) {
	if _, err := s.locks.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.userLocks.ListUsersByLock(ctx, id)
}

func (s *lockService) EnqueueCommand(ctx context.Context, actor *models.User, id uuid.UUID, command models.CommandType) (*models.LockCommand, error) {
	if !models.IsValidCommand(string(command)) {
		return nil, fmt.Errorf("%w: unknown command '%s'", domainErrors.ErrInvalidRequest, command)
	}
	if err := s.authorize(ctx, actor, id); err != nil {
		return nil, err
	}
	lock, err := s.locks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	metadata, _ := json.Marshal(map[string]any{
		"issuedByName": actor.Name,
		"issuedAt":     time.Now().UTC(),
	})
	entry := &models.LockCommand{
		ID:       uuid.New(),
		LockID:   lock.ID,
		Command:  command,
		Status:   models.CommandPending,
		IssuedBy: &actor.ID,
		Metadata: metadata,
	}
	if err := s.commands.Enqueue(ctx, entry); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actor.ID, &lock.ID, models.CommandAuditAction(command), map[string]any{
		"commandId": entry.ID.String(),
	})
	// Best effort fan-out for push-capable integrations; the queue row
	// is the source of truth.
	_ = s.producer.PublishCommandEvent(ctx, lock.ID, entry)
	return entry, nil
}

func (s *lockService) Commands(ctx context.Context, actor *models.User, id uuid.UUID) ([]*models.LockCommand, error) {
	if err := s.authorize(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.commands.ListByLock(ctx, id)
}

// authorize enforces visibility: admins see every lock, others only
// locks they are assigned to.
func (s *lockService) authorize(ctx context.Context, actor *models.User, lockID uuid.UUID) error {
	if actor.IsAdmin() {
		return nil
	}
	assigned, err := s.userLocks.Exists(ctx, actor.ID, lockID)
	if err != nil {
		return err
	}
	if !assigned {
		return domainErrors.ErrForbidden
	}
	return nil
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/hanguyen1814/SmartLock/internal/config"
	domainErrors "github.com/hanguyen1814/SmartLock/internal/domain/errors"
	"github.com/hanguyen1814/SmartLock/internal/domain/models"
	"github.com/hanguyen1814/SmartLock/internal/domain/repository"
)

type OtpServiceTestSuite struct {
	suite.Suite
	otps      *mockOtpRepo
	users     *mockUserRepo
	locks     *mockLockRepo
	userLocks *mockUserLockRepo
	settings  *mockSettingService
	audit     *recordingAudit
	svc       OtpService
}

func (s *OtpServiceTestSuite) SetupTest() {
	s.otps = &mockOtpRepo{}
	s.users = &mockUserRepo{}
	s.locks = &mockLockRepo{}
	s.userLocks = &mockUserLockRepo{}
	s.settings = &mockSettingService{}
	s.audit = &recordingAudit{}
	s.svc = NewOtpService(
		s.otps, s.users, s.locks, s.userLocks, s.settings,
		s.audit, &config.Config{}, zap.NewNop(),
	)
}

func TestOtpServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OtpServiceTestSuite))
}

func (s *OtpServiceTestSuite) admin() *models.User {
	return &models.User{ID: uuid.New(), Role: models.RoleAdmin, OtpEnabled: true, OtpExpiry: 300}
}

func (s *OtpServiceTestSuite) TestIssue() {
	ctx := context.Background()
	actor := s.admin()
	lock := &models.Lock{ID: uuid.New(), Name: "Front Door"}

	s.locks.On("GetByID", ctx, lock.ID).Return(lock, nil).Once()
	s.otps.On("DeleteExpiredScoped", ctx, actor.ID, &lock.ID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	s.otps.On("ListActiveScoped", ctx, actor.ID, &lock.ID, mock.AnythingOfType("time.Time")).
		Return([]*models.Otp{}, nil).Once()
	s.otps.On("Create", ctx, mock.AnythingOfType("*models.Otp")).Return(nil).Once()

	resp, err := s.svc.Issue(ctx, actor, models.IssueOtpRequest{LockID: lock.ID.String(), MaxUses: 3})

	s.Require().NoError(err)
	s.Len(resp.Otp, 6)
	s.Equal(3, resp.MaxUses)
	s.WithinDuration(time.Now().Add(300*time.Second), resp.ExpiresAt, time.Minute)
	s.Contains(s.audit.actions(), models.ActionOtpCreate)
}

func (s *OtpServiceTestSuite) TestIssue_AdminMintsForAnotherUser() {
	ctx := context.Background()
	actor := s.admin()
	target := &models.User{ID: uuid.New(), Role: models.RoleUser, OtpExpiry: 60}
	lock := &models.Lock{ID: uuid.New()}

	s.users.On("GetByID", ctx, target.ID).Return(target, nil).Once()
	s.locks.On("GetByID", ctx, lock.ID).Return(lock, nil).Once()
	s.otps.On("DeleteExpiredScoped", ctx, target.ID, &lock.ID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	s.otps.On("ListActiveScoped", ctx, target.ID, &lock.ID, mock.AnythingOfType("time.Time")).
		Return([]*models.Otp{}, nil).Once()
	s.otps.On("Create", ctx, mock.AnythingOfType("*models.Otp")).Return(nil).Once()

	resp, err := s.svc.Issue(ctx, actor, models.IssueOtpRequest{
		UserID: target.ID.String(),
		LockID: lock.ID.String(),
	})

	s.Require().NoError(err)
	// The target's per-user default drives the TTL, not the issuer's.
	s.WithinDuration(time.Now().Add(60*time.Second), resp.ExpiresAt, time.Minute)

	var created *models.Otp
	for _, call := range s.otps.Calls {
		if call.Method == "Create" {
			created = call.Arguments.Get(1).(*models.Otp)
		}
	}
	s.Require().NotNil(created)
	s.Equal(target.ID, created.UserID, "the code belongs to the subject")
	s.Equal(actor.ID, created.CreatedBy, "attribution stays with the issuer")
}

func (s *OtpServiceTestSuite) TestIssue_NonAdminCannotMintForOthers() {
	actor := &models.User{ID: uuid.New(), Role: models.RoleUser}
	_, err := s.svc.Issue(context.Background(), actor, models.IssueOtpRequest{
		UserID: uuid.New().String(),
		LockID: uuid.New().String(),
	})
	s.ErrorIs(err, domainErrors.ErrForbidden)
	s.users.AssertNotCalled(s.T(), "GetByID", mock.Anything, mock.Anything)
	s.otps.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
}

func (s *OtpServiceTestSuite) TestIssue_AssignmentCheckedAgainstSubject() {
	ctx := context.Background()
	actor := &models.User{ID: uuid.New(), Role: models.RoleUser, OtpExpiry: 300}
	lock := &models.Lock{ID: uuid.New()}

	s.locks.On("GetByID", ctx, lock.ID).Return(lock, nil).Once()
	s.userLocks.On("Exists", ctx, actor.ID, lock.ID).Return(true, nil).Once()
	s.otps.On("DeleteExpiredScoped", ctx, actor.ID, &lock.ID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	s.otps.On("ListActiveScoped", ctx, actor.ID, &lock.ID, mock.AnythingOfType("time.Time")).
		Return([]*models.Otp{}, nil).Once()
	s.otps.On("Create", ctx, mock.AnythingOfType("*models.Otp")).Return(nil).Once()

	// Naming yourself explicitly is the same as leaving the field empty.
	_, err := s.svc.Issue(ctx, actor, models.IssueOtpRequest{
		UserID: actor.ID.String(),
		LockID: lock.ID.String(),
	})
	s.Require().NoError(err)
	s.userLocks.AssertExpectations(s.T())
}

func (s *OtpServiceTestSuite) TestIssue_NonAdminNeedsAssignment() {
	ctx := context.Background()
	actor := &models.User{ID: uuid.New(), Role: models.RoleUser, OtpEnabled: true}
	lock := &models.Lock{ID: uuid.New()}

	s.locks.On("GetByID", ctx, lock.ID).Return(lock, nil).Once()
	s.userLocks.On("Exists", ctx, actor.ID, lock.ID).Return(false, nil).Once()

	_, err := s.svc.Issue(ctx, actor, models.IssueOtpRequest{LockID: lock.ID.String()})
	s.ErrorIs(err, domainErrors.ErrForbidden)
	s.otps.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
}

func (s *OtpServiceTestSuite) TestIssue_UnlimitedTTL() {
	ctx := context.Background()
	actor := s.admin()
	lock := &models.Lock{ID: uuid.New()}
	zero := 0

	s.locks.On("GetByID", ctx, lock.ID).Return(lock, nil).Once()
	s.otps.On("DeleteExpiredScoped", ctx, actor.ID, &lock.ID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	s.otps.On("ListActiveScoped", ctx, actor.ID, &lock.ID, mock.AnythingOfType("time.Time")).
		Return([]*models.Otp{}, nil).Once()
	s.otps.On("Create", ctx, mock.AnythingOfType("*models.Otp")).Return(nil).Once()

	resp, err := s.svc.Issue(ctx, actor, models.IssueOtpRequest{LockID: lock.ID.String(), OtpExpiry: &zero})

	s.Require().NoError(err)
	s.True(resp.ExpiresAt.After(time.Now().Add(90*365*24*time.Hour)), "zero TTL stores the far-future sentinel")
}

func (s *OtpServiceTestSuite) TestIssue_CeilingEvictsOldest() {
	ctx := context.Background()
	actor := s.admin()
	lock := &models.Lock{ID: uuid.New()}

	// Repository returns newest first; a full scope of 10 actives.
	active := make([]*models.Otp, models.MaxActiveOtpsPerScope)
	for i := range active {
		active[i] = &models.Otp{ID: uuid.New()}
	}

	s.locks.On("GetByID", ctx, lock.ID).Return(lock, nil).Once()
	s.otps.On("DeleteExpiredScoped", ctx, actor.ID, &lock.ID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	s.otps.On("ListActiveScoped", ctx, actor.ID, &lock.ID, mock.AnythingOfType("time.Time")).
		Return(active, nil).Once()
	s.otps.On("DeleteByIDs", ctx, mock.AnythingOfType("[]uuid.UUID")).Return(nil).Once()
	s.otps.On("Create", ctx, mock.AnythingOfType("*models.Otp")).Return(nil).Once()

	_, err := s.svc.Issue(ctx, actor, models.IssueOtpRequest{LockID: lock.ID.String()})

	s.Require().NoError(err)
	// Everything beyond the newest ceiling-1 entries gets evicted; here
	// that is exactly the oldest one.
	var evicted []uuid.UUID
	for _, call := range s.otps.Calls {
		if call.Method == "DeleteByIDs" {
			evicted = call.Arguments.Get(1).([]uuid.UUID)
		}
	}
	s.Require().Len(evicted, 1)
	s.Equal(active[len(active)-1].ID, evicted[0])
}

func (s *OtpServiceTestSuite) TestIssue_RetriesOnCodeCollision() {
	ctx := context.Background()
	actor := s.admin()
	lock := &models.Lock{ID: uuid.New()}

	s.locks.On("GetByID", ctx, lock.ID).Return(lock, nil).Once()
	s.otps.On("DeleteExpiredScoped", ctx, actor.ID, &lock.ID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	s.otps.On("ListActiveScoped", ctx, actor.ID, &lock.ID, mock.AnythingOfType("time.Time")).
		Return([]*models.Otp{}, nil).Once()
	s.otps.On("Create", ctx, mock.AnythingOfType("*models.Otp")).Return(domainErrors.ErrAlreadyExists).Once()
	s.otps.On("Create", ctx, mock.AnythingOfType("*models.Otp")).Return(nil).Once()

	_, err := s.svc.Issue(ctx, actor, models.IssueOtpRequest{LockID: lock.ID.String()})
	s.NoError(err)
	s.otps.AssertNumberOfCalls(s.T(), "Create", 2)
}

func (s *OtpServiceTestSuite) TestConsume() {
	ctx := context.Background()
	lock := &models.Lock{ID: uuid.New()}
	redeemed := &models.Otp{
		ID: uuid.New(), UserID: uuid.New(), LockID: &lock.ID,
		Code: "482913", MaxUses: 3, UsedCount: 2,
	}

	s.otps.On("Consume", ctx, lock.ID, "482913", mock.AnythingOfType("time.Time")).Return(redeemed, nil).Once()

	result, err := s.svc.Consume(ctx, lock, "482913")

	s.Require().NoError(err)
	s.Equal(2, result.UsedCount)
	s.Equal(1, result.RemainingUses)
	s.Contains(s.audit.actions(), models.ActionOtpConsume)
}

func (s *OtpServiceTestSuite) TestConsume_UnknownCode() {
	ctx := context.Background()
	lock := &models.Lock{ID: uuid.New()}

	s.otps.On("Consume", ctx, lock.ID, "000000", mock.AnythingOfType("time.Time")).
		Return(nil, domainErrors.ErrOtpNotFound).Once()

	_, err := s.svc.Consume(ctx, lock, "000000")
	s.ErrorIs(err, domainErrors.ErrOtpNotFound)
	s.Empty(s.audit.actions())
}

func (s *OtpServiceTestSuite) TestVerifyByEmail_OneShot() {
	ctx := context.Background()
	user := &models.User{ID: uuid.New(), Email: "alice@example.com"}
	otp := &models.Otp{
		ID: uuid.New(), UserID: user.ID, Code: "482913",
		ExpiresAt: time.Now().Add(time.Hour), MaxUses: 5, UsedCount: 0,
	}

	s.users.On("GetByEmail", ctx, "alice@example.com").Return(user, nil).Once()
	s.otps.On("FindByUserAndCode", ctx, user.ID, "482913").Return(otp, nil).Once()
	s.otps.On("Delete", ctx, otp.ID).Return(nil).Once()

	s.Require().NoError(s.svc.VerifyByEmail(ctx, "alice@example.com", "482913"))
	s.otps.AssertExpectations(s.T())
	s.Contains(s.audit.actions(), models.ActionOtpVerify)
}

func (s *OtpServiceTestSuite) TestVerifyByEmail_ExpiredCodeDestroyed() {
	ctx := context.Background()
	user := &models.User{ID: uuid.New(), Email: "alice@example.com"}
	otp := &models.Otp{ID: uuid.New(), UserID: user.ID, Code: "482913", ExpiresAt: time.Now().Add(-time.Hour)}

	s.users.On("GetByEmail", ctx, "alice@example.com").Return(user, nil).Once()
	s.otps.On("FindByUserAndCode", ctx, user.ID, "482913").Return(otp, nil).Once()
	s.otps.On("Delete", ctx, otp.ID).Return(nil).Once()

	err := s.svc.VerifyByEmail(ctx, "alice@example.com", "482913")
	s.ErrorIs(err, domainErrors.ErrOtpNotFound)
	s.otps.AssertExpectations(s.T())
}

func (s *OtpServiceTestSuite) TestVerifyByEmail_UnknownAccount() {
	ctx := context.Background()
	s.users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, domainErrors.ErrUserNotFound).Once()

	err := s.svc.VerifyByEmail(ctx, "ghost@example.com", "482913")
	s.ErrorIs(err, domainErrors.ErrOtpNotFound, "unknown account and unknown code answer identically")
}

func (s *OtpServiceTestSuite) TestList_NonAdminScopedToSelf() {
	ctx := context.Background()
	actor := &models.User{ID: uuid.New(), Role: models.RoleUser}

	s.otps.On("List", ctx, mock.MatchedBy(func(params repository.OtpListParams) bool {
		return params.UserID != nil && *params.UserID == actor.ID
	})).Return([]*models.Otp{}, nil).Once()

	otherUser := uuid.New()
	_, err := s.svc.List(ctx, actor, repository.OtpListParams{UserID: &otherUser})

	s.NoError(err)
	s.otps.AssertExpectations(s.T())
}

func (s *OtpServiceTestSuite) TestList_ShapesItems() {
	ctx := context.Background()
	actor := s.admin()
	user := &models.User{ID: uuid.New(), Name: "Bob", Email: "bob@example.com"}
	lock := &models.Lock{ID: uuid.New(), Name: "Back Door"}
	now := time.Now().UTC()

	otps := []*models.Otp{
		{
			ID: uuid.New(), UserID: user.ID, CreatedBy: actor.ID, LockID: &lock.ID,
			Code: "111111", ExpiresAt: now.Add(time.Minute), MaxUses: 2, UsedCount: 1,
		},
		{
			ID: uuid.New(), UserID: user.ID, CreatedBy: actor.ID, LockID: &lock.ID,
			Code: "222222", ExpiresAt: models.UnlimitedExpiry(now), MaxUses: 1, UsedCount: 0,
		},
	}

	s.otps.On("List", ctx, mock.AnythingOfType("repository.OtpListParams")).Return(otps, nil).Once()
	s.users.On("GetByID", ctx, user.ID).Return(user, nil).Once()
	s.users.On("GetByID", ctx, actor.ID).Return(actor, nil).Once()
	s.locks.On("GetByID", ctx, lock.ID).Return(lock, nil).Once()

	items, err := s.svc.List(ctx, actor, repository.OtpListParams{})

	s.Require().NoError(err)
	s.Require().Len(items, 2)

	s.Require().NotNil(items[0].ExpiresIn)
	s.False(items[0].IsUnlimited)
	s.Equal(1, items[0].RemainingUses)
	s.Equal("Bob", items[0].User.Name)
	s.Equal("Back Door", items[0].Lock.Name)

	s.Nil(items[1].ExpiresIn, "unlimited codes carry no countdown")
	s.True(items[1].IsUnlimited)

	// User and lock lookups are cached across items.
	s.users.AssertNumberOfCalls(s.T(), "GetByID", 2)
	s.locks.AssertNumberOfCalls(s.T(), "GetByID", 1)
}

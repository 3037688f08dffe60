package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/hanguyen1814/SmartLock/internal/domain/errors"
	"github.com/hanguyen1814/SmartLock/internal/domain/models"
	"github.com/hanguyen1814/SmartLock/internal/domain/repository"
	"github.com/hanguyen1814/SmartLock/internal/domain/service"
)

type mockDeviceService struct{ mock.Mock }

func (m *mockDeviceService) Register(ctx context.Context, req models.RegisterDeviceRequest) (*service.RegisteredDevice, error) {
	args := m.Called(ctx, req)
	if device, ok := args.Get(0).(*service.RegisteredDevice); ok {
		return device, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDeviceService) Authenticate(ctx context.Context, token string) (*models.Lock, error) {
	args := m.Called(ctx, token)
	if lock, ok := args.Get(0).(*models.Lock); ok {
		return lock, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDeviceService) ReportStatus(ctx context.Context, lock *models.Lock, req models.ReportStatusRequest) error {
	return m.Called(ctx, lock, req).Error(0)
}

func (m *mockDeviceService) PollCommand(ctx context.Context, lock *models.Lock, ackID string) (*models.LockCommand, error) {
	args := m.Called(ctx, lock, ackID)
	if command, ok := args.Get(0).(*models.LockCommand); ok {
		return command, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDeviceService) IngestLogs(ctx context.Context, lock *models.Lock, entries []models.DeviceLogEntry) int {
	return m.Called(ctx, lock, entries).Int(0)
}

func (m *mockDeviceService) Snapshot(ctx context.Context, lock *models.Lock, format models.SyncFormat) (any, error) {
	args := m.Called(ctx, lock, format)
	return args.Get(0), args.Error(1)
}

type mockOtpService struct{ mock.Mock }

func (m *mockOtpService) Issue(ctx context.Context, actor *models.User, req models.IssueOtpRequest) (*models.IssuedOtpResponse, error) {
	args := m.Called(ctx, actor, req)
	if resp, ok := args.Get(0).(*models.IssuedOtpResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOtpService) Consume(ctx context.Context, lock *models.Lock, code string) (*models.ConsumeResult, error) {
	args := m.Called(ctx, lock, code)
	if result, ok := args.Get(0).(*models.ConsumeResult); ok {
		return result, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOtpService) VerifyByEmail(ctx context.Context, email, code string) error {
	return m.Called(ctx, email, code).Error(0)
}

func (m *mockOtpService) List(ctx context.Context, actor *models.User, params repository.OtpListParams) ([]models.OtpListItem, error) {
	args := m.Called(ctx, actor, params)
	if items, ok := args.Get(0).([]models.OtpListItem); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func newDeviceRouter(devices *mockDeviceService, otps *mockOtpService) *gin.Engine {
	handler := NewDeviceHandler(devices, otps, zap.NewNop())
	router := gin.New()
	router.POST("/device/report", handler.Report)
	router.GET("/device/commands/next", handler.PollCommand)
	router.POST("/device/otp/consume", handler.ConsumeOtp)
	router.POST("/device/logs", handler.SyncLogs)
	router.GET("/device/sync", handler.Sync)
	return router
}

func TestPollCommandHandler_EmptyQueue(t *testing.T) {
	devices := &mockDeviceService{}
	lock := &models.Lock{ID: uuid.New(), Token: "device-token"}

	devices.On("Authenticate", mock.Anything, "device-token").Return(lock, nil).Once()
	devices.On("PollCommand", mock.Anything, lock, "").Return(nil, domainErrors.ErrCommandNotFound).Once()

	router := newDeviceRouter(devices, &mockOtpService{})
	req := httptest.NewRequest(http.MethodGet, "/device/commands/next?token=device-token", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, "an empty queue is not an error")
	assert.JSONEq(t, `{"command":null,"commandId":null}`, w.Body.String())
}

func TestPollCommandHandler_ReturnsHead(t *testing.T) {
	devices := &mockDeviceService{}
	lock := &models.Lock{ID: uuid.New(), Token: "device-token"}
	head := &models.LockCommand{
		ID: uuid.New(), LockID: lock.ID, Command: models.CommandOpen,
		Status: models.CommandPending, CreatedAt: time.Now().UTC(),
	}

	devices.On("Authenticate", mock.Anything, "device-token").Return(lock, nil).Once()
	devices.On("PollCommand", mock.Anything, lock, head.ID.String()).Return(head, nil).Once()

	router := newDeviceRouter(devices, &mockOtpService{})
	req := httptest.NewRequest(http.MethodGet, "/device/commands/next?token=device-token&ack="+head.ID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	// Firmware reads both fields at the top level.
	var body struct {
		Command   string    `json:"command"`
		CommandID uuid.UUID `json:"commandId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "open", body.Command)
	assert.Equal(t, head.ID, body.CommandID)
}

func TestPollCommandHandler_TokenFromHeader(t *testing.T) {
	devices := &mockDeviceService{}
	lock := &models.Lock{ID: uuid.New(), Token: "device-token"}

	devices.On("Authenticate", mock.Anything, "device-token").Return(lock, nil).Once()
	devices.On("PollCommand", mock.Anything, lock, "").Return(nil, domainErrors.ErrCommandNotFound).Once()

	router := newDeviceRouter(devices, &mockOtpService{})
	req := httptest.NewRequest(http.MethodGet, "/device/commands/next", nil)
	req.Header.Set("X-Device-Token", "device-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPollCommandHandler_BadToken(t *testing.T) {
	devices := &mockDeviceService{}
	devices.On("Authenticate", mock.Anything, "bogus").Return(nil, domainErrors.ErrUnauthorized).Once()

	router := newDeviceRouter(devices, &mockOtpService{})
	req := httptest.NewRequest(http.MethodGet, "/device/commands/next?token=bogus", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConsumeOtpHandler(t *testing.T) {
	devices := &mockDeviceService{}
	otps := &mockOtpService{}
	lock := &models.Lock{ID: uuid.New(), Token: "device-token"}

	devices.On("Authenticate", mock.Anything, "device-token").Return(lock, nil).Once()
	otps.On("Consume", mock.Anything, lock, "482913").
		Return(&models.ConsumeResult{UsedCount: 1, MaxUses: 3, RemainingUses: 2}, nil).Once()

	router := newDeviceRouter(devices, otps)
	w := postJSON(router, "/device/otp/consume", gin.H{"token": "device-token", "otp": "482913"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"usedCount":1,"maxUses":3,"remainingUses":2}`, w.Body.String())
}

func TestConsumeOtpHandler_Rejected(t *testing.T) {
	devices := &mockDeviceService{}
	otps := &mockOtpService{}
	lock := &models.Lock{ID: uuid.New(), Token: "device-token"}

	devices.On("Authenticate", mock.Anything, "device-token").Return(lock, nil).Once()
	otps.On("Consume", mock.Anything, lock, "000000").Return(nil, domainErrors.ErrOtpNotFound).Once()

	router := newDeviceRouter(devices, otps)
	w := postJSON(router, "/device/otp/consume", gin.H{"token": "device-token", "otp": "000000"})

	assert.Equal(t, http.StatusNotFound, w.Code)

	var body ResponseError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "otp_not_found", body.Code)
}

func TestReportHandler(t *testing.T) {
	devices := &mockDeviceService{}
	lock := &models.Lock{ID: uuid.New(), Token: "device-token"}

	devices.On("Authenticate", mock.Anything, "device-token").Return(lock, nil).Once()
	devices.On("ReportStatus", mock.Anything, lock, mock.AnythingOfType("models.ReportStatusRequest")).
		Return(nil).Once()

	router := newDeviceRouter(devices, &mockOtpService{})
	w := postJSON(router, "/device/report", gin.H{"token": "device-token", "status": "open"})

	assert.Equal(t, http.StatusOK, w.Code)
	devices.AssertExpectations(t)
}

func TestSyncLogsHandler_ReportsReceivedCount(t *testing.T) {
	devices := &mockDeviceService{}
	lock := &models.Lock{ID: uuid.New(), Token: "device-token"}

	devices.On("Authenticate", mock.Anything, "device-token").Return(lock, nil).Once()
	devices.On("IngestLogs", mock.Anything, lock, mock.AnythingOfType("[]models.DeviceLogEntry")).
		Return(2).Once()

	router := newDeviceRouter(devices, &mockOtpService{})
	w := postJSON(router, "/device/logs", gin.H{
		"token": "device-token",
		"logs":  []gin.H{{"action": "open"}, {"action": "close"}, {"action": ""}},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":2}`, w.Body.String())
}

func TestSyncHandler_FormatSelection(t *testing.T) {
	devices := &mockDeviceService{}
	lock := &models.Lock{ID: uuid.New(), Token: "device-token"}

	devices.On("Authenticate", mock.Anything, "device-token").Return(lock, nil).Once()
	devices.On("Snapshot", mock.Anything, lock, models.SyncFormatSimple).
		Return(&models.SimpleSnapshot{Users: []models.SyncUser{}, Otps: []models.SimpleSyncOtp{}, ServerTime: time.Now()}, nil).Once()

	router := newDeviceRouter(devices, &mockOtpService{})
	req := httptest.NewRequest(http.MethodGet, "/device/sync?token=device-token&format=esp", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	devices.AssertExpectations(t)
}

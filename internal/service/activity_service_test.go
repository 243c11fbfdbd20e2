package service

import (
	"context"
	"testing"
	"time"

	"deutschdrill/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockActivityStore struct{ mock.Mock }

func (m *mockActivityStore) GetOpenLog(ctx context.Context, userID int64) (*models.ActivityLog, error) {
	args := m.Called(ctx, userID)
	l, _ := args.Get(0).(*models.ActivityLog)
	return l, args.Error(1)
}

func (m *mockActivityStore) CreateLog(ctx context.Context, userID int64, now time.Time) (*models.ActivityLog, error) {
	args := m.Called(ctx, userID, now)
	l, _ := args.Get(0).(*models.ActivityLog)
	return l, args.Error(1)
}

func (m *mockActivityStore) TouchLog(ctx context.Context, logID int64, now time.Time) error {
	return m.Called(ctx, logID, now).Error(0)
}

func (m *mockActivityStore) CloseLog(ctx context.Context, log *models.ActivityLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *mockActivityStore) ListIdleOpenLogs(ctx context.Context, before time.Time) ([]models.ActivityLog, error) {
	args := m.Called(ctx, before)
	logs, _ := args.Get(0).([]models.ActivityLog)
	return logs, args.Error(1)
}

func (m *mockActivityStore) SumMinutesSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	args := m.Called(ctx, userID, since)
	return args.Int(0), args.Error(1)
}

func TestActivityTouch(t *testing.T) {
	ctx := context.Background()
	start := fixedNow

	t.Run("no open log starts one", func(t *testing.T) {
		store := &mockActivityStore{}
		store.On("GetOpenLog", ctx, int64(1)).Return(nil, nil)
		store.On("CreateLog", ctx, int64(1), start).Return(&models.ActivityLog{ID: 1}, nil)

		svc := NewActivityService(store, 5*time.Minute, zap.NewNop())
		require.NoError(t, svc.Touch(ctx, 1, start))
		store.AssertExpectations(t)
	})

	t.Run("within timeout extends", func(t *testing.T) {
		store := &mockActivityStore{}
		open := &models.ActivityLog{ID: 4, UserID: 1, StartTime: start, LastActivity: start}
		store.On("GetOpenLog", ctx, int64(1)).Return(open, nil)
		store.On("TouchLog", ctx, int64(4), start.Add(4*time.Minute)).Return(nil)

		svc := NewActivityService(store, 5*time.Minute, zap.NewNop())
		require.NoError(t, svc.Touch(ctx, 1, start.Add(4*time.Minute)))
		store.AssertExpectations(t)
	})

	t.Run("after a pause closes at last activity and restarts", func(t *testing.T) {
		store := &mockActivityStore{}
		open := &models.ActivityLog{ID: 4, UserID: 1, StartTime: start, LastActivity: start.Add(10 * time.Minute)}
		later := start.Add(30 * time.Minute)
		store.On("GetOpenLog", ctx, int64(1)).Return(open, nil)
		store.On("CloseLog", ctx, mock.MatchedBy(func(l *models.ActivityLog) bool {
			return l.ID == 4 && l.LastActivity.Equal(start.Add(10*time.Minute))
		})).Return(nil)
		store.On("CreateLog", ctx, int64(1), later).Return(&models.ActivityLog{ID: 5}, nil)

		svc := NewActivityService(store, 5*time.Minute, zap.NewNop())
		require.NoError(t, svc.Touch(ctx, 1, later))
		store.AssertExpectations(t)
	})
}

func TestActivityEnd(t *testing.T) {
	ctx := context.Background()
	store := &mockActivityStore{}
	open := &models.ActivityLog{ID: 4, UserID: 1, StartTime: fixedNow, LastActivity: fixedNow.Add(8 * time.Minute)}
	logout := fixedNow.Add(10 * time.Minute)
	store.On("GetOpenLog", ctx, int64(1)).Return(open, nil)
	store.On("CloseLog", ctx, mock.MatchedBy(func(l *models.ActivityLog) bool {
		return l.LastActivity.Equal(logout)
	})).Return(nil)

	svc := NewActivityService(store, 5*time.Minute, zap.NewNop())
	require.NoError(t, svc.End(ctx, 1, logout))
	store.AssertExpectations(t)
}

func TestActivitySweep(t *testing.T) {
	ctx := context.Background()
	store := &mockActivityStore{}
	store.On("ListIdleOpenLogs", ctx, fixedNow.Add(-5*time.Minute)).
		Return([]models.ActivityLog{{ID: 1}, {ID: 2}}, nil)
	store.On("CloseLog", ctx, mock.Anything).Return(nil)

	svc := NewActivityService(store, 5*time.Minute, zap.NewNop())
	closed, err := svc.Sweep(ctx, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 2, closed)
	store.AssertNumberOfCalls(t, "CloseLog", 2)
}

func TestTodayMinutes(t *testing.T) {
	ctx := context.Background()
	midnight := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	store := &mockActivityStore{}
	store.On("SumMinutesSince", ctx, int64(1), midnight).Return(25, nil)
	store.On("GetOpenLog", ctx, int64(1)).
		Return(&models.ActivityLog{StartTime: fixedNow.Add(-12 * time.Minute), LastActivity: fixedNow}, nil)

	svc := NewActivityService(store, 5*time.Minute, zap.NewNop())
	minutes, err := svc.TodayMinutes(ctx, 1, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 37, minutes)
}

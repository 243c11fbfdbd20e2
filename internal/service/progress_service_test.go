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

type mockCounters struct{ mock.Mock }

func (m *mockCounters) CountLearned(ctx context.Context, userID int64, kind models.ItemKind) (int, error) {
	args := m.Called(ctx, userID, kind)
	return args.Int(0), args.Error(1)
}

func (m *mockCounters) Count(ctx context.Context, kind models.ItemKind) (int, error) {
	args := m.Called(ctx, kind)
	return args.Int(0), args.Error(1)
}

type mockResults struct{ mock.Mock }

func (m *mockResults) ListTestResults(ctx context.Context, userID int64, isMock bool, limit int) ([]models.TestResult, error) {
	args := m.Called(ctx, userID, isMock, limit)
	results, _ := args.Get(0).([]models.TestResult)
	return results, args.Error(1)
}

func (m *mockResults) DeleteMockResults(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func TestProgressOverview(t *testing.T) {
	ctx := context.Background()
	midnight := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	counters := &mockCounters{}
	counters.On("CountLearned", ctx, int64(1), models.KindWord).Return(12, nil)
	counters.On("CountLearned", ctx, int64(1), models.KindVerb).Return(3, nil)
	counters.On("Count", ctx, models.KindWord).Return(120, nil)
	counters.On("Count", ctx, models.KindVerb).Return(40, nil)

	results := &mockResults{}
	mockRun := models.TestResult{ID: 5, IsMock: true, Percentage: 80}
	results.On("ListTestResults", ctx, int64(1), true, recentResultsLimit).Return([]models.TestResult{mockRun}, nil)
	results.On("ListTestResults", ctx, int64(1), false, recentResultsLimit).Return([]models.TestResult{}, nil)

	users := &mockUserStore{}
	users.On("GetUserByID", ctx, int64(1)).Return(&models.User{ID: 1, TotalTimeMinutes: 300}, nil)

	activityStore := &mockActivityStore{}
	activityStore.On("SumMinutesSince", ctx, int64(1), midnight).Return(20, nil)
	activityStore.On("GetOpenLog", ctx, int64(1)).Return(nil, nil)
	activity := NewActivityService(activityStore, 5*time.Minute, zap.NewNop())

	svc := NewProgressService(counters, counters, results, users, activity, zap.NewNop())
	o, err := svc.Overview(ctx, 1, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, 12, o.WordsLearned)
	assert.Equal(t, 3, o.VerbsLearned)
	assert.Equal(t, 120, o.TotalWords)
	assert.Equal(t, 40, o.TotalVerbs)
	assert.Equal(t, 300, o.TotalMinutes)
	assert.Equal(t, 20, o.TodayMinutes)
	assert.Equal(t, []models.TestResult{mockRun}, o.MockTests)
	assert.Empty(t, o.RealTests)
}

func TestProgressOverviewUnknownUser(t *testing.T) {
	ctx := context.Background()
	users := &mockUserStore{}
	users.On("GetUserByID", ctx, int64(9)).Return(nil, nil)

	svc := NewProgressService(&mockCounters{}, &mockCounters{}, &mockResults{}, users, nil, zap.NewNop())
	_, err := svc.Overview(ctx, 9, fixedNow)
	assert.Error(t, err)
}

func TestClearMockTests(t *testing.T) {
	ctx := context.Background()
	results := &mockResults{}
	results.On("DeleteMockResults", ctx, int64(1)).Return(int64(4), nil)

	svc := NewProgressService(&mockCounters{}, &mockCounters{}, results, &mockUserStore{}, nil, zap.NewNop())
	n, err := svc.ClearMockTests(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	results.AssertExpectations(t)
}

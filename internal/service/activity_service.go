package service

import (
	"context"
	"fmt"
	"time"

	"deutschdrill/internal/models"

	"go.uber.org/zap"
)

// ActivityStore persists study-time logs
type ActivityStore interface {
	GetOpenLog(ctx context.Context, userID int64) (*models.ActivityLog, error)
	CreateLog(ctx context.Context, userID int64, now time.Time) (*models.ActivityLog, error)
	TouchLog(ctx context.Context, logID int64, now time.Time) error
	CloseLog(ctx context.Context, log *models.ActivityLog) error
	ListIdleOpenLogs(ctx context.Context, before time.Time) ([]models.ActivityLog, error)
	SumMinutesSince(ctx context.Context, userID int64, since time.Time) (int, error)
}

// ActivityService measures study time. A log stays open while requests
// keep arriving within the timeout; a longer pause closes it at the last
// activity, so idle time is never counted.
type ActivityService struct {
	store   ActivityStore
	timeout time.Duration
	logger  *zap.Logger
}

// NewActivityService creates a new activity service
func NewActivityService(store ActivityStore, timeout time.Duration, logger *zap.Logger) *ActivityService {
	return &ActivityService{store: store, timeout: timeout, logger: logger}
}

// Start opens a fresh log, closing any log left open
func (s *ActivityService) Start(ctx context.Context, userID int64, now time.Time) error {
	if err := s.closeOpen(ctx, userID, nil); err != nil {
		return err
	}
	_, err := s.store.CreateLog(ctx, userID, now)
	return err
}

// Touch extends the open log, or starts a new one after a pause longer than the timeout
func (s *ActivityService) Touch(ctx context.Context, userID int64, now time.Time) error {
	open, err := s.store.GetOpenLog(ctx, userID)
	if err != nil {
		return err
	}
	if open == nil {
		_, err := s.store.CreateLog(ctx, userID, now)
		return err
	}

	if now.Sub(open.LastActivity) > s.timeout {
		if err := s.store.CloseLog(ctx, open); err != nil {
			return err
		}
		_, err := s.store.CreateLog(ctx, userID, now)
		return err
	}
	return s.store.TouchLog(ctx, open.ID, now)
}

// End closes the open log at now, as on logout
func (s *ActivityService) End(ctx context.Context, userID int64, now time.Time) error {
	return s.closeOpen(ctx, userID, &now)
}

func (s *ActivityService) closeOpen(ctx context.Context, userID int64, at *time.Time) error {
	open, err := s.store.GetOpenLog(ctx, userID)
	if err != nil || open == nil {
		return err
	}
	if at != nil && at.Sub(open.LastActivity) <= s.timeout {
		open.LastActivity = *at
	}
	return s.store.CloseLog(ctx, open)
}

// Sweep closes every log idle for longer than the timeout
func (s *ActivityService) Sweep(ctx context.Context, now time.Time) (int, error) {
	idle, err := s.store.ListIdleOpenLogs(ctx, now.Add(-s.timeout))
	if err != nil {
		return 0, err
	}

	closed := 0
	for i := range idle {
		if err := s.store.CloseLog(ctx, &idle[i]); err != nil {
			return closed, fmt.Errorf("failed to close activity log %d: %w", idle[i].ID, err)
		}
		closed++
	}
	if closed > 0 {
		s.logger.Debug("closed idle activity logs", zap.Int("count", closed))
	}
	return closed, nil
}

// TodayMinutes is the study time since local midnight, counting the open log
func (s *ActivityService) TodayMinutes(ctx context.Context, userID int64, now time.Time) (int, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	minutes, err := s.store.SumMinutesSince(ctx, userID, midnight)
	if err != nil {
		return 0, err
	}

	open, err := s.store.GetOpenLog(ctx, userID)
	if err != nil {
		return 0, err
	}
	if open != nil && !open.StartTime.Before(midnight) {
		minutes += int(open.LastActivity.Sub(open.StartTime) / time.Minute)
	}
	return minutes, nil
}

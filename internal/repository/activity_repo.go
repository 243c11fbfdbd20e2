package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"deutschdrill/internal/database"
	"deutschdrill/internal/models"
)

const activityColumns = `id, user_id, start_time, last_activity, end_time, duration_minutes`

// ActivityRepository tracks study time
type ActivityRepository struct {
	db *database.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *database.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// GetOpenLog returns the user's unclosed log, or nil
func (r *ActivityRepository) GetOpenLog(ctx context.Context, userID int64) (*models.ActivityLog, error) {
	log := &models.ActivityLog{}
	err := r.db.GetContext(ctx, log, `
		SELECT `+activityColumns+`
		FROM activity_logs
		WHERE user_id = ? AND end_time IS NULL
		ORDER BY start_time DESC
		LIMIT 1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity log: %w", err)
	}
	return log, nil
}

// CreateLog opens a new log starting at now
func (r *ActivityRepository) CreateLog(ctx context.Context, userID int64, now time.Time) (*models.ActivityLog, error) {
	now = now.UTC()
	id, err := r.db.ExecReturningID(ctx,
		"INSERT INTO activity_logs (user_id, start_time, last_activity) VALUES (?, ?, ?)",
		userID, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity log: %w", err)
	}
	return &models.ActivityLog{ID: id, UserID: userID, StartTime: now, LastActivity: now}, nil
}

// TouchLog moves the last activity of an open log forward
func (r *ActivityRepository) TouchLog(ctx context.Context, logID int64, now time.Time) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE activity_logs SET last_activity = ? WHERE id = ? AND end_time IS NULL",
		now.UTC(), logID); err != nil {
		return fmt.Errorf("failed to touch activity log: %w", err)
	}
	return nil
}

// CloseLog ends a log at its last activity and credits the minutes to the user.
// Closing an already closed log is a no-op.
func (r *ActivityRepository) CloseLog(ctx context.Context, log *models.ActivityLog) error {
	minutes := int(log.LastActivity.Sub(log.StartTime) / time.Minute)
	if minutes < 0 {
		minutes = 0
	}
	end := log.LastActivity.UTC()

	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE activity_logs
			SET end_time = ?, duration_minutes = ?
			WHERE id = ? AND end_time IS NULL
		`, end, minutes, log.ID)
		if err != nil {
			return fmt.Errorf("failed to close activity log: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE users SET total_time_minutes = total_time_minutes + ? WHERE id = ?",
			minutes, log.UserID); err != nil {
			return fmt.Errorf("failed to add study time: %w", err)
		}
		log.EndTime = &end
		log.DurationMinutes = minutes
		return nil
	})
}

// ListIdleOpenLogs returns open logs whose last activity is before the cutoff
func (r *ActivityRepository) ListIdleOpenLogs(ctx context.Context, before time.Time) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	err := r.db.SelectContext(ctx, &logs, `
		SELECT `+activityColumns+`
		FROM activity_logs
		WHERE end_time IS NULL AND last_activity < ?
	`, before.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list idle activity logs: %w", err)
	}
	return logs, nil
}

// SumMinutesSince adds up closed minutes of logs that started after since
func (r *ActivityRepository) SumMinutesSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var total sql.NullInt64
	err := r.db.GetContext(ctx, &total, `
		SELECT SUM(duration_minutes)
		FROM activity_logs
		WHERE user_id = ? AND start_time >= ? AND end_time IS NOT NULL
	`, userID, since.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to sum study time: %w", err)
	}
	return int(total.Int64), nil
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"deutschdrill/internal/database"
	"deutschdrill/internal/models"
)

// ErrVersionConflict is returned when a test session changed since it was read
var ErrVersionConflict = errors.New("test session was modified concurrently")

// TestRepository stores running test sessions and finished test results
type TestRepository struct {
	db *database.DB
}

// NewTestRepository creates a new test repository
func NewTestRepository(db *database.DB) *TestRepository {
	return &TestRepository{db: db}
}

type testSessionRow struct {
	ID      string `db:"id"`
	UserID  int64  `db:"user_id"`
	State   string `db:"state"`
	Version int    `db:"version"`
}

// CreateTestSession inserts a new session at version 0
func (r *TestRepository) CreateTestSession(ctx context.Context, s *models.TestSession) error {
	state, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode test session: %w", err)
	}
	now := time.Now().UTC()
	query := `
		INSERT INTO test_sessions (id, user_id, state, version, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)
	`
	if _, err := r.db.Conn(ctx).ExecContext(ctx, query, s.ID, s.UserID, string(state), now, now); err != nil {
		return fmt.Errorf("failed to create test session: %w", err)
	}
	s.Version = 0
	return nil
}

// GetTestSession loads a session owned by userID, or nil if there is none
func (r *TestRepository) GetTestSession(ctx context.Context, id string, userID int64) (*models.TestSession, error) {
	var row testSessionRow
	err := r.db.Conn(ctx).GetContext(ctx, &row,
		"SELECT id, user_id, state, version FROM test_sessions WHERE id = ? AND user_id = ?",
		id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get test session: %w", err)
	}

	s := &models.TestSession{}
	if err := json.Unmarshal([]byte(row.State), s); err != nil {
		return nil, fmt.Errorf("failed to decode test session %s: %w", id, err)
	}
	s.ID, s.UserID, s.Version = row.ID, row.UserID, row.Version
	return s, nil
}

// SaveTestSession writes s back if nobody else saved it since it was read.
// On success s.Version is advanced; otherwise ErrVersionConflict is returned.
func (r *TestRepository) SaveTestSession(ctx context.Context, s *models.TestSession) error {
	state, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode test session: %w", err)
	}
	query := `
		UPDATE test_sessions
		SET state = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND user_id = ? AND version = ?
	`
	result, err := r.db.Conn(ctx).ExecContext(ctx, query, string(state), time.Now().UTC(), s.ID, s.UserID, s.Version)
	if err != nil {
		return fmt.Errorf("failed to save test session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVersionConflict
	}
	s.Version++
	return nil
}

// DeleteTestSession removes a session and reports whether it existed
func (r *TestRepository) DeleteTestSession(ctx context.Context, id string, userID int64) (bool, error) {
	result, err := r.db.Conn(ctx).ExecContext(ctx, "DELETE FROM test_sessions WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete test session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteIdleTestSessions removes sessions untouched since the cutoff
func (r *TestRepository) DeleteIdleTestSessions(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.Conn(ctx).ExecContext(ctx, "DELETE FROM test_sessions WHERE updated_at < ?", before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete idle test sessions: %w", err)
	}
	return result.RowsAffected()
}

// AppendTestReport stores a finished test and its answers, returning the result ID
func (r *TestRepository) AppendTestReport(ctx context.Context, report *models.TestReport) (int64, error) {
	var testID int64
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		query := `
			INSERT INTO test_results (user_id, test_type, is_mock, direction, score, total, percentage, grade, taken_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		id, err := tx.ExecReturningID(ctx, query,
			report.UserID, report.Kind, report.Mode == models.TestModeMock, report.Direction,
			report.Score, report.Total, report.Percentage, report.Grade, report.TakenAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to save test result: %w", err)
		}
		testID = id

		answerQuery := `
			INSERT INTO test_answers (test_id, position, item_kind, item_id, prompt, user_answer, correct_answer, is_correct, credit)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		for _, o := range report.Outcomes {
			if _, err := tx.ExecContext(ctx, answerQuery,
				testID, o.Position, o.Kind, o.ItemID, o.Prompt, o.UserAnswer, o.CorrectAnswer, o.Correct, o.Credit); err != nil {
				return fmt.Errorf("failed to save test answer: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	report.ID = testID
	return testID, nil
}

// ListTestResults returns the user's most recent results of one mode, newest
// first, each with its incorrect answers attached
func (r *TestRepository) ListTestResults(ctx context.Context, userID int64, mock bool, limit int) ([]models.TestResult, error) {
	query := `
		SELECT id, user_id, test_type, is_mock, direction, score, total, percentage, grade, taken_at
		FROM test_results
		WHERE user_id = ? AND is_mock = ?
		ORDER BY taken_at DESC, id DESC
		LIMIT ?
	`
	var results []models.TestResult
	if err := r.db.Conn(ctx).SelectContext(ctx, &results, query, userID, mock, limit); err != nil {
		return nil, fmt.Errorf("failed to list test results: %w", err)
	}

	for i := range results {
		var mistakes []models.TestAnswer
		err := r.db.Conn(ctx).SelectContext(ctx, &mistakes, `
			SELECT id, test_id, position, item_kind, item_id, prompt, user_answer, correct_answer, is_correct, credit
			FROM test_answers
			WHERE test_id = ? AND is_correct = ?
			ORDER BY position
		`, results[i].ID, false)
		if err != nil {
			return nil, fmt.Errorf("failed to list test answers: %w", err)
		}
		results[i].Mistakes = mistakes
	}
	return results, nil
}

// DeleteMockResults removes every mock result of a user and reports how many went
func (r *TestRepository) DeleteMockResults(ctx context.Context, userID int64) (int64, error) {
	var deleted int64
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM test_answers
			WHERE test_id IN (SELECT id FROM test_results WHERE user_id = ? AND is_mock = ?)
		`, userID, true); err != nil {
			return fmt.Errorf("failed to delete mock answers: %w", err)
		}
		result, err := tx.ExecContext(ctx, "DELETE FROM test_results WHERE user_id = ? AND is_mock = ?", userID, true)
		if err != nil {
			return fmt.Errorf("failed to delete mock results: %w", err)
		}
		deleted, err = result.RowsAffected()
		return err
	})
	return deleted, err
}

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

// ProgressRepository handles per-user item progress and drill cards
type ProgressRepository struct {
	db *database.DB
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *database.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// progressTable returns the table and item column that hold progress for a kind
func progressTable(kind models.ItemKind) (string, string, error) {
	switch kind {
	case models.KindWord:
		return "word_progress", "word_id", nil
	case models.KindVerb:
		return "verb_progress", "verb_id", nil
	}
	return "", "", fmt.Errorf("unknown item kind: %q", kind)
}

// ProgressByUser returns the user's progress for every item of a kind, keyed by item ID
func (r *ProgressRepository) ProgressByUser(ctx context.Context, userID int64, kind models.ItemKind) (map[int64]models.ItemProgress, error) {
	table, col, err := progressTable(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT user_id, %s AS item_id, times_seen, times_correct, times_incorrect, priority_score, last_seen
		FROM %s
		WHERE user_id = ?
	`, col, table)

	var rows []models.ItemProgress
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	progress := make(map[int64]models.ItemProgress, len(rows))
	for _, p := range rows {
		p.Kind = kind
		progress[p.ItemID] = p
	}
	return progress, nil
}

// UpdateProgress reads the (user, item) progress row, applies fn and writes
// the result back inside one transaction. The row is locked for the
// duration, so concurrent updates of the same key are serialised.
// fn receives a zero record with UserID, ItemID and Kind set when no row exists.
func (r *ProgressRepository) UpdateProgress(ctx context.Context, userID int64, kind models.ItemKind, itemID int64, fn func(models.ItemProgress) models.ItemProgress) (models.ItemProgress, error) {
	table, col, err := progressTable(kind)
	if err != nil {
		return models.ItemProgress{}, err
	}

	var updated models.ItemProgress
	err = r.db.WithTx(ctx, func(tx *database.Tx) error {
		selectQuery := fmt.Sprintf(`
			SELECT user_id, %s AS item_id, times_seen, times_correct, times_incorrect, priority_score, last_seen
			FROM %s
			WHERE user_id = ? AND %s = ?`, col, table, col) + tx.GetDialect().LockForUpdate()

		current := models.ItemProgress{}
		exists := true
		err := tx.GetContext(ctx, &current, selectQuery, userID, itemID)
		if errors.Is(err, sql.ErrNoRows) {
			exists = false
			current = models.ItemProgress{UserID: userID, ItemID: itemID}
		} else if err != nil {
			return fmt.Errorf("failed to read progress: %w", err)
		}
		current.Kind = kind

		updated = fn(current)
		updated.UserID, updated.ItemID, updated.Kind = userID, itemID, kind
		lastSeen := updated.LastSeen.UTC()

		if exists {
			query := fmt.Sprintf(`
				UPDATE %s
				SET times_seen = ?, times_correct = ?, times_incorrect = ?, priority_score = ?, last_seen = ?
				WHERE user_id = ? AND %s = ?
			`, table, col)
			_, err = tx.ExecContext(ctx, query,
				updated.TimesSeen, updated.TimesCorrect, updated.TimesIncorrect, updated.PriorityScore, lastSeen,
				userID, itemID)
		} else {
			query := fmt.Sprintf(`
				INSERT INTO %s (user_id, %s, times_seen, times_correct, times_incorrect, priority_score, last_seen)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, table, col)
			_, err = tx.ExecContext(ctx, query,
				userID, itemID,
				updated.TimesSeen, updated.TimesCorrect, updated.TimesIncorrect, updated.PriorityScore, lastSeen)
		}
		if err != nil {
			return fmt.Errorf("failed to write progress: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.ItemProgress{}, err
	}
	return updated, nil
}

// CountLearned counts the items of a kind the user has been graded on at least once
func (r *ProgressRepository) CountLearned(ctx context.Context, userID int64, kind models.ItemKind) (int, error) {
	table, _, err := progressTable(kind)
	if err != nil {
		return 0, err
	}
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE user_id = ? AND times_seen > 0", table)
	if err := r.db.Conn(ctx).GetContext(ctx, &n, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count learned items: %w", err)
	}
	return n, nil
}

// SetCard records the item presented to a user, replacing any earlier card of that kind
func (r *ProgressRepository) SetCard(ctx context.Context, card models.DrillCard) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM drill_cards WHERE user_id = ? AND item_kind = ?", card.UserID, card.Kind); err != nil {
			return fmt.Errorf("failed to replace drill card: %w", err)
		}
		query := `
			INSERT INTO drill_cards (user_id, item_kind, item_id, presented_at)
			VALUES (?, ?, ?, ?)
		`
		if _, err := tx.ExecContext(ctx, query, card.UserID, card.Kind, card.ItemID, card.PresentedAt.UTC()); err != nil {
			return fmt.Errorf("failed to save drill card: %w", err)
		}
		return nil
	})
}

// GetCard returns the presented card of a kind, or nil when none is pending
func (r *ProgressRepository) GetCard(ctx context.Context, userID int64, kind models.ItemKind) (*models.DrillCard, error) {
	card := &models.DrillCard{}
	err := r.db.Conn(ctx).GetContext(ctx, card,
		"SELECT user_id, item_kind, item_id, presented_at FROM drill_cards WHERE user_id = ? AND item_kind = ?",
		userID, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get drill card: %w", err)
	}
	return card, nil
}

// ClearCard removes the card only if it still shows itemID, and reports
// whether it did. A false result means another request already graded it.
func (r *ProgressRepository) ClearCard(ctx context.Context, userID int64, kind models.ItemKind, itemID int64) (bool, error) {
	result, err := r.db.Conn(ctx).ExecContext(ctx,
		"DELETE FROM drill_cards WHERE user_id = ? AND item_kind = ? AND item_id = ?",
		userID, kind, itemID)
	if err != nil {
		return false, fmt.Errorf("failed to clear drill card: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteStaleCards removes cards presented before the cutoff
func (r *ProgressRepository) DeleteStaleCards(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.Conn(ctx).ExecContext(ctx, "DELETE FROM drill_cards WHERE presented_at < ?", before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale drill cards: %w", err)
	}
	return result.RowsAffected()
}

package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"deutschdrill/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := Initialize(filepath.Join(t.TempDir(), "drill.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations(context.Background(), migrations.FS, zap.NewNop()))
	return db
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	tables := []string{
		"users", "sessions", "words", "verbs", "word_progress", "verb_progress",
		"drill_cards", "test_sessions", "test_results", "test_answers", "activity_logs",
	}
	for _, table := range tables {
		var name string
		err := db.GetContext(ctx, &name, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table)
		assert.NoError(t, err, "table %s", table)
	}

	// running again is a no-op
	require.NoError(t, db.RunMigrations(ctx, migrations.FS, zap.NewNop()))

	var count int
	require.NoError(t, db.GetContext(ctx, &count, "SELECT COUNT(*) FROM migrations"))
	assert.Equal(t, 1, count)
}

// TestDatabaseTransactions tests transaction support
func TestDatabaseTransactions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecReturningID(ctx, "INSERT INTO words (german, article, english) VALUES (?, ?, ?)", "Hund", "der", "dog")
		return err
	})
	require.NoError(t, err)

	rollback := errors.New("rollback")
	err = db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO words (german, article, english) VALUES (?, ?, ?)", "Katze", "die", "cat"); err != nil {
			return err
		}
		return rollback
	})
	assert.ErrorIs(t, err, rollback)

	var germans []string
	require.NoError(t, db.SelectContext(ctx, &germans, "SELECT german FROM words ORDER BY id"))
	assert.Equal(t, []string{"Hund"}, germans)
}

func TestInTxJoinsCarriedTransaction(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, isDB := db.Conn(ctx).(*DB)
	assert.True(t, isDB, "no transaction outside InTx")

	rollback := errors.New("rollback")
	err := db.InTx(ctx, func(ctx context.Context) error {
		_, isTx := db.Conn(ctx).(*Tx)
		assert.True(t, isTx)

		if _, err := db.Conn(ctx).ExecContext(ctx, "INSERT INTO words (german, article, english) VALUES (?, ?, ?)", "Hund", "der", "dog"); err != nil {
			return err
		}
		// a nested WithTx joins instead of committing on its own
		err := db.WithTx(ctx, func(tx *Tx) error {
			_, err := tx.ExecContext(ctx, "INSERT INTO words (german, article, english) VALUES (?, ?, ?)", "Katze", "die", "cat")
			return err
		})
		require.NoError(t, err)
		return rollback
	})
	assert.ErrorIs(t, err, rollback)

	var count int
	require.NoError(t, db.GetContext(ctx, &count, "SELECT COUNT(*) FROM words"))
	assert.Zero(t, count)
}

func TestForeignKeysEnforced(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		"INSERT INTO word_progress (user_id, word_id, last_seen) VALUES (?, ?, CURRENT_TIMESTAMP)", 99, 99)
	assert.Error(t, err)
}

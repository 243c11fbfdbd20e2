package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"deutschdrill/internal/database"
	"deutschdrill/internal/models"
	"deutschdrill/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "drill.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations(context.Background(), migrations.FS, zap.NewNop()))
	return db
}

func createUser(t *testing.T, db *database.DB, name string) *models.User {
	t.Helper()
	user, err := NewUserRepository(db).CreateUser(context.Background(), name, "", "hash", false)
	require.NoError(t, err)
	require.NotNil(t, user)
	return user
}

func TestUserRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := createUser(t, db, "anna")
	assert.Equal(t, "anna", user.Username)
	assert.Nil(t, user.TelegramChatID)

	got, err := repo.GetUserByUsername(ctx, "anna")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	missing, err := repo.GetUserByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	other := createUser(t, db, "ben")
	require.NoError(t, repo.SetTelegramChatID(ctx, user.ID, 42))
	require.NoError(t, repo.SetTelegramChatID(ctx, other.ID, 42))

	linked, err := repo.GetUserByTelegramChatID(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, linked)
	assert.Equal(t, other.ID, linked.ID)

	now := time.Now().UTC()
	_, err = repo.CreateSession(ctx, "live", user.ID, now.Add(time.Hour))
	require.NoError(t, err)
	_, err = repo.CreateSession(ctx, "dead", user.ID, now.Add(-time.Hour))
	require.NoError(t, err)

	n, err := repo.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	s, err := repo.GetSession(ctx, "live")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, user.ID, s.UserID)
}

func TestCatalogRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewCatalogRepository(db)
	ctx := context.Background()

	wordID, err := repo.CreateWord(ctx, models.Word{German: "Hund", Article: models.ArticleDer, English: "dog", Level: "A1"})
	require.NoError(t, err)

	verb := models.Verb{
		Infinitive: "sein",
		English:    "to be",
		Forms:      models.Conjugation{"bin", "bist", "ist", "sind", "seid", "sind"},
		Level:      "A1",
	}
	verbID, err := repo.CreateVerb(ctx, verb)
	require.NoError(t, err)

	w, err := repo.FindWord(ctx, "Hund", models.ArticleDer)
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, wordID, w.ID)

	v, err := repo.GetVerb(ctx, verbID)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, verb.Forms, v.Forms)

	none, err := repo.GetWord(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = repo.CreateWord(ctx, models.Word{German: "Hund", Article: models.ArticleDer, English: "hound", Level: "A1"})
	assert.Error(t, err, "german+article is unique")

	verbs, err := repo.ListVerbs(ctx)
	require.NoError(t, err)
	assert.Len(t, verbs, 1)

	count, err := repo.Count(ctx, models.KindWord)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProgressRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user := createUser(t, db, "anna")
	wordID, err := NewCatalogRepository(db).CreateWord(ctx, models.Word{German: "Katze", Article: models.ArticleDie, English: "cat", Level: "A1"})
	require.NoError(t, err)

	repo := NewProgressRepository(db)
	bump := func(p models.ItemProgress) models.ItemProgress {
		p.TimesSeen++
		p.PriorityScore = 70
		p.LastSeen = time.Now()
		return p
	}

	p, err := repo.UpdateProgress(ctx, user.ID, models.KindWord, wordID, bump)
	require.NoError(t, err)
	assert.Equal(t, 1, p.TimesSeen)

	p, err = repo.UpdateProgress(ctx, user.ID, models.KindWord, wordID, bump)
	require.NoError(t, err)
	assert.Equal(t, 2, p.TimesSeen)

	all, err := repo.ProgressByUser(ctx, user.ID, models.KindWord)
	require.NoError(t, err)
	require.Contains(t, all, wordID)
	assert.Equal(t, 2, all[wordID].TimesSeen)
	assert.InDelta(t, 70, all[wordID].PriorityScore, 1e-9)

	learned, err := repo.CountLearned(ctx, user.ID, models.KindWord)
	require.NoError(t, err)
	assert.Equal(t, 1, learned)

	_, err = repo.ProgressByUser(ctx, user.ID, models.ItemKind("noun"))
	assert.Error(t, err)
}

func TestProgressRepositoryConcurrentUpdates(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user := createUser(t, db, "anna")
	wordID, err := NewCatalogRepository(db).CreateWord(ctx, models.Word{German: "Haus", Article: models.ArticleDas, English: "house", Level: "A1"})
	require.NoError(t, err)

	repo := NewProgressRepository(db)
	const workers = 8

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.UpdateProgress(ctx, user.ID, models.KindWord, wordID, func(p models.ItemProgress) models.ItemProgress {
				p.TimesSeen++
				p.LastSeen = time.Now()
				return p
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := repo.ProgressByUser(ctx, user.ID, models.KindWord)
	require.NoError(t, err)
	assert.Equal(t, workers, all[wordID].TimesSeen)
}

func TestDrillCards(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user := createUser(t, db, "anna")
	repo := NewProgressRepository(db)

	require.NoError(t, repo.SetCard(ctx, models.DrillCard{UserID: user.ID, Kind: models.KindWord, ItemID: 1, PresentedAt: time.Now()}))
	require.NoError(t, repo.SetCard(ctx, models.DrillCard{UserID: user.ID, Kind: models.KindWord, ItemID: 2, PresentedAt: time.Now()}))

	card, err := repo.GetCard(ctx, user.ID, models.KindWord)
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, int64(2), card.ItemID)

	cleared, err := repo.ClearCard(ctx, user.ID, models.KindWord, 1)
	require.NoError(t, err)
	assert.False(t, cleared)

	cleared, err = repo.ClearCard(ctx, user.ID, models.KindWord, 2)
	require.NoError(t, err)
	assert.True(t, cleared)

	card, err = repo.GetCard(ctx, user.ID, models.KindWord)
	require.NoError(t, err)
	assert.Nil(t, card)
}

func TestTestSessionVersioning(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user := createUser(t, db, "anna")
	repo := NewTestRepository(db)

	s := &models.TestSession{
		ID:        "3f1c",
		UserID:    user.ID,
		Kind:      models.KindWord,
		Mode:      models.TestModeMock,
		Direction: models.DirectionEnDe,
		ItemIDs:   []int64{1, 2, 3},
		StartedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateTestSession(ctx, s))

	first, err := repo.GetTestSession(ctx, s.ID, user.ID)
	require.NoError(t, err)
	second, err := repo.GetTestSession(ctx, s.ID, user.ID)
	require.NoError(t, err)

	first.Index = 1
	require.NoError(t, repo.SaveTestSession(ctx, first))
	assert.Equal(t, 1, first.Version)

	second.Index = 1
	assert.ErrorIs(t, repo.SaveTestSession(ctx, second), ErrVersionConflict)

	stored, err := repo.GetTestSession(ctx, s.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Index)
	assert.Equal(t, []int64{1, 2, 3}, stored.ItemIDs)

	foreign, err := repo.GetTestSession(ctx, s.ID, user.ID+1)
	require.NoError(t, err)
	assert.Nil(t, foreign)

	deleted, err := repo.DeleteTestSession(ctx, s.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.DeleteTestSession(ctx, s.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	gone, err := repo.GetTestSession(ctx, s.ID, user.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestInTxRollsBackProgressOnConflict(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user := createUser(t, db, "anna")
	progress := NewProgressRepository(db)
	tests := NewTestRepository(db)

	s := &models.TestSession{ID: "9a2e", UserID: user.ID, Kind: models.KindWord, Mode: models.TestModeMock,
		ItemIDs: []int64{1, 2}, StartedAt: time.Now().UTC()}
	require.NoError(t, tests.CreateTestSession(ctx, s))
	stale := *s
	s.Index = 1
	require.NoError(t, tests.SaveTestSession(ctx, s))

	bump := func(p models.ItemProgress) models.ItemProgress {
		p.TimesSeen++
		return p
	}
	err := db.InTx(ctx, func(ctx context.Context) error {
		if _, err := progress.UpdateProgress(ctx, user.ID, models.KindWord, 1, bump); err != nil {
			return err
		}
		stale.Index = 1
		return tests.SaveTestSession(ctx, &stale)
	})
	assert.ErrorIs(t, err, ErrVersionConflict)

	rows, err := progress.ProgressByUser(ctx, user.ID, models.KindWord)
	require.NoError(t, err)
	assert.Empty(t, rows, "progress write rolled back with the failed save")

	err = db.InTx(ctx, func(ctx context.Context) error {
		if _, err := progress.UpdateProgress(ctx, user.ID, models.KindWord, 1, bump); err != nil {
			return err
		}
		cleared, err := progress.ClearCard(ctx, user.ID, models.KindWord, 1)
		require.NoError(t, err)
		assert.False(t, cleared)
		return tests.SaveTestSession(ctx, s)
	})
	require.NoError(t, err)

	rows, err = progress.ProgressByUser(ctx, user.ID, models.KindWord)
	require.NoError(t, err)
	assert.Equal(t, 1, rows[1].TimesSeen)
	stored, err := tests.GetTestSession(ctx, s.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Version)
}

func TestTestResults(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user := createUser(t, db, "anna")
	repo := NewTestRepository(db)

	report := &models.TestReport{
		UserID:    user.ID,
		Kind:      models.KindWord,
		Mode:      models.TestModeMock,
		Direction: models.DirectionEnDe,
		Outcomes: []models.QuestionOutcome{
			{Position: 1, Kind: models.KindWord, ItemID: 1, Prompt: "dog", UserAnswer: "der Hund", CorrectAnswer: "der Hund", Correct: true, Credit: 1},
			{Position: 2, Kind: models.KindWord, ItemID: 2, Prompt: "cat", UserAnswer: "der Katze", CorrectAnswer: "die Katze"},
		},
		Score:      1,
		Total:      2,
		Percentage: 50,
		Grade:      "F",
		TakenAt:    time.Now(),
	}
	id, err := repo.AppendTestReport(ctx, report)
	require.NoError(t, err)
	assert.Equal(t, id, report.ID)

	graded := *report
	graded.Mode = models.TestModeReal
	_, err = repo.AppendTestReport(ctx, &graded)
	require.NoError(t, err)

	mocks, err := repo.ListTestResults(ctx, user.ID, true, 10)
	require.NoError(t, err)
	require.Len(t, mocks, 1)
	require.Len(t, mocks[0].Mistakes, 1)
	assert.Equal(t, "die Katze", mocks[0].Mistakes[0].CorrectAnswer)

	n, err := repo.DeleteMockResults(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	reals, err := repo.ListTestResults(ctx, user.ID, false, 10)
	require.NoError(t, err)
	assert.Len(t, reals, 1)
}

func TestActivityRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user := createUser(t, db, "anna")
	repo := NewActivityRepository(db)

	start := time.Now().UTC().Add(-time.Hour)
	log, err := repo.CreateLog(ctx, user.ID, start)
	require.NoError(t, err)
	require.NoError(t, repo.TouchLog(ctx, log.ID, start.Add(12*time.Minute)))

	open, err := repo.GetOpenLog(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, open)

	idle, err := repo.ListIdleOpenLogs(ctx, start.Add(20*time.Minute))
	require.NoError(t, err)
	require.Len(t, idle, 1)

	require.NoError(t, repo.CloseLog(ctx, &idle[0]))
	assert.Equal(t, 12, idle[0].DurationMinutes)
	// second close is a no-op
	require.NoError(t, repo.CloseLog(ctx, &idle[0]))

	minutes, err := repo.SumMinutesSince(ctx, user.ID, start.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 12, minutes)

	u, err := NewUserRepository(db).GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, u.TotalTimeMinutes)

	open, err = repo.GetOpenLog(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, open)
}

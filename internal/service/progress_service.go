package service

import (
	"context"
	"fmt"
	"time"

	"deutschdrill/internal/models"

	"go.uber.org/zap"
)

const recentResultsLimit = 10

// LearnedCounter counts the items a user has been graded on
type LearnedCounter interface {
	CountLearned(ctx context.Context, userID int64, kind models.ItemKind) (int, error)
}

// CatalogCounter counts the items in a catalog
type CatalogCounter interface {
	Count(ctx context.Context, kind models.ItemKind) (int, error)
}

// ResultStore reads and prunes finished test results
type ResultStore interface {
	ListTestResults(ctx context.Context, userID int64, mock bool, limit int) ([]models.TestResult, error)
	DeleteMockResults(ctx context.Context, userID int64) (int64, error)
}

// UserLookup finds a user by ID
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// ProgressService summarises a learner's state
type ProgressService struct {
	learned  LearnedCounter
	catalog  CatalogCounter
	results  ResultStore
	users    UserLookup
	activity *ActivityService
	logger   *zap.Logger
}

// NewProgressService creates a new progress service
func NewProgressService(learned LearnedCounter, catalog CatalogCounter, results ResultStore, users UserLookup, activity *ActivityService, logger *zap.Logger) *ProgressService {
	return &ProgressService{
		learned:  learned,
		catalog:  catalog,
		results:  results,
		users:    users,
		activity: activity,
		logger:   logger,
	}
}

// Overview collects learned counts, study time and recent test results
func (s *ProgressService) Overview(ctx context.Context, userID int64, now time.Time) (*models.ProgressOverview, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %d not found", userID)
	}

	o := &models.ProgressOverview{TotalMinutes: user.TotalTimeMinutes}

	if o.WordsLearned, err = s.learned.CountLearned(ctx, userID, models.KindWord); err != nil {
		return nil, err
	}
	if o.VerbsLearned, err = s.learned.CountLearned(ctx, userID, models.KindVerb); err != nil {
		return nil, err
	}
	if o.TotalWords, err = s.catalog.Count(ctx, models.KindWord); err != nil {
		return nil, err
	}
	if o.TotalVerbs, err = s.catalog.Count(ctx, models.KindVerb); err != nil {
		return nil, err
	}
	if o.TodayMinutes, err = s.activity.TodayMinutes(ctx, userID, now); err != nil {
		return nil, err
	}
	if o.MockTests, err = s.results.ListTestResults(ctx, userID, true, recentResultsLimit); err != nil {
		return nil, err
	}
	if o.RealTests, err = s.results.ListTestResults(ctx, userID, false, recentResultsLimit); err != nil {
		return nil, err
	}
	return o, nil
}

// ClearMockTests deletes the user's mock results. Real results are kept.
func (s *ProgressService) ClearMockTests(ctx context.Context, userID int64) (int64, error) {
	n, err := s.results.DeleteMockResults(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("cleared mock tests", zap.Int64("user_id", userID), zap.Int64("deleted", n))
	return n, nil
}

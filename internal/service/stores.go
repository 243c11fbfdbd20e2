package service

import (
	"context"
	"time"

	"deutschdrill/internal/models"
)

// Transactor runs fn atomically; store calls made with the ctx passed to fn
// join the transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CatalogStore reads the word and verb catalogs
type CatalogStore interface {
	ListWords(ctx context.Context) ([]models.Word, error)
	ListVerbs(ctx context.Context) ([]models.Verb, error)
	GetWord(ctx context.Context, id int64) (*models.Word, error)
	GetVerb(ctx context.Context, id int64) (*models.Verb, error)
}

// ProgressStore reads progress and applies atomic read-modify-write updates per (user, item)
type ProgressStore interface {
	ProgressByUser(ctx context.Context, userID int64, kind models.ItemKind) (map[int64]models.ItemProgress, error)
	UpdateProgress(ctx context.Context, userID int64, kind models.ItemKind, itemID int64, fn func(models.ItemProgress) models.ItemProgress) (models.ItemProgress, error)
}

// DrillCardStore persists the card currently presented in a drill
type DrillCardStore interface {
	SetCard(ctx context.Context, card models.DrillCard) error
	GetCard(ctx context.Context, userID int64, kind models.ItemKind) (*models.DrillCard, error)
	ClearCard(ctx context.Context, userID int64, kind models.ItemKind, itemID int64) (bool, error)
}

// TestStore persists running test sessions and finished reports
type TestStore interface {
	CreateTestSession(ctx context.Context, s *models.TestSession) error
	GetTestSession(ctx context.Context, id string, userID int64) (*models.TestSession, error)
	SaveTestSession(ctx context.Context, s *models.TestSession) error
	DeleteTestSession(ctx context.Context, id string, userID int64) (bool, error)
	AppendTestReport(ctx context.Context, report *models.TestReport) (int64, error)
}

// UserStore manages accounts and login sessions
type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string, isAdmin bool) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateSession(ctx context.Context, sessionID string, userID int64, expiresAt time.Time) (*models.Session, error)
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// ReportNotifier is told about every finished real test
type ReportNotifier interface {
	NotifyReport(ctx context.Context, report *models.TestReport) error
}

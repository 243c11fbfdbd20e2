package handlers

import (
	"context"
	"io"
	"time"

	"deutschdrill/internal/grading"
	"deutschdrill/internal/importer"
	"deutschdrill/internal/models"
	"deutschdrill/internal/service"
)

// Authenticator is the part of service.AuthService the API uses
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*models.Session, *models.User, error)
	Logout(ctx context.Context, sessionID string) error
	IssueToken(ctx context.Context, username, password string) (string, time.Time, error)
	ValidateSession(ctx context.Context, sessionID string) (*models.User, error)
	ValidateToken(ctx context.Context, token string) (*models.User, error)
}

// ActivityTracker records study time around requests
type ActivityTracker interface {
	Start(ctx context.Context, userID int64, now time.Time) error
	Touch(ctx context.Context, userID int64, now time.Time) error
	End(ctx context.Context, userID int64, now time.Time) error
}

// Drill runs single-card drills
type Drill interface {
	Next(ctx context.Context, userID int64, kind models.ItemKind) (*service.PresentedItem, error)
	GradeWord(ctx context.Context, userID, wordID int64, answer string, direction models.Direction) (*service.GradeResult, error)
	GradeVerb(ctx context.Context, userID, verbID int64, answers grading.VerbAnswers) (*service.VerbGradeResult, error)
}

// Tests runs batch tests
type Tests interface {
	Start(ctx context.Context, userID int64, opts service.StartOptions) (*models.TestSession, error)
	CurrentQuestion(ctx context.Context, userID int64, handle string) (*service.Question, error)
	Submit(ctx context.Context, userID int64, handle string, answer service.Answer) (*service.SubmitResult, error)
	Finish(ctx context.Context, userID int64, handle string) (*models.TestReport, error)
}

// Progress reports learning state
type Progress interface {
	Overview(ctx context.Context, userID int64, now time.Time) (*models.ProgressOverview, error)
	ClearMockTests(ctx context.Context, userID int64) (int64, error)
}

// CatalogAdmin loads and dumps word and verb lists
type CatalogAdmin interface {
	Import(ctx context.Context, kind models.ItemKind, r io.Reader, filename string) (*importer.Result, error)
	Export(ctx context.Context, kind models.ItemKind, w io.Writer, format importer.Format) (int, error)
}

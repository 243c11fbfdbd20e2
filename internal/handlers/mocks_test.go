package handlers

import (
	"context"
	"io"
	"time"

	"deutschdrill/internal/grading"
	"deutschdrill/internal/importer"
	"deutschdrill/internal/models"
	"deutschdrill/internal/service"

	"github.com/stretchr/testify/mock"
)

type mockAuth struct{ mock.Mock }

func (m *mockAuth) Login(ctx context.Context, username, password string) (*models.Session, *models.User, error) {
	args := m.Called(ctx, username, password)
	s, _ := args.Get(0).(*models.Session)
	u, _ := args.Get(1).(*models.User)
	return s, u, args.Error(2)
}

func (m *mockAuth) Logout(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *mockAuth) IssueToken(ctx context.Context, username, password string) (string, time.Time, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *mockAuth) ValidateSession(ctx context.Context, sessionID string) (*models.User, error) {
	args := m.Called(ctx, sessionID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockAuth) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

type mockActivity struct{ mock.Mock }

func (m *mockActivity) Start(ctx context.Context, userID int64, now time.Time) error {
	return m.Called(ctx, userID, now).Error(0)
}

func (m *mockActivity) Touch(ctx context.Context, userID int64, now time.Time) error {
	return m.Called(ctx, userID, now).Error(0)
}

func (m *mockActivity) End(ctx context.Context, userID int64, now time.Time) error {
	return m.Called(ctx, userID, now).Error(0)
}

type mockDrill struct{ mock.Mock }

func (m *mockDrill) Next(ctx context.Context, userID int64, kind models.ItemKind) (*service.PresentedItem, error) {
	args := m.Called(ctx, userID, kind)
	item, _ := args.Get(0).(*service.PresentedItem)
	return item, args.Error(1)
}

func (m *mockDrill) GradeWord(ctx context.Context, userID, wordID int64, answer string, direction models.Direction) (*service.GradeResult, error) {
	args := m.Called(ctx, userID, wordID, answer, direction)
	res, _ := args.Get(0).(*service.GradeResult)
	return res, args.Error(1)
}

func (m *mockDrill) GradeVerb(ctx context.Context, userID, verbID int64, answers grading.VerbAnswers) (*service.VerbGradeResult, error) {
	args := m.Called(ctx, userID, verbID, answers)
	res, _ := args.Get(0).(*service.VerbGradeResult)
	return res, args.Error(1)
}

type mockTests struct{ mock.Mock }

func (m *mockTests) Start(ctx context.Context, userID int64, opts service.StartOptions) (*models.TestSession, error) {
	args := m.Called(ctx, userID, opts)
	s, _ := args.Get(0).(*models.TestSession)
	return s, args.Error(1)
}

func (m *mockTests) CurrentQuestion(ctx context.Context, userID int64, handle string) (*service.Question, error) {
	args := m.Called(ctx, userID, handle)
	q, _ := args.Get(0).(*service.Question)
	return q, args.Error(1)
}

func (m *mockTests) Submit(ctx context.Context, userID int64, handle string, answer service.Answer) (*service.SubmitResult, error) {
	args := m.Called(ctx, userID, handle, answer)
	res, _ := args.Get(0).(*service.SubmitResult)
	return res, args.Error(1)
}

func (m *mockTests) Finish(ctx context.Context, userID int64, handle string) (*models.TestReport, error) {
	args := m.Called(ctx, userID, handle)
	r, _ := args.Get(0).(*models.TestReport)
	return r, args.Error(1)
}

type mockProgress struct{ mock.Mock }

func (m *mockProgress) Overview(ctx context.Context, userID int64, now time.Time) (*models.ProgressOverview, error) {
	args := m.Called(ctx, userID, now)
	o, _ := args.Get(0).(*models.ProgressOverview)
	return o, args.Error(1)
}

func (m *mockProgress) ClearMockTests(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type mockCatalog struct{ mock.Mock }

func (m *mockCatalog) Import(ctx context.Context, kind models.ItemKind, r io.Reader, filename string) (*importer.Result, error) {
	body, _ := io.ReadAll(r)
	args := m.Called(ctx, kind, string(body), filename)
	res, _ := args.Get(0).(*importer.Result)
	return res, args.Error(1)
}

func (m *mockCatalog) Export(ctx context.Context, kind models.ItemKind, w io.Writer, format importer.Format) (int, error) {
	args := m.Called(ctx, kind, format)
	if err := args.Error(1); err != nil {
		return 0, err
	}
	_, _ = io.WriteString(w, "article,german,english,level\n")
	return args.Int(0), nil
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

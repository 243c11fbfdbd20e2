package service

import (
	"context"
	"sync"
	"time"

	"deutschdrill/internal/models"
	"deutschdrill/internal/repository"

	"github.com/stretchr/testify/mock"
)

// seqRand replays fixed values, cycling when exhausted
type seqRand struct {
	vals []float64
	i    int
}

func (r *seqRand) Float64() float64 {
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v
}

// fakeTx serialises fn and counts how each transaction ended. Stores in
// these tests are mocks, so a rollback only shows up in the counters.
type fakeTx struct {
	mu        sync.Mutex
	commits   int
	rollbacks int
}

func (f *fakeTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := fn(ctx); err != nil {
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

type mockCatalogStore struct{ mock.Mock }

func (m *mockCatalogStore) ListWords(ctx context.Context) ([]models.Word, error) {
	args := m.Called(ctx)
	words, _ := args.Get(0).([]models.Word)
	return words, args.Error(1)
}

func (m *mockCatalogStore) ListVerbs(ctx context.Context) ([]models.Verb, error) {
	args := m.Called(ctx)
	verbs, _ := args.Get(0).([]models.Verb)
	return verbs, args.Error(1)
}

func (m *mockCatalogStore) GetWord(ctx context.Context, id int64) (*models.Word, error) {
	args := m.Called(ctx, id)
	w, _ := args.Get(0).(*models.Word)
	return w, args.Error(1)
}

func (m *mockCatalogStore) GetVerb(ctx context.Context, id int64) (*models.Verb, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*models.Verb)
	return v, args.Error(1)
}

// mockProgressStore returns the stored row from the expectation and applies
// fn to it, as the real store does inside its transaction
type mockProgressStore struct{ mock.Mock }

func (m *mockProgressStore) ProgressByUser(ctx context.Context, userID int64, kind models.ItemKind) (map[int64]models.ItemProgress, error) {
	args := m.Called(ctx, userID, kind)
	p, _ := args.Get(0).(map[int64]models.ItemProgress)
	return p, args.Error(1)
}

func (m *mockProgressStore) UpdateProgress(ctx context.Context, userID int64, kind models.ItemKind, itemID int64, fn func(models.ItemProgress) models.ItemProgress) (models.ItemProgress, error) {
	args := m.Called(ctx, userID, kind, itemID)
	if err := args.Error(1); err != nil {
		return models.ItemProgress{}, err
	}
	return fn(args.Get(0).(models.ItemProgress)), nil
}

type mockCardStore struct{ mock.Mock }

func (m *mockCardStore) SetCard(ctx context.Context, card models.DrillCard) error {
	return m.Called(ctx, card).Error(0)
}

func (m *mockCardStore) GetCard(ctx context.Context, userID int64, kind models.ItemKind) (*models.DrillCard, error) {
	args := m.Called(ctx, userID, kind)
	c, _ := args.Get(0).(*models.DrillCard)
	return c, args.Error(1)
}

func (m *mockCardStore) ClearCard(ctx context.Context, userID int64, kind models.ItemKind, itemID int64) (bool, error) {
	args := m.Called(ctx, userID, kind, itemID)
	return args.Bool(0), args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) NotifyReport(ctx context.Context, report *models.TestReport) error {
	return m.Called(ctx, report).Error(0)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) CreateUser(ctx context.Context, username, email, passwordHash string, isAdmin bool) (*models.User, error) {
	args := m.Called(ctx, username, email, passwordHash, isAdmin)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserStore) CreateSession(ctx context.Context, sessionID string, userID int64, expiresAt time.Time) (*models.Session, error) {
	args := m.Called(ctx, sessionID, userID, expiresAt)
	s, _ := args.Get(0).(*models.Session)
	return s, args.Error(1)
}

func (m *mockUserStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	args := m.Called(ctx, sessionID)
	s, _ := args.Get(0).(*models.Session)
	return s, args.Error(1)
}

func (m *mockUserStore) DeleteSession(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *mockUserStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// memTestStore keeps sessions in memory with the same version check as the database
type memTestStore struct {
	mu       sync.Mutex
	sessions map[string]models.TestSession
	reports  []*models.TestReport
}

func newMemTestStore() *memTestStore {
	return &memTestStore{sessions: make(map[string]models.TestSession)}
}

func (m *memTestStore) CreateTestSession(_ context.Context, s *models.TestSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Version = 0
	m.sessions[s.ID] = clone(*s)
	return nil
}

func (m *memTestStore) GetTestSession(_ context.Context, id string, userID int64) (*models.TestSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return nil, nil
	}
	c := clone(s)
	return &c, nil
}

func (m *memTestStore) SaveTestSession(_ context.Context, s *models.TestSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.sessions[s.ID]
	if !ok || stored.Version != s.Version {
		return repository.ErrVersionConflict
	}
	s.Version++
	m.sessions[s.ID] = clone(*s)
	return nil
}

func (m *memTestStore) DeleteTestSession(_ context.Context, id string, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return false, nil
	}
	delete(m.sessions, id)
	return true, nil
}

func (m *memTestStore) AppendTestReport(_ context.Context, report *models.TestReport) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, report)
	report.ID = int64(len(m.reports))
	return report.ID, nil
}

func clone(s models.TestSession) models.TestSession {
	s.ItemIDs = append([]int64(nil), s.ItemIDs...)
	s.Outcomes = append([]models.QuestionOutcome(nil), s.Outcomes...)
	return s
}

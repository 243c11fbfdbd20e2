package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"deutschdrill/internal/grading"
	"deutschdrill/internal/models"
	"deutschdrill/internal/repository"
	"deutschdrill/internal/scoring"
	"deutschdrill/internal/selection"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Default test sizes
const (
	MockVocabularySize = 10
	RealVocabularySize = 20
	VerbTestSize       = 4
)

// StartOptions describes a test to start. Zero Size picks the default for
// the kind and mode.
type StartOptions struct {
	Kind      models.ItemKind
	Mode      models.TestMode
	Direction models.Direction
	Size      int
}

// Question is the current question of a test, without its answer
type Question struct {
	Handle    string           `json:"handle"`
	Position  int              `json:"position"`
	Total     int              `json:"total"`
	Kind      models.ItemKind  `json:"kind"`
	Direction models.Direction `json:"direction,omitempty"`
	ItemID    int64            `json:"item_id"`
	Prompt    string           `json:"prompt"`
	Hint      string           `json:"hint,omitempty"`
}

// SubmitResult is the result of one answered question
type SubmitResult struct {
	Mode     models.TestMode        `json:"mode"`
	Outcome  models.QuestionOutcome `json:"outcome"`
	Score    float64                `json:"score"`
	Answered int                    `json:"answered"`
	Total    int                    `json:"total"`
	Complete bool                   `json:"complete"`
}

// TestService runs batch tests. A test is identified by a handle returned
// from Start; all state lives in the TestStore between calls.
type TestService struct {
	catalog  CatalogStore
	progress ProgressStore
	tests    TestStore
	tx       Transactor
	notifier ReportNotifier
	logger   *zap.Logger

	rnd selection.Rand
	now func() time.Time
}

// NewTestService creates a new test service. notifier may be nil.
func NewTestService(catalog CatalogStore, progress ProgressStore, tests TestStore, tx Transactor, notifier ReportNotifier, logger *zap.Logger) *TestService {
	return &TestService{
		catalog:  catalog,
		progress: progress,
		tests:    tests,
		tx:       tx,
		notifier: notifier,
		logger:   logger,
		rnd:      selection.DefaultRand,
		now:      time.Now,
	}
}

// DefaultSize returns the standard number of questions for a test
func DefaultSize(kind models.ItemKind, mode models.TestMode) int {
	if kind == models.KindVerb {
		return VerbTestSize
	}
	if mode == models.TestModeReal {
		return RealVocabularySize
	}
	return MockVocabularySize
}

// Start draws the questions of a new test and returns its session
func (s *TestService) Start(ctx context.Context, userID int64, opts StartOptions) (*models.TestSession, error) {
	if opts.Mode != models.TestModeMock && opts.Mode != models.TestModeReal {
		return nil, fmt.Errorf("mode %q: %w", opts.Mode, ErrInvalidDirection)
	}
	if opts.Size <= 0 {
		opts.Size = DefaultSize(opts.Kind, opts.Mode)
	}

	progress, err := s.progress.ProgressByUser(ctx, userID, opts.Kind)
	if err != nil {
		return nil, err
	}
	lookup := selection.FromMap(progress)

	var ids []int64
	switch opts.Kind {
	case models.KindWord:
		if opts.Direction == "" {
			opts.Direction = models.DirectionEnDe
		}
		if opts.Direction != models.DirectionEnDe && opts.Direction != models.DirectionDeEn {
			return nil, fmt.Errorf("direction %q: %w", opts.Direction, ErrInvalidDirection)
		}
		if opts.Mode == models.TestModeReal && opts.Direction != models.DirectionEnDe {
			return nil, fmt.Errorf("real tests are en-de only: %w", ErrInvalidDirection)
		}
		words, err := s.catalog.ListWords(ctx)
		if err != nil {
			return nil, err
		}
		ids = itemIDs(selection.PickMany(words, lookup, opts.Size, s.rnd))
	case models.KindVerb:
		opts.Direction = ""
		verbs, err := s.catalog.ListVerbs(ctx)
		if err != nil {
			return nil, err
		}
		ids = itemIDs(selection.PickMany(verbs, lookup, opts.Size, s.rnd))
	default:
		return nil, fmt.Errorf("unknown item kind: %q", opts.Kind)
	}

	session := &models.TestSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      opts.Kind,
		Mode:      opts.Mode,
		Direction: opts.Direction,
		ItemIDs:   ids,
		StartedAt: s.now().UTC(),
	}
	if err := s.tests.CreateTestSession(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("test started",
		zap.String("handle", session.ID),
		zap.Int64("user_id", userID),
		zap.String("kind", string(opts.Kind)),
		zap.String("mode", string(opts.Mode)),
		zap.Int("questions", len(ids)),
	)
	return session, nil
}

// CurrentQuestion returns the next unanswered question, or ErrTestComplete
func (s *TestService) CurrentQuestion(ctx context.Context, userID int64, handle string) (*Question, error) {
	session, err := s.load(ctx, userID, handle)
	if err != nil {
		return nil, err
	}
	if session.State() != models.TestInProgress {
		return nil, ErrTestComplete
	}

	q := &Question{
		Handle:    session.ID,
		Position:  session.Index + 1,
		Total:     session.Total(),
		Kind:      session.Kind,
		Direction: session.Direction,
		ItemID:    session.ItemIDs[session.Index],
	}

	switch session.Kind {
	case models.KindWord:
		word, err := s.word(ctx, q.ItemID)
		if err != nil {
			return nil, err
		}
		q.Prompt = grading.Prompt(*word, session.Direction)
	case models.KindVerb:
		verb, err := s.verb(ctx, q.ItemID)
		if err != nil {
			return nil, err
		}
		q.Prompt = verb.Infinitive
		q.Hint = verb.English
	}
	return q, nil
}

// Answer is a submission to the current question. Text answers a
// vocabulary question, Forms a conjugation question.
type Answer struct {
	Text  string
	Forms grading.VerbAnswers
}

// Submit grades answer against the current question, whatever its kind. An
// empty or partial conjugation table is graded, not rejected.
func (s *TestService) Submit(ctx context.Context, userID int64, handle string, answer Answer) (*SubmitResult, error) {
	session, itemID, err := s.current(ctx, userID, handle, "")
	if err != nil {
		return nil, err
	}
	if session.Kind == models.KindVerb {
		return s.submitVerb(ctx, session, itemID, answer.Forms)
	}
	return s.submitWord(ctx, session, itemID, answer.Text)
}

// SubmitWord answers the current vocabulary question
func (s *TestService) SubmitWord(ctx context.Context, userID int64, handle, answer string) (*SubmitResult, error) {
	session, itemID, err := s.current(ctx, userID, handle, models.KindWord)
	if err != nil {
		return nil, err
	}
	return s.submitWord(ctx, session, itemID, answer)
}

// SubmitVerb answers the current conjugation question. The test earns
// correctSlots/6; progress counts as correct only for a full table.
func (s *TestService) SubmitVerb(ctx context.Context, userID int64, handle string, answers grading.VerbAnswers) (*SubmitResult, error) {
	session, itemID, err := s.current(ctx, userID, handle, models.KindVerb)
	if err != nil {
		return nil, err
	}
	return s.submitVerb(ctx, session, itemID, answers)
}

func (s *TestService) submitWord(ctx context.Context, session *models.TestSession, itemID int64, answer string) (*SubmitResult, error) {
	word, err := s.word(ctx, itemID)
	if err != nil {
		return nil, err
	}

	correct := grading.MatchNoun(answer, *word, session.Direction)
	outcome := models.QuestionOutcome{
		Position:      session.Index + 1,
		Kind:          models.KindWord,
		ItemID:        itemID,
		Prompt:        grading.Prompt(*word, session.Direction),
		UserAnswer:    answer,
		CorrectAnswer: grading.ExpectedAnswer(*word, session.Direction),
		Correct:       correct,
	}
	if correct {
		outcome.Credit = 1
	}
	return s.advance(ctx, session, outcome)
}

func (s *TestService) submitVerb(ctx context.Context, session *models.TestSession, itemID int64, answers grading.VerbAnswers) (*SubmitResult, error) {
	verb, err := s.verb(ctx, itemID)
	if err != nil {
		return nil, err
	}

	grade := grading.GradeVerb(answers, *verb)
	outcome := models.QuestionOutcome{
		Position:      session.Index + 1,
		Kind:          models.KindVerb,
		ItemID:        itemID,
		Prompt:        verb.Infinitive,
		UserAnswer:    grading.JoinAnswers(answers),
		CorrectAnswer: grading.JoinForms(verb.Forms),
		Correct:       grade.AllCorrect(),
		Credit:        grade.Credit(),
		Slots:         grade.Outcomes(),
	}
	return s.advance(ctx, session, outcome)
}

// Finish turns a complete test into its report and ends the session
func (s *TestService) Finish(ctx context.Context, userID int64, handle string) (*models.TestReport, error) {
	session, err := s.load(ctx, userID, handle)
	if err != nil {
		return nil, err
	}
	if session.State() != models.TestComplete {
		return nil, fmt.Errorf("test has %d unanswered questions: %w", session.Total()-session.Index, ErrSessionState)
	}

	// deleting first means a concurrent Finish finds nothing to report
	deleted, err := s.tests.DeleteTestSession(ctx, session.ID, userID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, ErrTestNotFound
	}

	report := BuildReport(session, s.now().UTC(), s.rnd)
	if _, err := s.tests.AppendTestReport(ctx, report); err != nil {
		return nil, err
	}

	s.logger.Info("test finished",
		zap.String("handle", session.ID),
		zap.Int64("user_id", userID),
		zap.Float64("score", report.Score),
		zap.Int("total", report.Total),
		zap.String("grade", report.Grade),
	)

	if report.Mode == models.TestModeReal && s.notifier != nil {
		if err := s.notifier.NotifyReport(ctx, report); err != nil {
			s.logger.Warn("failed to send test report", zap.Int64("test_id", report.ID), zap.Error(err))
		}
	}
	return report, nil
}

// BuildReport computes the immutable report of a complete session
func BuildReport(session *models.TestSession, takenAt time.Time, rnd selection.Rand) *models.TestReport {
	total := session.Total()
	pct := Percentage(session.Score, total)
	outcomes := make([]models.QuestionOutcome, len(session.Outcomes))
	copy(outcomes, session.Outcomes)

	return &models.TestReport{
		UserID:     session.UserID,
		Kind:       session.Kind,
		Mode:       session.Mode,
		Direction:  session.Direction,
		Outcomes:   outcomes,
		Score:      session.Score,
		Total:      total,
		Percentage: pct,
		Grade:      LetterGrade(pct),
		Feedback:   FeedbackFor(pct, rnd),
		TakenAt:    takenAt,
	}
}

// advance updates progress and then saves the advanced session, both in one
// transaction. The save is a compare-and-swap, so a double submit of the same
// question loses with ErrSessionState and its progress update is rolled back.
// Any failure leaves the session on the same question.
func (s *TestService) advance(ctx context.Context, session *models.TestSession, outcome models.QuestionOutcome) (*SubmitResult, error) {
	now := s.now().UTC()
	next := *session
	next.Outcomes = append(slices.Clone(session.Outcomes), outcome)
	next.Score += outcome.Credit
	next.Index++

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		_, err := s.progress.UpdateProgress(ctx, session.UserID, outcome.Kind, outcome.ItemID, func(p models.ItemProgress) models.ItemProgress {
			return scoring.Apply(p, outcome.Correct, now)
		})
		if err != nil {
			return err
		}
		if err := s.tests.SaveTestSession(ctx, &next); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return fmt.Errorf("question %d was already answered: %w", outcome.Position, ErrSessionState)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	*session = next

	return &SubmitResult{
		Mode:     session.Mode,
		Outcome:  outcome,
		Score:    session.Score,
		Answered: session.Index,
		Total:    session.Total(),
		Complete: session.State() == models.TestComplete,
	}, nil
}

// current loads the session and checks that it expects an answer of kind.
// An empty kind accepts either.
func (s *TestService) current(ctx context.Context, userID int64, handle string, kind models.ItemKind) (*models.TestSession, int64, error) {
	session, err := s.load(ctx, userID, handle)
	if err != nil {
		return nil, 0, err
	}
	if session.State() != models.TestInProgress {
		return nil, 0, fmt.Errorf("test is complete: %w", ErrSessionState)
	}
	if kind != "" && session.Kind != kind {
		return nil, 0, fmt.Errorf("%s test cannot take a %s answer: %w", session.Kind, kind, ErrSessionState)
	}
	return session, session.ItemIDs[session.Index], nil
}

func (s *TestService) load(ctx context.Context, userID int64, handle string) (*models.TestSession, error) {
	if _, err := uuid.Parse(handle); err != nil {
		return nil, ErrTestNotFound
	}
	session, err := s.tests.GetTestSession(ctx, handle, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrTestNotFound
	}
	return session, nil
}

func (s *TestService) word(ctx context.Context, id int64) (*models.Word, error) {
	word, err := s.catalog.GetWord(ctx, id)
	if err != nil {
		return nil, err
	}
	if word == nil {
		return nil, fmt.Errorf("word %d no longer exists: %w", id, ErrSessionState)
	}
	return word, nil
}

func (s *TestService) verb(ctx context.Context, id int64) (*models.Verb, error) {
	verb, err := s.catalog.GetVerb(ctx, id)
	if err != nil {
		return nil, err
	}
	if verb == nil {
		return nil, fmt.Errorf("verb %d no longer exists: %w", id, ErrSessionState)
	}
	return verb, nil
}

func itemIDs[T models.Item](items []T) []int64 {
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ItemID()
	}
	return ids
}

package models

import (
	"fmt"
	"strings"
	"time"
)

// TestMode separates practice (mock) tests from graded (real) ones
type TestMode string

const (
	TestModeMock TestMode = "mock"
	TestModeReal TestMode = "real"
)

// ParseTestMode validates a mode string
func ParseTestMode(s string) (TestMode, error) {
	switch TestMode(strings.ToLower(strings.TrimSpace(s))) {
	case TestModeMock:
		return TestModeMock, nil
	case TestModeReal:
		return TestModeReal, nil
	}
	return "", fmt.Errorf("unknown test mode: %q", s)
}

// Direction is the translation direction of a vocabulary question, source-target
type Direction string

const (
	// DirectionEnDe prompts with English and grades the German answer
	DirectionEnDe Direction = "en-de"
	// DirectionDeEn prompts with German and grades the English answer
	DirectionDeEn Direction = "de-en"
)

// ParseDirection validates a direction string; empty means en-de
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "", DirectionEnDe:
		return DirectionEnDe, nil
	case DirectionDeEn:
		return DirectionDeEn, nil
	}
	return "", fmt.Errorf("unknown direction: %q", s)
}

// TestState is the lifecycle position of a test session
type TestState string

const (
	TestNotStarted TestState = "not_started"
	TestInProgress TestState = "in_progress"
	TestComplete   TestState = "complete"
)

// TestSession is the persisted state of a running test. Its ID is the
// handle callers pass back on every call.
type TestSession struct {
	ID        string            `json:"id"`
	UserID    int64             `json:"user_id"`
	Kind      ItemKind          `json:"kind"`
	Mode      TestMode          `json:"mode"`
	Direction Direction         `json:"direction"`
	ItemIDs   []int64           `json:"item_ids"`
	Index     int               `json:"index"`
	Score     float64           `json:"score"`
	Outcomes  []QuestionOutcome `json:"outcomes"`
	StartedAt time.Time         `json:"started_at"`
	Version   int               `json:"-"`
}

// State derives the lifecycle state from the index
func (s *TestSession) State() TestState {
	if s.StartedAt.IsZero() {
		return TestNotStarted
	}
	if s.Index >= len(s.ItemIDs) {
		return TestComplete
	}
	return TestInProgress
}

// Total is the number of questions in the test
func (s *TestSession) Total() int {
	return len(s.ItemIDs)
}

// SlotOutcome is the grading of one conjugation slot
type SlotOutcome struct {
	Slot          string `json:"slot"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	Correct       bool   `json:"correct"`
	Missing       bool   `json:"missing,omitempty"`
}

// QuestionOutcome is the result of one answered question
type QuestionOutcome struct {
	Position      int           `json:"position"`
	Kind          ItemKind      `json:"kind"`
	ItemID        int64         `json:"item_id"`
	Prompt        string        `json:"prompt"`
	UserAnswer    string        `json:"user_answer"`
	CorrectAnswer string        `json:"correct_answer"`
	Correct       bool          `json:"correct"`
	Credit        float64       `json:"credit"`
	Slots         []SlotOutcome `json:"slots,omitempty"`
}

// Feedback is the face and comment shown with a finished test
type Feedback struct {
	Face    string `json:"face"`
	Comment string `json:"comment"`
}

// TestReport is the immutable result of a finished test
type TestReport struct {
	ID         int64             `json:"id"`
	UserID     int64             `json:"-"`
	Kind       ItemKind          `json:"kind"`
	Mode       TestMode          `json:"mode"`
	Direction  Direction         `json:"direction"`
	Outcomes   []QuestionOutcome `json:"outcomes"`
	Score      float64           `json:"score"`
	Total      int               `json:"total"`
	Percentage float64           `json:"percentage"`
	Grade      string            `json:"grade"`
	Feedback   Feedback          `json:"feedback"`
	TakenAt    time.Time         `json:"taken_at"`
}

// Mistakes returns the outcomes that were not fully correct
func (r *TestReport) Mistakes() []QuestionOutcome {
	var out []QuestionOutcome
	for _, o := range r.Outcomes {
		if !o.Correct {
			out = append(out, o)
		}
	}
	return out
}

// TestResult is a stored test summary as read back for history views
type TestResult struct {
	ID         int64        `db:"id" json:"id"`
	UserID     int64        `db:"user_id" json:"-"`
	TestType   ItemKind     `db:"test_type" json:"test_type"`
	IsMock     bool         `db:"is_mock" json:"is_mock"`
	Direction  Direction    `db:"direction" json:"direction"`
	Score      float64      `db:"score" json:"score"`
	Total      int          `db:"total" json:"total"`
	Percentage float64      `db:"percentage" json:"percentage"`
	Grade      string       `db:"grade" json:"grade"`
	TakenAt    time.Time    `db:"taken_at" json:"taken_at"`
	Mistakes   []TestAnswer `db:"-" json:"mistakes"`
}

// TestAnswer is one stored answer of a finished test
type TestAnswer struct {
	ID            int64    `db:"id" json:"-"`
	TestID        int64    `db:"test_id" json:"-"`
	Position      int      `db:"position" json:"position"`
	ItemKind      ItemKind `db:"item_kind" json:"item_kind"`
	ItemID        int64    `db:"item_id" json:"item_id"`
	Prompt        string   `db:"prompt" json:"prompt"`
	UserAnswer    string   `db:"user_answer" json:"user_answer"`
	CorrectAnswer string   `db:"correct_answer" json:"correct_answer"`
	IsCorrect     bool     `db:"is_correct" json:"is_correct"`
	Credit        float64  `db:"credit" json:"credit"`
}

package models

import "time"

// ItemProgress tracks one user's history with one word or verb
type ItemProgress struct {
	UserID         int64     `db:"user_id" json:"-"`
	ItemID         int64     `db:"item_id" json:"item_id"`
	Kind           ItemKind  `db:"-" json:"kind"`
	TimesSeen      int       `db:"times_seen" json:"times_seen"`
	TimesCorrect   int       `db:"times_correct" json:"times_correct"`
	TimesIncorrect int       `db:"times_incorrect" json:"times_incorrect"`
	PriorityScore  float64   `db:"priority_score" json:"priority_score"`
	LastSeen       time.Time `db:"last_seen" json:"last_seen"`
}

// DrillCard is the item currently presented to a user in a drill
type DrillCard struct {
	UserID      int64     `db:"user_id"`
	Kind        ItemKind  `db:"item_kind"`
	ItemID      int64     `db:"item_id"`
	PresentedAt time.Time `db:"presented_at"`
}

// ActivityLog is one continuous period of study time
type ActivityLog struct {
	ID              int64      `db:"id"`
	UserID          int64      `db:"user_id"`
	StartTime       time.Time  `db:"start_time"`
	LastActivity    time.Time  `db:"last_activity"`
	EndTime         *time.Time `db:"end_time"`
	DurationMinutes int        `db:"duration_minutes"`
}

// IsOpen reports whether the log has not been closed yet
func (l *ActivityLog) IsOpen() bool {
	return l.EndTime == nil
}

// ProgressOverview summarises a user's learning state
type ProgressOverview struct {
	WordsLearned int          `json:"words_learned"`
	VerbsLearned int          `json:"verbs_learned"`
	TotalWords   int          `json:"total_words"`
	TotalVerbs   int          `json:"total_verbs"`
	TotalMinutes int          `json:"total_minutes"`
	TodayMinutes int          `json:"today_minutes"`
	MockTests    []TestResult `json:"mock_tests"`
	RealTests    []TestResult `json:"real_tests"`
}

// Package scoring maintains the per-item priority score that drives selection.
package scoring

import (
	"math"
	"time"

	"deutschdrill/internal/models"
)

const (
	// DefaultScore is the score of an item that has never been graded
	DefaultScore = 100.0
	MinScore     = 1.0
	MaxScore     = 200.0

	correctFactor   = 0.7
	incorrectFactor = 1.5
)

// NextScore returns the score after one grading event. A nil current score
// counts as DefaultScore. The result is clamped to [MinScore, MaxScore].
func NextScore(current *float64, correct bool) float64 {
	s := DefaultScore
	if current != nil {
		s = *current
	}
	if math.IsNaN(s) {
		s = DefaultScore
	}
	if correct {
		s *= correctFactor
	} else {
		s *= incorrectFactor
	}
	return clamp(s)
}

func clamp(s float64) float64 {
	return math.Min(MaxScore, math.Max(MinScore, s))
}

// Apply records one grading event on p and returns the updated copy.
// A zero-value p (no record yet) starts from DefaultScore.
func Apply(p models.ItemProgress, correct bool, now time.Time) models.ItemProgress {
	var current *float64
	if p.TimesSeen > 0 || p.PriorityScore != 0 {
		score := p.PriorityScore
		current = &score
	}
	p.PriorityScore = NextScore(current, correct)
	p.TimesSeen++
	if correct {
		p.TimesCorrect++
	} else {
		p.TimesIncorrect++
	}
	p.LastSeen = now
	return p
}

// Weight is the selection weight of an item given its progress record, or
// nil when there is none. Stored scores outside the valid domain are
// treated as absent.
func Weight(p *models.ItemProgress) float64 {
	if p == nil || p.PriorityScore <= 0 || math.IsNaN(p.PriorityScore) || math.IsInf(p.PriorityScore, 0) {
		return DefaultScore
	}
	return p.PriorityScore
}

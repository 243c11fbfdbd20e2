package service

import (
	"deutschdrill/internal/models"
	"deutschdrill/internal/selection"
)

type feedbackBand struct {
	min      float64
	face     string
	comments []string
}

// bands are ordered from the highest threshold down
var bands = []feedbackBand{
	{90, "excellent", []string{
		"Ausgezeichnet! Hardly anything left to teach you.",
		"Top marks. Your German teacher would be proud.",
		"Near perfect. Take the rest of the day off.",
	}},
	{80, "great", []string{
		"Sehr gut! Just a few slips.",
		"Great work, the tricky ones are nearly there.",
		"Solid result. Polish the mistakes and you are at the top.",
	}},
	{70, "good", []string{
		"Gut gemacht. Keep drilling the misses.",
		"Good, but the articles still bite now and then.",
		"Respectable. Another round will push this higher.",
	}},
	{60, "okay", []string{
		"Passed, but only just.",
		"Okay. The drill list is waiting for you.",
		"Not bad, not great. More practice needed.",
	}},
	{50, "meh", []string{
		"Half right is also half wrong.",
		"Coin-flip territory. Time for more drills.",
		"Meh. Revisit the cards you missed.",
	}},
	{40, "poor", []string{
		"That was rough. Back to the flashcards.",
		"Poor result. Slow down and check the articles.",
		"The vocabulary is winning this round.",
	}},
	{30, "bad", []string{
		"Ouch. Lots of room for improvement.",
		"Bad day? Try a mock test first next time.",
		"Most answers missed the mark.",
	}},
	{0, "terrible", []string{
		"Autsch. Did you study at all?",
		"Start again with the drills and build up slowly.",
		"Terrible, but the only way from here is up.",
		"Even guessing would have scored higher.",
	}},
}

// Percentage is score/total*100, or 0 for an empty test
func Percentage(score float64, total int) float64 {
	if total <= 0 {
		return 0
	}
	return score / float64(total) * 100
}

// LetterGrade maps a percentage onto A-F
func LetterGrade(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A"
	case percentage >= 80:
		return "B"
	case percentage >= 70:
		return "C"
	case percentage >= 60:
		return "D"
	default:
		return "F"
	}
}

// FeedbackFor picks the face of the percentage band and one of its comments at random
func FeedbackFor(percentage float64, rnd selection.Rand) models.Feedback {
	band := bands[len(bands)-1]
	for _, b := range bands {
		if percentage >= b.min {
			band = b
			break
		}
	}
	i := int(rnd.Float64() * float64(len(band.comments)))
	if i >= len(band.comments) {
		i = len(band.comments) - 1
	}
	return models.Feedback{Face: band.face, Comment: band.comments[i]}
}

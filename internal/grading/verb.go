package grading

import (
	"strings"

	"deutschdrill/internal/models"
)

// VerbAnswers holds a learner's conjugation answers keyed by slot. A slot
// that is absent from the map was not submitted.
type VerbAnswers map[models.Slot]string

// ParseVerbAnswers builds VerbAnswers from slot names. Unknown names are
// dropped, so a malformed payload simply leaves slots missing.
func ParseVerbAnswers(raw map[string]string) VerbAnswers {
	answers := make(VerbAnswers, len(raw))
	for name, v := range raw {
		if s, ok := models.ParseSlot(name); ok {
			answers[s] = v
		}
	}
	return answers
}

// ParseVerbLine reads six comma-separated forms in slot order, as typed in a
// chat message. Extra fields are ignored; short lines leave slots missing.
func ParseVerbLine(line string) VerbAnswers {
	parts := strings.Split(line, ",")
	answers := make(VerbAnswers, models.NumSlots)
	for i, p := range parts {
		if i >= models.NumSlots {
			break
		}
		answers[models.Slot(i)] = strings.TrimSpace(p)
	}
	return answers
}

// SlotResult is the grading of one slot
type SlotResult struct {
	Slot     models.Slot
	Answer   string
	Expected string
	Correct  bool
	Missing  bool
}

// VerbGrade is the grading of a whole conjugation table
type VerbGrade struct {
	Slots        [models.NumSlots]SlotResult
	CorrectCount int
}

// AllCorrect reports whether every slot matched. Only a fully correct table
// counts as a correct answer for progress.
func (g VerbGrade) AllCorrect() bool {
	return g.CorrectCount == models.NumSlots
}

// Credit is the fraction of slots answered correctly
func (g VerbGrade) Credit() float64 {
	return float64(g.CorrectCount) / models.NumSlots
}

// Outcomes converts the grade into the stored per-slot form
func (g VerbGrade) Outcomes() []models.SlotOutcome {
	out := make([]models.SlotOutcome, 0, models.NumSlots)
	for _, r := range g.Slots {
		out = append(out, models.SlotOutcome{
			Slot:          r.Slot.String(),
			UserAnswer:    r.Answer,
			CorrectAnswer: r.Expected,
			Correct:       r.Correct,
			Missing:       r.Missing,
		})
	}
	return out
}

// GradeVerb grades every slot independently. Missing slots are incorrect.
func GradeVerb(answers VerbAnswers, verb models.Verb) VerbGrade {
	var g VerbGrade
	for _, s := range models.AllSlots {
		expected := verb.Forms.Form(s)
		answer, ok := answers[s]
		r := SlotResult{Slot: s, Answer: answer, Expected: expected, Missing: !ok}
		if ok && Matches(answer, expected, false) {
			r.Correct = true
			g.CorrectCount++
		}
		g.Slots[s] = r
	}
	return g
}

// JoinAnswers renders the submitted forms in slot order for storage
func JoinAnswers(answers VerbAnswers) string {
	parts := make([]string, 0, models.NumSlots)
	for _, s := range models.AllSlots {
		parts = append(parts, s.String()+": "+strings.TrimSpace(answers[s]))
	}
	return strings.Join(parts, "; ")
}

// JoinForms renders a conjugation table in slot order for storage
func JoinForms(forms models.Conjugation) string {
	parts := make([]string, 0, models.NumSlots)
	for _, s := range models.AllSlots {
		parts = append(parts, s.String()+": "+forms.Form(s))
	}
	return strings.Join(parts, "; ")
}

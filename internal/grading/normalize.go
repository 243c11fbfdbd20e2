// Package grading decides whether a learner's answer matches the expected one.
package grading

import (
	"strings"

	"deutschdrill/internal/models"
)

var umlautFolder = strings.NewReplacer(
	"ä", "ae", "Ä", "Ae",
	"ö", "oe", "Ö", "Oe",
	"ü", "ue", "Ü", "Ue",
	"ß", "ss", "ẞ", "SS",
)

var articles = []string{"der ", "die ", "das "}

// Normalize folds umlauts and sharp s into their two-letter ASCII spellings.
// The output contains no foldable runes, so Normalize is idempotent.
func Normalize(text string) string {
	return umlautFolder.Replace(text)
}

// canonical is the comparison form: folded, trimmed, lower-cased and with
// inner whitespace collapsed.
func canonical(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(Normalize(text)), " "))
}

// stripArticle removes a leading der/die/das from an already canonical string.
func stripArticle(s string) string {
	for _, a := range articles {
		if rest, ok := strings.CutPrefix(s, a); ok {
			return rest
		}
	}
	return s
}

// Matches compares a user answer with the expected one, ignoring case,
// surrounding whitespace and umlaut spelling. With articleOptional the
// answer may also omit the article of the expected answer.
// An empty answer never matches.
func Matches(userAnswer, canonicalAnswer string, articleOptional bool) bool {
	user := canonical(userAnswer)
	if user == "" {
		return false
	}
	want := canonical(canonicalAnswer)
	if user == want {
		return true
	}
	if !articleOptional {
		return false
	}
	bare := stripArticle(want)
	return bare != want && user == bare
}

// MatchTranslation grades an English answer. A leading "the " may be present
// on either side.
func MatchTranslation(userAnswer, english string) bool {
	user := canonical(userAnswer)
	if user == "" {
		return false
	}
	want := canonical(english)
	if user == want {
		return true
	}
	u, uok := strings.CutPrefix(user, "the ")
	w, wok := strings.CutPrefix(want, "the ")
	return (uok || wok) && u == w
}

// MatchNoun grades a vocabulary answer in the given direction. For en-de the
// German form is graded with the article optional; for de-en the English
// gloss is graded.
func MatchNoun(userAnswer string, word models.Word, direction models.Direction) bool {
	if direction == models.DirectionDeEn {
		return MatchTranslation(userAnswer, word.English)
	}
	return Matches(userAnswer, word.WithArticle(), true)
}

// ExpectedAnswer is the canonical answer shown back to the learner.
func ExpectedAnswer(word models.Word, direction models.Direction) string {
	if direction == models.DirectionDeEn {
		return word.English
	}
	return word.WithArticle()
}

// Prompt is the side of the card shown to the learner.
func Prompt(word models.Word, direction models.Direction) string {
	if direction == models.DirectionDeEn {
		return word.WithArticle()
	}
	return word.English
}

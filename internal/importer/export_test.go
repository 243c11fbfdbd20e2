package importer

import (
	"bytes"
	"testing"

	"deutschdrill/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatXLSX, "xlsx": FormatXLSX, ".CSV": FormatCSV} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("json")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExportedWordsReimport(t *testing.T) {
	words := []models.Word{
		{German: "Hund", Article: models.ArticleDer, English: "dog", Level: "A1"},
		{German: "Zeitung", Article: models.ArticleDie, English: "newspaper", Level: "B1"},
	}

	for _, format := range []Format{FormatCSV, FormatXLSX} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteRecords(&buf, WordRecords(words), format))

			records, err := ReadRecords(&buf, "words."+string(format))
			require.NoError(t, err)

			result := &Result{}
			assert.Equal(t, words, ParseWords(records, result))
			assert.Empty(t, result.Errors)
		})
	}
}

func TestExportedVerbsReimport(t *testing.T) {
	verbs := []models.Verb{{
		Infinitive: "mögen",
		English:    "to like",
		Forms:      models.Conjugation{"mag", "magst", "mag", "mögen", "mögt", "mögen"},
		Level:      "A2",
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, VerbRecords(verbs), FormatCSV))
	assert.Contains(t, buf.String(), "infinitive,english,ich,du,")

	records, err := ReadRecords(&buf, "verbs.csv")
	require.NoError(t, err)

	result := &Result{}
	assert.Equal(t, verbs, ParseVerbs(records, result))
	assert.Empty(t, result.Errors)
}

// Package importer reads and writes word and verb lists as CSV or XLSX files.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"deutschdrill/internal/models"
	"deutschdrill/internal/validation"

	"github.com/xuri/excelize/v2"
)

var ErrUnsupportedFormat = errors.New("unsupported file format, expected .csv or .xlsx")

// RowError describes a rejected row. Row is 1-based as shown in a spreadsheet.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Result summarises an import
type Result struct {
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors"`
}

// Fail records a row error
func (r *Result) Fail(row int, format string, args ...any) {
	r.Errors = append(r.Errors, RowError{Row: row, Message: fmt.Sprintf(format, args...)})
}

// ReadRecords reads every row of a CSV file or of the first sheet of an XLSX
// file, choosing the format by the filename extension.
func ReadRecords(r io.Reader, filename string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true
		records, err := reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		return records, nil
	case ".xlsx":
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
		}
		defer f.Close()

		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("spreadsheet has no sheets")
		}
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
		}
		return rows, nil
	}
	return nil, ErrUnsupportedFormat
}

type wordRow struct {
	Article string `validate:"omitempty,oneof=der die das"`
	German  string `validate:"required,max=100"`
	English string `validate:"required,max=200"`
	Level   string `validate:"oneof=A1 A2 B1 B2 C1"`
}

type verbRow struct {
	Infinitive string   `validate:"required,max=100"`
	English    string   `validate:"required,max=200"`
	Forms      []string `validate:"len=6,dive,required,max=100"`
	Level      string   `validate:"oneof=A1 A2 B1 B2 C1"`
}

// ParseWords turns records of article,german,english[,level] into words.
// A header row is skipped, blank rows are ignored and invalid rows are
// reported in the result.
func ParseWords(records [][]string, result *Result) []models.Word {
	var words []models.Word
	for i, rec := range records {
		row := i + 1
		if blank(rec) || (i == 0 && isHeader(rec, "article", "german")) {
			continue
		}
		if len(rec) < 3 {
			result.Fail(row, "expected article,german,english[,level], got %d columns", len(rec))
			continue
		}

		r := wordRow{
			Article: strings.ToLower(cell(rec, 0)),
			German:  cell(rec, 1),
			English: cell(rec, 2),
			Level:   level(cell(rec, 3)),
		}
		if err := validation.ValidateStruct(r); err != nil {
			result.Fail(row, "%v", err)
			continue
		}

		words = append(words, models.Word{
			German:  r.German,
			Article: models.Article(r.Article),
			English: r.English,
			Level:   r.Level,
		})
	}
	return words
}

// ParseVerbs turns records of infinitive,english,ich,du,er_sie_es,wir,ihr,sie_Sie[,level]
// into verbs, with the same header and error handling as ParseWords.
func ParseVerbs(records [][]string, result *Result) []models.Verb {
	var verbs []models.Verb
	for i, rec := range records {
		row := i + 1
		if blank(rec) || (i == 0 && isHeader(rec, "infinitive", "verb")) {
			continue
		}
		if len(rec) < 2+models.NumSlots {
			result.Fail(row, "expected infinitive,english and six forms, got %d columns", len(rec))
			continue
		}

		r := verbRow{
			Infinitive: cell(rec, 0),
			English:    cell(rec, 1),
			Level:      level(cell(rec, 2+models.NumSlots)),
		}
		for s := range models.NumSlots {
			r.Forms = append(r.Forms, cell(rec, 2+s))
		}
		if err := validation.ValidateStruct(r); err != nil {
			result.Fail(row, "%v", err)
			continue
		}

		var forms models.Conjugation
		copy(forms[:], r.Forms)
		verbs = append(verbs, models.Verb{
			Infinitive: r.Infinitive,
			English:    r.English,
			Forms:      forms,
			Level:      r.Level,
		})
	}
	return verbs
}

func cell(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func level(s string) string {
	if s == "" {
		return models.DefaultLevel
	}
	return strings.ToUpper(s)
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// isHeader reports whether the first cell names one of the given columns
func isHeader(rec []string, names ...string) bool {
	first := strings.ToLower(cell(rec, 0))
	for _, n := range names {
		if first == n {
			return true
		}
	}
	return false
}

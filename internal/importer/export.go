package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"deutschdrill/internal/models"

	"github.com/xuri/excelize/v2"
)

// Format is an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts csv or xlsx; empty means xlsx
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", ErrUnsupportedFormat
}

// ContentType is the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// WordRecords lays out words in the column order ParseWords reads
func WordRecords(words []models.Word) [][]string {
	records := [][]string{{"article", "german", "english", "level"}}
	for _, w := range words {
		records = append(records, []string{string(w.Article), w.German, w.English, w.Level})
	}
	return records
}

// VerbRecords lays out verbs in the column order ParseVerbs reads
func VerbRecords(verbs []models.Verb) [][]string {
	header := []string{"infinitive", "english"}
	for _, s := range models.AllSlots {
		header = append(header, s.String())
	}
	records := [][]string{append(header, "level")}

	for _, v := range verbs {
		row := []string{v.Infinitive, v.English}
		row = append(row, v.Forms[:]...)
		records = append(records, append(row, v.Level))
	}
	return records
}

// WriteRecords writes records as a CSV file or as the first sheet of an XLSX workbook
func WriteRecords(w io.Writer, records [][]string, format Format) error {
	switch format {
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.WriteAll(records); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
		return nil
	case FormatXLSX:
		return writeXLSX(w, records)
	}
	return ErrUnsupportedFormat
}

func writeXLSX(w io.Writer, records [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := make([]any, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return nil
}

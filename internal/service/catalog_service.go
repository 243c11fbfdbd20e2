package service

import (
	"context"
	"fmt"
	"io"

	"deutschdrill/internal/importer"
	"deutschdrill/internal/models"

	"go.uber.org/zap"
)

// CatalogWriter adds words and verbs, looking up duplicates first, and
// lists them for export
type CatalogWriter interface {
	ListWords(ctx context.Context) ([]models.Word, error)
	ListVerbs(ctx context.Context) ([]models.Verb, error)
	FindWord(ctx context.Context, german string, article models.Article) (*models.Word, error)
	FindVerb(ctx context.Context, infinitive string) (*models.Verb, error)
	CreateWord(ctx context.Context, w models.Word) (int64, error)
	CreateVerb(ctx context.Context, v models.Verb) (int64, error)
}

// CatalogService imports and exports word and verb lists
type CatalogService struct {
	store  CatalogWriter
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store CatalogWriter, logger *zap.Logger) *CatalogService {
	return &CatalogService{store: store, logger: logger}
}

// Import reads a CSV or XLSX file of the given kind and adds every new item.
// Existing items are skipped; bad rows are reported without stopping the import.
func (s *CatalogService) Import(ctx context.Context, kind models.ItemKind, r io.Reader, filename string) (*importer.Result, error) {
	records, err := importer.ReadRecords(r, filename)
	if err != nil {
		return nil, err
	}

	result := &importer.Result{}
	switch kind {
	case models.KindWord:
		err = s.importWords(ctx, importer.ParseWords(records, result), result)
	case models.KindVerb:
		err = s.importVerbs(ctx, importer.ParseVerbs(records, result), result)
	default:
		return nil, fmt.Errorf("unknown item kind: %q", kind)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("catalog import finished",
		zap.String("kind", string(kind)),
		zap.String("file", filename),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func (s *CatalogService) importWords(ctx context.Context, words []models.Word, result *importer.Result) error {
	for _, w := range words {
		existing, err := s.store.FindWord(ctx, w.German, w.Article)
		if err != nil {
			return err
		}
		if existing != nil {
			result.Skipped++
			continue
		}
		if _, err := s.store.CreateWord(ctx, w); err != nil {
			return err
		}
		result.Imported++
	}
	return nil
}

func (s *CatalogService) importVerbs(ctx context.Context, verbs []models.Verb, result *importer.Result) error {
	for _, v := range verbs {
		existing, err := s.store.FindVerb(ctx, v.Infinitive)
		if err != nil {
			return err
		}
		if existing != nil {
			result.Skipped++
			continue
		}
		if _, err := s.store.CreateVerb(ctx, v); err != nil {
			return err
		}
		result.Imported++
	}
	return nil
}

// Export writes the whole catalog of kind in a format Import reads back
func (s *CatalogService) Export(ctx context.Context, kind models.ItemKind, w io.Writer, format importer.Format) (int, error) {
	var records [][]string
	switch kind {
	case models.KindWord:
		words, err := s.store.ListWords(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to list words: %w", err)
		}
		records = importer.WordRecords(words)
	case models.KindVerb:
		verbs, err := s.store.ListVerbs(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to list verbs: %w", err)
		}
		records = importer.VerbRecords(verbs)
	default:
		return 0, fmt.Errorf("unknown item kind: %q", kind)
	}

	if err := importer.WriteRecords(w, records, format); err != nil {
		return 0, err
	}

	count := len(records) - 1
	s.logger.Info("catalog exported", zap.String("kind", string(kind)), zap.String("format", string(format)), zap.Int("items", count))
	return count, nil
}

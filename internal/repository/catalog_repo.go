package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"deutschdrill/internal/database"
	"deutschdrill/internal/models"
)

const (
	wordColumns = `id, german, article, english, level, created_at`
	verbColumns = `id, infinitive, english, ich, du, er_sie_es, wir, ihr, sie_formal, level, created_at`
)

// verbRow is the flat table layout of a verb
type verbRow struct {
	ID         int64     `db:"id"`
	Infinitive string    `db:"infinitive"`
	English    string    `db:"english"`
	Ich        string    `db:"ich"`
	Du         string    `db:"du"`
	ErSieEs    string    `db:"er_sie_es"`
	Wir        string    `db:"wir"`
	Ihr        string    `db:"ihr"`
	SieFormal  string    `db:"sie_formal"`
	Level      string    `db:"level"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r verbRow) toModel() models.Verb {
	return models.Verb{
		ID:         r.ID,
		Infinitive: r.Infinitive,
		English:    r.English,
		Forms:      models.Conjugation{r.Ich, r.Du, r.ErSieEs, r.Wir, r.Ihr, r.SieFormal},
		Level:      r.Level,
		CreatedAt:  r.CreatedAt,
	}
}

// CatalogRepository handles word and verb database operations
type CatalogRepository struct {
	db *database.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *database.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListWords returns every word ordered by id
func (r *CatalogRepository) ListWords(ctx context.Context) ([]models.Word, error) {
	var words []models.Word
	if err := r.db.SelectContext(ctx, &words, "SELECT "+wordColumns+" FROM words ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to list words: %w", err)
	}
	return words, nil
}

// ListVerbs returns every verb ordered by id
func (r *CatalogRepository) ListVerbs(ctx context.Context) ([]models.Verb, error) {
	var rows []verbRow
	if err := r.db.SelectContext(ctx, &rows, "SELECT "+verbColumns+" FROM verbs ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to list verbs: %w", err)
	}
	verbs := make([]models.Verb, len(rows))
	for i, row := range rows {
		verbs[i] = row.toModel()
	}
	return verbs, nil
}

// GetWord retrieves a word by ID, or nil if there is none
func (r *CatalogRepository) GetWord(ctx context.Context, id int64) (*models.Word, error) {
	return r.getWord(ctx, "id = ?", id)
}

// FindWord looks a word up by its German form and article, or returns nil
func (r *CatalogRepository) FindWord(ctx context.Context, german string, article models.Article) (*models.Word, error) {
	return r.getWord(ctx, "german = ? AND article = ?", german, article)
}

func (r *CatalogRepository) getWord(ctx context.Context, where string, args ...any) (*models.Word, error) {
	word := &models.Word{}
	err := r.db.GetContext(ctx, word, "SELECT "+wordColumns+" FROM words WHERE "+where, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word: %w", err)
	}
	return word, nil
}

// GetVerb retrieves a verb by ID, or nil if there is none
func (r *CatalogRepository) GetVerb(ctx context.Context, id int64) (*models.Verb, error) {
	return r.getVerb(ctx, "id = ?", id)
}

// FindVerb looks a verb up by infinitive, or returns nil
func (r *CatalogRepository) FindVerb(ctx context.Context, infinitive string) (*models.Verb, error) {
	return r.getVerb(ctx, "infinitive = ?", infinitive)
}

func (r *CatalogRepository) getVerb(ctx context.Context, where string, args ...any) (*models.Verb, error) {
	var row verbRow
	err := r.db.GetContext(ctx, &row, "SELECT "+verbColumns+" FROM verbs WHERE "+where, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verb: %w", err)
	}
	verb := row.toModel()
	return &verb, nil
}

// CreateWord inserts a word and returns its ID
func (r *CatalogRepository) CreateWord(ctx context.Context, w models.Word) (int64, error) {
	query := `
		INSERT INTO words (german, article, english, level, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, w.German, w.Article, w.English, w.Level, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to create word: %w", err)
	}
	return id, nil
}

// CreateVerb inserts a verb and returns its ID
func (r *CatalogRepository) CreateVerb(ctx context.Context, v models.Verb) (int64, error) {
	query := `
		INSERT INTO verbs (infinitive, english, ich, du, er_sie_es, wir, ihr, sie_formal, level, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	f := v.Forms
	id, err := r.db.ExecReturningID(ctx, query,
		v.Infinitive, v.English,
		f[models.SlotIch], f[models.SlotDu], f[models.SlotErSieEs],
		f[models.SlotWir], f[models.SlotIhr], f[models.SlotSieSie],
		v.Level, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create verb: %w", err)
	}
	return id, nil
}

// Count returns the number of items of a kind
func (r *CatalogRepository) Count(ctx context.Context, kind models.ItemKind) (int, error) {
	table := "words"
	if kind == models.KindVerb {
		table = "verbs"
	}
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

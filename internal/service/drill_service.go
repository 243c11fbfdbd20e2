package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"deutschdrill/internal/grading"
	"deutschdrill/internal/models"
	"deutschdrill/internal/scoring"
	"deutschdrill/internal/selection"

	"go.uber.org/zap"
)

// PresentedItem is the card shown to a learner. Exactly one of Word and Verb is set.
type PresentedItem struct {
	Kind models.ItemKind `json:"kind"`
	Word *models.Word    `json:"word,omitempty"`
	Verb *models.Verb    `json:"verb,omitempty"`
}

// ItemID returns the ID of the presented word or verb
func (p *PresentedItem) ItemID() int64 {
	if p.Verb != nil {
		return p.Verb.ID
	}
	if p.Word != nil {
		return p.Word.ID
	}
	return 0
}

// GradeResult is the outcome of grading a vocabulary card
type GradeResult struct {
	Correct  bool                `json:"correct"`
	Answer   string              `json:"answer"`
	Expected string              `json:"expected"`
	Progress models.ItemProgress `json:"progress"`
}

// VerbGradeResult is the outcome of grading a conjugation card. Correct is
// only true when all six slots match; Slots shows the partial picture.
type VerbGradeResult struct {
	Correct      bool                 `json:"correct"`
	CorrectCount int                  `json:"correct_count"`
	Slots        []models.SlotOutcome `json:"slots"`
	Progress     models.ItemProgress  `json:"progress"`
}

// DrillService runs the single-card flashcard loop:
// Next presents a card, a Grade call scores it and frees the slot for the next card.
type DrillService struct {
	catalog  CatalogStore
	progress ProgressStore
	cards    DrillCardStore
	tx       Transactor
	logger   *zap.Logger

	rnd selection.Rand
	now func() time.Time
}

// NewDrillService creates a new drill service
func NewDrillService(catalog CatalogStore, progress ProgressStore, cards DrillCardStore, tx Transactor, logger *zap.Logger) *DrillService {
	return &DrillService{
		catalog:  catalog,
		progress: progress,
		cards:    cards,
		tx:       tx,
		logger:   logger,
		rnd:      selection.DefaultRand,
		now:      time.Now,
	}
}

// Next picks a card weighted by the user's priority scores and records it as presented
func (s *DrillService) Next(ctx context.Context, userID int64, kind models.ItemKind) (*PresentedItem, error) {
	progress, err := s.progress.ProgressByUser(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	lookup := selection.FromMap(progress)

	item := &PresentedItem{Kind: kind}
	switch kind {
	case models.KindWord:
		words, err := s.catalog.ListWords(ctx)
		if err != nil {
			return nil, err
		}
		w, err := selection.PickOne(words, lookup, s.rnd)
		if err != nil {
			return nil, mapSelectionErr(err)
		}
		item.Word = &w
	case models.KindVerb:
		verbs, err := s.catalog.ListVerbs(ctx)
		if err != nil {
			return nil, err
		}
		v, err := selection.PickOne(verbs, lookup, s.rnd)
		if err != nil {
			return nil, mapSelectionErr(err)
		}
		item.Verb = &v
	default:
		return nil, fmt.Errorf("unknown item kind: %q", kind)
	}

	card := models.DrillCard{UserID: userID, Kind: kind, ItemID: item.ItemID(), PresentedAt: s.now().UTC()}
	if err := s.cards.SetCard(ctx, card); err != nil {
		return nil, err
	}
	return item, nil
}

// Pending returns the card currently presented to the user, or nil when the
// drill is waiting for Next
func (s *DrillService) Pending(ctx context.Context, userID int64, kind models.ItemKind) (*PresentedItem, error) {
	card, err := s.cards.GetCard(ctx, userID, kind)
	if err != nil || card == nil {
		return nil, err
	}

	item := &PresentedItem{Kind: kind}
	switch kind {
	case models.KindWord:
		item.Word, err = s.catalog.GetWord(ctx, card.ItemID)
		if err == nil && item.Word == nil {
			return nil, nil
		}
	case models.KindVerb:
		item.Verb, err = s.catalog.GetVerb(ctx, card.ItemID)
		if err == nil && item.Verb == nil {
			return nil, nil
		}
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// GradeWord grades the presented vocabulary card in the given direction
func (s *DrillService) GradeWord(ctx context.Context, userID, wordID int64, answer string, direction models.Direction) (*GradeResult, error) {
	word, err := s.catalog.GetWord(ctx, wordID)
	if err != nil {
		return nil, err
	}
	if word == nil {
		return nil, fmt.Errorf("word %d does not exist: %w", wordID, ErrSessionState)
	}
	correct := grading.MatchNoun(answer, *word, direction)
	p, err := s.claimAndRecord(ctx, userID, models.KindWord, wordID, correct)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("graded word",
		zap.Int64("user_id", userID),
		zap.Int64("word_id", wordID),
		zap.Bool("correct", correct),
		zap.Float64("priority_score", p.PriorityScore),
	)

	return &GradeResult{
		Correct:  correct,
		Answer:   answer,
		Expected: grading.ExpectedAnswer(*word, direction),
		Progress: p,
	}, nil
}

// GradeVerb grades the presented conjugation card. Missing slots count as wrong.
func (s *DrillService) GradeVerb(ctx context.Context, userID, verbID int64, answers grading.VerbAnswers) (*VerbGradeResult, error) {
	verb, err := s.catalog.GetVerb(ctx, verbID)
	if err != nil {
		return nil, err
	}
	if verb == nil {
		return nil, fmt.Errorf("verb %d does not exist: %w", verbID, ErrSessionState)
	}
	grade := grading.GradeVerb(answers, *verb)
	p, err := s.claimAndRecord(ctx, userID, models.KindVerb, verbID, grade.AllCorrect())
	if err != nil {
		return nil, err
	}

	s.logger.Debug("graded verb",
		zap.Int64("user_id", userID),
		zap.Int64("verb_id", verbID),
		zap.Int("correct_slots", grade.CorrectCount),
		zap.Float64("priority_score", p.PriorityScore),
	)

	return &VerbGradeResult{
		Correct:      grade.AllCorrect(),
		CorrectCount: grade.CorrectCount,
		Slots:        grade.Outcomes(),
		Progress:     p,
	}, nil
}

// claimCard moves the drill from Presented back to AwaitingSelection. It
// fails when itemID is not the presented card, so each card is graded once.
func (s *DrillService) claimCard(ctx context.Context, userID int64, kind models.ItemKind, itemID int64) error {
	ok, err := s.cards.ClearCard(ctx, userID, kind, itemID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s %d is not the presented card: %w", kind, itemID, ErrSessionState)
	}
	return nil
}

// claimAndRecord frees the card and applies the grade in one transaction.
// A failed progress write puts the card back, so the learner can retry it.
func (s *DrillService) claimAndRecord(ctx context.Context, userID int64, kind models.ItemKind, itemID int64, correct bool) (models.ItemProgress, error) {
	now := s.now().UTC()
	var p models.ItemProgress
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.claimCard(ctx, userID, kind, itemID); err != nil {
			return err
		}
		var err error
		p, err = s.progress.UpdateProgress(ctx, userID, kind, itemID, func(p models.ItemProgress) models.ItemProgress {
			return scoring.Apply(p, correct, now)
		})
		return err
	})
	return p, err
}

func mapSelectionErr(err error) error {
	if errors.Is(err, selection.ErrEmptyPool) {
		return ErrEmptyCatalog
	}
	return err
}

package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ItemKind distinguishes the two drillable catalogs
type ItemKind string

const (
	KindWord ItemKind = "word"
	KindVerb ItemKind = "verb"
)

// ParseItemKind accepts singular and plural spellings used in URLs and commands
func ParseItemKind(s string) (ItemKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "word", "words", "vocabulary", "vocab":
		return KindWord, nil
	case "verb", "verbs":
		return KindVerb, nil
	default:
		return "", fmt.Errorf("unknown item kind: %q", s)
	}
}

// Item is anything that can be weighted by its id
type Item interface {
	ItemID() int64
}

// Article is the grammatical gender determiner of a noun
type Article string

const (
	ArticleNone Article = ""
	ArticleDer  Article = "der"
	ArticleDie  Article = "die"
	ArticleDas  Article = "das"
)

// Valid reports whether a is one of der, die, das or absent
func (a Article) Valid() bool {
	switch a {
	case ArticleNone, ArticleDer, ArticleDie, ArticleDas:
		return true
	}
	return false
}

// Word is a vocabulary item (usually a noun)
type Word struct {
	ID        int64     `db:"id" json:"id"`
	German    string    `db:"german" json:"german"`
	Article   Article   `db:"article" json:"article,omitempty"`
	English   string    `db:"english" json:"english"`
	Level     string    `db:"level" json:"level"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

func (w Word) ItemID() int64 { return w.ID }

// WithArticle returns the German form prefixed by its article, if any
func (w Word) WithArticle() string {
	if w.Article == ArticleNone {
		return w.German
	}
	return string(w.Article) + " " + w.German
}

// Slot is one of the six grammatical persons of a conjugation table
type Slot int

const (
	SlotIch Slot = iota
	SlotDu
	SlotErSieEs
	SlotWir
	SlotIhr
	SlotSieSie
)

// NumSlots is the size of a conjugation table
const NumSlots = 6

var slotNames = [NumSlots]string{"ich", "du", "er_sie_es", "wir", "ihr", "sie_Sie"}

// AllSlots lists the slots in table order
var AllSlots = [NumSlots]Slot{SlotIch, SlotDu, SlotErSieEs, SlotWir, SlotIhr, SlotSieSie}

func (s Slot) String() string {
	if s < 0 || int(s) >= NumSlots {
		return fmt.Sprintf("Slot(%d)", int(s))
	}
	return slotNames[s]
}

// ParseSlot resolves a slot by name, case-insensitively
func ParseSlot(name string) (Slot, bool) {
	name = strings.TrimSpace(name)
	for i, n := range slotNames {
		if strings.EqualFold(n, name) {
			return Slot(i), true
		}
	}
	return 0, false
}

// Conjugation holds the six present-tense forms of a verb, indexed by Slot
type Conjugation [NumSlots]string

// Form returns the conjugated form for a slot
func (c Conjugation) Form(s Slot) string {
	return c[s]
}

// MarshalJSON encodes the table as an object keyed by slot name
func (c Conjugation) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, NumSlots)
	for _, s := range AllSlots {
		m[s.String()] = c[s]
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes an object keyed by slot name; unknown keys are ignored
func (c *Conjugation) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out Conjugation
	for k, v := range m {
		if s, ok := ParseSlot(k); ok {
			out[s] = v
		}
	}
	*c = out
	return nil
}

// Verb is a conjugation item
type Verb struct {
	ID         int64       `json:"id"`
	Infinitive string      `json:"infinitive"`
	English    string      `json:"english"`
	Forms      Conjugation `json:"forms"`
	Level      string      `json:"level"`
	CreatedAt  time.Time   `json:"-"`
}

func (v Verb) ItemID() int64 { return v.ID }

// Levels are the CEFR levels accepted for catalog items
var Levels = []string{"A1", "A2", "B1", "B2", "C1"}

// DefaultLevel is assigned when an import row carries no level
const DefaultLevel = "A1"

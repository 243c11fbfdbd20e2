// Package selection draws catalog items at random, weighted by priority score.
package selection

import (
	"errors"
	"math/rand/v2"
	"sort"

	"deutschdrill/internal/models"
	"deutschdrill/internal/scoring"
)

// ErrEmptyPool is returned when there is nothing to choose from
var ErrEmptyPool = errors.New("selection: empty pool")

// Rand is the source of uniform floats in [0, 1)
type Rand interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// DefaultRand uses the process-wide generator, which is safe for concurrent use
var DefaultRand Rand = globalRand{}

// ProgressLookup returns the progress record of an item, or nil when none exists
type ProgressLookup func(itemID int64) *models.ItemProgress

// FromMap adapts a progress map to a ProgressLookup
func FromMap(m map[int64]models.ItemProgress) ProgressLookup {
	return func(id int64) *models.ItemProgress {
		if p, ok := m[id]; ok {
			return &p
		}
		return nil
	}
}

// table is a cumulative weight table over a fixed item slice
type table struct {
	cumulative []float64
	total      float64
}

func newTable[T models.Item](items []T, lookup ProgressLookup) table {
	t := table{cumulative: make([]float64, len(items))}
	for i, item := range items {
		var p *models.ItemProgress
		if lookup != nil {
			p = lookup(item.ItemID())
		}
		t.total += scoring.Weight(p)
		t.cumulative[i] = t.total
	}
	return t
}

// draw returns the index of one weighted sample
func (t table) draw(rnd Rand) int {
	n := len(t.cumulative)
	if t.total <= 0 {
		return int(rnd.Float64() * float64(n))
	}
	r := rnd.Float64() * t.total
	i := sort.Search(n, func(i int) bool { return t.cumulative[i] > r })
	if i >= n {
		i = n - 1
	}
	return i
}

// PickOne draws a single item with probability proportional to its weight.
func PickOne[T models.Item](items []T, lookup ProgressLookup, rnd Rand) (T, error) {
	var zero T
	if len(items) == 0 {
		return zero, ErrEmptyPool
	}
	if rnd == nil {
		rnd = DefaultRand
	}
	return items[newTable(items, lookup).draw(rnd)], nil
}

// PickMany makes min(count, len(items)) independent weighted draws with
// replacement, so the same item may appear more than once. An empty pool
// yields an empty selection.
func PickMany[T models.Item](items []T, lookup ProgressLookup, count int, rnd Rand) []T {
	n := min(count, len(items))
	if n <= 0 {
		return []T{}
	}
	if rnd == nil {
		rnd = DefaultRand
	}

	t := newTable(items, lookup)
	picked := make([]T, n)
	for i := range picked {
		picked[i] = items[t.draw(rnd)]
	}
	return picked
}

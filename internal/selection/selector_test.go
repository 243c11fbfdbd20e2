package selection

import (
	"errors"
	"math/rand/v2"
	"testing"

	"deutschdrill/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seq replays fixed values in [0, 1)
type seq struct {
	values []float64
	i      int
}

func (s *seq) Float64() float64 {
	v := s.values[s.i%len(s.values)]
	s.i++
	return v
}

func words(ids ...int64) []models.Word {
	out := make([]models.Word, len(ids))
	for i, id := range ids {
		out[i] = models.Word{ID: id, German: "w"}
	}
	return out
}

func TestPickOneEmpty(t *testing.T) {
	_, err := PickOne([]models.Word{}, nil, nil)
	assert.True(t, errors.Is(err, ErrEmptyPool))
}

func TestPickManyEmptyPool(t *testing.T) {
	got := PickMany([]models.Verb(nil), nil, 4, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPickOneCumulativeSearch(t *testing.T) {
	items := words(1, 2, 3)
	// weights 100 (absent), 50, 150 -> cumulative 100, 150, 300
	progress := map[int64]models.ItemProgress{
		2: {ItemID: 2, PriorityScore: 50},
		3: {ItemID: 3, PriorityScore: 150},
	}

	tests := []struct {
		r    float64
		want int64
	}{
		{0.0, 1},
		{0.33, 1},
		{0.334, 2},
		{0.49, 2},
		{0.5, 3},
		{0.999, 3},
	}

	for _, tt := range tests {
		got, err := PickOne(items, FromMap(progress), &seq{values: []float64{tt.r}})
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.ID, "r=%v", tt.r)
	}
}

func TestPickOneSingleItem(t *testing.T) {
	got, err := PickOne(words(42), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
}

func TestPickManyLength(t *testing.T) {
	rnd := rand.New(rand.NewPCG(1, 2))

	tests := []struct {
		name  string
		items []models.Word
		count int
		want  int
	}{
		{"fewer requested", words(1, 2, 3, 4, 5), 3, 3},
		{"exact", words(1, 2, 3, 4), 4, 4},
		{"more requested than items", words(1, 2), 10, 2},
		{"zero", words(1, 2), 0, 0},
		{"negative", words(1, 2), -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PickMany(tt.items, nil, tt.count, rnd)
			assert.Len(t, got, tt.want)

			allowed := map[int64]bool{}
			for _, w := range tt.items {
				allowed[w.ID] = true
			}
			for _, w := range got {
				assert.True(t, allowed[w.ID], "foreign item %d", w.ID)
			}
		})
	}
}

func TestPickManyDrawsWithReplacement(t *testing.T) {
	items := words(1, 2, 3, 4)
	// every draw lands in the first bucket
	got := PickMany(items, nil, 4, &seq{values: []float64{0.01}})
	for _, w := range got {
		assert.Equal(t, int64(1), w.ID)
	}
}

func TestPickOneFollowsWeights(t *testing.T) {
	items := words(1, 2)
	progress := map[int64]models.ItemProgress{
		1: {PriorityScore: 1},
		2: {PriorityScore: 199},
	}
	rnd := rand.New(rand.NewPCG(7, 11))

	counts := map[int64]int{}
	for i := 0; i < 10000; i++ {
		w, err := PickOne(items, FromMap(progress), rnd)
		require.NoError(t, err)
		counts[w.ID]++
	}
	assert.Greater(t, counts[2], 9800)
	assert.Less(t, counts[1], 200)
}

func TestAbsentProgressMatchesDefault(t *testing.T) {
	items := words(1, 2)
	explicit := map[int64]models.ItemProgress{
		1: {PriorityScore: 100},
		2: {PriorityScore: 100},
	}

	for _, r := range []float64{0.1, 0.49, 0.5, 0.9} {
		a, err := PickOne(items, nil, &seq{values: []float64{r}})
		require.NoError(t, err)
		b, err := PickOne(items, FromMap(explicit), &seq{values: []float64{r}})
		require.NoError(t, err)
		assert.Equal(t, a.ID, b.ID)
	}
}

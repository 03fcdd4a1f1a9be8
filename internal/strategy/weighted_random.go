package strategy

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"sync/atomic"
)

// Random returns a value in [0, 1). Implementations must be safe for
// concurrent use.
type Random func() float64

// WeightedRandom draws the primary provider proportionally to weight.
type WeightedRandom struct {
	random Random
	count  atomic.Int64
}

// NewWeightedRandom builds the selector. A nil random falls back to
// math/rand/v2, which is safe for concurrent use.
func NewWeightedRandom(random Random) *WeightedRandom {
	if random == nil {
		random = rand.Float64
	}
	return &WeightedRandom{random: random}
}

// Order returns every descriptor's provider exactly once. The draw r in
// [0, total) selects the first provider whose cumulative weight exceeds r;
// the rest follow by descending weight.
func (w *WeightedRandom) Order(descriptors []Descriptor) (Selection, error) {
	total, err := totalWeight(descriptors)
	if err != nil {
		return nil, err
	}

	w.count.Add(1)

	r := w.random() * float64(total)
	primary := 0
	cumulative := 0
	for i, d := range descriptors {
		cumulative += d.Weight
		if float64(cumulative) > r {
			primary = i
			break
		}
	}

	rest := make([]Descriptor, 0, len(descriptors)-1)
	rest = append(rest, descriptors[:primary]...)
	rest = append(rest, descriptors[primary+1:]...)
	slices.SortStableFunc(rest, func(a, b Descriptor) int {
		return cmp.Compare(b.Weight, a.Weight)
	})

	selection := make(Selection, 0, len(descriptors))
	selection = append(selection, descriptors[primary].Provider)
	for _, d := range rest {
		selection = append(selection, d.Provider)
	}

	return selection, nil
}

// Count reports how many orderings have been produced.
func (w *WeightedRandom) Count() int64 {
	return w.count.Load()
}

var _ Strategy = (*WeightedRandom)(nil)

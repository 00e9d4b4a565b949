// Package split provides the stratified k-fold splitter replicates are
// derived from. All randomness flows through an explicitly owned RNG so
// replicate generation is deterministic per seed and safe to reuse across
// goroutines that hold their own splitter.
package split

import (
	"fmt"
	"math/rand"
	"sort"
)

// Fold is one train/test partition by row index.
type Fold struct {
	Train []int
	Test  []int
}

// StratifiedKFold partitions samples into K folds preserving the class
// proportions of y in every fold.
type StratifiedKFold struct {
	K       int
	Shuffle bool
	Seed    int64
}

// Split assigns each sample to a fold by class. Every class must have at
// least K members.
func (s StratifiedKFold) Split(y []float64) ([]Fold, error) {
	if s.K < 2 {
		return nil, fmt.Errorf("stratified k-fold needs k >= 2, got %d", s.K)
	}
	if len(y) < s.K {
		return nil, fmt.Errorf("cannot split %d samples into %d folds", len(y), s.K)
	}

	// Group sample indices by class label, classes in sorted order so the
	// assignment sequence is stable.
	groups := map[float64][]int{}
	for i, label := range y {
		groups[label] = append(groups[label], i)
	}
	labels := make([]float64, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	rng := rand.New(rand.NewSource(s.Seed))
	assignment := make([]int, len(y))
	for _, label := range labels {
		idx := groups[label]
		if len(idx) < s.K {
			return nil, fmt.Errorf("class %v has %d samples, fewer than %d folds", label, len(idx), s.K)
		}
		if s.Shuffle {
			rng.Shuffle(len(idx), func(a, b int) {
				idx[a], idx[b] = idx[b], idx[a]
			})
		}
		for pos, sample := range idx {
			assignment[sample] = pos % s.K
		}
	}

	folds := make([]Fold, s.K)
	for i := range y {
		f := assignment[i]
		for k := 0; k < s.K; k++ {
			if k == f {
				folds[k].Test = append(folds[k].Test, i)
			} else {
				folds[k].Train = append(folds[k].Train, i)
			}
		}
	}
	return folds, nil
}

// Package testkit builds deterministic synthetic datasets for tests. Every
// generator takes an explicit seed so fixtures reproduce exactly.
package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"mlstudy/domain/dataset"
)

// ClassificationSpec describes a synthetic two-class dataset.
type ClassificationSpec struct {
	Samples  int
	Features int     // informative features, named x0..x{n-1}
	Target   string  // target feature name, default "target"
	Noise    float64 // stddev of feature noise, default 0.5
	Seed     int64
}

// Classification generates a linearly separable-ish binary dataset with the
// target as the final feature column. Half the samples belong to each class;
// class-1 features are shifted by +2.
func Classification(spec ClassificationSpec) (*dataset.Table, error) {
	if spec.Samples < 2 || spec.Features < 1 {
		return nil, fmt.Errorf("testkit: need at least 2 samples and 1 feature")
	}
	if spec.Target == "" {
		spec.Target = "target"
	}
	if spec.Noise == 0 {
		spec.Noise = 0.5
	}
	rng := rand.New(rand.NewSource(spec.Seed))

	features := make([]string, spec.Features+1)
	for i := 0; i < spec.Features; i++ {
		features[i] = fmt.Sprintf("x%d", i)
	}
	features[spec.Features] = spec.Target

	rows := make([][]float64, spec.Samples)
	for i := range rows {
		label := float64(i % 2)
		row := make([]float64, spec.Features+1)
		for j := 0; j < spec.Features; j++ {
			row[j] = label*2 + rng.NormFloat64()*spec.Noise
		}
		row[spec.Features] = label
		rows[i] = row
	}
	return dataset.NewTable(features, rows)
}

// WithNulls returns a copy of the table where the given (row, feature)
// positions are NaN.
func WithNulls(t *dataset.Table, positions map[int][]string) (*dataset.Table, error) {
	features := t.Features()
	col := map[string]int{}
	for j, f := range features {
		col[f] = j
	}
	rows := make([][]float64, t.Len())
	for i := 0; i < t.Len(); i++ {
		rows[i] = t.Sample(i)
	}
	for r, names := range positions {
		if r < 0 || r >= len(rows) {
			return nil, fmt.Errorf("testkit: row %d out of range", r)
		}
		for _, name := range names {
			j, ok := col[name]
			if !ok {
				return nil, fmt.Errorf("testkit: unknown feature %q", name)
			}
			rows[r][j] = math.NaN()
		}
	}
	return dataset.NewTable(features, rows)
}

// MustTable builds a table from literal rows, panicking on invalid shape.
// Only for tests with hand-written fixtures.
func MustTable(features []string, rows [][]float64) *dataset.Table {
	t, err := dataset.NewTable(features, rows)
	if err != nil {
		panic(err)
	}
	return t
}

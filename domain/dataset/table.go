package dataset

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"mlstudy/domain/core"
)

// Table is a rectangular dataset with named feature columns. It implements
// every container capability; nulls are represented as NaN.
type Table struct {
	features []string
	rows     [][]float64 // row-major, len(rows[i]) == len(features)
}

var (
	_ Container         = (*Table)(nil)
	_ MultiFeature      = (*Table)(nil)
	_ FeatureSplittable = (*Table)(nil)
)

// NewTable builds a table from feature names and row-major data. Every row
// must have exactly one value per feature.
func NewTable(features []string, rows [][]float64) (*Table, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("%w: table needs at least one feature", core.ErrFeatureMismatch)
	}
	seen := make(map[string]struct{}, len(features))
	for _, f := range features {
		if _, dup := seen[f]; dup {
			return nil, fmt.Errorf("%w: duplicate feature %q", core.ErrFeatureMismatch, f)
		}
		seen[f] = struct{}{}
	}
	for i, r := range rows {
		if len(r) != len(features) {
			return nil, fmt.Errorf("%w: row %d has %d values for %d features",
				core.ErrFeatureMismatch, i, len(r), len(features))
		}
	}
	t := &Table{features: append([]string(nil), features...)}
	t.rows = make([][]float64, len(rows))
	for i, r := range rows {
		t.rows[i] = append([]float64(nil), r...)
	}
	return t, nil
}

// FromMatrix builds a table backed by a copy of m's data.
func FromMatrix(features []string, m *mat.Dense) (*Table, error) {
	r, c := m.Dims()
	if c != len(features) {
		return nil, fmt.Errorf("%w: matrix has %d columns for %d features",
			core.ErrFeatureMismatch, c, len(features))
	}
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		rows[i] = mat.Row(nil, i, m)
	}
	return NewTable(features, rows)
}

func (t *Table) Len() int { return len(t.rows) }

func (t *Table) Sample(i int) []float64 {
	return append([]float64(nil), t.rows[i]...)
}

func (t *Table) Features() []string {
	return append([]string(nil), t.features...)
}

// NumFeatures returns the feature count.
func (t *Table) NumFeatures() int { return len(t.features) }

func (t *Table) SelectRows(idx []int) (Container, error) {
	rows := make([][]float64, 0, len(idx))
	for _, i := range idx {
		if i < 0 || i >= len(t.rows) {
			return nil, fmt.Errorf("row index %d out of range [0,%d)", i, len(t.rows))
		}
		rows = append(rows, t.rows[i])
	}
	return NewTable(t.features, rows)
}

func (t *Table) Matrix() *mat.Dense {
	data := make([]float64, 0, len(t.rows)*len(t.features))
	for _, r := range t.rows {
		data = append(data, r...)
	}
	if len(t.rows) == 0 {
		return mat.NewDense(0, len(t.features), nil)
	}
	return mat.NewDense(len(t.rows), len(t.features), data)
}

func (t *Table) Split(trainIdx, testIdx []int) (Container, Container, error) {
	train, err := t.SelectRows(trainIdx)
	if err != nil {
		return nil, nil, err
	}
	test, err := t.SelectRows(testIdx)
	if err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

// indexOf returns the column position of a feature name, or -1.
func (t *Table) indexOf(name string) int {
	for i, f := range t.features {
		if f == name {
			return i
		}
	}
	return -1
}

// resolve maps feature names to column positions, erroring on unknowns.
func (t *Table) resolve(names []string) ([]int, error) {
	cols := make([]int, 0, len(names))
	for _, n := range names {
		i := t.indexOf(n)
		if i < 0 {
			return nil, core.NewFeatureNotFoundError(n)
		}
		cols = append(cols, i)
	}
	return cols, nil
}

// project builds a new table from the given column positions, preserving
// the table's own feature order.
func (t *Table) project(keep map[int]bool) (*Table, error) {
	features := make([]string, 0, len(keep))
	cols := make([]int, 0, len(keep))
	for i, f := range t.features {
		if keep[i] {
			features = append(features, f)
			cols = append(cols, i)
		}
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("%w: operation would leave no features", core.ErrFeatureMismatch)
	}
	rows := make([][]float64, len(t.rows))
	for r, row := range t.rows {
		out := make([]float64, len(cols))
		for j, c := range cols {
			out[j] = row[c]
		}
		rows[r] = out
	}
	return &Table{features: features, rows: rows}, nil
}

func (t *Table) KeepFeatures(names []string) (Container, error) {
	if len(t.features) < 2 {
		return nil, core.ErrSingleFeature
	}
	cols, err := t.resolve(names)
	if err != nil {
		return nil, err
	}
	keep := make(map[int]bool, len(cols))
	for _, c := range cols {
		keep[c] = true
	}
	return t.project(keep)
}

func (t *Table) DropFeatures(names []string) (Container, error) {
	if len(t.features) < 2 {
		return nil, core.ErrSingleFeature
	}
	cols, err := t.resolve(names)
	if err != nil {
		return nil, err
	}
	drop := make(map[int]bool, len(cols))
	for _, c := range cols {
		drop[c] = true
	}
	keep := make(map[int]bool, len(t.features))
	for i := range t.features {
		if !drop[i] {
			keep[i] = true
		}
	}
	if len(keep) == 0 {
		return nil, fmt.Errorf("%w: dropping all features", core.ErrFeatureMismatch)
	}
	return t.project(keep)
}

func (t *Table) SetFeatures(names []string, data *mat.Dense) (Container, error) {
	r, _ := data.Dims()
	if r != len(t.rows) {
		return nil, fmt.Errorf("%w: replacement has %d rows for %d samples",
			core.ErrFeatureMismatch, r, len(t.rows))
	}
	return FromMatrix(names, data)
}

func (t *Table) PopFeatures(names []string) (Container, Container, error) {
	if len(names) == 0 {
		return nil, nil, fmt.Errorf("%w: no target features named", core.ErrFeatureNotFound)
	}
	cols, err := t.resolve(names)
	if err != nil {
		return nil, nil, err
	}
	if len(names) >= len(t.features) {
		return nil, nil, fmt.Errorf("%w: popping %d of %d features leaves no inputs",
			core.ErrFeatureMismatch, len(names), len(t.features))
	}
	pop := make(map[int]bool, len(cols))
	for _, c := range cols {
		pop[c] = true
	}

	var popped Container
	if len(names) == 1 {
		vals := make([]float64, len(t.rows))
		for i, row := range t.rows {
			vals[i] = row[cols[0]]
		}
		popped = NewColumn(names[0], vals)
	} else {
		p, err := t.project(pop)
		if err != nil {
			return nil, nil, err
		}
		popped = p
	}

	rest := make(map[int]bool, len(t.features))
	for i := range t.features {
		if !pop[i] {
			rest[i] = true
		}
	}
	remainder, err := t.project(rest)
	if err != nil {
		return nil, nil, err
	}
	return popped, remainder, nil
}

// NullCounts returns, per feature, the number of NaN entries across all
// samples.
func (t *Table) NullCounts() map[string]int {
	counts := make(map[string]int, len(t.features))
	for _, f := range t.features {
		counts[f] = 0
	}
	for _, row := range t.rows {
		for j, v := range row {
			if math.IsNaN(v) {
				counts[t.features[j]]++
			}
		}
	}
	return counts
}

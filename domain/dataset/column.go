package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Column is a single-feature container, typically the prediction target
// popped off a Table. It deliberately implements only the base Container
// contract: feature keep/drop/replace and target extraction are not
// capabilities a single column can offer.
type Column struct {
	name   string
	values []float64
}

var _ Container = (*Column)(nil)

// NewColumn builds a column from a feature name and its values.
func NewColumn(name string, values []float64) *Column {
	return &Column{name: name, values: append([]float64(nil), values...)}
}

func (c *Column) Len() int { return len(c.values) }

func (c *Column) Sample(i int) []float64 {
	return []float64{c.values[i]}
}

func (c *Column) Features() []string { return []string{c.name} }

// Name returns the column's feature name.
func (c *Column) Name() string { return c.name }

// Values returns a copy of the column's data.
func (c *Column) Values() []float64 {
	return append([]float64(nil), c.values...)
}

func (c *Column) SelectRows(idx []int) (Container, error) {
	vals := make([]float64, 0, len(idx))
	for _, i := range idx {
		if i < 0 || i >= len(c.values) {
			return nil, fmt.Errorf("row index %d out of range [0,%d)", i, len(c.values))
		}
		vals = append(vals, c.values[i])
	}
	return NewColumn(c.name, vals), nil
}

func (c *Column) Matrix() *mat.Dense {
	if len(c.values) == 0 {
		return mat.NewDense(0, 1, nil)
	}
	return mat.NewDense(len(c.values), 1, append([]float64(nil), c.values...))
}

func (c *Column) Split(trainIdx, testIdx []int) (Container, Container, error) {
	train, err := c.SelectRows(trainIdx)
	if err != nil {
		return nil, nil, err
	}
	test, err := c.SelectRows(testIdx)
	if err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

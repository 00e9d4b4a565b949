package model

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

func init() {
	Register("logistic_regression", newLogisticRegression)
}

// LogisticRegression is a binary classifier trained by full-batch gradient
// descent with L2 regularization. Weight initialization draws from an owned
// RNG so fits are reproducible per seed.
type LogisticRegression struct {
	lr     float64
	epochs int
	l2     float64
	rng    *rand.Rand

	w []float64
	b float64
}

func newLogisticRegression(params ParamSet, seed int64) (Classifier, error) {
	lr, err := params.FloatOr("learning_rate", 0.1)
	if err != nil {
		return nil, err
	}
	epochs, err := params.IntOr("epochs", 200)
	if err != nil {
		return nil, err
	}
	l2, err := params.FloatOr("l2", 0.0)
	if err != nil {
		return nil, err
	}
	if lr <= 0 {
		return nil, fmt.Errorf("logistic_regression: learning_rate must be positive, got %v", lr)
	}
	if epochs < 1 {
		return nil, fmt.Errorf("logistic_regression: epochs must be at least 1, got %d", epochs)
	}
	if l2 < 0 {
		return nil, fmt.Errorf("logistic_regression: l2 must be non-negative, got %v", l2)
	}
	return &LogisticRegression{
		lr:     lr,
		epochs: epochs,
		l2:     l2,
		rng:    rand.New(rand.NewSource(seed)),
	}, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// Fit trains the weights on x against 0/1 labels y.
func (m *LogisticRegression) Fit(x *mat.Dense, y []float64) error {
	n, d := x.Dims()
	if n == 0 {
		return fmt.Errorf("logistic_regression: no training samples")
	}
	if n != len(y) {
		return fmt.Errorf("logistic_regression: %d samples for %d labels", n, len(y))
	}

	// Small random init breaks symmetry without dominating early gradients.
	m.w = make([]float64, d)
	for j := range m.w {
		m.w[j] = m.rng.NormFloat64() * 0.01
	}
	m.b = 0

	grad := make([]float64, d)
	for epoch := 0; epoch < m.epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		gradB := 0.0
		for i := 0; i < n; i++ {
			row := x.RawRowView(i)
			z := m.b
			for j, v := range row {
				z += m.w[j] * v
			}
			diff := sigmoid(z) - y[i]
			for j, v := range row {
				grad[j] += diff * v
			}
			gradB += diff
		}
		inv := 1 / float64(n)
		for j := range m.w {
			m.w[j] -= m.lr * (grad[j]*inv + m.l2*m.w[j])
		}
		m.b -= m.lr * gradB * inv
	}
	return nil
}

// PredictProba returns the positive class probability per sample.
func (m *LogisticRegression) PredictProba(x *mat.Dense) []float64 {
	n, _ := x.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		row := x.RawRowView(i)
		z := m.b
		for j, v := range row {
			if j < len(m.w) {
				z += m.w[j] * v
			}
		}
		out[i] = sigmoid(z)
	}
	return out
}

// Predict thresholds probabilities at 0.5.
func (m *LogisticRegression) Predict(x *mat.Dense) []float64 {
	proba := m.PredictProba(x)
	out := make([]float64, len(proba))
	for i, p := range proba {
		if p >= 0.5 {
			out[i] = 1
		}
	}
	return out
}

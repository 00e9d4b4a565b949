package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"mlstudy/domain/core"
)

// fixedModel ignores its input and replays canned outputs.
type fixedModel struct {
	preds []float64
	proba []float64
}

func (f fixedModel) Fit(x *mat.Dense, y []float64) error { return nil }
func (f fixedModel) Predict(x *mat.Dense) []float64      { return f.preds }
func (f fixedModel) PredictProba(x *mat.Dense) []float64 { return f.proba }

func TestLogLossKnownValues(t *testing.T) {
	m := fixedModel{proba: []float64{0.9, 0.1}}
	got, err := LogLoss(m, nil, []float64{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, -math.Log(0.9), got, 1e-12)

	// Confident wrong answers are clipped, not infinite.
	m = fixedModel{proba: []float64{0, 1}}
	got, err = LogLoss(m, nil, []float64{1, 0})
	require.NoError(t, err)
	assert.False(t, math.IsInf(got, 1))
	assert.Greater(t, got, 30.0)
}

func TestLogLossLengthMismatch(t *testing.T) {
	m := fixedModel{proba: []float64{0.5}}
	_, err := LogLoss(m, nil, []float64{1, 0})
	assert.Error(t, err)
}

func TestBalancedAccuracyWeighsClassesEqually(t *testing.T) {
	// 9 of 10 negatives right, 0 of 2 positives right: plain accuracy
	// would be 0.75, balanced accuracy averages the per-class recalls.
	y := []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1}
	preds := []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0}
	got, err := BalancedAccuracy(fixedModel{preds: preds}, nil, y)
	require.NoError(t, err)
	assert.InDelta(t, 0.45, got, 1e-12)
}

func TestBalancedAccuracyPerfect(t *testing.T) {
	y := []float64{0, 1, 0, 1}
	got, err := BalancedAccuracy(fixedModel{preds: []float64{0, 1, 0, 1}}, nil, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestAccuracy(t *testing.T) {
	y := []float64{0, 1, 1, 0}
	got, err := Accuracy(fixedModel{preds: []float64{0, 1, 0, 0}}, nil, y)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, got, 1e-12)
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"log_loss", "bacc", "accuracy"} {
		m, err := Lookup(name)
		require.NoError(t, err, name)
		assert.NotNil(t, m)
	}

	_, err := Lookup("f1")
	assert.ErrorIs(t, err, core.ErrUnknownMetric)

	assert.Equal(t, []string{"accuracy", "bacc", "log_loss"}, Registered())
}

package tuning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstantResolvesWithoutTrial(t *testing.T) {
	p, err := NewParam(Spec{Label: "lr", Type: Constant, Value: 0.05})
	require.NoError(t, err)

	v, err := p.Float64()
	require.NoError(t, err)
	assert.Equal(t, 0.05, v)
	assert.Equal(t, "lr", p.Label())
}

func TestConstantIntAndStringAccess(t *testing.T) {
	p, err := NewParam(Spec{Label: "epochs", Type: Constant, Value: 150})
	require.NoError(t, err)
	n, err := p.Int()
	require.NoError(t, err)
	assert.Equal(t, 150, n)

	s, err := NewParam(Spec{Label: "penalty", Type: Constant, Value: "l2"})
	require.NoError(t, err)
	str, err := s.String()
	require.NoError(t, err)
	assert.Equal(t, "l2", str)

	_, err = s.Float64()
	assert.Error(t, err)
}

func TestRangeParamsUnresolvedUntilTuned(t *testing.T) {
	p, err := NewParam(Spec{Label: "lr", Type: Float, Low: 1e-4, High: 1e-1, Log: true})
	require.NoError(t, err)

	_, err = p.Float64()
	assert.Error(t, err, "reading a suggested parameter before any trial ran")
}

func TestSpecValidation(t *testing.T) {
	cases := []struct {
		name string
		spec Spec
	}{
		{"missing label", Spec{Type: Float, Low: 0, High: 1}},
		{"constant without value", Spec{Label: "c", Type: Constant}},
		{"inverted range", Spec{Label: "lr", Type: Float, Low: 1, High: 0}},
		{"empty choices", Spec{Label: "k", Type: Categorical}},
		{"unknown type", Spec{Label: "x", Type: Kind("gaussian")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewParam(tc.spec)
			assert.Error(t, err)
		})
	}

	_, err := NewParam(Spec{Label: "depth", Type: Int, Low: 1, High: 6})
	assert.NoError(t, err)
	_, err = NewParam(Spec{Label: "kernel", Type: Categorical, Choices: []string{"rbf", "linear"}})
	assert.NoError(t, err)
}

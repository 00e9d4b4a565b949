package split

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labelVector(class0, class1 int) []float64 {
	y := make([]float64, 0, class0+class1)
	for i := 0; i < class0; i++ {
		y = append(y, 0)
	}
	for i := 0; i < class1; i++ {
		y = append(y, 1)
	}
	return y
}

func TestSplitPartitionsEverySample(t *testing.T) {
	y := labelVector(12, 8)
	folds, err := StratifiedKFold{K: 4, Shuffle: true, Seed: 7}.Split(y)
	require.NoError(t, err)
	require.Len(t, folds, 4)

	for _, f := range folds {
		assert.Len(t, f.Test, 5)
		assert.Len(t, f.Train, 15)

		seen := map[int]bool{}
		for _, i := range append(append([]int{}, f.Train...), f.Test...) {
			assert.False(t, seen[i], "sample %d assigned twice in one fold", i)
			seen[i] = true
		}
		assert.Len(t, seen, len(y))
	}

	// Each sample is in exactly one test set across the folds.
	testCount := map[int]int{}
	for _, f := range folds {
		for _, i := range f.Test {
			testCount[i]++
		}
	}
	for i := range y {
		assert.Equal(t, 1, testCount[i], "sample %d", i)
	}
}

func TestSplitPreservesClassProportions(t *testing.T) {
	y := labelVector(30, 10)
	folds, err := StratifiedKFold{K: 5, Shuffle: true, Seed: 1}.Split(y)
	require.NoError(t, err)

	for _, f := range folds {
		var ones int
		for _, i := range f.Test {
			if y[i] == 1 {
				ones++
			}
		}
		assert.Equal(t, 2, ones, "each test fold holds 1/5 of the minority class")
		assert.Len(t, f.Test, 8)
	}
}

func TestSplitDeterministicPerSeed(t *testing.T) {
	y := labelVector(15, 15)

	a, err := StratifiedKFold{K: 3, Shuffle: true, Seed: 42}.Split(y)
	require.NoError(t, err)
	b, err := StratifiedKFold{K: 3, Shuffle: true, Seed: 42}.Split(y)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := StratifiedKFold{K: 3, Shuffle: true, Seed: 43}.Split(y)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestSplitErrors(t *testing.T) {
	_, err := StratifiedKFold{K: 1}.Split(labelVector(4, 4))
	assert.Error(t, err)

	_, err = StratifiedKFold{K: 5}.Split(labelVector(2, 1))
	assert.Error(t, err)

	// A class smaller than K cannot be spread over every fold.
	_, err = StratifiedKFold{K: 4, Shuffle: true, Seed: 0}.Split(labelVector(10, 3))
	assert.Error(t, err)
}

// Package dataset defines the rectangular data containers the study runner
// operates on, together with the capability interfaces hooks test for.
//
// Capabilities are opt-in interfaces rather than runtime type inspection: a
// hook that needs to mutate the feature set asserts MultiFeature, and a
// caller that needs to isolate a prediction target asserts FeatureSplittable.
// A container that does not implement a capability cannot be coerced into it.
package dataset

import "gonum.org/v1/gonum/mat"

// Container is the base contract every dataset container satisfies: an
// ordered sequence of samples over named features. All mutating operations
// return fresh containers; callers never observe in-place mutation.
type Container interface {
	// Len returns the number of samples.
	Len() int

	// Sample returns a copy of the i-th sample's values, one per feature.
	Sample(i int) []float64

	// Features returns the ordered feature names.
	Features() []string

	// SelectRows returns a new container holding the given samples, in
	// index order. Indices out of range return an error.
	SelectRows(idx []int) (Container, error)

	// Matrix converts the full container to a dense matrix (samples x features).
	Matrix() *mat.Dense

	// Split partitions the container into train and test containers by
	// row index.
	Split(trainIdx, testIdx []int) (Container, Container, error)
}

// MultiFeature marks containers with more than one named feature. Only such
// containers can have features kept, dropped, or replaced.
type MultiFeature interface {
	Container

	// KeepFeatures returns a container restricted to exactly the named
	// features, in the order the container holds them.
	KeepFeatures(names []string) (Container, error)

	// DropFeatures returns a container with the named features removed.
	DropFeatures(names []string) (Container, error)

	// SetFeatures returns a container whose feature set is replaced by the
	// given names backed by the columns of data.
	SetFeatures(names []string, data *mat.Dense) (Container, error)
}

// FeatureSplittable marks containers able to extract named features as a
// separate container, used to isolate the prediction target from the
// input matrix.
type FeatureSplittable interface {
	Container

	// PopFeatures returns the named features as their own container plus
	// the remainder. Neither result aliases the receiver's storage.
	PopFeatures(names []string) (popped Container, rest Container, err error)
}

// Values extracts a single-feature container's column as a flat slice.
// Multi-feature containers return their first column.
func Values(c Container) []float64 {
	n := c.Len()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = c.Sample(i)[0]
	}
	return out
}

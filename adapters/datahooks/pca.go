package datahooks

import (
	"encoding/json"
	"fmt"

	"github.com/c-bata/goptuna"
	"gonum.org/v1/gonum/mat"

	"mlstudy/domain/core"
	"mlstudy/domain/dataset"
	"mlstudy/domain/hooks"
	"mlstudy/internal"
	"mlstudy/internal/tuning"
)

func init() {
	hooks.Register("principal_component_analysis", newPCA)
}

const defaultPCAProportion = 0.7

// PCA reduces a container to its leading principal components. The retained
// proportion is tunable per trial; Tune rebuilds the backing transform, so
// each trial fits fresh state.
type PCA struct {
	prop    *tuning.Param
	backing *pcaTransform
	logger  *internal.Logger
}

var (
	_ hooks.FittedHook = (*PCA)(nil)
	_ hooks.Tunable    = (*PCA)(nil)
)

func newPCA(cfg hooks.Config, logger *internal.Logger) (hooks.Hook, error) {
	spec := tuning.Spec{
		Label: "proportion",
		Type:  tuning.Constant,
		Value: defaultPCAProportion,
	}
	if raw, ok, err := cfg.Mapping("proportion"); err != nil {
		return nil, err
	} else if ok {
		// Round-trip through JSON to reuse the spec grammar.
		buf, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid proportion entry: %w", err)
		}
		if err := json.Unmarshal(buf, &spec); err != nil {
			return nil, fmt.Errorf("invalid proportion entry: %w", err)
		}
	}
	prop, err := tuning.NewParam(spec)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &PCA{prop: prop, logger: logger}, nil
}

func (h *PCA) Name() string { return "principal_component_analysis" }

// Params lists the tunable proportion.
func (h *PCA) Params() []*tuning.Param { return []*tuning.Param{h.prop} }

// Tune resolves the proportion from the trial and rebuilds the backing
// transform with it.
func (h *PCA) Tune(trial goptuna.Trial) error {
	if err := h.prop.Tune(trial); err != nil {
		return err
	}
	proportion, err := h.prop.Float64()
	if err != nil {
		return err
	}
	h.backing = newPCATransform(proportion)
	return nil
}

// transform returns the backing transform, building one from a constant
// proportion when the hook runs outside any trial.
func (h *PCA) transform() (*pcaTransform, error) {
	if h.backing != nil {
		return h.backing, nil
	}
	proportion, err := h.prop.Float64()
	if err != nil {
		return nil, fmt.Errorf("%w: principal_component_analysis", core.ErrNotTuned)
	}
	h.backing = newPCATransform(proportion)
	return h.backing, nil
}

func (h *PCA) Run(x dataset.Container, y dataset.Container) (dataset.Container, error) {
	t, err := h.transform()
	if err != nil {
		return nil, err
	}
	reduced, err := t.FitTransform(x.Matrix())
	if err != nil {
		return nil, err
	}
	return rebuild(x, reduced)
}

// RunFitted fits on the training container only and applies the same fitted
// transform to the held-out container, for multi- and single-feature inputs
// alike.
func (h *PCA) RunFitted(xTrain, xTest, yTrain, yTest dataset.Container) (dataset.Container, dataset.Container, error) {
	t, err := h.transform()
	if err != nil {
		return nil, nil, err
	}
	reducedTrain, err := t.FitTransform(xTrain.Matrix())
	if err != nil {
		return nil, nil, err
	}
	reducedTest, err := t.Transform(xTest.Matrix())
	if err != nil {
		return nil, nil, err
	}
	trainOut, err := rebuild(xTrain, reducedTrain)
	if err != nil {
		return nil, nil, err
	}
	testOut, err := rebuild(xTest, reducedTest)
	if err != nil {
		return nil, nil, err
	}
	return trainOut, testOut, nil
}

// componentLabels names the synthetic features PC0..PC{k-1}.
func componentLabels(k int) []string {
	labels := make([]string, k)
	for i := range labels {
		labels[i] = fmt.Sprintf("PC%d", i)
	}
	return labels
}

// rebuild wraps the reduced matrix back into a container shaped like the
// input: multi-feature containers get their feature set replaced, single
// columns come back as a PC0 column.
func rebuild(x dataset.Container, reduced *mat.Dense) (dataset.Container, error) {
	_, k := reduced.Dims()
	labels := componentLabels(k)
	if mf, ok := x.(dataset.MultiFeature); ok {
		return mf.SetFeatures(labels, reduced)
	}
	return dataset.NewColumn(labels[0], mat.Col(nil, 0, reduced)), nil
}

// pcaTransform is the fit state: feature means and the component basis
// learned from one training matrix.
type pcaTransform struct {
	proportion float64
	means      []float64
	components *mat.Dense // d x k
}

func newPCATransform(proportion float64) *pcaTransform {
	return &pcaTransform{proportion: proportion}
}

// FitTransform learns means and components from m and projects it.
func (t *pcaTransform) FitTransform(m *mat.Dense) (*mat.Dense, error) {
	n, d := m.Dims()
	if n < 2 {
		return nil, fmt.Errorf("pca needs at least 2 samples, got %d", n)
	}

	t.means = make([]float64, d)
	for j := 0; j < d; j++ {
		col := mat.Col(nil, j, m)
		sum := 0.0
		for _, v := range col {
			sum += v
		}
		t.means[j] = sum / float64(n)
	}
	centered := t.center(m)

	var svd mat.SVD
	if ok := svd.Factorize(centered, mat.SVDThin); !ok {
		return nil, fmt.Errorf("pca: svd factorization failed")
	}
	singular := svd.Values(nil)
	k := t.selectComponents(singular, n)

	var v mat.Dense
	svd.VTo(&v)
	t.components = v.Slice(0, d, 0, k).(*mat.Dense)

	var out mat.Dense
	out.Mul(centered, t.components)
	return &out, nil
}

// Transform projects m with previously fitted state.
func (t *pcaTransform) Transform(m *mat.Dense) (*mat.Dense, error) {
	if t.components == nil {
		return nil, fmt.Errorf("%w: pca transform", core.ErrNotFitted)
	}
	_, d := m.Dims()
	if d != len(t.means) {
		return nil, fmt.Errorf("pca: %d features, fitted on %d", d, len(t.means))
	}
	var out mat.Dense
	out.Mul(t.center(m), t.components)
	return &out, nil
}

func (t *pcaTransform) center(m *mat.Dense) *mat.Dense {
	n, d := m.Dims()
	centered := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			centered.Set(i, j, m.At(i, j)-t.means[j])
		}
	}
	return centered
}

// selectComponents picks k: proportions below 1 select the smallest k whose
// cumulative explained variance reaches the proportion; values of 1 or more
// are taken as a literal component count.
func (t *pcaTransform) selectComponents(singular []float64, n int) int {
	if t.proportion >= 1 {
		k := int(t.proportion)
		if k > len(singular) {
			k = len(singular)
		}
		if k < 1 {
			k = 1
		}
		return k
	}
	total := 0.0
	variances := make([]float64, len(singular))
	for i, s := range singular {
		variances[i] = s * s / float64(n-1)
		total += variances[i]
	}
	if total == 0 {
		return 1
	}
	cum := 0.0
	for i, v := range variances {
		cum += v / total
		if cum >= t.proportion {
			return i + 1
		}
	}
	return len(singular)
}

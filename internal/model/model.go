// Package model defines the classifier contract the study manager trains
// and scores, plus the registry model configurations resolve against.
package model

import (
	"fmt"
	"sort"

	"github.com/c-bata/goptuna"
	"gonum.org/v1/gonum/mat"

	"mlstudy/domain/core"
	"mlstudy/internal/tuning"
)

// Classifier is a binary classifier over dense feature matrices. Labels and
// predictions are 0/1 encoded as float64; PredictProba returns the positive
// class probability per sample.
type Classifier interface {
	Fit(x *mat.Dense, y []float64) error
	Predict(x *mat.Dense) []float64
	PredictProba(x *mat.Dense) []float64
}

// ParamSet holds the resolved hyperparameters one trial suggested.
type ParamSet map[string]*tuning.Param

// FloatOr reads a resolved float parameter, falling back when absent.
func (ps ParamSet) FloatOr(label string, def float64) (float64, error) {
	p, ok := ps[label]
	if !ok {
		return def, nil
	}
	return p.Float64()
}

// IntOr reads a resolved int parameter, falling back when absent.
func (ps ParamSet) IntOr(label string, def int) (int, error) {
	p, ok := ps[label]
	if !ok {
		return def, nil
	}
	return p.Int()
}

// Builder constructs a classifier from resolved hyperparameters. The seed
// covers any internal randomness such as weight initialization.
type Builder func(params ParamSet, seed int64) (Classifier, error)

var registry = map[string]Builder{}

// Register installs a model builder under a name. Called from init;
// duplicates panic.
func Register(name string, builder Builder) {
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("model: duplicate registration for %q", name))
	}
	registry[name] = builder
}

// Registered returns the sorted names of all registered models.
func Registered() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Factory builds per-trial classifiers for one registered model. Parameter
// specs are re-instantiated for every build, so concurrent trials never
// share suggestion state, and suggestions happen in sorted label order so a
// seeded sampler sees an identical sequence on every run.
type Factory struct {
	name    string
	builder Builder
	labels  []string
	specs   map[string]tuning.Spec
}

// NewFactory validates the model name and parameter specs.
func NewFactory(name string, specs map[string]tuning.Spec) (*Factory, error) {
	builder, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownModel, name)
	}
	labels := make([]string, 0, len(specs))
	for label, spec := range specs {
		if _, err := tuning.NewParam(spec); err != nil {
			return nil, fmt.Errorf("model %q: %w", name, err)
		}
		labels = append(labels, label)
	}
	sort.Strings(labels)
	copied := make(map[string]tuning.Spec, len(specs))
	for k, v := range specs {
		copied[k] = v
	}
	return &Factory{name: name, builder: builder, labels: labels, specs: copied}, nil
}

// Name returns the registered model name.
func (f *Factory) Name() string { return f.name }

// Build resolves every hyperparameter from the trial and constructs the
// classifier.
func (f *Factory) Build(trial goptuna.Trial, seed int64) (Classifier, error) {
	params := make(ParamSet, len(f.labels))
	for _, label := range f.labels {
		p, err := tuning.NewParam(f.specs[label])
		if err != nil {
			return nil, err
		}
		if err := p.Tune(trial); err != nil {
			return nil, err
		}
		params[label] = p
	}
	return f.builder(params, seed)
}

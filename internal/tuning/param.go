// Package tuning bridges configuration-declared hyperparameter domains to
// the per-trial suggestion mechanism. A Param is parsed once from a config
// entry and resolved against each trial before use.
package tuning

import (
	"fmt"

	"github.com/c-bata/goptuna"
)

// Kind enumerates the supported parameter domains.
type Kind string

const (
	Constant    Kind = "constant"
	Float       Kind = "float"
	Int         Kind = "int"
	Categorical Kind = "categorical"
)

// Spec is the raw configuration entry describing a tunable parameter.
type Spec struct {
	Label   string   `json:"label"`
	Type    Kind     `json:"type"`
	Value   any      `json:"value,omitempty"`
	Low     float64  `json:"low,omitempty"`
	High    float64  `json:"high,omitempty"`
	Choices []string `json:"choices,omitempty"`
	Log     bool     `json:"log,omitempty"`
}

// Param is a tunable parameter. Tune resolves its value from a trial;
// constants resolve without one.
type Param struct {
	spec     Spec
	value    any
	resolved bool
}

// NewParam validates a spec and returns the corresponding Param.
func NewParam(spec Spec) (*Param, error) {
	if spec.Label == "" {
		return nil, fmt.Errorf("tunable parameter missing label")
	}
	switch spec.Type {
	case Constant:
		if spec.Value == nil {
			return nil, fmt.Errorf("constant parameter %q missing value", spec.Label)
		}
		return &Param{spec: spec, value: spec.Value, resolved: true}, nil
	case Float, Int:
		if spec.High < spec.Low {
			return nil, fmt.Errorf("parameter %q has empty range [%v, %v]", spec.Label, spec.Low, spec.High)
		}
		return &Param{spec: spec}, nil
	case Categorical:
		if len(spec.Choices) == 0 {
			return nil, fmt.Errorf("categorical parameter %q has no choices", spec.Label)
		}
		return &Param{spec: spec}, nil
	default:
		return nil, fmt.Errorf("unknown parameter type %q for %q", spec.Type, spec.Label)
	}
}

// Label returns the parameter name used for trial suggestions.
func (p *Param) Label() string { return p.spec.Label }

// Tune asks the trial to suggest a value within the declared domain.
func (p *Param) Tune(trial goptuna.Trial) error {
	switch p.spec.Type {
	case Constant:
		// Nothing to suggest.
	case Float:
		var (
			v   float64
			err error
		)
		if p.spec.Log {
			v, err = trial.SuggestLogFloat(p.spec.Label, p.spec.Low, p.spec.High)
		} else {
			v, err = trial.SuggestFloat(p.spec.Label, p.spec.Low, p.spec.High)
		}
		if err != nil {
			return fmt.Errorf("suggesting %q: %w", p.spec.Label, err)
		}
		p.value = v
	case Int:
		v, err := trial.SuggestInt(p.spec.Label, int(p.spec.Low), int(p.spec.High))
		if err != nil {
			return fmt.Errorf("suggesting %q: %w", p.spec.Label, err)
		}
		p.value = v
	case Categorical:
		v, err := trial.SuggestCategorical(p.spec.Label, p.spec.Choices)
		if err != nil {
			return fmt.Errorf("suggesting %q: %w", p.spec.Label, err)
		}
		p.value = v
	}
	p.resolved = true
	return nil
}

// Float64 returns the resolved value as a float64.
func (p *Param) Float64() (float64, error) {
	if !p.resolved {
		return 0, fmt.Errorf("parameter %q was never resolved", p.spec.Label)
	}
	switch v := p.value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("parameter %q holds non-numeric value %T", p.spec.Label, p.value)
	}
}

// Int returns the resolved value as an int, truncating floats.
func (p *Param) Int() (int, error) {
	f, err := p.Float64()
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// String returns the resolved value as a string.
func (p *Param) String() (string, error) {
	if !p.resolved {
		return "", fmt.Errorf("parameter %q was never resolved", p.spec.Label)
	}
	if s, ok := p.value.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("parameter %q holds non-string value %T", p.spec.Label, p.value)
}

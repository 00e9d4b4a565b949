package hooks

import (
	"fmt"

	"mlstudy/domain/dataset"
	"mlstudy/internal"
)

// Spec names a hook together with the raw config it is built from. Pipelines
// that must construct fresh hook state per trial hold Specs and build on
// demand rather than sharing instances across trials.
type Spec struct {
	Name   string
	Config Config
}

// Build constructs the hook the spec describes.
func (s Spec) Build(logger *internal.Logger) (Hook, error) {
	return New(s.Name, s.Config, logger)
}

// BuildAll constructs every hook in order.
func BuildAll(specs []Spec, logger *internal.Logger) ([]Hook, error) {
	built := make([]Hook, 0, len(specs))
	for _, s := range specs {
		h, err := s.Build(logger)
		if err != nil {
			return nil, fmt.Errorf("building hook %q: %w", s.Name, err)
		}
		built = append(built, h)
	}
	return built, nil
}

// Pipeline applies an ordered sequence of hooks.
type Pipeline struct {
	hooks  []Hook
	logger *internal.Logger
}

// NewPipeline wraps already-constructed hooks.
func NewPipeline(hooks []Hook, logger *internal.Logger) *Pipeline {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Pipeline{hooks: hooks, logger: logger}
}

// Len returns the number of hooks in the pipeline.
func (p *Pipeline) Len() int { return len(p.hooks) }

// Run applies every hook in sequence to x. Fitted hooks fit on the full
// container here; the train/test protocol only applies inside a replicate.
func (p *Pipeline) Run(x dataset.Container, y dataset.Container) (dataset.Container, error) {
	cur := x
	for _, h := range p.hooks {
		out, err := h.Run(cur, y)
		if err != nil {
			return nil, fmt.Errorf("hook %q: %w", h.Name(), err)
		}
		p.logger.Debug("hook %q: %d samples x %d features -> %d samples x %d features",
			h.Name(), cur.Len(), len(cur.Features()), out.Len(), len(out.Features()))
		cur = out
	}
	return cur, nil
}

// RunFitted applies every hook across a train/test pair. Hooks implementing
// FittedHook fit on train only; stateless hooks apply to each side
// independently.
func (p *Pipeline) RunFitted(xTrain, xTest, yTrain, yTest dataset.Container) (dataset.Container, dataset.Container, error) {
	curTrain, curTest := xTrain, xTest
	for _, h := range p.hooks {
		if fh, ok := h.(FittedHook); ok {
			trainOut, testOut, err := fh.RunFitted(curTrain, curTest, yTrain, yTest)
			if err != nil {
				return nil, nil, fmt.Errorf("fitted hook %q: %w", h.Name(), err)
			}
			curTrain, curTest = trainOut, testOut
			continue
		}
		trainOut, err := h.Run(curTrain, yTrain)
		if err != nil {
			return nil, nil, fmt.Errorf("hook %q on train: %w", h.Name(), err)
		}
		testOut, err := h.Run(curTest, yTest)
		if err != nil {
			return nil, nil, fmt.Errorf("hook %q on test: %w", h.Name(), err)
		}
		curTrain, curTest = trainOut, testOut
	}
	return curTrain, curTest, nil
}

// Package hooks defines the data-transformation hook contracts and the
// startup-time registry configuration pipelines resolve hook names against.
package hooks

import (
	"fmt"
	"sort"

	"github.com/c-bata/goptuna"

	"mlstudy/domain/core"
	"mlstudy/domain/dataset"
	"mlstudy/internal"
	"mlstudy/internal/tuning"
)

// Hook is a stateless unit of dataset transformation. Run must not mutate x;
// y is optional and passed through untouched by every current hook.
type Hook interface {
	// Name returns the registry key the hook was constructed under.
	Name() string

	// Run transforms x and returns the result as a new container.
	Run(x dataset.Container, y dataset.Container) (dataset.Container, error)
}

// FittedHook is a hook whose transform is learned from training data and
// applied unchanged to held-out data. Fit state lives for the duration of a
// single RunFitted call; it is never reused across calls.
type FittedHook interface {
	Hook

	// RunFitted fits on xTrain only and applies the fitted transform to
	// both containers. The two outputs carry identical feature sets in
	// identical order, and no statistic of xTest may influence the fit.
	RunFitted(xTrain, xTest, yTrain, yTest dataset.Container) (dataset.Container, dataset.Container, error)
}

// Tunable is a hook whose behavior depends on trial-suggested values. Tune
// must be called exactly once per trial before Run or RunFitted.
type Tunable interface {
	// Params lists the hook's tunable parameters.
	Params() []*tuning.Param

	// Tune resolves every tunable parameter from the trial and rebuilds
	// any internal backing transform accordingly.
	Tune(trial goptuna.Trial) error
}

// Config is the raw configuration mapping a hook is constructed from.
type Config map[string]any

// Factory builds a hook from its configuration mapping.
type Factory func(cfg Config, logger *internal.Logger) (Hook, error)

var registry = map[string]Factory{}

// Register installs a hook factory under a name. Called from init functions;
// duplicate registration is a programming error and panics.
func Register(name string, factory Factory) {
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("hooks: duplicate registration for %q", name))
	}
	registry[name] = factory
}

// New resolves a registered hook by name and constructs it.
func New(name string, cfg Config, logger *internal.Logger) (Hook, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownHook, name)
	}
	return factory(cfg, logger)
}

// Registered returns the sorted names of all registered hooks.
func Registered() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

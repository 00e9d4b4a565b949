// Package datahooks implements the registered data hooks: explicit feature
// selection, null-ratio filtering, and PCA. Importing the package installs
// every hook into the registry.
package datahooks

import (
	"mlstudy/domain/core"
	"mlstudy/domain/dataset"
	"mlstudy/domain/hooks"
	"mlstudy/internal"
)

func init() {
	hooks.Register("drop_features_explicit", newExplicitDrop)
	hooks.Register("keep_features_explicit", newExplicitKeep)
}

// explicitFeatures carries the configured feature list shared by the
// keep/drop hooks.
type explicitFeatures struct {
	name     string
	features []string
	logger   *internal.Logger
}

func newExplicitFeatures(name string, cfg hooks.Config, logger *internal.Logger) (explicitFeatures, error) {
	features, err := cfg.StringList("features")
	if err != nil {
		return explicitFeatures{}, err
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return explicitFeatures{name: name, features: features, logger: logger}, nil
}

func (h explicitFeatures) Name() string { return h.name }

// ExplicitDrop removes exactly the configured features from a container.
type ExplicitDrop struct {
	explicitFeatures
}

func newExplicitDrop(cfg hooks.Config, logger *internal.Logger) (hooks.Hook, error) {
	base, err := newExplicitFeatures("drop_features_explicit", cfg, logger)
	if err != nil {
		return nil, err
	}
	return &ExplicitDrop{explicitFeatures: base}, nil
}

func (h *ExplicitDrop) Run(x dataset.Container, y dataset.Container) (dataset.Container, error) {
	mf, ok := x.(dataset.MultiFeature)
	if !ok {
		return nil, core.NewCapabilityError(h.name, "a multi-feature container")
	}
	return mf.DropFeatures(h.features)
}

// ExplicitKeep restricts a container to exactly the configured features, in
// the order the container holds them.
type ExplicitKeep struct {
	explicitFeatures
}

func newExplicitKeep(cfg hooks.Config, logger *internal.Logger) (hooks.Hook, error) {
	base, err := newExplicitFeatures("keep_features_explicit", cfg, logger)
	if err != nil {
		return nil, err
	}
	return &ExplicitKeep{explicitFeatures: base}, nil
}

func (h *ExplicitKeep) Run(x dataset.Container, y dataset.Container) (dataset.Container, error) {
	mf, ok := x.(dataset.MultiFeature)
	if !ok {
		return nil, core.NewCapabilityError(h.name, "a multi-feature container")
	}
	return mf.KeepFeatures(h.features)
}

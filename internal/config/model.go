package config

import (
	"mlstudy/internal"
	apperrors "mlstudy/internal/errors"
	"mlstudy/internal/model"
	"mlstudy/internal/tuning"
)

// ModelConfig names a registered model and the hyperparameter domains its
// per-trial search draws from.
type ModelConfig struct {
	Label      string
	Model      string
	Parameters map[string]tuning.Spec

	factory *model.Factory
}

// LoadModelConfig reads and validates a model configuration file.
func LoadModelConfig(path string, logger *internal.Logger) (*ModelConfig, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	sections, err := readSections(path)
	if err != nil {
		return nil, err
	}

	cfg := &ModelConfig{}
	if cfg.Label, err = requireString(sections, "label", path); err != nil {
		return nil, err
	}
	if cfg.Model, err = requireString(sections, "model", path); err != nil {
		return nil, err
	}
	if _, err = take(sections, "parameters", &cfg.Parameters); err != nil {
		return nil, err
	}
	// The map key doubles as the parameter label when the entry omits one.
	for key, spec := range cfg.Parameters {
		if spec.Label == "" {
			spec.Label = key
			cfg.Parameters[key] = spec
		}
	}

	cfg.factory, err = model.NewFactory(cfg.Model, cfg.Parameters)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeConfigInvalid, err)
	}

	reportRemaining(sections, path, logger)
	return cfg, nil
}

// Factory returns the validated model factory.
func (c *ModelConfig) Factory() *model.Factory {
	return c.factory
}

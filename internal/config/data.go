package config

import (
	"encoding/json"
	"fmt"

	_ "mlstudy/adapters/datahooks" // install the registered hooks
	"mlstudy/adapters/ingest"
	"mlstudy/domain/dataset"
	"mlstudy/domain/hooks"
	"mlstudy/internal"
	apperrors "mlstudy/internal/errors"
)

// DataConfig describes where a dataset comes from and the hook pipelines
// that shape it: pre_analysis runs once on the full container before the
// target split, trial_hooks are rebuilt and applied per trial under the
// fitted-transform protocol.
type DataConfig struct {
	Format      string
	Label       string
	Source      ingest.Source
	PreAnalysis []hooks.Spec
	TrialHooks  []hooks.Spec

	logger *internal.Logger
}

// LoadDataConfig reads and validates a data configuration file.
func LoadDataConfig(path string, logger *internal.Logger) (*DataConfig, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	sections, err := readSections(path)
	if err != nil {
		return nil, err
	}

	cfg := &DataConfig{logger: logger}
	if cfg.Format, err = requireString(sections, "format", path); err != nil {
		return nil, err
	}
	if cfg.Label, err = requireString(sections, "label", path); err != nil {
		return nil, err
	}
	if cfg.Source.Path, err = requireString(sections, "source", path); err != nil {
		return nil, err
	}
	if _, err = take(sections, "sheet", &cfg.Source.Sheet); err != nil {
		return nil, err
	}
	cfg.Source.HasHeader = true
	if _, err = take(sections, "has_header", &cfg.Source.HasHeader); err != nil {
		return nil, err
	}
	if cfg.PreAnalysis, err = takeHookSpecs(sections, "pre_analysis"); err != nil {
		return nil, err
	}
	if cfg.TrialHooks, err = takeHookSpecs(sections, "trial_hooks"); err != nil {
		return nil, err
	}

	// Construct every hook once so bad hook configs fail at load time, not
	// mid-study.
	if _, err := hooks.BuildAll(cfg.PreAnalysis, logger); err != nil {
		return nil, apperrors.WithCode(apperrors.CodeConfigInvalid, err)
	}
	if _, err := hooks.BuildAll(cfg.TrialHooks, logger); err != nil {
		return nil, apperrors.WithCode(apperrors.CodeConfigInvalid, err)
	}

	reportRemaining(sections, path, logger)
	return cfg, nil
}

// takeHookSpecs parses a hook pipeline entry: a list of mappings each
// carrying a "hook" name plus that hook's own configuration.
func takeHookSpecs(sections map[string]json.RawMessage, key string) ([]hooks.Spec, error) {
	var entries []map[string]any
	ok, err := take(sections, key, &entries)
	if err != nil || !ok {
		return nil, err
	}
	specs := make([]hooks.Spec, 0, len(entries))
	for i, entry := range entries {
		name, ok := entry["hook"].(string)
		if !ok || name == "" {
			return nil, apperrors.ConfigInvalid(
				fmt.Sprintf("%s[%d]: missing hook name", key, i))
		}
		cfg := make(hooks.Config, len(entry))
		for k, v := range entry {
			if k != "hook" {
				cfg[k] = v
			}
		}
		specs = append(specs, hooks.Spec{Name: name, Config: cfg})
	}
	return specs, nil
}

// LoadTable reads the dataset the config points at.
func (c *DataConfig) LoadTable() (*dataset.Table, error) {
	return ingest.Load(c.Format, c.Source)
}

// Pipeline builds the pre-analysis hook pipeline.
func (c *DataConfig) Pipeline() (*hooks.Pipeline, error) {
	built, err := hooks.BuildAll(c.PreAnalysis, c.logger)
	if err != nil {
		return nil, err
	}
	return hooks.NewPipeline(built, c.logger), nil
}

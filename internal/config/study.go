package config

import (
	"encoding/json"
	"fmt"

	"mlstudy/adapters/sqlite"
	"mlstudy/internal"
	apperrors "mlstudy/internal/errors"
	"mlstudy/internal/metrics"
)

// Direction says whether the objective is minimized or maximized.
type Direction string

const (
	Minimize Direction = "minimize"
	Maximize Direction = "maximize"
)

// StudyConfig describes one study: how many replicates and trials to run,
// how to seed them, which metrics to optimize and track, and where results
// land.
type StudyConfig struct {
	Label          string
	OutputPath     string
	RandomSeed     int64
	NoReplicates   int
	NoTrials       int
	Target         []string
	Objective      string
	TrackedMetrics []string
	Direction      Direction
	OnExists       sqlite.ExistsPolicy
	Concurrency    int
}

// LoadStudyConfig reads and validates a study configuration file.
func LoadStudyConfig(path string, logger *internal.Logger) (*StudyConfig, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	sections, err := readSections(path)
	if err != nil {
		return nil, err
	}

	cfg := &StudyConfig{
		Objective:      "log_loss",
		TrackedMetrics: []string{"bacc"},
		Direction:      Minimize,
		Concurrency:    1,
	}
	if cfg.Label, err = requireString(sections, "label", path); err != nil {
		return nil, err
	}
	if cfg.OutputPath, err = requireString(sections, "output_path", path); err != nil {
		return nil, err
	}
	if _, err = take(sections, "random_seed", &cfg.RandomSeed); err != nil {
		return nil, err
	}
	if _, err = take(sections, "no_replicates", &cfg.NoReplicates); err != nil {
		return nil, err
	}
	if _, err = take(sections, "no_trials", &cfg.NoTrials); err != nil {
		return nil, err
	}
	if cfg.Target, err = takeTarget(sections); err != nil {
		return nil, err
	}
	if _, err = take(sections, "objective", &cfg.Objective); err != nil {
		return nil, err
	}
	if _, err = take(sections, "tracked_metrics", &cfg.TrackedMetrics); err != nil {
		return nil, err
	}
	var direction string
	if _, err = take(sections, "direction", &direction); err != nil {
		return nil, err
	}
	if direction != "" {
		cfg.Direction = Direction(direction)
	}
	var onExists string
	if _, err = take(sections, "on_exists", &onExists); err != nil {
		return nil, err
	}
	if cfg.OnExists, err = sqlite.ParseExistsPolicy(onExists); err != nil {
		return nil, apperrors.WithCode(apperrors.CodeConfigInvalid, err)
	}
	if _, err = take(sections, "concurrency", &cfg.Concurrency); err != nil {
		return nil, err
	}

	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	reportRemaining(sections, path, logger)
	return cfg, nil
}

// takeTarget accepts either a single feature name or a list of them.
func takeTarget(sections map[string]json.RawMessage) ([]string, error) {
	raw, ok := sections["target"]
	if !ok {
		return nil, apperrors.ConfigInvalid("required entry \"target\" is missing")
	}
	delete(sections, "target")
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, apperrors.ConfigInvalid("entry \"target\" must be a feature name or list of names")
	}
	return many, nil
}

func (c *StudyConfig) validate(path string) error {
	fail := func(format string, args ...any) error {
		return apperrors.ConfigInvalid(fmt.Sprintf("%s: %s", path, fmt.Sprintf(format, args...)))
	}
	if c.NoReplicates < 2 {
		return fail("no_replicates must be at least 2, got %d", c.NoReplicates)
	}
	if c.NoTrials < 1 {
		return fail("no_trials must be at least 1, got %d", c.NoTrials)
	}
	if len(c.Target) == 0 {
		return fail("target must name at least one feature")
	}
	if c.Direction != Minimize && c.Direction != Maximize {
		return fail("direction must be %q or %q, got %q", Minimize, Maximize, c.Direction)
	}
	if c.Concurrency < 1 {
		return fail("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if _, err := metrics.Lookup(c.Objective); err != nil {
		return apperrors.WithCode(apperrors.CodeConfigInvalid, err)
	}
	for _, name := range c.TrackedMetrics {
		if _, err := metrics.Lookup(name); err != nil {
			return apperrors.WithCode(apperrors.CodeConfigInvalid, err)
		}
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mlstudy/internal/errors"
	"mlstudy/internal/tuning"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDataConfig(t *testing.T) {
	path := writeConfig(t, `{
		"format": "csv",
		"label": "clinical",
		"source": "/data/clinical.csv",
		"pre_analysis": [
			{"hook": "sample_drop_null", "threshold": 0.3},
			{"hook": "drop_features_explicit", "features": ["id"]}
		],
		"trial_hooks": [
			{"hook": "principal_component_analysis"}
		]
	}`)

	cfg, err := LoadDataConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.Format)
	assert.Equal(t, "clinical", cfg.Label)
	assert.Equal(t, "/data/clinical.csv", cfg.Source.Path)
	assert.True(t, cfg.Source.HasHeader)
	require.Len(t, cfg.PreAnalysis, 2)
	assert.Equal(t, "sample_drop_null", cfg.PreAnalysis[0].Name)
	require.Len(t, cfg.TrialHooks, 1)
}

func TestLoadDataConfigMissingRequired(t *testing.T) {
	path := writeConfig(t, `{"format": "csv", "label": "x"}`)
	_, err := LoadDataConfig(path, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
}

func TestLoadDataConfigRejectsUnknownHook(t *testing.T) {
	path := writeConfig(t, `{
		"format": "csv",
		"label": "x",
		"source": "/data/x.csv",
		"pre_analysis": [{"hook": "impute_mean"}]
	}`)
	_, err := LoadDataConfig(path, nil)
	assert.Error(t, err, "hook construction failures surface at load time")
}

func TestLoadDataConfigRejectsHookEntryWithoutName(t *testing.T) {
	path := writeConfig(t, `{
		"format": "csv",
		"label": "x",
		"source": "/data/x.csv",
		"trial_hooks": [{"features": ["a"]}]
	}`)
	_, err := LoadDataConfig(path, nil)
	assert.Error(t, err)
}

func TestLoadModelConfig(t *testing.T) {
	path := writeConfig(t, `{
		"label": "lr-sweep",
		"model": "logistic_regression",
		"parameters": {
			"learning_rate": {"type": "float", "low": 0.001, "high": 0.5, "log": true},
			"epochs": {"type": "constant", "value": 100}
		}
	}`)

	cfg, err := LoadModelConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "lr-sweep", cfg.Label)
	assert.NotNil(t, cfg.Factory())
	// Map keys fill in omitted labels.
	assert.Equal(t, "learning_rate", cfg.Parameters["learning_rate"].Label)
	assert.Equal(t, tuning.Float, cfg.Parameters["learning_rate"].Type)
}

func TestLoadModelConfigUnknownModel(t *testing.T) {
	path := writeConfig(t, `{"label": "x", "model": "gradient_boosting"}`)
	_, err := LoadModelConfig(path, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
}

func TestLoadStudyConfigDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"label": "exp1",
		"output_path": "/tmp/results.db",
		"no_replicates": 3,
		"no_trials": 5,
		"target": "outcome"
	}`)

	cfg, err := LoadStudyConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "log_loss", cfg.Objective)
	assert.Equal(t, []string{"bacc"}, cfg.TrackedMetrics)
	assert.Equal(t, Minimize, cfg.Direction)
	assert.Equal(t, []string{"outcome"}, cfg.Target)
	assert.Equal(t, 1, cfg.Concurrency)
}

func TestLoadStudyConfigTargetList(t *testing.T) {
	path := writeConfig(t, `{
		"label": "exp1",
		"output_path": "/tmp/results.db",
		"no_replicates": 2,
		"no_trials": 1,
		"target": ["outcome", "severity"]
	}`)

	cfg, err := LoadStudyConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"outcome", "severity"}, cfg.Target)
}

func TestLoadStudyConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"too few replicates", `{"label": "x", "output_path": "o.db", "no_replicates": 1, "no_trials": 1, "target": "y"}`},
		{"zero trials", `{"label": "x", "output_path": "o.db", "no_replicates": 2, "no_trials": 0, "target": "y"}`},
		{"missing target", `{"label": "x", "output_path": "o.db", "no_replicates": 2, "no_trials": 1}`},
		{"bad direction", `{"label": "x", "output_path": "o.db", "no_replicates": 2, "no_trials": 1, "target": "y", "direction": "up"}`},
		{"unknown objective", `{"label": "x", "output_path": "o.db", "no_replicates": 2, "no_trials": 1, "target": "y", "objective": "auc"}`},
		{"unknown tracked metric", `{"label": "x", "output_path": "o.db", "no_replicates": 2, "no_trials": 1, "target": "y", "tracked_metrics": ["auc"]}`},
		{"bad on_exists", `{"label": "x", "output_path": "o.db", "no_replicates": 2, "no_trials": 1, "target": "y", "on_exists": "truncate"}`},
		{"bad concurrency", `{"label": "x", "output_path": "o.db", "no_replicates": 2, "no_trials": 1, "target": "y", "concurrency": 0}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadStudyConfig(writeConfig(t, tc.body), nil)
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
		})
	}
}

func TestLoadConfigRejectsNonObject(t *testing.T) {
	path := writeConfig(t, `["not", "an", "object"]`)
	_, err := LoadStudyConfig(path, nil)
	assert.Error(t, err)
}

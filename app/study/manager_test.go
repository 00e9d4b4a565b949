package study

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlstudy/domain/dataset"
	"mlstudy/domain/run"
	"mlstudy/internal/config"
	apperrors "mlstudy/internal/errors"
	"mlstudy/internal/testkit"
)

func writeDatasetCSV(t *testing.T, dir string, tbl *dataset.Table) string {
	t.Helper()
	var b strings.Builder
	b.WriteString(strings.Join(tbl.Features(), ","))
	b.WriteByte('\n')
	for i := 0; i < tbl.Len(); i++ {
		row := tbl.Sample(i)
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprintf("%g", v)
		}
		b.WriteString(strings.Join(cells, ","))
		b.WriteByte('\n')
	}
	path := filepath.Join(dir, "synth.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func writeJSON(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// studyFixture loads a full (data, model, study) configuration triple over a
// synthetic dataset and a fresh output database.
func studyFixture(t *testing.T, dir string, seed int64, trials, concurrency int) (*config.DataConfig, *config.ModelConfig, *config.StudyConfig) {
	t.Helper()
	tbl, err := testkit.Classification(testkit.ClassificationSpec{
		Samples:  100,
		Features: 5,
		Seed:     7,
	})
	require.NoError(t, err)
	csvPath := writeDatasetCSV(t, dir, tbl)

	dataPath := writeJSON(t, dir, "data.json", fmt.Sprintf(`{
		"format": "csv",
		"label": "synth",
		"source": %q,
		"trial_hooks": [
			{"hook": "principal_component_analysis",
			 "proportion": {"label": "proportion", "type": "constant", "value": 3.0}}
		]
	}`, csvPath))
	modelPath := writeJSON(t, dir, "model.json", `{
		"label": "logit",
		"model": "logistic_regression",
		"parameters": {
			"learning_rate": {"type": "float", "low": 0.01, "high": 0.5},
			"epochs": {"type": "constant", "value": 60}
		}
	}`)
	outPath := filepath.Join(dir, "results.db")
	studyPath := writeJSON(t, dir, "study.json", fmt.Sprintf(`{
		"label": "e2e",
		"output_path": %q,
		"random_seed": %d,
		"no_replicates": 3,
		"no_trials": %d,
		"target": "target",
		"concurrency": %d
	}`, outPath, seed, trials, concurrency))

	dataCfg, err := config.LoadDataConfig(dataPath, nil)
	require.NoError(t, err)
	modelCfg, err := config.LoadModelConfig(modelPath, nil)
	require.NoError(t, err)
	studyCfg, err := config.LoadStudyConfig(studyPath, nil)
	require.NoError(t, err)
	return dataCfg, modelCfg, studyCfg
}

type resultRow struct {
	RunID     string  `db:"run_id"`
	Replicate int     `db:"replicate"`
	Trial     int     `db:"trial"`
	Objective float64 `db:"objective"`
	Bacc      float64 `db:"bacc"`
}

func readResults(t *testing.T, path, table string) []resultRow {
	t.Helper()
	db, err := sqlx.Connect("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var rows []resultRow
	err = db.Select(&rows,
		fmt.Sprintf("SELECT run_id, replicate, trial, objective, bacc FROM %s ORDER BY replicate, trial", table))
	require.NoError(t, err)
	return rows
}

func TestManagerRunPersistsEveryTrial(t *testing.T) {
	dir := t.TempDir()
	dataCfg, modelCfg, studyCfg := studyFixture(t, dir, 42, 2, 1)

	mgr, err := NewManager(dataCfg, modelCfg, studyCfg, false)
	require.NoError(t, err)
	assert.Equal(t, "e2e__logit__synth", mgr.Label().String())
	require.NoError(t, mgr.Run(context.Background()))

	rows := readResults(t, studyCfg.OutputPath, mgr.Label().TableName())
	require.Len(t, rows, 3*2, "one row per replicate per trial")

	perReplicate := map[int]int{}
	for _, r := range rows {
		perReplicate[r.Replicate]++
		assert.Equal(t, mgr.RunID().String(), r.RunID)
		assert.Greater(t, r.Objective, 0.0, "log loss is strictly positive")
		assert.GreaterOrEqual(t, r.Bacc, 0.0)
		assert.LessOrEqual(t, r.Bacc, 1.0)
	}
	assert.Equal(t, map[int]int{0: 2, 1: 2, 2: 2}, perReplicate)

	// A completed run leaves its manifest next to the result database.
	manifestPath := studyCfg.OutputPath + "." + mgr.RunID().String() + ".json"
	buf, err := os.ReadFile(manifestPath)
	require.NoError(t, err)
	var manifest run.Manifest
	require.NoError(t, json.Unmarshal(buf, &manifest))
	assert.Equal(t, mgr.RunID(), manifest.RunID)
	assert.Equal(t, mgr.Label().TableName(), manifest.Table)
	assert.Equal(t, int64(42), manifest.Fingerprint.Seed)
}

func TestManagerRunDeterministicPerSeed(t *testing.T) {
	run := func(dir string) []resultRow {
		dataCfg, modelCfg, studyCfg := studyFixture(t, dir, 42, 2, 1)
		mgr, err := NewManager(dataCfg, modelCfg, studyCfg, false)
		require.NoError(t, err)
		require.NoError(t, mgr.Run(context.Background()))
		return readResults(t, studyCfg.OutputPath, mgr.Label().TableName())
	}

	a := run(t.TempDir())
	b := run(t.TempDir())
	require.Len(t, b, len(a))
	for i := range a {
		assert.InDelta(t, a[i].Objective, b[i].Objective, 1e-12, "row %d", i)
		assert.InDelta(t, a[i].Bacc, b[i].Bacc, 1e-12, "row %d", i)
	}
}

func TestManagerRunConcurrentTrialsPersistEveryRow(t *testing.T) {
	dir := t.TempDir()
	dataCfg, modelCfg, studyCfg := studyFixture(t, dir, 42, 4, 2)

	mgr, err := NewManager(dataCfg, modelCfg, studyCfg, false)
	require.NoError(t, err)
	require.NoError(t, mgr.Run(context.Background()))

	// Two workers share each replicate's search; the store must still end
	// up with every trial's row.
	rows := readResults(t, studyCfg.OutputPath, mgr.Label().TableName())
	require.Len(t, rows, 3*4)

	perReplicate := map[int]int{}
	trialSeen := map[int]map[int]bool{}
	for _, r := range rows {
		perReplicate[r.Replicate]++
		if trialSeen[r.Replicate] == nil {
			trialSeen[r.Replicate] = map[int]bool{}
		}
		assert.False(t, trialSeen[r.Replicate][r.Trial],
			"trial %d of replicate %d persisted twice", r.Trial, r.Replicate)
		trialSeen[r.Replicate][r.Trial] = true
		assert.Equal(t, mgr.RunID().String(), r.RunID)
	}
	assert.Equal(t, map[int]int{0: 4, 1: 4, 2: 4}, perReplicate)
}

func TestManagerRunFailsOnExistingTable(t *testing.T) {
	dir := t.TempDir()
	dataCfg, modelCfg, studyCfg := studyFixture(t, dir, 1, 2, 1)

	mgr, err := NewManager(dataCfg, modelCfg, studyCfg, false)
	require.NoError(t, err)
	require.NoError(t, mgr.Run(context.Background()))

	// The default on_exists policy refuses to touch the existing table.
	again, err := NewManager(dataCfg, modelCfg, studyCfg, false)
	require.NoError(t, err)
	assert.Error(t, again.Run(context.Background()))
}

func TestManagerRunClassifiesCapabilityFailures(t *testing.T) {
	dir := t.TempDir()
	dataCfg, modelCfg, studyCfg := studyFixture(t, dir, 3, 2, 1)

	// Narrow to one feature, then ask for another feature operation: the
	// single-feature result cannot support it.
	dataPath := writeJSON(t, dir, "data_narrow.json", fmt.Sprintf(`{
		"format": "csv",
		"label": "synth",
		"source": %q,
		"pre_analysis": [
			{"hook": "keep_features_explicit", "features": ["x0"]},
			{"hook": "drop_features_explicit", "features": ["x0"]}
		]
	}`, dataCfg.Source.Path))
	narrowCfg, err := config.LoadDataConfig(dataPath, nil)
	require.NoError(t, err)

	mgr, err := NewManager(narrowCfg, modelCfg, studyCfg, false)
	require.NoError(t, err)
	err = mgr.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeCapabilityError, apperrors.GetCode(err))
}

func TestManagerRunHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	dataCfg, modelCfg, studyCfg := studyFixture(t, dir, 2, 2, 1)

	mgr, err := NewManager(dataCfg, modelCfg, studyCfg, false)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, mgr.Run(ctx), context.Canceled)
}

// Package study orchestrates one supervised study run: seeding, the
// pre-analysis hook pipeline, target extraction, stratified replicate
// generation, per-replicate hyperparameter search, metric computation and
// result persistence.
package study

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/c-bata/goptuna"
	"github.com/c-bata/goptuna/tpe"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"mlstudy/adapters/sqlite"
	"mlstudy/domain/core"
	"mlstudy/domain/dataset"
	"mlstudy/domain/hooks"
	"mlstudy/domain/run"
	"mlstudy/internal"
	"mlstudy/internal/config"
	apperrors "mlstudy/internal/errors"
	"mlstudy/internal/metrics"
	"mlstudy/internal/model"
	"mlstudy/internal/split"
)

// newStratifiedFolds builds the replicate folds: one stratified fold per
// replicate, shuffled under the study seed.
func newStratifiedFolds(cfg *config.StudyConfig, y []float64) ([]split.Fold, error) {
	splitter := split.StratifiedKFold{
		K:       cfg.NoReplicates,
		Shuffle: true,
		Seed:    cfg.RandomSeed,
	}
	return splitter.Split(y)
}

// Manager runs one study: a (data, model, study) configuration triple
// executed across stratified replicates, each holding a hyperparameter
// search of trials.
type Manager struct {
	dataCfg  *config.DataConfig
	modelCfg *config.ModelConfig
	studyCfg *config.StudyConfig

	label  core.StudyLabel
	runID  core.RunID
	logger *internal.Logger

	objective metrics.Metric
	tracked   []trackedMetric

	store *sqlite.Store
}

type trackedMetric struct {
	name string
	fn   metrics.Metric
}

// NewManager binds the three configurations, resolves the study's metrics
// and prepares the composite label. Debug forces verbose logging.
func NewManager(dataCfg *config.DataConfig, modelCfg *config.ModelConfig, studyCfg *config.StudyConfig, debug bool) (*Manager, error) {
	label := core.NewStudyLabel(studyCfg.Label, modelCfg.Label, dataCfg.Label)

	logger := internal.DefaultLogger.WithPrefix(label.String())
	if debug {
		logger = logger.WithLevel(internal.LogLevelDebug)
	}

	objective, err := metrics.Lookup(studyCfg.Objective)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeConfigInvalid, err)
	}
	tracked := make([]trackedMetric, 0, len(studyCfg.TrackedMetrics))
	for _, name := range studyCfg.TrackedMetrics {
		fn, err := metrics.Lookup(name)
		if err != nil {
			return nil, apperrors.WithCode(apperrors.CodeConfigInvalid, err)
		}
		tracked = append(tracked, trackedMetric{name: name, fn: fn})
	}

	return &Manager{
		dataCfg:   dataCfg,
		modelCfg:  modelCfg,
		studyCfg:  studyCfg,
		label:     label,
		runID:     core.NewRunID(),
		logger:    logger,
		objective: objective,
		tracked:   tracked,
	}, nil
}

// Label returns the composite study label.
func (m *Manager) Label() core.StudyLabel { return m.label }

// RunID returns this run's identifier.
func (m *Manager) RunID() core.RunID { return m.runID }

// initStore opens the result store and creates the study's table per the
// configured exists policy.
func (m *Manager) initStore() (*sqlite.Store, error) {
	names := make([]string, 0, len(m.tracked))
	for _, t := range m.tracked {
		names = append(names, t.name)
	}
	store, err := sqlite.Open(m.studyCfg.OutputPath, m.label, names)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodePersistence, err)
	}
	if err := store.Init(m.studyCfg.OnExists); err != nil {
		store.Close()
		return nil, apperrors.WithCode(apperrors.CodePersistence, err)
	}
	return store, nil
}

// Run executes the full study. Replicates run sequentially; every piece of
// randomness flows from RNGs derived off the configured seed, never global
// state, so runs with identical configuration reproduce identical splits
// and trial suggestions.
func (m *Manager) Run(ctx context.Context) error {
	startedAt := time.Now()
	master := rand.New(rand.NewSource(m.studyCfg.RandomSeed))

	table, err := m.dataCfg.LoadTable()
	if err != nil {
		return apperrors.Wrapf(err, "loading dataset %q", m.dataCfg.Label)
	}
	m.logger.Info("loaded dataset %q: %d samples x %d features",
		m.dataCfg.Label, table.Len(), len(table.Features()))

	pipeline, err := m.dataCfg.Pipeline()
	if err != nil {
		return apperrors.WithCode(apperrors.CodeConfigInvalid, err)
	}
	processed, err := pipeline.Run(table, nil)
	if err != nil {
		if core.IsCapabilityError(err) {
			return apperrors.WithCode(apperrors.CodeCapabilityError, err)
		}
		return apperrors.Wrap(err, "pre-analysis pipeline failed")
	}
	if processed.Len() == 0 {
		return apperrors.WithCode(apperrors.CodeValidationError,
			fmt.Errorf("%w after pre-analysis", core.ErrEmptyContainer))
	}

	splittable, ok := processed.(dataset.FeatureSplittable)
	if !ok {
		return apperrors.UnsupportedFlow(core.ErrUnsupervised.Error())
	}
	y, x, err := splittable.PopFeatures(m.studyCfg.Target)
	if err != nil {
		return apperrors.Wrapf(err, "extracting target %v", m.studyCfg.Target)
	}

	// One independent seed per replicate, drawn before splitting so the
	// sequence only depends on the study seed.
	seeds := make([]int64, m.studyCfg.NoReplicates)
	for i := range seeds {
		seeds[i] = master.Int63n(math.MaxInt32)
	}
	folds, err := newStratifiedFolds(m.studyCfg, dataset.Values(y))
	if err != nil {
		return apperrors.WithCode(apperrors.CodeValidationError, err)
	}

	m.store, err = m.initStore()
	if err != nil {
		return err
	}
	defer m.store.Close()

	for i, fold := range folds {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.logger.Debug("test/train ratio (split %d): %d/%d", i, len(fold.Test), len(fold.Train))

		trainX, testX, err := x.Split(fold.Train, fold.Test)
		if err != nil {
			return apperrors.Wrapf(err, "splitting inputs for replicate %d", i)
		}
		trainY, testY, err := y.Split(fold.Train, fold.Test)
		if err != nil {
			return apperrors.Wrapf(err, "splitting target for replicate %d", i)
		}
		if err := m.runSupervised(ctx, i, trainX, trainY, testX, testY, seeds[i]); err != nil {
			return err
		}
	}
	if err := m.writeManifest(startedAt); err != nil {
		return err
	}
	m.logger.Info("study complete: %d replicates x %d trials", m.studyCfg.NoReplicates, m.studyCfg.NoTrials)
	return nil
}

// writeManifest records the run's determinism identity next to the result
// database.
func (m *Manager) writeManifest(startedAt time.Time) error {
	fp := run.NewFingerprint(m.label, m.modelCfg.Model, m.dataCfg.Label,
		m.studyCfg.RandomSeed, m.studyCfg.NoReplicates, m.studyCfg.NoTrials, m.studyCfg.Objective)
	manifest := run.NewManifest(m.runID, m.label.TableName(), fp, startedAt)
	path := m.studyCfg.OutputPath + "." + m.runID.String() + ".json"
	if err := manifest.Write(path); err != nil {
		return apperrors.WithCode(apperrors.CodePersistence, err)
	}
	m.logger.Debug("run manifest written to %s", path)
	return nil
}

// runSupervised runs one replicate's hyperparameter search.
func (m *Manager) runSupervised(ctx context.Context, rep int, trainX, trainY, testX, testY dataset.Container, seed int64) error {
	studyName := fmt.Sprintf("%s [%d]", m.label, rep)

	direction := goptuna.StudyDirectionMinimize
	if m.studyCfg.Direction == config.Maximize {
		direction = goptuna.StudyDirectionMaximize
	}
	search, err := goptuna.CreateStudy(
		studyName,
		goptuna.StudyOptionSampler(tpe.NewSampler(tpe.SamplerOptionSeed(seed))),
		goptuna.StudyOptionDirection(direction),
	)
	if err != nil {
		return apperrors.Wrapf(err, "creating search for replicate %d", rep)
	}

	trainYVals := dataset.Values(trainY)
	testYVals := dataset.Values(testY)

	objective := func(trial goptuna.Trial) (float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		// Trial hooks are rebuilt from their specs every trial: tunable
		// state and fit state must never leak across trials or workers.
		built, err := hooks.BuildAll(m.dataCfg.TrialHooks, m.logger)
		if err != nil {
			return 0, err
		}
		for _, h := range built {
			if tunable, ok := h.(hooks.Tunable); ok {
				if err := tunable.Tune(trial); err != nil {
					return 0, err
				}
			}
		}
		hookedTrainX, hookedTestX, err := hooks.NewPipeline(built, m.logger).
			RunFitted(trainX, testX, trainY, testY)
		if err != nil {
			return 0, err
		}

		clf, err := m.modelCfg.Factory().Build(trial, seed)
		if err != nil {
			return 0, err
		}
		if err := clf.Fit(hookedTrainX.Matrix(), trainYVals); err != nil {
			return 0, fmt.Errorf("fitting %s: %w", m.modelCfg.Model, err)
		}

		objVal, trackedVals, err := m.CalculateMetrics(clf, hookedTestX.Matrix(), testYVals)
		if err != nil {
			return 0, err
		}
		if err := m.store.Save(m.runID, rep, trial.ID, objVal, trackedVals); err != nil {
			return 0, apperrors.WithCode(apperrors.CodePersistence, err)
		}
		m.logger.Debug("replicate %d trial %d: %s=%.6f", rep, trial.ID, m.studyCfg.Objective, objVal)
		return objVal, nil
	}

	if workers := m.studyCfg.Concurrency; workers > 1 {
		return m.optimizeParallel(search, objective, workers)
	}
	if err := search.Optimize(objective, m.studyCfg.NoTrials); err != nil {
		return apperrors.Wrapf(err, "replicate %d search failed", rep)
	}
	return nil
}

// optimizeParallel spreads the replicate's trials over a fixed pool of
// workers. The search study is goroutine-safe and the store serializes
// writes, so trials only contend on suggestion bookkeeping.
func (m *Manager) optimizeParallel(search *goptuna.Study, objective goptuna.FuncObjective, workers int) error {
	if workers > m.studyCfg.NoTrials {
		workers = m.studyCfg.NoTrials
	}
	per := m.studyCfg.NoTrials / workers
	extra := m.studyCfg.NoTrials % workers

	var eg errgroup.Group
	for w := 0; w < workers; w++ {
		n := per
		if w < extra {
			n++
		}
		if n == 0 {
			continue
		}
		eg.Go(func() error {
			return search.Optimize(objective, n)
		})
	}
	return eg.Wait()
}

// CalculateMetrics computes the objective and every tracked metric against
// held-out data. The objective value is returned separately and is always
// the first thing persisted.
func (m *Manager) CalculateMetrics(clf model.Classifier, testX *mat.Dense, testY []float64) (float64, map[string]float64, error) {
	objVal, err := m.objective(clf, testX, testY)
	if err != nil {
		return 0, nil, fmt.Errorf("computing objective %q: %w", m.studyCfg.Objective, err)
	}
	trackedVals := make(map[string]float64, len(m.tracked))
	for _, t := range m.tracked {
		v, err := t.fn(clf, testX, testY)
		if err != nil {
			return 0, nil, fmt.Errorf("computing metric %q: %w", t.name, err)
		}
		trackedVals[t.name] = v
	}
	return objVal, trackedVals, nil
}

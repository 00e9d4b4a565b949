// Package metrics holds the registry of evaluation metrics a study can
// select its objective and tracked metrics from.
package metrics

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	"mlstudy/domain/core"
	"mlstudy/internal/model"
)

// Metric scores a fitted classifier against held-out data.
type Metric func(m model.Classifier, x *mat.Dense, y []float64) (float64, error)

var registry = map[string]Metric{}

// Register installs a metric under a name. Called from init; duplicates panic.
func Register(name string, metric Metric) {
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("metrics: duplicate registration for %q", name))
	}
	registry[name] = metric
}

// Lookup resolves a registered metric by name.
func Lookup(name string) (Metric, error) {
	m, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownMetric, name)
	}
	return m, nil
}

// Registered returns the sorted names of all registered metrics.
func Registered() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("log_loss", LogLoss)
	Register("bacc", BalancedAccuracy)
	Register("accuracy", Accuracy)
}

// probability clipping bound for log loss
const logLossEps = 1e-15

// LogLoss is the negative mean log-likelihood of the true binary labels
// under the model's predicted probabilities.
func LogLoss(m model.Classifier, x *mat.Dense, y []float64) (float64, error) {
	proba := m.PredictProba(x)
	if len(proba) != len(y) {
		return 0, fmt.Errorf("log_loss: %d probabilities for %d labels", len(proba), len(y))
	}
	if len(y) == 0 {
		return 0, fmt.Errorf("log_loss: no samples")
	}
	sum := 0.0
	for i, p := range proba {
		p = math.Min(math.Max(p, logLossEps), 1-logLossEps)
		if y[i] >= 0.5 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(len(y)), nil
}

// BalancedAccuracy is the mean per-class recall, robust to class imbalance.
func BalancedAccuracy(m model.Classifier, x *mat.Dense, y []float64) (float64, error) {
	pred := m.Predict(x)
	if len(pred) != len(y) {
		return 0, fmt.Errorf("bacc: %d predictions for %d labels", len(pred), len(y))
	}
	correct := map[float64]float64{}
	total := map[float64]float64{}
	for i, label := range y {
		total[label]++
		if pred[i] == label {
			correct[label]++
		}
	}
	if len(total) == 0 {
		return 0, fmt.Errorf("bacc: no samples")
	}
	recalls := make([]float64, 0, len(total))
	for label, n := range total {
		recalls = append(recalls, correct[label]/n)
	}
	return stats.Mean(recalls)
}

// Accuracy is the fraction of exactly matching predictions.
func Accuracy(m model.Classifier, x *mat.Dense, y []float64) (float64, error) {
	pred := m.Predict(x)
	if len(pred) != len(y) {
		return 0, fmt.Errorf("accuracy: %d predictions for %d labels", len(pred), len(y))
	}
	if len(y) == 0 {
		return 0, fmt.Errorf("accuracy: no samples")
	}
	hits := 0
	for i := range y {
		if pred[i] == y[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(y)), nil
}

package dataset

import (
	"math"

	"github.com/montanaflynn/stats"
)

// FeatureSummary holds per-feature descriptive statistics, computed over
// non-null entries only.
type FeatureSummary struct {
	Name      string  `json:"name"`
	Count     int     `json:"count"`
	NullCount int     `json:"null_count"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"std_dev"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Median    float64 `json:"median"`
}

// Describe computes a summary for every feature in the table. Features with
// no non-null values report NaN statistics.
func (t *Table) Describe() []FeatureSummary {
	summaries := make([]FeatureSummary, 0, len(t.features))
	for j, f := range t.features {
		var data []float64
		nulls := 0
		for _, row := range t.rows {
			if math.IsNaN(row[j]) {
				nulls++
				continue
			}
			data = append(data, row[j])
		}
		s := FeatureSummary{
			Name:      f,
			Count:     len(data),
			NullCount: nulls,
			Mean:      math.NaN(),
			StdDev:    math.NaN(),
			Min:       math.NaN(),
			Max:       math.NaN(),
			Median:    math.NaN(),
		}
		if len(data) > 0 {
			s.Mean, _ = stats.Mean(data)
			s.StdDev, _ = stats.StandardDeviation(data)
			s.Min, _ = stats.Min(data)
			s.Max, _ = stats.Max(data)
			s.Median, _ = stats.Median(data)
		}
		summaries = append(summaries, s)
	}
	return summaries
}

package quality

import (
	"fmt"
)

// Summary aggregates recorded evaluations: per-dimension means and
// the fraction passing the tracker's threshold
type Summary struct {
	Count            int                   `json:"count"`
	OverallAverage   float64               `json:"overall_average"`
	DimensionMeans   map[Dimension]float64 `json:"dimension_means"`
	PassRate         float64               `json:"pass_rate"`
	PassingThreshold float64               `json:"passing_threshold"`
}

// Summarize aggregates everything the tracker has recorded
func (t *Tracker) Summarize() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	summary := Summary{
		Count:            len(t.evaluations),
		DimensionMeans:   make(map[Dimension]float64),
		PassingThreshold: t.alertThreshold,
	}
	if len(t.evaluations) == 0 {
		return summary
	}

	dimensionTotals := make(map[Dimension]float64)
	dimensionCounts := make(map[Dimension]int)
	passing := 0
	var total float64
	for _, evaluation := range t.evaluations {
		total += evaluation.OverallScore
		if evaluation.OverallScore >= t.alertThreshold {
			passing++
		}
		for dimension, score := range evaluation.Scores {
			dimensionTotals[dimension] += score.Score
			dimensionCounts[dimension]++
		}
	}

	summary.OverallAverage = total / float64(len(t.evaluations))
	summary.PassRate = float64(passing) / float64(len(t.evaluations))
	for dimension, sum := range dimensionTotals {
		summary.DimensionMeans[dimension] = sum / float64(dimensionCounts[dimension])
	}
	return summary
}

// Gate is a release gate evaluated over a batch of evaluations.
// Per-dimension thresholds apply to the batch means, and
// MinSampleSize stops a lucky handful of requests from passing a
// deploy.
type Gate struct {
	Name          string                `json:"name"`
	Thresholds    map[Dimension]float64 `json:"thresholds"`
	MinSampleSize int                   `json:"min_sample_size"`
}

// GateReport is the outcome of running a gate over a batch
type GateReport struct {
	Gate       string   `json:"gate"`
	SampleSize int      `json:"sample_size"`
	Passed     bool     `json:"passed"`
	Failures   []string `json:"failures,omitempty"`
}

// Run evaluates the gate against a batch of evaluations
func (g *Gate) Run(evaluations []*Evaluation) GateReport {
	report := GateReport{Gate: g.Name, SampleSize: len(evaluations)}
	if len(evaluations) < g.MinSampleSize {
		report.Failures = append(report.Failures,
			fmt.Sprintf("sample size %d below minimum %d", len(evaluations), g.MinSampleSize))
		return report
	}

	totals := make(map[Dimension]float64)
	counts := make(map[Dimension]int)
	for _, evaluation := range evaluations {
		for dimension, score := range evaluation.Scores {
			totals[dimension] += score.Score
			counts[dimension]++
		}
	}

	for dimension, threshold := range g.Thresholds {
		count := counts[dimension]
		if count == 0 {
			report.Failures = append(report.Failures,
				fmt.Sprintf("%s: no scores recorded", dimension))
			continue
		}
		mean := totals[dimension] / float64(count)
		if mean < threshold {
			report.Failures = append(report.Failures,
				fmt.Sprintf("%s: mean %.2f < %.2f", dimension, mean, threshold))
		}
	}
	report.Passed = len(report.Failures) == 0
	return report
}

package quality

import (
	"sync"
)

// Alert flags degraded response quality
type Alert struct {
	Type           string  `json:"type"`
	EvaluationID   string  `json:"evaluation_id,omitempty"`
	Score          float64 `json:"score,omitempty"`
	Threshold      float64 `json:"threshold,omitempty"`
	RecentAverage  float64 `json:"recent_average,omitempty"`
	OverallAverage float64 `json:"overall_average,omitempty"`
}

// Tracker records evaluations over time and raises alerts on poor
// scores or regressions. Production quality drifts: data shifts,
// model updates, and RAG changes all move the numbers. It is safe for
// concurrent use.
type Tracker struct {
	mu             sync.Mutex
	evaluations    []*Evaluation
	scores         []float64
	alertThreshold float64
}

// NewTracker creates a tracker alerting below the given overall score
// (default 0.6)
func NewTracker(alertThreshold float64) *Tracker {
	if alertThreshold <= 0 {
		alertThreshold = 0.6
	}
	return &Tracker{alertThreshold: alertThreshold}
}

// Record stores an evaluation and returns an alert when the score is
// below the threshold or the recent average has regressed by more
// than 0.1 against the all-time average
func (t *Tracker) Record(evaluation *Evaluation) *Alert {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.evaluations = append(t.evaluations, evaluation)
	t.scores = append(t.scores, evaluation.OverallScore)

	if evaluation.OverallScore < t.alertThreshold {
		return &Alert{
			Type:         "quality_below_threshold",
			EvaluationID: evaluation.ID,
			Score:        evaluation.OverallScore,
			Threshold:    t.alertThreshold,
		}
	}

	if len(t.scores) > 10 {
		var recentSum float64
		for _, s := range t.scores[len(t.scores)-10:] {
			recentSum += s
		}
		recentAvg := recentSum / 10

		var totalSum float64
		for _, s := range t.scores {
			totalSum += s
		}
		overallAvg := totalSum / float64(len(t.scores))

		if recentAvg < overallAvg-0.1 {
			return &Alert{
				Type:           "quality_regression",
				RecentAverage:  recentAvg,
				OverallAverage: overallAvg,
			}
		}
	}
	return nil
}

// Average returns the all-time mean overall score
func (t *Tracker) Average() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range t.scores {
		sum += s
	}
	return sum / float64(len(t.scores))
}

// Count returns the number of recorded evaluations
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.evaluations)
}

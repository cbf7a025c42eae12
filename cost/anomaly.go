package cost

import (
	"fmt"
	"math"
	"sync"
)

// Anomaly describes a request whose cost deviates sharply from the
// recent baseline
type Anomaly struct {
	Type         string  `json:"type"`
	RequestID    string  `json:"request_id"`
	CostUSD      float64 `json:"cost_usd"`
	ZScore       float64 `json:"z_score"`
	ExpectedCost float64 `json:"expected_cost"`
	Message      string  `json:"message"`
}

// AnomalyDetector flags cost outliers with a rolling z-score. A
// runaway loop can burn through thousands of dollars before anyone
// notices; flag it on the first spike. It is safe for concurrent use.
type AnomalyDetector struct {
	mu          sync.Mutex
	recentCosts []float64
	windowSize  int
	threshold   float64
}

// NewAnomalyDetector creates a detector with a rolling window of 100
// samples and a 3 standard deviation alert threshold
func NewAnomalyDetector() *AnomalyDetector {
	return &AnomalyDetector{
		windowSize: 100,
		threshold:  3.0,
	}
}

// Check compares the record's cost to the rolling baseline and
// returns an Anomaly when it deviates beyond the threshold. The first
// 10 samples only build history.
func (d *AnomalyDetector) Check(record *UsageRecord) *Anomaly {
	d.mu.Lock()
	defer d.mu.Unlock()

	cost := record.CostUSD
	if len(d.recentCosts) < 10 {
		d.recentCosts = append(d.recentCosts, cost)
		return nil
	}

	var sum float64
	for _, c := range d.recentCosts {
		sum += c
	}
	mean := sum / float64(len(d.recentCosts))

	var variance float64
	for _, c := range d.recentCosts {
		variance += (c - mean) * (c - mean)
	}
	variance /= float64(len(d.recentCosts))

	std := 0.01
	if variance > 0 {
		std = math.Sqrt(variance)
	}
	zScore := (cost - mean) / std

	d.recentCosts = append(d.recentCosts, cost)
	if len(d.recentCosts) > d.windowSize {
		d.recentCosts = d.recentCosts[1:]
	}

	if math.Abs(zScore) <= d.threshold {
		return nil
	}

	anomalyType := "cost_spike"
	if zScore < 0 {
		anomalyType = "cost_drop"
	}
	return &Anomaly{
		Type:         anomalyType,
		RequestID:    record.RequestID,
		CostUSD:      cost,
		ZScore:       zScore,
		ExpectedCost: mean,
		Message:      fmt.Sprintf("cost %.4f is %.1f std from mean %.4f", cost, math.Abs(zScore), mean),
	}
}

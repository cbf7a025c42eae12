package cost

import (
	"fmt"
	"strings"
	"time"
)

// Recommendation is one data-driven cost optimization
type Recommendation struct {
	Category         string `json:"category"`
	Priority         string `json:"priority"`
	Current          string `json:"current"`
	Recommendation   string `json:"recommendation"`
	PotentialSavings string `json:"potential_savings"`
}

// Recommend analyzes the last week of usage and suggests
// optimizations: low cache hit rates, heavy spend on large models,
// and oversized outputs.
func Recommend(tracker *Tracker) []Recommendation {
	var recommendations []Recommendation
	summary := tracker.GetSummary(7 * 24 * time.Hour)

	if summary.CacheHitRate < 0.3 {
		recommendations = append(recommendations, Recommendation{
			Category:         "caching",
			Priority:         "high",
			Current:          fmt.Sprintf("%.0f%% cache hit rate", summary.CacheHitRate*100),
			Recommendation:   "restructure prompts for prefix caching, static content first",
			PotentialSavings: "30-50%",
		})
	}

	modelCosts := tracker.Breakdown("model")
	var expensiveSpend, totalSpend float64
	for _, item := range modelCosts {
		totalSpend += item.CostUSD
		if strings.Contains(item.Key, "gpt-4o") && !strings.Contains(item.Key, "mini") ||
			strings.Contains(item.Key, "sonnet") {
			expensiveSpend += item.CostUSD
		}
	}
	if totalSpend > 0 && expensiveSpend > totalSpend*0.8 {
		recommendations = append(recommendations, Recommendation{
			Category:         "model_selection",
			Priority:         "medium",
			Current:          fmt.Sprintf("%.0f%% of spend on large models", expensiveSpend/totalSpend*100),
			Recommendation:   "route simple queries to smaller models",
			PotentialSavings: "40-60%",
		})
	}

	if summary.TotalInputTokens > 0 && summary.TotalOutputTokens > summary.TotalInputTokens*2 {
		ratio := float64(summary.TotalOutputTokens) / float64(summary.TotalInputTokens)
		recommendations = append(recommendations, Recommendation{
			Category:         "output_length",
			Priority:         "medium",
			Current:          fmt.Sprintf("output to input ratio %.1fx", ratio),
			Recommendation:   "add conciseness instructions and limit max tokens",
			PotentialSavings: "20-30%",
		})
	}

	return recommendations
}

// Package cost tracks LLM token spend: per-request cost attribution,
// team budgets with alerts, anomaly detection for runaway loops, a
// durable usage ledger, and prefix cache accounting.
//
// If you can't measure it, you can't optimize it.
package cost

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pricing is the token pricing for one model, in dollars per million
// tokens
type Pricing struct {
	Model             string  `yaml:"model" json:"model"`
	InputPerMillion   float64 `yaml:"input_per_million" json:"input_per_million"`
	OutputPerMillion  float64 `yaml:"output_per_million" json:"output_per_million"`
	CachedPerMillion  float64 `yaml:"cached_per_million" json:"cached_per_million"`
}

// PricingTable maps model names to their pricing
type PricingTable map[string]Pricing

// DefaultPricingTable returns built-in pricing for common models
func DefaultPricingTable() PricingTable {
	return PricingTable{
		"gpt-4o":            {Model: "gpt-4o", InputPerMillion: 2.50, OutputPerMillion: 10.00, CachedPerMillion: 1.25},
		"gpt-4o-mini":       {Model: "gpt-4o-mini", InputPerMillion: 0.15, OutputPerMillion: 0.60, CachedPerMillion: 0.075},
		"claude-3-5-sonnet": {Model: "claude-3-5-sonnet", InputPerMillion: 3.00, OutputPerMillion: 15.00, CachedPerMillion: 0.30},
		"claude-3-5-haiku":  {Model: "claude-3-5-haiku", InputPerMillion: 0.25, OutputPerMillion: 1.25, CachedPerMillion: 0.03},
		"gemini-1.5-pro":    {Model: "gemini-1.5-pro", InputPerMillion: 1.25, OutputPerMillion: 5.00, CachedPerMillion: 0.0625},
	}
}

// LoadPricingFile reads a pricing table from a YAML file. The file
// holds a list of Pricing entries under a top-level "models" key.
func LoadPricingFile(path string) (PricingTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing file: %w", err)
	}

	var doc struct {
		Models []Pricing `yaml:"models"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse pricing file: %w", err)
	}

	table := make(PricingTable, len(doc.Models))
	for _, p := range doc.Models {
		if p.Model == "" {
			return nil, fmt.Errorf("pricing entry without model name")
		}
		table[p.Model] = p
	}
	return table, nil
}

// Cost computes the dollar cost of a usage record under this table.
// Unknown models cost zero.
func (t PricingTable) Cost(record *UsageRecord) float64 {
	pricing, ok := t[record.Model]
	if !ok {
		return 0
	}
	inputCost := float64(record.InputTokens) / 1_000_000 * pricing.InputPerMillion
	outputCost := float64(record.OutputTokens) / 1_000_000 * pricing.OutputPerMillion
	cachedCost := float64(record.CachedTokens) / 1_000_000 * pricing.CachedPerMillion
	return inputCost + outputCost + cachedCost
}

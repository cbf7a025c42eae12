package cost

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smallnest/agentcore/log"
)

// UsageRecord is one LLM API call with full attribution
type UsageRecord struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Model     string    `json:"model"`

	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	CachedTokens int `json:"cached_tokens"`

	TeamID     string `json:"team_id,omitempty"`
	ProjectID  string `json:"project_id,omitempty"`
	WorkflowID string `json:"workflow_id,omitempty"`
	UserID     string `json:"user_id,omitempty"`

	CostUSD float64 `json:"cost_usd"`
}

// NewUsageRecord creates a record for the given model with a fresh
// request ID and timestamp
func NewUsageRecord(model string) *UsageRecord {
	return &UsageRecord{
		RequestID: uuid.NewString(),
		Timestamp: time.Now(),
		Model:     model,
	}
}

// AlertLevel distinguishes a budget notice from a hard warning
type AlertLevel string

const (
	// AlertNotice fires at 75 percent of budget
	AlertNotice AlertLevel = "notice"
	// AlertWarning fires at 90 percent of budget
	AlertWarning AlertLevel = "warning"
)

// BudgetAlert is delivered when a team crosses a budget threshold
type BudgetAlert struct {
	TeamID   string
	Spent    float64
	Budget   float64
	Fraction float64
	Level    AlertLevel
}

// Summary aggregates spend inside a time window
type Summary struct {
	Window            time.Duration      `json:"window"`
	RequestCount      int                `json:"request_count"`
	TotalCostUSD      float64            `json:"total_cost_usd"`
	TotalInputTokens  int                `json:"total_input_tokens"`
	TotalOutputTokens int                `json:"total_output_tokens"`
	TotalCachedTokens int                `json:"total_cached_tokens"`
	CacheHitRate      float64            `json:"cache_hit_rate"`
	CostByTeam        map[string]float64 `json:"cost_by_team"`
	CostByModel       map[string]float64 `json:"cost_by_model"`
	CostByWorkflow    map[string]float64 `json:"cost_by_workflow"`
}

// BreakdownItem is one row of a cost breakdown
type BreakdownItem struct {
	Key        string  `json:"key"`
	CostUSD    float64 `json:"cost_usd"`
	Percentage float64 `json:"percentage"`
}

// TrackerOptions configures a Tracker
type TrackerOptions struct {
	// Pricing resolves model costs (default DefaultPricingTable)
	Pricing PricingTable
	// OnAlert receives budget alerts; nil alerts go to the logger
	OnAlert func(alert BudgetAlert)
	// Logger for alerts without a callback
	Logger log.Logger
}

// Tracker records LLM usage and keeps running aggregations by team,
// model, and workflow. Attribution enables accountability: know what
// costs money, who spends it, and why. It is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	pricing PricingTable
	records []*UsageRecord
	budgets map[string]float64

	costByTeam     map[string]float64
	costByModel    map[string]float64
	costByWorkflow map[string]float64

	onAlert func(alert BudgetAlert)
	logger  log.Logger
}

// NewTracker creates a tracker
func NewTracker(opts TrackerOptions) *Tracker {
	pricing := opts.Pricing
	if pricing == nil {
		pricing = DefaultPricingTable()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &Tracker{
		pricing:        pricing,
		budgets:        make(map[string]float64),
		costByTeam:     make(map[string]float64),
		costByModel:    make(map[string]float64),
		costByWorkflow: make(map[string]float64),
		onAlert:        opts.OnAlert,
		logger:         logger,
	}
}

// SetBudget sets a team's budget in dollars
func (t *Tracker) SetBudget(teamID string, budgetUSD float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.budgets[teamID] = budgetUSD
}

// Record computes the record's cost, stores it, updates the
// aggregations, and fires budget alerts when thresholds are crossed.
// Call it after every LLM invocation.
func (t *Tracker) Record(record *UsageRecord) *UsageRecord {
	t.mu.Lock()
	record.CostUSD = t.pricing.Cost(record)
	t.records = append(t.records, record)
	t.costByTeam[record.TeamID] += record.CostUSD
	t.costByModel[record.Model] += record.CostUSD
	t.costByWorkflow[record.WorkflowID] += record.CostUSD

	alert := t.budgetAlert(record.TeamID)
	t.mu.Unlock()

	if alert != nil {
		if t.onAlert != nil {
			t.onAlert(*alert)
		} else {
			t.logger.Warn("budget %s: team %s at %.0f%% of budget ($%.2f of $%.2f)",
				alert.Level, alert.TeamID, alert.Fraction*100, alert.Spent, alert.Budget)
		}
	}
	return record
}

func (t *Tracker) budgetAlert(teamID string) *BudgetAlert {
	budget, ok := t.budgets[teamID]
	if !ok || budget <= 0 {
		return nil
	}
	spent := t.costByTeam[teamID]
	fraction := spent / budget

	switch {
	case fraction > 0.9:
		return &BudgetAlert{TeamID: teamID, Spent: spent, Budget: budget, Fraction: fraction, Level: AlertWarning}
	case fraction > 0.75:
		return &BudgetAlert{TeamID: teamID, Spent: spent, Budget: budget, Fraction: fraction, Level: AlertNotice}
	}
	return nil
}

// GetSummary aggregates the records inside the trailing window
func (t *Tracker) GetSummary(window time.Duration) Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().Add(-window)
	summary := Summary{
		Window:         window,
		CostByTeam:     copyFloats(t.costByTeam),
		CostByModel:    copyFloats(t.costByModel),
		CostByWorkflow: copyFloats(t.costByWorkflow),
	}
	for _, r := range t.records {
		if !r.Timestamp.After(cutoff) {
			continue
		}
		summary.RequestCount++
		summary.TotalCostUSD += r.CostUSD
		summary.TotalInputTokens += r.InputTokens
		summary.TotalOutputTokens += r.OutputTokens
		summary.TotalCachedTokens += r.CachedTokens
	}
	denominator := summary.TotalInputTokens + summary.TotalCachedTokens
	if denominator > 0 {
		summary.CacheHitRate = float64(summary.TotalCachedTokens) / float64(denominator)
	}
	return summary
}

// Breakdown returns costs grouped by "model", "team", "workflow", or
// "day", sorted by spend descending
func (t *Tracker) Breakdown(groupBy string) []BreakdownItem {
	t.mu.Lock()
	defer t.mu.Unlock()

	var aggregation map[string]float64
	switch groupBy {
	case "team":
		aggregation = t.costByTeam
	case "workflow":
		aggregation = t.costByWorkflow
	case "day":
		aggregation = make(map[string]float64)
		for _, r := range t.records {
			aggregation[r.Timestamp.Format("2006-01-02")] += r.CostUSD
		}
	default:
		aggregation = t.costByModel
	}

	var total float64
	for _, v := range aggregation {
		total += v
	}
	if total < 0.01 {
		total = 0.01
	}

	items := make([]BreakdownItem, 0, len(aggregation))
	for key, cost := range aggregation {
		items = append(items, BreakdownItem{
			Key:        key,
			CostUSD:    cost,
			Percentage: cost / total * 100,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CostUSD > items[j].CostUSD
	})
	return items
}

func copyFloats(src map[string]float64) map[string]float64 {
	dst := make(map[string]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

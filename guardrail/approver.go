package guardrail

import (
	"fmt"
	"sync"
)

// Approval is the outcome of asking whether an operation may run
type Approval struct {
	Approved     bool           `json:"approved"`
	AutoApproved bool           `json:"auto_approved,omitempty"`
	Pending      bool           `json:"pending,omitempty"`
	Operation    string         `json:"operation,omitempty"`
	Reason       string         `json:"reason,omitempty"`
	Context      map[string]any `json:"context,omitempty"`
	Message      string         `json:"message,omitempty"`
}

// Approver gates irreversible or high-stakes operations behind a
// human decision point
type Approver struct {
	mu sync.RWMutex
	// operation name to a description of why it is high risk
	highRisk map[string]string
	// AmountThreshold is the transaction amount above which any
	// operation needs approval
	AmountThreshold float64
}

// NewApprover creates an approver with the default high-risk
// operations and a $1000 amount threshold
func NewApprover() *Approver {
	return &Approver{
		highRisk: map[string]string{
			"delete_customer":    "permanently deletes customer record",
			"process_refund":     "processes financial refund",
			"modify_permissions": "changes access permissions",
			"deploy_production":  "deploys to production environment",
		},
		AmountThreshold: 1000,
	}
}

// RegisterOperation marks an operation as high risk
func (a *Approver) RegisterOperation(operation, description string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.highRisk[operation] = description
}

// RequiresApproval reports whether the operation needs a human and
// why
func (a *Approver) RequiresApproval(operation string, context map[string]any) (bool, string) {
	a.mu.RLock()
	description, ok := a.highRisk[operation]
	a.mu.RUnlock()
	if ok {
		return true, description
	}

	if amount := contextAmount(context); amount > a.AmountThreshold {
		return true, fmt.Sprintf("transaction exceeds $%.0f threshold ($%.0f)", a.AmountThreshold, amount)
	}
	return false, ""
}

// RequestApproval asks for approval. Low-risk operations are
// auto-approved; high-risk ones come back pending for the approval
// workflow to resolve.
func (a *Approver) RequestApproval(operation string, context map[string]any) Approval {
	requires, reason := a.RequiresApproval(operation, context)
	if !requires {
		return Approval{Approved: true, AutoApproved: true}
	}
	return Approval{
		Pending:   true,
		Operation: operation,
		Reason:    reason,
		Context:   context,
		Message:   "this operation requires human approval before execution",
	}
}

func contextAmount(context map[string]any) float64 {
	switch v := context["amount"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

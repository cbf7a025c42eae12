package guardrail

// InputDecision is the pipeline's verdict on incoming content
type InputDecision struct {
	Allowed bool         `json:"allowed"`
	Action  Action       `json:"action"`
	Threats []ThreatType `json:"threats,omitempty"`
	Message string       `json:"message,omitempty"`
}

// OutputDecision is the pipeline's verdict on outgoing content.
// Content carries the sanitized text when redaction happened, the
// original otherwise.
type OutputDecision struct {
	Allowed bool         `json:"allowed"`
	Action  Action       `json:"action"`
	Threats []ThreatType `json:"threats,omitempty"`
	Content string       `json:"content"`
	Message string       `json:"message,omitempty"`
}

// Pipeline chains the input guard, the agent, and the output guard.
// Layered defenses mean one bypass does not compromise the system.
type Pipeline struct {
	Input    *InputGuard
	Output   *OutputGuard
	Approver *Approver
}

// NewPipeline assembles a pipeline from the default rule set
func NewPipeline() *Pipeline {
	return &Pipeline{
		Input:    NewInputGuard(),
		Output:   NewOutputGuard(),
		Approver: NewApprover(),
	}
}

// NewPipelineFromRules assembles a pipeline from a loaded rule set
func NewPipelineFromRules(rules *RuleSet) (*Pipeline, error) {
	input, err := NewInputGuardFromRules(rules)
	if err != nil {
		return nil, err
	}
	output, err := NewOutputGuardFromRules(rules)
	if err != nil {
		return nil, err
	}
	return &Pipeline{Input: input, Output: output, Approver: NewApprover()}, nil
}

// ProcessInput runs incoming content through the input guard.
// Flagged content is still allowed through, for review downstream;
// blocked content is not.
func (p *Pipeline) ProcessInput(content, source string) InputDecision {
	result := p.Input.Check(content, source)
	return InputDecision{
		Allowed: result.Passed || result.Action == Flag,
		Action:  result.Action,
		Threats: result.Threats,
		Message: result.Message,
	}
}

// ProcessOutput runs outgoing content through the output guard
func (p *Pipeline) ProcessOutput(content string) OutputDecision {
	result := p.Output.Check(content)
	decision := OutputDecision{
		Allowed: result.Passed,
		Action:  result.Action,
		Threats: result.Threats,
		Content: content,
		Message: result.Message,
	}
	if result.Modified != "" {
		decision.Content = result.Modified
	}
	return decision
}

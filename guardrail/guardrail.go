// Package guardrail layers input and output filters around the agent.
// No single defense is perfect; inputs are scanned for injection
// before they reach the model, outputs are scanned for leakage before
// they reach users, and high-risk operations wait for a human.
package guardrail

import (
	"fmt"
	"regexp"
	"strings"
)

// ThreatType names a class of threat a guard can detect
type ThreatType string

const (
	PromptInjection  ThreatType = "prompt_injection"
	Jailbreak        ThreatType = "jailbreak"
	PIIExposure      ThreatType = "pii_exposure"
	PolicyViolation  ThreatType = "policy_violation"
	ToxicContent     ThreatType = "toxic_content"
	DataExfiltration ThreatType = "data_exfiltration"
)

// Action is what a guard decides to do with the content
type Action string

const (
	Allow    Action = "allow"
	Block    Action = "block"
	Sanitize Action = "sanitize"
	Flag     Action = "flag"
	Escalate Action = "escalate"
)

// Result is the outcome of one guard check
type Result struct {
	Passed     bool         `json:"passed"`
	Action     Action       `json:"action"`
	Threats    []ThreatType `json:"threats_detected,omitempty"`
	Message    string       `json:"message,omitempty"`
	Modified   string       `json:"modified_content,omitempty"`
	Confidence float64      `json:"confidence"`
}

// Content sources. Injection arriving through a retrieved document is
// indirect injection and treated more severely than user input.
const (
	SourceUser     = "user"
	SourceDocument = "document"
	SourceTool     = "tool"
)

// InputGuard scans content before it enters the agent's context
type InputGuard struct {
	injectionPatterns []*regexp.Regexp
	jailbreakKeywords []string
}

// NewInputGuard creates a guard with the default injection patterns
// and jailbreak keywords
func NewInputGuard() *InputGuard {
	guard, err := NewInputGuardFromRules(DefaultRules())
	if err != nil {
		panic(err)
	}
	return guard
}

// NewInputGuardFromRules creates a guard from a rule set, compiling
// its injection patterns
func NewInputGuardFromRules(rules *RuleSet) (*InputGuard, error) {
	guard := &InputGuard{jailbreakKeywords: rules.JailbreakKeywords}
	for _, pattern := range rules.InjectionPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid injection pattern %q: %w", pattern, err)
		}
		guard.injectionPatterns = append(guard.injectionPatterns, re)
	}
	return guard, nil
}

// Check scans content from the given source for injection and
// jailbreak attempts
func (g *InputGuard) Check(content, source string) Result {
	lower := strings.ToLower(content)

	var threats []ThreatType
	for _, re := range g.injectionPatterns {
		if re.MatchString(lower) {
			threats = append(threats, PromptInjection)
			break
		}
	}
	for _, keyword := range g.jailbreakKeywords {
		if strings.Contains(lower, keyword) {
			threats = append(threats, Jailbreak)
			break
		}
	}

	if len(threats) == 0 {
		return Result{Passed: true, Action: Allow, Confidence: 1.0}
	}

	if source == SourceDocument && containsThreat(threats, PromptInjection) {
		return Result{
			Action:     Block,
			Threats:    threats,
			Message:    "potential indirect prompt injection detected in document",
			Confidence: 0.85,
		}
	}
	return Result{
		Action:     Flag,
		Threats:    threats,
		Message:    "potential prompt injection detected",
		Confidence: 0.75,
	}
}

// piiRule pairs a PII type with its detection pattern. Order matters:
// the phone pattern also matches SSN-shaped digits, so each rule runs
// against the already-redacted text.
type piiRule struct {
	name    string
	pattern *regexp.Regexp
}

// OutputGuard scans content before it reaches users. It is the last
// line of defense against data leakage.
type OutputGuard struct {
	piiRules      []piiRule
	policyPhrases []string
}

// NewOutputGuard creates a guard with the default PII patterns and
// policy phrases
func NewOutputGuard() *OutputGuard {
	guard, err := NewOutputGuardFromRules(DefaultRules())
	if err != nil {
		panic(err)
	}
	return guard
}

// NewOutputGuardFromRules creates a guard from a rule set
func NewOutputGuardFromRules(rules *RuleSet) (*OutputGuard, error) {
	guard := &OutputGuard{policyPhrases: rules.PolicyPhrases}
	for _, rule := range rules.PIIPatterns {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pii pattern %q: %w", rule.Pattern, err)
		}
		guard.piiRules = append(guard.piiRules, piiRule{name: rule.Type, pattern: re})
	}
	return guard, nil
}

// Check scans output for PII and policy violations. PII is redacted
// in place; the sanitized text is returned in Modified.
func (g *OutputGuard) Check(content string) Result {
	modified := content
	var piiFound []string
	for _, rule := range g.piiRules {
		if rule.pattern.MatchString(modified) {
			piiFound = append(piiFound, rule.name)
			replacement := "[REDACTED " + strings.ToUpper(rule.name) + "]"
			modified = rule.pattern.ReplaceAllString(modified, replacement)
		}
	}

	var threats []ThreatType
	if len(piiFound) > 0 {
		threats = append(threats, PIIExposure)
	}

	lower := strings.ToLower(content)
	for _, phrase := range g.policyPhrases {
		if strings.Contains(lower, phrase) {
			threats = append(threats, PolicyViolation)
			break
		}
	}

	if containsThreat(threats, PIIExposure) {
		return Result{
			Passed:     true,
			Action:     Sanitize,
			Threats:    threats,
			Message:    "PII detected and redacted: " + strings.Join(piiFound, ", "),
			Modified:   modified,
			Confidence: 1.0,
		}
	}
	if len(threats) > 0 {
		return Result{
			Action:     Flag,
			Threats:    threats,
			Message:    "policy violation detected",
			Confidence: 1.0,
		}
	}
	return Result{Passed: true, Action: Allow, Confidence: 1.0}
}

func containsThreat(threats []ThreatType, want ThreatType) bool {
	for _, threat := range threats {
		if threat == want {
			return true
		}
	}
	return false
}

package guardrail

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PIIPattern pairs a PII type name with its detection regexp
type PIIPattern struct {
	Type    string `yaml:"type" json:"type"`
	Pattern string `yaml:"pattern" json:"pattern"`
}

// RuleSet holds the patterns and phrases the guards match against.
// Teams tune these per deployment, so they load from YAML alongside
// the rest of the service config.
type RuleSet struct {
	InjectionPatterns []string     `yaml:"injection_patterns" json:"injection_patterns"`
	JailbreakKeywords []string     `yaml:"jailbreak_keywords" json:"jailbreak_keywords"`
	PIIPatterns       []PIIPattern `yaml:"pii_patterns" json:"pii_patterns"`
	PolicyPhrases     []string     `yaml:"policy_phrases" json:"policy_phrases"`
}

// DefaultRules returns the built-in rule set
func DefaultRules() *RuleSet {
	return &RuleSet{
		InjectionPatterns: []string{
			`ignore\s+(all\s+)?previous\s+instructions`,
			`ignore\s+(all\s+)?above`,
			`disregard\s+(all\s+)?previous`,
			`you\s+are\s+now\s+a`,
			`new\s+instructions?:`,
			`forget\s+(all\s+)?your\s+(previous\s+)?instructions`,
			`system\s+prompt`,
			`admin\s+mode`,
		},
		JailbreakKeywords: []string{
			"dan mode",
			"developer mode",
			"unrestricted mode",
			"no limits",
		},
		PIIPatterns: []PIIPattern{
			{Type: "email", Pattern: `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`},
			{Type: "phone", Pattern: `\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`},
			{Type: "ssn", Pattern: `\b\d{3}-?\d{2}-?\d{4}\b`},
			{Type: "credit_card", Pattern: `\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`},
			{Type: "api_key", Pattern: `\b(sk-|api[_-]?key)[a-zA-Z0-9-]{20,}\b`},
		},
		PolicyPhrases: []string{
			"internal use only",
			"confidential",
			"do not share",
		},
	}
}

type rulesFile struct {
	Guardrails RuleSet `yaml:"guardrails"`
}

// LoadRulesFile reads a guardrail rule set from a YAML file. Sections
// missing from the file fall back to the defaults.
func LoadRulesFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	rules := file.Guardrails
	defaults := DefaultRules()
	if len(rules.InjectionPatterns) == 0 {
		rules.InjectionPatterns = defaults.InjectionPatterns
	}
	if len(rules.JailbreakKeywords) == 0 {
		rules.JailbreakKeywords = defaults.JailbreakKeywords
	}
	if len(rules.PIIPatterns) == 0 {
		rules.PIIPatterns = defaults.PIIPatterns
	}
	if len(rules.PolicyPhrases) == 0 {
		rules.PolicyPhrases = defaults.PolicyPhrases
	}
	return &rules, nil
}

// Package govern keeps bad data away from the agent. An agent with
// perfect reasoning still fails when grounded in inaccurate, outdated,
// or duplicated data, so documents are schema-checked, aged out, and
// entity-resolved before retrieval sees them.
package govern

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
)

// QualityDimension is one axis of data quality. A document can be
// accurate but outdated, or complete but inconsistent.
type QualityDimension string

const (
	Accuracy     QualityDimension = "accuracy"
	Completeness QualityDimension = "completeness"
	Consistency  QualityDimension = "consistency"
	Timeliness   QualityDimension = "timeliness"
)

// FreshnessLevel classifies document age against its type's TTL
type FreshnessLevel string

const (
	Fresh   FreshnessLevel = "fresh"
	Aging   FreshnessLevel = "aging"
	Stale   FreshnessLevel = "stale"
	Expired FreshnessLevel = "expired"
)

// ValidationResult is the outcome of a single validation rule
type ValidationResult struct {
	Passed    bool             `json:"passed"`
	Dimension QualityDimension `json:"dimension"`
	Message   string           `json:"message"`
	Severity  string           `json:"severity"`
	FieldPath string           `json:"field_path,omitempty"`
}

// Document is a unit of source data with quality metadata
type Document struct {
	ID      string         `json:"doc_id"`
	Type    string         `json:"doc_type"`
	Source  string         `json:"source"`
	Content string         `json:"content"`
	Fields  map[string]any `json:"fields,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`

	ParentID        string   `json:"parent_doc_id,omitempty"`
	Transformations []string `json:"transformations,omitempty"`
}

// Schema declares what a document type must contain
type Schema struct {
	RequiredFields []string
	// FieldTypes maps field name to "string", "number", or "bool"
	FieldTypes map[string]string
	// Patterns maps field name to a regular expression its string
	// value must match
	Patterns map[string]string
}

// SchemaValidator validates documents against per-type schemas.
// All incoming data should conform before it enters the system.
type SchemaValidator struct {
	mu       sync.RWMutex
	schemas  map[string]Schema
	patterns map[string]map[string]*regexp.Regexp
}

// NewSchemaValidator creates an empty validator
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{
		schemas:  make(map[string]Schema),
		patterns: make(map[string]map[string]*regexp.Regexp),
	}
}

// Register associates a schema with a document type, compiling its
// field patterns
func (v *SchemaValidator) Register(docType string, schema Schema) error {
	compiled := make(map[string]*regexp.Regexp, len(schema.Patterns))
	for field, pattern := range schema.Patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern for field %s: %w", field, err)
		}
		compiled[field] = re
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.schemas[docType] = schema
	v.patterns[docType] = compiled
	return nil
}

// Validate checks a document against the schema for its type and
// returns the failures. An empty slice means the document is valid.
func (v *SchemaValidator) Validate(doc *Document) []ValidationResult {
	v.mu.RLock()
	schema, ok := v.schemas[doc.Type]
	compiled := v.patterns[doc.Type]
	v.mu.RUnlock()

	if !ok {
		return []ValidationResult{{
			Dimension: Accuracy,
			Message:   fmt.Sprintf("no schema registered for type: %s", doc.Type),
			Severity:  "error",
		}}
	}

	var results []ValidationResult
	for _, field := range schema.RequiredFields {
		if _, present := doc.Fields[field]; !present {
			results = append(results, ValidationResult{
				Dimension: Completeness,
				Message:   fmt.Sprintf("missing required field: %s", field),
				Severity:  "error",
				FieldPath: field,
			})
		}
	}

	for field, wantType := range schema.FieldTypes {
		value, present := doc.Fields[field]
		if !present {
			continue
		}
		if !matchesFieldType(value, wantType) {
			results = append(results, ValidationResult{
				Dimension: Accuracy,
				Message:   fmt.Sprintf("field %s is not of type %s", field, wantType),
				Severity:  "error",
				FieldPath: field,
			})
		}
	}

	for field, re := range compiled {
		value, present := doc.Fields[field]
		if !present {
			continue
		}
		text, isString := value.(string)
		if !isString || !re.MatchString(text) {
			results = append(results, ValidationResult{
				Dimension: Accuracy,
				Message:   fmt.Sprintf("field %s does not match pattern %s", field, re.String()),
				Severity:  "error",
				FieldPath: field,
			})
		}
	}
	return results
}

func matchesFieldType(value any, wantType string) bool {
	switch wantType {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		switch value.(type) {
		case int, int64, float64:
			return true
		}
		return false
	case "bool":
		_, ok := value.(bool)
		return ok
	default:
		return true
	}
}

// FreshnessTracker classifies documents by age. A pricing sheet from
// last week and a news item from last week are not equally usable.
type FreshnessTracker struct {
	mu   sync.RWMutex
	ttls map[string]time.Duration

	now func() time.Time
}

// NewFreshnessTracker creates a tracker with default per-type TTLs
func NewFreshnessTracker() *FreshnessTracker {
	return &FreshnessTracker{
		ttls: map[string]time.Duration{
			"policy":      30 * 24 * time.Hour,
			"faq":         7 * 24 * time.Hour,
			"pricing":     24 * time.Hour,
			"news":        time.Hour,
			"stock_quote": time.Minute,
		},
		now: time.Now,
	}
}

// SetTTL overrides the maximum age for a document type
func (f *FreshnessTracker) SetTTL(docType string, ttl time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttls[docType] = ttl
}

// Check classifies a document's freshness from its age and type.
// An explicit ValidUntil in the past always means expired.
func (f *FreshnessTracker) Check(doc *Document) FreshnessLevel {
	now := f.now()
	if doc.ValidUntil != nil && now.After(*doc.ValidUntil) {
		return Expired
	}

	f.mu.RLock()
	ttl, ok := f.ttls[doc.Type]
	f.mu.RUnlock()
	if !ok {
		ttl = 7 * 24 * time.Hour
	}

	age := now.Sub(doc.UpdatedAt)
	switch {
	case age < time.Duration(float64(ttl)*0.5):
		return Fresh
	case age < time.Duration(float64(ttl)*0.9):
		return Aging
	case age < ttl:
		return Stale
	default:
		return Expired
	}
}

// ShouldRefresh reports whether the document needs refetching from its
// source
func (f *FreshnessTracker) ShouldRefresh(doc *Document) bool {
	level := f.Check(doc)
	return level == Stale || level == Expired
}

// EntityResolver maps variant entity names to canonical forms.
// Enterprise data writes the same company as IBM, International
// Business Machines, IBM Corp., and I.B.M.
type EntityResolver struct {
	mu        sync.RWMutex
	canonical map[string]string
}

// NewEntityResolver creates an empty resolver
func NewEntityResolver() *EntityResolver {
	return &EntityResolver{canonical: make(map[string]string)}
}

// Register maps a canonical name and its aliases, case-insensitively
func (r *EntityResolver) Register(canonical string, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.canonical[strings.ToLower(canonical)] = canonical
	for _, alias := range aliases {
		r.canonical[strings.ToLower(alias)] = canonical
	}
}

// Resolve returns the canonical form of an entity, or the input
// unchanged when unknown
func (r *EntityResolver) Resolve(entity string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if canonical, ok := r.canonical[strings.ToLower(entity)]; ok {
		return canonical
	}
	return entity
}

// SameEntity reports whether two strings refer to the same entity
func (r *EntityResolver) SameEntity(a, b string) bool {
	return r.Resolve(a) == r.Resolve(b)
}

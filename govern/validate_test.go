package govern

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchemaValidator(t *testing.T) {
	validator := NewSchemaValidator()
	err := validator.Register("policy", Schema{
		RequiredFields: []string{"title", "effective_date", "version"},
		FieldTypes:     map[string]string{"title": "string"},
		Patterns:       map[string]string{"version": `^\d+\.\d+$`},
	})
	assert.NoError(t, err)

	t.Run("valid document passes", func(t *testing.T) {
		doc := &Document{
			ID:   "doc-001",
			Type: "policy",
			Fields: map[string]any{
				"title":          "Return Policy",
				"effective_date": "2026-01-01",
				"version":        "2.3",
			},
		}
		assert.Empty(t, validator.Validate(doc))
	})

	t.Run("missing fields reported per field", func(t *testing.T) {
		doc := &Document{ID: "doc-002", Type: "policy", Fields: map[string]any{"title": "Return Policy"}}
		results := validator.Validate(doc)
		assert.Len(t, results, 2)
		for _, result := range results {
			assert.Equal(t, Completeness, result.Dimension)
			assert.NotEmpty(t, result.FieldPath)
		}
	})

	t.Run("pattern violation", func(t *testing.T) {
		doc := &Document{
			ID:   "doc-003",
			Type: "policy",
			Fields: map[string]any{
				"title":          "Return Policy",
				"effective_date": "2026-01-01",
				"version":        "v2",
			},
		}
		results := validator.Validate(doc)
		assert.Len(t, results, 1)
		assert.Equal(t, Accuracy, results[0].Dimension)
		assert.Equal(t, "version", results[0].FieldPath)
	})

	t.Run("wrong field type", func(t *testing.T) {
		doc := &Document{
			ID:   "doc-004",
			Type: "policy",
			Fields: map[string]any{
				"title":          42,
				"effective_date": "2026-01-01",
				"version":        "2.3",
			},
		}
		results := validator.Validate(doc)
		assert.Len(t, results, 1)
		assert.Contains(t, results[0].Message, "not of type string")
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		doc := &Document{ID: "doc-005", Type: "memo"}
		results := validator.Validate(doc)
		assert.Len(t, results, 1)
		assert.Contains(t, results[0].Message, "no schema registered")
	})

	t.Run("invalid pattern rejected at registration", func(t *testing.T) {
		err := validator.Register("faq", Schema{Patterns: map[string]string{"q": "(["}})
		assert.Error(t, err)
	})
}

func TestFreshnessTracker(t *testing.T) {
	tracker := NewFreshnessTracker()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return now }

	faqDoc := func(age time.Duration) *Document {
		return &Document{ID: "faq-1", Type: "faq", UpdatedAt: now.Add(-age)}
	}

	t.Run("classification by age", func(t *testing.T) {
		// faq TTL is 7 days
		assert.Equal(t, Fresh, tracker.Check(faqDoc(12*time.Hour)))
		assert.Equal(t, Aging, tracker.Check(faqDoc(4*24*time.Hour)))
		assert.Equal(t, Stale, tracker.Check(faqDoc(6*24*time.Hour+20*time.Hour)))
		assert.Equal(t, Expired, tracker.Check(faqDoc(10*24*time.Hour)))
	})

	t.Run("explicit expiration wins", func(t *testing.T) {
		expiry := now.Add(-time.Minute)
		doc := &Document{ID: "p-1", Type: "policy", UpdatedAt: now, ValidUntil: &expiry}
		assert.Equal(t, Expired, tracker.Check(doc))
	})

	t.Run("unknown type defaults to seven days", func(t *testing.T) {
		doc := &Document{ID: "m-1", Type: "memo", UpdatedAt: now.Add(-24 * time.Hour)}
		assert.Equal(t, Fresh, tracker.Check(doc))
	})

	t.Run("should refresh", func(t *testing.T) {
		assert.False(t, tracker.ShouldRefresh(faqDoc(time.Hour)))
		assert.True(t, tracker.ShouldRefresh(faqDoc(6*24*time.Hour+20*time.Hour)))
		assert.True(t, tracker.ShouldRefresh(faqDoc(30*24*time.Hour)))
	})

	t.Run("ttl override", func(t *testing.T) {
		tracker.SetTTL("faq", time.Hour)
		assert.Equal(t, Expired, tracker.Check(faqDoc(2*time.Hour)))
	})
}

func TestEntityResolver(t *testing.T) {
	resolver := NewEntityResolver()
	resolver.Register("IBM",
		"International Business Machines",
		"IBM Corp.",
		"I.B.M.")

	t.Run("resolves aliases case-insensitively", func(t *testing.T) {
		assert.Equal(t, "IBM", resolver.Resolve("international business machines"))
		assert.Equal(t, "IBM", resolver.Resolve("I.B.M."))
		assert.Equal(t, "IBM", resolver.Resolve("ibm"))
	})

	t.Run("unknown entities pass through", func(t *testing.T) {
		assert.Equal(t, "Apple", resolver.Resolve("Apple"))
	})

	t.Run("same entity", func(t *testing.T) {
		assert.True(t, resolver.SameEntity("IBM", "I.B.M."))
		assert.False(t, resolver.SameEntity("IBM", "Apple"))
	})
}

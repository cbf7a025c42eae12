package govern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func policySources() []Source {
	return []Source{
		{
			ID:      "policy-001",
			Title:   "Return Policy v2.3",
			Section: "Section 4.1",
			Content: "Items may be returned within 30 days of purchase for a full refund. " +
				"Original packaging and receipt are required. Electronics have a " +
				"15-day return window.",
		},
		{
			ID:      "faq-001",
			Title:   "Customer FAQ",
			Section: "Returns",
			Content: "Customers can return most items within 30 days. Sale items are " +
				"final sale and cannot be returned.",
		},
	}
}

func TestGroundingChecker(t *testing.T) {
	checker := NewGroundingChecker(0.7)
	sources := policySources()

	t.Run("supported claim is grounded with citations", func(t *testing.T) {
		grounded, citations, confidence := checker.CheckClaim(
			"Electronics have a 15-day return window.", sources)
		assert.True(t, grounded)
		assert.InDelta(t, 1.0, confidence, 1e-9)
		assert.NotEmpty(t, citations)
		assert.Equal(t, "policy-001", citations[0].SourceID)
		assert.Contains(t, citations[0].Quote, "...")
	})

	t.Run("unsupported claim stays ungrounded", func(t *testing.T) {
		grounded, _, confidence := checker.CheckClaim(
			"You can return items after 60 days with manager approval.", sources)
		assert.False(t, grounded)
		assert.Less(t, confidence, checker.Strictness)
	})

	t.Run("empty claim", func(t *testing.T) {
		grounded, citations, confidence := checker.CheckClaim("", sources)
		assert.False(t, grounded)
		assert.Nil(t, citations)
		assert.Zero(t, confidence)
	})
}

func TestGenerateResponse(t *testing.T) {
	checker := NewGroundingChecker(0.7)
	response := checker.GenerateResponse(
		"Items can be returned within 30 days. Electronics have a 15-day window.",
		[]string{
			"You can return items within 30 days for a full refund.",
			"Electronics have a 15-day return window.",
			"You can return items after 60 days with manager approval.",
		},
		policySources())

	assert.Len(t, response.Claims, 3)
	assert.Len(t, response.UngroundedClaims, 1)
	assert.Contains(t, response.UngroundedClaims[0], "manager approval")
	assert.InDelta(t, 2.0/3.0, response.Coverage, 1e-9)
	assert.Greater(t, response.OverallConfidence, 0.6)
	assert.Equal(t, ConfidenceMedium, response.Level)
	assert.False(t, response.InsufficientInfo)
}

func TestConfidenceGate(t *testing.T) {
	gate := NewConfidenceGate()

	t.Run("high confidence responds unmodified", func(t *testing.T) {
		decision := gate.Apply(&GroundedResponse{
			Response:          "The return window is 30 days.",
			OverallConfidence: 0.95,
		})
		assert.Equal(t, ActionRespond, decision.Action)
		assert.False(t, decision.AddCaveats)
		assert.Equal(t, "The return window is 30 days.", decision.Response)
	})

	t.Run("medium confidence adds caveats", func(t *testing.T) {
		decision := gate.Apply(&GroundedResponse{
			Response:          "The return window is 30 days.",
			OverallConfidence: 0.7,
		})
		assert.Equal(t, ActionRespond, decision.Action)
		assert.True(t, decision.AddCaveats)
		assert.Contains(t, decision.Response, "Based on the available information")
		assert.NotEmpty(t, decision.Caveats)
	})

	t.Run("low confidence escalates", func(t *testing.T) {
		decision := gate.Apply(&GroundedResponse{OverallConfidence: 0.4})
		assert.Equal(t, ActionEscalate, decision.Action)
		assert.NotEmpty(t, decision.Reason)
	})

	t.Run("very low confidence refuses", func(t *testing.T) {
		decision := gate.Apply(&GroundedResponse{OverallConfidence: 0.1})
		assert.Equal(t, ActionRefuse, decision.Action)
		assert.Contains(t, decision.Response, "don't have enough information")
	})
}

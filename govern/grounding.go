package govern

import (
	"strings"
	"time"
)

// ConfidenceLevel buckets a response's overall grounding confidence.
// Express uncertainty rather than hallucinate.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// Source is a retrieved document a claim can be checked against
type Source struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Section string `json:"section,omitempty"`
	Content string `json:"content"`
}

// Citation links a claim to the source that supports it
type Citation struct {
	SourceID    string     `json:"source_id"`
	SourceTitle string     `json:"source_title"`
	Section     string     `json:"section,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	Quote       string     `json:"quote,omitempty"`
}

// GroundedClaim is a claim with its supporting citations. A claim
// without citations is a potential hallucination.
type GroundedClaim struct {
	Claim      string     `json:"claim_text"`
	Citations  []Citation `json:"citations"`
	Confidence float64    `json:"confidence"`
	Grounded   bool       `json:"grounded"`
}

// GroundedResponse is a response with per-claim grounding metadata
type GroundedResponse struct {
	Response          string          `json:"response_text"`
	Claims            []GroundedClaim `json:"claims"`
	OverallConfidence float64         `json:"overall_confidence"`
	Level             ConfidenceLevel `json:"confidence_level"`
	Coverage          float64         `json:"coverage"`
	UngroundedClaims  []string        `json:"ungrounded_claims,omitempty"`
	InsufficientInfo  bool            `json:"insufficient_info"`
}

// GroundingChecker verifies that claims are supported by sources.
// The lexical overlap check stands in for an LLM verifier; the shapes
// it produces are what the rest of the pipeline consumes.
type GroundingChecker struct {
	// Strictness is the minimum support a claim needs to count as
	// grounded, 0 to 1
	Strictness float64
}

// NewGroundingChecker creates a checker with the given strictness
// (default 0.7)
func NewGroundingChecker(strictness float64) *GroundingChecker {
	if strictness <= 0 {
		strictness = 0.7
	}
	return &GroundingChecker{Strictness: strictness}
}

// CheckClaim looks for support of a claim in the sources. It returns
// whether the claim is grounded, the citations found, and the best
// support confidence.
func (c *GroundingChecker) CheckClaim(claim string, sources []Source) (bool, []Citation, float64) {
	claimWords := strings.Fields(strings.ToLower(claim))
	if len(claimWords) == 0 {
		return false, nil, 0
	}

	var citations []Citation
	var confidence float64
	for _, source := range sources {
		content := strings.ToLower(source.Content)
		overlap := 0
		for _, word := range claimWords {
			if strings.Contains(content, word) {
				overlap++
			}
		}
		support := float64(overlap) / float64(len(claimWords))
		if support <= 0.3 {
			continue
		}

		quote := source.Content
		if len(quote) > 100 {
			quote = quote[:100] + "..."
		}
		citations = append(citations, Citation{
			SourceID:    source.ID,
			SourceTitle: source.Title,
			Section:     source.Section,
			Quote:       quote,
		})
		if support > confidence {
			confidence = support
		}
	}

	grounded := confidence >= c.Strictness && len(citations) > 0
	return grounded, citations, confidence
}

// GenerateResponse checks every claim and assembles the grounding
// metadata for a response
func (c *GroundingChecker) GenerateResponse(responseText string, claims []string, sources []Source) *GroundedResponse {
	response := &GroundedResponse{Response: responseText}

	groundedCount := 0
	var total float64
	for _, claim := range claims {
		grounded, citations, confidence := c.CheckClaim(claim, sources)
		response.Claims = append(response.Claims, GroundedClaim{
			Claim:      claim,
			Citations:  citations,
			Confidence: confidence,
			Grounded:   grounded,
		})
		total += confidence
		if grounded {
			groundedCount++
		} else {
			response.UngroundedClaims = append(response.UngroundedClaims, claim)
		}
	}

	if len(response.Claims) > 0 {
		response.OverallConfidence = total / float64(len(response.Claims))
		response.Coverage = float64(groundedCount) / float64(len(response.Claims))
	}

	switch {
	case response.OverallConfidence >= 0.9:
		response.Level = ConfidenceHigh
	case response.OverallConfidence >= 0.6:
		response.Level = ConfidenceMedium
	default:
		response.Level = ConfidenceLow
	}
	response.InsufficientInfo = response.OverallConfidence < 0.3
	return response
}

// GateAction says what to do with a response at its confidence level
type GateAction string

const (
	ActionRespond  GateAction = "respond"
	ActionEscalate GateAction = "escalate"
	ActionRefuse   GateAction = "refuse"
)

// GateDecision is the outcome of applying a confidence gate
type GateDecision struct {
	Action     GateAction `json:"action"`
	AddCaveats bool       `json:"add_caveats"`
	Response   string     `json:"response"`
	Reason     string     `json:"reason,omitempty"`
	Caveats    []string   `json:"caveats,omitempty"`
}

// ConfidenceGate decides whether a response is delivered as-is,
// caveated, escalated, or refused. Confident-sounding nonsense is
// worse than admitting uncertainty.
type ConfidenceGate struct {
	HighThreshold   float64
	MediumThreshold float64
	RefuseThreshold float64
}

// NewConfidenceGate creates a gate with the default thresholds
// (0.9 / 0.6 / 0.3)
func NewConfidenceGate() *ConfidenceGate {
	return &ConfidenceGate{
		HighThreshold:   0.9,
		MediumThreshold: 0.6,
		RefuseThreshold: 0.3,
	}
}

// Apply gates a grounded response on its overall confidence
func (g *ConfidenceGate) Apply(response *GroundedResponse) GateDecision {
	confidence := response.OverallConfidence
	switch {
	case confidence >= g.HighThreshold:
		return GateDecision{
			Action:   ActionRespond,
			Response: response.Response,
		}
	case confidence >= g.MediumThreshold:
		return GateDecision{
			Action:     ActionRespond,
			AddCaveats: true,
			Response: "Based on the available information, " + response.Response +
				" Please note that this information may be subject to change.",
			Caveats: []string{
				"Based on available information",
				"Please verify with official sources",
			},
		}
	case confidence >= g.RefuseThreshold:
		return GateDecision{
			Action: ActionEscalate,
			Reason: "low confidence, human review needed",
			Response: "I'm not confident enough to answer this accurately. " +
				"Let me connect you with a human expert.",
		}
	default:
		return GateDecision{
			Action:   ActionRefuse,
			Reason:   "insufficient information",
			Response: "I don't have enough information to answer this question reliably.",
		}
	}
}

// Package quality scores agent responses along semantic dimensions
// and tracks them over time. Latency and error rate do not say
// whether the answers were good; groundedness, relevance, coherence,
// and helpfulness do.
package quality

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Dimension is one axis of response quality. An answer can be
// accurate but irrelevant, or relevant but hallucinated.
type Dimension string

const (
	Groundedness Dimension = "groundedness"
	Relevance    Dimension = "relevance"
	Coherence    Dimension = "coherence"
	Completeness Dimension = "completeness"
	Safety       Dimension = "safety"
	Helpfulness  Dimension = "helpfulness"
)

// Score rates one dimension on a 0 to 1 scale. Below 0.3 is failing,
// above 0.8 is excellent.
type Score struct {
	Dimension   Dimension `json:"dimension"`
	Score       float64   `json:"score"`
	Confidence  float64   `json:"confidence"`
	Explanation string    `json:"explanation,omitempty"`
	Evidence    []string  `json:"evidence,omitempty"`
}

// Evaluation is a complete quality assessment of one response
type Evaluation struct {
	ID        string    `json:"evaluation_id"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`

	Query    string `json:"user_query"`
	Response string `json:"agent_response"`
	Context  string `json:"retrieved_context,omitempty"`

	Scores         map[Dimension]Score `json:"scores"`
	OverallScore   float64             `json:"overall_score"`
	EvaluatorModel string              `json:"evaluator_model,omitempty"`
}

// CalculateOverall computes the weighted average of the dimension
// scores and stores it as OverallScore. Nil weights mean equal
// weighting. Use-case weights differ: medical systems weight
// groundedness, creative ones weight helpfulness.
func (e *Evaluation) CalculateOverall(weights map[Dimension]float64) float64 {
	if len(e.Scores) == 0 {
		return 0
	}

	var totalWeight, weightedSum float64
	for dimension, score := range e.Scores {
		weight := 1.0
		if weights != nil {
			weight = weights[dimension]
		}
		totalWeight += weight
		weightedSum += score.Score * weight
	}
	if totalWeight == 0 {
		return 0
	}

	e.OverallScore = weightedSum / totalWeight
	return e.OverallScore
}

// PassesGate checks every threshold against the evaluation's scores
// and returns whether all pass plus the failures
func (e *Evaluation) PassesGate(thresholds map[Dimension]float64) (bool, []string) {
	var failures []string
	for dimension, threshold := range thresholds {
		score, ok := e.Scores[dimension]
		if !ok {
			continue
		}
		if score.Score < threshold {
			failures = append(failures, fmt.Sprintf("%s: %.2f < %.2f", dimension, score.Score, threshold))
		}
	}
	return len(failures) == 0, failures
}

// Judge evaluates a response given its query and retrieved context
type Judge interface {
	Evaluate(query, response, context string) *Evaluation
}

// HeuristicJudge scores responses with lexical heuristics. Production
// systems replace it with an LLM judge behind the same interface; the
// heuristics keep evaluation deterministic and dependency free.
type HeuristicJudge struct {
	// Model is recorded on evaluations for attribution
	Model string
}

var _ Judge = (*HeuristicJudge)(nil)

// NewHeuristicJudge creates a judge
func NewHeuristicJudge() *HeuristicJudge {
	return &HeuristicJudge{Model: "heuristic-v1"}
}

// Evaluate scores the response on groundedness, relevance, coherence,
// and helpfulness, and computes the overall score
func (j *HeuristicJudge) Evaluate(query, response, context string) *Evaluation {
	evaluation := &Evaluation{
		ID:             "eval-" + uuid.NewString()[:8],
		RequestID:      "req-" + uuid.NewString()[:8],
		Timestamp:      time.Now(),
		Query:          query,
		Response:       response,
		Context:        context,
		Scores:         make(map[Dimension]Score),
		EvaluatorModel: j.Model,
	}

	evaluation.Scores[Groundedness] = j.groundedness(response, context)
	evaluation.Scores[Relevance] = j.relevance(query, response)
	evaluation.Scores[Coherence] = j.coherence(response)
	evaluation.Scores[Helpfulness] = j.helpfulness(response)

	evaluation.CalculateOverall(nil)
	return evaluation
}

func (j *HeuristicJudge) groundedness(response, context string) Score {
	if strings.TrimSpace(context) == "" {
		return Score{
			Dimension:   Groundedness,
			Score:       0.5,
			Confidence:  0.3,
			Explanation: "no retrieved context to check claims against",
		}
	}

	contextWords := wordSet(context)
	responseWords := contentWords(response)
	if len(responseWords) == 0 {
		return Score{Dimension: Groundedness, Score: 0, Confidence: 1, Explanation: "empty response"}
	}

	supported := 0
	for _, word := range responseWords {
		if contextWords[word] {
			supported++
		}
	}
	ratio := float64(supported) / float64(len(responseWords))
	return Score{
		Dimension:   Groundedness,
		Score:       ratio,
		Confidence:  0.7,
		Explanation: fmt.Sprintf("%d of %d content words supported by context", supported, len(responseWords)),
	}
}

func (j *HeuristicJudge) relevance(query, response string) Score {
	queryWords := contentWords(query)
	if len(queryWords) == 0 {
		return Score{Dimension: Relevance, Score: 0.5, Confidence: 0.3, Explanation: "query has no content words"}
	}

	responseWords := wordSet(response)
	covered := 0
	for _, word := range queryWords {
		if responseWords[word] {
			covered++
		}
	}
	ratio := float64(covered) / float64(len(queryWords))
	return Score{
		Dimension:   Relevance,
		Score:       ratio,
		Confidence:  0.7,
		Explanation: fmt.Sprintf("%d of %d query terms addressed", covered, len(queryWords)),
	}
}

func (j *HeuristicJudge) coherence(response string) Score {
	words := strings.Fields(response)
	score := 0.4
	explanation := "response too short to judge structure"
	if len(words) >= 5 {
		score = 0.9
		explanation = "response is structured prose"
	}
	return Score{Dimension: Coherence, Score: score, Confidence: 0.5, Explanation: explanation}
}

func (j *HeuristicJudge) helpfulness(response string) Score {
	words := strings.Fields(response)
	switch {
	case len(words) == 0:
		return Score{Dimension: Helpfulness, Score: 0, Confidence: 1, Explanation: "empty response"}
	case len(words) < 10:
		return Score{Dimension: Helpfulness, Score: 0.5, Confidence: 0.5, Explanation: "very brief response"}
	default:
		return Score{Dimension: Helpfulness, Score: 0.8, Confidence: 0.5, Explanation: "substantive response"}
	}
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		set[strings.Trim(word, ".,!?'\"")] = true
	}
	return set
}

// contentWords keeps words long enough to carry meaning
func contentWords(text string) []string {
	var words []string
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?'\"")
		if len(word) > 3 {
			words = append(words, word)
		}
	}
	return words
}

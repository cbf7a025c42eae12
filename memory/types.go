package memory

import (
	"time"
)

// Tier identifies which memory tier an item belongs to
type Tier string

const (
	// TierEpisodic stores user-specific interaction history
	TierEpisodic Tier = "episodic"
	// TierSemantic stores general knowledge retrieved by similarity
	TierSemantic Tier = "semantic"
	// TierProcedural stores how-to knowledge ranked by past success
	TierProcedural Tier = "procedural"
)

// Item is a single memory entry
type Item struct {
	ID        string         `json:"id"`
	Tier      Tier           `json:"tier"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Embedding []float32      `json:"embedding,omitempty"`
	Timestamp time.Time      `json:"timestamp"`

	// Episodic fields
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`

	// Procedural fields
	SuccessRate float64 `json:"success_rate,omitempty"`
	UseCount    int     `json:"use_count,omitempty"`
}

// RetrievalResult is a scored item returned by a retriever
type RetrievalResult struct {
	Item   Item    `json:"item"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
	Rank   int     `json:"rank"`
}

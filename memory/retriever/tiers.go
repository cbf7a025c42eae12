package retriever

import (
	"context"
	"sort"

	"github.com/smallnest/agentcore/memory"
)

// EpisodicRetriever retrieves a user's interaction history, most recent
// first. It answers "what happened to this user before".
type EpisodicRetriever struct {
	bank *Bank
}

// NewEpisodicRetriever creates an episodic retriever over a memory bank
func NewEpisodicRetriever(bank *Bank) *EpisodicRetriever {
	return &EpisodicRetriever{bank: bank}
}

// Retrieve returns up to limit memories for the user, sorted by
// timestamp descending. A non-empty sessionID restricts results to that
// session. Scores decay with rank as 1/rank.
func (r *EpisodicRetriever) Retrieve(ctx context.Context, userID, sessionID string, limit int) ([]memory.RetrievalResult, error) {
	items := r.bank.ByUser(ctx, userID)

	filtered := make([]memory.Item, 0, len(items))
	for _, item := range items {
		if sessionID != "" && item.SessionID != sessionID {
			continue
		}
		if item.Timestamp.IsZero() {
			continue
		}
		filtered = append(filtered, item)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.After(filtered[j].Timestamp)
	})

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}

	results := make([]memory.RetrievalResult, len(filtered))
	for i, item := range filtered {
		results[i] = memory.RetrievalResult{
			Item:   item,
			Score:  1.0 / float64(i+1),
			Source: "episodic",
			Rank:   i + 1,
		}
	}
	return results, nil
}

// ProceduralRetriever retrieves proven solution patterns for a task
// type, best performing first
type ProceduralRetriever struct {
	bank *Bank
}

// NewProceduralRetriever creates a procedural retriever over a memory bank
func NewProceduralRetriever(bank *Bank) *ProceduralRetriever {
	return &ProceduralRetriever{bank: bank}
}

// Retrieve returns up to limit procedural memories whose "task_type"
// metadata matches, ordered by success rate then use count descending.
// The score is the item's success rate, defaulting to 0.5 when unset.
func (r *ProceduralRetriever) Retrieve(ctx context.Context, taskType string, limit int) ([]memory.RetrievalResult, error) {
	items := r.bank.ByTier(ctx, memory.TierProcedural)

	relevant := make([]memory.Item, 0, len(items))
	for _, item := range items {
		if item.Metadata["task_type"] == taskType {
			relevant = append(relevant, item)
		}
	}

	sort.SliceStable(relevant, func(i, j int) bool {
		if relevant[i].SuccessRate != relevant[j].SuccessRate {
			return relevant[i].SuccessRate > relevant[j].SuccessRate
		}
		return relevant[i].UseCount > relevant[j].UseCount
	})

	if limit > 0 && len(relevant) > limit {
		relevant = relevant[:limit]
	}

	results := make([]memory.RetrievalResult, len(relevant))
	for i, item := range relevant {
		score := item.SuccessRate
		if score == 0 {
			score = 0.5
		}
		results[i] = memory.RetrievalResult{
			Item:   item,
			Score:  score,
			Source: "procedural",
			Rank:   i + 1,
		}
	}
	return results, nil
}

// EntityRetriever retrieves memories mentioning a specific entity.
// This is the graph-flavored component of hybrid retrieval.
type EntityRetriever struct {
	bank *Bank
}

// NewEntityRetriever creates an entity retriever over a memory bank
func NewEntityRetriever(bank *Bank) *EntityRetriever {
	return &EntityRetriever{bank: bank}
}

// Retrieve returns up to limit memories indexed under the entity, in
// insertion order with rank-decayed scores
func (r *EntityRetriever) Retrieve(ctx context.Context, entity string, limit int) ([]memory.RetrievalResult, error) {
	items := r.bank.ByEntity(ctx, entity)

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	results := make([]memory.RetrievalResult, len(items))
	for i, item := range items {
		results[i] = memory.RetrievalResult{
			Item:   item,
			Score:  1.0 / float64(i+1),
			Source: "graph_entity",
			Rank:   i + 1,
		}
	}
	return results, nil
}

package retriever

import (
	"context"
	"fmt"

	"github.com/smallnest/agentcore/memory"
	"github.com/smallnest/agentcore/memory/store"
)

// Config controls a single retrieval pass
type Config struct {
	// K is the maximum number of results to return (default 10)
	K int
	// ScoreThreshold drops results scoring below it when > 0
	ScoreThreshold float64
	// Filter restricts results to items whose metadata matches every key
	Filter map[string]any
}

// DefaultConfig returns the default retrieval configuration
func DefaultConfig() Config {
	return Config{K: 10}
}

// VectorRetriever retrieves semantic memories by embedding the query and
// running cosine similarity search against a vector store
type VectorRetriever struct {
	store    *store.VectorStore
	embedder memory.Embedder
	config   Config
}

// NewVectorRetriever creates a vector retriever with default config.
// The embedder may be nil, in which case queries cannot be embedded and
// retrieval fails.
func NewVectorRetriever(s *store.VectorStore) *VectorRetriever {
	return NewVectorRetrieverWithConfig(s, memory.NewHashEmbedder(256), DefaultConfig())
}

// NewVectorRetrieverWithConfig creates a vector retriever with an
// explicit embedder and config
func NewVectorRetrieverWithConfig(s *store.VectorStore, embedder memory.Embedder, config Config) *VectorRetriever {
	if config.K <= 0 {
		config.K = 10
	}
	return &VectorRetriever{
		store:    s,
		embedder: embedder,
		config:   config,
	}
}

// Retrieve embeds the query and returns the top matches as ranked
// retrieval results with source "semantic_vector"
func (r *VectorRetriever) Retrieve(ctx context.Context, query string, limit int) ([]memory.RetrievalResult, error) {
	if r.embedder == nil {
		return nil, fmt.Errorf("no embedder configured")
	}
	if limit <= 0 {
		limit = r.config.K
	}

	queryEmbedding, err := r.embedder.EmbedDocument(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := r.store.SearchWithFilter(ctx, queryEmbedding, limit, r.config.Filter)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := make([]memory.RetrievalResult, 0, len(matches))
	for _, match := range matches {
		if r.config.ScoreThreshold > 0 && match.Score < r.config.ScoreThreshold {
			continue
		}
		results = append(results, memory.RetrievalResult{
			Item:   match.Item,
			Score:  match.Score,
			Source: "semantic_vector",
			Rank:   len(results) + 1,
		})
	}
	return results, nil
}

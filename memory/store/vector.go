package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/smallnest/agentcore/memory"
)

// SearchResult is a scored item returned by a vector search
type SearchResult struct {
	Item  memory.Item
	Score float64
}

// Stats describes the current contents of a vector store
type Stats struct {
	TotalItems  int
	Dimension   int
	LastUpdated time.Time
}

// VectorStore is an in-memory vector store over memory items.
// It is safe for concurrent use.
type VectorStore struct {
	mu         sync.RWMutex
	items      []memory.Item
	embeddings [][]float32
	embedder   memory.Embedder
}

// NewVectorStore creates a vector store. The embedder is used to embed
// items added without an explicit embedding; it may be nil if all items
// carry embeddings.
func NewVectorStore(embedder memory.Embedder) *VectorStore {
	return &VectorStore{
		items:      make([]memory.Item, 0),
		embeddings: make([][]float32, 0),
		embedder:   embedder,
	}
}

// Add adds items to the store, embedding content for items without an
// embedding
func (s *VectorStore) Add(ctx context.Context, items ...memory.Item) error {
	for _, item := range items {
		embedding := item.Embedding
		if len(embedding) == 0 {
			if s.embedder == nil {
				return fmt.Errorf("no embedder configured and item %s has no embedding", item.ID)
			}
			var err error
			embedding, err = s.embedder.EmbedDocument(ctx, item.Content)
			if err != nil {
				return fmt.Errorf("failed to embed item %s: %w", item.ID, err)
			}
		}

		s.mu.Lock()
		s.items = append(s.items, item)
		s.embeddings = append(s.embeddings, embedding)
		s.mu.Unlock()
	}
	return nil
}

// AddBatch adds items with explicit embeddings
func (s *VectorStore) AddBatch(ctx context.Context, items []memory.Item, embeddings [][]float32) error {
	if len(items) != len(embeddings) {
		return fmt.Errorf("items and embeddings must have same length")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, items...)
	s.embeddings = append(s.embeddings, embeddings...)
	return nil
}

// Search returns the k items most similar to the query embedding,
// ordered by cosine similarity descending
func (s *VectorStore) Search(ctx context.Context, queryEmbedding []float32, k int) ([]SearchResult, error) {
	return s.SearchWithFilter(ctx, queryEmbedding, k, nil)
}

// SearchWithFilter performs similarity search restricted to items whose
// metadata matches every key in the filter
func (s *VectorStore) SearchWithFilter(ctx context.Context, queryEmbedding []float32, k int, filter map[string]any) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]SearchResult, 0, len(s.items))
	for i, item := range s.items {
		if !matchesFilter(item, filter) {
			continue
		}
		results = append(results, SearchResult{
			Item:  item,
			Score: CosineSimilarity(queryEmbedding, s.embeddings[i]),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Delete removes items by ID
func (s *VectorStore) Delete(ctx context.Context, ids ...string) error {
	idMap := make(map[string]bool, len(ids))
	for _, id := range ids {
		idMap[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var newItems []memory.Item
	var newEmbeddings [][]float32
	for i, item := range s.items {
		if !idMap[item.ID] {
			newItems = append(newItems, item)
			newEmbeddings = append(newEmbeddings, s.embeddings[i])
		}
	}

	s.items = newItems
	s.embeddings = newEmbeddings
	return nil
}

// Update replaces an existing item, re-embedding when the item carries no
// embedding. Unknown IDs are an error.
func (s *VectorStore) Update(ctx context.Context, item memory.Item) error {
	embedding := item.Embedding
	if len(embedding) == 0 {
		if s.embedder == nil {
			return fmt.Errorf("no embedder configured and item %s has no embedding", item.ID)
		}
		var err error
		embedding, err = s.embedder.EmbedDocument(ctx, item.Content)
		if err != nil {
			return fmt.Errorf("failed to embed item %s: %w", item.ID, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.items {
		if existing.ID == item.ID {
			s.items[i] = item
			s.embeddings[i] = embedding
			return nil
		}
	}
	return fmt.Errorf("item not found: %s", item.ID)
}

// Stats returns statistics about the store contents
func (s *VectorStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		TotalItems:  len(s.items),
		LastUpdated: time.Now(),
	}
	if len(s.embeddings) > 0 {
		stats.Dimension = len(s.embeddings[0])
	}
	return stats, nil
}

// Close clears the store
func (s *VectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make([]memory.Item, 0)
	s.embeddings = make([][]float32, 0)
	return nil
}

func matchesFilter(item memory.Item, filter map[string]any) bool {
	for key, value := range filter {
		itemValue, exists := item.Metadata[key]
		if !exists || itemValue != value {
			return false
		}
	}
	return true
}

// CosineSimilarity calculates cosine similarity between two vectors.
// Mismatched dimensions or a zero vector score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct float64
	var normA float64
	var normB float64

	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

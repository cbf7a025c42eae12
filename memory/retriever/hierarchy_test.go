package retriever

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newPolicyIndex() *HierarchicalIndex {
	index := NewHierarchicalIndex()

	index.AddDocument("customer-service", "return-policy", map[string]any{"version": "2.3"})
	index.AddChunk("return-policy", Chunk{
		ID:      "rp-1",
		Content: "Items may be returned within 30 days for a full refund",
	})
	index.AddChunk("return-policy", Chunk{
		ID:      "rp-2",
		Content: "Section 4.2: exceptions for perishable goods",
	})

	index.AddDocument("legal", "privacy-policy", map[string]any{"version": "1.0"})
	index.AddChunk("privacy-policy", Chunk{
		ID:      "pp-1",
		Content: "Personal data is retained for a maximum of 90 days",
	})

	return index
}

func TestHierarchicalIndex(t *testing.T) {
	ctx := context.Background()
	index := newPolicyIndex()

	t.Run("domain hint narrows search", func(t *testing.T) {
		hits := index.Retrieve(ctx, "refund days", "customer-service")
		assert.Len(t, hits, 1)
		assert.Equal(t, "return-policy", hits[0].DocID)
		assert.Equal(t, "rp-1", hits[0].Chunk.ID)
		assert.Equal(t, "2.3", hits[0].DocMetadata["version"])
	})

	t.Run("no hint searches all domains", func(t *testing.T) {
		hits := index.Retrieve(ctx, "days", "")
		assert.Len(t, hits, 2)
	})

	t.Run("no match", func(t *testing.T) {
		hits := index.Retrieve(ctx, "quantum", "customer-service")
		assert.Empty(t, hits)
	})

	t.Run("unknown domain", func(t *testing.T) {
		hits := index.Retrieve(ctx, "refund", "finance")
		assert.Empty(t, hits)
	})

	t.Run("domains listing", func(t *testing.T) {
		assert.ElementsMatch(t, []string{"customer-service", "legal"}, index.Domains())
	})
}

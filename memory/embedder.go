package memory

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Embedder converts text into vector embeddings
type Embedder interface {
	// EmbedDocument embeds a single text
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	// EmbedDocuments embeds multiple texts
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension returns the embedding dimension
	Dimension() int
}

// HashEmbedder is a deterministic embedder based on word hashing.
// It produces stable, unit-normalized vectors without any model calls,
// which makes it suitable for tests and offline similarity search.
type HashEmbedder struct {
	dimension int
}

var _ Embedder = (*HashEmbedder)(nil)

// NewHashEmbedder creates a hash embedder with the given dimension.
// Dimensions below 1 fall back to 256.
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension < 1 {
		dimension = 256
	}
	return &HashEmbedder{dimension: dimension}
}

// Dimension returns the embedding dimension
func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

// EmbedDocument embeds a single text by accumulating word hashes
func (e *HashEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	vector := make([]float32, e.dimension)

	words := strings.Fields(strings.ToLower(text))
	for _, word := range words {
		sum := md5.Sum([]byte(word))
		idx := binary.BigEndian.Uint64(sum[:8]) % uint64(e.dimension)
		vector[idx] += 1.0
	}

	// Unit-normalize so cosine similarity reduces to a dot product
	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vector {
			vector[i] = float32(float64(vector[i]) / norm)
		}
	}

	return vector, nil
}

// EmbedDocuments embeds multiple texts
func (e *HashEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embedding, err := e.EmbedDocument(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text %d: %w", i, err)
		}
		embeddings[i] = embedding
	}
	return embeddings, nil
}

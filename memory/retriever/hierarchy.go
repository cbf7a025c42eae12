package retriever

import (
	"context"
	"strings"
	"sync"
)

// Chunk is a searchable fragment of a document
type Chunk struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ChunkHit is a chunk matched during hierarchical retrieval, annotated
// with its document context
type ChunkHit struct {
	DocID       string         `json:"doc_id"`
	DocMetadata map[string]any `json:"doc_metadata,omitempty"`
	Chunk       Chunk          `json:"chunk"`
}

// HierarchicalIndex organizes content in three levels: domain ->
// document -> chunk. Narrowing by domain first reduces the search space
// before chunks are matched. It is safe for concurrent use.
type HierarchicalIndex struct {
	mu        sync.RWMutex
	domains   map[string][]string       // domain -> doc IDs
	documents map[string]map[string]any // doc ID -> metadata
	chunks    map[string][]Chunk        // doc ID -> chunks
}

// NewHierarchicalIndex creates an empty hierarchical index
func NewHierarchicalIndex() *HierarchicalIndex {
	return &HierarchicalIndex{
		domains:   make(map[string][]string),
		documents: make(map[string]map[string]any),
		chunks:    make(map[string][]Chunk),
	}
}

// AddDocument registers a document under a domain
func (h *HierarchicalIndex) AddDocument(domain, docID string, metadata map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.domains[domain] = append(h.domains[domain], docID)
	h.documents[docID] = metadata
}

// AddChunk appends a chunk to a document
func (h *HierarchicalIndex) AddChunk(docID string, chunk Chunk) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.chunks[docID] = append(h.chunks[docID], chunk)
}

// Domains returns the registered domain names
func (h *HierarchicalIndex) Domains() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.domains))
	for name := range h.domains {
		names = append(names, name)
	}
	return names
}

// Retrieve narrows the search to one domain when domainHint is set
// (all domains otherwise), then returns the chunks containing any query
// word, annotated with their document metadata.
func (h *HierarchicalIndex) Retrieve(ctx context.Context, query, domainHint string) []ChunkHit {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var docIDs []string
	if domainHint != "" {
		docIDs = h.domains[domainHint]
	} else {
		for _, ids := range h.domains {
			docIDs = append(docIDs, ids...)
		}
	}

	words := strings.Fields(strings.ToLower(query))

	var hits []ChunkHit
	for _, docID := range docIDs {
		for _, chunk := range h.chunks[docID] {
			if containsAny(strings.ToLower(chunk.Content), words) {
				hits = append(hits, ChunkHit{
					DocID:       docID,
					DocMetadata: h.documents[docID],
					Chunk:       chunk,
				})
			}
		}
	}
	return hits
}

func containsAny(content string, words []string) bool {
	for _, word := range words {
		if strings.Contains(content, word) {
			return true
		}
	}
	return false
}

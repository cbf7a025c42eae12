package retriever

import (
	"context"

	"github.com/smallnest/agentcore/log"
	"github.com/smallnest/agentcore/memory"
)

// Query describes a hybrid retrieval request. Only the signals that are
// set participate: an empty UserID skips episodic retrieval, an empty
// TaskType skips procedural retrieval, and so on.
type Query struct {
	Text      string
	UserID    string
	SessionID string
	Entities  []string
	TaskType  string
	Limit     int
}

// HybridOptions configures a hybrid retriever
type HybridOptions struct {
	Vector     *VectorRetriever
	Episodic   *EpisodicRetriever
	Procedural *ProceduralRetriever
	Entity     *EntityRetriever

	// RRFConstant is the rank fusion smoothing constant (default 60)
	RRFConstant int

	// Logger receives warnings about failed sources (default NoOpLogger)
	Logger log.Logger
}

// HybridRetriever fans a query out to every configured retrieval source
// and fuses the ranked lists with reciprocal rank fusion. A source that
// fails contributes nothing; the others still produce results.
type HybridRetriever struct {
	vector     *VectorRetriever
	episodic   *EpisodicRetriever
	procedural *ProceduralRetriever
	entity     *EntityRetriever
	rrfK       int
	logger     log.Logger
}

// NewHybridRetriever creates a hybrid retriever with only a vector source
func NewHybridRetriever(vector *VectorRetriever) *HybridRetriever {
	return NewHybridRetrieverWithOptions(HybridOptions{Vector: vector})
}

// NewHybridRetrieverWithOptions creates a hybrid retriever from options
func NewHybridRetrieverWithOptions(opts HybridOptions) *HybridRetriever {
	if opts.RRFConstant <= 0 {
		opts.RRFConstant = memory.DefaultRRFConstant
	}
	if opts.Logger == nil {
		opts.Logger = &log.NoOpLogger{}
	}
	return &HybridRetriever{
		vector:     opts.Vector,
		episodic:   opts.Episodic,
		procedural: opts.Procedural,
		entity:     opts.Entity,
		rrfK:       opts.RRFConstant,
		logger:     opts.Logger,
	}
}

// Retrieve runs a text-only hybrid retrieval
func (h *HybridRetriever) Retrieve(ctx context.Context, query string, limit int) ([]memory.RetrievalResult, error) {
	return h.RetrieveQuery(ctx, Query{Text: query, Limit: limit})
}

// RetrieveQuery retrieves from every source the query carries a signal
// for, fuses the ranked lists and returns the top results. A query with
// no usable signal returns an empty result without error.
func (h *HybridRetriever) RetrieveQuery(ctx context.Context, query Query) ([]memory.RetrievalResult, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 10
	}

	var lists [][]memory.RetrievalResult
	appendList := func(results []memory.RetrievalResult) {
		if len(results) > 0 {
			lists = append(lists, results)
		}
	}

	if h.vector != nil && query.Text != "" {
		results, err := h.vector.Retrieve(ctx, query.Text, limit)
		if err != nil {
			h.logger.Warn("hybrid retrieval: vector source failed: %v", err)
		} else {
			appendList(results)
		}
	}

	if h.episodic != nil && query.UserID != "" {
		results, err := h.episodic.Retrieve(ctx, query.UserID, query.SessionID, limit)
		if err != nil {
			h.logger.Warn("hybrid retrieval: episodic source failed: %v", err)
		} else {
			appendList(results)
		}
	}

	if h.entity != nil {
		for _, entity := range query.Entities {
			results, err := h.entity.Retrieve(ctx, entity, limit)
			if err != nil {
				h.logger.Warn("hybrid retrieval: entity source failed for %s: %v", entity, err)
				continue
			}
			appendList(results)
		}
	}

	if h.procedural != nil && query.TaskType != "" {
		results, err := h.procedural.Retrieve(ctx, query.TaskType, limit)
		if err != nil {
			h.logger.Warn("hybrid retrieval: procedural source failed: %v", err)
		} else {
			appendList(results)
		}
	}

	if len(lists) == 0 {
		return []memory.RetrievalResult{}, nil
	}

	fused := memory.ReciprocalRankFusion(lists, h.rrfK)
	if len(fused) > limit {
		fused = fused[:limit]
	}
	return fused, nil
}

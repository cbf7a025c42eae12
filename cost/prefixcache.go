package cost

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// CacheStatus is the outcome of a prefix cache lookup
type CacheStatus string

const (
	// CacheHit means the cached prefix state was reused
	CacheHit CacheStatus = "hit"
	// CacheMiss means no cached state existed
	CacheMiss CacheStatus = "miss"
	// CacheExpired means a cached state existed but its TTL passed
	CacheExpired CacheStatus = "expired"
)

// Prompt is a cache-optimized prompt layout. Static content goes
// first so repeated requests share the longest possible prefix:
// system prompt, then retrieval context, then conversation history,
// then the per-request query.
type Prompt struct {
	SystemPrompt string
	Context      string
	History      []string
	Query        string
}

// Assemble builds the full prompt in cache-friendly order
func (p *Prompt) Assemble() string {
	parts := []string{p.SystemPrompt}
	if p.Context != "" {
		parts = append(parts, "## Context\n"+p.Context)
	}
	if len(p.History) > 0 {
		parts = append(parts, "## Conversation History\n"+strings.Join(p.History, "\n"))
	}
	if p.Query != "" {
		parts = append(parts, "## Current Query\n"+p.Query)
	}
	return strings.Join(parts, "\n\n")
}

// CacheablePrefix returns the static part of the prompt, the system
// prompt plus retrieval context. History changes every turn and is
// excluded.
func (p *Prompt) CacheablePrefix() string {
	prefix := p.SystemPrompt
	if p.Context != "" {
		prefix += "\n\n## Context\n" + p.Context
	}
	return prefix
}

// EstimateTokens is a rough word-based token estimate. Production
// accounting would use the model's tokenizer.
func EstimateTokens(text string) int {
	return len(strings.Fields(text)) * 13 / 10
}

type cachedPrefix struct {
	tokenCount  int
	createdAt   time.Time
	accessCount int
}

// CacheStats summarizes prefix cache effectiveness
type CacheStats struct {
	TotalRequests  int     `json:"total_requests"`
	CacheHits      int     `json:"cache_hits"`
	HitRate        float64 `json:"hit_rate"`
	TokensSaved    int     `json:"tokens_saved"`
	CachedPrefixes int     `json:"cached_prefixes"`
}

// PrefixCache models provider-side prefix caching so prompts can be
// structured and measured for cache efficiency. Prefixes shorter than
// the minimum are never cached. It is safe for concurrent use.
type PrefixCache struct {
	mu              sync.Mutex
	entries         map[string]*cachedPrefix
	ttl             time.Duration
	minPrefixTokens int

	totalRequests int
	cacheHits     int
	tokensSaved   int

	now func() time.Time
}

// NewPrefixCache creates a cache with the given TTL and minimum
// cacheable prefix size in tokens. Zero values default to 5 minutes
// and 1024 tokens.
func NewPrefixCache(ttl time.Duration, minPrefixTokens int) *PrefixCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if minPrefixTokens <= 0 {
		minPrefixTokens = 1024
	}
	return &PrefixCache{
		entries:         make(map[string]*cachedPrefix),
		ttl:             ttl,
		minPrefixTokens: minPrefixTokens,
		now:             time.Now,
	}
}

// Check looks up the prompt's cacheable prefix. A hit returns the
// tokens saved; a miss stores the prefix for future requests.
func (c *PrefixCache) Check(prompt *Prompt) (CacheStatus, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests++

	prefix := prompt.CacheablePrefix()
	prefixTokens := EstimateTokens(prefix)
	if prefixTokens < c.minPrefixTokens {
		return CacheMiss, 0
	}

	key := hashPrefix(prefix)
	if entry, ok := c.entries[key]; ok {
		if c.now().Sub(entry.createdAt) > c.ttl {
			delete(c.entries, key)
			return CacheExpired, 0
		}
		entry.accessCount++
		c.cacheHits++
		c.tokensSaved += entry.tokenCount
		return CacheHit, entry.tokenCount
	}

	c.entries[key] = &cachedPrefix{
		tokenCount: prefixTokens,
		createdAt:  c.now(),
	}
	return CacheMiss, 0
}

// Stats returns the cache's running statistics
func (c *PrefixCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{
		TotalRequests:  c.totalRequests,
		CacheHits:      c.cacheHits,
		TokensSaved:    c.tokensSaved,
		CachedPrefixes: len(c.entries),
	}
	if c.totalRequests > 0 {
		stats.HitRate = float64(c.cacheHits) / float64(c.totalRequests)
	}
	return stats
}

func hashPrefix(prefix string) string {
	sum := sha256.Sum256([]byte(prefix))
	return hex.EncodeToString(sum[:8])
}

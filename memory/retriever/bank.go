package retriever

import (
	"context"
	"fmt"
	"sync"

	"github.com/smallnest/agentcore/memory"
)

// Bank holds memory items indexed by tier, user and mentioned entity.
// It backs the episodic, procedural and entity retrievers and is safe
// for concurrent use.
type Bank struct {
	mu       sync.RWMutex
	items    map[string]memory.Item
	byTier   map[memory.Tier][]string
	byUser   map[string][]string
	byEntity map[string][]string
}

// NewBank creates an empty memory bank
func NewBank() *Bank {
	return &Bank{
		items:    make(map[string]memory.Item),
		byTier:   make(map[memory.Tier][]string),
		byUser:   make(map[string][]string),
		byEntity: make(map[string][]string),
	}
}

// Store adds an item to the bank. Items mentioning entities (via the
// "entities" metadata key, a []string) are indexed for entity retrieval.
func (b *Bank) Store(ctx context.Context, item memory.Item) error {
	if item.ID == "" {
		return fmt.Errorf("item ID is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.items[item.ID]; exists {
		return fmt.Errorf("item already stored: %s", item.ID)
	}

	b.items[item.ID] = item
	b.byTier[item.Tier] = append(b.byTier[item.Tier], item.ID)

	if item.UserID != "" {
		b.byUser[item.UserID] = append(b.byUser[item.UserID], item.ID)
	}

	for _, entity := range entityList(item.Metadata) {
		b.byEntity[entity] = append(b.byEntity[entity], item.ID)
	}

	return nil
}

// Get returns an item by ID
func (b *Bank) Get(ctx context.Context, id string) (memory.Item, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	item, exists := b.items[id]
	return item, exists
}

// ByTier returns all items in a tier
func (b *Bank) ByTier(ctx context.Context, tier memory.Tier) []memory.Item {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.resolve(b.byTier[tier])
}

// ByUser returns all items stored for a user
func (b *Bank) ByUser(ctx context.Context, userID string) []memory.Item {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.resolve(b.byUser[userID])
}

// ByEntity returns all items mentioning an entity
func (b *Bank) ByEntity(ctx context.Context, entity string) []memory.Item {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.resolve(b.byEntity[entity])
}

// Len returns the number of stored items
func (b *Bank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}

// resolve maps item IDs to items. Callers must hold the lock.
func (b *Bank) resolve(ids []string) []memory.Item {
	items := make([]memory.Item, 0, len(ids))
	for _, id := range ids {
		if item, exists := b.items[id]; exists {
			items = append(items, item)
		}
	}
	return items
}

// entityList extracts the "entities" metadata value, accepting both
// []string and []any encodings
func entityList(metadata map[string]any) []string {
	raw, exists := metadata["entities"]
	if !exists {
		return nil
	}

	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		entities := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				entities = append(entities, s)
			}
		}
		return entities
	}
	return nil
}
